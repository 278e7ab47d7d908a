package bitmap

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrFileOpen          = errors.New("cannot open image file")
	ErrSignatureMismatch = errors.New("file is not a PNG image")
)

// Stage tells which part of the PNG stream failed to decode.
type Stage int

const (
	StageHeader Stage = iota + 1
	StagePixels
)

func (s Stage) String() string {
	switch s {
	case StageHeader:
		return "header"
	case StagePixels:
		return "pixel data"
	default:
		return "unknown stage"
	}
}

// DecodeError carries the decoding library's message together with the
// stage it was reported from.
type DecodeError struct {
	Stage Stage
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("png %s decode failed: %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// StageOf returns the failing stage of err, or 0 if err is not a DecodeError.
func StageOf(err error) Stage {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Stage
	}
	return 0
}
