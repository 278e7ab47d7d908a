package recognizer

import (
	"github.com/pkg/errors"

	"github.com/Brownie44l1/digit-api/internal/bitmap"
	"github.com/Brownie44l1/digit-api/internal/model"
)

// Status codes returned to callers that expect a numeric result.
const (
	StatusOK                = 0
	StatusUnknown           = -1
	StatusFileOpen          = -2
	StatusSignatureMismatch = -3
	StatusHeaderDecode      = -6
	StatusPixelDecode       = -7
	StatusInference         = -8
	StatusInvalidGrid       = -9
)

var ErrInvalidGrid = errors.New("grid must hold 784 values")

// Status maps an error returned by the Recognizer to its status code.
func Status(err error) int {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, bitmap.ErrFileOpen):
		return StatusFileOpen
	case errors.Is(err, bitmap.ErrSignatureMismatch):
		return StatusSignatureMismatch
	case errors.Is(err, model.ErrInferenceFailure):
		return StatusInference
	case errors.Is(err, ErrInvalidGrid):
		return StatusInvalidGrid
	}
	switch bitmap.StageOf(err) {
	case bitmap.StageHeader:
		return StatusHeaderDecode
	case bitmap.StagePixels:
		return StatusPixelDecode
	}
	return StatusUnknown
}
