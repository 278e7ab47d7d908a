// Package recognizer runs the digit pipeline: decode, sample onto the grid,
// score with the classifier and pick the best class.
package recognizer

import (
	"image"
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Brownie44l1/digit-api/internal/bitmap"
	"github.com/Brownie44l1/digit-api/internal/grid"
	"github.com/Brownie44l1/digit-api/internal/model"
)

const classes = 10

// Classifier scores a flattened 28x28 grid, one score per digit.
type Classifier interface {
	Scores(input []float32) ([]float32, error)
}

type Result struct {
	Digit      int
	Confidence float32
	Scores     []float32
	Grid       grid.Grid
}

type Recognizer struct {
	classifier Classifier
	decoder    *bitmap.Decoder
	logger     *log.Entry
}

type Option func(*Recognizer)

func WithLogger(l *log.Entry) Option {
	return func(r *Recognizer) {
		r.logger = l
	}
}

func New(classifier Classifier, opts ...Option) *Recognizer {
	r := &Recognizer{
		classifier: classifier,
		decoder:    bitmap.NewDecoder(),
		logger:     log.WithField("component", "recognizer"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecognizeFile decodes the PNG at path and recognizes the digit in it.
func (r *Recognizer) RecognizeFile(path string) (*Result, error) {
	img, err := r.decoder.Decode(path)
	if err != nil {
		return nil, err
	}
	defer img.Release()

	r.logger.WithFields(log.Fields{
		"path":   path,
		"width":  img.Width,
		"height": img.Height,
		"format": img.Format,
	}).Debug("image decoded")

	return r.recognizeDecoded(img)
}

// RecognizeReader is RecognizeFile for an in-memory or already opened PNG.
func (r *Recognizer) RecognizeReader(rs io.ReadSeeker) (*Result, error) {
	img, err := r.decoder.DecodeReader(rs)
	if err != nil {
		return nil, err
	}
	defer img.Release()

	return r.recognizeDecoded(img)
}

// RecognizeImage recognizes a digit in an image decoded elsewhere, such as a
// JPEG upload. Its pixels are treated as RGBA.
func (r *Recognizer) RecognizeImage(src image.Image) (*Result, error) {
	img := bitmap.FromImage(src)
	defer img.Release()

	return r.recognizeDecoded(img)
}

// RecognizeGrid skips decoding for callers that already hold a normalized grid.
func (r *Recognizer) RecognizeGrid(input []float32) (*Result, error) {
	if len(input) != grid.Cells {
		return nil, errors.Wrapf(ErrInvalidGrid, "got %d values", len(input))
	}
	var g grid.Grid
	copy(g[:], input)
	return r.classify(g)
}

func (r *Recognizer) recognizeDecoded(img *bitmap.DecodedImage) (*Result, error) {
	return r.classify(grid.Sample(img))
}

func (r *Recognizer) classify(g grid.Grid) (*Result, error) {
	scores, err := r.classifier.Scores(g.Slice())
	if err != nil {
		if errors.Is(err, model.ErrInferenceFailure) {
			return nil, err
		}
		return nil, errors.Wrapf(model.ErrInferenceFailure, "%v", err)
	}
	if len(scores) < classes {
		return nil, errors.Wrapf(model.ErrInferenceFailure, "expected %d scores, got %d", classes, len(scores))
	}
	scores = scores[:classes]

	digit := grid.ArgMax(scores)
	r.logger.WithFields(log.Fields{
		"digit":  digit,
		"scores": scores,
	}).Debug("digit recognized")

	return &Result{
		Digit:      digit,
		Confidence: scores[digit],
		Scores:     scores,
		Grid:       g,
	}, nil
}
