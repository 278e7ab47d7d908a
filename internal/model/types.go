package model

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

type Metadata struct {
	InputName   string   `json:"input_name"`
	OutputName  string   `json:"output_name"`
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
}

// DefaultMetadata describes the ONNX model zoo mnist-8 network.
func DefaultMetadata() Metadata {
	return Metadata{
		InputName:   "Input3",
		OutputName:  "Plus214_Output_0",
		InputShape:  []int64{1, 1, 28, 28},
		OutputShape: []int64{1, 10},
		Classes:     []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"},
	}
}

// LoadMetadata reads a metadata JSON file. Fields missing from the file keep
// their defaults; an empty path yields DefaultMetadata.
func LoadMetadata(path string) (Metadata, error) {
	metadata := DefaultMetadata()
	if path == "" {
		return metadata, nil
	}

	metaFile, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, errors.Wrap(err, "failed to read metadata")
	}
	if err := json.Unmarshal(metaFile, &metadata); err != nil {
		return Metadata{}, errors.Wrap(err, "failed to parse metadata")
	}
	if err := metadata.validate(); err != nil {
		return Metadata{}, err
	}
	return metadata, nil
}

func (m Metadata) InputSize() int {
	return shapeSize(m.InputShape)
}

func (m Metadata) OutputSize() int {
	return shapeSize(m.OutputShape)
}

func (m Metadata) validate() error {
	if m.InputName == "" || m.OutputName == "" {
		return errors.New("metadata: tensor names must not be empty")
	}
	if m.InputSize() <= 0 || m.OutputSize() <= 0 {
		return errors.Errorf("metadata: invalid shapes %v -> %v", m.InputShape, m.OutputShape)
	}
	if len(m.Classes) > m.OutputSize() {
		return errors.Errorf("metadata: %d classes for %d outputs", len(m.Classes), m.OutputSize())
	}
	return nil
}

func shapeSize(shape []int64) int {
	if len(shape) == 0 {
		return 0
	}
	size := 1
	for _, dim := range shape {
		size *= int(dim)
	}
	return size
}

type PredictionRequest struct {
	Grid []float32 `json:"grid"`
}

type PredictionResponse struct {
	Digit      int       `json:"digit"`
	Class      string    `json:"class,omitempty"`
	Confidence float32   `json:"confidence"`
	Scores     []float32 `json:"scores"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
