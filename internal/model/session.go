// Package model wraps ONNX Runtime: one explicitly managed environment per
// process and sessions that score 28x28 digit grids.
package model

import (
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"
)

var ErrInferenceFailure = errors.New("inference failed")

var envMu sync.Mutex

// Environment is the process-wide ONNX Runtime environment. Create it once
// with InitEnvironment and Close it when the process is done recognizing.
type Environment struct {
	closed bool
}

// InitEnvironment loads the shared library (the onnxruntime_go default when
// libraryPath is empty) and initializes the runtime.
func InitEnvironment(libraryPath string) (*Environment, error) {
	envMu.Lock()
	defer envMu.Unlock()

	if ort.IsInitialized() {
		return nil, errors.New("onnx environment is already initialized")
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize ONNX environment")
	}
	log.WithField("library", libraryPath).Info("ONNX environment initialized")
	return &Environment{}, nil
}

func (e *Environment) Close() error {
	envMu.Lock()
	defer envMu.Unlock()

	if e == nil || e.closed {
		return nil
	}
	e.closed = true
	if err := ort.DestroyEnvironment(); err != nil {
		return errors.Wrap(err, "failed to destroy ONNX environment")
	}
	return nil
}

func (e *Environment) usable() bool {
	return e != nil && !e.closed
}

// Session scores grids against one model. Scores calls are serialized since
// the input and output tensors are shared between runs.
type Session struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	Metadata     Metadata
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

func NewSession(env *Environment, modelPath string, metadata Metadata) (*Session, error) {
	if !env.usable() {
		return nil, errors.New("onnx environment is not initialized")
	}
	if err := metadata.validate(); err != nil {
		return nil, err
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.InputShape...))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create input tensor")
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, errors.Wrap(err, "failed to create output tensor")
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, errors.Wrapf(err, "failed to create ONNX session for %s", modelPath)
	}

	log.WithFields(log.Fields{
		"model":  modelPath,
		"input":  metadata.InputShape,
		"output": metadata.OutputShape,
	}).Info("model loaded")

	return &Session{
		session:      session,
		Metadata:     metadata,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Scores runs the model on input and returns a copy of the output tensor.
func (s *Session) Scores(input []float32) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, errors.Wrap(ErrInferenceFailure, "session is closed")
	}
	data := s.inputTensor.GetData()
	if len(input) != len(data) {
		return nil, errors.Wrapf(ErrInferenceFailure, "expected %d input values, got %d", len(data), len(input))
	}
	copy(data, input)

	if err := s.session.Run(); err != nil {
		return nil, errors.Wrapf(ErrInferenceFailure, "%v", err)
	}

	output := s.outputTensor.GetData()
	scores := make([]float32, len(output))
	copy(scores, output)
	return scores, nil
}

func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inputTensor != nil {
		s.inputTensor.Destroy()
		s.inputTensor = nil
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
		s.outputTensor = nil
	}
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
}
