package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	ort "github.com/yalue/onnxruntime_go"
	"golang.org/x/sync/semaphore"
)

// Options tunes how the ONNX runtime is brought up.
type Options struct {
	// SharedLibraryPath points at libonnxruntime when it is not on the
	// default loader path.
	SharedLibraryPath string
}

// Server owns one ONNX session. The session reuses fixed input and output
// tensors, so only one inference may run at a time.
type Server struct {
	session      *ort.AdvancedSession
	Metadata     Metadata
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	sem          *semaphore.Weighted
}

type runResult struct {
	scores []float32
	err    error
}

func NewServer(modelPath string, metadata Metadata, opts Options) (*Server, error) {
	if err := metadata.Validate(); err != nil {
		return nil, fmt.Errorf("invalid metadata: %w", err)
	}

	if opts.SharedLibraryPath != "" {
		ort.SetSharedLibraryPath(opts.SharedLibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputShape := ort.NewShape(metadata.InputShape...)
	outputShape := ort.NewShape(metadata.OutputShape...)

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session for %s: %w", modelPath, err)
	}

	return &Server{
		session:      session,
		Metadata:     metadata,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		sem:          semaphore.NewWeighted(1),
	}, nil
}

// Predict runs the model on one preprocessed batch and returns the top class.
// It gives up when ctx is done; a run already handed to the runtime finishes
// in the background and releases the session afterwards.
func (s *Server) Predict(ctx context.Context, inputData []float32) (*Prediction, error) {
	if want := s.Metadata.InputSize(); len(inputData) != want {
		return nil, fmt.Errorf("expected %d input values, got %d", want, len(inputData))
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for model session: %w", err)
	}

	done := make(chan runResult, 1)
	go func() {
		defer s.sem.Release(1)

		copy(s.inputTensor.GetData(), inputData)
		if err := s.session.Run(); err != nil {
			done <- runResult{err: fmt.Errorf("inference failed: %w", err)}
			return
		}
		scores := make([]float32, len(s.outputTensor.GetData()))
		copy(scores, s.outputTensor.GetData())
		done <- runResult{scores: scores}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("inference aborted: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		return Classify(res.scores, s.Metadata.Classes)
	}
}

// Classify maps the highest score to its label. Ties go to the lowest index
// and NaN scores never win.
func Classify(scores []float32, classes []string) (*Prediction, error) {
	if len(scores) != len(classes) {
		return nil, fmt.Errorf("model produced %d scores for %d classes", len(scores), len(classes))
	}

	maxIdx := ArgMax(scores)
	if maxIdx < 0 {
		return nil, errors.New("model produced no usable scores")
	}

	return &Prediction{
		Index: maxIdx,
		Label: classes[maxIdx],
		Score: scores[maxIdx],
	}, nil
}

// ArgMax returns the index of the first maximum, or -1 if there is none.
func ArgMax(values []float32) int {
	maxIdx := -1
	var maxVal float32
	for i, val := range values {
		if math.IsNaN(float64(val)) {
			continue
		}
		if maxIdx < 0 || val > maxVal {
			maxIdx = i
			maxVal = val
		}
	}
	return maxIdx
}

// closeWait bounds how long Close waits for an in-flight run.
var closeWait = 10 * time.Second

// Close waits for any in-flight run, then releases the runtime. A run still
// going after closeWait keeps the runtime alive, since destroying the tensors
// under it is not safe; Close reports that instead.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeWait)
	defer cancel()
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("inference still running after %s, runtime left in place: %w", closeWait, err)
	}
	defer s.sem.Release(1)

	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
	}
	if s.session != nil {
		s.session.Destroy()
	}
	return ort.DestroyEnvironment()
}
