package inference

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dialwise/calltime-predictor/models"
)

// Engine runs the normalize -> classify -> format pipeline over one request.
// It holds only the immutable classifier handle loaded at startup, so a
// single Engine is safe to share across concurrent requests.
type Engine struct {
	classifier models.Classifier
	logger     zerolog.Logger
}

// NewEngine creates a pipeline engine around a loaded classifier.
func NewEngine(classifier models.Classifier) *Engine {
	return &Engine{
		classifier: classifier,
		logger:     log.With().Str("component", "inference_engine").Logger(),
	}
}

// Run executes the full pipeline over raw request bytes. Normalization
// errors come back as ParseError or ValidationError; anything the
// classifier gets wrong is an internal error. Either way the whole request
// fails, no partial batches. The normalized matrix is returned alongside
// the response so callers can audit exactly the rows that were served.
func (e *Engine) Run(data []byte) (models.ResponsePayload, models.FeatureMatrix, error) {
	matrix, err := Normalize(data)
	if err != nil {
		return models.ResponsePayload{}, nil, err
	}

	batch, err := e.classify(matrix)
	if err != nil {
		return models.ResponsePayload{}, matrix, fmt.Errorf("classifying %d rows: %w", len(matrix), err)
	}

	resp := Format(batch)
	e.logger.Debug().Int("rows", len(matrix)).Msg("Request served")
	return resp, matrix, nil
}

// Predict runs the pipeline over an already-built feature matrix. Used by
// callers that assemble rows themselves instead of decoding a wire payload.
func (e *Engine) Predict(matrix models.FeatureMatrix) (models.ResponsePayload, error) {
	batch, err := e.classify(matrix)
	if err != nil {
		return models.ResponsePayload{}, fmt.Errorf("classifying %d rows: %w", len(matrix), err)
	}
	return Format(batch), nil
}

// classify calls the classifier and checks its output is aligned with the
// input before formatting trusts it.
func (e *Engine) classify(matrix models.FeatureMatrix) (models.PredictionBatch, error) {
	labels, err := e.classifier.Predict(matrix)
	if err != nil {
		return models.PredictionBatch{}, fmt.Errorf("predict: %w", err)
	}

	distributions, err := e.classifier.PredictProbabilities(matrix)
	if err != nil {
		return models.PredictionBatch{}, fmt.Errorf("predict probabilities: %w", err)
	}

	if len(labels) != len(matrix) || len(distributions) != len(matrix) {
		return models.PredictionBatch{}, fmt.Errorf(
			"classifier output misaligned: %d rows in, %d labels, %d distributions",
			len(matrix), len(labels), len(distributions),
		)
	}

	return models.PredictionBatch{Labels: labels, Distributions: distributions}, nil
}
