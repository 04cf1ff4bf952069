package inference

import "github.com/dialwise/calltime-predictor/models"

// Format turns raw classifier output into the response payload. Confidence
// is always the maximum class probability of the row's distribution, never
// derived from the label itself: two rows predicting the same hour can carry
// very different certainty, and callers gate automated dialing on it.
//
// Total over well-formed input; a zero-row batch yields empty (non-nil)
// slices so the response encodes as [] rather than null.
func Format(batch models.PredictionBatch) models.ResponsePayload {
	hours := make([]int, len(batch.Labels))
	confidence := make([]float64, len(batch.Labels))

	for i, label := range batch.Labels {
		hours[i] = label
		confidence[i] = maxProbability(batch.Distributions[i])
	}

	return models.ResponsePayload{
		OptimalHours: hours,
		Confidence:   confidence,
	}
}

func maxProbability(distribution []float64) float64 {
	best := 0.0
	for _, p := range distribution {
		if p > best {
			best = p
		}
	}
	return best
}
