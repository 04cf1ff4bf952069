package inference

import (
	"encoding/json"
	"testing"

	"github.com/dialwise/calltime-predictor/models"
)

func TestFormatConfidenceIsDistributionMax(t *testing.T) {
	tests := []struct {
		name           string
		batch          models.PredictionBatch
		wantHours      []int
		wantConfidence []float64
	}{
		{
			name: "Single row",
			batch: models.PredictionBatch{
				Labels:        []int{10},
				Distributions: [][]float64{{0.85, 0.10, 0.05}},
			},
			wantHours:      []int{10},
			wantConfidence: []float64{0.85},
		},
		{
			name: "Same label different certainty",
			batch: models.PredictionBatch{
				Labels: []int{14, 14},
				Distributions: [][]float64{
					{0.05, 0.90, 0.05},
					{0.30, 0.40, 0.30},
				},
			},
			wantHours:      []int{14, 14},
			wantConfidence: []float64{0.90, 0.40},
		},
		{
			name: "Max is position independent",
			batch: models.PredictionBatch{
				Labels: []int{19, 10},
				Distributions: [][]float64{
					{0.1, 0.2, 0.7},
					{0.6, 0.25, 0.15},
				},
			},
			wantHours:      []int{19, 10},
			wantConfidence: []float64{0.7, 0.6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(tt.batch)
			if len(got.OptimalHours) != len(tt.wantHours) || len(got.Confidence) != len(tt.wantConfidence) {
				t.Fatalf("Format() lengths = %d/%d, want %d/%d",
					len(got.OptimalHours), len(got.Confidence), len(tt.wantHours), len(tt.wantConfidence))
			}
			for i := range tt.wantHours {
				if got.OptimalHours[i] != tt.wantHours[i] {
					t.Errorf("optimal_hours[%d] = %d, want %d", i, got.OptimalHours[i], tt.wantHours[i])
				}
				if got.Confidence[i] != tt.wantConfidence[i] {
					t.Errorf("confidence[%d] = %v, want %v", i, got.Confidence[i], tt.wantConfidence[i])
				}
				if got.Confidence[i] < 0 || got.Confidence[i] > 1 {
					t.Errorf("confidence[%d] = %v out of [0,1]", i, got.Confidence[i])
				}
			}
		})
	}
}

func TestFormatZeroRowsEncodesAsEmptyArrays(t *testing.T) {
	got := Format(models.PredictionBatch{})

	data, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshaling response: %v", err)
	}
	want := `{"optimal_hours":[],"confidence":[]}`
	if string(data) != want {
		t.Errorf("empty response = %s, want %s", data, want)
	}
}
