// Package classifier implements the rule-table hour-of-day classifier
// behind the serving contract. The table is loaded once from a model
// artifact and never mutated afterwards, so one instance serves any number
// of concurrent requests.
package classifier

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dialwise/calltime-predictor/internal/artifact"
	"github.com/dialwise/calltime-predictor/models"
)

// HourTable predicts an optimal contact hour by matching the hour_of_day
// feature against an ordered band table. Probabilities come from the
// training vote counts stored with each rule.
type HourTable struct {
	labels []int
	rules  []artifact.Rule
	logger zerolog.Logger
}

// New builds a classifier from a validated model document.
func New(doc *artifact.Document) (*HourTable, error) {
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("building classifier: %w", err)
	}
	return &HourTable{
		labels: doc.Labels,
		rules:  doc.Rules,
		logger: log.With().Str("component", "hour_classifier").Logger(),
	}, nil
}

// Load reads a model artifact from disk and builds the classifier from it.
// This is the "persisted weights to ready classifier" step run once at
// startup.
func Load(path string) (*HourTable, error) {
	doc, err := artifact.Load(path)
	if err != nil {
		return nil, err
	}
	c, err := New(doc)
	if err != nil {
		return nil, err
	}
	c.logger.Info().
		Str("path", path).
		Int("rules", len(doc.Rules)).
		Ints("labels", doc.Labels).
		Time("trained_at", doc.CreatedAt).
		Msg("Model loaded")
	return c, nil
}

// Labels returns the trained label domain in stored order.
func (c *HourTable) Labels() []int {
	return c.labels
}

// Predict returns one hour label per matrix row.
func (c *HourTable) Predict(matrix models.FeatureMatrix) ([]int, error) {
	labels := make([]int, len(matrix))
	for i, row := range matrix {
		labels[i] = c.match(row).Label
	}
	return labels, nil
}

// PredictProbabilities returns one distribution per matrix row, ordered by
// the label domain. Each row sums to 1.0 within floating-point tolerance.
func (c *HourTable) PredictProbabilities(matrix models.FeatureMatrix) ([][]float64, error) {
	distributions := make([][]float64, len(matrix))
	for i, row := range matrix {
		distributions[i] = normalizeVotes(c.match(row).Votes)
	}
	return distributions, nil
}

// match finds the first rule whose band contains the row's hour feature.
// The last rule is the trained else-branch, so rows outside every band
// (hour features are passed through unvalidated) fall back to it instead
// of failing.
func (c *HourTable) match(row models.FeatureRow) artifact.Rule {
	hour := row[models.FeatureHourOfDay]
	for _, rule := range c.rules {
		if rule.Matches(hour) {
			return rule
		}
	}
	return c.rules[len(c.rules)-1]
}

func normalizeVotes(votes []int) []float64 {
	total := 0
	for _, v := range votes {
		total += v
	}
	distribution := make([]float64, len(votes))
	for i, v := range votes {
		distribution[i] = float64(v) / float64(total)
	}
	return distribution
}
