package classifier

import (
	"math/rand"
	"time"

	"github.com/dialwise/calltime-predictor/internal/artifact"
)

// Placeholder band table: morning calls answered best at 10, evening calls
// at 19, everything else lands on the mid-afternoon default. This stands in
// for a real trained model until one replaces the artifact.
var placeholderBands = []struct {
	minHour, maxHour, label int
}{
	{9, 11, 10},
	{18, 20, 19},
	{0, 23, 14}, // else-branch, must stay last
}

// placeholderNoise is the fraction of synthetic samples given a wrong label
// so that rule distributions are not degenerate and confidence values look
// like a real model's.
const placeholderNoise = 0.15

// BuildPlaceholder generates a synthetic model document for infrastructure
// testing. The same seed always produces the same document.
func BuildPlaceholder(seed int64, samples int) *artifact.Document {
	rng := rand.New(rand.NewSource(seed))

	labels := make([]int, 0, len(placeholderBands))
	seen := map[int]bool{}
	for _, band := range placeholderBands {
		if !seen[band.label] {
			labels = append(labels, band.label)
			seen[band.label] = true
		}
	}

	rules := make([]artifact.Rule, len(placeholderBands))
	for i, band := range placeholderBands {
		rules[i] = artifact.Rule{
			MinHour: band.minHour,
			MaxHour: band.maxHour,
			Label:   band.label,
			Votes:   make([]int, len(labels)),
		}
	}

	labelIndex := map[int]int{}
	for i, label := range labels {
		labelIndex[label] = i
	}

	// One prior vote per rule keeps its distribution defined even when the
	// sample count is too small to hit every band.
	for i := range rules {
		rules[i].Votes[labelIndex[rules[i].Label]] = 1
	}

	for s := 0; s < samples; s++ {
		hour := rng.Intn(24)

		rule := &rules[len(rules)-1]
		for i := range rules {
			if rules[i].Matches(float64(hour)) {
				rule = &rules[i]
				break
			}
		}

		label := rule.Label
		if rng.Float64() < placeholderNoise {
			label = labels[rng.Intn(len(labels))]
		}
		rule.Votes[labelIndex[label]]++
	}

	return &artifact.Document{
		SchemaVersion: 1,
		CreatedAt:     time.Now().UTC(),
		SampleCount:   samples,
		Labels:        labels,
		Rules:         rules,
	}
}
