package models

// Feature indices in a FeatureRow. The classifier is trained on this exact
// column order and the contract is positional, so the order never changes.
const (
	FeatureDayOfWeek = iota
	FeatureHourOfDay
	FeaturePreviousAnswerRate

	FeatureCount = 3
)

// Defaults substituted for fields missing from a batch contact entry.
const (
	DefaultDayOfWeek          = 0
	DefaultHourOfDay          = 12
	DefaultPreviousAnswerRate = 0.5
)

// FeatureRow is one contact's feature vector in the fixed column order
// [day_of_week, hour_of_day, previous_answer_rate].
type FeatureRow [FeatureCount]float64

// FeatureMatrix is an ordered set of feature rows, one per contact. Row
// order is the only join key between request entries and response entries.
type FeatureMatrix []FeatureRow

// Contact is one entry of a batch request. Fields are pointers so that an
// absent key can be told apart from an explicit zero when defaults are
// substituted.
type Contact struct {
	DayOfWeek          *int     `json:"day_of_week,omitempty"`
	HourOfDay          *int     `json:"hour_of_day,omitempty"`
	PreviousAnswerRate *float64 `json:"previous_answer_rate,omitempty"`
}

// Row builds the contact's feature row, substituting defaults for missing
// fields. Values are passed through without range checks.
func (c Contact) Row() FeatureRow {
	row := FeatureRow{DefaultDayOfWeek, DefaultHourOfDay, DefaultPreviousAnswerRate}
	if c.DayOfWeek != nil {
		row[FeatureDayOfWeek] = float64(*c.DayOfWeek)
	}
	if c.HourOfDay != nil {
		row[FeatureHourOfDay] = float64(*c.HourOfDay)
	}
	if c.PreviousAnswerRate != nil {
		row[FeaturePreviousAnswerRate] = *c.PreviousAnswerRate
	}
	return row
}

// PredictionBatch holds the raw classifier output for one request: a
// predicted hour label per row plus the class probability distribution it
// was drawn from, index-aligned with the feature matrix.
type PredictionBatch struct {
	Labels        []int
	Distributions [][]float64
}

// ResponsePayload is the wire response: one optimal hour and one confidence
// value per input row, in input order.
type ResponsePayload struct {
	OptimalHours []int     `json:"optimal_hours"`
	Confidence   []float64 `json:"confidence"`
}

// ErrorResponse is the wire shape of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
