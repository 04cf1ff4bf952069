package inference

import (
	"encoding/json"
	"fmt"

	"github.com/dialwise/calltime-predictor/models"
)

// PayloadKind tags the two accepted request shapes.
type PayloadKind int

const (
	// PayloadSingle is {"features": [day_of_week, hour_of_day, previous_answer_rate]}.
	PayloadSingle PayloadKind = iota
	// PayloadBatch is {"contacts": [{...}, ...]}.
	PayloadBatch
)

// Payload is the decoded request, already resolved to one of the two
// variants. It is only ever produced by DecodePayload, so downstream code
// can rely on the tagged variant being populated.
type Payload struct {
	Kind     PayloadKind
	Features models.FeatureRow
	Contacts []models.Contact
}

// envelope is the raw wire shape before variant detection. Raw messages
// keep shape errors inside the recognized keys distinguishable from a body
// that fails to parse at all.
type envelope struct {
	Features json.RawMessage `json:"features"`
	Contacts json.RawMessage `json:"contacts"`
}

// DecodePayload parses request bytes into a tagged Payload. Malformed JSON
// yields a ParseError; well-formed JSON that matches neither variant, or a
// recognized key with a wrong-shaped value, yields a ValidationError.
// When both keys are present, features wins, the same precedence as
// checking for the single shape first.
func DecodePayload(data []byte) (Payload, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Payload{}, &ParseError{Err: err}
	}

	switch {
	case env.Features != nil:
		var features []float64
		if err := json.Unmarshal(env.Features, &features); err != nil {
			return Payload{}, &ValidationError{Reason: "'features' must be an array of numbers"}
		}
		if len(features) != models.FeatureCount {
			return Payload{}, &ValidationError{
				Reason: fmt.Sprintf("'features' must have exactly %d elements, got %d", models.FeatureCount, len(features)),
			}
		}
		var row models.FeatureRow
		copy(row[:], features)
		return Payload{Kind: PayloadSingle, Features: row}, nil

	case env.Contacts != nil:
		var contacts []models.Contact
		// A literal null decodes into a nil slice without error, so it has
		// to be rejected explicitly; an empty array decodes non-nil.
		if err := json.Unmarshal(env.Contacts, &contacts); err != nil || contacts == nil {
			return Payload{}, &ValidationError{Reason: "'contacts' must be an array of objects"}
		}
		return Payload{Kind: PayloadBatch, Contacts: contacts}, nil

	default:
		return Payload{}, &ValidationError{Reason: "payload must contain 'features' or 'contacts' key"}
	}
}

// BuildMatrix turns a decoded payload into the feature matrix handed to the
// classifier. Single payloads become a one-row matrix; batch payloads keep
// one row per contact in contact order, with defaults filled in per field.
// An empty contacts list is legal and yields a zero-row matrix.
func BuildMatrix(payload Payload) models.FeatureMatrix {
	if payload.Kind == PayloadSingle {
		return models.FeatureMatrix{payload.Features}
	}

	matrix := make(models.FeatureMatrix, 0, len(payload.Contacts))
	for _, contact := range payload.Contacts {
		matrix = append(matrix, contact.Row())
	}
	return matrix
}

// Normalize decodes raw request bytes and builds the feature matrix in one
// step. This is the entry point the pipeline uses.
func Normalize(data []byte) (models.FeatureMatrix, error) {
	payload, err := DecodePayload(data)
	if err != nil {
		return nil, err
	}
	return BuildMatrix(payload), nil
}
