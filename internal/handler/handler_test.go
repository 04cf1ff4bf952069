package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dialwise/calltime-predictor/internal/inference"
	"github.com/dialwise/calltime-predictor/models"
)

// echoClassifier predicts the hour feature back as the label so response
// ordering is observable, with a fixed 0.85 top probability.
type echoClassifier struct{}

func (echoClassifier) Predict(matrix models.FeatureMatrix) ([]int, error) {
	labels := make([]int, len(matrix))
	for i, row := range matrix {
		labels[i] = int(row[models.FeatureHourOfDay])
	}
	return labels, nil
}

func (echoClassifier) PredictProbabilities(matrix models.FeatureMatrix) ([][]float64, error) {
	distributions := make([][]float64, len(matrix))
	for i := range matrix {
		distributions[i] = []float64{0.85, 0.10, 0.05}
	}
	return distributions, nil
}

type failingClassifier struct{}

func (failingClassifier) Predict(models.FeatureMatrix) ([]int, error) {
	return nil, errors.New("weights corrupted")
}

func (failingClassifier) PredictProbabilities(models.FeatureMatrix) ([][]float64, error) {
	return nil, errors.New("weights corrupted")
}

type captureRecorder struct {
	rows int
	err  error
}

func (r *captureRecorder) RecordPredictions(matrix models.FeatureMatrix, _ models.ResponsePayload) error {
	r.rows += len(matrix)
	return r.err
}

func newTestServer(classifier models.Classifier, recorder Recorder) *httptest.Server {
	mux := http.NewServeMux()
	New(inference.NewEngine(classifier), recorder).Register(mux)
	return httptest.NewServer(mux)
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url+"/invocations", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /invocations: %v", err)
	}
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response) models.ResponsePayload {
	t.Helper()
	defer resp.Body.Close()
	var out models.ResponsePayload
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return out
}

func TestInvocationsSingle(t *testing.T) {
	srv := newTestServer(echoClassifier{}, nil)
	defer srv.Close()

	resp := postJSON(t, srv.URL, `{"features": [1, 10, 0.5]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	out := decodeResponse(t, resp)
	if len(out.OptimalHours) != 1 || out.OptimalHours[0] != 10 {
		t.Errorf("optimal_hours = %v, want [10]", out.OptimalHours)
	}
	if len(out.Confidence) != 1 || out.Confidence[0] != 0.85 {
		t.Errorf("confidence = %v, want [0.85]", out.Confidence)
	}
}

func TestInvocationsBatchOrder(t *testing.T) {
	srv := newTestServer(echoClassifier{}, nil)
	defer srv.Close()

	resp := postJSON(t, srv.URL, `{"contacts": [
		{"hour_of_day": 10},
		{"hour_of_day": 15},
		{"hour_of_day": 19}
	]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	out := decodeResponse(t, resp)
	want := []int{10, 15, 19}
	if len(out.OptimalHours) != 3 || len(out.Confidence) != 3 {
		t.Fatalf("response lengths = %d/%d, want 3/3", len(out.OptimalHours), len(out.Confidence))
	}
	for i, hour := range want {
		if out.OptimalHours[i] != hour {
			t.Errorf("optimal_hours[%d] = %d, want %d (order must match contacts)", i, out.OptimalHours[i], hour)
		}
	}
}

func TestInvocationsEmptyBatch(t *testing.T) {
	srv := newTestServer(echoClassifier{}, nil)
	defer srv.Close()

	resp := postJSON(t, srv.URL, `{"contacts": []}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	out := decodeResponse(t, resp)
	if len(out.OptimalHours) != 0 || len(out.Confidence) != 0 {
		t.Errorf("empty batch response = %v / %v, want empty arrays", out.OptimalHours, out.Confidence)
	}
}

func TestInvocationsErrorStatuses(t *testing.T) {
	srv := newTestServer(echoClassifier{}, nil)
	defer srv.Close()

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"Malformed JSON", `not json`, http.StatusBadRequest},
		{"Unrecognized key", `{"data": [1, 2, 3]}`, http.StatusUnprocessableEntity},
		{"Empty object", `{}`, http.StatusUnprocessableEntity},
		{"Wrong feature count", `{"features": [1]}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL, tt.body)
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}

			var out models.ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				t.Fatalf("decoding error body: %v", err)
			}
			if out.Error == "" {
				t.Error("error body is empty")
			}
		})
	}
}

func TestInvocationsMediaTypes(t *testing.T) {
	srv := newTestServer(echoClassifier{}, nil)
	defer srv.Close()

	tests := []struct {
		name        string
		contentType string
		accept      string
		wantStatus  int
	}{
		{"JSON both sides", "application/json", "application/json", http.StatusOK},
		{"JSON with charset parameter", "application/json; charset=utf-8", "", http.StatusOK},
		{"No declared types", "", "", http.StatusOK},
		{"Wildcard accept", "application/json", "*/*", http.StatusOK},
		{"Accept list includes JSON", "application/json", "text/html, application/json", http.StatusOK},
		{"Plain text content", "text/plain", "", http.StatusUnsupportedMediaType},
		{"CSV accept", "application/json", "text/csv", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, srv.URL+"/invocations", strings.NewReader(`{"features": [1, 10, 0.5]}`))
			if err != nil {
				t.Fatal(err)
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestInvocationsMethodNotAllowed(t *testing.T) {
	srv := newTestServer(echoClassifier{}, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/invocations")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestInvocationsClassifierFailureIsServerError(t *testing.T) {
	srv := newTestServer(failingClassifier{}, nil)
	defer srv.Close()

	resp := postJSON(t, srv.URL, `{"features": [1, 10, 0.5]}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}

	var out models.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if strings.Contains(out.Error, "corrupted") {
		t.Errorf("internal detail leaked to client: %q", out.Error)
	}
}

func TestPing(t *testing.T) {
	srv := newTestServer(echoClassifier{}, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ping")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding ping body: %v", err)
	}
	if out["status"] != "healthy" {
		t.Errorf("ping status = %q, want healthy", out["status"])
	}
}

func TestRecorderSeesServedRows(t *testing.T) {
	rec := &captureRecorder{}
	srv := newTestServer(echoClassifier{}, rec)
	defer srv.Close()

	resp := postJSON(t, srv.URL, `{"contacts": [{}, {}, {}]}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if rec.rows != 3 {
		t.Errorf("recorder saw %d rows, want 3", rec.rows)
	}
}

func TestRecorderFailureDoesNotFailRequest(t *testing.T) {
	rec := &captureRecorder{err: errors.New("db down")}
	srv := newTestServer(echoClassifier{}, rec)
	defer srv.Close()

	resp := postJSON(t, srv.URL, `{"features": [1, 10, 0.5]}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 despite recorder failure", resp.StatusCode)
	}
}
