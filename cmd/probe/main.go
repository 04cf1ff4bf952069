// probe drives a deployed inference endpoint through the whole contract:
// health, single and batch predictions, edge cases, and the error paths.
// Exit code 0 means every check passed.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpclient "github.com/dialwise/calltime-predictor/internal/platform/http"
	"github.com/dialwise/calltime-predictor/models"
)

type check struct {
	name string
	run  func(ctx context.Context, p *prober) error
}

type prober struct {
	endpoint string
	client   *httpclient.Client
}

func main() {
	var (
		endpoint = flag.String("endpoint", "http://localhost:8080", "inference endpoint base URL")
		timeout  = flag.Int("timeout", 30, "per-request timeout in seconds")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	p := &prober{
		endpoint: *endpoint,
		client: httpclient.NewClient(httpclient.ClientOptions{
			Timeout:        time.Duration(*timeout) * time.Second,
			RequestsPerSec: 5,
		}),
	}

	checks := []check{
		{"ping", checkPing},
		{"single prediction", checkSingle},
		{"batch prediction", checkBatch},
		{"edge cases", checkEdgeCases},
		{"error handling", checkErrorHandling},
	}

	ctx := context.Background()
	failed := 0
	for _, c := range checks {
		if err := c.run(ctx, p); err != nil {
			log.Error().Err(err).Str("check", c.name).Msg("FAILED")
			failed++
			continue
		}
		log.Info().Str("check", c.name).Msg("passed")
	}

	fmt.Printf("\n%d/%d checks passed\n", len(checks)-failed, len(checks))
	if failed > 0 {
		os.Exit(1)
	}
}

func checkPing(ctx context.Context, p *prober) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"/ping", nil)
	if err != nil {
		return err
	}
	resp, err := p.client.DoRequest(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping returned %d", resp.StatusCode)
	}
	return nil
}

func checkSingle(ctx context.Context, p *prober) error {
	// Monday, 10 AM, 50% previous answer rate
	out, err := p.invoke(ctx, `{"features": [1, 10, 0.5]}`)
	if err != nil {
		return err
	}
	return expectRows(out, 1)
}

func checkBatch(ctx context.Context, p *prober) error {
	out, err := p.invoke(ctx, `{"contacts": [
		{"day_of_week": 1, "hour_of_day": 10, "previous_answer_rate": 0.5},
		{"day_of_week": 2, "hour_of_day": 15, "previous_answer_rate": 0.3},
		{"day_of_week": 5, "hour_of_day": 19, "previous_answer_rate": 0.7}
	]}`)
	if err != nil {
		return err
	}
	return expectRows(out, 3)
}

func checkEdgeCases(ctx context.Context, p *prober) error {
	cases := []struct {
		name    string
		payload string
	}{
		{"weekend day", `{"features": [6, 12, 0.4]}`},
		{"early morning", `{"features": [3, 6, 0.2]}`},
		{"late evening", `{"features": [4, 22, 0.6]}`},
		{"zero answer rate", `{"features": [2, 14, 0.0]}`},
		{"perfect answer rate", `{"features": [1, 11, 1.0]}`},
		{"empty batch", `{"contacts": []}`},
	}
	for _, tc := range cases {
		out, err := p.invoke(ctx, tc.payload)
		if err != nil {
			return fmt.Errorf("%s: %w", tc.name, err)
		}
		if len(out.OptimalHours) != len(out.Confidence) {
			return fmt.Errorf("%s: misaligned response arrays", tc.name)
		}
	}
	return nil
}

func checkErrorHandling(ctx context.Context, p *prober) error {
	cases := []struct {
		name       string
		payload    string
		wantStatus int
	}{
		{"missing features key", `{"data": [1, 2, 3]}`, http.StatusUnprocessableEntity},
		{"empty payload", `{}`, http.StatusUnprocessableEntity},
		{"invalid JSON", `not json`, http.StatusBadRequest},
		{"wrong feature count", `{"features": [1, 10]}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		status, err := p.invokeRaw(ctx, tc.payload, "application/json")
		if err != nil {
			return fmt.Errorf("%s: %w", tc.name, err)
		}
		if status != tc.wantStatus {
			return fmt.Errorf("%s: got status %d, want %d", tc.name, status, tc.wantStatus)
		}
	}

	status, err := p.invokeRaw(ctx, `{"features": [1, 10, 0.5]}`, "text/plain")
	if err != nil {
		return fmt.Errorf("unsupported content type: %w", err)
	}
	if status != http.StatusUnsupportedMediaType {
		return fmt.Errorf("unsupported content type: got status %d, want %d", status, http.StatusUnsupportedMediaType)
	}
	return nil
}

// invoke posts a payload and decodes the expected success response.
func (p *prober) invoke(ctx context.Context, payload string) (*models.ResponsePayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/invocations", bytes.NewReader([]byte(payload)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.DoRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var out models.ResponsePayload
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &out, nil
}

// invokeRaw posts a payload and only reports the status, for checks where
// a rejection is the expected outcome.
func (p *prober) invokeRaw(ctx context.Context, payload, contentType string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/invocations", bytes.NewReader([]byte(payload)))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := p.client.DoRequest(ctx, req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func expectRows(out *models.ResponsePayload, n int) error {
	if len(out.OptimalHours) != n || len(out.Confidence) != n {
		return fmt.Errorf("got %d hours and %d confidence values, want %d each",
			len(out.OptimalHours), len(out.Confidence), n)
	}
	for i, c := range out.Confidence {
		if c < 0 || c > 1 {
			return fmt.Errorf("confidence[%d] = %v out of [0,1]", i, c)
		}
	}
	return nil
}
