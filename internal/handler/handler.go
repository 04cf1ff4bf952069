// Package handler exposes the inference pipeline over HTTP using the
// serving-container conventions: POST /invocations for predictions and
// GET /ping for health.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dialwise/calltime-predictor/internal/inference"
	"github.com/dialwise/calltime-predictor/models"
)

const jsonMediaType = "application/json"

// Recorder is the optional audit sink for served predictions. A failed
// record never fails the request.
type Recorder interface {
	RecordPredictions(matrix models.FeatureMatrix, resp models.ResponsePayload) error
}

// Handler serves the inference contract. It holds the immutable engine and
// is safe for concurrent requests.
type Handler struct {
	engine   *inference.Engine
	recorder Recorder
	logger   zerolog.Logger
}

// New creates a handler. recorder may be nil to disable auditing.
func New(engine *inference.Engine, recorder Recorder) *Handler {
	return &Handler{
		engine:   engine,
		recorder: recorder,
		logger:   log.With().Str("component", "http_handler").Logger(),
	}
}

// Register attaches the handler's routes to a mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/invocations", h.Invocations)
	mux.HandleFunc("/ping", h.Ping)
}

// Ping reports readiness. The handler only exists once the model handle is
// loaded, so reaching it at all means the service can predict.
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Invocations runs one normalize -> classify -> format pipeline per request.
func (h *Handler) Invocations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	if err := checkMediaTypes(r); err != nil {
		h.logger.Debug().Err(err).Msg("Rejected media type")
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading request body: "+err.Error())
		return
	}

	resp, matrix, err := h.engine.Run(body)
	if err != nil {
		if status, ok := rejectionStatus(err); ok {
			h.logger.Debug().Err(err).Msg("Rejected payload")
			writeError(w, status, err.Error())
			return
		}
		// Classifier failures are server-side: the matrix was well formed,
		// so the model broke the contract. Log loudly, tell the client less.
		h.logger.Error().Err(err).Int("rows", len(matrix)).Msg("Inference failed")
		writeError(w, http.StatusInternalServerError, "inference failed")
		return
	}

	if h.recorder != nil {
		if err := h.recorder.RecordPredictions(matrix, resp); err != nil {
			h.logger.Warn().Err(err).Msg("Failed to record predictions")
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// rejectionStatus maps the two normalizer error categories to their
// client-facing statuses: unparseable bytes are a plain bad request,
// well-formed JSON of the wrong shape is unprocessable. Anything else is
// not a client error.
func rejectionStatus(err error) (int, bool) {
	var ve *inference.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, true
	}
	var pe *inference.ParseError
	if errors.As(err, &pe) {
		return http.StatusBadRequest, true
	}
	return 0, false
}

// checkMediaTypes enforces JSON on both sides of the exchange. A missing
// header is accepted; a declared non-JSON one is not.
func checkMediaTypes(r *http.Request) error {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || mt != jsonMediaType {
			return &inference.UnsupportedMediaError{MediaType: ct}
		}
	}

	accept := r.Header.Get("Accept")
	if accept == "" {
		return nil
	}
	for _, part := range strings.Split(accept, ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if mt == jsonMediaType || mt == "*/*" || mt == "application/*" {
			return nil
		}
	}
	return &inference.UnsupportedMediaError{MediaType: accept}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", jsonMediaType)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, models.ErrorResponse{Error: msg})
}
