package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"

	"github.com/zatekoja/streamlinecare/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/streamlinecare/pkg/errors"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Success bool              `json:"success"`
	Kind    string            `json:"kind"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondWithError(w http.ResponseWriter, statusCode int, kind, message string, fields map[string]string) {
	respondWithJSON(w, statusCode, ErrorResponse{
		Success: false,
		Kind:    kind,
		Error:   message,
		Fields:  fields,
	})
}

// statusForKind maps an error kind to its HTTP status
func statusForKind(kind string) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindConfiguration:
		return http.StatusInternalServerError
	default:
		return http.StatusServiceUnavailable
	}
}

// respondWithAppError classifies err and writes the matching error payload.
// Store failures never leak their underlying cause to the client.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperrors.Kind(err)
	status := statusForKind(kind)

	message := "service temporarily unavailable"
	var fields map[string]string
	if appErr, ok := apperrors.As(err); ok && kind != apperrors.KindStore {
		message = appErr.Message
		fields = appErr.Fields
	}

	logger := observability.LoggerFromContext(r.Context())
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
		observability.RecordError(trace.SpanFromContext(r.Context()), err)
	}
	event.Err(err).Str("kind", kind).Str("path", r.URL.Path).Msg("request failed")

	respondWithError(w, status, kind, message, fields)
}
