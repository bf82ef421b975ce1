package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"portfolio/internal/apperr"
)

const maxBodyBytes = 1 << 20

// errorBody is the shape of every error response.
type errorBody struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a single JSON object from the body, rejecting unknown
// fields and bodies over maxBodyBytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperr.Invalid("", "request body is empty")
		case errors.As(err, &maxErr):
			return apperr.Invalid("", "request body is too large")
		case errors.As(err, &syntaxErr):
			return apperr.Invalid("", fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset))
		case errors.As(err, &typeErr):
			return apperr.Invalid(typeErr.Field, "has the wrong type")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
			return apperr.Invalid(field, "is not a known field")
		default:
			return apperr.Invalid("", "malformed JSON")
		}
	}
	if dec.More() {
		return apperr.Invalid("", "request body must hold a single JSON object")
	}
	return nil
}

// writeError maps err onto a status code and the standard error body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *apperr.ValidationError
		ue *apperr.UpstreamError
	)
	switch {
	case errors.As(err, &ve):
		body := errorBody{Error: ve.Error()}
		if ve.Field != "" {
			body.Details = map[string]any{"field": ve.Field}
		}
		writeJSON(w, http.StatusBadRequest, body)
	case errors.Is(err, apperr.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
	case errors.Is(err, apperr.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden"})
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, apperr.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: err.Error()})
	case errors.Is(err, apperr.ErrNotConfigured):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error()})
	case errors.As(err, &ue):
		s.log.Warn("upstream failure", zap.String("request_id", requestID(r.Context())), zap.Error(err))
		body := errorBody{Error: ue.Service + " is unavailable", Details: map[string]any{"status": ue.Status}}
		writeJSON(w, http.StatusBadGateway, body)
	default:
		s.log.Error("request failed", zap.String("request_id", requestID(r.Context())),
			zap.String("path", r.URL.Path), zap.Error(err))
		body := errorBody{Error: "internal server error"}
		if s.cfg.IsDevelopment() {
			body.Details = map[string]any{"cause": err.Error()}
		}
		writeJSON(w, http.StatusInternalServerError, body)
	}
}

func tooManyRequests(w http.ResponseWriter, retryAfter time.Duration) {
	secs := int(math.Ceil(retryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	writeJSON(w, http.StatusTooManyRequests, errorBody{
		Error:   "too many requests",
		Details: map[string]any{"retryAfter": secs},
	})
}

// queryInt parses an optional integer query parameter within [min, max].
func queryInt(r *http.Request, name string, def, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		return 0, apperr.Invalid(name, fmt.Sprintf("must be an integer between %d and %d", min, max))
	}
	return n, nil
}

func pathUint(r *http.Request, name string) (uint, error) {
	n, err := strconv.ParseUint(r.PathValue(name), 10, 32)
	if err != nil || n == 0 {
		return 0, apperr.ErrNotFound
	}
	return uint(n), nil
}
