package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/EpicMandM/rental-calendar/internal/logger"
)

type errorKind int

const (
	kindInternal errorKind = iota
	kindUnauthorized
	kindForbidden
	kindNotFound
	kindMethodNotAllowed
	kindThrottled
)

// apiError is the only error type handlers return. Anything else is treated
// as internal.
type apiError struct {
	kind errorKind
	msg  string
	err  error
}

func (e *apiError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *apiError) Unwrap() error { return e.err }

func (e *apiError) status() int {
	switch e.kind {
	case kindUnauthorized:
		return http.StatusUnauthorized
	case kindForbidden:
		return http.StatusForbidden
	case kindNotFound:
		return http.StatusNotFound
	case kindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case kindThrottled:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func internalError(msg string, err error) *apiError {
	return &apiError{kind: kindInternal, msg: msg, err: err}
}

func unauthorized(msg string) *apiError {
	return &apiError{kind: kindUnauthorized, msg: msg}
}

// invalidJSON reports a malformed request body. The API answers these with 500.
func invalidJSON(err error) *apiError {
	return &apiError{kind: kindInternal, msg: "Invalid JSON body: " + err.Error()}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Version string `json:"version"`
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

// writeError logs err once and renders the error envelope. Only apiError.msg
// reaches the client.
func (h *APIHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		apiErr = internalError("Internal server error", err)
	}
	status := apiErr.status()

	fields := []logger.Field{
		logger.Method(r.Method),
		logger.Path(r.URL.Path),
		logger.StatusCode(status),
		logger.RequestID(requestIDFrom(r.Context())),
		logger.Error(apiErr),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", fields...)
	} else {
		h.logger.Warn("Request rejected", fields...)
	}

	h.writeJSON(w, status, errorResponse{Success: false, Error: apiErr.msg, Version: h.version})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer func() {
		_ = r.Body.Close()
	}()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return invalidJSON(err)
	}
	return nil
}
