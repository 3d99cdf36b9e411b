package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/EpicMandM/rental-calendar/internal/logger"
	"github.com/EpicMandM/rental-calendar/internal/session"
)

const requestIDHeader = "X-Request-ID"

type requestIDKey struct{}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// withRequestID tags each request with an id, reusing a valid incoming one.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// withLogging logs every request once it completes.
func (h *APIHandler) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		h.logger.Info("HTTP request",
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.StatusCode(rec.status),
			logger.Duration(time.Since(start)),
			logger.Remote(h.clientIPs.ClientIP(r)),
			logger.RequestID(requestIDFrom(r.Context())))
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}

// apiHandle is an httprouter handle that reports failures as errors.
type apiHandle func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error

func (h *APIHandler) handle(fn apiHandle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if err := fn(w, r, ps); err != nil {
			h.writeError(w, r, err)
		}
	}
}

// csrf rejects state-changing requests without a matching anti-forgery
// header. It is a no-op unless enforcement is enabled.
func (h *APIHandler) csrf(fn apiHandle) apiHandle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
		if h.csrfEnforce && !h.sessions.VerifyCSRF(r) {
			return &apiError{kind: kindForbidden, msg: "CSRF verification failed: missing or invalid " + session.HeaderName}
		}
		return fn(w, r, ps)
	}
}

// throttle applies the login limiter keyed by client IP.
func (h *APIHandler) throttle(fn apiHandle) apiHandle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
		ip := h.clientIPs.ClientIP(r)
		if h.loginLimiter != nil && !h.loginLimiter.Allow(ip) {
			w.Header().Set("Retry-After", "60")
			return &apiError{kind: kindThrottled, msg: "Too many login attempts, try again later"}
		}
		return fn(w, r, ps)
	}
}

func (h *APIHandler) recoverPanic(w http.ResponseWriter, r *http.Request, v interface{}) {
	h.writeError(w, r, internalError("Internal server error", fmt.Errorf("panic: %v", v)))
}

func (h *APIHandler) notFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, &apiError{kind: kindNotFound, msg: "Not found: " + r.URL.Path})
}

func (h *APIHandler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, &apiError{kind: kindMethodNotAllowed, msg: "Method " + r.Method + " not allowed"})
}
