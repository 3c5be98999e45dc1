package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/orthoguide/orthoguide/internal/platform/requestctx"
	"github.com/orthoguide/orthoguide/internal/platform/telemetry/metrics"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the request correlation id in both directions.
const RequestIDHeader = "X-Request-ID"

const unmatchedRoute = "unmatched"

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogging logs one line per request and propagates a request id.
func requestLogging(logger logrus.FieldLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		r = r.WithContext(requestctx.WithRequestID(r.Context(), requestID))

		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)

		logger.WithFields(logrus.Fields{
			"request_id":  requestID,
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
			"remote":      r.RemoteAddr,
		}).Info("http request")
	})
}

const preflightRoute = "preflight"

type routeLabelContextKey struct{}

// routeLabel is filled in by captureRoute once the router has matched.
type routeLabel struct {
	template string
}

// captureRoute records the matched route template for instrument.
func captureRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if label, ok := r.Context().Value(routeLabelContextKey{}).(*routeLabel); ok {
			if current := mux.CurrentRoute(r); current != nil {
				if template, err := current.GetPathTemplate(); err == nil {
					label.template = template
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// instrument records request metrics labelled by the matched route template.
// Requests that never reach a route are labelled preflight or unmatched.
func instrument(m *metrics.Metrics, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.IncInFlight()
		defer m.DecInFlight()

		label := &routeLabel{}
		r = r.WithContext(context.WithValue(r.Context(), routeLabelContextKey{}, label))
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)

		route := label.template
		if route == "" {
			route = unmatchedRoute
			if isPreflight(r) {
				route = preflightRoute
			}
		}
		m.ObserveHTTP(r.Method, route, rec.status, time.Since(start))
	})
}
