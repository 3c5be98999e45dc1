// Package httpapi exposes gene-root lookups over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	perrors "github.com/orthoguide/orthoguide/internal/platform/errors"
	"github.com/orthoguide/orthoguide/internal/platform/requestctx"
	"github.com/orthoguide/orthoguide/internal/platform/telemetry/metrics"
	"github.com/orthoguide/orthoguide/internal/services/orthoguide/lookup"
	"github.com/orthoguide/orthoguide/internal/services/orthoguide/storage"
	"github.com/sirupsen/logrus"
)

// WelcomeMessage is served on the root route.
const WelcomeMessage = "Welcome to the OrthoGuide API! Use the /get_roots endpoint to get data."

// Route paths.
const (
	RouteRoot     = "/"
	RouteGetRoots = "/get_roots"
	RouteUp       = "/up"
	RouteMetrics  = "/metrics"
)

// DefaultAllowedOrigins are the local front-end origins allowed by CORS.
var DefaultAllowedOrigins = []string{
	"http://localhost:8080",
	"http://localhost:5173",
	"http://localhost",
}

// RootsLookup resolves gene-root queries.
type RootsLookup interface {
	GetRoots(ctx context.Context, query lookup.Query) ([]storage.OrthologRecord, error)
}

// ReadinessChecker reports whether the store can serve lookups.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// Config wires the HTTP boundary.
type Config struct {
	Lookup RootsLookup
	// Health backs /up. When nil, /up always reports ok.
	Health ReadinessChecker
	// AllowedOrigins defaults to DefaultAllowedOrigins when nil.
	AllowedOrigins []string
	Logger         logrus.FieldLogger
	// Metrics backs /metrics and request instrumentation. Optional.
	Metrics *metrics.Metrics
}

type handler struct {
	lookup RootsLookup
	health ReadinessChecker
	logger logrus.FieldLogger
}

type detailResponse struct {
	Detail string `json:"detail"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// NewHandler builds the routed, CORS-wrapped API handler.
func NewHandler(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	origins := cfg.AllowedOrigins
	if origins == nil {
		origins = DefaultAllowedOrigins
	}
	h := &handler{
		lookup: cfg.Lookup,
		health: cfg.Health,
		logger: logger,
	}

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	router.Use(captureRoute)

	router.HandleFunc(RouteRoot, h.handleWelcome).Methods(http.MethodGet)
	router.HandleFunc(RouteGetRoots, h.handleGetRoots).Methods(http.MethodGet)
	router.HandleFunc(RouteUp, h.handleUp).Methods(http.MethodGet)
	if cfg.Metrics != nil {
		router.Handle(RouteMetrics, cfg.Metrics.Handler()).Methods(http.MethodGet)
	}

	// Logging and metrics sit outside CORS so refused preflights are recorded too.
	return requestLogging(logger, instrument(cfg.Metrics, newCORS(origins).wrap(router)))
}

func (h *handler) handleWelcome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: WelcomeMessage})
}

func (h *handler) handleGetRoots(w http.ResponseWriter, r *http.Request) {
	if h.lookup == nil {
		writeDetail(w, http.StatusInternalServerError, "lookup service not configured")
		return
	}
	params := r.URL.Query()
	records, err := h.lookup.GetRoots(r.Context(), lookup.Query{
		Genes:   lastValue(params, "genes"),
		Species: lastValue(params, "species"),
	})
	if err != nil {
		status := perrors.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.WithField("request_id", requestctx.RequestIDFromContext(r.Context())).
				WithError(err).Error("get_roots failed")
		}
		writeDetail(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *handler) handleUp(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
		return
	}
	if err := h.health.Ready(r.Context()); err != nil {
		h.logger.WithError(err).Warn("readiness check failed")
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unseeded", Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// lastValue returns the final occurrence of key, so repeated parameters
// resolve to the most recent value.
func lastValue(values url.Values, key string) string {
	all := values[key]
	if len(all) == 0 {
		return ""
	}
	return all[len(all)-1]
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, detailResponse{Detail: message})
}
