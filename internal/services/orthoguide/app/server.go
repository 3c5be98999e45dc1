// Package server wires the OrthoGuide storage bootstrap and HTTP lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/orthoguide/orthoguide/internal/platform/telemetry/metrics"
	"github.com/orthoguide/orthoguide/internal/platform/timeouts"
	"github.com/orthoguide/orthoguide/internal/services/orthoguide/api/httpapi"
	"github.com/orthoguide/orthoguide/internal/services/orthoguide/lookup"
	"github.com/orthoguide/orthoguide/internal/services/orthoguide/storage"
	"github.com/orthoguide/orthoguide/internal/services/orthoguide/storage/sqlite"
	"github.com/sirupsen/logrus"
)

// Config defines the inputs for the OrthoGuide HTTP process.
type Config struct {
	HTTPAddr          string
	DBPath            string
	AllowedOrigins    []string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	Logger            logrus.FieldLogger
}

// Server hosts the gene-root HTTP API.
type Server struct {
	listener        net.Listener
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          logrus.FieldLogger
}

// NewServer seeds the store when absent, then builds a listening server.
// A failed seed aborts startup with an error wrapping storage.ErrSeedFailed.
func NewServer(ctx context.Context, config Config) (*Server, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if strings.TrimSpace(config.DBPath) == "" {
		config.DBPath = sqlite.DefaultPath
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	if _, err := sqlite.Seed(ctx, config.DBPath, logger); err != nil {
		return nil, err
	}
	connector, err := sqlite.NewConnector(config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open orthoguide store: %w", err)
	}

	m := metrics.New()
	tables := storage.DefaultOrganismTables()
	service, err := lookup.NewService(lookup.Config{
		Tables:    tables,
		Connector: connector,
		Logger:    logger,
		Metrics:   m,
	})
	if err != nil {
		return nil, fmt.Errorf("init lookup service: %w", err)
	}

	handler := httpapi.NewHandler(httpapi.Config{
		Lookup:         service,
		Health:         sqlite.HealthCheck{Connector: connector, Table: storage.DefaultOrganism},
		AllowedOrigins: config.AllowedOrigins,
		Logger:         logger,
		Metrics:        m,
	})

	listener, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", httpAddr, err)
	}

	return &Server{
		listener: listener,
		httpServer: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: config.ReadHeaderTimeout,
		},
		shutdownTimeout: config.ShutdownTimeout,
		logger:          logger,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves an OrthoGuide server until the context ends.
func Run(ctx context.Context, config Config) error {
	server, err := NewServer(ctx, config)
	if err != nil {
		return fmt.Errorf("init orthoguide server: %w", err)
	}
	defer server.Close()

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve orthoguide: %w", err)
	}
	return nil
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return errors.New("orthoguide server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	s.logger.WithField("addr", s.Addr()).Info("orthoguide server listening")
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.httpServer != nil {
		if err := s.httpServer.Close(); err != nil {
			s.logger.WithError(err).Warn("close http server")
		}
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
}
