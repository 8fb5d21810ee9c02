// Package api provides the read-only HTTP API over the event log.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/unneeks/stewardagent/pkg/governance"
	"github.com/unneeks/stewardagent/pkg/playback"
	"github.com/unneeks/stewardagent/pkg/telemetry/health"
	"github.com/unneeks/stewardagent/pkg/telemetry/logging"
	"github.com/unneeks/stewardagent/pkg/telemetry/metrics"
	"github.com/unneeks/stewardagent/pkg/telemetry/tracing"
)

// Server provides the read API.
type Server struct {
	echo    *echo.Echo
	reader  *playback.Reader
	metrics *metrics.Collector
	logger  *slog.Logger
	config  *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// AllowOrigins for CORS. Empty allows any origin.
	AllowOrigins []string

	// Tracer starts a span per request, continuing any incoming W3C trace
	// context. Optional.
	Tracer trace.Tracer

	// Health backs /health and /ready. Optional; without it /ready has no
	// checks and always reports ready.
	Health *health.Checker
}

// NewServer creates a new HTTP server. collector may be nil, in which case
// /metrics is not registered.
func NewServer(reader *playback.Reader, collector *metrics.Collector, cfg *Config) (*Server, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8000,
		}
	}

	logger := slog.Default().With("component", "api")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins(cfg.AllowOrigins),
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := logging.WithRequestID(c.Request().Context(), requestID)
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)

			logger.InfoContext(ctx, "http request",
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"status", c.Response().Status,
				"duration", time.Since(start),
			)
			return err
		}
	})
	if cfg.Tracer != nil {
		e.Use(traceRequests(cfg.Tracer))
	}
	if cfg.Health == nil {
		cfg.Health = health.New("", 0)
	}

	s := &Server{
		echo:    e,
		reader:  reader,
		metrics: collector,
		logger:  logger,
		config:  cfg,
	}
	s.registerRoutes()
	return s, nil
}

// traceRequests starts a server span per request.
func traceRequests(tracer trace.Tracer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := tracing.Extract(req.Context(), req.Header)
			ctx, span := tracer.Start(ctx, req.Method+" "+c.Path(), trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()
			c.SetRequest(req.WithContext(ctx))

			err := next(c)

			span.SetAttributes(
				attribute.String("http.request.method", req.Method),
				attribute.String("http.route", c.Path()),
				attribute.Int("http.response.status_code", c.Response().Status),
			)
			if err == nil && c.Response().Status >= http.StatusInternalServerError {
				err = fmt.Errorf("status %d", c.Response().Status)
			}
			tracing.SetStatus(span, err)
			return err
		}
	}
}

func allowOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/ready", s.handleReady)
	s.echo.GET("/events", s.handleEvents)
	s.echo.GET("/investigations", s.handleInvestigations)
	s.echo.GET("/latest_state", s.handleLatestState)
	s.echo.GET("/learning_summary", s.handleLearningSummary)
	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}
}

// Handler returns the underlying HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, s.config.Health.Liveness())
}

func (s *Server) handleReady(c echo.Context) error {
	report := s.config.Health.Readiness(c.Request().Context())
	if !report.Ready() {
		return c.JSON(http.StatusServiceUnavailable, report)
	}
	return c.JSON(http.StatusOK, report)
}

// handleEvents lists events in append order. Optional filters: kind
// (repeatable or comma separated), entity_type, entity_id, since, until
// (RFC 3339), after_seq and limit.
func (s *Server) handleEvents(c echo.Context) error {
	q, err := parseEventQuery(c)
	if err != nil {
		return err
	}
	events, err := s.reader.Events(c.Request().Context(), q)
	if err != nil {
		return s.internalError(c, "failed to load events", err)
	}
	return c.JSON(http.StatusOK, events)
}

func (s *Server) handleInvestigations(c echo.Context) error {
	inv, err := s.reader.Investigations(c.Request().Context())
	if err != nil {
		return s.internalError(c, "failed to load investigations", err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (s *Server) handleLatestState(c echo.Context) error {
	states, err := s.reader.LatestState(c.Request().Context())
	if err != nil {
		return s.internalError(c, "failed to load latest state", err)
	}
	return c.JSON(http.StatusOK, states)
}

func (s *Server) handleLearningSummary(c echo.Context) error {
	summary, err := s.reader.LearningSummary(c.Request().Context())
	if err != nil {
		return s.internalError(c, "failed to load learning summary", err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (s *Server) internalError(c echo.Context, msg string, err error) error {
	s.logger.ErrorContext(c.Request().Context(), msg, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, msg)
}

func parseEventQuery(c echo.Context) (*governance.EventQuery, error) {
	q := &governance.EventQuery{
		EntityType: c.QueryParam("entity_type"),
		EntityID:   c.QueryParam("entity_id"),
	}

	for _, raw := range c.QueryParams()["kind"] {
		for _, k := range strings.Split(raw, ",") {
			kind := governance.EventKind(strings.TrimSpace(k))
			if !kind.Valid() {
				return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown event kind %q", kind))
			}
			q.Kinds = append(q.Kinds, kind)
		}
	}

	for name, dst := range map[string]**time.Time{"since": &q.Since, "until": &q.Until} {
		v := c.QueryParam(name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s: expected RFC 3339 timestamp", name))
		}
		*dst = &t
	}

	if v := c.QueryParam("after_seq"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "after_seq must be a non-negative integer")
		}
		q.AfterSeq = n
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		q.Limit = n
	}
	return q, nil
}

// Start starts the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", "addr", addr)
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
