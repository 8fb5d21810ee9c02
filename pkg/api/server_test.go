package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/unneeks/stewardagent/pkg/governance"
	"github.com/unneeks/stewardagent/pkg/governance/storage"
	"github.com/unneeks/stewardagent/pkg/playback"
	"github.com/unneeks/stewardagent/pkg/telemetry/health"
	"github.com/unneeks/stewardagent/pkg/telemetry/metrics"
	"github.com/unneeks/stewardagent/pkg/telemetry/tracing"
)

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	base := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)

	events := []*governance.Event{
		{ID: "e1", Kind: governance.KindRuleBreached, EntityType: governance.EntityRule, EntityID: "R_001", Metrics: map[string]float64{"delta": 0.14}},
		{ID: "e2", Kind: governance.KindRiskAssessed, EntityType: governance.EntityBusinessTerm, EntityID: "BT_001", Context: map[string]any{"delta": 0.14}, Metrics: map[string]float64{"risk_score": 0.1463}},
		{ID: "e3", Kind: governance.KindFocusSelected, EntityType: governance.EntityBusinessTerm, EntityID: "BT_001"},
		{ID: "e4", Kind: governance.KindRecommendationCreated, EntityType: governance.EntityTDE, EntityID: "TDE_002"},
		{ID: "e5", Kind: governance.KindOutcomeMeasured, EntityType: governance.EntityTDE, EntityID: "TDE_002", Metrics: map[string]float64{"score": 0.92}},
	}
	for i, e := range events {
		e.Timestamp = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.AppendEvent(ctx, e))
	}

	collector := metrics.NewCollector(&metrics.Config{Enabled: true, Namespace: "steward", Subsystem: "agent"}, nil)
	server, err := NewServer(playback.NewReader(store), collector, nil)
	require.NoError(t, err)
	return server
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func TestNewServer(t *testing.T) {
	t.Run("uses defaults when config is nil", func(t *testing.T) {
		server, err := NewServer(playback.NewReader(storage.NewMemoryStorage()), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "localhost", server.config.Host)
		assert.Equal(t, 8000, server.config.Port)
	})

	t.Run("returns error when reader is nil", func(t *testing.T) {
		_, err := NewServer(nil, nil, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "reader cannot be nil")
	})
}

func TestHandleHealth(t *testing.T) {
	rec := get(t, setupTestServer(t), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp health.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, health.StatusOK, resp.Status)
}

func TestHandleReady(t *testing.T) {
	checker := health.New("test", time.Second)
	down := false
	checker.Register("storage", func(context.Context) error {
		if down {
			return errors.New("database is locked")
		}
		return nil
	})
	server, err := NewServer(playback.NewReader(storage.NewMemoryStorage()), nil, &Config{
		Host:   "localhost",
		Port:   8000,
		Health: checker,
	})
	require.NoError(t, err)

	rec := get(t, server, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)

	down = true
	rec = get(t, server, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp health.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, health.StatusDegraded, resp.Status)
	assert.Equal(t, "database is locked", resp.Checks["storage"].Message)
}

func TestHandleEvents(t *testing.T) {
	server := setupTestServer(t)

	t.Run("lists all events in order", func(t *testing.T) {
		rec := get(t, server, "/events")
		require.Equal(t, http.StatusOK, rec.Code)

		var events []governance.Event
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
		require.Len(t, events, 5)
		assert.Equal(t, "e1", events[0].ID)
		assert.Equal(t, governance.KindOutcomeMeasured, events[4].Kind)
	})

	t.Run("filters by kind", func(t *testing.T) {
		rec := get(t, server, "/events?kind=focus_selected,outcome_measured")
		require.Equal(t, http.StatusOK, rec.Code)

		var events []governance.Event
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
		assert.Len(t, events, 2)
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		rec := get(t, server, "/events?kind=made_up")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects bad limit", func(t *testing.T) {
		rec := get(t, server, "/events?limit=-1")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("applies limit", func(t *testing.T) {
		rec := get(t, server, "/events?limit=2")
		require.Equal(t, http.StatusOK, rec.Code)
		var events []governance.Event
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
		assert.Len(t, events, 2)
	})
}

func TestHandleInvestigations(t *testing.T) {
	rec := get(t, setupTestServer(t), "/investigations")
	require.Equal(t, http.StatusOK, rec.Code)

	var inv []playback.Investigation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inv))
	require.Len(t, inv, 1)
	assert.Equal(t, "BT_001", inv[0].FocusTerm)
	assert.NotNil(t, inv[0].Recommendation)
	assert.Len(t, inv[0].Outcomes, 1)
}

func TestHandleLatestState(t *testing.T) {
	rec := get(t, setupTestServer(t), "/latest_state")
	require.Equal(t, http.StatusOK, rec.Code)

	var states map[string]playback.TermState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &states))
	assert.Equal(t, playback.StatusUnderInvestigation, states["BT_001"].Status)
}

func TestHandleLearningSummary(t *testing.T) {
	rec := get(t, setupTestServer(t), "/learning_summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary playback.LearningSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	require.Len(t, summary.Improvements, 1)
	assert.Equal(t, 0.92, summary.Improvements[0].ScoreAfter)
}

func TestCORS(t *testing.T) {
	server := setupTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:5173")
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	server := setupTestServer(t)
	server.metrics.RecordCycle("proposed", time.Second)

	rec := get(t, server, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "steward_agent_cycles_total")
}

func TestReadOnly(t *testing.T) {
	server := setupTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/events", nil)
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTraceRequests(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer := tracing.NewWithExporter(exporter)
	defer tracer.Shutdown(context.Background())

	server, err := NewServer(playback.NewReader(storage.NewMemoryStorage()), nil, &Config{
		Host:   "localhost",
		Port:   8000,
		Tracer: tracer.Tracer("api"),
	})
	require.NoError(t, err)

	const parent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("traceparent", parent)
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /events", spans[0].Name)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent.SpanID().String())
}
