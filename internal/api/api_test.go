package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsidianstack/hostwatch/internal/alerts"
	"github.com/obsidianstack/hostwatch/internal/metrics"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type staticReports []alerts.Report

func (s staticReports) LastReports() []alerts.Report { return append([]alerts.Report(nil), s...) }

func newHandler(reports staticReports, tr *alerts.Tracker) *Handler {
	h := New(reports, tr, func() time.Duration { return 5 * time.Minute }, metrics.New())
	h.now = func() time.Time { return t0.Add(2 * time.Minute) }
	return h
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(v), "body: %s", rr.Body.String())
}

func TestHealth_Unknown(t *testing.T) {
	rr := get(t, newHandler(nil, alerts.NewTracker()), "/api/v1/health")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var resp HealthResponse
	decode(t, rr, &resp)
	assert.Equal(t, "unknown", resp.State)
	assert.NotNil(t, resp.Reports)
}

func TestHealth_Unhealthy(t *testing.T) {
	reports := staticReports{
		{Device: "build-01", Disk: "/", CheckedAt: t0, Healthy: true, Resources: []alerts.ResourceResult{
			{Kind: alerts.KindDisk, Resource: "Disks (/)", Healthy: true},
		}},
		{Device: "build-01", Disk: "/data", CheckedAt: t0.Add(time.Second), Healthy: false, Resources: []alerts.ResourceResult{
			{Kind: alerts.KindDisk, Resource: "Disks (/data)", Healthy: false, Alert: metrics.OutcomeSent},
			{Kind: alerts.KindCPU, Resource: "CPU", Healthy: false, Alert: metrics.OutcomeSuppressed},
		}},
	}
	rr := get(t, newHandler(reports, alerts.NewTracker()), "/api/v1/health")

	var resp HealthResponse
	decode(t, rr, &resp)
	assert.Equal(t, "unhealthy", resp.State)
	assert.Equal(t, "build-01", resp.Device)
	assert.Equal(t, 2, resp.UnhealthyCount)
	require.NotNil(t, resp.CheckedAt)
	assert.True(t, resp.CheckedAt.Equal(t0.Add(time.Second)))
	require.Len(t, resp.Reports, 2)
	assert.Equal(t, alerts.KindCPU, resp.Reports[1].Resources[1].Kind)
}

func TestAlerts(t *testing.T) {
	tr := alerts.NewTracker()
	tr.RecordAlertSent(alerts.AlertKey{Device: "build-01", Resource: "CPU"}, t0)
	tr.RecordAlertSent(alerts.AlertKey{Device: "build-01", Resource: "RAM"}, t0.Add(-time.Hour))

	rr := get(t, newHandler(nil, tr), "/api/v1/alerts")
	require.Equal(t, http.StatusOK, rr.Code)

	var out []AlertEntry
	decode(t, rr, &out)
	require.Len(t, out, 2)
	assert.Equal(t, "CPU", out[0].Resource)
	assert.InDelta(t, 180.0, out[0].CooldownRemainingSeconds, 1e-9)
	assert.Equal(t, "RAM", out[1].Resource)
	assert.Zero(t, out[1].CooldownRemainingSeconds)
}

func TestMethodNotAllowed(t *testing.T) {
	h := newHandler(nil, alerts.NewTracker())
	for _, path := range []string{"/api/v1/health", "/api/v1/alerts"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code, path)
	}
}

func TestMetricsRoute(t *testing.T) {
	rr := get(t, newHandler(nil, alerts.NewTracker()), "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "hostwatch_check_cycles_total"))
}
