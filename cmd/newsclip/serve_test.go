package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/newsclip/internal/metrics"
	"github.com/deusflow/newsclip/internal/news"
	"github.com/deusflow/newsclip/internal/storage"
)

func TestMonitoringEndpoints(t *testing.T) {
	store := storage.NewFileStore(filepath.Join(t.TempDir(), "seen.json"), 0, nil)
	require.NoError(t, store.RecordSeen(context.Background(), []news.Article{{URL: "https://idomin.com/1", Title: "t"}}))

	metrics.Global.SetLastRun("run-1")
	mux := monitoringMux(store)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "run-1", health["last_run_id"])

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	var stats map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, map[string]any{"total_items": 1.0, "active_items": 1.0, "domain_idomin.com": 1.0}, stats["store"])

	metrics.Global.SetError("boom")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "newsclip_run_errors_total"))
}
