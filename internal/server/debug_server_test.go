package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devrev/pairdb/driver/internal/partition"
)

func newTestServer(t *testing.T) *DebugServer {
	t.Helper()
	cache := partition.NewCache(nil, zap.NewNop())
	return NewDebugServer(&DebugServerConfig{Port: 0, Path: "/metrics"}, cache, zap.NewNop())
}

func serveRequest(s *DebugServer, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := serveRequest(s, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Status    string `json:"status"`
		LoadCount uint64 `json:"load_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Zero(t, body.LoadCount)
}

func TestRoutesEndpointEmptyCache(t *testing.T) {
	s := newTestServer(t)

	rec := serveRequest(s, "/routes")

	assert.Equal(t, http.StatusOK, rec.Code)

	var routes []partition.TableRoutes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &routes))
	assert.Empty(t, routes)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := serveRequest(s, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
}
