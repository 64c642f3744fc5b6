package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facesim/internal/domain"
	"github.com/saturnino-fabrica-de-software/facesim/internal/metrics"
	"github.com/saturnino-fabrica-de-software/facesim/internal/repository"
	"github.com/saturnino-fabrica-de-software/facesim/internal/service"
	"github.com/saturnino-fabrica-de-software/facesim/internal/ws"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	settings := domain.DefaultSettings()
	settings.Dimension = 3

	identities := repository.NewMemoryIdentityRepository()
	hub := ws.NewHub()
	recorder := metrics.NewRecorder()

	svc := service.NewRecognitionService(
		identities,
		repository.NewMemoryRecognitionLogRepository(100),
		settings,
		logger,
	).WithPublisher(hub).WithRecorder(recorder)

	router := NewRouter(logger, &Dependencies{
		Service:  svc,
		Store:    identities,
		Hub:      hub,
		Recorder: recorder,
		Version:  "test",
	})
	router.Setup()
	t.Cleanup(func() { _ = router.Shutdown() })

	return router
}

func call(t *testing.T, r *Router, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.App().Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]interface{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

func TestRouter_HealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	status, body := call(t, router, "GET", "/health", nil)
	assert.Equal(t, 200, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])

	status, body = call(t, router, "GET", "/ready", nil)
	assert.Equal(t, 200, status)
	assert.Equal(t, "ready", body["status"])
}

func TestRouter_NotFoundReturns404(t *testing.T) {
	router := newTestRouter(t)

	status, _ := call(t, router, "GET", "/nonexistent", nil)
	assert.Equal(t, 404, status)
}

func TestRouter_RecognitionFlow(t *testing.T) {
	router := newTestRouter(t)

	// Empty gallery identifies nobody
	status, body := call(t, router, "POST", "/v1/identify", map[string]interface{}{
		"probe": []float64{1, 0, 0},
	})
	require.Equal(t, 200, status)
	assert.Equal(t, "unknown", body["status"])
	assert.Nil(t, body["similarity"])

	status, _ = call(t, router, "POST", "/v1/identities", map[string]interface{}{
		"label":      "Alice",
		"embeddings": [][]float64{{1, 0, 0}, {0.8, 0.6, 0}},
	})
	require.Equal(t, 201, status)

	status, _ = call(t, router, "POST", "/v1/identities", map[string]interface{}{
		"label":      "Bob",
		"embeddings": [][]float64{{0, 1, 0}},
	})
	require.Equal(t, 201, status)

	status, body = call(t, router, "POST", "/v1/identify", map[string]interface{}{
		"probe":    []float64{0.9, 0.1, 0},
		"location": "Main Entrance",
	})
	require.Equal(t, 200, status)
	assert.Equal(t, "recognized", body["status"])
	assert.Equal(t, "Alice", body["label"])

	status, body = call(t, router, "POST", "/v1/identities/Bob/verify", map[string]interface{}{
		"probe": []float64{0, 1, 0},
	})
	require.Equal(t, 200, status)
	assert.Equal(t, true, body["verified"])

	status, body = call(t, router, "GET", "/v1/identities", nil)
	require.Equal(t, 200, status)
	assert.Equal(t, float64(2), body["total"])

	status, body = call(t, router, "DELETE", "/v1/identities/Alice", nil)
	require.Equal(t, 200, status)
	assert.Equal(t, float64(2), body["deleted"])

	status, body = call(t, router, "GET", "/v1/identities/Alice", nil)
	assert.Equal(t, 404, status)
	assert.Equal(t, "IDENTITY_NOT_FOUND", body["error"].(map[string]interface{})["code"])

	status, body = call(t, router, "GET", "/v1/identities/Alice/events", nil)
	require.Equal(t, 200, status)
	assert.Equal(t, float64(1), body["count"])
	history := body["events"].([]interface{})
	assert.Equal(t, "Main Entrance", history[0].(map[string]interface{})["location"])

	status, body = call(t, router, "GET", "/v1/analytics/events", nil)
	require.Equal(t, 200, status)
	assert.Equal(t, float64(3), body["count"])

	status, body = call(t, router, "GET", "/v1/analytics/stats", nil)
	require.Equal(t, 200, status)
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, float64(1), body["recognized"])
}

func TestRouter_EngineErrors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		path string
		body map[string]interface{}
		code string
	}{
		{
			name: "dimension mismatch",
			path: "/v1/verify",
			body: map[string]interface{}{"probe": []float64{1, 0, 0}, "reference": []float64{1, 0}},
			code: "DIMENSION_MISMATCH",
		},
		{
			name: "degenerate vector",
			path: "/v1/compare",
			body: map[string]interface{}{"a": []float64{0, 0, 0}, "b": []float64{1, 0, 0}},
			code: "DEGENERATE_VECTOR",
		},
		{
			name: "invalid threshold",
			path: "/v1/identify",
			body: map[string]interface{}{"probe": []float64{1, 0, 0}, "threshold": 1.5},
			code: "INVALID_THRESHOLD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, router, "POST", tt.path, tt.body)
			assert.Equal(t, 422, status)
			assert.Equal(t, tt.code, body["error"].(map[string]interface{})["code"])
		})
	}
}

func TestRouter_EnrollRejectsEmbeddingsLostAsFloat32(t *testing.T) {
	router := newTestRouter(t)

	status, _ := call(t, router, "POST", "/v1/identities", map[string]interface{}{
		"label":      "Alice",
		"embeddings": [][]float64{{1, 0, 0}},
	})
	require.Equal(t, 201, status)

	status, body := call(t, router, "POST", "/v1/identities", map[string]interface{}{
		"label":      "Mallory",
		"embeddings": [][]float64{{1e-50, 0, 0}},
	})
	assert.Equal(t, 422, status)
	assert.Equal(t, "DEGENERATE_VECTOR", body["error"].(map[string]interface{})["code"])

	status, body = call(t, router, "POST", "/v1/identify", map[string]interface{}{
		"probe": []float64{1, 0, 0},
	})
	require.Equal(t, 200, status)
	assert.Equal(t, "Alice", body["label"])
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	status, _ := call(t, router, "POST", "/v1/compare", map[string]interface{}{
		"a": []float64{1, 0, 0},
		"b": []float64{0, 1, 0},
	})
	require.Equal(t, 200, status)

	resp, err := router.App().Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), `facesim_recognitions_total{kind="compare",status="scored"} 1`)
	assert.Contains(t, string(raw), `facesim_http_requests_total{method="POST",path="/v1/compare",status="200"} 1`)
}

func TestRouter_WebSocketRequiresUpgrade(t *testing.T) {
	router := newTestRouter(t)

	status, _ := call(t, router, "GET", "/v1/ws", nil)
	assert.Equal(t, 426, status)
}
