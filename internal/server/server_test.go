//go:build !integration

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/netconflate/internal/geometry/planar"
	"github.com/sells-group/netconflate/internal/layer"
	"github.com/sells-group/netconflate/internal/network"
)

func newTestHandler(t *testing.T) (http.Handler, layer.Store) {
	t.Helper()
	st := layer.NewMemory()
	require.NoError(t, st.Put(context.Background(), network.New("roads",
		network.Feature{Cat: 1, Line: network.NewLine(0, 0, 3, 4)},
		network.Feature{Cat: 2, Line: network.NewLine(3, 4, 3, 10)},
	)))
	return New(st, planar.New(), Options{}), st
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestListLayers(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := get(t, h, "/layers")
	require.Equal(t, http.StatusOK, rr.Code)

	var infos []layer.Info
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "roads", infos[0].Name)
	assert.Equal(t, 2, infos[0].Features)
}

func TestListLayers_Empty(t *testing.T) {
	h := New(layer.NewMemory(), planar.New(), Options{})

	rr := get(t, h, "/layers")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestGetLayer(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := get(t, h, "/layers/roads")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/geo+json", rr.Header().Get("Content-Type"))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type string `json:"type"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "LineString", fc.Features[0].Geometry.Type)
	assert.EqualValues(t, 1, fc.Features[0].Properties["cat"])
}

func TestLayerLength(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := get(t, h, "/layers/roads/length")
	require.Equal(t, http.StatusOK, rr.Code)

	var body LengthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "roads", body.Name)
	assert.Equal(t, 2, body.Features)
	assert.InDelta(t, 11, body.Length, 1e-9)
}

func TestLayerNotFound(t *testing.T) {
	h, _ := newTestHandler(t)

	for _, path := range []string{"/layers/missing", "/layers/missing/length"} {
		rr := get(t, h, path)
		assert.Equal(t, http.StatusNotFound, rr.Code, path)
		assert.Contains(t, rr.Body.String(), "layer not found", path)
	}
}

type failingStore struct {
	layer.Store
}

func (failingStore) List(context.Context) ([]layer.Info, error) {
	return nil, errors.New("disk on fire")
}

func TestListLayers_StoreError(t *testing.T) {
	h := New(failingStore{Store: layer.NewMemory()}, planar.New(), Options{})

	rr := get(t, h, "/layers")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "disk on fire")
}

func TestCORS(t *testing.T) {
	h := New(layer.NewMemory(), planar.New(), Options{AllowedOrigins: []string{"https://maps.example.com"}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://maps.example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "https://maps.example.com", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://elsewhere.example.com")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodDelete, "/layers/roads", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRateLimit(t *testing.T) {
	h := New(layer.NewMemory(), planar.New(), Options{RateLimit: 0.001, Burst: 2})

	assert.Equal(t, http.StatusOK, get(t, h, "/health").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/health").Code)

	rr := get(t, h, "/health")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
}
