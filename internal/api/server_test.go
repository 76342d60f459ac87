package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jak-pan/hydration-stats/internal/history"
	"github.com/jak-pan/hydration-stats/internal/model"
	"github.com/jak-pan/hydration-stats/internal/registry"
	"github.com/jak-pan/hydration-stats/internal/stats"
)

func newTestServer() *Server {
	reg := registry.New()
	reg.Put(model.Asset{ID: "5", Symbol: "DOT", Name: "Polkadot", Decimals: 10})
	engine := history.NewEngine(history.Config{}, nil, nil, nil)
	store := stats.New(reg, nil, nil, engine, "1", nil)
	return NewServer(ServerConfig{Addr: ":0"}, store, nil)
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := doRequest(t, newTestServer(), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestStatusEndpoint(t *testing.T) {
	rec := doRequest(t, newTestServer(), http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var st stats.Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.Equal(t, 1, st.AssetCount)
	assert.False(t, st.IncludeExcludedAsset)
}

func TestAssetsEndpoint(t *testing.T) {
	rec := doRequest(t, newTestServer(), http.MethodGet, "/api/v1/assets", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count  int           `json:"count"`
		Assets []model.Asset `json:"assets"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "DOT", body.Assets[0].Symbol)
}

func TestTVLEndpointEmptyStore(t *testing.T) {
	rec := doRequest(t, newTestServer(), http.MethodGet, "/api/v1/tvl", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var b model.TVLBreakdown
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&b))
	assert.Zero(t, b.Total)
}

func TestCompositionEndpointEmptyStore(t *testing.T) {
	rec := doRequest(t, newTestServer(), http.MethodGet, "/api/v1/composition", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count       int                      `json:"count"`
		Composition []model.AssetComposition `json:"composition"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Zero(t, body.Count)
	assert.NotNil(t, body.Composition)
}

func TestHistoricalRejectsUnknownPeriod(t *testing.T) {
	rec := doRequest(t, newTestServer(), http.MethodGet, "/api/v1/historical/6m", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshVenueRejectsUnknownVenue(t *testing.T) {
	rec := doRequest(t, newTestServer(), http.MethodPost, "/api/v1/refresh/lbp", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExcludedAssetSetting(t *testing.T) {
	s := newTestServer()

	rec := doRequest(t, s, http.MethodPut, "/api/v1/settings/excluded-asset", `{"include":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var st stats.Status
	rec = doRequest(t, s, http.MethodGet, "/api/v1/status", "")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.True(t, st.IncludeExcludedAsset)

	rec = doRequest(t, s, http.MethodPut, "/api/v1/settings/excluded-asset", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClearHistoricalCacheWithoutEngine(t *testing.T) {
	// Clearing when nothing was ever fetched must still succeed.
	rec := doRequest(t, newTestServer(), http.MethodDelete, "/api/v1/historical/cache", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
