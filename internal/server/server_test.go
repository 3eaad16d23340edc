package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/animeverse/animeverse/internal/config"
	"github.com/animeverse/animeverse/internal/core"
	apperrors "github.com/animeverse/animeverse/internal/errors"
	"github.com/animeverse/animeverse/internal/server/handlers"
)

type trendingCatalog struct {
	core.Catalog
}

func (trendingCatalog) Trending(context.Context) ([]core.Anime, error) {
	return []core.Anime{{ID: "frieren", Title: "Frieren", Provider: "gogoanime"}}, nil
}

func testServer(rateLimit float64, burst int) *Server {
	return New(config.ServerConfig{
		Host:      "127.0.0.1",
		Port:      0,
		RateLimit: rateLimit,
		RateBurst: burst,
	}, &handlers.API{Catalog: trendingCatalog{}})
}

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := New(config.ServerConfig{Host: "127.0.0.1"}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/does-not-exist", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)

	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, apperrors.CodeNotFound, body.Error.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServerMountsAPI(t *testing.T) {
	srv := testServer(0, 0)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trending", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Body.String(), `"frieren"`)
}

func TestServerAnswersPreflight(t *testing.T) {
	srv := testServer(0, 0)

	req := httptest.NewRequest(http.MethodOptions, "/api/watchlist", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestServerRateLimitsAPI(t *testing.T) {
	srv := testServer(1, 1)

	first := httptest.NewRecorder()
	srv.Handler().ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/trending", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	srv.Handler().ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/trending", nil))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))

	// Health probes stay outside the limited group.
	health := httptest.NewRecorder()
	srv.Handler().ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.NotEqual(t, http.StatusTooManyRequests, health.Code)
}

func TestServerAddr(t *testing.T) {
	srv := New(config.ServerConfig{Host: "0.0.0.0", Port: 8000}, nil)
	assert.Equal(t, "0.0.0.0:8000", srv.Addr())
	assert.NoError(t, srv.Shutdown(context.Background()))
}

func TestServerAdminSignalEndpointFollowsToken(t *testing.T) {
	tokenVar := config.EnvPrefix() + "ADMIN_TOKEN"

	t.Setenv(tokenVar, "")
	rec := httptest.NewRecorder()
	New(config.ServerConfig{Host: "127.0.0.1"}, nil).Handler().
		ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/signal", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	t.Setenv(tokenVar, "s3cret")
	rec = httptest.NewRecorder()
	New(config.ServerConfig{Host: "127.0.0.1"}, nil).Handler().
		ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/signal", nil))
	assert.NotEqual(t, http.StatusNotFound, rec.Code)
}
