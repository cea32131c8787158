package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/craftdeck/craftdeck/pkg/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCommonMiddlewareSetsCORSHeaders(t *testing.T) {
	handler := CommonMiddleware(okHandler(), CORSConfig{
		AllowedOrigins:   []string{"https://status.example.com"},
		AllowCredentials: true,
	}, logger.NewTestLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/servers", http.NoBody))

	assert.Equal(t, "https://status.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCommonMiddlewareDefaultsToWildcard(t *testing.T) {
	handler := CommonMiddleware(okHandler(), CORSConfig{}, logger.NewTestLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCommonMiddlewareAnswersPreflight(t *testing.T) {
	var reached bool

	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { reached = true })
	handler := CommonMiddleware(next, CORSConfig{}, logger.NewTestLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/servers", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, reached)
}

func TestAPIKeyMiddleware(t *testing.T) {
	handler := APIKeyMiddleware("secret", logger.NewTestLogger())(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/power", http.NoBody))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/power", http.NoBody)
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/power?api_key=secret", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyMiddlewareDisabledWhenUnset(t *testing.T) {
	handler := APIKeyMiddleware("", logger.NewTestLogger())(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/power", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
}
