package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftdeck/craftdeck/pkg/aggregator"
	"github.com/craftdeck/craftdeck/pkg/logger"
	"github.com/craftdeck/craftdeck/pkg/models"
	"github.com/craftdeck/craftdeck/pkg/panel"
)

type fakeRunner struct {
	result *aggregator.Result
	err    error
}

func (f *fakeRunner) Run(_ context.Context) (*aggregator.Result, error) {
	return f.result, f.err
}

type fakePower struct {
	uuid   string
	action string
	err    error
}

func (f *fakePower) SendPowerSignal(_ context.Context, uuid, action string) error {
	f.uuid = uuid
	f.action = action

	return f.err
}

func newTestServer(runner CycleRunner, power PowerSender, opts ...func(*APIServer)) *APIServer {
	options := append([]func(*APIServer){
		WithCycleRunner(runner),
		WithPowerSender(power),
	}, opts...)

	return NewAPIServer(":0", logger.NewTestLogger(), options...)
}

func TestGetServers(t *testing.T) {
	runner := &fakeRunner{
		result: &aggregator.Result{
			Servers: []models.Server{
				{ID: 1, UUID: "u-1", Status: models.StatusOnline, Group: "survival"},
				{ID: 2, UUID: "u-2", Status: models.StatusOffline},
			},
			Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			CycleID:   "cycle-1",
		},
	}

	s := newTestServer(runner, &fakePower{})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/servers", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp models.ServersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Servers, 2)
	assert.Equal(t, "2025-06-01T12:00:00Z", resp.Timestamp)
	assert.Empty(t, resp.Error)

	require.Len(t, resp.Grouped.Groups, 1)
	assert.Equal(t, "survival", resp.Grouped.Groups[0].Name)
	require.Len(t, resp.Grouped.Ungrouped, 1)
}

func TestGetServersFatalErrorReturnsEmptyList(t *testing.T) {
	runner := &fakeRunner{err: &panel.UpstreamError{StatusCode: http.StatusBadGateway, Endpoint: "servers"}}

	s := newTestServer(runner, &fakePower{})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/servers", http.NoBody))

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp models.ServersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Empty(t, resp.Servers)
	assert.NotEmpty(t, resp.Error)
}

func TestGetServersConfigurationError(t *testing.T) {
	runner := &fakeRunner{err: panel.ErrMissingConfig}

	s := newTestServer(runner, &fakePower{})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/servers", http.NoBody))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPower(t *testing.T) {
	power := &fakePower{}
	s := newTestServer(&fakeRunner{}, power)

	body := strings.NewReader(`{"action": "start"}`)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/servers/u-1/power", body))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-1", power.uuid)
	assert.Equal(t, "start", power.action)

	var resp models.PowerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "start", resp.Action)
}

func TestPowerRejectsInvalidAction(t *testing.T) {
	power := &fakePower{}
	s := newTestServer(&fakeRunner{}, power)

	body := strings.NewReader(`{"action": "explode"}`)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/servers/u-1/power", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, power.action)
}

func TestPowerRejectsBadBody(t *testing.T) {
	s := newTestServer(&fakeRunner{}, &fakePower{})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/servers/u-1/power", strings.NewReader("{")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPowerUpstreamFailure(t *testing.T) {
	power := &fakePower{err: &panel.UpstreamError{StatusCode: http.StatusConflict, Endpoint: "power"}}
	s := newTestServer(&fakeRunner{}, power)

	body := strings.NewReader(`{"action": "restart"}`)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/servers/u-1/power", body))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPowerRequiresAPIKeyWhenConfigured(t *testing.T) {
	power := &fakePower{}
	s := newTestServer(&fakeRunner{}, power, WithAPIKey("secret"))

	body := strings.NewReader(`{"action": "start"}`)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/servers/u-1/power", body))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, power.action)

	req := httptest.NewRequest(http.MethodPost, "/api/servers/u-1/power", strings.NewReader(`{"action": "start"}`))
	req.Header.Set("X-API-Key", "secret")

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(&fakeRunner{}, &fakePower{})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(&fakeRunner{}, &fakePower{})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/servers", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
