package health

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamalex/home-assistant-customizations/frame"
	"github.com/jamalex/home-assistant-customizations/hass"
	"github.com/jamalex/home-assistant-customizations/store"
)

type fakeSession struct {
	status hass.Status
	err    error
	store  *store.Store
}

func (f *fakeSession) Status() hass.Status { return f.status }
func (f *fakeSession) Err() error          { return f.err }
func (f *fakeSession) Store() *store.Store { return f.store }

func newFakeSession(t *testing.T, status hass.Status, err error) *fakeSession {
	t.Helper()

	st, storeErr := store.New()
	require.NoError(t, storeErr)
	require.NoError(t, st.ReplaceRegistry(frame.RegistryEntity, []store.Record{
		{"entity_id": "light.kitchen"},
	}))
	st.ReplaceStates([]store.Record{{"entity_id": "light.kitchen", "state": "on"}})

	return &fakeSession{status: status, err: err, store: st}
}

func TestFromSession(t *testing.T) {
	tests := []struct {
		name        string
		status      hass.Status
		wantState   string
		wantHealthy bool
	}{
		{"ready", hass.StatusReady, StateHealthy, true},
		{"connecting", hass.StatusConnecting, StateDegraded, false},
		{"authenticating", hass.StatusAuthenticating, StateDegraded, false},
		{"disconnected", hass.StatusDisconnected, StateUnhealthy, false},
		{"stopping", hass.StatusStopping, StateUnhealthy, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := FromSession(newFakeSession(t, tt.status, nil))
			assert.Equal(t, tt.wantState, status.Status)
			assert.Equal(t, tt.wantHealthy, status.Healthy)
			assert.Equal(t, tt.status.String(), status.Session)
			require.NotNil(t, status.Cache)
			assert.Equal(t, 1, status.Cache.Entities)
			assert.Equal(t, 1, status.Cache.States)
		})
	}
}

func TestFromSessionSanitizesError(t *testing.T) {
	err := errors.New("dial ws://192.168.1.50:8123/api/websocket failed, token=abc123")
	status := FromSession(newFakeSession(t, hass.StatusStopping, err))

	assert.NotContains(t, status.Message, "192.168.1.50")
	assert.NotContains(t, status.Message, "abc123")
	assert.Contains(t, status.Message, "[URL]")
}

func TestSanitizeMessage(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"ws url", "connect to ws://hub.local:8123/api failed", "connect to [URL] failed"},
		{"wss url", "connect to wss://hub.local/api failed", "connect to [URL] failed"},
		{"http url", "fetch http://hub.local/manifest failed", "fetch [URL] failed"},
		{"ip address", "peer 10.0.0.7 unreachable", "peer [IP] unreachable"},
		{"token", "auth token=secret-value rejected", "auth [REDACTED] rejected"},
		{"plain", "connection lost", "connection lost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeMessage(tt.in))
		})
	}
}

func TestHandler(t *testing.T) {
	session := newFakeSession(t, hass.StatusReady, nil)
	handler := Handler(session)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, 200, rec.Code)

	var status Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Healthy)

	session.status = hass.StatusDisconnected
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, 503, rec.Code)

	// Degraded still answers 200
	session.status = hass.StatusConnecting
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, 200, rec.Code)
}
