package httpserver

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/keycustody/registration-backend/envelope"
	"github.com/keycustody/registration-backend/registration"
	"github.com/keycustody/registration-backend/storage"
	"github.com/stretchr/testify/require"
)

const testIV = "000102030405060708090a0b0c0d0e0f"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	log := slog.Default()
	sealer, err := envelope.NewSealer(testIV)
	require.NoError(t, err)

	orch := registration.New(storage.NewMemoryGateway(log), sealer, log)
	srv := New(&HTTPServerConfig{
		ListenAddr:               "127.0.0.1:0",
		Log:                      log,
		DrainDuration:            time.Millisecond,
		GracefulShutdownDuration: time.Second,
		ReadTimeout:              time.Second,
		WriteTimeout:             time.Second,
	}, NewHandler(orch, log))

	ts := httptest.NewServer(srv.getRouter())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandleRegister(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/register", map[string]any{
		"id": "alice", "pin": 1234,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result registration.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.True(t, result.Success)
	require.Empty(t, result.Error)
}

func TestHandleRegisterConflict(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/register", map[string]any{"id": "alice", "pin": 1234})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/v1/register", map[string]any{"id": "alice", "pin": 1234})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var result registration.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.False(t, result.Success)
	require.Equal(t, "Account already registered", result.Error)
}

func TestHandleRegisterAppScope(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/register", map[string]any{"id": "alice", "pin": 1234})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/v1/register", map[string]any{"id": "alice", "appId": "app1", "pin": 1234})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandleRegisterRejectsBadRequests(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/register", map[string]any{"pin": 1234})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err := http.Post(ts.URL+"/api/v1/register", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleRecover(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/register", map[string]any{"id": "alice", "pin": 1234})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/v1/recover", map[string]any{"id": "alice", "pin": 1234})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var recovered recoverResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&recovered))
	require.Contains(t, recovered.PublicKey, "BEGIN PUBLIC KEY")
}

func TestHandleRecoverAbsence(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/register", map[string]any{"id": "alice", "pin": 1234})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Wrong pin and unknown id both come back as the same 404.
	resp = postJSON(t, ts.URL+"/api/v1/recover", map[string]any{"id": "alice", "pin": 9999})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/v1/recover", map[string]any{"id": "bob", "pin": 1234})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthAndDrainEndpoints(t *testing.T) {
	log := slog.Default()
	sealer, err := envelope.NewSealer(testIV)
	require.NoError(t, err)
	orch := registration.New(storage.NewMemoryGateway(log), sealer, log)

	srv := New(&HTTPServerConfig{
		ListenAddr:    "127.0.0.1:0",
		Log:           log,
		DrainDuration: time.Millisecond,
	}, NewHandler(orch, log))

	ts := httptest.NewServer(srv.getRouter())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/livez")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/drain")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/undrain")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
