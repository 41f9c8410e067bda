// Package testutil provides shared helpers for integration tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/Bulwark/internal/infrastructure/config"
	"github.com/GriffinCanCode/Bulwark/internal/logging"
	"github.com/GriffinCanCode/Bulwark/internal/server"
)

// StartServer builds a server from the given config and serves it from
// an httptest listener. The listener is torn down with the test.
func StartServer(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()

	srv, err := server.NewWithRegistry(cfg, logging.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

// PostJSON posts the payload and decodes the JSON response body.
func PostJSON(t *testing.T, url, payload string) (int, map[string]interface{}) {
	t.Helper()

	resp, err := http.Post(url, "application/json", bytes.NewBufferString(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

// GetJSON fetches the URL and decodes the JSON response body.
func GetJSON(t *testing.T, url string) (int, map[string]interface{}) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

// DialStream opens a websocket connection to the server's /stream
// endpoint. The connection is closed with the test.
func DialStream(t *testing.T, serverURL string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(serverURL, "http") + "/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}
