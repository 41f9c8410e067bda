//go:build integration
// +build integration

package integration

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/Bulwark/tests/helpers/testutil"
)

// TestChaosExperimentEndToEnd arms an error-injection experiment from a
// YAML file, drives load through the demo endpoint, and verifies the
// injected faults trip the breaker and surface in every observability
// channel.
func TestChaosExperimentEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping end-to-end test in short mode")
	}

	path := filepath.Join(t.TempDir(), "experiments.yaml")
	doc := `experiments:
  - name: payments-outage
    target: payments
    type: error
    probability: 1.0
    seed: 1337
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg := baseConfig()
	cfg.Chaos.Enabled = true
	cfg.Chaos.ExperimentsFile = path

	ts := testutil.StartServer(t, cfg)
	conn := testutil.DialStream(t, ts.URL)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var welcome map[string]interface{}
	require.NoError(t, conn.ReadJSON(&welcome))

	// Every call to the targeted dependency fails by injection.
	for i := 0; i < 3; i++ {
		status, body := testutil.PostJSON(t, ts.URL+"/demo/call", `{"target":"payments"}`)
		assert.Equal(t, http.StatusBadGateway, status)
		assert.Contains(t, body["error"], "injected")
	}

	// The breaker tripped and the trip was broadcast.
	status, body := testutil.GetJSON(t, ts.URL+"/breakers/payments")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "open", body["state"])

	var event map[string]interface{}
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "payments", event["breaker"])
	assert.Equal(t, "open", event["to"])

	// Chaos totals reflect the injected faults.
	status, body = testutil.GetJSON(t, ts.URL+"/chaos")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["enabled"])
	experiments := body["experiments"].([]interface{})
	require.Len(t, experiments, 1)
	exp := experiments[0].(map[string]interface{})
	assert.Equal(t, "payments", exp["target"])
	assert.Equal(t, float64(3), exp["faults_injected"])

	// A dependency without an experiment keeps working.
	status, _ = testutil.PostJSON(t, ts.URL+"/demo/call", `{"target":"db"}`)
	assert.Equal(t, http.StatusOK, status)
}
