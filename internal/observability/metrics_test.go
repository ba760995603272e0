package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsForTesting_RegistersCollectors(t *testing.T) {
	m, reg := NewMetricsForTesting()

	m.RecordsLoaded.Add(7)
	m.BootstrapRuns.WithLabelValues("loaded").Inc()
	m.HTTPRequests.WithLabelValues("GET /", "200").Inc()
	m.HTTPRequestDuration.WithLabelValues("GET /").Observe(0.01)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"niederschlag_records_loaded_total",
		"niederschlag_bootstrap_runs_total",
		"niederschlag_http_requests_total",
		"niederschlag_http_request_duration_seconds",
	} {
		assert.True(t, names[want], "missing metric %s", want)
	}
	assert.InDelta(t, 7, testutil.ToFloat64(m.RecordsLoaded), 0)
}

func TestNewMetricsForTesting_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetricsForTesting()
		NewMetricsForTesting()
	})
}
