package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()

	assert.NotNil(t, m.IterationsTotal)
	assert.NotNil(t, m.ChildDuration)
	assert.NotNil(t, m.ChildFailures)

	// registries are independent across instances
	m2 := NewMetrics()
	m2.IterationsTotal.WithLabelValues("gnu").Inc()
	assert.Equal(t, float64(0), testutil.ToFloat64(m.IterationsTotal.WithLabelValues("gnu")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m2.IterationsTotal.WithLabelValues("gnu")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.IterationsTotal.WithLabelValues("mimalloc").Add(3)
	m.ChildDuration.WithLabelValues("mimalloc").Observe(0.25)
	m.ChildFailures.WithLabelValues("mimalloc").Inc()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := string(body)
	assert.Contains(t, out, `allocbench_iterations_total{allocator="mimalloc"} 3`)
	assert.Contains(t, out, `allocbench_child_failures_total{allocator="mimalloc"} 1`)
	assert.Contains(t, out, "allocbench_child_duration_seconds_bucket")
}
