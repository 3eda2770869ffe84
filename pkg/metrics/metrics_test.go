package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTransactionMetricsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewTransactionMetrics(reg)

	m.IncRetry()
	m.IncRetry()
	m.IncExhausted()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.retries))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.failures))
}

func TestNilRegistererIsSafe(t *testing.T) {
	m := NewTransactionMetrics(nil)
	m.IncRetry()
	m.IncExhausted()

	i := NewIdempotencyMetrics(nil)
	i.IncReplay()
	i.IncConflict()
}

func TestIdempotencyMetricsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewIdempotencyMetrics(reg)

	m.IncReplay()
	m.IncConflict()
	m.IncConflict()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.replays))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.conflicts))
}

func TestOutboxMetricsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)

	m.IncPublished()
	m.IncPublished()
	m.IncFailure()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.published))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.failures))
}

func TestNilOutboxMetricsAreSafe(t *testing.T) {
	m := NewOutboxMetrics(nil)
	m.IncPublished()
	m.IncFailure()
}
