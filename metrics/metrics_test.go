package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}

func TestObserveRunAddsOutcomeCounters(t *testing.T) {
	before := testutil.ToFloat64(EntitiesProcessed.WithLabelValues("orders", "deleted"))
	ObserveRun("orders", 5, 1, 2, 250*time.Millisecond)

	assert.Equal(t, before+5, testutil.ToFloat64(EntitiesProcessed.WithLabelValues("orders", "deleted")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(EntitiesProcessed.WithLabelValues("orders", "errored")), 2.0)
}
