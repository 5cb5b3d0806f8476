package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistration(t *testing.T) {
	// Every collector must describe itself; promauto would have panicked on duplicates.
	collectors := []prometheus.Collector{
		StoreOpsTotal,
		StoreOpDuration,
		RedisOpsTotal,
		RedisConnectionErrors,
		CircuitBreakerStateChanges,
		CircuitBreakerState,
		MutationsTotal,
		MutatorQueueDepth,
		MalformedRecordsTotal,
		EventsTotal,
		EventDuration,
		SideEffectsTotal,
		KarmaAdjustmentsTotal,
		CommandGateDecisionsTotal,
		LogAnnouncementsDropped,
	}

	for _, c := range collectors {
		desc := make(chan *prometheus.Desc, 1)
		c.Describe(desc)
		close(desc)

		require.NotNil(t, <-desc, "metric should have a valid descriptor")
	}
}

func TestSideEffect(t *testing.T) {
	before := testutil.ToFloat64(SideEffectsTotal.WithLabelValues("add_role", "success"))
	beforeErr := testutil.ToFloat64(SideEffectsTotal.WithLabelValues("add_role", "error"))

	SideEffect("add_role", nil)
	SideEffect("add_role", errors.New("forbidden"))
	SideEffect("add_role", errors.New("forbidden"))

	assert.Equal(t, before+1, testutil.ToFloat64(SideEffectsTotal.WithLabelValues("add_role", "success")))
	assert.Equal(t, beforeErr+2, testutil.ToFloat64(SideEffectsTotal.WithLabelValues("add_role", "error")))
}

func TestCounterMetrics(t *testing.T) {
	tests := []struct {
		name    string
		counter prometheus.Counter
	}{
		{"events", EventsTotal.WithLabelValues("reaction_add", "ok")},
		{"mutations", MutationsTotal.WithLabelValues("polls", "put")},
		{"karma", KarmaAdjustmentsTotal.WithLabelValues("up")},
		{"gate", CommandGateDecisionsTotal.WithLabelValues("blacklisted")},
		{"dropped", LogAnnouncementsDropped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(tt.counter)
			tt.counter.Inc()
			assert.Equal(t, before+1, testutil.ToFloat64(tt.counter))
		})
	}
}

func TestMutatorQueueDepth(t *testing.T) {
	MutatorQueueDepth.Set(0)
	MutatorQueueDepth.Inc()
	MutatorQueueDepth.Inc()
	MutatorQueueDepth.Dec()
	assert.Equal(t, float64(1), testutil.ToFloat64(MutatorQueueDepth))
	MutatorQueueDepth.Set(0)
}
