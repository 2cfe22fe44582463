package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artemMprokhorov/hippograph-pro/domain/core/entities"
)

func TestNewLogger_BuildsForEachLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", ""} {
		logger, err := NewLogger(level)
		require.NoError(t, err)
		assert.NotNil(t, logger)
	}
}

func TestNewMetrics_RegistersAllCollectors(t *testing.T) {
	m := NewMetrics("hippograph_test_registers")
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestObserveSearch_IncrementsTotalsAndZeroResult(t *testing.T) {
	m := NewMetrics("hippograph_test_search")

	m.ObserveSearch(entities.PhaseDurations{Total: 5 * time.Millisecond}, 3, false, nil)
	m.ObserveSearch(entities.PhaseDurations{Total: 5 * time.Millisecond}, 0, true, []string{"ann_timeout"})

	assert.Equal(t, float64(2), testutil.ToFloat64(m.SearchTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SearchZeroResults))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SearchDegraded.WithLabelValues("ann_timeout")))
}

func TestObserveSleep_RecordsOutcomeByMode(t *testing.T) {
	m := NewMetrics("hippograph_test_sleep")

	m.ObserveSleep("light", true, 200*time.Millisecond)
	m.ObserveSleep("deep", false, 2*time.Second)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.SleepRuns.WithLabelValues("light", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SleepRuns.WithLabelValues("deep", "failed")))
}
