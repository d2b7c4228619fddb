package motif

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlanBatchFixedMemoryFormula(t *testing.T) {
	opts := DefaultPlannerOptions()
	opts.TargetBytes = 1 << 30
	report, err := PlanBatch(1000, 10, 3, Ordinary, 0.01, 0.01, opts)
	require.NoError(t, err)

	// k=3, L=10: m=C(10,3)=120; delta=0.01: d=ceil(ln 100)=5;
	// epsilon=0.01: w=ceil(e/0.01)=272; H=k=3.
	require.Equal(t, int64(3*120*4+5*272*4+5*3*4), report.FixedBytes)
	require.Greater(t, report.PerPointBytes, int64(0))
	require.Greater(t, report.BatchSize, 0)
	require.LessOrEqual(t, report.BatchSize, opts.MaxBatch)
	require.GreaterOrEqual(t, report.BatchSize, opts.MinBatch)
}

func TestPlanBatchClampsToTotalPoints(t *testing.T) {
	opts := DefaultPlannerOptions()
	opts.TargetBytes = 1 << 34
	report, err := PlanBatch(5, 10, 2, Ordinary, 0.01, 0.01, opts)
	require.NoError(t, err)
	require.LessOrEqual(t, report.BatchSize, 5)
	require.Equal(t, 1, report.NumBatches)
}

func TestPlanBatchRejectsTinyBudget(t *testing.T) {
	opts := DefaultPlannerOptions()
	opts.TargetBytes = 1
	_, err := PlanBatch(1000, 10, 3, Ordinary, 0.01, 0.01, opts)
	require.Error(t, err)
}

func TestPlanBatchRejectsBadK(t *testing.T) {
	opts := DefaultPlannerOptions()
	_, err := PlanBatch(1000, 10, 20, Ordinary, 0.01, 0.01, opts)
	require.Error(t, err)
}

func TestResolveBatchSizeFixedPolicy(t *testing.T) {
	size, err := resolveBatchSize(1000, 10, 3, Ordinary, 0.01, 0.01, FixedBatch(250), DefaultPlannerOptions())
	require.NoError(t, err)
	require.Equal(t, 250, size)
}

func TestResolveBatchSizeAutoPolicy(t *testing.T) {
	opts := DefaultPlannerOptions()
	opts.TargetBytes = 1 << 30
	size, err := resolveBatchSize(1000, 10, 3, Ordinary, 0.01, 0.01, AutoBatch(), opts)
	require.NoError(t, err)
	require.Greater(t, size, 0)
}
