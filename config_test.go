package motif

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigMatchesSpecDefaults(t *testing.T) {
	cfg := DefaultConfig(Ordinary, 3, 0)
	require.Equal(t, uint32(1), cfg.MinCount)
	require.InDelta(t, 0.0001, cfg.Delta, 1e-12)
	require.InDelta(t, 0.00005, cfg.Epsilon, 1e-12)
	require.True(t, cfg.Batch.Auto)
	require.InDelta(t, 0.8, cfg.SafetyFactor, 1e-9)
	require.Equal(t, 10, cfg.MinBatch)
	require.Equal(t, 10000, cfg.MaxBatch)
	require.True(t, cfg.UseAccel)
	require.Equal(t, 10, cfg.Window)
	require.NoError(t, cfg.validate())
}

func TestParseConfigOverridesSelectively(t *testing.T) {
	cfg := ParseConfig(Ordinary, 3, 0, "min-count=5; batch-policy=fixed; batch-size=77")
	require.Equal(t, uint32(5), cfg.MinCount)
	require.False(t, cfg.Batch.Auto)
	require.Equal(t, 77, cfg.Batch.Size)
	// untouched knobs keep their defaults
	require.InDelta(t, 0.0001, cfg.Delta, 1e-12)
}

func TestConfigValidateRejectsMissingFilterLen(t *testing.T) {
	cfg := DefaultConfig(Convolution, 3, 0)
	require.Error(t, cfg.validate())
}

func TestConfigValidateRejectsBadDelta(t *testing.T) {
	cfg := DefaultConfig(Ordinary, 3, 0)
	cfg.Delta = 1.5
	require.Error(t, cfg.validate())
}

func TestConfigValidateRejectsZeroMinCount(t *testing.T) {
	cfg := DefaultConfig(Ordinary, 3, 0)
	cfg.MinCount = 0
	require.Error(t, cfg.validate())
}

func TestConfigPlannerOptionsProjection(t *testing.T) {
	cfg := DefaultConfig(Ordinary, 3, 0)
	opts := cfg.plannerOptions()
	require.Equal(t, cfg.SafetyFactor, opts.SafetyFactor)
	require.Equal(t, cfg.MinBatch, opts.MinBatch)
	require.Equal(t, cfg.MaxBatch, opts.MaxBatch)
	require.Equal(t, cfg.UseAccel, opts.UseAccel)
}
