package motif

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMessagesCarryPrefix(t *testing.T) {
	require.Contains(t, newConfigError("bad k=%d", 0).Error(), "motif: config:")
	require.Contains(t, newInputError("empty").Error(), "motif: input:")
	require.Contains(t, newMemoryError("no room").Error(), "motif: memory:")
	require.Contains(t, newAcceleratorError("no gpu").Error(), "motif: accelerator:")
	require.Contains(t, newInternalInvariantError("unreachable").Error(), "motif: internal invariant violated:")
}

func TestIsConfigErrorDiscriminates(t *testing.T) {
	require.True(t, isConfigError(newConfigError("bad")))
	require.False(t, isConfigError(newInputError("bad")))
}

func TestErrorsAsAcrossWrap(t *testing.T) {
	base := newConfigError("k must be positive")
	wrapped := wrap(base, "while validating config")

	var ce *ConfigError
	require.True(t, errors.As(wrapped, &ce))
	require.Contains(t, wrapped.Error(), "while validating config")
}

func TestWrapNilIsNil(t *testing.T) {
	require.NoError(t, wrap(nil, "context"))
}
