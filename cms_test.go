package motif

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCMSSizing(t *testing.T) {
	seed := int64(1)
	cms, err := NewCMS(3, Ordinary, 0.01, 0.01, &seed)
	require.NoError(t, err)
	require.Greater(t, cms.D(), 0)
	require.Greater(t, cms.W(), 0)
	require.Equal(t, 3, cms.H())
}

func TestNewCMSConvolutionWidth(t *testing.T) {
	seed := int64(1)
	cms, err := NewCMS(3, Convolution, 0.01, 0.01, &seed)
	require.NoError(t, err)
	require.Equal(t, 2*3-1, cms.H())
}

func TestNewCMSRejectsBadParams(t *testing.T) {
	_, err := NewCMS(3, Ordinary, 0, 0.01, nil)
	require.Error(t, err)
	_, err = NewCMS(3, Ordinary, 0.01, 1, nil)
	require.Error(t, err)
	_, err = NewCMS(0, Ordinary, 0.01, 0.01, nil)
	require.Error(t, err)
}

func TestCMSSeedDeterministic(t *testing.T) {
	seed := int64(42)
	a, err := NewCMS(3, Ordinary, 0.01, 0.01, &seed)
	require.NoError(t, err)
	b, err := NewCMS(3, Ordinary, 0.01, 0.01, &seed)
	require.NoError(t, err)
	require.Equal(t, a.coeffs, b.coeffs)
}

func TestCMSIncrementNeverUnderestimates(t *testing.T) {
	seed := int64(7)
	cms, err := NewCMS(2, Ordinary, 0.01, 0.01, &seed)
	require.NoError(t, err)

	hashes := make([]int64, cms.D())
	for r := range hashes {
		hashes[r] = int64(11)*cms.Coeff(r, 0) + int64(22)*cms.Coeff(r, 1)
	}
	for i := 0; i < 5; i++ {
		for r := range hashes {
			cms.Increment(r, hashes[r])
		}
	}
	require.GreaterOrEqual(t, cms.Estimate(hashes), uint32(5))
}

func TestCMSFoldIsDeterministic(t *testing.T) {
	seed := int64(3)
	cms, err := NewCMS(2, Ordinary, 0.1, 0.1, &seed)
	require.NoError(t, err)
	require.Equal(t, cms.fold(12345), cms.fold(12345))
	require.Equal(t, cms.fold(-12345), cms.fold(-12345))
	require.GreaterOrEqual(t, cms.fold(-12345), 0)
	require.Less(t, cms.fold(-12345), cms.W())
}
