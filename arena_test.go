package motif

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArenaAllocateAndGet(t *testing.T) {
	a := NewArena()
	buf, slot := a.Allocate(16)
	require.GreaterOrEqual(t, len(buf), 16)
	require.Equal(t, buf, a.Get(slot))
}

func TestArenaRoundTrip(t *testing.T) {
	a := NewArena()
	buf, slot := a.Allocate(32)
	require.NotNil(t, buf)
	copy(buf, []byte("0123456789abcdef"))

	got := a.Get(slot)
	require.Equal(t, buf, got)
}

func TestArenaFreeAllowsReuse(t *testing.T) {
	a := NewArena()
	_, slot1 := a.Allocate(32)
	a.Free(slot1)

	// A second allocation of the same size class should succeed and
	// not panic, whether or not it reuses slot1's page.
	buf2, slot2 := a.Allocate(32)
	require.NotNil(t, buf2)
	require.NotZero(t, slot2&0xffffffff) // slot2 is well-formed (pid bits set).
}

func TestCellScratchRoundTrip(t *testing.T) {
	s := newCellScratch(4, 3, true)
	require.Len(t, s.hashes, 4)
	require.Len(t, s.ids, 3)
	require.Len(t, s.gaps, 2)
	s.release()
}
