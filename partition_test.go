package motif

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLengthToBucket(t *testing.T) {
	// anchored at lMin=5: bucket 0 covers [5,14], bucket 1 [15,24], ...
	require.Equal(t, 0, lengthToBucket(5, 5, 10))
	require.Equal(t, 0, lengthToBucket(14, 5, 10))
	require.Equal(t, 1, lengthToBucket(15, 5, 10))
	require.Equal(t, 1, lengthToBucket(24, 5, 10))
	require.Equal(t, 2, lengthToBucket(25, 5, 10))
}

func TestPartitionByLengthGroupsByWindow(t *testing.T) {
	seqs := []Sequence{
		{Key: 1, Features: make([]Feature, 3)},
		{Key: 2, Features: make([]Feature, 5)},
		{Key: 3, Features: make([]Feature, 13)},
	}
	// lMin=3: bucket 0 covers [3,12], bucket 1 covers [13,22].
	parts := partitionByLength(seqs, 10)
	require.Len(t, parts, 2)
	require.Len(t, parts[0].seqs, 2)
	require.Equal(t, 5, parts[0].l)
	require.Len(t, parts[1].seqs, 1)
	require.Equal(t, 13, parts[1].l)
}

func TestPartitionByLengthPreservesFirstSeenOrder(t *testing.T) {
	seqs := []Sequence{
		{Key: 1, Features: make([]Feature, 15)},
		{Key: 2, Features: make([]Feature, 3)},
		{Key: 3, Features: make([]Feature, 16)},
	}
	parts := partitionByLength(seqs, 10)
	require.Len(t, parts, 2)
	require.Equal(t, 2, len(parts[0].seqs)) // bucket 1: lengths 15 and 16
	require.Equal(t, 1, len(parts[1].seqs)) // bucket 0: length 3
}

func TestPartitionByLengthUnionCoversAllSequences(t *testing.T) {
	seqs := []Sequence{
		{Key: 1, Features: make([]Feature, 3)},
		{Key: 2, Features: make([]Feature, 13)},
		{Key: 3, Features: make([]Feature, 23)},
		{Key: 4, Features: make([]Feature, 7)},
	}
	parts := partitionByLength(seqs, 10)
	total := 0
	for _, p := range parts {
		total += len(p.seqs)
	}
	require.Equal(t, len(seqs), total)
}
