package motif

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInputMapSortedSequencesDropsEmpty(t *testing.T) {
	m := InputMap{
		3: {{ID: 1}},
		1: {},
		2: {{ID: 2}},
	}
	seqs := m.sortedSequences()
	require.Len(t, seqs, 2)
	require.Equal(t, int64(2), seqs[0].Key)
	require.Equal(t, int64(3), seqs[1].Key)
}

func TestValidateCaseRejectsZeroFeatureID(t *testing.T) {
	seqs := []Sequence{{Key: 1, Features: []Feature{{ID: 0}}}}
	err := validateCase(seqs, Ordinary, 0)
	require.Error(t, err)
}

func TestValidateCaseRequiresFilterLenForConvolution(t *testing.T) {
	seqs := []Sequence{{Key: 1, Features: []Feature{{ID: 1}}}}
	err := validateCase(seqs, Convolution, 0)
	require.Error(t, err)
}

func TestSortByPositionStable(t *testing.T) {
	feats := []Feature{
		{ID: 1, Position: 3},
		{ID: 2, Position: 1},
		{ID: 3, Position: 1},
		{ID: 4, Position: 2},
	}
	sortByPosition(feats)
	require.Equal(t, []uint32{1, 1, 2, 3}, []uint32{feats[0].Position, feats[1].Position, feats[2].Position, feats[3].Position})
	// ties keep original relative order: id 2 before id 3
	require.Equal(t, uint32(2), feats[0].ID)
	require.Equal(t, uint32(3), feats[1].ID)
}

func TestCaseString(t *testing.T) {
	require.Equal(t, "ordinary", Ordinary.String())
	require.Equal(t, "convolution", Convolution.String())
}
