package motif

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRowStreamAppendAndDecode(t *testing.T) {
	s := NewRowStream(2, false)
	defer s.Release()

	s.Append(Row{Key: 1, Ids: []uint32{4, 5}, Count: 3, Contribution: 1.5})
	s.Append(Row{Key: 2, Ids: []uint32{6, 7}, Count: 9, Contribution: 2.5})

	require.Equal(t, 2, s.Len())
	rows := s.Rows()
	require.Len(t, rows, 2)
	require.Equal(t, int64(1), rows[0].Key)
	require.Equal(t, []uint32{4, 5}, rows[0].Ids)
	require.Equal(t, uint32(3), rows[0].Count)
	require.InDelta(t, float32(1.5), rows[0].Contribution, 1e-6)
	require.Equal(t, int64(2), rows[1].Key)
}

func TestRowStreamConvolutionLayoutIncludesGaps(t *testing.T) {
	s := NewRowStream(3, true)
	defer s.Release()

	s.Append(Row{Key: 10, Ids: []uint32{1, 2, 3}, Gaps: []uint32{5, 6}, Start: 2, End: 20, Count: 1, Contribution: 0})
	rows := s.Rows()
	require.Len(t, rows, 1)
	require.Equal(t, []uint32{5, 6}, rows[0].Gaps)
	require.Equal(t, uint32(2), rows[0].Start)
	require.Equal(t, uint32(20), rows[0].End)
}

func TestRowStreamEmpty(t *testing.T) {
	s := NewRowStream(2, false)
	defer s.Release()
	require.Equal(t, 0, s.Len())
	require.Empty(t, s.Rows())
}

func TestRowStreamConcurrentAppend(t *testing.T) {
	s := NewRowStream(1, false)
	defer s.Release()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			s.Append(Row{Key: int64(i), Ids: []uint32{uint32(i)}, Count: 1})
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	require.Equal(t, 8, s.Len())
}
