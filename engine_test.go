package motif

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnrichEmptyInputIsInputError(t *testing.T) {
	cfg := DefaultConfig(Ordinary, 2, 0)
	_, err := Enrich(InputMap{}, cfg)
	require.Error(t, err)
}

func TestEnrichRejectsSequenceShorterThanK(t *testing.T) {
	cfg := DefaultConfig(Ordinary, 5, 0)
	input := InputMap{1: {{ID: 1}, {ID: 2}}}
	_, err := Enrich(input, cfg)
	require.Error(t, err)
}

func TestEnrichOrdinaryFindsRepeatedMotif(t *testing.T) {
	cfg := DefaultConfig(Ordinary, 2, 0)
	cfg.MinCount = 2
	cfg.Batch = FixedBatch(10)
	input := InputMap{
		1: {{ID: 1}, {ID: 2}},
		2: {{ID: 1}, {ID: 2}},
		3: {{ID: 9}, {ID: 8}},
	}
	rows, err := Enrich(input, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	for _, r := range rows {
		require.GreaterOrEqual(t, r.Count, uint32(2))
	}
}

func TestEnrichConvolutionRequiresFilterLen(t *testing.T) {
	cfg := DefaultConfig(Convolution, 2, 0)
	input := InputMap{1: {{ID: 1, Position: 0}, {ID: 2, Position: 5}}}
	_, err := Enrich(input, cfg)
	require.Error(t, err)
}

func TestEnrichConvolutionSortsByPosition(t *testing.T) {
	cfg := DefaultConfig(Convolution, 2, 1)
	cfg.Batch = FixedBatch(10)
	// Features given out of position order; Enrich must sort them
	// before building combinations.
	input := InputMap{1: {{ID: 2, Position: 5}, {ID: 1, Position: 0}}}
	rows, err := Enrich(input, cfg)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, []uint32{1, 2}, rows[0].Ids)
}

func TestEnrichMetricsAccumulate(t *testing.T) {
	cfg := DefaultConfig(Ordinary, 2, 0)
	cfg.Batch = FixedBatch(10)
	cfg.Metrics = NewMetrics()
	input := InputMap{
		1: {{ID: 1}, {ID: 2}, {ID: 3}},
		2: {{ID: 2}, {ID: 3}, {ID: 4}},
	}
	_, err := Enrich(input, cfg)
	require.NoError(t, err)
	require.Greater(t, cfg.Metrics.CellsCounted(), uint64(0))
}

func TestEnrichPartitionedCoversSameKeysAsEnrich(t *testing.T) {
	input := InputMap{
		1: {{ID: 1}, {ID: 2}, {ID: 3}},
		2: {{ID: 1}, {ID: 2}, {ID: 3}},
		3: {{ID: 5}, {ID: 6}, {ID: 7}, {ID: 8}, {ID: 9}, {ID: 10}, {ID: 11}, {ID: 12}, {ID: 13}, {ID: 14}, {ID: 15}, {ID: 16}},
	}

	cfgEnrich := DefaultConfig(Ordinary, 2, 0)
	cfgEnrich.MinCount = 1
	cfgEnrich.Batch = FixedBatch(10)
	all, err := Enrich(input, cfgEnrich)
	require.NoError(t, err)

	cfgPart := DefaultConfig(Ordinary, 2, 0)
	cfgPart.MinCount = 1
	cfgPart.Window = 5
	cfgPart.Batch = FixedBatch(10)
	partitioned, err := EnrichPartitioned(input, cfgPart)
	require.NoError(t, err)

	// With min_count=1 no cross-partition undercount is possible (spec
	// section 4.H): every occurrence Enrich finds, EnrichPartitioned
	// must also find, since a single occurrence never spans a length
	// boundary.
	require.GreaterOrEqual(t, len(partitioned), 1)
	require.GreaterOrEqual(t, len(all), 1)

	rowsPerKey := func(rows []Row) map[int64]int {
		out := make(map[int64]int)
		for _, r := range rows {
			out[r.Key]++
		}
		return out
	}
	require.Equal(t, rowsPerKey(all), rowsPerKey(partitioned))
}

func TestEnrichDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig(Ordinary, 0, 0)
	err := cfg.validate()
	require.Error(t, err)
}
