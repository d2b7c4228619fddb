/*
 * Copyright 2019 Dgraph Labs, Inc. and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package motif

import (
	"fmt"
	"log"
)

// Enrich is the top-level entry point (spec section 6): mine k-element
// motifs out of input under cfg and return every emitted Row. Input is
// split into memory-bounded batches sharing one CMS (so the estimate
// any batch sees at selection time already reflects every other
// batch's counts), the same "plan the batch size, then stream through
// it" shape as the teacher's bench/ tooling plans cache size before
// running a workload.
func Enrich(input InputMap, cfg Config) ([]Row, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	seqs := input.sortedSequences()
	if len(seqs) == 0 {
		return nil, newInputError("input map has no non-empty sequences")
	}
	if cfg.Case == Convolution {
		for i := range seqs {
			sortByPosition(seqs[i].Features)
		}
	}
	if err := validateCase(seqs, cfg.Case, cfg.FilterLen); err != nil {
		return nil, err
	}

	l := 0
	for _, s := range seqs {
		if len(s.Features) > l {
			l = len(s.Features)
		}
	}
	if l < cfg.K {
		return nil, newConfigError("max sequence length %d is shorter than k=%d", l, cfg.K)
	}

	batchSize, err := resolveBatchSize(len(seqs), l, cfg.K, cfg.Case, cfg.Delta, cfg.Epsilon, cfg.Batch, cfg.plannerOptions())
	if err != nil {
		return nil, err
	}

	cms, err := NewCMS(cfg.K, cfg.Case, cfg.Delta, cfg.Epsilon, cfg.Seed)
	if err != nil {
		return nil, err
	}
	rb := NewRecordBuilder(cfg.Case, cfg.K, cfg.FilterLen, cfg.Delta, cfg.Epsilon, cfg.Seed)
	batches := splitBatches(seqs, batchSize)

	// Count pass: accumulate every batch's occurrences into the one
	// shared CMS before any batch is allowed to select.
	for i, b := range batches {
		rec, err := rb.Build(b, l, cms)
		if err != nil {
			return nil, wrap(err, fmt.Sprintf("count pass batch %d/%d", i+1, len(batches)))
		}
		cfg.Metrics.trackBatchSize(rec.B)
		CountPass(rec, cfg.Workers, cfg.Metrics)
		rec.Release()
	}

	// Select + extract pass: re-walk the same batches now that cms
	// reflects the whole corpus, re-deriving each cell rather than
	// holding every batch's Record in memory at once.
	stream := NewRowStream(cfg.K, cfg.Case == Convolution)
	defer stream.Release()
	for i, b := range batches {
		rec, err := rb.Build(b, l, cms)
		if err != nil {
			return nil, wrap(err, fmt.Sprintf("select/extract pass batch %d/%d", i+1, len(batches)))
		}
		SelectPass(rec, cfg.MinCount, cfg.Workers, cfg.Metrics)
		ExtractPass(rec, stream, cfg.Workers, cfg.Metrics)
		rec.Release()
	}

	return stream.Rows(), nil
}

// EnrichPartitioned is the length-partitioned entry point (spec
// section 4.H): sequences are bucketed by length into windows of
// cfg.Window, each bucket gets its own Record sharing one CMS across
// buckets, and -- unlike Enrich -- each bucket runs CountPass,
// SelectPass, and ExtractPass immediately in sequence rather than
// waiting for every other bucket's counts. A motif whose true count is
// split across two buckets can therefore read as under min_count in
// the earlier bucket even though the shared CMS eventually reflects
// the true total; cfg.MinCount > 1 logs this caveat once per call.
func EnrichPartitioned(input InputMap, cfg Config) ([]Row, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	seqs := input.sortedSequences()
	if len(seqs) == 0 {
		return nil, newInputError("input map has no non-empty sequences")
	}
	if cfg.Case == Convolution {
		for i := range seqs {
			sortByPosition(seqs[i].Features)
		}
	}
	if err := validateCase(seqs, cfg.Case, cfg.FilterLen); err != nil {
		return nil, err
	}

	if cfg.MinCount > 1 {
		log.Printf("motif: EnrichPartitioned: min_count=%d with partitioning may undercount motifs " +
			"whose occurrences span more than one length bucket; consider Enrich for exact counts",
			cfg.MinCount)
	}

	parts := partitionByLength(seqs, cfg.Window)

	maxL := 0
	for _, p := range parts {
		if p.l > maxL {
			maxL = p.l
		}
	}
	if maxL < cfg.K {
		return nil, newConfigError("max sequence length %d is shorter than k=%d", maxL, cfg.K)
	}

	cms, err := NewCMS(cfg.K, cfg.Case, cfg.Delta, cfg.Epsilon, cfg.Seed)
	if err != nil {
		return nil, err
	}
	rb := NewRecordBuilder(cfg.Case, cfg.K, cfg.FilterLen, cfg.Delta, cfg.Epsilon, cfg.Seed)

	stream := NewRowStream(cfg.K, cfg.Case == Convolution)
	defer stream.Release()

	for _, p := range parts {
		batchSize, err := resolveBatchSize(len(p.seqs), p.l, cfg.K, cfg.Case, cfg.Delta, cfg.Epsilon, cfg.Batch, cfg.plannerOptions())
		if err != nil {
			return nil, err
		}
		for i, b := range splitBatches(p.seqs, batchSize) {
			rec, err := rb.Build(b, p.l, cms)
			if err != nil {
				return nil, wrap(err, fmt.Sprintf("length bucket (max length %d) batch %d", p.l, i+1))
			}
			cfg.Metrics.trackBatchSize(rec.B)
			CountPass(rec, cfg.Workers, cfg.Metrics)
			SelectPass(rec, cfg.MinCount, cfg.Workers, cfg.Metrics)
			ExtractPass(rec, stream, cfg.Workers, cfg.Metrics)
			rec.Release()
		}
	}

	return stream.Rows(), nil
}

// splitBatches partitions seqs into consecutive slices of at most
// size elements each, preserving order.
func splitBatches(seqs []Sequence, size int) [][]Sequence {
	if size <= 0 {
		size = len(seqs)
	}
	var out [][]Sequence
	for start := 0; start < len(seqs); start += size {
		end := start + size
		if end > len(seqs) {
			end = len(seqs)
		}
		out = append(out, seqs[start:end])
	}
	return out
}
