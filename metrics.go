/*
 * Copyright 2021 Dgraph Labs, Inc. and Contributors
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
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/epicsketch/motif/z"
)

type metricType int

const (
	// cellsCounted tracks how many (combination, sequence) cells
	// CountPass found valid and incremented the CMS for.
	cellsCounted metricType = iota
	// cellsRejected tracks how many cells the case kernel rejected
	// (padding slot or, for Convolution, an overlapping gap).
	cellsRejected
	// cellsSelected tracks how many cells SelectPass marked selected.
	cellsSelected
	// rowsEmitted tracks how many Rows ExtractPass appended to a stream.
	rowsEmitted
	// This should be the final enum. Other enums should be set before this.
	doNotUse
)

func stringFor(t metricType) string {
	switch t {
	case cellsCounted:
		return "cells-counted"
	case cellsRejected:
		return "cells-rejected"
	case cellsSelected:
		return "cells-selected"
	case rowsEmitted:
		return "rows-emitted"
	default:
		return "unidentified"
	}
}

// Metrics is a snapshot of pass-level statistics for one Enrich or
// EnrichPartitioned call (spec section 4.E-G's pass counters). Nil
// receivers are valid and act as a no-op sink, so callers that pass a
// nil *Metrics into CountPass/SelectPass/ExtractPass pay nothing.
type Metrics struct {
	all [doNotUse][]*uint64

	mu         sync.RWMutex
	batchSizes *z.HistogramData // Tracks B, the number of sequences per Record.
}

// NewMetrics returns a zeroed Metrics ready to be threaded through
// CountPass, SelectPass, and ExtractPass.
func NewMetrics() *Metrics {
	s := &Metrics{
		batchSizes: z.NewHistogramData(z.HistogramBounds(1, 16)),
	}
	for i := 0; i < int(doNotUse); i++ {
		s.all[i] = make([]*uint64, 256)
		slice := s.all[i]
		for j := range slice {
			slice[j] = new(uint64)
		}
	}
	return s
}

// add increments the counter for t, sharding across 25 counters spaced
// 10 slots apart in the 256-slot array, chosen by j % 25 (j is the
// combination column a pass worker is handling), so concurrent workers
// on different columns rarely false-share a cache line, the same
// padding trick the teacher's own cache Metrics uses keyed on a hash
// instead of a column index.
func (p *Metrics) add(t metricType, j int, delta uint64) {
	if p == nil {
		return
	}
	valp := p.all[t]
	idx := (j % 25) * 10
	atomic.AddUint64(valp[idx], delta)
}

func (p *Metrics) get(t metricType) uint64 {
	if p == nil {
		return 0
	}
	valp := p.all[t]
	var total uint64
	for i := range valp {
		total += atomic.LoadUint64(valp[i])
	}
	return total
}

// CellsCounted is the total number of cells CountPass incremented the
// CMS for, across every Record this Metrics has observed.
func (p *Metrics) CellsCounted() uint64 { return p.get(cellsCounted) }

// CellsRejected is the total number of cells the active case kernel
// rejected during CountPass; SelectPass does not add to it.
func (p *Metrics) CellsRejected() uint64 { return p.get(cellsRejected) }

// CellsSelected is the total number of cells SelectPass marked selected.
func (p *Metrics) CellsSelected() uint64 { return p.get(cellsSelected) }

// RowsEmitted is the total number of Rows ExtractPass appended.
func (p *Metrics) RowsEmitted() uint64 { return p.get(rowsEmitted) }

// SelectionRatio is CellsSelected over CellsCounted, the fraction of
// counted occurrences that cleared min_count.
func (p *Metrics) SelectionRatio() float64 {
	if p == nil {
		return 0
	}
	counted := p.get(cellsCounted)
	if counted == 0 {
		return 0
	}
	return float64(p.get(cellsSelected)) / float64(counted)
}

func (p *Metrics) trackBatchSize(b int) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batchSizes.Update(int64(b))
}

// BatchSizes returns a copy of the distribution of B (sequences per
// Record) this Metrics has observed.
func (p *Metrics) BatchSizes() *z.HistogramData {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.batchSizes.Copy()
}

// Clear resets all counters and the batch-size histogram.
func (p *Metrics) Clear() {
	if p == nil {
		return
	}
	for i := 0; i < int(doNotUse); i++ {
		for j := range p.all[i] {
			atomic.StoreUint64(p.all[i][j], 0)
		}
	}
	p.mu.Lock()
	p.batchSizes = z.NewHistogramData(z.HistogramBounds(1, 16))
	p.mu.Unlock()
}

// String returns a human-readable rendering of every counter plus the
// batch-size histogram.
func (p *Metrics) String() string {
	if p == nil {
		return ""
	}
	var buf bytes.Buffer
	for i := 0; i < int(doNotUse); i++ {
		t := metricType(i)
		fmt.Fprintf(&buf, "%s: %d ", stringFor(t), p.get(t))
	}
	fmt.Fprintf(&buf, "selection-ratio: %.4f ", p.SelectionRatio())
	buf.WriteString(p.BatchSizes().String())
	return buf.String()
}
