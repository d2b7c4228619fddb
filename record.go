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
	"unsafe"

	"github.com/epicsketch/motif/z"
)

// Record is the dense rectangular working set for one batch of B
// sequences, all zero-padded to the same maxActiveLen L (spec section
// 3 "Record" and section 4.C). Every tensor backing it except the
// small Keys slice (an ordinary Go slice) is carved out of a single
// per-Record z.Allocator arena, released in one call when the
// Record is discarded -- the same per-owner bump-allocation discipline
// the teacher applies to cache Items via z.Allocator in store.go.
type Record struct {
	Case      Case
	K         int
	L         int
	FilterLen uint32
	B         int

	// Keys holds the external sequence id occupying slot n, len B.
	Keys []int64

	comb *Combinations
	cms  *CMS
	// ownsCMS is true when this Record allocated its own standalone CMS
	// and must not let anyone else mutate it; shared CMS records (the
	// Partitioner's case) leave this false and never release it.
	ownsCMS bool

	alloc *z.Allocator

	// refIDs[(i-1)*B+n] is the feature/filter id at 1-based position i
	// of slot n's sequence, or 0 if i exceeds that sequence's length.
	refIDs []uint32
	// contrib[(i-1)*B+n] is the contribution at the same cell.
	contrib []float32
	// positions[(i-1)*B+n] is the original Feature.Position at the same
	// cell; only meaningful for Convolution, left zero-valued otherwise.
	positions []uint32

	// selection is the m x B bitmap (spec "selection_bitmaps"), one bit
	// per (combination column j, slot n), packed row-major 64 at a time:
	// bit index j*B+n.
	selection []uint64

	active *activeKeys
}

// filterAt returns the feature/filter id at 1-based position i of
// slot n, or 0 if that slot's sequence is shorter than i.
func (r *Record) filterAt(n, i int) uint32 {
	return r.refIDs[(i-1)*r.B+n]
}

// positionAt returns the original Feature.Position at 1-based position
// i of slot n.
func (r *Record) positionAt(n, i int) uint32 {
	return r.positions[(i-1)*r.B+n]
}

// contribAt returns the contribution at 1-based position i of slot n.
func (r *Record) contribAt(n, i int) float32 {
	return r.contrib[(i-1)*r.B+n]
}

func selectionBit(m, b, j, n int) (word int, mask uint64) {
	idx := j*b + n
	return idx / 64, 1 << uint(idx%64)
}

// SetSelected marks combination column j as selected for slot n.
func (r *Record) SetSelected(j, n int) {
	w, mask := selectionBit(r.comb.M, r.B, j, n)
	r.selection[w] |= mask
}

// IsSelected reports whether combination column j was selected for
// slot n by SelectPass.
func (r *Record) IsSelected(j, n int) bool {
	w, mask := selectionBit(r.comb.M, r.B, j, n)
	return r.selection[w]&mask != 0
}

// Combinations exposes the Record's k-of-L combination matrix.
func (r *Record) Combinations() *Combinations { return r.comb }

// CMS exposes the Record's attached sketch, standalone or shared.
func (r *Record) CMS() *CMS { return r.cms }

// HasKey reports whether sequence key is materialized in this Record.
func (r *Record) HasKey(key int64) bool { return r.active.Has(key) }

// Release frees the Record's backing arena and, if this Record owns
// its CMS outright (built standalone, not handed a shared one), drops
// the reference so the counters can be garbage collected. Must be
// called exactly once the Record is no longer needed -- the same
// discipline the teacher documents on z.Allocator.Release.
func (r *Record) Release() {
	r.alloc.Release()
	if r.ownsCMS {
		r.cms = nil
	}
}

// allocUint32 carves n uint32s out of a's current arena page. The
// backing bytes came from z.Calloc, which the teacher already
// documents as safe to unsafe-cast into Go-typed slices (z/allocator.go
// doc comment: "it is safe to use the allocated bytes to unsafe cast
// them to Go struct pointers").
func allocUint32(a *z.Allocator, n int) []uint32 {
	if n == 0 {
		return nil
	}
	buf := a.Allocate(n * 4)
	return unsafe.Slice((*uint32)(unsafe.Pointer(&buf[0])), n)
}

func allocFloat32(a *z.Allocator, n int) []float32 {
	if n == 0 {
		return nil
	}
	buf := a.Allocate(n * 4)
	return unsafe.Slice((*float32)(unsafe.Pointer(&buf[0])), n)
}

func allocUint64(a *z.Allocator, n int) []uint64 {
	if n == 0 {
		return nil
	}
	buf := a.Allocate(n * 8)
	return unsafe.Slice((*uint64)(unsafe.Pointer(&buf[0])), n)
}

// RecordBuilder holds the knobs (spec section 4.C) needed to turn a
// batch of Sequences into a Record: the motif shape and, when no
// shared CMS is supplied, the error parameters for a standalone one.
type RecordBuilder struct {
	Case      Case
	K         int
	FilterLen uint32
	Delta     float64
	Epsilon   float64
	Seed      *int64
	PageSize  int // z.Allocator starting page size; 0 selects a default.
}

const defaultRecordPageSize = 1 << 16

// NewRecordBuilder returns a builder for the given motif shape, with
// the error parameters used only when Build is called with a nil cms.
func NewRecordBuilder(c Case, k int, filterLen uint32, delta, epsilon float64, seed *int64) *RecordBuilder {
	return &RecordBuilder{
		Case: c, K: k, FilterLen: filterLen,
		Delta: delta, Epsilon: epsilon, Seed: seed,
		PageSize: defaultRecordPageSize,
	}
}

// Build implements spec section 4.C steps 3-8 for one batch: check the
// caller-supplied L, allocate the dense tensors from a fresh per-Record arena, fill
// them from seqs (already sorted by position for Convolution by the
// caller, per step 2), compute combs, allocate the selection bitmap,
// and attach cms -- a fresh standalone CMS if cms is nil, or the
// caller's shared one otherwise (spec "CMS standalone or shared").
func (rb *RecordBuilder) Build(seqs []Sequence, l int, cms *CMS) (*Record, error) {
	if l < rb.K {
		return nil, newConfigError("max_active_len L=%d must be >= k=%d", l, rb.K)
	}
	if err := validateCase(seqs, rb.Case, rb.FilterLen); err != nil {
		return nil, err
	}
	for _, s := range seqs {
		if len(s.Features) > l {
			return nil, newInputError("sequence %d has length %d exceeding max_active_len L=%d", s.Key, len(s.Features), l)
		}
	}

	b := len(seqs)
	ownsCMS := false
	if cms == nil {
		var err error
		cms, err = NewCMS(rb.K, rb.Case, rb.Delta, rb.Epsilon, rb.Seed)
		if err != nil {
			return nil, err
		}
		ownsCMS = true
	}

	comb := globalCombCache.Get(rb.K, l, rb.Case)

	pageSize := rb.PageSize
	if pageSize <= 0 {
		pageSize = defaultRecordPageSize
	}
	alloc := z.NewAllocator(pageSize)

	rec := &Record{
		Case:      rb.Case,
		K:         rb.K,
		L:         l,
		FilterLen: rb.FilterLen,
		B:         b,
		Keys:      make([]int64, b),
		comb:      comb,
		cms:       cms,
		ownsCMS:   ownsCMS,
		alloc:     alloc,
		refIDs:    allocUint32(alloc, l*b),
		contrib:   allocFloat32(alloc, l*b),
		positions: allocUint32(alloc, l*b),
		selection: allocUint64(alloc, (comb.M*b+63)/64),
		active:    newActiveKeys(),
	}

	for n, s := range seqs {
		rec.Keys[n] = s.Key
		rec.active.add(s.Key)
		for i, f := range s.Features {
			idx := i*b + n // i is 0-based here; position slot is i+1
			rec.refIDs[idx] = f.ID
			rec.contrib[idx] = f.Contribution
			rec.positions[idx] = f.Position
		}
	}

	return rec, nil
}
