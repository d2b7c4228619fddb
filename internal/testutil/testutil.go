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

// Package testutil holds helpers shared by the motif package's tests:
// a stable fingerprint for building reproducible random sequences, and
// a brute-force ground-truth motif counter to check the CMS-backed
// engine's output against for the property tests spec section 8 asks
// for (no-underestimation, valid-combinations-only, determinism).
package testutil

import (
	"encoding/binary"

	"github.com/dgryski/go-farm"
)

// Fingerprint derives a deterministic uint64 from seed and salt, used
// to generate reproducible pseudo-random test fixtures without pulling
// in math/rand's own seeding rules. Grounded on the teacher's own use
// of farm.Fingerprint64 over a byte buffer in z/rtutil_test.go.
func Fingerprint(seed int64, salt string) uint64 {
	buf := make([]byte, 8+len(salt))
	binary.LittleEndian.PutUint64(buf, uint64(seed))
	copy(buf[8:], salt)
	return farm.Fingerprint64(buf)
}

// Feature is a bare, package-independent description of one sequence
// element, mirroring motif.Feature's fields without importing the
// motif package (avoids an import cycle from motif's own tests).
type Feature struct {
	ID           uint32
	Contribution float32
	Position     uint32
}

// Sequence is a bare (Key, Features) pair, mirroring motif.Sequence.
type Sequence struct {
	Key      int64
	Features []Feature
}

// OrdinaryTruth is one ground-truth row for the Ordinary case: an
// unordered k-tuple of feature ids (kept in ascending id order so two
// occurrences of the same multiset compare equal), its true count
// across the corpus, and the summed contribution of its last-seen
// occurrence (matching ExtractPass, which re-derives contribution from
// the same cell that produced the emitted count rather than
// accumulating it across occurrences).
type OrdinaryTruth struct {
	Key          int64
	Ids          []uint32
	Count        uint32
	Contribution float32
}

// BruteForceOrdinary enumerates every k-subset of every sequence's
// positional axis directly (no CMS, no hashing), tallies exact
// occurrence counts per unordered id-tuple across the whole corpus,
// and returns one row per (key, unordered id-tuple) whose corpus count
// reaches minCount -- the reference
// CountPass/SelectPass/ExtractPass is checked against. l is the global
// max sequence length Records in the engine would have been built
// against; sequences shorter than l are treated as zero-padded, same
// as Record's tensor layout, so positions beyond a sequence's own
// length never contribute a combination.
func BruteForceOrdinary(seqs []Sequence, k int, minCount uint32) []OrdinaryTruth {
	type key struct {
		seqKey int64
		ids    [8]uint32 // k is always small in these tests; 8 is headroom.
		klen   int
	}
	counts := make(map[key]uint32)
	contribs := make(map[key]float32)
	order := make([]key, 0)

	var combIdx func(n, k int) [][]int
	combIdx = memoCombIdx

	for _, s := range seqs {
		n := len(s.Features)
		if n < k {
			continue
		}
		for _, idx := range combIdx(n, k) {
			ids := make([]uint32, k)
			var contrib float32
			zero := false
			for e, i := range idx {
				f := s.Features[i]
				if f.ID == 0 {
					zero = true
					break
				}
				ids[e] = f.ID
				contrib += f.Contribution
			}
			if zero {
				continue
			}
			sortUint32(ids)
			// counts is keyed on the id tuple alone (seqKey left zero);
			// contribs and order are keyed per (sequence key, id tuple).
			var kk key
			kk.klen = k
			copy(kk.ids[:], ids)
			counts[kk]++
			kk.seqKey = s.Key
			if _, ok := contribs[kk]; !ok {
				order = append(order, kk)
			}
			contribs[kk] = contrib
		}
	}

	out := make([]OrdinaryTruth, 0, len(order))
	for _, kk := range order {
		c := counts[key{ids: kk.ids, klen: kk.klen}]
		if c < minCount {
			continue
		}
		out = append(out, OrdinaryTruth{
			Key:          kk.seqKey,
			Ids:          append([]uint32(nil), kk.ids[:kk.klen]...),
			Count:        c,
			Contribution: contribs[kk],
		})
	}
	return out
}

// ConvolutionTruth is one ground-truth row for the Convolution case:
// an ordered k-tuple of filter ids with the k-1 inter-element position
// gaps between them, the start/end span of its last-seen occurrence
// (start = the first element's position, end = the last element's
// position + filterLen - 1, mirroring Row's Start/End), its true
// count, and its last-seen contribution.
type ConvolutionTruth struct {
	Key          int64
	Ids          []uint32
	Gaps         []uint32
	Start        uint32
	End          uint32
	Count        uint32
	Contribution float32
}

// BruteForceConvolution is BruteForceOrdinary's Convolution analogue:
// it walks every k-subset of a sequence's positional axis in
// increasing-position order, rejects any subset whose consecutive
// elements overlap under filterLen (position[i+1] < position[i] +
// filterLen), and tallies exact counts per (key, ordered id-tuple,
// gap-tuple).
func BruteForceConvolution(seqs []Sequence, k int, filterLen uint32, minCount uint32) []ConvolutionTruth {
	type key struct {
		seqKey int64
		ids    [8]uint32
		gaps   [8]uint32
		klen   int
	}
	counts := make(map[key]uint32)
	contribs := make(map[key]float32)
	starts := make(map[key]uint32)
	ends := make(map[key]uint32)
	order := make([]key, 0)

	for _, s := range seqs {
		n := len(s.Features)
		if n < k {
			continue
		}
		for _, idx := range memoCombIdx(n, k) {
			var ids [8]uint32
			var gaps [8]uint32
			var contrib float32
			ok := true
			firstPos := uint32(0)
			lastPos := uint32(0)
			for e, i := range idx {
				f := s.Features[i]
				if f.ID == 0 {
					ok = false
					break
				}
				if e == 0 {
					firstPos = f.Position
				}
				if e > 0 {
					if f.Position < lastPos+filterLen {
						ok = false
						break
					}
					gaps[e-1] = f.Position - lastPos - filterLen
				}
				ids[e] = f.ID
				contrib += f.Contribution
				lastPos = f.Position
			}
			if !ok {
				continue
			}
			var kk key
			kk.seqKey = s.Key
			kk.klen = k
			copy(kk.ids[:], ids[:])
			copy(kk.gaps[:], gaps[:])
			if _, seen := counts[kk]; !seen {
				order = append(order, kk)
			}
			counts[kk]++
			contribs[kk] = contrib
			starts[kk] = firstPos
			ends[kk] = lastPos + filterLen - 1
		}
	}

	out := make([]ConvolutionTruth, 0, len(order))
	for _, kk := range order {
		c := counts[kk]
		if c < minCount {
			continue
		}
		out = append(out, ConvolutionTruth{
			Key:          kk.seqKey,
			Ids:          append([]uint32(nil), kk.ids[:kk.klen]...),
			Gaps:         append([]uint32(nil), kk.gaps[:kk.klen-1]...),
			Start:        starts[kk],
			End:          ends[kk],
			Count:        c,
			Contribution: contribs[kk],
		})
	}
	return out
}

func sortUint32(ids []uint32) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// memoCombIdx enumerates every k-subset of {0..n-1} in lexicographic
// order as 0-based index tuples, independent of the motif package's
// own Combinations (kept deliberately separate so a bug in one can't
// mask the same bug in the other).
func memoCombIdx(n, k int) [][]int {
	if k <= 0 || n < k {
		return nil
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	var out [][]int
	for {
		col := make([]int, k)
		copy(col, idx)
		out = append(out, col)

		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			break
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
	return out
}
