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

// caseKernel is the interface dispatched once per pass, not once per
// cell, so the hot loops in count_pass.go/select_pass.go never branch
// on Case internally (spec's design note "Polymorphic pass behaviour
// by case"). Adapted from the teacher's Policy interface in
// policy.go, which dispatches eviction behaviour the same way: one
// concrete implementation selected once at Cache construction, not
// re-dispatched per key.
//
// valid and describe both take caller-owned scratch slices (hashesOut
// sized D, idsOut sized K, gapsOut sized K-1) rather than allocating
// their own, so a goroutine walking many cells in count_pass.go,
// select_pass.go, and extract_pass.go can reuse one set of buffers --
// typically backed by the Arena in arena.go -- across the whole loop.
type caseKernel interface {
	// valid reports whether the combination at column j is usable for
	// sequence n, and if so fills hashesOut with the per-hash-row hash
	// values (one per CMS row) used by both CountPass and SelectPass.
	valid(rec *Record, comb *Combinations, j, n int, hashesOut []int64) bool
	// rowWidth returns H: k for Ordinary, 2k-1 for Convolution.
	rowWidth(k int) int
	// describe fills idsOut (and, for Convolution, gapsOut) with the
	// motif's content for ExtractPass. ok matches what valid would
	// report for the same (j, n).
	describe(rec *Record, comb *Combinations, j, n int, idsOut, gapsOut []uint32) bool
}

// ordinaryKernel implements spec section 4.E/4.F's Ordinary hash:
// h = sum_e ref[C[e,j], filter_col, n] * coeff[r, e].
type ordinaryKernel struct{}

func (ordinaryKernel) rowWidth(k int) int { return k }

func (ordinaryKernel) valid(rec *Record, comb *Combinations, j, n int, hashesOut []int64) bool {
	k := comb.K
	for r := range hashesOut {
		hashesOut[r] = 0
	}
	for e := 0; e < k; e++ {
		i := comb.At(j, e) // 1-based positional slot
		id := rec.filterAt(n, i)
		if id == 0 {
			return false
		}
		for r := range hashesOut {
			hashesOut[r] += int64(id) * rec.cms.Coeff(r, e)
		}
	}
	return true
}

func (ordinaryKernel) describe(rec *Record, comb *Combinations, j, n int, idsOut, _ []uint32) bool {
	k := comb.K
	for e := 0; e < k; e++ {
		i := comb.At(j, e)
		id := rec.filterAt(n, i)
		if id == 0 {
			return false
		}
		idsOut[e] = id
	}
	return true
}

// convolutionKernel implements spec section 4.E/4.F's Convolution
// hash, including the overlap-rejection rule on gaps.
type convolutionKernel struct {
	filterLen uint32
}

func (convolutionKernel) rowWidth(k int) int { return 2*k - 1 }

func (ck convolutionKernel) valid(rec *Record, comb *Combinations, j, n int, hashesOut []int64) bool {
	k := comb.K
	for r := range hashesOut {
		hashesOut[r] = 0
	}
	var lastPos uint32
	for e := 0; e < k; e++ {
		i := comb.At(j, e)
		id := rec.filterAt(n, i)
		if id == 0 {
			return false
		}
		pos := rec.positionAt(n, i)
		if e > 0 {
			if pos < lastPos+ck.filterLen {
				return false
			}
			gap := pos - lastPos - ck.filterLen
			for r := range hashesOut {
				hashesOut[r] += int64(gap) * rec.cms.Coeff(r, 2*e-1)
			}
		}
		for r := range hashesOut {
			hashesOut[r] += int64(id) * rec.cms.Coeff(r, 2*e)
		}
		lastPos = pos
	}
	return true
}

func (ck convolutionKernel) describe(rec *Record, comb *Combinations, j, n int, idsOut, gapsOut []uint32) bool {
	k := comb.K
	var lastPos uint32
	for e := 0; e < k; e++ {
		i := comb.At(j, e)
		id := rec.filterAt(n, i)
		if id == 0 {
			return false
		}
		pos := rec.positionAt(n, i)
		if e > 0 {
			if pos < lastPos+ck.filterLen {
				return false
			}
			gapsOut[e-1] = pos - lastPos - ck.filterLen
		}
		idsOut[e] = id
		lastPos = pos
	}
	return true
}

// kernelFor dispatches once per Record (spec's "not per-cell").
func kernelFor(c Case, filterLen uint32) caseKernel {
	if c == Convolution {
		return convolutionKernel{filterLen: filterLen}
	}
	return ordinaryKernel{}
}
