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
	"encoding/binary"
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// CMS is a probabilistic counting data structure: d independent hash
// rows of w counters each, plus a d x H matrix of hash coefficients
// (spec section 3, "CMS" and section 4.A).
//
// Unlike the teacher's cmSketch (a single 4-bit-packed row sized for
// cache admission), this CMS keeps d full 32-bit rows because the
// spec requires taking a true min-over-rows estimate (the "single-row"
// shortcut is the documented bug in spec section 9).
type CMS struct {
	d, w int
	h    int // width of one coefficient row: k (Ordinary) or 2k-1 (Convolution).

	// counters is laid out row-major: counters[r*w+c].
	counters []uint32
	// coeffs is laid out row-major: coeffs[r*h+e].
	coeffs []int64
}

// NewCMS builds a CMS sized from error parameters (delta, epsilon) per
// spec section 3: d = ceil(ln(1/delta)), w = ceil(e/epsilon). seed, if
// non-nil, makes hash_coeffs generation deterministic.
func NewCMS(k int, c Case, delta, epsilon float64, seed *int64) (*CMS, error) {
	if delta <= 0 || delta >= 1 {
		return nil, newConfigError("delta must be in (0,1), got %v", delta)
	}
	if epsilon <= 0 || epsilon >= 1 {
		return nil, newConfigError("epsilon must be in (0,1), got %v", epsilon)
	}
	if k <= 0 {
		return nil, newConfigError("k must be >= 1, got %d", k)
	}

	d := int(math.Ceil(math.Log(1 / delta)))
	if d < 1 {
		d = 1
	}
	w := int(math.Ceil(math.E / epsilon))
	if w < 1 {
		w = 1
	}

	h := k
	if c == Convolution {
		h = 2*k - 1
	}

	cms := &CMS{
		d:        d,
		w:        w,
		h:        h,
		counters: make([]uint32, d*w),
		coeffs:   make([]int64, d*h),
	}
	cms.fillCoeffs(seed)
	return cms, nil
}

// fillCoeffs draws hash_coeffs uniformly from [1, d*w-1], seeded
// deterministically. The seed is expanded into a rand.Source using
// xxhash rather than handed to rand.New directly; a nil seed hashes a
// fixed default string instead, so unseeded sketches are still
// reproducible -- mirrors the role xxhash plays in the teacher's own
// cache_bench_test.go key hashing.
func (c *CMS) fillCoeffs(seed *int64) {
	var s int64
	if seed != nil {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(*seed))
		s = int64(xxhash.Sum64(buf[:]))
	} else {
		s = int64(xxhash.Sum64([]byte("motif-cms-default-seed")))
	}
	rng := rand.New(rand.NewSource(s))

	n := int64(c.d) * int64(c.w)
	hi := n - 1
	if hi < 1 {
		hi = 1
	}
	for i := range c.coeffs {
		c.coeffs[i] = 1 + rng.Int63n(hi)
	}
}

// D returns the number of hash rows.
func (c *CMS) D() int { return c.d }

// W returns the number of counters per row.
func (c *CMS) W() int { return c.w }

// H returns the width of one coefficient row.
func (c *CMS) H() int { return c.h }

// Coeff returns hash_coeffs[r][e] (0-based).
func (c *CMS) Coeff(r, e int) int64 { return c.coeffs[r*c.h+e] }

// fold maps a raw signed hash value to a 0-based column index via the
// legacy double modulus described in spec section 4.A: the reference
// implementation computes ((h mod N) mod w), N = d*w, in 1-based
// terms; this keeps the same two-step folding in 0-based terms. Do
// not simplify this to a single "mod w" -- see spec section 9.
func (c *CMS) fold(h int64) int {
	n := int64(c.d) * int64(c.w)
	m := h % n
	if m < 0 {
		m += n
	}
	col := m % int64(c.w)
	if col < 0 {
		col += int64(c.w)
	}
	return int(col)
}

// Increment atomically increments counters[r][fold(h)].
func (c *CMS) Increment(r int, h int64) {
	col := c.fold(h)
	atomic.AddUint32(&c.counters[r*c.w+col], 1)
}

// Peek reads counters[r][fold(h)].
func (c *CMS) Peek(r int, h int64) uint32 {
	col := c.fold(h)
	return atomic.LoadUint32(&c.counters[r*c.w+col])
}

// Estimate returns the Count-Min estimate for a hash value computed
// once per row by the caller: min over r of counters[r][fold(h_r)].
// CountPass and SelectPass each compute their own per-row hash (the
// Convolution hash additionally depends on gaps that are cheaper to
// fold into a single int64 per row than to recompute from scratch),
// so this takes a slice of per-row hashes rather than recomputing them.
func (c *CMS) Estimate(hashPerRow []int64) uint32 {
	min := uint32(math.MaxUint32)
	for r, h := range hashPerRow {
		if v := c.Peek(r, h); v < min {
			min = v
		}
	}
	return min
}
