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
	"runtime"
	"sync"
)

// CountPass implements spec section 4.E: for every (combination
// column, sequence) cell of rec that the active Case kernel reports
// valid, increment every row of rec's CMS at the cell's hash. Data
// parallel over combination columns (each worker walks every sequence
// of the columns it takes); the CMS's own atomic counter
// increments (cms.go's Increment) are what make concurrent columns and
// rows safe to run without a per-cell lock, the same way the teacher's
// Metrics shards counters across goroutines instead of taking a mutex
// per update.
func CountPass(rec *Record, workers int, metrics *Metrics) {
	comb := rec.comb
	kernel := kernelFor(rec.Case, rec.FilterLen)
	runPass(rec, workers, func(j int) {
		scratch := newCellScratch(rec.cms.D(), rec.K, false)
		defer scratch.release()
		var counted, rejected uint64
		for n := 0; n < rec.B; n++ {
			if !kernel.valid(rec, comb, j, n, scratch.hashes) {
				rejected++
				continue
			}
			counted++
			for r := range scratch.hashes {
				rec.cms.Increment(r, scratch.hashes[r])
			}
		}
		metrics.add(cellsCounted, j, counted)
		metrics.add(cellsRejected, j, rejected)
	})
}

// runPass fans a per-column unit of work out across workers goroutines,
// each owning a disjoint slice of combination columns, and blocks until
// all have finished -- a sync barrier between passes as spec section 5
// requires, sized the way the teacher's own processItems loop sizes
// its goroutine pool off runtime.GOMAXPROCS when the caller leaves
// workers <= 0.
func runPass(rec *Record, workers int, do func(j int)) {
	m := rec.comb.M
	if m == 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > m {
		workers = m
	}

	var wg sync.WaitGroup
	chunk := (m + workers - 1) / workers
	for start := 0; start < m; start += chunk {
		end := start + chunk
		if end > m {
			end = m
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for j := start; j < end; j++ {
				do(j)
			}
		}(start, end)
	}
	wg.Wait()
}
