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

// SelectPass implements spec section 4.F: for every (combination
// column, sequence) cell that the kernel reports valid, re-derive the
// same per-row hashes CountPass used, take the CMS's min-over-rows
// estimate, and mark the cell selected in rec's bitmap when the
// estimate meets minCount. Must run strictly after CountPass has
// finished on the very same Record instance (spec's "same-Record-
// instance sequencing"): SelectPass never mutates counters, only reads
// them, so it is safe to run concurrently with itself but never
// concurrently with CountPass.
func SelectPass(rec *Record, minCount uint32, workers int, metrics *Metrics) {
	comb := rec.comb
	kernel := kernelFor(rec.Case, rec.FilterLen)
	runPass(rec, workers, func(j int) {
		scratch := newCellScratch(rec.cms.D(), rec.K, false)
		defer scratch.release()
		var selected uint64
		for n := 0; n < rec.B; n++ {
			if !kernel.valid(rec, comb, j, n, scratch.hashes) {
				continue
			}
			if rec.cms.Estimate(scratch.hashes) >= minCount {
				rec.SetSelected(j, n)
				selected++
			}
		}
		metrics.add(cellsSelected, j, selected)
	})
}
