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

// ExtractPass implements spec section 4.G: for every cell SelectPass
// marked selected, re-derive the motif's ids (and, for Convolution,
// gaps plus the start/end span), recompute the CMS estimate one last
// time for the emitted count, sum the selected elements'
// contributions, and append a Row to stream. Must run strictly after
// SelectPass on the same Record, same barrier discipline as
// CountPass -> SelectPass.
func ExtractPass(rec *Record, stream *RowStream, workers int, metrics *Metrics) {
	comb := rec.comb
	kernel := kernelFor(rec.Case, rec.FilterLen)
	runPass(rec, workers, func(j int) {
		scratch := newCellScratch(rec.cms.D(), rec.K, true)
		defer scratch.release()
		var emitted uint64
		for n := 0; n < rec.B; n++ {
			if !rec.IsSelected(j, n) {
				continue
			}
			if !kernel.describe(rec, comb, j, n, scratch.ids, scratch.gaps) {
				continue
			}
			if !kernel.valid(rec, comb, j, n, scratch.hashes) {
				continue
			}
			count := rec.cms.Estimate(scratch.hashes)

			var contrib float32
			for e := 0; e < comb.K; e++ {
				contrib += rec.contribAt(n, comb.At(j, e))
			}

			var start, end uint32
			if rec.Case == Convolution {
				start = rec.positionAt(n, comb.At(j, 0))
				end = rec.positionAt(n, comb.At(j, comb.K-1)) + rec.FilterLen - 1
			}

			stream.Append(Row{
				Key:          rec.Keys[n],
				Ids:          scratch.ids,
				Gaps:         scratch.gaps,
				Start:        start,
				End:          end,
				Count:        count,
				Contribution: contrib,
			})
			emitted++
		}
		metrics.add(rowsEmitted, j, emitted)
	})
}
