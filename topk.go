/*
 * Copyright 2020 Dgraph Labs, Inc. and Contributors
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

// rowCount is the MinHeap element TopK ranks emitted Rows by: the Row
// itself plus its Count, so the heap's comparison never has to look
// back through the Row's variable-length Ids/Gaps slices.
type rowCount struct {
	Row   Row
	Count uint32
}

func (c rowCount) Less(other *rowCount) bool {
	return c.Count < other.Count
}

// TopK returns the k emitted Rows with the highest CMS count estimate,
// breaking no particular tie order. Built on MinHeap (min_heap.go): a
// bounded min-heap of size k is the standard way to stream an unknown
// number of scored items down to the top k without sorting all of
// them, the same shape the teacher's policy code uses a small
// admission heap to decide what stays in a fixed-size cache.
func TopK(rows []Row, k int) []Row {
	if k <= 0 || len(rows) == 0 {
		return nil
	}
	h := NewMinHeap[rowCount]()
	for _, r := range rows {
		if h.Size() < k {
			rc := rowCount{Row: r, Count: r.Count}
			h.Insert(&rc)
			continue
		}
		if min, ok := h.Peek(); ok && r.Count > min.Count {
			h.Extract()
			rc := rowCount{Row: r, Count: r.Count}
			h.Insert(&rc)
		}
	}

	out := make([]Row, 0, h.Size())
	for {
		item, ok := h.Extract()
		if !ok {
			break
		}
		out = append(out, item.Row)
	}
	// out is currently ascending by Count (min-heap extraction order);
	// reverse it so callers see the highest count first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
