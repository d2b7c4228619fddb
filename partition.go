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

// lengthToBucket maps a sequence length to its length bucket, the same
// div-by-window shape as the teacher's ttl.go timeToBucket (there
// dividing a Unix second by bucketSize; here dividing a sequence
// length by the configured window), anchored at lMin so buckets run
// [lMin, lMin+window-1], [lMin+window, lMin+2*window-1], ... rather
// than anchoring at the arbitrary origin 0.
func lengthToBucket(length, lMin, window int) int {
	return (length - lMin) / window
}

// lengthBucketMap groups sequences into length buckets, preserving
// first-seen bucket order so partition processing is deterministic
// given identical input. Adapted from the teacher's bucketMap +
// expirationMap pair (ttl.go): there, map[int]bucketMap holds
// per-time-bucket key/conflict pairs under a single mutex; here, one
// lengthBucketMap is built once up front from an already-sorted
// sequence list, so no locking is needed.
type lengthBucketMap struct {
	window  int
	lMin    int
	buckets map[int][]Sequence
	order   []int
}

func newLengthBucketMap(window, lMin int) *lengthBucketMap {
	if window <= 0 {
		window = 1
	}
	return &lengthBucketMap{window: window, lMin: lMin, buckets: make(map[int][]Sequence)}
}

func (m *lengthBucketMap) add(s Sequence) {
	b := lengthToBucket(len(s.Features), m.lMin, m.window)
	if _, ok := m.buckets[b]; !ok {
		m.order = append(m.order, b)
	}
	m.buckets[b] = append(m.buckets[b], s)
}

// lengthPartition is one length-bucket produced by partitionByLength:
// every sequence in seqs maps to the same length bucket, and l is the
// longest of them (the maxActiveLen a Record built from seqs needs).
type lengthPartition struct {
	l    int
	seqs []Sequence
}

// partitionByLength implements spec section 4.H's length-bucketing:
// group seqs (already key-sorted by the caller) into buckets of width
// window anchored at the shortest retained sequence's length, in
// first-seen order.
func partitionByLength(seqs []Sequence, window int) []lengthPartition {
	lMin := 0
	for i, s := range seqs {
		if i == 0 || len(s.Features) < lMin {
			lMin = len(s.Features)
		}
	}

	m := newLengthBucketMap(window, lMin)
	for _, s := range seqs {
		m.add(s)
	}

	out := make([]lengthPartition, 0, len(m.order))
	for _, b := range m.order {
		bs := m.buckets[b]
		maxL := 0
		for _, s := range bs {
			if len(s.Features) > maxL {
				maxL = len(s.Features)
			}
		}
		out = append(out, lengthPartition{l: maxL, seqs: bs})
	}
	return out
}
