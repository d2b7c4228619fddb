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

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/epicsketch/motif/z"
)

// Row is one emitted motif occurrence (spec section 4.G): the external
// sequence id it came from, the k feature/filter ids in combination
// order, the k-1 inter-element gaps plus the Start/End span (spec
// section 6's Row schema; Convolution only, zero-valued otherwise),
// the CMS's count estimate for the cell, and the summed contribution
// of the selected elements. Start is the first element's position and
// End is the last element's position plus filter_len-1, so the span
// covers every filter window the motif occupies.
type Row struct {
	Key          int64
	Ids          []uint32
	Gaps         []uint32
	Start        uint32
	End          uint32
	Count        uint32
	Contribution float32
}

// RowStream accumulates Rows emitted by concurrent ExtractPass workers
// into one length-prefixed binary buffer, the same SliceAllocate-many-
// small-records-into-one-big-buffer pattern the teacher's z.Buffer
// doc comment describes, rather than a slice of Row values: Append
// encodes each Row straight into the one shared buffer under the
// stream's mutex, and Rows decodes them on read.
type RowStream struct {
	mu     sync.Mutex
	buf    *z.Buffer
	k      int
	hasGap bool
}

// NewRowStream returns an empty stream sized for motifs of k elements;
// hasGap selects the Convolution wire layout (extra k-1 gap words).
func NewRowStream(k int, hasGap bool) *RowStream {
	return &RowStream{
		buf:    z.NewBuffer(1 << 16),
		k:      k,
		hasGap: hasGap,
	}
}

// rowSize is the encoded byte length of one Row: key + k ids + (k-1)
// gaps + start + end when hasGap + count + contribution.
func (s *RowStream) rowSize() int {
	sz := 8 + s.k*4 + 4 + 4
	if s.hasGap {
		sz += (s.k-1)*4 + 4 + 4
	}
	return sz
}

// Append encodes row and appends it to the stream. Safe for concurrent
// callers, matching ExtractPass's data-parallel-over-columns model.
func (s *RowStream) Append(row Row) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := s.buf.SliceAllocate(s.rowSize())
	off := 0
	binary.BigEndian.PutUint64(buf[off:], uint64(row.Key))
	off += 8
	for _, id := range row.Ids {
		binary.BigEndian.PutUint32(buf[off:], id)
		off += 4
	}
	if s.hasGap {
		for _, g := range row.Gaps {
			binary.BigEndian.PutUint32(buf[off:], g)
			off += 4
		}
		binary.BigEndian.PutUint32(buf[off:], row.Start)
		off += 4
		binary.BigEndian.PutUint32(buf[off:], row.End)
		off += 4
	}
	binary.BigEndian.PutUint32(buf[off:], row.Count)
	off += 4
	binary.BigEndian.PutUint32(buf[off:], math.Float32bits(row.Contribution))
}

// Len returns the number of rows appended so far.
func (s *RowStream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.len()
}

func (s *RowStream) len() int {
	if s.buf.IsEmpty() {
		return 0
	}
	n := 0
	for off := 1; off != 0; {
		_, next := s.buf.Slice(off)
		n++
		off = next
	}
	return n
}

// Rows decodes every accumulated Row, in append order.
func (s *RowStream) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Row, 0, s.len())
	if s.buf.IsEmpty() {
		return out
	}
	for off := 1; off != 0; {
		raw, next := s.buf.Slice(off)
		out = append(out, s.decode(raw))
		off = next
	}
	return out
}

func (s *RowStream) decode(raw []byte) Row {
	off := 0
	key := int64(binary.BigEndian.Uint64(raw[off:]))
	off += 8
	ids := make([]uint32, s.k)
	for e := range ids {
		ids[e] = binary.BigEndian.Uint32(raw[off:])
		off += 4
	}
	var gaps []uint32
	var start, end uint32
	if s.hasGap {
		gaps = make([]uint32, s.k-1)
		for e := range gaps {
			gaps[e] = binary.BigEndian.Uint32(raw[off:])
			off += 4
		}
		start = binary.BigEndian.Uint32(raw[off:])
		off += 4
		end = binary.BigEndian.Uint32(raw[off:])
		off += 4
	}
	count := binary.BigEndian.Uint32(raw[off:])
	off += 4
	contrib := math.Float32frombits(binary.BigEndian.Uint32(raw[off:]))
	return Row{Key: key, Ids: ids, Gaps: gaps, Start: start, End: end, Count: count, Contribution: contrib}
}

// Release frees the stream's backing buffer.
func (s *RowStream) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.buf.Release()
}
