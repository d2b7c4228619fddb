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

// Package motif discovers enriched k-element motifs across a corpus of
// short variable-length sequences, using a Count-Min Sketch so the
// engine never has to materialize the full O(n*C(L,k)) frequency table.
package motif

import "sort"

// Case selects which of the two motif variants a Record (and the
// Features feeding it) are interpreted as.
type Case int

const (
	// Ordinary motifs are unordered k-tuples of feature ids.
	Ordinary Case = iota
	// Convolution motifs are ordered k-tuples of filter ids paired with
	// the inter-element position gaps between them.
	Convolution
)

func (c Case) String() string {
	switch c {
	case Ordinary:
		return "ordinary"
	case Convolution:
		return "convolution"
	default:
		return "unknown"
	}
}

// Feature is one element of an input sequence. ID is the feature id in
// the Ordinary case and the filter id in the Convolution case.
// Position is only meaningful (and only required to be set) for
// Convolution; it is ignored otherwise. Feature ids must be strictly
// positive: zero is reserved internally to mark an absent slot in a
// zero-padded batch row (spec "Padding-vs-real-feature collision").
type Feature struct {
	ID           uint32
	Contribution float32
	Position     uint32
}

// Sequence is one caller-keyed row of the input map: an ordered list of
// Features belonging to a single external sequence id.
type Sequence struct {
	Key      int64
	Features []Feature
}

// InputMap is the finite mapping from an integer sequence identifier to
// an ordered sequence of Features (spec section 3, "Input map").
type InputMap map[int64][]Feature

// sortedSequences returns the retained (non-empty) sequences of m,
// ordered by ascending key so that batch construction is deterministic
// given identical input and does not depend on Go's randomized map
// iteration order.
func (m InputMap) sortedSequences() []Sequence {
	out := make([]Sequence, 0, len(m))
	for k, feats := range m {
		if len(feats) == 0 {
			continue
		}
		out = append(out, Sequence{Key: k, Features: feats})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// validateCase checks seqs against the case the caller declares in
// want: Convolution needs a non-zero filterLen, and every feature ID
// must be non-zero. The case is not inferred from the sequences: a
// zero Position on every feature does not by itself tell Ordinary from
// Convolution with ℓ=0 gaps, and Feature carries both fields, so
// nothing distinguishes an Ordinary Feature from a Convolution one
// structurally.
func validateCase(seqs []Sequence, want Case, filterLen uint32) error {
	if want == Convolution && filterLen == 0 {
		return newConfigError("filter_len must be > 0 for Convolution case")
	}
	for _, s := range seqs {
		for _, f := range s.Features {
			if f.ID == 0 {
				return newConfigError("feature id 0 is reserved for padding; ids must be positive")
			}
		}
	}
	return nil
}

// sortByPosition sorts a Convolution sequence's features by ascending
// position in place (spec 4.C step 2). Ties are allowed.
func sortByPosition(feats []Feature) {
	sort.SliceStable(feats, func(i, j int) bool {
		return feats[i].Position < feats[j].Position
	})
}
