// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package refio declares the narrow collaborator interfaces the caller
// core needs from a reference genome and an aligned-reads source.
// Package htsio provides the concrete implementations used in
// production; tests substitute fakes directly against these interfaces.
package refio

// Reference is a random-access-indexed FASTA, queried by contig and
// 0-based half-open coordinates.
type Reference interface {
	// Fetch returns the uppercase ACGTN bases in [start, end) on contig.
	Fetch(contig string, start, end int) (string, error)
	// Length returns the size of contig, or an error if contig is
	// unknown.
	Length(contig string) (int, error)
}

// Pair is one entry of a read's match-only aligned pairs: a read-query
// index paired with the reference index it aligns to.
type Pair struct {
	ReadIndex int
	RefIndex  int
}

// AlignedRecord is one aligned read (or the primary alignment of a read
// pair's first-seen mate) overlapping a queried region.
type AlignedRecord interface {
	// Name returns the read's query name.
	Name() string
	// Sequence returns the read's query bases in the orientation stored
	// in the alignment record (reference-forward), the orientation that
	// AlignedPairs' ReadIndex values index into.
	Sequence() string
	// AlignedLength returns the number of query bases the read's CIGAR
	// aligns, excluding soft and hard clips.
	AlignedLength() int
	// AlignedPairs returns the (read_index, reference_index) pairs for
	// CIGAR match operations only, sorted by reference_index ascending.
	AlignedPairs() []Pair
	// IsPrimary reports whether this is a primary alignment (not
	// secondary or supplementary); only primary records are pooled.
	IsPrimary() bool
}

// AlignmentSource is a random-access-indexed aligned-reads file.
type AlignmentSource interface {
	// Fetch returns the records overlapping [start, end) on contig.
	Fetch(contig string, start, end int) ([]AlignedRecord, error)
}
