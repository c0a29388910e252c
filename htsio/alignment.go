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

package htsio

import (
	"fmt"
	"os"

	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/bgzf/index"
	"github.com/grailbio/hts/sam"
	"github.com/tandemgeno/trgeno/refio"
)

// alignmentSource is an indexed BAM reader implementing
// refio.AlignmentSource. It is not safe for concurrent Fetch calls;
// each worker opens its own.
type alignmentSource struct {
	f      *os.File
	reader *bam.Reader
	header *sam.Header
	index  *bam.Index
}

// OpenAlignmentSource opens the BAM at path with the BAI index at
// indexPath ("" defaults to path+".bai").
func OpenAlignmentSource(path, indexPath string) (refio.AlignmentSource, error) {
	if indexPath == "" {
		indexPath = path + ".bai"
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("htsio: opening bam %s: %w", path, err)
	}
	reader, err := bam.NewReader(f, 1)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("htsio: reading bam header of %s: %w", path, err)
	}
	idxFile, err := os.Open(indexPath)
	if err != nil {
		reader.Close()
		f.Close()
		return nil, fmt.Errorf("htsio: opening bam index %s: %w", indexPath, err)
	}
	idx, err := bam.ReadIndex(idxFile)
	idxFile.Close()
	if err != nil {
		reader.Close()
		f.Close()
		return nil, fmt.Errorf("htsio: parsing bam index %s: %w", indexPath, err)
	}
	return &alignmentSource{f: f, reader: reader, header: reader.Header(), index: idx}, nil
}

// Close releases the BAM reader and file. Not part of
// refio.AlignmentSource (the interface is read-only); orchestrate
// type-asserts for it when tearing a worker down.
func (a *alignmentSource) Close() error {
	err := a.reader.Close()
	if cerr := a.f.Close(); err == nil {
		err = cerr
	}
	return err
}

func (a *alignmentSource) Fetch(contig string, start, end int) ([]refio.AlignedRecord, error) {
	var ref *sam.Reference
	for _, r := range a.header.Refs() {
		if r.Name() == contig {
			ref = r
			break
		}
	}
	if ref == nil {
		return nil, fmt.Errorf("htsio: unknown contig %q", contig)
	}

	chunks, err := a.index.Chunks(ref, start, end)
	if err == index.ErrInvalid {
		// No reads on this reference.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("htsio: index lookup %s:%d-%d: %w", contig, start, end, err)
	}

	it, err := bam.NewIterator(a.reader, chunks)
	if err != nil {
		return nil, fmt.Errorf("htsio: iterating %s:%d-%d: %w", contig, start, end, err)
	}
	var out []refio.AlignedRecord
	for it.Next() {
		rec := it.Record()
		if rec.Start() < end && rec.End() > start {
			out = append(out, &record{rec: rec})
		}
	}
	if err := it.Close(); err != nil {
		return nil, fmt.Errorf("htsio: scanning %s:%d-%d: %w", contig, start, end, err)
	}
	return out, nil
}

// record adapts a *sam.Record to refio.AlignedRecord.
type record struct {
	rec *sam.Record
}

func (r *record) Name() string { return r.rec.Name }

func (r *record) Sequence() string { return string(r.rec.Seq.Expand()) }

// AlignedLength returns the number of query bases the CIGAR aligns,
// excluding soft and hard clips.
func (r *record) AlignedLength() int {
	var n int
	for _, op := range r.rec.Cigar {
		switch op.Type() {
		case sam.CigarMatch, sam.CigarInsertion, sam.CigarEqual, sam.CigarMismatch:
			n += op.Len()
		}
	}
	return n
}

func (r *record) IsPrimary() bool {
	const exclude = sam.Secondary | sam.Supplementary | sam.Unmapped
	return r.rec.Flags&exclude == 0
}

// AlignedPairs walks the CIGAR and returns match-only (read index,
// reference index) pairs. CIGAR operations are emitted in reference
// order, so the pairs come out sorted by reference index.
func (r *record) AlignedPairs() []refio.Pair {
	var pairs []refio.Pair
	posInRef := r.rec.Pos
	posInRead := 0
	for _, op := range r.rec.Cigar {
		n := op.Len()
		switch op.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			for i := 0; i < n; i++ {
				pairs = append(pairs, refio.Pair{ReadIndex: posInRead + i, RefIndex: posInRef + i})
			}
			posInRef += n
			posInRead += n
		case sam.CigarInsertion, sam.CigarSoftClipped:
			posInRead += n
		case sam.CigarDeletion, sam.CigarSkipped:
			posInRef += n
		case sam.CigarHardClipped, sam.CigarPadded:
			// consume neither coordinate
		}
	}
	return pairs
}
