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

// Package htsio implements the refio.Reference and refio.AlignmentSource
// interfaces over an indexed FASTA and an indexed BAM, backed by
// github.com/grailbio/hts. This package is the only place in the module
// that touches on-disk alignment or reference formats.
package htsio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tandemgeno/trgeno/refio"
)

// faiEntry is one line of a samtools-faidx index: sequence length, byte
// offset of the first base, bases per line, and bytes per line
// (including the newline).
type faiEntry struct {
	length    int
	offset    int64
	lineBases int
	lineWidth int
}

// reference is a random-access indexed FASTA implementing
// refio.Reference. Fetches read straight from the file; nothing is
// cached, since flank-sized fetches are small and each worker owns its
// own handle.
type reference struct {
	f    *os.File
	seqs map[string]faiEntry
}

// OpenReference opens the FASTA at fastaPath using the faidx index at
// indexPath ("" defaults to fastaPath+".fai").
func OpenReference(fastaPath, indexPath string) (refio.Reference, error) {
	if indexPath == "" {
		indexPath = fastaPath + ".fai"
	}
	f, err := os.Open(fastaPath)
	if err != nil {
		return nil, fmt.Errorf("htsio: opening fasta %s: %w", fastaPath, err)
	}
	idxFile, err := os.Open(indexPath)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("htsio: opening fasta index %s: %w", indexPath, err)
	}
	seqs, err := parseFai(idxFile)
	idxFile.Close()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("htsio: parsing fasta index %s: %w", indexPath, err)
	}
	return &reference{f: f, seqs: seqs}, nil
}

// Close releases the FASTA file. Not part of refio.Reference;
// orchestrate type-asserts for it when tearing a worker down.
func (r *reference) Close() error { return r.f.Close() }

func parseFai(in io.Reader) (map[string]faiEntry, error) {
	seqs := make(map[string]faiEntry)
	scanner := bufio.NewScanner(in)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 5 {
			return nil, fmt.Errorf("line %d: expected 5 tab-separated fields, got %d", lineNo, len(fields))
		}
		length, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid length %q", lineNo, fields[1])
		}
		offset, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid offset %q", lineNo, fields[2])
		}
		lineBases, err := strconv.Atoi(fields[3])
		if err != nil || lineBases <= 0 {
			return nil, fmt.Errorf("line %d: invalid bases-per-line %q", lineNo, fields[3])
		}
		lineWidth, err := strconv.Atoi(fields[4])
		if err != nil || lineWidth < lineBases {
			return nil, fmt.Errorf("line %d: invalid bytes-per-line %q", lineNo, fields[4])
		}
		seqs[fields[0]] = faiEntry{length: length, offset: offset, lineBases: lineBases, lineWidth: lineWidth}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return seqs, nil
}

// Fetch returns the uppercase bases in [start, end) on contig.
func (r *reference) Fetch(contig string, start, end int) (string, error) {
	ent, ok := r.seqs[contig]
	if !ok {
		return "", fmt.Errorf("htsio: contig %q not in fasta index", contig)
	}
	if start < 0 || end <= start || end > ent.length {
		return "", fmt.Errorf("htsio: range [%d, %d) out of bounds for %s (length %d)", start, end, contig, ent.length)
	}

	byteOf := func(base int) int64 {
		return ent.offset + int64(base/ent.lineBases)*int64(ent.lineWidth) + int64(base%ent.lineBases)
	}
	lo, hi := byteOf(start), byteOf(end-1)+1
	raw := make([]byte, hi-lo)
	if _, err := r.f.ReadAt(raw, lo); err != nil {
		return "", fmt.Errorf("htsio: reading %s:%d-%d: %w", contig, start, end, err)
	}

	out := make([]byte, 0, end-start)
	for _, b := range raw {
		if b == '\n' || b == '\r' {
			continue
		}
		if 'a' <= b && b <= 'z' {
			b -= 'a' - 'A'
		}
		out = append(out, b)
	}
	if len(out) != end-start {
		return "", fmt.Errorf("htsio: %s:%d-%d decoded to %d bases, want %d", contig, start, end, len(out), end-start)
	}
	return string(out), nil
}

// Length returns the size of contig.
func (r *reference) Length(contig string) (int, error) {
	ent, ok := r.seqs[contig]
	if !ok {
		return 0, fmt.Errorf("htsio: contig %q not in fasta index", contig)
	}
	return ent.length, nil
}
