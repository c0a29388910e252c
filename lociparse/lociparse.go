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

// Package lociparse reads the tab-separated tandem-repeat locus list:
// at least columns contig, start, end, ..., motif, with start/end
// 0-based and motif always the last column. Blank lines are ignored.
// It hands orchestrate a plain []locus.Locus.
package lociparse

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tandemgeno/trgeno/locus"
)

// minColumns is the fewest tab-separated fields a locus row may have:
// contig, start, end, motif.
const minColumns = 4

// Parse reads loci from r, assigning each a 0-based Index matching its
// order of appearance (blank lines do not consume an index). It does not
// itself call locus.Locus.Validate; callers that want per-row validation
// (and per-row rather than whole-file failure) should call Validate
// themselves, as orchestrate does.
func Parse(r io.Reader) ([]locus.Locus, error) {
	scanner := bufio.NewScanner(r)
	// Loci files may carry very long annotation columns after motif in
	// some upstream catalogs; grow the buffer past bufio's 64KiB default.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var out []locus.Locus
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < minColumns {
			return nil, fmt.Errorf("lociparse: line %d: expected at least %d tab-separated columns, got %d", lineNo, minColumns, len(fields))
		}
		start, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, fmt.Errorf("lociparse: line %d: invalid start %q: %w", lineNo, fields[1], err)
		}
		end, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil {
			return nil, fmt.Errorf("lociparse: line %d: invalid end %q: %w", lineNo, fields[2], err)
		}
		motif := strings.TrimSpace(fields[len(fields)-1])
		out = append(out, locus.Locus{
			Index:  len(out),
			Contig: strings.TrimSpace(fields[0]),
			Start:  start,
			End:    end,
			Motif:  strings.ToUpper(motif),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("lociparse: %w", err)
	}
	return out, nil
}
