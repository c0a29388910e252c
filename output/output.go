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

// Package output renders orchestrate.Run's per-locus results as one
// TSV line per locus plus an optional JSON array.
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/tandemgeno/trgeno/locus"
)

const missing = "."

// WriteTSV writes one line per result, in the order given (callers
// pass results already sorted by LocusIndex): contig, start, end,
// motif, reference copy number, sorted per-read counts as CSV, the
// pipe-joined call, and the pipe-joined 95% CI ranges, with "." for
// absent call fields.
func WriteTSV(w io.Writer, results []locus.LocusResult) error {
	bw := bufio.NewWriter(w)
	for _, r := range results {
		if _, err := fmt.Fprintf(bw, "%s\t%d\t%d\t%s\t%d\t%s\t%s\t%s\n",
			r.Contig, r.Start, r.End, r.Motif, r.RefCN,
			readCountsCSV(r), callField(r), ciField(r)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// readCountsCSV renders a locus's per-read repeat counts, sorted
// ascending, as a comma-separated list; "." if the locus has no reads.
func readCountsCSV(r locus.LocusResult) string {
	if len(r.ReadCounts) == 0 {
		return missing
	}
	counts := make([]int, 0, len(r.ReadCounts))
	for _, c := range r.ReadCounts {
		counts = append(counts, c)
	}
	sort.Ints(counts)
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ",")
}

// callField renders the allele call as pipe-joined integers, or "." if
// no call was made.
func callField(r locus.LocusResult) string {
	if r.Call == nil || len(r.Call.Calls) == 0 {
		return missing
	}
	parts := make([]string, len(r.Call.Calls))
	for i, c := range r.Call.Calls {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, "|")
}

// ciField renders the 95% CI per allele as pipe-joined "lo-hi" ranges in
// the same order as callField's calls, or "." if no call was made.
func ciField(r locus.LocusResult) string {
	if r.Call == nil || len(r.Call.CI95) == 0 {
		return missing
	}
	parts := make([]string, len(r.Call.CI95))
	for i, ci := range r.Call.CI95 {
		parts[i] = fmt.Sprintf("%d-%d", ci.Lo, ci.Hi)
	}
	return strings.Join(parts, "|")
}

// WriteJSON writes results as an indented JSON array, in the order
// given.
func WriteJSON(w io.Writer, results []locus.LocusResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
