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

package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tandemgeno/trgeno/locus"
)

func TestWriteTSVWithCall(t *testing.T) {
	results := []locus.LocusResult{
		{
			Contig: "chr1", Start: 100, End: 160, Motif: "CAG", RefCN: 20,
			ReadCounts: map[string]int{"r1": 20, "r2": 19, "r3": 21},
			Call: &locus.AlleleCall{
				Calls: []int{19, 21},
				CI95:  []locus.CIRange{{Lo: 18, Hi: 20}, {Lo: 20, Hi: 22}},
			},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteTSV(&buf, results))
	want := "chr1\t100\t160\tCAG\t20\t19,20,21\t19|21\t18-20|20-22\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteTSVAbsentCall(t *testing.T) {
	results := []locus.LocusResult{
		{Contig: "chrY", Start: 5, End: 10, Motif: "AT", RefCN: 3, Skipped: "PloidyUnresolved"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteTSV(&buf, results))
	want := "chrY\t5\t10\tAT\t3\t.\t.\t.\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteTSVMultipleLoci(t *testing.T) {
	results := []locus.LocusResult{
		{Contig: "chr1", Start: 1, End: 2, Motif: "A", RefCN: 1},
		{Contig: "chr1", Start: 3, End: 4, Motif: "C", RefCN: 2},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteTSV(&buf, results))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
}

func TestWriteJSONRoundTrips(t *testing.T) {
	results := []locus.LocusResult{
		{
			LocusIndex: 0, Contig: "chr2", Start: 50, End: 80, Motif: "CAG", RefCN: 10,
			Call: &locus.AlleleCall{Calls: []int{10, 10}, CI95: []locus.CIRange{{Lo: 9, Hi: 11}, {Lo: 9, Hi: 11}}},
		},
		{LocusIndex: 1, Contig: "chrY", Start: 1, End: 5, Motif: "AT", Skipped: "PloidyUnresolved"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, results))

	var got []locus.LocusResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, results[0].Contig, got[0].Contig)
	assert.Equal(t, results[0].Call.Calls, got[0].Call.Calls)
	assert.Equal(t, "PloidyUnresolved", got[1].Skipped)
	assert.Nil(t, got[1].Call)
}
