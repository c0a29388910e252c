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

// Package align implements the semi-global banded alignment-score kernel
// used to judge how well a candidate tandem-repeat expansion explains an
// observed (flank + repeat + flank) reference window.
//
// Only the final score is computed; there is no traceback. A real SIMD
// striped kernel (as biosimd implements for simpler byte-count operations)
// would vectorize the row-by-row sweep below; this banded scalar version
// is the reference behavior the estimator is built against.
package align

import "math"

// Fixed substitution and gap costs, empirically tuned for anchoring
// repeat expansions against noisy long reads; not configurable.
const (
	MatchScore    int32 = 2
	MismatchScore int32 = -7
	GapCost       int32 = 7 // affine open==extend collapses to linear per-base cost.
)

// negInf is used to mark DP cells outside the band or otherwise
// unreachable. It is chosen so that one GapCost subtraction never
// overflows int32.
const negInf int32 = math.MinInt32 / 2

// DefaultBandSlack bounds how far the banded DP deviates from the main
// diagonal beyond the two sequences' length difference. Flanks plus a
// handful of candidate repeat units rarely need more slack than this.
const DefaultBandSlack = 16

func saturate(v int32) int32 {
	if v >= math.MaxInt32 {
		return math.MaxInt32
	}
	return v
}

func sub(a, b byte) int32 {
	if a == b {
		return MatchScore
	}
	return MismatchScore
}

// band returns the banded DP's half-width for a query/db pair. The band
// is at least large enough to reach every cell on the last row or column,
// since prefix-free alignments may need to traverse the full length
// difference plus some slack for indels near the anchor.
func band(nQuery, nDB int) int {
	diff := nQuery - nDB
	if diff < 0 {
		diff = -diff
	}
	return diff + DefaultBandSlack
}

// ScorePrefixFreeQueryTail scores query against db such that gaps at the
// start of db and gaps at the end of query are free. This is the
// right-extending configuration: query is anchored against the beginning
// of db, but any unconsumed suffix of db once query runs out is
// unpenalized.
func ScorePrefixFreeQueryTail(query, db []byte) int32 {
	n, m := len(query), len(db)
	w := band(n, m)

	prev := make([]int32, m+1)
	cur := make([]int32, m+1)

	// Row 0: aligning the empty query prefix against db[0:j]. Not free in
	// this configuration (only db's start, not query's start, is free).
	for j := 0; j <= m; j++ {
		if j <= w {
			prev[j] = -int32(j) * GapCost
		} else {
			prev[j] = negInf
		}
	}

	for i := 1; i <= n; i++ {
		lo := i - w
		if lo < 0 {
			lo = 0
		}
		hi := i + w
		if hi > m {
			hi = m
		}
		for j := 0; j < lo; j++ {
			cur[j] = negInf
		}
		for j := hi + 1; j <= m; j++ {
			cur[j] = negInf
		}
		for j := lo; j <= hi; j++ {
			if j == 0 {
				// Gaps at the start of db are free: consuming query
				// characters before db has begun costs nothing.
				cur[0] = 0
				continue
			}
			diag := prev[j-1] + sub(query[i-1], db[j-1])
			up := negInf
			if prev[j] != negInf {
				up = prev[j] - GapCost
			}
			left := negInf
			if cur[j-1] != negInf {
				left = cur[j-1] - GapCost
			}
			best := diag
			if up > best {
				best = up
			}
			if left > best {
				best = left
			}
			cur[j] = best
		}
		prev, cur = cur, prev
	}

	// Gaps at the end of query are free: once query is exhausted, any
	// leftover db suffix is unpenalized, so the answer is the best value
	// anywhere in the final row.
	best := negInf
	for j := 0; j <= m; j++ {
		if prev[j] > best {
			best = prev[j]
		}
	}
	return saturate(best)
}

// ScorePrefixFreeQueryHead scores query against db such that gaps at the
// end of db and gaps at the start of query are free. This is the
// left-extending configuration: query is anchored against the end of db,
// but any unconsumed prefix of db before query begins is unpenalized.
//
// Gaps at the end of db are free: the answer is the best value anywhere
// in the final column, since trailing query beyond db's end costs
// nothing.
func ScorePrefixFreeQueryHead(query, db []byte) int32 {
	n, m := len(query), len(db)
	w := band(n, m)
	return saturate(maxLastColumn(n, m, w, query, db))
}

// maxLastColumn runs the prefix-free-query-head DP (gaps at the start of
// query free, via the row-0 base case) and returns the best score
// anywhere in column m, tracked incrementally as each row is computed.
func maxLastColumn(n, m, w int, query, db []byte) int32 {
	prev := make([]int32, m+1)
	for j := 0; j <= m; j++ {
		if j <= w {
			prev[j] = 0
		} else {
			prev[j] = negInf
		}
	}
	best := negInf
	if m <= w {
		best = prev[m]
	}
	cur := make([]int32, m+1)
	for i := 1; i <= n; i++ {
		lo := i - w
		if lo < 0 {
			lo = 0
		}
		hi := i + w
		if hi > m {
			hi = m
		}
		for j := 0; j < lo; j++ {
			cur[j] = negInf
		}
		for j := hi + 1; j <= m; j++ {
			cur[j] = negInf
		}
		for j := lo; j <= hi; j++ {
			if j == 0 {
				cur[0] = -int32(i) * GapCost
				continue
			}
			diag := prev[j-1] + sub(query[i-1], db[j-1])
			up := negInf
			if prev[j] != negInf {
				up = prev[j] - GapCost
			}
			left := negInf
			if cur[j-1] != negInf {
				left = cur[j-1] - GapCost
			}
			v := diag
			if up > v {
				v = up
			}
			if left > v {
				v = left
			}
			cur[j] = v
		}
		if lo <= m && m <= hi && cur[m] > best {
			best = cur[m]
		}
		prev, cur = cur, prev
	}
	return best
}
