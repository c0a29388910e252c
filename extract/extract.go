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

// Package extract maps aligned reads through flank coordinates to obtain
// a trimmed repeat substring plus left/right flank substrings, a seeded
// repeat-count estimate, and a length-bias weight. The left-flank end
// boundary is exclusive of the repeat region: the first repeat base is
// never counted as flank.
package extract

import (
	"github.com/tandemgeno/trgeno/estimate"
	"github.com/tandemgeno/trgeno/locus"
	"github.com/tandemgeno/trgeno/refio"
)

// flankTolerance is added to FlankSize when truncating the extracted
// flank substrings, absorbing small indels near the flank boundary.
const flankTolerance = 10

// boundary tracks the four flank-boundary read-coordinate indices
// located by walking a read's aligned pairs.
type boundary struct {
	lStart, lEnd, rStart, rEnd int
}

func newBoundary() boundary {
	return boundary{lStart: -1, lEnd: -1, rStart: -1, rEnd: -1}
}

func (b boundary) complete() bool {
	return b.lStart >= 0 && b.lEnd >= 0 && b.rStart >= 0 && b.rEnd >= 0
}

// locateBoundary walks pairs (sorted by RefIndex ascending, match-only)
// and returns the four flank-boundary indices in read coordinates.
// lStart and lEnd track the latest qualifying pair, so they settle on
// the read positions bracketing the left flank's aligned bases; rStart
// and rEnd latch on the first pair at or beyond the repeat's end and the
// flanked window's end respectively. Pairs inside the repeat region
// itself need no tracking: the repeat substring is whatever the read
// holds between lEnd and rStart, inserted bases included.
func locateBoundary(pairs []refio.Pair, win locus.FlankedWindow) boundary {
	b := newBoundary()
	for _, p := range pairs {
		switch {
		case p.RefIndex <= win.LeftFlankStart:
			b.lStart = p.ReadIndex
		case p.RefIndex < win.LeftCoord:
			b.lEnd = p.ReadIndex + 1
		case p.RefIndex < win.RightCoord:
			// Repeat interior.
		case p.RefIndex < win.RightFlankEnd:
			if b.rStart < 0 {
				b.rStart = p.ReadIndex
			}
		default:
			if b.rEnd < 0 {
				b.rEnd = p.ReadIndex
			}
			return b
		}
	}
	return b
}

// truncateTail keeps only the last n bytes of s.
func truncateTail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// truncateHead keeps only the first n bytes of s.
func truncateHead(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func round(num, den int) int {
	if den == 0 {
		return 0
	}
	if num < 0 {
		num = -num
	}
	return (num + den/2) / den
}

// Observation is the per-read extraction result before it's inserted
// into a locus.ReadPool.
type Observation struct {
	ReadID  string
	TRCount int
	Weight  float64
	Capped  bool
}

// Extract processes a single aligned record. ok=false means the read
// lacked sufficient flanking support (one of the four boundary indices
// was never located) and should be silently skipped.
func Extract(rec refio.AlignedRecord, win locus.FlankedWindow, motif []byte) (obs Observation, ok bool, err error) {
	b := locateBoundary(rec.AlignedPairs(), win)
	if !b.complete() {
		return Observation{}, false, nil
	}

	seq := rec.Sequence()
	trRead := seq[b.lEnd:b.rStart]
	flankLeft := truncateTail(seq[b.lStart:b.lEnd], win.FlankSize+flankTolerance)
	flankRight := truncateHead(seq[b.rStart:b.rEnd], win.FlankSize+flankTolerance)

	startCount := round(len(trRead), len(motif))
	res, estErr := estimate.Estimate(startCount, []byte(trRead), []byte(flankLeft), []byte(flankRight), motif)
	if estErr != nil {
		return Observation{}, false, estErr
	}

	trFlankLen := len(trRead) + len(flankLeft) + len(flankRight)
	readLen := rec.AlignedLength()
	w := lengthBiasWeight(readLen, trFlankLen)

	return Observation{
		ReadID:  rec.Name(),
		TRCount: res.BestCount,
		Weight:  w,
		Capped:  res.Capped,
	}, true, nil
}

// lengthBiasWeight up-weights reads whose flank + repeat extraction
// consumes a larger share of the aligned read length, compensating for
// the sampling bias against long repeat expansions: a read must span
// the whole flanked window to be counted at all, and longer expansions
// leave fewer qualifying reads.
func lengthBiasWeight(readLen, trFlankLen int) float64 {
	numerator := float64(readLen - trFlankLen + 1)
	denominator := float64(readLen + trFlankLen - 2)
	if denominator <= 0 {
		return 1
	}
	ratio := numerator / denominator
	if ratio <= 0 {
		return 1
	}
	return 1 / ratio
}

// BuildReadPool runs Extract over every primary record and inserts the
// successful extractions into a fresh locus.ReadPool, in the order the
// records are given. Records that are not primary, lack flanking
// support, or duplicate an already-pooled read ID are silently skipped.
func BuildReadPool(records []refio.AlignedRecord, win locus.FlankedWindow, motif []byte) (*locus.ReadPool, error) {
	pool := locus.NewReadPool()
	for _, rec := range records {
		if !rec.IsPrimary() {
			continue
		}
		obs, ok, err := Extract(rec, win, motif)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		pool.Add(obs.ReadID, locus.ReadObservation{
			ReadID:  obs.ReadID,
			TRCount: obs.TRCount,
			Weight:  obs.Weight,
		})
	}
	return pool, nil
}
