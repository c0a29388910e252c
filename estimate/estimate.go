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

// Package estimate implements the bounded hill-climb repeat-count
// estimator: given a candidate motif and a flanked sequence, it returns
// the integer copy count that best explains the observed bases under the
// align package's semi-global kernel.
package estimate

import (
	"bytes"

	"github.com/tandemgeno/trgeno/align"
	"github.com/tandemgeno/trgeno/kinds"
)

// MaxEvaluations is the anti-runaway guard: after evaluating this many
// distinct candidate counts, the search stops and returns the best
// argmax found so far.
const MaxEvaluations = 64

// Result is the outcome of Estimate.
type Result struct {
	BestCount int
	BestScore int32
	// Capped reports whether the search hit MaxEvaluations rather than
	// exhausting its frontier naturally.
	Capped bool
}

var acgt = [256]bool{'A': true, 'C': true, 'G': true, 'T': true}

func validMotif(motif []byte) bool {
	if len(motif) == 0 {
		return false
	}
	for _, b := range motif {
		if !acgt[b] {
			return false
		}
	}
	return true
}

// Estimate runs a bounded hill-climb: starting from startCount, it
// evaluates neighboring candidate repeat counts against the fixed
// database db = leftFlank+trSeq+rightFlank, expanding outward while
// progress continues, until the frontier is exhausted or MaxEvaluations
// distinct counts have been scored. Ties break toward the smaller count.
//
// An empty trSeq should be seeded with startCount=0; Estimate also
// clamps any negative startCount to 0.
func Estimate(startCount int, trSeq, leftFlank, rightFlank, motif []byte) (Result, error) {
	if !validMotif(motif) {
		return Result{}, kinds.New(kinds.InvalidInput, "motif %q is empty or contains non-ACGT bases", motif)
	}
	if startCount < 0 {
		startCount = 0
	}

	db := concat(leftFlank, trSeq, rightFlank)
	e := &evaluator{
		db:         db,
		leftFlank:  leftFlank,
		rightFlank: rightFlank,
		motif:      motif,
		memo:       make(map[int]int32),
	}

	visited := map[int]bool{}
	var frontier []int
	for _, s := range []int{startCount, startCount - 1, startCount + 1} {
		if s < 0 || visited[s] {
			continue
		}
		visited[s] = true
		frontier = append(frontier, s)
	}

	moving := 0 // 0 = unknown, +1 = scores increasing with k, -1 = decreasing.
	capped := false

	for len(frontier) > 0 {
		if e.evaluated >= MaxEvaluations {
			capped = true
			break
		}
		k := frontier[0]
		frontier = frontier[1:]

		centerScore := e.score(k)
		bestK, bestScore := k, centerScore

		considerLo := moving <= 0
		considerHi := moving >= 0
		if lo := k - 1; considerLo && lo >= 0 && e.evaluated < MaxEvaluations {
			if s := e.score(lo); s > bestScore {
				bestK, bestScore = lo, s
			}
		}
		if hi := k + 1; considerHi && e.evaluated < MaxEvaluations {
			if s := e.score(hi); s > bestScore {
				bestK, bestScore = hi, s
			}
		}

		if bestK > k {
			moving = 1
			if !visited[k+2] {
				visited[k+2] = true
				frontier = append(frontier, k+2)
			}
		} else if bestK < k {
			moving = -1
			if k-2 >= 0 && !visited[k-2] {
				visited[k-2] = true
				frontier = append(frontier, k-2)
			}
		}
	}

	bestK, bestScore := e.argmax()
	return Result{BestCount: bestK, BestScore: bestScore, Capped: capped}, nil
}

type evaluator struct {
	db                    []byte
	leftFlank, rightFlank []byte
	motif                 []byte
	memo                  map[int]int32
	order                 []int // insertion order, for deterministic tie-breaking fallback.
	evaluated             int
}

func (e *evaluator) score(k int) int32 {
	if s, ok := e.memo[k]; ok {
		return s
	}
	mm := bytes.Repeat(e.motif, k)
	sFwd := align.ScorePrefixFreeQueryTail(concat(e.leftFlank, mm), e.db)
	sRev := align.ScorePrefixFreeQueryHead(concat(mm, e.rightFlank), e.db)
	best := sFwd
	if sRev > best {
		best = sRev
	}
	e.memo[k] = best
	e.order = append(e.order, k)
	e.evaluated++
	return best
}

// argmax returns the evaluated k with the highest score, breaking ties in
// favor of the smaller k.
func (e *evaluator) argmax() (int, int32) {
	bestK := e.order[0]
	bestScore := e.memo[bestK]
	for _, k := range e.order[1:] {
		s := e.memo[k]
		if s > bestScore || (s == bestScore && k < bestK) {
			bestK, bestScore = k, s
		}
	}
	return bestK, bestScore
}

func concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
