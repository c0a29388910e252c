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

// Package caller implements the bootstrapped, weighted 1-D
// Gaussian-mixture allele caller. Given per-read repeat-count estimates
// and length-bias weights, it fits one component per expected allele,
// filters low-support components, and bootstraps percentile confidence
// intervals around the surviving means.
package caller

import (
	"math"
	"sort"

	"github.com/tandemgeno/trgeno/locus"
)

// gmFilterFactor and mergeResponsibilityFloor parameterize the
// mixture-filter guard: component means closer than gmFilterFactor
// copies, where the lower of the two holds under
// mergeResponsibilityFloor of the reads, collapse into one allele.
const (
	gmFilterFactor           = 3
	mergeResponsibilityFloor = 0.15
)

// Options configures Call.
type Options struct {
	NAlleles            int
	MinReads            int
	MinAlleleReads      int
	BootstrapIterations int
	ForceInt            bool
	LocusIndex          int // seeds the bootstrap RNG
}

// Call collapses one locus's pooled read observations into at most
// NAlleles allele calls with 95% and 99% bootstrap confidence
// intervals. sizes and weights must have equal, positive length for a
// call to be attempted; a nil *locus.AlleleCall with a nil error means
// "absent", not failure.
func Call(sizes []int, weights []float64, opts Options) (*locus.AlleleCall, error) {
	if opts.NAlleles < 1 {
		return nil, nil
	}
	if len(sizes) < opts.MinReads {
		return nil, nil
	}

	x := make([]float64, len(sizes))
	for i, s := range sizes {
		x[i] = float64(s)
	}
	w := normalizeWeights(weights)
	if w == nil {
		return nil, nil
	}

	fit, k, ok := pointEstimate(x, w, opts.NAlleles, opts.MinAlleleReads)
	if !ok {
		return nil, nil
	}

	calls := make([]float64, k)
	for i, c := range fit.components {
		if opts.ForceInt {
			calls[i] = roundNonNegative(c.mean)
		} else {
			calls[i] = c.mean
		}
	}

	b := opts.BootstrapIterations
	if b < 1 {
		b = 1
	}
	reps := bootstrapReplicates(x, w, k, b, bootstrapSeed(opts.LocusIndex), opts.ForceInt)

	ci95 := make([]locus.CIRange, k)
	ci99 := make([]locus.CIRange, k)
	for slot := 0; slot < k; slot++ {
		col := make([]float64, len(reps))
		for r, rep := range reps {
			col[r] = rep[slot]
		}
		sort.Float64s(col)

		lo95, hi95 := percentile(col, 2.5), percentile(col, 97.5)
		lo99, hi99 := percentile(col, 0.5), percentile(col, 99.5)
		point := calls[slot]
		if point < lo95 {
			lo95 = point
		}
		if point > hi95 {
			hi95 = point
		}
		if point < lo99 {
			lo99 = point
		}
		if point > hi99 {
			hi99 = point
		}
		if lo99 > lo95 {
			lo99 = lo95
		}
		if hi99 < hi95 {
			hi99 = hi95
		}
		ci95[slot] = locus.CIRange{Lo: int(math.Round(lo95)), Hi: int(math.Round(hi95))}
		ci99[slot] = locus.CIRange{Lo: int(math.Round(lo99)), Hi: int(math.Round(hi99))}
	}

	intCalls := make([]int, k)
	for i, c := range calls {
		intCalls[i] = int(math.Round(c))
	}

	intCalls, ci95, ci99 = mergeGMFilter(intCalls, ci95, ci99, fit.effReads, len(sizes))

	out := &locus.AlleleCall{Calls: intCalls, CI95: ci95, CI99: ci99}
	out.SortAscending()
	return out, nil
}

// normalizeWeights rescales w to sum to 1, or returns nil if the total is
// non-positive (a precondition violation the caller treats as absent
// rather than an error, since it can only arise from a locus with zero
// usable reads upstream).
func normalizeWeights(weights []float64) []float64 {
	var sum float64
	for _, wv := range weights {
		sum += wv
	}
	if sum <= 0 {
		return nil
	}
	w := make([]float64, len(weights))
	for i, wv := range weights {
		w[i] = wv / sum
	}
	return w
}

// pointEstimate fits a k=nAlleles GMM, discards components whose
// responsibility-weighted read count is below minAlleleReads, and
// refits with the reduced component count if any were dropped, so the
// survivors' means are not biased by responsibility the dropped
// component had absorbed. ok=false means every component was discarded.
func pointEstimate(x, w []float64, nAlleles, minAlleleReads int) (fitResult, int, bool) {
	k := nAlleles
	fit := fitGMM(x, w, k)
	for {
		survive := 0
		for _, r := range fit.effReads {
			if r >= float64(minAlleleReads) {
				survive++
			}
		}
		if survive == 0 {
			return fitResult{}, 0, false
		}
		if survive == k {
			return fit, k, true
		}
		k = survive
		fit = fitGMM(x, w, k)
	}
}

// mergeGMFilter collapses adjacent component means within
// gmFilterFactor copies of each other, where the lower one's share of
// total reads is below mergeResponsibilityFloor, into the larger
// (keeping its CI). This prevents a noisy tail of reads from
// duplicating an allele at a slightly shifted count.
func mergeGMFilter(calls []int, ci95, ci99 []locus.CIRange, effReads []float64, totalReads int) ([]int, []locus.CIRange, []locus.CIRange) {
	if totalReads == 0 {
		return calls, ci95, ci99
	}
	for {
		merged := false
		for i := 0; i+1 < len(calls); i++ {
			lo, hi := i, i+1
			if calls[lo] > calls[hi] {
				lo, hi = hi, lo
			}
			diff := calls[hi] - calls[lo]
			if diff < 0 {
				diff = -diff
			}
			if diff >= gmFilterFactor {
				continue
			}
			share := effReads[lo] / float64(totalReads)
			if share >= mergeResponsibilityFloor {
				continue
			}
			calls = append(append(append([]int{}, calls[:lo]...), calls[lo+1:]...))
			ci95 = append(append(append([]locus.CIRange{}, ci95[:lo]...), ci95[lo+1:]...))
			ci99 = append(append(append([]locus.CIRange{}, ci99[:lo]...), ci99[lo+1:]...))
			effReads = append(append(append([]float64{}, effReads[:lo]...), effReads[lo+1:]...))
			merged = true
			break
		}
		if !merged {
			break
		}
	}
	return calls, ci95, ci99
}
