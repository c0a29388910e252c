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

package caller

import (
	"math/bits"
	"sort"

	"golang.org/x/exp/rand"
)

// seedSalt folds a fixed process-wide salt into the per-locus seed so two
// different pipelines seeding from locus_index=0 don't coincidentally
// collide; it carries no other meaning.
const seedSalt = 0x9e3779b97f4a7c15

// bootstrapSeed derives a deterministic seed from locusIndex alone
// (never worker ID or queue position), so bootstrap draws for a given
// locus are identical regardless of -processes.
func bootstrapSeed(locusIndex int) uint64 {
	h := uint64(locusIndex) ^ seedSalt
	h = bits.RotateLeft64(h, 31) * 0xff51afd7ed558ccd
	return h
}

// weightedSampler draws indices into x with replacement, probability
// proportional to w, via inverse-CDF lookup over the cumulative weights.
type weightedSampler struct {
	cum []float64 // cumulative weights, cum[len-1] == 1
}

func newWeightedSampler(w []float64) weightedSampler {
	cum := make([]float64, len(w))
	var running float64
	for i, wi := range w {
		running += wi
		cum[i] = running
	}
	if running > 0 {
		for i := range cum {
			cum[i] /= running
		}
	}
	return weightedSampler{cum: cum}
}

func (s weightedSampler) draw(rng *rand.Rand) int {
	u := rng.Float64()
	i := sort.SearchFloat64s(s.cum, u)
	if i >= len(s.cum) {
		i = len(s.cum) - 1
	}
	return i
}

// bootstrapReplicates runs b weighted resamples of (x, w), refitting a
// k-component GMM on each, and returns the sorted-ascending means per
// replicate (rounded to non-negative integers when forceInt is set).
func bootstrapReplicates(x, w []float64, k, b int, seed uint64, forceInt bool) [][]float64 {
	n := len(x)
	sampler := newWeightedSampler(w)
	rng := rand.New(rand.NewSource(seed))

	out := make([][]float64, b)
	rx := make([]float64, n)
	rw := make([]float64, n)
	for rep := 0; rep < b; rep++ {
		var sum float64
		for i := 0; i < n; i++ {
			j := sampler.draw(rng)
			rx[i] = x[j]
			rw[i] = w[j]
			sum += w[j]
		}
		if sum > 0 {
			for i := range rw {
				rw[i] /= sum
			}
		}
		fit := fitGMM(rx, rw, k)
		means := make([]float64, k)
		for i, c := range fit.components {
			if forceInt {
				means[i] = roundNonNegative(c.mean)
			} else {
				means[i] = c.mean
			}
		}
		sort.Float64s(means)
		out[rep] = means
	}
	return out
}

func roundNonNegative(v float64) float64 {
	r := float64(int64(v + 0.5))
	if v < 0 {
		r = float64(int64(v - 0.5))
	}
	if r < 0 {
		r = 0
	}
	return r
}

// percentile returns the linear-interpolated p-th percentile (0..100) of
// the already-sorted-ascending values.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(n-1)
	lo := int(rank)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
