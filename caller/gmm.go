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
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// minVariance floors a component's variance so a cluster that collapses
// onto a single repeat-count value doesn't zero out its own likelihood.
const minVariance = 0.25

// maxEMIterations and emTolerance bound the EM loop: it stops when the
// relative log-likelihood change drops below the tolerance.
const (
	maxEMIterations = 100
	emTolerance     = 1e-4
)

// component is one Gaussian in the mixture.
type component struct {
	mean, variance, weight float64 // weight is the mixing proportion pi_k
}

// fitResult is one converged EM fit.
type fitResult struct {
	components []component
	// effReads[k] is the responsibility-weighted read count supporting
	// component k (sum_i r_ik, unweighted by the per-read bias weight):
	// a count in units of reads, used against min_allele_reads.
	effReads []float64
}

func normalPDF(x, mean, variance float64) float64 {
	if variance < minVariance {
		variance = minVariance
	}
	d := x - mean
	return math.Exp(-d*d/(2*variance)) / math.Sqrt(2*math.Pi*variance)
}

// fitGMM runs weighted 1-D Gaussian-mixture EM with k components over x,
// where w is a per-observation importance weight (already normalized to
// sum to 1). It never returns fewer than k components; filtering by
// min_allele_reads is the caller's responsibility.
func fitGMM(x, w []float64, k int) fitResult {
	n := len(x)
	comps := initComponents(x, w, k)

	resp := make([][]float64, k)
	for i := range resp {
		resp[i] = make([]float64, n)
	}

	prevLL := math.Inf(-1)
	for iter := 0; iter < maxEMIterations; iter++ {
		// E-step.
		for i := 0; i < n; i++ {
			var denom float64
			dens := make([]float64, k)
			for kk := 0; kk < k; kk++ {
				dens[kk] = comps[kk].weight * normalPDF(x[i], comps[kk].mean, comps[kk].variance)
				denom += dens[kk]
			}
			if denom <= 0 {
				// All components assign ~0 density; fall back to a
				// uniform split so the M-step doesn't divide by zero.
				for kk := 0; kk < k; kk++ {
					resp[kk][i] = 1.0 / float64(k)
				}
				continue
			}
			for kk := 0; kk < k; kk++ {
				resp[kk][i] = dens[kk] / denom
			}
		}

		// M-step.
		for kk := 0; kk < k; kk++ {
			var nk, mean float64
			for i := 0; i < n; i++ {
				nk += w[i] * resp[kk][i]
			}
			if nk <= 0 {
				continue
			}
			for i := 0; i < n; i++ {
				mean += w[i] * resp[kk][i] * x[i]
			}
			mean /= nk
			var variance float64
			for i := 0; i < n; i++ {
				d := x[i] - mean
				variance += w[i] * resp[kk][i] * d * d
			}
			variance /= nk
			if variance < minVariance {
				variance = minVariance
			}
			comps[kk] = component{mean: mean, variance: variance, weight: nk}
		}

		ll := weightedLogLikelihood(x, w, comps)
		if iter > 0 && math.Abs(ll-prevLL) < emTolerance*math.Abs(prevLL) {
			prevLL = ll
			break
		}
		prevLL = ll
	}

	type pair struct {
		c        component
		effReads float64
	}
	pairs := make([]pair, k)
	for kk := 0; kk < k; kk++ {
		var s float64
		for i := 0; i < n; i++ {
			s += resp[kk][i]
		}
		pairs[kk] = pair{comps[kk], s}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].c.mean < pairs[j].c.mean })

	result := fitResult{components: make([]component, k), effReads: make([]float64, k)}
	for kk, p := range pairs {
		result.components[kk] = p.c
		result.effReads[kk] = p.effReads
	}
	return result
}

func weightedLogLikelihood(x, w []float64, comps []component) float64 {
	var ll float64
	for i := range x {
		var s float64
		for _, c := range comps {
			s += c.weight * normalPDF(x[i], c.mean, c.variance)
		}
		if s <= 0 {
			continue
		}
		ll += w[i] * math.Log(s)
	}
	return ll
}

// initComponents seeds k components via a weighted-quantile split of x,
// equal priors, and the overall weighted sample variance.
func initComponents(x, w []float64, k int) []component {
	sorted := append([]float64(nil), x...)
	sortedW := append([]float64(nil), w...)
	idx := make([]int, len(sorted))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return x[idx[i]] < x[idx[j]] })
	for i, j := range idx {
		sorted[i] = x[j]
		sortedW[i] = w[j]
	}

	// stat.Variance normalizes by (sum(weights) - 1), so probability
	// weights summing to 1 must be rescaled to total n to keep the
	// denominator meaningful.
	scaledW := make([]float64, len(w))
	for i, wi := range w {
		scaledW[i] = wi * float64(len(w))
	}
	overallMean := stat.Mean(x, w)
	overallVar := stat.Variance(x, scaledW)
	if math.IsNaN(overallVar) || math.IsInf(overallVar, 0) || overallVar < minVariance {
		overallVar = minVariance
	}

	comps := make([]component, k)
	for kk := 0; kk < k; kk++ {
		q := (float64(kk) + 0.5) / float64(k)
		mean := stat.Quantile(q, stat.Empirical, sorted, sortedW)
		if k == 1 {
			mean = overallMean
		}
		comps[kk] = component{mean: mean, variance: overallVar, weight: 1.0 / float64(k)}
	}
	return comps
}
