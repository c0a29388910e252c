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

import "testing"

func uniformWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return w
}

func repeatInts(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestSyntheticPureRepeat(t *testing.T) {
	sizes := repeatInts(20, 30)
	weights := uniformWeights(30)
	opts := Options{NAlleles: 2, MinReads: 4, MinAlleleReads: 2, BootstrapIterations: 50, ForceInt: true, LocusIndex: 1}

	call, err := Call(sizes, weights, opts)
	if err != nil {
		t.Fatal(err)
	}
	if call == nil {
		t.Fatal("expected a call")
	}
	if len(call.Calls) != 1 && len(call.Calls) != 2 {
		t.Fatalf("Calls = %v, want length 1 or 2 (collapsed duplicate)", call.Calls)
	}
	for _, c := range call.Calls {
		if c != 20 {
			t.Errorf("call = %d, want 20", c)
		}
	}
}

func TestHeterozygousExpansion(t *testing.T) {
	sizes := append(repeatInts(20, 15), repeatInts(35, 15)...)
	weights := uniformWeights(30)
	opts := Options{NAlleles: 2, MinReads: 4, MinAlleleReads: 2, BootstrapIterations: 100, ForceInt: true, LocusIndex: 2}

	call, err := Call(sizes, weights, opts)
	if err != nil {
		t.Fatal(err)
	}
	if call == nil {
		t.Fatal("expected a call")
	}
	if len(call.Calls) != 2 {
		t.Fatalf("Calls = %v, want 2 alleles", call.Calls)
	}
	if abs(call.Calls[0]-20) > 2 {
		t.Errorf("lower allele = %d, want ~20", call.Calls[0])
	}
	if abs(call.Calls[1]-35) > 2 {
		t.Errorf("upper allele = %d, want ~35", call.Calls[1])
	}
	for i, c := range call.Calls {
		if !call.CI95[i].Contains(c) {
			t.Errorf("CI95[%d] = %+v does not contain call %d", i, call.CI95[i], c)
		}
		if call.CI99[i].Lo > call.CI95[i].Lo || call.CI99[i].Hi < call.CI95[i].Hi {
			t.Errorf("CI99[%d] = %+v does not contain CI95 %+v", i, call.CI99[i], call.CI95[i])
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestLowCoverageAbsent(t *testing.T) {
	sizes := repeatInts(20, 3)
	weights := uniformWeights(3)
	opts := Options{NAlleles: 2, MinReads: 4, MinAlleleReads: 2, BootstrapIterations: 50, ForceInt: true}

	call, err := Call(sizes, weights, opts)
	if err != nil {
		t.Fatal(err)
	}
	if call != nil {
		t.Fatalf("expected absent call, got %+v", call)
	}
}

func TestHaploidXMale(t *testing.T) {
	sizes := repeatInts(12, 20)
	weights := uniformWeights(20)
	opts := Options{NAlleles: 1, MinReads: 4, MinAlleleReads: 2, BootstrapIterations: 50, ForceInt: true, LocusIndex: 4}

	call, err := Call(sizes, weights, opts)
	if err != nil {
		t.Fatal(err)
	}
	if call == nil {
		t.Fatal("expected a call")
	}
	if len(call.Calls) != 1 || call.Calls[0] != 12 {
		t.Fatalf("Calls = %v, want [12]", call.Calls)
	}
}

func TestZeroWeightSumIsAbsent(t *testing.T) {
	sizes := repeatInts(20, 10)
	weights := make([]float64, 10)
	opts := Options{NAlleles: 2, MinReads: 4, MinAlleleReads: 2, BootstrapIterations: 10}

	call, err := Call(sizes, weights, opts)
	if err != nil {
		t.Fatal(err)
	}
	if call != nil {
		t.Fatal("expected absent call for all-zero weights")
	}
}

func TestDeterministicAcrossCalls(t *testing.T) {
	sizes := append(repeatInts(20, 15), repeatInts(35, 15)...)
	weights := uniformWeights(30)
	opts := Options{NAlleles: 2, MinReads: 4, MinAlleleReads: 2, BootstrapIterations: 30, ForceInt: true, LocusIndex: 7}

	a, err := Call(sizes, weights, opts)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Call(sizes, weights, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Calls) != len(b.Calls) {
		t.Fatal("non-deterministic allele count")
	}
	for i := range a.Calls {
		if a.Calls[i] != b.Calls[i] || a.CI95[i] != b.CI95[i] || a.CI99[i] != b.CI99[i] {
			t.Errorf("non-deterministic output at slot %d: %+v vs %+v", i, a, b)
		}
	}
}
