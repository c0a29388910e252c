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

package estimate

import (
	"bytes"
	"testing"
)

func flanks() (left, right []byte) {
	return []byte("ACGTTTGGACCATTCGATCGATGCATGCATGCATTAGCA"),
		[]byte("GGTACCATGCATTAGCATGCATGCATCGATCGATTGGAC")
}

func TestRoundTripPureRepeat(t *testing.T) {
	left, right := flanks()
	motif := []byte("CAG")
	for _, k := range []int{5, 12, 20} {
		tr := bytes.Repeat(motif, k)
		for _, delta := range []int{-5, -2, 0, 2, 5} {
			start := k + delta
			if start < 0 {
				start = 0
			}
			res, err := Estimate(start, tr, left, right, motif)
			if err != nil {
				t.Fatalf("Estimate(start=%d): %v", start, err)
			}
			if res.BestCount != k {
				t.Errorf("k=%d start=%d: got %d, want %d", k, start, res.BestCount, k)
			}
		}
	}
}

func TestEstimatorIdempotent(t *testing.T) {
	left, right := flanks()
	motif := []byte("ATC")
	tr := bytes.Repeat(motif, 14)
	first, err := Estimate(3, tr, left, right, motif)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Estimate(first.BestCount, tr, left, right, motif)
	if err != nil {
		t.Fatal(err)
	}
	if second.BestCount != first.BestCount || second.BestScore != first.BestScore {
		t.Errorf("not a fixed point: first=%+v second=%+v", first, second)
	}
}

func TestEmptyRepeatSeedsZero(t *testing.T) {
	left, right := flanks()
	motif := []byte("CAG")
	res, err := Estimate(0, nil, left, right, motif)
	if err != nil {
		t.Fatal(err)
	}
	if res.BestCount != 0 {
		t.Errorf("got %d, want 0", res.BestCount)
	}
}

func TestInvalidMotifRejected(t *testing.T) {
	left, right := flanks()
	if _, err := Estimate(0, []byte("ACGT"), left, right, nil); err == nil {
		t.Error("expected error for empty motif")
	}
	if _, err := Estimate(0, []byte("ACGT"), left, right, []byte("CAN")); err == nil {
		t.Error("expected error for non-ACGT motif")
	}
}

func TestDeterministicAcrossRuns(t *testing.T) {
	left, right := flanks()
	motif := []byte("GT")
	tr := bytes.Repeat(motif, 9)
	a, err := Estimate(4, tr, left, right, motif)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Estimate(4, tr, left, right, motif)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("non-deterministic: %+v vs %+v", a, b)
	}
}
