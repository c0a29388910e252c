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

package align

import "testing"

func TestIdenticalSequencesScoreMaximally(t *testing.T) {
	s := []byte("ACGTACGTACGT")
	if got := ScorePrefixFreeQueryTail(s, s); got != int32(len(s))*MatchScore {
		t.Errorf("ScorePrefixFreeQueryTail(s, s) = %d, want %d", got, int32(len(s))*MatchScore)
	}
	if got := ScorePrefixFreeQueryHead(s, s); got != int32(len(s))*MatchScore {
		t.Errorf("ScorePrefixFreeQueryHead(s, s) = %d, want %d", got, int32(len(s))*MatchScore)
	}
}

func TestPrefixFreeQueryTailIgnoresDBSuffix(t *testing.T) {
	db := []byte("ACGTACGTACGTTTTTTTTTTT")
	query := []byte("ACGTACGTACGT")
	got := ScorePrefixFreeQueryTail(query, db)
	want := int32(len(query)) * MatchScore
	if got != want {
		t.Errorf("ScorePrefixFreeQueryTail = %d, want %d (trailing db junk should be free)", got, want)
	}
}

func TestPrefixFreeQueryHeadIgnoresDBPrefix(t *testing.T) {
	db := []byte("TTTTTTTTTTACGTACGTACGT")
	query := []byte("ACGTACGTACGT")
	got := ScorePrefixFreeQueryHead(query, db)
	want := int32(len(query)) * MatchScore
	if got != want {
		t.Errorf("ScorePrefixFreeQueryHead = %d, want %d (leading db junk should be free)", got, want)
	}
}

func TestMismatchPenalized(t *testing.T) {
	db := []byte("ACGTACGT")
	query := []byte("ACGAACGT")
	got := ScorePrefixFreeQueryTail(query, db)
	want := int32(len(query)-1)*MatchScore + MismatchScore
	if got != want {
		t.Errorf("ScorePrefixFreeQueryTail = %d, want %d", got, want)
	}
}

func TestDeterministic(t *testing.T) {
	db := []byte("ACGTACGTACGTACGTACGT")
	query := []byte("ACGTACGTACGT")
	a := ScorePrefixFreeQueryTail(query, db)
	b := ScorePrefixFreeQueryTail(query, db)
	if a != b {
		t.Errorf("non-deterministic score: %d vs %d", a, b)
	}
}
