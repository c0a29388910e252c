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

package ploidy

import "testing"

func TestResolve(t *testing.T) {
	cases := []struct {
		contig string
		sex    SexConfig
		n      int
		ok     bool
	}{
		{"chr1", None, 2, true},
		{"1", XY, 2, true},
		{"chrM", None, 1, true},
		{"M", XY, 1, true},
		{"chrX", None, 0, false},
		{"chrX", XX, 2, true},
		{"chrX", XY, 1, true},
		{"chrY", XX, 0, false},
		{"chrY", XY, 1, true},
		{"Y", None, 0, false},
	}
	for _, c := range cases {
		n, ok := Resolve(c.contig, c.sex)
		if n != c.n || ok != c.ok {
			t.Errorf("Resolve(%q, %v) = (%d, %v), want (%d, %v)", c.contig, c.sex, n, ok, c.n, c.ok)
		}
	}
}

func TestParseSexConfig(t *testing.T) {
	if v, ok := ParseSexConfig("XX"); !ok || v != XX {
		t.Errorf("ParseSexConfig(XX) = (%v, %v)", v, ok)
	}
	if _, ok := ParseSexConfig("bogus"); ok {
		t.Error("expected ParseSexConfig(bogus) to fail")
	}
}
