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

// Package ploidy resolves how many alleles a locus's contig is expected
// to carry, given the run's sex-chromosome configuration.
package ploidy

// SexConfig selects which sex chromosomes are present in the sample.
type SexConfig int

const (
	// None means sex-chromosome ploidy cannot be resolved; loci on X/Y
	// are skipped.
	None SexConfig = iota
	XX
	XY
)

// ParseSexConfig parses the -sex-chroms flag value.
func ParseSexConfig(s string) (SexConfig, bool) {
	switch s {
	case "", "NONE":
		return None, true
	case "XX":
		return XX, true
	case "XY":
		return XY, true
	default:
		return None, false
	}
}

func (s SexConfig) String() string {
	switch s {
	case XX:
		return "XX"
	case XY:
		return "XY"
	default:
		return "NONE"
	}
}

// MitoNames, XNames, and YNames name the contigs treated as
// mitochondrial / X / Y, covering both chr-prefixed and bare naming.
var (
	MitoNames = map[string]bool{"chrM": true, "M": true}
	XNames    = map[string]bool{"chrX": true, "X": true}
	YNames    = map[string]bool{"chrY": true, "Y": true}
)

func countChrom(chrom byte, sex SexConfig) int {
	s := sex.String()
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == chrom {
			n++
		}
	}
	return n
}

// Resolve returns the number of alleles expected at contig under sex,
// and ok=false when ploidy cannot be resolved (Y in a female sample, or
// any sex chromosome with sex=NONE): the locus should be skipped
// (kinds.PloidyUnresolved).
func Resolve(contig string, sex SexConfig) (n int, ok bool) {
	switch {
	case MitoNames[contig]:
		return 1, true
	case XNames[contig]:
		if sex == None {
			return 0, false
		}
		return countChrom('X', sex), true
	case YNames[contig]:
		if sex == None {
			return 0, false
		}
		n := countChrom('Y', sex)
		if n == 0 {
			return 0, false
		}
		return n, true
	default:
		return 2, true
	}
}
