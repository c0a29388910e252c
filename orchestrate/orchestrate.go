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

// Package orchestrate runs the per-locus genotyping pipeline: reference
// anchoring, read extraction, ploidy resolution, and the bootstrapped
// allele call, fanned out over a pool of independent workers. Only a
// setup failure aborts a run; any single locus's failure is absorbed
// into its result.
package orchestrate

import (
	"github.com/tandemgeno/trgeno/ploidy"
)

// LogLevel selects how chatty per-locus processing is. It is threaded
// through Options rather than held in a package-level mutable.
type LogLevel int

const (
	// LogNormal logs only per-locus warnings/errors.
	LogNormal LogLevel = iota
	// LogDebug additionally logs per-locus tracing (estimator caps,
	// read-pool sizes, contig-name resolution).
	LogDebug
)

// Options configures the orchestrator.
type Options struct {
	FlankSize      int
	MinReads       int
	MinAlleleReads int
	NumBootstrap   int
	SexChroms      ploidy.SexConfig
	Processes      int
	LogLevel       LogLevel
}

// DefaultOptions returns the documented flag defaults.
func DefaultOptions() Options {
	return Options{
		FlankSize:      70,
		MinReads:       4,
		MinAlleleReads: 2,
		NumBootstrap:   100,
		SexChroms:      ploidy.None,
		Processes:      1,
		LogLevel:       LogNormal,
	}
}
