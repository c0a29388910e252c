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

package orchestrate

import (
	"strings"

	"github.com/grailbio/base/log"
	"github.com/tandemgeno/trgeno/caller"
	"github.com/tandemgeno/trgeno/estimate"
	"github.com/tandemgeno/trgeno/extract"
	"github.com/tandemgeno/trgeno/kinds"
	"github.com/tandemgeno/trgeno/locus"
	"github.com/tandemgeno/trgeno/ploidy"
	"github.com/tandemgeno/trgeno/refio"
)

// RunLocus genotypes a single locus against a worker's own reference
// and alignment handles. It never returns an error: every recoverable
// failure is absorbed into the returned LocusResult's Skipped field, so
// a single bad locus never aborts the run. Failures are also logged,
// except unresolved ploidy and an absent call, which are recorded
// silently.
func RunLocus(l locus.Locus, ref refio.Reference, src refio.AlignmentSource, opts Options) locus.LocusResult {
	res := locus.LocusResult{
		LocusIndex: l.Index,
		Contig:     l.Contig,
		Start:      l.Start,
		End:        l.End,
		Motif:      l.Motif,
	}

	if err := l.Validate(); err != nil {
		res.Skipped = kinds.InvalidInput.String()
		log.Error.Printf("locus %d: %v", l.Index, err)
		return res
	}

	contig, err := resolveContig(l.Contig, ref)
	if err != nil {
		res.Skipped = kinds.UnknownContig.String()
		log.Error.Printf("locus %d (%s:%d-%d): %v", l.Index, l.Contig, l.Start, l.End, err)
		return res
	}
	res.Contig = contig
	if opts.LogLevel >= LogDebug && contig != l.Contig {
		log.Debug.Printf("locus %d: resolved contig %q -> %q", l.Index, l.Contig, contig)
	}

	win := locus.NewFlankedWindow(locus.Locus{Contig: contig, Start: l.Start, End: l.End, Motif: l.Motif}, opts.FlankSize)
	motif := []byte(l.Motif)

	leftFlankStart := win.LeftCoord - win.FlankSize
	if leftFlankStart < 0 {
		res.Skipped = kinds.FlankTooShort.String()
		log.Error.Printf("locus %d (%s:%d-%d): left flank runs past contig start", l.Index, contig, l.Start, l.End)
		return res
	}
	leftFlankSeq, err := ref.Fetch(contig, leftFlankStart, win.LeftCoord)
	if err != nil || len(leftFlankSeq) != win.FlankSize {
		res.Skipped = kinds.FlankTooShort.String()
		log.Error.Printf("locus %d (%s:%d-%d): left flank fetch: %v", l.Index, contig, l.Start, l.End, err)
		return res
	}
	rightFlankSeq, err := ref.Fetch(contig, win.RightCoord, win.RightFlankEnd)
	if err != nil || len(rightFlankSeq) != win.FlankSize {
		res.Skipped = kinds.FlankTooShort.String()
		log.Error.Printf("locus %d (%s:%d-%d): right flank fetch: %v", l.Index, contig, l.Start, l.End, err)
		return res
	}
	refRepeatSeq, err := ref.Fetch(contig, win.LeftCoord, win.RightCoord)
	if err != nil {
		res.Skipped = kinds.CoordinateOutOfRange.String()
		log.Error.Printf("locus %d (%s:%d-%d): repeat-window fetch: %v", l.Index, contig, l.Start, l.End, err)
		return res
	}

	// Stage A: reference anchor.
	refStart := roundDiv(len(refRepeatSeq), len(motif))
	refEst, err := estimate.Estimate(refStart, []byte(refRepeatSeq), []byte(leftFlankSeq), []byte(rightFlankSeq), motif)
	if err != nil {
		res.Skipped = kinds.InvalidInput.String()
		log.Error.Printf("locus %d (%s:%d-%d): reference estimate: %v", l.Index, contig, l.Start, l.End, err)
		return res
	}
	res.RefCN = refEst.BestCount
	if refEst.Capped && opts.LogLevel >= LogDebug {
		log.Debug.Printf("locus %d: %s hit hill-climb cap", l.Index, kinds.EstimatorFailure)
	}

	// Stage B: read extraction & per-read count.
	fetchStart := win.LeftFlankStart
	if fetchStart < 0 {
		fetchStart = 0
	}
	records, err := src.Fetch(contig, fetchStart, win.RightFlankEnd)
	if err != nil {
		res.Skipped = kinds.CoordinateOutOfRange.String()
		log.Error.Printf("locus %d (%s:%d-%d): read fetch: %v", l.Index, contig, l.Start, l.End, err)
		return res
	}
	pool, err := extract.BuildReadPool(records, win, motif)
	if err != nil {
		res.Skipped = kinds.InvalidInput.String()
		log.Error.Printf("locus %d (%s:%d-%d): read extraction: %v", l.Index, contig, l.Start, l.End, err)
		return res
	}
	if opts.LogLevel >= LogDebug {
		log.Debug.Printf("locus %d: pooled %d reads", l.Index, pool.Len())
	}
	res.ReadCounts = make(map[string]int, pool.Len())
	res.ReadWeights = make(map[string]float64, pool.Len())
	pool.Range(func(readID string, obs locus.ReadObservation) {
		res.ReadCounts[readID] = obs.TRCount
		res.ReadWeights[readID] = obs.Weight
	})

	// Stage C: ploidy + allele call.
	nAlleles, ok := ploidy.Resolve(contig, opts.SexChroms)
	if !ok {
		res.Skipped = kinds.PloidyUnresolved.String()
		return res
	}

	counts, weights := pool.CountsAndWeights()
	call, err := caller.Call(counts, weights, caller.Options{
		NAlleles:            nAlleles,
		MinReads:            opts.MinReads,
		MinAlleleReads:      opts.MinAlleleReads,
		BootstrapIterations: opts.NumBootstrap,
		ForceInt:            true,
		LocusIndex:          l.Index,
	})
	if err != nil {
		res.Skipped = kinds.EstimatorFailure.String()
		log.Error.Printf("locus %d (%s:%d-%d): allele call: %v", l.Index, contig, l.Start, l.End, err)
		return res
	}
	if call == nil {
		res.Skipped = kinds.InsufficientReads.String()
		return res
	}
	res.Call = call
	return res
}

// resolveContig looks contig up against ref directly, then with the
// "chr" prefix toggled, matching whichever naming convention ref
// actually uses.
func resolveContig(contig string, ref refio.Reference) (string, error) {
	if _, err := ref.Length(contig); err == nil {
		return contig, nil
	}
	alt := toggleChrPrefix(contig)
	if _, err := ref.Length(alt); err == nil {
		return alt, nil
	}
	return "", kinds.New(kinds.UnknownContig, "contig %q not found in reference (also tried %q)", contig, alt)
}

func toggleChrPrefix(contig string) string {
	if strings.HasPrefix(contig, "chr") {
		return strings.TrimPrefix(contig, "chr")
	}
	return "chr" + contig
}

func roundDiv(num, den int) int {
	if den == 0 {
		return 0
	}
	return (num + den/2) / den
}
