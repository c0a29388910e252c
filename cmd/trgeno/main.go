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
package main

/*
trgeno genotypes tandem-repeat loci from long reads aligned against a
reference: for each locus in a TSV list it anchors the repeat in the
reference, extracts a per-read repeat count from the overlapping
aligned reads, and reports a bootstrapped allele call.
*/

import (
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/tandemgeno/trgeno/htsio"
	"github.com/tandemgeno/trgeno/lociparse"
	"github.com/tandemgeno/trgeno/orchestrate"
	"github.com/tandemgeno/trgeno/output"
	"github.com/tandemgeno/trgeno/ploidy"
	"github.com/tandemgeno/trgeno/refio"
)

var (
	bamIndexPath   = flag.String("index", "", "Alignment index path; defaults to bampath + .bai")
	faIndexPath    = flag.String("fai", "", "Reference FASTA index path; defaults to fapath + .fai")
	flankSize      = flag.Int("flank-size", 70, "Bases of reference flank fetched on each side of a locus for read anchoring")
	minReads       = flag.Int("min-reads", 4, "Minimum usable reads for a locus to receive a call")
	minAlleleReads = flag.Int("min-allele-reads", 2, "Minimum reads a candidate allele needs to survive the mixture filter")
	numBootstrap   = flag.Int("num-bootstrap", 100, "Number of bootstrap replicates for the confidence interval")
	sexChroms      = flag.String("sex-chroms", "NONE", "Sex-chromosome configuration: NONE, XX, or XY")
	processes      = flag.Int("processes", 1, "Worker count")
	jsonOut        = flag.String("json-out", "", "Optional path to additionally write results as a JSON array")
	debug          = flag.Bool("debug", false, "Enable per-locus debug logging")
)

func trgenoUsage() {
	fmt.Printf("Usage: %s [OPTIONS] bampath fapath locipath\n", os.Args[0])
	fmt.Printf("Writes the per-locus TSV to stdout. Other options:\n")
	flag.PrintDefaults()
}

// boundParam clamps param into [minVal, maxVal], warning via stderr
// logging when the given value had to be adjusted.
func boundParam(param, minVal, maxVal int, flagName string) int {
	adjusted := param
	if adjusted < minVal {
		adjusted = minVal
	}
	if adjusted > maxVal {
		adjusted = maxVal
	}
	if adjusted != param {
		log.Error.Printf("adjusting -%s from %d to %d", flagName, param, adjusted)
	}
	return adjusted
}

func main() {
	flag.Usage = trgenoUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 3 {
		log.Fatalf("expected exactly 3 positional arguments (bampath fapath locipath), got %d", flag.NArg())
	}
	bamPath, faPath, lociPath := flag.Arg(0), flag.Arg(1), flag.Arg(2)

	sex, ok := ploidy.ParseSexConfig(*sexChroms)
	if !ok {
		log.Fatalf("invalid -sex-chroms %q: must be NONE, XX, or XY", *sexChroms)
	}

	opts := orchestrate.DefaultOptions()
	opts.FlankSize = boundParam(*flankSize, 1, 100000, "flank-size")
	opts.MinReads = boundParam(*minReads, 1, 100000, "min-reads")
	opts.MinAlleleReads = boundParam(*minAlleleReads, 1, 100000, "min-allele-reads")
	opts.NumBootstrap = boundParam(*numBootstrap, 1, 100000, "num-bootstrap")
	opts.Processes = boundParam(*processes, 1, 512, "processes")
	opts.SexChroms = sex
	if *debug {
		opts.LogLevel = orchestrate.LogDebug
	}

	lociFile, err := os.Open(lociPath)
	if err != nil {
		log.Fatalf("opening loci list %q: %v", lociPath, err)
	}
	loci, err := lociparse.Parse(lociFile)
	lociFile.Close()
	if err != nil {
		log.Fatalf("parsing loci list %q: %v", lociPath, err)
	}

	openRef := func() (refio.Reference, error) { return htsio.OpenReference(faPath, *faIndexPath) }
	openSrc := func() (refio.AlignmentSource, error) { return htsio.OpenAlignmentSource(bamPath, *bamIndexPath) }

	// orchestrate.Run returns a non-nil error only for a setup failure;
	// every per-locus failure is absorbed into that locus's LocusResult
	// and never reaches here.
	results, err := orchestrate.Run(vcontext.Background(), loci, openRef, openSrc, opts)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := output.WriteTSV(os.Stdout, results); err != nil {
		log.Fatalf("writing TSV output: %v", err)
	}

	if *jsonOut != "" {
		f, err := os.Create(*jsonOut)
		if err != nil {
			log.Fatalf("creating JSON output %q: %v", *jsonOut, err)
		}
		err = output.WriteJSON(f, results)
		closeErr := f.Close()
		if err != nil {
			log.Fatalf("writing JSON output %q: %v", *jsonOut, err)
		}
		if closeErr != nil {
			log.Fatalf("closing JSON output %q: %v", *jsonOut, closeErr)
		}
	}

	log.Debug.Printf("genotyped %d loci", len(results))
}
