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
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/tandemgeno/trgeno/locus"
	"github.com/tandemgeno/trgeno/refio"
)

// ReferenceOpener and AlignmentOpener construct a worker's own handle.
// Run calls each exactly once per worker: handles are never shared
// across workers, since neither indexed-FASTA nor BAM readers are safe
// for concurrent region fetches.
type ReferenceOpener func() (refio.Reference, error)
type AlignmentOpener func() (refio.AlignmentSource, error)

// Run fans loci out across opts.Processes workers, each with its own
// reference/alignment handle, and merges their locally sorted result
// lists back into one list sorted by LocusIndex. Workers drain the jobs
// channel until it closes behind the producer, so shutdown needs no
// per-worker sentinel values.
//
// Run returns a non-nil error only when a worker's reference/alignment
// handle could not be opened; any per-locus failure is absorbed into
// that locus's LocusResult.Skipped by RunLocus and never surfaces here.
func Run(ctx context.Context, loci []locus.Locus, openRef ReferenceOpener, openSrc AlignmentOpener, opts Options) ([]locus.LocusResult, error) {
	n := opts.Processes
	if n < 1 {
		n = 1
	}
	if n > len(loci) && len(loci) > 0 {
		n = len(loci)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan locus.Locus, n)
	listsCh := make(chan []locus.LocusResult, n)
	var setupErr errors.Once
	var wg sync.WaitGroup

	for w := 0; w < n; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			ref, err := openRef()
			if err != nil {
				setupErr.Set(fmt.Errorf("worker %d: opening reference: %w", workerID, err))
				cancel()
				return
			}
			defer closeIfCloser(ref)
			src, err := openSrc()
			if err != nil {
				setupErr.Set(fmt.Errorf("worker %d: opening alignment source: %w", workerID, err))
				cancel()
				return
			}
			defer closeIfCloser(src)

			var local []locus.LocusResult
			for l := range jobs {
				local = append(local, RunLocus(l, ref, src, opts))
				if err := runCtx.Err(); err != nil {
					log.Error.Printf("worker %d: %v; stopping early", workerID, err)
					break
				}
			}
			sort.Slice(local, func(i, j int) bool { return local[i].LocusIndex < local[j].LocusIndex })
			listsCh <- local
		}(w)
	}

	go func() {
		defer close(jobs)
		for _, l := range loci {
			select {
			case jobs <- l:
			case <-runCtx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(listsCh)

	if err := setupErr.Err(); err != nil {
		return nil, err
	}

	var lists [][]locus.LocusResult
	for l := range listsCh {
		lists = append(lists, l)
	}
	return mergeSorted(lists), nil
}

func closeIfCloser(v interface{}) {
	if c, ok := v.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			log.Error.Printf("closing handle: %v", err)
		}
	}
}
