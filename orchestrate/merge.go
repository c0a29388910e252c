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
	"github.com/biogo/store/llrb"
	"github.com/tandemgeno/trgeno/locus"
)

// resultLeaf is one worker's sorted result list plus a read cursor into
// it. The k-way merge keeps one leaf per list in an llrb.Tree,
// repeatedly popping and advancing the smallest.
type resultLeaf struct {
	listIdx int
	pos     int
	list    []locus.LocusResult
}

// Compare orders leaves by their current item's LocusIndex, breaking
// ties by which worker's list it came from (ties shouldn't occur in
// practice since locus indices are unique, but a stable tiebreak keeps
// the tree total order well-defined).
func (l *resultLeaf) Compare(c llrb.Comparable) int {
	o := c.(*resultLeaf)
	if d := l.list[l.pos].LocusIndex - o.list[o.pos].LocusIndex; d != 0 {
		return d
	}
	return l.listIdx - o.listIdx
}

// mergeSorted performs a k-way merge of per-worker sorted result lists
// into one list sorted by LocusIndex.
func mergeSorted(lists [][]locus.LocusResult) []locus.LocusResult {
	total := 0
	tree := llrb.Tree{}
	for i, l := range lists {
		total += len(l)
		if len(l) == 0 {
			continue
		}
		tree.Insert(&resultLeaf{listIdx: i, pos: 0, list: l})
	}

	out := make([]locus.LocusResult, 0, total)
	for tree.Len() > 0 {
		top := tree.Min().(*resultLeaf)
		out = append(out, top.list[top.pos])
		tree.DeleteMin()
		top.pos++
		if top.pos < len(top.list) {
			tree.Insert(top)
		}
	}
	return out
}
