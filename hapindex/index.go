// hapalign: haplotype-aware alignment of reads to pangenome graphs.
// Copyright (c) 2021 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elprep/blob/master/LICENSE.txt>.

/*
Package hapindex implements an in-memory bidirectional haplotype index
over a sequence graph.

Every haplotype is stored together with its reverse complement
orientation. For each oriented node, the index keeps the visits of all
haplotypes to that node, sorted by the reversed sequence of nodes that
precede the visit. The occurrences of a path that end at a node then
form a contiguous range of that visit list, which is what a
graph.SearchState records. Backward ranges are maintained with the
usual bidirectional rule: within the range of a path, occurrences are
ordered by their flipped successor, with the end of a haplotype first.
*/
package hapindex

import (
	"errors"
	"fmt"
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/exascience/pargo/parallel"
	psort "github.com/exascience/pargo/sort"

	"github.com/exascience/hapalign/graph"
)

var (
	// ErrInvalidNode is returned for node ids that are not positive.
	ErrInvalidNode = errors.New("invalid node id")

	// ErrDuplicateNode is returned when a node id is added twice.
	ErrDuplicateNode = errors.New("duplicate node")

	// ErrEmptySequence is returned for nodes without sequence.
	ErrEmptySequence = errors.New("empty node sequence")

	// ErrUnknownNode is returned when a path visits a node that was not added.
	ErrUnknownNode = errors.New("unknown node")

	// ErrEmptyPath is returned for paths without nodes.
	ErrEmptyPath = errors.New("empty path")
)

// A Builder collects nodes and haplotype paths for an Index.
type Builder struct {
	sequences map[int64][]byte
	order     []int64
	paths     [][]graph.Handle
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{sequences: make(map[int64][]byte)}
}

// AddNode adds a node with the given forward sequence.
func (b *Builder) AddNode(id int64, sequence []byte) error {
	if id <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidNode, id)
	}
	if _, ok := b.sequences[id]; ok {
		return fmt.Errorf("%w: %v", ErrDuplicateNode, id)
	}
	if len(sequence) == 0 {
		return fmt.Errorf("%w: node %v", ErrEmptySequence, id)
	}
	b.sequences[id] = append([]byte(nil), sequence...)
	b.order = append(b.order, id)
	return nil
}

// AddPath adds a haplotype path. All nodes on the path must have been
// added before.
func (b *Builder) AddPath(path []graph.Handle) error {
	if len(path) == 0 {
		return ErrEmptyPath
	}
	for _, h := range path {
		if _, ok := b.sequences[h.ID]; !ok {
			return fmt.Errorf("%w: %v", ErrUnknownNode, h.ID)
		}
	}
	b.paths = append(b.paths, append([]graph.Handle(nil), path...))
	return nil
}

type visit struct {
	path, pos int32
}

// Index is an immutable haplotype index. It implements graph.Graph and is
// safe for concurrent use.
type Index struct {
	nodes     *bitset.BitSet
	nodeCount int
	sequences map[graph.Handle][]byte
	paths     [][]graph.Handle
	visits    map[graph.Handle][]visit
	ranks     [][]int32
}

func reversePath(path []graph.Handle) []graph.Handle {
	result := make([]graph.Handle, len(path))
	for i, j := 0, len(path)-1; j >= 0; i, j = i+1, j-1 {
		result[i] = path[j].Flip()
	}
	return result
}

// Build creates the index. The Builder must not be used afterwards.
func (b *Builder) Build() *Index {
	idx := &Index{
		nodes:     bitset.New(0),
		nodeCount: len(b.order),
		sequences: make(map[graph.Handle][]byte, 2*len(b.order)),
		paths:     make([][]graph.Handle, 0, 2*len(b.paths)),
		visits:    make(map[graph.Handle][]visit),
	}

	reverse := make([][]byte, len(b.order))
	parallel.Range(0, len(b.order), 0, func(low, high int) {
		for i := low; i < high; i++ {
			reverse[i] = graph.ReverseComplement(b.sequences[b.order[i]])
		}
	})
	for i, id := range b.order {
		idx.nodes.Set(uint(id))
		idx.sequences[graph.NewHandle(id, false)] = b.sequences[id]
		idx.sequences[graph.NewHandle(id, true)] = reverse[i]
	}

	for _, path := range b.paths {
		idx.paths = append(idx.paths, path, reversePath(path))
	}
	idx.ranks = make([][]int32, len(idx.paths))
	var all []nodeVisit
	for p, path := range idx.paths {
		idx.ranks[p] = make([]int32, len(path))
		for i, h := range path {
			all = append(all, nodeVisit{h, visit{int32(p), int32(i)}})
		}
	}
	psort.Sort(visitSorter{idx, all})

	for start := 0; start < len(all); {
		h := all[start].node
		end := start + 1
		for end < len(all) && all[end].node == h {
			end++
		}
		list := make([]visit, end-start)
		for rank := range list {
			v := all[start+rank].visit
			list[rank] = v
			idx.ranks[v.path][v.pos] = int32(rank)
		}
		idx.visits[h] = list
		start = end
	}
	return idx
}

type nodeVisit struct {
	node graph.Handle
	visit
}

// visitSorter orders visits by node, and visits to the same node by
// prefixLess.
type visitSorter struct {
	idx    *Index
	visits []nodeVisit
}

func (s visitSorter) SequentialSort(i, j int) {
	sort.Sort(visitSorter{s.idx, s.visits[i:j]})
}

func (s visitSorter) Len() int {
	return len(s.visits)
}

func (s visitSorter) Less(i, j int) bool {
	a, b := &s.visits[i], &s.visits[j]
	if a.node != b.node {
		return a.node.Less(b.node)
	}
	return s.idx.prefixLess(a.visit, b.visit)
}

func (s visitSorter) Swap(i, j int) {
	s.visits[i], s.visits[j] = s.visits[j], s.visits[i]
}

// prefixLess compares two visits to the same node by the reversed
// sequence of preceding nodes. An exhausted prefix comes first.
func (idx *Index) prefixLess(a, b visit) bool {
	pa, pb := idx.paths[a.path], idx.paths[b.path]
	for i, j := a.pos-1, b.pos-1; ; i, j = i-1, j-1 {
		switch {
		case i < 0 && j < 0:
			return a.path < b.path || (a.path == b.path && a.pos < b.pos)
		case i < 0:
			return true
		case j < 0:
			return false
		}
		if x, y := pa[i].Encode(), pb[j].Encode(); x != y {
			return x < y
		}
	}
}

// NodeCount returns the number of nodes.
func (idx *Index) NodeCount() int {
	return idx.nodeCount
}

// PathCount returns the number of haplotype paths that were added.
func (idx *Index) PathCount() int {
	return len(idx.paths) / 2
}

// Paths returns the haplotype paths in the orientation they were added.
func (idx *Index) Paths() [][]graph.Handle {
	result := make([][]graph.Handle, 0, len(idx.paths)/2)
	for i := 0; i < len(idx.paths); i += 2 {
		result = append(result, idx.paths[i])
	}
	return result
}

// HasNode implements graph.Graph.
func (idx *Index) HasNode(id int64) bool {
	return id > 0 && idx.nodes.Test(uint(id))
}

// Length implements graph.Graph.
func (idx *Index) Length(h graph.Handle) int {
	return len(idx.sequences[h])
}

// Sequence implements graph.Graph.
func (idx *Index) Sequence(h graph.Handle) []byte {
	return idx.sequences[h]
}

// State implements graph.Graph.
func (idx *Index) State(h graph.Handle) graph.SearchState {
	return graph.SearchState{
		Forward:  graph.State{Node: h, Range: graph.Range{End: len(idx.visits[h])}},
		Backward: graph.State{Node: h.Flip(), Range: graph.Range{End: len(idx.visits[h.Flip()])}},
	}
}

// Find implements graph.Graph.
func (idx *Index) Find(path []graph.Handle) (state graph.SearchState) {
	if len(path) == 0 {
		return
	}
	state = idx.State(path[0])
	for _, h := range path[1:] {
		if state.Empty() {
			return
		}
		next := graph.SearchState{}
		idx.followForward(state, func(s graph.SearchState) bool {
			if s.Last() == h {
				next = s
				return false
			}
			return true
		})
		state = next
	}
	return state
}

// FollowPaths implements graph.Graph.
func (idx *Index) FollowPaths(state graph.SearchState, backward bool, visit func(next graph.SearchState) bool) bool {
	if !backward {
		return idx.followForward(state, visit)
	}
	return idx.followForward(state.Flip(), func(next graph.SearchState) bool {
		return visit(next.Flip())
	})
}

type successor struct {
	node        graph.Handle
	first, size int
}

func (idx *Index) followForward(state graph.SearchState, visitFn func(next graph.SearchState) bool) bool {
	if state.Empty() {
		return true
	}
	list := idx.visits[state.Forward.Node]
	if state.Forward.Range.End > len(list) {
		return true
	}
	ended := 0
	var successors []successor
	for _, v := range list[state.Forward.Range.Start:state.Forward.Range.End] {
		path := idx.paths[v.path]
		if int(v.pos)+1 >= len(path) {
			ended++
			continue
		}
		node, rank := path[v.pos+1], int(idx.ranks[v.path][v.pos+1])
		found := false
		for i := range successors {
			if s := &successors[i]; s.node == node {
				if rank < s.first {
					s.first = rank
				}
				s.size++
				found = true
				break
			}
		}
		if !found {
			successors = append(successors, successor{node, rank, 1})
		}
	}
	if len(successors) == 0 {
		return true
	}

	// Backward subranges follow the order of the flipped successors.
	sort.Slice(successors, func(i, j int) bool {
		return successors[i].node.Flip().Less(successors[j].node.Flip())
	})
	backward := make(map[graph.Handle]graph.Range, len(successors))
	start := state.Backward.Range.Start + ended
	for _, s := range successors {
		backward[s.node] = graph.Range{Start: start, End: start + s.size}
		start += s.size
	}

	sort.Slice(successors, func(i, j int) bool {
		return successors[i].node.Less(successors[j].node)
	})
	for _, s := range successors {
		next := graph.SearchState{
			Forward:  graph.State{Node: s.node, Range: graph.Range{Start: s.first, End: s.first + s.size}},
			Backward: graph.State{Node: state.Backward.Node, Range: backward[s.node]},
		}
		if !visitFn(next) {
			return false
		}
	}
	return true
}
