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

package hapindex

import (
	"errors"
	"testing"

	"github.com/exascience/hapalign/graph"
)

func fwd(ids ...int64) (path []graph.Handle) {
	for _, id := range ids {
		path = append(path, graph.NewHandle(id, false))
	}
	return path
}

// toyIndex is the graph GA(T|GGG)TA(C|A)A, with the haplotype
// GGGGTACA twice and GAGGGTAAA once.
func toyIndex(t *testing.T) *Index {
	b := NewBuilder()
	for id, seq := range []string{"G", "A", "T", "GGG", "T", "A", "C", "A", "A"} {
		if err := b.AddNode(int64(id+1), []byte(seq)); err != nil {
			t.Fatal(err)
		}
	}
	for _, path := range [][]graph.Handle{fwd(1, 4, 5, 6, 7, 9), fwd(1, 4, 5, 6, 7, 9), fwd(1, 2, 4, 5, 6, 8, 9)} {
		if err := b.AddPath(path); err != nil {
			t.Fatal(err)
		}
	}
	return b.Build()
}

func TestBuilderErrors(t *testing.T) {
	b := NewBuilder()
	if err := b.AddNode(0, []byte("A")); !errors.Is(err, ErrInvalidNode) {
		t.Error("AddNode invalid id failed")
	}
	if err := b.AddNode(1, []byte("A")); err != nil {
		t.Error("AddNode failed")
	}
	if err := b.AddNode(1, []byte("C")); !errors.Is(err, ErrDuplicateNode) {
		t.Error("AddNode duplicate failed")
	}
	if err := b.AddNode(2, nil); !errors.Is(err, ErrEmptySequence) {
		t.Error("AddNode empty sequence failed")
	}
	if err := b.AddPath(fwd(1, 3)); !errors.Is(err, ErrUnknownNode) {
		t.Error("AddPath unknown node failed")
	}
	if err := b.AddPath(nil); !errors.Is(err, ErrEmptyPath) {
		t.Error("AddPath empty failed")
	}
}

func TestSequences(t *testing.T) {
	idx := toyIndex(t)
	if idx.NodeCount() != 9 || idx.PathCount() != 3 || len(idx.Paths()) != 3 {
		t.Error("counts failed")
	}
	if !idx.HasNode(9) || idx.HasNode(10) || idx.HasNode(0) || idx.HasNode(-1) {
		t.Error("HasNode failed")
	}
	h := graph.NewHandle(4, false)
	if string(idx.Sequence(h)) != "GGG" || string(idx.Sequence(h.Flip())) != "CCC" || idx.Length(h.Flip()) != 3 {
		t.Error("Sequence failed")
	}
	if idx.Length(graph.NewHandle(10, false)) != 0 {
		t.Error("Length of unknown node failed")
	}
	if idx.Paths()[2][1] != graph.NewHandle(2, false) {
		t.Error("Paths failed")
	}
}

func TestFollowPaths(t *testing.T) {
	idx := toyIndex(t)
	var next []graph.SearchState
	collect := func(s graph.SearchState) bool {
		next = append(next, s)
		return true
	}

	idx.FollowPaths(idx.Find(fwd(4, 5, 6)), false, collect)
	if len(next) != 2 || next[0].Last() != graph.NewHandle(7, false) || next[0].Size() != 2 ||
		next[1].Last() != graph.NewHandle(8, false) || next[1].Size() != 1 {
		t.Error("FollowPaths forward failed")
	}
	if next[0].First() != graph.NewHandle(4, false) {
		t.Error("FollowPaths forward First failed")
	}

	next = nil
	idx.FollowPaths(idx.State(graph.NewHandle(4, false)), true, collect)
	if len(next) != 2 || next[0].First() != graph.NewHandle(1, false) || next[0].Size() != 2 ||
		next[1].First() != graph.NewHandle(2, false) || next[1].Size() != 1 {
		t.Error("FollowPaths backward failed")
	}
	if next[1].Last() != graph.NewHandle(4, false) {
		t.Error("FollowPaths backward Last failed")
	}

	next = nil
	idx.FollowPaths(idx.State(graph.NewHandle(9, false)), false, collect)
	if len(next) != 0 {
		t.Error("FollowPaths at the end of the haplotypes failed")
	}

	next = nil
	if idx.FollowPaths(idx.State(graph.NewHandle(6, false)), false, func(graph.SearchState) bool { return false }) {
		t.Error("FollowPaths stop failed")
	}
}

func TestFind(t *testing.T) {
	idx := toyIndex(t)
	if idx.Find(fwd(1, 4, 5)).Size() != 2 {
		t.Error("Find 1 failed")
	}
	if idx.Find(fwd(1, 2, 4)).Size() != 1 {
		t.Error("Find 2 failed")
	}
	if !idx.Find(fwd(1, 3)).Empty() || !idx.Find(fwd(2, 4, 5, 6, 7)).Empty() {
		t.Error("Find 3 failed")
	}
	if !idx.Find(nil).Empty() {
		t.Error("Find 4 failed")
	}
	reverse := []graph.Handle{graph.NewHandle(9, true), graph.NewHandle(8, true), graph.NewHandle(6, true)}
	if idx.Find(reverse).Size() != 1 {
		t.Error("Find 5 failed")
	}
	if idx.State(graph.NewHandle(3, false)).Size() != 0 {
		t.Error("State of an unvisited node failed")
	}
}

func countOccurrences(paths [][]graph.Handle, pattern []graph.Handle) (result int) {
	for _, path := range paths {
	outer:
		for i := 0; i+len(pattern) <= len(path); i++ {
			for j, h := range pattern {
				if path[i+j] != h {
					continue outer
				}
			}
			result++
		}
	}
	return result
}

// Extending a path backward from its last node must give the same state
// as extending it forward from its first node.
func TestBidirectional(t *testing.T) {
	idx := toyIndex(t)
	var paths [][]graph.Handle
	for _, path := range idx.Paths() {
		paths = append(paths, path, reversePath(path))
	}
	for _, path := range paths {
		for i := 0; i < len(path); i++ {
			for j := i + 1; j <= len(path); j++ {
				pattern := path[i:j]
				forward := idx.Find(pattern)
				if forward.Size() != countOccurrences(paths, pattern) {
					t.Errorf("Find %v failed: size %v", pattern, forward.Size())
				}
				backward := idx.State(pattern[len(pattern)-1])
				for k := len(pattern) - 2; k >= 0; k-- {
					next := graph.SearchState{}
					idx.FollowPaths(backward, true, func(s graph.SearchState) bool {
						if s.First() == pattern[k] {
							next = s
							return false
						}
						return true
					})
					backward = next
				}
				if backward != forward {
					t.Errorf("backward search for %v failed: %v != %v", pattern, backward, forward)
				}
				if flipped := idx.Find(reversePath(pattern)); flipped != forward.Flip() {
					t.Errorf("flipped search for %v failed", pattern)
				}
			}
		}
	}
}

func TestVisitOrder(t *testing.T) {
	b := NewBuilder()
	for id, seq := range []string{"G", "A", "T", "GGG", "T", "A", "C", "A", "A"} {
		if err := b.AddNode(int64(id+1), []byte(seq)); err != nil {
			t.Fatal(err)
		}
	}
	haplotypes := [][]graph.Handle{fwd(1, 4, 5, 6, 7, 9), fwd(1, 2, 4, 5, 6, 8, 9), fwd(2, 3, 5, 6, 7), fwd(1, 6, 8, 9)}
	total := 0
	for i := 0; i < 400; i++ {
		path := haplotypes[(i*7)%len(haplotypes)]
		if err := b.AddPath(path); err != nil {
			t.Fatal(err)
		}
		total += 2 * len(path)
	}
	idx := b.Build()

	count := 0
	for h, list := range idx.visits {
		for rank, v := range list {
			if idx.paths[v.path][v.pos] != h {
				t.Errorf("visit %v of %v is in the wrong list", rank, h)
			}
			if idx.ranks[v.path][v.pos] != int32(rank) {
				t.Errorf("visit %v of %v has rank %v", rank, h, idx.ranks[v.path][v.pos])
			}
			if rank > 0 && !idx.prefixLess(list[rank-1], v) {
				t.Errorf("visits %v and %v of %v are out of order", rank-1, rank, h)
			}
		}
		count += len(list)
	}
	if count != total {
		t.Errorf("%v visits instead of %v", count, total)
	}
	if s := idx.Find(fwd(5, 6, 7)); s.Size() != 200 {
		t.Errorf("Find returned %v occurrences", s.Size())
	}
}
