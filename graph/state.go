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

package graph

// Range is a half-open range [Start, End) in the visit list of a node.
type Range struct {
	Start, End int
}

// Size returns the number of elements in the range.
func (r Range) Size() int {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// State is a unidirectional search state: the range of haplotype visits
// of Node whose preceding sequence matches the searched path.
type State struct {
	Node  Handle
	Range Range
}

// Size returns the number of haplotype occurrences represented by the state.
func (s State) Size() int {
	return s.Range.Size()
}

// Empty returns true if no haplotype matches the path.
func (s State) Empty() bool {
	return s.Range.Size() == 0
}

/*
SearchState is a bidirectional search state for a path. Forward
represents the path with its last node as Node, Backward represents
the reverse path, so that Backward.Node is the flip of the first node.

Search states are values created by a Graph. They can be copied and
compared freely, but their ranges are only meaningful to the Graph
that produced them.
*/
type SearchState struct {
	Forward, Backward State
}

// Size returns the number of haplotype occurrences of the path.
func (s SearchState) Size() int {
	return s.Forward.Size()
}

// Empty returns true if no haplotype contains the path.
func (s SearchState) Empty() bool {
	return s.Forward.Empty()
}

// First returns the first node on the path.
func (s SearchState) First() Handle {
	return s.Backward.Node.Flip()
}

// Last returns the last node on the path.
func (s SearchState) Last() Handle {
	return s.Forward.Node
}

// Flip returns the state of the reverse path.
func (s SearchState) Flip() SearchState {
	return SearchState{Forward: s.Backward, Backward: s.Forward}
}
