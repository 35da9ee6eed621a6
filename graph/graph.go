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

// Graph is the read-only view of a haplotype-indexed pangenome graph.
type Graph interface {
	// HasNode returns true if the node id exists.
	HasNode(id int64) bool

	// Length returns the sequence length of the node, or 0 for an unknown node.
	Length(h Handle) int

	// Sequence returns the sequence of the node in the given orientation.
	// The result is a view and must not be modified.
	Sequence(h Handle) []byte

	// State returns the search state for the single node path h.
	State(h Handle) SearchState

	// Find returns the search state for the given path.
	Find(path []Handle) SearchState

	// FollowPaths calls visit once for each non-empty search state that
	// extends the path of state by one node, forward or backward. It stops
	// when visit returns false, and returns false in that case.
	FollowPaths(state SearchState, backward bool, visit func(next SearchState) bool) bool
}

var complementTable = func() (table [256]byte) {
	for i := range table {
		table[i] = 'N'
	}
	for _, pair := range [...][2]byte{{'A', 'T'}, {'C', 'G'}, {'a', 't'}, {'c', 'g'}} {
		table[pair[0]] = pair[1]
		table[pair[1]] = pair[0]
	}
	table['n'] = 'n'
	return
}()

// Complement returns the complementary base. Unknown characters become N.
func Complement(base byte) byte {
	return complementTable[base]
}

// ReverseComplement returns a new slice with the reverse complement of seq.
func ReverseComplement(seq []byte) []byte {
	result := make([]byte, len(seq))
	for i, j := 0, len(seq)-1; j >= 0; i, j = i+1, j-1 {
		result[i] = complementTable[seq[j]]
	}
	return result
}

// ReverseComplementString is ReverseComplement for strings.
func ReverseComplementString(seq string) string {
	return string(ReverseComplement([]byte(seq)))
}
