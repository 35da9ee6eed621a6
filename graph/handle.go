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
Package graph defines how the aligners see a pangenome graph: oriented
node handles, graph positions, haplotype search states, and the Graph
interface that answers sequence and haplotype queries.

A Graph only allows traversals that are consistent with at least one
indexed haplotype. Next nodes are never enumerated from edges, but from
search states via FollowPaths.
*/
package graph

import (
	"fmt"
	"strconv"
)

// Handle identifies a graph node traversed in a specific orientation.
type Handle struct {
	ID      int64
	Reverse bool
}

// NewHandle returns the handle for the given node id and orientation.
func NewHandle(id int64, reverse bool) Handle {
	return Handle{ID: id, Reverse: reverse}
}

// Encode packs the handle into an integer as id << 1 | reverse.
// Encoded handles of the same node are adjacent, forward first.
func (h Handle) Encode() uint64 {
	result := uint64(h.ID) << 1
	if h.Reverse {
		result |= 1
	}
	return result
}

// DecodeHandle is the inverse of Handle.Encode.
func DecodeHandle(code uint64) Handle {
	return Handle{ID: int64(code >> 1), Reverse: code&1 != 0}
}

// Flip returns the handle for the same node in the opposite orientation.
func (h Handle) Flip() Handle {
	return Handle{ID: h.ID, Reverse: !h.Reverse}
}

// Less orders handles by their encoding.
func (h Handle) Less(other Handle) bool {
	return h.Encode() < other.Encode()
}

func (h Handle) String() string {
	if h.Reverse {
		return strconv.FormatInt(h.ID, 10) + "-"
	}
	return strconv.FormatInt(h.ID, 10) + "+"
}

// Pos is an offset within an oriented node. Offsets are relative to the
// start of the node in the given orientation.
type Pos struct {
	ID      int64
	Reverse bool
	Offset  int
}

// NoPos is the empty position. Node ids are positive, so a position
// with id 0 never refers to a node.
var NoPos = Pos{}

// NewPos returns the position at the given offset of the given handle.
func NewPos(h Handle, offset int) Pos {
	return Pos{ID: h.ID, Reverse: h.Reverse, Offset: offset}
}

// IsEmpty returns true for NoPos.
func (p Pos) IsEmpty() bool {
	return p.ID == 0
}

// Handle returns the oriented node of the position.
func (p Pos) Handle() Handle {
	return Handle{ID: p.ID, Reverse: p.Reverse}
}

func (p Pos) String() string {
	return fmt.Sprintf("%v:%d", p.Handle(), p.Offset)
}

// ReverseBasePos returns the position of the same base on the opposite
// strand of a node with the given length.
func ReverseBasePos(p Pos, nodeLength int) Pos {
	return Pos{ID: p.ID, Reverse: !p.Reverse, Offset: nodeLength - p.Offset - 1}
}
