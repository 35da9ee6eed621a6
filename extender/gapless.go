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

package extender

import (
	"github.com/exascience/hapalign/alignment"
	"github.com/exascience/hapalign/graph"
	"github.com/exascience/hapalign/intervals"
)

// A Seed asserts that the read base at ReadOffset aligns to Pos.
type Seed struct {
	ReadOffset int
	Pos        graph.Pos
}

// normalize moves the seed along its diagonal to the start of the read
// or the start of the node, whichever comes first.
func (seed Seed) normalize() (readOffset, nodeOffset int) {
	diagonal := seed.ReadOffset - seed.Pos.Offset
	if diagonal >= 0 {
		return diagonal, 0
	}
	return 0, -diagonal
}

/*
GaplessExtension is a local alignment of part of the read to a
haplotype-consistent path without gaps.

Path starts at Offset of its first node, and ReadInterval is the part
of the read it covers. MismatchPositions are only filled in for the
extensions returned by Extend. State is the search state of Path.
*/
type GaplessExtension struct {
	Path              []graph.Handle
	Offset            int
	State             graph.SearchState
	ReadInterval      intervals.Interval
	MismatchPositions []int

	Score         int32
	InternalScore int
	OldScore      int

	LeftFull, RightFull       bool
	LeftMaximal, RightMaximal bool
}

// Length returns the number of read bases covered by the extension.
func (ext *GaplessExtension) Length() int {
	return ext.ReadInterval.Length()
}

// Empty returns true if the extension covers no read bases.
func (ext *GaplessExtension) Empty() bool {
	return ext.Length() == 0
}

// Full returns true if the extension covers the entire read.
func (ext *GaplessExtension) Full() bool {
	return ext.LeftFull && ext.RightFull
}

// Exact returns true if the extension has no mismatch positions.
func (ext *GaplessExtension) Exact() bool {
	return len(ext.MismatchPositions) == 0
}

// Mismatches returns the number of mismatch positions.
func (ext *GaplessExtension) Mismatches() int {
	return len(ext.MismatchPositions)
}

// StartingPosition returns the graph position of the first aligned base.
func (ext *GaplessExtension) StartingPosition() graph.Pos {
	if len(ext.Path) == 0 {
		return graph.NoPos
	}
	return graph.NewPos(ext.Path[0], ext.Offset)
}

// TailOffset returns the offset in the last node after the last aligned base.
func (ext *GaplessExtension) TailOffset(g graph.Graph) int {
	if len(ext.Path) == 0 {
		return 0
	}
	readOffset := ext.ReadInterval.Start
	nodeOffset := ext.Offset
	for _, h := range ext.Path {
		readOffset += g.Length(h) - nodeOffset
		nodeOffset = 0
	}
	return g.Length(ext.Path[len(ext.Path)-1]) - (readOffset - ext.ReadInterval.End)
}

// TailPosition returns the graph position after the last aligned base.
func (ext *GaplessExtension) TailPosition(g graph.Graph) graph.Pos {
	if len(ext.Path) == 0 {
		return graph.NoPos
	}
	return graph.NewPos(ext.Path[len(ext.Path)-1], ext.TailOffset(g))
}

// Contains returns true if the extension aligns the seed base to the
// seed position.
func (ext *GaplessExtension) Contains(g graph.Graph, seed Seed) bool {
	expectedHandle := seed.Pos.Handle()
	expectedReadOffset, expectedNodeOffset := seed.normalize()

	readOffset := ext.ReadInterval.Start
	nodeOffset := ext.Offset
	for _, h := range ext.Path {
		length := g.Length(h) - nodeOffset
		readOffset += length
		nodeOffset += length
		if h == expectedHandle && readOffset-expectedReadOffset == nodeOffset-expectedNodeOffset {
			return true
		}
		nodeOffset = 0
	}
	return false
}

// Overlap returns the number of read bases that both extensions align to
// the same graph positions.
func (ext *GaplessExtension) Overlap(g graph.Graph, other *GaplessExtension) int {
	if ext.ReadInterval.Overlap(other.ReadInterval) == 0 {
		return 0
	}

	result := 0
	readOffset := ext.ReadInterval.Start
	nodeOffset := ext.Offset
	otherReadOffset := other.ReadInterval.Start
	otherNodeOffset := other.Offset
	for i, j := 0, 0; i < len(ext.Path) && j < len(other.Path); {
		len1 := g.Length(ext.Path[i]) - nodeOffset
		len2 := g.Length(other.Path[j]) - otherNodeOffset
		if ext.Path[i] == other.Path[j] && readOffset-nodeOffset == otherReadOffset-otherNodeOffset {
			end := readOffset + len1
			if otherEnd := otherReadOffset + len2; otherEnd < end {
				end = otherEnd
			}
			if ext.ReadInterval.End < end {
				end = ext.ReadInterval.End
			}
			if other.ReadInterval.End < end {
				end = other.ReadInterval.End
			}
			start := readOffset
			if otherReadOffset > start {
				start = otherReadOffset
			}
			if end > start {
				result += end - start
			}
		}
		switch {
		case readOffset+len1 <= otherReadOffset+len2:
			readOffset += len1
			nodeOffset = 0
			i++
		default:
			otherReadOffset += len2
			otherNodeOffset = 0
			j++
		}
	}
	return result
}

// ToPath converts the extension into an alignment path. Each node gets
// its own mapping, and mismatches become single base substitutions with
// the read base.
func (ext *GaplessExtension) ToPath(g graph.Graph, read string) (result alignment.Path) {
	mismatches := ext.MismatchPositions
	m := 0
	readOffset := ext.ReadInterval.Start
	nodeOffset := ext.Offset
	for _, h := range ext.Path {
		end := ext.ReadInterval.End
		if nodeEnd := readOffset + g.Length(h) - nodeOffset; nodeEnd < end {
			end = nodeEnd
		}
		mapping := result.Append(graph.NewPos(h, nodeOffset))
		for readOffset < end {
			for m < len(mismatches) && mismatches[m] < readOffset {
				m++
			}
			next := end
			if m < len(mismatches) && mismatches[m] < next {
				next = mismatches[m]
			}
			if next > readOffset {
				mapping.Edits = append(mapping.Edits, alignment.Match(next-readOffset))
				readOffset = next
			}
			if m < len(mismatches) && mismatches[m] == readOffset && readOffset < end {
				mapping.Edits = append(mapping.Edits, alignment.Substitution(read[readOffset]))
				readOffset++
				m++
			}
		}
		nodeOffset = 0
	}
	return result
}

// Alignment converts the extension into an alignment record.
func (ext *GaplessExtension) Alignment(g graph.Graph, read string) alignment.Alignment {
	return alignment.Alignment{Path: ext.ToPath(g, read), Score: ext.Score}
}
