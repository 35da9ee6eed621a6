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
	"log"

	"github.com/exascience/hapalign/alignment"
	"github.com/exascience/hapalign/graph"
)

// EditOp is the type of a WFA edit.
type EditOp uint8

// Edit operations.
const (
	MatchOp EditOp = iota
	MismatchOp
	InsertionOp
	DeletionOp
)

func (op EditOp) String() string {
	switch op {
	case MatchOp:
		return "M"
	case MismatchOp:
		return "X"
	case InsertionOp:
		return "I"
	case DeletionOp:
		return "D"
	default:
		return "?"
	}
}

// WFAEdit is a run of edits of the same type.
type WFAEdit struct {
	Op     EditOp
	Length int
}

/*
WFAAlignment is an alignment of part of a read to a haplotype path.

The alignment starts at NodeOffset of the first node on Path and covers
Length read bases starting from SeqOffset. Edits is the edit script in
alignment order, with adjacent edits of the same type merged.
*/
type WFAAlignment struct {
	Path       []graph.Handle
	Edits      []WFAEdit
	NodeOffset int
	SeqOffset  int
	Length     int
	Score      int32
}

// FromGapless converts a gapless extension with known mismatch
// positions into a WFAAlignment.
func FromGapless(ext *GaplessExtension) WFAAlignment {
	result := WFAAlignment{
		Path:       append([]graph.Handle(nil), ext.Path...),
		NodeOffset: ext.Offset,
		SeqOffset:  ext.ReadInterval.Start,
		Length:     ext.Length(),
		Score:      ext.Score,
	}
	cursor := ext.ReadInterval.Start
	for _, mismatch := range ext.MismatchPositions {
		result.Append(MatchOp, mismatch-cursor)
		result.Append(MismatchOp, 1)
		cursor = mismatch + 1
	}
	result.Append(MatchOp, ext.ReadInterval.End-cursor)
	return result
}

// Empty returns true if the alignment has no path.
func (a *WFAAlignment) Empty() bool {
	return len(a.Path) == 0
}

// Append adds an edit at the end, merging it into the last edit if
// possible. Empty edits are ignored.
func (a *WFAAlignment) Append(op EditOp, length int) {
	if length <= 0 {
		return
	}
	if n := len(a.Edits); n > 0 && a.Edits[n-1].Op == op {
		a.Edits[n-1].Length += length
		return
	}
	a.Edits = append(a.Edits, WFAEdit{Op: op, Length: length})
}

// ReadLength returns the number of read bases consumed by the edits.
func (a *WFAAlignment) ReadLength() (result int) {
	for _, e := range a.Edits {
		if e.Op != DeletionOp {
			result += e.Length
		}
	}
	return result
}

// GraphLength returns the number of graph bases consumed by the edits.
func (a *WFAAlignment) GraphLength() (result int) {
	for _, e := range a.Edits {
		if e.Op != InsertionOp {
			result += e.Length
		}
	}
	return result
}

// FinalOffset returns the offset in the last node after the alignment.
func (a *WFAAlignment) FinalOffset(g graph.Graph) int {
	result := a.NodeOffset + a.GraphLength()
	for i := 0; i+1 < len(a.Path); i++ {
		result -= g.Length(a.Path[i])
	}
	return result
}

// CheckLengths returns true if the edit script is consistent with the
// read interval and the path. An alignment without graph bases stays at
// its starting position in the only node of its path.
func (a *WFAAlignment) CheckLengths(g graph.Graph) bool {
	if a.ReadLength() != a.Length {
		return false
	}
	if len(a.Path) == 0 {
		return a.GraphLength() == 0
	}
	final := a.FinalOffset(g)
	if a.GraphLength() == 0 {
		return len(a.Path) == 1 && final >= 0 && final <= g.Length(a.Path[0])
	}
	return final > 0 && final <= g.Length(a.Path[len(a.Path)-1])
}

// Flip turns the alignment into an alignment of the reverse complement
// of the read, which must have the given length.
func (a *WFAAlignment) Flip(g graph.Graph, readLength int) {
	if a.Empty() {
		return
	}
	a.SeqOffset = readLength - a.SeqOffset - a.Length
	a.NodeOffset = g.Length(a.Path[len(a.Path)-1]) - a.FinalOffset(g)
	for i, j := 0, len(a.Path)-1; i <= j; i, j = i+1, j-1 {
		a.Path[i], a.Path[j] = a.Path[j].Flip(), a.Path[i].Flip()
	}
	for i, j := 0, len(a.Edits)-1; i < j; i, j = i+1, j-1 {
		a.Edits[i], a.Edits[j] = a.Edits[j], a.Edits[i]
	}
}

/*
JoinOnSharedMatch appends other to a, assuming that other starts with
an exact match that overlaps the exact match at the end of a in both
the read and the graph. The score of the overlapping bases is only
counted once.
*/
func (a *WFAAlignment) JoinOnSharedMatch(g graph.Graph, other *WFAAlignment, matchScore int32) {
	if a.Empty() {
		*a = *other
		return
	}
	if other.Empty() {
		return
	}
	if len(a.Edits) == 0 || a.Edits[len(a.Edits)-1].Op != MatchOp || len(other.Edits) == 0 || other.Edits[0].Op != MatchOp {
		log.Panicf("wfa alignment: cannot join alignments without a shared match")
	}
	overlap := a.SeqOffset + a.Length - other.SeqOffset
	if overlap < 0 || overlap > a.Edits[len(a.Edits)-1].Length || overlap > other.Edits[0].Length {
		log.Panicf("wfa alignment: invalid overlap %v between alignments", overlap)
	}

	// Skip the shared part of the path in other.
	offset := other.NodeOffset + overlap
	first := 0
	for first < len(other.Path) && offset >= g.Length(other.Path[first]) && first+1 < len(other.Path) {
		offset -= g.Length(other.Path[first])
		first++
	}
	if offset > g.Length(other.Path[first]) {
		log.Panicf("wfa alignment: shared match extends past the path")
	}
	last := a.Path[len(a.Path)-1]
	finalOffset := a.FinalOffset(g)
	switch {
	case last == other.Path[first] && finalOffset == offset:
		a.Path = append(a.Path, other.Path[first+1:]...)
	case finalOffset == g.Length(last) && offset == 0:
		a.Path = append(a.Path, other.Path[first:]...)
	default:
		log.Panicf("wfa alignment: alignments do not meet at %v:%v", last, finalOffset)
	}

	a.Edits[len(a.Edits)-1].Length += other.Edits[0].Length - overlap
	a.Edits = append(a.Edits, other.Edits[1:]...)
	a.Length += other.Length - overlap
	a.Score += other.Score - int32(overlap)*matchScore
}

// ToPath converts the alignment into an alignment path for the given
// read. Each node gets its own mapping.
func (a *WFAAlignment) ToPath(g graph.Graph, read string) (result alignment.Path) {
	if a.Empty() {
		return result
	}
	node := 0
	nodeOffset := a.NodeOffset
	readOffset := a.SeqOffset
	mapping := result.Append(graph.NewPos(a.Path[0], nodeOffset))

	// advance returns the number of graph bases available in the current
	// node, moving to the next node if needed.
	advance := func() int {
		if nodeOffset >= g.Length(a.Path[node]) {
			node++
			if node >= len(a.Path) {
				log.Panicf("wfa alignment: edits extend past the path")
			}
			nodeOffset = 0
			mapping = result.Append(graph.NewPos(a.Path[node], 0))
		}
		return g.Length(a.Path[node]) - nodeOffset
	}

	for _, e := range a.Edits {
		if e.Op == InsertionOp {
			mapping.Edits = append(mapping.Edits, alignment.Insertion(read[readOffset:readOffset+e.Length]))
			readOffset += e.Length
			continue
		}
		for left := e.Length; left > 0; {
			n := advance()
			if n > left {
				n = left
			}
			switch e.Op {
			case MatchOp:
				mapping.Edits = append(mapping.Edits, alignment.Match(n))
				readOffset += n
			case MismatchOp:
				for i := 0; i < n; i++ {
					mapping.Edits = append(mapping.Edits, alignment.Substitution(read[readOffset]))
					readOffset++
				}
			case DeletionOp:
				mapping.Edits = append(mapping.Edits, alignment.Deletion(n))
			}
			nodeOffset += n
			left -= n
		}
	}
	return result
}
