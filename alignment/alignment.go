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
Package alignment defines the output format of the aligners: a Path of
node Mappings, each with a list of Edits relative to the node sequence,
and an integer score.
*/
package alignment

import (
	"strconv"
	"strings"

	"github.com/exascience/hapalign/graph"
)

// Edit is one operation in a mapping. FromLength counts graph bases,
// ToLength counts read bases, Sequence holds the read bases of
// substitutions and insertions.
type Edit struct {
	FromLength, ToLength int
	Sequence             string
}

// Match returns an exact match of length n.
func Match(n int) Edit {
	return Edit{FromLength: n, ToLength: n}
}

// Substitution returns a single base substitution with the given read base.
func Substitution(base byte) Edit {
	return Edit{FromLength: 1, ToLength: 1, Sequence: string([]byte{base})}
}

// Insertion returns an insertion of the given read bases.
func Insertion(seq string) Edit {
	return Edit{ToLength: len(seq), Sequence: seq}
}

// Deletion returns a deletion of n graph bases.
func Deletion(n int) Edit {
	return Edit{FromLength: n}
}

// IsMatch returns true for exact matches.
func (e Edit) IsMatch() bool {
	return e.FromLength == e.ToLength && e.Sequence == ""
}

// IsSubstitution returns true for substitutions.
func (e Edit) IsSubstitution() bool {
	return e.FromLength == e.ToLength && e.FromLength > 0 && e.Sequence != ""
}

// IsInsertion returns true for insertions.
func (e Edit) IsInsertion() bool {
	return e.FromLength == 0 && e.ToLength > 0
}

// IsDeletion returns true for deletions.
func (e Edit) IsDeletion() bool {
	return e.FromLength > 0 && e.ToLength == 0
}

func (e Edit) String() string {
	switch {
	case e.IsMatch():
		return strconv.Itoa(e.FromLength)
	case e.IsInsertion():
		return "+" + e.Sequence
	case e.IsDeletion():
		return "-" + strconv.Itoa(e.FromLength)
	default:
		return e.Sequence
	}
}

// Mapping aligns part of the read to a single node, starting at Position.
type Mapping struct {
	Position graph.Pos
	Edits    []Edit
	Rank     int
}

// FromLength returns the number of graph bases in the mapping.
func (m *Mapping) FromLength() (result int) {
	for _, e := range m.Edits {
		result += e.FromLength
	}
	return result
}

// ToLength returns the number of read bases in the mapping.
func (m *Mapping) ToLength() (result int) {
	for _, e := range m.Edits {
		result += e.ToLength
	}
	return result
}

// EditString returns the edits in compact notation, for example "1A1"
// for a match, a substitution with A, and another match.
func (m *Mapping) EditString() string {
	var sb strings.Builder
	for _, e := range m.Edits {
		sb.WriteString(e.String())
	}
	return sb.String()
}

// Path is an ordered list of mappings.
type Path struct {
	Mappings []Mapping
}

// Append adds a mapping at the end of the path and sets its rank.
func (p *Path) Append(pos graph.Pos) *Mapping {
	p.Mappings = append(p.Mappings, Mapping{Position: pos, Rank: len(p.Mappings) + 1})
	return &p.Mappings[len(p.Mappings)-1]
}

// FromLength returns the number of graph bases in the path.
func (p *Path) FromLength() (result int) {
	for i := range p.Mappings {
		result += p.Mappings[i].FromLength()
	}
	return result
}

// ToLength returns the number of read bases in the path.
func (p *Path) ToLength() (result int) {
	for i := range p.Mappings {
		result += p.Mappings[i].ToLength()
	}
	return result
}

// Empty returns true if the path has no mappings.
func (p *Path) Empty() bool {
	return len(p.Mappings) == 0
}

func (p *Path) String() string {
	var sb strings.Builder
	for i := range p.Mappings {
		if i > 0 {
			sb.WriteByte(' ')
		}
		m := &p.Mappings[i]
		sb.WriteString(m.Position.String())
		sb.WriteByte('/')
		sb.WriteString(m.EditString())
	}
	return sb.String()
}

// Alignment is an aligned read: the path and its score.
type Alignment struct {
	Path  Path
	Score int32
}
