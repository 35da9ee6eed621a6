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

import "github.com/bits-and-blooms/bitset"

// DefaultValidChars are the read characters that may match the graph.
const DefaultValidChars = "ACGT"

// ReadMasker replaces invalid characters in reads with X, so that they
// never match a graph base.
type ReadMasker struct {
	valid *bitset.BitSet
}

// NewReadMasker returns a masker that keeps the given characters.
func NewReadMasker(validChars string) *ReadMasker {
	valid := bitset.New(256)
	for i := 0; i < len(validChars); i++ {
		valid.Set(uint(validChars[i]))
	}
	return &ReadMasker{valid: valid}
}

// Mask returns a masked copy of seq.
func (m *ReadMasker) Mask(seq string) []byte {
	result := []byte(seq)
	for i, c := range result {
		if !m.valid.Test(uint(c)) {
			result[i] = 'X'
		}
	}
	return result
}
