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
	"encoding/binary"
	"math/bits"
)

// matchLength returns the length of the longest common prefix of a and b.
func matchLength(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for ; i+8 <= n; i += 8 {
		if x := binary.LittleEndian.Uint64(a[i:]) ^ binary.LittleEndian.Uint64(b[i:]); x != 0 {
			return i + bits.TrailingZeros64(x)>>3
		}
	}
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// suffixMatchLength returns the length of the longest common suffix of a and b.
func suffixMatchLength(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i, j := len(a), len(b)
	for ; n >= 8; n -= 8 {
		if x := binary.LittleEndian.Uint64(a[i-8:]) ^ binary.LittleEndian.Uint64(b[j-8:]); x != 0 {
			return len(a) - i + bits.LeadingZeros64(x)>>3
		}
		i, j = i-8, j-8
	}
	for n > 0 && a[i-1] == b[j-1] {
		i, j, n = i-1, j-1, n-1
	}
	return len(a) - i
}
