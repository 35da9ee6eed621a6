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

package intervals

// Interval is a half-open range [Start, End) of read positions.
type Interval struct {
	Start, End int
}

// Length returns the number of positions in the interval.
func (interval Interval) Length() int {
	if interval.End <= interval.Start {
		return 0
	}
	return interval.End - interval.Start
}

// Empty returns true if the interval contains no positions.
func (interval Interval) Empty() bool {
	return interval.End <= interval.Start
}

// Contains returns true if pos is in the interval.
func (interval Interval) Contains(pos int) bool {
	return pos >= interval.Start && pos < interval.End
}

// Less orders intervals by Start, then by End.
func (interval Interval) Less(other Interval) bool {
	return interval.Start < other.Start || (interval.Start == other.Start && interval.End < other.End)
}

// Intersect returns the overlap of the two intervals, which may be empty.
func (interval Interval) Intersect(other Interval) Interval {
	result := interval
	if other.Start > result.Start {
		result.Start = other.Start
	}
	if other.End < result.End {
		result.End = other.End
	}
	if result.End < result.Start {
		result.End = result.Start
	}
	return result
}

// Overlap returns the number of positions shared by the two intervals.
func (interval Interval) Overlap(other Interval) int {
	return interval.Intersect(other).Length()
}
