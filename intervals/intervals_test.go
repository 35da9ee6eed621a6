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

import "testing"

func TestLength(t *testing.T) {
	if (Interval{2, 2}).Length() != 0 {
		t.Error("empty Length failed")
	}
	if (Interval{3, 2}).Length() != 0 {
		t.Error("inverted Length failed")
	}
	if (Interval{2, 5}).Length() != 3 {
		t.Error("Length failed")
	}
	if !(Interval{4, 4}).Empty() || (Interval{4, 5}).Empty() {
		t.Error("Empty failed")
	}
}

func TestContains(t *testing.T) {
	interval := Interval{2, 4}
	if interval.Contains(1) {
		t.Error("Contains 1 failed")
	}
	if !interval.Contains(2) {
		t.Error("Contains 2 failed")
	}
	if !interval.Contains(3) {
		t.Error("Contains 3 failed")
	}
	if interval.Contains(4) {
		t.Error("Contains 4 failed")
	}
}

func TestLess(t *testing.T) {
	if !(Interval{1, 5}).Less(Interval{2, 3}) {
		t.Error("Less 1 failed")
	}
	if !(Interval{2, 3}).Less(Interval{2, 4}) {
		t.Error("Less 2 failed")
	}
	if (Interval{2, 4}).Less(Interval{2, 4}) {
		t.Error("Less 3 failed")
	}
	if (Interval{3, 4}).Less(Interval{2, 8}) {
		t.Error("Less 4 failed")
	}
}

func TestIntersect(t *testing.T) {
	if (Interval{1, 3}).Intersect(Interval{4, 6}).Length() != 0 {
		t.Error("Intersect 1 failed")
	}
	if (Interval{2, 4}).Intersect(Interval{1, 3}) != (Interval{2, 3}) {
		t.Error("Intersect 2 failed")
	}
	if (Interval{2, 8}).Intersect(Interval{3, 5}) != (Interval{3, 5}) {
		t.Error("Intersect 3 failed")
	}
	if (Interval{2, 4}).Intersect(Interval{4, 6}) != (Interval{4, 4}) {
		t.Error("Intersect 4 failed")
	}
}

func TestOverlap(t *testing.T) {
	if (Interval{1, 3}).Overlap(Interval{7, 8}) != 0 {
		t.Error("Overlap 1 failed")
	}
	if (Interval{2, 4}).Overlap(Interval{1, 3}) != 1 {
		t.Error("Overlap 2 failed")
	}
	if (Interval{2, 4}).Overlap(Interval{4, 6}) != 0 {
		t.Error("Overlap 3 failed")
	}
	if (Interval{2, 8}).Overlap(Interval{1, 10}) != 6 {
		t.Error("Overlap 4 failed")
	}
	if (Interval{1, 10}).Overlap(Interval{2, 8}) != (Interval{2, 8}).Overlap(Interval{1, 10}) {
		t.Error("Overlap 5 failed")
	}
}
