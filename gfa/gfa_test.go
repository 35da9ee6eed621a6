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

package gfa

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/exascience/hapalign/graph"
	"github.com/exascience/hapalign/hapindex"
)

const toyGFA = `H	VN:Z:1.0
S	1	G
S	2	A
S	3	T
S	4	GGG
S	5	T
S	6	A
S	7	C
S	8	A
S	9	A
L	1	+	2	+	0M
L	1	+	4	+	0M
L	2	+	3	+	0M
L	2	+	4	+	0M
L	3	+	5	+	0M
L	4	+	5	+	0M
L	5	+	6	+	0M
L	6	+	7	+	0M
L	6	+	8	+	0M
L	7	+	9	+	0M
L	8	+	9	+	0M
P	short	1+,4+,5+,6+,7+,9+	*
W	sample	1	chr	0	8	>1>4>5>6>7>9
P	alt	1+,2+,4+,5+,6+,8+,9+	*
`

func TestParse(t *testing.T) {
	idx, err := Parse([]byte(toyGFA))
	if err != nil {
		t.Fatal(err)
	}
	if idx.NodeCount() != 9 || idx.PathCount() != 3 {
		t.Errorf("Parse counts failed: %v nodes, %v paths", idx.NodeCount(), idx.PathCount())
	}
	if string(idx.Sequence(graph.NewHandle(4, true))) != "CCC" {
		t.Error("Parse sequence failed")
	}
	if idx.State(graph.NewHandle(7, false)).Size() != 2 || idx.State(graph.NewHandle(8, false)).Size() != 1 {
		t.Error("Parse paths failed")
	}
}

func TestRead(t *testing.T) {
	idx, err := Read(strings.NewReader("S\t1\tACGT\r\nS\t2\tTT\r\n# comment\nP\tx\t1+,2-\t*\nQ\tcustom\nQ\tagain\n"))
	if err != nil {
		t.Fatal(err)
	}
	path := idx.Paths()[0]
	if len(path) != 2 || path[1] != graph.NewHandle(2, true) {
		t.Error("Read path failed")
	}
	if string(idx.Sequence(graph.NewHandle(1, false))) != "ACGT" {
		t.Error("Read carriage return failed")
	}
}

func TestParseWalk(t *testing.T) {
	path, err := parseWalk([]byte(">12<3>4"))
	if err != nil || len(path) != 3 || path[0] != graph.NewHandle(12, false) || path[1] != graph.NewHandle(3, true) {
		t.Error("parseWalk failed")
	}
	if _, err := parseWalk([]byte("12>3")); err == nil {
		t.Error("parseWalk without orientation failed")
	}
	if _, err := parsePathSteps([]byte("1+,2")); err == nil {
		t.Error("parsePathSteps without orientation failed")
	}
	if _, err := parsePathSteps([]byte("1+,x-")); err == nil {
		t.Error("parsePathSteps with invalid name failed")
	}
}

func TestParseWalksOnly(t *testing.T) {
	data := "H\tVN:Z:1.1\n" +
		"S\t1\tG\tLN:i:1\n" +
		"S\t2\tA\tLN:i:1\n" +
		"S\t4\tGGG\tLN:i:3\n" +
		"S\t5\tT\tLN:i:1\n" +
		"W\tNA12878\t1\tchr1\t0\t5\t>1>4>5\n" +
		"W\tNA12878\t2\tchr1\t0\t5\t<5<4<2\n"
	idx, err := Parse([]byte(data))
	if err != nil {
		t.Fatal(err)
	}
	if idx.NodeCount() != 4 || idx.PathCount() != 2 {
		t.Errorf("walks counts failed: %v nodes, %v paths", idx.NodeCount(), idx.PathCount())
	}
	if path := idx.Paths()[1]; len(path) != 3 || path[0] != graph.NewHandle(5, true) || path[2] != graph.NewHandle(2, true) {
		t.Error("reverse walk failed")
	}
	fwd := []graph.Handle{graph.NewHandle(4, false), graph.NewHandle(5, false)}
	if idx.Find(fwd).Size() != 2 || idx.State(graph.NewHandle(2, true)).Size() != 1 {
		t.Error("walks index failed")
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse([]byte("S\tseg1\tACGT\n")); err == nil {
		t.Error("non-integer segment name failed")
	}
	if _, err := Parse([]byte("S\t1\t*\n")); !errors.Is(err, hapindex.ErrEmptySequence) {
		t.Error("empty segment failed")
	}
	if _, err := Parse([]byte("S\t1\tA\nS\t1\tC\n")); !errors.Is(err, hapindex.ErrDuplicateNode) {
		t.Error("duplicate segment failed")
	}
	if _, err := Parse([]byte("S\t1\tA\nP\tx\t1+,2+\t*\n")); !errors.Is(err, hapindex.ErrUnknownNode) {
		t.Error("path with unknown segment failed")
	}
	if _, err := Parse([]byte("S\t1\tA\nL\t1\t+\t2\t+\t0M\n")); err == nil {
		t.Error("link with unknown segment failed")
	}
	_, err := Parse([]byte("S\t1\tA\nS\t2\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("short segment failed: %v", err)
	}
}

func TestParseFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "gfa")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	filename := filepath.Join(dir, "toy.gfa")
	if err := ioutil.WriteFile(filename, []byte(toyGFA), 0644); err != nil {
		t.Fatal(err)
	}
	idx, err := ParseFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	if idx.NodeCount() != 9 {
		t.Error("ParseFile failed")
	}

	empty := filepath.Join(dir, "empty.gfa")
	if err := ioutil.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if idx, err := ParseFile(empty); err != nil || idx.NodeCount() != 0 {
		t.Error("ParseFile of an empty file failed")
	}

	if _, err := ParseFile(filepath.Join(dir, "missing.gfa")); err == nil {
		t.Error("ParseFile of a missing file failed")
	}
}
