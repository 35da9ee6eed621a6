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
Package gfa builds haplotype indexes from GFA 1.0 files.

Segments must have positive integer names. Haplotypes are taken from P
(path) and W (walk) lines. L lines are checked for consistency but
otherwise ignored, because the index only allows traversals that are
spelled by a haplotype.
*/
package gfa

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"strconv"

	"github.com/exascience/hapalign/graph"
	"github.com/exascience/hapalign/hapindex"
	"github.com/exascience/hapalign/internal"
)

type link struct {
	line     int
	from, to int64
}

type haplotype struct {
	line int
	path []graph.Handle
}

type parser struct {
	builder *hapindex.Builder
	nodes   map[int64]bool
	links   []link
	paths   []haplotype
	skipped map[string]bool
}

// Read parses GFA text from r.
func Read(r io.Reader) (*hapindex.Index, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// ParseFile memory maps and parses the given GFA file.
func ParseFile(filename string) (idx *hapindex.Index, err error) {
	mapped, err := internal.MapFile(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := mapped.Close(); err == nil {
			err = nerr
		}
	}()
	idx, err = Parse(mapped.Data())
	if err != nil {
		return nil, fmt.Errorf("%v: %w", filename, err)
	}
	return idx, nil
}

// Parse parses GFA text. The index does not refer to data afterwards.
func Parse(data []byte) (*hapindex.Index, error) {
	p := &parser{
		builder: hapindex.NewBuilder(),
		nodes:   make(map[int64]bool),
		skipped: make(map[string]bool),
	}
	for lineNumber := 1; len(data) > 0; lineNumber++ {
		var line []byte
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			line, data = data, nil
		}
		line = bytes.TrimRight(line, "\r")
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		if err := p.parseLine(lineNumber, line); err != nil {
			return nil, err
		}
	}
	for _, l := range p.links {
		if !p.nodes[l.from] || !p.nodes[l.to] {
			return nil, fmt.Errorf("line %v: link between unknown segments %v and %v", l.line, l.from, l.to)
		}
	}
	for _, h := range p.paths {
		if err := p.builder.AddPath(h.path); err != nil {
			return nil, fmt.Errorf("line %v: %w", h.line, err)
		}
	}
	return p.builder.Build(), nil
}

func parseSegmentName(field []byte) (int64, error) {
	id, err := strconv.ParseInt(string(field), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("segment name %q is not a positive integer", field)
	}
	return id, nil
}

func (p *parser) parseLine(lineNumber int, line []byte) error {
	fields := bytes.Split(line, []byte("\t"))
	switch string(fields[0]) {
	case "H":
		return nil
	case "S":
		if len(fields) < 3 {
			return fmt.Errorf("line %v: segment with %v fields", lineNumber, len(fields))
		}
		id, err := parseSegmentName(fields[1])
		if err != nil {
			return fmt.Errorf("line %v: %w", lineNumber, err)
		}
		seq := fields[2]
		if len(seq) == 1 && seq[0] == '*' {
			seq = nil
		}
		if err := p.builder.AddNode(id, seq); err != nil {
			return fmt.Errorf("line %v: %w", lineNumber, err)
		}
		p.nodes[id] = true
	case "L":
		if len(fields) < 5 {
			return fmt.Errorf("line %v: link with %v fields", lineNumber, len(fields))
		}
		from, err := parseSegmentName(fields[1])
		if err != nil {
			return fmt.Errorf("line %v: %w", lineNumber, err)
		}
		to, err := parseSegmentName(fields[3])
		if err != nil {
			return fmt.Errorf("line %v: %w", lineNumber, err)
		}
		p.links = append(p.links, link{lineNumber, from, to})
	case "P":
		if len(fields) < 3 {
			return fmt.Errorf("line %v: path with %v fields", lineNumber, len(fields))
		}
		path, err := parsePathSteps(fields[2])
		if err != nil {
			return fmt.Errorf("line %v: %w", lineNumber, err)
		}
		p.paths = append(p.paths, haplotype{lineNumber, path})
	case "W":
		if len(fields) < 7 {
			return fmt.Errorf("line %v: walk with %v fields", lineNumber, len(fields))
		}
		path, err := parseWalk(fields[6])
		if err != nil {
			return fmt.Errorf("line %v: %w", lineNumber, err)
		}
		p.paths = append(p.paths, haplotype{lineNumber, path})
	default:
		if tag := string(fields[0]); !p.skipped[tag] {
			p.skipped[tag] = true
			log.Printf("gfa: skipping unsupported %q records", tag)
		}
	}
	return nil
}

// parsePathSteps parses P line steps such as 1+,4-,5+.
func parsePathSteps(field []byte) (path []graph.Handle, err error) {
	for _, step := range bytes.Split(field, []byte(",")) {
		if len(step) < 2 {
			return nil, fmt.Errorf("invalid path step %q", step)
		}
		var reverse bool
		switch step[len(step)-1] {
		case '+':
		case '-':
			reverse = true
		default:
			return nil, fmt.Errorf("invalid orientation in path step %q", step)
		}
		id, err := parseSegmentName(step[:len(step)-1])
		if err != nil {
			return nil, err
		}
		path = append(path, graph.NewHandle(id, reverse))
	}
	return path, nil
}

// parseWalk parses W line walks such as >1<4>5.
func parseWalk(field []byte) (path []graph.Handle, err error) {
	if len(field) == 0 || (field[0] != '>' && field[0] != '<') {
		return nil, fmt.Errorf("invalid walk %q", field)
	}
	for len(field) > 0 {
		reverse := field[0] == '<'
		end := 1
		for end < len(field) && field[end] != '>' && field[end] != '<' {
			end++
		}
		id, err := parseSegmentName(field[1:end])
		if err != nil {
			return nil, err
		}
		path = append(path, graph.NewHandle(id, reverse))
		field = field[end:]
	}
	return path, nil
}
