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

package graph

type followKey struct {
	state    SearchState
	backward bool
}

/*
Cache is a Graph that memoizes sequence views and FollowPaths results
of an underlying Graph for the duration of a batch of queries.

A Cache is mutable state and must not be shared between goroutines
without external synchronization. Use one Cache per alignment call or
per worker.
*/
type Cache struct {
	graph      Graph
	sequences  map[Handle][]byte
	successors map[followKey][]SearchState
}

// NewCache returns an empty cache for g.
func NewCache(g Graph) *Cache {
	return &Cache{
		graph:      g,
		sequences:  make(map[Handle][]byte),
		successors: make(map[followKey][]SearchState),
	}
}

// Graph returns the underlying graph.
func (c *Cache) Graph() Graph {
	return c.graph
}

// HasNode implements Graph.
func (c *Cache) HasNode(id int64) bool {
	return c.graph.HasNode(id)
}

// Length implements Graph.
func (c *Cache) Length(h Handle) int {
	return len(c.Sequence(h))
}

// Sequence implements Graph.
func (c *Cache) Sequence(h Handle) []byte {
	if seq, ok := c.sequences[h]; ok {
		return seq
	}
	seq := c.graph.Sequence(h)
	c.sequences[h] = seq
	return seq
}

// State implements Graph.
func (c *Cache) State(h Handle) SearchState {
	return c.graph.State(h)
}

// Find implements Graph.
func (c *Cache) Find(path []Handle) SearchState {
	return c.graph.Find(path)
}

// FollowPaths implements Graph.
func (c *Cache) FollowPaths(state SearchState, backward bool, visit func(next SearchState) bool) bool {
	key := followKey{state, backward}
	next, ok := c.successors[key]
	if !ok {
		c.graph.FollowPaths(state, backward, func(s SearchState) bool {
			next = append(next, s)
			return true
		})
		c.successors[key] = next
	}
	for _, s := range next {
		if !visit(s) {
			return false
		}
	}
	return true
}

// Len returns the number of memoized entries.
func (c *Cache) Len() int {
	return len(c.sequences) + len(c.successors)
}
