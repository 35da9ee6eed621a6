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
Package extender aligns reads to a haplotype-indexed pangenome graph.

GaplessExtender extends seeds into gapless alignments along haplotype
paths, and WFAExtender connects or extends such alignments with gaps
using a wavefront alignment over a lazily expanded tree of haplotype
paths. Only paths that are consistent with at least one indexed
haplotype are ever considered.

Extenders are immutable after construction and can be shared between
goroutines. The graph.Cache passed to or created by a single call must
not be shared.
*/
package extender

import (
	"log"
	"sort"

	"github.com/exascience/hapalign/graph"
	"github.com/exascience/hapalign/intervals"
	"github.com/exascience/hapalign/scoring"
)

// Default parameters for Extend.
const (
	DefaultMaxMismatches    = 4
	DefaultOverlapThreshold = 0.8
)

// GaplessExtender extends seeds into gapless alignments.
type GaplessExtender struct {
	graph   graph.Graph
	aligner *scoring.Aligner
	mask    *ReadMasker
}

// NewGaplessExtender returns an extender for the given graph and
// scoring parameters.
func NewGaplessExtender(g graph.Graph, aligner *scoring.Aligner) *GaplessExtender {
	return &GaplessExtender{graph: g, aligner: aligner, mask: NewReadMasker(DefaultValidChars)}
}

func (e *GaplessExtender) setScore(ext *GaplessExtension) {
	a := e.aligner
	ext.Score = int32(ext.Length())*a.Match - int32(ext.InternalScore)*(a.Match+a.Mismatch)
	if ext.LeftFull {
		ext.Score += a.FullLengthBonus
	}
	if ext.RightFull {
		ext.Score += a.FullLengthBonus
	}
}

// matchInitial matches the read forward from the start of the extension
// within the given node, without a mismatch limit.
func matchInitial(ext *GaplessExtension, seq, target []byte) {
	left := len(seq) - ext.ReadInterval.End
	if available := len(target) - ext.Offset; available < left {
		left = available
	}
	read := seq[ext.ReadInterval.End : ext.ReadInterval.End+left]
	node := target[ext.Offset : ext.Offset+left]
	for i := 0; i < left; {
		i += matchLength(read[i:], node[i:])
		if i < left {
			ext.InternalScore++
			i++
		}
	}
	ext.ReadInterval.End += left
	ext.OldScore = ext.InternalScore
}

// matchForward matches the read forward from the start of target, and
// stops before the mismatch that would reach the limit. It returns the
// offset in target after the match.
func matchForward(ext *GaplessExtension, seq, target []byte, limit int) int {
	start := ext.ReadInterval.End
	left := len(seq) - start
	if len(target) < left {
		left = len(target)
	}
	read := seq[start : start+left]
	i := 0
	for i < left {
		i += matchLength(read[i:], target[i:left])
		if i >= left || ext.InternalScore+1 >= limit {
			break
		}
		ext.InternalScore++
		i++
	}
	ext.ReadInterval.End = start + i
	return i
}

// matchBackward matches the read backward from ext.Offset in target, and
// stops before the mismatch that would reach the limit.
func matchBackward(ext *GaplessExtension, seq, target []byte, limit int) {
	left := ext.ReadInterval.Start
	if ext.Offset < left {
		left = ext.Offset
	}
	read := seq[ext.ReadInterval.Start-left : ext.ReadInterval.Start]
	node := target[ext.Offset-left : ext.Offset]
	i := 0
	for i < left {
		i += suffixMatchLength(read[:left-i], node[:left-i])
		if i >= left || ext.InternalScore+1 >= limit {
			break
		}
		ext.InternalScore++
		i++
	}
	ext.ReadInterval.Start -= i
	ext.Offset -= i
}

func mismatchLimit(maxMismatches, oldScore int) int {
	limit := maxMismatches/2 + oldScore + 1
	if limit < maxMismatches+1 {
		return maxMismatches + 1
	}
	return limit
}

// better returns true if ext is a better maximal extension than other:
// full length first, then fewer mismatches, then a higher score.
func better(ext, other *GaplessExtension) bool {
	if ext.Full() != other.Full() {
		return ext.Full()
	}
	if ext.InternalScore != other.InternalScore {
		return ext.InternalScore < other.InternalScore
	}
	return ext.Score > other.Score
}

/*
Extend extends the seeds of a read into gapless alignments that are
consistent with the haplotypes in the graph.

If a full-length alignment with at most maxMismatches mismatches exists,
the result contains only such alignments, best first, after dropping
every alignment that shares more than overlapThreshold of the length of
a better one. Otherwise the result contains the maximal
extension of each seed, deduplicated and trimmed to the highest scoring
interval.

The cache may be nil, in which case a temporary cache is used.
*/
func (e *GaplessExtender) Extend(seeds []Seed, read string, cache *graph.Cache, maxMismatches int, overlapThreshold float64) []GaplessExtension {
	if e == nil || e.graph == nil || e.aligner == nil || len(seeds) == 0 || len(read) == 0 {
		return nil
	}
	if cache == nil {
		cache = graph.NewCache(e.graph)
	}
	seq := e.mask.Mask(read)

	result := make([]GaplessExtension, 0, len(seeds))
	bestAlignment := -1
	for _, seed := range seeds {
		readOffset, nodeOffset := seed.normalize()
		h := seed.Pos.Handle()
		if !cache.HasNode(h.ID) || readOffset >= len(seq) || nodeOffset >= cache.Length(h) {
			continue
		}
		if bestAlignment >= 0 && result[bestAlignment].InternalScore == 0 && result[bestAlignment].Contains(cache, seed) {
			continue
		}

		var best GaplessExtension
		haveBest := false
		queue := &extensionQueue{}
		{
			match := GaplessExtension{
				Path:         []graph.Handle{h},
				Offset:       nodeOffset,
				State:        cache.State(h),
				ReadInterval: intervals.Interval{Start: readOffset, End: readOffset},
				LeftFull:     readOffset == 0,
				LeftMaximal:  readOffset == 0 || nodeOffset > 0,
			}
			matchInitial(&match, seq, cache.Sequence(h))
			if match.ReadInterval.End >= len(seq) {
				match.RightFull = true
				match.RightMaximal = true
			} else if match.Offset+match.Length() < cache.Length(h) {
				match.RightMaximal = true
			}
			e.setScore(&match)
			queue.push(match)
		}

		for queue.Len() > 0 {
			curr := queue.pop()
			limit := mismatchLimit(maxMismatches, curr.OldScore)

			if !curr.RightMaximal {
				extensions := 0
				cache.FollowPaths(curr.State, false, func(next graph.SearchState) bool {
					h := next.Last()
					ext := curr
					ext.State = next
					nodeOffset := matchForward(&ext, seq, cache.Sequence(h), limit)
					if nodeOffset == 0 {
						return true
					}
					ext.Path = make([]graph.Handle, len(curr.Path), len(curr.Path)+1)
					copy(ext.Path, curr.Path)
					ext.Path = append(ext.Path, h)
					if ext.ReadInterval.End >= len(seq) {
						ext.RightFull = true
						ext.RightMaximal = true
						ext.OldScore = ext.InternalScore
					} else if nodeOffset < cache.Length(h) {
						ext.RightMaximal = true
						ext.OldScore = ext.InternalScore
					}
					e.setScore(&ext)
					extensions += next.Size()
					queue.push(ext)
					return true
				})
				// Haplotypes that could not be extended keep the current match alive.
				if extensions < curr.State.Size() {
					curr.RightMaximal = true
					curr.OldScore = curr.InternalScore
					queue.push(curr)
				}
				continue
			}

			if !curr.LeftMaximal {
				found := false
				cache.FollowPaths(curr.State, true, func(next graph.SearchState) bool {
					h := next.First()
					nodeLength := cache.Length(h)
					ext := curr
					ext.State = next
					ext.Offset = nodeLength
					matchBackward(&ext, seq, cache.Sequence(h), limit)
					if ext.Offset >= nodeLength {
						return true
					}
					ext.Path = make([]graph.Handle, 0, len(curr.Path)+1)
					ext.Path = append(ext.Path, h)
					ext.Path = append(ext.Path, curr.Path...)
					if ext.ReadInterval.Start == 0 {
						ext.LeftFull = true
						ext.LeftMaximal = true
						ext.OldScore = ext.InternalScore
					} else if ext.Offset > 0 {
						ext.LeftMaximal = true
						ext.OldScore = ext.InternalScore
					}
					e.setScore(&ext)
					queue.push(ext)
					found = true
					return true
				})
				if found {
					continue
				}
				curr.LeftMaximal = true
				curr.OldScore = curr.InternalScore
			}

			if !haveBest || better(&curr, &best) {
				best = curr
				haveBest = true
			}
		}

		if haveBest && !best.Empty() {
			if best.Full() && (bestAlignment < 0 || best.InternalScore < result[bestAlignment].InternalScore) {
				bestAlignment = len(result)
			}
			result = append(result, best)
		}
	}

	if bestAlignment >= 0 && result[bestAlignment].InternalScore <= maxMismatches {
		result = handleFullLength(cache, result, maxMismatches, overlapThreshold)
		findMismatches(seq, cache, result)
		return result
	}

	result = removeDuplicates(result)
	findMismatches(seq, cache, result)
	trimmed := false
	for i := range result {
		if e.trimMismatches(&result[i], cache) {
			trimmed = true
		}
	}
	if trimmed {
		result = removeDuplicates(result)
	}
	return result
}

// FullLengthExtensions returns true if result contains full-length
// extensions with at most maxMismatches mismatches.
func (e *GaplessExtender) FullLengthExtensions(result []GaplessExtension, maxMismatches int) bool {
	return len(result) > 0 && result[0].Full() && result[0].Mismatches() <= maxMismatches
}

/*
MaximalExtensions extends each seed into a maximal exact match that is
consistent with the haplotypes in the graph. An extension stops at a
mismatch, at an end of the read, or where the read continues into more
than one node. The result is sorted by read interval, without
duplicates.

The cache may be nil, in which case a temporary cache is used.
*/
func (e *GaplessExtender) MaximalExtensions(seeds []Seed, read string, cache *graph.Cache) []GaplessExtension {
	if e == nil || e.graph == nil || e.aligner == nil || len(seeds) == 0 || len(read) == 0 {
		return nil
	}
	if cache == nil {
		cache = graph.NewCache(e.graph)
	}
	seq := e.mask.Mask(read)

	result := make([]GaplessExtension, 0, len(seeds))
	for _, seed := range seeds {
		h := seed.Pos.Handle()
		readOffset, nodeOffset := seed.ReadOffset, seed.Pos.Offset
		if !cache.HasNode(h.ID) || readOffset < 0 || readOffset >= len(seq) || nodeOffset < 0 || nodeOffset >= cache.Length(h) {
			continue
		}
		state := cache.State(h)
		if state.Empty() {
			continue
		}
		node := cache.Sequence(h)
		forward := matchLength(seq[readOffset:], node[nodeOffset:])
		if forward == 0 {
			continue
		}
		backward := suffixMatchLength(seq[:readOffset], node[:nodeOffset])
		ext := GaplessExtension{
			Path:         []graph.Handle{h},
			Offset:       nodeOffset - backward,
			State:        state,
			ReadInterval: intervals.Interval{Start: readOffset - backward, End: readOffset + forward},
		}
		tail := nodeOffset + forward
		for ext.ReadInterval.End < len(seq) && tail == len(node) {
			var next graph.SearchState
			candidates, length := 0, 0
			cache.FollowPaths(ext.State, false, func(s graph.SearchState) bool {
				if n := matchLength(seq[ext.ReadInterval.End:], cache.Sequence(s.Last())); n > 0 {
					next, length = s, n
					candidates++
				}
				return candidates < 2
			})
			if candidates != 1 {
				break
			}
			ext.Path = append(ext.Path, next.Last())
			ext.State = next
			ext.ReadInterval.End += length
			node = cache.Sequence(next.Last())
			tail = length
		}
		for ext.ReadInterval.Start > 0 && ext.Offset == 0 {
			var prev graph.SearchState
			candidates, length := 0, 0
			cache.FollowPaths(ext.State, true, func(s graph.SearchState) bool {
				if n := suffixMatchLength(seq[:ext.ReadInterval.Start], cache.Sequence(s.First())); n > 0 {
					prev, length = s, n
					candidates++
				}
				return candidates < 2
			})
			if candidates != 1 {
				break
			}
			ext.Path = append([]graph.Handle{prev.First()}, ext.Path...)
			ext.State = prev
			ext.Offset = cache.Length(prev.First()) - length
			ext.ReadInterval.Start -= length
		}
		ext.LeftFull = ext.ReadInterval.Start == 0
		ext.RightFull = ext.ReadInterval.End == len(seq)
		ext.LeftMaximal, ext.RightMaximal = true, true
		e.setScore(&ext)
		result = append(result, ext)
	}
	return removeDuplicates(result)
}

// handleFullLength keeps the full-length extensions with at most
// maxMismatches mismatches, best first, and drops those that overlap too
// much with a better one.
func handleFullLength(g graph.Graph, result []GaplessExtension, maxMismatches int, overlapThreshold float64) []GaplessExtension {
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Full() && result[j].Full() {
			return result[i].InternalScore < result[j].InternalScore
		}
		return result[i].Full() && !result[j].Full()
	})
	tail := 0
	for i := range result {
		if !result[i].Full() || result[i].InternalScore > maxMismatches {
			break
		}
		distinct := true
		for prev := 0; prev < tail; prev++ {
			if float64(result[i].Overlap(g, &result[prev])) > overlapThreshold*float64(result[prev].Length()) {
				distinct = false
				break
			}
		}
		if distinct {
			if i > tail {
				result[tail] = result[i]
			}
			tail++
		}
	}
	return result[:tail]
}

func stateLess(a, b graph.SearchState) bool {
	for _, pair := range [...][2]graph.State{{a.Backward, b.Backward}, {a.Forward, b.Forward}} {
		x, y := pair[0], pair[1]
		if x.Node != y.Node {
			return x.Node.Less(y.Node)
		}
		if x.Range.Start != y.Range.Start {
			return x.Range.Start < y.Range.Start
		}
		if x.Range.End != y.Range.End {
			return x.Range.End < y.Range.End
		}
	}
	return false
}

// removeDuplicates sorts the extensions and removes empty and duplicate
// extensions.
func removeDuplicates(result []GaplessExtension) []GaplessExtension {
	sort.SliceStable(result, func(i, j int) bool {
		x, y := &result[i], &result[j]
		if x.ReadInterval != y.ReadInterval {
			return x.ReadInterval.Less(y.ReadInterval)
		}
		if x.State != y.State {
			return stateLess(x.State, y.State)
		}
		return x.Offset < y.Offset
	})
	tail := 0
	for i := range result {
		if result[i].Empty() {
			continue
		}
		if tail > 0 {
			prev := &result[tail-1]
			if prev.ReadInterval == result[i].ReadInterval && prev.State == result[i].State && prev.Offset == result[i].Offset {
				continue
			}
		}
		if i > tail {
			result[tail] = result[i]
		}
		tail++
	}
	return result[:tail]
}

// findMismatches fills in the mismatch positions of inexact extensions.
func findMismatches(seq []byte, g graph.Graph, result []GaplessExtension) {
	for i := range result {
		ext := &result[i]
		ext.MismatchPositions = nil
		if ext.InternalScore == 0 {
			continue
		}
		readOffset := ext.ReadInterval.Start
		nodeOffset := ext.Offset
		for _, h := range ext.Path {
			node := g.Sequence(h)
			for nodeOffset < len(node) && readOffset < ext.ReadInterval.End {
				if node[nodeOffset] != seq[readOffset] {
					ext.MismatchPositions = append(ext.MismatchPositions, readOffset)
				}
				nodeOffset++
				readOffset++
			}
			nodeOffset = 0
		}
	}
}

// slicePath returns path[head:tail] and fails loudly on an invalid range.
func slicePath(path []graph.Handle, head, tail int) []graph.Handle {
	if head < 0 || tail > len(path) || head >= tail {
		log.Panicf("gapless extender: invalid path slice [%v, %v) of length %v", head, tail, len(path))
	}
	return append([]graph.Handle(nil), path[head:tail]...)
}

// trimMismatches trims the extension to the interval with the highest
// score. It returns true if the extension changed.
func (e *GaplessExtender) trimMismatches(ext *GaplessExtension, g graph.Graph) bool {
	if ext.Exact() {
		return false
	}
	a := e.aligner
	mismatches := ext.MismatchPositions

	current := intervals.Interval{Start: ext.ReadInterval.Start, End: mismatches[0]}
	currentScore := int32(current.Length()) * a.Match
	if ext.LeftFull {
		currentScore += a.FullLengthBonus
	}
	best, bestScore := current, currentScore
	for i := 0; i < len(mismatches); {
		if currentScore >= a.Mismatch {
			current.End++
			currentScore -= a.Mismatch
		} else {
			current = intervals.Interval{Start: mismatches[i] + 1, End: mismatches[i] + 1}
			currentScore = 0
		}
		i++
		if i == len(mismatches) {
			currentScore += int32(ext.ReadInterval.End-current.End) * a.Match
			current.End = ext.ReadInterval.End
			if ext.RightFull {
				currentScore += a.FullLengthBonus
			}
		} else {
			currentScore += int32(mismatches[i]-current.End) * a.Match
			current.End = mismatches[i]
		}
		if currentScore > bestScore || (currentScore > 0 && currentScore == bestScore && current.Length() > best.Length()) {
			best, bestScore = current, currentScore
		}
	}

	if best == ext.ReadInterval {
		return false
	}
	if best.Empty() {
		*ext = GaplessExtension{ReadInterval: best}
		return true
	}

	if best.Start > ext.ReadInterval.Start {
		ext.LeftFull = false
	}
	if best.End < ext.ReadInterval.End {
		ext.RightFull = false
	}

	// Find the nodes and the offset for the new interval.
	nodeOffset := ext.Offset
	readOffset := ext.ReadInterval.Start
	head := 0
	for ; head < len(ext.Path); head++ {
		nodeLength := g.Length(ext.Path[head])
		readOffset += nodeLength - nodeOffset
		nodeOffset = 0
		if readOffset > best.Start {
			ext.Offset = nodeLength - (readOffset - best.Start)
			break
		}
	}
	tail := head + 1
	for readOffset < best.End && tail < len(ext.Path) {
		readOffset += g.Length(ext.Path[tail])
		tail++
	}
	if readOffset < best.End {
		log.Panicf("gapless extender: interval [%v, %v) is not covered by the path", best.Start, best.End)
	}
	if head > 0 || tail < len(ext.Path) {
		ext.Path = slicePath(ext.Path, head, tail)
		ext.State = g.Find(ext.Path)
	}

	kept := ext.MismatchPositions[:0]
	for _, pos := range ext.MismatchPositions {
		if best.Contains(pos) {
			kept = append(kept, pos)
		}
	}
	ext.MismatchPositions = kept
	ext.InternalScore = len(kept)
	ext.OldScore = ext.InternalScore
	ext.ReadInterval = best
	ext.Score = bestScore
	return true
}
