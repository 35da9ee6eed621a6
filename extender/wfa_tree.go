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
	"math"
	"sort"

	"github.com/exascience/hapalign/graph"
	"github.com/exascience/hapalign/scoring"
)

// Wavefront types.
const (
	wfMatches = iota
	wfInsertions
	wfDeletions
)

// wfaPoint is a wavefront entry. The target offset is implied by the
// sequence offset and the diagonal.
type wfaPoint struct {
	score      int32
	diagonal   int32
	seqOffset  int
	nodeOffset int
}

func (p wfaPoint) targetOffset() int {
	return p.seqOffset - int(p.diagonal)
}

func (p wfaPoint) less(other wfaPoint) bool {
	return p.score < other.score || (p.score == other.score && p.diagonal < other.diagonal)
}

// alignmentScore converts the penalty of the point into an alignment score.
func (p wfaPoint) alignmentScore(match int32) int32 {
	return (match*int32(p.seqOffset+p.targetOffset()) - p.score) / 2
}

// matchPos is a position in the tree. The path holds tree node indices
// from a leaf at the bottom to the node containing the position at the top.
type matchPos struct {
	seqOffset  int
	nodeOffset int
	path       []int32
}

func (pos *matchPos) empty() bool {
	return len(pos.path) == 0
}

// atLastNode returns true if the position is at the leaf.
func (pos *matchPos) atLastNode() bool {
	return len(pos.path) == 1
}

func (pos *matchPos) node() int32 {
	return pos.path[len(pos.path)-1]
}

func (pos *matchPos) pop() {
	pos.path = pos.path[:len(pos.path)-1]
}

// furtherThan orders positions by sequence offset, empty positions first.
func (pos *matchPos) furtherThan(other *matchPos) bool {
	if other.empty() {
		return !pos.empty()
	}
	return !pos.empty() && pos.seqOffset > other.seqOffset
}

func maxPos(a, b matchPos) matchPos {
	if b.furtherThan(&a) {
		return b
	}
	return a
}

type wfaNode struct {
	state      graph.SearchState
	parent     int32
	children   []int32
	deadEnd    bool
	wavefronts [3][]wfaPoint
}

func (node *wfaNode) handle() graph.Handle {
	return node.state.Last()
}

func (node *wfaNode) expanded() bool {
	return len(node.children) > 0 || node.deadEnd
}

func (node *wfaNode) isLeaf() bool {
	return len(node.children) == 0
}

func (node *wfaNode) search(wf int, score, diagonal int32) (int, bool) {
	key := wfaPoint{score: score, diagonal: diagonal}
	points := node.wavefronts[wf]
	i := sort.Search(len(points), func(i int) bool { return !points[i].less(key) })
	return i, i < len(points) && points[i].score == score && points[i].diagonal == diagonal
}

func (node *wfaNode) find(wf int, score, diagonal int32) (wfaPoint, bool) {
	if i, ok := node.search(wf, score, diagonal); ok {
		return node.wavefronts[wf][i], true
	}
	return wfaPoint{}, false
}

func (node *wfaNode) update(wf int, score, diagonal int32, seqOffset, nodeOffset int) {
	point := wfaPoint{score: score, diagonal: diagonal, seqOffset: seqOffset, nodeOffset: nodeOffset}
	i, ok := node.search(wf, score, diagonal)
	if ok {
		node.wavefronts[wf][i] = point
		return
	}
	points := append(node.wavefronts[wf], wfaPoint{})
	copy(points[i+1:], points[i:])
	points[i] = point
	node.wavefronts[wf] = points
}

/*
wfaTree is a lazily expanded tree of haplotype paths from the start
node. Nodes are addressed by their index in the arena, with the root at
index 0.

Wavefront points are stored at the deepest node that contains them. A
point stored at a node also applies to the descendants that have not
diverged from it yet, so lookups continue from a leaf up to the root.
*/
type wfaTree struct {
	graph    graph.Graph
	sequence []byte
	nodes    []wfaNode

	candidatePoint wfaPoint
	candidateNode  int32

	match, mismatch, gapOpen, gapExtend int32
	scoreBound                          int32

	diagonals    [][2]int32
	maxDiagonals [2]int32
}

func newWFATree(g graph.Graph, sequence []byte, root graph.SearchState, nodeOffset int, aligner *scoring.Aligner, model *scoring.ErrorModel) *wfaTree {
	t := &wfaTree{
		graph:          g,
		sequence:       sequence,
		nodes:          []wfaNode{{state: root, parent: -1}},
		candidatePoint: wfaPoint{score: math.MaxInt32},
		candidateNode:  -1,
		match:          aligner.Match,
		mismatch:       2 * (aligner.Match + aligner.Mismatch),
		gapOpen:        2 * aligner.GapOpen,
		gapExtend:      2*aligner.GapExtension + aligner.Match,
		diagonals:      [][2]int32{{0, 0}},
	}
	t.scoreBound = model.Mismatches.Evaluate(len(sequence))*t.mismatch +
		model.Gaps.Evaluate(len(sequence))*t.gapOpen +
		model.GapLength.Evaluate(len(sequence))*t.gapExtend
	t.nodes[0].update(wfMatches, 0, 0, 0, nodeOffset)
	return t
}

func (t *wfaTree) nodeLength(node int32) int {
	return t.graph.Length(t.nodes[node].handle())
}

func (t *wfaTree) atDeadEnd(pos *matchPos) bool {
	node := &t.nodes[pos.node()]
	return pos.nodeOffset >= t.graph.Length(node.handle()) && node.deadEnd
}

// gapPenalty returns the penalty of an insertion of the given length.
func (t *wfaTree) gapPenalty(length int) int32 {
	return t.gapOpen + int32(length)*t.gapExtend
}

func (t *wfaTree) sameNode(node int32, pos graph.Pos) bool {
	return !pos.IsEmpty() && t.nodes[node].handle() == pos.Handle()
}

// leaves returns the indices of all leaves in the tree.
func (t *wfaTree) leaves() []int32 {
	var result []int32
	for i := range t.nodes {
		if t.nodes[i].isLeaf() {
			result = append(result, int32(i))
		}
	}
	return result
}

/*
findPos returns the position for the given wavefront point as seen
from the given node, which is usually a leaf. If extendableSeq is set, the position must have
sequence left. If extendableGraph is set, the position must not be at a
dead end in the graph.
*/
func (t *wfaTree) findPos(wf int, node int32, score, diagonal int32, extendableSeq, extendableGraph bool) matchPos {
	if score < 0 {
		return matchPos{}
	}
	var path []int32
	for {
		path = append(path, node)
		if point, ok := t.nodes[node].find(wf, score, diagonal); ok {
			pos := matchPos{seqOffset: point.seqOffset, nodeOffset: point.nodeOffset, path: path}
			// The end of an ancestor is the start of the next node towards the leaf.
			for !pos.atLastNode() && pos.nodeOffset >= t.nodeLength(pos.node()) {
				pos.pop()
				pos.nodeOffset = 0
			}
			if extendableSeq && pos.seqOffset >= len(t.sequence) {
				return matchPos{}
			}
			if extendableGraph && t.atDeadEnd(&pos) {
				return matchPos{}
			}
			return pos
		}
		if node == 0 {
			return matchPos{}
		}
		node = t.nodes[node].parent
	}
}

// matchForward extends the position with exact matches within the node.
func (t *wfaTree) matchForward(pos *matchPos) {
	seq := t.graph.Sequence(t.nodes[pos.node()].handle())
	if pos.seqOffset >= len(t.sequence) || pos.nodeOffset >= len(seq) {
		return
	}
	n := matchLength(t.sequence[pos.seqOffset:], seq[pos.nodeOffset:])
	pos.seqOffset += n
	pos.nodeOffset += n
}

// expand creates the children of a node if needed. It returns false if
// the node is a dead end.
func (t *wfaTree) expand(node int32) bool {
	if !t.nodes[node].expanded() {
		t.graph.FollowPaths(t.nodes[node].state, false, func(next graph.SearchState) bool {
			child := int32(len(t.nodes))
			t.nodes[node].children = append(t.nodes[node].children, child)
			t.nodes = append(t.nodes, wfaNode{state: next, parent: node})
			return true
		})
		if len(t.nodes[node].children) == 0 {
			t.nodes[node].deadEnd = true
		}
	}
	return !t.nodes[node].deadEnd
}

// propagate copies a position at the end of a leaf into the children of
// the leaf. It returns true if the position was propagated.
func (t *wfaTree) propagate(pos *matchPos, score, diagonal int32, wf int) bool {
	if !pos.atLastNode() || pos.nodeOffset < t.nodeLength(pos.node()) {
		return false
	}
	node := pos.node()
	if !t.expand(node) {
		return false
	}
	for _, child := range t.nodes[node].children {
		t.nodes[child].update(wf, score, diagonal, pos.seqOffset, 0)
	}
	return true
}

// recordCandidate keeps the point as the candidate if it is better.
func (t *wfaTree) recordCandidate(point wfaPoint, node int32) {
	if point.score < t.candidatePoint.score {
		t.candidatePoint = point
		t.candidateNode = node
	}
}

// extendOver extends the match wavefront points for the score and the
// diagonal as seen from each of the given leaves.
func (t *wfaTree) extendOver(score, diagonal int32, to graph.Pos, leaves []int32) {
	for _, leaf := range leaves {
		pos := t.findPos(wfMatches, leaf, score, diagonal, false, false)
		if pos.empty() {
			continue
		}
		for {
			node := pos.node()
			mayReachTo := t.sameNode(node, to) && pos.nodeOffset <= to.Offset
			t.matchForward(&pos)
			if (mayReachTo && pos.nodeOffset > to.Offset) || (to.IsEmpty() && pos.seqOffset >= len(t.sequence)) {
				overshoot := 0
				candidateOffset := pos.nodeOffset
				if !to.IsEmpty() {
					overshoot = pos.nodeOffset - to.Offset - 1
					candidateOffset = to.Offset + 1
				}
				newScore := score
				if gapLength := len(t.sequence) - pos.seqOffset + overshoot; gapLength > 0 {
					newScore += t.gapPenalty(gapLength)
				}
				t.recordCandidate(wfaPoint{
					score:      newScore,
					diagonal:   diagonal,
					seqOffset:  pos.seqOffset - overshoot,
					nodeOffset: candidateOffset,
				}, node)
			}
			t.nodes[node].update(wfMatches, score, diagonal, pos.seqOffset, pos.nodeOffset)
			if pos.nodeOffset < t.nodeLength(node) {
				break
			}
			if pos.atLastNode() {
				if t.propagate(&pos, score, diagonal, wfMatches) {
					children := append([]int32(nil), t.nodes[node].children...)
					t.extendOver(score, diagonal, to, children)
				}
				break
			}
			pos.pop()
			pos.nodeOffset = 0
		}
	}
}

// extend runs the extend step for the given score.
func (t *wfaTree) extend(score int32, to graph.Pos) {
	for diagonal := t.maxDiagonals[0]; diagonal <= t.maxDiagonals[1]; diagonal++ {
		t.extendOver(score, diagonal, to, t.leaves())
	}
}

// predecessorOffset moves to the previous graph base.
func (t *wfaTree) predecessorOffset(node *int32, offset *int) {
	if *offset > 0 {
		*offset--
		return
	}
	*node = t.nodes[*node].parent
	if *node < 0 {
		log.Panicf("wfa tree: no predecessor for the start of the root")
	}
	*offset = t.nodeLength(*node) - 1
}

// insPredecessor returns the best predecessor for an insertion point
// and the wavefront type it comes from.
func (t *wfaTree) insPredecessor(node int32, score, diagonal int32) (matchPos, int) {
	open := t.findPos(wfMatches, node, score-t.gapOpen-t.gapExtend, diagonal-1, true, false)
	ext := t.findPos(wfInsertions, node, score-t.gapExtend, diagonal-1, true, false)
	if ext.furtherThan(&open) {
		return ext, wfInsertions
	}
	return open, wfMatches
}

// delPredecessor returns the best predecessor for a deletion point and
// the wavefront type it comes from.
func (t *wfaTree) delPredecessor(node int32, score, diagonal int32) (matchPos, int) {
	open := t.findPos(wfMatches, node, score-t.gapOpen-t.gapExtend, diagonal+1, false, true)
	ext := t.findPos(wfDeletions, node, score-t.gapExtend, diagonal+1, false, true)
	if ext.furtherThan(&open) {
		return ext, wfDeletions
	}
	return open, wfMatches
}

// matchPredecessor returns the position where the match run of the point
// started, and the wavefront type of the edit before it. Mismatches are
// reported with wfMatches and a position one base past the previous
// match point.
func (t *wfaTree) matchPredecessor(node int32, score, diagonal int32) (matchPos, int, bool) {
	ins := t.findPos(wfInsertions, node, score, diagonal, false, false)
	del := t.findPos(wfDeletions, node, score, diagonal, false, false)
	subst := t.findPos(wfMatches, node, score-t.mismatch, diagonal, true, true)
	if !subst.empty() {
		subst.seqOffset++
		subst.nodeOffset++
	}
	result, wf, mismatch := subst, wfMatches, !subst.empty()
	if ins.furtherThan(&result) {
		result, wf, mismatch = ins, wfInsertions, false
	}
	if del.furtherThan(&result) {
		result, wf, mismatch = del, wfDeletions, false
	}
	return result, wf, mismatch
}

// next runs the next step for the given score.
func (t *wfaTree) next(score int32, to graph.Pos) {
	lo, hi := t.getDiagonals(score)
	for diagonal := lo; diagonal <= hi; diagonal++ {
		for _, leaf := range t.leaves() {
			ins, _ := t.insPredecessor(leaf, score, diagonal)
			if !ins.empty() {
				ins.seqOffset++
				t.nodes[ins.node()].update(wfInsertions, score, diagonal, ins.seqOffset, ins.nodeOffset)
			}

			del, _ := t.delPredecessor(leaf, score, diagonal)
			if !del.empty() {
				del.nodeOffset++
				t.nodes[del.node()].update(wfDeletions, score, diagonal, del.seqOffset, del.nodeOffset)
				t.propagate(&del, score, diagonal, wfDeletions)
			}

			subst := t.findPos(wfMatches, leaf, score-t.mismatch, diagonal, true, true)
			if !subst.empty() {
				subst.seqOffset++
				subst.nodeOffset++
			}
			subst = maxPos(subst, ins)
			subst = maxPos(subst, del)
			if !subst.empty() {
				node := subst.node()
				if t.sameNode(node, to) && subst.nodeOffset == to.Offset+1 {
					newScore := score
					if gapLength := len(t.sequence) - subst.seqOffset; gapLength > 0 {
						newScore += t.gapPenalty(gapLength)
					}
					t.recordCandidate(wfaPoint{
						score:      newScore,
						diagonal:   diagonal,
						seqOffset:  subst.seqOffset,
						nodeOffset: subst.nodeOffset,
					}, node)
				}
				t.nodes[node].update(wfMatches, score, diagonal, subst.seqOffset, subst.nodeOffset)
				t.propagate(&subst, score, diagonal, wfMatches)
			}
		}
	}
}

// getDiagonals returns the range of diagonals that may be reached with
// the given score and updates the global range.
func (t *wfaTree) getDiagonals(score int32) (int32, int32) {
	r := [2]int32{0, 0}
	for _, s := range [...]int32{score - t.mismatch, score - t.gapOpen - t.gapExtend, score - t.gapExtend} {
		if s > 0 && int(s) < len(t.diagonals) {
			if t.diagonals[s][0] < r[0] {
				r[0] = t.diagonals[s][0]
			}
			if t.diagonals[s][1] > r[1] {
				r[1] = t.diagonals[s][1]
			}
		}
	}
	r[0]--
	r[1]++
	if r[0] < t.maxDiagonals[0] {
		t.maxDiagonals[0] = r[0]
	}
	if r[1] > t.maxDiagonals[1] {
		t.maxDiagonals[1] = r[1]
	}
	for int(score) >= len(t.diagonals) {
		t.diagonals = append(t.diagonals, [2]int32{0, 0})
	}
	t.diagonals[score] = r
	return r[0], r[1]
}

// trim replaces the candidate with the match point that has the best
// alignment score.
func (t *wfaTree) trim() {
	best := int32(0)
	t.candidateNode = -1
	t.candidatePoint = wfaPoint{score: math.MaxInt32}
	for i := range t.nodes {
		for _, point := range t.nodes[i].wavefronts[wfMatches] {
			if s := point.alignmentScore(t.match); s > best {
				best = s
				t.candidatePoint = point
				t.candidateNode = int32(i)
			}
		}
	}
}
