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

	"github.com/exascience/hapalign/graph"
	"github.com/exascience/hapalign/scoring"
)

// WFAExtender aligns read segments with gaps using a wavefront
// alignment over haplotype paths.
type WFAExtender struct {
	graph      graph.Graph
	aligner    *scoring.Aligner
	errorModel *scoring.ErrorModel
	mask       *ReadMasker
}

// NewWFAExtender returns an extender for the given graph and scoring
// parameters. A nil error model selects the default one.
func NewWFAExtender(g graph.Graph, aligner *scoring.Aligner, errorModel *scoring.ErrorModel) *WFAExtender {
	if errorModel == nil {
		errorModel = scoring.DefaultErrorModel()
	}
	return &WFAExtender{graph: g, aligner: aligner, errorModel: errorModel, mask: NewReadMasker(DefaultValidChars)}
}

func validPos(g graph.Graph, pos graph.Pos) bool {
	return g.HasNode(pos.ID) && pos.Offset >= 0 && pos.Offset < g.Length(pos.Handle())
}

/*
Connect aligns the read between two graph positions: from is the graph
base aligned to the first read base, and to is the graph base aligned
to the last read base. If to is graph.NoPos, the alignment may end
anywhere, and the unaligned end of the read is charged as an insertion.

If no alignment within the score bound of the error model exists,
Connect returns an empty alignment when to is set. Otherwise it returns
the best partial alignment of a prefix of the read.
*/
func (e *WFAExtender) Connect(read string, from, to graph.Pos) WFAAlignment {
	if e == nil || e.graph == nil || e.aligner == nil || len(read) == 0 || from.IsEmpty() {
		return WFAAlignment{}
	}
	cache := graph.NewCache(e.graph)
	if !validPos(cache, from) || (!to.IsEmpty() && !validPos(cache, to)) {
		return WFAAlignment{}
	}
	root := cache.State(from.Handle())
	if root.Empty() {
		return WFAAlignment{}
	}
	seq := e.mask.Mask(read)
	tree := newWFATree(cache, seq, root, from.Offset, e.aligner, e.errorModel)

	score := int32(0)
	for {
		tree.extend(score, to)
		if tree.candidatePoint.score <= score {
			break
		}
		score++
		if score > tree.scoreBound {
			break
		}
		tree.next(score, to)
	}

	fullLength := true
	if tree.candidatePoint.score > tree.scoreBound {
		if !to.IsEmpty() {
			return WFAAlignment{}
		}
		tree.trim()
		fullLength = false
	}
	if tree.candidateNode < 0 || tree.candidatePoint.seqOffset == 0 {
		return WFAAlignment{}
	}

	point := tree.candidatePoint
	result := WFAAlignment{
		NodeOffset: from.Offset,
		Length:     point.seqOffset,
		Score:      point.alignmentScore(tree.match),
	}
	for node := tree.candidateNode; node >= 0; node = tree.nodes[node].parent {
		result.Path = append(result.Path, tree.nodes[node].handle())
	}
	for i, j := 0, len(result.Path)-1; i < j; i, j = i+1, j-1 {
		result.Path[i], result.Path[j] = result.Path[j], result.Path[i]
	}

	if fullLength && point.seqOffset < len(seq) {
		insertion := len(seq) - point.seqOffset
		result.Append(InsertionOp, insertion)
		result.Length = len(seq)
		result.Score = (tree.match*int32(len(seq)+point.targetOffset()) - point.score) / 2
		point.score -= tree.gapPenalty(insertion)
	}
	tree.backtrace(point, &result)

	for i, j := 0, len(result.Edits)-1; i < j; i, j = i+1, j-1 {
		result.Edits[i], result.Edits[j] = result.Edits[j], result.Edits[i]
	}
	if len(result.Path) > 1 && result.FinalOffset(cache) == 0 {
		result.Path = result.Path[:len(result.Path)-1]
	}
	return result
}

// backtrace appends the edits from the point back to the start of the
// alignment in reverse order.
func (t *wfaTree) backtrace(point wfaPoint, result *WFAAlignment) {
	node := t.candidateNode
	op := MatchOp
	for point.seqOffset > 0 || point.diagonal != 0 {
		if point.score < 0 {
			log.Panicf("wfa tree: negative score in backtrace at diagonal %v", point.diagonal)
		}
		switch op {
		case MatchOp:
			pred, wf, mismatch := t.matchPredecessor(node, point.score, point.diagonal)
			if pred.empty() {
				if point.score != 0 || point.diagonal != 0 {
					log.Panicf("wfa tree: missing predecessor for score %v diagonal %v", point.score, point.diagonal)
				}
				result.Append(MatchOp, point.seqOffset)
				point.seqOffset = 0
				continue
			}
			if pred.seqOffset > point.seqOffset {
				log.Panicf("wfa tree: predecessor at %v follows point at %v", pred.seqOffset, point.seqOffset)
			}
			result.Append(MatchOp, point.seqOffset-pred.seqOffset)
			point.seqOffset = pred.seqOffset
			point.nodeOffset = pred.nodeOffset
			node = pred.node()
			switch {
			case mismatch:
				op = MismatchOp
			case wf == wfInsertions:
				op = InsertionOp
			default:
				op = DeletionOp
			}
		case MismatchOp:
			result.Append(MismatchOp, 1)
			point.seqOffset--
			t.predecessorOffset(&node, &point.nodeOffset)
			point.score -= t.mismatch
			op = MatchOp
		case InsertionOp:
			pred, wf := t.insPredecessor(node, point.score, point.diagonal)
			if pred.empty() {
				log.Panicf("wfa tree: missing insertion predecessor for score %v diagonal %v", point.score, point.diagonal)
			}
			result.Append(InsertionOp, 1)
			point.seqOffset--
			point.diagonal--
			node = pred.node()
			point.nodeOffset = pred.nodeOffset
			if wf == wfInsertions {
				point.score -= t.gapExtend
			} else {
				point.score -= t.gapOpen + t.gapExtend
				op = MatchOp
			}
		case DeletionOp:
			pred, wf := t.delPredecessor(node, point.score, point.diagonal)
			if pred.empty() {
				log.Panicf("wfa tree: missing deletion predecessor for score %v diagonal %v", point.score, point.diagonal)
			}
			result.Append(DeletionOp, 1)
			point.diagonal++
			node = pred.node()
			point.nodeOffset = pred.nodeOffset
			if wf == wfDeletions {
				point.score -= t.gapExtend
			} else {
				point.score -= t.gapOpen + t.gapExtend
				op = MatchOp
			}
		}
	}
}

// Suffix aligns the read starting from the given graph base. The
// alignment may end anywhere, and the result may be a partial alignment
// of a prefix of the read.
func (e *WFAExtender) Suffix(read string, from graph.Pos) WFAAlignment {
	return e.Connect(read, from, graph.NoPos)
}

// Prefix aligns the read so that it ends at the given graph base. The
// result may be a partial alignment of a suffix of the read.
func (e *WFAExtender) Prefix(read string, to graph.Pos) WFAAlignment {
	if e == nil || e.graph == nil || to.IsEmpty() || !validPos(e.graph, to) {
		return WFAAlignment{}
	}
	from := graph.ReverseBasePos(to, e.graph.Length(to.Handle()))
	result := e.Connect(graph.ReverseComplementString(read), from, graph.NoPos)
	result.Flip(e.graph, len(read))
	return result
}
