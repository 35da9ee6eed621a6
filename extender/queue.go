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

import "container/heap"

type queueItem struct {
	extension GaplessExtension
	order     int
}

// extensionQueue is a max-heap of extensions by score. Equal scores are
// popped in insertion order.
type extensionQueue struct {
	items []queueItem
	count int
}

func (q *extensionQueue) Len() int {
	return len(q.items)
}

func (q *extensionQueue) Less(i, j int) bool {
	x, y := &q.items[i], &q.items[j]
	if x.extension.Score != y.extension.Score {
		return x.extension.Score > y.extension.Score
	}
	return x.order < y.order
}

func (q *extensionQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
}

func (q *extensionQueue) Push(x interface{}) {
	q.items = append(q.items, x.(queueItem))
}

func (q *extensionQueue) Pop() interface{} {
	last := len(q.items) - 1
	item := q.items[last]
	q.items[last] = queueItem{}
	q.items = q.items[:last]
	return item
}

func (q *extensionQueue) push(ext GaplessExtension) {
	heap.Push(q, queueItem{extension: ext, order: q.count})
	q.count++
}

func (q *extensionQueue) pop() GaplessExtension {
	return heap.Pop(q).(queueItem).extension
}
