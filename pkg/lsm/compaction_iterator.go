package lsm

import (
	"bytes"
	"container/heap"
)

// mergeSource is one sorted input to the k-way merge. rank orders recency:
// lower rank means newer source, so for equal keys the newest record is
// emitted first and the dedup pass can keep the head of each run.
type mergeSource struct {
	entries []*Entry
	pos     int
	rank    int
}

func (s *mergeSource) head() *Entry {
	return s.entries[s.pos]
}

func (s *mergeSource) exhausted() bool {
	return s.pos >= len(s.entries)
}

// mergeHeap is a min-heap over (key, rank).
type mergeHeap []*mergeSource

func (h mergeHeap) Len() int { return len(h) }

func (h mergeHeap) Less(i, j int) bool {
	if cmp := bytes.Compare(h[i].head().Key, h[j].head().Key); cmp != 0 {
		return cmp < 0
	}
	return h[i].rank < h[j].rank
}

func (h mergeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *mergeHeap) Push(x any) { *h = append(*h, x.(*mergeSource)) }

func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	src := old[n-1]
	*h = old[:n-1]
	return src
}

// kwayMerge yields the union of all sources in (key, recency) order.
type kwayMerge struct {
	heap mergeHeap
}

func newKWayMerge(sources []*mergeSource) *kwayMerge {
	m := &kwayMerge{}
	for _, src := range sources {
		if !src.exhausted() {
			m.heap = append(m.heap, src)
		}
	}
	heap.Init(&m.heap)
	return m
}

// Next returns the next entry, or false when all sources are drained.
func (m *kwayMerge) Next() (*Entry, bool) {
	if m.heap.Len() == 0 {
		return nil, false
	}

	src := m.heap[0]
	entry := src.head()
	src.pos++
	if src.exhausted() {
		heap.Pop(&m.heap)
	} else {
		heap.Fix(&m.heap, 0)
	}
	return entry, true
}
