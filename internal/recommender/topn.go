package recommender

import (
	"container/heap"
	"sort"
)

type entry struct {
	pos   int
	score float64
}

// worse reports whether a ranks below b: lower score, or the same score
// offered later.
func worse(a, b entry) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	return a.pos > b.pos
}

// entryHeap keeps the worst retained entry at the root.
type entryHeap []entry

func (h entryHeap) Len() int           { return len(h) }
func (h entryHeap) Less(i, j int) bool { return worse(h[i], h[j]) }
func (h entryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(entry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// topN selects the n best of a stream of scores in O(N log n).
type topN struct {
	n int
	h entryHeap
}

// newTopN keeps the n best of at most offers scores. Storage is sized by
// the smaller of the two, so n may be arbitrarily large.
func newTopN(n, offers int) *topN {
	return &topN{n: n, h: make(entryHeap, 0, max(min(n, offers), 0))}
}

func (t *topN) offer(pos int, score float64) {
	e := entry{pos: pos, score: score}
	if len(t.h) < t.n {
		heap.Push(&t.h, e)
		return
	}
	if worse(t.h[0], e) {
		t.h[0] = e
		heap.Fix(&t.h, 0)
	}
}

// sorted returns the retained entries best first.
func (t *topN) sorted() []entry {
	out := append([]entry(nil), t.h...)
	sort.Slice(out, func(i, j int) bool { return worse(out[j], out[i]) })
	return out
}
