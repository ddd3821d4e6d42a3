package bvh

import (
	"container/heap"
	"math"
	"sort"

	"github.com/df07/go-bvh-tracer/pkg/core"
)

// sahCostTolerance is the relative difference under which two split costs tie
const sahCostTolerance = 1e-9

// sortByAxis orders items by box center along axis. The sort is stable so
// that equal centers keep their arena order and builds are reproducible.
func sortByAxis(items []int32, boxes []core.AABB, axis int) {
	sort.SliceStable(items, func(i, j int) bool {
		return boxes[items[i]].Compare(boxes[items[j]], axis) < 0
	})
}

// sahBuilder holds scratch space shared by every level of a top-down SAH build
type sahBuilder struct {
	bvh    *BVH
	boxes  []core.AABB
	prefix []float64 // prefix[i] = area of items[0..i]
	suffix []float64 // suffix[i] = area of items[i..n-1]
}

func newSAHBuilder(b *BVH, boxes []core.AABB) *sahBuilder {
	return &sahBuilder{
		bvh:    b,
		boxes:  boxes,
		prefix: make([]float64, len(boxes)),
		suffix: make([]float64, len(boxes)),
	}
}

func (s *sahBuilder) build(items []int32) int32 {
	if len(items) == 1 {
		return s.bvh.addLeaf(items[0], s.boxes[items[0]])
	}

	axis, split := s.bestSplit(items)
	sortByAxis(items, s.boxes, axis)

	left := s.build(items[:split+1])
	right := s.build(items[split+1:])
	return s.bvh.addInternal(left, right)
}

// bestSplit evaluates C(i) = area(0..i)*(i+1) + area(i+1..n-1)*(n-i-1) on
// every axis and returns the axis and last left index of the cheapest split.
// Ties go to the more balanced split, then to the lower axis.
func (s *sahBuilder) bestSplit(items []int32) (int, int) {
	n := len(items)
	prefix, suffix := s.prefix[:n], s.suffix[:n]

	bestAxis, bestIndex := 0, 0
	bestCost := math.Inf(1)

	for axis := 0; axis < 3; axis++ {
		sortByAxis(items, s.boxes, axis)

		box := s.boxes[items[0]]
		prefix[0] = box.Area()
		for i := 1; i < n; i++ {
			box = box.Merge(s.boxes[items[i]])
			prefix[i] = box.Area()
		}

		box = s.boxes[items[n-1]]
		suffix[n-1] = box.Area()
		for i := n - 2; i >= 0; i-- {
			box = box.Merge(s.boxes[items[i]])
			suffix[i] = box.Area()
		}

		for i := 0; i < n-1; i++ {
			cost := prefix[i]*float64(i+1) + suffix[i+1]*float64(n-i-1)
			switch {
			case costsTie(cost, bestCost):
				if imbalance(i, n) < imbalance(bestIndex, n) {
					bestAxis, bestIndex, bestCost = axis, i, cost
				}
			case cost < bestCost:
				bestAxis, bestIndex, bestCost = axis, i, cost
			}
		}
	}

	return bestAxis, bestIndex
}

func costsTie(a, b float64) bool {
	if math.IsInf(b, 1) {
		return false
	}
	return math.Abs(a-b) <= sahCostTolerance*math.Max(math.Abs(b), 1)
}

// imbalance measures how far splitting after index i is from an even split
func imbalance(i, n int) int {
	d := 2*(i+1) - n
	if d < 0 {
		return -d
	}
	return d
}

// buildMedian splits at the median of the longest axis of the items' bounds
func (b *BVH) buildMedian(items []int32, boxes []core.AABB) int32 {
	if len(items) == 1 {
		return b.addLeaf(items[0], boxes[items[0]])
	}

	bounds := boxes[items[0]]
	for _, item := range items[1:] {
		bounds = bounds.Merge(boxes[item])
	}
	sortByAxis(items, boxes, bounds.LongestAxis())

	mid := len(items) / 2
	left := b.buildMedian(items[:mid], boxes)
	right := b.buildMedian(items[mid:], boxes)
	return b.addInternal(left, right)
}

// mergeCandidate is a pair of live nodes and the area of their union
type mergeCandidate struct {
	cost float64
	a, b int32
}

type candidateHeap []mergeCandidate

func (h candidateHeap) Len() int { return len(h) }
func (h candidateHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	if h[i].a != h[j].a {
		return h[i].a < h[j].a
	}
	return h[i].b < h[j].b
}
func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x any)   { *h = append(*h, x.(mergeCandidate)) }
func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// buildAgglomerative starts with one leaf per primitive and repeatedly merges
// the pair whose union has the smallest area. Candidates involving a node that
// was already merged are discarded lazily when popped.
func (b *BVH) buildAgglomerative() int32 {
	n := len(b.primitives)
	for i := range b.primitives {
		b.addLeaf(int32(i), b.primitives[i].BoundingBox())
	}
	if n == 1 {
		return 0
	}

	live := make([]bool, n, 2*n-1)
	for i := range live {
		live[i] = true
	}

	h := make(candidateHeap, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			cost := b.nodes[i].box.Merge(b.nodes[j].box).Area()
			h = append(h, mergeCandidate{cost: cost, a: int32(i), b: int32(j)})
		}
	}
	heap.Init(&h)

	var root int32
	for merges := 0; merges < n-1; {
		c := heap.Pop(&h).(mergeCandidate)
		if !live[c.a] || !live[c.b] {
			continue
		}
		live[c.a], live[c.b] = false, false

		root = b.addInternal(c.a, c.b)
		live = append(live, true)
		merges++

		for other := int32(0); other < root; other++ {
			if live[other] {
				cost := b.nodes[root].box.Merge(b.nodes[other].box).Area()
				heap.Push(&h, mergeCandidate{cost: cost, a: other, b: root})
			}
		}
	}
	return root
}
