// Package bvh builds and queries bounding volume hierarchies over scene primitives.
//
// A BVH is built once from an immutable primitive arena and never mutated
// afterwards, so any number of goroutines may query it concurrently.
package bvh

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/df07/go-bvh-tracer/pkg/core"
	"github.com/df07/go-bvh-tracer/pkg/geometry"
)

// Strategy selects the tree construction algorithm
type Strategy string

const (
	// SAH splits top-down at the minimum surface area heuristic cost
	SAH Strategy = "sah"
	// Median splits top-down at the median along the longest axis
	Median Strategy = "median"
	// Agglomerative merges the cheapest pair bottom-up until one root remains
	Agglomerative Strategy = "agglomerative"
)

// Strategies lists every supported construction strategy
var Strategies = []Strategy{SAH, Median, Agglomerative}

// ParseStrategy parses a strategy name, case-insensitively
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Strategies {
		if s == known {
			return s, nil
		}
	}
	return "", errors.Errorf("unknown BVH strategy %q (want one of %v)", name, Strategies)
}

type nodeKind uint8

const (
	nodeEmpty nodeKind = iota
	nodeLeaf
	nodeInternal
)

// node is an entry in the BVH node arena
type node struct {
	box         core.AABB
	kind        nodeKind
	left, right int32 // child node indices for internal nodes
	primitive   int32 // primitive arena index for leaves
}

// Options configures BVH construction
type Options struct {
	Strategy Strategy
	Epsilon  float64 // Parallel-ray threshold for box and plane tests
	Logger   *zap.SugaredLogger
}

// BVH is an immutable bounding volume hierarchy over a primitive arena
type BVH struct {
	primitives []geometry.Primitive
	nodes      []node
	root       int32
	epsilon    float64
}

// Build constructs a BVH over primitives. The slice is shared, not copied, and
// must not be modified afterwards.
func Build(primitives []geometry.Primitive, opts Options) *BVH {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	strategy := opts.Strategy
	if strategy == "" {
		strategy = SAH
	}

	start := time.Now()
	n := len(primitives)
	b := &BVH{
		primitives: primitives,
		nodes:      make([]node, 0, max(1, 2*n-1)),
		epsilon:    opts.Epsilon,
	}

	switch {
	case n == 0:
		b.root = b.addNode(node{kind: nodeEmpty})
	case strategy == Agglomerative:
		b.root = b.buildAgglomerative()
	default:
		items := make([]int32, n)
		boxes := make([]core.AABB, n)
		for i := range primitives {
			items[i] = int32(i)
			boxes[i] = primitives[i].BoundingBox()
		}
		if strategy == Median {
			b.root = b.buildMedian(items, boxes)
		} else {
			sb := newSAHBuilder(b, boxes)
			b.root = sb.build(items)
		}
	}

	stats := b.Stats()
	logger.Debugw("built BVH",
		"strategy", strategy,
		"primitives", n,
		"nodes", stats.TotalNodes,
		"maxDepth", stats.MaxDepth,
		"elapsed", time.Since(start),
	)
	return b
}

func (b *BVH) addNode(n node) int32 {
	b.nodes = append(b.nodes, n)
	return int32(len(b.nodes) - 1)
}

func (b *BVH) addLeaf(primitive int32, box core.AABB) int32 {
	return b.addNode(node{box: box, kind: nodeLeaf, primitive: primitive, left: -1, right: -1})
}

// addInternal stores a node whose box is exactly the union of its children
func (b *BVH) addInternal(left, right int32) int32 {
	box := b.nodes[left].box.Merge(b.nodes[right].box)
	return b.addNode(node{box: box, kind: nodeInternal, left: left, right: right, primitive: -1})
}

// Primitives returns the primitive arena the BVH indexes into
func (b *BVH) Primitives() []geometry.Primitive {
	return b.primitives
}

// BoundingBox returns the box of the whole scene, or the zero box when empty
func (b *BVH) BoundingBox() core.AABB {
	return b.nodes[b.root].box
}

// Collide returns the nearest hit along ray no farther than maxDistance
func (b *BVH) Collide(ray core.Ray, maxDistance float64) (geometry.CollisionInfo, bool) {
	return b.collide(b.root, ray, maxDistance)
}

func (b *BVH) collide(index int32, ray core.Ray, maxDistance float64) (geometry.CollisionInfo, bool) {
	n := &b.nodes[index]
	switch n.kind {
	case nodeEmpty:
		return geometry.CollisionInfo{}, false
	case nodeLeaf:
		hit, ok := b.primitives[n.primitive].Collide(ray, maxDistance, b.epsilon)
		if ok {
			hit.Primitive = int(n.primitive)
		}
		return hit, ok
	}

	if !n.box.Intersects(ray, maxDistance, b.epsilon) {
		return geometry.CollisionInfo{}, false
	}

	// Visit the child whose center is nearer the origin first
	first, second := n.left, n.right
	if b.nodes[second].box.DistanceToPoint(ray.Origin) < b.nodes[first].box.DistanceToPoint(ray.Origin) {
		first, second = second, first
	}

	hit, ok := b.collide(first, ray, maxDistance)
	if ok {
		maxDistance = hit.Distance
	}
	if other, otherOK := b.collide(second, ray, maxDistance); otherOK && (!ok || other.Distance < hit.Distance) {
		return other, true
	}
	return hit, ok
}

// BruteForce tests a ray against every primitive. It is the reference the
// BVH must agree with, and is used for tests and benchmarks.
type BruteForce struct {
	Primitives []geometry.Primitive
	Epsilon    float64
}

// Collide returns the nearest hit among all primitives no farther than maxDistance
func (bf BruteForce) Collide(ray core.Ray, maxDistance float64) (geometry.CollisionInfo, bool) {
	var closest geometry.CollisionInfo
	found := false
	for i := range bf.Primitives {
		if hit, ok := bf.Primitives[i].Collide(ray, maxDistance, bf.Epsilon); ok {
			hit.Primitive = i
			closest = hit
			maxDistance = hit.Distance
			found = true
		}
	}
	return closest, found
}
