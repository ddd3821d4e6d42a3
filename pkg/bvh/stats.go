package bvh

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Stats describes the shape of a built tree
type Stats struct {
	TotalNodes      int
	LeafNodes       int
	TotalPrimitives int
	MaxDepth        int
	AvgDepth        float64 // Mean leaf depth
	RootArea        float64 // Half surface area of the root box
}

// Stats walks the tree and collects structural statistics
func (b *BVH) Stats() Stats {
	stats := Stats{TotalPrimitives: len(b.primitives)}
	if len(b.nodes) == 0 || b.nodes[b.root].kind == nodeEmpty {
		return stats
	}

	stats.RootArea = b.nodes[b.root].box.Area()
	b.collectStats(b.root, 0, &stats)
	if stats.LeafNodes > 0 {
		stats.AvgDepth /= float64(stats.LeafNodes)
	}
	return stats
}

func (b *BVH) collectStats(index int32, depth int, stats *Stats) {
	stats.TotalNodes++
	if depth > stats.MaxDepth {
		stats.MaxDepth = depth
	}

	n := &b.nodes[index]
	if n.kind == nodeLeaf {
		stats.LeafNodes++
		stats.AvgDepth += float64(depth) // summed here, divided in Stats
		return
	}
	b.collectStats(n.left, depth+1, stats)
	b.collectStats(n.right, depth+1, stats)
}

// Leaves returns the primitive index of every leaf in depth-first order
func (b *BVH) Leaves() []int {
	var leaves []int
	if b.nodes[b.root].kind == nodeEmpty {
		return leaves
	}
	var walk func(index int32)
	walk = func(index int32) {
		n := &b.nodes[index]
		if n.kind == nodeLeaf {
			leaves = append(leaves, int(n.primitive))
			return
		}
		walk(n.left)
		walk(n.right)
	}
	walk(b.root)
	return leaves
}

// Verify checks the structural invariants of the tree: every internal box is
// exactly the union of its children, every leaf box is its primitive's box,
// and every primitive is referenced by exactly one leaf.
func (b *BVH) Verify() error {
	root := &b.nodes[b.root]
	if root.kind == nodeEmpty {
		if len(b.primitives) != 0 {
			return errors.Errorf("empty root over %d primitives", len(b.primitives))
		}
		return nil
	}

	var errs error
	seen := make([]int, len(b.primitives))
	var walk func(index int32)
	walk = func(index int32) {
		n := &b.nodes[index]
		switch n.kind {
		case nodeLeaf:
			if int(n.primitive) < 0 || int(n.primitive) >= len(b.primitives) {
				errs = multierr.Append(errs, errors.Errorf("node %d: primitive %d out of range", index, n.primitive))
				return
			}
			seen[n.primitive]++
			if n.box != b.primitives[n.primitive].BoundingBox() {
				errs = multierr.Append(errs, errors.Errorf("node %d: leaf box differs from primitive %d", index, n.primitive))
			}
		case nodeInternal:
			walk(n.left)
			walk(n.right)
			if union := b.nodes[n.left].box.Merge(b.nodes[n.right].box); n.box != union {
				errs = multierr.Append(errs, errors.Errorf("node %d: box is not the union of its children", index))
			}
		default:
			errs = multierr.Append(errs, errors.Errorf("node %d: empty node below the root", index))
		}
	}
	walk(b.root)

	for i, count := range seen {
		if count != 1 {
			errs = multierr.Append(errs, errors.Errorf("primitive %d referenced by %d leaves", i, count))
		}
	}
	return errs
}
