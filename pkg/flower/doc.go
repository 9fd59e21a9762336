// Package flower provides a read-only, hierarchical alignment graph of the
// kind produced by cactus-style multiple genome aligners.
//
// # Overview
//
// A [Graph] is a tree of [Flower]s. Each flower holds aligned [Block]s, the
// [End]s at either side of them, and [Group]s that partition those ends by
// adjacency. A group may own a nested flower that resolves a region the
// parent leaves collapsed. The root flower covers every sequence from
// telomere to telomere.
//
// Every occurrence of a block in a sequence is a [Segment], bounded by two
// [Cap]s. Caps are the unit of traversal: each has a coordinate, a strand, a
// side, an owning lineage [Event], and an adjacency partner (the cap reached
// by leaving the block and reading the unaligned bases that follow).
//
// # Orientation
//
// [Cap] and [Segment] are small value views over shared records. Reversing a
// view flips its strand and side without touching the graph, and
// reversal is an involution:
//
//	c.Reverse().Reverse() == c
//	c.Reverse().Adjacency() == reverse(c.Adjacency())
//
// Side true denotes the 5' side of a block on the view's strand: reading
// the strand forward, it is where a segment is entered. Segments compare
// equal to their reverse through [Segment.Key].
//
// # Nesting
//
// The same cap exists at every level it is visible at, under one [Name]. At a
// parent level a cap whose end belongs to a group with a nested flower is a
// collapsed representation; in the nested flower the same name appears on a
// stub end with no segment. Walking down to the deepest copy and back up to
// the owning segment is the job of package adjacency.
//
// # Construction
//
// Graphs are built once with a [Builder] and never mutated afterwards:
//
//	g, err := flower.NewBuilder().
//	    Sequence(flower.SequenceSpec{Name: "chr1.hap", Event: "hap", Bases: "ACGTACGT"}).
//	    Block(flower.BlockSpec{Name: "b1", Length: 4, Segments: []flower.Placement{
//	        {Sequence: "chr1.hap", Start: 2},
//	    }}).
//	    Build()
//
// # Concurrency
//
// A built Graph is immutable and safe for concurrent readers.
package flower
