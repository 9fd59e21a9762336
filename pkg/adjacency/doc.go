// Package adjacency resolves adjacency relationships across the levels of a
// hierarchical alignment graph.
//
// # Resolution
//
// A cap at one level of a [flower.Graph] may be a collapsed stand-in for a
// region a nested flower resolves. [Traverser.TerminalCap] descends to the
// deepest copy of a cap, where its adjacency partner is the true neighbour
// along the sequence. [Traverser.CapSegment] goes the other way: from a stub
// cap it ascends until it finds the level that owns the segment the cap
// bounds. Both are loops bounded by the nesting depth.
//
// # Support
//
// An adjacency is supported ([Traverser.IsSupported]) when it spans no
// unaligned bases and at least one target lineage makes the same
// connection, also with no unaligned bases. Supported adjacencies are the
// joins contig paths are built from.
//
// # Distances
//
// [EndsAreConnected] and [EndsAreAdjacent] compare two ends through the caps
// a lineage set has at each: whether some pair lies on one sequence, and the
// smallest number of bases separating a correctly ordered pair.
//
// # Options
//
// [Options.IgnoreAdjacencyBases] treats every adjacency as spanning zero
// bases. It exists for tests that exercise topology without coordinates.
package adjacency
