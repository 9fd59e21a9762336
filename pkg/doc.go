// Package pkg provides the core libraries for hapaudit assembly audits.
//
// # Overview
//
// hapaudit compares a genome assembly with the reference haplotypes it was
// built from, using a hierarchical multiple alignment (a cactus graph) of
// all of them. Every place where an aligned segment of the assembly ends is
// a boundary; each boundary gets a code saying whether the assembly
// continues there as the references do, stops, bridges a gap, or makes an
// error. The pkg directory is organized into four areas:
//
//  1. Graph model: [flower], [io]
//  2. Analysis: [adjacency], [capcode], [paths], [scaffold], [linkage], [substitution]
//  3. Orchestration: [report]
//  4. Infrastructure: [cache], [store], [httputil], [render], [observability], [errors]
//
// # Architecture
//
// The typical data flow:
//
//	JSON/TOML document (+ FASTA)
//	         ↓
//	    [io] package (import, build)
//	         ↓
//	    [flower] package (immutable graph)
//	         ↓
//	    [capcode] classification → [paths] contig paths → [scaffold] merge
//	         ↓
//	    [report] package (per-event report, cached and stored)
//	         ↓
//	    BED intervals, JSON, node-link diagrams
//
// # Quick Start
//
//	doc, _ := io.Import(ctx, "graph.json")
//	g, _ := doc.Build()
//
//	runner := report.NewRunner(nil, nil, logger)
//	reps, _ := runner.Run(ctx, g, io.Hash(doc), report.Options{
//	    Events:  []string{"assembly"},
//	    Targets: []string{"maternal", "paternal"},
//	})
//	bed.Write(os.Stdout, reps[0].ContigPaths)
//
// # Main Packages
//
// [flower] - Read-only graph model: flowers, groups, ends, caps, blocks,
// segments, sequences and events. [flower.Builder] assembles graphs;
// flowertest builds fixtures from a compact description.
//
// [adjacency] - Traversal primitives over caps: terminal caps across
// nesting levels, adjacent segments, gap bases and support by a set of
// events.
//
// [capcode] - The boundary classifier and its codes.
//
// [paths] - Maximal contig paths of a chosen event.
//
// [scaffold] - Union of contig paths across gaps into scaffolds.
//
// [bed] - Contig and scaffold intervals in BED3.
//
// [linkage], [substitution] - Long-range order and base-level accuracy.
//
// [report] - The audit runner used by the CLI and the HTTP API.
//
// [cache], [store] - Report caching (file, Redis) and persistence (file,
// memory, MongoDB).
//
// [render/nodelink] - Graphviz diagrams of one flower.
//
// # Testing
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/capcode/...   # Specific package
//	go test -run Example        # Examples only
package pkg
