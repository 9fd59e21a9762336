// Package io reads and writes alignment graph documents.
//
// # Overview
//
// A document is a declarative description of an alignment graph: the
// sequences of each event, the nested flowers, and the blocks with their
// placements. [Document.Build] turns it into a [flower.Graph]. Documents are
// stored as JSON or TOML and may leave sequence bases to FASTA files.
//
// # JSON Format
//
//	{
//	  "sequences": [
//	    {"name": "h1", "event": "hap", "bases": "ACGTACGT..."},
//	    {"name": "a1", "event": "asm"}
//	  ],
//	  "nests": [{"name": "n1"}],
//	  "blocks": [
//	    {"name": "b1", "length": 8, "segments": [
//	      {"sequence": "h1", "start": 0, "strand": "+"},
//	      {"sequence": "a1", "start": 40, "strand": "-"}
//	    ]}
//	  ],
//	  "fasta": ["assembly.fa"]
//	}
//
// A sequence without inline bases is filled from the FASTA records listed
// under "fasta", matched by record ID. Relative FASTA paths resolve against
// the document's directory when the document is read with [Import].
//
// # Import
//
// [Import] dispatches on the file extension (.json or .toml), loads FASTA
// records, and returns the document:
//
//	doc, err := io.Import(ctx, "graph.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	g, err := doc.Build()
//
// # Export
//
// [WriteJSON] and [Export] write a document back out. FASTA-backed bases are
// written inline unless the document's FASTA list is kept.
//
// # Hashing
//
// [Hash] returns a content hash of a document, stable across field order,
// used to key cached reports.
package io
