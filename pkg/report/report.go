// Package report runs complete assembly audits.
//
// An audit of one chosen event classifies every boundary of its segments,
// builds its contig paths, merges them into scaffolds, and summarises the
// result as a [Report]. The [Runner] audits several events of one graph
// concurrently and caches each report under a key derived from the graph's
// content hash and the audit options.
//
// # Usage
//
//	runner := report.NewRunner(cache, nil, logger)
//	reports, err := runner.Run(ctx, g, io.Hash(doc), report.Options{
//	    Events:  []string{"assembly"},
//	    Targets: []string{"maternal", "paternal"},
//	})
//
// Classification outcomes, error codes included, are data: they never stop
// a run. Invariant violations in the graph do.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/hapaudit/pkg/bed"
	"github.com/matzehuels/hapaudit/pkg/capcode"
	"github.com/matzehuels/hapaudit/pkg/substitution"
)

// Report is the audit of one event.
type Report struct {
	ID         string             `json:"id" bson:"_id"`
	Event      string             `json:"event" bson:"event"`
	GraphHash  string             `json:"graph_hash" bson:"graph_hash"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	Targets    []string           `json:"targets" bson:"targets"`
	Others     []string           `json:"others,omitempty" bson:"others,omitempty"`
	Parameters capcode.Parameters `json:"parameters" bson:"parameters"`

	Boundaries  []Boundary           `json:"boundaries" bson:"boundaries"`
	Counts      map[capcode.Code]int `json:"counts" bson:"-"`
	ContigPaths []bed.Interval       `json:"contig_paths" bson:"contig_paths"`
	Scaffolds   []bed.Interval       `json:"scaffolds" bson:"scaffolds"`

	Substitutions *substitution.Stats `json:"substitutions,omitempty" bson:"substitutions,omitempty"`

	Stats Stats `json:"stats" bson:"stats"`
}

// Boundary is one classified segment end.
type Boundary struct {
	Sequence     string       `json:"sequence" bson:"sequence"`
	Position     int64        `json:"position" bson:"position"` // offset from the sequence start
	Strand       string       `json:"strand" bson:"strand"`
	Side         string       `json:"side" bson:"side"` // "5'" or "3'"
	Block        string       `json:"block" bson:"block"`
	Code         capcode.Code `json:"code" bson:"code"`
	InsertLength int64        `json:"insert_length,omitempty" bson:"insert_length,omitempty"`
	DeleteLength int64        `json:"delete_length,omitempty" bson:"delete_length,omitempty"`
	PathLength   int64        `json:"path_length" bson:"path_length"`
	NCount       int64        `json:"n_count" bson:"n_count"`
}

// Stats summarises a report.
type Stats struct {
	Boundaries    int           `json:"boundaries" bson:"boundaries"`
	Errors        int           `json:"errors" bson:"errors"`
	ContigPaths   int           `json:"contig_paths" bson:"contig_paths"`
	ContigTotal   int64         `json:"contig_total" bson:"contig_total"`
	ContigN50     int64         `json:"contig_n50" bson:"contig_n50"`
	Scaffolds     int           `json:"scaffolds" bson:"scaffolds"`
	ScaffoldTotal int64         `json:"scaffold_total" bson:"scaffold_total"`
	ScaffoldN50   int64         `json:"scaffold_n50" bson:"scaffold_n50"`
	Bridges       int           `json:"bridges" bson:"bridges"`
	Duration      time.Duration `json:"duration" bson:"duration"`
}

// Summary is the listing form of a report.
type Summary struct {
	ID        string    `json:"id"`
	Event     string    `json:"event"`
	GraphHash string    `json:"graph_hash"`
	CreatedAt time.Time `json:"created_at"`
	Stats     Stats     `json:"stats"`
}

// Summary returns the listing form of r.
func (r *Report) Summary() Summary {
	return Summary{ID: r.ID, Event: r.Event, GraphHash: r.GraphHash, CreatedAt: r.CreatedAt, Stats: r.Stats}
}

// Recount rebuilds Counts from Boundaries. Stores that drop the map call it
// after loading.
func (r *Report) Recount() {
	r.Counts = make(map[capcode.Code]int)
	for _, b := range r.Boundaries {
		r.Counts[b.Code]++
	}
}

func newReport(event, graphHash string) *Report {
	return &Report{
		ID:        uuid.NewString(),
		Event:     event,
		GraphHash: graphHash,
		CreatedAt: time.Now().UTC(),
	}
}

func boundaryRecord(b capcode.Boundary) Boundary {
	c := b.Cap
	out := Boundary{
		Sequence:     c.Sequence().Header(),
		Position:     c.Coordinate() - c.Sequence().Start(),
		Strand:       "+",
		Side:         "3'",
		Code:         b.Result.Code,
		InsertLength: b.Result.InsertLength,
		DeleteLength: b.Result.DeleteLength,
		PathLength:   b.Result.PathLength,
		NCount:       b.Result.NCount,
	}
	if !c.Strand() {
		out.Strand = "-"
	}
	if c.Side() {
		out.Side = "5'"
	}
	if s, ok := c.Segment(); ok {
		out.Block = s.Block().Label()
	}
	return out
}
