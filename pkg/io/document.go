package io

import (
	"encoding/json"

	"github.com/matzehuels/hapaudit/pkg/cache"
	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/flower"
)

// Document describes an alignment graph.
type Document struct {
	Events    []string   `json:"events,omitempty" toml:"events,omitempty"`
	Sequences []Sequence `json:"sequences" toml:"sequences"`
	Nests     []Nest     `json:"nests,omitempty" toml:"nests,omitempty"`
	Blocks    []Block    `json:"blocks" toml:"blocks"`
	FASTA     []string   `json:"fasta,omitempty" toml:"fasta,omitempty"`
}

// Sequence is one physical sequence. Start is the absolute coordinate of
// its first base.
type Sequence struct {
	Name  string `json:"name" toml:"name"`
	Event string `json:"event" toml:"event"`
	Start int64  `json:"start,omitempty" toml:"start,omitempty"`
	Bases string `json:"bases,omitempty" toml:"bases,omitempty"`
}

// Nest is a nested flower. An empty Parent nests under the root.
type Nest struct {
	Name   string `json:"name" toml:"name"`
	Parent string `json:"parent,omitempty" toml:"parent,omitempty"`
}

// Block is an aligned block and its placements.
type Block struct {
	Name     string      `json:"name" toml:"name"`
	Length   int64       `json:"length" toml:"length"`
	Flower   string      `json:"flower,omitempty" toml:"flower,omitempty"`
	Segments []Placement `json:"segments" toml:"segments"`
}

// Placement puts a block on a sequence. Strand is "+" or "-"; empty means
// "+".
type Placement struct {
	Sequence string `json:"sequence" toml:"sequence"`
	Start    int64  `json:"start" toml:"start"`
	Strand   string `json:"strand,omitempty" toml:"strand,omitempty"`
}

func parseStrand(s string) (reverse bool, err error) {
	switch s {
	case "", "+":
		return false, nil
	case "-":
		return true, nil
	}
	return false, errors.New(errors.ErrCodeInvalidFormat, "strand must be \"+\" or \"-\", got %q", s)
}

// Build validates d and constructs its graph.
func (d *Document) Build() (*flower.Graph, error) {
	if len(d.Events) > 0 {
		declared := flower.NewEventSet(d.Events...)
		for _, s := range d.Sequences {
			if !declared.Contains(s.Event) {
				return nil, errors.New(errors.ErrCodeInvalidEvent, "sequence %q has undeclared event %q", s.Name, s.Event)
			}
		}
	}
	for _, e := range d.Events {
		if err := errors.ValidateEventName(e); err != nil {
			return nil, err
		}
	}

	b := flower.NewBuilder()
	for _, s := range d.Sequences {
		b.Sequence(flower.SequenceSpec{Name: s.Name, Event: s.Event, Start: s.Start, Bases: s.Bases})
	}
	for _, n := range d.Nests {
		b.Nest(flower.NestSpec{Name: n.Name, Parent: n.Parent})
	}
	for _, blk := range d.Blocks {
		spec := flower.BlockSpec{Name: blk.Name, Length: blk.Length, Flower: blk.Flower}
		for _, p := range blk.Segments {
			rev, err := parseStrand(p.Strand)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "block %s on %s", blk.Name, p.Sequence)
			}
			spec.Segments = append(spec.Segments, flower.Placement{Sequence: p.Sequence, Start: p.Start, Reverse: rev})
		}
		b.Block(spec)
	}
	g, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// FromGraph describes g as a document with inline bases. Blocks are listed
// flower by flower, root first.
func FromGraph(g *flower.Graph) *Document {
	d := &Document{}
	for _, e := range g.Events() {
		d.Events = append(d.Events, e.Header())
	}
	for _, s := range g.Sequences() {
		d.Sequences = append(d.Sequences, Sequence{Name: s.Header(), Event: s.Event().Header(), Start: s.Start(), Bases: s.Bases()})
	}
	for _, f := range g.Flowers() {
		if f != g.Root() {
			n := Nest{Name: f.Name()}
			if p := f.ParentGroup().Flower(); p != g.Root() {
				n.Parent = p.Name()
			}
			d.Nests = append(d.Nests, n)
		}
		for _, blk := range f.Blocks() {
			out := Block{Name: blk.Label(), Length: blk.Length()}
			if f != g.Root() {
				out.Flower = f.Name()
			}
			for _, s := range blk.Instances() {
				if !s.Strand() {
					s = s.Reverse()
				}
				p := Placement{Sequence: s.Sequence().Header(), Start: s.Start(), Strand: "+"}
				if !s.Orientation() {
					p.Strand = "-"
				}
				out.Segments = append(out.Segments, p)
			}
			d.Blocks = append(d.Blocks, out)
		}
	}
	return d
}

// Hash returns a content hash of d.
func Hash(d *Document) string {
	data, _ := json.Marshal(d)
	return cache.Hash(data)
}
