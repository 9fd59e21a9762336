// Package flowertest builds small alignment graphs for tests.
//
// A graph is described as tracks, one per sequence, each an ordered list of
// items read along the positive strand:
//
//	"b1"       block b1 on the positive strand
//	"-b1"      block b1 on the negative strand
//	"~ACGTNN"  unaligned bases
//
// Block bases default to a repeating ACGT pattern.
package flowertest

import (
	"fmt"
	"strings"

	"github.com/matzehuels/hapaudit/pkg/flower"
)

// Block declares a block's length and, optionally, the nest it belongs to
// and its bases in block orientation.
type Block struct {
	Name   string
	Length int64
	Flower string
	Bases  string
}

// Track is one sequence.
type Track struct {
	Name  string
	Event string
	Items []string
}

// Spec describes a graph.
type Spec struct {
	Blocks []Block
	Nests  []flower.NestSpec
	Tracks []Track
}

// Build assembles the graph described by s.
func Build(s Spec) (*flower.Graph, error) {
	blocks := make(map[string]*flower.BlockSpec, len(s.Blocks))
	bases := make(map[string]string, len(s.Blocks))
	var order []string
	for _, b := range s.Blocks {
		blocks[b.Name] = &flower.BlockSpec{Name: b.Name, Length: b.Length, Flower: b.Flower}
		bs := b.Bases
		if bs == "" {
			bs = pattern(b.Length)
		}
		if int64(len(bs)) != b.Length {
			return nil, fmt.Errorf("block %s: %d bases for length %d", b.Name, len(bs), b.Length)
		}
		bases[b.Name] = bs
		order = append(order, b.Name)
	}

	bld := flower.NewBuilder()
	for _, t := range s.Tracks {
		var seq strings.Builder
		for _, item := range t.Items {
			if strings.HasPrefix(item, "~") {
				seq.WriteString(item[1:])
				continue
			}
			name, rev := strings.TrimPrefix(item, "-"), strings.HasPrefix(item, "-")
			b, ok := blocks[name]
			if !ok {
				return nil, fmt.Errorf("track %s: unknown block %s", t.Name, name)
			}
			b.Segments = append(b.Segments, flower.Placement{
				Sequence: t.Name,
				Start:    int64(seq.Len()),
				Reverse:  rev,
			})
			if rev {
				seq.WriteString(flower.ReverseComplement(bases[name]))
			} else {
				seq.WriteString(bases[name])
			}
		}
		bld.Sequence(flower.SequenceSpec{Name: t.Name, Event: t.Event, Bases: seq.String()})
	}
	for _, n := range s.Nests {
		bld.Nest(n)
	}
	for _, name := range order {
		bld.Block(*blocks[name])
	}
	return bld.Build()
}

// MustBuild is like Build but panics on error.
func MustBuild(s Spec) *flower.Graph {
	g, err := Build(s)
	if err != nil {
		panic(err)
	}
	return g
}

func pattern(n int64) string {
	return strings.Repeat("ACGT", int(n/4)+1)[:n]
}

// Segment returns the segment of block on sequence, in block orientation.
func Segment(g *flower.Graph, block, sequence string) flower.Segment {
	for _, f := range g.Flowers() {
		for _, b := range f.Blocks() {
			if b.Label() != block {
				continue
			}
			for _, s := range b.Instances() {
				if s.Sequence().Header() == sequence {
					return s
				}
			}
		}
	}
	panic(fmt.Sprintf("no segment of %s on %s", block, sequence))
}

// Forward returns the segment of block on sequence oriented along the
// positive strand.
func Forward(g *flower.Graph, block, sequence string) flower.Segment {
	s := Segment(g, block, sequence)
	if !s.Strand() {
		return s.Reverse()
	}
	return s
}
