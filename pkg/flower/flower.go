package flower

import (
	"fmt"

	"github.com/matzehuels/hapaudit/pkg/errors"
)

// EndKind distinguishes ends of aligned blocks from stub ends.
type EndKind int

const (
	// BlockEnd is one side of a block owned by the end's flower.
	BlockEnd EndKind = iota
	// StubEnd is a telomere, or the copy of a parent-level end inside a
	// nested flower.
	StubEnd
)

func (k EndKind) String() string {
	if k == StubEnd {
		return "stub"
	}
	return "block"
}

// End is one homologous block extremity across all genomes at one level of
// the hierarchy. It owns one cap per occurrence.
type End struct {
	name      Name
	kind      EndKind
	attached  bool
	side      bool
	flower    *Flower
	group     *Group
	block     *Block
	instances []*capRecord
}

func (e *End) Name() Name       { return e.name }
func (e *End) Kind() EndKind    { return e.kind }
func (e *End) Flower() *Flower  { return e.flower }
func (e *End) Group() *Group    { return e.group }
func (e *End) IsBlockEnd() bool { return e.kind == BlockEnd }
func (e *End) IsStubEnd() bool  { return e.kind == StubEnd }

// Attached reports whether a stub end stands for an end of an ancestor
// flower. Free stubs are telomeres of the root flower.
func (e *End) Attached() bool { return e.attached }

// Side reports whether the positive orientation of e is a 5' side.
func (e *End) Side() bool { return e.side }

// Block returns the block e bounds, or nil for stub ends.
func (e *End) Block() *Block { return e.block }

// InstanceCount returns the number of caps at e.
func (e *End) InstanceCount() int { return len(e.instances) }

// Instances returns the caps at e in their positive orientation.
func (e *End) Instances() []Cap {
	out := make([]Cap, len(e.instances))
	for i, r := range e.instances {
		out[i] = Cap{r: r}
	}
	return out
}

func (e *End) String() string {
	return fmt.Sprintf("end %d (%s, flower %s)", e.name, e.kind, e.flower.name)
}

// Block is an aligned column of segments in one flower.
type Block struct {
	name      Name
	label     string
	length    int64
	flower    *Flower
	end5      *End
	end3      *End
	instances []*segmentRecord
}

func (b *Block) Name() Name      { return b.name }
func (b *Block) Label() string   { return b.label }
func (b *Block) Length() int64   { return b.length }
func (b *Block) Flower() *Flower { return b.flower }
func (b *Block) End5() *End      { return b.end5 }
func (b *Block) End3() *End      { return b.end3 }

// Instances returns the block's segments in the block's orientation.
func (b *Block) Instances() []Segment {
	out := make([]Segment, len(b.instances))
	for i, r := range b.instances {
		out[i] = Segment{r: r}
	}
	return out
}

// Group is a set of ends closed under adjacency within one flower. A group
// either is terminal or owns a nested flower resolving its interior.
type Group struct {
	name   Name
	flower *Flower
	ends   []*End
	nested *Flower
}

func (g *Group) Name() Name      { return g.name }
func (g *Group) Flower() *Flower { return g.flower }
func (g *Group) Ends() []*End    { return g.ends }

// Nested returns the flower resolving the group, or nil for terminal groups.
func (g *Group) Nested() *Flower { return g.nested }

// IsTerminal reports whether the group has no nested flower.
func (g *Group) IsTerminal() bool { return g.nested == nil }

// Flower is one level of the alignment hierarchy.
type Flower struct {
	name   string
	depth  int
	graph  *Graph
	parent *Group
	caps   map[Name]*capRecord
	ends   []*End
	blocks []*Block
	groups []*Group
}

func (f *Flower) Name() string     { return f.name }
func (f *Flower) Depth() int       { return f.depth }
func (f *Flower) Graph() *Graph    { return f.graph }
func (f *Flower) Ends() []*End     { return f.ends }
func (f *Flower) Blocks() []*Block { return f.blocks }
func (f *Flower) Groups() []*Group { return f.groups }

// ParentGroup returns the group owning f, or nil for the root flower.
func (f *Flower) ParentGroup() *Group { return f.parent }

// Cap returns the cap with the given name at this level, in positive
// orientation.
func (f *Flower) Cap(name Name) (Cap, bool) {
	r, ok := f.caps[name]
	if !ok {
		return Cap{}, false
	}
	return Cap{r: r}, true
}

// Segments returns every segment of the blocks owned by f, in block
// orientation.
func (f *Flower) Segments() []Segment {
	var out []Segment
	for _, b := range f.blocks {
		out = append(out, b.Instances()...)
	}
	return out
}

func (f *Flower) String() string { return "flower " + f.name }

// Graph is a complete alignment hierarchy.
type Graph struct {
	root      *Flower
	events    []*Event
	sequences []*Sequence
	eventIdx  map[string]*Event
	seqIdx    map[string]*Sequence
	flowerIdx map[string]*Flower
}

// Root returns the top-level flower.
func (g *Graph) Root() *Flower { return g.root }

// Events returns all lineage labels in order of first appearance.
func (g *Graph) Events() []*Event { return g.events }

// Event looks up an event by header.
func (g *Graph) Event(header string) (*Event, bool) {
	e, ok := g.eventIdx[header]
	return e, ok
}

// Sequences returns all sequences in insertion order.
func (g *Graph) Sequences() []*Sequence { return g.sequences }

// Sequence looks up a sequence by header.
func (g *Graph) Sequence(header string) (*Sequence, bool) {
	s, ok := g.seqIdx[header]
	return s, ok
}

// Flower looks up a flower by name. The top-level flower is named
// [RootName].
func (g *Graph) Flower(name string) (*Flower, bool) {
	f, ok := g.flowerIdx[name]
	return f, ok
}

// Flowers returns every flower in depth-first order, the root first.
// Children are visited in group order.
func (g *Graph) Flowers() []*Flower {
	var out []*Flower
	stack := []*Flower{g.root}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, f)
		for i := len(f.groups) - 1; i >= 0; i-- {
			if n := f.groups[i].nested; n != nil {
				stack = append(stack, n)
			}
		}
	}
	return out
}

// Validate checks the record-level invariants every traversal relies on:
// adjacency is symmetric, every cap belongs to an end that lists it, and
// every segment is bounded by caps that point back at it.
func (g *Graph) Validate() error {
	for _, f := range g.Flowers() {
		for _, e := range f.ends {
			if e.flower != f {
				return errors.Invariant("%s listed in %s", e, f)
			}
			for _, r := range e.instances {
				c := Cap{r: r}
				if r.end != e {
					return errors.Invariant("%s listed at %s", c, e)
				}
				if f.caps[r.name] != r {
					return errors.Invariant("%s not indexed by %s", c, f)
				}
				for _, v := range []Cap{c, c.Reverse()} {
					a, ok := v.Adjacency()
					if !ok {
						return errors.Invariant("%s has no adjacency", v)
					}
					back, ok := a.Adjacency()
					if !ok || back != v {
						return errors.Invariant("adjacency of %s is not symmetric", v)
					}
					if a.Flower() != f {
						return errors.Invariant("%s is adjacent to %s in another flower", v, a)
					}
				}
				if (r.seg != nil) != e.IsBlockEnd() {
					return errors.Invariant("%s on %s end has mismatched segment", c, e.kind)
				}
			}
		}
		for _, b := range f.blocks {
			for _, s := range b.Instances() {
				if s.Cap5().r.seg != s.r || s.Cap3().r.seg != s.r {
					return errors.Invariant("%s caps do not point back at it", s)
				}
				if s.Cap5().End() != b.end5 || s.Cap3().End() != b.end3 {
					return errors.Invariant("%s caps are not on the ends of its block", s)
				}
			}
		}
	}
	return nil
}
