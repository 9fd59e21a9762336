package flower

import (
	"sort"

	"github.com/matzehuels/hapaudit/pkg/errors"
)

// RootName is the name of the top-level flower. Nests may not use it.
const RootName = "root"

// SequenceSpec declares a sequence. Bases may be empty for sequences whose
// content is loaded later; Start is the absolute coordinate of the first
// base.
type SequenceSpec struct {
	Name  string
	Event string
	Start int64
	Bases string
}

// NestSpec declares a nested flower. An empty Parent nests under the root.
type NestSpec struct {
	Name   string
	Parent string
}

// Placement puts one occurrence of a block on a sequence. Start is the
// lowest coordinate covered; Reverse places the block on the negative
// strand.
type Placement struct {
	Sequence string
	Start    int64
	Reverse  bool
}

// BlockSpec declares a block and its occurrences. An empty Flower places
// the block in the root flower.
type BlockSpec struct {
	Name     string
	Length   int64
	Flower   string
	Segments []Placement
}

// Builder collects a declarative description of a graph. The zero value is
// ready to use; [Builder.Build] validates the description as a whole.
type Builder struct {
	seqs   []SequenceSpec
	nests  []NestSpec
	blocks []BlockSpec
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// Sequence adds a sequence.
func (b *Builder) Sequence(s SequenceSpec) *Builder {
	b.seqs = append(b.seqs, s)
	return b
}

// Nest adds a nested flower.
func (b *Builder) Nest(n NestSpec) *Builder {
	b.nests = append(b.nests, n)
	return b
}

// Block adds a block.
func (b *Builder) Block(s BlockSpec) *Builder {
	b.blocks = append(b.blocks, s)
	return b
}

type interval struct {
	lo, hi int64 // inclusive
	block  string
}

type build struct {
	g    *Graph
	next Name

	nestParent   map[string]string
	nestChildren map[string][]string
	blocksByNest map[string][]BlockSpec
	subtree      map[string][]resolved // placements under each nest, descendants included
}

type resolved struct {
	block string
	seq   *Sequence
	lo    int64
	hi    int64
}

func (bd *build) name() Name {
	bd.next++
	return bd.next
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidGraph, format, args...)
}

// Build validates the description and returns the graph.
func (b *Builder) Build() (*Graph, error) {
	bd := &build{
		g: &Graph{
			eventIdx:  make(map[string]*Event),
			seqIdx:    make(map[string]*Sequence),
			flowerIdx: make(map[string]*Flower),
		},
		nestParent:   map[string]string{},
		nestChildren: map[string][]string{},
		blocksByNest: map[string][]BlockSpec{},
		subtree:      map[string][]resolved{},
	}
	if err := bd.sequences(b.seqs); err != nil {
		return nil, err
	}
	if err := bd.nests(b.nests); err != nil {
		return nil, err
	}
	if err := bd.blocks(b.blocks); err != nil {
		return nil, err
	}
	if err := bd.flowers(); err != nil {
		return nil, err
	}
	return bd.g, nil
}

func (bd *build) sequences(specs []SequenceSpec) error {
	if len(specs) == 0 {
		return invalid("graph has no sequences")
	}
	for _, s := range specs {
		if s.Name == "" {
			return invalid("sequence name cannot be empty")
		}
		if s.Event == "" {
			return invalid("sequence %q has no event", s.Name)
		}
		if s.Start < 0 {
			return invalid("sequence %q starts at negative coordinate %d", s.Name, s.Start)
		}
		if _, dup := bd.g.seqIdx[s.Name]; dup {
			return invalid("duplicate sequence %q", s.Name)
		}
		ev, ok := bd.g.eventIdx[s.Event]
		if !ok {
			ev = &Event{name: bd.name(), header: s.Event}
			bd.g.eventIdx[s.Event] = ev
			bd.g.events = append(bd.g.events, ev)
		}
		seq := &Sequence{name: bd.name(), header: s.Name, event: ev, start: s.Start, bases: s.Bases}
		bd.g.seqIdx[s.Name] = seq
		bd.g.sequences = append(bd.g.sequences, seq)
	}
	return nil
}

func (bd *build) nests(specs []NestSpec) error {
	for _, n := range specs {
		if n.Name == "" || n.Name == RootName {
			return invalid("invalid nest name %q", n.Name)
		}
		if _, dup := bd.nestParent[n.Name]; dup {
			return invalid("duplicate nest %q", n.Name)
		}
		bd.nestParent[n.Name] = n.Parent
	}
	for _, n := range specs {
		if n.Parent != "" {
			if _, ok := bd.nestParent[n.Parent]; !ok {
				return invalid("nest %q has unknown parent %q", n.Name, n.Parent)
			}
		}
		bd.nestChildren[n.Parent] = append(bd.nestChildren[n.Parent], n.Name)
	}
	for _, n := range specs {
		cur, steps := n.Name, 0
		for cur != "" {
			if steps > len(specs) {
				return invalid("nest %q is part of a cycle", n.Name)
			}
			cur = bd.nestParent[cur]
			steps++
		}
	}
	return nil
}

func (bd *build) blocks(specs []BlockSpec) error {
	seen := map[string]bool{}
	bySeq := map[*Sequence][]interval{}
	for _, blk := range specs {
		if blk.Name == "" {
			return invalid("block name cannot be empty")
		}
		if seen[blk.Name] {
			return invalid("duplicate block %q", blk.Name)
		}
		seen[blk.Name] = true
		if blk.Length < 1 {
			return invalid("block %q has length %d", blk.Name, blk.Length)
		}
		if blk.Flower != "" {
			if _, ok := bd.nestParent[blk.Flower]; !ok {
				return invalid("block %q placed in unknown nest %q", blk.Name, blk.Flower)
			}
		}
		if len(blk.Segments) == 0 {
			return invalid("block %q has no segments", blk.Name)
		}
		for _, p := range blk.Segments {
			seq, ok := bd.g.seqIdx[p.Sequence]
			if !ok {
				return invalid("block %q placed on unknown sequence %q", blk.Name, p.Sequence)
			}
			hi := p.Start + blk.Length - 1
			if p.Start < seq.start || hi >= seq.End() {
				return invalid("block %q at %s:%d-%d lies outside [%d, %d)",
					blk.Name, seq.header, p.Start, hi+1, seq.start, seq.End())
			}
			bySeq[seq] = append(bySeq[seq], interval{lo: p.Start, hi: hi, block: blk.Name})
			r := resolved{block: blk.Name, seq: seq, lo: p.Start, hi: hi}
			for n := blk.Flower; n != ""; n = bd.nestParent[n] {
				bd.subtree[n] = append(bd.subtree[n], r)
			}
		}
		bd.blocksByNest[blk.Flower] = append(bd.blocksByNest[blk.Flower], blk)
	}
	for seq, ivs := range bySeq {
		sort.Slice(ivs, func(i, j int) bool { return ivs[i].lo < ivs[j].lo })
		for i := 1; i < len(ivs); i++ {
			if ivs[i].lo <= ivs[i-1].hi {
				return invalid("blocks %q and %q overlap on %s at %d",
					ivs[i-1].block, ivs[i].block, seq.header, ivs[i].lo)
			}
		}
	}
	for n := range bd.nestParent {
		if len(bd.subtree[n]) == 0 {
			return invalid("nest %q contains no blocks", n)
		}
	}
	return nil
}

// pending is a flower whose ends and caps exist but whose adjacencies and
// groups are not yet computed.
type pending struct {
	f       *Flower
	nest    string
	visible map[*Sequence][]Cap // positive-strand views, unsorted
}

func (bd *build) flowers() error {
	root := &Flower{name: RootName, graph: bd.g, caps: map[Name]*capRecord{}}
	bd.g.root = root
	bd.g.flowerIdx[RootName] = root
	p := &pending{f: root, visible: map[*Sequence][]Cap{}}
	for _, seq := range bd.g.sequences {
		left := bd.telomere(root, seq, seq.start-1, false)
		right := bd.telomere(root, seq, seq.End(), true)
		p.visible[seq] = append(p.visible[seq], left, right)
	}

	queue := []*pending{p}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		bd.placeBlocks(p)
		pairs, err := bd.adjacencies(p)
		if err != nil {
			return err
		}
		bd.groups(p.f)
		children, err := bd.assignNests(p, pairs)
		if err != nil {
			return err
		}
		queue = append(queue, children...)
	}
	return nil
}

func (bd *build) telomere(f *Flower, seq *Sequence, coord int64, side bool) Cap {
	e := &End{name: bd.name(), kind: StubEnd, side: side, flower: f}
	f.ends = append(f.ends, e)
	r := &capRecord{name: bd.name(), end: e, event: seq.event, seq: seq, coord: coord, strand: true, side: side}
	e.instances = append(e.instances, r)
	f.caps[r.name] = r
	return Cap{r: r}
}

func (bd *build) placeBlocks(p *pending) {
	f := p.f
	for _, spec := range bd.blocksByNest[p.nest] {
		blk := &Block{name: bd.name(), label: spec.Name, length: spec.Length, flower: f}
		blk.end5 = &End{name: bd.name(), kind: BlockEnd, side: true, flower: f, block: blk}
		blk.end3 = &End{name: bd.name(), kind: BlockEnd, side: false, flower: f, block: blk}
		f.ends = append(f.ends, blk.end5, blk.end3)
		f.blocks = append(f.blocks, blk)

		for _, pl := range spec.Segments {
			seq := bd.g.seqIdx[pl.Sequence]
			strand := !pl.Reverse
			lo, hi := pl.Start, pl.Start+spec.Length-1
			seg := &segmentRecord{name: bd.name(), block: blk, seq: seq, lo: lo, length: spec.Length, strand: strand}
			c5 := &capRecord{name: bd.name(), end: blk.end5, event: seq.event, seq: seq, strand: strand, side: true, seg: seg}
			c3 := &capRecord{name: bd.name(), end: blk.end3, event: seq.event, seq: seq, strand: strand, side: false, seg: seg}
			var entry, exit Cap
			if strand {
				c5.coord, c3.coord = lo, hi
				entry, exit = Cap{r: c5}, Cap{r: c3}
			} else {
				c5.coord, c3.coord = hi, lo
				entry, exit = Cap{r: c3, rev: true}, Cap{r: c5, rev: true}
			}
			seg.cap5, seg.cap3 = c5, c3
			blk.instances = append(blk.instances, seg)
			blk.end5.instances = append(blk.end5.instances, c5)
			blk.end3.instances = append(blk.end3.instances, c3)
			f.caps[c5.name] = c5
			f.caps[c3.name] = c3
			p.visible[seq] = append(p.visible[seq], entry, exit)
		}
	}
}

// pair is an adjacency read along the positive strand: leaving a block at
// exit, entering the next one at entry.
type pair struct {
	exit, entry Cap
}

func (bd *build) adjacencies(p *pending) (map[*Sequence][]pair, error) {
	out := make(map[*Sequence][]pair, len(p.visible))
	for _, seq := range bd.g.sequences {
		caps, ok := p.visible[seq]
		if !ok {
			continue
		}
		sort.SliceStable(caps, func(i, j int) bool {
			if caps[i].Coordinate() != caps[j].Coordinate() {
				return caps[i].Coordinate() < caps[j].Coordinate()
			}
			return caps[i].Side() && !caps[j].Side()
		})
		if len(caps)%2 != 0 {
			return nil, invalid("%s has an unpaired cap on %s", p.f, seq.header)
		}
		for i := 0; i < len(caps); i += 2 {
			x, y := caps[i], caps[i+1]
			if x.Side() || !y.Side() {
				return nil, invalid("%s: caps %d and %d on %s are not an exit followed by an entry",
					p.f, x.Name(), y.Name(), seq.header)
			}
			x.r.adj, x.r.adjRev = y.r, y.rev != x.rev
			y.r.adj, y.r.adjRev = x.r, x.rev != y.rev
			out[seq] = append(out[seq], pair{exit: x, entry: y})
		}
	}
	return out, nil
}

// groups partitions the ends of f into connected components under
// adjacency.
func (bd *build) groups(f *Flower) {
	idx := make(map[*End]int, len(f.ends))
	for i, e := range f.ends {
		idx[e] = i
	}
	parent := make([]int, len(f.ends))
	for i := range parent {
		parent[i] = i
	}
	find := func(x int) int {
		root := x
		for parent[root] != root {
			root = parent[root]
		}
		for parent[x] != root {
			parent[x], x = root, parent[x]
		}
		return root
	}
	for _, e := range f.ends {
		for _, r := range e.instances {
			if r.adj == nil {
				continue
			}
			a, b := find(idx[e]), find(idx[r.adj.end])
			if a != b {
				parent[a] = b
			}
		}
	}
	byRoot := map[int]*Group{}
	for i, e := range f.ends {
		root := find(i)
		grp, ok := byRoot[root]
		if !ok {
			grp = &Group{name: bd.name(), flower: f}
			byRoot[root] = grp
			f.groups = append(f.groups, grp)
		}
		grp.ends = append(grp.ends, e)
		e.group = grp
	}
}

func (bd *build) assignNests(p *pending, pairs map[*Sequence][]pair) ([]*pending, error) {
	f := p.f
	owner := map[*Group]string{}
	var children []*pending
	for _, nest := range bd.nestChildren[p.nest] {
		var grp *Group
		for _, r := range bd.subtree[nest] {
			ps := pairs[r.seq]
			k := sort.Search(len(ps), func(i int) bool { return ps[i].exit.Coordinate() >= r.lo }) - 1
			if k < 0 || r.hi >= ps[k].entry.Coordinate() {
				return nil, invalid("block %q of nest %q at %s:%d overlaps a block of %s",
					r.block, nest, r.seq.header, r.lo, f)
			}
			g := ps[k].exit.End().group
			if grp == nil {
				grp = g
			} else if grp != g {
				return nil, invalid("nest %q spans more than one group of %s", nest, f)
			}
		}
		if other, taken := owner[grp]; taken {
			return nil, invalid("nests %q and %q resolve the same group of %s", other, nest, f)
		}
		owner[grp] = nest
		children = append(children, bd.nestedFlower(p, grp, nest))
	}
	return children, nil
}

func (bd *build) nestedFlower(p *pending, grp *Group, nest string) *pending {
	child := &Flower{name: nest, depth: p.f.depth + 1, graph: bd.g, parent: grp, caps: map[Name]*capRecord{}}
	grp.nested = child
	bd.g.flowerIdx[nest] = child
	for _, e := range grp.ends {
		stub := &End{name: e.name, kind: StubEnd, attached: true, side: e.side, flower: child}
		child.ends = append(child.ends, stub)
		for _, r := range e.instances {
			cp := &capRecord{name: r.name, end: stub, event: r.event, seq: r.seq, coord: r.coord, strand: r.strand, side: r.side}
			stub.instances = append(stub.instances, cp)
			child.caps[cp.name] = cp
		}
	}
	next := &pending{f: child, nest: nest, visible: map[*Sequence][]Cap{}}
	for seq, caps := range p.visible {
		for _, c := range caps {
			if c.End().group != grp {
				continue
			}
			next.visible[seq] = append(next.visible[seq], Cap{r: child.caps[c.Name()], rev: c.rev})
		}
	}
	return next
}
