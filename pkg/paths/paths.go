// Package paths builds the contig paths of a chosen genome: maximal chains
// of its segments joined by adjacencies that a target event also makes with
// no unaligned bases between them.
//
// Build visits flowers root first and the segments of each flower in block
// order. A segment of the chosen event whose 5' end holds a target cap
// starts a path unless an earlier path already took it; the builder first
// walks back across supported adjacencies to the true start of the chain,
// then forward, appending segments until the next adjacency is unsupported
// or leads nowhere. All walks are loops; chain length never grows the stack.
//
// Every path is checked after construction. Failures of these checks are
// invariant violations (see [errors.IsInvariant]).
package paths

import (
	"fmt"
	"sort"

	"github.com/matzehuels/hapaudit/pkg/adjacency"
	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/flower"
)

// ContigPath is an ordered, non-empty chain of segments of one genome read
// 5' to 3'.
type ContigPath struct {
	ID       int
	Segments []flower.Segment
}

func (p *ContigPath) Len() int              { return len(p.Segments) }
func (p *ContigPath) First() flower.Segment { return p.Segments[0] }
func (p *ContigPath) Last() flower.Segment  { return p.Segments[len(p.Segments)-1] }

// Length returns the number of aligned bases in p.
func (p *ContigPath) Length() int64 {
	var n int64
	for _, s := range p.Segments {
		n += s.Length()
	}
	return n
}

// Sequence returns the sequence p lies on.
func (p *ContigPath) Sequence() *flower.Sequence { return p.Segments[0].Sequence() }

// Strand reports whether p reads along the positive strand.
func (p *ContigPath) Strand() bool { return p.Segments[0].Strand() }

// Oriented returns the first and last segments of p as read along the
// positive strand of its sequence.
func (p *ContigPath) Oriented() (first, last flower.Segment) {
	if p.Strand() {
		return p.First(), p.Last()
	}
	return p.Last().Reverse(), p.First().Reverse()
}

func (p *ContigPath) String() string {
	first, last := p.Oriented()
	return fmt.Sprintf("contig path %d (%s:%d-%d, %d segments)",
		p.ID, p.Sequence().Header(), first.Start(), last.Start()+last.Length(), p.Len())
}

// Build returns the contig paths of the chosen event. Paths are numbered
// from zero in the order they are found.
func Build(g *flower.Graph, chosen string, targets flower.EventSet, trav *adjacency.Traverser) ([]*ContigPath, error) {
	b := &builder{
		trav:    trav,
		chosen:  chosen,
		targets: targets,
		seen:    make(map[flower.SegmentKey]bool),
	}
	var out []*ContigPath
	for _, f := range g.Flowers() {
		for _, s := range f.Segments() {
			if b.seen[s.Key()] || s.Event().Header() != chosen {
				continue
			}
			if !adjacency.HasCapInEvents(s.Cap5().End(), targets) {
				continue
			}
			segs, err := b.path(s)
			if err != nil {
				return nil, err
			}
			out = append(out, &ContigPath{ID: len(out), Segments: segs})
		}
	}
	if err := b.check(g, out); err != nil {
		return nil, err
	}
	return out, nil
}

type builder struct {
	trav    *adjacency.Traverser
	chosen  string
	targets flower.EventSet
	seen    map[flower.SegmentKey]bool
}

// path returns the maximal chain through s.
func (b *builder) path(s flower.Segment) ([]flower.Segment, error) {
	start := s
	visited := map[flower.SegmentKey]bool{s.Key(): true}
	for {
		ok, err := b.trav.IsSupported(start.Cap5(), b.targets)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		prev, found, err := b.trav.AdjacentSegment(start.Cap5())
		if err != nil {
			return nil, err
		}
		if !found {
			break
		}
		if visited[prev.Key()] || b.seen[prev.Key()] {
			return nil, errors.Invariant("walking back from %s revisits %s", s, prev)
		}
		visited[prev.Key()] = true
		start = prev
	}

	var segs []flower.Segment
	cur := start
	for {
		if b.seen[cur.Key()] {
			return nil, errors.Invariant("%s is already on a contig path", cur)
		}
		b.seen[cur.Key()] = true
		segs = append(segs, cur)

		ok, err := b.trav.IsSupported(cur.Cap3(), b.targets)
		if err != nil {
			return nil, err
		}
		if !ok {
			return segs, nil
		}
		next, found, err := b.trav.AdjacentSegment(cur.Cap3())
		if err != nil {
			return nil, err
		}
		if !found {
			return segs, nil
		}
		cur = next
	}
}

// check verifies coverage of the chosen event's segments, maximality and
// internal connectivity of every path.
func (b *builder) check(g *flower.Graph, ps []*ContigPath) error {
	for _, f := range g.Flowers() {
		for _, s := range f.Segments() {
			if s.Event().Header() != b.chosen || b.seen[s.Key()] {
				continue
			}
			if adjacency.HasCapInEvents(s.Cap5().End(), b.targets) {
				return errors.Invariant("%s is on no contig path", s)
			}
		}
	}
	for _, p := range ps {
		if err := b.checkPath(p); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) checkPath(p *ContigPath) error {
	if p.Len() == 0 {
		return errors.Invariant("contig path %d is empty", p.ID)
	}
	for _, c := range []flower.Cap{p.First().Cap5(), p.Last().Cap3()} {
		_, found, err := b.trav.AdjacentSegment(c)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		ok, err := b.trav.IsSupported(c, b.targets)
		if err != nil {
			return err
		}
		if ok {
			return errors.Invariant("%s is not maximal: %s is supported", p, c)
		}
	}
	strand := p.Strand()
	for i, s := range p.Segments {
		if s.Event().Header() != b.chosen {
			return errors.Invariant("%s holds %s of event %s", p, s, s.Event())
		}
		if s.Strand() != strand {
			return errors.Invariant("%s changes strand at %s", p, s)
		}
		if i == 0 {
			continue
		}
		if err := b.checkJoin(p, p.Segments[i-1], s); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) checkJoin(p *ContigPath, s5, s3 flower.Segment) error {
	for _, c := range []flower.Cap{s5.Cap3(), s3.Cap5()} {
		ok, err := b.trav.IsSupported(c, b.targets)
		if err != nil {
			return err
		}
		if !ok {
			return errors.Invariant("%s joins %s and %s through unsupported %s", p, s5, s3, c)
		}
	}
	t5, err := b.trav.TerminalCap(s5.Cap3())
	if err != nil {
		return err
	}
	t3, err := b.trav.TerminalCap(s3.Cap5())
	if err != nil {
		return err
	}
	if adj, ok := t5.Adjacency(); !ok || adj != t3 {
		return errors.Invariant("%s: %s is not adjacent to %s", p, s5, s3)
	}
	return nil
}

// Index maps every segment on a path to its path.
func Index(ps []*ContigPath) map[flower.SegmentKey]*ContigPath {
	m := make(map[flower.SegmentKey]*ContigPath)
	for _, p := range ps {
		for _, s := range p.Segments {
			m[s.Key()] = p
		}
	}
	return m
}

// Lengths maps path IDs to path lengths.
func Lengths(ps []*ContigPath) map[int]int64 {
	m := make(map[int]int64, len(ps))
	for _, p := range ps {
		m[p.ID] = p.Length()
	}
	return m
}

// Total returns the summed length of ps.
func Total(ps []*ContigPath) int64 {
	var n int64
	for _, p := range ps {
		n += p.Length()
	}
	return n
}

// N50 returns the largest length L such that the lengths of at least L
// cover half the total.
func N50(lengths []int64) int64 {
	if len(lengths) == 0 {
		return 0
	}
	ls := append([]int64(nil), lengths...)
	sort.Slice(ls, func(i, j int) bool { return ls[i] > ls[j] })
	var total, acc int64
	for _, l := range ls {
		total += l
	}
	for _, l := range ls {
		acc += l
		if 2*acc >= total {
			return l
		}
	}
	return ls[len(ls)-1]
}
