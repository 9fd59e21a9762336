// Package scaffold merges contig paths into scaffold paths: sets of contig
// paths bridged by runs of Ns that the classifier reports as ambiguity or
// scaffold gaps.
//
// Buckets are kept in a union-find keyed by path position, with union by
// size and path compression. The aggregate length of a bucket is the sum of
// its contig path lengths and is independent of merge order.
package scaffold

import (
	"sort"

	"github.com/matzehuels/hapaudit/pkg/adjacency"
	"github.com/matzehuels/hapaudit/pkg/capcode"
	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/flower"
	"github.com/matzehuels/hapaudit/pkg/paths"
)

// Bridge records a gap boundary that joined two contig paths.
type Bridge struct {
	From   *paths.ContigPath
	To     *paths.ContigPath
	Cap    flower.Cap
	Result capcode.Result
}

// Scaffolds is the outcome of a merge. It is read-only and safe for
// concurrent use.
type Scaffolds struct {
	paths   []*paths.ContigPath
	pos     map[*paths.ContigPath]int
	set     *disjointSet
	bridges []Bridge
}

// Merge groups ps into scaffolds. Each path's leading boundary, read along
// the positive strand, is classified by k; gap boundaries are followed to
// the contig path they lead to and the two buckets are merged.
func Merge(ps []*paths.ContigPath, k *capcode.Classifier) (*Scaffolds, error) {
	s := &Scaffolds{
		paths: ps,
		pos:   make(map[*paths.ContigPath]int, len(ps)),
	}
	lengths := make([]int64, len(ps))
	for i, p := range ps {
		if p.Len() == 0 {
			return nil, errors.Invariant("contig path %d is empty", p.ID)
		}
		s.pos[p] = i
		lengths[i] = p.Length()
	}
	s.set = newDisjointSet(lengths)
	m := &merger{k: k, index: paths.Index(ps)}

	for i, p := range ps {
		first, _ := p.Oriented()
		c := first.Cap5()
		res, err := k.Classify(c)
		if err != nil {
			return nil, err
		}
		if !res.Code.IsGap() {
			continue
		}
		q, err := m.across(c, true)
		if err != nil {
			return nil, err
		}
		if q == p {
			return nil, errors.Invariant("gap at %s leads back to %s", c, p)
		}
		s.set.union(i, s.pos[q])
		s.bridges = append(s.bridges, Bridge{From: p, To: q, Cap: c, Result: res})
	}
	s.set.flatten()

	if err := s.verify(m); err != nil {
		return nil, err
	}
	return s, nil
}

type merger struct {
	k     *capcode.Classifier
	index map[flower.SegmentKey]*paths.ContigPath
}

// across follows the gap leaving c, skipping segments without target caps,
// and returns the contig path it reaches. With fivePrime the walk leaves
// through 5' caps, otherwise through 3' caps.
func (m *merger) across(c flower.Cap, fivePrime bool) (*paths.ContigPath, error) {
	trav, targets := m.k.Traverser(), m.k.Targets()
	leave := func(s flower.Segment) flower.Cap {
		if fivePrime {
			return s.Cap5()
		}
		return s.Cap3()
	}
	seen := make(map[flower.SegmentKey]bool)
	from := c
	for {
		seg, ok, err := trav.AdjacentSegment(from)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.Invariant("gap at %s runs off the sequence", c)
		}
		if adjacency.HasCapInEvents(leave(seg).End(), targets) {
			q, found := m.index[seg.Key()]
			if !found {
				return nil, errors.Invariant("gap at %s reaches %s outside every contig path", c, seg)
			}
			return q, nil
		}
		if seen[seg.Key()] {
			return nil, errors.Invariant("gap at %s revisits %s", c, seg)
		}
		seen[seg.Key()] = true
		from = leave(seg)
	}
}

// verify checks that both ends of every path agree with the buckets: a gap
// boundary at either end must lead to a path in the same bucket with the
// same aggregate length.
func (s *Scaffolds) verify(m *merger) error {
	trav, targets := m.k.Traverser(), m.k.Targets()
	for _, p := range s.paths {
		first, last := p.Oriented()
		for _, end := range []struct {
			cap       flower.Cap
			fivePrime bool
		}{{first.Cap5(), true}, {last.Cap3(), false}} {
			supported, err := trav.IsSupported(end.cap, targets)
			if err != nil {
				return err
			}
			if supported {
				return errors.Invariant("%s ends at supported %s", p, end.cap)
			}
			res, err := m.k.Classify(end.cap)
			if err != nil {
				return err
			}
			if !res.Code.IsGap() {
				continue
			}
			q, err := m.across(end.cap, end.fivePrime)
			if err != nil {
				return err
			}
			if q == p {
				return errors.Invariant("gap at %s leads back to %s", end.cap, p)
			}
			if s.Root(p) != s.Root(q) {
				return errors.Invariant("%s and %s are bridged at %s but in different scaffolds", p, q, end.cap)
			}
			if s.Length(p) != s.Length(q) {
				return errors.Invariant("%s and %s share a scaffold with lengths %d and %d", p, q, s.Length(p), s.Length(q))
			}
		}
	}
	return nil
}

// Paths returns the contig paths in merge order.
func (s *Scaffolds) Paths() []*paths.ContigPath { return s.paths }

// Bridges returns the gap boundaries that merged buckets.
func (s *Scaffolds) Bridges() []Bridge { return s.bridges }

// Root returns the ID of the representative path of p's bucket, or -1 if p
// was not merged.
func (s *Scaffolds) Root(p *paths.ContigPath) int {
	r := s.root(p)
	if r < 0 {
		return -1
	}
	return s.paths[r].ID
}

func (s *Scaffolds) root(p *paths.ContigPath) int {
	i, ok := s.pos[p]
	if !ok {
		return -1
	}
	return s.set.parent[i]
}

// Length returns the aggregate length of p's bucket.
func (s *Scaffolds) Length(p *paths.ContigPath) int64 {
	r := s.root(p)
	if r < 0 {
		return 0
	}
	return s.set.length[r]
}

// Bucket returns the paths sharing p's bucket, sorted by ID.
func (s *Scaffolds) Bucket(p *paths.ContigPath) []*paths.ContigPath {
	r := s.root(p)
	if r < 0 {
		return nil
	}
	var out []*paths.ContigPath
	for i, q := range s.paths {
		if s.set.parent[i] == r {
			out = append(out, q)
		}
	}
	sortByID(out)
	return out
}

// Buckets returns every bucket, each sorted by path ID, ordered by the
// smallest ID in each.
func (s *Scaffolds) Buckets() [][]*paths.ContigPath {
	byRoot := make(map[int][]*paths.ContigPath)
	for i, p := range s.paths {
		r := s.set.parent[i]
		byRoot[r] = append(byRoot[r], p)
	}
	out := make([][]*paths.ContigPath, 0, len(byRoot))
	for _, b := range byRoot {
		sortByID(b)
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0].ID < out[j][0].ID })
	return out
}

// Lengths maps each path ID to its bucket's aggregate length.
func (s *Scaffolds) Lengths() map[int]int64 {
	m := make(map[int]int64, len(s.paths))
	for i, p := range s.paths {
		m[p.ID] = s.set.length[s.set.parent[i]]
	}
	return m
}

// ScaffoldLengths returns one aggregate length per bucket, in Buckets
// order.
func (s *Scaffolds) ScaffoldLengths() []int64 {
	bs := s.Buckets()
	out := make([]int64, len(bs))
	for i, b := range bs {
		out[i] = s.Length(b[0])
	}
	return out
}

func sortByID(ps []*paths.ContigPath) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].ID < ps[j].ID })
}
