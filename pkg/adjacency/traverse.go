package adjacency

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/flower"
)

// DefaultCacheSize is the number of terminal caps a Traverser remembers when
// Options.CacheSize is zero.
const DefaultCacheSize = 4096

// Options configures a Traverser.
type Options struct {
	// IgnoreAdjacencyBases makes every adjacency span zero bases.
	IgnoreAdjacencyBases bool

	// CacheSize bounds the terminal-cap cache. Zero selects
	// DefaultCacheSize; a negative value disables caching.
	CacheSize int
}

// Traverser walks a graph's hierarchy. It holds no reference to a graph and
// may be shared between graphs; the cache is keyed by cap identity.
// A Traverser is safe for concurrent use.
type Traverser struct {
	opts     Options
	terminal *lru.Cache[flower.Cap, flower.Cap]
}

// New returns a Traverser configured by opts.
func New(opts Options) (*Traverser, error) {
	t := &Traverser{opts: opts}
	size := opts.CacheSize
	if size == 0 {
		size = DefaultCacheSize
	}
	if size > 0 {
		c, err := lru.New[flower.Cap, flower.Cap](size)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidParameters, err, "terminal cap cache")
		}
		t.terminal = c
	}
	return t, nil
}

// Options returns the options t was created with.
func (t *Traverser) Options() Options { return t.opts }

// TerminalCap returns the deepest copy of c, in c's orientation. A cap whose
// group is terminal is its own terminal cap.
func (t *Traverser) TerminalCap(c flower.Cap) (flower.Cap, error) {
	pos := c.PositiveOrientation()
	if t.terminal != nil {
		if v, ok := t.terminal.Get(pos); ok {
			return orient(v, c), nil
		}
	}
	cur := pos
	for {
		grp := cur.End().Group()
		if grp == nil {
			return flower.Cap{}, errors.Invariant("%s has no group", cur.End())
		}
		nested := grp.Nested()
		if nested == nil {
			break
		}
		next, ok := nested.Cap(cur.Name())
		if !ok {
			return flower.Cap{}, errors.Invariant("%s has no copy in nested %s", cur, nested)
		}
		cur = next
	}
	if t.terminal != nil {
		t.terminal.Add(pos, cur)
	}
	return orient(cur, c), nil
}

// orient returns v in the orientation of c, given v in positive orientation.
func orient(v, c flower.Cap) flower.Cap {
	if !c.Orientation() {
		return v.Reverse()
	}
	return v
}

// CapSegment returns the segment c bounds. A stub cap is looked up at each
// ancestor level until a level owns its segment; a cap that reaches the
// root flower without one has no segment and ok is false.
func (t *Traverser) CapSegment(c flower.Cap) (seg flower.Segment, ok bool, err error) {
	cur := c
	for {
		if s, ok := cur.Segment(); ok {
			return s, true, nil
		}
		end := cur.End()
		if !end.IsStubEnd() {
			return flower.Segment{}, false, errors.Invariant("%s on a block end has no segment", cur)
		}
		parent := end.Flower().ParentGroup()
		if parent == nil {
			return flower.Segment{}, false, nil
		}
		up, found := parent.Flower().Cap(cur.Name())
		if !found {
			return flower.Segment{}, false, errors.Invariant("%s has no copy in parent %s", cur, parent.Flower())
		}
		cur = orient(up, cur)
	}
}

// AdjacentSegment returns the segment reached across the adjacency that
// leaves c, oriented so that the partner cap is one of its caps.
func (t *Traverser) AdjacentSegment(c flower.Cap) (flower.Segment, bool, error) {
	partner, err := t.Partner(c)
	if err != nil {
		return flower.Segment{}, false, err
	}
	return t.CapSegment(partner)
}

// Partner returns the adjacency partner of c's terminal cap.
func (t *Traverser) Partner(c flower.Cap) (flower.Cap, error) {
	term, err := t.TerminalCap(c)
	if err != nil {
		return flower.Cap{}, err
	}
	partner, ok := term.Adjacency()
	if !ok {
		return flower.Cap{}, errors.Invariant("%s has no adjacency", term)
	}
	return partner, nil
}

// gap locates the unaligned bases between c's terminal cap and its partner
// on the positive strand.
func (t *Traverser) gap(c flower.Cap) (seq *flower.Sequence, start, length int64, err error) {
	term, err := t.TerminalCap(c)
	if err != nil {
		return nil, 0, 0, err
	}
	if !term.Strand() {
		term = term.Reverse()
	}
	partner, ok := term.Adjacency()
	if !ok {
		return nil, 0, 0, errors.Invariant("%s has no adjacency", term)
	}
	d := term.Coordinate() - partner.Coordinate()
	switch {
	case d > 0:
		if !term.Side() || partner.Side() {
			return nil, 0, 0, errors.Invariant("%s and %s are adjacent on the wrong sides", term, partner)
		}
		return term.Sequence(), partner.Coordinate() + 1, d - 1, nil
	case d < 0:
		if term.Side() || !partner.Side() {
			return nil, 0, 0, errors.Invariant("%s and %s are adjacent on the wrong sides", term, partner)
		}
		return term.Sequence(), term.Coordinate() + 1, -d - 1, nil
	default:
		return nil, 0, 0, errors.Invariant("%s and its partner %s share coordinate %d", term, partner, term.Coordinate())
	}
}

// AdjacencyBases returns the unaligned bases between c's terminal cap and
// its partner, read on the positive strand.
func (t *Traverser) AdjacencyBases(c flower.Cap) (string, error) {
	if t.opts.IgnoreAdjacencyBases {
		return "", nil
	}
	seq, start, length, err := t.gap(c)
	if err != nil {
		return "", err
	}
	return seq.Substring(start, length, true), nil
}

// AdjacencyLength returns the number of unaligned bases between c's
// terminal cap and its partner.
func (t *Traverser) AdjacencyLength(c flower.Cap) (int64, error) {
	if t.opts.IgnoreAdjacencyBases {
		return 0, nil
	}
	_, _, length, err := t.gap(c)
	return length, err
}

// IsSupported reports whether the adjacency leaving c spans no unaligned
// bases and is also made, with no unaligned bases, by a cap of one of the
// target events.
func (t *Traverser) IsSupported(c flower.Cap, targets flower.EventSet) (bool, error) {
	n, err := t.AdjacencyLength(c)
	if err != nil || n > 0 {
		return false, err
	}
	term, err := t.TerminalCap(c)
	if err != nil {
		return false, err
	}
	partner, ok := term.Adjacency()
	if !ok {
		return false, errors.Invariant("%s has no adjacency", term)
	}
	if back, ok := partner.Adjacency(); !ok || back != term {
		return false, errors.Invariant("adjacency of %s is not symmetric", term)
	}
	otherEnd := partner.End()
	for _, c2 := range term.End().Instances() {
		o2, ok := c2.Adjacency()
		if !ok {
			return false, errors.Invariant("%s has no adjacency", c2)
		}
		if o2.End() != otherEnd {
			continue
		}
		if c2.Event() != o2.Event() {
			return false, errors.Invariant("%s and %s are adjacent across events", c2, o2)
		}
		if !targets.Has(c2.Event()) {
			continue
		}
		n2, err := t.AdjacencyLength(c2)
		if err != nil {
			return false, err
		}
		if n2 == 0 {
			return true, nil
		}
	}
	return false, nil
}
