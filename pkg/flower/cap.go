package flower

import "fmt"

// Name identifies a cap, end, block or segment. A cap keeps its name at every
// level of the hierarchy it appears at.
type Name int64

type capRecord struct {
	name  Name
	end   *End
	event *Event
	seq   *Sequence
	coord int64

	// Strand and side of the positive orientation.
	strand bool
	side   bool

	// Adjacency of the positive orientation.
	adj    *capRecord
	adjRev bool

	seg *segmentRecord
}

// Cap is an oriented view of one occurrence of an end in a sequence. The
// zero Cap is invalid; check [Cap.Valid] on values returned with an ok flag.
type Cap struct {
	r   *capRecord
	rev bool
}

// Valid reports whether c refers to a cap.
func (c Cap) Valid() bool { return c.r != nil }

func (c Cap) Name() Name { return c.r.name }

// Reverse returns the same cap viewed from the opposite strand.
func (c Cap) Reverse() Cap { return Cap{r: c.r, rev: !c.rev} }

// Orientation reports whether c is in the positive orientation of its end.
func (c Cap) Orientation() bool { return !c.rev }

// PositiveOrientation returns c in the positive orientation of its end.
func (c Cap) PositiveOrientation() Cap { return Cap{r: c.r} }

// Strand reports whether c is read on the positive strand of its sequence.
func (c Cap) Strand() bool { return c.r.strand != c.rev }

// Side reports whether c is on the 5' side of its block on c's strand.
func (c Cap) Side() bool { return c.r.side != c.rev }

// Coordinate is the absolute position of the base c sits on. Telomere caps
// sit one base outside their sequence.
func (c Cap) Coordinate() int64 { return c.r.coord }

func (c Cap) Event() *Event       { return c.r.event }
func (c Cap) Sequence() *Sequence { return c.r.seq }
func (c Cap) End() *End           { return c.r.end }
func (c Cap) Flower() *Flower     { return c.r.end.flower }

// Adjacency returns the cap reached by leaving c across the unaligned bases
// that follow it, in the matching orientation.
func (c Cap) Adjacency() (Cap, bool) {
	if c.r.adj == nil {
		return Cap{}, false
	}
	return Cap{r: c.r.adj, rev: c.r.adjRev != c.rev}, true
}

// Segment returns the segment c bounds, oriented so that c is one of its
// caps. Caps on stub ends have no segment.
func (c Cap) Segment() (Segment, bool) {
	if c.r.seg == nil {
		return Segment{}, false
	}
	return Segment{r: c.r.seg, rev: c.rev}, true
}

// OtherSegmentCap returns the cap at the opposite end of c's segment, in the
// same orientation.
func (c Cap) OtherSegmentCap() (Cap, bool) {
	seg := c.r.seg
	if seg == nil {
		return Cap{}, false
	}
	if seg.cap5 == c.r {
		return Cap{r: seg.cap3, rev: c.rev}, true
	}
	return Cap{r: seg.cap5, rev: c.rev}, true
}

func (c Cap) String() string {
	if c.r == nil {
		return "cap(nil)"
	}
	strand := "+"
	if !c.Strand() {
		strand = "-"
	}
	return fmt.Sprintf("cap %d (%s:%d%s, end %d, flower %s)",
		c.r.name, c.r.seq.header, c.r.coord, strand, c.r.end.name, c.r.end.flower.name)
}

type segmentRecord struct {
	name   Name
	block  *Block
	seq    *Sequence
	lo     int64
	length int64
	strand bool // strand of the positive orientation

	// Caps of the positive orientation.
	cap5 *capRecord
	cap3 *capRecord
}

// Segment is an oriented view of one occurrence of a block in a sequence.
type Segment struct {
	r   *segmentRecord
	rev bool
}

// SegmentKey identifies a segment independent of orientation.
type SegmentKey struct{ r *segmentRecord }

func (s Segment) Valid() bool     { return s.r != nil }
func (s Segment) Name() Name      { return s.r.name }
func (s Segment) Key() SegmentKey { return SegmentKey{r: s.r} }

func (s Segment) Reverse() Segment { return Segment{r: s.r, rev: !s.rev} }

// Orientation reports whether s is in the orientation of its block.
func (s Segment) Orientation() bool { return !s.rev }

// Strand reports whether s reads along the positive strand of its sequence.
func (s Segment) Strand() bool { return s.r.strand != s.rev }

// Cap5 returns the cap s is entered through.
func (s Segment) Cap5() Cap {
	if s.rev {
		return Cap{r: s.r.cap3, rev: true}
	}
	return Cap{r: s.r.cap5}
}

// Cap3 returns the cap s is left through.
func (s Segment) Cap3() Cap {
	if s.rev {
		return Cap{r: s.r.cap5, rev: true}
	}
	return Cap{r: s.r.cap3}
}

func (s Segment) Length() int64       { return s.r.length }
func (s Segment) Event() *Event       { return s.r.seq.event }
func (s Segment) Sequence() *Sequence { return s.r.seq }
func (s Segment) Block() *Block       { return s.r.block }

// Start returns the coordinate of s's 5' cap. On the negative strand that is
// the highest base s covers.
func (s Segment) Start() int64 { return s.Cap5().Coordinate() }

// Low returns the lowest coordinate s covers, regardless of orientation.
func (s Segment) Low() int64 { return s.r.lo }

// Bases returns the bases of s read 5' to 3' on s's strand.
func (s Segment) Bases() string {
	return s.r.seq.Substring(s.r.lo, s.r.length, s.Strand())
}

func (s Segment) String() string {
	strand := "+"
	if !s.Strand() {
		strand = "-"
	}
	return fmt.Sprintf("segment %d (%s:%d-%d%s, block %s)",
		s.r.name, s.r.seq.header, s.r.lo, s.r.lo+s.r.length, strand, s.r.block.label)
}
