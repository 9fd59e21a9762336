package flower

import (
	"sort"
	"strings"

	"github.com/biogo/biogo/alphabet"
)

// Event is a lineage label: a reference haplotype, a contamination source or
// the assembly under audit.
type Event struct {
	name   Name
	header string
}

// Name returns the event's identifier.
func (e *Event) Name() Name { return e.name }

// Header returns the label the event is referred to by in configuration.
func (e *Event) Header() string { return e.header }

func (e *Event) String() string { return e.header }

// Sequence is one physical sequence of an event, addressed by absolute
// coordinates in [Start, Start+Length).
type Sequence struct {
	name   Name
	header string
	event  *Event
	start  int64
	bases  string
}

func (s *Sequence) Name() Name     { return s.name }
func (s *Sequence) Header() string { return s.header }
func (s *Sequence) Event() *Event  { return s.event }
func (s *Sequence) Start() int64   { return s.start }
func (s *Sequence) Length() int64  { return int64(len(s.bases)) }
func (s *Sequence) End() int64     { return s.start + int64(len(s.bases)) }
func (s *Sequence) Bases() string  { return s.bases }
func (s *Sequence) String() string { return s.header }

// Substring returns length bases starting at absolute coordinate start. On
// the negative strand the same interval is returned reverse complemented.
// The interval is clipped to the sequence.
func (s *Sequence) Substring(start, length int64, strand bool) string {
	lo := start - s.start
	hi := lo + length
	if lo < 0 {
		lo = 0
	}
	if hi > int64(len(s.bases)) {
		hi = int64(len(s.bases))
	}
	if hi <= lo {
		return ""
	}
	sub := s.bases[lo:hi]
	if strand {
		return sub
	}
	return ReverseComplement(sub)
}

// ReverseComplement returns the reverse complement of a nucleotide string
// over the IUPAC alphabet, preserving case. Letters without a complement
// are copied unchanged.
func ReverseComplement(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := len(s) - 1; i >= 0; i-- {
		l := alphabet.Letter(s[i])
		if c, ok := alphabet.DNAredundant.Complement(l); ok {
			l = c
		}
		b.WriteByte(byte(l))
	}
	return b.String()
}

// EventSet is an immutable set of event headers.
type EventSet struct {
	m map[string]struct{}
}

// NewEventSet returns a set holding the given headers.
func NewEventSet(headers ...string) EventSet {
	m := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		m[h] = struct{}{}
	}
	return EventSet{m: m}
}

// Contains reports whether header is in the set.
func (s EventSet) Contains(header string) bool {
	_, ok := s.m[header]
	return ok
}

// Has reports whether e's header is in the set.
func (s EventSet) Has(e *Event) bool {
	return e != nil && s.Contains(e.header)
}

func (s EventSet) Len() int { return len(s.m) }

// Slice returns the headers in sorted order.
func (s EventSet) Slice() []string {
	out := make([]string, 0, len(s.m))
	for h := range s.m {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// Disjoint reports whether s and o share no header.
func (s EventSet) Disjoint(o EventSet) bool {
	for h := range s.m {
		if o.Contains(h) {
			return false
		}
	}
	return true
}

func (s EventSet) String() string {
	return "{" + strings.Join(s.Slice(), ",") + "}"
}
