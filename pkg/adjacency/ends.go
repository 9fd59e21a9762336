package adjacency

import (
	"github.com/matzehuels/hapaudit/pkg/flower"
)

// HasCapInEvent reports whether e has a cap of the named event.
func HasCapInEvent(e *flower.End, header string) bool {
	for _, c := range e.Instances() {
		if c.Event().Header() == header {
			return true
		}
	}
	return false
}

// HasCapNotInEvent reports whether e has a cap of any event other than the
// named one.
func HasCapNotInEvent(e *flower.End, header string) bool {
	for _, c := range e.Instances() {
		if c.Event().Header() != header {
			return true
		}
	}
	return false
}

// HasCapInEvents reports whether e has a cap of any event in events.
func HasCapInEvents(e *flower.End, events flower.EventSet) bool {
	for _, c := range e.Instances() {
		if events.Has(c.Event()) {
			return true
		}
	}
	return false
}

// EventsAt returns the headers of the events in events that have a cap at e.
func EventsAt(e *flower.End, events flower.EventSet) flower.EventSet {
	var hs []string
	for _, c := range e.Instances() {
		if events.Has(c.Event()) {
			hs = append(hs, c.Event().Header())
		}
	}
	return flower.NewEventSet(hs...)
}

// EndsAreConnected reports whether a cap of events at e1 shares a sequence
// with some cap at e2. An end is connected to itself when events has a cap
// there at all.
func EndsAreConnected(e1, e2 *flower.End, events flower.EventSet) bool {
	if e1.Name() == e2.Name() {
		return HasCapInEvents(e1, events)
	}
	for _, c1 := range e1.Instances() {
		if !events.Has(c1.Event()) {
			continue
		}
		for _, c2 := range e2.Instances() {
			if c1.Sequence() == c2.Sequence() {
				return true
			}
		}
	}
	return false
}

// CapsAreAdjacent reports whether c1 and c2 lie on one sequence in an order
// that an adjacency could join: on the positive strand the lower cap must
// be a 3' side and the higher one a 5' side. The distance is the number of
// bases strictly between them.
func CapsAreAdjacent(c1, c2 flower.Cap) (int64, bool) {
	if c1.Name() == c2.Name() || c1.Coordinate() == c2.Coordinate() {
		return 0, false
	}
	if c1.Sequence() != c2.Sequence() {
		return 0, false
	}
	if !c1.Strand() {
		c1 = c1.Reverse()
	}
	if !c2.Strand() {
		c2 = c2.Reverse()
	}
	if c1.Coordinate() < c2.Coordinate() {
		if !c1.Side() && c2.Side() {
			return c2.Coordinate() - c1.Coordinate() - 1, true
		}
		return 0, false
	}
	if c1.Side() && !c2.Side() {
		return c1.Coordinate() - c2.Coordinate() - 1, true
	}
	return 0, false
}

// Separation is the closest orderable pair of caps between two ends.
type Separation struct {
	Distance int64
	Left     flower.Cap // at the first end
	Right    flower.Cap // at the second end
}

// EndsAreAdjacent finds, among the caps of events at e1 and every cap at
// e2, the pair accepted by [CapsAreAdjacent] with the smallest distance.
// ok is false when no pair is orderable.
func EndsAreAdjacent(e1, e2 *flower.End, events flower.EventSet) (sep Separation, ok bool) {
	for _, c1 := range e1.Instances() {
		if !events.Has(c1.Event()) {
			continue
		}
		for _, c2 := range e2.Instances() {
			d, adj := CapsAreAdjacent(c1, c2)
			if !adj {
				continue
			}
			if !ok || d < sep.Distance {
				sep = Separation{Distance: d, Left: c1, Right: c2}
				ok = true
			}
		}
	}
	return sep, ok
}

// CountNs returns the number of N or n bases in s.
func CountNs(s string) int64 {
	var n int64
	for i := 0; i < len(s); i++ {
		if s[i] == 'N' || s[i] == 'n' {
			n++
		}
	}
	return n
}
