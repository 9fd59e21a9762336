package capcode

import (
	"github.com/matzehuels/hapaudit/pkg/adjacency"
	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/flower"
)

// boundingWindow is the number of bases next to a path's end caps that are
// scanned for Ns.
const boundingWindow = 5

// Result is the classification of one boundary.
type Result struct {
	Code Code

	// InsertLength and DeleteLength are set only for codes reached through
	// a pair of orderable target ends; they are zero otherwise.
	InsertLength int64
	DeleteLength int64

	// PathLength is the number of bases between the boundary and the cap
	// the walk stopped at, including intervening segments.
	PathLength int64
	// NCount counts Ns on the path plus bounding Ns.
	NCount int64
	// OtherCap is the cap the walk stopped at. It is invalid for supported
	// boundaries.
	OtherCap flower.Cap
	// OnStub reports whether the walk ended at a stub.
	OnStub bool
}

// Classifier assigns codes to boundaries of a chosen genome with respect to
// a set of target events and a set of other (for example contaminant)
// events.
type Classifier struct {
	trav    *adjacency.Traverser
	targets flower.EventSet
	others  flower.EventSet
	params  Parameters
}

// NewClassifier returns a classifier. targets must be non-empty and disjoint
// from others; others may be empty.
func NewClassifier(trav *adjacency.Traverser, targets, others flower.EventSet, params Parameters) (*Classifier, error) {
	if trav == nil {
		return nil, errors.New(errors.ErrCodeInvalidParameters, "traverser is required")
	}
	if err := errors.ValidateEventSets(targets.Slice(), others.Slice()); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{trav: trav, targets: targets, others: others, params: params}, nil
}

func (k *Classifier) Traverser() *adjacency.Traverser { return k.trav }
func (k *Classifier) Targets() flower.EventSet        { return k.targets }
func (k *Classifier) Others() flower.EventSet         { return k.others }
func (k *Classifier) Parameters() Parameters          { return k.params }

// Classify returns the code of the boundary at c. The end of c must hold a
// cap of a target event.
func (k *Classifier) Classify(c flower.Cap) (Result, error) {
	end := c.End()
	if !adjacency.HasCapInEvents(end, k.targets) {
		return Result{}, errors.Invariant("%s is not on a target end", c)
	}

	supported, err := k.trav.IsSupported(c, k.targets)
	if err != nil {
		return Result{}, err
	}
	if supported {
		code, err := k.switchCode(c)
		return Result{Code: code}, err
	}

	w, err := k.walk(c)
	if err != nil {
		return Result{}, err
	}
	n5, err := k.boundingNs(c)
	if err != nil {
		return Result{}, err
	}
	n3, err := k.boundingNs(w.end)
	if err != nil {
		return Result{}, err
	}
	res := Result{
		PathLength: w.length,
		NCount:     w.ns + n5 + n3,
		OtherCap:   w.end,
		OnStub:     w.onStub,
	}
	other := w.end.End()

	switch {
	case w.onStub:
		if adjacency.HasCapInEvents(other, k.others) {
			return Result{}, errors.Invariant("walk from %s ended on stub %s holding an other-event cap", c, other)
		}
		res.Code = k.contigEnd(res)
	case adjacency.HasCapInEvents(other, k.targets):
		if err := k.targetEnd(c, other, &res); err != nil {
			return Result{}, err
		}
	default:
		res.Code = ErrorHapToInsertToContamination
		if res.PathLength == 0 {
			res.Code = ErrorHapToContamination
		}
	}
	return res, nil
}

func (k *Classifier) switchCode(c flower.Cap) (Code, error) {
	partner, err := k.trav.Partner(c)
	if err != nil {
		return 0, err
	}
	here := adjacency.EventsAt(c.End(), k.targets)
	there := adjacency.EventsAt(partner.End(), k.targets)
	if here.Len() == 0 || there.Len() == 0 {
		return 0, errors.Invariant("supported boundary %s joins an end without target caps", c)
	}
	if here.String() != there.String() {
		return HapSwitch, nil
	}
	return HapNothing, nil
}

func (k *Classifier) contigEnd(res Result) Code {
	switch {
	case res.PathLength == 0:
		return ContigEnd
	case res.NCount == 0:
		return ErrorContigEndWithInsert
	case res.NCount >= k.params.MinimumNCount:
		return ContigEndWithScaffoldGap
	default:
		return ContigEndWithAmbiguityGap
	}
}

func (k *Classifier) targetEnd(c flower.Cap, other *flower.End, res *Result) error {
	end := c.End()
	if !adjacency.EndsAreConnected(end, other, k.targets) {
		res.Code = ErrorHapToHapDifferentChromosomes
		return nil
	}
	sep, ok := adjacency.EndsAreAdjacent(end, other, k.targets)
	if !ok {
		res.Code = ErrorHapToHapSameChromosome
		return nil
	}
	d := sep.Distance
	res.InsertLength = res.PathLength
	res.DeleteLength = d

	p := k.params
	switch {
	case res.NCount >= p.MinimumNCount:
		res.Code = ScaffoldGap
	case res.NCount >= 1:
		res.Code = AmbiguityGap
	case res.PathLength > 0 && d > 0:
		res.Code = ErrorHapToInsertAndDeletion
		if d >= p.MaxDeletionLength || res.PathLength >= p.MaxInsertionLength {
			res.Code = ErrorHapToHapSameChromosome
		}
	case res.PathLength > 0:
		res.Code = ErrorHapToInsert
		if res.PathLength >= p.MaxInsertionLength {
			res.Code = ErrorHapToHapSameChromosome
		}
	case d == 0:
		return errors.Invariant("unsupported boundary %s has neither insertion nor deletion", c)
	default:
		res.Code = ErrorHapToDeletion
		if d >= p.MaxDeletionLength {
			res.Code = ErrorHapToHapSameChromosome
		}
	}
	return nil
}

type walkResult struct {
	end    flower.Cap
	length int64
	ns     int64
	onStub bool
}

// walk follows adjacencies from c through segments whose far end holds no
// target or other-event cap.
func (k *Classifier) walk(c flower.Cap) (walkResult, error) {
	var w walkResult
	seen := make(map[flower.SegmentKey]bool)
	cur := c
	for {
		bases, err := k.trav.AdjacencyBases(cur)
		if err != nil {
			return w, err
		}
		n, err := k.trav.AdjacencyLength(cur)
		if err != nil {
			return w, err
		}
		w.length += n
		w.ns += adjacency.CountNs(bases)

		partner, err := k.trav.Partner(cur)
		if err != nil {
			return w, err
		}
		seg, ok, err := k.trav.CapSegment(partner)
		if err != nil {
			return w, err
		}
		if !ok {
			w.end, w.onStub = partner, true
			return w, nil
		}
		next := seg.Cap5()
		if cur.Side() {
			next = seg.Cap3()
		}
		if next.Name() != partner.Name() {
			return w, errors.Invariant("%s reached through %s is not its partner %s", next, cur, partner)
		}
		// Stop at the first end entered that a target or other event
		// shares; the segment behind it is not part of the path.
		if entry := next.End(); adjacency.HasCapInEvents(entry, k.others) || adjacency.HasCapInEvents(entry, k.targets) {
			w.end = next
			return w, nil
		}
		if seen[seg.Key()] {
			return w, errors.Invariant("walk from %s revisits %s", c, seg)
		}
		seen[seg.Key()] = true
		w.length += seg.Length()
		w.ns += adjacency.CountNs(seg.Bases())

		cur, ok = next.OtherSegmentCap()
		if !ok {
			return w, errors.Invariant("%s has no opposite cap", next)
		}
	}
}

// boundingNs counts Ns among the first bases of c's segment read away from
// c.
func (k *Classifier) boundingNs(c flower.Cap) (int64, error) {
	seg, ok, err := k.trav.CapSegment(c)
	if err != nil || !ok {
		return 0, err
	}
	if seg.Cap5().Name() != c.Name() {
		if seg.Cap3().Name() != c.Name() {
			return 0, errors.Invariant("%s does not bound %s", c, seg)
		}
		seg = seg.Reverse()
	}
	bases := seg.Bases()
	if len(bases) > boundingWindow {
		bases = bases[:boundingWindow]
	}
	return adjacency.CountNs(bases), nil
}

// Boundary is a classified cap of the chosen genome.
type Boundary struct {
	Cap    flower.Cap
	Result Result
}

// ClassifyEvent classifies both caps of every segment of the chosen event
// whose end holds a target cap. Boundaries are reported in flower order,
// 5' cap first, each cap in the positive orientation of its strand.
func (k *Classifier) ClassifyEvent(g *flower.Graph, chosen string) ([]Boundary, error) {
	var out []Boundary
	for _, f := range g.Flowers() {
		for _, s := range f.Segments() {
			if s.Event().Header() != chosen {
				continue
			}
			if !s.Strand() {
				s = s.Reverse()
			}
			for _, c := range []flower.Cap{s.Cap5(), s.Cap3()} {
				if !adjacency.HasCapInEvents(c.End(), k.targets) {
					continue
				}
				res, err := k.Classify(c)
				if err != nil {
					return nil, err
				}
				out = append(out, Boundary{Cap: c, Result: res})
			}
		}
	}
	return out, nil
}

// Counts tallies boundaries by code.
func Counts(bs []Boundary) map[Code]int {
	m := make(map[Code]int)
	for _, b := range bs {
		m[b.Result.Code]++
	}
	return m
}
