// Package linkage estimates how well an assembly preserves the long-range
// order of a reference sequence.
//
// Pairs of points are drawn along a reference sequence with separations
// spread evenly on a log scale. A pair is aligned when both points fall
// inside aligned segments, and correct when the assembly event joins the
// two blocks in the same order and orientation. Counts are accumulated per
// log10 separation bucket.
package linkage

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/matzehuels/hapaudit/pkg/adjacency"
	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/flower"
)

// MinSequenceLength is the shortest sequence pairs can be drawn from.
const MinSequenceLength = 21

const (
	DefaultSamples    = 10000
	DefaultBuckets    = 100
	DefaultBucketSize = 10.0
	DefaultSeed       = 1
)

// Options controls sampling.
type Options struct {
	// Samples is the number of pairs drawn per sequence.
	Samples int `json:"samples" toml:"samples"`

	// Buckets is the histogram length.
	Buckets int `json:"buckets" toml:"buckets"`

	// BucketSize is the number of buckets per power of ten of separation.
	BucketSize float64 `json:"bucket_size" toml:"bucket_size"`

	// Seed makes a run reproducible.
	Seed uint64 `json:"seed" toml:"seed"`
}

// ValidateAndSetDefaults fills zero fields and rejects negative ones.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Samples < 0 || o.Buckets < 0 || o.BucketSize < 0 {
		return errors.New(errors.ErrCodeInvalidParameters,
			"samples, buckets and bucket size must be non-negative, got %d, %d, %g", o.Samples, o.Buckets, o.BucketSize)
	}
	if o.Samples == 0 {
		o.Samples = DefaultSamples
	}
	if o.Buckets == 0 {
		o.Buckets = DefaultBuckets
	}
	if o.BucketSize == 0 {
		o.BucketSize = DefaultBucketSize
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	return nil
}

// Histogram counts sampled pairs per separation bucket.
type Histogram struct {
	Samples []int64 `json:"samples"`
	Aligned []int64 `json:"aligned"`
	Correct []int64 `json:"correct"`
}

// NewHistogram returns an empty histogram with n buckets.
func NewHistogram(n int) *Histogram {
	return &Histogram{
		Samples: make([]int64, n),
		Aligned: make([]int64, n),
		Correct: make([]int64, n),
	}
}

// Add accumulates o into h. Both must have the same number of buckets.
func (h *Histogram) Add(o *Histogram) {
	for i := range h.Samples {
		h.Samples[i] += o.Samples[i]
		h.Aligned[i] += o.Aligned[i]
		h.Correct[i] += o.Correct[i]
	}
}

// Totals sums every bucket.
func (h *Histogram) Totals() (samples, aligned, correct int64) {
	for i := range h.Samples {
		samples += h.Samples[i]
		aligned += h.Aligned[i]
		correct += h.Correct[i]
	}
	return samples, aligned, correct
}

// SequencesForEvents returns the sequences of the named events, in graph
// order.
func SequencesForEvents(g *flower.Graph, events flower.EventSet) []*flower.Sequence {
	var out []*flower.Sequence
	for _, s := range g.Sequences() {
		if events.Has(s.Event()) {
			out = append(out, s)
		}
	}
	return out
}

// Index holds every segment of a graph on the positive strand, sorted by
// start within each sequence.
type Index struct {
	bySeq map[*flower.Sequence][]flower.Segment
}

// OrderSegments indexes the segments of every flower of g.
func OrderSegments(g *flower.Graph) (*Index, error) {
	idx := &Index{bySeq: make(map[*flower.Sequence][]flower.Segment)}
	for _, f := range g.Flowers() {
		for _, s := range f.Segments() {
			if !s.Strand() {
				s = s.Reverse()
			}
			idx.bySeq[s.Sequence()] = append(idx.bySeq[s.Sequence()], s)
		}
	}
	for seq, segs := range idx.bySeq {
		sort.Slice(segs, func(i, j int) bool { return segs[i].Start() < segs[j].Start() })
		for i := 1; i < len(segs); i++ {
			if segs[i].Start() < segs[i-1].Start()+segs[i-1].Length() {
				return nil, errors.Invariant("%s overlaps %s on %s", segs[i], segs[i-1], seq)
			}
		}
	}
	return idx, nil
}

// At returns the segment of seq covering coordinate x.
func (idx *Index) At(seq *flower.Sequence, x int64) (flower.Segment, bool) {
	segs := idx.bySeq[seq]
	i := sort.Search(len(segs), func(i int) bool { return segs[i].Start() > x }) - 1
	if i < 0 {
		return flower.Segment{}, false
	}
	if s := segs[i]; x < s.Start()+s.Length() {
		return s, true
	}
	return flower.Segment{}, false
}

// Len returns the number of indexed segments of seq.
func (idx *Index) Len(seq *flower.Sequence) int { return len(idx.bySeq[seq]) }

// PickPair draws x < y inside seq. The separation y-x is 10^u+1 rounded
// down, for u uniform on [0, log10(len-10)).
func PickPair(rng *rand.Rand, seq *flower.Sequence) (x, y int64, err error) {
	n := seq.Length()
	if n < MinSequenceLength {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "sequence %s has %d bases, need at least %d", seq, n, MinSequenceLength)
	}
	u := math.Log10(float64(n-10)) * rng.Float64()
	size := int64(math.Pow(10, u)) + 1
	x = seq.Start() + int64(rng.Float64()*float64(n-size-5))
	return x, x + size, nil
}

// Linked reports whether the blocks of x and y are joined by event in the
// order and orientation x and y have. x and y must be positive-strand
// segments of one sequence with x not after y; when they are the same
// segment, event need only have a cap at the block's 5' end.
func Linked(x, y flower.Segment, event string) bool {
	if x.Start() >= y.Start() {
		return adjacency.HasCapInEvent(x.Block().End5(), event)
	}
	for _, x2 := range instances(x, event) {
		for _, y2 := range instances(y, event) {
			if x2.Sequence() != y2.Sequence() {
				continue
			}
			if _, ok := adjacency.CapsAreAdjacent(x2.Cap3(), y2.Cap5()); ok {
				return true
			}
		}
	}
	return false
}

// instances returns the segments of s's block in event, oriented like s.
func instances(s flower.Segment, event string) []flower.Segment {
	var out []flower.Segment
	for _, o := range s.Block().Instances() {
		if o.Event().Header() != event {
			continue
		}
		if !s.Orientation() {
			o = o.Reverse()
		}
		out = append(out, o)
	}
	return out
}

// Sample draws opts.Samples pairs along seq and counts how many are
// aligned and correctly linked by event. Sequences shorter than
// [MinSequenceLength] yield an empty histogram.
func Sample(idx *Index, seq *flower.Sequence, event string, opts Options) (*Histogram, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	h := NewHistogram(opts.Buckets)
	if seq.Length() < MinSequenceLength {
		return h, nil
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0xdeadbeef))
	for i := 0; i < opts.Samples; i++ {
		x, y, err := PickPair(rng, seq)
		if err != nil {
			return nil, err
		}
		b := int(math.Log10(float64(y-x)) * opts.BucketSize)
		if b >= opts.Buckets {
			return nil, errors.New(errors.ErrCodeInvalidParameters,
				"separation %d falls in bucket %d of %d; raise buckets or lower bucket size", y-x, b, opts.Buckets)
		}
		h.Samples[b]++
		sx, ok := idx.At(seq, x)
		if !ok {
			continue
		}
		sy, ok := idx.At(seq, y)
		if !ok {
			continue
		}
		h.Aligned[b]++
		if Linked(sx, sy, event) {
			h.Correct[b]++
		}
	}
	return h, nil
}

// SampleAll samples every sequence of the reference events and sums the
// histograms. Each sequence draws from its own generator seeded from
// opts.Seed and the sequence's position.
func SampleAll(g *flower.Graph, references flower.EventSet, event string, opts Options) (*Histogram, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	idx, err := OrderSegments(g)
	if err != nil {
		return nil, err
	}
	total := NewHistogram(opts.Buckets)
	for i, seq := range SequencesForEvents(g, references) {
		o := opts
		o.Seed = opts.Seed + uint64(i)
		h, err := Sample(idx, seq, event, o)
		if err != nil {
			return nil, err
		}
		total.Add(h)
	}
	return total, nil
}
