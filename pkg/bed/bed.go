// Package bed turns contig and scaffold paths into BED intervals.
//
// Intervals are zero-based and half-open, relative to the start of their
// sequence, and always read along the positive strand. Reading and writing
// go through biogo's BED3 codec.
package bed

import (
	"io"
	"sort"

	biobed "github.com/biogo/biogo/io/featio/bed"

	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/paths"
	"github.com/matzehuels/hapaudit/pkg/scaffold"
)

// Interval is a span of one sequence.
type Interval struct {
	Sequence string `json:"sequence"`
	Start    int64  `json:"start"`
	End      int64  `json:"end"`
}

func (iv Interval) Len() int64 { return iv.End - iv.Start }

// ContigInterval returns the span of p.
func ContigInterval(p *paths.ContigPath) (Interval, error) {
	first, last := p.Oriented()
	seq := first.Sequence()
	if last.Sequence() != seq {
		return Interval{}, errors.Invariant("%s spans sequences %s and %s", p, seq, last.Sequence())
	}
	iv := Interval{
		Sequence: seq.Header(),
		Start:    first.Start() - seq.Start(),
		End:      last.Start() + last.Length() - seq.Start(),
	}
	if iv.Start < 0 || iv.End <= iv.Start {
		return Interval{}, errors.Invariant("%s has empty or negative span [%d, %d)", p, iv.Start, iv.End)
	}
	return iv, nil
}

// ContigIntervals returns one interval per path, in path order.
func ContigIntervals(ps []*paths.ContigPath) ([]Interval, error) {
	out := make([]Interval, 0, len(ps))
	for _, p := range ps {
		iv, err := ContigInterval(p)
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, nil
}

// ScaffoldIntervals returns one interval per scaffold bucket, spanning from
// the first to the last of its contig intervals. Buckets never cross
// sequences.
func ScaffoldIntervals(s *scaffold.Scaffolds) ([]Interval, error) {
	var out []Interval
	for _, b := range s.Buckets() {
		ivs, err := ContigIntervals(b)
		if err != nil {
			return nil, err
		}
		Sort(ivs)
		for i := 1; i < len(ivs); i++ {
			if ivs[i].Sequence != ivs[0].Sequence {
				return nil, errors.Invariant("scaffold of contig path %d spans %s and %s", b[0].ID, ivs[0].Sequence, ivs[i].Sequence)
			}
			if ivs[i].Start == ivs[i-1].Start {
				return nil, errors.Invariant("scaffold of contig path %d has two contigs at %s:%d", b[0].ID, ivs[i].Sequence, ivs[i].Start)
			}
		}
		out = append(out, Interval{
			Sequence: ivs[0].Sequence,
			Start:    ivs[0].Start,
			End:      ivs[len(ivs)-1].End,
		})
	}
	return out, nil
}

// Sort orders intervals by sequence, then start, then end.
func Sort(ivs []Interval) {
	sort.Slice(ivs, func(i, j int) bool {
		a, b := ivs[i], ivs[j]
		if a.Sequence != b.Sequence {
			return a.Sequence < b.Sequence
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End < b.End
	})
}

// Write writes ivs as BED3 lines.
func Write(w io.Writer, ivs []Interval) error {
	bw, err := biobed.NewWriter(w, 3)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "bed writer")
	}
	for _, iv := range ivs {
		f := &biobed.Bed3{Chrom: iv.Sequence, ChromStart: int(iv.Start), ChromEnd: int(iv.End)}
		if _, err := bw.Write(f); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write %s:%d-%d", iv.Sequence, iv.Start, iv.End)
		}
	}
	return nil
}

// Read parses BED lines, keeping the first three columns.
func Read(r io.Reader) ([]Interval, error) {
	br, err := biobed.NewReader(r, 3)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "bed reader")
	}
	var out []Interval
	for {
		f, err := br.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read bed line %d", len(out)+1)
		}
		b, ok := f.(*biobed.Bed3)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unexpected bed record %T", f)
		}
		out = append(out, Interval{Sequence: b.Chrom, Start: int64(b.ChromStart), End: int64(b.ChromEnd)})
	}
}
