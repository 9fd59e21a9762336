// Package substitution scores the bases of an assembly against reference
// haplotypes over aligned columns.
//
// A guess is an IUPAC nucleotide code. Its bit score against an answer is
// -log2(k/4) when the answer is one of the k bases the code stands for, and
// zero otherwise; an N on either side scores zero but counts as correct.
package substitution

import (
	"math"

	"github.com/biogo/biogo/alphabet"

	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/flower"
)

// iupac maps each upper-case code to the bases it stands for.
var iupac = map[byte]string{
	'A': "A", 'C': "C", 'G': "G", 'T': "T",
	'W': "AT", 'S': "CG", 'M': "AC", 'K': "GT", 'R': "AG", 'Y': "CT",
	'B': "CGT", 'D': "AGT", 'H': "ACT", 'V': "ACG",
	'N': "ACGT",
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

func check(b byte) error {
	if !alphabet.DNAredundant.IsValid(alphabet.Letter(b)) {
		return errors.New(errors.ErrCodeInvalidInput, "%q is not an IUPAC nucleotide", b)
	}
	if _, ok := iupac[upper(b)]; !ok {
		return errors.New(errors.ErrCodeInvalidInput, "%q is not a nucleotide code", b)
	}
	return nil
}

// BitsScore returns the information guess carries about answer. Case is
// ignored.
func BitsScore(guess, answer byte) (float64, error) {
	if err := check(guess); err != nil {
		return 0, err
	}
	if err := check(answer); err != nil {
		return 0, err
	}
	g, a := upper(guess), upper(answer)
	if a == 'N' {
		return 0, nil
	}
	set := iupac[g]
	for i := 0; i < len(set); i++ {
		if set[i] == a {
			return -math.Log2(float64(len(set)) / 4), nil
		}
	}
	return 0, nil
}

// Correct reports whether answer is one of the bases guess stands for, or
// either of them is N.
func Correct(guess, answer byte) (bool, error) {
	s, err := BitsScore(guess, answer)
	if err != nil {
		return false, err
	}
	return s != 0 || upper(guess) == 'N' || upper(answer) == 'N', nil
}

// Stats summarises the columns compared by [Audit].
type Stats struct {
	// Columns is the number of aligned chosen/reference base pairs.
	Columns int64 `json:"columns"`

	// Correct counts columns accepted by [Correct].
	Correct int64 `json:"correct"`

	// Masked counts columns with an N on either side.
	Masked int64 `json:"masked"`

	// Ambiguous counts columns whose chosen base is a multi-base code
	// other than N.
	Ambiguous int64 `json:"ambiguous"`

	// Bits is the summed bit score.
	Bits float64 `json:"bits"`
}

// Errors returns the number of columns that disagree.
func (s Stats) Errors() int64 { return s.Columns - s.Correct }

// Accuracy returns the fraction of unmasked columns that agree, or 1 when
// none were compared.
func (s Stats) Accuracy() float64 {
	n := s.Columns - s.Masked
	if n == 0 {
		return 1
	}
	return float64(s.Correct-s.Masked) / float64(n)
}

func (s *Stats) add(guess, answer byte) error {
	bits, err := BitsScore(guess, answer)
	if err != nil {
		return err
	}
	ok, _ := Correct(guess, answer)
	s.Columns++
	s.Bits += bits
	if ok {
		s.Correct++
	}
	g, a := upper(guess), upper(answer)
	if g == 'N' || a == 'N' {
		s.Masked++
	} else if len(iupac[g]) > 1 {
		s.Ambiguous++
	}
	return nil
}

// Audit compares every segment of the chosen event with every reference
// segment of the same block, column by column in block orientation.
func Audit(g *flower.Graph, chosen string, references flower.EventSet) (Stats, error) {
	if err := errors.ValidateEventSets([]string{chosen}, references.Slice()); err != nil {
		return Stats{}, err
	}
	var st Stats
	for _, f := range g.Flowers() {
		for _, b := range f.Blocks() {
			var mine, refs []flower.Segment
			for _, s := range b.Instances() {
				switch {
				case s.Event().Header() == chosen:
					mine = append(mine, s)
				case references.Has(s.Event()):
					refs = append(refs, s)
				}
			}
			for _, m := range mine {
				mb := m.Bases()
				for _, r := range refs {
					rb := r.Bases()
					if len(mb) != len(rb) {
						return Stats{}, errors.Invariant("%s and %s differ in length", m, r)
					}
					for i := 0; i < len(mb); i++ {
						if err := st.add(mb[i], rb[i]); err != nil {
							return Stats{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "column %d of %s", i, m)
						}
					}
				}
			}
		}
	}
	return st, nil
}
