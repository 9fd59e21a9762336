package substitution_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/flower"
	"github.com/matzehuels/hapaudit/pkg/substitution"
)

const third = 0.415037499278844 // -log2(3/4)

func TestBitsScore(t *testing.T) {
	tests := []struct {
		guess, answer byte
		want          float64
	}{
		{'A', 'A', 2},
		{'a', 'A', 2},
		{'A', 'C', 0},
		{'W', 'T', 1},
		{'W', 'C', 0},
		{'s', 'g', 1},
		{'M', 'A', 1},
		{'K', 'T', 1},
		{'R', 'G', 1},
		{'Y', 'C', 1},
		{'B', 'G', third},
		{'B', 'A', 0},
		{'D', 'T', third},
		{'H', 'A', third},
		{'V', 'C', third},
		{'N', 'A', 0},
		{'A', 'N', 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%c/%c", tt.guess, tt.answer), func(t *testing.T) {
			got, err := substitution.BitsScore(tt.guess, tt.answer)
			if err != nil {
				t.Fatalf("BitsScore: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("BitsScore(%c, %c) = %v, want %v", tt.guess, tt.answer, got, tt.want)
			}
		})
	}
}

func TestBitsScoreInvalid(t *testing.T) {
	for _, b := range []byte{'X', '*', '-', '1'} {
		if _, err := substitution.BitsScore(b, 'A'); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("BitsScore(%q, A) error = %v, want INVALID_INPUT", b, err)
		}
	}
}

func TestCorrect(t *testing.T) {
	tests := []struct {
		guess, answer byte
		want          bool
	}{
		{'A', 'A', true},
		{'A', 'G', false},
		{'R', 'G', true},
		{'N', 'G', true},
		{'G', 'N', true},
		{'B', 'A', false},
	}
	for _, tt := range tests {
		got, err := substitution.Correct(tt.guess, tt.answer)
		if err != nil {
			t.Fatalf("Correct: %v", err)
		}
		if got != tt.want {
			t.Errorf("Correct(%c, %c) = %v, want %v", tt.guess, tt.answer, got, tt.want)
		}
	}
}

func TestAudit(t *testing.T) {
	// b1 covers the first eight bases of each sequence; the assembly copy
	// carries one mismatch, one ambiguity code and one N.
	g, err := flower.NewBuilder().
		Sequence(flower.SequenceSpec{Name: "h", Event: "hap", Bases: "ACGTACGTGGCC"}).
		Sequence(flower.SequenceSpec{Name: "a", Event: "asm", Bases: "ACGAACRNGGCC"}).
		Block(flower.BlockSpec{Name: "b1", Length: 8, Segments: []flower.Placement{
			{Sequence: "h", Start: 0}, {Sequence: "a", Start: 0},
		}}).
		Block(flower.BlockSpec{Name: "b2", Length: 4, Segments: []flower.Placement{
			{Sequence: "h", Start: 8}, {Sequence: "a", Start: 8},
		}}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	st, err := substitution.Audit(g, "asm", flower.NewEventSet("hap"))
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	want := substitution.Stats{Columns: 12, Correct: 11, Masked: 1, Ambiguous: 1, Bits: 2*9 + 1}
	if st != want {
		t.Errorf("Audit() = %+v, want %+v", st, want)
	}
	if st.Errors() != 1 {
		t.Errorf("Errors() = %d, want 1", st.Errors())
	}
	if got := st.Accuracy(); math.Abs(got-10.0/11) > 1e-9 {
		t.Errorf("Accuracy() = %v, want %v", got, 10.0/11)
	}

	if _, err := substitution.Audit(g, "asm", flower.NewEventSet("asm")); err == nil {
		t.Error("Audit with the chosen event as reference succeeded")
	}
}

func TestAccuracyEmpty(t *testing.T) {
	if got := (substitution.Stats{}).Accuracy(); got != 1 {
		t.Errorf("Accuracy() = %v, want 1", got)
	}
}
