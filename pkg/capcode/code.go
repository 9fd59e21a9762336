package capcode

import (
	"fmt"

	"github.com/matzehuels/hapaudit/pkg/errors"
)

// Code is the classification of one boundary of the chosen genome.
type Code int

const (
	// HapSwitch is a supported join whose two ends carry different sets of
	// target events.
	HapSwitch Code = iota
	// HapNothing is a supported join whose two ends carry the same target
	// events.
	HapNothing

	// ContigEnd is a boundary at the end of a contig with nothing inserted.
	ContigEnd

	ContigEndWithAmbiguityGap
	ContigEndWithScaffoldGap
	AmbiguityGap
	ScaffoldGap

	// ErrorHapToHapSameChromosome is an order-breaking join within one
	// reference sequence, or an indel too large to be called one.
	ErrorHapToHapSameChromosome
	ErrorHapToHapDifferentChromosomes
	ErrorHapToContamination
	ErrorHapToInsertToContamination
	ErrorHapToInsert
	ErrorHapToInsertAndDeletion
	ErrorHapToDeletion
	ErrorContigEndWithInsert

	numCodes
)

var codeNames = [numCodes]string{
	HapSwitch:                         "HAP_SWITCH",
	HapNothing:                        "HAP_NOTHING",
	ContigEnd:                         "CONTIG_END",
	ContigEndWithAmbiguityGap:         "CONTIG_END_WITH_AMBIGUITY_GAP",
	ContigEndWithScaffoldGap:          "CONTIG_END_WITH_SCAFFOLD_GAP",
	AmbiguityGap:                      "AMBIGUITY_GAP",
	ScaffoldGap:                       "SCAFFOLD_GAP",
	ErrorHapToHapSameChromosome:       "ERROR_HAP_TO_HAP_SAME_CHROMOSOME",
	ErrorHapToHapDifferentChromosomes: "ERROR_HAP_TO_HAP_DIFFERENT_CHROMOSOMES",
	ErrorHapToContamination:           "ERROR_HAP_TO_CONTAMINATION",
	ErrorHapToInsertToContamination:   "ERROR_HAP_TO_INSERT_TO_CONTAMINATION",
	ErrorHapToInsert:                  "ERROR_HAP_TO_INSERT",
	ErrorHapToInsertAndDeletion:       "ERROR_HAP_TO_INSERT_AND_DELETION",
	ErrorHapToDeletion:                "ERROR_HAP_TO_DELETION",
	ErrorContigEndWithInsert:          "ERROR_CONTIG_END_WITH_INSERT",
}

// Codes returns every code in declaration order.
func Codes() []Code {
	cs := make([]Code, numCodes)
	for i := range cs {
		cs[i] = Code(i)
	}
	return cs
}

func (c Code) String() string {
	if c < 0 || c >= numCodes {
		return fmt.Sprintf("Code(%d)", int(c))
	}
	return codeNames[c]
}

// Valid reports whether c is one of the declared codes.
func (c Code) Valid() bool { return c >= 0 && c < numCodes }

// IsError reports whether c marks an assembly discrepancy.
func (c Code) IsError() bool { return c >= ErrorHapToHapSameChromosome && c < numCodes }

// IsGap reports whether c bridges two contigs through a run of Ns.
func (c Code) IsGap() bool { return c == AmbiguityGap || c == ScaffoldGap }

// IsContigEnd reports whether c ends a contig without reaching another
// target end.
func (c Code) IsContigEnd() bool {
	switch c {
	case ContigEnd, ContigEndWithAmbiguityGap, ContigEndWithScaffoldGap, ErrorContigEndWithInsert:
		return true
	}
	return false
}

// ParseCode returns the code named s.
func ParseCode(s string) (Code, error) {
	for i, name := range codeNames {
		if name == s {
			return Code(i), nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "unknown cap code %q", s)
}

func (c Code) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid cap code %d", int(c))
	}
	return []byte(codeNames[c]), nil
}

func (c *Code) UnmarshalText(b []byte) error {
	v, err := ParseCode(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
