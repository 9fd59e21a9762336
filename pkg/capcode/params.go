package capcode

import "github.com/matzehuels/hapaudit/pkg/errors"

const (
	// DefaultMinimumNCount is the number of Ns that makes a gap a scaffold
	// gap rather than an ambiguity gap.
	DefaultMinimumNCount = 25

	// DefaultMaxInsertionLength is the insertion length at and above which an
	// insertion is reported as a same-chromosome rearrangement.
	DefaultMaxInsertionLength = 500000

	// DefaultMaxDeletionLength is the deletion length at and above which a
	// deletion is reported as a same-chromosome rearrangement.
	DefaultMaxDeletionLength = 500000
)

// Parameters holds the thresholds used by the classifier.
type Parameters struct {
	MinimumNCount      int64 `json:"minimum_n_count" toml:"minimum_n_count"`
	MaxInsertionLength int64 `json:"max_insertion_length" toml:"max_insertion_length"`
	MaxDeletionLength  int64 `json:"max_deletion_length" toml:"max_deletion_length"`
}

// NewParameters returns validated parameters.
func NewParameters(minimumNCount, maxInsertionLength, maxDeletionLength int64) (Parameters, error) {
	p := Parameters{
		MinimumNCount:      minimumNCount,
		MaxInsertionLength: maxInsertionLength,
		MaxDeletionLength:  maxDeletionLength,
	}
	if err := p.Validate(); err != nil {
		return Parameters{}, err
	}
	return p, nil
}

// DefaultParameters returns the thresholds used when none are configured.
func DefaultParameters() Parameters {
	return Parameters{
		MinimumNCount:      DefaultMinimumNCount,
		MaxInsertionLength: DefaultMaxInsertionLength,
		MaxDeletionLength:  DefaultMaxDeletionLength,
	}
}

// Validate rejects negative thresholds.
func (p Parameters) Validate() error {
	if p.MinimumNCount < 0 {
		return errors.New(errors.ErrCodeInvalidParameters, "minimum N count must be non-negative, got %d", p.MinimumNCount)
	}
	if p.MaxInsertionLength < 0 {
		return errors.New(errors.ErrCodeInvalidParameters, "max insertion length must be non-negative, got %d", p.MaxInsertionLength)
	}
	if p.MaxDeletionLength < 0 {
		return errors.New(errors.ErrCodeInvalidParameters, "max deletion length must be non-negative, got %d", p.MaxDeletionLength)
	}
	return nil
}
