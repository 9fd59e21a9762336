package report

import (
	"io"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hapaudit/pkg/capcode"
	"github.com/matzehuels/hapaudit/pkg/errors"
)

// Options configures an audit run. It supports JSON for API requests.
type Options struct {
	// Events are the chosen genomes to audit, one report each.
	Events []string `json:"events"`

	// Targets are the reference haplotypes.
	Targets []string `json:"targets"`

	// Others are events such as contaminants that are neither chosen nor
	// targets.
	Others []string `json:"others,omitempty"`

	Parameters capcode.Parameters `json:"parameters"`

	// IgnoreAdjacencyBases treats every adjacency as zero bases long.
	IgnoreAdjacencyBases bool `json:"ignore_adjacency_bases,omitempty"`

	// CacheSize bounds the terminal-cap cache of the traverser.
	CacheSize int `json:"cache_size,omitempty"`

	// Substitutions adds column-level scoring against the targets.
	Substitutions bool `json:"substitutions,omitempty"`

	// Refresh ignores cached reports.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks event names and parameters and applies
// defaults. Target and other lists are sorted. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Events) == 0 {
		return errors.New(errors.ErrCodeInvalidEvent, "at least one event to audit is required")
	}
	if err := errors.ValidateEventSets(o.Targets, o.Others); err != nil {
		return err
	}
	seen := make(map[string]bool, len(o.Events))
	for _, e := range o.Events {
		if err := errors.ValidateEventName(e); err != nil {
			return err
		}
		if seen[e] {
			return errors.New(errors.ErrCodeInvalidEvent, "event %q listed twice", e)
		}
		seen[e] = true
		for _, t := range append(append([]string(nil), o.Targets...), o.Others...) {
			if t == e {
				return errors.New(errors.ErrCodeInvalidEvent, "event %q is audited and also a target or other event", e)
			}
		}
	}
	if o.Parameters == (capcode.Parameters{}) {
		o.Parameters = capcode.DefaultParameters()
	}
	if err := o.Parameters.Validate(); err != nil {
		return err
	}
	o.Targets = sorted(o.Targets)
	o.Others = sorted(o.Others)
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

func sorted(ss []string) []string {
	out := append([]string(nil), ss...)
	sort.Strings(out)
	return out
}
