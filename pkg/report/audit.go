package report

import (
	"context"
	"time"

	"github.com/matzehuels/hapaudit/pkg/adjacency"
	"github.com/matzehuels/hapaudit/pkg/bed"
	"github.com/matzehuels/hapaudit/pkg/capcode"
	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/flower"
	"github.com/matzehuels/hapaudit/pkg/paths"
	"github.com/matzehuels/hapaudit/pkg/scaffold"
	"github.com/matzehuels/hapaudit/pkg/substitution"
)

// Audit builds the report of one event. trav may be shared between
// concurrent audits. opts must have been validated.
func Audit(ctx context.Context, g *flower.Graph, trav *adjacency.Traverser, event, graphHash string, opts Options) (*Report, error) {
	start := time.Now()
	if _, ok := g.Event(event); !ok {
		return nil, errors.New(errors.ErrCodeInvalidEvent, "graph has no event %q", event)
	}
	targets := flower.NewEventSet(opts.Targets...)
	others := flower.NewEventSet(opts.Others...)
	k, err := capcode.NewClassifier(trav, targets, others, opts.Parameters)
	if err != nil {
		return nil, err
	}

	rep := newReport(event, graphHash)
	rep.Targets = opts.Targets
	rep.Others = opts.Others
	rep.Parameters = opts.Parameters

	bs, err := k.ClassifyEvent(g, event)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "classify %s", event)
	}
	rep.Boundaries = make([]Boundary, len(bs))
	for i, b := range bs {
		rep.Boundaries[i] = boundaryRecord(b)
		if b.Result.Code.IsError() {
			rep.Stats.Errors++
		}
	}
	rep.Counts = capcode.Counts(bs)
	rep.Stats.Boundaries = len(bs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ps, err := paths.Build(g, event, targets, trav)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "contig paths of %s", event)
	}
	s, err := scaffold.Merge(ps, k)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "scaffolds of %s", event)
	}
	if rep.ContigPaths, err = bed.ContigIntervals(ps); err != nil {
		return nil, err
	}
	if rep.Scaffolds, err = bed.ScaffoldIntervals(s); err != nil {
		return nil, err
	}

	lengths := make([]int64, len(ps))
	for i, p := range ps {
		lengths[i] = p.Length()
	}
	scaffoldLengths := s.ScaffoldLengths()
	rep.Stats.ContigPaths = len(ps)
	rep.Stats.ContigTotal = paths.Total(ps)
	rep.Stats.ContigN50 = paths.N50(lengths)
	rep.Stats.Scaffolds = len(scaffoldLengths)
	for _, l := range scaffoldLengths {
		rep.Stats.ScaffoldTotal += l
	}
	rep.Stats.ScaffoldN50 = paths.N50(scaffoldLengths)
	rep.Stats.Bridges = len(s.Bridges())

	if opts.Substitutions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		st, err := substitution.Audit(g, event, targets)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "substitutions of %s", event)
		}
		rep.Substitutions = &st
	}
	rep.Stats.Duration = time.Since(start)
	return rep, nil
}
