package report

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/hapaudit/pkg/adjacency"
	"github.com/matzehuels/hapaudit/pkg/cache"
	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/flower"
	"github.com/matzehuels/hapaudit/pkg/observability"
)

// Store persists reports. Implementations live in package store.
type Store interface {
	Save(ctx context.Context, r *Report) error
	// Get returns a NOT_FOUND error for unknown IDs.
	Get(ctx context.Context, id string) (*Report, error)
	// List returns the reports of event, or of every event when event is
	// empty, newest first.
	List(ctx context.Context, event string) ([]*Report, error)
	Close() error
}

// Runner executes audits with caching.
// Both CLI and API use it so that caching behaves the same everywhere.
//
// The Runner is stateless except for its cache, store and logger.
// Multiple goroutines can safely use the same Runner with different
// options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Store, when set, receives every report Run returns, including those
	// served from the cache.
	Store Store
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Run audits every event in opts.Events and returns the reports in the
// same order. Events are audited concurrently; the first failure cancels
// the rest.
func (r *Runner) Run(ctx context.Context, g *flower.Graph, graphHash string, opts Options) ([]*Report, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	trav, err := adjacency.New(adjacency.Options{
		IgnoreAdjacencyBases: opts.IgnoreAdjacencyBases,
		CacheSize:            opts.CacheSize,
	})
	if err != nil {
		return nil, err
	}

	out := make([]*Report, len(opts.Events))
	eg, ctx := errgroup.WithContext(ctx)
	for i, event := range opts.Events {
		eg.Go(func() error {
			rep, err := r.audit(ctx, g, trav, event, graphHash, opts)
			if err != nil {
				return err
			}
			out[i] = rep
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// RunOne audits a single event.
func (r *Runner) RunOne(ctx context.Context, g *flower.Graph, graphHash, event string, opts Options) (*Report, error) {
	opts.Events = []string{event}
	opts.validated = false
	reps, err := r.Run(ctx, g, graphHash, opts)
	if err != nil {
		return nil, err
	}
	return reps[0], nil
}

func (r *Runner) audit(ctx context.Context, g *flower.Graph, trav *adjacency.Traverser, event, graphHash string, opts Options) (*Report, error) {
	key := r.Keyer.ReportKey(graphHash, event, keyOpts(opts))
	logger := opts.Logger.With("event", event)

	if !opts.Refresh && graphHash != "" {
		data, hit, err := r.Cache.Get(ctx, key)
		switch {
		case err != nil:
			logger.Warn("cache unavailable", "error", err)
		case hit:
			var rep Report
			if err := json.Unmarshal(data, &rep); err == nil {
				observability.Cache().OnCacheHit(ctx, "report")
				logger.Debug("report cache hit", "id", rep.ID)
				return r.save(ctx, &rep)
			}
			logger.Warn("discarding unreadable cached report", "key", key)
		}
		observability.Cache().OnCacheMiss(ctx, "report")
	}

	hooks := observability.Audit()
	hooks.OnAuditStart(ctx, event)
	start := time.Now()
	rep, err := Audit(ctx, g, trav, event, graphHash, opts)
	if err != nil {
		hooks.OnAuditComplete(ctx, event, 0, 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnAuditComplete(ctx, event, rep.Stats.Boundaries, rep.Stats.Errors, time.Since(start), nil)
	logger.Info("audited event",
		"boundaries", rep.Stats.Boundaries,
		"errors", rep.Stats.Errors,
		"contigs", rep.Stats.ContigPaths,
		"scaffolds", rep.Stats.Scaffolds,
		"duration", rep.Stats.Duration)

	if graphHash != "" {
		if data, err := json.Marshal(rep); err == nil {
			if err := r.Cache.Set(ctx, key, data, cache.TTLReport); err == nil {
				observability.Cache().OnCacheSet(ctx, "report", len(data))
			}
		}
	}
	return r.save(ctx, rep)
}

// save hands rep to the store, if any. Stores upsert by ID, so a report
// served from the cache may be saved more than once.
func (r *Runner) save(ctx context.Context, rep *Report) (*Report, error) {
	if r.Store == nil {
		return rep, nil
	}
	if err := r.Store.Save(ctx, rep); err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "save report %s", rep.ID)
	}
	return rep, nil
}

func keyOpts(o Options) cache.ReportKeyOpts {
	return cache.ReportKeyOpts{
		Targets:              o.Targets,
		Others:               o.Others,
		MinimumNCount:        o.Parameters.MinimumNCount,
		MaxInsertionLength:   o.Parameters.MaxInsertionLength,
		MaxDeletionLength:    o.Parameters.MaxDeletionLength,
		IgnoreAdjacencyBases: o.IgnoreAdjacencyBases,
		Substitutions:        o.Substitutions,
	}
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	var err error
	if r.Cache != nil {
		err = r.Cache.Close()
	}
	if r.Store != nil {
		if serr := r.Store.Close(); err == nil {
			err = serr
		}
	}
	return err
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
