// Package cli implements the hapaudit command-line interface.
//
// Every command reads a graph document from a path or URL, audits one or
// more chosen events against the configured targets and prints the result.
// Data goes to stdout so that BED and JSON output can be piped; status
// lines and logs go to stderr.
//
// # Commands
//
//   - classify: boundary codes of one event
//   - contigs, scaffolds: BED intervals of contig and scaffold paths
//   - audit: full reports, cached and stored
//   - linkage, substitutions: long-range and base-level accuracy
//   - render: node-link diagrams of one flower
//   - reports, browse: inspect stored reports
//   - serve: HTTP API
//   - cache, config, completion: housekeeping
package cli

import (
	"context"
	stderrors "errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/hapaudit/internal/config"
	"github.com/matzehuels/hapaudit/pkg/buildinfo"
	"github.com/matzehuels/hapaudit/pkg/cache"
	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/flower"
	"github.com/matzehuels/hapaudit/pkg/httputil"
	hio "github.com/matzehuels/hapaudit/pkg/io"
	"github.com/matzehuels/hapaudit/pkg/observability"
	"github.com/matzehuels/hapaudit/pkg/report"
)

const (
	appName = config.AppName

	// downloadTTL bounds how long downloaded documents are reused.
	downloadTTL = 24 * time.Hour
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// Exit codes.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitInvariant = 2
	ExitCancelled = 130
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "hapaudit audits genome assemblies against haplotype references",
		Long: `hapaudit reads a cactus-style alignment of an assembly and its reference
haplotypes, classifies every boundary of the assembly's aligned segments,
and reports contig and scaffold paths with their errors.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/hapaudit/config.toml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.classifyCommand())
	root.AddCommand(c.contigsCommand())
	root.AddCommand(c.scaffoldsCommand())
	root.AddCommand(c.auditCommand())
	root.AddCommand(c.linkageCommand())
	root.AddCommand(c.substitutionsCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.reportsCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration and applies its log level. --verbose
// always wins.
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	level, _ := cfg.LogLevel()
	if c.verbose {
		level = log.DebugLevel
	}
	c.SetLogLevel(level)
	observability.SetAuditHooks(observability.LogHooks{Logger: c.Logger})
	observability.SetHTTPHooks(observability.LogHooks{Logger: c.Logger})
	return nil
}

// config returns the loaded configuration, or the defaults when a command
// runs without the root's pre-run.
func (c *CLI) config() *config.Config {
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	return c.cfg
}

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case stderrors.Is(err, context.Canceled):
		return ExitCancelled
	case errors.IsInvariant(err):
		return ExitInvariant
	}
	return ExitFailure
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a report runner for CLI use. The store is attached only
// when save is set.
func (c *CLI) newRunner(ctx context.Context, noCache, save bool) (*report.Runner, error) {
	cch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	r := report.NewRunner(cch, c.config().Keyer(), c.Logger)
	if save {
		st, err := c.config().OpenStore(ctx)
		if err != nil {
			cch.Close()
			return nil, err
		}
		r.Store = st
	}
	return r, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	cch, err := c.config().OpenCache(ctx)
	if err != nil {
		c.Logger.Warn("cache disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	return cch, nil
}

// openStore opens the configured report store. A store backend of "none"
// is an error here since the caller needs one.
func (c *CLI) openStore(ctx context.Context) (report.Store, error) {
	st, err := c.config().OpenStore(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, errors.New(errors.ErrCodeInvalidParameters, "no report store configured (set store.backend)")
	}
	return st, nil
}

// =============================================================================
// Graph Loading
// =============================================================================

// loadGraph imports src, a local path or URL, and builds its graph.
func (c *CLI) loadGraph(ctx context.Context, src string) (*flower.Graph, string, error) {
	var fetcher *httputil.Fetcher
	if hio.IsURL(src) {
		// An empty dir selects the fetcher's default.
		dir, _ := config.CacheDir()
		if dir != "" {
			dir = filepath.Join(dir, "downloads")
		}
		var err error
		if fetcher, err = httputil.NewFetcher(dir, downloadTTL); err != nil {
			return nil, "", err
		}
	}
	prog := newProgress(c.Logger)
	doc, err := hio.Open(ctx, src, fetcher)
	if err != nil {
		return nil, "", err
	}
	g, err := doc.Build()
	if err != nil {
		return nil, "", errors.Wrap(errors.GetCode(err), err, "%s", src)
	}
	prog.done("Loaded " + src)
	return g, hio.Hash(doc), nil
}

// =============================================================================
// Audit Flags
// =============================================================================

// auditFlags are shared by every command that classifies boundaries.
type auditFlags struct {
	targets       string
	others        string
	minimumNCount int64
	maxInsertion  int64
	maxDeletion   int64
	ignoreBases   bool
}

func (f *auditFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.targets, "targets", "t", "", "reference haplotype events (comma-separated)")
	cmd.Flags().StringVar(&f.others, "others", "", "events that are neither audited nor targets (comma-separated)")
	cmd.Flags().Int64Var(&f.minimumNCount, "min-n", 0, "minimum Ns for a scaffold gap")
	cmd.Flags().Int64Var(&f.maxInsertion, "max-insertion", 0, "longest insertion still classified")
	cmd.Flags().Int64Var(&f.maxDeletion, "max-deletion", 0, "longest deletion still classified")
	cmd.Flags().BoolVar(&f.ignoreBases, "ignore-adjacency-bases", false, "treat every adjacency as zero bases long")
}

// options merges the flags over the configured defaults.
func (f *auditFlags) options(cfg *config.Config, events ...string) report.Options {
	opts := cfg.ReportOptions(events...)
	if f.targets != "" {
		opts.Targets = splitList(f.targets)
	}
	if f.others != "" {
		opts.Others = splitList(f.others)
	}
	if f.minimumNCount > 0 {
		opts.Parameters.MinimumNCount = f.minimumNCount
	}
	if f.maxInsertion > 0 {
		opts.Parameters.MaxInsertionLength = f.maxInsertion
	}
	if f.maxDeletion > 0 {
		opts.Parameters.MaxDeletionLength = f.maxDeletion
	}
	opts.IgnoreAdjacencyBases = opts.IgnoreAdjacencyBases || f.ignoreBases
	return opts
}

// splitList parses a comma-separated flag.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
