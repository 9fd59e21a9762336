package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/hapaudit/pkg/bed"
	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/report"
)

// runFlags control caching and persistence of a run.
type runFlags struct {
	noCache bool
	refresh bool
	save    bool
}

func (f *runFlags) register(cmd *cobra.Command, save bool) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the report cache")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute cached reports")
	if save {
		cmd.Flags().BoolVar(&f.save, "save", false, "keep reports in the configured store")
	}
}

// audited is the outcome of one runner invocation.
type audited struct {
	reports []*report.Report
	cached  []bool
	hash    string
}

// runAudit loads src and audits events.
func (c *CLI) runAudit(ctx context.Context, w io.Writer, src string, opts report.Options, rf runFlags) (*audited, error) {
	g, hash, err := c.loadGraph(ctx, src)
	if err != nil {
		return nil, err
	}
	runner, err := c.newRunner(ctx, rf.noCache, rf.save)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	opts.Refresh = rf.refresh
	opts.Logger = c.Logger
	start := time.Now()
	spinner := newSpinner(ctx, w, fmt.Sprintf("Auditing %d event(s)...", len(opts.Events)))
	spinner.Start()
	reps, err := runner.Run(ctx, g, hash, opts)
	if err != nil {
		spinner.StopWithError("Audit failed")
		return nil, err
	}
	spinner.Stop()

	out := &audited{reports: reps, cached: make([]bool, len(reps)), hash: hash}
	for i, r := range reps {
		out.cached[i] = r.CreatedAt.Before(start)
	}
	return out, nil
}

// auditOne audits a single event named by --event.
func (c *CLI) auditOne(cmd *cobra.Command, src, event string, af *auditFlags, rf runFlags) (*report.Report, error) {
	if event == "" {
		return nil, errors.New(errors.ErrCodeInvalidEvent, "--event is required")
	}
	a, err := c.runAudit(cmd.Context(), cmd.ErrOrStderr(), src, af.options(c.config(), event), rf)
	if err != nil {
		return nil, err
	}
	return a.reports[0], nil
}

// =============================================================================
// audit
// =============================================================================

func (c *CLI) auditCommand() *cobra.Command {
	var (
		af     auditFlags
		rf     runFlags
		events string
		output string
		subs   bool
	)
	cmd := &cobra.Command{
		Use:   "audit [graph]",
		Short: "Audit one or more assembly events",
		Long: `Audit classifies every boundary of each chosen event, builds its contig and
scaffold paths and prints a summary per event.

Reports are cached by graph content and options. With --save they are also
kept in the configured store, where 'reports' and 'browse' can find them.
With --output, each report is written as JSON: to the named file for a single
event, or to <output>/<event>.json for several.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := af.options(c.config(), splitList(events)...)
			opts.Substitutions = opts.Substitutions || subs
			a, err := c.runAudit(cmd.Context(), cmd.ErrOrStderr(), args[0], opts, rf)
			if err != nil {
				return err
			}
			errw := cmd.ErrOrStderr()
			for i, rep := range a.reports {
				printSuccess(errw, "%s %s", StyleHighlight.Render(rep.Event), StyleDim.Render(rep.ID))
				printStats(errw, rep.Stats, a.cached[i])
				if rep.Stats.Errors > 0 {
					printWarning(errw, "%d error-coded boundaries; see 'hapaudit classify %s -e %s --errors'", rep.Stats.Errors, args[0], rep.Event)
				}
			}
			if rf.save {
				printDetail(errw, "Saved %d report(s) to the %s store", len(a.reports), c.config().Store.Backend)
			}
			if output != "" {
				return writeReports(errw, output, a.reports)
			}
			fmt.Fprintln(cmd.OutOrStdout(), countsByEvent(a.reports))
			return nil
		},
	}
	af.register(cmd)
	rf.register(cmd, true)
	cmd.Flags().StringVarP(&events, "events", "e", "", "events to audit (comma-separated)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write report JSON to this file or directory")
	cmd.Flags().BoolVar(&subs, "substitutions", false, "score aligned bases against the targets")
	return cmd
}

// writeReports writes one JSON file per report.
func writeReports(w io.Writer, output string, reps []*report.Report) error {
	paths := []string{output}
	if len(reps) > 1 {
		if err := os.MkdirAll(output, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", output)
		}
		paths = paths[:0]
		for _, r := range reps {
			paths = append(paths, filepath.Join(output, r.Event+".json"))
		}
	}
	for i, r := range reps {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode report %s", r.ID)
		}
		if err := os.WriteFile(paths[i], append(data, '\n'), 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", paths[i])
		}
		printFile(w, paths[i])
	}
	return nil
}

// countsByEvent tabulates boundary codes, one column per event.
func countsByEvent(reps []*report.Report) string {
	headers := []string{"Code"}
	for _, r := range reps {
		headers = append(headers, r.Event)
	}
	codes := codesPresent(reps)
	var rows [][]string
	for _, code := range codes {
		row := []string{code.String()}
		for _, r := range reps {
			row = append(row, strconv.Itoa(r.Counts[code]))
		}
		rows = append(rows, row)
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if col == 0 {
				return codeStyle(codes[row])
			}
			return lipgloss.NewStyle().Align(lipgloss.Right)
		}).
		Render()
}

// =============================================================================
// contigs, scaffolds
// =============================================================================

func (c *CLI) contigsCommand() *cobra.Command {
	return c.bedCommand("contigs", "Write the contig paths of an event as BED",
		func(r *report.Report) []bed.Interval { return r.ContigPaths })
}

func (c *CLI) scaffoldsCommand() *cobra.Command {
	return c.bedCommand("scaffolds", "Write the scaffold paths of an event as BED",
		func(r *report.Report) []bed.Interval { return r.Scaffolds })
}

func (c *CLI) bedCommand(name, short string, pick func(*report.Report) []bed.Interval) *cobra.Command {
	var (
		af     auditFlags
		rf     runFlags
		event  string
		output string
	)
	cmd := &cobra.Command{
		Use:   name + " [graph]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := c.auditOne(cmd, args[0], event, &af, rf)
			if err != nil {
				return err
			}
			ivs := pick(rep)
			if output == "" {
				return bed.Write(cmd.OutOrStdout(), ivs)
			}
			f, err := os.Create(output)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", output)
			}
			defer f.Close()
			if err := bed.Write(f, ivs); err != nil {
				return err
			}
			printSuccess(cmd.ErrOrStderr(), "Wrote %d %s", len(ivs), name)
			printFile(cmd.ErrOrStderr(), output)
			return nil
		},
	}
	af.register(cmd)
	rf.register(cmd, false)
	cmd.Flags().StringVarP(&event, "event", "e", "", "event to audit")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
