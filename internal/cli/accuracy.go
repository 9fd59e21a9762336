package cli

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/flower"
	"github.com/matzehuels/hapaudit/pkg/linkage"
	"github.com/matzehuels/hapaudit/pkg/substitution"
)

// =============================================================================
// linkage
// =============================================================================

func (c *CLI) linkageCommand() *cobra.Command {
	var (
		event   string
		targets string
		asJSON  bool
		all     bool
	)
	opts := c.config().Linkage

	cmd := &cobra.Command{
		Use:   "linkage [graph]",
		Short: "Estimate how well an event preserves long-range order",
		Long: `Linkage draws pairs of positions along every target sequence, with
separations spread evenly on a log scale, and checks whether the chosen event
joins the two aligned blocks in the same order and orientation.

The histogram has one row per separation bucket: bucket b covers separations
around 10^(b/bucket-size) bases.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if event == "" {
				return errors.New(errors.ErrCodeInvalidEvent, "--event is required")
			}
			refs := c.config().Audit.Targets
			if targets != "" {
				refs = splitList(targets)
			}
			if err := errors.ValidateEventSets(refs, nil); err != nil {
				return err
			}
			// Flags override the configured values only when given.
			merged := c.config().Linkage
			if cmd.Flags().Changed("samples") {
				merged.Samples = opts.Samples
			}
			if cmd.Flags().Changed("buckets") {
				merged.Buckets = opts.Buckets
			}
			if cmd.Flags().Changed("bucket-size") {
				merged.BucketSize = opts.BucketSize
			}
			if cmd.Flags().Changed("seed") {
				merged.Seed = opts.Seed
			}

			g, _, err := c.loadGraph(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if _, ok := g.Event(event); !ok {
				return errors.New(errors.ErrCodeInvalidEvent, "graph has no event %q", event)
			}
			prog := newProgress(c.Logger)
			h, err := linkage.SampleAll(g, flower.NewEventSet(refs...), event, merged)
			if err != nil {
				return err
			}
			samples, aligned, correct := h.Totals()
			prog.done(fmt.Sprintf("Sampled %d pairs", samples))

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(h)
			}
			fmt.Fprintln(cmd.OutOrStdout(), histogramTable(h, merged.BucketSize, all))
			printKeyValue(cmd.ErrOrStderr(), "aligned", fmt.Sprintf("%d / %d", aligned, samples))
			printKeyValue(cmd.ErrOrStderr(), "correct", fmt.Sprintf("%d / %d (%s)", correct, aligned, percent(correct, aligned)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&event, "event", "e", "", "event to test")
	cmd.Flags().StringVarP(&targets, "targets", "t", "", "reference events to sample from (comma-separated)")
	cmd.Flags().IntVar(&opts.Samples, "samples", opts.Samples, "pairs drawn per reference sequence")
	cmd.Flags().IntVar(&opts.Buckets, "buckets", opts.Buckets, "number of separation buckets")
	cmd.Flags().Float64Var(&opts.BucketSize, "bucket-size", opts.BucketSize, "buckets per power of ten")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", opts.Seed, "random seed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the histogram as JSON")
	cmd.Flags().BoolVar(&all, "all", false, "include empty buckets")
	return cmd
}

func histogramTable(h *linkage.Histogram, bucketSize float64, all bool) string {
	var rows [][]string
	for b := range h.Samples {
		if !all && h.Samples[b] == 0 {
			continue
		}
		rows = append(rows, []string{
			strconv.Itoa(b),
			strconv.FormatFloat(math.Pow(10, float64(b)/bucketSize), 'g', 4, 64),
			strconv.FormatInt(h.Samples[b], 10),
			strconv.FormatInt(h.Aligned[b], 10),
			strconv.FormatInt(h.Correct[b], 10),
			percent(h.Correct[b], h.Aligned[b]),
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Bucket", "Separation", "Samples", "Aligned", "Correct", "Linked").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			return lipgloss.NewStyle().Align(lipgloss.Right)
		}).
		Render()
}

func percent(n, d int64) string {
	if d == 0 {
		return "-"
	}
	return strconv.FormatFloat(100*float64(n)/float64(d), 'f', 2, 64) + "%"
}

// =============================================================================
// substitutions
// =============================================================================

func (c *CLI) substitutionsCommand() *cobra.Command {
	var (
		event   string
		targets string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "substitutions [graph]",
		Short: "Score the aligned bases of an event against the targets",
		Long: `Substitutions compares every aligned column of the chosen event with the
target segments of the same block. IUPAC ambiguity codes count as correct
when they include the reference base; columns with an N are reported as
masked and excluded from the accuracy.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if event == "" {
				return errors.New(errors.ErrCodeInvalidEvent, "--event is required")
			}
			refs := c.config().Audit.Targets
			if targets != "" {
				refs = splitList(targets)
			}
			if err := errors.ValidateEventSets(refs, nil); err != nil {
				return err
			}
			g, _, err := c.loadGraph(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			prog := newProgress(c.Logger)
			st, err := substitution.Audit(g, event, flower.NewEventSet(refs...))
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Compared %d columns", st.Columns))

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}
			printSubstitutions(cmd, st)
			return nil
		},
	}
	cmd.Flags().StringVarP(&event, "event", "e", "", "event to score")
	cmd.Flags().StringVarP(&targets, "targets", "t", "", "reference events (comma-separated)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the statistics as JSON")
	return cmd
}

func printSubstitutions(cmd *cobra.Command, st substitution.Stats) {
	w := cmd.OutOrStdout()
	printKeyValue(w, "columns", strconv.FormatInt(st.Columns, 10))
	printKeyValue(w, "correct", strconv.FormatInt(st.Correct, 10))
	printKeyValue(w, "errors", strconv.FormatInt(st.Errors(), 10))
	printKeyValue(w, "masked", strconv.FormatInt(st.Masked, 10))
	printKeyValue(w, "ambiguous", strconv.FormatInt(st.Ambiguous, 10))
	printKeyValue(w, "bits", strconv.FormatFloat(st.Bits, 'f', 2, 64))
	printKeyValue(w, "accuracy", strconv.FormatFloat(100*st.Accuracy(), 'f', 4, 64)+"%")
}
