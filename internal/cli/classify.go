package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/hapaudit/pkg/capcode"
	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/report"
)

// Output formats of the classify command.
const (
	formatTable = "table"
	formatTSV   = "tsv"
	formatJSON  = "json"
)

func (c *CLI) classifyCommand() *cobra.Command {
	var (
		af         auditFlags
		rf         runFlags
		event      string
		format     string
		errorsOnly bool
	)
	cmd := &cobra.Command{
		Use:   "classify [graph]",
		Short: "Classify the boundaries of an event's aligned segments",
		Long: `Classify walks every aligned segment of the chosen event and assigns each of
its two ends a code describing how the assembly continues there compared to
the target haplotypes: a contig end, a gap, a supported join or an error.

The boundary list is printed to stdout and the per-code counts to stderr.`,
		Example: `  hapaudit classify graph.json -e assembly -t maternal,paternal
  hapaudit classify graph.json -e assembly --errors --format tsv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case formatTable, formatTSV, formatJSON:
			default:
				return errors.New(errors.ErrCodeInvalidParameters, "invalid format %q (use table, tsv or json)", format)
			}
			rep, err := c.auditOne(cmd, args[0], event, &af, rf)
			if err != nil {
				return err
			}
			bs := rep.Boundaries
			if errorsOnly {
				bs = errorBoundaries(bs)
			}
			if err := writeBoundaries(cmd.OutOrStdout(), format, bs); err != nil {
				return err
			}
			if format == formatTable {
				fmt.Fprintln(cmd.ErrOrStderr(), countsTable(rep.Counts))
			}
			return nil
		},
	}
	af.register(cmd)
	rf.register(cmd, false)
	cmd.Flags().StringVarP(&event, "event", "e", "", "event to classify")
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table, tsv or json")
	cmd.Flags().BoolVar(&errorsOnly, "errors", false, "only list error-coded boundaries")
	return cmd
}

func errorBoundaries(bs []report.Boundary) []report.Boundary {
	var out []report.Boundary
	for _, b := range bs {
		if b.Code.IsError() {
			out = append(out, b)
		}
	}
	return out
}

var boundaryHeaders = []string{"sequence", "position", "strand", "side", "block", "code", "insert", "delete", "path", "ns"}

func boundaryRow(b report.Boundary) []string {
	return []string{
		b.Sequence, strconv.FormatInt(b.Position, 10), b.Strand, b.Side, b.Block, b.Code.String(),
		strconv.FormatInt(b.InsertLength, 10), strconv.FormatInt(b.DeleteLength, 10),
		strconv.FormatInt(b.PathLength, 10), strconv.FormatInt(b.NCount, 10),
	}
}

func writeBoundaries(w io.Writer, format string, bs []report.Boundary) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if bs == nil {
			bs = []report.Boundary{}
		}
		return enc.Encode(bs)
	case formatTSV:
		fmt.Fprintln(w, strings.Join(boundaryHeaders, "\t"))
		for _, b := range bs {
			fmt.Fprintln(w, strings.Join(boundaryRow(b), "\t"))
		}
		return nil
	}
	rows := make([][]string, len(bs))
	for i, b := range bs {
		rows[i] = boundaryRow(b)
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(boundaryHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if col == 5 {
				return codeStyle(bs[row].Code)
			}
			return lipgloss.NewStyle()
		})
	fmt.Fprintln(w, t.Render())
	return nil
}

// codesPresent lists, in code order, every code with a nonzero count in
// any report.
func codesPresent(reps []*report.Report) []capcode.Code {
	seen := make(map[capcode.Code]bool)
	for _, r := range reps {
		for code, n := range r.Counts {
			if n > 0 {
				seen[code] = true
			}
		}
	}
	out := make([]capcode.Code, 0, len(seen))
	for code := range seen {
		out = append(out, code)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
