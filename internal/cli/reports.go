package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/report"
)

// deleter is implemented by stores that can remove reports.
type deleter interface {
	Delete(ctx context.Context, id string) error
}

func (c *CLI) reportsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List, show and delete stored reports",
	}
	cmd.AddCommand(c.reportsListCommand())
	cmd.AddCommand(c.reportsShowCommand())
	cmd.AddCommand(c.reportsDeleteCommand())
	return cmd
}

func (c *CLI) reportsListCommand() *cobra.Command {
	var event string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored reports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st report.Store) error {
				reps, err := st.List(cmd.Context(), event)
				if err != nil {
					return err
				}
				if len(reps) == 0 {
					printInfo(cmd.ErrOrStderr(), "No reports stored")
					return nil
				}
				sums := make([]report.Summary, len(reps))
				for i, r := range reps {
					sums[i] = r.Summary()
				}
				fmt.Fprintln(cmd.OutOrStdout(), summaryTable(sums))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&event, "event", "e", "", "only list reports of this event")
	return cmd
}

func (c *CLI) reportsShowCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show a stored report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st report.Store) error {
				rep, err := st.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(w)
					enc.SetIndent("", "  ")
					return enc.Encode(rep)
				}
				printReport(w, rep)
				fmt.Fprintln(w, countsTable(rep.Counts))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	return cmd
}

func (c *CLI) reportsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a stored report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st report.Store) error {
				d, ok := st.(deleter)
				if !ok {
					return errors.New(errors.ErrCodeUnsupported, "the %s store cannot delete reports", c.config().Store.Backend)
				}
				if err := d.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				printSuccess(cmd.ErrOrStderr(), "Deleted %s", args[0])
				return nil
			})
		},
	}
}

func (c *CLI) withStore(ctx context.Context, fn func(report.Store) error) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func printReport(w io.Writer, rep *report.Report) {
	s := rep.Stats
	printKeyValue(w, "id", rep.ID)
	printKeyValue(w, "event", rep.Event)
	printKeyValue(w, "graph", rep.GraphHash)
	printKeyValue(w, "created", rep.CreatedAt.Format("2006-01-02 15:04:05"))
	printKeyValue(w, "targets", fmt.Sprint(rep.Targets))
	printKeyValue(w, "boundaries", strconv.Itoa(s.Boundaries))
	printKeyValue(w, "errors", strconv.Itoa(s.Errors))
	printKeyValue(w, "contigs", fmt.Sprintf("%d, %d bp, N50 %d", s.ContigPaths, s.ContigTotal, s.ContigN50))
	printKeyValue(w, "scaffolds", fmt.Sprintf("%d, %d bp, N50 %d", s.Scaffolds, s.ScaffoldTotal, s.ScaffoldN50))
	printKeyValue(w, "gap bridges", strconv.Itoa(s.Bridges))
	if rep.Substitutions != nil {
		printKeyValue(w, "accuracy", strconv.FormatFloat(100*rep.Substitutions.Accuracy(), 'f', 4, 64)+"%")
	}
}
