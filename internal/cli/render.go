package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/flower"
	"github.com/matzehuels/hapaudit/pkg/render"
	"github.com/matzehuels/hapaudit/pkg/render/nodelink"
	"github.com/matzehuels/hapaudit/pkg/report"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	output   string
	formats  []string
	flower   string
	events   []string
	detailed bool
	reportID string
	scale    float64
}

func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr, eventsStr string
	opts := renderOpts{scale: 2.0}

	cmd := &cobra.Command{
		Use:   "render [graph]",
		Short: "Draw one flower of the graph as a node-link diagram",
		Long: `Render draws the ends of one flower as nodes and the adjacencies between
them as edges, one color per event. Non-terminal groups become clusters.

With --report, blocks next to an error-coded boundary of a stored report are
highlighted. PDF and PNG output need rsvg-convert.`,
		Example: `  hapaudit render graph.json --flower root -f svg,png
  hapaudit render graph.json --events maternal,assembly --report 4f1c... -o root.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			opts.events = splitList(eventsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd, args[0], &opts)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, pdf, png (comma-separated)")
	cmd.Flags().StringVar(&opts.flower, "flower", flower.RootName, "flower to draw")
	cmd.Flags().StringVar(&eventsStr, "events", "", "only draw adjacencies of these events (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label blocks with length and copy number")
	cmd.Flags().StringVar(&opts.reportID, "report", "", "highlight the errors of this stored report")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	return cmd
}

// parseFormats parses the --format flag. If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{"svg"}
	}
	return splitList(s)
}

func validateFormats(formats []string) error {
	for _, f := range formats {
		if !slices.Contains(render.Formats, f) {
			return errors.New(errors.ErrCodeUnsupported, "invalid format: %s (use %s)", f, strings.Join(render.Formats, ", "))
		}
	}
	return nil
}

// basePath derives the output path without extension. If output is empty
// the input's name is used, with the flower name appended.
func basePath(output, input, flowerName string) string {
	if output == "" {
		base := filepath.Base(input)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		return base + "_" + flowerName
	}
	ext := filepath.Ext(output)
	if slices.Contains(render.Formats, strings.TrimPrefix(ext, ".")) {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func (c *CLI) runRender(cmd *cobra.Command, input string, opts *renderOpts) error {
	ctx := cmd.Context()
	g, _, err := c.loadGraph(ctx, input)
	if err != nil {
		return err
	}
	nopts := nodelink.Options{Flower: opts.flower, Events: opts.events, Detailed: opts.detailed}
	if opts.reportID != "" {
		if nopts.Highlight, err = c.highlight(ctx, opts.reportID); err != nil {
			return err
		}
	}
	dot, err := nodelink.ToDOT(g, nopts)
	if err != nil {
		return err
	}

	base := basePath(opts.output, input, opts.flower)
	errw := cmd.ErrOrStderr()
	for _, format := range opts.formats {
		spinner := newSpinner(ctx, errw, fmt.Sprintf("Rendering %s...", format))
		spinner.Start()
		data, err := nodelink.Render(ctx, dot, format, opts.scale)
		if err != nil {
			spinner.StopWithError("Render failed")
			return err
		}
		spinner.Stop()

		path := base + "." + format
		if opts.output != "" && len(opts.formats) == 1 && filepath.Ext(opts.output) != "" {
			path = opts.output
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
		}
		c.Logger.Debugf("Generated %s: %d bytes", format, len(data))
		printFile(errw, path)
	}
	return nil
}

// highlight returns the blocks next to error-coded boundaries of a stored
// report.
func (c *CLI) highlight(ctx context.Context, id string) ([]string, error) {
	st, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	rep, err := st.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return errorBlocks(rep), nil
}

func errorBlocks(rep *report.Report) []string {
	var out []string
	for _, b := range errorBoundaries(rep.Boundaries) {
		if b.Block != "" && !slices.Contains(out, b.Block) {
			out = append(out, b.Block)
		}
	}
	return out
}
