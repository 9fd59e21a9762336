package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/flower"
	"github.com/matzehuels/hapaudit/pkg/observability"
	"github.com/matzehuels/hapaudit/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Flower names the nest to draw. Empty means the root flower.
	Flower string

	// Events limits edges to these events. Empty means every event.
	Events []string

	// Detailed adds block lengths to labels and multiplicities to edges.
	Detailed bool

	// Highlight lists block labels to draw in red.
	Highlight []string
}

var palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#9467bd", "#8c564b",
	"#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

type edgeKey struct {
	from, to string
	event    string
}

// ToDOT converts one flower of g to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
func ToDOT(g *flower.Graph, opts Options) (string, error) {
	name := opts.Flower
	if name == "" {
		name = flower.RootName
	}
	f, ok := g.Flower(name)
	if !ok {
		return "", errors.New(errors.ErrCodeNotFound, "graph has no flower %q", name)
	}
	events := flower.NewEventSet(opts.Events...)
	for _, e := range opts.Events {
		if _, ok := g.Event(e); !ok {
			return "", errors.New(errors.ErrCodeInvalidEvent, "graph has no event %q", e)
		}
	}
	colors := make(map[string]string, len(g.Events()))
	for i, e := range g.Events() {
		colors[e.Header()] = palette[i%len(palette)]
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	fmt.Fprintf(&buf, "  label=%q;\n", f.String())
	buf.WriteString("\n")

	written := make(map[string]bool)
	writeNode := func(e *flower.End, indent string) {
		id := nodeID(e)
		if written[id] {
			return
		}
		written[id] = true
		fmt.Fprintf(&buf, "%s%q [%s];\n", indent, id, strings.Join(fmtAttrs(e, opts), ", "))
	}
	for _, grp := range f.Groups() {
		if grp.IsTerminal() {
			continue
		}
		fmt.Fprintf(&buf, "  subgraph %q {\n", "cluster_"+grp.Nested().Name())
		fmt.Fprintf(&buf, "    label=%q;\n    style=dashed;\n", grp.Nested().Name())
		for _, e := range grp.Ends() {
			writeNode(e, "    ")
		}
		buf.WriteString("  }\n")
	}
	for _, e := range f.Ends() {
		writeNode(e, "  ")
	}

	buf.WriteString("\n")
	counts := make(map[edgeKey]int)
	var order []edgeKey
	for _, e := range f.Ends() {
		for _, c := range e.Instances() {
			ev := c.Event().Header()
			if events.Len() > 0 && !events.Contains(ev) {
				continue
			}
			other, ok := c.Adjacency()
			if !ok || other.End().Flower() != f {
				continue
			}
			// Each adjacency is seen from both caps; keep the lower name.
			if other.Name() < c.Name() {
				continue
			}
			k := edgeKey{from: nodeID(e), to: nodeID(other.End()), event: ev}
			if k.to < k.from {
				k.from, k.to = k.to, k.from
			}
			if counts[k] == 0 {
				order = append(order, k)
			}
			counts[k]++
		}
	}
	for _, k := range order {
		attrs := []string{fmt.Sprintf("color=%q", colors[k.event]), fmt.Sprintf("tooltip=%q", k.event)}
		if opts.Detailed {
			attrs = append(attrs, fmt.Sprintf("label=\"%s x%d\"", k.event, counts[k]))
		}
		fmt.Fprintf(&buf, "  %q -- %q [%s];\n", k.from, k.to, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func nodeID(e *flower.End) string {
	if b := e.Block(); b != nil {
		return "block_" + b.Label()
	}
	return fmt.Sprintf("stub_%d", e.Name())
}

func fmtLabel(e *flower.End, detailed bool) string {
	b := e.Block()
	if b == nil {
		if e.Attached() {
			return fmt.Sprintf("stub %d", e.Name())
		}
		return fmt.Sprintf("telomere %d", e.Name())
	}
	if !detailed {
		return b.Label()
	}
	return fmt.Sprintf("%s\nlength: %d\ncopies: %d", b.Label(), b.Length(), e.InstanceCount())
}

func fmtAttrs(e *flower.End, opts Options) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(e, opts.Detailed))}
	if e.Block() == nil {
		attrs = append(attrs, "shape=ellipse", "style=filled", "fillcolor=lightgrey")
		return attrs
	}
	if slices.Contains(opts.Highlight, e.Block().Label()) {
		attrs = append(attrs, "fillcolor=\"#f4cccc\"", "color=\"#cc0000\"")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}

// Render produces dot in one of [render.Formats].
func Render(ctx context.Context, dot, format string, scale float64) (out []byte, err error) {
	hooks := observability.Audit()
	hooks.OnRenderStart(ctx, []string{format})
	start := time.Now()
	defer func() { hooks.OnRenderComplete(ctx, []string{format}, time.Since(start), err) }()

	switch format {
	case "dot":
		return []byte(dot), nil
	case "svg":
		return RenderSVG(ctx, dot)
	case "pdf":
		return RenderPDF(ctx, dot)
	case "png":
		return RenderPNG(ctx, dot, scale)
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format %q (use %s)", format, strings.Join(render.Formats, ", "))
}
