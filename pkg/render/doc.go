// Package render provides visualization rendering for alignment graphs.
//
// # Overview
//
// This package contains the rendering pipeline that turns one flower of an
// alignment graph into a diagram. It provides:
//
//   - Generic format conversion (SVG to PDF/PNG)
//   - Node-link diagrams of flowers (in [nodelink] subpackage)
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage draws blocks and stub ends as nodes and the
// adjacencies of each chosen event as edges, using Graphviz.
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Events: []string{"asm"}})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [nodelink]: github.com/matzehuels/hapaudit/pkg/render/nodelink
package render
