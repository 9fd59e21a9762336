// Package nodelink renders one flower of an alignment graph as a
// node-link diagram.
//
// # Overview
//
// Blocks appear as boxes and stub ends as ellipses. Every adjacency of a
// chosen event between two ends of the flower becomes an edge coloured by
// event. Ends of a group that nests a child flower are drawn inside a
// cluster named after the child.
//
// # Usage
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Events: []string{"hap", "asm"}})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output, use the render functions:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)  // 2x scale
//
// # Options
//
//   - Flower: the nest to draw; empty means the root flower
//   - Events: events whose adjacencies are drawn; empty means all
//   - Detailed: labels carry block lengths and edges their multiplicity
//   - Highlight: block labels drawn in red, typically blocks with a
//     classification error
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
