// Package render draws a sequence report as a changeover path diagram.
//
// [ToDOT] lays the report out left to right as one chain of jobs. Each tier
// is a Graphviz cluster, nodes are shaded by board layer, and every edge is
// labeled with the number of individual materials the two jobs share and the
// changeover cost between them.
//
//	dot := render.ToDOT(rows, render.Options{})
//	svg, err := render.RenderSVG(ctx, dot)
//
// [ToPDF] and [ToPNG] convert SVG output with the external rsvg-convert tool
// (from librsvg).
package render
