package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/changeover/pkg/job"
	"github.com/matzehuels/changeover/pkg/report"
)

// Options configures path diagram rendering.
type Options struct {
	// Title is drawn above the diagram. Empty omits it.
	Title string

	// Detailed adds quantity, production time and material counts to
	// node labels. When false, only the item code and layer are shown.
	Detailed bool
}

var tierColor = map[job.Tier]string{
	job.TierManual:    "steelblue",
	job.TierPriority:  "darkorange",
	job.TierRemaining: "grey40",
}

// ToDOT converts report rows to Graphviz DOT format.
// Consecutive rows of the same tier share a cluster.
func ToDOT(rows []report.Row, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=11];\n")
	buf.WriteString("  nodesep=0.3;\n")

	total := 0
	for _, r := range rows {
		total += r.Changeover
	}
	label := fmt.Sprintf("%d jobs, total changeover %d", len(rows), total)
	if opts.Title != "" {
		label = opts.Title + "\n" + label
	}
	fmt.Fprintf(&buf, "  labelloc=t;\n  label=%q;\n", label)

	for start := 0; start < len(rows); {
		tier := rows[start].Tier
		end := start
		for end < len(rows) && rows[end].Tier == tier {
			end++
		}
		fmt.Fprintf(&buf, "\n  subgraph cluster_%d {\n", start)
		fmt.Fprintf(&buf, "    label=%q;\n    color=%s;\n    style=dashed;\n", tier.String(), tierColor[tier])
		for _, r := range rows[start:end] {
			fmt.Fprintf(&buf, "    %s [%s];\n", nodeID(r), strings.Join(fmtAttrs(r, opts.Detailed), ", "))
		}
		buf.WriteString("  }\n")
		start = end
	}

	if len(rows) > 1 {
		buf.WriteString("\n")
	}
	for k := 1; k < len(rows); k++ {
		r := rows[k]
		fmt.Fprintf(&buf, "  %s -> %s [label=%q];\n", nodeID(rows[k-1]), nodeID(r),
			fmt.Sprintf("shared %d / cost %d", r.TransitionSharedCount, r.Changeover))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(r report.Row) string { return "n" + strconv.Itoa(r.Index) }

func fmtLabel(r report.Row, detailed bool) string {
	label := fmt.Sprintf("%d. %s\n%s", r.Index, r.ItemCode, r.Layer)
	if !detailed {
		return label
	}
	parts := []string{label}
	if r.Qty != nil {
		parts = append(parts, fmt.Sprintf("qty: %d", *r.Qty))
	}
	if r.ProdTime != nil {
		parts = append(parts, fmt.Sprintf("time: %s", strconv.FormatFloat(*r.ProdTime, 'f', -1, 64)))
	}
	parts = append(parts, fmt.Sprintf("materials: %d (%d common)", r.TotalCount, r.CommonCount))
	return strings.Join(parts, "\n")
}

func fmtAttrs(r report.Row, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(r, detailed))}
	switch r.Layer {
	case job.LayerTop:
	case job.LayerBottom:
		attrs = append(attrs, "fillcolor=lightgrey")
	default:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg tag with one that
// scales to its container.
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
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return ToPNG(ctx, svg, scale)
}
