package render

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/changeover/pkg/job"
	"github.com/matzehuels/changeover/pkg/report"
)

func rows() []report.Row {
	qty := 40
	return []report.Row{
		{Index: 1, ItemCode: "A", Layer: job.LayerTop, Tier: job.TierPriority, Qty: &qty, TotalCount: 3, CommonCount: 1},
		{Index: 2, ItemCode: "B", Layer: job.LayerBottom, Tier: job.TierPriority, TransitionSharedCount: 1, Changeover: 2},
		{Index: 3, ItemCode: "C", Layer: job.LayerUnknown, Tier: job.TierRemaining, TransitionSharedCount: 0, Changeover: 4},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(rows(), Options{Title: "Line 3"})

	for _, want := range []string{
		"rankdir=LR;",
		`label="Line 3\n3 jobs, total changeover 6";`,
		"subgraph cluster_0 {",
		`label="priority";`,
		"subgraph cluster_2 {",
		`label="remaining";`,
		`n1 -> n2 [label="shared 1 / cost 2"];`,
		`n2 -> n3 [label="shared 0 / cost 4"];`,
		"fillcolor=lightgrey",
		`style="rounded,filled,dashed"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Count(dot, "subgraph") != 2 {
		t.Errorf("want two tier clusters:\n%s", dot)
	}
	if strings.Contains(dot, "qty:") {
		t.Error("qty should only appear in detailed labels")
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(rows(), Options{Detailed: true})
	if !strings.Contains(dot, `qty: 40`) || !strings.Contains(dot, `materials: 3 (1 common)`) {
		t.Errorf("detailed labels missing:\n%s", dot)
	}
}

func TestToDOTEmpty(t *testing.T) {
	dot := ToDOT(nil, Options{})
	if strings.Contains(dot, "subgraph") || strings.Contains(dot, "->") {
		t.Errorf("empty report should have no clusters or edges:\n%s", dot)
	}
	if !strings.Contains(dot, "0 jobs, total changeover 0") {
		t.Errorf("unexpected label:\n%s", dot)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(rows(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) || !bytes.Contains(svg, []byte(`viewBox="0 0 `)) {
		t.Errorf("unexpected SVG output: %.200s", svg)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="x"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox =\n%s\nwant\n%s", got, want)
	}

	plain := []byte(`<svg><g/></svg>`)
	if got := normalizeViewBox(plain); !bytes.Equal(got, plain) {
		t.Errorf("svg without viewBox changed: %s", got)
	}
}
