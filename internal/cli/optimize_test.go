package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/changeover/pkg/errors"
	chio "github.com/matzehuels/changeover/pkg/io"
	"github.com/matzehuels/changeover/pkg/job"
	"github.com/matzehuels/changeover/pkg/segment"
)

const testAnalysis = "Item_Code,Layer,Common_Count,Individual_Materials\n" +
	`A-1,Top,1,"M1,M2,M3"` + "\n" +
	`B-2,Top,1,"M2,M3,M4"` + "\n" +
	`C-3,Bottom,0,"M1,M9"` + "\n"

const testSchedule = "Item_Code,T_B,Qty,Prod_Time\n" +
	"A-1,T,10,1.5\n" +
	"C-3,B,4,0.5\n"

// writeInputs writes the analysis and schedule fixtures to a temp dir.
func writeInputs(t *testing.T) (dir string, opts optimizeOpts) {
	t.Helper()
	dir = t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}
	return dir, optimizeOpts{
		analysis: write("analysis.csv", testAnalysis),
		schedule: write("schedule.csv", testSchedule),
		common:   write("common.csv", "Material_Code\nM3\n"),
		quality:  "fast",
	}
}

func testCLI(t *testing.T) *CLI {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	return New(&bytes.Buffer{}, LogDebug)
}

func TestRunOptimizeWritesReports(t *testing.T) {
	c := testCLI(t)
	dir, opts := writeInputs(t)
	opts.output = filepath.Join(dir, "out")
	opts.formats = "csv,json,dot"

	if err := c.runOptimize(context.Background(), opts, false); err != nil {
		t.Fatalf("runOptimize: %v", err)
	}

	for _, ext := range []string{"csv", "json", "dot"} {
		if _, err := os.Stat(filepath.Join(dir, "out."+ext)); err != nil {
			t.Errorf("missing out.%s: %v", ext, err)
		}
	}

	rep, err := chio.ImportReport(filepath.Join(dir, "out.json"))
	if err != nil {
		t.Fatal(err)
	}
	if rep.Mode != "optimized" || len(rep.Rows) != 3 {
		t.Fatalf("report mode=%s rows=%d, want optimized with 3 rows", rep.Mode, len(rep.Rows))
	}
	for _, r := range rep.Rows {
		if r.ItemCode == "A-1" && (r.Qty == nil || *r.Qty != 10) {
			t.Errorf("A-1 qty not joined from schedule: %v", r.Qty)
		}
	}

	dot, _ := os.ReadFile(filepath.Join(dir, "out.dot"))
	if !strings.HasPrefix(string(dot), "digraph") {
		t.Errorf("dot output does not start with digraph: %.40s", dot)
	}
}

func TestRunOptimizeManual(t *testing.T) {
	c := testCLI(t)
	dir, opts := writeInputs(t)
	opts.output = filepath.Join(dir, "manual.json")
	opts.formats = "json"
	opts.manual = "(C-3,Bottom),(A-1,Top),(Z-9,Top)"

	if err := c.runOptimize(context.Background(), opts, true); err != nil {
		t.Fatalf("runOptimize: %v", err)
	}
	rep, err := chio.ImportReport(opts.output)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Mode != "manual" || len(rep.Rows) != 2 {
		t.Fatalf("mode=%s rows=%d, want manual with 2 rows", rep.Mode, len(rep.Rows))
	}
	if rep.Rows[0].ItemCode != "C-3" || rep.Rows[1].ItemCode != "A-1" {
		t.Errorf("manual order not kept: %s, %s", rep.Rows[0].ItemCode, rep.Rows[1].ItemCode)
	}
	if len(rep.Warnings) != 1 || rep.Warnings[0].Kind != job.WarnManualKeyMissing {
		t.Errorf("warnings = %v, want one manual_key_missing", rep.Warnings)
	}
}

func TestRunOptimizeEmptyManualFails(t *testing.T) {
	c := testCLI(t)
	_, opts := writeInputs(t)

	err := c.runOptimize(context.Background(), opts, true)
	if errors.GetCode(err) != errors.ErrCodeEmptyManualSequence {
		t.Fatalf("err = %v, want EMPTY_MANUAL_SEQUENCE", err)
	}
}

func TestRunOptimizeRecord(t *testing.T) {
	c := testCLI(t)
	dir, opts := writeInputs(t)
	opts.output = filepath.Join(dir, "out.csv")
	opts.record = true

	if err := c.runOptimize(context.Background(), opts, false); err != nil {
		t.Fatalf("runOptimize: %v", err)
	}

	st, err := c.newStore(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	runs, err := st.List(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Source != "cli" || runs[0].Controls.Quality != "fast" {
		t.Fatalf("recorded runs = %+v", runs)
	}
}

func TestRunOptimizeMissingFile(t *testing.T) {
	c := testCLI(t)
	err := c.runOptimize(context.Background(), optimizeOpts{analysis: "/nonexistent/analysis.csv"}, false)
	if errors.GetCode(err) != errors.ErrCodeFileNotFound {
		t.Fatalf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestBuildOptionsPrecedence(t *testing.T) {
	dir := t.TempDir()
	plan := filepath.Join(dir, "plan.yaml")
	content := "priority: [A-1]\nlayer_mode: BT\nquality: optimal\ntimeout: 3s\n"
	if err := os.WriteFile(plan, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := SolverConfig{Quality: "fast", Timeout: duration{time.Second}}

	t.Run("config only", func(t *testing.T) {
		got, err := buildOptions(optimizeOpts{}, cfg, false)
		if err != nil {
			t.Fatal(err)
		}
		if got.Quality != "fast" || got.Timeout != time.Second {
			t.Errorf("got quality=%s timeout=%s", got.Quality, got.Timeout)
		}
	})

	t.Run("plan over config", func(t *testing.T) {
		got, err := buildOptions(optimizeOpts{plan: plan}, cfg, false)
		if err != nil {
			t.Fatal(err)
		}
		if got.Quality != "optimal" || got.Timeout != 3*time.Second || got.LayerMode != segment.BT {
			t.Errorf("got %+v", got)
		}
		if len(got.PriorityCodes) != 1 || got.PriorityCodes[0] != "A-1" {
			t.Errorf("priority = %v", got.PriorityCodes)
		}
	})

	t.Run("flags over plan", func(t *testing.T) {
		got, err := buildOptions(optimizeOpts{plan: plan, layer: "TB", priority: "B-2, C-3", quality: "balanced"}, cfg, false)
		if err != nil {
			t.Fatal(err)
		}
		if got.Quality != "balanced" || got.LayerMode != segment.TB || len(got.PriorityCodes) != 2 {
			t.Errorf("got %+v", got)
		}
		if got.Timeout != 3*time.Second {
			t.Errorf("timeout = %s, want plan value", got.Timeout)
		}
	})

	t.Run("empty manual flag", func(t *testing.T) {
		got, err := buildOptions(optimizeOpts{}, cfg, true)
		if err != nil {
			t.Fatal(err)
		}
		if !got.IsManual() || len(got.Manual) != 0 {
			t.Errorf("manual = %#v, want empty non-nil", got.Manual)
		}
	})

	t.Run("bad layer", func(t *testing.T) {
		_, err := buildOptions(optimizeOpts{layer: "XY"}, cfg, false)
		if errors.GetCode(err) != errors.ErrCodeInvalidLayerMode {
			t.Errorf("err = %v, want INVALID_LAYER_MODE", err)
		}
	})
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "csv", false},
		{"csv,JSON, svg", "csv json svg", false},
		{"csv,,dot", "csv dot", false},
		{"xlsx", "", true},
	}
	for _, tt := range tests {
		got, err := parseFormats(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseFormats(%q) err = %v", tt.in, err)
			continue
		}
		if strings.Join(got, " ") != tt.want {
			t.Errorf("parseFormats(%q) = %v, want %s", tt.in, got, tt.want)
		}
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		base, format string
		multi        bool
		want         string
	}{
		{"", "csv", false, "sequence.csv"},
		{"out.txt", "csv", false, "out.txt"},
		{"out", "json", false, "out.json"},
		{"out.csv", "json", true, "out.json"},
		{"dir/run", "svg", true, "dir/run.svg"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.base, tt.format, tt.multi); got != tt.want {
			t.Errorf("outputPath(%q, %q, %v) = %q, want %q", tt.base, tt.format, tt.multi, got, tt.want)
		}
	}
}
