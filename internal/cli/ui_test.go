package cli

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/changeover/pkg/job"
	"github.com/matzehuels/changeover/pkg/pipeline"
	"github.com/matzehuels/changeover/pkg/report"
)

// swapStdout redirects status output to w until the returned func runs.
func swapStdout(w io.Writer) func() {
	prev := stdout
	stdout = w
	return func() { stdout = prev }
}

func TestPrintWarningsGroupsByKind(t *testing.T) {
	var buf bytes.Buffer
	defer swapStdout(&buf)()

	var warnings []job.Warning
	for i := range maxWarningsPerKind + 3 {
		warnings = append(warnings, job.Warning{
			Kind:    job.WarnDuplicateJob,
			Message: fmt.Sprintf("duplicate %d", i),
		})
	}
	warnings = append(warnings, job.PriorityUnmatched("GHOST"))
	printWarnings(warnings)

	out := buf.String()
	if got := strings.Count(out, "duplicate "); got != maxWarningsPerKind {
		t.Errorf("listed %d duplicates, want %d", got, maxWarningsPerKind)
	}
	if !strings.Contains(out, "3 more duplicate_job warnings") {
		t.Errorf("missing folded count:\n%s", out)
	}
	if !strings.Contains(out, "GHOST") {
		t.Errorf("priority warning dropped:\n%s", out)
	}
}

func TestPrintStats(t *testing.T) {
	tests := []struct {
		name string
		res  *pipeline.Result
		want []string
	}{
		{
			name: "fresh",
			res: &pipeline.Result{
				Rows:   make([]report.Row, 3),
				Solves: make([]pipeline.SolveStat, 2),
				Stats:  pipeline.Stats{TotalCost: 9, SolveTime: 1500 * time.Microsecond},
			},
			want: []string{"3 jobs", "changeover 9", "2 groups in 2ms", "fresh"},
		},
		{
			name: "cached manual",
			res:  &pipeline.Result{Rows: make([]report.Row, 1), CacheHit: true},
			want: []string{"1 jobs", "changeover 0", "cached"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			defer swapStdout(&buf)()
			printStats(tt.res)
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("stats line %q lacks %q", buf.String(), w)
				}
			}
			if tt.res.Solves == nil && strings.Contains(buf.String(), "groups") {
				t.Errorf("manual run should not report groups: %q", buf.String())
			}
		})
	}
}
