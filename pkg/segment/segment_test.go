package segment

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/matzehuels/changeover/pkg/errors"
	"github.com/matzehuels/changeover/pkg/job"
	"github.com/matzehuels/changeover/pkg/material"
	"github.com/matzehuels/changeover/pkg/solver"
)

func mk(code string, layer job.Layer, mats ...string) job.Job {
	return job.Job{ItemCode: code, Layer: layer, Individual: material.NewSet(mats...)}
}

func codes(jobs []job.Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.ItemCode
	}
	return out
}

// recorder keeps input order and remembers the reference of every call.
type recorder struct {
	calls [][]string
	refs  []string
}

func (r *recorder) Solve(_ context.Context, jobs []job.Job, ref *job.Job) solver.Result {
	r.calls = append(r.calls, codes(jobs))
	if ref == nil {
		r.refs = append(r.refs, "")
	} else {
		r.refs = append(r.refs, ref.ItemCode)
	}
	return solver.Result{Order: solver.Seq(len(jobs))}
}

func TestParseLayerMode(t *testing.T) {
	tests := []struct {
		in      string
		want    LayerMode
		wantErr bool
	}{
		{"", None, false},
		{"none", None, false},
		{"TB", TB, false},
		{"bt", BT, false},
		{" Tb ", TB, false},
		{"TOP", None, true},
	}
	for _, tt := range tests {
		got, err := ParseLayerMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLayerMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidLayerMode) {
			t.Errorf("ParseLayerMode(%q) returned wrong error code: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLayerMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOptimizeEmpty(t *testing.T) {
	ref := mk("R", job.LayerTop, "a")
	rec := &recorder{}

	out, next := Optimize(context.Background(), rec, nil, TB, &ref)
	if len(out) != 0 {
		t.Errorf("out = %v, want empty", codes(out))
	}
	if next != &ref {
		t.Error("empty segment must hand back the incoming reference")
	}
	if len(rec.calls) != 0 {
		t.Errorf("solver called %d times for an empty segment", len(rec.calls))
	}
}

func TestOptimizeNoModeSingleSolve(t *testing.T) {
	ref := mk("R", job.LayerTop)
	rec := &recorder{}
	jobs := []job.Job{mk("A", job.LayerBottom), mk("B", job.LayerTop), mk("C", "Mixed")}

	out, next := Optimize(context.Background(), rec, jobs, None, &ref)
	if len(rec.calls) != 1 || rec.refs[0] != "R" {
		t.Fatalf("calls = %v refs = %v, want one call with reference R", rec.calls, rec.refs)
	}
	if !slices.Equal(codes(out), []string{"A", "B", "C"}) {
		t.Errorf("out = %v", codes(out))
	}
	if next == nil || next.ItemCode != "C" {
		t.Errorf("next reference = %v, want C", next)
	}
}

func TestOptimizeThreadsReference(t *testing.T) {
	jobs := []job.Job{
		mk("T1", job.LayerTop),
		mk("O1", job.LayerUnknown),
		mk("B1", job.LayerBottom),
		mk("T2", job.LayerTop),
		mk("B2", job.LayerBottom),
	}

	tests := []struct {
		mode      LayerMode
		wantCalls [][]string
		wantRefs  []string
		wantOut   []string
	}{
		{
			mode:      TB,
			wantCalls: [][]string{{"T1", "T2"}, {"B1", "B2"}, {"O1"}},
			wantRefs:  []string{"", "T2", "B2"},
			wantOut:   []string{"T1", "T2", "B1", "B2", "O1"},
		},
		{
			mode:      BT,
			wantCalls: [][]string{{"B1", "B2"}, {"T1", "T2"}, {"O1"}},
			wantRefs:  []string{"", "B2", "T2"},
			wantOut:   []string{"B1", "B2", "T1", "T2", "O1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			rec := &recorder{}
			out, next := Optimize(context.Background(), rec, jobs, tt.mode, nil)

			if !slices.EqualFunc(rec.calls, tt.wantCalls, slices.Equal[[]string]) {
				t.Errorf("calls = %v, want %v", rec.calls, tt.wantCalls)
			}
			if !slices.Equal(rec.refs, tt.wantRefs) {
				t.Errorf("refs = %v, want %v", rec.refs, tt.wantRefs)
			}
			if !slices.Equal(codes(out), tt.wantOut) {
				t.Errorf("out = %v, want %v", codes(out), tt.wantOut)
			}
			if next == nil || next.ItemCode != "O1" {
				t.Errorf("next reference = %v, want O1", next)
			}
		})
	}
}

func TestOptimizeSkipsEmptyLayer(t *testing.T) {
	ref := mk("R", job.LayerBottom)
	rec := &recorder{}
	jobs := []job.Job{mk("B1", job.LayerBottom), mk("B2", job.LayerBottom)}

	Optimize(context.Background(), rec, jobs, TB, &ref)
	if len(rec.calls) != 1 {
		t.Fatalf("calls = %v, want only the bottom group", rec.calls)
	}
	if rec.refs[0] != "R" {
		t.Errorf("bottom group should inherit reference R when there are no top jobs, got %q", rec.refs[0])
	}
}

func TestLayerOrderGuarantee(t *testing.T) {
	r := rand.New(rand.NewPCG(9, 9))
	layers := []job.Layer{job.LayerTop, job.LayerBottom, job.LayerUnknown}
	s := solver.New(solver.QualityFast)

	for trial := 0; trial < 10; trial++ {
		n := 1 + r.IntN(25)
		jobs := make([]job.Job, n)
		for i := range jobs {
			jobs[i] = mk(fmt.Sprintf("J%d", i), layers[r.IntN(3)],
				fmt.Sprintf("m%d", r.IntN(6)), fmt.Sprintf("m%d", r.IntN(6)))
		}

		for _, mode := range []LayerMode{TB, BT} {
			out, _ := Optimize(context.Background(), s, jobs, mode, nil)
			if len(out) != n {
				t.Fatalf("trial %d %s: got %d jobs, want %d", trial, mode, len(out), n)
			}

			first, second := mode.order()
			rank := map[job.Layer]int{first: 0, second: 1}
			prev := 0
			for _, j := range out {
				cur, ok := rank[j.Layer]
				if !ok {
					cur = 2
				}
				if cur < prev {
					t.Fatalf("trial %d %s: layer order violated: %v", trial, mode, out)
				}
				prev = cur
			}
		}
	}
}

func TestScenarioBottomFirst(t *testing.T) {
	jobs := []job.Job{
		mk("X", job.LayerTop, "m1", "m2"),
		mk("Y", job.LayerBottom, "m2", "m3"),
	}
	out, _ := Optimize(context.Background(), solver.New(solver.QualityFast), jobs, BT, nil)
	if !slices.Equal(codes(out), []string{"Y", "X"}) {
		t.Errorf("out = %v, want [Y X]", codes(out))
	}
}

func TestSegmenterOnGroup(t *testing.T) {
	var labels []string
	sg := &Segmenter{
		Solver: solver.New(solver.QualityFast),
		OnGroup: func(g GroupStat) {
			labels = append(labels, fmt.Sprintf("%s:%d", g.Label, g.Jobs))
		},
	}
	jobs := []job.Job{mk("A", job.LayerTop, "x"), mk("B", job.LayerBottom, "y"), mk("C", job.LayerBottom, "y")}

	sg.Optimize(context.Background(), jobs, BT, nil)
	if !slices.Equal(labels, []string{"Bottom:2", "Top:1"}) {
		t.Errorf("groups = %v", labels)
	}

	labels = nil
	sg.Optimize(context.Background(), jobs, None, nil)
	if !slices.Equal(labels, []string{"all:3"}) {
		t.Errorf("groups = %v", labels)
	}
}
