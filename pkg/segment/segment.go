// Package segment orders one tier of jobs, optionally keeping board layers
// together.
//
// Without a layer mode the whole group is handed to the solver at once. With
// [TB] or [BT] the group is split into top, bottom and other jobs. Each part
// is solved separately and the last job placed by one part becomes the
// reference job of the next, so the changeover path stays continuous across
// the layer boundary. Jobs with a layer other than Top or Bottom are always
// solved last.
//
// The reference is passed in and returned explicitly; nothing is kept between
// calls.
package segment

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/changeover/pkg/errors"
	"github.com/matzehuels/changeover/pkg/job"
	"github.com/matzehuels/changeover/pkg/solver"
)

// LayerMode selects which board side is produced first within a tier.
type LayerMode string

const (
	// None solves every job of the tier as one group.
	None LayerMode = ""
	// TB places all Top jobs before all Bottom jobs.
	TB LayerMode = "TB"
	// BT places all Bottom jobs before all Top jobs.
	BT LayerMode = "BT"
)

// ParseLayerMode accepts "", "none", "TB" and "BT" in any case.
func ParseLayerMode(s string) (LayerMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NONE":
		return None, nil
	case "TB":
		return TB, nil
	case "BT":
		return BT, nil
	}
	return None, errors.New(errors.ErrCodeInvalidLayerMode, "invalid layer mode: %q (must be one of: TB, BT)", s)
}

// Valid reports whether m is one of the defined modes.
func (m LayerMode) Valid() bool { return m == None || m == TB || m == BT }

func (m LayerMode) String() string {
	if m == None {
		return "none"
	}
	return string(m)
}

// order returns the two known layers in production order.
func (m LayerMode) order() (first, second job.Layer) {
	if m == BT {
		return job.LayerBottom, job.LayerTop
	}
	return job.LayerTop, job.LayerBottom
}

// GroupStat describes one solver call made by a [Segmenter].
type GroupStat struct {
	Label    string // "all", "Top", "Bottom" or "other"
	Jobs     int
	Solve    solver.Result
	Duration time.Duration
}

// Segmenter orders tiers with a fixed solver.
type Segmenter struct {
	Solver solver.Solver

	// OnStart and OnGroup, if set, are called before and after every
	// non-empty group is solved.
	OnStart func(label string, jobs int)
	OnGroup func(GroupStat)
}

// Optimize orders jobs with s. See [Segmenter.Optimize].
func Optimize(ctx context.Context, s solver.Solver, jobs []job.Job, mode LayerMode, ref *job.Job) ([]job.Job, *job.Job) {
	return (&Segmenter{Solver: s}).Optimize(ctx, jobs, mode, ref)
}

// Optimize returns jobs in production order together with the reference job
// for whatever is sequenced next: the last job placed, or ref itself when
// jobs is empty. An unrecognized mode is treated as [None]; callers validate
// modes up front with [ParseLayerMode].
func (sg *Segmenter) Optimize(ctx context.Context, jobs []job.Job, mode LayerMode, ref *job.Job) ([]job.Job, *job.Job) {
	if len(jobs) == 0 {
		return nil, ref
	}
	if mode != TB && mode != BT {
		return sg.solve(ctx, "all", jobs, ref)
	}

	firstLayer, secondLayer := mode.order()
	var first, second, other []job.Job
	for _, j := range jobs {
		switch j.Layer {
		case firstLayer:
			first = append(first, j)
		case secondLayer:
			second = append(second, j)
		default:
			other = append(other, j)
		}
	}

	out := make([]job.Job, 0, len(jobs))
	for _, g := range []struct {
		label string
		jobs  []job.Job
	}{
		{string(firstLayer), first},
		{string(secondLayer), second},
		{"other", other},
	} {
		var ordered []job.Job
		ordered, ref = sg.solve(ctx, g.label, g.jobs, ref)
		out = append(out, ordered...)
	}
	return out, ref
}

func (sg *Segmenter) solve(ctx context.Context, label string, jobs []job.Job, ref *job.Job) ([]job.Job, *job.Job) {
	if len(jobs) == 0 {
		return nil, ref
	}

	if sg.OnStart != nil {
		sg.OnStart(label, len(jobs))
	}
	start := time.Now()
	res := sg.Solver.Solve(ctx, jobs, ref)
	ordered := solver.Apply(jobs, res.Order)

	if sg.OnGroup != nil {
		sg.OnGroup(GroupStat{Label: label, Jobs: len(jobs), Solve: res, Duration: time.Since(start)})
	}

	last := ordered[len(ordered)-1]
	return ordered, &last
}
