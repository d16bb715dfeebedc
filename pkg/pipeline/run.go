package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/changeover/pkg/errors"
	"github.com/matzehuels/changeover/pkg/job"
	"github.com/matzehuels/changeover/pkg/observability"
	"github.com/matzehuels/changeover/pkg/segment"
)

// Run orders jobs according to opts. jobs is never modified.
//
// On a fatal condition Run returns an error together with an Outcome that
// still carries the warnings collected so far.
func Run(ctx context.Context, jobs []job.Job, opts Options) (Outcome, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return Outcome{}, err
	}
	if opts.IsManual() {
		return runManual(jobs, opts)
	}
	return runOptimized(ctx, jobs, opts)
}

func runManual(jobs []job.Job, opts Options) (Outcome, error) {
	out := Outcome{Mode: ModeManual}

	idx, dups := job.NewIndex(jobs)
	resolved, missing := idx.Resolve(opts.Manual)
	out.Warnings = append(dups, missing...)
	for _, w := range out.Warnings {
		opts.Logger.Warn(w.Message)
	}

	if len(resolved) == 0 {
		return out, errors.New(errors.ErrCodeEmptyManualSequence,
			"no valid jobs found in manual sequence (%d entries requested)", len(opts.Manual))
	}

	out.Sequence = job.Tag(resolved, job.TierManual)
	opts.Logger.Info("applied manual sequence", "requested", len(opts.Manual), "sequenced", len(out.Sequence))
	return out, nil
}

func runOptimized(ctx context.Context, jobs []job.Job, opts Options) (Outcome, error) {
	out := Outcome{Mode: ModeOptimized}
	if len(jobs) == 0 {
		return out, errors.New(errors.ErrCodeNoJobs, "no jobs to sequence")
	}

	// Every row is still sequenced; duplicates only warn.
	_, dups := job.NewIndex(jobs)
	for _, w := range dups {
		opts.Logger.Warn(w.Message)
	}
	out.Warnings = append(out.Warnings, dups...)

	prio, rest, unmatched := partition(jobs, opts.PriorityCodes)
	for _, code := range unmatched {
		w := job.PriorityUnmatched(code)
		opts.Logger.Warn(w.Message)
		out.Warnings = append(out.Warnings, w)
	}

	var tier string
	sg := &segment.Segmenter{
		Solver: opts.Solver,
		OnStart: func(label string, n int) {
			observability.Pipeline().OnSolveStart(ctx, tier+"/"+label, n)
		},
		OnGroup: func(g segment.GroupStat) {
			stat := SolveStat{
				Group:       tier + "/" + g.Label,
				Jobs:        g.Jobs,
				Cost:        g.Solve.Cost,
				InitialCost: g.Solve.InitialCost,
				Moves:       g.Solve.Moves,
				Exact:       g.Solve.Exact,
				TimedOut:    g.Solve.TimedOut,
				Fallback:    g.Solve.Fallback,
				Duration:    g.Duration,
			}
			out.Solves = append(out.Solves, stat)
			observability.Pipeline().OnSolveComplete(ctx, stat.Group, stat.Cost, stat.TimedOut, stat.Duration)

			opts.Logger.Debug("solved group", "group", stat.Group, "jobs", stat.Jobs,
				"cost", stat.Cost, "initial", stat.InitialCost, "moves", stat.Moves, "duration", stat.Duration)
			if stat.Fallback {
				opts.Logger.Warn("solver returned no usable tour; kept input order", "group", stat.Group)
			}
		},
	}

	var ref *job.Job
	if len(prio) > 0 {
		tier = job.TierPriority.String()
		opts.Logger.Info(fmt.Sprintf("optimizing %d priority jobs", len(prio)), "layer_mode", opts.LayerMode)
		var ordered []job.Job
		ordered, ref = sg.Optimize(ctx, prio, opts.LayerMode, nil)
		out.Sequence = append(out.Sequence, ordered...)
	}
	if len(rest) > 0 {
		tier = job.TierRemaining.String()
		opts.Logger.Info(fmt.Sprintf("optimizing %d remaining jobs", len(rest)), "layer_mode", opts.LayerMode)
		ordered, _ := sg.Optimize(ctx, rest, opts.LayerMode, ref)
		out.Sequence = append(out.Sequence, ordered...)
	}
	return out, nil
}

// partition splits jobs into tagged priority and remaining copies and
// returns the priority codes that matched no job.
func partition(jobs []job.Job, codes []string) (prio, rest []job.Job, unmatched []string) {
	want := make(map[string]bool, len(codes))
	for _, c := range codes {
		want[c] = false
	}
	for _, j := range jobs {
		if _, ok := want[j.ItemCode]; ok {
			want[j.ItemCode] = true
			prio = append(prio, j.WithTier(job.TierPriority))
		} else {
			rest = append(rest, j.WithTier(job.TierRemaining))
		}
	}
	for _, c := range codes {
		if !want[c] {
			unmatched = append(unmatched, c)
		}
	}
	return prio, rest, unmatched
}
