// Package pipeline turns a job set and run controls into a production
// sequence.
//
// This package implements the tier logic shared by the CLI and the HTTP API
// so both entry points order jobs the same way.
//
// # Modes
//
// A run is in exactly one of two modes:
//
//  1. Manual: the caller lists (item, layer) keys. Each key is looked up and
//     the matching jobs are emitted in exactly that order. Keys without a job
//     are skipped with a warning. Priority codes and layer mode are ignored.
//  2. Optimized (default): jobs whose item code is a priority code are solved
//     first, then the remaining jobs. The last priority job is the reference
//     job for the remaining tier, so the changeover path is continuous.
//     Within each tier the layer mode keeps Top and Bottom jobs together.
//
// Fatal conditions (an empty job set, a manual sequence that matches nothing)
// are returned as errors from package errors. Everything else is reported as
// a [job.Warning] in the [Outcome].
//
// # Usage
//
// Run the tiers directly:
//
//	out, err := pipeline.Run(ctx, jobs, pipeline.Options{
//	    PriorityCodes: []string{"EP94-04976A"},
//	    LayerMode:     segment.TB,
//	})
//
// Or through a Runner, which adds caching, hooks, statistics and the report:
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	result, err := runner.Execute(ctx, jobs, opts)
//	for _, row := range result.Rows {
//	    fmt.Println(row.Index, row.ItemCode, row.SelectionReason)
//	}
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/changeover/pkg/cache"
	"github.com/matzehuels/changeover/pkg/errors"
	"github.com/matzehuels/changeover/pkg/job"
	"github.com/matzehuels/changeover/pkg/report"
	"github.com/matzehuels/changeover/pkg/segment"
	"github.com/matzehuels/changeover/pkg/solver"
)

// Run modes.
const (
	ModeManual    = "manual"
	ModeOptimized = "optimized"
)

// DefaultQuality is the solver quality used when none is given.
const DefaultQuality = "balanced"

// =============================================================================
// Options - Run Controls
// =============================================================================

// Options contains all controls for one sequencing run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// PriorityCodes lists item codes produced before all other jobs.
	PriorityCodes []string `json:"priority,omitempty"`

	// LayerMode keeps Top and Bottom jobs together within each tier.
	LayerMode segment.LayerMode `json:"layer_mode,omitempty"`

	// Manual, when non-nil, switches the run to manual mode. An empty but
	// non-nil slice is a manual run that will fail with
	// EMPTY_MANUAL_SEQUENCE.
	Manual []job.Key `json:"manual,omitempty"`

	// Quality selects the solver preset: fast, balanced or optimal.
	Quality string `json:"quality,omitempty"`

	// Timeout bounds each solver call. Zero uses the preset's timeout.
	Timeout time.Duration `json:"timeout,omitempty"`

	// Runtime options (not serialized)
	Logger   *log.Logger           `json:"-"`
	Solver   solver.Solver         `json:"-"` // overrides Quality and Timeout
	Progress func(solver.Progress) `json:"-"`
	Refresh  bool                  `json:"-"` // skip cache reads

	quality   solver.Quality
	validated bool
}

// =============================================================================
// Outcome / Result
// =============================================================================

// Outcome is the product of [Run].
type Outcome struct {
	Mode     string
	Sequence []job.Job
	Warnings []job.Warning
	Solves   []SolveStat
}

// SolveStat records one solver call.
type SolveStat struct {
	Group       string        `json:"group"` // tier and layer bucket, e.g. "priority/Top"
	Jobs        int           `json:"jobs"`
	Cost        int           `json:"cost"`
	InitialCost int           `json:"initial_cost"`
	Moves       int           `json:"moves"`
	Exact       bool          `json:"exact,omitempty"`
	TimedOut    bool          `json:"timed_out,omitempty"`
	Fallback    bool          `json:"fallback,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// Result contains the outputs of a [Runner] execution.
type Result struct {
	// RunID uniquely identifies this execution.
	RunID string

	Mode     string
	Sequence []job.Job
	Rows     []report.Row
	Warnings []job.Warning
	Solves   []SolveStat

	// Stats contains timing and size information.
	Stats Stats

	// CacheHit is true when the sequence came from the cache.
	CacheHit bool
}

// Stats contains run statistics.
type Stats struct {
	InputJobs     int           `json:"input_jobs"`
	Sequenced     int           `json:"sequenced"`
	PriorityJobs  int           `json:"priority_jobs"`
	RemainingJobs int           `json:"remaining_jobs"`
	ManualJobs    int           `json:"manual_jobs"`
	TotalCost     int           `json:"total_cost"`
	TimedOut      int           `json:"timed_out_groups"`
	SolveTime     time.Duration `json:"solve_time"`
	ReportTime    time.Duration `json:"report_time"`
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the controls and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	if !o.LayerMode.Valid() {
		return errors.New(errors.ErrCodeInvalidLayerMode, "invalid layer mode: %q (must be one of: TB, BT)", string(o.LayerMode))
	}

	if o.Quality == "" {
		o.Quality = DefaultQuality
	}
	q, err := solver.ParseQuality(o.Quality)
	if err != nil {
		return err
	}
	o.quality = q
	o.Quality = q.String()
	if o.Timeout < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "timeout must not be negative")
	}
	if o.Timeout == 0 {
		o.Timeout = q.Timeout()
	}

	o.PriorityCodes = normalizeCodes(o.PriorityCodes)

	if o.IsManual() {
		for _, k := range o.Manual {
			if err := errors.ValidateManualItemCode(k.ItemCode); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidManualSequence, err, "manual entry %s", k)
			}
		}
		if len(o.PriorityCodes) > 0 || o.LayerMode != segment.None {
			o.Logger.Debug("manual sequence given; ignoring priority codes and layer mode",
				"priority", len(o.PriorityCodes), "layer_mode", o.LayerMode)
		}
	}

	if o.Solver == nil {
		o.Solver = &solver.Search{
			Timeout:  o.Timeout,
			Exact:    q == solver.QualityOptimal,
			Progress: o.Progress,
		}
	}

	o.validated = true
	return nil
}

// IsManual reports whether the run is in manual mode.
func (o *Options) IsManual() bool { return o.Manual != nil }

// Mode returns ModeManual or ModeOptimized.
func (o *Options) Mode() string {
	if o.IsManual() {
		return ModeManual
	}
	return ModeOptimized
}

// SequenceKeyOpts returns cache key options for the run.
func (o *Options) SequenceKeyOpts() cache.SequenceKeyOpts {
	opts := cache.SequenceKeyOpts{Quality: o.Quality, Timeout: o.Timeout}
	if o.IsManual() {
		opts.Manual = make([]string, len(o.Manual))
		for i, k := range o.Manual {
			opts.Manual[i] = k.String()
		}
		return opts
	}
	opts.Priority = slices.Sorted(slices.Values(o.PriorityCodes))
	opts.LayerMode = string(o.LayerMode)
	return opts
}

// normalizeCodes trims codes and drops empty and repeated entries while
// keeping first-seen order.
func normalizeCodes(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	out := make([]string, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
