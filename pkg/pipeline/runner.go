package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/changeover/pkg/cache"
	"github.com/matzehuels/changeover/pkg/job"
	"github.com/matzehuels/changeover/pkg/observability"
	"github.com/matzehuels/changeover/pkg/report"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store run results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// cachedOutcome is the cache representation of an Outcome. Tiers are not
// part of job.Job's JSON form, so they are stored alongside each job.
type cachedOutcome struct {
	Mode     string        `json:"mode"`
	Sequence []cachedJob   `json:"sequence"`
	Warnings []job.Warning `json:"warnings,omitempty"`
	Solves   []SolveStat   `json:"solves,omitempty"`
}

type cachedJob struct {
	job.Job
	Tier job.Tier `json:"tier"`
}

// Execute runs the tier pipeline and annotates the sequence.
//
// On a fatal run condition Execute returns the error together with a Result
// holding the run ID and the warnings gathered before the failure.
func (r *Runner) Execute(ctx context.Context, jobs []job.Job, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		RunID: uuid.NewString(),
		Mode:  opts.Mode(),
	}
	result.Stats.InputJobs = len(jobs)

	hooks := observability.Pipeline()
	hooks.OnRunStart(ctx, result.Mode, len(jobs))

	// Stage 1: Sequence
	solveStart := time.Now()
	out, hit, err := r.SequenceWithCacheInfo(ctx, jobs, opts)
	result.Stats.SolveTime = time.Since(solveStart)
	result.Warnings = out.Warnings
	if err != nil {
		hooks.OnRunComplete(ctx, result.Mode, 0, result.Stats.SolveTime, err)
		return result, err
	}
	result.Sequence = out.Sequence
	result.Solves = out.Solves
	result.CacheHit = hit

	r.Logger.Info("sequenced jobs",
		"mode", result.Mode,
		"jobs", len(out.Sequence),
		"cached", hit,
		"duration", result.Stats.SolveTime)

	// Stage 2: Report
	reportStart := time.Now()
	result.Rows = report.Annotate(out.Sequence)
	result.Stats.ReportTime = time.Since(reportStart)

	r.fillStats(result)
	hooks.OnRunComplete(ctx, result.Mode, len(result.Sequence), time.Since(solveStart), nil)
	return result, nil
}

// SequenceWithCacheInfo runs the pipeline with caching and returns cache hit info.
// Fatal run errors are never cached.
func (r *Runner) SequenceWithCacheInfo(ctx context.Context, jobs []job.Job, opts Options) (Outcome, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return Outcome{}, false, err
	}

	jobsHash, err := cache.HashJSON(jobs)
	if err != nil {
		return Outcome{}, false, fmt.Errorf("serialize jobs for cache key: %w", err)
	}
	cacheKey := r.Keyer.SequenceKey(jobsHash, opts.SequenceKeyOpts())
	cacheHooks := observability.Cache()

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if out, err := decodeOutcome(data); err == nil {
				cacheHooks.OnCacheHit(ctx, "sequence")
				return out, true, nil
			}
			// If deserialization fails, fall through to recompute
		} else if err != nil {
			r.Logger.Debug("cache read failed", "error", err)
		}
		cacheHooks.OnCacheMiss(ctx, "sequence")
	}

	out, err := Run(ctx, jobs, opts)
	if err != nil {
		return out, false, err
	}

	if data, err := encodeOutcome(out); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLSequence); err != nil {
			r.Logger.Debug("cache write failed", "error", err)
		} else {
			cacheHooks.OnCacheSet(ctx, "sequence", len(data))
		}
	}
	return out, false, nil
}

// ArtifactWithCacheInfo returns the artifact of rows in format, calling build
// only on a cache miss. Artifacts are keyed by the report content, so any
// run that produces the same rows reuses them.
func (r *Runner) ArtifactWithCacheInfo(ctx context.Context, rows []report.Row, format string, build func() ([]byte, error)) ([]byte, bool, error) {
	rowsHash, err := cache.HashJSON(rows)
	if err != nil {
		return nil, false, fmt.Errorf("serialize rows for cache key: %w", err)
	}
	cacheKey := r.Keyer.ArtifactKey(rowsHash, format)
	cacheHooks := observability.Cache()

	if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
		cacheHooks.OnCacheHit(ctx, "artifact")
		return data, true, nil
	} else if err != nil {
		r.Logger.Debug("cache read failed", "error", err)
	}
	cacheHooks.OnCacheMiss(ctx, "artifact")

	data, err := build()
	if err != nil {
		return nil, false, err
	}
	if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err != nil {
		r.Logger.Debug("cache write failed", "error", err)
	} else {
		cacheHooks.OnCacheSet(ctx, "artifact", len(data))
	}
	return data, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func (r *Runner) fillStats(res *Result) {
	s := &res.Stats
	s.Sequenced = len(res.Sequence)
	for _, j := range res.Sequence {
		switch j.Tier {
		case job.TierManual:
			s.ManualJobs++
		case job.TierPriority:
			s.PriorityJobs++
		default:
			s.RemainingJobs++
		}
	}
	s.TotalCost = report.TotalCost(res.Sequence)
	for _, st := range res.Solves {
		if st.TimedOut {
			s.TimedOut++
		}
	}
}

func encodeOutcome(out Outcome) ([]byte, error) {
	c := cachedOutcome{Mode: out.Mode, Warnings: out.Warnings, Solves: out.Solves}
	c.Sequence = make([]cachedJob, len(out.Sequence))
	for i, j := range out.Sequence {
		c.Sequence[i] = cachedJob{Job: j, Tier: j.Tier}
	}
	return json.Marshal(c)
}

func decodeOutcome(data []byte) (Outcome, error) {
	var c cachedOutcome
	if err := json.Unmarshal(data, &c); err != nil {
		return Outcome{}, err
	}
	out := Outcome{Mode: c.Mode, Warnings: c.Warnings, Solves: c.Solves}
	out.Sequence = make([]job.Job, len(c.Sequence))
	for i, cj := range c.Sequence {
		out.Sequence[i] = cj.Job.WithTier(cj.Tier)
	}
	return out, nil
}
