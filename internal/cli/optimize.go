package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/changeover/pkg/job"
	"github.com/matzehuels/changeover/pkg/material"
	"github.com/matzehuels/changeover/pkg/pipeline"
	"github.com/matzehuels/changeover/pkg/render"
	"github.com/matzehuels/changeover/pkg/solver"
	"github.com/matzehuels/changeover/pkg/store"

	chio "github.com/matzehuels/changeover/pkg/io"
)

// optimizeOpts holds the command-line flags for the optimize command.
type optimizeOpts struct {
	analysis string // BOM analysis CSV (required)
	schedule string // item schedule CSV
	common   string // common material list
	plan     string // YAML run plan

	priority string // comma-separated priority item codes
	layer    string // layer mode: TB or BT
	manual   string // manual sequence "(item,layer), ..."
	quality  string // fast, balanced or optimal
	timeout  time.Duration

	output   string // output file (single format) or base path
	formats  string // comma-separated output formats
	detailed bool   // detailed diagram labels

	cache   bool // use the configured sequence cache
	refresh bool // recompute even on a cache hit
	record  bool // save the run to the history store
}

// optimizeCommand creates the optimize command.
func (c *CLI) optimizeCommand() *cobra.Command {
	var opts optimizeOpts

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Sequence production jobs to minimize material changeover",
		Long: `Sequence production jobs to minimize material changeover.

Jobs are read from a BOM analysis export and optionally joined with an item
schedule (quantity and production time). Materials listed in the common file
are treated as shared by every job and excluded from changeover cost.

Priority items are sequenced first, the remaining jobs follow. A manual
sequence replaces optimization entirely.`,
		Example: `  changeover optimize --analysis bom.csv --schedule schedule.csv --common common.csv
  changeover optimize --analysis bom.csv --priority EP94-04976A --layer TB -f csv,svg
  changeover optimize --analysis bom.csv --manual "(EP94-04976A,Top),(EP94-04820A,Bottom)"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOptimize(cmd.Context(), opts, cmd.Flags().Changed("manual"))
		},
	}

	cmd.Flags().StringVar(&opts.analysis, "analysis", "", "BOM analysis CSV (required)")
	cmd.Flags().StringVar(&opts.schedule, "schedule", "", "item schedule CSV with Item_Code, T_B, Qty, Prod_Time")
	cmd.Flags().StringVar(&opts.common, "common", "", "common material list, one identifier per row")
	cmd.Flags().StringVar(&opts.plan, "plan", "", "YAML run plan (flags override it)")
	cmd.Flags().StringVar(&opts.priority, "priority", "", "priority item codes (comma-separated)")
	cmd.Flags().StringVar(&opts.layer, "layer", "", "layer order within tiers: TB or BT")
	cmd.Flags().StringVar(&opts.manual, "manual", "", `manual sequence, e.g. "(A,Top),(B,Bottom)"`)
	cmd.Flags().StringVar(&opts.quality, "quality", "", "solver quality: fast, balanced (default), optimal")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "solver time limit per group (default depends on quality)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): csv (default), json, dot, svg, pdf, png")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show material counts in diagrams")
	cmd.Flags().BoolVar(&opts.cache, "cache", false, "use the sequence cache configured in config.toml")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when a cached sequence exists")
	cmd.Flags().BoolVar(&opts.record, "record", false, "save the run to the run history")
	_ = cmd.MarkFlagRequired("analysis")

	return cmd
}

func (c *CLI) runOptimize(ctx context.Context, opts optimizeOpts, manualSet bool) error {
	formats, err := parseFormats(opts.formats)
	if err != nil {
		return err
	}

	jobs, err := c.loadJobs(opts)
	if err != nil {
		return err
	}

	popts, err := buildOptions(opts, c.Config.Solver, manualSet)
	if err != nil {
		return err
	}
	sl := newSolveLogger(c.Logger)
	var spin *solveSpinner
	popts.Logger = c.Logger
	popts.Refresh = opts.refresh
	popts.Progress = func(p solver.Progress) {
		sl.onProgress(p)
		if spin != nil {
			spin.update(p)
		}
	}
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	sl.timeout = popts.Timeout

	runner, err := c.newRunner(ctx, opts.cache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	// Debug output already logs every solver step.
	if c.Logger.GetLevel() > LogDebug {
		spin = newSolveSpinner(ctx, os.Stderr, fmt.Sprintf("Sequencing %d jobs", len(jobs)))
		spin.start()
	}

	res, err := runner.Execute(ctx, jobs, popts)
	switch {
	case spin != nil && err != nil:
		spin.stopWithError("Sequencing failed")
	case spin != nil:
		spin.stopWithSuccess("Sequence ready")
	case err != nil:
		printError("Sequencing failed")
	default:
		printSuccess("Sequence ready")
	}
	if res != nil {
		printWarnings(res.Warnings)
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Sequenced %d jobs in %s mode", len(res.Rows), res.Mode))

	printStats(res)
	if res.Stats.TimedOut > 0 {
		printWarning("%d group(s) hit the time limit; a longer --timeout may lower the cost", res.Stats.TimedOut)
	}

	if err := writeOutputs(ctx, runner, res, formats, opts); err != nil {
		return err
	}

	if opts.record {
		if err := c.recordRun(ctx, res, popts); err != nil {
			return err
		}
	}
	if containsFormat(formats, formatJSON) {
		printNextStep("Browse the report", "changeover view "+outputPath(opts.output, formatJSON, len(formats) > 1))
	}
	return nil
}

// loadJobs reads the analysis, schedule and common files and builds the job
// set.
func (c *CLI) loadJobs(opts optimizeOpts) ([]job.Job, error) {
	rows, err := chio.ImportAnalysis(opts.analysis)
	if err != nil {
		return nil, err
	}
	c.Logger.Debugf("Read %d analysis rows from %s", len(rows), opts.analysis)

	var sched job.Schedule
	if opts.schedule != "" {
		s, skipped, err := chio.ImportSchedule(opts.schedule)
		if err != nil {
			return nil, err
		}
		sched = s
		c.Logger.Debugf("Read %d schedule entries (%d rows skipped)", len(s), skipped)
	}

	var commons material.Set
	if opts.common != "" {
		commons, err = chio.ImportCommonMaterials(opts.common)
		if err != nil {
			return nil, err
		}
		c.Logger.Debugf("Read %d common materials", commons.Len())
	}

	jobs, stats := job.Build(rows, sched, commons)
	c.Logger.Debug("Built jobs", "jobs", stats.Jobs, "scheduled", stats.Scheduled, "purged", stats.PurgedTotal)
	return jobs, nil
}

// buildOptions layers the config file, the plan file and the flags, in
// that order; later sources override earlier ones.
func buildOptions(opts optimizeOpts, cfg SolverConfig, manualSet bool) (pipeline.Options, error) {
	popts := pipeline.Options{Quality: cfg.Quality, Timeout: cfg.Timeout.Duration}
	if opts.plan != "" {
		plan, err := chio.ImportPlan(opts.plan)
		if err != nil {
			return popts, err
		}
		if err := plan.Apply(&popts); err != nil {
			return popts, err
		}
	}

	flags := chio.Plan{
		Priority:  chio.ParsePriority(opts.priority),
		LayerMode: opts.layer,
		Quality:   opts.quality,
		Timeout:   opts.timeout,
	}
	if manualSet {
		keys, err := chio.ParseManual(opts.manual)
		if err != nil {
			return popts, err
		}
		if keys == nil {
			keys = []job.Key{}
		}
		flags.Manual = keys
	}
	if err := flags.Apply(&popts); err != nil {
		return popts, err
	}
	return popts, nil
}

// writeOutputs writes one file per requested format. Rendered diagrams go
// through the runner's artifact cache.
func writeOutputs(ctx context.Context, runner *pipeline.Runner, res *pipeline.Result, formats []string, opts optimizeOpts) error {
	multi := len(formats) > 1
	dot := ""
	for _, f := range formats {
		path := outputPath(opts.output, f, multi)
		var err error
		switch f {
		case formatCSV:
			err = chio.ExportCSV(res.Rows, path)
		case formatJSON:
			err = chio.ExportJSON(chio.NewReport(res), path)
		default:
			if dot == "" {
				dot = render.ToDOT(res.Rows, render.Options{Title: res.Mode + " sequence", Detailed: opts.detailed})
			}
			err = writeDiagram(ctx, runner, res, dot, f, path)
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", f, err)
		}
		printFile(path)
	}
	return nil
}

func writeDiagram(ctx context.Context, runner *pipeline.Runner, res *pipeline.Result, dot, format, path string) error {
	if format == formatDOT {
		return os.WriteFile(path, []byte(dot), 0o644)
	}

	data, cached, err := runner.ArtifactWithCacheInfo(ctx, res.Rows, format, func() ([]byte, error) {
		switch format {
		case formatPDF:
			return render.RenderPDF(ctx, dot)
		case formatPNG:
			return render.RenderPNG(ctx, dot, 2)
		}
		return render.RenderSVG(ctx, dot)
	})
	if err != nil {
		return err
	}
	if cached {
		printDetail("%s from cache", format)
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *CLI) recordRun(ctx context.Context, res *pipeline.Result, opts pipeline.Options) error {
	st, err := c.newStore(ctx)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer st.Close()

	if err := st.Save(ctx, store.NewRun(res, opts, store.SourceCLI)); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	printDetail("Recorded run %s", res.RunID)
	return nil
}

func containsFormat(formats []string, f string) bool {
	for _, x := range formats {
		if x == f {
			return true
		}
	}
	return false
}
