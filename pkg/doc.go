// Package pkg provides the core libraries for Changeover production sequencing.
//
// # Overview
//
// Changeover orders SMT production jobs so that consecutive jobs share as
// many component materials as possible. Every material that is not shared
// between two jobs is a feeder changeover; the sequence with the fewest
// changeovers wins. The pkg directory is organized into three areas:
//
//  1. Domain - [material] sets and costs, [job] records, the [solver],
//     [segment] layer grouping and the [report] annotations
//  2. Orchestration - [pipeline] runs the tiers and caches outcomes
//  3. Infrastructure - [cache], [store], [io], [render], [api],
//     [observability] and [errors]
//
// # Architecture
//
// The typical data flow through Changeover:
//
//	BOM analysis + schedule + common materials
//	         ↓
//	    [io] package (read CSV exports)
//	         ↓
//	    [job] package (purge commons, join schedule)
//	         ↓
//	    [pipeline] package (priority tier, remaining tier, or manual order)
//	         ↓         ↘
//	    [segment]       [solver] (open-path ATSP per group)
//	         ↓
//	    [report] package (per-row shared counts and reasons)
//	         ↓
//	    CSV/JSON/DOT/SVG output, [store] run history
//
// # Quick Start
//
// Sequence jobs from files and write the CSV report:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/changeover/pkg/io"
//	    "github.com/matzehuels/changeover/pkg/job"
//	    "github.com/matzehuels/changeover/pkg/pipeline"
//	    "github.com/matzehuels/changeover/pkg/segment"
//	)
//
//	// 1. Read inputs
//	rows, _ := io.ImportAnalysis("analysis.csv")
//	sched, _, _ := io.ImportSchedule("schedule.csv")
//	commons, _ := io.ImportCommonMaterials("common.csv")
//	jobs, _ := job.Build(rows, sched, commons)
//
//	// 2. Sequence
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, err := runner.Execute(context.Background(), jobs, pipeline.Options{
//	    PriorityCodes: []string{"EP94-04976A"},
//	    LayerMode:     segment.TB,
//	})
//
//	// 3. Write the report
//	_ = io.ExportCSV(res.Rows, "sequence.csv")
//
// # Concurrency
//
// Runners, caches and stores are safe for concurrent use; the API server
// shares one of each across requests. Solver progress callbacks run on the
// goroutine that called Execute.
package pkg
