// Package store keeps a history of finished sequencing runs.
//
// Implementations for different backends:
//   - [Memory]: in-process storage, the default for the API server
//   - [FileStore]: one JSON file per run, used by the CLI's --record flag
//   - [Mongo]: MongoDB collection for shared deployments
//
// Runs are immutable records: once saved they are only read back.
//
//	st := store.NewMemory()
//	run := store.NewRun(result, opts, store.SourceAPI)
//	if err := st.Save(ctx, run); err != nil {
//	    return err
//	}
//	again, err := st.Get(ctx, run.ID)
package store

import (
	"context"
	"time"

	"github.com/matzehuels/changeover/pkg/job"
	"github.com/matzehuels/changeover/pkg/pipeline"
	"github.com/matzehuels/changeover/pkg/report"
)

// Run sources.
const (
	SourceCLI = "cli"
	SourceAPI = "api"
)

// DefaultListLimit bounds List when the caller passes a non-positive limit.
const DefaultListLimit = 50

// Controls records the run controls a sequence was produced with.
type Controls struct {
	PriorityCodes []string      `json:"priority,omitempty" bson:"priority,omitempty"`
	LayerMode     string        `json:"layer_mode,omitempty" bson:"layer_mode,omitempty"`
	Manual        []job.Key     `json:"manual,omitempty" bson:"manual,omitempty"`
	Quality       string        `json:"quality" bson:"quality"`
	Timeout       time.Duration `json:"timeout" bson:"timeout"`
}

// Run is one stored sequencing run.
type Run struct {
	ID        string         `json:"id" bson:"_id"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
	Source    string         `json:"source,omitempty" bson:"source,omitempty"`
	Mode      string         `json:"mode" bson:"mode"`
	Controls  Controls       `json:"controls" bson:"controls"`
	Rows      []report.Row   `json:"rows" bson:"rows"`
	Warnings  []job.Warning  `json:"warnings,omitempty" bson:"warnings,omitempty"`
	Summary   report.Summary `json:"summary" bson:"summary"`
	Stats     pipeline.Stats `json:"stats" bson:"stats"`
}

// NewRun builds the record for a runner result. opts must be the options
// the result was produced with.
func NewRun(res *pipeline.Result, opts pipeline.Options, source string) *Run {
	r := &Run{
		ID:        res.RunID,
		CreatedAt: time.Now().UTC(),
		Source:    source,
		Mode:      res.Mode,
		Controls: Controls{
			Quality: opts.Quality,
			Timeout: opts.Timeout,
		},
		Rows:     res.Rows,
		Warnings: res.Warnings,
		Summary:  report.Summarize(res.Rows),
		Stats:    res.Stats,
	}
	if opts.IsManual() {
		r.Controls.Manual = opts.Manual
	} else {
		r.Controls.PriorityCodes = opts.PriorityCodes
		r.Controls.LayerMode = string(opts.LayerMode)
	}
	return r
}

// Store is the interface for run history backends.
type Store interface {
	// Save stores run, replacing any run with the same ID.
	Save(ctx context.Context, run *Run) error

	// Get retrieves a run by ID. A missing run is a RUN_NOT_FOUND error.
	Get(ctx context.Context, id string) (*Run, error)

	// List returns up to limit runs, newest first.
	List(ctx context.Context, limit int) ([]*Run, error)

	// Close releases backend resources.
	Close() error
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
