package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/changeover/pkg/buildinfo"
	"github.com/matzehuels/changeover/pkg/errors"
	"github.com/matzehuels/changeover/pkg/job"
	"github.com/matzehuels/changeover/pkg/material"
	"github.com/matzehuels/changeover/pkg/observability"
	"github.com/matzehuels/changeover/pkg/pipeline"
	"github.com/matzehuels/changeover/pkg/report"
	"github.com/matzehuels/changeover/pkg/segment"
	"github.com/matzehuels/changeover/pkg/store"
)

// JobInput is one job in a [SequenceRequest].
type JobInput struct {
	ItemCode            string   `json:"item_code"`
	Layer               string   `json:"layer"`
	Qty                 *int     `json:"qty,omitempty"`
	ProdTime            *float64 `json:"prod_time,omitempty"`
	CommonCount         int      `json:"common_count"`
	IndividualMaterials []string `json:"individual_materials"`
}

// SequenceRequest is the body of POST /v1/sequence.
type SequenceRequest struct {
	Jobs []JobInput `json:"jobs"`

	// CommonMaterials are purged from every job's individual materials.
	CommonMaterials []string `json:"common_materials,omitempty"`

	Priority  []string `json:"priority,omitempty"`
	LayerMode string   `json:"layer_mode,omitempty"`

	// Manual switches to manual mode when present, even if empty.
	Manual []job.Key `json:"manual,omitempty"`

	Quality   string `json:"quality,omitempty"`
	TimeoutMS int    `json:"timeout_ms,omitempty"`

	// Refresh bypasses the sequence cache.
	Refresh bool `json:"refresh,omitempty"`
}

// SequenceResponse is the answer to a successful sequencing request.
type SequenceResponse struct {
	RunID    string               `json:"run_id"`
	Mode     string               `json:"mode"`
	Rows     []report.Row         `json:"rows"`
	Warnings []job.Warning        `json:"warnings"`
	Summary  report.Summary       `json:"summary"`
	Solves   []pipeline.SolveStat `json:"solves,omitempty"`
	Stats    pipeline.Stats       `json:"stats"`
	CacheHit bool                 `json:"cache_hit"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error    ErrorBody     `json:"error"`
	RunID    string        `json:"run_id,omitempty"`
	Warnings []job.Warning `json:"warnings,omitempty"`
}

// RunList is the body of GET /v1/runs.
type RunList struct {
	Runs []RunSummary `json:"runs"`
}

// RunSummary is a stored run without its rows.
type RunSummary struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Source    string         `json:"source,omitempty"`
	Mode      string         `json:"mode"`
	Summary   report.Summary `json:"summary"`
	Warnings  int            `json:"warnings"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Get()})
}

func (s *Server) sequence(w http.ResponseWriter, r *http.Request) {
	var req SequenceRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err, "", nil)
		return
	}
	jobs, opts, err := s.buildRun(&req)
	if err != nil {
		s.writeError(w, r, err, "", nil)
		return
	}
	opts.Logger = s.logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, r, err, "", nil)
		return
	}

	res, err := s.runner.Execute(r.Context(), jobs, opts)
	if err != nil {
		var runID string
		var warnings []job.Warning
		if res != nil {
			runID, warnings = res.RunID, res.Warnings
		}
		s.writeError(w, r, err, runID, warnings)
		return
	}

	if err := s.store.Save(r.Context(), store.NewRun(res, opts, store.SourceAPI)); err != nil {
		s.logger.Warn("failed to record run", "run_id", res.RunID, "error", err)
	}

	resp := SequenceResponse{
		RunID:    res.RunID,
		Mode:     res.Mode,
		Rows:     res.Rows,
		Warnings: res.Warnings,
		Summary:  report.Summarize(res.Rows),
		Solves:   res.Solves,
		Stats:    res.Stats,
		CacheHit: res.CacheHit,
	}
	if resp.Warnings == nil {
		resp.Warnings = []job.Warning{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// buildRun validates req and turns it into jobs and options.
func (s *Server) buildRun(req *SequenceRequest) ([]job.Job, pipeline.Options, error) {
	var opts pipeline.Options
	if len(req.Jobs) > s.maxJobs {
		return nil, opts, errors.New(errors.ErrCodeInvalidInput, "too many jobs: %d (max %d)", len(req.Jobs), s.maxJobs)
	}

	rows := make([]job.Job, len(req.Jobs))
	for i, in := range req.Jobs {
		if err := errors.ValidateItemCode(in.ItemCode); err != nil {
			return nil, opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "jobs[%d]", i)
		}
		for _, id := range in.IndividualMaterials {
			if err := errors.ValidateMaterialID(id); err != nil {
				return nil, opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "jobs[%d]", i)
			}
		}
		if in.CommonCount < 0 {
			return nil, opts, errors.New(errors.ErrCodeInvalidInput, "jobs[%d]: common_count must not be negative", i)
		}
		rows[i] = job.Job{
			ItemCode:    in.ItemCode,
			Layer:       job.ParseLayer(in.Layer),
			Qty:         in.Qty,
			ProdTime:    in.ProdTime,
			CommonCount: in.CommonCount,
			Individual:  material.NewSet(in.IndividualMaterials...),
		}
	}
	jobs, _ := job.Build(rows, nil, material.NewSet(req.CommonMaterials...))

	mode, err := segment.ParseLayerMode(req.LayerMode)
	if err != nil {
		return nil, opts, err
	}
	if req.TimeoutMS < 0 {
		return nil, opts, errors.New(errors.ErrCodeInvalidInput, "timeout_ms must not be negative")
	}
	manual := req.Manual
	for i, k := range manual {
		manual[i].Layer = job.ParseLayer(string(k.Layer))
	}

	opts = pipeline.Options{
		PriorityCodes: req.Priority,
		LayerMode:     mode,
		Manual:        manual,
		Quality:       req.Quality,
		Timeout:       time.Duration(req.TimeoutMS) * time.Millisecond,
		Refresh:       req.Refresh,
	}
	return jobs, opts, nil
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err, "", nil)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "bad limit %q", q), "", nil)
			return
		}
		limit = n
	}
	runs, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err, "", nil)
		return
	}
	out := RunList{Runs: make([]RunSummary, len(runs))}
	for i, run := range runs {
		out.Runs[i] = RunSummary{
			ID:        run.ID,
			CreatedAt: run.CreatedAt,
			Source:    run.Source,
			Mode:      run.Mode,
			Summary:   run.Summary,
			Warnings:  len(run.Warnings),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// decode reads a JSON body, rejecting unknown fields and oversized bodies.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, obj any) error {
	if r.Body == nil {
		return errors.New(errors.ErrCodeInvalidInput, "no body")
	}
	d := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	d.DisallowUnknownFields()
	if err := d.Decode(obj); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "bad json")
	}
	return nil
}

// statusFor returns the HTTP status for err.
func statusFor(err error) int {
	switch {
	case errors.IsInvalid(err):
		return http.StatusBadRequest
	case errors.IsFatalRun(err):
		return http.StatusUnprocessableEntity
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeRunNotFound, errors.ErrCodeNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, runID string, warnings []job.Warning) {
	status := statusFor(err)
	code := errors.GetCode(err)
	msg := errors.UserMessage(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)
	writeJSON(w, status, ErrorResponse{
		Error:    ErrorBody{Code: code, Message: msg},
		RunID:    runID,
		Warnings: warnings,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Fprintf(w, `{"error":{"code":%q,"message":"encode response"}}`, errors.ErrCodeInternal)
	}
}
