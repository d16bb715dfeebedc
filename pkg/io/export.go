package io

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/matzehuels/changeover/pkg/errors"
	"github.com/matzehuels/changeover/pkg/job"
	"github.com/matzehuels/changeover/pkg/pipeline"
	"github.com/matzehuels/changeover/pkg/report"
)

var csvHeader = []string{
	"Index", colItemCode, colLayer, colQty, colProdTime,
	"Total_Count", colCommonCount, "Individual_Count",
	"Transition_Shared_Count", "Selection_Reason",
}

// WriteCSV writes rows as a CSV report prefixed with a UTF-8 byte order
// mark. Missing quantities and times are written as empty cells.
func WriteCSV(rows []report.Row, w io.Writer) error {
	if _, err := w.Write(bom); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.Index),
			r.ItemCode,
			string(r.Layer),
			"",
			"",
			strconv.Itoa(r.TotalCount),
			strconv.Itoa(r.CommonCount),
			strconv.Itoa(r.IndividualCount),
			strconv.Itoa(r.TransitionSharedCount),
			r.SelectionReason,
		}
		if r.Qty != nil {
			rec[3] = strconv.Itoa(*r.Qty)
		}
		if r.ProdTime != nil {
			rec[4] = strconv.FormatFloat(*r.ProdTime, 'f', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV writes a CSV report to path.
func ExportCSV(rows []report.Row, path string) error {
	return createFile(path, func(w io.Writer) error { return WriteCSV(rows, w) })
}

// Report is the JSON form of a finished run.
type Report struct {
	RunID    string               `json:"run_id,omitempty"`
	Mode     string               `json:"mode"`
	Rows     []report.Row         `json:"rows"`
	Warnings []job.Warning        `json:"warnings,omitempty"`
	Summary  report.Summary       `json:"summary"`
	Solves   []pipeline.SolveStat `json:"solves,omitempty"`
	Stats    *pipeline.Stats      `json:"stats,omitempty"`
}

// NewReport builds the report for a runner result.
func NewReport(res *pipeline.Result) Report {
	stats := res.Stats
	return Report{
		RunID:    res.RunID,
		Mode:     res.Mode,
		Rows:     res.Rows,
		Warnings: res.Warnings,
		Summary:  report.Summarize(res.Rows),
		Solves:   res.Solves,
		Stats:    &stats,
	}
}

// WriteJSON writes rep as indented JSON.
func WriteJSON(rep Report, w io.Writer) error {
	if rep.Rows == nil {
		rep.Rows = []report.Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a JSON report to path.
func ExportJSON(rep Report, path string) error {
	return createFile(path, func(w io.Writer) error { return WriteJSON(rep, w) })
}

// ReadReport decodes a report written by [WriteJSON].
func ReadReport(r io.Reader) (*Report, error) {
	var rep Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode report")
	}
	return &rep, nil
}

// ImportReport reads a JSON report file.
func ImportReport(path string) (*Report, error) {
	var rep *Report
	err := withFile(path, func(r io.Reader) (err error) {
		rep, err = ReadReport(r)
		return err
	})
	return rep, err
}

func createFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
