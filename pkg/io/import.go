package io

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/changeover/pkg/errors"
	"github.com/matzehuels/changeover/pkg/job"
	"github.com/matzehuels/changeover/pkg/material"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// Column names.
const (
	colItemCode     = "Item_Code"
	colLayer        = "Layer"
	colCommonCount  = "Common_Count"
	colIndividual   = "Individual_Materials"
	colScheduleSide = "T_B"
	colQty          = "Qty"
	colProdTime     = "Prod_Time"
)

// newCSVReader strips a leading byte order mark and returns a lenient reader:
// rows may differ in length and fields are trimmed.
func newCSVReader(r io.Reader) *csv.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(bom)); err == nil && bytes.Equal(head, bom) {
		br.Discard(len(bom))
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	return cr
}

// header maps column names to indices.
type header map[string]int

func readHeader(cr *csv.Reader) (header, error) {
	rec, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	h := make(header, len(rec))
	for i, name := range rec {
		h[strings.TrimSpace(name)] = i
	}
	return h, nil
}

func (h header) require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := h[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return errors.New(errors.ErrCodeInvalidFormat, "missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// get returns the trimmed field for column name, or "" when the row is short
// or the column is absent.
func (h header) get(rec []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// =============================================================================
// BOM analysis
// =============================================================================

// ReadAnalysis decodes BOM analysis rows into jobs. Individual materials are
// parsed as a set; the Individual_Count column is ignored because it is
// derived from the set. Rows with an empty item code are skipped.
//
// The jobs still need [job.Build] to purge common materials and join the
// schedule.
func ReadAnalysis(r io.Reader) ([]job.Job, error) {
	cr := newCSVReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	if err := h.require(colItemCode, colLayer, colIndividual); err != nil {
		return nil, err
	}

	var jobs []job.Job
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		code := h.get(rec, colItemCode)
		if code == "" {
			continue
		}
		if err := errors.ValidateItemCode(code); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		j := job.Job{
			ItemCode:   code,
			Layer:      job.ParseLayer(h.get(rec, colLayer)),
			Individual: material.Parse(h.get(rec, colIndividual)),
		}
		if s := h.get(rec, colCommonCount); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				return nil, errors.New(errors.ErrCodeInvalidFormat, "line %d: invalid %s %q", line, colCommonCount, s)
			}
			j.CommonCount = n
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// ImportAnalysis reads a BOM analysis file.
func ImportAnalysis(path string) ([]job.Job, error) {
	var jobs []job.Job
	err := withFile(path, func(r io.Reader) (err error) {
		jobs, err = ReadAnalysis(r)
		return err
	})
	return jobs, err
}

// =============================================================================
// Schedule
// =============================================================================

// ReadSchedule decodes an item schedule. Rows with a T_B value other than T
// or B, short rows and rows with unparsable numbers are skipped; the number
// of skipped rows is returned alongside the schedule. A later row for the
// same key replaces an earlier one.
func ReadSchedule(r io.Reader) (job.Schedule, int, error) {
	cr := newCSVReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, 0, err
	}
	if err := h.require(colItemCode, colScheduleSide, colQty, colProdTime); err != nil {
		return nil, 0, err
	}
	need := max(h[colItemCode], h[colScheduleSide], h[colQty], h[colProdTime])

	sched := make(job.Schedule)
	skipped := 0
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) <= need {
			skipped++
			continue
		}

		var layer job.Layer
		switch strings.ToUpper(h.get(rec, colScheduleSide)) {
		case "T":
			layer = job.LayerTop
		case "B":
			layer = job.LayerBottom
		default:
			skipped++
			continue
		}
		code := h.get(rec, colItemCode)
		qty, qerr := strconv.Atoi(h.get(rec, colQty))
		t, terr := strconv.ParseFloat(h.get(rec, colProdTime), 64)
		if code == "" || qerr != nil || terr != nil {
			skipped++
			continue
		}
		sched[job.Key{ItemCode: code, Layer: layer}] = job.ScheduleEntry{Qty: qty, ProdTime: t}
	}
	return sched, skipped, nil
}

// ImportSchedule reads an item schedule file.
func ImportSchedule(path string) (job.Schedule, int, error) {
	var (
		sched   job.Schedule
		skipped int
	)
	err := withFile(path, func(r io.Reader) (err error) {
		sched, skipped, err = ReadSchedule(r)
		return err
	})
	return sched, skipped, err
}

// =============================================================================
// Common materials
// =============================================================================

var commonHeaders = map[string]bool{
	"material_code":        true,
	"common_material_code": true,
	"material":             true,
}

// ReadCommonMaterials reads the first column of every row as a material
// identifier. A header row naming the column is skipped.
func ReadCommonMaterials(r io.Reader) (material.Set, error) {
	cr := newCSVReader(r)
	var ids []string
	for first := true; ; first = false {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return material.Set{}, err
		}
		if len(rec) == 0 {
			continue
		}
		id := strings.TrimSpace(rec[0])
		if first && commonHeaders[strings.ToLower(id)] {
			continue
		}
		ids = append(ids, id)
	}
	return material.NewSet(ids...), nil
}

// ImportCommonMaterials reads a common-material file.
func ImportCommonMaterials(path string) (material.Set, error) {
	var set material.Set
	err := withFile(path, func(r io.Reader) (err error) {
		set, err = ReadCommonMaterials(r)
		return err
	})
	return set, err
}

func withFile(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "%s", path)
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if err := fn(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
