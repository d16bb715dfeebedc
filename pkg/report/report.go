// Package report explains a production sequence row by row.
//
// [Annotate] turns an ordered job list into report rows carrying the
// material counts of each job, the number of individual materials it shares
// with its predecessor, and a short reason for its position.
package report

import (
	"fmt"

	"github.com/matzehuels/changeover/pkg/job"
	"github.com/matzehuels/changeover/pkg/material"
)

// Reasons used for the first row of a sequence.
const (
	ReasonManualStart    = "manual override"
	ReasonPriorityStart  = "priority request"
	ReasonOptimizedStart = "selected as optimal starting point to minimize total changeover cost"
)

// Row is one line of the sequence report.
type Row struct {
	Index                 int       `json:"index"`
	ItemCode              string    `json:"item_code"`
	Layer                 job.Layer `json:"layer"`
	Qty                   *int      `json:"qty,omitempty"`
	ProdTime              *float64  `json:"prod_time,omitempty"`
	TotalCount            int       `json:"total_count"`
	CommonCount           int       `json:"common_count"`
	IndividualCount       int       `json:"individual_count"`
	TransitionSharedCount int       `json:"transition_shared_count"`
	SelectionReason       string    `json:"selection_reason"`
	Tier                  job.Tier  `json:"tier"`

	// Changeover is the material changeover cost from the previous row.
	// It is zero for the first row.
	Changeover int `json:"changeover"`
}

// Annotate builds the report for seq. It does not modify seq; empty input
// yields an empty report.
func Annotate(seq []job.Job) []Row {
	rows := make([]Row, len(seq))
	for k, j := range seq {
		row := Row{
			Index:           k + 1,
			ItemCode:        j.ItemCode,
			Layer:           j.Layer,
			Qty:             j.Qty,
			ProdTime:        j.ProdTime,
			TotalCount:      j.TotalCount(),
			CommonCount:     j.CommonCount,
			IndividualCount: j.IndividualCount(),
			Tier:            j.Tier,
		}
		if k == 0 {
			row.SelectionReason = startReason(j.Tier)
		} else {
			prev := seq[k-1]
			row.TransitionSharedCount = material.Shared(prev.Individual, j.Individual)
			row.Changeover = material.Cost(prev.Individual, j.Individual)
			row.SelectionReason = transitionReason(j, prev.ItemCode, row.TransitionSharedCount)
		}
		rows[k] = row
	}
	return rows
}

func startReason(t job.Tier) string {
	switch t {
	case job.TierManual:
		return ReasonManualStart
	case job.TierPriority:
		return ReasonPriorityStart
	default:
		return ReasonOptimizedStart
	}
}

func transitionReason(j job.Job, prevItem string, shared int) string {
	switch j.Tier {
	case job.TierManual:
		return fmt.Sprintf("manual sequence; shares %d individual materials with previous item %s", shared, prevItem)
	case job.TierPriority:
		return fmt.Sprintf("priority request; shares %d individual materials with previous item %s", shared, prevItem)
	default:
		return fmt.Sprintf("shares %d individual materials with previous item %s for changeover efficiency (total %d materials, %d common)",
			shared, prevItem, j.TotalCount(), j.CommonCount)
	}
}

// TotalCost returns the summed changeover cost between consecutive jobs.
func TotalCost(seq []job.Job) int {
	total := 0
	for k := 1; k < len(seq); k++ {
		total += material.Cost(seq[k-1].Individual, seq[k].Individual)
	}
	return total
}

// Summary aggregates a report.
type Summary struct {
	Jobs        int            `json:"jobs"`
	TotalCost   int            `json:"total_cost"`
	TotalShared int            `json:"total_shared"`
	ByTier      map[string]int `json:"by_tier"`
}

// Summarize aggregates rows.
func Summarize(rows []Row) Summary {
	s := Summary{Jobs: len(rows), ByTier: make(map[string]int)}
	for _, r := range rows {
		s.TotalCost += r.Changeover
		s.TotalShared += r.TransitionSharedCount
		s.ByTier[r.Tier.String()]++
	}
	return s
}
