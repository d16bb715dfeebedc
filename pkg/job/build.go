package job

import "github.com/matzehuels/changeover/pkg/material"

// ScheduleEntry is the quantity and production time the schedule calculator
// reports for one (item, layer) pair. ProdTime is in minutes.
type ScheduleEntry struct {
	Qty      int
	ProdTime float64
}

// Schedule maps job keys to their planned quantity and time.
type Schedule map[Key]ScheduleEntry

// BuildStats summarizes what [Build] changed.
type BuildStats struct {
	Jobs        int // jobs produced
	Scheduled   int // jobs that matched a schedule row
	PurgedTotal int // individual materials reclassified as common
}

// Build prepares raw analysis rows for sequencing.
//
// Every common identifier is removed from the individual sets; each removed
// identifier is counted towards the job's CommonCount. Qty and ProdTime are
// joined from schedule by key and left nil when no row matches. A nil
// schedule keeps whatever Qty and ProdTime the rows already carry.
//
// rows is not modified.
func Build(rows []Job, schedule Schedule, commons material.Set) ([]Job, BuildStats) {
	out := make([]Job, len(rows))
	stats := BuildStats{Jobs: len(rows)}

	for i, r := range rows {
		j := r
		purged := material.Purge(r.Individual, commons)
		if removed := r.Individual.Len() - purged.Len(); removed > 0 {
			j.CommonCount += removed
			stats.PurgedTotal += removed
		}
		j.Individual = purged

		if schedule != nil {
			j.Qty, j.ProdTime = nil, nil
			if e, ok := schedule[r.Key()]; ok {
				qty, t := e.Qty, e.ProdTime
				j.Qty, j.ProdTime = &qty, &t
			}
		}
		if j.Qty != nil {
			stats.Scheduled++
		}
		out[i] = j
	}
	return out, stats
}
