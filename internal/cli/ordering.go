package cli

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/changeover/pkg/solver"
)

// heartbeat is the minimum gap between "still searching" log lines.
const heartbeat = 10 * time.Second

// solveLogger turns solver progress callbacks into log lines: the initial
// construction, each improvement, periodic heartbeats during long searches,
// and the final cost of every group.
//
// The solver calls it from the goroutine running Solve, and groups are
// solved one after another, so it needs no locking.
type solveLogger struct {
	logger  *log.Logger
	timeout time.Duration

	start, lastLog time.Time
	initial, best  int
	groups         int
}

func newSolveLogger(l *log.Logger) *solveLogger {
	return &solveLogger{logger: l}
}

// onProgress is passed as [pipeline.Options.Progress].
func (s *solveLogger) onProgress(p solver.Progress) {
	switch p.Phase {
	case solver.PhaseConstruct:
		s.start, s.lastLog = time.Now(), time.Now()
		s.initial, s.best = p.Cost, p.Cost
		s.groups++
		s.logger.Debugf("Group %d: %d jobs, initial cost %d", s.groups, p.Jobs, p.Cost)
	case solver.PhaseImprove:
		if time.Since(s.lastLog) >= heartbeat {
			elapsed := time.Since(s.start).Truncate(time.Second)
			s.logger.Infof("Searching... %v/%v elapsed, cost %d (%d moves)", elapsed, s.timeout, p.Cost, p.Moves)
			s.lastLog = time.Now()
		} else if p.Cost < s.best {
			s.logger.Debugf("Improved: cost %d (↓%d)", p.Cost, s.best-p.Cost)
		}
		s.best = min(s.best, p.Cost)
	case solver.PhaseExact:
		s.logger.Debugf("Exact search: cost %d", p.Cost)
	case solver.PhaseDone:
		if p.Jobs > 1 {
			s.logger.Debugf("Group %d done: cost %d (initial %d, %d moves, %s)",
				s.groups, p.Cost, s.initial, p.Moves, time.Since(s.start).Round(time.Millisecond))
		}
	}
}
