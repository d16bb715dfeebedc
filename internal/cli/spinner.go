package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/matzehuels/changeover/pkg/solver"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// solveSpinner animates a status line while a run is sequencing. Solver
// progress fed through update shows up on the line as the current group,
// its phase, cost and move count.
//
// update is called from the goroutine running the solver and the animation
// runs on its own goroutine, so all state sits behind mu.
type solveSpinner struct {
	w     io.Writer
	label string

	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	stopped chan struct{}
	once    sync.Once

	mu    sync.Mutex
	group int
	last  solver.Progress
	width int
}

// newSolveSpinner creates a spinner that writes to w and stops by itself
// when ctx is done.
func newSolveSpinner(ctx context.Context, w io.Writer, label string) *solveSpinner {
	sctx, cancel := context.WithCancel(ctx)
	return &solveSpinner{
		w:       w,
		label:   label,
		parent:  ctx,
		ctx:     sctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
}

// update records solver progress. It is passed on as part of
// [pipeline.Options.Progress].
func (s *solveSpinner) update(p solver.Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Phase == solver.PhaseConstruct {
		s.group++
	}
	s.last = p
}

// status returns the text shown next to the spinner frame.
func (s *solveSpinner) status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.group == 0 {
		return s.label
	}
	return fmt.Sprintf("%s · group %d %s · cost %d · %d moves",
		s.label, s.group, phaseVerb(s.last.Phase), s.last.Cost, s.last.Moves)
}

func phaseVerb(phase string) string {
	switch phase {
	case solver.PhaseConstruct:
		return "building"
	case solver.PhaseImprove:
		return "improving"
	case solver.PhaseExact:
		return "exact search"
	case solver.PhaseDone:
		return "solved"
	}
	return phase
}

func (s *solveSpinner) start() {
	s.started = true
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clear()
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

func (s *solveSpinner) draw(frame string) {
	text := s.status()
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r%s %s", styleSpinner.Render(frame), StyleDim.Render(text))
	s.width = max(s.width, utf8.RuneCountInString(text)+2)
}

func (s *solveSpinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
		s.width = 0
	}
}

// stop halts the animation and clears the line. It may be called more than
// once, and before start.
func (s *solveSpinner) stop() {
	s.once.Do(func() {
		s.cancel()
		if s.started {
			<-s.stopped
		}
	})
}

func (s *solveSpinner) stopWithSuccess(format string, args ...any) {
	s.stop()
	printSuccess(format, args...)
}

func (s *solveSpinner) stopWithError(format string, args ...any) {
	s.stop()
	printError(format, args...)
}

// cancelled reports whether the parent context ended the spinner.
func (s *solveSpinner) cancelled() bool {
	return s.parent.Err() != nil
}
