package solver

import (
	"context"
	"time"

	"github.com/matzehuels/changeover/pkg/job"
)

// Progress reports search state to a [Search.Progress] callback.
type Progress struct {
	Phase string // one of the Phase constants
	Jobs  int
	Cost  int
	Moves int
}

// Search phases reported through [Progress].
const (
	PhaseConstruct = "construct"
	PhaseImprove   = "improve"
	PhaseExact     = "exact"
	PhaseDone      = "done"
)

// Search is the default [Solver]: cheapest-arc construction followed by
// time-bounded 2-opt / or-opt improvement.
//
// A Search holds no state between calls and is safe for concurrent use as
// long as Progress is.
type Search struct {
	// Timeout bounds the improvement phase of each Solve call.
	// Zero means [DefaultTimeoutBalanced].
	Timeout time.Duration

	// Exact enables Held–Karp for groups of at most ExactLimit jobs.
	Exact bool

	// Progress, if set, is called at phase boundaries and after improving
	// moves.
	Progress func(Progress)
}

// New returns a Search configured for q.
func New(q Quality) *Search {
	return &Search{Timeout: q.Timeout(), Exact: q == QualityOptimal}
}

// pollEvery is how many move evaluations run between deadline checks.
const pollEvery = 512

// Solve implements [Solver].
func (s *Search) Solve(ctx context.Context, jobs []job.Job, ref *job.Job) Result {
	n := len(jobs)
	switch n {
	case 0:
		return Result{Order: []int{}, Exact: true}
	case 1:
		m := NewMatrix(jobs, ref)
		c := m.PathCost([]int{0})
		return Result{Order: []int{0}, Cost: c, InitialCost: c, Exact: true}
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeoutBalanced
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	m := NewMatrix(jobs, ref)

	order := construct(m)
	initial := m.PathCost(order)
	s.report(Progress{Phase: PhaseConstruct, Jobs: n, Cost: initial})

	res := Result{InitialCost: initial}
	if s.Exact && n <= ExactLimit {
		order = heldKarp(m)
		res.Exact = true
		s.report(Progress{Phase: PhaseExact, Jobs: n, Cost: m.PathCost(order)})
	} else {
		ls := &localSearch{m: m, path: order, deadline: deadline, ctx: ctx, progress: s.report}
		ls.run()
		order, res.Moves, res.TimedOut = ls.path, ls.moves, ls.expired
	}

	if !isPermutation(order, n) {
		order = Seq(n)
		res.Fallback = true
		res.Exact = false
	}
	res.Order = order
	res.Cost = m.PathCost(order)
	s.report(Progress{Phase: PhaseDone, Jobs: n, Cost: res.Cost, Moves: res.Moves})
	return res
}

func (s *Search) report(p Progress) {
	if s.Progress != nil {
		s.Progress(p)
	}
}

// construct builds the path-cheapest-arc tour from the depot.
func construct(m *Matrix) []int {
	n := m.Jobs()
	visited := make([]bool, n)
	path := make([]int, 0, n)
	cur := Depot
	for len(path) < n {
		best, bestCost := -1, 0
		for j := 0; j < n; j++ {
			if visited[j] {
				continue
			}
			if c := m.At(cur, j+1); best < 0 || c < bestCost {
				best, bestCost = j, c
			}
		}
		visited[best] = true
		path = append(path, best)
		cur = best + 1
	}
	return path
}

// Seq returns [0, 1, ..., n-1], the identity order used as the fallback
// tour. For n <= 0 it returns an empty slice.
func Seq(n int) []int {
	result := make([]int, max(n, 0))
	for i := range result {
		result[i] = i
	}
	return result
}

func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}

// localSearch improves a tour in place.
type localSearch struct {
	m        *Matrix
	path     []int
	deadline time.Time
	ctx      context.Context
	progress func(Progress)

	fwd, bwd []int // prefix sums of arc costs along / against the path
	evals    int
	moves    int
	expired  bool
}

func (ls *localSearch) run() {
	if len(ls.path) < 2 {
		return
	}
	ls.prefix()
	for !ls.expired {
		improved := ls.twoOpt()
		if ls.expired {
			break
		}
		if ls.orOpt() {
			improved = true
		}
		if !improved {
			return
		}
	}
}

// tick counts one move evaluation and reports whether the budget is spent.
func (ls *localSearch) tick() bool {
	ls.evals++
	if ls.evals%pollEvery == 0 {
		if time.Now().After(ls.deadline) || ls.ctx.Err() != nil {
			ls.expired = true
		}
	}
	return ls.expired
}

func (ls *localSearch) node(i int) int { return ls.path[i] + 1 }

func (ls *localSearch) pred(i int) int {
	if i == 0 {
		return Depot
	}
	return ls.node(i - 1)
}

func (ls *localSearch) succ(i int) int {
	if i == len(ls.path)-1 {
		return Depot
	}
	return ls.node(i + 1)
}

func (ls *localSearch) prefix() {
	n := len(ls.path)
	if cap(ls.fwd) < n {
		ls.fwd, ls.bwd = make([]int, n), make([]int, n)
	}
	ls.fwd, ls.bwd = ls.fwd[:n], ls.bwd[:n]
	for k := 1; k < n; k++ {
		a, b := ls.node(k-1), ls.node(k)
		ls.fwd[k] = ls.fwd[k-1] + ls.m.At(a, b)
		ls.bwd[k] = ls.bwd[k-1] + ls.m.At(b, a)
	}
}

func (ls *localSearch) applied() {
	ls.moves++
	ls.prefix()
	if ls.progress != nil {
		ls.progress(Progress{Phase: PhaseImprove, Jobs: len(ls.path), Cost: ls.m.PathCost(ls.path), Moves: ls.moves})
	}
}

// twoOpt reverses path[i..j] whenever that lowers the cost. Interior arcs are
// re-priced through the backward prefix sums, so asymmetric costs are exact.
func (ls *localSearch) twoOpt() bool {
	n := len(ls.path)
	improved := false
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			if ls.tick() {
				return improved
			}
			p, s := ls.pred(i), ls.succ(j)
			a, b := ls.node(i), ls.node(j)
			before := ls.m.At(p, a) + ls.m.At(b, s) + ls.fwd[j] - ls.fwd[i]
			after := ls.m.At(p, b) + ls.m.At(a, s) + ls.bwd[j] - ls.bwd[i]
			if after < before {
				reverse(ls.path[i : j+1])
				ls.applied()
				improved = true
			}
		}
	}
	return improved
}

// orOpt moves runs of one to three jobs to a cheaper position.
func (ls *localSearch) orOpt() bool {
	n := len(ls.path)
	improved := false
	for length := 1; length <= 3 && length < n; length++ {
		for i := 0; i+length <= n; i++ {
			e := i + length - 1
			first, last := ls.node(i), ls.node(e)
			p, s := ls.pred(i), ls.succ(e)
			gain := ls.m.At(p, first) + ls.m.At(last, s) - ls.m.At(p, s)
			if gain <= 0 {
				continue
			}
			// Insert after position k; k == -1 means directly after the depot.
			for k := -1; k < n; k++ {
				if k >= i-1 && k <= e {
					continue
				}
				if ls.tick() {
					return improved
				}
				a, b := Depot, ls.node(0)
				if k >= 0 {
					a, b = ls.node(k), ls.succ(k)
				}
				cost := ls.m.At(a, first) + ls.m.At(last, b) - ls.m.At(a, b)
				if cost < gain {
					ls.path = relocate(ls.path, i, e, k)
					ls.applied()
					improved = true
					break
				}
			}
		}
	}
	return improved
}

func reverse(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// relocate moves path[i..e] so that it follows position k of the original
// path (k == -1 places it first).
func relocate(path []int, i, e, k int) []int {
	seg := append([]int(nil), path[i:e+1]...)
	rest := make([]int, 0, len(path)-len(seg))
	rest = append(rest, path[:i]...)
	rest = append(rest, path[e+1:]...)

	// Position of the insertion point within rest.
	at := k + 1
	if k > e {
		at -= len(seg)
	}
	out := make([]int, 0, len(path))
	out = append(out, rest[:at]...)
	out = append(out, seg...)
	out = append(out, rest[at:]...)
	return out
}
