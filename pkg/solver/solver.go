package solver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/changeover/pkg/errors"
	"github.com/matzehuels/changeover/pkg/job"
)

// Solver orders jobs to minimize changeover cost.
//
// ref is the job placed immediately before the group, if any. Implementations
// must return a permutation of the job indices and never fail: an unusable
// search result degrades to the input order.
type Solver interface {
	Solve(ctx context.Context, jobs []job.Job, ref *job.Job) Result
}

// Result describes a solved group.
type Result struct {
	// Order holds indices into the input jobs in execution order.
	Order []int

	// Cost is the changeover cost of Order, including the entry cost from
	// the reference job.
	Cost int

	// InitialCost is the cost of the construction tour before improvement.
	InitialCost int

	// Moves counts applied improving moves.
	Moves int

	// Exact is true when Order is provably optimal.
	Exact bool

	// TimedOut is true when the time budget ran out before local search
	// converged.
	TimedOut bool

	// Fallback is true when the search produced no valid tour and Order is
	// the identity permutation.
	Fallback bool
}

// Quality represents the desired trade-off between solve time and tour cost.
type Quality int

const (
	QualityFast Quality = iota
	QualityBalanced
	QualityOptimal
)

const (
	DefaultTimeoutFast     = 100 * time.Millisecond
	DefaultTimeoutBalanced = 5 * time.Second
	DefaultTimeoutOptimal  = 60 * time.Second
)

// ExactLimit is the largest group solved exactly when exact search is on.
const ExactLimit = 12

var qualityNames = map[Quality]string{
	QualityFast:     "fast",
	QualityBalanced: "balanced",
	QualityOptimal:  "optimal",
}

func (q Quality) String() string {
	if s, ok := qualityNames[q]; ok {
		return s
	}
	return fmt.Sprintf("quality(%d)", int(q))
}

// Timeout returns the default time budget for q.
func (q Quality) Timeout() time.Duration {
	switch q {
	case QualityFast:
		return DefaultTimeoutFast
	case QualityOptimal:
		return DefaultTimeoutOptimal
	default:
		return DefaultTimeoutBalanced
	}
}

// ParseQuality parses "fast", "balanced" or "optimal". An empty string
// yields [QualityBalanced].
func ParseQuality(s string) (Quality, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return QualityBalanced, nil
	}
	for q, name := range qualityNames {
		if name == s {
			return q, nil
		}
	}
	return QualityBalanced, errors.New(errors.ErrCodeInvalidQuality, "invalid quality: %q (must be one of: fast, balanced, optimal)", s)
}

// Apply returns copies of jobs arranged in order.
func Apply(jobs []job.Job, order []int) []job.Job {
	out := make([]job.Job, len(order))
	for i, idx := range order {
		out[i] = jobs[idx]
	}
	return out
}
