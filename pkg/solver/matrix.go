package solver

import (
	"github.com/matzehuels/changeover/pkg/job"
	"github.com/matzehuels/changeover/pkg/material"
)

// Depot is the node index of the virtual start node.
const Depot = 0

// Matrix holds arc costs between the depot (node 0) and jobs (nodes 1..n).
// Job index i maps to node i+1.
//
// Costs are stored as int32 in one dense row-major slice: a 5000-job group
// takes about 100 MB.
type Matrix struct {
	nodes int
	cost  []int32
}

// NewMatrix builds the routing cost matrix for jobs. With a reference job
// the depot's outbound arcs carry the changeover from ref; without one they
// are free. Arcs back into the depot are always free.
func NewMatrix(jobs []job.Job, ref *job.Job) *Matrix {
	n := len(jobs) + 1
	m := &Matrix{nodes: n, cost: make([]int32, n*n)}

	for i, a := range jobs {
		if ref != nil {
			m.cost[Depot*n+i+1] = int32(material.Cost(ref.Individual, a.Individual))
		}
		for j := i + 1; j < len(jobs); j++ {
			c := int32(material.Cost(a.Individual, jobs[j].Individual))
			m.cost[(i+1)*n+j+1] = c
			m.cost[(j+1)*n+i+1] = c
		}
	}
	return m
}

// Jobs returns the number of job nodes.
func (m *Matrix) Jobs() int { return m.nodes - 1 }

// At returns the cost of the arc from node from to node to.
func (m *Matrix) At(from, to int) int { return int(m.cost[from*m.nodes+to]) }

// PathCost returns the cost of visiting jobs in order, starting at the depot.
func (m *Matrix) PathCost(order []int) int {
	total, prev := 0, Depot
	for _, idx := range order {
		total += m.At(prev, idx+1)
		prev = idx + 1
	}
	return total + m.At(prev, Depot)
}
