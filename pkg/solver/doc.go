// Package solver orders a group of jobs so that the summed changeover cost
// between consecutive jobs is as small as possible.
//
// # The Problem
//
// Visiting every job exactly once along the cheapest route is an open-path
// Hamiltonian path problem and NP-hard. The package models it as a
// single-vehicle routing instance with a virtual depot (node 0):
//
//   - depot → job i costs Cost(reference, i) when a reference job is given,
//     0 otherwise
//   - job i → depot costs 0, so the route is effectively an open path
//   - job i → job j costs the material changeover between them
//
// # Search
//
// [Search] builds a tour in two phases:
//
//  1. Path cheapest arc: starting at the depot, repeatedly append the
//     unvisited job with the cheapest arc from the current end. Ties go to
//     the job that appears first in the input.
//  2. Local search: first-improvement 2-opt (reverse a sub-path) and or-opt
//     (relocate a run of one to three jobs) until no move improves the tour
//     or the time budget is spent.
//
// The time budget is checked cooperatively between move evaluations. When it
// runs out the best tour found so far is returned; this is expected behavior,
// reported through [Result.TimedOut], not an error.
//
// With [Search.Exact] set, groups of at most [ExactLimit] jobs are solved to
// optimality with the Held–Karp dynamic program instead.
//
// # Quality Presets
//
//   - [QualityFast]: 100ms budget
//   - [QualityBalanced]: 5s budget (default)
//   - [QualityOptimal]: 60s budget and exact search for small groups
//
// # Usage
//
//	s := solver.New(solver.QualityBalanced)
//	res := s.Solve(ctx, jobs, nil)
//	ordered := solver.Apply(jobs, res.Order)
package solver
