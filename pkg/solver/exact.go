package solver

import "math"

// heldKarp returns a minimum-cost open path from the depot through every
// job. It runs in O(2^n · n²) time and must only be used for small n.
//
// Among equal-cost paths the one found first wins; subsets and end jobs are
// scanned in ascending order so the choice is deterministic.
func heldKarp(m *Matrix) []int {
	n := m.Jobs()
	full := 1<<n - 1

	dp := make([]int, (full+1)*n)
	parent := make([]int8, (full+1)*n)
	for i := range dp {
		dp[i] = math.MaxInt
		parent[i] = -1
	}
	for j := 0; j < n; j++ {
		dp[(1<<j)*n+j] = m.At(Depot, j+1)
	}

	for mask := 1; mask <= full; mask++ {
		for last := 0; last < n; last++ {
			cur := dp[mask*n+last]
			if mask&(1<<last) == 0 || cur == math.MaxInt {
				continue
			}
			for next := 0; next < n; next++ {
				if mask&(1<<next) != 0 {
					continue
				}
				nm := mask | 1<<next
				if c := cur + m.At(last+1, next+1); c < dp[nm*n+next] {
					dp[nm*n+next] = c
					parent[nm*n+next] = int8(last)
				}
			}
		}
	}

	best, bestCost := -1, math.MaxInt
	for j := 0; j < n; j++ {
		if c := dp[full*n+j]; c != math.MaxInt && c+m.At(j+1, Depot) < bestCost {
			best, bestCost = j, c+m.At(j+1, Depot)
		}
	}
	if best < 0 {
		return nil
	}

	path := make([]int, n)
	mask, cur := full, best
	for k := n - 1; k >= 0; k-- {
		path[k] = cur
		prev := int(parent[mask*n+cur])
		mask &^= 1 << cur
		cur = prev
	}
	return path
}
