package routing

import (
	"context"
	"log"
	"math"

	"road-smart-optimizer/internal/distance"
	"road-smart-optimizer/internal/models"
)

type bruteForceSolver struct {
	dist distance.Func
}

// NewBruteForceSolver creates the exact solver. It evaluates every
// permutation of the destination indices in lexicographic order and keeps the
// first permutation that achieves the minimum round-trip distance. O(N!·N) —
// callers are responsible for keeping N small; the solver itself places no
// cap but checks the context between permutations so long runs can be
// cancelled.
func NewBruteForceSolver(dist distance.Func) Solver {
	return &bruteForceSolver{dist: dist}
}

func (s *bruteForceSolver) Name() string {
	return AlgorithmBruteForce
}

func (s *bruteForceSolver) Solve(ctx context.Context, req *models.TourRequest) (*models.TourResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	n := req.N()
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	var bestOrder []int
	bestTotal := math.Inf(1)
	evaluated := 0

	for {
		if err := ctx.Err(); err != nil {
			log.Printf("[TOUR] Brute force cancelled: stops=%d evaluated=%d", n, evaluated)
			return nil, err
		}

		total := tourTotal(s.dist, req, perm)
		evaluated++
		// Strict less-than keeps the first permutation found in
		// lexicographic order on equal totals
		if total < bestTotal {
			bestTotal = total
			bestOrder = append(bestOrder[:0], perm...)
		}

		if !nextPermutation(perm) {
			break
		}
	}

	result := buildResult(s.dist, req, AlgorithmBruteForce, bestOrder)
	result.PermutationsEvaluated = evaluated
	log.Printf("[TOUR] Brute force complete: stops=%d permutations=%d total_km=%.2f", n, evaluated, result.TotalKm)
	return result, nil
}

// nextPermutation advances p to its lexicographic successor in place,
// returning false when p is already the last permutation
func nextPermutation(p []int) bool {
	i := len(p) - 2
	for i >= 0 && p[i] >= p[i+1] {
		i--
	}
	if i < 0 {
		return false
	}

	j := len(p) - 1
	for p[j] <= p[i] {
		j--
	}
	p[i], p[j] = p[j], p[i]

	for l, r := i+1, len(p)-1; l < r; l, r = l+1, r-1 {
		p[l], p[r] = p[r], p[l]
	}
	return true
}
