package routing

import (
	"context"
	"log"

	"road-smart-optimizer/internal/distance"
	"road-smart-optimizer/internal/models"
)

type nearestNeighbourSolver struct {
	dist distance.Func
}

// NewNearestNeighbourSolver creates the greedy heuristic solver. At each step
// it visits the nearest unvisited destination; ties go to the lowest original
// index so results are deterministic. O(N²) distance evaluations.
func NewNearestNeighbourSolver(dist distance.Func) Solver {
	return &nearestNeighbourSolver{dist: dist}
}

func (s *nearestNeighbourSolver) Name() string {
	return AlgorithmNearestNeighbour
}

func (s *nearestNeighbourSolver) Solve(ctx context.Context, req *models.TourRequest) (*models.TourResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	n := req.N()
	visited := make([]bool, n)
	order := make([]int, 0, n)
	current := req.Start

	for len(order) < n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		best := -1
		bestD := 0.0
		for i := 0; i < n; i++ {
			if visited[i] {
				continue
			}
			d := s.dist(current, req.Stops[i].GetCoords())
			// Strict less-than keeps the lowest index on equal distances
			if best < 0 || d < bestD {
				best = i
				bestD = d
			}
		}

		visited[best] = true
		order = append(order, best)
		current = req.Stops[best].GetCoords()
	}

	result := buildResult(s.dist, req, AlgorithmNearestNeighbour, order)
	log.Printf("[TOUR] Nearest neighbour complete: stops=%d total_km=%.2f", n, result.TotalKm)
	return result, nil
}
