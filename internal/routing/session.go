package routing

import (
	"context"
	"fmt"
	"log"
	"sync"

	"road-smart-optimizer/internal/distance"
	"road-smart-optimizer/internal/models"
)

// BruteForceWarnLimit is the destination count above which a comparison
// carries a warning about factorial run time. The session still computes the
// exact tour; refusing outright is the caller's decision.
const BruteForceWarnLimit = 9

// Session runs both solvers over the same request and pairs the results so
// callers can present heuristic-versus-optimal comparisons
type Session struct {
	heuristic Solver
	exact     Solver
}

// NewSession creates a session backed by the given distance function
func NewSession(dist distance.Func) *Session {
	return &Session{
		heuristic: NewNearestNeighbourSolver(dist),
		exact:     NewBruteForceSolver(dist),
	}
}

// Compare solves the request with both algorithms and returns the paired
// results with the relative gap. The two solvers run concurrently; the
// request is read-only for the lifetime of the call and each solver owns its
// own output, so no coordination is needed between them.
func (s *Session) Compare(ctx context.Context, req *models.TourRequest) (*models.TourComparison, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	log.Printf("[SESSION] Comparing tours: stops=%d", req.N())

	var (
		wg    sync.WaitGroup
		nn    *models.TourResult
		bf    *models.TourResult
		nnErr error
		bfErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		nn, nnErr = s.heuristic.Solve(ctx, req)
	}()
	go func() {
		defer wg.Done()
		bf, bfErr = s.exact.Solve(ctx, req)
	}()
	wg.Wait()

	if nnErr != nil {
		return nil, nnErr
	}
	if bfErr != nil {
		return nil, bfErr
	}

	comparison := &models.TourComparison{
		Request:          req,
		NearestNeighbour: nn,
		BruteForce:       bf,
		Warnings:         []string{},
	}

	if bf.TotalKm > 0 {
		comparison.GapPercent = (nn.TotalKm - bf.TotalKm) / bf.TotalKm * 100
	}

	if req.N() > BruteForceWarnLimit {
		comparison.Warnings = append(comparison.Warnings,
			fmt.Sprintf("exhaustive search over %d destinations evaluated %d permutations; runs grow factorially beyond %d stops",
				req.N(), bf.PermutationsEvaluated, BruteForceWarnLimit))
	}

	log.Printf("[SESSION] Comparison complete: stops=%d nn_km=%.2f bf_km=%.2f gap=%.2f%%",
		req.N(), nn.TotalKm, bf.TotalKm, comparison.GapPercent)
	return comparison, nil
}
