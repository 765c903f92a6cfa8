package routing

import (
	"context"
	"errors"
	"fmt"

	"road-smart-optimizer/internal/distance"
	"road-smart-optimizer/internal/models"
)

// Algorithm names reported in TourResult
const (
	AlgorithmNearestNeighbour = "nearest_neighbour"
	AlgorithmBruteForce       = "brute_force"
)

// Solver computes a visiting order over a tour request
type Solver interface {
	Name() string
	Solve(ctx context.Context, req *models.TourRequest) (*models.TourResult, error)
}

// ErrNoDestinations is returned when a tour request has an empty stop list
var ErrNoDestinations = errors.New("tour request has no destinations")

// ErrInvalidCoordinate is returned when a request contains a non-finite or
// out-of-range coordinate. Index is -1 for the start point.
type ErrInvalidCoordinate struct {
	Index  int
	Coords models.Coordinates
}

func (e *ErrInvalidCoordinate) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid start coordinate: lat=%v lng=%v", e.Coords.Lat, e.Coords.Lng)
	}
	return fmt.Sprintf("invalid coordinate for destination %d: lat=%v lng=%v", e.Index, e.Coords.Lat, e.Coords.Lng)
}

// validateRequest rejects empty destination lists and invalid coordinates
// before any distance is evaluated
func validateRequest(req *models.TourRequest) error {
	if req.N() == 0 {
		return ErrNoDestinations
	}
	if !distance.ValidCoordinate(req.Start) {
		return &ErrInvalidCoordinate{Index: -1, Coords: req.Start}
	}
	for i := range req.Stops {
		c := req.Stops[i].GetCoords()
		if !distance.ValidCoordinate(c) {
			return &ErrInvalidCoordinate{Index: i, Coords: c}
		}
	}
	return nil
}

// tourTotal computes the round-trip distance for a visiting order: start to
// the first stop, each consecutive leg, and the last stop back to start.
func tourTotal(dist distance.Func, req *models.TourRequest, order []int) float64 {
	current := req.Start
	total := 0.0
	for _, idx := range order {
		next := req.Stops[idx].GetCoords()
		total += dist(current, next)
		current = next
	}
	total += dist(current, req.Start)
	return total
}

// buildResult expands a visiting order into a full TourResult with per-leg
// and cumulative distances
func buildResult(dist distance.Func, req *models.TourRequest, algorithm string, order []int) *models.TourResult {
	result := &models.TourResult{
		Algorithm: algorithm,
		Order:     append([]int(nil), order...),
		Stops:     make([]models.TourStop, 0, len(order)),
	}

	current := req.Start
	cumulative := 0.0
	for i, idx := range order {
		next := req.Stops[idx].GetCoords()
		leg := dist(current, next)
		cumulative += leg
		result.Stops = append(result.Stops, models.TourStop{
			Order:        i,
			Location:     req.Stops[idx],
			LegKm:        leg,
			CumulativeKm: cumulative,
		})
		current = next
	}

	result.ReturnLegKm = dist(current, req.Start)
	result.TotalKm = cumulative + result.ReturnLegKm
	return result
}
