package models

import "time"

// Coordinates represents a geographic point
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RoundCoordinate rounds a coordinate to 5 decimal places (~1m precision).
// Used for cache keys and same-point comparisons.
func RoundCoordinate(v float64) float64 {
	if v < 0 {
		return float64(int(v*100000-0.5)) / 100000
	}
	return float64(int(v*100000+0.5)) / 100000
}

// SamePoint reports whether two coordinates are equal after rounding
func SamePoint(a, b Coordinates) bool {
	return RoundCoordinate(a.Lat) == RoundCoordinate(b.Lat) &&
		RoundCoordinate(a.Lng) == RoundCoordinate(b.Lng)
}

// Location is a destination resolved by geocoding. Label and Address are
// display data owned by the caller; the solvers only read the coordinates.
type Location struct {
	Label   string  `json:"label"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// GetCoords returns the coordinates of the location
func (l *Location) GetCoords() Coordinates {
	return Coordinates{Lat: l.Lat, Lng: l.Lng}
}

// TourRequest is the input to a tour solve: a fixed start point and the
// destinations to visit. Not mutated after construction.
type TourRequest struct {
	Start Coordinates `json:"start"`
	Stops []Location  `json:"stops"`
}

// N returns the number of destinations
func (r *TourRequest) N() int {
	return len(r.Stops)
}

// TourStop is a single visit in a computed tour
type TourStop struct {
	Order        int      `json:"order"`
	Location     Location `json:"location"`
	LegKm        float64  `json:"leg_km"`
	CumulativeKm float64  `json:"cumulative_km"`
}

// TourResult is the output of a tour solver. Order is a permutation of the
// destination indices {0..N-1}; TotalKm includes the return leg to the start.
type TourResult struct {
	Algorithm             string     `json:"algorithm"`
	Order                 []int      `json:"order"`
	Stops                 []TourStop `json:"stops"`
	ReturnLegKm           float64    `json:"return_leg_km"`
	TotalKm               float64    `json:"total_km"`
	PermutationsEvaluated int        `json:"permutations_evaluated,omitempty"`
}

// TourComparison pairs the heuristic and exact results for the same request
type TourComparison struct {
	Request          *TourRequest `json:"request"`
	NearestNeighbour *TourResult  `json:"nearest_neighbour"`
	BruteForce       *TourResult  `json:"brute_force"`
	GapPercent       float64      `json:"gap_percent"`
	Warnings         []string     `json:"warnings"`
}

// Plan is a saved set of resolved locations that can be reloaded later
type Plan struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Start     Location   `json:"start"`
	Stops     []Location `json:"stops"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// GeocodeCacheEntry is a cached geocoding lookup keyed by the raw query
type GeocodeCacheEntry struct {
	Query       string  `json:"query"`
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}
