package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"road-smart-optimizer/internal/models"
)

// MaxTourStops caps the number of destinations accepted per request. The
// exact solver enumerates N! orders, so anything past this is refused rather
// than left to run for hours.
const MaxTourStops = 10

const geocodeRetries = 3

// TourLocationInput is a destination as submitted by the client: either
// resolved coordinates or an address to geocode
type TourLocationInput struct {
	Label   string   `json:"label"`
	Address string   `json:"address"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}

// ComputeTourRequest represents the request for tour computation
type ComputeTourRequest struct {
	Start TourLocationInput   `json:"start"`
	Stops []TourLocationInput `json:"stops"`
}

// ComputeTourResponse pairs the solver comparison with ready-to-open Google
// Maps directions links, one per computed order, keyed by algorithm name
type ComputeTourResponse struct {
	Comparison *models.TourComparison `json:"comparison"`
	MapsURLs   map[string]string      `json:"maps_urls"`
}

// HandleComputeTour handles POST /api/v1/tours/compute
func (h *Handler) HandleComputeTour(w http.ResponseWriter, r *http.Request) {
	var req ComputeTourRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[HTTP] POST /api/v1/tours/compute: invalid_json err=%v", err)
		h.handleValidationError(w, "Invalid request body")
		return
	}

	if len(req.Stops) == 0 {
		h.handleValidationError(w, "At least one destination is required")
		return
	}
	if len(req.Stops) > MaxTourStops {
		h.handleValidationError(w, fmt.Sprintf("Too many destinations: %d (maximum %d)", len(req.Stops), MaxTourStops))
		return
	}

	log.Printf("[HTTP] POST /api/v1/tours/compute: stops=%d", len(req.Stops))

	start, err := h.resolveLocation(r, req.Start)
	if err != nil {
		h.handleGeocodingError(w, err)
		return
	}

	stops := make([]models.Location, 0, len(req.Stops))
	for _, input := range req.Stops {
		loc, err := h.resolveLocation(r, input)
		if err != nil {
			h.handleGeocodingError(w, err)
			return
		}
		stops = append(stops, *loc)
	}

	tourReq := &models.TourRequest{
		Start: start.GetCoords(),
		Stops: stops,
	}

	comparison, err := h.Session.Compare(r.Context(), tourReq)
	if err != nil {
		log.Printf("[ERROR] Tour computation failed: stops=%d err=%v", len(stops), err)
		h.handleTourError(w, err, len(stops))
		return
	}

	log.Printf("[HTTP] Tour computed: stops=%d nn_km=%.2f bf_km=%.2f gap=%.2f%%",
		len(stops), comparison.NearestNeighbour.TotalKm, comparison.BruteForce.TotalKm, comparison.GapPercent)

	h.writeJSON(w, http.StatusOK, ComputeTourResponse{
		Comparison: comparison,
		MapsURLs: map[string]string{
			comparison.NearestNeighbour.Algorithm: buildMapsURL(start.GetCoords(), stops, comparison.NearestNeighbour.Order),
			comparison.BruteForce.Algorithm:       buildMapsURL(start.GetCoords(), stops, comparison.BruteForce.Order),
		},
	})
}

// resolveLocation turns a client input into a resolved location. Explicit
// coordinates win; otherwise the address is geocoded.
func (h *Handler) resolveLocation(r *http.Request, input TourLocationInput) (*models.Location, error) {
	if input.Lat != nil && input.Lng != nil {
		label := input.Label
		if label == "" {
			label = input.Address
		}
		return &models.Location{
			Label:   label,
			Address: input.Address,
			Lat:     *input.Lat,
			Lng:     *input.Lng,
		}, nil
	}

	result, err := h.Geocoder.GeocodeWithRetry(r.Context(), input.Address, geocodeRetries)
	if err != nil {
		return nil, err
	}

	label := input.Label
	if label == "" {
		label = input.Address
	}
	return &models.Location{
		Label:   label,
		Address: result.DisplayName,
		Lat:     result.Coords.Lat,
		Lng:     result.Coords.Lng,
	}, nil
}

// buildMapsURL builds a Google Maps directions link that starts and ends at
// the start point, visiting the stops in the given order
func buildMapsURL(start models.Coordinates, stops []models.Location, order []int) string {
	origin := fmt.Sprintf("%.6f,%.6f", start.Lat, start.Lng)

	waypoints := make([]string, 0, len(order))
	for _, idx := range order {
		waypoints = append(waypoints, fmt.Sprintf("%.6f,%.6f", stops[idx].Lat, stops[idx].Lng))
	}

	params := url.Values{}
	params.Set("api", "1")
	params.Set("origin", origin)
	params.Set("destination", origin)
	params.Set("waypoints", strings.Join(waypoints, "|"))

	return "https://www.google.com/maps/dir/?" + params.Encode()
}
