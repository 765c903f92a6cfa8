package handlers

import (
	"log"
	"net/http"
	"strconv"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 10
)

// AddressSuggestion is one search hit returned to the UI
type AddressSuggestion struct {
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

// HandleAddressSearch handles GET /api/v1/address-search
func (h *Handler) HandleAddressSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("address")
	log.Printf("[HTTP] GET /api/v1/address-search: query=%s", query)

	if len(query) < 4 {
		h.writeJSON(w, http.StatusOK, []AddressSuggestion{})
		return
	}

	limit := defaultSearchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxSearchLimit {
			limit = n
		}
	}

	results, err := h.Geocoder.Search(r.Context(), query, limit)
	if err != nil {
		// Suggestion lookups are best effort; an empty list beats an error page
		log.Printf("[ERROR] Failed to search addresses: query=%s err=%v", query, err)
		h.writeJSON(w, http.StatusOK, []AddressSuggestion{})
		return
	}

	suggestions := make([]AddressSuggestion, 0, len(results))
	for _, result := range results {
		suggestions = append(suggestions, AddressSuggestion{
			DisplayName: result.DisplayName,
			Lat:         result.Coords.Lat,
			Lng:         result.Coords.Lng,
		})
	}

	log.Printf("[HTTP] GET /api/v1/address-search: query=%s results_count=%d", query, len(suggestions))
	h.writeJSON(w, http.StatusOK, suggestions)
}
