package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"road-smart-optimizer/internal/database"
	"road-smart-optimizer/internal/geocoding"
	"road-smart-optimizer/internal/routing"
)

// Handler provides common handler utilities and dependencies
type Handler struct {
	DB       database.DataStore
	Geocoder geocoding.Geocoder
	Session  *routing.Session
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	h.writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// handleNotFound handles 404 errors
func (h *Handler) handleNotFound(w http.ResponseWriter, message string) {
	h.writeError(w, http.StatusNotFound, "NOT_FOUND", message, nil)
}

// handleValidationError handles 400 errors
func (h *Handler) handleValidationError(w http.ResponseWriter, message string) {
	h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", message, nil)
}

// handleGeocodingError handles 422 errors for geocoding failures
func (h *Handler) handleGeocodingError(w http.ResponseWriter, err error) {
	h.writeError(w, http.StatusUnprocessableEntity, "GEOCODING_FAILED", err.Error(), nil)
}

// handleTourError maps solver errors to API responses. Requests the solvers
// reject outright are the client's fault; anything else is a 422.
func (h *Handler) handleTourError(w http.ResponseWriter, err error, stops int) {
	var coordErr *routing.ErrInvalidCoordinate
	switch {
	case errors.Is(err, routing.ErrNoDestinations):
		h.handleValidationError(w, err.Error())
	case errors.As(err, &coordErr):
		h.handleValidationError(w, err.Error())
	default:
		h.writeError(w, http.StatusUnprocessableEntity, "TOUR_FAILED", err.Error(),
			map[string]int{"stops": stops})
	}
}

// handleInternalError handles 500 errors
func (h *Handler) handleInternalError(w http.ResponseWriter, err error) {
	log.Printf("[ERROR] Internal error: %v", err)
	h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An error occurred. Please try again.", nil)
}

// checkNotFound checks if an error is a not found error
func (h *Handler) checkNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}

// HandleHealthCheck handles GET /api/v1/health
func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.HealthCheck(r.Context()); err != nil {
		log.Printf("[ERROR] Health check failed: %v", err)
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
