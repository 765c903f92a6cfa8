package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"road-smart-optimizer/internal/models"
)

// HandleListPlans handles GET /api/v1/plans
func (h *Handler) HandleListPlans(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	log.Printf("[HTTP] GET /api/v1/plans: search=%q", search)

	plans, err := h.DB.Plans().List(r.Context(), search)
	if err != nil {
		h.handleInternalError(w, err)
		return
	}

	if plans == nil {
		plans = []models.Plan{}
	}
	h.writeJSON(w, http.StatusOK, plans)
}

// HandleCreatePlan handles POST /api/v1/plans
func (h *Handler) HandleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var plan models.Plan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		log.Printf("[HTTP] POST /api/v1/plans: invalid_json err=%v", err)
		h.handleValidationError(w, "Invalid request body")
		return
	}

	if plan.Name == "" {
		h.handleValidationError(w, "Plan name is required")
		return
	}
	if len(plan.Stops) == 0 {
		h.handleValidationError(w, "At least one destination is required")
		return
	}

	created, err := h.DB.Plans().Create(r.Context(), &plan)
	if err != nil {
		h.handleInternalError(w, err)
		return
	}

	log.Printf("[HTTP] POST /api/v1/plans: created id=%d name=%s", created.ID, created.Name)
	h.writeJSON(w, http.StatusCreated, created)
}

// HandleGetPlan handles GET /api/v1/plans/{id}
func (h *Handler) HandleGetPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.planIDFromPath(w, r)
	if !ok {
		return
	}

	plan, err := h.DB.Plans().GetByID(r.Context(), id)
	if err != nil {
		if h.checkNotFound(err) {
			h.handleNotFound(w, "Plan not found")
			return
		}
		h.handleInternalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, plan)
}

// HandleUpdatePlan handles PUT /api/v1/plans/{id}
func (h *Handler) HandleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.planIDFromPath(w, r)
	if !ok {
		return
	}

	var plan models.Plan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		h.handleValidationError(w, "Invalid request body")
		return
	}
	plan.ID = id

	if plan.Name == "" {
		h.handleValidationError(w, "Plan name is required")
		return
	}

	updated, err := h.DB.Plans().Update(r.Context(), &plan)
	if err != nil {
		if h.checkNotFound(err) {
			h.handleNotFound(w, "Plan not found")
			return
		}
		h.handleInternalError(w, err)
		return
	}

	log.Printf("[HTTP] PUT /api/v1/plans/%d: updated name=%s", id, updated.Name)
	h.writeJSON(w, http.StatusOK, updated)
}

// HandleDeletePlan handles DELETE /api/v1/plans/{id}
func (h *Handler) HandleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.planIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.DB.Plans().Delete(r.Context(), id); err != nil {
		if h.checkNotFound(err) {
			h.handleNotFound(w, "Plan not found")
			return
		}
		h.handleInternalError(w, err)
		return
	}

	log.Printf("[HTTP] DELETE /api/v1/plans/%d: deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// planIDFromPath extracts the plan ID from /api/v1/plans/{id}
func (h *Handler) planIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/plans/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.handleValidationError(w, "Invalid plan ID")
		return 0, false
	}
	return id, true
}
