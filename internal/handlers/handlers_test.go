package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"road-smart-optimizer/internal/database"
	"road-smart-optimizer/internal/distance"
	"road-smart-optimizer/internal/geocoding"
	"road-smart-optimizer/internal/models"
	"road-smart-optimizer/internal/routing"
)

// Mock implementations for testing

type mockGeocoder struct {
	failWith error
	calls    int
}

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (*geocoding.GeocodingResult, error) {
	m.calls++
	if m.failWith != nil {
		return nil, m.failWith
	}
	return &geocoding.GeocodingResult{
		Coords:      models.Coordinates{Lat: 51.5034, Lng: -0.1276},
		DisplayName: address + ", London",
	}, nil
}

func (m *mockGeocoder) GeocodeWithRetry(ctx context.Context, address string, maxRetries int) (*geocoding.GeocodingResult, error) {
	return m.Geocode(ctx, address)
}

func (m *mockGeocoder) Search(ctx context.Context, query string, limit int) ([]geocoding.GeocodingResult, error) {
	m.calls++
	if m.failWith != nil {
		return nil, m.failWith
	}
	return []geocoding.GeocodingResult{
		{Coords: models.Coordinates{Lat: 51.5034, Lng: -0.1276}, DisplayName: query + ", London"},
	}, nil
}

func setupTestHandler(t *testing.T) (*Handler, *mockGeocoder) {
	t.Helper()

	dir := t.TempDir()
	cache, err := database.NewFileGeocodeCache(filepath.Join(dir, "geocodes.json"))
	require.NoError(t, err)
	db, err := database.NewJSONStore(filepath.Join(dir, "plans.json"), cache)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	geocoder := &mockGeocoder{}
	return &Handler{
		DB:       db,
		Geocoder: geocoder,
		Session:  routing.NewSession(distance.Kilometers),
	}, geocoder
}

func postJSON(t *testing.T, handler http.HandlerFunc, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func f(v float64) *float64 { return &v }

// ==================== Tour computation ====================

func TestHandleComputeTourWithCoordinates(t *testing.T) {
	h, geocoder := setupTestHandler(t)

	rec := postJSON(t, h.HandleComputeTour, "/api/v1/tours/compute", ComputeTourRequest{
		Start: TourLocationInput{Label: "Depot", Lat: f(51.5), Lng: f(-0.12)},
		Stops: []TourLocationInput{
			{Label: "A", Lat: f(51.52), Lng: f(-0.08)},
			{Label: "B", Lat: f(51.47), Lng: f(-0.15)},
			{Label: "C", Lat: f(51.55), Lng: f(0.02)},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, geocoder.calls)

	var resp ComputeTourResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Comparison)
	assert.Len(t, resp.Comparison.NearestNeighbour.Order, 3)
	assert.Len(t, resp.Comparison.BruteForce.Order, 3)
	assert.LessOrEqual(t, resp.Comparison.BruteForce.TotalKm, resp.Comparison.NearestNeighbour.TotalKm)
	assert.Equal(t, 6, resp.Comparison.BruteForce.PermutationsEvaluated)

	require.Contains(t, resp.MapsURLs, routing.AlgorithmNearestNeighbour)
	require.Contains(t, resp.MapsURLs, routing.AlgorithmBruteForce)
	nnURL := resp.MapsURLs[routing.AlgorithmNearestNeighbour]
	assert.Contains(t, nnURL, "https://www.google.com/maps/dir/")
	assert.Contains(t, nnURL, "origin=51.500000%2C-0.120000")
	assert.Contains(t, nnURL, "waypoints=")
}

func TestHandleComputeTourGeocodesAddresses(t *testing.T) {
	h, geocoder := setupTestHandler(t)

	rec := postJSON(t, h.HandleComputeTour, "/api/v1/tours/compute", ComputeTourRequest{
		Start: TourLocationInput{Address: "Depot Street 1"},
		Stops: []TourLocationInput{
			{Address: "Customer Road 2"},
			{Lat: f(51.52), Lng: f(-0.08)},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	// Start and the first stop are geocoded, the second carries coordinates
	assert.Equal(t, 2, geocoder.calls)

	var resp ComputeTourResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	stops := resp.Comparison.Request.Stops
	require.Len(t, stops, 2)
	assert.Equal(t, "Customer Road 2, London", stops[0].Address)
}

func TestHandleComputeTourRejectsEmptyStops(t *testing.T) {
	h, _ := setupTestHandler(t)

	rec := postJSON(t, h.HandleComputeTour, "/api/v1/tours/compute", ComputeTourRequest{
		Start: TourLocationInput{Lat: f(51.5), Lng: f(-0.12)},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "At least one destination")
}

func TestHandleComputeTourRejectsTooManyStops(t *testing.T) {
	h, _ := setupTestHandler(t)

	stops := make([]TourLocationInput, MaxTourStops+1)
	for i := range stops {
		stops[i] = TourLocationInput{Lat: f(51.5 + float64(i)*0.01), Lng: f(-0.12)}
	}

	rec := postJSON(t, h.HandleComputeTour, "/api/v1/tours/compute", ComputeTourRequest{
		Start: TourLocationInput{Lat: f(51.5), Lng: f(-0.12)},
		Stops: stops,
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Contains(t, resp.Error.Message, "Too many destinations")
}

func TestHandleComputeTourRejectsInvalidCoordinate(t *testing.T) {
	h, _ := setupTestHandler(t)

	rec := postJSON(t, h.HandleComputeTour, "/api/v1/tours/compute", ComputeTourRequest{
		Start: TourLocationInput{Lat: f(51.5), Lng: f(-0.12)},
		Stops: []TourLocationInput{
			{Lat: f(91.0), Lng: f(0.0)},
		},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "invalid coordinate")
}

func TestHandleComputeTourGeocodingFailure(t *testing.T) {
	h, geocoder := setupTestHandler(t)
	geocoder.failWith = &geocoding.ErrGeocodingFailed{Address: "Nowhere", Reason: "no results found"}

	rec := postJSON(t, h.HandleComputeTour, "/api/v1/tours/compute", ComputeTourRequest{
		Start: TourLocationInput{Address: "Nowhere"},
		Stops: []TourLocationInput{{Lat: f(51.5), Lng: f(-0.12)}},
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "GEOCODING_FAILED", resp.Error.Code)
}

func TestHandleComputeTourInvalidJSON(t *testing.T) {
	h, _ := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tours/compute", bytes.NewBufferString("{broken"))
	rec := httptest.NewRecorder()
	h.HandleComputeTour(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleComputeTourSingleStop(t *testing.T) {
	h, _ := setupTestHandler(t)

	rec := postJSON(t, h.HandleComputeTour, "/api/v1/tours/compute", ComputeTourRequest{
		Start: TourLocationInput{Lat: f(51.5), Lng: f(-0.12)},
		Stops: []TourLocationInput{{Lat: f(51.6), Lng: f(-0.10)}},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ComputeTourResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []int{0}, resp.Comparison.NearestNeighbour.Order)
	assert.Equal(t, []int{0}, resp.Comparison.BruteForce.Order)
	assert.Zero(t, resp.Comparison.GapPercent)
}

// ==================== Plans ====================

func createPlanViaAPI(t *testing.T, h *Handler, name string) models.Plan {
	t.Helper()

	rec := postJSON(t, h.HandleCreatePlan, "/api/v1/plans", models.Plan{
		Name:  name,
		Start: models.Location{Label: "Home", Lat: 51.5, Lng: -0.12},
		Stops: []models.Location{
			{Label: "A", Lat: 51.52, Lng: -0.08},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var plan models.Plan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	return plan
}

func TestHandleCreateAndGetPlan(t *testing.T) {
	h, _ := setupTestHandler(t)

	created := createPlanViaAPI(t, h, "Friday round")
	require.NotZero(t, created.ID)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/plans/%d", created.ID), nil)
	rec := httptest.NewRecorder()
	h.HandleGetPlan(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Plan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Friday round", got.Name)
}

func TestHandleCreatePlanValidation(t *testing.T) {
	h, _ := setupTestHandler(t)

	rec := postJSON(t, h.HandleCreatePlan, "/api/v1/plans", models.Plan{Name: ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, h.HandleCreatePlan, "/api/v1/plans", models.Plan{Name: "No stops"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Contains(t, resp.Error.Message, "destination")
}

func TestHandleGetPlanNotFound(t *testing.T) {
	h, _ := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans/999", nil)
	rec := httptest.NewRecorder()
	h.HandleGetPlan(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestHandleGetPlanInvalidID(t *testing.T) {
	h, _ := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans/abc", nil)
	rec := httptest.NewRecorder()
	h.HandleGetPlan(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListPlans(t *testing.T) {
	h, _ := setupTestHandler(t)

	createPlanViaAPI(t, h, "Weekend errands")
	createPlanViaAPI(t, h, "Client visits")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans?search=week", nil)
	rec := httptest.NewRecorder()
	h.HandleListPlans(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var plans []models.Plan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plans))
	require.Len(t, plans, 1)
	assert.Equal(t, "Weekend errands", plans[0].Name)
}

func TestHandleListPlansEmpty(t *testing.T) {
	h, _ := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
	rec := httptest.NewRecorder()
	h.HandleListPlans(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestHandleUpdatePlan(t *testing.T) {
	h, _ := setupTestHandler(t)

	created := createPlanViaAPI(t, h, "Original")
	created.Name = "Renamed"

	data, err := json.Marshal(created)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/v1/plans/%d", created.ID), bytes.NewReader(data))
	rec := httptest.NewRecorder()
	h.HandleUpdatePlan(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Plan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Renamed", updated.Name)
}

func TestHandleDeletePlan(t *testing.T) {
	h, _ := setupTestHandler(t)

	created := createPlanViaAPI(t, h, "Doomed")

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/v1/plans/%d", created.ID), nil)
	rec := httptest.NewRecorder()
	h.HandleDeletePlan(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/v1/plans/%d", created.ID), nil)
	rec = httptest.NewRecorder()
	h.HandleDeletePlan(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

// ==================== Address search ====================

func TestHandleAddressSearch(t *testing.T) {
	h, _ := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/address-search?address=Westminster", nil)
	rec := httptest.NewRecorder()
	h.HandleAddressSearch(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var results []AddressSuggestion
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "Westminster, London", results[0].DisplayName)
	assert.InDelta(t, 51.5034, results[0].Lat, 1e-9)
}

func TestHandleAddressSearchShortQuery(t *testing.T) {
	h, geocoder := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/address-search?address=ab", nil)
	rec := httptest.NewRecorder()
	h.HandleAddressSearch(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
	assert.Zero(t, geocoder.calls)
}

func TestHandleAddressSearchFailureReturnsEmpty(t *testing.T) {
	h, geocoder := setupTestHandler(t)
	geocoder.failWith = &geocoding.ErrGeocodingFailed{Address: "x", Reason: "HTTP 500"}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/address-search?address=Westminster", nil)
	rec := httptest.NewRecorder()
	h.HandleAddressSearch(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

// ==================== Health ====================

func TestHandleHealthCheck(t *testing.T) {
	h, _ := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	h.HandleHealthCheck(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
