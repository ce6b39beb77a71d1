package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"travel-partner-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// InsightHandler serves destination recommendations, crowd estimates, tourist guides,
// budget estimates and standalone itineraries
type InsightHandler struct {
	insights    *services.InsightService
	itineraries *services.ItineraryService
}

// NewInsightHandler creates a new insight handler
func NewInsightHandler(insights *services.InsightService, itineraries *services.ItineraryService) *InsightHandler {
	return &InsightHandler{
		insights:    insights,
		itineraries: itineraries,
	}
}

// RecommendationRequest represents the request body for a destination analysis
type RecommendationRequest struct {
	Destination string          `json:"destination" validate:"required"`
	Dates       json.RawMessage `json:"dates"`
	Interests   []string        `json:"interests"`
}

// CrowdDensityRequest represents the request body for a crowd estimate
type CrowdDensityRequest struct {
	PlaceID  string `json:"placeId"`
	Location string `json:"location"`
	Name     string `json:"name"`
}

// BudgetRequest represents the request body for the budget calculator
type BudgetRequest struct {
	Itinerary      json.RawMessage `json:"itinerary"`
	NumberOfPeople int             `json:"numberOfPeople" validate:"gte=0,lte=100"`
	SplitEqually   bool            `json:"splitEqually"`
}

// DraftItineraryRequest represents the request body for an itinerary outside any post
type DraftItineraryRequest struct {
	UserID      string   `json:"userId"`
	Destination string   `json:"destination" validate:"required"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Days        int      `json:"days" validate:"gte=0,lte=30"`
	Interests   []string `json:"interests"`
	TripType    string   `json:"tripType"`
	Budget      string   `json:"budget"`
}

// Recommend handles POST /api/recommendations/analyze
func (h *InsightHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, requestError(err, "Destination is required"), http.StatusBadRequest)
		return
	}

	rec, err := h.insights.Recommend(r.Context(), services.RecommendationRequest{
		Destination: req.Destination,
		Dates:       datesText(req.Dates),
		Interests:   req.Interests,
	})
	if err != nil {
		respondServiceError(w, err, "Failed to generate recommendations")
		return
	}

	respondJSON(w, envelope{
		"destination":              rec.Destination,
		"weatherForecast":          rec.WeatherForecast,
		"crowdAnalysis":            rec.CrowdAnalysis,
		"transportRecommendations": rec.TransportRecommendations,
		"climateTrends":            rec.ClimateTrends,
		"bestVisitScore":           rec.BestVisitScore,
		"generatedAt":              rec.GeneratedAt,
	})
}

// CrowdDensity handles POST /api/crowd/density
func (h *InsightHandler) CrowdDensity(w http.ResponseWriter, r *http.Request) {
	var req CrowdDensityRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, requestError(err, "Place name or location is required"), http.StatusBadRequest)
		return
	}

	report, err := h.insights.CrowdDensity(r.Context(), services.CrowdRequest{
		PlaceID:  req.PlaceID,
		Location: req.Location,
		Name:     req.Name,
	})
	if err != nil {
		respondServiceError(w, err, "Failed to get crowd density data")
		return
	}

	respondJSON(w, envelope{
		"placeName":    report.PlaceName,
		"currentCrowd": report.CurrentCrowd,
		"analysis":     report.Analysis,
		"peakHours":    report.PeakHours,
		"bestTimes":    report.BestTimes,
	})
}

// TouristGuides handles GET /api/tourist-guides/{location}
func (h *InsightHandler) TouristGuides(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, envelope{"guides": h.insights.TouristGuides(chi.URLParam(r, "location"))})
}

// Budget handles POST /api/budget/calculate
func (h *InsightHandler) Budget(w http.ResponseWriter, r *http.Request) {
	var req BudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, requestError(err, "Number of people must be between 0 and 100"), http.StatusBadRequest)
		return
	}

	estimate, err := h.insights.EstimateBudget(r.Context(), services.BudgetRequest{
		Itinerary:      req.Itinerary,
		NumberOfPeople: req.NumberOfPeople,
		SplitEqually:   req.SplitEqually,
	})
	if err != nil {
		respondServiceError(w, err, "Failed to calculate budget")
		return
	}

	respondJSON(w, envelope{
		"budgetBreakdown": estimate.BudgetBreakdown,
		"numberOfPeople":  estimate.NumberOfPeople,
		"generatedAt":     estimate.GeneratedAt,
	})
}

// DraftItinerary handles POST /api/generate-itinerary
func (h *InsightHandler) DraftItinerary(w http.ResponseWriter, r *http.Request) {
	var req DraftItineraryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, requestError(err, "Destination is required"), http.StatusBadRequest)
		return
	}

	tripType := req.TripType
	if tripType == "" && len(req.Interests) > 0 {
		tripType = strings.Join(req.Interests, ", ")
	}

	itinerary, err := h.itineraries.Draft(r.Context(), services.ItineraryRequest{
		UserID:      actingUser(r, req.UserID),
		Destination: req.Destination,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Days:        req.Days,
		TripType:    tripType,
		Budget:      req.Budget,
	})
	if err != nil {
		respondServiceError(w, err, "Failed to generate itinerary")
		return
	}

	respondJSON(w, envelope{"itinerary": itinerary})
}

// datesText accepts dates as a JSON string or any other JSON value
func datesText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
