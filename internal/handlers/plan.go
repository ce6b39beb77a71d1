package handlers

import (
	"net/http"

	"travel-partner-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// PlanHandler handles the shared plan of a trip
type PlanHandler struct {
	partners    *services.TravelPartnerService
	itineraries *services.ItineraryService
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(partners *services.TravelPartnerService, itineraries *services.ItineraryService) *PlanHandler {
	return &PlanHandler{
		partners:    partners,
		itineraries: itineraries,
	}
}

// AddPlanItemRequest represents the request body for adding to the shared plan
type AddPlanItemRequest struct {
	UserID string                 `json:"userId"`
	Type   string                 `json:"type" validate:"oneof=activity note budget"`
	Data   map[string]interface{} `json:"data"`
}

// GenerateItineraryRequest represents the request body for itinerary generation.
// Empty fields are taken from the post.
type GenerateItineraryRequest struct {
	UserID      string `json:"userId"`
	Destination string `json:"destination"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Days        int    `json:"days" validate:"gte=0,lte=30"`
	TripType    string `json:"tripType"`
	Budget      string `json:"budget"`
}

// GetPlan handles GET /api/travel-posts/{postId}/plan
func (h *PlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	userID := actingUser(r, r.URL.Query().Get("userId"))
	plan, post, err := h.partners.GetPlan(r.Context(), chi.URLParam(r, "postId"), userID)
	if err != nil {
		respondServiceError(w, err, "Failed to fetch shared plan")
		return
	}

	respondJSON(w, envelope{"plan": plan, "post": post})
}

// AddPlanItem handles POST /api/travel-posts/{postId}/plan
func (h *PlanHandler) AddPlanItem(w http.ResponseWriter, r *http.Request) {
	var req AddPlanItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, requestError(err, `Invalid type. Use "activity", "note", or "budget"`), http.StatusBadRequest)
		return
	}

	item, plan, err := h.partners.AddPlanItem(r.Context(), chi.URLParam(r, "postId"), actingUser(r, req.UserID), req.Type, req.Data)
	if err != nil {
		respondServiceError(w, err, "Failed to add to shared plan")
		return
	}

	respondJSON(w, envelope{"item": item, "plan": plan})
}

// GenerateItinerary handles POST /api/travel-posts/{postId}/itinerary
func (h *PlanHandler) GenerateItinerary(w http.ResponseWriter, r *http.Request) {
	var req GenerateItineraryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, requestError(err, "Days must be between 0 and 30"), http.StatusBadRequest)
		return
	}

	itinerary, err := h.itineraries.Generate(r.Context(), chi.URLParam(r, "postId"), services.ItineraryRequest{
		UserID:      actingUser(r, req.UserID),
		Destination: req.Destination,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Days:        req.Days,
		TripType:    req.TripType,
		Budget:      req.Budget,
	})
	if err != nil {
		respondServiceError(w, err, "Failed to create itinerary")
		return
	}

	respondJSON(w, envelope{"itinerary": itinerary})
}
