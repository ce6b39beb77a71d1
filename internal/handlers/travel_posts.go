package handlers

import (
	"errors"
	"net/http"

	"travel-partner-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// TravelPostHandler handles trip posts, join requests and looking-to-join listings
type TravelPostHandler struct {
	partners *services.TravelPartnerService
}

// NewTravelPostHandler creates a new travel post handler
func NewTravelPostHandler(partners *services.TravelPartnerService) *TravelPostHandler {
	return &TravelPostHandler{
		partners: partners,
	}
}

// CreatePostRequest represents the request body for creating a trip post
type CreatePostRequest struct {
	UserID          string `json:"userId"`
	UserName        string `json:"userName"`
	Destination     string `json:"destination" validate:"required"`
	StartDate       string `json:"startDate" validate:"required"`
	EndDate         string `json:"endDate" validate:"required"`
	TripType        string `json:"tripType"`
	Budget          string `json:"budget"`
	Description     string `json:"description"`
	AllowMultiple   *bool  `json:"allowMultiple"`
	MaxParticipants int    `json:"maxParticipants"`
}

// JoinRequestBody represents the request body for asking to join a trip
type JoinRequestBody struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Message  string `json:"message"`
}

// RespondRequest represents the owner's answer to a join request
type RespondRequest struct {
	Action string `json:"action" validate:"oneof=accept reject"`
	UserID string `json:"userId"`
}

// LookingToJoinRequest represents the request body for a looking-to-join listing
type LookingToJoinRequest struct {
	UserID         string `json:"userId"`
	UserName       string `json:"userName"`
	Destination    string `json:"destination"`
	PreferredDates string `json:"preferredDates"`
	TripType       string `json:"tripType"`
	Budget         string `json:"budget"`
	Description    string `json:"description"`
	FlexibleDates  *bool  `json:"flexibleDates"`
}

// requestError returns message for failed validation and a generic message for malformed JSON
func requestError(err error, message string) string {
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) {
		return message
	}
	return "Invalid request body"
}

// CreatePost handles POST /api/travel-posts
func (h *TravelPostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, requestError(err, "Missing required fields"), http.StatusBadRequest)
		return
	}

	post, err := h.partners.CreatePost(r.Context(), services.CreatePostInput{
		UserID:          actingUser(r, req.UserID),
		UserName:        req.UserName,
		Destination:     req.Destination,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		TripType:        req.TripType,
		Budget:          req.Budget,
		Description:     req.Description,
		AllowMultiple:   req.AllowMultiple,
		MaxParticipants: req.MaxParticipants,
	})
	if err != nil {
		respondServiceError(w, err, "Failed to create travel post")
		return
	}

	respondJSON(w, envelope{"post": post})
}

// ListPosts handles GET /api/travel-posts
func (h *TravelPostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	posts, err := h.partners.ListPosts(services.PostFilter{
		Status:      query.Get("status"),
		Destination: query.Get("destination"),
		TripType:    query.Get("tripType"),
		UserID:      query.Get("userId"),
	})
	if err != nil {
		respondServiceError(w, err, "Failed to fetch travel posts")
		return
	}

	respondJSON(w, envelope{"posts": posts})
}

// GetPost handles GET /api/travel-posts/{postId}
func (h *TravelPostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.partners.GetPost(chi.URLParam(r, "postId"))
	if err != nil {
		respondServiceError(w, err, "Failed to fetch travel post")
		return
	}

	respondJSON(w, envelope{"post": post})
}

// CreateJoinRequest handles POST /api/travel-posts/{postId}/join-request
func (h *TravelPostHandler) CreateJoinRequest(w http.ResponseWriter, r *http.Request) {
	var req JoinRequestBody
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, requestError(err, "User ID is required"), http.StatusBadRequest)
		return
	}

	request, err := h.partners.CreateJoinRequest(r.Context(), chi.URLParam(r, "postId"), services.JoinRequestInput{
		UserID:   actingUser(r, req.UserID),
		UserName: req.UserName,
		Message:  req.Message,
	})
	if err != nil {
		respondServiceError(w, err, "Failed to send join request")
		return
	}

	respondJSON(w, envelope{"request": request})
}

// ListJoinRequests handles GET /api/travel-posts/{postId}/join-requests
func (h *TravelPostHandler) ListJoinRequests(w http.ResponseWriter, r *http.Request) {
	userID := actingUser(r, r.URL.Query().Get("userId"))
	requests, err := h.partners.ListJoinRequests(chi.URLParam(r, "postId"), userID)
	if err != nil {
		respondServiceError(w, err, "Failed to fetch join requests")
		return
	}

	respondJSON(w, envelope{"requests": requests})
}

// RespondToJoinRequest handles POST /api/travel-posts/{postId}/join-requests/{requestId}/respond
func (h *TravelPostHandler) RespondToJoinRequest(w http.ResponseWriter, r *http.Request) {
	var req RespondRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, requestError(err, `Invalid action. Use "accept" or "reject"`), http.StatusBadRequest)
		return
	}

	postID := chi.URLParam(r, "postId")
	requestID := chi.URLParam(r, "requestId")
	userID := actingUser(r, req.UserID)

	request, post, err := h.partners.RespondToJoinRequest(r.Context(), postID, requestID, req.Action, userID)
	if err != nil {
		if errors.Is(err, services.ErrCapacity) {
			log.Info().
				Str("post_id", postID).
				Str("request_id", requestID).
				Msg(err.Error())
		}
		respondServiceError(w, err, "Failed to respond to join request")
		return
	}

	respondJSON(w, envelope{"request": request, "post": post})
}

// CreateLookingToJoin handles POST /api/travel-posts/looking-to-join
func (h *TravelPostHandler) CreateLookingToJoin(w http.ResponseWriter, r *http.Request) {
	var req LookingToJoinRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, requestError(err, "User ID is required"), http.StatusBadRequest)
		return
	}

	post, err := h.partners.CreateLookingToJoinPost(r.Context(), services.LookingToJoinInput{
		UserID:         actingUser(r, req.UserID),
		UserName:       req.UserName,
		Destination:    req.Destination,
		PreferredDates: req.PreferredDates,
		TripType:       req.TripType,
		Budget:         req.Budget,
		Description:    req.Description,
		FlexibleDates:  req.FlexibleDates,
	})
	if err != nil {
		respondServiceError(w, err, "Failed to create looking-to-join post")
		return
	}

	respondJSON(w, envelope{"post": post})
}

// ListLookingToJoin handles GET /api/travel-posts/looking-to-join
func (h *TravelPostHandler) ListLookingToJoin(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	posts, err := h.partners.ListLookingToJoinPosts(services.LookingToJoinFilter{
		Destination: query.Get("destination"),
		TripType:    query.Get("tripType"),
		UserID:      query.Get("userId"),
	})
	if err != nil {
		respondServiceError(w, err, "Failed to fetch looking-to-join posts")
		return
	}

	respondJSON(w, envelope{"posts": posts})
}
