package handlers

import (
	"net/http"

	"travel-partner-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
	partners    *services.TravelPartnerService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, partners *services.TravelPartnerService) *UserHandler {
	return &UserHandler{
		userService: userService,
		partners:    partners,
	}
}

// CreateUser handles POST /api/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if !h.userService.Enabled() {
		respondError(w, "User registration is not configured", http.StatusServiceUnavailable)
		return
	}

	user, err := h.userService.CreateUser()
	if err != nil {
		log.Error().Err(err).Msg("Failed to create user")
		respondError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("user_id", user.ID).
		Msg("User created")

	respondJSON(w, envelope{"user": user})
}

// GetProfile handles GET /api/users/{userId}/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.partners.GetProfile(chi.URLParam(r, "userId"))
	if err != nil {
		respondServiceError(w, err, "Failed to fetch user profile")
		return
	}

	respondJSON(w, envelope{"profile": profile})
}
