package handlers

import (
	"errors"
	"net/http"

	"travel-partner-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// AssistantHandler serves the chat assistant, weather proxy and health check
type AssistantHandler struct {
	assistant *services.AssistantService
	weather   *services.WeatherService
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(assistant *services.AssistantService, weather *services.WeatherService) *AssistantHandler {
	return &AssistantHandler{
		assistant: assistant,
		weather:   weather,
	}
}

// ChatRequest represents the request body for the chat assistant
type ChatRequest struct {
	Message  string `json:"message" validate:"required"`
	Language string `json:"language"`
}

// Health handles GET /api/health
func (h *AssistantHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{
		"status":  "OK",
		"message": "Travel partner backend is running",
	})
}

// Chat handles POST /api/chatbot
func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, requestError(err, "Message is required"), http.StatusBadRequest)
		return
	}

	reply, err := h.assistant.Chat(r.Context(), req.Message, req.Language)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			respondError(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Msg("Chatbot request failed")
		writeJSON(w, http.StatusInternalServerError, envelope{
			"success":       false,
			"error":         "Failed to get chatbot response",
			"fallbackReply": services.ChatFallbackReply,
		})
		return
	}

	respondJSON(w, envelope{"reply": reply})
}

// Weather handles GET /api/weather/{location}
func (h *AssistantHandler) Weather(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	report, err := h.weather.GetWeather(r.Context(), chi.URLParam(r, "location"), query.Get("lat"), query.Get("lon"))
	if err != nil {
		respondServiceError(w, err, "Failed to fetch weather data")
		return
	}

	respondJSON(w, envelope{"current": report.Current, "forecast": report.Forecast})
}
