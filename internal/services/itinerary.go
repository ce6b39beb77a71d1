package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"travel-partner-backend/internal/models"

	"github.com/rs/zerolog/log"
)

const (
	defaultItineraryDays = 3
	maxBasicDays         = 7
	maxItineraryDays     = 30
	dateLayout           = "2006-01-02"
)

var codeFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ItineraryRequest holds the trip details used to generate an itinerary.
// Empty fields are taken from the post.
type ItineraryRequest struct {
	UserID      string
	Destination string
	StartDate   string
	EndDate     string
	Days        int
	TripType    string
	Budget      string
}

// ItineraryService generates shared plan itineraries
type ItineraryService struct {
	partners *TravelPartnerService
	llm      ChatCompleter
	now      func() time.Time
}

// NewItineraryService creates a new itinerary service. llm may be nil, in which case
// every itinerary is the basic template.
func NewItineraryService(partners *TravelPartnerService, llm ChatCompleter) *ItineraryService {
	return &ItineraryService{
		partners: partners,
		llm:      llm,
		now:      time.Now,
	}
}

// Generate builds an itinerary for the post and stores it on the shared plan
func (s *ItineraryService) Generate(ctx context.Context, postID string, req ItineraryRequest) (*models.Itinerary, error) {
	post, err := s.partners.CheckMember(postID, req.UserID)
	if err != nil {
		return nil, err
	}
	req = withPostDefaults(req, post)

	var itinerary *models.Itinerary
	if s.llm != nil {
		itinerary, err = s.generateWithLLM(ctx, req)
		if err != nil {
			log.Warn().
				Err(err).
				Str("post_id", postID).
				Msg("Itinerary generation failed, using basic itinerary")
			itinerary = nil
		}
	}
	if itinerary == nil {
		itinerary = BasicItinerary(req)
	}

	itinerary.GeneratedAt = s.now()
	itinerary.GeneratedBy = req.UserID

	return s.partners.SetItinerary(ctx, postID, req.UserID, itinerary)
}

// Draft builds an itinerary that is not attached to any post
func (s *ItineraryService) Draft(ctx context.Context, req ItineraryRequest) (*models.Itinerary, error) {
	if strings.TrimSpace(req.Destination) == "" {
		return nil, validationError("Destination is required")
	}
	req.TripType = orDefault(req.TripType, "Leisure")
	req.Budget = orDefault(req.Budget, "Moderate")
	if req.Days <= 0 {
		req.Days = tripDays(req.StartDate, req.EndDate)
	}

	var itinerary *models.Itinerary
	if s.llm != nil {
		var err error
		itinerary, err = s.generateWithLLM(ctx, req)
		if err != nil {
			log.Warn().
				Err(err).
				Str("destination", req.Destination).
				Msg("Itinerary generation failed, using basic itinerary")
			itinerary = nil
		}
	}
	if itinerary == nil {
		itinerary = BasicItinerary(req)
	}

	itinerary.GeneratedAt = s.now()
	itinerary.GeneratedBy = req.UserID
	return itinerary, nil
}

func withPostDefaults(req ItineraryRequest, post *models.TripPost) ItineraryRequest {
	req.Destination = orDefault(req.Destination, post.Destination)
	req.StartDate = orDefault(req.StartDate, post.StartDate)
	req.EndDate = orDefault(req.EndDate, post.EndDate)
	req.TripType = orDefault(req.TripType, post.TripType)
	req.Budget = orDefault(req.Budget, post.Budget)
	if req.Days <= 0 {
		req.Days = tripDays(req.StartDate, req.EndDate)
	}
	return req
}

// tripDays counts calendar days between two dates inclusive, capped at maxItineraryDays,
// or returns the default.
func tripDays(start, end string) int {
	from, err1 := parseDate(start)
	to, err2 := parseDate(end)
	if err1 != nil || err2 != nil || to.Before(from) {
		return defaultItineraryDays
	}
	return min(int(to.Sub(from).Hours()/24)+1, maxItineraryDays)
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

func (s *ItineraryService) generateWithLLM(ctx context.Context, req ItineraryRequest) (*models.Itinerary, error) {
	content, err := s.llm.Complete(ctx, CompletionRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: "You plan trips in India. Reply with one JSON object and nothing else."},
			{Role: "user", Content: itineraryPrompt(req)},
		},
		Temperature: 0.7,
		MaxTokens:   2000,
		JSONOutput:  true,
	})
	if err != nil {
		return nil, err
	}
	return ParseItinerary(content)
}

func itineraryPrompt(req ItineraryRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan a %d-day trip to %s, India.\n", req.Days, req.Destination)
	fmt.Fprintf(&b, "Trip type: %s\nBudget: %s\nStart date: %s\nEnd date: %s\n\n", req.TripType, req.Budget, req.StartDate, req.EndDate)
	b.WriteString("Return JSON with exactly these keys:\n")
	b.WriteString(`{"days":[{"title":"string","date":"YYYY-MM-DD","activities":[{"time":"HH:MM","name":"string","description":"string","location":"string","cost":"string in INR"}]}],"tips":"string","estimatedBudget":"string"}`)
	fmt.Fprintf(&b, "\n\nGive 3 to 5 activities per day suited to %s travel on a %s budget, with local food and practical tips.",
		strings.ToLower(req.TripType), strings.ToLower(req.Budget))
	return b.String()
}

// ParseItinerary decodes a model reply into an itinerary. The reply must be a JSON
// object, optionally wrapped in a markdown code fence, with at least one day and
// one activity per day.
func ParseItinerary(content string) (*models.Itinerary, error) {
	content = stripCodeFence(content)

	var itinerary models.Itinerary
	if err := json.Unmarshal([]byte(content), &itinerary); err != nil {
		return nil, fmt.Errorf("failed to parse itinerary: %w", err)
	}

	if len(itinerary.Days) == 0 {
		return nil, fmt.Errorf("itinerary has no days")
	}
	for i, day := range itinerary.Days {
		if len(day.Activities) == 0 {
			return nil, fmt.Errorf("itinerary day %d has no activities", i+1)
		}
	}

	itinerary.IsBasic = false
	return &itinerary, nil
}

// BasicItinerary builds the templated itinerary used when no model reply is available
func BasicItinerary(req ItineraryRequest) *models.Itinerary {
	days := req.Days
	if days <= 0 {
		days = defaultItineraryDays
	}
	if days > maxBasicDays {
		days = maxBasicDays
	}

	start, startErr := parseDate(req.StartDate)
	destination := req.Destination

	itinerary := &models.Itinerary{
		Days:            make([]models.ItineraryDay, 0, days),
		Tips:            fmt.Sprintf("Best time to visit %s varies by season. Carry comfortable walking shoes and stay hydrated. Always keep some cash handy as not all places accept cards.", destination),
		EstimatedBudget: estimatedBudget(req.Budget),
		IsBasic:         true,
	}

	for i := 0; i < days; i++ {
		date := ""
		if startErr == nil {
			date = start.AddDate(0, 0, i).Format(dateLayout)
		}
		itinerary.Days = append(itinerary.Days, models.ItineraryDay{
			Title: fmt.Sprintf("Exploring %s - Day %d", destination, i+1),
			Date:  date,
			Activities: []models.ItineraryActivity{
				{
					Time:        "09:00",
					Name:        "Morning Sightseeing",
					Description: fmt.Sprintf("Explore popular attractions in %s", destination),
					Location:    destination,
					Cost:        "Varies",
				},
				{
					Time:        "13:00",
					Name:        "Local Lunch",
					Description: "Try local cuisine at a popular restaurant",
					Location:    fmt.Sprintf("Local restaurant in %s", destination),
					Cost:        mealCost(req.Budget),
				},
				{
					Time:        "15:00",
					Name:        "Afternoon Activity",
					Description: afternoonActivity(req.TripType),
					Location:    destination,
					Cost:        "Varies",
				},
				{
					Time:        "19:00",
					Name:        "Evening Exploration",
					Description: "Enjoy the evening atmosphere and local markets",
					Location:    fmt.Sprintf("%s city center", destination),
					Cost:        "Varies",
				},
			},
		})
	}

	return itinerary
}

func mealCost(budget string) string {
	switch budget {
	case "Budget-friendly":
		return "₹200-400"
	case "Moderate":
		return "₹500-800"
	default:
		return "₹1000+"
	}
}

func estimatedBudget(budget string) string {
	switch budget {
	case "Budget-friendly":
		return "₹5,000-10,000 per person"
	case "Moderate":
		return "₹15,000-25,000 per person"
	default:
		return "₹30,000+ per person"
	}
}

func afternoonActivity(tripType string) string {
	switch tripType {
	case "Adventure":
		return "Adventure activity"
	case "Cultural":
		return "Cultural experience"
	default:
		return "Leisure time"
	}
}
