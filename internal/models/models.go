package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Post statuses. Nothing currently moves a post away from active.
const (
	PostStatusActive = "active"
)

// JoinRequestStatus is the lifecycle state of a join request
type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestAccepted JoinRequestStatus = "accepted"
	JoinRequestRejected JoinRequestStatus = "rejected"
)

// User represents an anonymous user identity
type User struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// TripPost represents a shareable trip with membership
type TripPost struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	UserName         string    `json:"userName"`
	Destination      string    `json:"destination"`
	StartDate        string    `json:"startDate"`
	EndDate          string    `json:"endDate"`
	TripType         string    `json:"tripType"`
	Budget           string    `json:"budget"`
	Description      string    `json:"description"`
	AllowMultiple    bool      `json:"allowMultiple"`
	MaxParticipants  int       `json:"maxParticipants"`
	Status           string    `json:"status,omitempty"`
	JoinedUsers      []string  `json:"joinedUsers"`
	JoinRequestCount int       `json:"joinRequestCount"`
	CreatedAt        time.Time `json:"createdAt"`
}

// IsActive treats an unset status as active.
func (p *TripPost) IsActive() bool {
	return p.Status == "" || p.Status == PostStatusActive
}

// HasMember reports whether userID is in the joined users list
func (p *TripPost) HasMember(userID string) bool {
	for _, id := range p.JoinedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// JoinRequest represents a user's ask to join a trip post
type JoinRequest struct {
	ID          string            `json:"id"`
	PostID      string            `json:"postId"`
	UserID      string            `json:"userId"`
	UserName    string            `json:"userName"`
	Message     string            `json:"message"`
	Status      JoinRequestStatus `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
	RespondedAt *time.Time        `json:"respondedAt,omitempty"`
}

// SharedPlan is the members-only planning space of a trip post
type SharedPlan struct {
	PostID          string     `json:"postId"`
	Members         []string   `json:"members"`
	Activities      []PlanItem `json:"activities"`
	Notes           []PlanItem `json:"notes"`
	BudgetBreakdown []PlanItem `json:"budgetBreakdown"`
	Itinerary       *Itinerary `json:"itinerary,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// PlanItem is an activity, note or budget entry. Fields holds the free-form
// payload; it is flattened next to id/userId/createdAt on the wire.
type PlanItem struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	Fields    map[string]interface{}
}

// MarshalJSON flattens Fields into the item object
func (i PlanItem) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(i.Fields)+3)
	for k, v := range i.Fields {
		out[k] = v
	}
	out["id"] = i.ID
	out["userId"] = i.UserID
	out["createdAt"] = i.CreatedAt
	return json.Marshal(out)
}

// UnmarshalJSON splits the reserved keys from the payload
func (i *PlanItem) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if id, ok := raw["id"].(string); ok {
		i.ID = id
	}
	if userID, ok := raw["userId"].(string); ok {
		i.UserID = userID
	}
	if createdAt, ok := raw["createdAt"].(string); ok {
		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return fmt.Errorf("invalid plan item createdAt: %w", err)
		}
		i.CreatedAt = t
	}

	delete(raw, "id")
	delete(raw, "userId")
	delete(raw, "createdAt")
	i.Fields = raw
	return nil
}

// Itinerary is a day-by-day schedule attached to a shared plan
type Itinerary struct {
	Days            []ItineraryDay `json:"days"`
	Tips            string         `json:"tips"`
	EstimatedBudget string         `json:"estimatedBudget"`
	GeneratedAt     time.Time      `json:"generatedAt"`
	GeneratedBy     string         `json:"generatedBy"`
	IsBasic         bool           `json:"isBasic,omitempty"`
}

// ItineraryDay is one day of an itinerary
type ItineraryDay struct {
	Title      string              `json:"title"`
	Date       string              `json:"date"`
	Activities []ItineraryActivity `json:"activities"`
}

// ItineraryActivity is a single scheduled stop
type ItineraryActivity struct {
	Time        string `json:"time"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Cost        string `json:"cost"`
}

// LookingToJoinPost is an intent listing not tied to any trip post
type LookingToJoinPost struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	UserName       string    `json:"userName"`
	Destination    string    `json:"destination"`
	PreferredDates string    `json:"preferredDates"`
	TripType       string    `json:"tripType"`
	Budget         string    `json:"budget"`
	Description    string    `json:"description"`
	FlexibleDates  bool      `json:"flexibleDates"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Profile exposes only public counters about a user
type Profile struct {
	UserID           string `json:"userId"`
	TripCount        int    `json:"tripCount"`
	JoinedTripsCount int    `json:"joinedTripsCount"`
}

// TouristGuide is a local guide listed for a destination
type TouristGuide struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Experience string   `json:"experience" yaml:"experience"`
	Languages  []string `json:"languages" yaml:"languages"`
	Speciality string   `json:"speciality" yaml:"speciality"`
	Rating     float64  `json:"rating" yaml:"rating"`
	Contact    string   `json:"contact" yaml:"contact"`
	Image      string   `json:"image" yaml:"image"`
	Background string   `json:"background" yaml:"background"`
	Price      string   `json:"price" yaml:"price"`
	Reviews    int      `json:"reviews" yaml:"reviews"`
}
