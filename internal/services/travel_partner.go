package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"travel-partner-backend/internal/models"
	"travel-partner-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	defaultUserName        = "Anonymous"
	defaultTripType        = "Leisure"
	defaultBudget          = "Flexible"
	defaultMaxParticipants = 10
	anyDestination         = "Any"
)

// Plan item types accepted by AddPlanItem
const (
	PlanItemActivity = "activity"
	PlanItemNote     = "note"
	PlanItemBudget   = "budget"
)

// Join request responses
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

// Notifier pushes real-time events to connected users
type Notifier interface {
	Notify(userID string, message WSMessage)
}

// TravelPartnerService implements trip posts, join requests and shared plans
type TravelPartnerService struct {
	store    repository.Store
	notifier Notifier
	now      func() time.Time
}

// NewTravelPartnerService creates a new travel partner service. notifier may be nil.
func NewTravelPartnerService(store repository.Store, notifier Notifier) *TravelPartnerService {
	return &TravelPartnerService{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// CreatePostInput holds the fields of a new trip post
type CreatePostInput struct {
	UserID          string
	UserName        string
	Destination     string
	StartDate       string
	EndDate         string
	TripType        string
	Budget          string
	Description     string
	AllowMultiple   *bool
	MaxParticipants int
}

// PostFilter narrows ListPosts. Empty fields match everything except Status, which defaults to active.
type PostFilter struct {
	Status      string
	Destination string
	TripType    string
	UserID      string
}

// JoinRequestInput holds the fields of a join request
type JoinRequestInput struct {
	UserID   string
	UserName string
	Message  string
}

// LookingToJoinInput holds the fields of a looking-to-join post
type LookingToJoinInput struct {
	UserID         string
	UserName       string
	Destination    string
	PreferredDates string
	TripType       string
	Budget         string
	Description    string
	FlexibleDates  *bool
}

// LookingToJoinFilter narrows ListLookingToJoinPosts
type LookingToJoinFilter struct {
	Destination string
	TripType    string
	UserID      string
}

func newID(prefix string) string {
	return prefix + "_" + uuid.New().String()
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// CreatePost creates a trip post owned by input.UserID
func (s *TravelPartnerService) CreatePost(ctx context.Context, input CreatePostInput) (*models.TripPost, error) {
	if input.UserID == "" || input.Destination == "" || input.StartDate == "" || input.EndDate == "" {
		return nil, validationError("Missing required fields")
	}

	allowMultiple := true
	if input.AllowMultiple != nil {
		allowMultiple = *input.AllowMultiple
	}
	maxParticipants := input.MaxParticipants
	if maxParticipants <= 0 {
		maxParticipants = defaultMaxParticipants
	}

	post := &models.TripPost{
		ID:               newID("post"),
		UserID:           input.UserID,
		UserName:         orDefault(input.UserName, defaultUserName),
		Destination:      input.Destination,
		StartDate:        input.StartDate,
		EndDate:          input.EndDate,
		TripType:         orDefault(input.TripType, defaultTripType),
		Budget:           orDefault(input.Budget, defaultBudget),
		Description:      input.Description,
		AllowMultiple:    allowMultiple,
		MaxParticipants:  maxParticipants,
		Status:           models.PostStatusActive,
		JoinedUsers:      []string{input.UserID},
		JoinRequestCount: 0,
		CreatedAt:        s.now(),
	}

	var result *models.TripPost
	err := s.store.Update(ctx, func(snap *repository.Snapshot) error {
		snap.TravelPosts = append(snap.TravelPosts, post)
		result = clonePost(post)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("post_id", result.ID).
		Str("user_id", result.UserID).
		Str("destination", result.Destination).
		Msg("Travel post created")

	return result, nil
}

// ListPosts returns posts matching every filter, newest first
func (s *TravelPartnerService) ListPosts(filter PostFilter) ([]*models.TripPost, error) {
	destination := strings.ToLower(filter.Destination)
	posts := []*models.TripPost{}

	err := s.store.View(func(snap *repository.Snapshot) error {
		for _, post := range snap.TravelPosts {
			if filter.Status != "" {
				if post.Status != filter.Status {
					continue
				}
			} else if !post.IsActive() {
				continue
			}
			if destination != "" && !strings.Contains(strings.ToLower(post.Destination), destination) {
				continue
			}
			if filter.TripType != "" && post.TripType != filter.TripType {
				continue
			}
			if filter.UserID != "" && post.UserID != filter.UserID {
				continue
			}
			posts = append(posts, clonePost(post))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

// GetPost returns a single post
func (s *TravelPartnerService) GetPost(postID string) (*models.TripPost, error) {
	var post *models.TripPost
	err := s.store.View(func(snap *repository.Snapshot) error {
		found := snap.FindPost(postID)
		if found == nil {
			return notFoundError("Post not found")
		}
		post = clonePost(found)
		return nil
	})
	return post, err
}

// CreateJoinRequest records a pending request from input.UserID to join the post
func (s *TravelPartnerService) CreateJoinRequest(ctx context.Context, postID string, input JoinRequestInput) (*models.JoinRequest, error) {
	if input.UserID == "" {
		return nil, validationError("User ID is required")
	}

	var request models.JoinRequest
	var ownerID string
	err := s.store.Update(ctx, func(snap *repository.Snapshot) error {
		post := snap.FindPost(postID)
		if post == nil {
			return notFoundError("Post not found")
		}
		if post.HasMember(input.UserID) {
			return validationError("You have already joined this trip")
		}
		if snap.PendingRequest(postID, input.UserID) != nil {
			return validationError("You have already sent a join request")
		}

		created := &models.JoinRequest{
			ID:        newID("request"),
			PostID:    postID,
			UserID:    input.UserID,
			UserName:  orDefault(input.UserName, defaultUserName),
			Message:   input.Message,
			Status:    models.JoinRequestPending,
			CreatedAt: s.now(),
		}
		snap.JoinRequests = append(snap.JoinRequests, created)
		snap.RecountPending(post)
		request = *created
		ownerID = post.UserID
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("post_id", postID).
		Str("request_id", request.ID).
		Str("user_id", request.UserID).
		Msg("Join request created")

	s.notify(ownerID, WSMessage{Type: MessageJoinRequestReceived, PostID: postID, Data: request})
	return &request, nil
}

// ListJoinRequests returns all requests to the owner and only their own to anyone else
func (s *TravelPartnerService) ListJoinRequests(postID, userID string) ([]*models.JoinRequest, error) {
	requests := []*models.JoinRequest{}
	err := s.store.View(func(snap *repository.Snapshot) error {
		post := snap.FindPost(postID)
		if post == nil {
			return notFoundError("Post not found")
		}
		ownerView := userID != "" && userID == post.UserID
		for _, req := range snap.JoinRequests {
			if req.PostID != postID {
				continue
			}
			if !ownerView && req.UserID != userID {
				continue
			}
			copied := *req
			requests = append(requests, &copied)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// RespondToJoinRequest accepts or rejects a pending request. Only the post owner may respond.
func (s *TravelPartnerService) RespondToJoinRequest(ctx context.Context, postID, requestID, action, userID string) (*models.JoinRequest, *models.TripPost, error) {
	if action != ActionAccept && action != ActionReject {
		return nil, nil, validationError(`Invalid action. Use "accept" or "reject"`)
	}

	var request *models.JoinRequest
	var post *models.TripPost
	err := s.store.Update(ctx, func(snap *repository.Snapshot) error {
		found := snap.FindPost(postID)
		if found == nil {
			return notFoundError("Post not found")
		}
		if userID != found.UserID {
			return forbiddenError("Only post owner can respond to requests")
		}
		req := snap.FindJoinRequest(postID, requestID)
		if req == nil {
			return notFoundError("Join request not found")
		}
		if req.Status != models.JoinRequestPending {
			return validationError("Request has already been responded to")
		}

		now := s.now()
		if action == ActionAccept {
			if !found.AllowMultiple && len(found.JoinedUsers) > 1 {
				return capacityError("Trip is full")
			}
			if len(found.JoinedUsers) >= found.MaxParticipants {
				return capacityError("Trip has reached maximum participants")
			}

			req.Status = models.JoinRequestAccepted
			if !found.HasMember(req.UserID) {
				found.JoinedUsers = append(found.JoinedUsers, req.UserID)
			}

			plan, ok := snap.SharedPlans[postID]
			if !ok {
				plan = newSharedPlan(postID, []string{found.UserID, req.UserID}, now)
				snap.SharedPlans[postID] = plan
			} else {
				if !containsString(plan.Members, req.UserID) {
					plan.Members = append(plan.Members, req.UserID)
				}
				plan.UpdatedAt = now
			}
		} else {
			req.Status = models.JoinRequestRejected
		}
		req.RespondedAt = &now
		snap.RecountPending(found)

		copied := *req
		request = &copied
		post = clonePost(found)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	log.Info().
		Str("post_id", postID).
		Str("request_id", requestID).
		Str("status", string(request.Status)).
		Msg("Join request answered")

	s.notify(request.UserID, WSMessage{Type: MessageJoinRequestResponded, PostID: postID, Data: *request})
	return request, post, nil
}

// GetPlan returns the shared plan for members, creating it on first access
func (s *TravelPartnerService) GetPlan(ctx context.Context, postID, userID string) (*models.SharedPlan, *models.TripPost, error) {
	var plan *models.SharedPlan
	var post *models.TripPost
	exists := false

	err := s.store.View(func(snap *repository.Snapshot) error {
		found, err := memberPost(snap, postID, userID, "You must be a member of this trip to view the plan")
		if err != nil {
			return err
		}
		post = clonePost(found)
		if existing, ok := snap.SharedPlans[postID]; ok {
			plan = clonePlan(existing)
			exists = true
		}
		return nil
	})
	if err != nil || exists {
		return plan, post, err
	}

	err = s.store.Update(ctx, func(snap *repository.Snapshot) error {
		found, err := memberPost(snap, postID, userID, "You must be a member of this trip to view the plan")
		if err != nil {
			return err
		}
		plan = clonePlan(ensurePlan(snap, found, s.now()))
		post = clonePost(found)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return plan, post, nil
}

// AddPlanItem appends an activity, note or budget item to the shared plan
func (s *TravelPartnerService) AddPlanItem(ctx context.Context, postID, userID, itemType string, data map[string]interface{}) (*models.PlanItem, *models.SharedPlan, error) {
	if itemType != PlanItemActivity && itemType != PlanItemNote && itemType != PlanItemBudget {
		return nil, nil, validationError(`Invalid type. Use "activity", "note", or "budget"`)
	}

	fields := make(map[string]interface{}, len(data))
	for k, v := range data {
		fields[k] = v
	}

	var item *models.PlanItem
	var plan *models.SharedPlan
	var members []string
	err := s.store.Update(ctx, func(snap *repository.Snapshot) error {
		post, err := memberPost(snap, postID, userID, "You must be a member of this trip")
		if err != nil {
			return err
		}

		now := s.now()
		current := ensurePlan(snap, post, now)
		newItem := models.PlanItem{
			ID:        newID("item"),
			UserID:    userID,
			CreatedAt: now,
			Fields:    fields,
		}
		switch itemType {
		case PlanItemActivity:
			current.Activities = append(current.Activities, newItem)
		case PlanItemNote:
			current.Notes = append(current.Notes, newItem)
		case PlanItemBudget:
			current.BudgetBreakdown = append(current.BudgetBreakdown, newItem)
		}
		current.UpdatedAt = now

		item = &newItem
		plan = clonePlan(current)
		members = append([]string(nil), post.JoinedUsers...)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	log.Info().
		Str("post_id", postID).
		Str("user_id", userID).
		Str("type", itemType).
		Str("item_id", item.ID).
		Msg("Plan item added")

	s.notifyMembers(members, userID, WSMessage{Type: MessagePlanUpdated, PostID: postID, Data: *item})
	return item, plan, nil
}

// CheckMember returns an error unless userID belongs to the post
func (s *TravelPartnerService) CheckMember(postID, userID string) (*models.TripPost, error) {
	var post *models.TripPost
	err := s.store.View(func(snap *repository.Snapshot) error {
		found, err := memberPost(snap, postID, userID, "You must be a member of this trip")
		if err != nil {
			return err
		}
		post = clonePost(found)
		return nil
	})
	return post, err
}

// SetItinerary replaces the plan's itinerary. Last write wins.
func (s *TravelPartnerService) SetItinerary(ctx context.Context, postID, userID string, itinerary *models.Itinerary) (*models.Itinerary, error) {
	var members []string
	err := s.store.Update(ctx, func(snap *repository.Snapshot) error {
		post, err := memberPost(snap, postID, userID, "You must be a member of this trip")
		if err != nil {
			return err
		}
		now := s.now()
		plan := ensurePlan(snap, post, now)
		plan.Itinerary = itinerary
		plan.UpdatedAt = now
		members = append([]string(nil), post.JoinedUsers...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("post_id", postID).
		Str("user_id", userID).
		Bool("basic", itinerary.IsBasic).
		Msg("Itinerary saved")

	s.notifyMembers(members, userID, WSMessage{Type: MessageItineraryUpdated, PostID: postID, Data: itinerary})
	return itinerary, nil
}

// CreateLookingToJoinPost creates an intent listing
func (s *TravelPartnerService) CreateLookingToJoinPost(ctx context.Context, input LookingToJoinInput) (*models.LookingToJoinPost, error) {
	if input.UserID == "" {
		return nil, validationError("User ID is required")
	}

	flexible := true
	if input.FlexibleDates != nil {
		flexible = *input.FlexibleDates
	}

	post := &models.LookingToJoinPost{
		ID:             newID("looking"),
		UserID:         input.UserID,
		UserName:       orDefault(input.UserName, defaultUserName),
		Destination:    orDefault(input.Destination, anyDestination),
		PreferredDates: orDefault(input.PreferredDates, "Flexible"),
		TripType:       orDefault(input.TripType, defaultTripType),
		Budget:         orDefault(input.Budget, defaultBudget),
		Description:    input.Description,
		FlexibleDates:  flexible,
		Status:         models.PostStatusActive,
		CreatedAt:      s.now(),
	}

	err := s.store.Update(ctx, func(snap *repository.Snapshot) error {
		snap.LookingToJoinPosts = append(snap.LookingToJoinPosts, post)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("post_id", post.ID).
		Str("user_id", post.UserID).
		Msg("Looking-to-join post created")

	result := *post
	return &result, nil
}

// ListLookingToJoinPosts returns active listings, newest first. "Any" matches every destination.
func (s *TravelPartnerService) ListLookingToJoinPosts(filter LookingToJoinFilter) ([]*models.LookingToJoinPost, error) {
	destination := strings.ToLower(filter.Destination)
	wildcard := destination == "" || filter.Destination == anyDestination
	posts := []*models.LookingToJoinPost{}

	err := s.store.View(func(snap *repository.Snapshot) error {
		for _, post := range snap.LookingToJoinPosts {
			if post.Status != models.PostStatusActive {
				continue
			}
			if !wildcard && post.Destination != anyDestination &&
				!strings.Contains(strings.ToLower(post.Destination), destination) {
				continue
			}
			if filter.TripType != "" && post.TripType != filter.TripType {
				continue
			}
			if filter.UserID != "" && post.UserID != filter.UserID {
				continue
			}
			copied := *post
			posts = append(posts, &copied)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

// GetProfile returns public counters for a user
func (s *TravelPartnerService) GetProfile(userID string) (*models.Profile, error) {
	profile := &models.Profile{UserID: userID}
	err := s.store.View(func(snap *repository.Snapshot) error {
		for _, post := range snap.TravelPosts {
			if post.UserID == userID {
				profile.TripCount++
			} else if post.HasMember(userID) {
				profile.JoinedTripsCount++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *TravelPartnerService) notify(userID string, message WSMessage) {
	if s.notifier == nil || userID == "" {
		return
	}
	s.notifier.Notify(userID, message)
}

func (s *TravelPartnerService) notifyMembers(members []string, actorID string, message WSMessage) {
	for _, member := range members {
		if member != actorID {
			s.notify(member, message)
		}
	}
}

func memberPost(snap *repository.Snapshot, postID, userID, deniedMessage string) (*models.TripPost, error) {
	post := snap.FindPost(postID)
	if post == nil {
		return nil, notFoundError("Post not found")
	}
	if userID == "" || !post.HasMember(userID) {
		return nil, forbiddenError(deniedMessage)
	}
	return post, nil
}

func ensurePlan(snap *repository.Snapshot, post *models.TripPost, now time.Time) *models.SharedPlan {
	plan, ok := snap.SharedPlans[post.ID]
	if !ok {
		plan = newSharedPlan(post.ID, append([]string(nil), post.JoinedUsers...), now)
		snap.SharedPlans[post.ID] = plan
	}
	return plan
}

func newSharedPlan(postID string, members []string, now time.Time) *models.SharedPlan {
	return &models.SharedPlan{
		PostID:          postID,
		Members:         members,
		Activities:      []models.PlanItem{},
		Notes:           []models.PlanItem{},
		BudgetBreakdown: []models.PlanItem{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func clonePost(post *models.TripPost) *models.TripPost {
	copied := *post
	copied.JoinedUsers = append([]string(nil), post.JoinedUsers...)
	return &copied
}

// clonePlan copies the slices of a plan. Items and the itinerary are never mutated in place.
func clonePlan(plan *models.SharedPlan) *models.SharedPlan {
	copied := *plan
	copied.Members = append([]string(nil), plan.Members...)
	copied.Activities = append([]models.PlanItem{}, plan.Activities...)
	copied.Notes = append([]models.PlanItem{}, plan.Notes...)
	copied.BudgetBreakdown = append([]models.PlanItem{}, plan.BudgetBreakdown...)
	return &copied
}
