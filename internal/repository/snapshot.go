package repository

import (
	"encoding/json"
	"fmt"
	"slices"

	"travel-partner-backend/internal/models"
)

// Snapshot is the whole travel-partner document. It is always persisted in one piece.
type Snapshot struct {
	TravelPosts        []*models.TripPost            `json:"travelPosts"`
	JoinRequests       []*models.JoinRequest         `json:"joinRequests"`
	SharedPlans        map[string]*models.SharedPlan `json:"sharedPlans"`
	LookingToJoinPosts []*models.LookingToJoinPost   `json:"lookingToJoinPosts"`
}

// NewSnapshot returns an empty document
func NewSnapshot() *Snapshot {
	return &Snapshot{
		TravelPosts:        []*models.TripPost{},
		JoinRequests:       []*models.JoinRequest{},
		SharedPlans:        map[string]*models.SharedPlan{},
		LookingToJoinPosts: []*models.LookingToJoinPost{},
	}
}

// DecodeSnapshot parses a persisted document and repairs rows written by older versions
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	snap := NewSnapshot()
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	snap.normalize()
	return snap, nil
}

// EncodeSnapshot serializes the document in the on-disk layout
func EncodeSnapshot(snap *Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// normalize fills nil collections, drops null rows and repairs legacy posts.
func (s *Snapshot) normalize() {
	if s.SharedPlans == nil {
		s.SharedPlans = map[string]*models.SharedPlan{}
	}
	for id, plan := range s.SharedPlans {
		if plan == nil {
			delete(s.SharedPlans, id)
		}
	}

	s.TravelPosts = compact(s.TravelPosts)
	s.JoinRequests = compact(s.JoinRequests)
	s.LookingToJoinPosts = compact(s.LookingToJoinPosts)

	for _, post := range s.TravelPosts {
		if post.Status == "" {
			post.Status = models.PostStatusActive
		}
		post.JoinedUsers = ownerFirst(post.UserID, post.JoinedUsers)
		post.JoinRequestCount = s.CountPending(post.ID)
	}
}

// ownerFirst returns members with the owner at index 0 and duplicates dropped
func ownerFirst(owner string, members []string) []string {
	out := make([]string, 0, len(members)+1)
	out = append(out, owner)
	for _, id := range members {
		if id == "" || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func compact[T any](rows []*T) []*T {
	out := make([]*T, 0, len(rows))
	for _, row := range rows {
		if row != nil {
			out = append(out, row)
		}
	}
	return out
}

// FindPost returns the trip post with the given id or nil
func (s *Snapshot) FindPost(postID string) *models.TripPost {
	for _, post := range s.TravelPosts {
		if post.ID == postID {
			return post
		}
	}
	return nil
}

// FindJoinRequest returns the request with the given id on the given post or nil
func (s *Snapshot) FindJoinRequest(postID, requestID string) *models.JoinRequest {
	for _, req := range s.JoinRequests {
		if req.ID == requestID && req.PostID == postID {
			return req
		}
	}
	return nil
}

// PendingRequest returns the user's pending request on a post or nil
func (s *Snapshot) PendingRequest(postID, userID string) *models.JoinRequest {
	for _, req := range s.JoinRequests {
		if req.PostID == postID && req.UserID == userID && req.Status == models.JoinRequestPending {
			return req
		}
	}
	return nil
}

// CountPending counts pending join requests for a post
func (s *Snapshot) CountPending(postID string) int {
	count := 0
	for _, req := range s.JoinRequests {
		if req.PostID == postID && req.Status == models.JoinRequestPending {
			count++
		}
	}
	return count
}

// RecountPending derives the post's joinRequestCount from the request rows.
func (s *Snapshot) RecountPending(post *models.TripPost) {
	post.JoinRequestCount = s.CountPending(post.ID)
}
