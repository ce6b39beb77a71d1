package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Persister loads and saves the whole snapshot. Load returns (nil, nil) when nothing was saved yet.
type Persister interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Name() string
}

// Store gives serialized access to the travel-partner snapshot
type Store interface {
	// View runs fn under a read lock. fn must not keep references to the snapshot.
	View(fn func(snap *Snapshot) error) error
	// Update runs fn under the write lock and flushes the snapshot when fn succeeds.
	// fn must validate before it mutates: a returned error skips the flush but does not roll back.
	Update(ctx context.Context, fn func(snap *Snapshot) error) error
}

// saveTimeout bounds a flush that outlives the request that triggered it
const saveTimeout = 30 * time.Second

// SnapshotStore keeps the snapshot in memory and mirrors it through a Persister
type SnapshotStore struct {
	mu        sync.RWMutex
	snap      *Snapshot
	persister Persister
}

// NewSnapshotStore loads the persisted snapshot (or starts empty) and returns the store
func NewSnapshotStore(ctx context.Context, persister Persister) (*SnapshotStore, error) {
	snap, err := persister.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s snapshot: %w", persister.Name(), err)
	}
	if snap == nil {
		snap = NewSnapshot()
	}

	log.Info().
		Str("persister", persister.Name()).
		Int("posts", len(snap.TravelPosts)).
		Int("join_requests", len(snap.JoinRequests)).
		Int("plans", len(snap.SharedPlans)).
		Int("looking_to_join", len(snap.LookingToJoinPosts)).
		Msg("Travel partner data loaded")

	return &SnapshotStore{
		snap:      snap,
		persister: persister,
	}, nil
}

// View implements Store
func (s *SnapshotStore) View(fn func(snap *Snapshot) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.snap)
}

// Update implements Store. A failed flush is logged and swallowed; memory stays authoritative.
// The flush ignores cancellation of ctx, since the in-memory change is already committed.
func (s *SnapshotStore) Update(ctx context.Context, fn func(snap *Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.snap); err != nil {
		return err
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	if err := s.persister.Save(saveCtx, s.snap); err != nil {
		log.Error().
			Err(err).
			Str("persister", s.persister.Name()).
			Msg("Failed to save travel partner data")
	}
	return nil
}
