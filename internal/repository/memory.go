package repository

import (
	"context"
	"sync"
)

// MemoryPersister keeps the encoded snapshot in memory. Used by the "memory" storage driver and tests.
type MemoryPersister struct {
	mu      sync.Mutex
	data    []byte
	saves   int
	SaveErr error
}

// NewMemoryPersister creates an empty in-memory persister
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

// Name returns the persister name for logs
func (p *MemoryPersister) Name() string {
	return "memory"
}

// Load decodes the last saved snapshot
func (p *MemoryPersister) Load(ctx context.Context) (*Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.data == nil {
		return nil, nil
	}
	return DecodeSnapshot(p.data)
}

// Save encodes and keeps the snapshot unless SaveErr is set
func (p *MemoryPersister) Save(ctx context.Context, snap *Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.SaveErr != nil {
		return p.SaveErr
	}

	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	p.data = data
	p.saves++
	return nil
}

// Saves returns how many successful saves happened
func (p *MemoryPersister) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

// Seed replaces the stored document with raw JSON
func (p *MemoryPersister) Seed(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = data
}
