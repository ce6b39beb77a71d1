package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"travel-partner-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilePersister_LoadMissingFile(t *testing.T) {
	p := NewFilePersister(filepath.Join(t.TempDir(), "missing.json"))

	snap, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestFilePersister_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "travel-partner-data.json")
	p := NewFilePersister(path)
	ctx := context.Background()

	snap := NewSnapshot()
	snap.TravelPosts = append(snap.TravelPosts, &models.TripPost{
		ID:          "post_1",
		UserID:      "owner",
		Destination: "Jaipur",
		Status:      models.PostStatusActive,
		JoinedUsers: []string{"owner"},
	})
	require.NoError(t, p.Save(ctx, snap))

	loaded, err := p.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Len(t, loaded.TravelPosts, 1)
	assert.Equal(t, "Jaipur", loaded.TravelPosts[0].Destination)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFilePersister_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFilePersister(path).Load(context.Background())
	assert.Error(t, err)
}

func TestFilePersister_SaveReplacesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "travel-partner-data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"travelPosts":[{"id":"post_old"}]}`), 0o600))
	p := NewFilePersister(path)
	ctx := context.Background()

	snap := NewSnapshot()
	snap.TravelPosts = append(snap.TravelPosts, &models.TripPost{ID: "post_new", UserID: "owner"})
	require.NoError(t, p.Save(ctx, snap))

	loaded, err := p.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.TravelPosts, 1)
	assert.Equal(t, "post_new", loaded.TravelPosts[0].ID)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
