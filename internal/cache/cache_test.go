package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wferrors "github.com/Constantin2105/inspiratec-engine/internal/common/errors"
	"github.com/Constantin2105/inspiratec-engine/internal/common/logger"
	"github.com/Constantin2105/inspiratec-engine/internal/models"
	"github.com/Constantin2105/inspiratec-engine/internal/repository/memory"
)

func newTestCache(t *testing.T) (*Cache, *memory.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := memory.New()
	return New(rdb, store, logger.NewTestLogger(t), 30*time.Second), store, mr
}

func seedAO(t *testing.T, store *memory.Store) *models.AO {
	t.Helper()
	now := time.Now().UTC()
	ao := &models.AO{
		ID: uuid.New().String(), CompanyID: "co-1", Title: "mission",
		Status: models.AOPublished, CreatedAt: now, UpdatedAt: now, Version: 1,
	}
	require.NoError(t, store.InsertAO(context.Background(), ao))
	return ao
}

func TestGetAO_ReadThrough(t *testing.T) {
	ctx := context.Background()
	c, store, mr := newTestCache(t)
	ao := seedAO(t, store)

	got, err := c.GetAO(ctx, ao.ID)
	require.NoError(t, err)
	assert.Equal(t, ao.ID, got.ID)
	assert.True(t, mr.Exists("engine:ao:"+ao.ID))

	// A second read is served from Redis: mutate the store underneath and
	// confirm the cached copy wins until TTL or invalidation.
	fresh, err := store.GetAO(ctx, ao.ID)
	require.NoError(t, err)
	fresh.Status = models.AOArchived
	require.NoError(t, store.UpdateAO(ctx, fresh, fresh.Version))

	got, err = c.GetAO(ctx, ao.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AOPublished, got.Status)
}

func TestInvalidate_ForcesNextReadThrough(t *testing.T) {
	ctx := context.Background()
	c, store, mr := newTestCache(t)
	ao := seedAO(t, store)

	_, err := c.GetAO(ctx, ao.ID)
	require.NoError(t, err)

	fresh, err := store.GetAO(ctx, ao.ID)
	require.NoError(t, err)
	fresh.Status = models.AOArchived
	require.NoError(t, store.UpdateAO(ctx, fresh, fresh.Version))

	c.Invalidate(ctx, models.EntityAO, ao.ID)
	assert.False(t, mr.Exists("engine:ao:"+ao.ID))

	got, err := c.GetAO(ctx, ao.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AOArchived, got.Status)
}

func TestTTL_ExpiresEntries(t *testing.T) {
	ctx := context.Background()
	c, store, mr := newTestCache(t)
	ao := seedAO(t, store)

	_, err := c.GetAO(ctx, ao.ID)
	require.NoError(t, err)

	mr.FastForward(31 * time.Second)
	assert.False(t, mr.Exists("engine:ao:"+ao.ID))
}

func TestGetCandidature_MissPropagatesNotFound(t *testing.T) {
	c, _, _ := newTestCache(t)
	_, err := c.GetCandidature(context.Background(), "missing")
	assert.Equal(t, wferrors.ErrCodeNotFound, wferrors.CodeOf(err))
}

func TestRedisDown_DegradesToStore(t *testing.T) {
	ctx := context.Background()
	c, store, mr := newTestCache(t)
	ao := seedAO(t, store)

	mr.Close()

	got, err := c.GetAO(ctx, ao.ID)
	require.NoError(t, err)
	assert.Equal(t, ao.ID, got.ID)
}
