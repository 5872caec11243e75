package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"discounter/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestRedis starts a Redis testcontainer and returns a connected client.
func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	if testing.Short() {
		t.Skip("skipping redis test in short mode")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	require.NoError(t, client.Ping(ctx).Err())

	cleanup := func() {
		_ = client.Close()
		_ = container.Terminate(ctx)
	}

	return client, cleanup
}

func TestRedis_PersistAndGet(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	repo := NewRedis[model.Campaign](client, "campaigns", zerolog.Nop())
	ctx := context.Background()

	id, err := repo.Persist(ctx, testCampaign(), "")
	require.NoError(t, err)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, testCampaign(), got)

	raw, err := client.Get(ctx, "campaigns:"+id).Result()
	require.NoError(t, err)
	assert.Contains(t, raw, `"brand":"Wayne Enterprises"`)

	_, err = repo.Persist(ctx, testCampaign().WithNumIssued(2), id)
	require.NoError(t, err)

	got, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, got.NumIssued)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedis_NamespacesAreIndependent(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	campaigns := NewRedis[model.Campaign](client, "campaigns", zerolog.Nop())
	vouchers := NewRedis[model.Voucher](client, "vouchers", zerolog.Nop())
	ctx := context.Background()

	_, err := campaigns.Persist(ctx, testCampaign(), "shared")
	require.NoError(t, err)

	_, err = vouchers.Get(ctx, "shared")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedis_FreshKeyCollisionPanics(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	repo := NewRedis[model.Campaign](client, "campaigns", zerolog.Nop(),
		WithKeyGenerator(func() string { return "fixed" }))
	ctx := context.Background()

	_, err := repo.Persist(ctx, testCampaign(), "")
	require.NoError(t, err)

	assert.Panics(t, func() {
		_, _ = repo.Persist(ctx, testCampaign(), "")
	})
}

func TestRedis_Update(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	repo := NewRedis[model.Campaign](client, "campaigns", zerolog.Nop())
	ctx := context.Background()

	id, err := repo.Persist(ctx, testCampaign(), "")
	require.NoError(t, err)

	t.Run("fn error writes nothing", func(t *testing.T) {
		errBoom := errors.New("boom")
		_, err := repo.Update(ctx, id, func(_ context.Context, c model.Campaign) (model.Campaign, error) {
			return c.WithNumIssued(5), errBoom
		})
		assert.ErrorIs(t, err, errBoom)

		got, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 0, got.NumIssued)

		// Lock released on the error path.
		exists, err := client.Exists(ctx, "campaigns:"+id+":lock").Result()
		require.NoError(t, err)
		assert.Zero(t, exists)
	})

	t.Run("Missing key", func(t *testing.T) {
		_, err := repo.Update(ctx, "missing", func(_ context.Context, c model.Campaign) (model.Campaign, error) {
			return c, nil
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Concurrent increments", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.Update(ctx, id, func(_ context.Context, c model.Campaign) (model.Campaign, error) {
					return c.WithNumIssued(c.NumIssued + 1), nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 50, got.NumIssued)
	})
}

func TestRedis_UpdateWaitsForHeldLock(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	repo := NewRedis[model.Campaign](client, "campaigns", zerolog.Nop(), WithLockTTL(time.Minute))
	ctx := context.Background()

	id, err := repo.Persist(ctx, testCampaign(), "")
	require.NoError(t, err)

	// Another process holds the lock.
	require.NoError(t, client.Set(ctx, "campaigns:"+id+":lock", "someone-else", time.Minute).Err())

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	_, err = repo.Update(waitCtx, id, func(_ context.Context, c model.Campaign) (model.Campaign, error) {
		return c.WithNumIssued(1), nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The foreign lock is left alone.
	holder, err := client.Get(ctx, "campaigns:"+id+":lock").Result()
	require.NoError(t, err)
	assert.Equal(t, "someone-else", holder)
}
