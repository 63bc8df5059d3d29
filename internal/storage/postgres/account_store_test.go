package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"solana-predictor/internal/storage"
	"solana-predictor/internal/storage/migrations"
	"solana-predictor/internal/storage/postgres"
)

// setupTestDB creates a PostgreSQL container and applies embedded migrations.
// Returns a cleanup function that must be called after tests complete.
func setupTestDB(t *testing.T) (*postgres.Pool, func()) {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := postgres.NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	require.NoError(t, migrations.RunPostgresMigrations(ctx, pool), "failed to run migrations")

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

func TestAccountStore_PutAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewAccountStore(pool)
	ctx := context.Background()

	rec := &storage.AccountRecord{
		Pubkey:    "accum111",
		Data:      []byte{0x10, 0x20, 0x30},
		Slot:      12345,
		UpdatedAt: 1704067200000,
	}

	require.NoError(t, store.Put(ctx, rec))

	got, err := store.Get(ctx, "accum111")
	require.NoError(t, err)
	require.Equal(t, rec.Pubkey, got.Pubkey)
	require.Equal(t, rec.Data, got.Data)
	require.Equal(t, rec.Slot, got.Slot)
	require.Equal(t, rec.UpdatedAt, got.UpdatedAt)
}

func TestAccountStore_PutUpserts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewAccountStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &storage.AccountRecord{
		Pubkey: "scratch1", Data: []byte{1}, Slot: 1, UpdatedAt: 100,
	}))
	require.NoError(t, store.Put(ctx, &storage.AccountRecord{
		Pubkey: "scratch1", Data: []byte{2, 3}, Slot: 2, UpdatedAt: 200,
	}))

	got, err := store.Get(ctx, "scratch1")
	require.NoError(t, err)
	require.Equal(t, []byte{2, 3}, got.Data, "second Put must replace the buffer")
	require.Equal(t, int64(2), got.Slot)
}

func TestAccountStore_GetNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewAccountStore(pool)

	_, err := store.Get(context.Background(), "missing")
	require.True(t, errors.Is(err, storage.ErrNotFound), "expected ErrNotFound, got %v", err)
}

func TestAccountStore_PutInvalidInput(t *testing.T) {
	store := postgres.NewAccountStore(nil)

	err := store.Put(context.Background(), nil)
	require.True(t, errors.Is(err, storage.ErrInvalidInput))

	err = store.Put(context.Background(), &storage.AccountRecord{})
	require.True(t, errors.Is(err, storage.ErrInvalidInput))
}
