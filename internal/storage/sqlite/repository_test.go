package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"castanet-watch/internal/observability"
	"castanet-watch/internal/storage"
)

func setup(t *testing.T) *Repository {
	t.Helper()

	repo, err := NewRepository(filepath.Join(t.TempDir(), "vehicles.db"), 5*time.Second, observability.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func TestInsertAndExists(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	exists, err := repo.ExistsByURL(ctx, "/details/2014-honda-civic/1001/")
	require.NoError(t, err)
	require.False(t, exists)

	rec := &storage.ListingRecord{
		URL:         "/details/2014-honda-civic/1001/",
		Model:       "Civic",
		Category:    "Vehicles > Cars",
		Price:       "$12,500",
		Description: "Runs great",
		City:        "Kelowna",
		Year:        "2014",
		Make:        "Honda",
		Mileage:     "85,000 km",
		CheckSum:    "abc",
		CreatedAt:   time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.InsertListing(ctx, rec))

	exists, err = repo.ExistsByURL(ctx, rec.URL)
	require.NoError(t, err)
	require.True(t, exists)

	records, err := repo.ListListings(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "Honda", records[0].Make)
	require.Empty(t, records[0].AdType)
	require.Empty(t, records[0].Image)
}

func TestInsertDuplicate(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	rec := &storage.ListingRecord{URL: "/details/1/", Model: "Golf", CheckSum: "x", CreatedAt: time.Now()}
	require.NoError(t, repo.InsertListing(ctx, rec))

	err := repo.InsertListing(ctx, rec)
	require.Error(t, err)
	require.True(t, errors.Is(err, storage.ErrDuplicate))

	count, err := repo.CountListings(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	repo := setup(t)
	require.NoError(t, repo.EnsureSchema(context.Background()))
}
