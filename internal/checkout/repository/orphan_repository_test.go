package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moaz267/furniture/internal/testutil"
)

func TestOrphanRepository_RecordListRemove(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLOrphanRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Record(ctx, "payment-screenshots", "1700000000000-abcdef123456.png"))
	require.NoError(t, repo.Record(ctx, "payment-screenshots", "1700000000000-abcdef123456.png"))

	none, err := repo.ListOlderThan(ctx, time.Now().UTC().Add(-time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, none)

	orphans, err := repo.ListOlderThan(ctx, time.Now().UTC().Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "1700000000000-abcdef123456.png", orphans[0].Key)

	require.NoError(t, repo.Remove(ctx, orphans[0].ID))
	orphans, err = repo.ListOlderThan(ctx, time.Now().UTC().Add(time.Minute), 10)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}
