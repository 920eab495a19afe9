package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moaz267/furniture/internal/domain"
	apperrors "github.com/moaz267/furniture/internal/errors"
	"github.com/moaz267/furniture/internal/testutil"
)

func TestNewMySQLUserRepository(t *testing.T) {
	db := &sql.DB{}
	repo := NewMySQLUserRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLUserRepository(db)
	ctx := context.Background()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        "owner@example.com",
		FullName:     "Karim Adel",
		PasswordHash: "$2a$04$abcdefghijklmnopqrstuv",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, repo.Create(ctx, user))

	byEmail, err := repo.FindByEmail(ctx, "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Karim Adel", byID.FullName)

	dup := *user
	dup.ID = uuid.NewString()
	_, ok := apperrors.IsConflictError(repo.Create(ctx, &dup))
	assert.True(t, ok)
}

func TestUserRepository_FindByEmail_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	_, err := NewMySQLUserRepository(db).FindByEmail(context.Background(), "nobody@example.com")
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}
