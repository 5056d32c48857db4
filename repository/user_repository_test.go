package repository

import (
	"context"
	"testing"

	"drinktab/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	user := testutil.CreateTestUser("Khoa", "khoa-runsystem.net")

	err := repo.Create(ctx, user)
	require.NoError(t, err)
	assert.False(t, user.CreatedAt.IsZero())
	assert.False(t, user.UpdatedAt.IsZero())

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Khoa", got.UserName)
		assert.Equal(t, "khoa-runsystem.net", got.TagID)
		assert.Nil(t, got.LastPostID)
	})

	t.Run("unknown id returns nil without error", func(t *testing.T) {
		got, err := repo.GetByID(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("duplicate tag id rejected case-insensitively", func(t *testing.T) {
		dup := testutil.CreateTestUser("Khoa 2", "KHOA-runsystem.net")
		err := repo.Create(ctx, dup)
		assert.Error(t, err)
	})
}

func TestUserRepository_GetAll(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.CreateTestUser("Bình", "binh-runsystem.net")))
	require.NoError(t, repo.Create(ctx, testutil.CreateTestUser("An", "an-runsystem.net")))

	users, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	// Ordered by display name
	assert.Equal(t, "An", users[0].UserName)
	assert.Equal(t, "Bình", users[1].UserName)
}

func TestUserRepository_Update(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	user := testutil.CreateTestUser("Khoa", "khoa-runsystem.net")
	require.NoError(t, repo.Create(ctx, user))

	// Open a reminder thread, then edit the profile
	postID := "msg123"
	require.NoError(t, repo.SetLastPostID(ctx, user.ID, &postID))

	user.UserName = "Khoa Nguyễn"
	user.Email = "khoa@example.vn"
	require.NoError(t, repo.Update(ctx, user))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Khoa Nguyễn", got.UserName)

	// Profile edits must not touch the open thread
	require.NotNil(t, got.LastPostID)
	assert.Equal(t, "msg123", *got.LastPostID)

	t.Run("unknown user", func(t *testing.T) {
		ghost := testutil.CreateTestUser("Ghost", "ghost-runsystem.net")
		err := repo.Update(ctx, ghost)
		assert.Error(t, err)
	})
}

func TestUserRepository_SetLastPostID(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	user := testutil.CreateTestUser("Khoa", "khoa-runsystem.net")
	require.NoError(t, repo.Create(ctx, user))

	postID := "msg123"
	require.NoError(t, repo.SetLastPostID(ctx, user.ID, &postID))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastPostID)
	assert.Equal(t, "msg123", *got.LastPostID)

	// Clearing closes the thread
	require.NoError(t, repo.SetLastPostID(ctx, user.ID, nil))

	got, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LastPostID)

	t.Run("unknown user", func(t *testing.T) {
		err := repo.SetLastPostID(ctx, "missing", &postID)
		assert.Error(t, err)
	})
}

func TestUserRepository_Delete(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	user := testutil.CreateTestUser("Khoa", "khoa-runsystem.net")
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, repo.Delete(ctx, user.ID))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Error(t, repo.Delete(ctx, user.ID))
}
