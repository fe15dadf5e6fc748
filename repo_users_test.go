package userapi_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	userapi "github.com/goliatone/go-users-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func testDB(t *testing.T) *bun.DB {
	t.Helper()

	// single connection keeps the in-memory database alive for the test
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	_, err = db.NewCreateTable().Model((*userapi.User)(nil)).Exec(context.Background())
	require.NoError(t, err)

	return db
}

func seedUser(t *testing.T, repo userapi.Users, username, email string) *userapi.User {
	t.Helper()

	created, err := repo.Create(context.Background(), &userapi.User{
		Username:     username,
		Email:        email,
		PasswordHash: "x",
	})
	require.NoError(t, err)
	return created
}

func TestUsersRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns defaults on insert", func(t *testing.T) {
		repo := userapi.NewUsersRepository(testDB(t))

		created := seedUser(t, repo, "alice", "alice@example.com")

		assert.NotZero(t, created.ID)
		assert.Equal(t, userapi.RoleUser, created.Role)
		assert.True(t, created.IsActive)
		assert.False(t, created.IsVerified)
	})

	t.Run("duplicate username maps to the conflict taxonomy", func(t *testing.T) {
		repo := userapi.NewUsersRepository(testDB(t))
		seedUser(t, repo, "alice", "")

		_, err := repo.Create(ctx, &userapi.User{Username: "alice", PasswordHash: "x"})

		assert.True(t, userapi.HasTextCode(err, userapi.TextCodeUsernameExists))
	})

	t.Run("duplicate email maps to the conflict taxonomy", func(t *testing.T) {
		repo := userapi.NewUsersRepository(testDB(t))
		seedUser(t, repo, "alice", "shared@example.com")

		_, err := repo.Create(ctx, &userapi.User{Username: "bob", Email: "shared@example.com", PasswordHash: "x"})

		assert.True(t, userapi.HasTextCode(err, userapi.TextCodeEmailExists))
	})

	t.Run("multiple accounts without email are allowed", func(t *testing.T) {
		repo := userapi.NewUsersRepository(testDB(t))
		seedUser(t, repo, "alice", "")
		seedUser(t, repo, "bob", "")

		records, err := repo.List(ctx, 0, 0)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})
}

func TestUsersRepository_Lookups(t *testing.T) {
	ctx := context.Background()

	t.Run("missing id maps to not found", func(t *testing.T) {
		repo := userapi.NewUsersRepository(testDB(t))

		_, err := repo.GetByID(ctx, 999)

		assert.True(t, userapi.HasTextCode(err, userapi.TextCodeUserNotFound))
	})

	t.Run("identifier resolves username first then email", func(t *testing.T) {
		repo := userapi.NewUsersRepository(testDB(t))
		seedUser(t, repo, "alice", "alice@example.com")

		byName, err := repo.GetByIdentifier(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", byName.Username)

		byEmail, err := repo.GetByIdentifier(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, byName.ID, byEmail.ID)
	})

	t.Run("blank identifier is not found", func(t *testing.T) {
		repo := userapi.NewUsersRepository(testDB(t))

		_, err := repo.GetByIdentifier(ctx, "   ")

		assert.True(t, userapi.HasTextCode(err, userapi.TextCodeUserNotFound))
	})

	t.Run("existence checks", func(t *testing.T) {
		repo := userapi.NewUsersRepository(testDB(t))
		seedUser(t, repo, "alice", "alice@example.com")

		taken, err := repo.ExistsByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, taken)

		taken, err = repo.ExistsByUsername(ctx, "bob")
		require.NoError(t, err)
		assert.False(t, taken)

		taken, err = repo.ExistsByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.True(t, taken)
	})
}

func TestUsersRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("update writes only the named columns", func(t *testing.T) {
		repo := userapi.NewUsersRepository(testDB(t))
		created := seedUser(t, repo, "alice", "old@example.com")

		created.Email = "new@example.com"
		created.Username = "should-not-change"
		created.Touch()

		updated, err := repo.Update(ctx, created, "email", "updated_at")
		require.NoError(t, err)

		assert.Equal(t, "new@example.com", updated.Email)
		assert.Equal(t, "alice", updated.Username)
	})

	t.Run("update of a missing row is not found", func(t *testing.T) {
		repo := userapi.NewUsersRepository(testDB(t))

		ghost := &userapi.User{ID: 999, Email: "x@example.com"}
		_, err := repo.Update(ctx, ghost, "email")

		assert.True(t, userapi.HasTextCode(err, userapi.TextCodeUserNotFound))
	})

	t.Run("delete removes the row", func(t *testing.T) {
		repo := userapi.NewUsersRepository(testDB(t))
		created := seedUser(t, repo, "alice", "")

		require.NoError(t, repo.Delete(ctx, created.ID))

		err := repo.Delete(ctx, created.ID)
		assert.True(t, userapi.HasTextCode(err, userapi.TextCodeUserNotFound))
	})
}

func TestUsersRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := userapi.NewUsersRepository(testDB(t))

	seedUser(t, repo, "alice", "")
	seedUser(t, repo, "bob", "")
	seedUser(t, repo, "carol", "")

	t.Run("orders by id and honors limit and offset", func(t *testing.T) {
		records, err := repo.List(ctx, 2, 1)
		require.NoError(t, err)

		require.Len(t, records, 2)
		assert.Equal(t, "bob", records[0].Username)
		assert.Equal(t, "carol", records[1].Username)
	})
}

func TestUsersRepository_DeadlineMapping(t *testing.T) {
	repo := userapi.NewUsersRepository(testDB(t))

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := repo.GetByID(ctx, 1)

	assert.True(t, userapi.HasTextCode(err, userapi.TextCodeDatabaseTimeout))
}
