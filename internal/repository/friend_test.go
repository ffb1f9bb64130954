package repository

import (
	"context"
	"errors"
	"testing"

	"userdata/internal/models"
	"userdata/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usernames(rows []FriendRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Username)
	}
	return out
}

func TestFriendRepository_Lifecycle(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFriendRepository(db)
	ctx := context.Background()

	u1 := testutil.CreateUser(t, db, "alice", "Alice Liddell")
	u2 := testutil.CreateUser(t, db, "bob", "Bob Marley")

	t.Run("Create and Get", func(t *testing.T) {
		err := repo.Create(ctx, &models.Friendship{RequesterID: u1.ID, AddresseeID: u2.ID, Status: models.FriendshipStatusPending})
		require.NoError(t, err)

		f, err := repo.GetFriendshipBetweenUsers(ctx, u2.ID, u1.ID)
		require.NoError(t, err)
		require.NotNil(t, f)
		assert.Equal(t, u1.ID, f.RequesterID)
		assert.Equal(t, models.FriendshipStatusPending, f.Status)
	})

	t.Run("Duplicate is a validation error", func(t *testing.T) {
		err := repo.Create(ctx, &models.Friendship{RequesterID: u1.ID, AddresseeID: u2.ID, Status: models.FriendshipStatusPending})
		require.Error(t, err)
		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, models.CodeValidation, appErr.Code)
	})

	t.Run("UpdateStatus", func(t *testing.T) {
		f, _ := repo.GetFriendshipBetweenUsers(ctx, u1.ID, u2.ID)
		require.NoError(t, repo.UpdateStatus(ctx, f.ID, models.FriendshipStatusAccepted))

		f, err := repo.GetFriendshipBetweenUsers(ctx, u1.ID, u2.ID)
		require.NoError(t, err)
		assert.Equal(t, models.FriendshipStatusAccepted, f.Status)
	})

	t.Run("Delete", func(t *testing.T) {
		f, _ := repo.GetFriendshipBetweenUsers(ctx, u1.ID, u2.ID)
		require.NoError(t, repo.Delete(ctx, f.ID))

		f, err := repo.GetFriendshipBetweenUsers(ctx, u1.ID, u2.ID)
		assert.NoError(t, err)
		assert.Nil(t, f)
	})
}

func TestFriendRepository_FriendsPage(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFriendRepository(db)
	ctx := context.Background()

	me := testutil.CreateUser(t, db, "me", "Main User")
	anna := testutil.CreateUser(t, db, "anna", "Anna Karenina")
	boris := testutil.CreateUser(t, db, "boris", "Boris Godunov")
	clara := testutil.CreateUser(t, db, "clara", "Clara Schumann")
	dmitry := testutil.CreateUser(t, db, "dmitry", "Dmitry Karamazov")
	eve := testutil.CreateUser(t, db, "eve", "Eve Online")
	testutil.CreateUser(t, db, "stranger", "Nobody Known")

	testutil.Link(t, db, me, anna, models.FriendshipStatusAccepted)
	testutil.Link(t, db, clara, me, models.FriendshipStatusAccepted)
	testutil.Link(t, db, dmitry, me, models.FriendshipStatusPending)
	testutil.Link(t, db, eve, me, models.FriendshipStatusPending)
	// outgoing invitation, never listed
	testutil.Link(t, db, me, boris, models.FriendshipStatusPending)

	t.Run("invitations first then friends by username", func(t *testing.T) {
		rows, total, err := repo.FriendsPage(ctx, me.ID, models.PageRequest{Page: 0, Size: 10}, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Equal(t, []string{"dmitry", "eve", "anna", "clara"}, usernames(rows))
		assert.Equal(t, models.FriendshipStateInviteReceived, rows[0].State())
		assert.Equal(t, models.FriendshipStateFriend, rows[3].State())
	})

	t.Run("paging keeps total", func(t *testing.T) {
		rows, total, err := repo.FriendsPage(ctx, me.ID, models.PageRequest{Page: 1, Size: 3}, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Equal(t, []string{"clara"}, usernames(rows))
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		rows, total, err := repo.FriendsPage(ctx, me.ID, models.PageRequest{Page: 5, Size: 3}, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})

	t.Run("search matches username or full name case-insensitively", func(t *testing.T) {
		rows, total, err := repo.FriendsPage(ctx, me.ID, models.PageRequest{Size: 10}, strPtr("KAR"))
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Equal(t, []string{"dmitry", "anna"}, usernames(rows))

		rows, _, err = repo.FriendsPage(ctx, me.ID, models.PageRequest{Size: 10}, strPtr("boris"))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("blank search is no filter", func(t *testing.T) {
		_, total, err := repo.FriendsPage(ctx, me.ID, models.PageRequest{Size: 10}, strPtr("  "))
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
	})

	t.Run("requested sort applies within groups", func(t *testing.T) {
		req := models.PageRequest{Size: 10, Sort: []models.SortOrder{{Property: "username", Direction: models.Desc}}}
		rows, _, err := repo.FriendsPage(ctx, me.ID, req, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"eve", "dmitry", "clara", "anna"}, usernames(rows))
	})

	t.Run("unknown sort property", func(t *testing.T) {
		req := models.PageRequest{Size: 10, Sort: []models.SortOrder{{Property: "password", Direction: models.Asc}}}
		_, _, err := repo.FriendsPage(ctx, me.ID, req, nil)
		require.Error(t, err)
		assert.Equal(t, 400, models.StatusFor(err))
	})

	t.Run("friend sees the relation too", func(t *testing.T) {
		rows, total, err := repo.FriendsPage(ctx, anna.ID, models.PageRequest{Size: 10}, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, []string{"me"}, usernames(rows))
	})

	t.Run("invited user does not see the inviter until accepted", func(t *testing.T) {
		_, total, err := repo.FriendsPage(ctx, dmitry.ID, models.PageRequest{Size: 10}, nil)
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}

func TestFriendRepository_FriendsPageDatabaseError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFriendRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" JOIN friendships f`).
		WillReturnError(errors.New("connection reset"))

	_, _, err := repo.FriendsPage(context.Background(), uuid.New(), models.PageRequest{Size: 20}, nil)
	require.Error(t, err)
	assert.Equal(t, 500, models.StatusFor(err))
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}
