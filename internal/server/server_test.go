package server

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"userdata/internal/config"
	"userdata/internal/models"
	"userdata/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestServer(t *testing.T, rdb *redis.Client) (*Server, *fiber.App, *gorm.DB) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	s, err := NewServerWithDeps(&config.Config{Env: "test"}, db, rdb, discardLogger())
	require.NoError(t, err)
	return s, s.NewApp(), db
}

func seedUsers(t *testing.T, db *gorm.DB, names ...string) map[string]*models.User {
	t.Helper()
	out := make(map[string]*models.User, len(names))
	for _, n := range names {
		u := &models.User{Username: n, FullName: n + " Test"}
		require.NoError(t, db.Create(u).Error)
		out[n] = u
	}
	return out
}

func TestFriendsEndToEnd(t *testing.T) {
	_, app, db := newTestServer(t, nil)
	users := seedUsers(t, db, "me", "anna", "boris", "clara")
	require.NoError(t, db.Create(&models.Friendship{RequesterID: users["me"].ID, AddresseeID: users["anna"].ID, Status: models.FriendshipStatusAccepted}).Error)
	require.NoError(t, db.Create(&models.Friendship{RequesterID: users["clara"].ID, AddresseeID: users["me"].ID, Status: models.FriendshipStatusPending}).Error)
	require.NoError(t, db.Create(&models.Friendship{RequesterID: users["me"].ID, AddresseeID: users["boris"].ID, Status: models.FriendshipStatusPending}).Error)

	resp, err := app.Test(httptest.NewRequest("GET", "/internal/v3/friends/all?username=me&size=1", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	out := decodePage(t, resp.Body)
	require.Len(t, out.Content, 1)
	assert.Equal(t, "clara", out.Content[0].Username)
	assert.Equal(t, models.FriendshipStateInviteReceived, out.Content[0].FriendshipStatus)
	assert.Equal(t, models.PageMetadata{Size: 1, Number: 0, TotalElements: 2, TotalPages: 2}, out.Page)

	resp, err = app.Test(httptest.NewRequest("GET", "/internal/v3/friends/all?username=nobody", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/internal/v3/friends/all?username=me&sort=password,asc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestInvitationFlow(t *testing.T) {
	_, app, db := newTestServer(t, nil)
	seedUsers(t, db, "alice", "bob")

	do := func(method, target string) int {
		resp, err := app.Test(httptest.NewRequest(method, target, nil))
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusCreated, do("POST", "/internal/v3/invitations/send?username=alice&targetUsername=bob"))
	assert.Equal(t, fiber.StatusBadRequest, do("POST", "/internal/v3/invitations/send?username=alice&targetUsername=bob"))
	assert.Equal(t, fiber.StatusNotFound, do("POST", "/internal/v3/invitations/accept?username=alice&targetUsername=bob"))
	assert.Equal(t, fiber.StatusOK, do("POST", "/internal/v3/invitations/accept?username=bob&targetUsername=alice"))

	resp, err := app.Test(httptest.NewRequest("GET", "/internal/v3/friends/all?username=alice", nil))
	require.NoError(t, err)
	out := decodePage(t, resp.Body)
	require.Len(t, out.Content, 1)
	assert.Equal(t, "bob", out.Content[0].Username)
	assert.Equal(t, models.FriendshipStateFriend, out.Content[0].FriendshipStatus)

	assert.Equal(t, fiber.StatusOK, do("DELETE", "/internal/v3/friends/remove?username=alice&targetUsername=bob"))
	assert.Equal(t, fiber.StatusNotFound, do("DELETE", "/internal/v3/friends/remove?username=alice&targetUsername=bob"))
	assert.Equal(t, fiber.StatusBadRequest, do("POST", "/internal/v3/invitations/decline?username=alice"))
}

func TestUserEndpoints(t *testing.T) {
	_, app, db := newTestServer(t, nil)
	seedUsers(t, db, "other")

	resp, err := app.Test(httptest.NewRequest("GET", "/internal/v3/users/current?username=newcomer", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var current models.UserJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&current))
	assert.Equal(t, "newcomer", current.Username)
	assert.Equal(t, models.DefaultCurrency, current.Currency)

	req := httptest.NewRequest("POST", "/internal/v3/users/update",
		jsonBody(t, models.UserJSON{Username: "newcomer", Firstname: "New", Surname: "Comer", Currency: models.CurrencyEUR}))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var updated models.UserJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	assert.Equal(t, "New Comer", updated.FullName)
	assert.Equal(t, models.CurrencyEUR, updated.Currency)

	resp, err = app.Test(httptest.NewRequest("GET", "/internal/v3/users/all?username=newcomer&searchQuery=oth", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	out := decodePage(t, resp.Body)
	require.Len(t, out.Content, 1)
	assert.Equal(t, "other", out.Content[0].Username)
	assert.Empty(t, out.Content[0].FriendshipStatus)
}

func TestHealthChecks(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	_, app, _ := newTestServer(t, rdb)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/live", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["redis"])
}

func TestSendInvitationRateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	_, app, db := newTestServer(t, rdb)
	seedUsers(t, db, "alice")

	// Unknown target keeps every call a cheap 404 while still counting.
	status := 0
	for i := 0; i < 31; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/internal/v3/invitations/send?username=alice&targetUsername=ghost", nil))
		require.NoError(t, err)
		status = resp.StatusCode
	}
	assert.Equal(t, fiber.StatusTooManyRequests, status)
}
