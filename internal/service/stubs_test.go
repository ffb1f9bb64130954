package service

import (
	"context"

	"userdata/internal/models"
	"userdata/internal/repository"

	"github.com/google/uuid"
)

type friendRepoStub struct {
	createFn                    func(context.Context, *models.Friendship) error
	getFriendshipBetweenUsersFn func(context.Context, uuid.UUID, uuid.UUID) (*models.Friendship, error)
	updateStatusFn              func(context.Context, uint, models.FriendshipStatus) error
	deleteFn                    func(context.Context, uint) error
	friendsPageFn               func(context.Context, uuid.UUID, models.PageRequest, *string) ([]repository.FriendRow, int64, error)
}

func (s *friendRepoStub) Create(ctx context.Context, friendship *models.Friendship) error {
	return s.createFn(ctx, friendship)
}
func (s *friendRepoStub) GetFriendshipBetweenUsers(ctx context.Context, userID1, userID2 uuid.UUID) (*models.Friendship, error) {
	return s.getFriendshipBetweenUsersFn(ctx, userID1, userID2)
}
func (s *friendRepoStub) UpdateStatus(ctx context.Context, friendshipID uint, status models.FriendshipStatus) error {
	return s.updateStatusFn(ctx, friendshipID, status)
}
func (s *friendRepoStub) Delete(ctx context.Context, friendshipID uint) error {
	return s.deleteFn(ctx, friendshipID)
}
func (s *friendRepoStub) FriendsPage(ctx context.Context, userID uuid.UUID, req models.PageRequest, searchQuery *string) ([]repository.FriendRow, int64, error) {
	return s.friendsPageFn(ctx, userID, req, searchQuery)
}

type userRepoStub struct {
	getByIDFn         func(context.Context, uuid.UUID) (*models.User, error)
	getByUsernameFn   func(context.Context, string) (*models.User, error)
	createFn          func(context.Context, *models.User) error
	createIfMissingFn func(context.Context, *models.User) (bool, error)
	updateFn          func(context.Context, *models.User) error
	pageOthersFn      func(context.Context, uuid.UUID, models.PageRequest, *string) ([]repository.UserWithRelation, int64, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) CreateIfMissing(ctx context.Context, user *models.User) (bool, error) {
	return s.createIfMissingFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) PageOthers(ctx context.Context, userID uuid.UUID, req models.PageRequest, searchQuery *string) ([]repository.UserWithRelation, int64, error) {
	return s.pageOthersFn(ctx, userID, req, searchQuery)
}

// usersByName serves GetByUsername from a fixed set of users.
func usersByName(users ...*models.User) func(context.Context, string) (*models.User, error) {
	return func(_ context.Context, username string) (*models.User, error) {
		for _, u := range users {
			if u.Username == username {
				return u, nil
			}
		}
		return nil, nil
	}
}
