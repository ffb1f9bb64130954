package service

import (
	"context"

	"userdata/internal/models"
	"userdata/internal/observability"
	"userdata/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FriendService provides the invitation and friendship lifecycle by username.
type FriendService struct {
	friendRepo repository.FriendRepository
	userRepo   repository.UserRepository
}

// NewFriendService returns a new FriendService.
func NewFriendService(friendRepo repository.FriendRepository, userRepo repository.UserRepository) *FriendService {
	return &FriendService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
	}
}

func (s *FriendService) pair(ctx context.Context, username, targetUsername string) (*models.User, *models.User, error) {
	if username == "" || targetUsername == "" {
		return nil, nil, models.NewValidationError("Both username and targetUsername are required")
	}
	if username == targetUsername {
		return nil, nil, models.NewValidationError("Can't create friendship request for self user")
	}
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, models.NewNotFoundError("User", username)
	}
	target, err := s.userRepo.GetByUsername(ctx, targetUsername)
	if err != nil {
		return nil, nil, err
	}
	if target == nil {
		return nil, nil, models.NewNotFoundError("User", targetUsername)
	}
	return user, target, nil
}

// SendInvitation sends a friend invitation from username to targetUsername.
func (s *FriendService) SendInvitation(ctx context.Context, username, targetUsername string) (out *models.UserJSON, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "FriendService", "SendInvitation",
		attribute.String("user.name", username),
		attribute.String("target.name", targetUsername),
	)
	defer func() { observability.EndSpan(span, err) }()

	user, target, err := s.pair(ctx, username, targetUsername)
	if err != nil {
		return nil, err
	}

	existing, err := s.friendRepo.GetFriendshipBetweenUsers(ctx, user.ID, target.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		switch {
		case existing.Status == models.FriendshipStatusAccepted:
			return nil, models.NewValidationError("You are already friends")
		case existing.RequesterID == user.ID:
			return nil, models.NewValidationError("Invitation already sent")
		default:
			return nil, models.NewValidationError("You already have a pending invitation from this user")
		}
	}

	friendship := &models.Friendship{
		RequesterID: user.ID,
		AddresseeID: target.ID,
		Status:      models.FriendshipStatusPending,
	}
	if err := s.friendRepo.Create(ctx, friendship); err != nil {
		return nil, err
	}

	res := target.ToJSON(models.FriendshipStateInviteSent)
	return &res, nil
}

// incoming returns the pending invitation sent by target to user.
func (s *FriendService) incoming(ctx context.Context, user, target *models.User) (*models.Friendship, error) {
	f, err := s.friendRepo.GetFriendshipBetweenUsers(ctx, user.ID, target.ID)
	if err != nil {
		return nil, err
	}
	if f == nil || f.Status != models.FriendshipStatusPending || f.RequesterID != target.ID {
		return nil, models.NewNotFoundError("Invitation from", target.Username)
	}
	return f, nil
}

// AcceptInvitation accepts the invitation targetUsername sent to username.
func (s *FriendService) AcceptInvitation(ctx context.Context, username, targetUsername string) (out *models.UserJSON, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "FriendService", "AcceptInvitation",
		attribute.String("user.name", username),
		attribute.String("target.name", targetUsername),
	)
	defer func() { observability.EndSpan(span, err) }()

	user, target, err := s.pair(ctx, username, targetUsername)
	if err != nil {
		return nil, err
	}
	f, err := s.incoming(ctx, user, target)
	if err != nil {
		return nil, err
	}
	if err := s.friendRepo.UpdateStatus(ctx, f.ID, models.FriendshipStatusAccepted); err != nil {
		return nil, err
	}

	res := target.ToJSON(models.FriendshipStateFriend)
	return &res, nil
}

// DeclineInvitation drops the invitation targetUsername sent to username.
func (s *FriendService) DeclineInvitation(ctx context.Context, username, targetUsername string) (out *models.UserJSON, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "FriendService", "DeclineInvitation",
		attribute.String("user.name", username),
		attribute.String("target.name", targetUsername),
	)
	defer func() { observability.EndSpan(span, err) }()

	user, target, err := s.pair(ctx, username, targetUsername)
	if err != nil {
		return nil, err
	}
	f, err := s.incoming(ctx, user, target)
	if err != nil {
		return nil, err
	}
	if err := s.friendRepo.Delete(ctx, f.ID); err != nil {
		return nil, err
	}

	res := target.ToJSON(models.FriendshipStateNone)
	return &res, nil
}

// RemoveFriend ends an accepted friendship between the two users.
func (s *FriendService) RemoveFriend(ctx context.Context, username, targetUsername string) (err error) {
	ctx, span := observability.StartServiceSpan(ctx, "FriendService", "RemoveFriend",
		attribute.String("user.name", username),
		attribute.String("target.name", targetUsername),
	)
	defer func() { observability.EndSpan(span, err) }()

	user, target, err := s.pair(ctx, username, targetUsername)
	if err != nil {
		return err
	}
	f, err := s.friendRepo.GetFriendshipBetweenUsers(ctx, user.ID, target.ID)
	if err != nil {
		return err
	}
	if f == nil || f.Status != models.FriendshipStatusAccepted {
		return models.NewNotFoundError("Friendship with", targetUsername)
	}
	return s.friendRepo.Delete(ctx, f.ID)
}
