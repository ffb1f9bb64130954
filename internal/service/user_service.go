// Package service contains the business logic of the userdata service.
package service

import (
	"context"
	"strings"

	"userdata/internal/models"
	"userdata/internal/observability"
	"userdata/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// UserService reads and maintains users and their friend lists.
type UserService struct {
	userRepo   repository.UserRepository
	friendRepo repository.FriendRepository
}

// UpdateUserInput carries the editable profile fields. Username selects the user.
type UpdateUserInput struct {
	Username   string
	Firstname  string
	Surname    string
	FullName   string
	Currency   models.Currency
	Photo      string
	PhotoSmall string
}

// NewUserService creates a new user service.
func NewUserService(userRepo repository.UserRepository, friendRepo repository.FriendRepository) *UserService {
	return &UserService{userRepo: userRepo, friendRepo: friendRepo}
}

// requireUser loads username or fails with a not-found error.
func (s *UserService) requireUser(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return user, nil
}

// Friends returns a page of the user's friends and incoming invitations.
func (s *UserService) Friends(ctx context.Context, username string, req models.PageRequest, searchQuery *string) (page *models.Page[models.UserJSON], err error) {
	ctx, span := observability.StartServiceSpan(ctx, "UserService", "Friends",
		attribute.String("user.name", username),
		attribute.Int("page.number", req.Page),
		attribute.Int("page.size", req.Size),
	)
	defer func() { observability.EndSpan(span, err) }()

	user, err := s.requireUser(ctx, username)
	if err != nil {
		return nil, err
	}

	rows, total, err := s.friendRepo.FriendsPage(ctx, user.ID, req, searchQuery)
	if err != nil {
		return nil, err
	}

	content := make([]models.UserJSON, 0, len(rows))
	for i := range rows {
		content = append(content, rows[i].User.ToJSON(rows[i].State()))
	}
	return models.NewPage(content, req, total), nil
}

// AllUsers returns a page of every other user with their relation to username.
func (s *UserService) AllUsers(ctx context.Context, username string, req models.PageRequest, searchQuery *string) (page *models.Page[models.UserJSON], err error) {
	ctx, span := observability.StartServiceSpan(ctx, "UserService", "AllUsers",
		attribute.String("user.name", username),
	)
	defer func() { observability.EndSpan(span, err) }()

	user, err := s.requireUser(ctx, username)
	if err != nil {
		return nil, err
	}

	rows, total, err := s.userRepo.PageOthers(ctx, user.ID, req, searchQuery)
	if err != nil {
		return nil, err
	}

	content := make([]models.UserJSON, 0, len(rows))
	for i := range rows {
		content = append(content, rows[i].User.ToJSON(rows[i].StateFor(user.ID)))
	}
	return models.NewPage(content, req, total), nil
}

// CurrentUser returns the user, registering it with defaults on first access.
func (s *UserService) CurrentUser(ctx context.Context, username string) (*models.UserJSON, error) {
	if strings.TrimSpace(username) == "" {
		return nil, models.NewValidationError("Username is required")
	}
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &models.User{Username: username, Currency: models.DefaultCurrency}
		if _, err := s.userRepo.CreateIfMissing(ctx, user); err != nil {
			return nil, err
		}
		if user, err = s.requireUser(ctx, username); err != nil {
			return nil, err
		}
	}
	out := user.ToJSON(models.FriendshipStateNone)
	return &out, nil
}

// UpdateUser applies in to the stored profile, creating the user when absent.
// A blank full name is derived from first name and surname.
func (s *UserService) UpdateUser(ctx context.Context, in UpdateUserInput) (*models.UserJSON, error) {
	if strings.TrimSpace(in.Username) == "" {
		return nil, models.NewValidationError("Username is required")
	}
	if in.Currency != "" && !in.Currency.Valid() {
		return nil, models.NewValidationError("Unsupported currency " + string(in.Currency))
	}

	user, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &models.User{Username: in.Username}
	}

	user.Firstname = strings.TrimSpace(in.Firstname)
	user.Surname = strings.TrimSpace(in.Surname)
	user.FullName = strings.TrimSpace(in.FullName)
	if user.FullName == "" {
		user.FullName = models.ComposeFullName(user.Firstname, user.Surname)
	}
	if in.Currency != "" {
		user.Currency = in.Currency
	}
	if in.Photo != "" {
		user.Photo = in.Photo
	}
	if in.PhotoSmall != "" {
		user.PhotoSmall = in.PhotoSmall
	}

	if user.CreatedAt.IsZero() {
		err = s.userRepo.Create(ctx, user)
	} else {
		err = s.userRepo.Update(ctx, user)
	}
	if err != nil {
		return nil, err
	}
	out := user.ToJSON(models.FriendshipStateNone)
	return &out, nil
}

// CreateFromEvent registers a user announced on the users topic. Replays
// of an already known username are no-ops.
func (s *UserService) CreateFromEvent(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, models.NewValidationError("Username is required")
	}
	return s.userRepo.CreateIfMissing(ctx, &models.User{Username: username, Currency: models.DefaultCurrency})
}
