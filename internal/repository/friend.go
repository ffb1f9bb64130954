package repository

import (
	"context"
	"errors"
	"fmt"

	"userdata/internal/models"
	"userdata/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FriendRepository defines the interface for friend data operations
type FriendRepository interface {
	Create(ctx context.Context, friendship *models.Friendship) error
	GetFriendshipBetweenUsers(ctx context.Context, userID1, userID2 uuid.UUID) (*models.Friendship, error)
	UpdateStatus(ctx context.Context, friendshipID uint, status models.FriendshipStatus) error
	Delete(ctx context.Context, friendshipID uint) error
	FriendsPage(ctx context.Context, userID uuid.UUID, req models.PageRequest, searchQuery *string) ([]FriendRow, int64, error)
}

// FriendRow is a friend or inviting user together with the friendship status.
type FriendRow struct {
	models.User
	FriendshipStatus models.FriendshipStatus `gorm:"column:friendship_status"`
}

// State maps the stored status to the caller's view. Only incoming
// invitations are ever pending in a friends page.
func (r FriendRow) State() models.FriendshipState {
	if r.FriendshipStatus == models.FriendshipStatusPending {
		return models.FriendshipStateInviteReceived
	}
	return models.FriendshipStateFriend
}

// friendRepository implements FriendRepository
type friendRepository struct {
	db *gorm.DB
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

func (r *friendRepository) Create(ctx context.Context, friendship *models.Friendship) error {
	if err := r.db.WithContext(ctx).Create(friendship).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Friendship already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// GetFriendshipBetweenUsers returns (nil, nil) when the users are unrelated.
func (r *friendRepository) GetFriendshipBetweenUsers(ctx context.Context, userID1, userID2 uuid.UUID) (*models.Friendship, error) {
	var friendship models.Friendship

	if err := r.db.WithContext(ctx).
		Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)",
			userID1, userID2, userID2, userID1).
		First(&friendship).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &friendship, nil
}

func (r *friendRepository) UpdateStatus(ctx context.Context, friendshipID uint, status models.FriendshipStatus) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Friendship{}).
		Where("id = ?", friendshipID).
		Update("status", status).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *friendRepository) Delete(ctx context.Context, friendshipID uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Friendship{}, friendshipID).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// FriendsPage returns one page of the user's friends and incoming
// invitations. Invitations sort first, then the requested order.
func (r *friendRepository) FriendsPage(ctx context.Context, userID uuid.UUID, req models.PageRequest, searchQuery *string) ([]FriendRow, int64, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "FriendsPage", "friendships")
	defer span.End()
	defer observability.TrackQuery("friends_page", "friendships")()

	orders, err := orderClauses(req.Sort)
	if err != nil {
		return nil, 0, err
	}

	// Outgoing invitations are not part of a friends list.
	q := readDB(r.db).WithContext(ctx).
		Table("users").
		Joins("JOIN friendships f ON (f.requester_id = users.id AND f.addressee_id = ?) OR (f.addressee_id = users.id AND f.requester_id = ? AND f.status = ?)",
			userID, userID, models.FriendshipStatusAccepted)
	if pattern := searchPattern(searchQuery); pattern != "" {
		q = q.Where("(LOWER(users.username) LIKE ? OR LOWER(users.full_name) LIKE ?)", pattern, pattern)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(fmt.Errorf("count friends: %w", err))
	}

	rows := []FriendRow{}
	if total == 0 || int64(req.Offset()) >= total {
		return rows, total, nil
	}

	page := q.Select("users.*, f.status AS friendship_status").
		Order(fmt.Sprintf("CASE WHEN f.status = '%s' THEN 0 ELSE 1 END", models.FriendshipStatusPending))
	for _, o := range orders {
		page = page.Order(o)
	}
	if err := page.Order("users.id ASC").Limit(req.Size).Offset(req.Offset()).Scan(&rows).Error; err != nil {
		return nil, 0, models.NewInternalError(fmt.Errorf("page friends: %w", err))
	}
	return rows, total, nil
}
