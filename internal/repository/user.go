package repository

import (
	"context"
	"errors"
	"fmt"

	"userdata/internal/models"
	"userdata/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	CreateIfMissing(ctx context.Context, user *models.User) (bool, error)
	Update(ctx context.Context, user *models.User) error
	PageOthers(ctx context.Context, userID uuid.UUID, req models.PageRequest, searchQuery *string) ([]UserWithRelation, int64, error)
}

// UserWithRelation is a user row joined with its friendship to the viewer, if any.
type UserWithRelation struct {
	models.User
	FriendshipStatus *models.FriendshipStatus `gorm:"column:friendship_status"`
	RequesterID      *uuid.UUID               `gorm:"column:friendship_requester_id"`
}

// StateFor returns the relation of this user to viewer.
func (u UserWithRelation) StateFor(viewer uuid.UUID) models.FriendshipState {
	if u.FriendshipStatus == nil || u.RequesterID == nil {
		return models.FriendshipStateNone
	}
	f := models.Friendship{Status: *u.FriendshipStatus, RequesterID: *u.RequesterID}
	if *u.RequesterID == viewer {
		f.AddresseeID = u.ID
	} else {
		f.AddresseeID = viewer
	}
	return f.StateFor(viewer)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByUsername returns (nil, nil) when no user has that name.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("User already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// CreateIfMissing inserts user unless the username is taken and reports
// whether a row was written.
func (r *userRepository) CreateIfMissing(ctx context.Context, user *models.User) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "username"}}, DoNothing: true}).
		Create(user)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// PageOthers lists every user except userID, annotated with the friendship
// between them and userID.
func (r *userRepository) PageOthers(ctx context.Context, userID uuid.UUID, req models.PageRequest, searchQuery *string) ([]UserWithRelation, int64, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "PageOthers", "users")
	defer span.End()
	defer observability.TrackQuery("page_others", "users")()

	orders, err := orderClauses(req.Sort)
	if err != nil {
		return nil, 0, err
	}

	q := readDB(r.db).WithContext(ctx).
		Table("users").
		Joins("LEFT JOIN friendships f ON (f.requester_id = users.id AND f.addressee_id = ?) OR (f.addressee_id = users.id AND f.requester_id = ?)", userID, userID).
		Where("users.id <> ?", userID)
	if pattern := searchPattern(searchQuery); pattern != "" {
		q = q.Where("(LOWER(users.username) LIKE ? OR LOWER(users.full_name) LIKE ?)", pattern, pattern)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(fmt.Errorf("count users: %w", err))
	}

	rows := []UserWithRelation{}
	if total == 0 || int64(req.Offset()) >= total {
		return rows, total, nil
	}

	page := q.Select("users.*, f.status AS friendship_status, f.requester_id AS friendship_requester_id")
	for _, o := range orders {
		page = page.Order(o)
	}
	if err := page.Order("users.id ASC").Limit(req.Size).Offset(req.Offset()).Scan(&rows).Error; err != nil {
		return nil, 0, models.NewInternalError(fmt.Errorf("page users: %w", err))
	}
	return rows, total, nil
}
