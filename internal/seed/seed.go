// Package seed creates demo users and a friendship graph for local
// development and tests.
package seed

import (
	"fmt"
	"log/slog"
	"strings"

	"userdata/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options tune the generated data set.
type Options struct {
	// Seed makes runs reproducible; 0 picks a random seed.
	Seed int64
	// FriendRatio and InviteRatio are the probabilities that a pair of
	// users are friends or have a pending invitation.
	FriendRatio float64
	InviteRatio float64
}

// DefaultOptions gives every user a handful of friends and invitations.
var DefaultOptions = Options{FriendRatio: 0.2, InviteRatio: 0.1}

// Seeder writes fake users and friendships.
type Seeder struct {
	db     *gorm.DB
	faker  *gofakeit.Faker
	opts   Options
	logger *slog.Logger
}

// NewSeeder returns a Seeder; a zero opts.Seed picks a random seed.
func NewSeeder(db *gorm.DB, opts Options, logger *slog.Logger) *Seeder {
	return &Seeder{db: db, faker: gofakeit.New(opts.Seed), opts: opts, logger: logger}
}

var currencies = []string{
	string(models.CurrencyRUB),
	string(models.CurrencyKZT),
	string(models.CurrencyEUR),
	string(models.CurrencyUSD),
}

// BuildUser returns an unsaved user with a unique username derived from n.
func (s *Seeder) BuildUser(n int) *models.User {
	first := s.faker.FirstName()
	last := s.faker.LastName()
	photoSeed := s.faker.UUID()
	return &models.User{
		Username:   fmt.Sprintf("%s.%s%d", strings.ToLower(first), strings.ToLower(last), n),
		Firstname:  first,
		Surname:    last,
		FullName:   models.ComposeFullName(first, last),
		Currency:   models.Currency(s.faker.RandomString(currencies)),
		Photo:      fmt.Sprintf("https://picsum.photos/seed/%s/400/400", photoSeed),
		PhotoSmall: fmt.Sprintf("https://picsum.photos/seed/%s/64/64", photoSeed),
	}
}

// SeedUsers creates count users in batches.
func (s *Seeder) SeedUsers(count int) ([]models.User, error) {
	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		users = append(users, *s.BuildUser(i))
	}
	if len(users) == 0 {
		return users, nil
	}
	if err := s.db.CreateInBatches(&users, 100).Error; err != nil {
		return nil, fmt.Errorf("create users: %w", err)
	}
	s.logger.Info("Seeded users", slog.Int("count", len(users)))
	return users, nil
}

// SeedMesh links users pairwise according to the configured ratios and
// returns the number of friendships and invitations created.
func (s *Seeder) SeedMesh(users []models.User) (friends, invites int, err error) {
	var rows []models.Friendship
	for i := range users {
		for j := i + 1; j < len(users); j++ {
			roll := s.faker.Float64Range(0, 1)
			requester, addressee := users[i], users[j]
			if s.faker.Bool() {
				requester, addressee = addressee, requester
			}
			switch {
			case roll < s.opts.FriendRatio:
				rows = append(rows, models.Friendship{RequesterID: requester.ID, AddresseeID: addressee.ID, Status: models.FriendshipStatusAccepted})
				friends++
			case roll < s.opts.FriendRatio+s.opts.InviteRatio:
				rows = append(rows, models.Friendship{RequesterID: requester.ID, AddresseeID: addressee.ID, Status: models.FriendshipStatusPending})
				invites++
			}
		}
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	if err := s.db.Omit("Requester", "Addressee").CreateInBatches(&rows, 200).Error; err != nil {
		return 0, 0, fmt.Errorf("create friendships: %w", err)
	}
	s.logger.Info("Seeded friendships", slog.Int("friends", friends), slog.Int("invitations", invites))
	return friends, invites, nil
}

// ClearAll removes every friendship and user.
func (s *Seeder) ClearAll() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Friendship{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.User{}).Error
	})
}
