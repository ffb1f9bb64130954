// Package models contains data structures for the userdata domain.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Currency is the preferred spending currency of a user.
type Currency string

const (
	CurrencyRUB Currency = "RUB"
	CurrencyKZT Currency = "KZT"
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
)

// DefaultCurrency is assigned to users created without an explicit currency.
const DefaultCurrency = CurrencyRUB

// Valid reports whether c is one of the supported currencies.
func (c Currency) Valid() bool {
	switch c {
	case CurrencyRUB, CurrencyKZT, CurrencyEUR, CurrencyUSD:
		return true
	}
	return false
}

// User is the persisted userdata record.
type User struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username   string    `gorm:"uniqueIndex;not null;size:50" json:"username"`
	Currency   Currency  `gorm:"type:varchar(3);not null;default:'RUB'" json:"currency"`
	Firstname  string    `gorm:"size:255" json:"firstname"`
	Surname    string    `gorm:"size:255" json:"surname"`
	FullName   string    `gorm:"size:255;index:idx_users_full_name" json:"fullname"`
	Photo      string    `json:"photo"`
	PhotoSmall string    `json:"photo_small"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns an id and fills defaults.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Currency == "" {
		u.Currency = DefaultCurrency
	}
	return nil
}

// ComposeFullName joins first name and surname, skipping blanks.
func ComposeFullName(firstname, surname string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(firstname+" "+surname), " "))
}

// FriendshipState is the relation of a listed user to the requesting user.
type FriendshipState string

const (
	FriendshipStateNone           FriendshipState = ""
	FriendshipStateInviteSent     FriendshipState = "INVITE_SENT"
	FriendshipStateInviteReceived FriendshipState = "INVITE_RECEIVED"
	FriendshipStateFriend         FriendshipState = "FRIEND"
)

// UserJSON is the API representation of a user, optionally annotated with
// its friendship state relative to the caller.
type UserJSON struct {
	ID               uuid.UUID       `json:"id"`
	Username         string          `json:"username"`
	Firstname        string          `json:"firstname,omitempty"`
	Surname          string          `json:"surname,omitempty"`
	FullName         string          `json:"fullname,omitempty"`
	Currency         Currency        `json:"currency"`
	Photo            string          `json:"photo,omitempty"`
	PhotoSmall       string          `json:"photoSmall,omitempty"`
	FriendshipStatus FriendshipState `json:"friendshipStatus,omitempty"`
}

// ToJSON converts a user into its API representation.
func (u *User) ToJSON(state FriendshipState) UserJSON {
	return UserJSON{
		ID:               u.ID,
		Username:         u.Username,
		Firstname:        u.Firstname,
		Surname:          u.Surname,
		FullName:         u.FullName,
		Currency:         u.Currency,
		Photo:            u.Photo,
		PhotoSmall:       u.PhotoSmall,
		FriendshipStatus: state,
	}
}
