package models

import (
	"time"

	"github.com/google/uuid"
)

// FriendshipStatus represents the status of a friendship request.
type FriendshipStatus string

const (
	// FriendshipStatusPending indicates a pending friendship request.
	FriendshipStatusPending FriendshipStatus = "pending"
	// FriendshipStatusAccepted indicates an accepted friendship request.
	FriendshipStatusAccepted FriendshipStatus = "accepted"
)

// Friendship represents a friendship relationship between two users.
// Direction matters while pending: the requester sent the invitation.
type Friendship struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	RequesterID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_friendship_users" json:"requester_id"`
	AddresseeID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_friendship_users;index:idx_friendships_addressee" json:"addressee_id"`
	Status      FriendshipStatus `gorm:"type:varchar(20);default:'pending';index:idx_friendships_status" json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`

	Requester User `gorm:"foreignKey:RequesterID;constraint:OnDelete:CASCADE" json:"requester,omitempty"`
	Addressee User `gorm:"foreignKey:AddresseeID;constraint:OnDelete:CASCADE" json:"addressee,omitempty"`
}

// TableName specifies the table name for GORM
func (Friendship) TableName() string {
	return "friendships"
}

// StateFor returns the friendship state of the other party as seen by viewer.
func (f *Friendship) StateFor(viewer uuid.UUID) FriendshipState {
	if f == nil {
		return FriendshipStateNone
	}
	switch f.Status {
	case FriendshipStatusAccepted:
		return FriendshipStateFriend
	case FriendshipStatusPending:
		if f.RequesterID == viewer {
			return FriendshipStateInviteSent
		}
		if f.AddresseeID == viewer {
			return FriendshipStateInviteReceived
		}
	}
	return FriendshipStateNone
}
