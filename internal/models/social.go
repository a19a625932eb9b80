package models

import (
	"time"

	"gorm.io/gorm"
)

// FollowRequestStatus represents the lifecycle state of a follow request
type FollowRequestStatus string

const (
	FollowRequestStatusPending  FollowRequestStatus = "pending"
	FollowRequestStatusAccepted FollowRequestStatus = "accepted"
	FollowRequestStatusDeclined FollowRequestStatus = "declined"
)

// FollowRequest links a requester to a target user. Requests against public
// accounts are accepted immediately; private accounts hold them pending.
type FollowRequest struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	RequesterID string `gorm:"not null;index" json:"requester_id"`
	Requester   User   `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	TargetID    string `gorm:"not null;index" json:"target_id"`
	Target      User   `gorm:"foreignKey:TargetID" json:"target,omitempty"`

	Status FollowRequestStatus `gorm:"not null;default:pending" json:"status"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Follow represents an established follower relationship.
// One row per follower/followee pair, enforced by a unique index.
type Follow struct {
	ID         string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	FollowerID string `gorm:"not null;index" json:"follower_id"`
	Follower   User   `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	FolloweeID string `gorm:"not null;index" json:"followee_id"`
	Followee   User   `gorm:"foreignKey:FolloweeID" json:"followee,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (fr *FollowRequest) BeforeCreate(tx *gorm.DB) error {
	if fr.ID == "" {
		fr.ID = generateUUID()
	}
	return nil
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}
