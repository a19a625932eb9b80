package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationType categorizes what triggered a notification
type NotificationType string

const (
	NotificationTypeLike           NotificationType = "like"
	NotificationTypeComment        NotificationType = "comment"
	NotificationTypeReply          NotificationType = "reply"
	NotificationTypeFollow         NotificationType = "follow"
	NotificationTypeFollowRequest  NotificationType = "follow_request"
	NotificationTypeFollowAccepted NotificationType = "follow_accepted"
)

// Notification is a row created when another user interacts with the
// recipient's content. Seen clears the badge; Read is set explicitly.
type Notification struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"` // recipient
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	ActorID string `gorm:"not null;index" json:"actor_id"` // who triggered it
	Actor   User   `gorm:"foreignKey:ActorID" json:"actor,omitempty"`

	Type NotificationType `gorm:"not null" json:"type"`

	// Optional references to the subject of the notification
	PostID    *string `gorm:"type:uuid;index" json:"post_id,omitempty"`
	CommentID *string `gorm:"type:uuid" json:"comment_id,omitempty"`

	Seen bool `gorm:"default:false" json:"seen"`
	Read bool `gorm:"default:false" json:"read"`

	CreatedAt time.Time `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = generateUUID()
	}
	return nil
}
