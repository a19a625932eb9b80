package models

import (
	"time"

	"gorm.io/gorm"
)

// Story represents an ephemeral image post visible for 24 hours
type Story struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	// Content
	ImageURL string `gorm:"not null" json:"image_url"`
	Caption  string `gorm:"type:text" json:"caption,omitempty"`

	// Expiration: created_at + 24 hours
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`

	// Analytics
	ViewCount int `gorm:"default:0" json:"view_count"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// StoryView tracks who viewed a story
type StoryView struct {
	ID       string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	StoryID  string    `gorm:"not null;index" json:"story_id"`
	Story    Story     `gorm:"foreignKey:StoryID" json:"story,omitempty"`
	ViewerID string    `gorm:"not null;index" json:"viewer_id"`
	Viewer   User      `gorm:"foreignKey:ViewerID" json:"viewer,omitempty"`
	ViewedAt time.Time `gorm:"not null;default:now()" json:"viewed_at"`
}

// TableName ensures unique constraint: one view per user per story
func (StoryView) TableName() string {
	return "story_views"
}

// Highlight represents a named collection of saved stories.
// Highlighted stories are permanent - they don't expire like regular stories.
type Highlight struct {
	ID            string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID        string `gorm:"not null;index" json:"user_id"`
	User          User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Name          string `gorm:"not null" json:"name"`
	CoverImageURL string `json:"cover_image_url,omitempty"`
	SortOrder     int    `gorm:"default:0" json:"sort_order"`
	StoryCount    int    `gorm:"default:0" json:"story_count"` // cached count

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// HighlightedStory is the join table between highlights and stories
type HighlightedStory struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	HighlightID string `gorm:"not null;index" json:"highlight_id"`
	StoryID     string `gorm:"not null;index" json:"story_id"`
	SortOrder   int    `gorm:"default:0" json:"sort_order"` // order within highlight

	// Relations
	Highlight Highlight `gorm:"foreignKey:HighlightID" json:"highlight,omitempty"`
	Story     Story     `gorm:"foreignKey:StoryID" json:"story,omitempty"`

	// GORM fields
	CreatedAt time.Time `json:"created_at"`
}

// TableName for highlighted stories
func (HighlightedStory) TableName() string {
	return "highlighted_stories"
}

func (s *Story) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = generateUUID()
	}
	// Set expires_at to 24 hours from now if not already set
	if s.ExpiresAt.IsZero() {
		s.ExpiresAt = time.Now().UTC().Add(24 * time.Hour)
	}
	return nil
}

func (sv *StoryView) BeforeCreate(tx *gorm.DB) error {
	if sv.ID == "" {
		sv.ID = generateUUID()
	}
	return nil
}

func (h *Highlight) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = generateUUID()
	}
	return nil
}

func (hs *HighlightedStory) BeforeCreate(tx *gorm.DB) error {
	if hs.ID == "" {
		hs.ID = generateUUID()
	}
	return nil
}
