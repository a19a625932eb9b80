package dto

import (
	"time"

	"github.com/linkup-app/backend/internal/models"
)

// UpdateProfileRequest updates mutable profile fields. Pointer fields
// distinguish "not sent" from "set to empty".
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,min=1,max=50"`
	Bio         *string `json:"bio" binding:"omitempty,max=500"`
	Website     *string `json:"website" binding:"omitempty,linkup_url"`
	IsPrivate   *bool   `json:"is_private"`
}

// ChangeUsernameRequest changes the caller's unique handle
type ChangeUsernameRequest struct {
	Username string `json:"username" binding:"required,linkup_username"`
}

// PasswordResetRequest asks for a reset email
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// PasswordResetConfirm completes a reset with the emailed token
type PasswordResetConfirm struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,linkup_password"`
}

// PublicUser is the profile shape returned for other users. It omits
// email and other private fields.
type PublicUser struct {
	ID                string     `json:"id"`
	Username          string     `json:"username"`
	DisplayName       string     `json:"display_name"`
	Bio               string     `json:"bio,omitempty"`
	Website           string     `json:"website,omitempty"`
	ProfilePictureURL string     `json:"profile_picture_url,omitempty"`
	IsPrivate         bool       `json:"is_private"`
	FollowerCount     int        `json:"follower_count"`
	FollowingCount    int        `json:"following_count"`
	PostCount         int        `json:"post_count"`
	CreatedAt         time.Time  `json:"created_at"`
	LastActiveAt      *time.Time `json:"last_active_at,omitempty"`
}

// ToPublicUser strips private fields from a user record
func ToPublicUser(u *models.User) PublicUser {
	return PublicUser{
		ID:                u.ID,
		Username:          u.Username,
		DisplayName:       u.DisplayName,
		Bio:               u.Bio,
		Website:           u.Website,
		ProfilePictureURL: u.ProfilePictureURL,
		IsPrivate:         u.IsPrivate,
		FollowerCount:     u.FollowerCount,
		FollowingCount:    u.FollowingCount,
		PostCount:         u.PostCount,
		CreatedAt:         u.CreatedAt,
		LastActiveAt:      u.LastActiveAt,
	}
}

// ToPublicUsers converts a slice of user records
func ToPublicUsers(users []models.User) []PublicUser {
	out := make([]PublicUser, len(users))
	for i := range users {
		out[i] = ToPublicUser(&users[i])
	}
	return out
}
