package handlers

import (
	"errors"

	"gorm.io/gorm"

	"github.com/linkup-app/backend/internal/database"
	"github.com/linkup-app/backend/internal/logger"
	"github.com/linkup-app/backend/internal/models"
)

// createNotification inserts a notification row. Self-notifications are
// skipped and failures are logged, notifying must never fail the action
// that triggered it.
func createNotification(userID, actorID string, nType models.NotificationType, postID, commentID *string) {
	if userID == actorID {
		return
	}

	n := models.Notification{
		UserID:    userID,
		ActorID:   actorID,
		Type:      nType,
		PostID:    postID,
		CommentID: commentID,
	}
	if err := database.DB.Create(&n).Error; err != nil {
		logger.ErrorWithFields("Failed to create notification", err,
			logger.WithUserID(userID),
		)
	}
}

// isFollowing reports whether follower follows followee
func isFollowing(followerID, followeeID string) (bool, error) {
	var count int64
	err := database.DB.Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	return count > 0, err
}

// canViewProfile reports whether viewer may see a private account's
// content. Owners and accepted followers can, everyone else cannot.
func canViewProfile(viewerID string, owner *models.User) (bool, error) {
	if !owner.IsPrivate || viewerID == owner.ID {
		return true, nil
	}
	return isFollowing(viewerID, owner.ID)
}

// findUserByID loads a user or returns gorm.ErrRecordNotFound
func findUserByID(id string) (*models.User, error) {
	var user models.User
	if err := database.DB.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// findUserByUsername loads a user by handle, case-insensitive
func findUserByUsername(username string) (*models.User, error) {
	var user models.User
	err := database.DB.Where("LOWER(username) = LOWER(?)", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// isNotFound reports whether err is a gorm record-not-found
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
