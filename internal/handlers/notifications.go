package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linkup-app/backend/internal/database"
	"github.com/linkup-app/backend/internal/logger"
	"github.com/linkup-app/backend/internal/models"
	"github.com/linkup-app/backend/internal/util"
)

// GetNotifications handles GET /api/v1/notifications.
// Returns the newest notifications plus unseen/unread counts for badges.
func (h *Handlers) GetNotifications(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	limit, offset := util.ParsePagination(c, 20, 100)

	var notifications []models.Notification
	err := database.DB.Preload("Actor").
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&notifications).Error
	if err != nil {
		logger.ErrorWithFields("Failed to load notifications", err, logger.WithUserID(user.ID))
		util.RespondInternalError(c, "failed to load notifications")
		return
	}

	var unseen, unread int64
	database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND seen = false", user.ID).Count(&unseen)
	database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = false", user.ID).Count(&unread)

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"unseen_count":  unseen,
		"unread_count":  unread,
	})
}

// MarkNotificationsSeen handles POST /api/v1/notifications/seen.
// Clears the badge without marking individual rows read.
func (h *Handlers) MarkNotificationsSeen(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND seen = false", user.ID).
		Update("seen", true).Error
	if err != nil {
		logger.ErrorWithFields("Failed to mark notifications seen", err, logger.WithUserID(user.ID))
		util.RespondInternalError(c, "failed to update notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "notifications marked seen"})
}

// MarkNotificationRead handles POST /api/v1/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var notification models.Notification
	if err := database.DB.First(&notification, "id = ?", c.Param("id")).Error; err != nil {
		if isNotFound(err) {
			util.RespondNotFound(c, "notification not found")
		} else {
			util.RespondInternalError(c, "failed to load notification")
		}
		return
	}

	if notification.UserID != user.ID {
		util.RespondForbidden(c, "this notification is not yours")
		return
	}

	if err := database.DB.Model(&notification).
		Updates(map[string]interface{}{"read": true, "seen": true}).Error; err != nil {
		logger.ErrorWithFields("Failed to mark notification read", err)
		util.RespondInternalError(c, "failed to update notification")
		return
	}

	c.JSON(http.StatusOK, gin.H{"notification": notification})
}

// MarkAllNotificationsRead handles POST /api/v1/notifications/read-all
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = false", user.ID).
		Updates(map[string]interface{}{"read": true, "seen": true}).Error
	if err != nil {
		logger.ErrorWithFields("Failed to mark notifications read", err, logger.WithUserID(user.ID))
		util.RespondInternalError(c, "failed to update notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "all notifications marked read"})
}
