package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/linkup-app/backend/internal/database"
	"github.com/linkup-app/backend/internal/dto"
	"github.com/linkup-app/backend/internal/logger"
	"github.com/linkup-app/backend/internal/models"
	"github.com/linkup-app/backend/internal/util"
)

// FollowUser handles POST /api/v1/users/:username/follow.
// Public accounts are followed immediately, private accounts get a
// pending follow request the owner must accept.
func (h *Handlers) FollowUser(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	target, err := findUserByUsername(c.Param("username"))
	if err != nil {
		if isNotFound(err) {
			util.RespondNotFound(c, "user not found")
		} else {
			util.RespondInternalError(c, "failed to follow user")
		}
		return
	}

	if target.ID == user.ID {
		util.RespondBadRequest(c, "you cannot follow yourself")
		return
	}

	following, err := isFollowing(user.ID, target.ID)
	if err != nil {
		util.RespondInternalError(c, "failed to follow user")
		return
	}
	if following {
		c.JSON(http.StatusOK, gin.H{"status": "following"})
		return
	}

	if target.IsPrivate {
		var existing models.FollowRequest
		err := database.DB.Where("requester_id = ? AND target_id = ? AND status = ?",
			user.ID, target.ID, models.FollowRequestStatusPending).First(&existing).Error
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"status": "pending"})
			return
		}
		if !isNotFound(err) {
			util.RespondInternalError(c, "failed to follow user")
			return
		}

		req := models.FollowRequest{
			RequesterID: user.ID,
			TargetID:    target.ID,
			Status:      models.FollowRequestStatusPending,
		}
		if err := database.DB.Create(&req).Error; err != nil {
			logger.ErrorWithFields("Failed to create follow request", err, logger.WithUserID(user.ID))
			util.RespondInternalError(c, "failed to follow user")
			return
		}

		createNotification(target.ID, user.ID, models.NotificationTypeFollowRequest, nil, nil)
		c.JSON(http.StatusCreated, gin.H{"status": "pending"})
		return
	}

	if err := createFollow(database.DB, user.ID, target.ID); err != nil {
		logger.ErrorWithFields("Failed to follow user", err, logger.WithUserID(user.ID))
		util.RespondInternalError(c, "failed to follow user")
		return
	}

	createNotification(target.ID, user.ID, models.NotificationTypeFollow, nil, nil)
	c.JSON(http.StatusCreated, gin.H{"status": "following"})
}

// createFollow inserts the follow edge and bumps both cached counters
func createFollow(db *gorm.DB, followerID, followeeID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Follow{FollowerID: followerID, FolloweeID: followeeID}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", followeeID).
			UpdateColumn("follower_count", gorm.Expr("follower_count + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", followerID).
			UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error
	})
}

// UnfollowUser handles DELETE /api/v1/users/:username/follow.
// Also cancels a pending follow request if one exists.
func (h *Handlers) UnfollowUser(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	target, err := findUserByUsername(c.Param("username"))
	if err != nil {
		if isNotFound(err) {
			util.RespondNotFound(c, "user not found")
		} else {
			util.RespondInternalError(c, "failed to unfollow user")
		}
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND followee_id = ?", user.ID, target.ID).
			Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			if err := tx.Model(&models.User{}).
				Where("id = ? AND follower_count > 0", target.ID).
				UpdateColumn("follower_count", gorm.Expr("follower_count - 1")).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.User{}).
				Where("id = ? AND following_count > 0", user.ID).
				UpdateColumn("following_count", gorm.Expr("following_count - 1")).Error; err != nil {
				return err
			}
		}
		// Withdraw any pending request as well
		return tx.Where("requester_id = ? AND target_id = ? AND status = ?",
			user.ID, target.ID, models.FollowRequestStatusPending).
			Delete(&models.FollowRequest{}).Error
	})
	if err != nil {
		logger.ErrorWithFields("Failed to unfollow user", err, logger.WithUserID(user.ID))
		util.RespondInternalError(c, "failed to unfollow user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "not_following"})
}

// GetFollowRequests handles GET /api/v1/follow-requests
func (h *Handlers) GetFollowRequests(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	limit, offset := util.ParsePagination(c, 20, 100)

	var requests []models.FollowRequest
	err := database.DB.Preload("Requester").
		Where("target_id = ? AND status = ?", user.ID, models.FollowRequestStatusPending).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&requests).Error
	if err != nil {
		logger.ErrorWithFields("Failed to load follow requests", err)
		util.RespondInternalError(c, "failed to load follow requests")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"count":    len(requests),
	})
}

// GetOutgoingFollowRequests handles GET /api/v1/follow-requests/outgoing
func (h *Handlers) GetOutgoingFollowRequests(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	limit, offset := util.ParsePagination(c, 20, 100)

	var requests []models.FollowRequest
	err := database.DB.Preload("Target").
		Where("requester_id = ? AND status = ?", user.ID, models.FollowRequestStatusPending).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&requests).Error
	if err != nil {
		logger.ErrorWithFields("Failed to load outgoing follow requests", err)
		util.RespondInternalError(c, "failed to load follow requests")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"count":    len(requests),
	})
}

// AcceptFollowRequest handles POST /api/v1/follow-requests/:id/accept
func (h *Handlers) AcceptFollowRequest(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req models.FollowRequest
	if err := database.DB.First(&req, "id = ?", c.Param("id")).Error; err != nil {
		if isNotFound(err) {
			util.RespondNotFound(c, "follow request not found")
		} else {
			util.RespondInternalError(c, "failed to load follow request")
		}
		return
	}

	if req.TargetID != user.ID {
		util.RespondForbidden(c, "this follow request is not addressed to you")
		return
	}
	if req.Status != models.FollowRequestStatusPending {
		util.RespondBadRequest(c, "follow request already resolved")
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&req).Update("status", models.FollowRequestStatusAccepted).Error; err != nil {
			return err
		}
		return createFollow(tx, req.RequesterID, req.TargetID)
	})
	if err != nil {
		logger.ErrorWithFields("Failed to accept follow request", err)
		util.RespondInternalError(c, "failed to accept follow request")
		return
	}

	createNotification(req.RequesterID, user.ID, models.NotificationTypeFollowAccepted, nil, nil)
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

// DeclineFollowRequest handles POST /api/v1/follow-requests/:id/decline
func (h *Handlers) DeclineFollowRequest(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req models.FollowRequest
	if err := database.DB.First(&req, "id = ?", c.Param("id")).Error; err != nil {
		if isNotFound(err) {
			util.RespondNotFound(c, "follow request not found")
		} else {
			util.RespondInternalError(c, "failed to load follow request")
		}
		return
	}

	if req.TargetID != user.ID {
		util.RespondForbidden(c, "this follow request is not addressed to you")
		return
	}
	if req.Status != models.FollowRequestStatusPending {
		util.RespondBadRequest(c, "follow request already resolved")
		return
	}

	if err := database.DB.Model(&req).Update("status", models.FollowRequestStatusDeclined).Error; err != nil {
		logger.ErrorWithFields("Failed to decline follow request", err)
		util.RespondInternalError(c, "failed to decline follow request")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "declined"})
}

// acceptAllPendingRequests converts every pending request into a follow.
// Called when a private account goes public.
func (h *Handlers) acceptAllPendingRequests(userID string) {
	var requests []models.FollowRequest
	err := database.DB.Where("target_id = ? AND status = ?", userID, models.FollowRequestStatusPending).
		Find(&requests).Error
	if err != nil {
		logger.ErrorWithFields("Failed to load pending follow requests", err, logger.WithUserID(userID))
		return
	}

	for i := range requests {
		req := &requests[i]
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(req).Update("status", models.FollowRequestStatusAccepted).Error; err != nil {
				return err
			}
			return createFollow(tx, req.RequesterID, req.TargetID)
		})
		if err != nil {
			logger.ErrorWithFields("Failed to auto-accept follow request", err)
			continue
		}
		createNotification(req.RequesterID, userID, models.NotificationTypeFollowAccepted, nil, nil)
	}
}

// GetFollowers handles GET /api/v1/users/:username/followers
func (h *Handlers) GetFollowers(c *gin.Context) {
	h.listFollowEdges(c, "follower")
}

// GetFollowing handles GET /api/v1/users/:username/following
func (h *Handlers) GetFollowing(c *gin.Context) {
	h.listFollowEdges(c, "following")
}

func (h *Handlers) listFollowEdges(c *gin.Context, direction string) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	target, err := findUserByUsername(c.Param("username"))
	if err != nil {
		if isNotFound(err) {
			util.RespondNotFound(c, "user not found")
		} else {
			util.RespondInternalError(c, "failed to load follow list")
		}
		return
	}

	canView, err := canViewProfile(viewerID, target)
	if err != nil {
		util.RespondInternalError(c, "failed to load follow list")
		return
	}
	if !canView {
		util.RespondForbidden(c, "this account is private")
		return
	}

	limit, offset := util.ParsePagination(c, 20, 100)

	var users []models.User
	q := database.DB.Model(&models.User{})
	if direction == "follower" {
		q = q.Joins("JOIN follows ON follows.follower_id = users.id").
			Where("follows.followee_id = ?", target.ID)
	} else {
		q = q.Joins("JOIN follows ON follows.followee_id = users.id").
			Where("follows.follower_id = ?", target.ID)
	}
	if err := q.Order("follows.created_at DESC").
		Limit(limit).Offset(offset).
		Find(&users).Error; err != nil {
		logger.ErrorWithFields("Failed to load follow list", err)
		util.RespondInternalError(c, "failed to load follow list")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": dto.ToPublicUsers(users),
		"count": len(users),
	})
}
