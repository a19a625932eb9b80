package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/linkup-app/backend/internal/database"
	"github.com/linkup-app/backend/internal/dto"
	"github.com/linkup-app/backend/internal/logger"
	"github.com/linkup-app/backend/internal/models"
	"github.com/linkup-app/backend/internal/moderation"
	"github.com/linkup-app/backend/internal/util"
)

// CreateComment handles POST /api/v1/posts/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", c.Param("id")).Error; err != nil {
		if isNotFound(err) {
			util.RespondNotFound(c, "post not found")
		} else {
			util.RespondInternalError(c, "failed to load post")
		}
		return
	}

	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	result := h.moderator.CheckText(c.Request.Context(), req.Content)
	if result.Verdict == moderation.VerdictFlagged {
		util.RespondBadRequest(c, "content was rejected by moderation")
		return
	}

	// Replies nest one level deep: replying to a reply attaches to the
	// reply's parent instead
	var parentAuthorID string
	if req.ParentID != nil {
		var parent models.Comment
		if err := database.DB.First(&parent, "id = ?", *req.ParentID).Error; err != nil {
			if isNotFound(err) {
				util.RespondNotFound(c, "parent comment not found")
			} else {
				util.RespondInternalError(c, "failed to load parent comment")
			}
			return
		}
		if parent.PostID != post.ID {
			util.RespondBadRequest(c, "parent comment belongs to a different post")
			return
		}
		if parent.ParentID != nil {
			req.ParentID = parent.ParentID
		}
		parentAuthorID = parent.UserID
	}

	comment := models.Comment{
		PostID:   post.ID,
		UserID:   user.ID,
		Content:  req.Content,
		ParentID: req.ParentID,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&post).UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
	if err != nil {
		logger.ErrorWithFields("Failed to create comment", err, logger.WithPostID(post.ID))
		util.RespondInternalError(c, "failed to create comment")
		return
	}

	if req.ParentID != nil && parentAuthorID != "" {
		createNotification(parentAuthorID, user.ID, models.NotificationTypeReply, &post.ID, &comment.ID)
	}
	createNotification(post.UserID, user.ID, models.NotificationTypeComment, &post.ID, &comment.ID)

	comment.User = *user
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// GetComments handles GET /api/v1/posts/:id/comments.
// Top-level comments are paginated, replies come preloaded.
func (h *Handlers) GetComments(c *gin.Context) {
	limit, offset := util.ParsePagination(c, 20, 100)

	var comments []models.Comment
	err := database.DB.
		Preload("User").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Replies.User").
		Where("post_id = ? AND parent_id IS NULL", c.Param("id")).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&comments).Error
	if err != nil {
		logger.ErrorWithFields("Failed to load comments", err)
		util.RespondInternalError(c, "failed to load comments")
		return
	}

	// Deleted comments keep their place in the thread but lose content
	for i := range comments {
		redactDeleted(&comments[i])
		for _, r := range comments[i].Replies {
			redactDeleted(r)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"count":    len(comments),
	})
}

func redactDeleted(comment *models.Comment) {
	if comment.IsDeleted {
		comment.Content = ""
		comment.User = models.User{ID: comment.UserID}
	}
}

// UpdateComment handles PATCH /api/v1/comments/:id
func (h *Handlers) UpdateComment(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ?", c.Param("id")).Error; err != nil {
		if isNotFound(err) {
			util.RespondNotFound(c, "comment not found")
		} else {
			util.RespondInternalError(c, "failed to load comment")
		}
		return
	}

	if comment.UserID != user.ID {
		util.RespondForbidden(c, "you can only edit your own comments")
		return
	}
	if comment.IsDeleted {
		util.RespondBadRequest(c, "comment has been deleted")
		return
	}

	var req dto.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	result := h.moderator.CheckText(c.Request.Context(), req.Content)
	if result.Verdict == moderation.VerdictFlagged {
		util.RespondBadRequest(c, "content was rejected by moderation")
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"content":   req.Content,
		"is_edited": true,
		"edited_at": &now,
	}
	if err := database.DB.Model(&comment).Updates(updates).Error; err != nil {
		logger.ErrorWithFields("Failed to update comment", err)
		util.RespondInternalError(c, "failed to update comment")
		return
	}

	c.JSON(http.StatusOK, gin.H{"comment": comment})
}

// DeleteComment handles DELETE /api/v1/comments/:id.
// Comments with replies are soft-deleted so the thread stays readable,
// childless comments are removed outright.
func (h *Handlers) DeleteComment(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ?", c.Param("id")).Error; err != nil {
		if isNotFound(err) {
			util.RespondNotFound(c, "comment not found")
		} else {
			util.RespondInternalError(c, "failed to load comment")
		}
		return
	}

	if comment.UserID != user.ID && !user.IsAdmin {
		util.RespondForbidden(c, "you can only delete your own comments")
		return
	}

	var replyCount int64
	if err := database.DB.Model(&models.Comment{}).
		Where("parent_id = ?", comment.ID).Count(&replyCount).Error; err != nil {
		util.RespondInternalError(c, "failed to delete comment")
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if replyCount > 0 {
			if err := tx.Model(&comment).Updates(map[string]interface{}{
				"is_deleted": true,
				"content":    "",
			}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("comment_id = ?", comment.ID).Delete(&models.CommentLike{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&comment).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Post{}).
			Where("id = ? AND comment_count > 0", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count - 1")).Error
	})
	if err != nil {
		logger.ErrorWithFields("Failed to delete comment", err)
		util.RespondInternalError(c, "failed to delete comment")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}

// LikeComment handles POST /api/v1/comments/:id/like
func (h *Handlers) LikeComment(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ?", c.Param("id")).Error; err != nil {
		if isNotFound(err) {
			util.RespondNotFound(c, "comment not found")
		} else {
			util.RespondInternalError(c, "failed to load comment")
		}
		return
	}

	var existing models.CommentLike
	err := database.DB.Where("user_id = ? AND comment_id = ?", user.ID, comment.ID).
		First(&existing).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"liked": true, "like_count": comment.LikeCount})
		return
	}
	if !isNotFound(err) {
		util.RespondInternalError(c, "failed to like comment")
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.CommentLike{UserID: user.ID, CommentID: comment.ID}).Error; err != nil {
			return err
		}
		return tx.Model(&comment).UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
	})
	if err != nil {
		logger.ErrorWithFields("Failed to like comment", err)
		util.RespondInternalError(c, "failed to like comment")
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": true, "like_count": comment.LikeCount + 1})
}

// UnlikeComment handles DELETE /api/v1/comments/:id/like
func (h *Handlers) UnlikeComment(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ?", c.Param("id")).Error; err != nil {
		if isNotFound(err) {
			util.RespondNotFound(c, "comment not found")
		} else {
			util.RespondInternalError(c, "failed to load comment")
		}
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND comment_id = ?", user.ID, comment.ID).
			Delete(&models.CommentLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&comment).Where("like_count > 0").
			UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error
	})
	if err != nil {
		logger.ErrorWithFields("Failed to unlike comment", err)
		util.RespondInternalError(c, "failed to unlike comment")
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": false})
}
