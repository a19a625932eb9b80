package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/linkup-app/backend/internal/database"
	"github.com/linkup-app/backend/internal/dto"
	apierrors "github.com/linkup-app/backend/internal/errors"
	"github.com/linkup-app/backend/internal/logger"
	"github.com/linkup-app/backend/internal/models"
	"github.com/linkup-app/backend/internal/moderation"
	"github.com/linkup-app/backend/internal/storage"
	"github.com/linkup-app/backend/internal/util"
)

// CreatePost handles POST /api/v1/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	result := h.moderator.CheckText(c.Request.Context(), req.Title+"\n"+req.Body)
	if result.Verdict == moderation.VerdictFlagged {
		util.RespondBadRequest(c, "content was rejected by moderation")
		return
	}

	post := models.Post{
		UserID:   user.ID,
		Title:    req.Title,
		Body:     req.Body,
		ImageURL: req.ImageURL,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", user.ID).
			UpdateColumn("post_count", gorm.Expr("post_count + 1")).Error
	})
	if err != nil {
		logger.ErrorWithFields("Failed to create post", err, logger.WithUserID(user.ID))
		util.RespondInternalError(c, "failed to create post")
		return
	}

	post.User = *user
	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// GetPost handles GET /api/v1/posts/:id
func (h *Handlers) GetPost(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var post models.Post
	err := database.DB.Preload("User").First(&post, "id = ?", c.Param("id")).Error
	if err != nil {
		if isNotFound(err) {
			util.RespondNotFound(c, "post not found")
		} else {
			logger.ErrorWithFields("Failed to load post", err)
			util.RespondInternalError(c, "failed to load post")
		}
		return
	}

	canView, err := canViewProfile(viewerID, &post.User)
	if err != nil {
		logger.ErrorWithFields("Follow check failed", err)
		util.RespondInternalError(c, "failed to load post")
		return
	}
	if !canView {
		// Private account posts look like they don't exist to outsiders
		util.RespondNotFound(c, "post not found")
		return
	}

	var liked int64
	database.DB.Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", viewerID, post.ID).
		Count(&liked)

	c.JSON(http.StatusOK, gin.H{
		"post":  post,
		"liked": liked > 0,
	})
}

// UpdatePost handles PATCH /api/v1/posts/:id
func (h *Handlers) UpdatePost(c *gin.Context) {
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

	if post.UserID != user.ID {
		util.RespondForbidden(c, "you can only edit your own posts")
		return
	}

	var req dto.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	updates := map[string]interface{}{}
	moderated := ""
	if req.Title != nil {
		updates["title"] = *req.Title
		moderated += *req.Title + "\n"
	}
	if req.Body != nil {
		updates["body"] = *req.Body
		moderated += *req.Body
	}
	if len(updates) == 0 {
		util.RespondBadRequest(c, "no fields to update")
		return
	}

	result := h.moderator.CheckText(c.Request.Context(), moderated)
	if result.Verdict == moderation.VerdictFlagged {
		util.RespondBadRequest(c, "content was rejected by moderation")
		return
	}

	if err := database.DB.Model(&post).Updates(updates).Error; err != nil {
		logger.ErrorWithFields("Failed to update post", err, logger.WithPostID(post.ID))
		util.RespondInternalError(c, "failed to update post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

// DeletePost handles DELETE /api/v1/posts/:id
func (h *Handlers) DeletePost(c *gin.Context) {
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

	if post.UserID != user.ID && !user.IsAdmin {
		util.RespondForbidden(c, "you can only delete your own posts")
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			"DELETE FROM comment_likes WHERE comment_id IN (SELECT id FROM comments WHERE post_id = ?)",
			post.ID,
		).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&post).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ? AND post_count > 0", post.UserID).
			UpdateColumn("post_count", gorm.Expr("post_count - 1")).Error
	})
	if err != nil {
		logger.ErrorWithFields("Failed to delete post", err, logger.WithPostID(post.ID))
		util.RespondInternalError(c, "failed to delete post")
		return
	}

	if post.ImageURL != "" && h.uploader != nil {
		if err := h.uploader.Delete(c.Request.Context(), post.ImageURL); err != nil {
			logger.WarnWithFields("Failed to delete post image", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

// LikePost handles POST /api/v1/posts/:id/like
func (h *Handlers) LikePost(c *gin.Context) {
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

	var existing models.Like
	err := database.DB.Where("user_id = ? AND post_id = ?", user.ID, post.ID).First(&existing).Error
	if err == nil {
		// Idempotent: already liked
		c.JSON(http.StatusOK, gin.H{"liked": true, "like_count": post.LikeCount})
		return
	}
	if !isNotFound(err) {
		util.RespondInternalError(c, "failed to like post")
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Like{UserID: user.ID, PostID: post.ID}).Error; err != nil {
			return err
		}
		return tx.Model(&post).UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
	})
	if err != nil {
		logger.ErrorWithFields("Failed to like post", err, logger.WithPostID(post.ID))
		util.RespondInternalError(c, "failed to like post")
		return
	}

	createNotification(post.UserID, user.ID, models.NotificationTypeLike, &post.ID, nil)

	c.JSON(http.StatusOK, gin.H{"liked": true, "like_count": post.LikeCount + 1})
}

// UnlikePost handles DELETE /api/v1/posts/:id/like
func (h *Handlers) UnlikePost(c *gin.Context) {
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

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND post_id = ?", user.ID, post.ID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&post).Where("like_count > 0").
			UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error
	})
	if err != nil {
		logger.ErrorWithFields("Failed to unlike post", err, logger.WithPostID(post.ID))
		util.RespondInternalError(c, "failed to unlike post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": false})
}

// GetPostLikes handles GET /api/v1/posts/:id/likes
func (h *Handlers) GetPostLikes(c *gin.Context) {
	limit, offset := util.ParsePagination(c, 20, 100)

	var likes []models.Like
	err := database.DB.Preload("User").
		Where("post_id = ?", c.Param("id")).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&likes).Error
	if err != nil {
		logger.ErrorWithFields("Failed to load post likes", err)
		util.RespondInternalError(c, "failed to load likes")
		return
	}

	users := make([]models.User, 0, len(likes))
	for _, l := range likes {
		users = append(users, l.User)
	}

	c.JSON(http.StatusOK, gin.H{
		"users": dto.ToPublicUsers(users),
		"count": len(users),
	})
}

// UploadPostImage handles POST /api/v1/posts/image
func (h *Handlers) UploadPostImage(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	if h.uploader == nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("image uploads are not configured"))
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		util.RespondBadRequest(c, "image file required")
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !storage.ValidContentType(contentType) {
		util.RespondBadRequest(c, "unsupported image type: "+contentType)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.RespondBadRequest(c, "cannot read image file")
		return
	}
	defer file.Close()

	url, err := h.uploader.Upload(c.Request.Context(), "post", user.ID, file, contentType)
	if err != nil {
		logger.ErrorWithFields("Post image upload failed", err, logger.WithUserID(user.ID))
		util.RespondBadRequest(c, "image upload failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"image_url": url})
}

// ListUserPosts handles GET /api/v1/users/:username/posts
func (h *Handlers) ListUserPosts(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	target, err := findUserByUsername(c.Param("username"))
	if err != nil {
		if isNotFound(err) {
			util.RespondNotFound(c, "user not found")
		} else {
			util.RespondInternalError(c, "failed to load posts")
		}
		return
	}

	canView, err := canViewProfile(viewerID, target)
	if err != nil {
		util.RespondInternalError(c, "failed to load posts")
		return
	}
	if !canView {
		util.RespondForbidden(c, "this account is private")
		return
	}

	limit, offset := util.ParsePagination(c, 20, 100)

	var posts []models.Post
	err = database.DB.Preload("User").
		Where("user_id = ?", target.ID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error
	if err != nil {
		logger.ErrorWithFields("Failed to load user posts", err)
		util.RespondInternalError(c, "failed to load posts")
		return
	}

	attachLiked(viewerID, posts, c)
}
