package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/linkup-app/backend/internal/database"
	"github.com/linkup-app/backend/internal/dto"
	apierrors "github.com/linkup-app/backend/internal/errors"
	"github.com/linkup-app/backend/internal/logger"
	"github.com/linkup-app/backend/internal/models"
	"github.com/linkup-app/backend/internal/storage"
	"github.com/linkup-app/backend/internal/util"
)

// UpdateProfile handles PATCH /api/v1/users/me
func (h *Handlers) UpdateProfile(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates["display_name"] = *req.DisplayName
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.Website != nil {
		updates["website"] = *req.Website
	}
	if req.IsPrivate != nil {
		updates["is_private"] = *req.IsPrivate
	}

	if len(updates) == 0 {
		util.RespondBadRequest(c, "no fields to update")
		return
	}

	if err := database.DB.Model(user).Updates(updates).Error; err != nil {
		logger.ErrorWithFields("Failed to update profile", err, logger.WithUserID(user.ID))
		util.RespondInternalError(c, "failed to update profile")
		return
	}

	// Account going public auto-accepts pending follow requests
	if req.IsPrivate != nil && !*req.IsPrivate {
		h.acceptAllPendingRequests(user.ID)
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ChangeUsername handles PUT /api/v1/users/me/username
func (h *Handlers) ChangeUsername(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req dto.ChangeUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	var existing models.User
	err := database.DB.Where("LOWER(username) = LOWER(?) AND id != ?", req.Username, user.ID).
		First(&existing).Error
	if err == nil {
		util.RespondConflict(c, "username already taken")
		return
	} else if !isNotFound(err) {
		logger.ErrorWithFields("Username lookup failed", err)
		util.RespondInternalError(c, "failed to change username")
		return
	}

	if err := database.DB.Model(user).Update("username", req.Username).Error; err != nil {
		logger.ErrorWithFields("Failed to change username", err, logger.WithUserID(user.ID))
		util.RespondInternalError(c, "failed to change username")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UploadProfilePicture handles POST /api/v1/users/me/profile-picture
func (h *Handlers) UploadProfilePicture(c *gin.Context) {
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

	url, err := h.uploader.Upload(c.Request.Context(), "avatar", user.ID, file, contentType)
	if err != nil {
		logger.ErrorWithFields("Profile picture upload failed", err, logger.WithUserID(user.ID))
		util.RespondBadRequest(c, "image upload failed")
		return
	}

	oldURL := user.ProfilePictureURL
	if err := database.DB.Model(user).Update("profile_picture_url", url).Error; err != nil {
		logger.ErrorWithFields("Failed to save profile picture URL", err, logger.WithUserID(user.ID))
		util.RespondInternalError(c, "failed to update profile")
		return
	}

	if oldURL != "" {
		if err := h.uploader.Delete(c.Request.Context(), oldURL); err != nil {
			logger.WarnWithFields("Failed to delete old profile picture", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"profile_picture_url": url})
}

// GetUserProfile handles GET /api/v1/users/:username
func (h *Handlers) GetUserProfile(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	target, err := findUserByUsername(c.Param("username"))
	if err != nil {
		if isNotFound(err) {
			util.RespondNotFound(c, "user not found")
		} else {
			logger.ErrorWithFields("User lookup failed", err)
			util.RespondInternalError(c, "failed to load profile")
		}
		return
	}

	canView, err := canViewProfile(viewerID, target)
	if err != nil {
		logger.ErrorWithFields("Follow check failed", err)
		util.RespondInternalError(c, "failed to load profile")
		return
	}

	following, _ := isFollowing(viewerID, target.ID)

	resp := gin.H{
		"user":         dto.ToPublicUser(target),
		"is_following": following,
	}

	// Private accounts only expose posts to accepted followers
	if canView {
		var posts []models.Post
		limit, offset := util.ParsePagination(c, 20, 100)
		if err := database.DB.Where("user_id = ?", target.ID).
			Order("created_at DESC").
			Limit(limit).Offset(offset).
			Find(&posts).Error; err != nil {
			logger.ErrorWithFields("Failed to load user posts", err)
			util.RespondInternalError(c, "failed to load profile")
			return
		}
		resp["posts"] = posts
	} else {
		var pending models.FollowRequest
		err := database.DB.Where("requester_id = ? AND target_id = ? AND status = ?",
			viewerID, target.ID, models.FollowRequestStatusPending).First(&pending).Error
		resp["posts"] = []models.Post{}
		resp["is_restricted"] = true
		resp["request_pending"] = err == nil
	}

	c.JSON(http.StatusOK, resp)
}

// SearchUsers handles GET /api/v1/users?q=
func (h *Handlers) SearchUsers(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		util.RespondBadRequest(c, "query parameter q is required")
		return
	}

	limit, offset := util.ParsePagination(c, 20, 100)

	var users []models.User
	pattern := "%" + escapeLikePattern(query) + "%"
	err := database.DB.
		Where("username ILIKE ? OR display_name ILIKE ?", pattern, pattern).
		Order("follower_count DESC").
		Limit(limit).Offset(offset).
		Find(&users).Error
	if err != nil {
		logger.ErrorWithFields("User search failed", err)
		util.RespondInternalError(c, "search failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": dto.ToPublicUsers(users),
		"count": len(users),
	})
}

// escapeLikePattern neutralizes LIKE metacharacters in user input so a
// search for "%" matches a literal percent sign, not every row
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}
