package handlers

import (
	"net/http"
	"time"

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

// CreateStory handles POST /api/v1/stories
func (h *Handlers) CreateStory(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req dto.CreateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	result := h.moderator.CheckText(c.Request.Context(), req.Caption)
	if result.Verdict == moderation.VerdictFlagged {
		util.RespondBadRequest(c, "content was rejected by moderation")
		return
	}

	story := models.Story{
		UserID:   user.ID,
		ImageURL: req.ImageURL,
		Caption:  req.Caption,
	}
	if err := database.DB.Create(&story).Error; err != nil {
		logger.ErrorWithFields("Failed to create story", err, logger.WithUserID(user.ID))
		util.RespondInternalError(c, "failed to create story")
		return
	}

	story.User = *user
	c.JSON(http.StatusCreated, gin.H{"story": story})
}

// UploadStoryImage handles POST /api/v1/stories/image
func (h *Handlers) UploadStoryImage(c *gin.Context) {
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

	url, err := h.uploader.Upload(c.Request.Context(), "story", user.ID, file, contentType)
	if err != nil {
		logger.ErrorWithFields("Story image upload failed", err, logger.WithUserID(user.ID))
		util.RespondBadRequest(c, "image upload failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"image_url": url})
}

// storyGroup is one user's active stories in the stories tray
type storyGroup struct {
	User    dto.PublicUser `json:"user"`
	Stories []models.Story `json:"stories"`
	AllSeen bool           `json:"all_seen"`
}

// GetStoriesFeed handles GET /api/v1/stories.
// Returns active stories from followed users plus the caller's own,
// grouped per author with the caller's own group first.
func (h *Handlers) GetStoriesFeed(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var stories []models.Story
	err := database.DB.Preload("User").
		Where("expires_at > ?", time.Now()).
		Where("user_id = ? OR user_id IN (?)", user.ID,
			database.DB.Model(&models.Follow{}).
				Select("followee_id").
				Where("follower_id = ?", user.ID),
		).
		Order("created_at ASC").
		Find(&stories).Error
	if err != nil {
		logger.ErrorWithFields("Failed to load stories feed", err, logger.WithUserID(user.ID))
		util.RespondInternalError(c, "failed to load stories")
		return
	}

	// Which of these stories has the caller already seen
	storyIDs := make([]string, len(stories))
	for i, s := range stories {
		storyIDs[i] = s.ID
	}
	seen := map[string]bool{}
	if len(storyIDs) > 0 {
		var views []models.StoryView
		if err := database.DB.Where("viewer_id = ? AND story_id IN ?", user.ID, storyIDs).
			Find(&views).Error; err == nil {
			for _, v := range views {
				seen[v.StoryID] = true
			}
		}
	}

	groupIndex := map[string]int{}
	groups := []storyGroup{}
	for _, s := range stories {
		idx, ok := groupIndex[s.UserID]
		if !ok {
			idx = len(groups)
			groupIndex[s.UserID] = idx
			groups = append(groups, storyGroup{
				User:    dto.ToPublicUser(&s.User),
				AllSeen: true,
			})
		}
		g := &groups[idx]
		g.Stories = append(g.Stories, s)
		if !seen[s.ID] {
			g.AllSeen = false
		}
	}

	// Caller's own group sorts first
	for i := range groups {
		if groups[i].User.ID == user.ID && i != 0 {
			own := groups[i]
			copy(groups[1:i+1], groups[0:i])
			groups[0] = own
			break
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"groups": groups,
		"count":  len(groups),
	})
}

// ViewStory handles POST /api/v1/stories/:id/view.
// Records the view once per viewer and bumps the cached counter.
func (h *Handlers) ViewStory(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var story models.Story
	if err := database.DB.First(&story, "id = ?", c.Param("id")).Error; err != nil {
		if isNotFound(err) {
			util.RespondNotFound(c, "story not found")
		} else {
			util.RespondInternalError(c, "failed to load story")
		}
		return
	}

	if time.Now().After(story.ExpiresAt) {
		util.RespondNotFound(c, "story not found")
		return
	}

	// Owners viewing their own story don't count
	if story.UserID == user.ID {
		c.JSON(http.StatusOK, gin.H{"viewed": true, "view_count": story.ViewCount})
		return
	}

	var existing models.StoryView
	err := database.DB.Where("story_id = ? AND viewer_id = ?", story.ID, user.ID).
		First(&existing).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"viewed": true, "view_count": story.ViewCount})
		return
	}
	if !isNotFound(err) {
		util.RespondInternalError(c, "failed to record view")
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		view := models.StoryView{
			StoryID:  story.ID,
			ViewerID: user.ID,
			ViewedAt: time.Now(),
		}
		if err := tx.Create(&view).Error; err != nil {
			return err
		}
		return tx.Model(&story).UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
	})
	if err != nil {
		logger.ErrorWithFields("Failed to record story view", err)
		util.RespondInternalError(c, "failed to record view")
		return
	}

	c.JSON(http.StatusOK, gin.H{"viewed": true, "view_count": story.ViewCount + 1})
}

// GetStoryViews handles GET /api/v1/stories/:id/views.
// Only the story owner may see who viewed it.
func (h *Handlers) GetStoryViews(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var story models.Story
	if err := database.DB.First(&story, "id = ?", c.Param("id")).Error; err != nil {
		if isNotFound(err) {
			util.RespondNotFound(c, "story not found")
		} else {
			util.RespondInternalError(c, "failed to load story")
		}
		return
	}

	if story.UserID != user.ID {
		util.RespondForbidden(c, "only the story owner can see views")
		return
	}

	limit, offset := util.ParsePagination(c, 50, 100)

	var views []models.StoryView
	err := database.DB.Preload("Viewer").
		Where("story_id = ?", story.ID).
		Order("viewed_at DESC").
		Limit(limit).Offset(offset).
		Find(&views).Error
	if err != nil {
		logger.ErrorWithFields("Failed to load story views", err)
		util.RespondInternalError(c, "failed to load story views")
		return
	}

	viewers := make([]gin.H, 0, len(views))
	for _, v := range views {
		viewers = append(viewers, gin.H{
			"user":      dto.ToPublicUser(&v.Viewer),
			"viewed_at": v.ViewedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"viewers":    viewers,
		"view_count": story.ViewCount,
	})
}

// DeleteStory handles DELETE /api/v1/stories/:id
func (h *Handlers) DeleteStory(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var story models.Story
	if err := database.DB.First(&story, "id = ?", c.Param("id")).Error; err != nil {
		if isNotFound(err) {
			util.RespondNotFound(c, "story not found")
		} else {
			util.RespondInternalError(c, "failed to load story")
		}
		return
	}

	if story.UserID != user.ID && !user.IsAdmin {
		util.RespondForbidden(c, "you can only delete your own stories")
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("story_id = ?", story.ID).Delete(&models.StoryView{}).Error; err != nil {
			return err
		}
		if err := tx.Where("story_id = ?", story.ID).Delete(&models.HighlightedStory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&story).Error
	})
	if err != nil {
		logger.ErrorWithFields("Failed to delete story", err)
		util.RespondInternalError(c, "failed to delete story")
		return
	}

	if h.uploader != nil {
		if err := h.uploader.Delete(c.Request.Context(), story.ImageURL); err != nil {
			logger.WarnWithFields("Failed to delete story image", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "story deleted"})
}
