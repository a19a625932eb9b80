package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/linkup-app/backend/internal/database"
	"github.com/linkup-app/backend/internal/dto"
	"github.com/linkup-app/backend/internal/logger"
	"github.com/linkup-app/backend/internal/models"
	"github.com/linkup-app/backend/internal/util"
)

// CreateHighlight handles POST /api/v1/highlights.
// Only the caller's own stories can be highlighted. Highlighted stories
// survive the 24-hour expiry cleanup.
func (h *Handlers) CreateHighlight(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req dto.CreateHighlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	stories, err := h.ownedStories(user.ID, req.StoryIDs)
	if err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	highlight := models.Highlight{
		UserID:        user.ID,
		Name:          req.Name,
		CoverImageURL: req.CoverImageURL,
		StoryCount:    len(stories),
	}
	if highlight.CoverImageURL == "" && len(stories) > 0 {
		highlight.CoverImageURL = stories[0].ImageURL
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&highlight).Error; err != nil {
			return err
		}
		for i, s := range stories {
			hs := models.HighlightedStory{
				HighlightID: highlight.ID,
				StoryID:     s.ID,
				SortOrder:   i,
			}
			if err := tx.Create(&hs).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.ErrorWithFields("Failed to create highlight", err, logger.WithUserID(user.ID))
		util.RespondInternalError(c, "failed to create highlight")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"highlight": highlight})
}

// ownedStories loads the given stories and verifies ownership
func (h *Handlers) ownedStories(userID string, storyIDs []string) ([]models.Story, error) {
	if len(storyIDs) == 0 {
		return nil, nil
	}

	var stories []models.Story
	if err := database.DB.Where("id IN ?", storyIDs).Find(&stories).Error; err != nil {
		return nil, err
	}
	if len(stories) != len(storyIDs) {
		return nil, errStoryNotFound
	}
	for _, s := range stories {
		if s.UserID != userID {
			return nil, errStoryNotOwned
		}
	}
	return stories, nil
}

var (
	errStoryNotFound = errors.New("one or more stories do not exist")
	errStoryNotOwned = errors.New("you can only highlight your own stories")
)

// GetUserHighlights handles GET /api/v1/users/:username/highlights
func (h *Handlers) GetUserHighlights(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	target, err := findUserByUsername(c.Param("username"))
	if err != nil {
		if isNotFound(err) {
			util.RespondNotFound(c, "user not found")
		} else {
			util.RespondInternalError(c, "failed to load highlights")
		}
		return
	}

	canView, err := canViewProfile(viewerID, target)
	if err != nil {
		util.RespondInternalError(c, "failed to load highlights")
		return
	}
	if !canView {
		util.RespondForbidden(c, "this account is private")
		return
	}

	var highlights []models.Highlight
	err = database.DB.Where("user_id = ?", target.ID).
		Order("sort_order ASC, created_at ASC").
		Find(&highlights).Error
	if err != nil {
		logger.ErrorWithFields("Failed to load highlights", err)
		util.RespondInternalError(c, "failed to load highlights")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"highlights": highlights,
		"count":      len(highlights),
	})
}

// GetHighlight handles GET /api/v1/highlights/:id with its stories
func (h *Handlers) GetHighlight(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var highlight models.Highlight
	err := database.DB.Preload("User").First(&highlight, "id = ?", c.Param("id")).Error
	if err != nil {
		if isNotFound(err) {
			util.RespondNotFound(c, "highlight not found")
		} else {
			util.RespondInternalError(c, "failed to load highlight")
		}
		return
	}

	canView, err := canViewProfile(viewerID, &highlight.User)
	if err != nil {
		util.RespondInternalError(c, "failed to load highlight")
		return
	}
	if !canView {
		util.RespondNotFound(c, "highlight not found")
		return
	}

	var entries []models.HighlightedStory
	err = database.DB.Preload("Story").
		Where("highlight_id = ?", highlight.ID).
		Order("sort_order ASC").
		Find(&entries).Error
	if err != nil {
		logger.ErrorWithFields("Failed to load highlight stories", err)
		util.RespondInternalError(c, "failed to load highlight")
		return
	}

	stories := make([]models.Story, 0, len(entries))
	for _, e := range entries {
		stories = append(stories, e.Story)
	}

	c.JSON(http.StatusOK, gin.H{
		"highlight": highlight,
		"stories":   stories,
	})
}

// UpdateHighlight handles PATCH /api/v1/highlights/:id
func (h *Handlers) UpdateHighlight(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	highlight, ok := h.loadOwnHighlight(c, user.ID)
	if !ok {
		return
	}

	var req dto.UpdateHighlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.CoverImageURL != nil {
		updates["cover_image_url"] = *req.CoverImageURL
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if len(updates) == 0 {
		util.RespondBadRequest(c, "no fields to update")
		return
	}

	if err := database.DB.Model(highlight).Updates(updates).Error; err != nil {
		logger.ErrorWithFields("Failed to update highlight", err)
		util.RespondInternalError(c, "failed to update highlight")
		return
	}

	c.JSON(http.StatusOK, gin.H{"highlight": highlight})
}

// DeleteHighlight handles DELETE /api/v1/highlights/:id.
// The underlying stories are kept; expired ones become eligible for
// cleanup once no highlight references them.
func (h *Handlers) DeleteHighlight(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	highlight, ok := h.loadOwnHighlight(c, user.ID)
	if !ok {
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("highlight_id = ?", highlight.ID).
			Delete(&models.HighlightedStory{}).Error; err != nil {
			return err
		}
		return tx.Delete(highlight).Error
	})
	if err != nil {
		logger.ErrorWithFields("Failed to delete highlight", err)
		util.RespondInternalError(c, "failed to delete highlight")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "highlight deleted"})
}

// AddHighlightStories handles POST /api/v1/highlights/:id/stories
func (h *Handlers) AddHighlightStories(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	highlight, ok := h.loadOwnHighlight(c, user.ID)
	if !ok {
		return
	}

	var req dto.HighlightStoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	stories, err := h.ownedStories(user.ID, req.StoryIDs)
	if err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	added := 0
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var maxOrder int
		tx.Model(&models.HighlightedStory{}).
			Where("highlight_id = ?", highlight.ID).
			Select("COALESCE(MAX(sort_order), -1)").Scan(&maxOrder)

		for _, s := range stories {
			var existing models.HighlightedStory
			err := tx.Where("highlight_id = ? AND story_id = ?", highlight.ID, s.ID).
				First(&existing).Error
			if err == nil {
				continue
			}
			if !isNotFound(err) {
				return err
			}
			maxOrder++
			hs := models.HighlightedStory{
				HighlightID: highlight.ID,
				StoryID:     s.ID,
				SortOrder:   maxOrder,
			}
			if err := tx.Create(&hs).Error; err != nil {
				return err
			}
			added++
		}
		if added == 0 {
			return nil
		}
		return tx.Model(highlight).
			UpdateColumn("story_count", gorm.Expr("story_count + ?", added)).Error
	})
	if err != nil {
		logger.ErrorWithFields("Failed to add highlight stories", err)
		util.RespondInternalError(c, "failed to update highlight")
		return
	}

	c.JSON(http.StatusOK, gin.H{"added": added})
}

// RemoveHighlightStories handles DELETE /api/v1/highlights/:id/stories
func (h *Handlers) RemoveHighlightStories(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	highlight, ok := h.loadOwnHighlight(c, user.ID)
	if !ok {
		return
	}

	var req dto.HighlightStoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	var removed int64
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("highlight_id = ? AND story_id IN ?", highlight.ID, req.StoryIDs).
			Delete(&models.HighlightedStory{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		if removed == 0 {
			return nil
		}
		return tx.Model(highlight).Where("story_count >= ?", removed).
			UpdateColumn("story_count", gorm.Expr("story_count - ?", removed)).Error
	})
	if err != nil {
		logger.ErrorWithFields("Failed to remove highlight stories", err)
		util.RespondInternalError(c, "failed to update highlight")
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// ReorderHighlightStories handles PUT /api/v1/highlights/:id/stories.
// The request must name every story in the highlight exactly once, in
// the desired display order.
func (h *Handlers) ReorderHighlightStories(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	highlight, ok := h.loadOwnHighlight(c, user.ID)
	if !ok {
		return
	}

	var req dto.HighlightStoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	var entries []models.HighlightedStory
	if err := database.DB.Where("highlight_id = ?", highlight.ID).
		Find(&entries).Error; err != nil {
		logger.ErrorWithFields("Failed to load highlight stories", err)
		util.RespondInternalError(c, "failed to update highlight")
		return
	}

	current := make(map[string]bool, len(entries))
	for _, e := range entries {
		current[e.StoryID] = true
	}
	seen := make(map[string]bool, len(req.StoryIDs))
	for _, id := range req.StoryIDs {
		if !current[id] || seen[id] {
			util.RespondBadRequest(c, "story list must match the highlight's stories exactly")
			return
		}
		seen[id] = true
	}
	if len(req.StoryIDs) != len(entries) {
		util.RespondBadRequest(c, "story list must match the highlight's stories exactly")
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		for i, id := range req.StoryIDs {
			if err := tx.Model(&models.HighlightedStory{}).
				Where("highlight_id = ? AND story_id = ?", highlight.ID, id).
				UpdateColumn("sort_order", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.ErrorWithFields("Failed to reorder highlight stories", err)
		util.RespondInternalError(c, "failed to update highlight")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "order updated"})
}

// loadOwnHighlight loads a highlight and enforces ownership
func (h *Handlers) loadOwnHighlight(c *gin.Context, userID string) (*models.Highlight, bool) {
	var highlight models.Highlight
	if err := database.DB.First(&highlight, "id = ?", c.Param("id")).Error; err != nil {
		if isNotFound(err) {
			util.RespondNotFound(c, "highlight not found")
		} else {
			util.RespondInternalError(c, "failed to load highlight")
		}
		return nil, false
	}

	if highlight.UserID != userID {
		util.RespondForbidden(c, "you can only manage your own highlights")
		return nil, false
	}
	return &highlight, true
}
