package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linkup-app/backend/internal/database"
	"github.com/linkup-app/backend/internal/logger"
	"github.com/linkup-app/backend/internal/models"
	"github.com/linkup-app/backend/internal/util"
)

// GetFeed handles GET /api/v1/feed.
// Reverse-chronological posts from followed users plus the caller's own.
func (h *Handlers) GetFeed(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	limit, offset := util.ParsePagination(c, 20, 100)

	var posts []models.Post
	err := database.DB.Preload("User").
		Where("user_id = ? OR user_id IN (?)", user.ID,
			database.DB.Model(&models.Follow{}).
				Select("followee_id").
				Where("follower_id = ?", user.ID),
		).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error
	if err != nil {
		logger.ErrorWithFields("Failed to load feed", err, logger.WithUserID(user.ID))
		util.RespondInternalError(c, "failed to load feed")
		return
	}

	attachLiked(user.ID, posts, c)
}

// GetExploreFeed handles GET /api/v1/feed/explore.
// Recent posts from public accounts, for discovery.
func (h *Handlers) GetExploreFeed(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	limit, offset := util.ParsePagination(c, 20, 100)

	var posts []models.Post
	err := database.DB.Preload("User").
		Joins("JOIN users ON users.id = posts.user_id").
		Where("users.is_private = false").
		Order("posts.like_count DESC, posts.created_at DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error
	if err != nil {
		logger.ErrorWithFields("Failed to load explore feed", err)
		util.RespondInternalError(c, "failed to load feed")
		return
	}

	attachLiked(user.ID, posts, c)
}

// attachLiked marks which posts the viewer liked and writes the response
func attachLiked(viewerID string, posts []models.Post, c *gin.Context) {
	likedSet := map[string]bool{}
	if len(posts) > 0 {
		ids := make([]string, len(posts))
		for i, p := range posts {
			ids[i] = p.ID
		}
		var likes []models.Like
		if err := database.DB.Where("user_id = ? AND post_id IN ?", viewerID, ids).
			Find(&likes).Error; err == nil {
			for _, l := range likes {
				likedSet[l.PostID] = true
			}
		}
	}

	items := make([]gin.H, 0, len(posts))
	for _, p := range posts {
		items = append(items, gin.H{
			"post":  p,
			"liked": likedSet[p.ID],
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": items,
		"count": len(items),
	})
}
