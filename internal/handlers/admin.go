package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linkup-app/backend/internal/database"
	"github.com/linkup-app/backend/internal/models"
)

// GetAdminStats handles GET /api/v1/admin/stats
func (h *Handlers) GetAdminStats(c *gin.Context) {
	var users, posts, comments, stories, follows, pendingRequests int64

	database.DB.Model(&models.User{}).Count(&users)
	database.DB.Model(&models.Post{}).Count(&posts)
	database.DB.Model(&models.Comment{}).Where("is_deleted = false").Count(&comments)
	database.DB.Model(&models.Story{}).Count(&stories)
	database.DB.Model(&models.Follow{}).Count(&follows)
	database.DB.Model(&models.FollowRequest{}).
		Where("status = ?", models.FollowRequestStatusPending).Count(&pendingRequests)

	c.JSON(http.StatusOK, gin.H{
		"users":                   users,
		"posts":                   posts,
		"comments":                comments,
		"stories":                 stories,
		"follows":                 follows,
		"pending_follow_requests": pendingRequests,
	})
}
