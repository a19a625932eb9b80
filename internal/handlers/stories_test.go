package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/linkup-app/backend/internal/database"
	"github.com/linkup-app/backend/internal/models"
)

func (s *HandlersTestSuite) createStory(token, caption string) string {
	w := s.request(http.MethodPost, "/api/v1/stories", token, gin.H{
		"image_url": "https://cdn.linkup.app/images/story/test.jpg",
		"caption":   caption,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Story struct {
			ID        string    `json:"id"`
			ExpiresAt time.Time `json:"expires_at"`
		} `json:"story"`
	}
	s.decode(w, &resp)
	s.Require().NotEmpty(resp.Story.ID)

	// Stories expire about 24 hours after creation
	s.True(resp.Story.ExpiresAt.After(time.Now().Add(23 * time.Hour)))
	s.True(resp.Story.ExpiresAt.Before(time.Now().Add(25 * time.Hour)))

	return resp.Story.ID
}

func (s *HandlersTestSuite) TestStoriesFeedGroupsByAuthor() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")
	carol := s.registerUser("carol")

	s.createStory(bob, "bob one")
	s.createStory(bob, "bob two")
	s.createStory(carol, "carol one")
	s.createStory(alice, "my own")

	// Alice follows Bob but not Carol
	s.request(http.MethodPost, "/api/v1/users/bob/follow", alice, nil)

	w := s.request(http.MethodGet, "/api/v1/stories", alice, nil)
	s.Equal(http.StatusOK, w.Code)

	var resp struct {
		Groups []struct {
			User struct {
				Username string `json:"username"`
			} `json:"user"`
			Stories []struct {
				Caption string `json:"caption"`
			} `json:"stories"`
			AllSeen bool `json:"all_seen"`
		} `json:"groups"`
	}
	s.decode(w, &resp)

	// Carol's stories excluded; own group sorts first
	s.Require().Len(resp.Groups, 2)
	s.Equal("alice", resp.Groups[0].User.Username)
	s.Equal("bob", resp.Groups[1].User.Username)
	s.Len(resp.Groups[1].Stories, 2)
	s.False(resp.Groups[1].AllSeen)
}

func (s *HandlersTestSuite) TestViewStoryOncePerViewer() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")
	storyID := s.createStory(alice, "watch me")

	for i := 0; i < 3; i++ {
		w := s.request(http.MethodPost, "/api/v1/stories/"+storyID+"/view", bob, nil)
		s.Equal(http.StatusOK, w.Code)
	}

	var story models.Story
	s.Require().NoError(database.DB.First(&story, "id = ?", storyID).Error)
	s.Equal(1, story.ViewCount)

	// Owner views don't count
	w := s.request(http.MethodPost, "/api/v1/stories/"+storyID+"/view", alice, nil)
	s.Equal(http.StatusOK, w.Code)

	s.Require().NoError(database.DB.First(&story, "id = ?", storyID).Error)
	s.Equal(1, story.ViewCount)
}

func (s *HandlersTestSuite) TestStoryViewsVisibleToOwnerOnly() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")
	storyID := s.createStory(alice, "private analytics")

	s.request(http.MethodPost, "/api/v1/stories/"+storyID+"/view", bob, nil)

	w := s.request(http.MethodGet, "/api/v1/stories/"+storyID+"/views", bob, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.request(http.MethodGet, "/api/v1/stories/"+storyID+"/views", alice, nil)
	s.Equal(http.StatusOK, w.Code)

	var resp struct {
		Viewers []struct {
			User struct {
				Username string `json:"username"`
			} `json:"user"`
		} `json:"viewers"`
		ViewCount int `json:"view_count"`
	}
	s.decode(w, &resp)
	s.Require().Len(resp.Viewers, 1)
	s.Equal("bob", resp.Viewers[0].User.Username)
	s.Equal(1, resp.ViewCount)
}

func (s *HandlersTestSuite) TestExpiredStoryNotViewable() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")
	storyID := s.createStory(alice, "old news")

	database.DB.Model(&models.Story{}).Where("id = ?", storyID).
		Update("expires_at", time.Now().Add(-1*time.Minute))

	w := s.request(http.MethodPost, "/api/v1/stories/"+storyID+"/view", bob, nil)
	s.Equal(http.StatusNotFound, w.Code)

	// Expired stories drop out of the tray
	w = s.request(http.MethodGet, "/api/v1/stories", alice, nil)
	s.Equal(http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	s.decode(w, &resp)
	s.Zero(resp.Count)
}

func (s *HandlersTestSuite) TestHighlightFromOwnStories() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")
	storyID := s.createStory(alice, "keeper")

	// Cannot highlight someone else's story
	w := s.request(http.MethodPost, "/api/v1/highlights", bob, gin.H{
		"name":      "Stolen",
		"story_ids": []string{storyID},
	})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.request(http.MethodPost, "/api/v1/highlights", alice, gin.H{
		"name":      "Best of",
		"story_ids": []string{storyID},
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Highlight struct {
			ID            string `json:"id"`
			Name          string `json:"name"`
			StoryCount    int    `json:"story_count"`
			CoverImageURL string `json:"cover_image_url"`
		} `json:"highlight"`
	}
	s.decode(w, &created)
	s.Equal("Best of", created.Highlight.Name)
	s.Equal(1, created.Highlight.StoryCount)
	// Cover defaults to the first story's image
	s.NotEmpty(created.Highlight.CoverImageURL)

	w = s.request(http.MethodGet, "/api/v1/highlights/"+created.Highlight.ID, bob, nil)
	s.Equal(http.StatusOK, w.Code)

	var detail struct {
		Stories []struct {
			Caption string `json:"caption"`
		} `json:"stories"`
	}
	s.decode(w, &detail)
	s.Require().Len(detail.Stories, 1)
	s.Equal("keeper", detail.Stories[0].Caption)
}

func (s *HandlersTestSuite) TestDeleteStoryRemovesHighlightEntries() {
	alice := s.registerUser("alice")
	storyID := s.createStory(alice, "fleeting")

	w := s.request(http.MethodPost, "/api/v1/highlights", alice, gin.H{
		"name":      "Memories",
		"story_ids": []string{storyID},
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.request(http.MethodDelete, "/api/v1/stories/"+storyID, alice, nil)
	s.Equal(http.StatusOK, w.Code)

	var entries int64
	database.DB.Model(&models.HighlightedStory{}).Count(&entries)
	s.Zero(entries)
}

func (s *HandlersTestSuite) TestReorderHighlightStories() {
	alice := s.registerUser("alice")
	first := s.createStory(alice, "first")
	second := s.createStory(alice, "second")

	w := s.request(http.MethodPost, "/api/v1/highlights", alice, gin.H{
		"name":      "Trip",
		"story_ids": []string{first, second},
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	var created struct {
		Highlight struct {
			ID string `json:"id"`
		} `json:"highlight"`
	}
	s.decode(w, &created)

	// A partial list is rejected
	w = s.request(http.MethodPut, "/api/v1/highlights/"+created.Highlight.ID+"/stories", alice, gin.H{
		"story_ids": []string{second},
	})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.request(http.MethodPut, "/api/v1/highlights/"+created.Highlight.ID+"/stories", alice, gin.H{
		"story_ids": []string{second, first},
	})
	s.Equal(http.StatusOK, w.Code)

	w = s.request(http.MethodGet, "/api/v1/highlights/"+created.Highlight.ID, alice, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var detail struct {
		Stories []struct {
			Caption string `json:"caption"`
		} `json:"stories"`
	}
	s.decode(w, &detail)
	s.Require().Len(detail.Stories, 2)
	s.Equal("second", detail.Stories[0].Caption)
	s.Equal("first", detail.Stories[1].Caption)
}
