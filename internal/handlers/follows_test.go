package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linkup-app/backend/internal/database"
	"github.com/linkup-app/backend/internal/models"
)

func (s *HandlersTestSuite) setPrivate(username string) {
	s.Require().NoError(database.DB.Model(&models.User{}).
		Where("username = ?", username).
		Update("is_private", true).Error)
}

func (s *HandlersTestSuite) TestFollowPublicAccount() {
	alice := s.registerUser("alice")
	s.registerUser("bob")

	w := s.request(http.MethodPost, "/api/v1/users/bob/follow", alice, nil)
	s.Equal(http.StatusCreated, w.Code)

	var resp struct {
		Status string `json:"status"`
	}
	s.decode(w, &resp)
	s.Equal("following", resp.Status)

	// Counters on both sides
	var bob, aliceUser models.User
	s.Require().NoError(database.DB.Where("username = ?", "bob").First(&bob).Error)
	s.Require().NoError(database.DB.Where("username = ?", "alice").First(&aliceUser).Error)
	s.Equal(1, bob.FollowerCount)
	s.Equal(1, aliceUser.FollowingCount)

	// Repeat follow is a no-op
	w = s.request(http.MethodPost, "/api/v1/users/bob/follow", alice, nil)
	s.Equal(http.StatusOK, w.Code)

	s.Require().NoError(database.DB.Where("username = ?", "bob").First(&bob).Error)
	s.Equal(1, bob.FollowerCount)
}

func (s *HandlersTestSuite) TestFollowSelfRejected() {
	alice := s.registerUser("alice")

	w := s.request(http.MethodPost, "/api/v1/users/alice/follow", alice, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestFollowPrivateAccountCreatesPendingRequest() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")
	s.setPrivate("bob")

	w := s.request(http.MethodPost, "/api/v1/users/bob/follow", alice, nil)
	s.Equal(http.StatusCreated, w.Code)

	var resp struct {
		Status string `json:"status"`
	}
	s.decode(w, &resp)
	s.Equal("pending", resp.Status)

	// No follow edge yet
	var follows int64
	database.DB.Model(&models.Follow{}).Count(&follows)
	s.Zero(follows)

	// Bob sees the request
	w = s.request(http.MethodGet, "/api/v1/follow-requests", bob, nil)
	s.Equal(http.StatusOK, w.Code)

	var list struct {
		Requests []struct {
			ID        string `json:"id"`
			Requester struct {
				Username string `json:"username"`
			} `json:"requester"`
		} `json:"requests"`
	}
	s.decode(w, &list)
	s.Require().Len(list.Requests, 1)
	s.Equal("alice", list.Requests[0].Requester.Username)

	// Accept creates the follow edge
	w = s.request(http.MethodPost, "/api/v1/follow-requests/"+list.Requests[0].ID+"/accept", bob, nil)
	s.Equal(http.StatusOK, w.Code)

	database.DB.Model(&models.Follow{}).Count(&follows)
	s.Equal(int64(1), follows)

	// Requester is notified of acceptance
	var count int64
	database.DB.Model(&models.Notification{}).
		Where("type = ?", models.NotificationTypeFollowAccepted).Count(&count)
	s.Equal(int64(1), count)
}

func (s *HandlersTestSuite) TestDeclineFollowRequest() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")
	s.setPrivate("bob")

	s.request(http.MethodPost, "/api/v1/users/bob/follow", alice, nil)

	var req models.FollowRequest
	s.Require().NoError(database.DB.First(&req).Error)

	// Only the target can resolve it
	w := s.request(http.MethodPost, "/api/v1/follow-requests/"+req.ID+"/decline", alice, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.request(http.MethodPost, "/api/v1/follow-requests/"+req.ID+"/decline", bob, nil)
	s.Equal(http.StatusOK, w.Code)

	var follows int64
	database.DB.Model(&models.Follow{}).Count(&follows)
	s.Zero(follows)

	// Resolved requests cannot be resolved twice
	w = s.request(http.MethodPost, "/api/v1/follow-requests/"+req.ID+"/accept", bob, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestUnfollowWithdrawsPendingRequest() {
	alice := s.registerUser("alice")
	s.registerUser("bob")
	s.setPrivate("bob")

	s.request(http.MethodPost, "/api/v1/users/bob/follow", alice, nil)

	w := s.request(http.MethodDelete, "/api/v1/users/bob/follow", alice, nil)
	s.Equal(http.StatusOK, w.Code)

	var pending int64
	database.DB.Model(&models.FollowRequest{}).
		Where("status = ?", models.FollowRequestStatusPending).Count(&pending)
	s.Zero(pending)
}

func (s *HandlersTestSuite) TestPrivateProfileHidesPosts() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")
	s.createPost(bob, "Bob's secret post")
	s.setPrivate("bob")

	w := s.request(http.MethodGet, "/api/v1/users/bob", alice, nil)
	s.Equal(http.StatusOK, w.Code)

	var resp map[string]json.RawMessage
	s.decode(w, &resp)

	var restricted bool
	s.Require().NoError(json.Unmarshal(resp["is_restricted"], &restricted))
	s.True(restricted)

	var posts []models.Post
	s.Require().NoError(json.Unmarshal(resp["posts"], &posts))
	s.Empty(posts)

	// After following, posts become visible
	s.request(http.MethodPost, "/api/v1/users/bob/follow", alice, nil)
	var req models.FollowRequest
	s.Require().NoError(database.DB.First(&req).Error)
	s.request(http.MethodPost, "/api/v1/follow-requests/"+req.ID+"/accept", bob, nil)

	w = s.request(http.MethodGet, "/api/v1/users/bob", alice, nil)
	s.Equal(http.StatusOK, w.Code)

	var after struct {
		Posts []struct {
			Title string `json:"title"`
		} `json:"posts"`
	}
	s.decode(w, &after)
	s.Require().Len(after.Posts, 1)
	s.Equal("Bob's secret post", after.Posts[0].Title)
}

func (s *HandlersTestSuite) TestGoingPublicAcceptsPendingRequests() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")
	s.setPrivate("bob")

	s.request(http.MethodPost, "/api/v1/users/bob/follow", alice, nil)

	w := s.request(http.MethodPatch, "/api/v1/users/me", bob, gin.H{
		"is_private": false,
	})
	s.Equal(http.StatusOK, w.Code)

	var follows int64
	database.DB.Model(&models.Follow{}).Count(&follows)
	s.Equal(int64(1), follows)
}

func (s *HandlersTestSuite) TestFollowersList() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")
	s.request(http.MethodPost, "/api/v1/users/bob/follow", alice, nil)

	w := s.request(http.MethodGet, "/api/v1/users/bob/followers", bob, nil)
	s.Equal(http.StatusOK, w.Code)

	var resp struct {
		Users []struct {
			Username string `json:"username"`
		} `json:"users"`
	}
	s.decode(w, &resp)
	s.Require().Len(resp.Users, 1)
	s.Equal("alice", resp.Users[0].Username)
}

func (s *HandlersTestSuite) TestNotificationBadgeCounts() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")
	postID := s.createPost(alice, "Popular post")

	s.request(http.MethodPost, "/api/v1/posts/"+postID+"/like", bob, nil)
	s.request(http.MethodPost, "/api/v1/posts/"+postID+"/comments", bob, gin.H{
		"content": "great",
	})

	w := s.request(http.MethodGet, "/api/v1/notifications", alice, nil)
	s.Equal(http.StatusOK, w.Code)

	var resp struct {
		Notifications []struct {
			Type string `json:"type"`
		} `json:"notifications"`
		UnseenCount int `json:"unseen_count"`
		UnreadCount int `json:"unread_count"`
	}
	s.decode(w, &resp)
	s.Len(resp.Notifications, 2)
	s.Equal(2, resp.UnseenCount)
	s.Equal(2, resp.UnreadCount)

	// Marking seen clears the badge but not the unread count
	w = s.request(http.MethodPost, "/api/v1/notifications/seen", alice, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.request(http.MethodGet, "/api/v1/notifications", alice, nil)
	s.decode(w, &resp)
	s.Zero(resp.UnseenCount)
	s.Equal(2, resp.UnreadCount)
}

func (s *HandlersTestSuite) TestOutgoingFollowRequests() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")
	s.setPrivate("bob")

	s.request(http.MethodPost, "/api/v1/users/bob/follow", alice, nil)

	w := s.request(http.MethodGet, "/api/v1/follow-requests/outgoing", alice, nil)
	s.Equal(http.StatusOK, w.Code)

	var outgoing struct {
		Requests []struct {
			ID     string `json:"id"`
			Target struct {
				Username string `json:"username"`
			} `json:"target"`
		} `json:"requests"`
	}
	s.decode(w, &outgoing)
	s.Require().Len(outgoing.Requests, 1)
	s.Equal("bob", outgoing.Requests[0].Target.Username)

	// Resolved requests drop off the outgoing list
	w = s.request(http.MethodPost, "/api/v1/follow-requests/"+outgoing.Requests[0].ID+"/accept", bob, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.request(http.MethodGet, "/api/v1/follow-requests/outgoing", alice, nil)
	s.decode(w, &outgoing)
	s.Empty(outgoing.Requests)
}
