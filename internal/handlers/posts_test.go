package handlers

import (
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"

	"github.com/linkup-app/backend/internal/database"
	"github.com/linkup-app/backend/internal/models"
	"github.com/linkup-app/backend/internal/moderation"
)

func (s *HandlersTestSuite) createPost(token, title string) string {
	w := s.request(http.MethodPost, "/api/v1/posts", token, gin.H{
		"title": title,
		"body":  "post body",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Post struct {
			ID string `json:"id"`
		} `json:"post"`
	}
	s.decode(w, &resp)
	s.Require().NotEmpty(resp.Post.ID)
	return resp.Post.ID
}

func (s *HandlersTestSuite) TestCreateAndGetPost() {
	token := s.registerUser("alice")
	postID := s.createPost(token, "Hello world")

	w := s.request(http.MethodGet, "/api/v1/posts/"+postID, token, nil)
	s.Equal(http.StatusOK, w.Code)

	var resp struct {
		Post struct {
			Title        string `json:"title"`
			LikeCount    int    `json:"like_count"`
			CommentCount int    `json:"comment_count"`
		} `json:"post"`
		Liked bool `json:"liked"`
	}
	s.decode(w, &resp)
	s.Equal("Hello world", resp.Post.Title)
	s.Zero(resp.Post.LikeCount)
	s.False(resp.Liked)

	// Post count counter updated
	var user models.User
	s.Require().NoError(database.DB.Where("username = ?", "alice").First(&user).Error)
	s.Equal(1, user.PostCount)
}

func (s *HandlersTestSuite) TestCreatePostTitleValidation() {
	token := s.registerUser("alice")

	w := s.request(http.MethodPost, "/api/v1/posts", token, gin.H{
		"title": "   ",
		"body":  "whitespace title",
	})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestUpdatePostOnlyByAuthor() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")
	postID := s.createPost(alice, "Original title")

	w := s.request(http.MethodPatch, "/api/v1/posts/"+postID, bob, gin.H{
		"title": "Hijacked",
	})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.request(http.MethodPatch, "/api/v1/posts/"+postID, alice, gin.H{
		"title": "Updated title",
	})
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlersTestSuite) TestLikeUnlikePost() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")
	postID := s.createPost(alice, "Likeable")

	// Like is idempotent
	for i := 0; i < 2; i++ {
		w := s.request(http.MethodPost, "/api/v1/posts/"+postID+"/like", bob, nil)
		s.Equal(http.StatusOK, w.Code)
	}

	var post models.Post
	s.Require().NoError(database.DB.First(&post, "id = ?", postID).Error)
	s.Equal(1, post.LikeCount)

	// Author got exactly one notification
	var count int64
	database.DB.Model(&models.Notification{}).
		Where("type = ?", models.NotificationTypeLike).Count(&count)
	s.Equal(int64(1), count)

	w := s.request(http.MethodDelete, "/api/v1/posts/"+postID+"/like", bob, nil)
	s.Equal(http.StatusOK, w.Code)

	s.Require().NoError(database.DB.First(&post, "id = ?", postID).Error)
	s.Zero(post.LikeCount)

	// Unliking again is harmless
	w = s.request(http.MethodDelete, "/api/v1/posts/"+postID+"/like", bob, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlersTestSuite) TestDeletePostCascades() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")
	postID := s.createPost(alice, "Doomed post")

	s.request(http.MethodPost, "/api/v1/posts/"+postID+"/like", bob, nil)
	s.request(http.MethodPost, "/api/v1/posts/"+postID+"/comments", bob, gin.H{
		"content": "nice post",
	})

	w := s.request(http.MethodDelete, "/api/v1/posts/"+postID, alice, nil)
	s.Equal(http.StatusOK, w.Code)

	var likes, comments int64
	database.DB.Model(&models.Like{}).Where("post_id = ?", postID).Count(&likes)
	database.DB.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&comments)
	s.Zero(likes)
	s.Zero(comments)

	var user models.User
	s.Require().NoError(database.DB.Where("username = ?", "alice").First(&user).Error)
	s.Zero(user.PostCount)
}

func (s *HandlersTestSuite) TestCommentsAndReplies() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")
	postID := s.createPost(alice, "Discussion")

	w := s.request(http.MethodPost, "/api/v1/posts/"+postID+"/comments", bob, gin.H{
		"content": "top level",
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	var created struct {
		Comment struct {
			ID string `json:"id"`
		} `json:"comment"`
	}
	s.decode(w, &created)

	// Reply to the top-level comment
	w = s.request(http.MethodPost, "/api/v1/posts/"+postID+"/comments", alice, gin.H{
		"content":   "a reply",
		"parent_id": created.Comment.ID,
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	var reply struct {
		Comment struct {
			ID       string  `json:"id"`
			ParentID *string `json:"parent_id"`
		} `json:"comment"`
	}
	s.decode(w, &reply)
	s.Require().NotNil(reply.Comment.ParentID)

	// Replying to a reply flattens onto the original parent
	w = s.request(http.MethodPost, "/api/v1/posts/"+postID+"/comments", bob, gin.H{
		"content":   "nested attempt",
		"parent_id": reply.Comment.ID,
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	var nested struct {
		Comment struct {
			ParentID *string `json:"parent_id"`
		} `json:"comment"`
	}
	s.decode(w, &nested)
	s.Require().NotNil(nested.Comment.ParentID)
	s.Equal(created.Comment.ID, *nested.Comment.ParentID)

	// Listing returns one top-level comment with two replies
	w = s.request(http.MethodGet, "/api/v1/posts/"+postID+"/comments", alice, nil)
	s.Equal(http.StatusOK, w.Code)

	var list struct {
		Comments []struct {
			ID      string `json:"id"`
			Replies []struct {
				ID string `json:"id"`
			} `json:"replies"`
		} `json:"comments"`
	}
	s.decode(w, &list)
	s.Require().Len(list.Comments, 1)
	s.Len(list.Comments[0].Replies, 2)
}

func (s *HandlersTestSuite) TestDeleteCommentWithRepliesSoftDeletes() {
	alice := s.registerUser("alice")
	postID := s.createPost(alice, "Thread")

	w := s.request(http.MethodPost, "/api/v1/posts/"+postID+"/comments", alice, gin.H{
		"content": "parent",
	})
	var parent struct {
		Comment struct {
			ID string `json:"id"`
		} `json:"comment"`
	}
	s.decode(w, &parent)

	s.request(http.MethodPost, "/api/v1/posts/"+postID+"/comments", alice, gin.H{
		"content":   "child",
		"parent_id": parent.Comment.ID,
	})

	w = s.request(http.MethodDelete, "/api/v1/comments/"+parent.Comment.ID, alice, nil)
	s.Equal(http.StatusOK, w.Code)

	var comment models.Comment
	s.Require().NoError(database.DB.First(&comment, "id = ?", parent.Comment.ID).Error)
	s.True(comment.IsDeleted)
	s.Empty(comment.Content)
}

func (s *HandlersTestSuite) TestModerationBlocksFlaggedPost() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"verdict":"flagged","score":0.99,"reason":"spam"}`))
	}))
	defer server.Close()

	original := s.h.moderator
	s.h.moderator = moderation.NewClient(server.URL)
	defer func() { s.h.moderator = original }()

	token := s.registerUser("alice")
	w := s.request(http.MethodPost, "/api/v1/posts", token, gin.H{
		"title": "Buy cheap watches",
		"body":  "spam spam spam",
	})
	s.Equal(http.StatusBadRequest, w.Code)

	var count int64
	database.DB.Model(&models.Post{}).Count(&count)
	s.Zero(count)
}

func (s *HandlersTestSuite) TestModerationFailsOpenWhenDown() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	original := s.h.moderator
	s.h.moderator = moderation.NewClient(server.URL)
	defer func() { s.h.moderator = original }()

	token := s.registerUser("alice")
	w := s.request(http.MethodPost, "/api/v1/posts", token, gin.H{
		"title": "Normal post",
		"body":  "moderation is down but this still publishes",
	})
	s.Equal(http.StatusCreated, w.Code)
}

func (s *HandlersTestSuite) TestFeedShowsFollowedUsersPosts() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")
	carol := s.registerUser("carol")

	s.createPost(bob, "Bob's post")
	s.createPost(carol, "Carol's post")

	// Alice follows only Bob
	w := s.request(http.MethodPost, "/api/v1/users/bob/follow", alice, nil)
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.request(http.MethodGet, "/api/v1/feed", alice, nil)
	s.Equal(http.StatusOK, w.Code)

	var feed struct {
		Posts []struct {
			Post struct {
				Title string `json:"title"`
			} `json:"post"`
		} `json:"posts"`
	}
	s.decode(w, &feed)
	s.Require().Len(feed.Posts, 1)
	s.Equal("Bob's post", feed.Posts[0].Post.Title)
}

func (s *HandlersTestSuite) TestListUserPosts() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")
	s.createPost(bob, "First post")
	s.createPost(bob, "Second post")

	w := s.request(http.MethodGet, "/api/v1/users/bob/posts", alice, nil)
	s.Equal(http.StatusOK, w.Code)

	var resp struct {
		Posts []struct {
			Post struct {
				Title string `json:"title"`
			} `json:"post"`
		} `json:"posts"`
		Count int `json:"count"`
	}
	s.decode(w, &resp)
	s.Equal(2, resp.Count)
	// Newest first
	s.Equal("Second post", resp.Posts[0].Post.Title)
}
