package dto

// CreatePostRequest creates a new post
type CreatePostRequest struct {
	Title    string `json:"title" binding:"required,linkup_title"`
	Body     string `json:"body" binding:"omitempty,max=5000"`
	ImageURL string `json:"image_url" binding:"omitempty,linkup_url"`
}

// UpdatePostRequest edits an existing post. Only the author may call it.
type UpdatePostRequest struct {
	Title *string `json:"title" binding:"omitempty,linkup_title"`
	Body  *string `json:"body" binding:"omitempty,max=5000"`
}

// CreateCommentRequest creates a comment or a one-level reply
type CreateCommentRequest struct {
	Content  string  `json:"content" binding:"required,min=1,max=2000"`
	ParentID *string `json:"parent_id" binding:"omitempty,uuid"`
}

// UpdateCommentRequest edits a comment's content
type UpdateCommentRequest struct {
	Content string `json:"content" binding:"required,min=1,max=2000"`
}

// CreateStoryRequest creates an ephemeral story
type CreateStoryRequest struct {
	ImageURL string `json:"image_url" binding:"required,linkup_url"`
	Caption  string `json:"caption" binding:"omitempty,max=500"`
}

// CreateHighlightRequest creates a named story collection
type CreateHighlightRequest struct {
	Name          string   `json:"name" binding:"required,min=1,max=50"`
	CoverImageURL string   `json:"cover_image_url" binding:"omitempty,linkup_url"`
	StoryIDs      []string `json:"story_ids" binding:"omitempty,dive,uuid"`
}

// UpdateHighlightRequest edits highlight metadata
type UpdateHighlightRequest struct {
	Name          *string `json:"name" binding:"omitempty,min=1,max=50"`
	CoverImageURL *string `json:"cover_image_url" binding:"omitempty,linkup_url"`
	SortOrder     *int    `json:"sort_order" binding:"omitempty,min=0"`
}

// HighlightStoriesRequest adds or removes stories from a highlight
type HighlightStoriesRequest struct {
	StoryIDs []string `json:"story_ids" binding:"required,min=1,dive,uuid"`
}
