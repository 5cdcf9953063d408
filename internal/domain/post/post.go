package post

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound  = errors.New("post not found")
	ErrSlugTaken = errors.New("slug already in use")
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

const wordsPerMinute = 200

type Post struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"ownerId"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Content     string     `json:"content"`
	Excerpt     string     `json:"excerpt,omitempty"`
	Status      Status     `json:"status"`
	Tags        []string   `json:"tags"`
	IsFeatured  bool       `json:"isFeatured"`
	ViewsCount  int        `json:"viewsCount"`
	LikesCount  int        `json:"likesCount"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (p Post) MarshalJSON() ([]byte, error) {
	type alias Post
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	a := alias(p)
	a.Tags = tags

	return json.Marshal(struct {
		alias
		ReadingTime int `json:"readingTime"`
	}{a, p.ReadingTime()})
}

// ReadingTime is the estimated read in whole minutes, never less than one.
func (p Post) ReadingTime() int {
	words := len(strings.Fields(p.Content))
	minutes := words / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// VisibleTo reports whether viewerID may see the post at all. Only published
// posts are public; everything else is for the owner or a content admin.
func (p Post) VisibleTo(viewerID string, canManageAny bool) bool {
	if p.Status == StatusPublished {
		return true
	}
	if canManageAny {
		return true
	}
	return viewerID != "" && viewerID == p.OwnerID
}

type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortViews  SortOrder = "views"
	SortLikes  SortOrder = "likes"
)

// ListFilter with pointers if optional, it will be nil
type ListFilter struct {
	Status       *Status
	Tag          *string
	OwnerID      *string
	Query        *string
	Featured     *bool
	CreatedAfter *time.Time

	// ViewerID widens the result to the viewer's own non-published posts.
	// Empty means anonymous: published only.
	ViewerID string

	Sort   SortOrder
	Limit  int
	Offset int
}

type Stats struct {
	TotalPosts     int `json:"totalPosts"`
	PublishedPosts int `json:"publishedPosts"`
	DraftPosts     int `json:"draftPosts"`
	TotalViews     int `json:"totalViews"`
	TotalLikes     int `json:"totalLikes"`
	TotalComments  int `json:"totalComments"`
}

type CreatePostRequest struct {
	Title      string   `json:"title" binding:"required,min=3,max=200"`
	Slug       string   `json:"slug" binding:"omitempty,slug,max=200"`
	Content    string   `json:"content" binding:"required"`
	Excerpt    string   `json:"excerpt" binding:"omitempty,max=300"`
	Status     Status   `json:"status" binding:"omitempty,oneof=draft published archived"`
	Tags       []string `json:"tags" binding:"omitempty,max=10,dive,min=1,max=50"`
	IsFeatured bool     `json:"isFeatured"`
}

// UpdatePostRequest is a partial update: nil fields are left untouched.
type UpdatePostRequest struct {
	Title      *string  `json:"title" binding:"omitempty,min=3,max=200"`
	Slug       *string  `json:"slug" binding:"omitempty,slug,max=200"`
	Content    *string  `json:"content" binding:"omitempty,min=1"`
	Excerpt    *string  `json:"excerpt" binding:"omitempty,max=300"`
	Status     *Status  `json:"status" binding:"omitempty,oneof=draft published archived"`
	Tags       []string `json:"tags" binding:"omitempty,max=10,dive,min=1,max=50"`
	IsFeatured *bool    `json:"isFeatured"`
}
