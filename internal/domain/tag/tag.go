package tag

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("tag not found")
	ErrExists   = errors.New("tag already exists")
)

type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	PostCount int       `json:"postCount"` // published posts only
	CreatedAt time.Time `json:"createdAt"`
}

type CreateTagRequest struct {
	Name string `json:"name" binding:"required,min=1,max=50"`
	Slug string `json:"slug" binding:"omitempty,slug,max=50"`
}

func NewFromCreateRequest(req CreateTagRequest, slug string, now time.Time) Tag {
	return Tag{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Slug:      slug,
		CreatedAt: now,
	}
}
