package comment

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("comment not found")

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	OwnerID   string    `json:"ownerId"`
	ParentID  *string   `json:"parentId,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c Comment) IsReply() bool {
	return c.ParentID != nil
}

type CreateCommentRequest struct {
	Content  string  `json:"content" binding:"required,min=1,max=5000"`
	ParentID *string `json:"parentId" binding:"omitempty,uuid"`
}

func NewFromCreateRequest(req CreateCommentRequest, postID, ownerID string, now time.Time) Comment {
	return Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		OwnerID:   ownerID,
		ParentID:  req.ParentID,
		Content:   strings.TrimSpace(req.Content),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
