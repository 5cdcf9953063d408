package handlers

import (
	"context"

	"github.com/geocoder89/inkpost/internal/domain/account"
	"github.com/geocoder89/inkpost/internal/domain/comment"
	"github.com/geocoder89/inkpost/internal/domain/post"
	"github.com/geocoder89/inkpost/internal/domain/tag"
)

// The postgres and memory repos both satisfy these.

type AccountRepository interface {
	Create(ctx context.Context, a account.Account) (account.Account, error)
	GetByID(ctx context.Context, id string) (account.Account, error)
	GetByLogin(ctx context.Context, login string) (account.Account, error)
	UpdateProfile(ctx context.Context, a account.Account) (account.Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetActive(ctx context.Context, id string, active bool) (account.Account, error)
	Stats(ctx context.Context) (account.Stats, error)
}

type PostRepository interface {
	Create(ctx context.Context, p post.Post) (post.Post, error)
	GetByID(ctx context.Context, id string) (post.Post, error)
	List(ctx context.Context, f post.ListFilter) ([]post.Post, int, error)
	Update(ctx context.Context, p post.Post) (post.Post, error)
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) (int, error)
	ToggleLike(ctx context.Context, postID, accountID string) (bool, int, error)
	Stats(ctx context.Context) (post.Stats, error)
}

type TagRepository interface {
	Create(ctx context.Context, t tag.Tag) (tag.Tag, error)
	List(ctx context.Context) ([]tag.Tag, error)
	Missing(ctx context.Context, slugs []string) ([]string, error)
}

type CommentRepository interface {
	Create(ctx context.Context, c comment.Comment) (comment.Comment, error)
	GetByID(ctx context.Context, id string) (comment.Comment, error)
	ListByPost(ctx context.Context, postID string, limit, offset int) ([]comment.Comment, int, error)
	Delete(ctx context.Context, id string) error
}
