package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/inkpost/internal/domain/account"
	"github.com/geocoder89/inkpost/internal/domain/comment"
	"github.com/geocoder89/inkpost/internal/domain/post"
	"github.com/geocoder89/inkpost/internal/http/envelope"
	"github.com/gin-gonic/gin"
)

type PostLoader interface {
	GetByID(ctx context.Context, id string) (post.Post, error)
}

type CommentLoader interface {
	GetByID(ctx context.Context, id string) (comment.Comment, error)
}

// Ownership guards mutating routes on owned content. It must run after
// RequireAuth.
type Ownership struct {
	posts    PostLoader
	comments CommentLoader
}

func NewOwnership(posts PostLoader, comments CommentLoader) *Ownership {
	return &Ownership{posts: posts, comments: comments}
}

const (
	ctxPostKey    = "ownership.post"
	ctxCommentKey = "ownership.comment"
)

// CanModify reports whether acc may change content owned by ownerID.
func CanModify(acc account.Account, ownerID string) bool {
	if acc.Can(account.PermissionManageAnyContent) {
		return true
	}
	return acc.Can(account.PermissionManageOwnContent) && acc.ID == ownerID
}

func (o *Ownership) RequirePostOwner(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		acc, ok := AccountFromContext(c)
		if !ok {
			envelope.Abort(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
			return
		}

		p, err := o.posts.GetByID(c.Request.Context(), c.Param(param))
		if err != nil {
			abortLoadError(c, err, errors.Is(err, post.ErrNotFound), "Post not found")
			return
		}

		if !CanModify(acc, p.OwnerID) {
			envelope.Abort(c, http.StatusForbidden, "forbidden", "You can only modify your own posts")
			return
		}

		c.Set(ctxPostKey, p)
		c.Next()
	}
}

func (o *Ownership) RequireCommentOwner(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		acc, ok := AccountFromContext(c)
		if !ok {
			envelope.Abort(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
			return
		}

		cm, err := o.comments.GetByID(c.Request.Context(), c.Param(param))
		if err != nil {
			abortLoadError(c, err, errors.Is(err, comment.ErrNotFound), "Comment not found")
			return
		}

		if !CanModify(acc, cm.OwnerID) {
			envelope.Abort(c, http.StatusForbidden, "forbidden", "You can only modify your own comments")
			return
		}

		c.Set(ctxCommentKey, cm)
		c.Next()
	}
}

func abortLoadError(c *gin.Context, err error, notFound bool, msg string) {
	if notFound {
		envelope.Abort(c, http.StatusNotFound, "not_found", msg)
		return
	}

	slog.Default().ErrorContext(c.Request.Context(), "ownership lookup failed", "err", err)
	envelope.Abort(c, http.StatusInternalServerError, "internal_error", "Internal server error")
}

func PostFromContext(c *gin.Context) (post.Post, bool) {
	v, ok := c.Get(ctxPostKey)
	if !ok {
		return post.Post{}, false
	}
	p, ok := v.(post.Post)
	return p, ok
}

func CommentFromContext(c *gin.Context) (comment.Comment, bool) {
	v, ok := c.Get(ctxCommentKey)
	if !ok {
		return comment.Comment{}, false
	}
	cm, ok := v.(comment.Comment)
	return cm, ok
}
