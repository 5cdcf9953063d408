package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/inkpost/internal/config"
	"github.com/geocoder89/inkpost/internal/domain/comment"
	"github.com/geocoder89/inkpost/internal/domain/post"
	"github.com/geocoder89/inkpost/internal/http/middlewares"
	"github.com/geocoder89/inkpost/internal/utils"
	"github.com/gin-gonic/gin"
)

type CommentsHandler struct {
	comments CommentRepository
	posts    *PostsHandler
	now      func() time.Time
}

// NewCommentsHandler reuses the posts handler's visibility rules so comments
// on a draft stay as hidden as the draft itself.
func NewCommentsHandler(comments CommentRepository, posts *PostsHandler) *CommentsHandler {
	return &CommentsHandler{
		comments: comments,
		posts:    posts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type CommentList struct {
	Items      []comment.Comment `json:"items"`
	Pagination utils.Pagination  `json:"pagination"`
}

func (h *CommentsHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	p, ok := h.posts.loadVisible(ctx, cctx, ctx.Param("id"))
	if !ok {
		return
	}

	page, limit := utils.ParsePage(ctx.Query("page"), ctx.Query("limit"))

	items, total, err := h.comments.ListByPost(cctx, p.ID, limit, utils.Offset(page, limit))
	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			RespondNotFound(ctx, "Post not found")
			return
		}
		RespondInternal(ctx, "Could not list comments", err)
		return
	}

	RespondOKWithETag(ctx, "", CommentList{
		Items:      items,
		Pagination: utils.NewPagination(page, limit, total),
	})
}

func (h *CommentsHandler) Create(ctx *gin.Context) {
	acc, ok := middlewares.AccountFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Not authenticated")
		return
	}

	var req comment.CreateCommentRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	p, ok := h.posts.loadVisible(ctx, cctx, ctx.Param("id"))
	if !ok {
		return
	}

	if req.ParentID != nil {
		parent, err := h.comments.GetByID(cctx, *req.ParentID)
		if err != nil && !errors.Is(err, comment.ErrNotFound) {
			RespondInternal(ctx, "Could not create comment", err)
			return
		}
		if err != nil || parent.PostID != p.ID {
			RespondBadRequest(ctx, "Parent comment does not belong to this post", gin.H{
				"fields": []FieldError{{Field: "parentId", Rule: "exists", Message: "must reference a comment on the same post"}},
			})
			return
		}
	}

	c, err := h.comments.Create(cctx, comment.NewFromCreateRequest(req, p.ID, acc.ID, h.now()))
	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			RespondNotFound(ctx, "Post not found")
			return
		}
		RespondInternal(ctx, "Could not create comment", err)
		return
	}

	RespondOK(ctx, http.StatusCreated, "Comment added", c)
}

// Delete runs behind RequireCommentOwner.
func (h *CommentsHandler) Delete(ctx *gin.Context) {
	c, ok := middlewares.CommentFromContext(ctx)
	if !ok {
		RespondNotFound(ctx, "Comment not found")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.comments.Delete(cctx, c.ID); err != nil {
		if errors.Is(err, comment.ErrNotFound) {
			RespondNotFound(ctx, "Comment not found")
			return
		}
		RespondInternal(ctx, "Could not delete comment", err)
		return
	}

	RespondOK(ctx, http.StatusOK, "Comment deleted", nil)
}
