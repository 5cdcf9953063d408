package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/inkpost/internal/cache"
	"github.com/geocoder89/inkpost/internal/config"
	"github.com/geocoder89/inkpost/internal/domain/account"
	"github.com/geocoder89/inkpost/internal/domain/post"
	"github.com/geocoder89/inkpost/internal/domain/tag"
	"github.com/geocoder89/inkpost/internal/http/middlewares"
	"github.com/geocoder89/inkpost/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	popularLimit  = 10
	trendingLimit = 10
	trendingSpan  = 7 * 24 * time.Hour
)

type PostsHandler struct {
	posts        PostRepository
	tags         TagRepository
	popularCache *cache.Cache[[]post.Post]
	tagsCache    *cache.Cache[[]tag.Tag]
	now          func() time.Time
}

func NewPostsHandler(posts PostRepository, tags TagRepository, popularCache *cache.Cache[[]post.Post], tagsCache *cache.Cache[[]tag.Tag]) *PostsHandler {
	return &PostsHandler{
		posts:        posts,
		tags:         tags,
		popularCache: popularCache,
		tagsCache:    tagsCache,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

type PostList struct {
	Items      []post.Post      `json:"items"`
	Pagination utils.Pagination `json:"pagination"`
}

type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}

func (h *PostsHandler) Create(ctx *gin.Context) {
	acc, ok := middlewares.AccountFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Not authenticated")
		return
	}

	var req post.CreatePostRequest

	if !BindJSON(ctx, &req) {
		return
	}

	p := post.NewFromCreateRequest(req, acc.ID, h.now())

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if !h.checkTags(ctx, p.Tags) {
		return
	}

	created, err := h.posts.Create(cctx, p)
	if err != nil {
		if errors.Is(err, post.ErrSlugTaken) {
			RespondConflict(ctx, "slug_taken", "Slug is already in use.")
			return
		}
		RespondInternal(ctx, "Could not create post", err)
		return
	}

	h.invalidate()

	RespondOK(ctx, http.StatusCreated, "Post created", created)
}

func (h *PostsHandler) List(ctx *gin.Context) {
	f, page, ok := h.parseFilter(ctx)
	if !ok {
		return
	}

	if id, ok := middlewares.AccountIDFromContext(ctx); ok {
		f.ViewerID = id
	}

	h.respondList(ctx, f, page)
}

// Mine lists the caller's posts in every status.
func (h *PostsHandler) Mine(ctx *gin.Context) {
	acc, ok := middlewares.AccountFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Not authenticated")
		return
	}

	f, page, ok := h.parseFilter(ctx)
	if !ok {
		return
	}

	f.ViewerID = acc.ID
	f.OwnerID = &acc.ID

	h.respondList(ctx, f, page)
}

func (h *PostsHandler) Popular(ctx *gin.Context) {
	var tagFilter *string
	if t := strings.TrimSpace(ctx.Query("tag")); t != "" {
		t = strings.ToLower(t)
		tagFilter = &t
	}

	key := utils.BuildPopularPostsCacheKey(popularLimit, tagFilter)

	items, err := h.popularCache.GetOrLoad(key, func() ([]post.Post, error) {
		cctx, cancel := config.WithTimeout(context.WithoutCancel(ctx.Request.Context()), 3*time.Second)
		defer cancel()

		items, _, err := h.posts.List(cctx, post.ListFilter{
			Tag:   tagFilter,
			Sort:  post.SortViews,
			Limit: popularLimit,
		})
		return items, err
	})
	if err != nil {
		RespondInternal(ctx, "Could not load popular posts", err)
		return
	}

	RespondOK(ctx, http.StatusOK, "", items)
}

// Trending ranks the last week's published posts by likes.
func (h *PostsHandler) Trending(ctx *gin.Context) {
	since := h.now().Add(-trendingSpan)

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, _, err := h.posts.List(cctx, post.ListFilter{
		CreatedAfter: &since,
		Sort:         post.SortLikes,
		Limit:        trendingLimit,
	})
	if err != nil {
		RespondInternal(ctx, "Could not load trending posts", err)
		return
	}

	RespondOK(ctx, http.StatusOK, "", items)
}

// Get hides non-published posts from everyone but the owner and content
// admins, and counts a view on every published read.
func (h *PostsHandler) Get(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	p, ok := h.loadVisible(ctx, cctx, ctx.Param("id"))
	if !ok {
		return
	}

	if p.Status == post.StatusPublished {
		views, err := h.posts.IncrementViews(cctx, p.ID)
		if err != nil {
			RespondInternal(ctx, "Could not load post", err)
			return
		}
		p.ViewsCount = views
	}

	RespondOK(ctx, http.StatusOK, "", p)
}

// Update runs behind RequirePostOwner, which has already loaded the post.
func (h *PostsHandler) Update(ctx *gin.Context) {
	p, ok := middlewares.PostFromContext(ctx)
	if !ok {
		RespondNotFound(ctx, "Post not found")
		return
	}

	var req post.UpdatePostRequest

	if !BindJSON(ctx, &req) {
		return
	}

	p.ApplyUpdate(req, h.now())

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if req.Tags != nil && !h.checkTags(ctx, p.Tags) {
		return
	}

	updated, err := h.posts.Update(cctx, p)
	if err != nil {
		switch {
		case errors.Is(err, post.ErrNotFound):
			RespondNotFound(ctx, "Post not found")
		case errors.Is(err, post.ErrSlugTaken):
			RespondConflict(ctx, "slug_taken", "Slug is already in use.")
		default:
			RespondInternal(ctx, "Could not update post", err)
		}
		return
	}

	h.invalidate()

	RespondOK(ctx, http.StatusOK, "Post updated", updated)
}

func (h *PostsHandler) Delete(ctx *gin.Context) {
	p, ok := middlewares.PostFromContext(ctx)
	if !ok {
		RespondNotFound(ctx, "Post not found")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.posts.Delete(cctx, p.ID); err != nil {
		if errors.Is(err, post.ErrNotFound) {
			RespondNotFound(ctx, "Post not found")
			return
		}
		RespondInternal(ctx, "Could not delete post", err)
		return
	}

	h.invalidate()

	RespondOK(ctx, http.StatusOK, "Post deleted", nil)
}

// Like toggles the caller's like on a post they can see.
func (h *PostsHandler) Like(ctx *gin.Context) {
	acc, ok := middlewares.AccountFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Not authenticated")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	p, ok := h.loadVisible(ctx, cctx, ctx.Param("id"))
	if !ok {
		return
	}

	liked, likes, err := h.posts.ToggleLike(cctx, p.ID, acc.ID)
	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			RespondNotFound(ctx, "Post not found")
			return
		}
		RespondInternal(ctx, "Could not update like", err)
		return
	}

	msg := "Post unliked"
	if liked {
		msg = "Post liked"
	}

	RespondOK(ctx, http.StatusOK, msg, LikeResult{Liked: liked, LikesCount: likes})
}

func (h *PostsHandler) loadVisible(ctx *gin.Context, cctx context.Context, id string) (post.Post, bool) {
	p, err := h.posts.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			RespondNotFound(ctx, "Post not found")
			return post.Post{}, false
		}
		RespondInternal(ctx, "Could not load post", err)
		return post.Post{}, false
	}

	viewerID := ""
	canManageAny := false
	if acc, ok := middlewares.AccountFromContext(ctx); ok {
		viewerID = acc.ID
		canManageAny = acc.Can(account.PermissionManageAnyContent)
	}

	if !p.VisibleTo(viewerID, canManageAny) {
		RespondNotFound(ctx, "Post not found")
		return post.Post{}, false
	}

	return p, true
}

func (h *PostsHandler) respondList(ctx *gin.Context, f post.ListFilter, page int) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, total, err := h.posts.List(cctx, f)
	if err != nil {
		RespondInternal(ctx, "Could not list posts", err)
		return
	}

	RespondOK(ctx, http.StatusOK, "", PostList{
		Items:      items,
		Pagination: utils.NewPagination(page, f.Limit, total),
	})
}

func (h *PostsHandler) parseFilter(ctx *gin.Context) (post.ListFilter, int, bool) {
	var f post.ListFilter
	var fieldErrs []FieldError

	if s := strings.TrimSpace(ctx.Query("status")); s != "" {
		st := post.Status(strings.ToLower(s))
		if !st.Valid() {
			fieldErrs = append(fieldErrs, FieldError{Field: "status", Rule: "oneof", Param: "draft published archived", Message: validationMessage("oneof", "draft published archived")})
		} else {
			f.Status = &st
		}
	}

	if t := strings.TrimSpace(ctx.Query("tag")); t != "" {
		t = strings.ToLower(t)
		f.Tag = &t
	}

	if a := strings.TrimSpace(ctx.Query("author")); a != "" {
		f.OwnerID = &a
	}

	if q := strings.TrimSpace(ctx.Query("q")); q != "" {
		f.Query = &q
	}

	if fv := strings.TrimSpace(ctx.Query("featured")); fv != "" {
		b, err := strconv.ParseBool(fv)
		if err != nil {
			fieldErrs = append(fieldErrs, FieldError{Field: "featured", Rule: "type", Message: "must be a boolean"})
		} else {
			f.Featured = &b
		}
	}

	switch s := post.SortOrder(strings.ToLower(strings.TrimSpace(ctx.Query("sort")))); s {
	case "", post.SortNewest:
		f.Sort = post.SortNewest
	case post.SortViews, post.SortLikes:
		f.Sort = s
	default:
		fieldErrs = append(fieldErrs, FieldError{Field: "sort", Rule: "oneof", Param: "newest views likes", Message: validationMessage("oneof", "newest views likes")})
	}

	if len(fieldErrs) > 0 {
		RespondBadRequest(ctx, "Invalid query parameters", gin.H{"fields": fieldErrs})
		return post.ListFilter{}, 0, false
	}

	page, limit := utils.ParsePage(ctx.Query("page"), ctx.Query("limit"))
	f.Limit = limit
	f.Offset = utils.Offset(page, limit)

	return f, page, true
}

// checkTags rejects posts that reference tags nobody has created.
func (h *PostsHandler) checkTags(ctx *gin.Context, slugs []string) bool {
	if len(slugs) == 0 {
		return true
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	missing, err := h.tags.Missing(cctx, slugs)
	if err != nil {
		RespondInternal(ctx, "Could not validate tags", err)
		return false
	}

	if len(missing) > 0 {
		RespondError(ctx, http.StatusBadRequest, "unknown_tags", "Some tags do not exist", gin.H{"tags": missing})
		return false
	}

	return true
}

func (h *PostsHandler) invalidate() {
	h.popularCache.Clear()
	h.tagsCache.Delete(utils.TagsListCacheKey)
}
