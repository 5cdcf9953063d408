package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/inkpost/internal/cache"
	"github.com/geocoder89/inkpost/internal/config"
	"github.com/geocoder89/inkpost/internal/domain/post"
	"github.com/geocoder89/inkpost/internal/domain/tag"
	"github.com/geocoder89/inkpost/internal/utils"
	"github.com/gin-gonic/gin"
)

type TagsHandler struct {
	tags  TagRepository
	cache *cache.Cache[[]tag.Tag]
	now   func() time.Time
}

func NewTagsHandler(tags TagRepository, c *cache.Cache[[]tag.Tag]) *TagsHandler {
	return &TagsHandler{
		tags:  tags,
		cache: c,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (h *TagsHandler) List(ctx *gin.Context) {
	items, err := h.cache.GetOrLoad(utils.TagsListCacheKey, func() ([]tag.Tag, error) {
		cctx, cancel := config.WithTimeout(context.WithoutCancel(ctx.Request.Context()), 2*time.Second)
		defer cancel()
		return h.tags.List(cctx)
	})
	if err != nil {
		RespondInternal(ctx, "Could not list tags", err)
		return
	}

	RespondOKWithETag(ctx, "", items)
}

func (h *TagsHandler) Create(ctx *gin.Context) {
	var req tag.CreateTagRequest

	if !BindJSON(ctx, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)

	slug := req.Slug
	if slug == "" {
		slug = post.Slugify(req.Name)
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	t, err := h.tags.Create(cctx, tag.NewFromCreateRequest(req, slug, h.now()))
	if err != nil {
		if errors.Is(err, tag.ErrExists) {
			RespondConflict(ctx, "tag_exists", "A tag with that name or slug already exists.")
			return
		}
		RespondInternal(ctx, "Could not create tag", err)
		return
	}

	h.cache.Delete(utils.TagsListCacheKey)

	RespondOK(ctx, http.StatusCreated, "Tag created", t)
}
