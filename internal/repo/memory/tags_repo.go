package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/geocoder89/inkpost/internal/domain/post"
	"github.com/geocoder89/inkpost/internal/domain/tag"
)

type TagsRepo struct {
	s *Store
}

func (r *TagsRepo) Create(_ context.Context, t tag.Tag) (tag.Tag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.tags {
		if existing.Name == t.Name || existing.Slug == t.Slug {
			return tag.Tag{}, tag.ErrExists
		}
	}

	r.s.tags[t.ID] = t
	return t, nil
}

func (r *TagsRepo) List(_ context.Context) ([]tag.Tag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]tag.Tag, 0, len(r.s.tags))
	for _, t := range r.s.tags {
		t.PostCount = 0
		for _, p := range r.s.posts {
			if p.Status == post.StatusPublished && slices.Contains(p.Tags, t.Slug) {
				t.PostCount++
			}
		}
		out = append(out, t)
	}

	slices.SortFunc(out, func(a, b tag.Tag) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (r *TagsRepo) Missing(_ context.Context, slugs []string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	known := make(map[string]struct{}, len(r.s.tags))
	for _, t := range r.s.tags {
		known[t.Slug] = struct{}{}
	}

	var missing []string
	for _, s := range slugs {
		if _, ok := known[s]; !ok {
			missing = append(missing, s)
		}
	}
	return missing, nil
}
