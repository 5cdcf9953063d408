package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/geocoder89/inkpost/internal/domain/comment"
	"github.com/geocoder89/inkpost/internal/domain/post"
)

type CommentsRepo struct {
	s *Store
}

func (r *CommentsRepo) Create(_ context.Context, c comment.Comment) (comment.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.posts[c.PostID]; !ok {
		return comment.Comment{}, post.ErrNotFound
	}
	if c.ParentID != nil {
		if _, ok := r.s.comments[*c.ParentID]; !ok {
			return comment.Comment{}, comment.ErrNotFound
		}
	}

	r.s.comments[c.ID] = c
	return c, nil
}

func (r *CommentsRepo) GetByID(_ context.Context, id string) (comment.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.comments[id]
	if !ok {
		return comment.Comment{}, comment.ErrNotFound
	}
	return c, nil
}

func (r *CommentsRepo) ListByPost(_ context.Context, postID string, limit, offset int) ([]comment.Comment, int, error) {
	r.s.mu.RLock()
	if _, ok := r.s.posts[postID]; !ok {
		r.s.mu.RUnlock()
		return nil, 0, post.ErrNotFound
	}

	all := make([]comment.Comment, 0)
	for _, c := range r.s.comments {
		if c.PostID == postID {
			all = append(all, c)
		}
	}
	r.s.mu.RUnlock()

	slices.SortFunc(all, func(a, b comment.Comment) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	total := len(all)
	start := min(offset, total)
	end := total
	if limit > 0 {
		end = min(start+limit, total)
	}

	return all[start:end], total, nil
}

// Delete removes the comment and, transitively, its replies.
func (r *CommentsRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.comments[id]; !ok {
		return comment.ErrNotFound
	}

	doomed := []string{id}
	for len(doomed) > 0 {
		cur := doomed[0]
		doomed = doomed[1:]
		delete(r.s.comments, cur)

		for cid, c := range r.s.comments {
			if c.ParentID != nil && *c.ParentID == cur {
				doomed = append(doomed, cid)
			}
		}
	}

	return nil
}
