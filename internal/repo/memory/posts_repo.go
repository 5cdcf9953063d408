package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/geocoder89/inkpost/internal/domain/post"
)

type PostsRepo struct {
	s *Store
}

func clonePost(p post.Post) post.Post {
	p.Tags = slices.Clone(p.Tags)
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		p.PublishedAt = &t
	}
	return p
}

func (r *PostsRepo) Create(_ context.Context, p post.Post) (post.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.posts {
		if existing.Slug == p.Slug {
			return post.Post{}, post.ErrSlugTaken
		}
	}

	p.ViewsCount = 0
	p.LikesCount = 0
	r.s.posts[p.ID] = clonePost(p)
	return clonePost(p), nil
}

func (r *PostsRepo) GetByID(_ context.Context, id string) (post.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.posts[id]
	if !ok {
		return post.Post{}, post.ErrNotFound
	}
	return clonePost(p), nil
}

func (s *Store) matchesLocked(p post.Post, f post.ListFilter) bool {
	if p.Status != post.StatusPublished && (f.ViewerID == "" || p.OwnerID != f.ViewerID) {
		return false
	}
	if f.Status != nil && p.Status != *f.Status {
		return false
	}
	if f.Tag != nil && !slices.Contains(p.Tags, *f.Tag) {
		return false
	}
	if f.OwnerID != nil && p.OwnerID != *f.OwnerID {
		return false
	}
	if f.Featured != nil && p.IsFeatured != *f.Featured {
		return false
	}
	if f.CreatedAfter != nil && p.CreatedAt.Before(*f.CreatedAfter) {
		return false
	}
	if f.Query != nil {
		q := strings.ToLower(*f.Query)
		owner := s.accounts[p.OwnerID].Username
		if !strings.Contains(strings.ToLower(p.Title), q) &&
			!strings.Contains(strings.ToLower(p.Content), q) &&
			!strings.Contains(strings.ToLower(p.Excerpt), q) &&
			!strings.Contains(strings.ToLower(owner), q) {
			return false
		}
	}
	return true
}

func (r *PostsRepo) List(_ context.Context, f post.ListFilter) ([]post.Post, int, error) {
	r.s.mu.RLock()
	all := make([]post.Post, 0, len(r.s.posts))
	for _, p := range r.s.posts {
		if r.s.matchesLocked(p, f) {
			all = append(all, clonePost(p))
		}
	}
	r.s.mu.RUnlock()

	slices.SortFunc(all, func(a, b post.Post) int {
		switch f.Sort {
		case post.SortViews:
			if a.ViewsCount != b.ViewsCount {
				return b.ViewsCount - a.ViewsCount
			}
		case post.SortLikes:
			if a.LikesCount != b.LikesCount {
				return b.LikesCount - a.LikesCount
			}
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	total := len(all)

	start := min(f.Offset, total)
	end := total
	if f.Limit > 0 {
		end = min(start+f.Limit, total)
	}

	return all[start:end], total, nil
}

func (r *PostsRepo) Update(_ context.Context, p post.Post) (post.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.posts[p.ID]
	if !ok {
		return post.Post{}, post.ErrNotFound
	}

	for id, existing := range r.s.posts {
		if id != p.ID && existing.Slug == p.Slug {
			return post.Post{}, post.ErrSlugTaken
		}
	}

	// counters are owned by the store, not the caller
	p.ViewsCount = cur.ViewsCount
	p.LikesCount = cur.LikesCount
	p.OwnerID = cur.OwnerID
	p.CreatedAt = cur.CreatedAt

	r.s.posts[p.ID] = clonePost(p)
	return clonePost(p), nil
}

func (r *PostsRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.posts[id]; !ok {
		return post.ErrNotFound
	}
	r.s.deletePostLocked(id)
	return nil
}

func (r *PostsRepo) IncrementViews(_ context.Context, id string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[id]
	if !ok {
		return 0, post.ErrNotFound
	}
	p.ViewsCount++
	r.s.posts[id] = p
	return p.ViewsCount, nil
}

func (r *PostsRepo) ToggleLike(_ context.Context, postID, accountID string) (bool, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[postID]
	if !ok {
		return false, 0, post.ErrNotFound
	}

	k := likeKey{accountID: accountID, postID: postID}
	_, had := r.s.likes[k]
	if had {
		delete(r.s.likes, k)
	} else {
		r.s.likes[k] = struct{}{}
	}

	p.LikesCount = r.s.countLikesLocked(postID)
	r.s.posts[postID] = p

	return !had, p.LikesCount, nil
}

func (r *PostsRepo) Stats(_ context.Context) (post.Stats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var st post.Stats
	for _, p := range r.s.posts {
		st.TotalPosts++
		switch p.Status {
		case post.StatusPublished:
			st.PublishedPosts++
		case post.StatusDraft:
			st.DraftPosts++
		}
		st.TotalViews += p.ViewsCount
		st.TotalLikes += p.LikesCount
	}
	st.TotalComments = len(r.s.comments)

	return st, nil
}

func (s *Store) deletePostLocked(id string) {
	delete(s.posts, id)
	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
		}
	}
	for k := range s.likes {
		if k.postID == id {
			delete(s.likes, k)
		}
	}
}

func (s *Store) countLikesLocked(postID string) int {
	n := 0
	for k := range s.likes {
		if k.postID == postID {
			n++
		}
	}
	return n
}

func (s *Store) recountLikesLocked() {
	for id, p := range s.posts {
		p.LikesCount = s.countLikesLocked(id)
		s.posts[id] = p
	}
}
