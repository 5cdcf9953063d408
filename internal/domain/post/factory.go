package post

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

func NewFromCreateRequest(req CreatePostRequest, ownerID string, now time.Time) Post {
	status := req.Status
	if status == "" {
		status = StatusDraft
	}

	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Title)
	}

	p := Post{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		Title:      strings.TrimSpace(req.Title),
		Slug:       slug,
		Content:    req.Content,
		Excerpt:    req.Excerpt,
		Status:     status,
		Tags:       NormalizeTags(req.Tags),
		IsFeatured: req.IsFeatured,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	p.stampPublished(now)

	return p
}

func (p *Post) ApplyUpdate(req UpdatePostRequest, now time.Time) {
	if req.Title != nil {
		p.Title = strings.TrimSpace(*req.Title)
	}
	if req.Slug != nil {
		p.Slug = *req.Slug
	}
	if req.Content != nil {
		p.Content = *req.Content
	}
	if req.Excerpt != nil {
		p.Excerpt = *req.Excerpt
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if req.Tags != nil {
		p.Tags = NormalizeTags(req.Tags)
	}
	if req.IsFeatured != nil {
		p.IsFeatured = *req.IsFeatured
	}

	p.UpdatedAt = now
	p.stampPublished(now)
}

// PublishedAt is set the first time a post goes live and kept afterwards,
// including when it is later archived.
func (p *Post) stampPublished(now time.Time) {
	if p.Status == StatusPublished && p.PublishedAt == nil {
		t := now
		p.PublishedAt = &t
	}
}

// NormalizeTags lowercases, trims and dedupes while keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))

	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	return out
}

// Slugify turns free text into a lowercase, hyphen separated slug.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false

	for _, r := range strings.ToLower(s) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
	}

	slug := b.String()
	if len(slug) > 200 {
		slug = strings.TrimRight(slug[:200], "-")
	}
	if slug == "" {
		slug = "post-" + uuid.NewString()[:8]
	}
	return slug
}
