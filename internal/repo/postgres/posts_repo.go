package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/inkpost/internal/domain/post"
	"github.com/geocoder89/inkpost/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewPostsRepo(pool *pgxpool.Pool, prom *observability.Prom) *PostsRepo {
	return &PostsRepo{pool: pool, prom: prom}
}

const postColumns = `id, owner_id, title, slug, content, excerpt, status, tags, is_featured,
	views_count, likes_count, published_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner, extra ...any) (post.Post, error) {
	var p post.Post
	var status string

	dest := []any{
		&p.ID,
		&p.OwnerID,
		&p.Title,
		&p.Slug,
		&p.Content,
		&p.Excerpt,
		&status,
		&p.Tags,
		&p.IsFeatured,
		&p.ViewsCount,
		&p.LikesCount,
		&p.PublishedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	}

	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return post.Post{}, post.ErrNotFound
		}
		return post.Post{}, err
	}

	p.Status = post.Status(status)
	return p, nil
}

func mapPostWriteErr(err error) error {
	if name, ok := uniqueConstraint(err); ok && name == "posts_slug_key" {
		return post.ErrSlugTaken
	}
	return err
}

func (r *PostsRepo) Create(ctx context.Context, p post.Post) (post.Post, error) {
	if p.Tags == nil {
		p.Tags = []string{}
	}

	err := r.prom.ObserveDB("posts.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO posts (id, owner_id, title, slug, content, excerpt, status, tags, is_featured,
				views_count, likes_count, published_at, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,0,0,$10,$11,$12)`,
			p.ID, p.OwnerID, p.Title, p.Slug, p.Content, p.Excerpt, string(p.Status), p.Tags, p.IsFeatured,
			p.PublishedAt, p.CreatedAt, p.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return post.Post{}, mapPostWriteErr(err)
	}

	return p, nil
}

func (r *PostsRepo) GetByID(ctx context.Context, id string) (post.Post, error) {
	if !validID(id) {
		return post.Post{}, post.ErrNotFound
	}

	var p post.Post
	err := r.prom.ObserveDB("posts.get_by_id", func() error {
		var err error
		p, err = scanPost(r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id))
		return err
	})

	return p, err
}

func (r *PostsRepo) List(ctx context.Context, f post.ListFilter) ([]post.Post, int, error) {
	baseQuery := `SELECT ` + postColumns + `, COUNT(*) OVER() AS total FROM posts`

	var conds []string
	var args []any

	argsPosition := 1

	// visibility: anonymous readers only see published posts
	if f.ViewerID != "" {
		conds = append(conds, fmt.Sprintf("(status = 'published' OR owner_id = $%d)", argsPosition))
		args = append(args, f.ViewerID)
		argsPosition++
	} else {
		conds = append(conds, "status = 'published'")
	}

	if f.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", argsPosition))
		args = append(args, string(*f.Status))
		argsPosition++
	}

	if f.Tag != nil {
		conds = append(conds, fmt.Sprintf("$%d = ANY(tags)", argsPosition))
		args = append(args, *f.Tag)
		argsPosition++
	}

	if f.OwnerID != nil {
		if !validID(*f.OwnerID) {
			return []post.Post{}, 0, nil
		}
		conds = append(conds, fmt.Sprintf("owner_id = $%d", argsPosition))
		args = append(args, *f.OwnerID)
		argsPosition++
	}

	if f.Query != nil {
		conds = append(conds, fmt.Sprintf(
			"(title ILIKE $%[1]d OR content ILIKE $%[1]d OR excerpt ILIKE $%[1]d OR EXISTS (SELECT 1 FROM accounts a WHERE a.id = posts.owner_id AND a.username ILIKE $%[1]d))",
			argsPosition,
		))
		args = append(args, "%"+escapeLike(*f.Query)+"%")
		argsPosition++
	}

	if f.Featured != nil {
		conds = append(conds, fmt.Sprintf("is_featured = $%d", argsPosition))
		args = append(args, *f.Featured)
		argsPosition++
	}

	if f.CreatedAfter != nil {
		conds = append(conds, fmt.Sprintf("created_at >= $%d", argsPosition))
		args = append(args, *f.CreatedAfter)
		argsPosition++
	}

	where := " WHERE " + strings.Join(conds, " AND ")
	filterArgs := append([]any(nil), args...)

	query := baseQuery + where

	// stable ordering for pagination
	switch f.Sort {
	case post.SortViews:
		query += " ORDER BY views_count DESC, created_at DESC, id ASC"
	case post.SortLikes:
		query += " ORDER BY likes_count DESC, created_at DESC, id ASC"
	default:
		query += " ORDER BY created_at DESC, id ASC"
	}

	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)
	args = append(args, f.Limit, f.Offset)

	output := make([]post.Post, 0, f.Limit)
	total := 0

	err := r.prom.ObserveDB("posts.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t int
			p, err := scanPost(rows, &t)
			if err != nil {
				return err
			}
			total = t
			output = append(output, p)
		}

		if err := rows.Err(); err != nil {
			return err
		}

		// COUNT(*) OVER() has no row to ride on past the last page
		if len(output) == 0 && f.Offset > 0 {
			rows.Close()
			return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts`+where, filterArgs...).Scan(&total)
		}
		return nil
	})

	if err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

func (r *PostsRepo) Update(ctx context.Context, p post.Post) (post.Post, error) {
	if !validID(p.ID) {
		return post.Post{}, post.ErrNotFound
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}

	var out post.Post
	err := r.prom.ObserveDB("posts.update", func() error {
		var err error
		out, err = scanPost(r.pool.QueryRow(ctx,
			`UPDATE posts
			SET title = $2,
				slug = $3,
				content = $4,
				excerpt = $5,
				status = $6,
				tags = $7,
				is_featured = $8,
				published_at = $9,
				updated_at = $10
			WHERE id = $1
			RETURNING `+postColumns,
			p.ID, p.Title, p.Slug, p.Content, p.Excerpt, string(p.Status), p.Tags, p.IsFeatured,
			p.PublishedAt, p.UpdatedAt,
		))
		return err
	})

	if err != nil {
		return post.Post{}, mapPostWriteErr(err)
	}

	return out, nil
}

func (r *PostsRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return post.ErrNotFound
	}

	return r.prom.ObserveDB("posts.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
		if err != nil {
			return err
		}
		// if no rows were deleted as a result return a not found error
		if tag.RowsAffected() == 0 {
			return post.ErrNotFound
		}
		return nil
	})
}

func (r *PostsRepo) IncrementViews(ctx context.Context, id string) (int, error) {
	if !validID(id) {
		return 0, post.ErrNotFound
	}

	var views int
	err := r.prom.ObserveDB("posts.increment_views", func() error {
		err := r.pool.QueryRow(ctx,
			`UPDATE posts SET views_count = views_count + 1 WHERE id = $1 RETURNING views_count`, id,
		).Scan(&views)
		if errors.Is(err, pgx.ErrNoRows) {
			return post.ErrNotFound
		}
		return err
	})

	return views, err
}

// ToggleLike flips the (account, post) like and returns the new state with the
// recomputed counter.
func (r *PostsRepo) ToggleLike(ctx context.Context, postID, accountID string) (liked bool, likes int, err error) {
	if !validID(postID) {
		return false, 0, post.ErrNotFound
	}

	err = r.prom.ObserveDB("posts.toggle_like", func() error {
		return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return post.ErrNotFound
			}

			tag, err := tx.Exec(ctx, `DELETE FROM post_likes WHERE account_id = $1 AND post_id = $2`, accountID, postID)
			if err != nil {
				return err
			}

			liked = tag.RowsAffected() == 0
			if liked {
				if _, err := tx.Exec(ctx,
					`INSERT INTO post_likes (account_id, post_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
					accountID, postID,
				); err != nil {
					return err
				}
			}

			return tx.QueryRow(ctx,
				`UPDATE posts
				SET likes_count = (SELECT COUNT(*) FROM post_likes WHERE post_id = $1)
				WHERE id = $1
				RETURNING likes_count`,
				postID,
			).Scan(&likes)
		})
	})

	return liked, likes, err
}

func (r *PostsRepo) Stats(ctx context.Context) (post.Stats, error) {
	var s post.Stats
	err := r.prom.ObserveDB("posts.stats", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COUNT(*),
				COUNT(*) FILTER (WHERE status = 'published'),
				COUNT(*) FILTER (WHERE status = 'draft'),
				COALESCE(SUM(views_count), 0),
				COALESCE(SUM(likes_count), 0),
				(SELECT COUNT(*) FROM comments)
			FROM posts`,
		).Scan(&s.TotalPosts, &s.PublishedPosts, &s.DraftPosts, &s.TotalViews, &s.TotalLikes, &s.TotalComments)
	})

	return s, err
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
