package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/inkpost/internal/domain/comment"
	"github.com/geocoder89/inkpost/internal/domain/post"
	"github.com/geocoder89/inkpost/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CommentsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewCommentsRepo(pool *pgxpool.Pool, prom *observability.Prom) *CommentsRepo {
	return &CommentsRepo{pool: pool, prom: prom}
}

const commentColumns = `id, post_id, owner_id, parent_id, content, created_at, updated_at`

func scanComment(row rowScanner, extra ...any) (comment.Comment, error) {
	var c comment.Comment

	dest := []any{&c.ID, &c.PostID, &c.OwnerID, &c.ParentID, &c.Content, &c.CreatedAt, &c.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return comment.Comment{}, comment.ErrNotFound
		}
		return comment.Comment{}, err
	}

	return c, nil
}

func (r *CommentsRepo) Create(ctx context.Context, c comment.Comment) (comment.Comment, error) {
	err := r.prom.ObserveDB("comments.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO comments (id, post_id, owner_id, parent_id, content, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			c.ID, c.PostID, c.OwnerID, c.ParentID, c.Content, c.CreatedAt, c.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return comment.Comment{}, err
	}

	return c, nil
}

func (r *CommentsRepo) GetByID(ctx context.Context, id string) (comment.Comment, error) {
	if !validID(id) {
		return comment.Comment{}, comment.ErrNotFound
	}

	var c comment.Comment
	err := r.prom.ObserveDB("comments.get_by_id", func() error {
		var err error
		c, err = scanComment(r.pool.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
		return err
	})

	return c, err
}

// ListByPost returns comments oldest first so threads read top to bottom.
func (r *CommentsRepo) ListByPost(ctx context.Context, postID string, limit, offset int) ([]comment.Comment, int, error) {
	if !validID(postID) {
		return nil, 0, post.ErrNotFound
	}

	output := make([]comment.Comment, 0, limit)
	total := 0

	err := r.prom.ObserveDB("comments.list_by_post", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+commentColumns+`, COUNT(*) OVER() AS total
			FROM comments
			WHERE post_id = $1
			ORDER BY created_at ASC, id ASC
			LIMIT $2 OFFSET $3`,
			postID, limit, offset,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t int
			c, err := scanComment(rows, &t)
			if err != nil {
				return err
			}
			total = t
			output = append(output, c)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

func (r *CommentsRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return comment.ErrNotFound
	}

	return r.prom.ObserveDB("comments.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return comment.ErrNotFound
		}
		return nil
	})
}
