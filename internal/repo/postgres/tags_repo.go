package postgres

import (
	"context"

	"github.com/geocoder89/inkpost/internal/domain/tag"
	"github.com/geocoder89/inkpost/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TagsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTagsRepo(pool *pgxpool.Pool, prom *observability.Prom) *TagsRepo {
	return &TagsRepo{pool: pool, prom: prom}
}

func (r *TagsRepo) Create(ctx context.Context, t tag.Tag) (tag.Tag, error) {
	err := r.prom.ObserveDB("tags.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO tags (id, name, slug, created_at) VALUES ($1,$2,$3,$4)`,
			t.ID, t.Name, t.Slug, t.CreatedAt,
		)
		return err
	})

	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return tag.Tag{}, tag.ErrExists
		}
		return tag.Tag{}, err
	}

	return t, nil
}

// List returns every tag with the number of published posts carrying it.
func (r *TagsRepo) List(ctx context.Context) ([]tag.Tag, error) {
	out := make([]tag.Tag, 0)

	err := r.prom.ObserveDB("tags.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT t.id, t.name, t.slug, t.created_at,
				(SELECT COUNT(*) FROM posts p WHERE t.slug = ANY(p.tags) AND p.status = 'published') AS post_count
			FROM tags t
			ORDER BY t.name ASC`,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t tag.Tag
			if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt, &t.PostCount); err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

// Missing returns the slugs that have no tag row, preserving input order.
func (r *TagsRepo) Missing(ctx context.Context, slugs []string) ([]string, error) {
	if len(slugs) == 0 {
		return nil, nil
	}

	known := make(map[string]struct{}, len(slugs))

	err := r.prom.ObserveDB("tags.missing", func() error {
		rows, err := r.pool.Query(ctx, `SELECT slug FROM tags WHERE slug = ANY($1)`, slugs)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var s string
			if err := rows.Scan(&s); err != nil {
				return err
			}
			known[s] = struct{}{}
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	var missing []string
	for _, s := range slugs {
		if _, ok := known[s]; !ok {
			missing = append(missing, s)
		}
	}

	return missing, nil
}
