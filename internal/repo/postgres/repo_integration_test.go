package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/inkpost/internal/db"
	"github.com/geocoder89/inkpost/internal/domain/account"
	"github.com/geocoder89/inkpost/internal/domain/comment"
	"github.com/geocoder89/inkpost/internal/domain/post"
	"github.com/geocoder89/inkpost/internal/domain/tag"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.Migrate(ctx, pool))

	_, err = pool.Exec(ctx, `TRUNCATE post_likes, comments, posts, tags, accounts CASCADE`)
	require.NoError(t, err)

	return pool
}

func seedAccount(t *testing.T, repo *AccountsRepo, username, email string) account.Account {
	t.Helper()

	a := account.NewFromRegisterRequest(account.RegisterRequest{Username: username, Email: email}, "hash", time.Now().UTC())
	a, err := repo.Create(context.Background(), a)
	require.NoError(t, err)
	return a
}

func TestAccountsRepo_UniqueConstraints(t *testing.T) {
	pool := setupPool(t)
	repo := NewAccountsRepo(pool, nil)
	ctx := context.Background()

	seedAccount(t, repo, "alice", "alice@example.com")

	dupEmail := account.NewFromRegisterRequest(account.RegisterRequest{Username: "other", Email: "ALICE@example.com"}, "h", time.Now().UTC())
	_, err := repo.Create(ctx, dupEmail)
	assert.ErrorIs(t, err, account.ErrEmailTaken)

	dupName := account.NewFromRegisterRequest(account.RegisterRequest{Username: "Alice", Email: "x@example.com"}, "h", time.Now().UTC())
	_, err = repo.Create(ctx, dupName)
	assert.ErrorIs(t, err, account.ErrUsernameTaken)

	got, err := repo.GetByLogin(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)

	got, err = repo.GetByLogin(ctx, " Alice@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	// '@' logins never fall through to the username column
	seedAccount(t, repo, "dave@example.com", "dave.real@example.com")
	_, err = repo.GetByLogin(ctx, "dave@example.com")
	assert.ErrorIs(t, err, account.ErrNotFound)

	_, err = repo.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestPostsRepo_VisibilityLikesAndStats(t *testing.T) {
	pool := setupPool(t)
	accounts := NewAccountsRepo(pool, nil)
	posts := NewPostsRepo(pool, nil)
	tags := NewTagsRepo(pool, nil)
	comments := NewCommentsRepo(pool, nil)
	ctx := context.Background()

	a := seedAccount(t, accounts, "alice", "alice@example.com")
	b := seedAccount(t, accounts, "bob", "bob@example.com")

	_, err := tags.Create(ctx, tag.NewFromCreateRequest(tag.CreateTagRequest{Name: "Go"}, "go", time.Now().UTC()))
	require.NoError(t, err)

	now := time.Now().UTC()
	pub, err := posts.Create(ctx, post.NewFromCreateRequest(post.CreatePostRequest{
		Title: "Published", Content: "x", Status: post.StatusPublished, Tags: []string{"go"},
	}, a.ID, now))
	require.NoError(t, err)

	_, err = posts.Create(ctx, post.NewFromCreateRequest(post.CreatePostRequest{Title: "Draft", Content: "x"}, a.ID, now))
	require.NoError(t, err)

	_, err = posts.Create(ctx, post.NewFromCreateRequest(post.CreatePostRequest{Title: "Published", Content: "dup"}, b.ID, now))
	assert.ErrorIs(t, err, post.ErrSlugTaken)

	list, total, err := posts.List(ctx, post.ListFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, list, 1)

	_, total, err = posts.List(ctx, post.ListFilter{ViewerID: a.ID, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	// a page past the end still reports the full total
	list, total, err = posts.List(ctx, post.ListFilter{ViewerID: a.ID, Limit: 10, Offset: 20})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 2, total)

	liked, likes, err := posts.ToggleLike(ctx, pub.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, likes)

	liked, likes, err = posts.ToggleLike(ctx, pub.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, likes)

	_, err = comments.Create(ctx, comment.NewFromCreateRequest(comment.CreateCommentRequest{Content: "nice"}, pub.ID, b.ID, now))
	require.NoError(t, err)

	views, err := posts.IncrementViews(ctx, pub.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, views)

	stats, err := posts.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalPosts)
	assert.Equal(t, 1, stats.PublishedPosts)
	assert.Equal(t, 1, stats.TotalComments)

	tagList, err := tags.List(ctx)
	require.NoError(t, err)
	require.Len(t, tagList, 1)
	assert.Equal(t, 1, tagList[0].PostCount)

	missing, err := tags.Missing(ctx, []string{"go", "rust"})
	require.NoError(t, err)
	assert.Equal(t, []string{"rust"}, missing)

	require.NoError(t, posts.Delete(ctx, pub.ID))
	_, _, err = comments.ListByPost(ctx, pub.ID, 10, 0)
	require.NoError(t, err)
	assert.ErrorIs(t, posts.Delete(ctx, pub.ID), post.ErrNotFound)
}
