package memory

import (
	"sync"

	"github.com/geocoder89/inkpost/internal/domain/account"
	"github.com/geocoder89/inkpost/internal/domain/comment"
	"github.com/geocoder89/inkpost/internal/domain/post"
	"github.com/geocoder89/inkpost/internal/domain/tag"
)

type likeKey struct {
	accountID string
	postID    string
}

// Store keeps every table behind one lock so cascades, like toggles and
// stats see a consistent view, the same way a single database would.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]account.Account
	posts    map[string]post.Post
	tags     map[string]tag.Tag
	comments map[string]comment.Comment
	likes    map[likeKey]struct{}
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[string]account.Account),
		posts:    make(map[string]post.Post),
		tags:     make(map[string]tag.Tag),
		comments: make(map[string]comment.Comment),
		likes:    make(map[likeKey]struct{}),
	}
}

func (s *Store) Accounts() *AccountsRepo { return &AccountsRepo{s: s} }
func (s *Store) Posts() *PostsRepo       { return &PostsRepo{s: s} }
func (s *Store) Tags() *TagsRepo         { return &TagsRepo{s: s} }
func (s *Store) Comments() *CommentsRepo { return &CommentsRepo{s: s} }
