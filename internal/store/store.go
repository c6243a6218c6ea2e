package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"example.com/placefeed/internal/logger"
	"example.com/placefeed/internal/models"
)

var logg = logger.New()

var (
	ErrNotFound  = errors.New("store: not found")
	ErrDuplicate = errors.New("store: duplicate key")
)

// --- Interfaces ---

type AccountStore interface {
	// CreateAccount returns ErrDuplicate when the email is already registered.
	CreateAccount(ctx context.Context, a *models.Account) error
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	// GetAccountSummaries skips ids that do not resolve.
	GetAccountSummaries(ctx context.Context, ids []string) (map[string]models.AccountSummary, error)
	UpdateProfile(ctx context.Context, id, username, bio, profileImage string, updatedAt time.Time) error
}

// PostStore mutates likes and comment references with the backend's atomic
// collection operators, never by rewriting the whole post.
type PostStore interface {
	CreatePost(ctx context.Context, p *models.Post) error
	GetPost(ctx context.Context, id string) (*models.Post, error)
	// ListPosts and ListPostsByOwner return newest first.
	ListPosts(ctx context.Context) ([]models.Post, error)
	ListPostsByOwner(ctx context.Context, ownerID string) ([]models.Post, error)
	AddLike(ctx context.Context, postID, accountID string) error
	RemoveLike(ctx context.Context, postID, accountID string) error
	AppendCommentRef(ctx context.Context, postID, commentID string) error
	RemoveCommentRef(ctx context.Context, postID, commentID string) error
}

type CommentStore interface {
	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	// GetComments returns comments in the order of ids, skipping missing ones.
	GetComments(ctx context.Context, ids []string) ([]models.Comment, error)
	UpdateCommentText(ctx context.Context, id, text string, updatedAt time.Time) error
	DeleteComment(ctx context.Context, id string) error
}

type StoreInterface interface {
	AccountStore
	PostStore
	CommentStore
	Close()
}

// --- Shared helpers ---

func sortNewestFirst(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}

// orderByIDs arranges comments to follow ids.
func orderByIDs(ids []string, found map[string]models.Comment) []models.Comment {
	res := make([]models.Comment, 0, len(found))
	for _, id := range ids {
		if c, ok := found[id]; ok {
			res = append(res, c)
		}
	}
	return res
}

func normalizePost(p *models.Post) {
	if p.Likes == nil {
		p.Likes = []string{}
	}
	if p.Comments == nil {
		p.Comments = []string{}
	}
	if p.Status == "" {
		p.Status = models.StatusActive
	}
}

var (
	_ StoreInterface = (*Store)(nil)
	_ StoreInterface = (*MongoStore)(nil)
	_ StoreInterface = (*MockStore)(nil)
	_ StoreInterface = (*MockStoreFail)(nil)
)
