package repository

import (
	"context"
	"errors"

	"github.com/garnizeh/campusfeed/pkg/models"
)

// Repository interfaces for the forum backend. Lookups of a missing row return
// (nil, nil); concrete implementations live under internal/.

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.UserProfile) (string, error)
	GetUser(ctx context.Context, id string) (*models.UserProfile, error)
	UpdateUser(ctx context.Context, id string, u models.ProfileUpdate) error
}

type AccountRepo interface {
	CreateAccount(ctx context.Context, a *models.Account) error
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
}

// PostRepo returns posts as seen by viewerID, which decides IsLikedByCurrentUser.
type PostRepo interface {
	CreatePost(ctx context.Context, authorID, body string) (*models.Post, error)
	GetPost(ctx context.Context, id, viewerID string) (*models.Post, error)
	ListPosts(ctx context.Context, viewerID string, limit, offset int) ([]models.Post, error)
	ListPostsByAuthor(ctx context.Context, authorID, viewerID string) ([]models.Post, error)
	DeletePost(ctx context.Context, id string) error
}

type ReplyRepo interface {
	CreateReply(ctx context.Context, postID, authorID, body string) (*models.Reply, error)
	GetReply(ctx context.Context, id string) (*models.Reply, error)
	ListReplies(ctx context.Context, postID string) ([]models.Reply, error)
	ListRepliesByAuthor(ctx context.Context, authorID string) ([]models.Reply, error)
	DeleteReply(ctx context.Context, id string) error
}

// LikeRepo toggles likes. Both calls are idempotent.
type LikeRepo interface {
	Like(ctx context.Context, postID, userID string) error
	Unlike(ctx context.Context, postID, userID string) error
}

// ErrNotFound is returned by writes that address a row that does not exist.
var ErrNotFound = errors.New("not found")
