package views

import (
	"context"

	"github.com/garnizeh/campusfeed/internal/session"
	"github.com/garnizeh/campusfeed/pkg/models"
)

// PostList is the full forum feed, newest first.
type PostList struct {
	*base
}

type PostListSnapshot struct {
	Status       Status
	Posts        []PostItem
	DeleteDialog Dialog
}

func NewPostList(svc Service, id session.Identity, opts ...Option) *PostList {
	return &PostList{base: newBase("posts", svc, id, buildOptions(opts), nil)}
}

func (l *PostList) Mount(ctx context.Context) error { return l.load(ctx, l.fetch) }

func (l *PostList) Refresh(ctx context.Context) error { return l.load(ctx, l.fetch) }

func (l *PostList) fetch(ctx context.Context) error {
	posts, err := l.svc.FetchPosts(ctx)
	if err != nil {
		return l.fetchErr("fetch posts", err)
	}
	l.posts.Load(posts)
	return nil
}

func (l *PostList) CreatePost(ctx context.Context, body string) (*models.Post, error) {
	return l.createPost(ctx, body)
}

func (l *PostList) Snapshot() PostListSnapshot {
	return PostListSnapshot{
		Status:       l.main.status(),
		Posts:        l.postItems(),
		DeleteDialog: dialogOf(l.deletePost),
	}
}
