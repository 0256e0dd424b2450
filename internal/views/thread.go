package views

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/garnizeh/campusfeed/internal/cache"
	"github.com/garnizeh/campusfeed/internal/confirm"
	"github.com/garnizeh/campusfeed/internal/session"
	"github.com/garnizeh/campusfeed/pkg/models"
)

// Thread is a single post with its replies. The post and the replies are fetched
// concurrently; failing to load replies leaves the post visible.
type Thread struct {
	*base
	postID         string
	replies        *cache.Cache[models.Reply]
	repliesSection section
	deleteReply    *confirm.Gate
	deleted        atomic.Bool
}

type ThreadSnapshot struct {
	Status            Status
	Post              *PostItem
	Replies           []ReplyItem
	RepliesStatus     Status
	Deleted           bool
	DeleteDialog      Dialog
	ReplyDeleteDialog Dialog
}

func NewThread(svc Service, id session.Identity, postID string, opts ...Option) *Thread {
	replies := cache.New[models.Reply]()
	t := &Thread{
		base:    newBase("thread", svc, id, buildOptions(opts), replies),
		postID:  postID,
		replies: replies,
	}
	t.afterDelete = func(string) { t.deleted.Store(true) }
	t.deleteReply = confirm.New(func(ctx context.Context, replyID string) error {
		return t.exec.DeleteReply(ctx, replyID)
	})
	return t
}

func (t *Thread) PostID() string { return t.postID }

func (t *Thread) Mount(ctx context.Context) error { return t.load(ctx, t.fetch) }

func (t *Thread) Refresh(ctx context.Context) error { return t.load(ctx, t.fetch) }

func (t *Thread) fetch(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	var (
		post       *models.Post
		replies    []models.Reply
		repliesErr error
	)
	g.Go(func() error {
		p, err := t.svc.FetchPost(gctx, t.postID)
		if err != nil {
			return t.fetchErr("fetch post", err)
		}
		post = p
		return nil
	})

	t.repliesSection.begin()
	g.Go(func() error {
		rs, err := t.svc.FetchReplies(gctx, t.postID)
		if err != nil {
			repliesErr = t.fetchErr("fetch replies", err)
			return nil
		}
		replies = rs
		return nil
	})

	// nothing is populated unless the post itself loaded
	if err := g.Wait(); err != nil {
		t.repliesSection.abort()
		return err
	}
	t.posts.Load([]models.Post{*post})
	if repliesErr != nil {
		t.repliesSection.finish(repliesErr)
		t.logger.Warn("replies load failed", "post_id", t.postID, "err", repliesErr)
		return nil
	}
	t.replies.Load(replies)
	t.repliesSection.finish(nil)
	return nil
}

// Like toggles the current user's like on the thread's post.
func (t *Thread) Like(ctx context.Context) error {
	return t.ToggleLike(ctx, t.postID)
}

// RequestDeletePost opens the delete confirmation for the thread's post.
func (t *Thread) RequestDeletePost() error {
	return t.RequestDelete(t.postID)
}

// CreateReply posts a reply and bumps the post's reply count in this view.
func (t *Thread) CreateReply(ctx context.Context, body string) (*models.Reply, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	r, err := t.exec.CreateReply(ctx, t.postID, models.ReplyDraft{Body: body})
	if err != nil {
		return nil, err
	}
	t.posts.Patch(t.postID, models.ReplyDelta(1))
	return r, nil
}

// RequestDeleteReply opens the delete confirmation for one of the user's own replies.
func (t *Thread) RequestDeleteReply(replyID string) error {
	r, ok := t.replies.Get(replyID)
	if !ok {
		return fmt.Errorf("delete reply %s: %w", replyID, ErrUnknownReply)
	}
	if !t.identity.Owns(r.Author) {
		return fmt.Errorf("delete reply %s: %w", replyID, ErrNotOwner)
	}
	return t.deleteReply.Select(replyID)
}

func (t *Thread) ConfirmDeleteReply(ctx context.Context) error {
	return t.deleteReply.Confirm(ctx)
}

func (t *Thread) CancelDeleteReply() {
	t.deleteReply.Cancel()
}

// Deleted reports whether the thread's post was deleted from this view.
func (t *Thread) Deleted() bool { return t.deleted.Load() }

func (t *Thread) Close() {
	t.base.Close()
	t.replies.Close()
}

func (t *Thread) Snapshot() ThreadSnapshot {
	s := ThreadSnapshot{
		Status:            t.main.status(),
		Replies:           t.replyItems(t.replies),
		RepliesStatus:     t.repliesSection.status(),
		Deleted:           t.deleted.Load(),
		DeleteDialog:      dialogOf(t.deletePost),
		ReplyDeleteDialog: dialogOf(t.deleteReply),
	}
	if p, ok := t.posts.Get(t.postID); ok {
		item := t.postItem(p)
		s.Post = &item
	}
	return s
}
