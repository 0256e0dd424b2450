// Package views binds the screens of the forum to their data. Every adapter owns its
// own caches, executor and confirmation gates: two adapters showing the same post hold
// separate copies that may diverge until each one refreshes.
package views

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/garnizeh/campusfeed/internal/cache"
	"github.com/garnizeh/campusfeed/internal/confirm"
	"github.com/garnizeh/campusfeed/internal/mutation"
	"github.com/garnizeh/campusfeed/internal/session"
	"github.com/garnizeh/campusfeed/pkg/models"
)

// package-level logger for internal/views; can be replaced by callers
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger installs a logger for the views package. Passing nil is a no-op.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

var (
	ErrClosed       = errors.New("view closed")
	ErrUnknownPost  = errors.New("post not in view")
	ErrUnknownReply = errors.New("reply not in view")
	ErrNotOwner     = errors.New("not the author")
	ErrEmptyBody    = errors.New("body must not be empty")
)

// Service is the request service the adapters read from and mutate through.
type Service interface {
	mutation.Remote
	FetchPosts(ctx context.Context) ([]models.Post, error)
	FetchPost(ctx context.Context, id string) (*models.Post, error)
	FetchReplies(ctx context.Context, postID string) ([]models.Reply, error)
	FetchUserProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	FetchUserPosts(ctx context.Context, userID string) ([]models.Post, error)
	FetchUserReplies(ctx context.Context, userID string) ([]models.Reply, error)
}

// Recorder receives mutation outcomes and fetch results.
type Recorder interface {
	mutation.Recorder
	RecordFetch(view string, err error)
}

// FetchError reports a failed load. The cache it would have filled is left as it was.
type FetchError struct {
	View string
	Op   string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.View, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type options struct {
	logger   *slog.Logger
	recorder Recorder
	policy   mutation.Policy
}

type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithPolicy overrides the optimistic/pessimistic table of the adapter's executor.
func WithPolicy(p mutation.Policy) Option {
	return func(o *options) { o.policy = p }
}

func buildOptions(opts []Option) options {
	o := options{logger: logger}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Status is the load state of a view or of one section of it.
type Status struct {
	Loading bool
	Loaded  bool
	Error   string
}

// PostItem is a post as presented, with the flags derived for the current user.
type PostItem struct {
	models.Post
	IsOwnPost     bool
	LikePending   bool
	DeletePending bool
}

type ReplyItem struct {
	models.Reply
	IsOwnReply bool
}

// Dialog is the render state of a confirmation gate.
type Dialog struct {
	Open      bool
	Target    string
	Executing bool
}

func dialogOf(g *confirm.Gate) Dialog {
	st := g.State()
	return Dialog{Open: st != confirm.Idle, Target: g.Target(), Executing: st == confirm.Executing}
}

// section tracks the load state of one independently fetched part of a view.
type section struct {
	mu      sync.RWMutex
	loading bool
	loaded  bool
	err     error
}

func (s *section) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
}

func (s *section) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.err = err
	if err == nil {
		s.loaded = true
	}
}

// abort ends a load whose results were discarded; the previous loaded state stays.
func (s *section) abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
}

func (s *section) status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{Loading: s.loading, Loaded: s.loaded}
	if s.err != nil {
		st.Error = s.err.Error()
	}
	return st
}

// base is what every adapter shares: a post cache, its executor, the post delete gate
// and the main load state.
type base struct {
	view     string
	svc      Service
	identity session.Identity
	logger   *slog.Logger
	recorder Recorder

	posts      *cache.Cache[models.Post]
	exec       *mutation.Executor
	deletePost *confirm.Gate
	// afterDelete runs after a confirmed post delete succeeded
	afterDelete func(postID string)

	sf   singleflight.Group
	main section
}

func newBase(view string, svc Service, id session.Identity, o options, replies *cache.Cache[models.Reply]) *base {
	b := &base{
		view:     view,
		svc:      svc,
		identity: id,
		logger:   o.logger.With("view", view),
		recorder: o.recorder,
		posts:    cache.New[models.Post](),
	}

	execOpts := []mutation.Option{mutation.WithLogger(b.logger), mutation.WithPolicy(o.policy)}
	if replies != nil {
		execOpts = append(execOpts, mutation.WithReplies(replies))
	}
	if o.recorder != nil {
		execOpts = append(execOpts, mutation.WithRecorder(o.recorder))
	}
	b.exec = mutation.New(b.posts, svc, execOpts...)

	b.deletePost = confirm.New(func(ctx context.Context, postID string) error {
		if err := b.exec.DeletePost(ctx, postID); err != nil {
			return err
		}
		if b.afterDelete != nil {
			b.afterDelete(postID)
		}
		return nil
	})
	return b
}

// load runs fn as the view's fetch. Concurrent loads share one in-flight fetch.
func (b *base) load(ctx context.Context, fn func(ctx context.Context) error) error {
	if b.posts.Closed() {
		return ErrClosed
	}

	_, err, shared := b.sf.Do("load", func() (any, error) {
		b.main.begin()
		err := fn(ctx)
		b.main.finish(err)
		if b.recorder != nil {
			b.recorder.RecordFetch(b.view, err)
		}
		if err != nil {
			b.logger.Warn("view load failed", "err", err)
		}
		return nil, err
	})
	if shared {
		b.logger.Debug("load coalesced with in-flight fetch")
	}
	return err
}

func (b *base) fetchErr(op string, err error) error {
	return &FetchError{View: b.view, Op: op, Err: err}
}

// Close tears the view down; results that arrive afterwards are dropped.
func (b *base) Close() {
	b.posts.Close()
}

func (b *base) Closed() bool { return b.posts.Closed() }

func (b *base) Identity() session.Identity { return b.identity }

// Policy returns the executor's policy table.
func (b *base) Policy() mutation.Policy { return b.exec.Policy() }

// ToggleLike flips the current user's like on postID.
func (b *base) ToggleLike(ctx context.Context, postID string) error {
	p, ok := b.posts.Get(postID)
	if !ok {
		return fmt.Errorf("toggle like %s: %w", postID, ErrUnknownPost)
	}
	return b.exec.ToggleLike(ctx, postID, p.IsLikedByCurrentUser)
}

// RequestDelete opens the delete confirmation for one of the user's own posts.
func (b *base) RequestDelete(postID string) error {
	p, ok := b.posts.Get(postID)
	if !ok {
		return fmt.Errorf("delete %s: %w", postID, ErrUnknownPost)
	}
	if !b.identity.Owns(p.Author) {
		return fmt.Errorf("delete %s: %w", postID, ErrNotOwner)
	}
	return b.deletePost.Select(postID)
}

func (b *base) ConfirmDelete(ctx context.Context) error {
	return b.deletePost.Confirm(ctx)
}

func (b *base) CancelDelete() {
	b.deletePost.Cancel()
}

func (b *base) createPost(ctx context.Context, body string) (*models.Post, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	return b.exec.CreatePost(ctx, models.PostDraft{Body: body})
}

func (b *base) postItems() []PostItem {
	list := b.posts.List()
	out := make([]PostItem, 0, len(list))
	for _, p := range list {
		out = append(out, b.postItem(p))
	}
	return out
}

func (b *base) postItem(p models.Post) PostItem {
	return PostItem{
		Post:          p,
		IsOwnPost:     b.identity.Owns(p.Author),
		LikePending:   b.posts.Held(p.ID, cache.LockLike),
		DeletePending: b.posts.Held(p.ID, cache.LockDelete),
	}
}

func (b *base) replyItems(c *cache.Cache[models.Reply]) []ReplyItem {
	list := c.List()
	out := make([]ReplyItem, 0, len(list))
	for _, r := range list {
		out = append(out, ReplyItem{Reply: r, IsOwnReply: b.identity.Owns(r.Author)})
	}
	return out
}
