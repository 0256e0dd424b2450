package mutation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/garnizeh/campusfeed/internal/cache"
	"github.com/garnizeh/campusfeed/pkg/models"
)

// Remote is the subset of the request service the executor calls.
type Remote interface {
	LikePost(ctx context.Context, id string) error
	UnlikePost(ctx context.Context, id string) error
	DeletePost(ctx context.Context, id string) error
	DeleteReply(ctx context.Context, id string) error
	CreatePost(ctx context.Context, d models.PostDraft) (*models.Post, error)
	CreateReply(ctx context.Context, postID string, d models.ReplyDraft) (*models.Reply, error)
}

// Recorder receives one call per finished mutation.
type Recorder interface {
	RecordMutation(kind, outcome string, elapsed time.Duration)
}

// Outcomes passed to Recorder.
const (
	OutcomeApplied    = "applied"
	OutcomeRolledBack = "rolled_back"
	OutcomeFailed     = "failed"
	OutcomeRejected   = "rejected"
	OutcomeDropped    = "dropped"
)

// package-level logger for internal/mutation; can be replaced by callers
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger sets the default logger for executors built afterwards. Passing nil is a no-op.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// Executor runs user mutations against one view's caches.
type Executor struct {
	posts    *cache.Cache[models.Post]
	replies  *cache.Cache[models.Reply]
	remote   Remote
	policy   Policy
	logger   *slog.Logger
	recorder Recorder
}

type Option func(*Executor)

// WithReplies attaches the reply cache used by CreateReply and DeleteReply.
func WithReplies(c *cache.Cache[models.Reply]) Option {
	return func(e *Executor) { e.replies = c }
}

func WithPolicy(p Policy) Option {
	return func(e *Executor) {
		if p != nil {
			e.policy = p
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(e *Executor) { e.recorder = r }
}

func New(posts *cache.Cache[models.Post], remote Remote, opts ...Option) *Executor {
	e := &Executor{
		posts:  posts,
		remote: remote,
		policy: DefaultPolicy(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the executor's policy table.
func (e *Executor) Policy() Policy { return e.policy }

// op is one mutation as the engine sees it.
type op struct {
	kind    Kind
	id      string
	acquire func() bool
	release func()
	apply   func()
	revert  func()
	settle  func() // after an optimistic success; nil means nothing to reconcile
	remote  func(ctx context.Context) error
	closed  func() bool
}

// run executes o under the policy for its kind. The lock, if any, is held from before
// the local change until after a rollback, so no second mutation of the same kind can
// observe the intermediate state.
func (e *Executor) run(ctx context.Context, o op) error {
	start := time.Now()
	if o.acquire != nil {
		if !o.acquire() {
			e.record(o.kind, OutcomeRejected, start)
			return fmt.Errorf("%s %s: %w", o.kind, o.id, ErrConcurrentMutation)
		}
		defer o.release()
	}

	mode := e.policy.Mode(o.kind)
	// without an inverse there is nothing to roll back to
	if o.revert == nil {
		mode = Pessimistic
	}
	if mode == Optimistic {
		o.apply()
	}

	// mutations are not cancellable once issued
	err := o.remote(context.WithoutCancel(ctx))
	if err != nil {
		merr := &MutationError{Kind: o.kind, ID: o.id, Err: err}
		outcome := OutcomeFailed
		if mode == Optimistic {
			o.revert()
			merr.RolledBack = true
			outcome = OutcomeRolledBack
		}
		e.logger.Warn("mutation failed", "kind", o.kind, "id", o.id, "rolled_back", merr.RolledBack, "err", err)
		e.record(o.kind, outcome, start)
		return merr
	}

	if o.closed != nil && o.closed() {
		e.logger.Info("view closed, dropping mutation result", "kind", o.kind, "id", o.id)
		e.record(o.kind, OutcomeDropped, start)
		return nil
	}

	switch {
	case mode == Pessimistic:
		o.apply()
	case o.settle != nil:
		o.settle()
	}
	e.record(o.kind, OutcomeApplied, start)
	return nil
}

func (e *Executor) record(kind Kind, outcome string, start time.Time) {
	if e.recorder != nil {
		e.recorder.RecordMutation(string(kind), outcome, time.Since(start))
	}
}

// ToggleLike flips the like state of postID from liked. Under the default policy the
// cache shows the new state before the remote call returns and is restored exactly if
// it fails. A toggle already in flight for postID yields ErrConcurrentMutation.
//
// A reload can replace the entity while the call is in flight. Rollback and settle
// therefore only move the count when the cached like state is not already where they
// would put it, so a freshly loaded server copy is never shifted twice.
func (e *Executor) ToggleLike(ctx context.Context, postID string, liked bool) error {
	target := !liked
	delta := 1
	if !target {
		delta = -1
	}

	return e.run(ctx, op{
		kind:    KindToggleLike,
		id:      postID,
		acquire: func() bool { return e.posts.Acquire(postID, cache.LockLike) },
		release: func() { e.posts.Release(postID, cache.LockLike) },
		apply:   func() { e.posts.Patch(postID, models.LikeDelta(target, delta)) },
		revert:  func() { e.posts.Patch(postID, likeTransition(target, liked, -delta)) },
		settle:  func() { e.posts.Patch(postID, likeTransition(liked, target, delta)) },
		remote: func(ctx context.Context) error {
			if target {
				return e.remote.LikePost(ctx, postID)
			}
			return e.remote.UnlikePost(ctx, postID)
		},
		closed: e.posts.Closed,
	})
}

// likeTransition moves a post from the from like state to the to state by delta. A post
// not in the from state is left untouched.
func likeTransition(from, to bool, delta int) func(*models.Post) {
	return func(p *models.Post) {
		if p.IsLikedByCurrentUser != from {
			return
		}
		models.LikeDelta(to, delta)(p)
	}
}

// DeletePost deletes postID remotely and removes it from the cache on success. On
// failure the post stays and the error is returned; nothing is retried.
func (e *Executor) DeletePost(ctx context.Context, postID string) error {
	var (
		taken models.Post
		pos   int
		ok    bool
	)
	return e.run(ctx, op{
		kind:    KindDeletePost,
		id:      postID,
		acquire: func() bool { return e.posts.Acquire(postID, cache.LockDelete) },
		release: func() { e.posts.Release(postID, cache.LockDelete) },
		apply:   func() { taken, pos, ok = e.posts.Take(postID) },
		revert: func() {
			if ok {
				e.posts.InsertAt(pos, taken)
			}
		},
		remote: func(ctx context.Context) error { return e.remote.DeletePost(ctx, postID) },
		closed: e.posts.Closed,
	})
}

// DeleteReply deletes replyID remotely and removes it from the reply cache on success,
// decrementing the owning post's ReplyCount in this executor's post cache only. A reply
// the cache does not hold is simply not removed.
func (e *Executor) DeleteReply(ctx context.Context, replyID string) error {
	if e.replies == nil {
		return ErrNoReplyCache
	}

	var (
		taken models.Reply
		pos   int
		ok    bool
	)
	return e.run(ctx, op{
		kind:    KindDeleteReply,
		id:      replyID,
		acquire: func() bool { return e.replies.Acquire(replyID, cache.LockDelete) },
		release: func() { e.replies.Release(replyID, cache.LockDelete) },
		apply: func() {
			if taken, pos, ok = e.replies.Take(replyID); ok {
				e.posts.Patch(taken.PostID, models.ReplyDelta(-1))
			}
		},
		revert: func() {
			if ok {
				e.replies.InsertAt(pos, taken)
				e.posts.Patch(taken.PostID, models.ReplyDelta(1))
			}
		},
		remote: func(ctx context.Context) error { return e.remote.DeleteReply(ctx, replyID) },
		closed: e.replies.Closed,
	})
}

// CreateReply creates a reply under postID and appends the server copy to the reply
// cache. Updating the owning post's replyCount is left to the caller.
func (e *Executor) CreateReply(ctx context.Context, postID string, d models.ReplyDraft) (*models.Reply, error) {
	if e.replies == nil {
		return nil, ErrNoReplyCache
	}

	var created *models.Reply
	err := e.run(ctx, op{
		kind: KindCreateReply,
		id:   postID,
		apply: func() {
			if created != nil {
				e.replies.Upsert(*created)
			}
		},
		remote: func(ctx context.Context) error {
			r, err := e.remote.CreateReply(ctx, postID, d)
			if err != nil {
				return err
			}
			if r == nil {
				return fmt.Errorf("empty reply returned")
			}
			created = r
			return nil
		},
		closed: e.replies.Closed,
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CreatePost creates a post and puts the server copy at the front of the cache.
func (e *Executor) CreatePost(ctx context.Context, d models.PostDraft) (*models.Post, error) {
	var created *models.Post
	err := e.run(ctx, op{
		kind: KindCreatePost,
		apply: func() {
			if created != nil {
				e.posts.Prepend(*created)
			}
		},
		remote: func(ctx context.Context) error {
			p, err := e.remote.CreatePost(ctx, d)
			if err != nil {
				return err
			}
			if p == nil {
				return fmt.Errorf("empty post returned")
			}
			created = p
			return nil
		},
		closed: e.posts.Closed,
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
