package views

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/garnizeh/campusfeed/internal/cache"
	"github.com/garnizeh/campusfeed/internal/session"
	"github.com/garnizeh/campusfeed/pkg/models"
)

// Dashboard shows the current user's own posts. Alumni also get a sidebar with their
// recent replies, loaded separately so a sidebar failure does not fail the page.
type Dashboard struct {
	*base
	replies        *cache.Cache[models.Reply]
	repliesSection section
}

type DashboardSnapshot struct {
	Status        Status
	Posts         []PostItem
	ShowReplies   bool
	Replies       []ReplyItem
	RepliesStatus Status
	DeleteDialog  Dialog
}

func NewDashboard(svc Service, id session.Identity, opts ...Option) *Dashboard {
	return &Dashboard{
		base:    newBase("dashboard", svc, id, buildOptions(opts), nil),
		replies: cache.New[models.Reply](),
	}
}

func (d *Dashboard) Mount(ctx context.Context) error { return d.load(ctx, d.fetch) }

// Refresh re-fetches everything the dashboard shows.
func (d *Dashboard) Refresh(ctx context.Context) error { return d.load(ctx, d.fetch) }

func (d *Dashboard) fetch(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	var (
		posts      []models.Post
		replies    []models.Reply
		repliesErr error
	)
	g.Go(func() error {
		ps, err := d.svc.FetchUserPosts(gctx, d.identity.UserID)
		if err != nil {
			return d.fetchErr("fetch posts", err)
		}
		posts = ps
		return nil
	})

	alumni := d.identity.IsAlumni()
	if alumni {
		d.repliesSection.begin()
		g.Go(func() error {
			rs, err := d.svc.FetchUserReplies(gctx, d.identity.UserID)
			if err != nil {
				repliesErr = d.fetchErr("fetch replies", err)
				return nil
			}
			replies = rs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if alumni {
			d.repliesSection.abort()
		}
		return err
	}
	d.posts.Load(posts)
	if !alumni {
		return nil
	}
	if repliesErr != nil {
		d.repliesSection.finish(repliesErr)
		d.logger.Warn("sidebar load failed", "err", repliesErr)
		return nil
	}
	d.replies.Load(replies)
	d.repliesSection.finish(nil)
	return nil
}

// CreatePost publishes a new question; it appears at the top of the dashboard.
func (d *Dashboard) CreatePost(ctx context.Context, body string) (*models.Post, error) {
	return d.createPost(ctx, body)
}

func (d *Dashboard) Close() {
	d.base.Close()
	d.replies.Close()
}

func (d *Dashboard) Snapshot() DashboardSnapshot {
	s := DashboardSnapshot{
		Status:       d.main.status(),
		Posts:        d.postItems(),
		ShowReplies:  d.identity.IsAlumni(),
		DeleteDialog: dialogOf(d.deletePost),
	}
	if s.ShowReplies {
		s.Replies = d.replyItems(d.replies)
		s.RepliesStatus = d.repliesSection.status()
	}
	return s
}
