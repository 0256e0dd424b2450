package views

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/garnizeh/campusfeed/internal/session"
	"github.com/garnizeh/campusfeed/pkg/models"
)

// ProfileFeed is a user's public profile with the posts they authored. The profile is
// the page; the posts list is a section that can fail on its own.
type ProfileFeed struct {
	*base
	userID       string
	postsSection section

	mu      sync.RWMutex
	profile *models.UserProfile
}

type ProfileSnapshot struct {
	Status       Status
	Profile      *models.UserProfile
	IsOwnProfile bool
	Posts        []PostItem
	PostsStatus  Status
	DeleteDialog Dialog
}

func NewProfileFeed(svc Service, id session.Identity, userID string, opts ...Option) *ProfileFeed {
	return &ProfileFeed{
		base:   newBase("profile", svc, id, buildOptions(opts), nil),
		userID: userID,
	}
}

func (f *ProfileFeed) Mount(ctx context.Context) error { return f.load(ctx, f.fetch) }

func (f *ProfileFeed) Refresh(ctx context.Context) error { return f.load(ctx, f.fetch) }

func (f *ProfileFeed) fetch(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	var (
		profile  *models.UserProfile
		posts    []models.Post
		postsErr error
	)
	g.Go(func() error {
		p, err := f.svc.FetchUserProfile(gctx, f.userID)
		if err != nil {
			return f.fetchErr("fetch profile", err)
		}
		profile = p
		return nil
	})

	f.postsSection.begin()
	g.Go(func() error {
		ps, err := f.svc.FetchUserPosts(gctx, f.userID)
		if err != nil {
			postsErr = f.fetchErr("fetch posts", err)
			return nil
		}
		posts = ps
		return nil
	})

	if err := g.Wait(); err != nil {
		f.postsSection.abort()
		return err
	}
	if f.Closed() {
		return nil
	}
	f.mu.Lock()
	f.profile = profile
	f.mu.Unlock()
	if postsErr != nil {
		f.postsSection.finish(postsErr)
		f.logger.Warn("profile posts load failed", "user_id", f.userID, "err", postsErr)
		return nil
	}
	f.posts.Load(posts)
	f.postsSection.finish(nil)
	return nil
}

// IsOwnProfile reports whether the profile shown belongs to the current user.
func (f *ProfileFeed) IsOwnProfile() bool {
	return f.identity.UserID != "" && f.identity.UserID == f.userID
}

func (f *ProfileFeed) Snapshot() ProfileSnapshot {
	s := ProfileSnapshot{
		Status:       f.main.status(),
		IsOwnProfile: f.IsOwnProfile(),
		Posts:        f.postItems(),
		PostsStatus:  f.postsSection.status(),
		DeleteDialog: dialogOf(f.deletePost),
	}
	f.mu.RLock()
	if f.profile != nil {
		p := *f.profile
		s.Profile = &p
	}
	f.mu.RUnlock()
	return s
}
