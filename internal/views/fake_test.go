package views_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/garnizeh/campusfeed/internal/session"
	"github.com/garnizeh/campusfeed/internal/views"
	"github.com/garnizeh/campusfeed/pkg/models"
)

var quiet = views.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

var (
	me     = session.Identity{UserID: "u1", Role: models.RoleAlumni, FirstName: "Ada"}
	pupil  = session.Identity{UserID: "u2", Role: models.RoleStudent, FirstName: "Sam"}
	ada    = models.Author{ID: "u1", FirstName: "Ada", Role: models.RoleAlumni}
	sam    = models.Author{ID: "u2", FirstName: "Sam", Role: models.RoleStudent}
	errNet = errors.New("network down")
)

// fakeService serves canned data. Any method can be made to fail or to block until
// released, and calls are counted by method name.
type fakeService struct {
	mu          sync.Mutex
	posts       []models.Post
	replies     map[string][]models.Reply
	profiles    map[string]models.UserProfile
	userPosts   map[string][]models.Post
	userReplies map[string][]models.Reply
	created     *models.Post
	reply       *models.Reply

	errs    map[string]error
	gates   map[string]chan struct{}
	started map[string]chan struct{}
	calls   map[string]int
}

func newFake() *fakeService {
	return &fakeService{
		posts: []models.Post{
			{ID: "p1", Author: sam, Body: "how do I apply?", LikeCount: 3, ReplyCount: 1},
			{ID: "p2", Author: ada, Body: "hiring interns", LikeCount: 5, IsLikedByCurrentUser: true},
		},
		replies: map[string][]models.Reply{
			"p1": {{ID: "r1", PostID: "p1", Author: ada, Body: "via the portal"}},
		},
		profiles: map[string]models.UserProfile{
			"u1": {ID: "u1", Role: models.RoleAlumni, FirstName: "Ada"},
			"u2": {ID: "u2", Role: models.RoleStudent, FirstName: "Sam"},
		},
		userPosts: map[string][]models.Post{
			"u1": {{ID: "p2", Author: ada, Body: "hiring interns", LikeCount: 5, IsLikedByCurrentUser: true}},
			"u2": {{ID: "p1", Author: sam, Body: "how do I apply?", LikeCount: 3, ReplyCount: 1}},
		},
		userReplies: map[string][]models.Reply{
			"u1": {{ID: "r1", PostID: "p1", Author: ada, Body: "via the portal"}},
		},
		errs:    map[string]error{},
		gates:   map[string]chan struct{}{},
		started: map[string]chan struct{}{},
		calls:   map[string]int{},
	}
}

// block makes the named method wait until the returned release func is called. The
// returned channel receives once per call as it starts waiting.
func (f *fakeService) block(name string) (<-chan struct{}, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	started := make(chan struct{}, 16)
	f.gates[name] = gate
	f.started[name] = started
	var once sync.Once
	return started, func() { once.Do(func() { close(gate) }) }
}

func (f *fakeService) fail(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[name] = err
}

func (f *fakeService) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeService) enter(ctx context.Context, name string) error {
	f.mu.Lock()
	f.calls[name]++
	gate, started, err := f.gates[name], f.started[name], f.errs[name]
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeService) FetchPosts(ctx context.Context) ([]models.Post, error) {
	if err := f.enter(ctx, "FetchPosts"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Post(nil), f.posts...), nil
}

func (f *fakeService) FetchPost(ctx context.Context, id string) (*models.Post, error) {
	if err := f.enter(ctx, "FetchPost"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.posts {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeService) FetchReplies(ctx context.Context, postID string) ([]models.Reply, error) {
	if err := f.enter(ctx, "FetchReplies"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Reply(nil), f.replies[postID]...), nil
}

func (f *fakeService) FetchUserProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	if err := f.enter(ctx, "FetchUserProfile"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, errors.New("not found")
	}
	return &p, nil
}

func (f *fakeService) FetchUserPosts(ctx context.Context, userID string) ([]models.Post, error) {
	if err := f.enter(ctx, "FetchUserPosts"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Post(nil), f.userPosts[userID]...), nil
}

func (f *fakeService) FetchUserReplies(ctx context.Context, userID string) ([]models.Reply, error) {
	if err := f.enter(ctx, "FetchUserReplies"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Reply(nil), f.userReplies[userID]...), nil
}

func (f *fakeService) LikePost(ctx context.Context, id string) error {
	return f.enter(ctx, "LikePost")
}

func (f *fakeService) UnlikePost(ctx context.Context, id string) error {
	return f.enter(ctx, "UnlikePost")
}

func (f *fakeService) DeletePost(ctx context.Context, id string) error {
	return f.enter(ctx, "DeletePost")
}

func (f *fakeService) DeleteReply(ctx context.Context, id string) error {
	return f.enter(ctx, "DeleteReply")
}

func (f *fakeService) CreatePost(ctx context.Context, d models.PostDraft) (*models.Post, error) {
	if err := f.enter(ctx, "CreatePost"); err != nil {
		return nil, err
	}
	if f.created != nil {
		return f.created, nil
	}
	return &models.Post{ID: "new", Author: ada, Body: d.Body, CreatedAt: time.Now()}, nil
}

func (f *fakeService) CreateReply(ctx context.Context, postID string, d models.ReplyDraft) (*models.Reply, error) {
	if err := f.enter(ctx, "CreateReply"); err != nil {
		return nil, err
	}
	if f.reply != nil {
		return f.reply, nil
	}
	return &models.Reply{ID: "r-new", PostID: postID, Author: ada, Body: d.Body}, nil
}

var _ views.Service = (*fakeService)(nil)
