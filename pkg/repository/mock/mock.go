package mock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/garnizeh/campusfeed/pkg/models"
	"github.com/garnizeh/campusfeed/pkg/repository"
)

// Test helpers and mocks. All repos share one in-memory store so counts and
// viewer-relative flags behave like the sqlite implementation.
type Mocks struct {
	Users    *mockUserRepo
	Accounts *mockAccountRepo
	Posts    *mockPostRepo
	Replies  *mockReplyRepo
	Likes    *mockLikeRepo
}

type store struct {
	mu       sync.Mutex
	seq      int
	users    map[string]models.UserProfile
	accounts map[string]models.Account
	posts    []models.Post
	replies  []models.Reply
	likes    map[string]map[string]bool
}

func (s *store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s%d", prefix, s.seq)
}

func NewMocks() *Mocks {
	s := &store{
		users:    map[string]models.UserProfile{},
		accounts: map[string]models.Account{},
		likes:    map[string]map[string]bool{},
	}
	return &Mocks{
		Users:    &mockUserRepo{s: s},
		Accounts: &mockAccountRepo{s: s},
		Posts:    &mockPostRepo{s: s},
		Replies:  &mockReplyRepo{s: s},
		Likes:    &mockLikeRepo{s: s},
	}
}

var _ repository.UserRepo = (*mockUserRepo)(nil)
var _ repository.AccountRepo = (*mockAccountRepo)(nil)
var _ repository.PostRepo = (*mockPostRepo)(nil)
var _ repository.ReplyRepo = (*mockReplyRepo)(nil)
var _ repository.LikeRepo = (*mockLikeRepo)(nil)

type mockUserRepo struct {
	s         *store
	CreateErr error
	GetErr    error
	UpdateErr error
}

func (m *mockUserRepo) CreateUser(ctx context.Context, u *models.UserProfile) (string, error) {
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *u
	if cp.ID == "" {
		cp.ID = m.s.nextID("u")
	}
	m.s.users[cp.ID] = cp
	return cp.ID, nil
}

func (m *mockUserRepo) GetUser(ctx context.Context, id string) (*models.UserProfile, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *mockUserRepo) UpdateUser(ctx context.Context, id string, upd models.ProfileUpdate) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.FirstName, u.LastName, u.Phone, u.ProfilePicture = upd.FirstName, upd.LastName, upd.Phone, upd.ProfilePicture
	u.CurrentCompany, u.CurrentPosition = upd.CurrentCompany, upd.CurrentPosition
	u.CurrentCity, u.CurrentCountry, u.LinkedIn = upd.CurrentCity, upd.CurrentCountry, upd.LinkedIn
	u.PreviousExperiences, u.Skills = upd.PreviousExperiences, upd.Skills
	m.s.users[id] = u
	return nil
}

type mockAccountRepo struct {
	s         *store
	CreateErr error
}

func (m *mockAccountRepo) CreateAccount(ctx context.Context, a *models.Account) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *a
	cp.Email = strings.ToLower(cp.Email)
	m.s.accounts[cp.Email] = cp
	return nil
}

func (m *mockAccountRepo) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	a, ok := m.s.accounts[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

type mockPostRepo struct {
	s         *store
	CreateErr error
	ListErr   error
	DeleteErr error
}

// view fills counts and the viewer's like; caller holds the lock.
func (s *store) view(p models.Post, viewerID string) models.Post {
	p.LikeCount = len(s.likes[p.ID])
	p.IsLikedByCurrentUser = s.likes[p.ID][viewerID]
	p.ReplyCount = 0
	for _, r := range s.replies {
		if r.PostID == p.ID {
			p.ReplyCount++
		}
	}
	return p
}

func (s *store) author(id string) models.Author {
	if u, ok := s.users[id]; ok {
		return u.Author()
	}
	return models.Author{ID: id}
}

func (s *store) postIndex(id string) int {
	for i, p := range s.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (m *mockPostRepo) CreatePost(ctx context.Context, authorID, body string) (*models.Post, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p := models.Post{ID: m.s.nextID("p"), Author: m.s.author(authorID), Body: body, CreatedAt: time.Now().UTC()}
	m.s.posts = append(m.s.posts, p)
	out := m.s.view(p, authorID)
	return &out, nil
}

func (m *mockPostRepo) GetPost(ctx context.Context, id, viewerID string) (*models.Post, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	i := m.s.postIndex(id)
	if i < 0 {
		return nil, nil
	}
	out := m.s.view(m.s.posts[i], viewerID)
	return &out, nil
}

func (m *mockPostRepo) ListPosts(ctx context.Context, viewerID string, limit, offset int) ([]models.Post, error) {
	return m.list(viewerID, func(models.Post) bool { return true })
}

func (m *mockPostRepo) ListPostsByAuthor(ctx context.Context, authorID, viewerID string) ([]models.Post, error) {
	return m.list(viewerID, func(p models.Post) bool { return p.Author.ID == authorID })
}

func (m *mockPostRepo) list(viewerID string, keep func(models.Post) bool) ([]models.Post, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := []models.Post{}
	// newest first
	for i := len(m.s.posts) - 1; i >= 0; i-- {
		if keep(m.s.posts[i]) {
			out = append(out, m.s.view(m.s.posts[i], viewerID))
		}
	}
	return out, nil
}

func (m *mockPostRepo) DeletePost(ctx context.Context, id string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	i := m.s.postIndex(id)
	if i < 0 {
		return repository.ErrNotFound
	}
	m.s.posts = append(m.s.posts[:i], m.s.posts[i+1:]...)
	delete(m.s.likes, id)
	kept := m.s.replies[:0]
	for _, r := range m.s.replies {
		if r.PostID != id {
			kept = append(kept, r)
		}
	}
	m.s.replies = kept
	return nil
}

type mockReplyRepo struct {
	s         *store
	CreateErr error
}

func (m *mockReplyRepo) CreateReply(ctx context.Context, postID, authorID, body string) (*models.Reply, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.postIndex(postID) < 0 {
		return nil, repository.ErrNotFound
	}
	r := models.Reply{ID: m.s.nextID("r"), PostID: postID, Author: m.s.author(authorID), Body: body, CreatedAt: time.Now().UTC()}
	m.s.replies = append(m.s.replies, r)
	return &r, nil
}

func (m *mockReplyRepo) GetReply(ctx context.Context, id string) (*models.Reply, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, r := range m.s.replies {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, nil
}

func (m *mockReplyRepo) ListReplies(ctx context.Context, postID string) ([]models.Reply, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := []models.Reply{}
	for _, r := range m.s.replies {
		if r.PostID == postID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockReplyRepo) ListRepliesByAuthor(ctx context.Context, authorID string) ([]models.Reply, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := []models.Reply{}
	for _, r := range m.s.replies {
		if r.Author.ID == authorID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockReplyRepo) DeleteReply(ctx context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for i, r := range m.s.replies {
		if r.ID == id {
			m.s.replies = append(m.s.replies[:i], m.s.replies[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type mockLikeRepo struct {
	s   *store
	Err error
}

func (m *mockLikeRepo) Like(ctx context.Context, postID, userID string) error {
	return m.set(postID, userID, true)
}

func (m *mockLikeRepo) Unlike(ctx context.Context, postID, userID string) error {
	return m.set(postID, userID, false)
}

func (m *mockLikeRepo) set(postID, userID string, liked bool) error {
	if m.Err != nil {
		return m.Err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.postIndex(postID) < 0 {
		return repository.ErrNotFound
	}
	if !liked {
		delete(m.s.likes[postID], userID)
		return nil
	}
	if m.s.likes[postID] == nil {
		m.s.likes[postID] = map[string]bool{}
	}
	m.s.likes[postID][userID] = true
	return nil
}
