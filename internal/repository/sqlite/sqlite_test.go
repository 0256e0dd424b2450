package sqlite_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	dbfs "github.com/garnizeh/campusfeed/db"
	dbpkg "github.com/garnizeh/campusfeed/internal/db"
	sqlite "github.com/garnizeh/campusfeed/internal/repository/sqlite"
	"github.com/garnizeh/campusfeed/pkg/models"
	"github.com/garnizeh/campusfeed/pkg/repository"
)

func setupRepo(t *testing.T) (*sqlite.SQLiteRepo, func()) {
	t.Helper()
	ctx := context.Background()
	d, err := dbpkg.New(ctx, "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbpkg.Migrate(ctx, d, dbfs.Migrations); err != nil {
		d.Close()
		t.Fatalf("failed to migrate: %v", err)
	}

	repo := sqlite.New(d, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return repo, func() { d.Close() }
}

func seedUser(t *testing.T, repo *sqlite.SQLiteRepo, role models.Role, first, email string) string {
	t.Helper()
	id, err := repo.CreateUser(context.Background(), &models.UserProfile{
		Role: role, Email: email, FirstName: first, LastName: "Test", Department: "CS", Campus: "North",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return id
}

func TestUserCRUD(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := repo.CreateUser(ctx, nil); err == nil {
		t.Fatalf("expected error when creating nil user")
	}
	if _, err := repo.CreateUser(ctx, &models.UserProfile{Role: "faculty", Email: "x@x", FirstName: "X", LastName: "Y"}); err == nil {
		t.Fatalf("expected error for unknown role")
	}

	got, err := repo.GetUser(ctx, "missing")
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil for missing user, got %#v, %v", got, err)
	}

	id := seedUser(t, repo, models.RoleAlumni, "Ada", "ada@example.com")
	got, err = repo.GetUser(ctx, id)
	if err != nil || got == nil {
		t.Fatalf("GetUser: %#v, %v", got, err)
	}
	if got.Email != "ada@example.com" || got.Role != models.RoleAlumni || got.Campus != "North" {
		t.Fatalf("unexpected user: %#v", got)
	}
	if got.PreviousExperiences == nil || got.Skills == nil {
		t.Fatalf("lists should decode as empty, not nil")
	}

	upd := models.ProfileUpdate{
		FirstName:           "Ada",
		LastName:            "Lovelace",
		CurrentCompany:      "Analytical",
		LinkedIn:            "linkedin.com/in/ada",
		PreviousExperiences: []models.Experience{{Company: "A", Position: "Eng", From: "2019", To: "2021"}},
		Skills:              []models.Skill{{Name: "Go"}, {Name: "SQL"}},
	}
	if err := repo.UpdateUser(ctx, id, upd); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	got, _ = repo.GetUser(ctx, id)
	if got.LastName != "Lovelace" || got.CurrentCompany != "Analytical" || len(got.Skills) != 2 || got.PreviousExperiences[0].Company != "A" {
		t.Fatalf("update not persisted: %#v", got)
	}
	if got.Email != "ada@example.com" || got.Department != "CS" {
		t.Fatalf("server-assigned fields must not change: %#v", got)
	}

	if err := repo.UpdateUser(ctx, "missing", upd); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAccounts(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	if err := repo.CreateAccount(ctx, nil); err == nil {
		t.Fatalf("expected error for nil account")
	}
	id := seedUser(t, repo, models.RoleStudent, "Sam", "sam@example.com")
	if err := repo.CreateAccount(ctx, &models.Account{UserID: id, Email: "Sam@Example.com", PasswordHash: "hash"}); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	a, err := repo.GetAccountByEmail(ctx, "SAM@example.com")
	if err != nil || a == nil || a.UserID != id || a.PasswordHash != "hash" {
		t.Fatalf("GetAccountByEmail: %#v, %v", a, err)
	}
	a, err = repo.GetAccountByEmail(ctx, "nobody@example.com")
	if err != nil || a != nil {
		t.Fatalf("expected nil, nil for unknown email, got %#v, %v", a, err)
	}
}

func TestPostsRepliesLikes(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	ada := seedUser(t, repo, models.RoleAlumni, "Ada", "ada@example.com")
	sam := seedUser(t, repo, models.RoleStudent, "Sam", "sam@example.com")

	if _, err := repo.CreatePost(ctx, sam, ""); err == nil {
		t.Fatalf("expected error for empty body")
	}
	p1, err := repo.CreatePost(ctx, sam, "how do I apply?")
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	p2, err := repo.CreatePost(ctx, ada, "hiring interns")
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if p1.Author.ID != sam || p1.Author.FirstName != "Sam" || p1.LikeCount != 0 || p1.CreatedAt.IsZero() {
		t.Fatalf("unexpected created post: %#v", p1)
	}

	list, err := repo.ListPosts(ctx, ada, 0, 0)
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(list) != 2 || list[0].ID != p2.ID {
		t.Fatalf("expected newest first, got %#v", list)
	}

	// likes are idempotent and viewer-relative
	for range 2 {
		if err := repo.Like(ctx, p1.ID, ada); err != nil {
			t.Fatalf("Like: %v", err)
		}
	}
	if err := repo.Like(ctx, "missing", ada); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound liking a missing post, got %v", err)
	}
	got, _ := repo.GetPost(ctx, p1.ID, ada)
	if got.LikeCount != 1 || !got.IsLikedByCurrentUser {
		t.Fatalf("expected one like by ada, got %#v", got)
	}
	got, _ = repo.GetPost(ctx, p1.ID, sam)
	if got.LikeCount != 1 || got.IsLikedByCurrentUser {
		t.Fatalf("sam has not liked p1: %#v", got)
	}
	if err := repo.Unlike(ctx, p1.ID, ada); err != nil {
		t.Fatalf("Unlike: %v", err)
	}
	if err := repo.Unlike(ctx, p1.ID, ada); err != nil {
		t.Fatalf("second Unlike should be a no-op: %v", err)
	}
	if got, _ = repo.GetPost(ctx, p1.ID, ada); got.LikeCount != 0 || got.IsLikedByCurrentUser {
		t.Fatalf("expected like removed: %#v", got)
	}

	// replies
	r1, err := repo.CreateReply(ctx, p1.ID, ada, "via the portal")
	if err != nil {
		t.Fatalf("CreateReply: %v", err)
	}
	if _, err := repo.CreateReply(ctx, "missing", ada, "x"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound replying to a missing post, got %v", err)
	}
	r2, _ := repo.CreateReply(ctx, p1.ID, sam, "thanks")

	replies, err := repo.ListReplies(ctx, p1.ID)
	if err != nil || len(replies) != 2 || replies[0].ID != r1.ID || replies[1].ID != r2.ID {
		t.Fatalf("expected oldest first, got %#v, %v", replies, err)
	}
	byAda, _ := repo.ListRepliesByAuthor(ctx, ada)
	if len(byAda) != 1 || byAda[0].PostID != p1.ID || byAda[0].Author.FirstName != "Ada" {
		t.Fatalf("unexpected replies by ada: %#v", byAda)
	}
	if got, _ = repo.GetPost(ctx, p1.ID, ada); got.ReplyCount != 2 {
		t.Fatalf("expected replyCount 2, got %d", got.ReplyCount)
	}

	if err := repo.DeleteReply(ctx, r2.ID); err != nil {
		t.Fatalf("DeleteReply: %v", err)
	}
	if err := repo.DeleteReply(ctx, r2.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	mine, _ := repo.ListPostsByAuthor(ctx, sam, sam)
	if len(mine) != 1 || mine[0].ID != p1.ID || mine[0].ReplyCount != 1 {
		t.Fatalf("unexpected posts by sam: %#v", mine)
	}

	// deleting a post takes its replies and likes with it
	_ = repo.Like(ctx, p1.ID, sam)
	if err := repo.DeletePost(ctx, p1.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if got, _ := repo.GetPost(ctx, p1.ID, sam); got != nil {
		t.Fatalf("expected post gone, got %#v", got)
	}
	if rp, _ := repo.GetReply(ctx, r1.ID); rp != nil {
		t.Fatalf("expected replies removed with the post")
	}
	if err := repo.DeletePost(ctx, p1.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}
