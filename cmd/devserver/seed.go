package main

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/garnizeh/campusfeed/pkg/models"
	"github.com/garnizeh/campusfeed/pkg/repository"
)

// seedStore is what seeding writes through.
type seedStore interface {
	repository.UserRepo
	repository.AccountRepo
	repository.PostRepo
	repository.ReplyRepo
	repository.LikeRepo
}

type demoUser struct {
	profile  models.UserProfile
	password string
	post     string
}

var demoUsers = []demoUser{
	{
		profile: models.UserProfile{
			Role: models.RoleAlumni, Email: "ada@campus.test", FirstName: "Ada", LastName: "Lovelace",
			Department: "Mathematics", Campus: "North", GraduationYear: "2019",
			CurrentCompany: "Analytical Engines", CurrentPosition: "Engineer",
			Skills: []models.Skill{{Name: "Go"}},
		},
		password: "ada-demo",
		post:     "Happy to review résumés for anyone applying this term.",
	},
	{
		profile: models.UserProfile{
			Role: models.RoleStudent, Email: "sam@campus.test", FirstName: "Sam", LastName: "Okafor",
			Department: "Computer Science", Campus: "North", Batch: "2026",
		},
		password: "sam-demo",
		post:     "Anyone up for a study group before finals?",
	},
}

// seed creates the demo users with one post each, a reply and a like. Users whose
// account already exists are skipped, so re-running is harmless. It returns how many
// users were created.
func seed(ctx context.Context, s seedStore, cost int) (int, error) {
	var ids []string
	var posts []string
	for _, d := range demoUsers {
		existing, err := s.GetAccountByEmail(ctx, d.profile.Email)
		if err != nil {
			return 0, fmt.Errorf("lookup %s: %w", d.profile.Email, err)
		}
		if existing != nil {
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(d.password), cost)
		if err != nil {
			return 0, fmt.Errorf("hash password: %w", err)
		}
		u := d.profile
		id, err := s.CreateUser(ctx, &u)
		if err != nil {
			return 0, fmt.Errorf("create user %s: %w", u.Email, err)
		}
		if err := s.CreateAccount(ctx, &models.Account{UserID: id, Email: u.Email, PasswordHash: string(hash)}); err != nil {
			return 0, fmt.Errorf("create account %s: %w", u.Email, err)
		}
		p, err := s.CreatePost(ctx, id, d.post)
		if err != nil {
			return 0, fmt.Errorf("create post: %w", err)
		}
		ids = append(ids, id)
		posts = append(posts, p.ID)
	}

	// each new user replies to and likes the previous one's post
	for i := 1; i < len(ids); i++ {
		if _, err := s.CreateReply(ctx, posts[i-1], ids[i], "Count me in."); err != nil {
			return 0, fmt.Errorf("create reply: %w", err)
		}
		if err := s.Like(ctx, posts[i-1], ids[i]); err != nil {
			return 0, fmt.Errorf("like: %w", err)
		}
	}
	return len(ids), nil
}
