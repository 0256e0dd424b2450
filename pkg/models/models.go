package models

import "time"

// Domain models matching the database schema in db/migrations/0001_init.sql and the
// JSON bodies of the /v1 API.

type Role string

const (
	RoleStudent Role = "student"
	RoleAlumni  Role = "alumni"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAlumni
}

type Author struct {
	ID             string `json:"id" db:"id"`
	FirstName      string `json:"firstName" db:"first_name"`
	LastName       string `json:"lastName" db:"last_name"`
	Role           Role   `json:"role" db:"role"`
	ProfilePicture string `json:"profilePicture,omitempty" db:"profile_picture"`
}

type Post struct {
	ID                   string    `json:"id" db:"id"`
	Author               Author    `json:"author"`
	Body                 string    `json:"body" db:"body"`
	CreatedAt            time.Time `json:"createdAt" db:"created_at"`
	LikeCount            int       `json:"likeCount" db:"like_count"`
	IsLikedByCurrentUser bool      `json:"isLikedByCurrentUser"`
	ReplyCount           int       `json:"replyCount" db:"reply_count"`
}

func (p Post) EntityID() string { return p.ID }

type Reply struct {
	ID        string    `json:"id" db:"id"`
	PostID    string    `json:"postId" db:"post_id"`
	Author    Author    `json:"author"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

func (r Reply) EntityID() string { return r.ID }

// LikeDelta is a shallow patch that moves IsLikedByCurrentUser to liked and LikeCount by delta in one step.
func LikeDelta(liked bool, delta int) func(*Post) {
	return func(p *Post) {
		p.IsLikedByCurrentUser = liked
		p.LikeCount += delta
	}
}

// ReplyDelta shifts ReplyCount by delta, never below zero.
func ReplyDelta(delta int) func(*Post) {
	return func(p *Post) {
		p.ReplyCount += delta
		if p.ReplyCount < 0 {
			p.ReplyCount = 0
		}
	}
}

type PostDraft struct {
	Body string `json:"body"`
}

type ReplyDraft struct {
	Body string `json:"body"`
}

type Experience struct {
	Company  string `json:"company"`
	Position string `json:"position"`
	From     string `json:"from"`
	To       string `json:"to"`
}

type Skill struct {
	Name string `json:"name"`
}

// UserProfile is the server copy of a user. Email, Department, Campus, Batch and
// GraduationYear are assigned by the server and never sent back on update.
type UserProfile struct {
	ID             string `json:"id" db:"id"`
	Role           Role   `json:"role" db:"role"`
	Email          string `json:"email" db:"email"`
	Department     string `json:"department" db:"department"`
	Campus         string `json:"campus" db:"campus"`
	Batch          string `json:"batch,omitempty" db:"batch"`
	GraduationYear string `json:"graduationYear,omitempty" db:"graduation_year"`

	FirstName      string `json:"firstName" db:"first_name"`
	LastName       string `json:"lastName" db:"last_name"`
	Phone          string `json:"phone,omitempty" db:"phone"`
	ProfilePicture string `json:"profilePicture,omitempty" db:"profile_picture"`

	CurrentCompany      string       `json:"currentCompany,omitempty" db:"current_company"`
	CurrentPosition     string       `json:"currentPosition,omitempty" db:"current_position"`
	CurrentCity         string       `json:"currentCity,omitempty" db:"current_city"`
	CurrentCountry      string       `json:"currentCountry,omitempty" db:"current_country"`
	LinkedIn            string       `json:"linkedin,omitempty" db:"linkedin"`
	PreviousExperiences []Experience `json:"previousExperiences,omitempty"`
	Skills              []Skill      `json:"skills,omitempty"`
}

// Author returns the display fields of u as shown on posts and replies.
func (u UserProfile) Author() Author {
	return Author{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Role: u.Role, ProfilePicture: u.ProfilePicture}
}

// ProfileUpdate carries the mutable subset of a UserProfile.
type ProfileUpdate struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Phone          string `json:"phone"`
	ProfilePicture string `json:"profilePicture"`

	CurrentCompany      string       `json:"currentCompany,omitempty"`
	CurrentPosition     string       `json:"currentPosition,omitempty"`
	CurrentCity         string       `json:"currentCity,omitempty"`
	CurrentCountry      string       `json:"currentCountry,omitempty"`
	LinkedIn            string       `json:"linkedin,omitempty"`
	PreviousExperiences []Experience `json:"previousExperiences"`
	Skills              []Skill      `json:"skills"`
}

// Account is the credential row used by sign-in on the reference backend.
type Account struct {
	UserID       string `json:"user_id" db:"user_id"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
}
