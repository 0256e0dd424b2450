// Package session carries the signed-in user's identity. Views receive an Identity
// explicitly; nothing here is global.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/garnizeh/campusfeed/pkg/models"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingClaim = errors.New("token is missing a required claim")
)

// Identity is the read-only view of the current user that views and forms consult for
// ownership and role checks.
type Identity struct {
	UserID    string      `json:"userId"`
	Role      models.Role `json:"role"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
}

func (i Identity) IsAlumni() bool { return i.Role == models.RoleAlumni }

// Owns reports whether a is the current user.
func (i Identity) Owns(a models.Author) bool {
	return i.UserID != "" && a.ID == i.UserID
}

func (i Identity) DisplayName() string {
	if i.LastName == "" {
		return i.FirstName
	}
	return i.FirstName + " " + i.LastName
}

// Claims is the JWT payload issued by the sign-in endpoint.
type Claims struct {
	Role      models.Role `json:"role"`
	FirstName string      `json:"first_name,omitempty"`
	LastName  string      `json:"last_name,omitempty"`
	Email     string      `json:"email"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for id valid for ttl.
func IssueToken(id Identity, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:      id.Role,
		FirstName: id.FirstName,
		LastName:  id.LastName,
		Email:     id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// FromToken verifies an HS256 token and returns the identity it carries.
func FromToken(tokenString, secret string) (*Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: role", ErrMissingClaim)
	}

	return &Identity{
		UserID:    claims.Subject,
		Role:      claims.Role,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Email:     claims.Email,
	}, nil
}

// Session holds the signed-in identity and its bearer token for a client process.
type Session struct {
	mu    sync.RWMutex
	id    Identity
	token string
}

func New(id Identity, token string) *Session {
	return &Session{id: id, token: token}
}

// Identity returns a copy of the current identity.
func (s *Session) Identity() Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Refresh copies the display fields of a saved profile into the identity. Profiles for
// another user are ignored.
func (s *Session) Refresh(p models.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID != s.id.UserID {
		return
	}
	s.id.FirstName = p.FirstName
	s.id.LastName = p.LastName
}
