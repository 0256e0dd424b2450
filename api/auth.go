package api

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/garnizeh/campusfeed/internal/session"
	"github.com/garnizeh/campusfeed/pkg/models"
	"github.com/garnizeh/campusfeed/pkg/repository"
)

type AuthHandler struct {
	accountRepo   repository.AccountRepo
	userRepo      repository.UserRepo
	jwtSecret     string
	tokenDuration time.Duration
}

// NewAuthHandler creates a new AuthHandler with required dependencies.
func NewAuthHandler(ar repository.AccountRepo, ur repository.UserRepo, jwtSecret string, tokenDuration time.Duration) *AuthHandler {
	return &AuthHandler{accountRepo: ar, userRepo: ur, jwtSecret: jwtSecret, tokenDuration: tokenDuration}
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string              `json:"token"`
	User  *models.UserProfile `json:"user"`
}

// Signin checks the credentials and issues a token whose claims carry the session
// identity.
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing fields")
		return
	}

	ctx := r.Context()

	account, err := h.accountRepo.GetAccountByEmail(ctx, req.Email)
	if err != nil || account == nil {
		writeError(w, http.StatusUnauthorized, "Credentials not found")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Credentials not found")
		return
	}

	user, err := h.userRepo.GetUser(ctx, account.UserID)
	if err != nil || user == nil {
		logger.Error("account without user", slog.String("user_id", account.UserID), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Error loading user")
		return
	}

	id := session.Identity{
		UserID:    user.ID,
		Role:      user.Role,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	}
	tokenStr, err := session.IssueToken(id, h.jwtSecret, h.tokenDuration)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error signing token")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: tokenStr, User: user})
}

func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	// stateless JWT: the client drops the token
	writeJSON(w, http.StatusOK, map[string]string{"message": "signed out"})
}
