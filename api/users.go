package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/garnizeh/campusfeed/internal/validation"
	"github.com/garnizeh/campusfeed/pkg/models"
	"github.com/garnizeh/campusfeed/pkg/repository"
)

// ProfileRules validates a profile update for a role.
type ProfileRules interface {
	Validate(ctx context.Context, role models.Role, u models.ProfileUpdate) ([]validation.Violation, error)
}

type UsersHandler struct {
	userRepo  repository.UserRepo
	postRepo  repository.PostRepo
	replyRepo repository.ReplyRepo
	rules     ProfileRules
}

func NewUsersHandler(ur repository.UserRepo, pr repository.PostRepo, rr repository.ReplyRepo, rules ProfileRules) *UsersHandler {
	return &UsersHandler{userRepo: ur, postRepo: pr, replyRepo: rr, rules: rules}
}

type userResponse struct {
	User *models.UserProfile `json:"user"`
}

func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	h.writeUser(w, r, id.UserID)
}

func (h *UsersHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := caller(w, r); !ok {
		return
	}
	h.writeUser(w, r, mux.Vars(r)["id"])
}

func (h *UsersHandler) writeUser(w http.ResponseWriter, r *http.Request, userID string) {
	u, err := h.userRepo.GetUser(r.Context(), userID)
	if err != nil {
		logger.Error("get user", slog.String("user_id", userID), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Error loading user")
		return
	}
	if u == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: u})
}

// UpdateMe replaces the caller's mutable profile fields. Students cannot set alumni-only
// fields; a rule violation is a 422 listing every failing field.
func (h *UsersHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	var upd models.ProfileUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	upd.FirstName = strings.TrimSpace(upd.FirstName)
	upd.LastName = strings.TrimSpace(upd.LastName)
	if id.Role != models.RoleAlumni {
		upd.CurrentCompany, upd.CurrentPosition, upd.CurrentCity, upd.CurrentCountry, upd.LinkedIn = "", "", "", "", ""
		upd.PreviousExperiences = nil
		upd.Skills = nil
	}

	violations, err := h.rules.Validate(r.Context(), id.Role, upd)
	if err != nil {
		logger.Error("validate profile", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Error validating profile")
		return
	}
	if len(violations) > 0 {
		resp := errorResponse{Message: "Profile is invalid"}
		for _, v := range violations {
			resp.Violations = append(resp.Violations, violation{Field: v.Field, Message: v.Message})
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	if err := h.userRepo.UpdateUser(r.Context(), id.UserID, upd); err != nil {
		writeRepoError(w, err, "Error updating profile")
		return
	}
	h.writeUser(w, r, id.UserID)
}

func (h *UsersHandler) UserPosts(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	posts, err := h.postRepo.ListPostsByAuthor(r.Context(), mux.Vars(r)["id"], id.UserID)
	if err != nil {
		logger.Error("list user posts", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Error listing posts")
		return
	}
	writeJSON(w, http.StatusOK, postsResponse{Posts: posts})
}

func (h *UsersHandler) UserReplies(w http.ResponseWriter, r *http.Request) {
	if _, ok := caller(w, r); !ok {
		return
	}
	replies, err := h.replyRepo.ListRepliesByAuthor(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		logger.Error("list user replies", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Error listing replies")
		return
	}
	writeJSON(w, http.StatusOK, repliesResponse{Replies: replies})
}
