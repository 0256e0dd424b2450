package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/garnizeh/campusfeed/internal/session"
	"github.com/garnizeh/campusfeed/pkg/models"
	"github.com/garnizeh/campusfeed/pkg/repository"
)

type PostsHandler struct {
	postRepo  repository.PostRepo
	replyRepo repository.ReplyRepo
	likeRepo  repository.LikeRepo
}

func NewPostsHandler(pr repository.PostRepo, rr repository.ReplyRepo, lr repository.LikeRepo) *PostsHandler {
	return &PostsHandler{postRepo: pr, replyRepo: rr, likeRepo: lr}
}

type postsResponse struct {
	Posts []models.Post `json:"posts"`
}

type postResponse struct {
	Post *models.Post `json:"post"`
}

type repliesResponse struct {
	Replies []models.Reply `json:"replies"`
}

type replyResponse struct {
	Reply *models.Reply `json:"reply"`
}

// caller returns the authenticated identity or writes 401.
func caller(w http.ResponseWriter, r *http.Request) (session.Identity, bool) {
	id, ok := IdentityFromContext(r.Context())
	if !ok || id.UserID == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return session.Identity{}, false
	}
	return id, true
}

func (h *PostsHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	posts, err := h.postRepo.ListPosts(r.Context(), id.UserID, limit, offset)
	if err != nil {
		logger.Error("list posts", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Error listing posts")
		return
	}
	writeJSON(w, http.StatusOK, postsResponse{Posts: posts})
}

func (h *PostsHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	var req models.PostDraft
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		writeError(w, http.StatusBadRequest, "Post body is required")
		return
	}

	p, err := h.postRepo.CreatePost(r.Context(), id.UserID, body)
	if err != nil || p == nil {
		logger.Error("create post", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Error creating post")
		return
	}
	writeJSON(w, http.StatusCreated, postResponse{Post: p})
}

func (h *PostsHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	p, err := h.postRepo.GetPost(r.Context(), mux.Vars(r)["id"], id.UserID)
	if err != nil {
		logger.Error("get post", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Error loading post")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	writeJSON(w, http.StatusOK, postResponse{Post: p})
}

// DeletePost lets an author delete their own post.
func (h *PostsHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	postID := mux.Vars(r)["id"]

	p, err := h.postRepo.GetPost(r.Context(), postID, id.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading post")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	if !id.Owns(p.Author) {
		writeError(w, http.StatusForbidden, "Only the author can delete this post")
		return
	}

	if err := h.postRepo.DeletePost(r.Context(), postID); err != nil {
		writeRepoError(w, err, "Error deleting post")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PostsHandler) ListReplies(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	postID := mux.Vars(r)["id"]

	p, err := h.postRepo.GetPost(r.Context(), postID, id.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading post")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}

	replies, err := h.replyRepo.ListReplies(r.Context(), postID)
	if err != nil {
		logger.Error("list replies", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Error listing replies")
		return
	}
	writeJSON(w, http.StatusOK, repliesResponse{Replies: replies})
}

func (h *PostsHandler) CreateReply(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	var req models.ReplyDraft
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		writeError(w, http.StatusBadRequest, "Reply body is required")
		return
	}

	reply, err := h.replyRepo.CreateReply(r.Context(), mux.Vars(r)["id"], id.UserID, body)
	if err != nil {
		writeRepoError(w, err, "Error creating reply")
		return
	}
	writeJSON(w, http.StatusCreated, replyResponse{Reply: reply})
}

func (h *PostsHandler) Like(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.likeRepo.Like(r.Context(), mux.Vars(r)["id"], id.UserID); err != nil {
		writeRepoError(w, err, "Error liking post")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PostsHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.likeRepo.Unlike(r.Context(), mux.Vars(r)["id"], id.UserID); err != nil {
		writeRepoError(w, err, "Error unliking post")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteReply lets an author delete their own reply.
func (h *PostsHandler) DeleteReply(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	replyID := mux.Vars(r)["id"]

	reply, err := h.replyRepo.GetReply(r.Context(), replyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading reply")
		return
	}
	if reply == nil {
		writeError(w, http.StatusNotFound, "Reply not found")
		return
	}
	if !id.Owns(reply.Author) {
		writeError(w, http.StatusForbidden, "Only the author can delete this reply")
		return
	}

	if err := h.replyRepo.DeleteReply(r.Context(), replyID); err != nil {
		writeRepoError(w, err, "Error deleting reply")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeRepoError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	logger.Error(msg, slog.Any("err", err))
	writeError(w, http.StatusInternalServerError, msg)
}
