package forumclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/garnizeh/campusfeed/pkg/models"
)

type postsEnvelope struct {
	Posts []models.Post `json:"posts"`
}

type postEnvelope struct {
	Post *models.Post `json:"post"`
}

type repliesEnvelope struct {
	Replies []models.Reply `json:"replies"`
}

type replyEnvelope struct {
	Reply *models.Reply `json:"reply"`
}

type userEnvelope struct {
	User *models.UserProfile `json:"user"`
}

type tokenEnvelope struct {
	Token string `json:"token"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn exchanges credentials for a bearer token and installs it on the client.
func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	var out tokenEnvelope
	if err := c.call(ctx, "sign in", http.MethodPost, "/v1/auth/signin", signinRequest{Email: email, Password: password}, &out); err != nil {
		return "", err
	}
	c.SetToken(out.Token)
	return out.Token, nil
}

func (c *Client) FetchPosts(ctx context.Context) ([]models.Post, error) {
	var out postsEnvelope
	if err := c.call(ctx, "fetch posts", http.MethodGet, "/v1/posts", nil, &out); err != nil {
		return nil, err
	}
	return out.Posts, nil
}

func (c *Client) FetchPost(ctx context.Context, id string) (*models.Post, error) {
	var out postEnvelope
	if err := c.call(ctx, "fetch post", http.MethodGet, "/v1/posts/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	if out.Post == nil {
		return nil, &RequestError{Op: "fetch post", Status: http.StatusOK, Message: "empty post in response"}
	}
	return out.Post, nil
}

func (c *Client) FetchReplies(ctx context.Context, postID string) ([]models.Reply, error) {
	var out repliesEnvelope
	if err := c.call(ctx, "fetch replies", http.MethodGet, "/v1/posts/"+url.PathEscape(postID)+"/replies", nil, &out); err != nil {
		return nil, err
	}
	return out.Replies, nil
}

func (c *Client) FetchUserPosts(ctx context.Context, userID string) ([]models.Post, error) {
	var out postsEnvelope
	if err := c.call(ctx, "fetch user posts", http.MethodGet, "/v1/users/"+url.PathEscape(userID)+"/posts", nil, &out); err != nil {
		return nil, err
	}
	return out.Posts, nil
}

func (c *Client) FetchUserReplies(ctx context.Context, userID string) ([]models.Reply, error) {
	var out repliesEnvelope
	if err := c.call(ctx, "fetch user replies", http.MethodGet, "/v1/users/"+url.PathEscape(userID)+"/replies", nil, &out); err != nil {
		return nil, err
	}
	return out.Replies, nil
}

func (c *Client) CreatePost(ctx context.Context, d models.PostDraft) (*models.Post, error) {
	var out postEnvelope
	if err := c.call(ctx, "create post", http.MethodPost, "/v1/posts", d, &out); err != nil {
		return nil, err
	}
	if out.Post == nil {
		return nil, &RequestError{Op: "create post", Status: http.StatusOK, Message: "empty post in response"}
	}
	return out.Post, nil
}

func (c *Client) CreateReply(ctx context.Context, postID string, d models.ReplyDraft) (*models.Reply, error) {
	var out replyEnvelope
	if err := c.call(ctx, "create reply", http.MethodPost, "/v1/posts/"+url.PathEscape(postID)+"/replies", d, &out); err != nil {
		return nil, err
	}
	if out.Reply == nil {
		return nil, &RequestError{Op: "create reply", Status: http.StatusOK, Message: "empty reply in response"}
	}
	return out.Reply, nil
}

func (c *Client) LikePost(ctx context.Context, id string) error {
	return c.call(ctx, "like post", http.MethodPost, "/v1/posts/"+url.PathEscape(id)+"/like", nil, nil)
}

func (c *Client) UnlikePost(ctx context.Context, id string) error {
	return c.call(ctx, "unlike post", http.MethodDelete, "/v1/posts/"+url.PathEscape(id)+"/like", nil, nil)
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.call(ctx, "delete post", http.MethodDelete, "/v1/posts/"+url.PathEscape(id), nil, nil)
}

func (c *Client) DeleteReply(ctx context.Context, id string) error {
	return c.call(ctx, "delete reply", http.MethodDelete, "/v1/replies/"+url.PathEscape(id), nil, nil)
}

func (c *Client) FetchCurrentProfile(ctx context.Context) (*models.UserProfile, error) {
	return c.fetchUser(ctx, "fetch current profile", "/v1/users/me")
}

func (c *Client) FetchUserProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	return c.fetchUser(ctx, "fetch user profile", "/v1/users/"+url.PathEscape(userID))
}

func (c *Client) UpdateUserProfile(ctx context.Context, u models.ProfileUpdate) (*models.UserProfile, error) {
	var out userEnvelope
	if err := c.call(ctx, "update profile", http.MethodPut, "/v1/users/me", u, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, &RequestError{Op: "update profile", Status: http.StatusOK, Message: "empty user in response"}
	}
	return out.User, nil
}

func (c *Client) fetchUser(ctx context.Context, op, path string) (*models.UserProfile, error) {
	var out userEnvelope
	if err := c.call(ctx, op, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, &RequestError{Op: op, Status: http.StatusOK, Message: "empty user in response"}
	}
	return out.User, nil
}
