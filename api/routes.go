package api

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garnizeh/campusfeed/internal/config"
	"github.com/garnizeh/campusfeed/internal/db"
	"github.com/garnizeh/campusfeed/internal/metrics"
	"github.com/garnizeh/campusfeed/internal/repository/sqlite"
	"github.com/garnizeh/campusfeed/internal/validation"
	"github.com/garnizeh/campusfeed/pkg/repository"
)

// Deps is everything the router needs. Metrics, Gatherer and Ping are optional.
type Deps struct {
	Users    repository.UserRepo
	Accounts repository.AccountRepo
	Posts    repository.PostRepo
	Replies  repository.ReplyRepo
	Likes    repository.LikeRepo
	Rules    ProfileRules

	JWTSecret     string
	TokenDuration time.Duration
	Version       string
	BuildTime     string

	Metrics  RequestRecorder
	Gatherer prometheus.Gatherer
	// Ping backs /health; nil reports healthy without a storage check.
	Ping func(ctx context.Context) error
}

// SetupRoutes wires the sqlite repositories, the profile rule-set and a metrics
// collector registered on reg into the router.
func SetupRoutes(cfg *config.Config, version, buildTime string, conn *db.DB, reg *prometheus.Registry) (*mux.Router, error) {
	repo := sqlite.New(conn, logger)
	rules, err := validation.NewRuleSet()
	if err != nil {
		return nil, fmt.Errorf("load profile rules: %w", err)
	}

	return NewRouter(Deps{
		Users:         repo,
		Accounts:      repo,
		Posts:         repo,
		Replies:       repo,
		Likes:         repo,
		Rules:         rules,
		JWTSecret:     cfg.JWTSecret,
		TokenDuration: cfg.TokenDuration,
		Version:       version,
		BuildTime:     buildTime,
		Metrics:       metrics.NewCollector(reg),
		Gatherer:      reg,
		Ping:          conn.GetConn().PingContext,
	}), nil
}

func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)
	if d.Metrics != nil {
		r.Use(MetricsMiddleware(d.Metrics))
	}

	systemHandler := &SystemHandler{Ping: d.Ping}
	authHandler := NewAuthHandler(d.Accounts, d.Users, d.JWTSecret, d.TokenDuration)
	postsHandler := NewPostsHandler(d.Posts, d.Replies, d.Likes)
	usersHandler := NewUsersHandler(d.Users, d.Posts, d.Replies, d.Rules)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(d.Version, d.BuildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(d.JWTSecret))

	apiV1.HandleFunc("/auth/signout", authHandler.Signout).Methods("POST")

	apiV1.HandleFunc("/posts", postsHandler.ListPosts).Methods("GET")
	apiV1.HandleFunc("/posts", postsHandler.CreatePost).Methods("POST")
	apiV1.HandleFunc("/posts/{id}", postsHandler.GetPost).Methods("GET")
	apiV1.HandleFunc("/posts/{id}", postsHandler.DeletePost).Methods("DELETE")
	apiV1.HandleFunc("/posts/{id}/replies", postsHandler.ListReplies).Methods("GET")
	apiV1.HandleFunc("/posts/{id}/replies", postsHandler.CreateReply).Methods("POST")
	apiV1.HandleFunc("/posts/{id}/like", postsHandler.Like).Methods("POST")
	apiV1.HandleFunc("/posts/{id}/like", postsHandler.Unlike).Methods("DELETE")
	apiV1.HandleFunc("/replies/{id}", postsHandler.DeleteReply).Methods("DELETE")

	// me before {id}
	apiV1.HandleFunc("/users/me", usersHandler.Me).Methods("GET")
	apiV1.HandleFunc("/users/me", usersHandler.UpdateMe).Methods("PUT")
	apiV1.HandleFunc("/users/{id}", usersHandler.GetUser).Methods("GET")
	apiV1.HandleFunc("/users/{id}/posts", usersHandler.UserPosts).Methods("GET")
	apiV1.HandleFunc("/users/{id}/replies", usersHandler.UserReplies).Methods("GET")

	return r
}

