package sqlite

import (
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/garnizeh/campusfeed/internal/db"
	"github.com/garnizeh/campusfeed/pkg/repository"
)

// SQLiteRepo implements repository interfaces using the internal DB wrapper.
type SQLiteRepo struct {
	conn   *db.DB
	logger *slog.Logger
}

// Ensure SQLiteRepo implements the public interfaces.
var _ repository.UserRepo = (*SQLiteRepo)(nil)
var _ repository.AccountRepo = (*SQLiteRepo)(nil)
var _ repository.PostRepo = (*SQLiteRepo)(nil)
var _ repository.ReplyRepo = (*SQLiteRepo)(nil)
var _ repository.LikeRepo = (*SQLiteRepo)(nil)

func New(conn *db.DB, logger *slog.Logger) *SQLiteRepo {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return &SQLiteRepo{conn: conn, logger: logger}
}

func now() int64 {
	return time.Now().UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func newID() string {
	return uuid.NewString()
}
