package sqlite

import (
	"context"
	"fmt"

	"github.com/garnizeh/campusfeed/pkg/repository"
)

// Like records userID's like on postID. Liking twice keeps one like.
func (r *SQLiteRepo) Like(ctx context.Context, postID, userID string) error {
	if err := r.postExists(ctx, postID); err != nil {
		return err
	}
	_, err := r.conn.Exec(ctx, `INSERT OR IGNORE INTO likes (post_id, user_id, created) VALUES (?, ?, ?)`, postID, userID, now())
	return err
}

// Unlike drops userID's like on postID. Unliking a post that was not liked is a no-op.
func (r *SQLiteRepo) Unlike(ctx context.Context, postID, userID string) error {
	if err := r.postExists(ctx, postID); err != nil {
		return err
	}
	_, err := r.conn.Exec(ctx, `DELETE FROM likes WHERE post_id = ? AND user_id = ?`, postID, userID)
	return err
}

func (r *SQLiteRepo) postExists(ctx context.Context, postID string) error {
	var n int
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(1) FROM posts WHERE id = ?`, postID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("post %s: %w", postID, repository.ErrNotFound)
	}
	return nil
}
