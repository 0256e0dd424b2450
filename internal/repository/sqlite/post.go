package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/campusfeed/pkg/models"
)

// postSelect projects a post with its author, counts and the viewer's like. The first
// bind parameter is the viewer id.
const postSelect = `SELECT p.id, p.body, p.created,
	u.id, u.first_name, u.last_name, u.role, u.profile_picture,
	(SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id),
	(SELECT COUNT(*) FROM replies rp WHERE rp.post_id = p.id),
	EXISTS (SELECT 1 FROM likes l WHERE l.post_id = p.id AND l.user_id = ?)
	FROM posts p JOIN users u ON u.id = p.author_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (models.Post, error) {
	var (
		p       models.Post
		created int64
	)
	err := s.Scan(&p.ID, &p.Body, &created,
		&p.Author.ID, &p.Author.FirstName, &p.Author.LastName, &p.Author.Role, &p.Author.ProfilePicture,
		&p.LikeCount, &p.ReplyCount, &p.IsLikedByCurrentUser)
	p.CreatedAt = fromMillis(created)
	return p, err
}

func (r *SQLiteRepo) CreatePost(ctx context.Context, authorID, body string) (*models.Post, error) {
	if body == "" {
		return nil, fmt.Errorf("post body is empty")
	}

	id := newID()
	if _, err := r.conn.Exec(ctx, `INSERT INTO posts (id, author_id, body, created) VALUES (?, ?, ?, ?)`, id, authorID, body, now()); err != nil {
		return nil, err
	}
	return r.GetPost(ctx, id, authorID)
}

func (r *SQLiteRepo) GetPost(ctx context.Context, id, viewerID string) (*models.Post, error) {
	p, err := scanPost(r.conn.QueryRow(ctx, postSelect+` WHERE p.id = ?`, viewerID, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ListPosts returns the newest posts first.
func (r *SQLiteRepo) ListPosts(ctx context.Context, viewerID string, limit, offset int) ([]models.Post, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return r.listPosts(ctx, postSelect+` ORDER BY p.created DESC, p.rowid DESC LIMIT ? OFFSET ?`, viewerID, limit, offset)
}

func (r *SQLiteRepo) ListPostsByAuthor(ctx context.Context, authorID, viewerID string) ([]models.Post, error) {
	return r.listPosts(ctx, postSelect+` WHERE p.author_id = ? ORDER BY p.created DESC, p.rowid DESC`, viewerID, authorID)
}

func (r *SQLiteRepo) listPosts(ctx context.Context, query string, args ...any) ([]models.Post, error) {
	rows, err := r.conn.QueryRows(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePost removes the post together with its replies and likes.
func (r *SQLiteRepo) DeletePost(ctx context.Context, id string) error {
	return r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE post_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM replies WHERE post_id = ?`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return expectRow(res, "post", id)
	})
}
