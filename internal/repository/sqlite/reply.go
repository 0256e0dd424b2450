package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/campusfeed/pkg/models"
)

const replySelect = `SELECT r.id, r.post_id, r.body, r.created,
	u.id, u.first_name, u.last_name, u.role, u.profile_picture
	FROM replies r JOIN users u ON u.id = r.author_id`

func scanReply(s scanner) (models.Reply, error) {
	var (
		rp      models.Reply
		created int64
	)
	err := s.Scan(&rp.ID, &rp.PostID, &rp.Body, &created,
		&rp.Author.ID, &rp.Author.FirstName, &rp.Author.LastName, &rp.Author.Role, &rp.Author.ProfilePicture)
	rp.CreatedAt = fromMillis(created)
	return rp, err
}

// CreateReply adds a reply under postID; a missing post yields repository.ErrNotFound.
func (r *SQLiteRepo) CreateReply(ctx context.Context, postID, authorID, body string) (*models.Reply, error) {
	if body == "" {
		return nil, fmt.Errorf("reply body is empty")
	}

	id := newID()
	res, err := r.conn.Exec(ctx, `INSERT INTO replies (id, post_id, author_id, body, created)
		SELECT ?, ?, ?, ?, ? WHERE EXISTS (SELECT 1 FROM posts WHERE id = ?)`,
		id, postID, authorID, body, now(), postID)
	if err != nil {
		return nil, err
	}
	if err := expectRow(res, "post", postID); err != nil {
		return nil, err
	}
	return r.GetReply(ctx, id)
}

func (r *SQLiteRepo) GetReply(ctx context.Context, id string) (*models.Reply, error) {
	rp, err := scanReply(r.conn.QueryRow(ctx, replySelect+` WHERE r.id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rp, nil
}

// ListReplies returns a thread's replies oldest first.
func (r *SQLiteRepo) ListReplies(ctx context.Context, postID string) ([]models.Reply, error) {
	return r.listReplies(ctx, replySelect+` WHERE r.post_id = ? ORDER BY r.created ASC, r.rowid ASC`, postID)
}

// ListRepliesByAuthor returns the author's replies newest first.
func (r *SQLiteRepo) ListRepliesByAuthor(ctx context.Context, authorID string) ([]models.Reply, error) {
	return r.listReplies(ctx, replySelect+` WHERE r.author_id = ? ORDER BY r.created DESC, r.rowid DESC`, authorID)
}

func (r *SQLiteRepo) listReplies(ctx context.Context, query string, args ...any) ([]models.Reply, error) {
	rows, err := r.conn.QueryRows(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Reply{}
	for rows.Next() {
		rp, err := scanReply(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rp)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) DeleteReply(ctx context.Context, id string) error {
	res, err := r.conn.Exec(ctx, `DELETE FROM replies WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectRow(res, "reply", id)
}
