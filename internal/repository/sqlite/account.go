package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/garnizeh/campusfeed/pkg/models"
)

func (r *SQLiteRepo) CreateAccount(ctx context.Context, a *models.Account) error {
	if a == nil {
		return fmt.Errorf("account is nil")
	}
	_, err := r.conn.Exec(ctx, `INSERT INTO accounts (user_id, email, password_hash) VALUES (?, ?, ?)`,
		a.UserID, strings.ToLower(a.Email), a.PasswordHash)
	return err
}

// GetAccountByEmail matches email case-insensitively.
func (r *SQLiteRepo) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	row := r.conn.QueryRow(ctx, `SELECT user_id, email, password_hash FROM accounts WHERE email = ?`, strings.ToLower(email))
	var a models.Account
	if err := row.Scan(&a.UserID, &a.Email, &a.PasswordHash); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
