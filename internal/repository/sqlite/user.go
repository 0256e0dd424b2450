package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/garnizeh/campusfeed/pkg/models"
	"github.com/garnizeh/campusfeed/pkg/repository"
)

const userColumns = `id, role, email, department, campus, batch, graduation_year, first_name, last_name,
	phone, profile_picture, current_company, current_position, current_city, current_country, linkedin,
	previous_experiences, skills`

// CreateUser inserts u and returns its id. An empty u.ID gets a fresh one.
func (r *SQLiteRepo) CreateUser(ctx context.Context, u *models.UserProfile) (string, error) {
	if u == nil {
		return "", fmt.Errorf("user is nil")
	}
	if !u.Role.Valid() {
		return "", fmt.Errorf("invalid role %q", u.Role)
	}

	id := u.ID
	if id == "" {
		id = newID()
	}
	exp, skills, err := encodeLists(u.PreviousExperiences, u.Skills)
	if err != nil {
		return "", err
	}

	ts := now()
	_, err = r.conn.Exec(ctx, `INSERT INTO users (`+userColumns+`, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, u.Role, u.Email, u.Department, u.Campus, u.Batch, u.GraduationYear, u.FirstName, u.LastName,
		u.Phone, u.ProfilePicture, u.CurrentCompany, u.CurrentPosition, u.CurrentCity, u.CurrentCountry, u.LinkedIn,
		exp, skills, ts, ts)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *SQLiteRepo) GetUser(ctx context.Context, id string) (*models.UserProfile, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	var (
		u           models.UserProfile
		exp, skills string
	)
	err := row.Scan(&u.ID, &u.Role, &u.Email, &u.Department, &u.Campus, &u.Batch, &u.GraduationYear,
		&u.FirstName, &u.LastName, &u.Phone, &u.ProfilePicture, &u.CurrentCompany, &u.CurrentPosition,
		&u.CurrentCity, &u.CurrentCountry, &u.LinkedIn, &exp, &skills)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(exp), &u.PreviousExperiences); err != nil {
		return nil, fmt.Errorf("decode experiences of %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(skills), &u.Skills); err != nil {
		return nil, fmt.Errorf("decode skills of %s: %w", id, err)
	}
	return &u, nil
}

// UpdateUser writes the mutable fields of the user. Server-assigned fields are never
// touched.
func (r *SQLiteRepo) UpdateUser(ctx context.Context, id string, u models.ProfileUpdate) error {
	exp, skills, err := encodeLists(u.PreviousExperiences, u.Skills)
	if err != nil {
		return err
	}

	res, err := r.conn.Exec(ctx, `UPDATE users SET first_name = ?, last_name = ?, phone = ?, profile_picture = ?,
		current_company = ?, current_position = ?, current_city = ?, current_country = ?, linkedin = ?,
		previous_experiences = ?, skills = ?, updated = ? WHERE id = ?`,
		u.FirstName, u.LastName, u.Phone, u.ProfilePicture,
		u.CurrentCompany, u.CurrentPosition, u.CurrentCity, u.CurrentCountry, u.LinkedIn,
		exp, skills, now(), id)
	if err != nil {
		return err
	}
	return expectRow(res, "user", id)
}

func encodeLists(exp []models.Experience, skills []models.Skill) (string, string, error) {
	if exp == nil {
		exp = []models.Experience{}
	}
	if skills == nil {
		skills = []models.Skill{}
	}
	e, err := json.Marshal(exp)
	if err != nil {
		return "", "", fmt.Errorf("encode experiences: %w", err)
	}
	s, err := json.Marshal(skills)
	if err != nil {
		return "", "", fmt.Errorf("encode skills: %w", err)
	}
	return string(e), string(s), nil
}

func expectRow(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, repository.ErrNotFound)
	}
	return nil
}
