package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	Get(ctx context.Context, id int) (User, error)
	Create(ctx context.Context, u User) error
	Update(ctx context.Context, id int, p Patch) (User, error)
	Delete(ctx context.Context, u User) error
	Clear(ctx context.Context) error
}

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Get(ctx context.Context, id int) (User, error) {
	var u User
	err := r.DB.QueryRow(ctx, `SELECT id, username, email, password FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.Password)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *Repo) Create(ctx context.Context, u User) error {
	ct, err := r.DB.Exec(ctx, `
		INSERT INTO users(id, username, email, password) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`, u.ID, u.Username, u.Email, u.Password)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, id int, p Patch) (User, error) {
	var u User
	err := r.DB.QueryRow(ctx, `
		UPDATE users SET
			username = COALESCE($2, username),
			email    = COALESCE($3, email),
			password = COALESCE($4, password)
		WHERE id = $1
		RETURNING id, username, email, password`, id, p.Username, p.Email, p.Password).
		Scan(&u.ID, &u.Username, &u.Email, &u.Password)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// Delete removes the user only if every credential matches.
func (r *Repo) Delete(ctx context.Context, u User) error {
	ct, err := r.DB.Exec(ctx, `
		DELETE FROM users
		WHERE id = $1 AND username = $2 AND email = $3 AND password = $4`,
		u.ID, u.Username, u.Email, u.Password)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Clear(ctx context.Context) error {
	if _, err := r.DB.Exec(ctx, `TRUNCATE users`); err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	return nil
}
