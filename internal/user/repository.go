package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrProfileNotFound = errors.New("profile not found")
)

const accountColumns = `id, email, password_hash, provider, provider_subject, full_name, role, created_at, updated_at`

const profileColumns = `id, email, full_name, phone, avatar_url, role, studio_id, member_since, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateAccount(ctx context.Context, email, passwordHash, fullName, role string) (*Account, error) {
	query := `
		INSERT INTO accounts (email, password_hash, full_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + accountColumns

	var acc Account
	err := r.db.GetContext(ctx, &acc, query, email, passwordHash, fullName, role)
	if err != nil {
		return nil, err
	}

	return &acc, nil
}

func (r *repository) CreateOAuthAccount(ctx context.Context, email, provider, subject, fullName, role string) (*Account, error) {
	query := `
		INSERT INTO accounts (email, provider, provider_subject, full_name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + accountColumns

	var acc Account
	err := r.db.GetContext(ctx, &acc, query, email, provider, subject, fullName, role)
	if err != nil {
		return nil, err
	}

	return &acc, nil
}

func (r *repository) findAccount(ctx context.Context, where string, args ...any) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + where

	var acc Account
	err := r.db.GetContext(ctx, &acc, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &acc, nil
}

func (r *repository) FindAccountByEmail(ctx context.Context, email string) (*Account, error) {
	return r.findAccount(ctx, "email = $1", email)
}

func (r *repository) FindAccountByID(ctx context.Context, id int) (*Account, error) {
	return r.findAccount(ctx, "id = $1", id)
}

func (r *repository) FindAccountByProvider(ctx context.Context, provider, subject string) (*Account, error) {
	return r.findAccount(ctx, "provider = $1 AND provider_subject = $2", provider, subject)
}

func (r *repository) LinkProvider(ctx context.Context, id int, provider, subject string) error {
	query := `
		UPDATE accounts
		SET provider = $2, provider_subject = $3, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, provider, subject)
	return err
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE email = $1)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, email)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *repository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	query := `
		UPDATE accounts
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// CreateProfile is idempotent: an existing row for the id is returned as is.
func (r *repository) CreateProfile(ctx context.Context, p *User) (*User, error) {
	query := `
		INSERT INTO users (id, email, full_name, phone, avatar_url, role, member_since)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, p.ID, p.Email, p.FullName, p.Phone, p.AvatarURL, p.Role, p.MemberSince)
	if err != nil {
		return nil, err
	}

	return r.GetProfile(ctx, p.ID)
}

func (r *repository) GetProfile(ctx context.Context, id int) (*User, error) {
	query := `SELECT ` + profileColumns + ` FROM users WHERE id = $1`

	var u User
	err := r.db.GetContext(ctx, &u, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	return &u, nil
}

func (r *repository) UpdateProfile(ctx context.Context, id int, req UpdateProfileRequest) (*User, error) {
	query := `
		UPDATE users
		SET full_name = COALESCE($2, full_name),
		    phone = COALESCE($3, phone),
		    avatar_url = COALESCE($4, avatar_url),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + profileColumns

	var u User
	err := r.db.GetContext(ctx, &u, query, id, req.FullName, req.Phone, req.AvatarURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	return &u, nil
}
