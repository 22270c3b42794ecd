package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/spynners/api/internal/model"
)

var (
	ErrNotFound       = errors.New("store: not found")
	ErrAlreadyExists  = errors.New("store: already exists")
	ErrDuplicateEmail = errors.New("store: email already registered")
)

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ?`, u.Email).Scan(&exists)
	if err != nil {
		return err
	}
	if exists > 0 {
		return ErrDuplicateEmail
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, full_name, user_type, diamonds, black_diamonds, is_vip, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.FullName, string(u.UserType),
		u.Diamonds, u.BlackDiamonds, boolToInt(u.IsVIP),
		u.CreatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, full_name, user_type, diamonds, black_diamonds, is_vip, created_at
		 FROM users WHERE email = ?`, email))
}

func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, full_name, user_type, diamonds, black_diamonds, is_vip, created_at
		 FROM users WHERE id = ?`, id))
}

func (s *Store) scanUser(row *sql.Row) (*model.User, error) {
	var (
		u        model.User
		userType string
		isVIP    int
		created  string
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &userType,
		&u.Diamonds, &u.BlackDiamonds, &isVIP, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.UserType = model.UserType(userType)
	u.IsVIP = isVIP != 0
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		u.CreatedAt = t
	}
	return &u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
