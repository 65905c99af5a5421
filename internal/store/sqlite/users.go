package sqlite

import (
	"context"
	"fmt"

	"github.com/recipebox/recipebox-server/internal/domain"
	"github.com/recipebox/recipebox-server/internal/store"
)

// userColumns must match the scan order in scanUser.
const userColumns = `id, email, name, password_hash, is_active, created_at, updated_at`

func scanUser(row scanner) (*domain.User, error) {
	var (
		u         domain.User
		isActive  int
		createdAt string
		updatedAt string
	)

	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &isActive, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	u.IsActive = isActive == 1

	return &u, nil
}

// CreateUser inserts a user. Returns store.ErrAlreadyExists on a duplicate email.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		domain.NormalizeEmail(u.Email),
		u.Name,
		u.PasswordHash,
		boolToInt(u.IsActive),
		formatTime(u.CreatedAt),
		formatTime(u.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithMessage("user with this email already exists")
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser returns the user with the given ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "user not found")
	}
	return u, nil
}

// GetUserByEmail looks a user up case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, domain.NormalizeEmail(email))
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "user not found")
	}
	return u, nil
}

// UpdateUser persists name, password hash and active flag.
func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE users SET name = ?, password_hash = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		u.Name, u.PasswordHash, boolToInt(u.IsActive), formatTime(u.UpdatedAt), u.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return requireAffected(res, "user not found")
}

// ListUsers returns every user ordered by creation time.
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
