package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/lead-forge/internal/models"
)

// ErrUserNotFound возвращается, когда пользователя с таким именем нет.
var ErrUserNotFound = errors.New("user not found")

// RegisterUser сохраняет нового пользователя и возвращает его UID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"

	uid := uuid.NewString()
	query := `INSERT INTO users (uid, email, username, password_hash, role)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING uid`
	var newUID string
	err := s.DB.QueryRowContext(ctx, query,
		uid, user.Email, user.Username, user.PasswordHash, user.Role).Scan(&newUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetUserByUsername возвращает пользователя по имени или ошибку, если не найден.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"

	query := `SELECT uid, email, username, password_hash, role, created_at
			  FROM users WHERE username = $1`
	var user models.User
	err := s.DB.QueryRowContext(ctx, query, username).Scan(
		&user.UUID, &user.Email, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}
