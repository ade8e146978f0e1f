package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"newsfeed/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int) (*domain.User, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	user.CreatedAt = time.Now().UTC()

	err := r.db.QueryRowContext(ctx,
		"INSERT INTO users (username, email, password_hash, created_at) VALUES ($1, $2, $3, $4) RETURNING id",
		user.Username, user.Email, user.PasswordHash, user.CreatedAt,
	).Scan(&user.ID)

	if err != nil {
		if isDuplicateError(err) {
			return domain.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx,
		"SELECT id, username, email, password_hash, created_at FROM users WHERE username = $1",
		username,
	)
}

func (r *userRepository) GetByID(ctx context.Context, id int) (*domain.User, error) {
	return r.getOne(ctx,
		"SELECT id, username, email, password_hash, created_at FROM users WHERE id = $1",
		id,
	)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	user := &domain.User{}

	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}
