package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"newsfeed/internal/domain"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, commentID int) (*domain.Comment, error)
	ListByItem(ctx context.Context, itemID int) ([]domain.Comment, error)
	// Like increments the like counter and returns the updated comment.
	Like(ctx context.Context, commentID int) (*domain.Comment, error)
}

type commentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) CommentRepository {
	return &commentRepository{db: db}
}

const commentSelect = `
	SELECT c.id, c.item_id, c.user_id, u.username, c.body, c.likes, c.created_at
	FROM comments c
	JOIN users u ON c.user_id = u.id`

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	comment.CreatedAt = time.Now().UTC()
	comment.Likes = 0

	err := r.db.QueryRowContext(ctx,
		"INSERT INTO comments (item_id, user_id, body, likes, created_at) VALUES ($1, $2, $3, 0, $4) RETURNING id",
		comment.ItemID, comment.UserID, comment.Body, comment.CreatedAt,
	).Scan(&comment.ID)

	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, commentID int) (*domain.Comment, error) {
	var c domain.Comment

	err := r.db.QueryRowContext(ctx, commentSelect+" WHERE c.id = $1", commentID).
		Scan(&c.ID, &c.ItemID, &c.UserID, &c.Username, &c.Body, &c.Likes, &c.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return &c, nil
}

func (r *commentRepository) ListByItem(ctx context.Context, itemID int) ([]domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, commentSelect+" WHERE c.item_id = $1 ORDER BY c.id", itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.ItemID, &c.UserID, &c.Username, &c.Body, &c.Likes, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}

	return comments, nil
}

func (r *commentRepository) Like(ctx context.Context, commentID int) (*domain.Comment, error) {
	c := &domain.Comment{ID: commentID}

	err := r.db.QueryRowContext(ctx,
		"UPDATE comments SET likes = likes + 1 WHERE id = $1 RETURNING item_id, likes",
		commentID,
	).Scan(&c.ItemID, &c.Likes)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to like comment: %w", err)
	}

	return c, nil
}
