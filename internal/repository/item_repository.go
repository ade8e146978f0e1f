package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"newsfeed/internal/domain"
)

type ItemRepository interface {
	// CreateIfAbsent inserts the item unless its title is already stored.
	// It reports whether a row was created.
	CreateIfAbsent(ctx context.Context, item *domain.Item) (bool, error)
	GetByID(ctx context.Context, itemID int) (*domain.Item, error)
	List(ctx context.Context, favoritesOnly bool) ([]domain.Item, error)
	Count(ctx context.Context) (int, error)
	CountBySource(ctx context.Context, sourceID int) (int, error)
	ToggleFavorite(ctx context.Context, itemID int) (bool, error)
}

type itemRepository struct {
	db *sql.DB
}

func NewItemRepository(db *sql.DB) ItemRepository {
	return &itemRepository{db: db}
}

const itemSelect = `
	SELECT i.id, i.source_id, s.name, i.title, i.summary, i.link, i.favorite, i.created_at
	FROM items i
	JOIN sources s ON i.source_id = s.id`

func (r *itemRepository) CreateIfAbsent(ctx context.Context, item *domain.Item) (bool, error) {
	item.CreatedAt = time.Now().UTC()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO items (source_id, title, summary, link, favorite, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (title) DO NOTHING
		RETURNING id`,
		item.SourceID, item.Title, item.Summary, item.Link, item.Favorite, item.CreatedAt,
	).Scan(&item.ID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isDuplicateError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create item: %w", err)
	}

	return true, nil
}

func (r *itemRepository) GetByID(ctx context.Context, itemID int) (*domain.Item, error) {
	var item domain.Item

	err := r.db.QueryRowContext(ctx, itemSelect+" WHERE i.id = $1", itemID).Scan(
		&item.ID, &item.SourceID, &item.SourceName, &item.Title,
		&item.Summary, &item.Link, &item.Favorite, &item.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return &item, nil
}

func (r *itemRepository) List(ctx context.Context, favoritesOnly bool) ([]domain.Item, error) {
	query := itemSelect + " ORDER BY i.id DESC"
	var args []interface{}
	if favoritesOnly {
		query = itemSelect + " WHERE i.favorite = $1 ORDER BY i.id DESC"
		args = append(args, true)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var item domain.Item
		err := rows.Scan(
			&item.ID, &item.SourceID, &item.SourceName, &item.Title,
			&item.Summary, &item.Link, &item.Favorite, &item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

func (r *itemRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

func (r *itemRepository) CountBySource(ctx context.Context, sourceID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items WHERE source_id = $1", sourceID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

func (r *itemRepository) ToggleFavorite(ctx context.Context, itemID int) (bool, error) {
	var favorite bool

	err := r.db.QueryRowContext(ctx,
		"UPDATE items SET favorite = NOT favorite WHERE id = $1 RETURNING favorite",
		itemID,
	).Scan(&favorite)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, domain.ErrItemNotFound
		}
		return false, fmt.Errorf("failed to toggle favorite: %w", err)
	}

	return favorite, nil
}
