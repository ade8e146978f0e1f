package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"newsfeed/internal/domain"
)

type SourceRepository interface {
	Create(ctx context.Context, source *domain.Source) error
	GetByID(ctx context.Context, sourceID int) (*domain.Source, error)
	ListByUser(ctx context.Context, userID int) ([]domain.Source, error)
	ListAll(ctx context.Context) ([]domain.Source, error)
	IDsByUser(ctx context.Context, userID int) ([]int, error)
	ExistsByURL(ctx context.Context, userID int, url string) (bool, error)
	UpdateValidator(ctx context.Context, sourceID int, v domain.Validator) error
	Delete(ctx context.Context, sourceID, userID int) error
}

type sourceRepository struct {
	db *sql.DB
}

func NewSourceRepository(db *sql.DB) SourceRepository {
	return &sourceRepository{db: db}
}

const sourceColumns = "id, user_id, name, url, validator_kind, validator_value, created_at"

func (r *sourceRepository) Create(ctx context.Context, source *domain.Source) error {
	source.CreatedAt = time.Now().UTC()
	kind, value := validatorArgs(source.Validator)

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO sources (user_id, name, url, validator_kind, validator_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		source.UserID, source.Name, source.URL, kind, value, source.CreatedAt,
	).Scan(&source.ID)

	if err != nil {
		return fmt.Errorf("failed to create source: %w", err)
	}

	return nil
}

func (r *sourceRepository) GetByID(ctx context.Context, sourceID int) (*domain.Source, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+sourceColumns+" FROM sources WHERE id = $1",
		sourceID,
	)

	source, err := scanSource(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSourceNotFound
		}
		return nil, fmt.Errorf("failed to get source: %w", err)
	}

	return source, nil
}

func (r *sourceRepository) ListByUser(ctx context.Context, userID int) ([]domain.Source, error) {
	return r.list(ctx,
		"SELECT "+sourceColumns+" FROM sources WHERE user_id = $1 ORDER BY name, id",
		userID,
	)
}

func (r *sourceRepository) ListAll(ctx context.Context) ([]domain.Source, error) {
	return r.list(ctx, "SELECT "+sourceColumns+" FROM sources ORDER BY name, id")
}

func (r *sourceRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Source, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, *source)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sources: %w", err)
	}

	return sources, nil
}

func (r *sourceRepository) IDsByUser(ctx context.Context, userID int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM sources WHERE user_id = $1 ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get source ids: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan source id: %w", err)
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source ids: %w", err)
	}

	return ids, nil
}

func (r *sourceRepository) ExistsByURL(ctx context.Context, userID int, url string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sources WHERE user_id = $1 AND url = $2",
		userID, url,
	).Scan(&count)

	if err != nil {
		return false, fmt.Errorf("failed to check source existence: %w", err)
	}

	return count > 0, nil
}

func (r *sourceRepository) UpdateValidator(ctx context.Context, sourceID int, v domain.Validator) error {
	if err := v.Validate(); err != nil {
		return err
	}
	kind, value := validatorArgs(v)

	result, err := r.db.ExecContext(ctx,
		"UPDATE sources SET validator_kind = $1, validator_value = $2 WHERE id = $3",
		kind, value, sourceID,
	)
	if err != nil {
		return fmt.Errorf("failed to update source validator: %w", err)
	}

	return expectOneRow(result, domain.ErrSourceNotFound)
}

func (r *sourceRepository) Delete(ctx context.Context, sourceID, userID int) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM sources WHERE id = $1 AND user_id = $2",
		sourceID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}

	return expectOneRow(result, domain.ErrSourceNotFound)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSource(row rowScanner) (*domain.Source, error) {
	var (
		source domain.Source
		kind   sql.NullString
		value  sql.NullString
	)

	err := row.Scan(&source.ID, &source.UserID, &source.Name, &source.URL, &kind, &value, &source.CreatedAt)
	if err != nil {
		return nil, err
	}

	if kind.Valid && value.Valid {
		source.Validator = domain.Validator{Kind: domain.ValidatorKind(kind.String), Value: value.String}
	}

	return &source, nil
}

// validatorArgs maps an empty validator to SQL NULLs.
func validatorArgs(v domain.Validator) (sql.NullString, sql.NullString) {
	if v.IsZero() {
		return sql.NullString{}, sql.NullString{}
	}
	return sql.NullString{String: string(v.Kind), Valid: true},
		sql.NullString{String: v.Value, Valid: true}
}

func expectOneRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return notFound
	}

	return nil
}
