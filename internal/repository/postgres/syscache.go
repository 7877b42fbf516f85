package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/stayprice/stayprice/internal/domain/syscache"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/logger"
	"github.com/stayprice/stayprice/internal/postgres"
)

type sysCacheRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSysCacheRepository(db *postgres.DB, logger *logger.Logger) syscache.Repository {
	return &sysCacheRepository{db: db, logger: logger}
}

func (r *sysCacheRepository) Get(ctx context.Context, key string) (*syscache.Entry, error) {
	query := `SELECT * FROM system_cache WHERE key = $1`

	var e syscache.Entry
	err := r.db.GetQuerier(ctx).GetContext(ctx, &e, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to load cache entry").
			Mark(ierr.ErrDatabase)
	}
	return &e, nil
}

func (r *sysCacheRepository) Upsert(ctx context.Context, e *syscache.Entry) error {
	e.UpdatedAt = time.Now().UTC()

	query := `
	INSERT INTO system_cache (key, data, language, updated_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (key) DO UPDATE SET
		data = EXCLUDED.data,
		language = EXCLUDED.language,
		updated_at = EXCLUDED.updated_at`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, e.Key, e.Data, e.Language, e.UpdatedAt)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to write cache entry").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *sysCacheRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, `DELETE FROM system_cache WHERE key = $1`, key)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete cache entry").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
