package postgres

import (
	"context"

	"github.com/pressly/goose/v3"

	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/migrations"
)

// Migrate applies the embedded goose migrations up to the latest version
func (db *DB) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to configure schema migrations").
			Mark(ierr.ErrDatabase)
	}
	if err := goose.UpContext(ctx, db.DB.DB, "."); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to apply schema migrations").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
