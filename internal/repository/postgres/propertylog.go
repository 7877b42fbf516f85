package postgres

import (
	"context"

	"github.com/stayprice/stayprice/internal/domain/propertylog"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/logger"
	"github.com/stayprice/stayprice/internal/postgres"
)

type propertyLogRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewPropertyLogRepository(db *postgres.DB, logger *logger.Logger) propertylog.Repository {
	return &propertyLogRepository{db: db, logger: logger}
}

func (r *propertyLogRepository) Create(ctx context.Context, l *propertylog.PropertyLog) error {
	query := `
	INSERT INTO property_logs (
		id, property_id, user_id, user_email, action, changes, timestamp
	) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.GetQuerier(ctx).ExecContext(
		ctx, query,
		l.ID, l.PropertyID, l.UserID, l.UserEmail, l.Action, l.Changes, l.Timestamp,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to append property log").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *propertyLogRepository) ListByProperty(ctx context.Context, propertyID string) ([]*propertylog.PropertyLog, error) {
	query := `SELECT * FROM property_logs WHERE property_id = $1 ORDER BY timestamp DESC`

	var logs []*propertylog.PropertyLog
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &logs, query, propertyID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list property logs").
			Mark(ierr.ErrDatabase)
	}
	return logs, nil
}
