package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/stayprice/stayprice/internal/domain/integration"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/logger"
	"github.com/stayprice/stayprice/internal/postgres"
	"github.com/stayprice/stayprice/internal/types"
)

type integrationRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewIntegrationRepository(db *postgres.DB, logger *logger.Logger) integration.Repository {
	return &integrationRepository{db: db, logger: logger}
}

func (r *integrationRepository) Create(ctx context.Context, i *integration.Integration) error {
	query := `
	INSERT INTO integrations (
		id, user_id, type, credentials, connected_at, last_sync,
		created_at, updated_at, updated_by
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (user_id, type) DO UPDATE SET
		credentials = EXCLUDED.credentials,
		connected_at = EXCLUDED.connected_at,
		updated_at = EXCLUDED.updated_at,
		updated_by = EXCLUDED.updated_by`

	_, err := r.db.GetQuerier(ctx).ExecContext(
		ctx, query,
		i.ID, i.UserID, i.Type, i.Credentials, i.ConnectedAt, i.LastSync,
		i.CreatedAt, i.UpdatedAt, i.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to save integration").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *integrationRepository) GetByUserAndType(ctx context.Context, userID string, pmsType types.PMSType) (*integration.Integration, error) {
	query := `SELECT * FROM integrations WHERE user_id = $1 AND type = $2`

	var i integration.Integration
	err := r.db.GetQuerier(ctx).GetContext(ctx, &i, query, userID, pmsType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to load integration").
			Mark(ierr.ErrDatabase)
	}
	return &i, nil
}

func (r *integrationRepository) ListByUser(ctx context.Context, userID string) ([]*integration.Integration, error) {
	query := `SELECT * FROM integrations WHERE user_id = $1 ORDER BY connected_at`

	var integrations []*integration.Integration
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &integrations, query, userID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list integrations").
			Mark(ierr.ErrDatabase)
	}
	return integrations, nil
}

func (r *integrationRepository) UpdateLastSync(ctx context.Context, id string) error {
	now := time.Now().UTC()
	query := `UPDATE integrations SET last_sync = $2, updated_at = $2 WHERE id = $1`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, id, now)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to record sync time").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *integrationRepository) Delete(ctx context.Context, userID string, pmsType types.PMSType) error {
	query := `DELETE FROM integrations WHERE user_id = $1 AND type = $2`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, userID, pmsType)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete integration").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
