package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/stayprice/stayprice/internal/domain/tenant"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/logger"
	"github.com/stayprice/stayprice/internal/postgres"
)

// tenantColumns aliases the auto-pricing columns into the nested struct
const tenantColumns = `
	id, email, role, team_id, timezone, language, currency,
	subscription_status, subscription_id, customer_id,
	access_disabled, banned, payment_failed,
	pms_sync_enabled, pms_sync_stopped_reason, revenue_targets,
	auto_pricing_enabled AS "auto_pricing.enabled",
	auto_pricing_timezone AS "auto_pricing.timezone",
	auto_pricing_last_attempt AS "auto_pricing.last_attempt",
	auto_pricing_last_successful_run AS "auto_pricing.last_successful_run",
	auto_pricing_failed_attempts AS "auto_pricing.failed_attempts",
	created_at, updated_at, updated_by
`

type tenantRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewTenantRepository(db *postgres.DB, logger *logger.Logger) tenant.Repository {
	return &tenantRepository{db: db, logger: logger}
}

func (r *tenantRepository) Create(ctx context.Context, t *tenant.Tenant) error {
	query := `
	INSERT INTO tenants (
		id, email, role, team_id, timezone, language, currency,
		subscription_status, subscription_id, customer_id,
		access_disabled, banned, payment_failed,
		pms_sync_enabled, pms_sync_stopped_reason, revenue_targets,
		auto_pricing_enabled, auto_pricing_timezone,
		auto_pricing_last_attempt, auto_pricing_last_successful_run,
		auto_pricing_failed_attempts,
		created_at, updated_at, updated_by
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		$16, $17, $18, $19, $20, $21, $22, $23, $24
	)`

	_, err := r.db.GetQuerier(ctx).ExecContext(
		ctx, query,
		t.ID, t.Email, t.Role, t.TeamID, t.Timezone, t.Language, t.Currency,
		t.SubscriptionStatus, t.SubscriptionID, t.CustomerID,
		t.AccessDisabled, t.Banned, t.PaymentFailed,
		t.PMSSyncEnabled, t.PMSSyncStoppedReason, t.RevenueTargets,
		t.AutoPricing.Enabled, t.AutoPricing.Timezone,
		t.AutoPricing.LastAttempt, t.AutoPricing.LastSuccessfulRun,
		t.AutoPricing.FailedAttempts,
		t.CreatedAt, t.UpdatedAt, t.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create account").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *tenantRepository) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`

	var t tenant.Tenant
	err := r.db.GetQuerier(ctx).GetContext(ctx, &t, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to load account").
			Mark(ierr.ErrDatabase)
	}
	return &t, nil
}

func (r *tenantRepository) GetByCustomerID(ctx context.Context, customerID string) (*tenant.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE customer_id = $1`

	var t tenant.Tenant
	err := r.db.GetQuerier(ctx).GetContext(ctx, &t, query, customerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to load account").
			Mark(ierr.ErrDatabase)
	}
	return &t, nil
}

func (r *tenantRepository) Update(ctx context.Context, t *tenant.Tenant) error {
	t.UpdatedAt = time.Now().UTC()

	query := `
	UPDATE tenants SET
		email = $2, role = $3, team_id = $4, timezone = $5, language = $6,
		currency = $7, subscription_status = $8, subscription_id = $9,
		customer_id = $10, access_disabled = $11, banned = $12,
		payment_failed = $13, pms_sync_enabled = $14,
		pms_sync_stopped_reason = $15, revenue_targets = $16,
		auto_pricing_enabled = $17, auto_pricing_timezone = $18,
		auto_pricing_last_attempt = $19,
		auto_pricing_last_successful_run = $20,
		auto_pricing_failed_attempts = $21,
		updated_at = $22, updated_by = $23
	WHERE id = $1`

	_, err := r.db.GetQuerier(ctx).ExecContext(
		ctx, query,
		t.ID, t.Email, t.Role, t.TeamID, t.Timezone, t.Language, t.Currency,
		t.SubscriptionStatus, t.SubscriptionID, t.CustomerID,
		t.AccessDisabled, t.Banned, t.PaymentFailed,
		t.PMSSyncEnabled, t.PMSSyncStoppedReason, t.RevenueTargets,
		t.AutoPricing.Enabled, t.AutoPricing.Timezone,
		t.AutoPricing.LastAttempt, t.AutoPricing.LastSuccessfulRun,
		t.AutoPricing.FailedAttempts,
		t.UpdatedAt, t.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update account").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *tenantRepository) List(ctx context.Context) ([]*tenant.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants ORDER BY created_at`

	var tenants []*tenant.Tenant
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &tenants, query); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list accounts").
			Mark(ierr.ErrDatabase)
	}
	return tenants, nil
}

func (r *tenantRepository) ListAutoPricingEnabled(ctx context.Context) ([]*tenant.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE auto_pricing_enabled = true`

	var tenants []*tenant.Tenant
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &tenants, query); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list auto-pricing accounts").
			Mark(ierr.ErrDatabase)
	}
	return tenants, nil
}

func (r *tenantRepository) ListByTeam(ctx context.Context, teamID string) ([]*tenant.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE team_id = $1 OR id = $1`

	var tenants []*tenant.Tenant
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &tenants, query, teamID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list team members").
			Mark(ierr.ErrDatabase)
	}
	return tenants, nil
}
