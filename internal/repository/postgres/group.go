package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/stayprice/stayprice/internal/domain/group"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/logger"
	"github.com/stayprice/stayprice/internal/postgres"
)

type groupRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewGroupRepository(db *postgres.DB, logger *logger.Logger) group.Repository {
	return &groupRepository{db: db, logger: logger}
}

func (r *groupRepository) Create(ctx context.Context, g *group.Group) error {
	query := `
	INSERT INTO groups (
		id, owner_id, name, sync_prices, main_property_id,
		created_at, updated_at, updated_by
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.GetQuerier(ctx).ExecContext(
		ctx, query,
		g.ID, g.OwnerID, g.Name, g.SyncPrices, g.MainPropertyID,
		g.CreatedAt, g.UpdatedAt, g.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create group").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*group.Group, error) {
	query := `SELECT * FROM groups WHERE id = $1`

	var g group.Group
	err := r.db.GetQuerier(ctx).GetContext(ctx, &g, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to load group").
			Mark(ierr.ErrDatabase)
	}

	if err := r.loadMembers(ctx, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *groupRepository) Update(ctx context.Context, g *group.Group) error {
	g.UpdatedAt = time.Now().UTC()

	query := `
	UPDATE groups SET
		name = $2, sync_prices = $3, main_property_id = $4,
		updated_at = $5, updated_by = $6
	WHERE id = $1`

	_, err := r.db.GetQuerier(ctx).ExecContext(
		ctx, query,
		g.ID, g.Name, g.SyncPrices, g.MainPropertyID,
		g.UpdatedAt, g.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update group").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// Delete removes the group and its membership rows in one transaction
func (r *groupRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithTx(ctx, func(ctx context.Context) error {
		q := r.db.GetQuerier(ctx)
		if _, err := q.ExecContext(ctx, `DELETE FROM group_properties WHERE group_id = $1`, id); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to delete group membership").
				Mark(ierr.ErrDatabase)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to delete group").
				Mark(ierr.ErrDatabase)
		}
		return nil
	})
}

func (r *groupRepository) ListByOwner(ctx context.Context, ownerID string) ([]*group.Group, error) {
	query := `SELECT * FROM groups WHERE owner_id = $1 ORDER BY created_at`

	var groups []*group.Group
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &groups, query, ownerID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list groups").
			Mark(ierr.ErrDatabase)
	}

	for _, g := range groups {
		if err := r.loadMembers(ctx, g); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

func (r *groupRepository) AddProperty(ctx context.Context, groupID, propertyID string) error {
	query := `
	INSERT INTO group_properties (group_id, property_id)
	VALUES ($1, $2)
	ON CONFLICT (group_id, property_id) DO NOTHING`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, groupID, propertyID)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to add property to group").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *groupRepository) RemoveProperty(ctx context.Context, groupID, propertyID string) error {
	query := `DELETE FROM group_properties WHERE group_id = $1 AND property_id = $2`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, groupID, propertyID)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to remove property from group").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *groupRepository) GetByProperty(ctx context.Context, propertyID string) (*group.Group, error) {
	query := `
	SELECT g.* FROM groups g
	JOIN group_properties gp ON gp.group_id = g.id
	WHERE gp.property_id = $1`

	var g group.Group
	err := r.db.GetQuerier(ctx).GetContext(ctx, &g, query, propertyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to load group for property").
			Mark(ierr.ErrDatabase)
	}

	if err := r.loadMembers(ctx, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *groupRepository) loadMembers(ctx context.Context, g *group.Group) error {
	query := `
	SELECT property_id FROM group_properties
	WHERE group_id = $1
	ORDER BY property_id`

	var ids []string
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &ids, query, g.ID); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to load group membership").
			Mark(ierr.ErrDatabase)
	}
	g.PropertyIDs = ids
	return nil
}
