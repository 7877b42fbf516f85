package service

import (
	"context"
	"math"

	"github.com/stayprice/stayprice/internal/domain/group"
	"github.com/stayprice/stayprice/internal/domain/property"
	"github.com/stayprice/stayprice/internal/domain/tenant"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/types"
)

const (
	// earthRadiusKm is the sphere radius used for great-circle distances
	earthRadiusKm = 6371.0

	// maxGroupDistanceMeters bounds how far a property may sit from the
	// group template
	maxGroupDistanceMeters = 500.0
)

// GroupService manages pricing groups: membership with geofencing and
// template coherence, the main-property designation, and the billing
// reconciliation every membership change triggers.
type GroupService struct {
	ServiceParams
	tenants *TenantService
	billing *BillingService
	pricing *PricingService
}

func NewGroupService(params ServiceParams, tenants *TenantService, billing *BillingService, pricing *PricingService) *GroupService {
	return &GroupService{
		ServiceParams: params,
		tenants:       tenants,
		billing:       billing,
		pricing:       pricing,
	}
}

// haversineMeters returns the great-circle distance between two coordinates
func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180

	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c * 1000
}

// authorizeGroup loads the tenant and checks group ownership
func (s *GroupService) authorizeGroup(ctx context.Context, groupID string) (*tenant.Tenant, *group.Group, error) {
	t, err := s.tenants.RequireActiveTenant(ctx, types.GetUserID(ctx))
	if err != nil {
		return nil, nil, err
	}

	g, err := s.GroupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	if g == nil {
		return nil, nil, ierr.NewError("group not found").
			WithHintf("No group exists with id %s", groupID).
			Mark(ierr.ErrNotFound)
	}
	if g.OwnerID != t.ID {
		others, err := s.TenantRepo.ListByTeam(ctx, t.EffectiveTeamID())
		if err != nil {
			return nil, nil, err
		}
		owned := false
		for _, member := range others {
			if member.ID == g.OwnerID {
				owned = true
				break
			}
		}
		if !owned {
			return nil, nil, ierr.NewError("group belongs to another team").
				WithHint("You can only manage groups of your own team").
				Mark(ierr.ErrPermissionDenied)
		}
	}
	return t, g, nil
}

// Create makes an empty group
func (s *GroupService) Create(ctx context.Context, name string, syncPrices bool) (*group.Group, error) {
	t, err := s.tenants.RequireActiveTenant(ctx, types.GetUserID(ctx))
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, ierr.NewError("group name is required").
			WithHint("Give the group a name").
			Mark(ierr.ErrValidation)
	}

	g := &group.Group{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_GROUP),
		OwnerID:    t.ID,
		Name:       name,
		SyncPrices: syncPrices,
		BaseModel:  types.GetDefaultBaseModel(ctx),
	}
	if err := s.GroupRepo.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// List returns the tenant's groups
func (s *GroupService) List(ctx context.Context) ([]*group.Group, error) {
	t, err := s.tenants.RequireActiveTenant(ctx, types.GetUserID(ctx))
	if err != nil {
		return nil, err
	}
	return s.GroupRepo.ListByOwner(ctx, t.ID)
}

// checkTemplateCoherence verifies a candidate matches the group's template
// property: same capacity, property type, comparable surface, and within
// the geofence radius.
func (s *GroupService) checkTemplateCoherence(ctx context.Context, g *group.Group, candidate *property.Property) error {
	templateID := g.TemplatePropertyID()
	if templateID == "" {
		return nil
	}

	template, err := s.PropertyRepo.GetByID(ctx, templateID)
	if err != nil {
		return err
	}
	if template == nil {
		return nil
	}

	if template.Capacity != candidate.Capacity {
		return ierr.NewError("capacity mismatch with group").
			WithHintf("The group hosts %d guests per property, this one hosts %d", template.Capacity, candidate.Capacity).
			Mark(ierr.ErrValidation)
	}
	if template.PropertyType != candidate.PropertyType {
		return ierr.NewError("property type mismatch with group").
			WithHintf("The group contains %s properties", template.PropertyType).
			Mark(ierr.ErrValidation)
	}
	if template.Surface > 0 && math.Abs(template.Surface-candidate.Surface)/template.Surface > 0.2 {
		return ierr.NewError("surface mismatch with group").
			WithHintf("The property's surface differs too much from the group's %.0f m2", template.Surface).
			Mark(ierr.ErrValidation)
	}

	if template.HasLocation() && candidate.HasLocation() {
		distance := haversineMeters(
			*template.Latitude, *template.Longitude,
			*candidate.Latitude, *candidate.Longitude,
		)
		if distance > maxGroupDistanceMeters {
			return ierr.NewError("property outside group geofence").
				WithHintf("The property is %.0f m from the group, the maximum is %.0f m", distance, maxGroupDistanceMeters).
				WithReportableDetails(map[string]any{
					"distance":    distance,
					"maxDistance": maxGroupDistanceMeters,
				}).
				Mark(ierr.ErrGeoFencing)
		}
	}
	return nil
}

// AddProperty adds a member after coherence and geofence checks, making it
// main if the group was empty, then reconciles billing
func (s *GroupService) AddProperty(ctx context.Context, groupID, propertyID string) (*group.Group, error) {
	t, g, err := s.authorizeGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	candidate, err := s.PropertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, ierr.NewError("property not found").
			WithHintf("No property exists with id %s", propertyID).
			Mark(ierr.ErrNotFound)
	}
	if candidate.TeamID != t.EffectiveTeamID() && candidate.OwnerID != t.ID {
		return nil, ierr.NewError("property belongs to another team").
			WithHint("You can only group properties of your own team").
			Mark(ierr.ErrPermissionDenied)
	}
	if g.HasMember(propertyID) {
		return g, nil
	}

	if existing, err := s.GroupRepo.GetByProperty(ctx, propertyID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ierr.NewError("property already grouped").
			WithHintf("The property already belongs to group %s", existing.Name).
			Mark(ierr.ErrAlreadyExists)
	}

	if err := s.checkTemplateCoherence(ctx, g, candidate); err != nil {
		return nil, err
	}

	if err := s.GroupRepo.AddProperty(ctx, g.ID, propertyID); err != nil {
		return nil, err
	}
	g.PropertyIDs = append(g.PropertyIDs, propertyID)

	if g.MainPropertyID == nil {
		g.MainPropertyID = &propertyID
		if err := s.GroupRepo.Update(ctx, g); err != nil {
			return nil, err
		}
	}

	s.pricing.appendLog(ctx, t, candidate, types.LogActionGroupMembership, map[string]any{
		"group_id": g.ID,
		"change":   "added",
	})
	s.billing.ReconcileBestEffort(ctx, t)
	return g, nil
}

// RemoveProperty drops a member. When the main property leaves, the first
// surviving member inherits the role.
func (s *GroupService) RemoveProperty(ctx context.Context, groupID, propertyID string) (*group.Group, error) {
	t, g, err := s.authorizeGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !g.HasMember(propertyID) {
		return g, nil
	}

	if err := s.GroupRepo.RemoveProperty(ctx, g.ID, propertyID); err != nil {
		return nil, err
	}

	survivors := make([]string, 0, len(g.PropertyIDs))
	for _, id := range g.PropertyIDs {
		if id != propertyID {
			survivors = append(survivors, id)
		}
	}
	g.PropertyIDs = survivors

	if g.MainPropertyID != nil && *g.MainPropertyID == propertyID {
		if len(survivors) > 0 {
			g.MainPropertyID = &survivors[0]
		} else {
			g.MainPropertyID = nil
		}
		if err := s.GroupRepo.Update(ctx, g); err != nil {
			return nil, err
		}
	}

	if prop, _ := s.PropertyRepo.GetByID(ctx, propertyID); prop != nil {
		s.pricing.appendLog(ctx, t, prop, types.LogActionGroupMembership, map[string]any{
			"group_id": g.ID,
			"change":   "removed",
		})
	}
	s.billing.ReconcileBestEffort(ctx, t)
	return g, nil
}

// SetMainProperty re-designates the group's main property
func (s *GroupService) SetMainProperty(ctx context.Context, groupID, propertyID string) (*group.Group, error) {
	t, g, err := s.authorizeGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !g.HasMember(propertyID) {
		return nil, ierr.NewError("property not in group").
			WithHint("The main property must be a member of the group").
			Mark(ierr.ErrInvalidOperation)
	}

	g.MainPropertyID = &propertyID
	if err := s.GroupRepo.Update(ctx, g); err != nil {
		return nil, err
	}

	// The parent unit may have moved to a different tier position
	s.billing.ReconcileBestEffort(ctx, t)
	return g, nil
}

// Delete removes the group and its join rows atomically, then reconciles:
// every former member becomes a parent unit
func (s *GroupService) Delete(ctx context.Context, groupID string) error {
	t, g, err := s.authorizeGroup(ctx, groupID)
	if err != nil {
		return err
	}

	if err := s.GroupRepo.Delete(ctx, g.ID); err != nil {
		return err
	}

	s.billing.ReconcileBestEffort(ctx, t)
	return nil
}
