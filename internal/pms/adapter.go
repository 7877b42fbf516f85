package pms

import (
	"context"

	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/types"
)

// Adapter is the capability set every PMS backend must implement. Adapters
// translate between the canonical wire format and the backend's native API;
// retry and propagation policy belong to the caller.
type Adapter interface {
	// TestConnection verifies the stored credentials against the backend
	TestConnection(ctx context.Context) error

	// GetProperties lists the remote properties visible to the credentials
	GetProperties(ctx context.Context) ([]NormalizedProperty, error)

	// GetReservations lists reservations overlapping [from, to] (YYYY-MM-DD)
	GetReservations(ctx context.Context, from, to string) ([]NormalizedReservation, error)

	// CreateReservation creates a reservation on the remote property
	CreateReservation(ctx context.Context, pmsPropertyID string, data ReservationData) (*NormalizedReservation, error)

	// UpdateReservation updates an existing remote reservation
	UpdateReservation(ctx context.Context, pmsReservationID string, data ReservationData) (*NormalizedReservation, error)

	// DeleteReservation cancels or removes a remote reservation
	DeleteReservation(ctx context.Context, pmsReservationID string) error

	// UpdatePropertySettings pushes a partial settings update
	UpdatePropertySettings(ctx context.Context, pmsPropertyID string, settings Settings) error

	// UpdateRate pushes a single day's rate
	UpdateRate(ctx context.Context, pmsPropertyID string, date string, price float64) error

	// UpdateBatchRates pushes many rates, coalescing same-price date runs
	// where the backend supports it
	UpdateBatchRates(ctx context.Context, pmsPropertyID string, updates []RateUpdate) error
}

// AdapterFactory builds an adapter bound to a tenant's credentials
type AdapterFactory func(credentials types.Metadata) (Adapter, error)

// Registry resolves a PMS type to an adapter factory. It is populated once
// at boot and read-only afterwards.
type Registry struct {
	factories map[types.PMSType]AdapterFactory
}

// NewRegistry creates an empty adapter registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[types.PMSType]AdapterFactory)}
}

// Register binds a factory to a PMS type, replacing any previous binding
func (r *Registry) Register(pmsType types.PMSType, factory AdapterFactory) {
	r.factories[pmsType] = factory
}

// Resolve builds an adapter for the given type and credentials
func (r *Registry) Resolve(pmsType types.PMSType, credentials types.Metadata) (Adapter, error) {
	factory, ok := r.factories[pmsType]
	if !ok {
		return nil, ierr.NewError("unsupported pms type").
			WithHintf("No adapter is registered for PMS type %s", pmsType).
			WithReportableDetails(map[string]any{"type": pmsType}).
			Mark(ierr.ErrValidation)
	}
	return factory(credentials)
}

// Supports reports whether an adapter is registered for the given type
func (r *Registry) Supports(pmsType types.PMSType) bool {
	_, ok := r.factories[pmsType]
	return ok
}
