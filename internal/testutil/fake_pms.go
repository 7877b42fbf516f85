package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/stayprice/stayprice/internal/pms"
	"github.com/stayprice/stayprice/internal/types"
)

// FakePMSAdapter records every call and can be primed with canned data or
// injected failures per operation
type FakePMSAdapter struct {
	mu sync.Mutex

	Properties   []pms.NormalizedProperty
	Reservations []pms.NormalizedReservation

	// Errs injects a failure per operation name, e.g. "UpdateBatchRates"
	Errs map[string]error

	// Calls records operation names in invocation order
	Calls []string

	// RatePushes records every batch rate push by property id
	RatePushes map[string][]pms.RateUpdate

	// SettingsPushes records settings pushes by property id
	SettingsPushes map[string][]pms.Settings

	nextReservationID int
}

func NewFakePMSAdapter() *FakePMSAdapter {
	return &FakePMSAdapter{
		Errs:           make(map[string]error),
		RatePushes:     make(map[string][]pms.RateUpdate),
		SettingsPushes: make(map[string][]pms.Settings),
	}
}

// Factory returns an AdapterFactory that always resolves to this fake
func (f *FakePMSAdapter) Factory() pms.AdapterFactory {
	return func(credentials types.Metadata) (pms.Adapter, error) {
		return f, nil
	}
}

// FailOn injects an error for the named operation
func (f *FakePMSAdapter) FailOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errs[op] = err
}

func (f *FakePMSAdapter) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, op)
	return f.Errs[op]
}

func (f *FakePMSAdapter) TestConnection(ctx context.Context) error {
	return f.record("TestConnection")
}

func (f *FakePMSAdapter) GetProperties(ctx context.Context) ([]pms.NormalizedProperty, error) {
	if err := f.record("GetProperties"); err != nil {
		return nil, err
	}
	return f.Properties, nil
}

func (f *FakePMSAdapter) GetReservations(ctx context.Context, from, to string) ([]pms.NormalizedReservation, error) {
	if err := f.record("GetReservations"); err != nil {
		return nil, err
	}
	return f.Reservations, nil
}

func (f *FakePMSAdapter) CreateReservation(ctx context.Context, pmsPropertyID string, data pms.ReservationData) (*pms.NormalizedReservation, error) {
	if err := f.record("CreateReservation"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.nextReservationID++
	id := fmt.Sprintf("res-%d", f.nextReservationID)
	f.mu.Unlock()
	return &pms.NormalizedReservation{PMSID: id, PropertyID: pmsPropertyID}, nil
}

func (f *FakePMSAdapter) UpdateReservation(ctx context.Context, pmsReservationID string, data pms.ReservationData) (*pms.NormalizedReservation, error) {
	if err := f.record("UpdateReservation"); err != nil {
		return nil, err
	}
	return &pms.NormalizedReservation{PMSID: pmsReservationID}, nil
}

func (f *FakePMSAdapter) DeleteReservation(ctx context.Context, pmsReservationID string) error {
	return f.record("DeleteReservation")
}

func (f *FakePMSAdapter) UpdatePropertySettings(ctx context.Context, pmsPropertyID string, settings pms.Settings) error {
	if err := f.record("UpdatePropertySettings"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SettingsPushes[pmsPropertyID] = append(f.SettingsPushes[pmsPropertyID], settings)
	return nil
}

func (f *FakePMSAdapter) UpdateRate(ctx context.Context, pmsPropertyID string, date string, price float64) error {
	if err := f.record("UpdateRate"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RatePushes[pmsPropertyID] = append(f.RatePushes[pmsPropertyID], pms.RateUpdate{Date: date, Price: price})
	return nil
}

func (f *FakePMSAdapter) UpdateBatchRates(ctx context.Context, pmsPropertyID string, updates []pms.RateUpdate) error {
	if err := f.record("UpdateBatchRates"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RatePushes[pmsPropertyID] = append(f.RatePushes[pmsPropertyID], updates...)
	return nil
}
