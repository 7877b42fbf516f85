package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/stayprice/stayprice/internal/cache"
	"github.com/stayprice/stayprice/internal/config"
	"github.com/stayprice/stayprice/internal/domain/booking"
	"github.com/stayprice/stayprice/internal/domain/group"
	"github.com/stayprice/stayprice/internal/domain/integration"
	"github.com/stayprice/stayprice/internal/domain/priceoverride"
	"github.com/stayprice/stayprice/internal/domain/property"
	"github.com/stayprice/stayprice/internal/domain/propertylog"
	"github.com/stayprice/stayprice/internal/domain/syscache"
	"github.com/stayprice/stayprice/internal/domain/tenant"
	"github.com/stayprice/stayprice/internal/domain/usedlisting"
	"github.com/stayprice/stayprice/internal/logger"
	"github.com/stayprice/stayprice/internal/pms"
	"github.com/stayprice/stayprice/internal/types"
	"github.com/stayprice/stayprice/internal/validator"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	TenantRepo        tenant.Repository
	PropertyRepo      property.Repository
	GroupRepo         group.Repository
	BookingRepo       booking.Repository
	PriceOverrideRepo priceoverride.Repository
	IntegrationRepo   integration.Repository
	PropertyLogRepo   propertylog.Repository
	SysCacheRepo      syscache.Repository
	UsedListingRepo   usedlisting.Repository
}

// BaseServiceTestSuite provides common functionality for all service test
// suites: in-memory stores, fake integrations and a request context.
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	stores Stores

	pmsAdapter *FakePMSAdapter
	registry   *pms.Registry
	billing    *FakeBillingProvider
	aiClient   *FakeAIClient

	cache  cache.Cache
	logger *logger.Logger
	config *config.Configuration
	now    time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	cfg := config.GetDefaultConfig()
	s.config = cfg

	var err error
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}

	s.cache = cache.Initialize(s.logger)
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
	s.cache.Flush(s.ctx)
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		TenantRepo:        NewInMemoryTenantStore(),
		PropertyRepo:      NewInMemoryPropertyStore(),
		GroupRepo:         NewInMemoryGroupStore(),
		BookingRepo:       NewInMemoryBookingStore(),
		PriceOverrideRepo: NewInMemoryPriceOverrideStore(),
		IntegrationRepo:   NewInMemoryIntegrationStore(),
		PropertyLogRepo:   NewInMemoryPropertyLogStore(),
		SysCacheRepo:      NewInMemorySysCacheStore(),
		UsedListingRepo:   NewInMemoryUsedListingStore(),
	}

	s.pmsAdapter = NewFakePMSAdapter()
	s.registry = pms.NewRegistry()
	s.registry.Register(types.PMSTypeSmoobu, s.pmsAdapter.Factory())
	s.registry.Register(types.PMSTypeBeds24, s.pmsAdapter.Factory())

	s.billing = NewFakeBillingProvider()
	s.aiClient = NewFakeAIClient()
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.TenantRepo.(*InMemoryTenantStore).Clear()
	s.stores.PropertyRepo.(*InMemoryPropertyStore).Clear()
	s.stores.GroupRepo.(*InMemoryGroupStore).Clear()
	s.stores.BookingRepo.(*InMemoryBookingStore).Clear()
	s.stores.PriceOverrideRepo.(*InMemoryPriceOverrideStore).Clear()
	s.stores.IntegrationRepo.(*InMemoryIntegrationStore).Clear()
	s.stores.PropertyLogRepo.(*InMemoryPropertyLogStore).Clear()
	s.stores.SysCacheRepo.(*InMemorySysCacheStore).Clear()
	s.stores.UsedListingRepo.(*InMemoryUsedListingStore).Clear()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// SetContextUser re-authenticates the test context as the given user
func (s *BaseServiceTestSuite) SetContextUser(userID string) {
	s.ctx = SetupContextForUser(userID)
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetCache returns the shared test cache
func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

// GetPMSAdapter returns the fake PMS adapter behind the registry
func (s *BaseServiceTestSuite) GetPMSAdapter() *FakePMSAdapter {
	return s.pmsAdapter
}

// GetPMSRegistry returns the registry wired to the fake adapter
func (s *BaseServiceTestSuite) GetPMSRegistry() *pms.Registry {
	return s.registry
}

// GetBillingProvider returns the fake payment provider
func (s *BaseServiceTestSuite) GetBillingProvider() *FakeBillingProvider {
	return s.billing
}

// GetAIClient returns the fake AI completion client
func (s *BaseServiceTestSuite) GetAIClient() *FakeAIClient {
	return s.aiClient
}

// GetNow returns the suite's frozen reference time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
