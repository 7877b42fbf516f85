package service

import (
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
	"github.com/stayprice/stayprice/internal/httpclient"
	"github.com/stayprice/stayprice/internal/integration/ai"
	stripeint "github.com/stayprice/stayprice/internal/integration/stripe"
	"github.com/stayprice/stayprice/internal/logger"
	"github.com/stayprice/stayprice/internal/pms"
	"github.com/stayprice/stayprice/internal/postgres"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     *postgres.DB
	Cache  cache.Cache

	// Repositories
	TenantRepo        tenant.Repository
	PropertyRepo      property.Repository
	GroupRepo         group.Repository
	BookingRepo       booking.Repository
	PriceOverrideRepo priceoverride.Repository
	IntegrationRepo   integration.Repository
	PropertyLogRepo   propertylog.Repository
	SysCacheRepo      syscache.Repository
	UsedListingRepo   usedlisting.Repository

	// Integrations
	PMSRegistry *pms.Registry
	Billing     stripeint.Provider
	AIClient    ai.Client

	// http client
	Client httpclient.Client
}

// NewServiceParams builds the common dependency bundle for fx
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db *postgres.DB,
	cacheClient cache.Cache,
	tenantRepo tenant.Repository,
	propertyRepo property.Repository,
	groupRepo group.Repository,
	bookingRepo booking.Repository,
	priceOverrideRepo priceoverride.Repository,
	integrationRepo integration.Repository,
	propertyLogRepo propertylog.Repository,
	sysCacheRepo syscache.Repository,
	usedListingRepo usedlisting.Repository,
	pmsRegistry *pms.Registry,
	billing stripeint.Provider,
	aiClient ai.Client,
	client httpclient.Client,
) ServiceParams {
	return ServiceParams{
		Logger:            logger,
		Config:            config,
		DB:                db,
		Cache:             cacheClient,
		TenantRepo:        tenantRepo,
		PropertyRepo:      propertyRepo,
		GroupRepo:         groupRepo,
		BookingRepo:       bookingRepo,
		PriceOverrideRepo: priceOverrideRepo,
		IntegrationRepo:   integrationRepo,
		PropertyLogRepo:   propertyLogRepo,
		SysCacheRepo:      sysCacheRepo,
		UsedListingRepo:   usedListingRepo,
		PMSRegistry:       pmsRegistry,
		Billing:           billing,
		AIClient:          aiClient,
		Client:            client,
	}
}
