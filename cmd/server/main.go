package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/stayprice/stayprice/internal/api"
	v1 "github.com/stayprice/stayprice/internal/api/v1"
	"github.com/stayprice/stayprice/internal/cache"
	"github.com/stayprice/stayprice/internal/config"
	"github.com/stayprice/stayprice/internal/httpclient"
	"github.com/stayprice/stayprice/internal/integration/ai"
	stripeint "github.com/stayprice/stayprice/internal/integration/stripe"
	"github.com/stayprice/stayprice/internal/logger"
	"github.com/stayprice/stayprice/internal/pms"
	"github.com/stayprice/stayprice/internal/pms/beds24"
	"github.com/stayprice/stayprice/internal/pms/smoobu"
	"github.com/stayprice/stayprice/internal/postgres"
	"github.com/stayprice/stayprice/internal/repository"
	"github.com/stayprice/stayprice/internal/scheduler"
	"github.com/stayprice/stayprice/internal/service"
	"github.com/stayprice/stayprice/internal/types"
	"github.com/stayprice/stayprice/internal/validator"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			provideCache,

			// Postgres
			postgres.NewDB,

			// HTTP Client
			httpclient.NewDefaultClient,

			// Repositories
			repository.NewTenantRepository,
			repository.NewPropertyRepository,
			repository.NewGroupRepository,
			repository.NewBookingRepository,
			repository.NewPriceOverrideRepository,
			repository.NewIntegrationRepository,
			repository.NewPropertyLogRepository,
			repository.NewSysCacheRepository,
			repository.NewUsedListingRepository,

			// Integrations
			providePMSRegistry,
			stripeint.NewClient,
			provideBillingProvider,
			ai.NewClient,
		),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewTenantService,
			service.NewPMSSyncService,
			service.NewBillingService,
			service.NewPricingService,
			service.NewPropertyService,
			service.NewGroupService,
			service.NewBookingService,
			service.NewPMSImportService,
			service.NewWebhookService,
		),
	)

	// API and scheduler
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
			scheduler.New,
		),
		fx.Invoke(startServer),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideCache(log *logger.Logger) cache.Cache {
	return cache.Initialize(log)
}

func providePMSRegistry(cfg *config.Configuration, client httpclient.Client, log *logger.Logger) *pms.Registry {
	registry := pms.NewRegistry()
	registry.Register(types.PMSTypeSmoobu, smoobu.NewFactory(client, cfg.PMS.Smoobu.BaseURL, log))
	registry.Register(types.PMSTypeBeds24, beds24.NewFactory(client, cfg.PMS.Beds24.BaseURL, log))
	return registry
}

func provideBillingProvider(client *stripeint.Client) stripeint.Provider {
	return client
}

func provideHandlers(
	cfg *config.Configuration,
	logger *logger.Logger,
	stripeClient *stripeint.Client,
	propertyService *service.PropertyService,
	groupService *service.GroupService,
	bookingService *service.BookingService,
	tenantService *service.TenantService,
	billingService *service.BillingService,
	pmsImportService *service.PMSImportService,
	webhookService *service.WebhookService,
) api.Handlers {
	return api.Handlers{
		Property: v1.NewPropertyHandler(propertyService, logger),
		Group:    v1.NewGroupHandler(groupService, logger),
		Booking:  v1.NewBookingHandler(bookingService, logger),
		Tenant:   v1.NewTenantHandler(tenantService, billingService, logger),
		PMS:      v1.NewPMSHandler(pmsImportService, logger),
		Webhook:  v1.NewWebhookHandler(stripeClient, webhookService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, cfg, logger)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	db *postgres.DB,
	r *gin.Engine,
	sched *scheduler.Scheduler,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if cfg.Postgres.AutoMigrate {
				log.Info("applying schema migrations")
				if err := db.Migrate(ctx); err != nil {
					return err
				}
			}
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			if cfg.Scheduler.Enabled {
				log.Info("starting auto-pricing scheduler")
				sched.Start()
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			if cfg.Scheduler.Enabled {
				sched.Stop()
			}
			return srv.Shutdown(ctx)
		},
	})
}
