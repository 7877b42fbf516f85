package repository

import (
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
	"github.com/stayprice/stayprice/internal/postgres"
	postgresRepo "github.com/stayprice/stayprice/internal/repository/postgres"
)

func NewTenantRepository(db *postgres.DB, logger *logger.Logger) tenant.Repository {
	return postgresRepo.NewTenantRepository(db, logger)
}

func NewPropertyRepository(db *postgres.DB, logger *logger.Logger) property.Repository {
	return postgresRepo.NewPropertyRepository(db, logger)
}

func NewGroupRepository(db *postgres.DB, logger *logger.Logger) group.Repository {
	return postgresRepo.NewGroupRepository(db, logger)
}

func NewBookingRepository(db *postgres.DB, logger *logger.Logger) booking.Repository {
	return postgresRepo.NewBookingRepository(db, logger)
}

func NewPriceOverrideRepository(db *postgres.DB, logger *logger.Logger) priceoverride.Repository {
	return postgresRepo.NewPriceOverrideRepository(db, logger)
}

func NewIntegrationRepository(db *postgres.DB, logger *logger.Logger) integration.Repository {
	return postgresRepo.NewIntegrationRepository(db, logger)
}

func NewPropertyLogRepository(db *postgres.DB, logger *logger.Logger) propertylog.Repository {
	return postgresRepo.NewPropertyLogRepository(db, logger)
}

func NewSysCacheRepository(db *postgres.DB, logger *logger.Logger) syscache.Repository {
	return postgresRepo.NewSysCacheRepository(db, logger)
}

func NewUsedListingRepository(db *postgres.DB, logger *logger.Logger) usedlisting.Repository {
	return postgresRepo.NewUsedListingRepository(db, logger)
}
