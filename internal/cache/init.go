package cache

import (
	"github.com/stayprice/stayprice/internal/logger"
)

// Initialize initializes the cache system
func Initialize(log *logger.Logger) *InMemoryCache {
	log.Info("Initializing cache system")
	return NewInMemoryCache()
}
