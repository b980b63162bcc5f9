package main

import (
	"github.com/midlandoil/storefront/internal/catalog"
	"github.com/midlandoil/storefront/internal/checkout"
	"github.com/midlandoil/storefront/internal/orders"
	"github.com/midlandoil/storefront/pkg/config"
	"github.com/midlandoil/storefront/pkg/db"
	"github.com/midlandoil/storefront/pkg/logger"
	"github.com/midlandoil/storefront/pkg/outbox"
	"github.com/midlandoil/storefront/pkg/redis"
)

func contentSource(dbClient *db.Client) catalog.ContentSource {
	if dbClient == nil {
		return catalog.UnconfiguredSource{}
	}
	return catalog.NewRepository(dbClient.DB())
}

// orderSink stores orders when a database is available. Without one every
// submission fails with the "not configured" message.
func orderSink(dbClient *db.Client, logg *logger.Logger) (checkout.OrderSink, error) {
	if dbClient == nil {
		return orders.UnconfiguredSink{}, nil
	}
	emitter := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	return orders.NewRepository(dbClient, emitter, logg)
}

func sessionStore(cfg *config.Config, redisClient *redis.Client) checkout.Store {
	if cfg.Checkout.Store(cfg.Redis) == config.SessionStoreRedis && redisClient != nil {
		return checkout.NewRedisStore(redisClient, cfg.Checkout.SessionTTL)
	}
	return checkout.NewMemoryStore(cfg.Checkout.SessionTTL)
}
