package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dwikikusuma/marketplace-cart/internal/cart/app"
	"github.com/dwikikusuma/marketplace-cart/internal/cart/infra/breaker"
	"github.com/dwikikusuma/marketplace-cart/internal/cart/infra/memkv"
	"github.com/dwikikusuma/marketplace-cart/internal/cart/infra/rediskv"
	"github.com/dwikikusuma/marketplace-cart/internal/cart/infra/sqlitekv"
	"github.com/dwikikusuma/marketplace-cart/pkg/config"
)

// openStorage builds the configured backend. The returned close func releases
// its connections.
func openStorage(ctx context.Context, cfg config.StorageConfig, log *slog.Logger) (app.Storage, func() error, error) {
	var (
		st      app.Storage
		closeFn = func() error { return nil }
	)

	switch cfg.Driver {
	case "memory":
		log.Warn("using in-memory storage, the cart will not survive restarts")
		st = memkv.New()

	case "redis":
		rdb := rediskv.NewClient(rediskv.Config{
			Addr:          cfg.RedisAddr,
			Password:      cfg.RedisPassword,
			DB:            cfg.RedisDB,
			SentinelAddrs: cfg.RedisSentinels,
			MasterName:    cfg.RedisMaster,
		})
		if err := rediskv.WaitReady(ctx, rdb, 10, log); err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		st = rediskv.New(rdb, cfg.RedisTTL)
		closeFn = rdb.Close

	case "sqlite":
		s, err := sqlitekv.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		st = s
		closeFn = s.Close

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	if cfg.Breaker {
		st = breaker.New(st, breaker.DefaultSettings("cart-storage-"+cfg.Driver), log)
	}
	log.Info("storage ready", slog.String("driver", cfg.Driver), slog.Bool("breaker", cfg.Breaker))
	return st, closeFn, nil
}
