package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"storefront/client"
	"storefront/internal/config"
	"storefront/internal/repository"
	"storefront/pkg/constraints"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	clientv3 "go.etcd.io/etcd/client/v3"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newDisplayStore builds the configured display profile backend. The
// returned func releases its connection.
func newDisplayStore(ctx context.Context, cfg *config.Config) (client.DisplayStore, func(), error) {
	ns := strings.Trim(cfg.Store.Namespace, ":/")
	if ns == "" {
		ns = "storefront"
	}

	switch cfg.Store.Driver {
	case "", "memory":
		return client.NewMemoryStore(), func() {}, nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return repository.NewRedisDisplayStore(rdb, ns+":display:", cfg.Store.TTL), func() { rdb.Close() }, nil

	case "etcd":
		cli, err := clientv3.New(clientv3.Config{
			Endpoints:   cfg.Etcd.Endpoints,
			DialTimeout: cfg.Etcd.DialTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to etcd: %w", err)
		}
		store := repository.NewEtcdDisplayStore(cli, "/"+ns+"/display")
		if err := store.Health(ctx); err != nil {
			cli.Close()
			return nil, nil, fmt.Errorf("etcd unhealthy: %w", err)
		}
		return store, func() { cli.Close() }, nil

	case "mysql":
		db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to mysql: %w", err)
		}
		if err := repository.MigrateDisplay(db); err != nil {
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		closer := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		return repository.NewMySQLDisplayStore(db, ns), closer, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// requestIDTransport stamps every outbound call with a fresh X-Request-ID so
// CLI calls can be found in the backend log.
type requestIDTransport struct {
	base http.RoundTripper
}

func (t requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(constraints.HeaderRequestID) == "" {
		req = req.Clone(req.Context())
		req.Header.Set(constraints.HeaderRequestID, uuid.NewString())
	}
	return t.base.RoundTrip(req)
}
