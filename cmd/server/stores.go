package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rl1809/storefront/internal/adapter/handler"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/adapter/storage/memory"
	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/port"
)

type stores struct {
	products port.ProductRepository
	orders   port.OrderRepository
	accounts port.AccountRepository
	cache    port.LocalCartCache
	sessions port.SessionStore
	images   port.ImageStore

	mysql   *storage.MySQLAdapter
	mongo   *storage.MongoAdapter
	health  map[string]handler.HealthCheck
	closers []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func memoryStores() *stores {
	catalog := memory.NewCatalog()
	carts := memory.NewLocalCarts()
	return &stores{
		products: catalog,
		orders:   catalog,
		accounts: memory.NewAccounts(),
		cache:    carts,
		sessions: memory.NewSessions(),
		images:   memory.NewImages(),
		health:   map[string]handler.HealthCheck{},
	}
}

func openStores(ctx context.Context, opts *rootOptions) (*stores, error) {
	if opts.memory {
		opts.log.Warn("using in-memory stores, nothing survives a restart")
		return memoryStores(), nil
	}
	cfg, log := opts.cfg, opts.log
	s := &stores{health: map[string]handler.HealthCheck{}}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	s.closers = append(s.closers, func() { db.Close() })
	if err := db.PingContext(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	log.Info("connected to mysql")
	s.mysql = storage.NewMySQLAdapter(db)
	s.products, s.orders, s.accounts = s.mysql, s.mysql, s.mysql
	s.health["mysql"] = db.PingContext

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	s.closers = append(s.closers, func() { rdb.Close() })
	if err := rdb.Ping(ctx).Err(); err != nil {
		s.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	log.Info("connected to redis")
	redisAdapter := storage.NewRedisAdapter(rdb, cfg.LocalCartTTL, cfg.SessionTTL)
	s.cache, s.sessions = redisAdapter, redisAdapter
	s.health["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }

	if cfg.AccountStore == config.AccountStoreMongo || cfg.ImageStore == config.ImageStoreGridFS {
		if err := s.openMongo(ctx, cfg, log); err != nil {
			s.Close()
			return nil, err
		}
	}
	if s.images == nil {
		log.Warn("images kept in memory, uploads do not survive a restart")
		s.images = memory.NewImages()
	}
	log.WithFields(logrus.Fields{
		"account_store": cfg.AccountStore,
		"image_store":   cfg.ImageStore,
	}).Info("stores ready")
	return s, nil
}

func (s *stores) openMongo(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	s.closers = append(s.closers, func() { client.Disconnect(context.Background()) })
	if err := client.Ping(connectCtx, nil); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}
	log.Info("connected to mongo")

	db := client.Database(cfg.MongoDatabase)
	if cfg.AccountStore == config.AccountStoreMongo {
		s.mongo = storage.NewMongoAdapter(db)
		s.accounts = s.mongo
	}
	if cfg.ImageStore == config.ImageStoreGridFS {
		s.images = storage.NewGridFSImageStore(db)
	}
	s.health["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	return nil
}
