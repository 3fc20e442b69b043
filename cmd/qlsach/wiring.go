package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/qlsach-lab/catalog-ledger/internal/activity"
	v1 "github.com/qlsach-lab/catalog-ledger/internal/api/v1"
	corecfg "github.com/qlsach-lab/catalog-ledger/internal/core/config"
	"github.com/qlsach-lab/catalog-ledger/internal/core/storage"
	"github.com/qlsach-lab/catalog-ledger/internal/core/storage/filelog"
	"github.com/qlsach-lab/catalog-ledger/internal/core/storage/memory"
	"github.com/qlsach-lab/catalog-ledger/internal/core/storage/pebblestore"
	"github.com/qlsach-lab/catalog-ledger/internal/core/storage/postgres"
	"github.com/qlsach-lab/catalog-ledger/internal/ledger"
	"github.com/qlsach-lab/catalog-ledger/internal/metrics"
	"github.com/qlsach-lab/catalog-ledger/internal/migrations"
	"github.com/qlsach-lab/catalog-ledger/internal/reporting"
	"github.com/qlsach-lab/catalog-ledger/internal/server"
	"github.com/redis/go-redis/v9"
)

type closer func() error

// stores bundles the opened backends and their shutdown order.
type stores struct {
	catalog   storage.CatalogStore
	log       storage.ActivityLog
	committer storage.PurchaseCommitter
	health    server.HealthChecker
	closers   []closer
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			slog.Warn("Failed to close storage", "error", err)
		}
	}
}

type dbPinger struct{ db *sql.DB }

func (p dbPinger) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func openStorage(cfg *corecfg.Config) (_ *stores, err error) {
	st := &stores{}
	defer func() {
		if err != nil {
			st.Close()
		}
	}()

	var db *sql.DB
	if cfg.UsesPostgres() {
		db, err = postgres.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, db.Close)
		st.health = dbPinger{db: db}

		if err = migrations.Apply(db, cfg.Database.AutoMigrate); err != nil {
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	var pgCatalog *postgres.CatalogAdapter
	switch cfg.Catalog.Backend {
	case "memory":
		st.catalog = memory.NewCatalogStore()
	case "pebble":
		ps, perr := pebblestore.NewCatalogStore(cfg.Catalog.Path)
		if perr != nil {
			return nil, perr
		}
		st.closers = append(st.closers, ps.Close)
		st.catalog = ps
	case "postgres":
		pgCatalog, err = postgres.NewCatalogAdapter(db)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, pgCatalog.Close)
		st.catalog = pgCatalog
	}

	switch cfg.Activity.Backend {
	case "memory":
		st.log = memory.NewActivityLog()
	case "file":
		fl, ferr := filelog.Open(cfg.Activity.Dir, cfg.Activity.Filename)
		if ferr != nil {
			return nil, ferr
		}
		st.closers = append(st.closers, fl.Close)
		st.log = fl
	case "postgres":
		pa, aerr := postgres.NewActivityAdapter(db)
		if aerr != nil {
			return nil, aerr
		}
		st.closers = append(st.closers, pa.Close)
		st.log = pa
	}

	// Both sides in the same database: purchases commit in one transaction.
	if pgCatalog != nil && cfg.Activity.Backend == "postgres" {
		st.committer = pgCatalog
	}

	slog.Info("Storage initialized",
		"catalog", cfg.Catalog.Backend,
		"activity", cfg.Activity.Backend,
		"atomic_purchase", st.committer != nil)
	return st, nil
}

func openReportCache(ctx context.Context, cfg *corecfg.Config) (reporting.Cache, func(), error) {
	switch cfg.Reporting.Cache {
	case "memory":
		return reporting.NewMemoryCache(), func() {}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Reporting.Redis.Addr,
			Password: cfg.Reporting.Redis.Password,
			DB:       cfg.Reporting.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		slog.Info("[Reports] Using redis cache", "addr", cfg.Reporting.Redis.Addr)
		return reporting.NewRedisCache(client, cfg.Reporting.Redis.Prefix), func() { _ = client.Close() }, nil
	default:
		return reporting.NopCache{}, func() {}, nil
	}
}

func openPublishers(cfg *corecfg.Config, reg *metrics.Registry) (activity.Publisher, func(), error) {
	enc, err := activity.ParseEncoding(cfg.Publisher.Encoding)
	if err != nil {
		return nil, nil, err
	}

	var (
		pubs    activity.MultiPublisher
		closers []closer
	)
	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				slog.Warn("Failed to close publisher", "error", err)
			}
		}
	}

	if cfg.Publisher.Kafka.Enabled {
		kp := activity.NewKafkaPublisher(cfg.Publisher.Kafka.BrokerList(), cfg.Publisher.Kafka.Topic, enc)
		pubs = append(pubs, activity.Instrumented("kafka", kp, reg))
		closers = append(closers, kp.Close)
	}
	if cfg.Publisher.AMQP.Enabled {
		ap, err := activity.NewAMQPPublisher(cfg.Publisher.AMQP.URL, activity.AMQPOptions{
			Exchange:   cfg.Publisher.AMQP.Exchange,
			Encoding:   enc,
			MaxRetries: cfg.Publisher.AMQP.MaxRetries,
		})
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		pubs = append(pubs, activity.Instrumented("amqp", ap, reg))
		closers = append(closers, ap.Close)
	}

	if len(pubs) == 0 {
		return activity.NopPublisher{}, closeAll, nil
	}
	return pubs, closeAll, nil
}

// seedSource returns the records initLedger writes: the YAML seed dir when configured, else the built-in set.
func seedSource(cfg *corecfg.Config) (func() []v1.BookRecord, error) {
	if cfg.Seed.Path == "" {
		return ledger.DefaultSeed, nil
	}
	books, err := ledger.LoadSeedDir(cfg.Seed.Path)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		slog.Warn("[Ledger] Seed directory has no books, using built-in seed", "path", cfg.Seed.Path)
		return ledger.DefaultSeed, nil
	}
	return func() []v1.BookRecord { return books }, nil
}
