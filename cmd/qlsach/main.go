package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	corecfg "github.com/qlsach-lab/catalog-ledger/internal/core/config"
	"github.com/qlsach-lab/catalog-ledger/internal/dispatch"
	"github.com/qlsach-lab/catalog-ledger/internal/gateway"
	"github.com/qlsach-lab/catalog-ledger/internal/ledger"
	"github.com/qlsach-lab/catalog-ledger/internal/metrics"
	"github.com/qlsach-lab/catalog-ledger/internal/reporting"
	"github.com/qlsach-lab/catalog-ledger/internal/server"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*configPath); err != nil {
		slog.Error("Exiting with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Shutdown complete")
}

func run(configPath string) error {
	// 1. Load Configuration
	cfg, err := corecfg.Load(configPath)
	if err != nil {
		return err
	}
	slog.Info("Loaded config",
		"catalog", cfg.Catalog.Backend,
		"activity", cfg.Activity.Backend,
		"report_cache", cfg.Reporting.Cache,
		"kafka", cfg.Publisher.Kafka.Enabled,
		"amqp", cfg.Publisher.AMQP.Enabled)

	reg := metrics.NewRegistry()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Initialize Storage
	st, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	// 3. Initialize Reporting
	cache, closeCache, err := openReportCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	reports := reporting.NewReports(reporting.NewAggregator(st.catalog, st.log), cache, cfg.Reporting.CacheTTL(), reg)

	// 4. Initialize Activity Publishers
	pub, closePublishers, err := openPublishers(cfg, reg)
	if err != nil {
		return err
	}
	defer closePublishers()

	// 5. Initialize Ledger
	opts := []ledger.Option{
		ledger.WithMetrics(reg),
		ledger.WithPublisher(pub),
		ledger.WithChangeHook(reports.OnChange),
	}
	if st.committer != nil {
		opts = append(opts, ledger.WithCommitter(st.committer))
	}
	svc := ledger.NewService(st.catalog, st.log, opts...)

	seed, err := seedSource(cfg)
	if err != nil {
		return err
	}
	if cfg.Seed.OnStart {
		n, err := svc.InitLedger(ctx, seed())
		if err != nil {
			return err
		}
		slog.Info("[Ledger] Seeded catalog on start", "created", n)
	}

	// 6. Initialize Dispatch and Server
	table := dispatch.NewTable(svc, reports, seed, reg)

	srvOpts := []server.Option{server.WithMetrics(reg)}
	if st.health != nil {
		srvOpts = append(srvOpts, server.WithHealthCheck("database", st.health))
	}
	srv := server.New(cfg.Server.Addr(), cfg.Server.Mode, srvOpts...)

	limiter := server.NewLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	gateway.NewService(table, limiter, reg, cfg.Server.MaxBodySizeMB).RegisterRoutes(srv.Engine)
	reports.RegisterRoutes(srv.Engine)

	// 7. Start Services
	g, gctx := errgroup.WithContext(ctx)
	if interval := cfg.Reporting.Interval(); interval > 0 {
		refresher := reporting.NewRefresher(interval, reports, cfg.Reporting.Windows, cfg.Reporting.Limit)
		g.Go(func() error { return refresher.Start(gctx) })
	} else {
		slog.Info("[Refresher] Disabled by config")
	}
	g.Go(func() error { return srv.Run(gctx) })

	return g.Wait()
}
