package main

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"ProductDesk/internal/catalog"
	"ProductDesk/internal/config"
	"ProductDesk/internal/kv"
	"ProductDesk/pkg/kit"
)

func main() {
	service := "productdesk"

	cfg, err := config.Load(config.DefaultSources())
	if err != nil {
		log := kit.NewLogger(service, "info")
		log.Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.Log.Level)
	defer func() { _ = log.Sync() }()
	log.Debug("effective config\n" + cfg.String())

	ctx := context.Background()

	backend, err := kv.Open(ctx, cfg.Storage.Driver, cfg.Storage.Target())
	if err != nil {
		log.Fatal("open storage failed", zap.Error(err), zap.String("driver", cfg.Storage.Driver))
	}
	defer func() { _ = backend.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store := catalog.Open(ctx, catalog.StoreDeps{
		KV:      kv.WithNamespace(backend, cfg.Storage.Namespace),
		Log:     log.Named("catalog"),
		Metrics: catalog.NewMetrics(reg),
	})

	var tokens *catalog.TokenMaker
	if cfg.Auth.JWTSecret != "" {
		tokens = catalog.NewTokenMaker(cfg.Auth.JWTSecret)
	} else {
		log.Warn("auth.jwtsecret not set, catalog writes are unauthenticated")
	}

	h := catalog.NewHandler(&catalog.Server{Store: store, Log: log}, catalog.HTTPDeps{
		Log:             log,
		Service:         service,
		Registry:        reg,
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsToken:    cfg.Metrics.Token,
		Tokens:          tokens,
		WritesPerMinute: cfg.RateLimit.WritesPerMinute,
	})

	err = kit.RunHTTPServer(ctx, ":"+strconv.Itoa(cfg.Server.Port), h, log, kit.ServerOptions{
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
