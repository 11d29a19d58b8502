package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/panicstore/aggregate"
	"github.com/c360/panicstore/config"
	gatewayhttp "github.com/c360/panicstore/gateway/http"
	"github.com/c360/panicstore/health"
	"github.com/c360/panicstore/metric"
	"github.com/c360/panicstore/pkg/tlsutil"
	"github.com/c360/panicstore/storeclient"
)

// Service status values exported on panicstore_service_status
const (
	serviceStopped = iota
	serviceStarting
	serviceRunning
	serviceStopping
	serviceFailed
)

// app owns every long-lived component of the process
type app struct {
	cfg             *config.Config
	logger          *slog.Logger
	shutdownTimeout time.Duration

	registry      *metric.MetricsRegistry
	store         *storeclient.Client
	aggregator    *aggregate.Service
	monitor       *health.Monitor
	handler       *gatewayhttp.Handler
	api           *gatewayhttp.Server
	metricsServer *metric.Server
}

func newApp(cfg *config.Config, logger *slog.Logger, shutdownTimeout time.Duration) (*app, error) {
	a := &app{
		cfg:             cfg,
		logger:          logger,
		shutdownTimeout: shutdownTimeout,
		registry:        metric.NewMetricsRegistry(),
		monitor:         health.NewMonitor(),
	}
	core := a.registry.CoreMetrics()

	storeOpts := []storeclient.ClientOption{
		storeclient.WithDB(cfg.Store.DB),
		storeclient.WithPassword(cfg.Store.Password),
		storeclient.WithPolicy(cfg.Store.Retry.Policy()),
		storeclient.WithConnectTimeout(cfg.Store.ConnectTimeout),
		storeclient.WithHealthInterval(cfg.Store.HealthInterval),
		storeclient.WithLogger(logger),
		storeclient.WithMetrics(a.registry),
		storeclient.WithStatusCallback(func(s storeclient.ConnectionStatus) {
			core.RecordHealthStatus("store", s == storeclient.StatusConnected)
		}),
	}
	storeTLS, err := tlsutil.LoadStoreTLSConfig(cfg.Security.TLS.Store)
	if err != nil {
		return nil, fmt.Errorf("load store TLS: %w", err)
	}
	if storeTLS != nil {
		storeOpts = append(storeOpts, storeclient.WithTLS(storeTLS))
	}

	a.store, err = storeclient.NewClient(cfg.Store.Addr(), storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("create store client: %w", err)
	}

	a.aggregator, err = aggregate.NewService(a.store,
		aggregate.WithLogger(logger),
		aggregate.WithMetrics(a.registry))
	if err != nil {
		return nil, fmt.Errorf("create aggregator: %w", err)
	}

	a.monitor.Register("store", a.storeHealth)

	a.handler, err = gatewayhttp.NewHandler(a.aggregator, cfg.Server.Gateway,
		gatewayhttp.WithLogger(logger),
		gatewayhttp.WithHealth(a.monitor),
		gatewayhttp.WithMetrics(core))
	if err != nil {
		return nil, fmt.Errorf("create API handler: %w", err)
	}

	a.api, err = gatewayhttp.NewServer(cfg.Server.Addr(), a.handler.Routes(), cfg.Security, logger)
	if err != nil {
		return nil, fmt.Errorf("create API server: %w", err)
	}

	if cfg.Metrics.Enabled {
		a.metricsServer = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, a.registry, cfg.Security)
	}
	return a, nil
}

// storeHealth reports the store connection state to the health monitor
func (a *app) storeHealth() health.Status {
	st := a.store.GetStatus()
	return health.FromConnection("store", health.ConnectionReport{
		State:         st.Status.String(),
		Ready:         st.Status == storeclient.StatusConnected,
		RetryAttempts: st.RetryState.Attempts,
		LastError:     st.LastError,
		Connects:      st.Connects,
		LastConnected: st.LastConnected,
	})
}

// run serves until ctx is cancelled or a listener fails, then shuts down
func (a *app) run(ctx context.Context) error {
	core := a.registry.CoreMetrics()
	core.RecordServiceStatus(appName, serviceStarting)

	if err := a.api.Listen(); err != nil {
		core.RecordServiceStatus(appName, serviceFailed)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.store.Connect(gctx); err != nil {
			a.logger.Warn("initial store connection failed, retrying in background",
				"addr", a.store.Addr(), "error", err)
		}
		a.store.Supervise(gctx, a.cfg.Store.SuperviseInterval)
		return nil
	})

	g.Go(a.api.Serve)

	if a.metricsServer != nil {
		g.Go(func() error {
			a.logger.Info("metrics listening", "addr", a.metricsServer.Address())
			return a.metricsServer.Start()
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return a.shutdown()
	})

	core.RecordServiceStatus(appName, serviceRunning)
	a.logger.Info("panicstore started", "api", a.api.Addr(), "store", a.store.Addr())

	if err := g.Wait(); err != nil {
		core.RecordServiceStatus(appName, serviceFailed)
		return err
	}
	core.RecordServiceStatus(appName, serviceStopped)
	return nil
}

// shutdown drains the API first, then closes the store
func (a *app) shutdown() error {
	a.registry.CoreMetrics().RecordServiceStatus(appName, serviceStopping)
	a.logger.Info("shutting down", "timeout", a.shutdownTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	var firstErr error
	if err := a.api.Shutdown(ctx); err != nil {
		a.logger.Error("API shutdown", "error", err)
		firstErr = err
	}
	if a.metricsServer != nil {
		if err := a.metricsServer.Stop(); err != nil {
			a.logger.Error("metrics shutdown", "error", err)
		}
	}
	if err := a.store.Close(ctx); err != nil {
		a.logger.Error("store close", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
