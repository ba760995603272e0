package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"niederschlag-server/internal/bootstrap"
	"niederschlag-server/internal/config"
	db "niederschlag-server/internal/db"
	httpapi "niederschlag-server/internal/httpapi"
	"niederschlag-server/internal/migrate"
	"niederschlag-server/internal/modules/precipitation"
	"niederschlag-server/internal/mqtt"
	"niederschlag-server/internal/observability"
)

const mqttConnectTimeout = 5 * time.Second

// service is everything Run needs to serve, built and bootstrapped.
type service struct {
	db        *sqlx.DB
	handler   http.Handler
	publisher *mqtt.Publisher
	ready     *atomic.Bool
}

func (s *service) close(logger *slog.Logger) {
	if s.publisher != nil {
		logger.Info("mqtt disconnecting")
		s.publisher.Disconnect()
	}
	if err := db.Close(s.db); err != nil {
		logger.Error("db close", "error", err)
	}
}

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	return run(ctx, cfg, logger, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, reg prometheus.Registerer, gatherer prometheus.Gatherer) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"dbDriver", cfg.DBDriver,
		"sqlitePath", cfg.SQLitePath,
		"dbMaxOpenConns", cfg.DBMaxOpenConns,
		"dbMaxIdleConns", cfg.DBMaxIdleConns,
		"dbConnMaxLifetime", cfg.DBConnMaxLifetime,
		"snapshotPath", cfg.SnapshotPath,
		"bootstrapMode", cfg.BootstrapMode,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
	)

	svc, err := build(ctx, cfg, logger, reg, gatherer)
	if err != nil {
		return err
	}
	defer svc.close(logger)

	srv := httpapi.NewServer(cfg, svc.handler)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

// build opens the store, creates the schema, loads the snapshot and
// assembles the HTTP handler. A bootstrap failure aborts startup.
func build(ctx context.Context, cfg config.Config, logger *slog.Logger, reg prometheus.Registerer, gatherer prometheus.Gatherer) (_ *service, err error) {
	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	svc := &service{db: dbConn, ready: &atomic.Bool{}}
	defer func() {
		if err != nil {
			svc.close(logger)
		}
	}()

	if err := migrate.Run(ctx, dbConn, logger); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info("database ready", "driver", dbConn.DriverName())

	metrics := observability.NewMetrics(reg)
	mux := httpapi.NewMux(dbConn, svc.ready, gatherer)
	repo := precipitation.RegisterFeature(mux, dbConn)

	opts := []bootstrap.Option{bootstrap.WithMetrics(metrics)}
	if cfg.MQTTEnabled() {
		svc.publisher = mqtt.NewPublisher(cfg, logger)
		connectCtx, connectCancel := context.WithTimeout(ctx, mqttConnectTimeout)
		err := svc.publisher.Connect(connectCtx)
		connectCancel()
		if err != nil {
			logger.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
		opts = append(opts, bootstrap.WithNotifier(svc.publisher))
	}

	loader := bootstrap.NewLoader(repo, snapshotFor(cfg), cfg.BootstrapMode, logger, opts...)
	if _, err := loader.Load(ctx); err != nil {
		return nil, err
	}
	svc.ready.Store(true)

	svc.handler = httpapi.Handler(mux, logger, metrics, nil)
	return svc, nil
}

func snapshotFor(cfg config.Config) bootstrap.Snapshot {
	if cfg.SnapshotPath != "" {
		return bootstrap.FileSnapshot(cfg.SnapshotPath)
	}
	return bootstrap.EmbeddedSnapshot()
}
