// @title        Air Quality Monitor API
// @version      1.0
// @description  Temperature and humidity readings over a trailing window, with summaries and an air-quality status.
// @BasePath     /
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "air_quality_monitor/docs"
	"air_quality_monitor/internal/clock"
	"air_quality_monitor/internal/config"
	"air_quality_monitor/internal/handlers"
	"air_quality_monitor/internal/logger"
	"air_quality_monitor/internal/repository"
	"air_quality_monitor/internal/repository/db"
	"air_quality_monitor/internal/server"
	"air_quality_monitor/internal/service"
	"air_quality_monitor/internal/source"

	amqp "github.com/rabbitmq/amqp091-go"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// load configs/config.yml + AQM_* env
	cfg, err := config.Load("configs")
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Init(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	// open DB
	sqlDB, err := openDB(cfg.DB.Path, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// build the ingestion adapter
	adapter, closeSource := buildAdapter(cfg, log)
	defer closeSource()

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	services := service.NewService(repos, service.Options{
		Clock:  clock.Wall,
		Window: cfg.Engine.Window,
		Log:    log,
	})
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		services.Engine.Run(ctx, adapter, cfg.Engine.Tick)
	}()

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Server.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, engineDone, srv, log)
}

// openDB initializes the SQLite event log.
func openDB(path string, log *logger.Logger) (*sql.DB, error) {
	if path == "" {
		log.Infow("db.path not set in config; using default file", "default", "app.db")
		path = "app.db"
	}
	return db.InitDB(path)
}

// buildAdapter selects the source from configuration. A source that cannot be
// reached at startup yields an adapter that reports it as unavailable, so the
// dashboard still comes up.
func buildAdapter(cfg *config.Config, log *logger.Logger) (source.Adapter, func()) {
	noop := func() {}
	src := cfg.Source

	switch src.Kind {
	case config.SourceStream:
		feed, closeFeed, err := buildFeed(src.Stream, log)
		if err != nil {
			log.Errorw("stream_connect_failed", "transport", src.Stream.Transport, "err", err)
			return source.NewUnavailable(source.KindStream, err), noop
		}
		log.Infow("source_configured", "kind", source.KindStream, "transport", src.Stream.Transport, "path", src.Stream.Path)
		return source.NewStreamAdapter(feed, src.Stream.Path), closeFeed

	default:
		fetcher, err := buildFetcher(src.Snapshot)
		if err != nil {
			log.Errorw("snapshot_fetcher_failed", "err", err)
			return source.NewUnavailable(source.KindSnapshot, err), noop
		}
		cols := source.Columns{
			Timestamp:   src.Columns.Timestamp,
			Temperature: src.Columns.Temperature,
			Humidity:    src.Columns.Humidity,
		}
		log.Infow("source_configured", "kind", source.KindSnapshot, "format", src.Snapshot.Format)
		return source.NewSnapshotAdapter(fetcher, src.Snapshot.Format, cols), noop
	}
}

func buildFetcher(c config.SnapshotConfig) (source.Fetcher, error) {
	if c.S3.Bucket != "" {
		return source.NewS3Fetcher(source.S3Config{
			Endpoint:  c.S3.Endpoint,
			AccessKey: c.S3.AccessKey,
			SecretKey: c.S3.SecretKey,
			Bucket:    c.S3.Bucket,
			Key:       c.S3.Object,
			Secure:    c.S3.UseSSL,
		})
	}
	return source.NewHTTPFetcher(c.URL, source.NewDefaultHTTPClient(c.Timeout)), nil
}

func buildFeed(c config.StreamConfig, log *logger.Logger) (source.Feed, func(), error) {
	switch c.Transport {
	case config.TransportAMQP:
		conn, err := amqp.Dial(c.AMQP.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("amqp dial: %w", err)
		}
		return source.NewAMQPFeed(conn, log), func() { _ = conn.Close() }, nil
	default:
		client, err := source.NewRedisClient(c.Redis.Addr, c.Redis.Password, c.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		feed := source.NewRedisFeed(client, c.Redis.DB, c.Redis.EnableNotifications, log)
		return feed, func() { _ = client.Close() }, nil
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, engineDone <-chan struct{}, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop the engine; this closes live WebSocket subscriptions too
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	select {
	case <-engineDone:
	case <-ctx.Done():
		log.Warnw("engine did not stop in time")
	}

	// allow in-flight requests to complete
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
