/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the front-desk server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load config (.env, environment), then apply command-line flags
  2. Open the store (SQLite or MySQL) and apply the schema
  3. Optionally connect Redis (room-type cache) and RabbitMQ (events)
  4. Build the engine and API handler
  5. Serve the API and the metrics endpoint until a signal arrives

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides HTTP_ADDR)
  -db      Database DSN or SQLite path (overrides DB_DSN)
           Use ":memory:" for in-memory database
  -driver  sqlite3 or mysql (overrides DB_DRIVER)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections on both listeners
  2. Wait for active requests to complete (30s timeout)
  3. Close broker, cache and database connections
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/frontdesk.db"

  # Run against MySQL
  ./server -driver=mysql -db="fd:fd@tcp(localhost:3306)/frontdesk"

SEE ALSO:
  - config/config.go: Environment keys
  - api/server.go: Router configuration
  - store/sqldb: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/warp/frontdesk/api"
	"github.com/warp/frontdesk/broker/rabbitmq"
	"github.com/warp/frontdesk/cache/rediscache"
	"github.com/warp/frontdesk/config"
	"github.com/warp/frontdesk/frontdesk"
	"github.com/warp/frontdesk/observability"
	"github.com/warp/frontdesk/store/sqldb"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()

	// Flags
	port := flag.Int("port", 0, "HTTP server port (overrides HTTP_ADDR)")
	dsn := flag.String("db", "", "database DSN or SQLite path (overrides DB_DSN)")
	driver := flag.String("driver", "", "sqlite3 or mysql (overrides DB_DRIVER)")
	flag.Parse()
	if *port > 0 {
		cfg.HTTPAddr = fmt.Sprintf(":%d", *port)
	}
	if *dsn != "" {
		cfg.DBDSN = *dsn
	}
	if *driver != "" {
		cfg.DBDriver = *driver
	}

	logger := observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
	logger.Info().Msg("server stopped")
}

func run(cfg config.Config, logger zerolog.Logger) error {
	reg := observability.InitRegistry()

	// Initialize store
	store, err := sqldb.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()
	logger.Info().Str("driver", store.Driver()).Msg("database ready")

	opts := []frontdesk.Option{frontdesk.WithLogger(logger), frontdesk.WithCurrency(cfg.Currency)}

	var catalog api.CatalogCache
	if cfg.RedisAddr != "" {
		rdb := rediscache.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable; cache will fall through")
		}
		cache := rediscache.New(rdb, store, cfg.CacheTTL, logger)
		opts = append(opts, frontdesk.WithRoomTypes(cache))
		catalog = cache
	}

	if cfg.AMQPURL != "" {
		pub, err := rabbitmq.Dial(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			return fmt.Errorf("connect broker: %w", err)
		}
		defer pub.Close()
		opts = append(opts, frontdesk.WithPublisher(pub))
	}

	engine := frontdesk.NewEngine(store, opts...)

	// Initialize handler
	handler := api.NewHandler(engine, store, api.NewAuthenticator(cfg.JWTSecret, cfg.TokenTTL), logger)
	handler.Catalog = catalog

	router := api.NewRouter(handler, api.RouterOptions{
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		TrustProxy:     cfg.TrustProxy,
		Scenarios:      !cfg.Production(),
	})

	apiServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           observability.MetricsHandler(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range []*http.Server{apiServer, metricsServer} {
		srv := srv
		g.Go(func() error {
			logger.Info().Str("addr", srv.Addr).Msg("listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return errors.Join(apiServer.Shutdown(shutdownCtx), metricsServer.Shutdown(shutdownCtx))
	})

	return g.Wait()
}
