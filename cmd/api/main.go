package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slotbook/internal/api"
	"slotbook/internal/auth"
	"slotbook/internal/clock"
	"slotbook/internal/config"
	"slotbook/internal/database"
	"slotbook/internal/domain"
	"slotbook/internal/events"
	"slotbook/internal/logging"
	"slotbook/internal/metrics"
	"slotbook/internal/notify"
	"slotbook/internal/repository"
	"slotbook/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer (func() { _ = repository.Close(redisClient) })()
	}

	tokens := auth.NewTokenManager(cfg.API.Auth.JWTSecret, cfg.API.Auth.Issuer, cfg.API.Auth.TokenTTL)
	svc := buildServices(cfg, db, tokens, newRateLimiter(redisClient, &logger), &logger)

	if err := svc.Users.EnsureBootstrapAdmin(ctx, cfg.BootstrapAdmin); err != nil {
		logger.Error().Err(err).Msg("bootstrap admin")
		return err
	}

	httpServer := api.NewHTTPServer(cfg.API, svc, tokens, db, logging.Component(&logger, "http"))

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(cfg.API, db, logging.Component(&logger, "grpc"))
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	startMetrics(ctx, cfg, &logger)
	startBackups(ctx, cfg, db, &logger)

	return startServers(ctx, grpcServer, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func buildServices(
	cfg *config.Config,
	db *database.DB,
	tokens *auth.TokenManager,
	limiter domain.RateLimitRepository,
	logger *zerolog.Logger,
) api.Services {
	clk := clock.Real(nil)
	paging := service.Paging{
		DefaultLimit: cfg.Booking.DefaultPageSize,
		MaxLimit:     cfg.Booking.MaxPageSize,
	}

	eventBus := events.NewEventBus()
	subscribeBookingEvents(eventBus, logging.Component(logger, "audit"))

	dispatcher := notify.NewDispatcher(
		notify.New(cfg.Mail, logging.Component(logger, "mail")),
		logging.Component(logger, "notify"),
	)

	serviceLogger := logging.Component(logger, "service")
	return api.Services{
		Users: service.NewUserService(db, tokens, paging, serviceLogger),
		Slots: service.NewSlotService(db, serviceLogger),
		Bookings: service.NewBookingService(db, eventBus, limiter, clk, service.BookingOptions{
			CreateLimit:  cfg.Booking.CreateLimit,
			CreateWindow: cfg.Booking.CreateWindow,
			Paging:       paging,
		}, serviceLogger),
		Reconcile: service.NewReconcileService(db, eventBus, dispatcher, serviceLogger),
		Queries:   service.NewQueryService(db, clk, paging, serviceLogger),
	}
}

// subscribeBookingEvents writes every booking event to the audit log.
func subscribeBookingEvents(bus *events.EventBus, logger *zerolog.Logger) {
	audit := func(ev *events.Event) error {
		var p events.BookingEventPayload
		if err := ev.Decode(&p); err != nil {
			logger.Warn().Err(err).Str("event", ev.Type).Msg("undecodable booking event")
			return err
		}
		logger.Info().
			Str("event", ev.Type).
			Int64("booking_id", p.BookingID).
			Str("order_id", p.OrderID).
			Int64("slot_id", p.SlotID).
			Int64("user_id", p.UserID).
			Str("status", p.Status).
			Bool("cascaded", p.Cascaded).
			Str("changed_by", p.ChangedBy).
			Time("at", ev.CreatedAt).
			Msg("booking event")
		return nil
	}
	bus.SubscribeAll(audit,
		events.EventBookingCreated,
		events.EventBookingUpdated,
		events.EventBookingDeleted,
		events.EventBookingConfirmed,
		events.EventBookingCancelled,
		events.EventBookingStatusChanged,
	)
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := repository.Ping(pingCtx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// newRateLimiter prefers Redis and falls back to process memory while it is down.
func newRateLimiter(redisClient *redis.Client, logger *zerolog.Logger) domain.RateLimitRepository {
	memory := repository.NewMemoryRateLimiter()
	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverRateLimiter(
		repository.NewRedisRateLimiter(redisClient),
		memory,
		logging.Component(logger, "rate-limit"),
	)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startBackups(ctx context.Context, cfg *config.Config, db *database.DB, logger *zerolog.Logger) {
	if !cfg.Backup.Enabled {
		return
	}
	go database.NewBackupService(db, cfg.Backup, logger).Start(ctx)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	errCh := make(chan error, 2)

	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(ctx); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	event := logger.Info().Int("http_port", cfg.API.HTTP.Port)
	if grpcServer != nil {
		event = event.Str("grpc_addr", grpcServer.Addr())
	}
	event.Msg("API server started")

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		logger.Error().Err(runErr).Msg("server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return runErr
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
