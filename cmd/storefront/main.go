package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/fjod/go_cart/storefront/internal/auth"
	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/basket"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/comments"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/events"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/listing"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/profile"
	"github.com/fjod/go_cart/storefront/internal/session"
)

const (
	serviceName         = "storefront"
	healthCheckInterval = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.LogLevel, serviceName)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		fatal(log, "redis connection failed", err)
	}
	log.Info("redis ping succeeded", slog.String("addr", cfg.RedisAddr))

	ledger, err := checkout.NewSQLiteLedger(cfg.LedgerDBPath)
	if err != nil {
		fatal(log, "payment ledger unavailable", err)
	}
	defer ledger.Close()
	log.Info("payment ledger ready", slog.String("path", cfg.LedgerDBPath))

	client := backend.NewClient(cfg.BackendBaseURL, cfg.RequestTimeout, log)

	// Basket changes reach this instance's subscribers directly and other
	// instances through Redis.
	hub := basket.NewHub(log)
	relay := basket.NewRedisRelay(redisClient, uuid.NewString(), hub, log)
	if err := relay.Subscribe(ctx); err != nil {
		fatal(log, "basket relay subscribe failed", err)
	}
	defer relay.Close()
	hub.Attach(relay)
	go relay.Run(ctx)

	baskets := basket.NewBaskets(basket.NewRedisStorage(redisClient), hub, log)
	catalogSvc := catalog.NewService(client, catalog.NewRedisCache(redisClient, cfg.CategoryCacheTTL), cfg.BackendBaseURL, cfg.SaleCategoryID, log)

	source := listing.NewRemoteSource(client)
	listings := session.NewRegistry(cfg.SessionTTL, func(string) *listing.Controller {
		return listing.NewController(source, log)
	})
	defer listings.Close()

	// Checkout outcomes are recorded for Kafka only when a broker is configured.
	var checkoutOpts []checkout.Option
	if len(cfg.KafkaBrokers) > 0 {
		poller := events.NewOutboxPoller(ledger, events.NewKafkaWriter(cfg.KafkaTopic, cfg.KafkaBrokers...), log)
		defer poller.Close()
		go poller.Run(ctx)
		checkoutOpts = append(checkoutOpts, checkout.WithOutbox(ledger))
		log.Info("checkout event publishing enabled", slog.String("topic", cfg.KafkaTopic))
	}

	callbackURL := cfg.PublicBaseURL + "/api/v1/checkout/callback"
	checkouts := session.NewRegistry(cfg.SessionTTL, func(profileID string) *checkout.Orchestrator {
		return checkout.NewOrchestrator(profileID, client, ledger, baskets.For(profileID), callbackURL, log, checkoutOpts...)
	})
	defer checkouts.Close()

	listingHandler := h.NewListingHandler(listings, source, cfg.Currency, cfg.RequestTimeout)
	router := h.NewRouter(h.RouterConfig{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		CookieSecure:       cfg.CookieSecure,
	}, h.Handlers{
		Basket:   h.NewBasketHandler(baskets, hub, client, cfg.Currency, cfg.RequestTimeout, log),
		Listing:  listingHandler,
		Catalog:  h.NewCatalogHandler(catalogSvc, listingHandler, cfg.Currency, cfg.RequestTimeout),
		Auth:     h.NewAuthHandler(auth.NewService(client), cfg.CookieSecure, cfg.RequestTimeout),
		Profile:  h.NewProfileHandler(profile.NewService(client, log), cfg.Currency, cfg.RequestTimeout),
		Checkout: h.NewCheckoutHandler(checkouts, cfg.Currency, cfg.RequestTimeout),
		Comments: h.NewCommentsHandler(comments.NewService(client), cfg.RequestTimeout),
	}, catalogSvc, log)

	srv := &http.Server{
		Addr:        ":" + cfg.HTTPPort,
		Handler:     otelhttp.NewHandler(router, serviceName),
		ReadTimeout: 10 * time.Second,
		// WriteTimeout stays unset: the basket event stream is long-lived and
		// every other route is bounded by the Timeout middleware.
		IdleTimeout: 60 * time.Second,
	}

	// gRPC health for the platform's liveness checks
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCHealthPort)
	if err != nil {
		fatal(log, "failed to listen for grpc health", err)
	}

	go func() {
		log.Info("grpc health server listening", slog.String("port", cfg.GRPCHealthPort))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("grpc health server stopped", slog.Any("error", err))
		}
	}()
	go watchRedis(ctx, redisClient, healthServer, log)

	go func() {
		log.Info("storefront starting", slog.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "server error", err)
		}
	}()

	<-ctx.Done()

	log.Info("shutting down storefront")
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", slog.Any("error", err))
	}
	grpcServer.GracefulStop()

	log.Info("storefront stopped")
}

// watchRedis reports the service as serving only while Redis answers; the
// basket cannot be kept without it.
func watchRedis(ctx context.Context, client *redis.Client, hs *health.Server, log *slog.Logger) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	status := healthpb.HealthCheckResponse_SERVING
	hs.SetServingStatus("", status)
	hs.SetServingStatus(serviceName, status)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()

		next := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			next = healthpb.HealthCheckResponse_NOT_SERVING
		}
		if next != status {
			log.Warn("health status changed", slog.String("status", next.String()), slog.Any("error", err))
			status = next
			hs.SetServingStatus("", status)
			hs.SetServingStatus(serviceName, status)
		}
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, slog.Any("error", err))
	os.Exit(1)
}
