package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wahaops/gateway/internal/gateway_service/adapters/routingtable"
	"github.com/wahaops/gateway/internal/gateway_service/adapters/wahaclient"
	"github.com/wahaops/gateway/internal/gateway_service/app"
	"github.com/wahaops/gateway/internal/gateway_service/domain"
	"github.com/wahaops/gateway/internal/gateway_service/middleware"
	"github.com/wahaops/gateway/internal/gateway_service/repository/postgres"
	httptransport "github.com/wahaops/gateway/internal/gateway_service/transport/http"
	"github.com/wahaops/gateway/internal/platform/config"
	"github.com/wahaops/gateway/internal/platform/database"
	"github.com/wahaops/gateway/internal/platform/logger"
	"github.com/wahaops/gateway/internal/platform/messagebroker"
)

const (
	serviceName            = "gateway_service"
	webhookEventQueueGroup = "gateway_webhook_workers"
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("WAHA gateway service starting...", "port", cfg.ServerPort, "allocation_policy", cfg.AllocationPolicy)

	dbPool, err := database.NewDBPool(context.Background(), cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Successfully connected to PostgreSQL database")

	natsClient, err := messagebroker.NewNatsClient(cfg.NATSUrl, serviceName, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	appLogger.Info("Successfully connected to NATS")

	// Repositories.
	nodeRepo := postgres.NewPgNodeRepository(dbPool, appLogger)
	sessionRepo := postgres.NewPgSessionRepository(dbPool, appLogger)
	assignmentRepo := postgres.NewPgAssignmentRepository(dbPool, appLogger)

	// Provision the node catalog from configuration on first start.
	if len(cfg.WahaNodes) == 0 {
		appLogger.Error("No WAHA nodes configured (WAHA_NODES)")
		os.Exit(1)
	}
	catalog := make([]*domain.WahaNode, 0, len(cfg.WahaNodes))
	for i, nc := range cfg.WahaNodes {
		catalog = append(catalog, &domain.WahaNode{
			ID:          i + 1, // catalog order establishes the container numbers
			URL:         nc.URL,
			APIKey:      nc.APIKey,
			MaxSessions: nc.MaxSessions,
		})
	}
	if err := nodeRepo.EnsureProvisioned(context.Background(), catalog); err != nil {
		appLogger.Error("Failed to provision WAHA nodes", "error", err)
		os.Exit(1)
	}

	// Adapters and application components.
	nodeClient := wahaclient.NewHTTPNodeClient(appLogger, nil)
	tableProvider := routingtable.NewFileProvider(cfg.RoutingTablePath, appLogger)

	normalizer := app.NewIdentifierNormalizer(assignmentRepo, nodeRepo, nodeClient, appLogger)
	resolver := app.NewContainerResolver(assignmentRepo, nodeRepo, tableProvider, normalizer, appLogger)
	allocator := app.NewSessionAllocator(sessionRepo, nodeRepo, nodeClient, cfg.AllocationPolicy, appLogger)
	dispatcher := app.NewDeliveryDispatcher(nodeClient, appLogger)
	gatewayService := app.NewGatewayService(sessionRepo, allocator, resolver, dispatcher, appLogger)
	webhookRouter := app.NewWebhookRouter(sessionRepo, nodeRepo, nodeClient, resolver, dispatcher, appLogger)

	// Webhook events flow HTTP -> NATS -> consumer -> router.
	consumer := app.NewEventConsumer(natsClient, webhookRouter, appLogger)
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()
	if err := consumer.Start(appCtx, httptransport.WebhookSubjectRaw, webhookEventQueueGroup); err != nil {
		appLogger.Error("Failed to start webhook event consumer", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Webhook event consumer started", "subject", httptransport.WebhookSubjectRaw, "queue_group", webhookEventQueueGroup)

	// HTTP transport.
	validate := validator.New()
	gatewayHandler := httptransport.NewGatewayHandler(gatewayService, appLogger, validate)
	webhookHandler := httptransport.NewWebhookHandler(natsClient, appLogger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(httptransport.MetricsMiddleware)
	r.Use(chimiddleware.Timeout(90 * time.Second))

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "WhatsApp gateway is ready!"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := dbPool.Ping(req.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(api chi.Router) {
		api.Use(middleware.AuthMiddleware(cfg.JWTAccessSecret, appLogger))
		api.Route("/api/v1", gatewayHandler.RegisterRoutes)
	})
	webhookHandler.RegisterRoutes(r)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		appLogger.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quitChan
	appLogger.Info("Shutdown signal received", "signal", receivedSignal.String())

	cancelAppCtx()
	consumer.Stop()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown failed", "error", err)
	}

	appLogger.Info("WAHA gateway service shut down successfully.")
}
