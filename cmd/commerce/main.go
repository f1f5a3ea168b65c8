package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	catalogapp "github.com/sofialejandracrz/esports-platform-sub000/internal/app/catalog"
	ordersapp "github.com/sofialejandracrz/esports-platform-sub000/internal/app/orders"
	supportapp "github.com/sofialejandracrz/esports-platform-sub000/internal/app/support"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/config"
	http_store "github.com/sofialejandracrz/esports-platform-sub000/internal/handler/http/store"
	http_support "github.com/sofialejandracrz/esports-platform-sub000/internal/handler/http/support"
	http_webhook "github.com/sofialejandracrz/esports-platform-sub000/internal/handler/http/webhook"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/infrastructure/database"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/infrastructure/kafka"
	ledger_postgres "github.com/sofialejandracrz/esports-platform-sub000/internal/ledger/postgres"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/outbox"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/paypal"
	order_repo_postgres "github.com/sofialejandracrz/esports-platform-sub000/internal/repository/order_repo/postgres"
	outbox_repo_postgres "github.com/sofialejandracrz/esports-platform-sub000/internal/repository/outbox_repo/postgres"
	ticket_repo_postgres "github.com/sofialejandracrz/esports-platform-sub000/internal/repository/ticket_repo/postgres"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.TimeKey = "timestamp"

	appLogger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create zap logger: %v\n", err)
		os.Exit(1)
	}
	appLogger.Info("Commerce service starting...")

	dbConfig := database.DBConfig{
		Host:     cfg.DBConfig.DBHost,
		Port:     cfg.DBConfig.DBPort,
		User:     cfg.DBConfig.DBUser,
		Password: cfg.DBConfig.DBPassword,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.DBSSLMode,
	}

	var db *sql.DB
	maxRetries := 10
	retryDelay := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = database.NewPostgresDB(dbConfig)
		if err == nil {
			appLogger.Info("Successfully connected to PostgreSQL database!")
			break
		}
		appLogger.Warn(fmt.Sprintf("Failed to connect to database (attempt %d/%d): %v. Retrying in %s...", i+1, maxRetries, err, retryDelay))
		time.Sleep(retryDelay)
	}
	if db == nil {
		appLogger.Fatal("Could not connect to database after multiple retries. Exiting.", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLogger.Error("Error closing database connection", zap.Error(err))
		}
	}()

	appLogger.Info("Running database migrations...")
	migrateDSN := "postgres://" + cfg.GetDBMigrationConnectionString()
	m, err := migrate.New("file://migrations", migrateDSN)
	if err != nil {
		appLogger.Fatal("Failed to create migrate instance", zap.Error(err))
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		appLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}
	appLogger.Info("Database migrations completed.")

	producer, err := kafka.NewProducer(cfg.GetKafkaBrokers(), cfg.OrderEventsTopic, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create Kafka producer", zap.Error(err))
	}
	defer func() {
		if err := producer.Close(); err != nil {
			appLogger.Error("Error closing Kafka producer", zap.Error(err))
		}
	}()

	orderRepository := order_repo_postgres.NewOrderRepository(db, appLogger)
	ticketRepository := ticket_repo_postgres.NewTicketRepository(db, appLogger)
	outboxRepository := outbox_repo_postgres.NewOutboxRepository(db, appLogger)

	ledgerEngine := ledger_postgres.NewEngine(db, appLogger.With(zap.String("component", "LedgerEngine")))

	paypalClient := paypal.NewClient(paypal.Config{
		ClientID:     cfg.PayPal.ClientID,
		ClientSecret: cfg.PayPal.ClientSecret,
		WebhookID:    cfg.PayPal.WebhookID,
		Live:         cfg.PayPal.Live,
	}, appLogger.With(zap.String("component", "PayPalClient")))

	orderService := ordersapp.NewOrderService(
		orderRepository,
		ticketRepository,
		outboxRepository,
		paypalClient,
		ledgerEngine,
		ordersapp.CheckoutURLs{ReturnURL: cfg.PayPal.ReturnURL, CancelURL: cfg.PayPal.CancelURL},
		cfg.OrderEventsTopic,
		appLogger.With(zap.String("component", "OrderService")),
	)
	supportService := supportapp.NewSupportService(ticketRepository, ledgerEngine, appLogger.With(zap.String("component", "SupportService")))
	catalogService := catalogapp.NewCatalogService(ledgerEngine, appLogger.With(zap.String("component", "CatalogService")))

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	outboxProcessor := outbox.NewProcessor(db, outboxRepository, producer, cfg.OutboxPollInterval, cfg.OutboxPollTimeout, appLogger.With(zap.String("component", "OutboxProcessor")))
	go outboxProcessor.Run(rootCtx)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/tienda", func(r chi.Router) {
		http_store.RegisterRoutes(r, orderService, catalogService, appLogger)
		http_support.RegisterRoutes(r, supportService, appLogger)
		http_webhook.RegisterRoutes(r, paypalClient, orderService, appLogger)
	})

	serverAddr := fmt.Sprintf(":%d", cfg.HTTPPort)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()
	appLogger.Info("Commerce service started", zap.String("address", serverAddr))

	<-sigChan

	appLogger.Info("Shutting down commerce service...")
	rootCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Fatal("Graceful shutdown failed", zap.Error(err))
	}
	appLogger.Info("Commerce service stopped.")
}
