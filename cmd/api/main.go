package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/Bbt3-alx/akera-backend/api/controllers"
	"github.com/Bbt3-alx/akera-backend/api/routes"
	"github.com/Bbt3-alx/akera-backend/internal/actors"
	"github.com/Bbt3-alx/akera-backend/internal/buyops"
	"github.com/Bbt3-alx/akera-backend/internal/exchanges"
	"github.com/Bbt3-alx/akera-backend/internal/ledger"
	"github.com/Bbt3-alx/akera-backend/internal/partners"
	"github.com/Bbt3-alx/akera-backend/internal/payments"
	"github.com/Bbt3-alx/akera-backend/internal/sells"
	"github.com/Bbt3-alx/akera-backend/internal/shipping"
	"github.com/Bbt3-alx/akera-backend/pkg/config"
	"github.com/Bbt3-alx/akera-backend/pkg/db"
	"github.com/Bbt3-alx/akera-backend/pkg/logger"
	"github.com/Bbt3-alx/akera-backend/pkg/metrics"
	"github.com/Bbt3-alx/akera-backend/pkg/migrate"
	"github.com/Bbt3-alx/akera-backend/pkg/outbox"
	"github.com/Bbt3-alx/akera-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	txMetrics := metrics.NewTransactionMetrics(prometheus.DefaultRegisterer)
	idemMetrics := metrics.NewIdempotencyMetrics(prometheus.DefaultRegisterer)

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	dbClient = dbClient.WithMetrics(txMetrics)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	transportRate, err := decimal.NewFromString(cfg.Gold.TransportRate)
	if err != nil {
		logg.Error(context.Background(), "invalid transport rate", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	ledgerRepo := ledger.NewRepository(conn)
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)

	actorsSvc, err := actors.NewService(actors.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create actors service", err)
		os.Exit(1)
	}
	partnersSvc, err := partners.NewService(partners.NewRepository(conn), dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create partners service", err)
		os.Exit(1)
	}
	buyopsSvc, err := buyops.NewService(buyops.NewRepository(conn), ledgerRepo, dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create buy operations service", err)
		os.Exit(1)
	}
	shippingSvc, err := shipping.NewService(shipping.NewRepository(conn), ledgerRepo, dbClient, outboxSvc, transportRate)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping service", err)
		os.Exit(1)
	}
	paymentsSvc, err := payments.NewService(payments.NewRepository(conn), ledgerRepo, dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}
	sellsSvc, err := sells.NewService(sells.NewRepository(conn), ledgerRepo, dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create sell operations service", err)
		os.Exit(1)
	}
	exchangesSvc, err := exchanges.NewService(exchanges.NewRepository(conn), ledgerRepo, dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create exchanges service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	readiness := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
	}

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, readiness, redisClient, idemMetrics, routes.Services{
			Actors:    actorsSvc,
			Partners:  partnersSvc,
			BuyOps:    buyopsSvc,
			Shipping:  shippingSvc,
			Payments:  paymentsSvc,
			Sells:     sellsSvc,
			Exchanges: exchangesSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
