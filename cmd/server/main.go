package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/billcycle/billcycle/internal/api"
	"github.com/billcycle/billcycle/internal/api/cron"
	v1 "github.com/billcycle/billcycle/internal/api/v1"
	"github.com/billcycle/billcycle/internal/config"
	"github.com/billcycle/billcycle/internal/httpclient"
	"github.com/billcycle/billcycle/internal/idempotency"
	"github.com/billcycle/billcycle/internal/integration/gateway"
	"github.com/billcycle/billcycle/internal/logger"
	"github.com/billcycle/billcycle/internal/postgres"
	"github.com/billcycle/billcycle/internal/publisher"
	"github.com/billcycle/billcycle/internal/pubsub/memory"
	"github.com/billcycle/billcycle/internal/repository"
	"github.com/billcycle/billcycle/internal/service"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	db, err := postgres.NewDB(cfg)
	if err != nil {
		logg.Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	repos := repository.NewRepositories(db, logg)

	pubSub := memory.NewPubSub()
	defer pubSub.Close()
	auditSink := publisher.NewAuditPublisher(pubSub, logg)

	gatewayClient := gateway.NewClient(
		httpclient.NewDefaultClient(cfg.Gateway.Timeout),
		&cfg.Gateway,
		logg,
	)

	params := service.ServiceParams{
		Logger:            logg,
		Config:            cfg,
		SubRepo:           repos.Subscription,
		PlanRepo:          repos.Plan,
		BillingRecordRepo: repos.BillingRecord,
		Gateway:           gatewayClient,
		AuditSink:         auditSink,
		IdempotencyGen:    idempotency.NewGenerator(),
	}
	billingService := service.NewBillingService(params)

	router := api.NewRouter(api.Handlers{
		Subscription: v1.NewSubscriptionHandler(billingService, logg),
		CronBilling:  cron.NewBillingHandler(billingService, logg),
	})

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		logg.Infow("starting server", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Infow("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logg.Errorw("forced shutdown", "error", err)
	}
}
