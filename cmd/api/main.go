package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/gestacom/go-stock-orders/internal/catalog"
	"github.com/gestacom/go-stock-orders/internal/config"
	"github.com/gestacom/go-stock-orders/internal/events"
	"github.com/gestacom/go-stock-orders/internal/export"
	"github.com/gestacom/go-stock-orders/internal/httpx"
	kafkax "github.com/gestacom/go-stock-orders/internal/kafka"
	"github.com/gestacom/go-stock-orders/internal/orders"
	"github.com/gestacom/go-stock-orders/internal/postgres"
	"github.com/gestacom/go-stock-orders/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", cfg.ServiceName).Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	pValidated := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicOrderValidated, 1024, log)
	pValidated.Start(ctx)
	pRefreshed := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicCatalogRefreshed, 1024, log)
	pRefreshed.Start(ctx)

	// Catalog
	catalogSvc := &catalog.Service{
		Store:    &catalog.Repo{DB: db},
		Feed:     catalog.NewFeedClient(cfg.InventoryAddr),
		Redis:    rdb,
		Producer: pRefreshed,
		Strategy: cfg.SyncStrategy,
		Service:  cfg.ServiceName,
		Log:      log,
	}

	// Orders
	orderRepo := &orders.Repo{DB: db}
	engine := &orders.Engine{Store: &orders.PgStockStore{DB: db}}
	validator := &orders.Validator{
		Store:    orderRepo,
		Exporter: &export.Writer{Dir: cfg.ExportDir},
		Producer: pValidated,
		Service:  cfg.ServiceName,
		Log:      log,
	}

	// HTTP
	router := httpx.NewRouter(log)
	(&httpx.ProductsHandler{Catalog: catalogSvc}).Register(router)
	(&httpx.OrdersHandler{Store: orderRepo, Engine: engine, Validator: validator}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pValidated.Close()
	pRefreshed.Close()
	cancel()
	pValidated.WaitClosed()
	pRefreshed.WaitClosed()
}
