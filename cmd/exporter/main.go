package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/gestacom/go-stock-orders/internal/config"
	"github.com/gestacom/go-stock-orders/internal/events"
	"github.com/gestacom/go-stock-orders/internal/export"
	"github.com/gestacom/go-stock-orders/internal/exporter"
	kafkax "github.com/gestacom/go-stock-orders/internal/kafka"
	"github.com/gestacom/go-stock-orders/internal/redisx"
)

// Exporter worker: consumes order.validated and (re)writes the export file
// for each event, deduplicating via Redis. A failed write leaves the offset
// uncommitted, so the broker redelivers and the export is retried.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", cfg.ServiceName+"-exporter").Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	handler := &exporter.Service{
		Writer:  &export.Writer{Dir: cfg.ExportDir},
		Redis:   rdb,
		Service: "exporter",
		Log:     log,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ExporterGroup, events.TopicOrderValidated, cfg.ExporterWorkers, log)

	go func() {
		log.Info().Str("group", cfg.ExporterGroup).Int("workers", cfg.ExporterWorkers).Msg("exporter consumer started")
		if err := cons.Start(ctx, handler.HandleOrderValidated); err != nil {
			log.Error().Err(err).Msg("consumer exit")
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down consumer")
	cancel()
	time.Sleep(500 * time.Millisecond)
}
