// Package exporter turns order.validated events into export files. It is the
// retry path for the synchronous export done at validation time: writes are
// idempotent per customer, so redelivery is safe.
package exporter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/gestacom/go-stock-orders/internal/events"
	"github.com/gestacom/go-stock-orders/internal/export"
	kafkax "github.com/gestacom/go-stock-orders/internal/kafka"
	"github.com/gestacom/go-stock-orders/internal/redisx"
)

type Service struct {
	Writer  *export.Writer
	Redis   *redis.Client
	Service string
	Log     zerolog.Logger
}

// HandleOrderValidated is mounted as the Kafka consumer handler. Returning an
// error leaves the offset uncommitted so the event is retried.
func (s *Service) HandleOrderValidated(ctx context.Context, m kafkago.Message) error {
	var env events.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		s.Log.Warn().Err(err).Msg("dropping undecodable event")
		return nil
	}
	if env.EventType != events.EventOrderValidated {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.Service, env.EventID)
	if s.Redis != nil {
		if done, _ := redisx.Exists(ctx, s.Redis, dkey); done {
			return nil
		}
	}

	p, err := kafkax.UnwrapPayload[events.OrderValidatedPayload](env.Payload)
	if err != nil {
		s.Log.Warn().Err(err).Str("event_id", env.EventID).Msg("dropping event with bad payload")
		return nil
	}

	if err := s.Writer.Write(p.Snapshot); err != nil {
		return fmt.Errorf("export order %s: %w", p.OrderID, err)
	}
	if s.Redis != nil {
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}
	s.Log.Info().Str("order_id", p.OrderID).Str("customer", p.Snapshot.CustomerName).Msg("export file written")
	return nil
}
