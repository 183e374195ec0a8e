package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/gestacom/go-stock-orders/internal/config"
	"github.com/gestacom/go-stock-orders/internal/events"
	kafkax "github.com/gestacom/go-stock-orders/internal/kafka"
	"github.com/gestacom/go-stock-orders/internal/redisx"
)

// FeedFetcher is what the sync needs from the protocol client.
type FeedFetcher interface {
	Fetch(ctx context.Context) (string, error)
}

type Store interface {
	List(ctx context.Context, q Search) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	Delete(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, records []Record) error
	MergeByReference(ctx context.Context, records []Record) (MergeStats, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Service fronts the product catalog: CRUD with a cache-aside listing, and
// the bulk refresh from the inventory feed.
type Service struct {
	Store    Store
	Feed     FeedFetcher
	Redis    *redis.Client
	Producer Publisher // optional
	Strategy string
	Service  string
	Log      zerolog.Logger
}

func (s *Service) List(ctx context.Context, q Search) ([]Product, error) {
	if !q.Empty() || s.Redis == nil {
		return s.Store.List(ctx, q)
	}

	if raw, err := s.Redis.Get(ctx, redisx.KeyCatalogProducts).Result(); err == nil && raw != "" {
		var out []Product
		if json.Unmarshal([]byte(raw), &out) == nil {
			return out, nil
		}
	}

	out, err := s.Store.List(ctx, q)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(out); err == nil {
		_ = s.Redis.Set(ctx, redisx.KeyCatalogProducts, b, redisx.TTLCatalogCache).Err()
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, p Product) (Product, error) {
	out, err := s.Store.Create(ctx, p)
	if err == nil {
		s.invalidate(ctx)
	}
	return out, err
}

func (s *Service) Update(ctx context.Context, p Product) (Product, error) {
	out, err := s.Store.Update(ctx, p)
	if err == nil {
		s.invalidate(ctx)
	}
	return out, err
}

func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.Store.Delete(ctx, id)
	if err == nil {
		s.invalidate(ctx)
	}
	return err
}

// Refresh runs the full sync: fetch the feed, parse it record by record, then
// apply the result as a single transaction. Network failures abort with no
// catalog change; malformed records are skipped and counted.
func (s *Service) Refresh(ctx context.Context) (SyncResult, error) {
	raw, err := s.Feed.Fetch(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	records, skips := ParseFeed(raw)
	for _, sk := range skips {
		s.Log.Warn().Int("line", sk.Line).Str("reason", sk.Reason).Msg("feed record skipped")
	}

	res := SyncResult{Strategy: s.Strategy, Skipped: len(skips)}
	switch s.Strategy {
	case config.SyncReplace:
		if err := s.Store.ReplaceAll(ctx, records); err != nil {
			return SyncResult{}, err
		}
		res.Ingested = len(records)
	default:
		applied := make([]Record, 0, len(records))
		for _, rec := range records {
			if rec.Reference == "" {
				// merge keys on reference; a record without one cannot match
				s.Log.Warn().Str("name", rec.Name).Msg("feed record without reference skipped")
				res.Skipped++
				continue
			}
			applied = append(applied, rec)
		}
		stats, err := s.Store.MergeByReference(ctx, applied)
		if err != nil {
			return SyncResult{}, err
		}
		s.Log.Info().
			Int("inserted", stats.Inserted).Int("updated", stats.Updated).
			Int("deleted", stats.Deleted).Int("retained", stats.Retained).
			Msg("catalog merged")
		res.Ingested = stats.Inserted + stats.Updated
		res.Skipped += stats.Dropped
	}

	s.invalidate(ctx)
	s.publishRefreshed(res)
	s.Log.Info().Int("ingested", res.Ingested).Int("skipped", res.Skipped).Str("strategy", res.Strategy).Msg("catalog refreshed")
	return res, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.Redis != nil {
		_ = s.Redis.Del(ctx, redisx.KeyCatalogProducts).Err()
	}
}

func (s *Service) publishRefreshed(res SyncResult) {
	if s.Producer == nil {
		return
	}
	ev := events.Envelope{
		EventID:      uuid.NewString(),
		EventType:    events.EventCatalogRefreshed,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     s.Service,
		Payload: kafkax.MustMarshal(events.CatalogRefreshedPayload{
			Ingested: res.Ingested,
			Skipped:  res.Skipped,
			Strategy: res.Strategy,
		}),
	}
	s.Producer.Publish(events.PartitionKey(ev.EventID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(events.EventCatalogRefreshed)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
