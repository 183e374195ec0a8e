package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Handler must return nil only when processing succeeded and the offset may
// be committed.
type Handler func(ctx context.Context, m kafka.Message) error

type Consumer struct {
	r       *kafka.Reader
	workers int
	commit  func(ctx context.Context, msgs ...kafka.Message) error
	log     zerolog.Logger
}

func NewConsumer(brokers []string, group, topic string, workers int, log zerolog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{
		r:       r,
		workers: workers,
		commit:  r.CommitMessages,
		log:     log.With().Str("topic", topic).Str("group", group).Logger(),
	}
}

func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	jobs := make(chan kafka.Message, 1024)
	errs := make(chan error, c.workers)
	wg := c.startWorkers(ctx, jobs, errs, h)
	defer wg.Wait()

	for {
		m, err := c.r.ReadMessage(ctx)
		if err != nil {
			close(jobs)
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		select {
		case jobs <- m:
		case <-ctx.Done():
			close(jobs)
			return nil
		}

		// back off when workers report failures, without blocking dispatch
		select {
		case <-errs:
			time.Sleep(200 * time.Millisecond)
		default:
		}
	}
}

// startWorkers runs the handler pool. Workers log their own failures and
// signal errs without ever blocking on it, so they always drain jobs to
// completion after the dispatcher exits.
func (c *Consumer) startWorkers(ctx context.Context, jobs <-chan kafka.Message, errs chan<- error, h Handler) *sync.WaitGroup {
	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range jobs {
				if err := h(ctx, m); err != nil {
					c.report(errs, err)
					continue
				}
				if c.commit == nil {
					continue
				}
				if err := c.commit(ctx, m); err != nil {
					c.report(errs, err)
				}
			}
		}()
	}
	return &wg
}

func (c *Consumer) report(errs chan<- error, err error) {
	c.log.Error().Err(err).Msg("consumer worker error")
	select {
	case errs <- err:
	default:
	}
}
