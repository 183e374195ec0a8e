package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/gestacom/go-stock-orders/internal/domain"
	"github.com/gestacom/go-stock-orders/internal/events"
	"github.com/gestacom/go-stock-orders/internal/export"
	kafkax "github.com/gestacom/go-stock-orders/internal/kafka"
)

type ExportState string

const (
	ExportSucceeded ExportState = "succeeded"
	ExportFailed    ExportState = "failed"
)

// ValidationOutcome makes the post-commit export explicit: the status change
// is committed either way, only the snapshot export can still fail.
type ValidationOutcome struct {
	Order       View        `json:"order"`
	Export      ExportState `json:"export"`
	ExportError string      `json:"export_error,omitempty"`
}

type ValidationStore interface {
	Get(ctx context.Context, id string) (View, error)
	MarkValidated(ctx context.Context, id string) error
}

type ExportSink interface {
	Write(snap export.Snapshot) error
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Validator struct {
	Store    ValidationStore
	Exporter ExportSink
	Producer Publisher // optional
	Service  string
	Log      zerolog.Logger
}

// Validate transitions the order PENDING -> VALIDATED, then exports the
// snapshot. A failed export is reported in the outcome, never rolled back;
// the published event lets the queued exporter retry the file later.
func (v *Validator) Validate(ctx context.Context, orderID string) (ValidationOutcome, error) {
	view, err := v.Store.Get(ctx, orderID)
	if err != nil {
		return ValidationOutcome{}, err
	}
	if !CanTransition(view.Status, StatusValidated) {
		return ValidationOutcome{}, domain.ErrAlreadyValidated
	}

	if err := v.Store.MarkValidated(ctx, orderID); err != nil {
		return ValidationOutcome{}, err
	}
	view.Status = StatusValidated

	snap := Snapshot(view)
	v.publishValidated(orderID, snap)

	out := ValidationOutcome{Order: view, Export: ExportSucceeded}
	if err := v.Exporter.Write(snap); err != nil {
		v.Log.Error().Err(err).Str("order_id", orderID).Msg("order export failed")
		out.Export = ExportFailed
		out.ExportError = err.Error()
	} else {
		v.Log.Info().Str("order_id", orderID).Str("customer", view.CustomerName).Msg("order validated and exported")
	}
	return out, nil
}

// Snapshot flattens an order view into the export format.
func Snapshot(view View) export.Snapshot {
	lines := make([]export.Line, 0, len(view.Items))
	for _, l := range view.Items {
		lines = append(lines, export.Line{
			Reference:      l.Reference,
			Name:           l.Name,
			Quantity:       l.Quantity,
			PurchaseCents:  l.PurchaseCents,
			SaleCents:      l.SaleCents,
			LineTotalCents: l.LineTotalCents,
		})
	}
	return export.Snapshot{
		CustomerName: view.CustomerName,
		Lines:        lines,
		TotalCents:   view.TotalCents,
	}
}

func (v *Validator) publishValidated(orderID string, snap export.Snapshot) {
	if v.Producer == nil {
		return
	}
	ev := events.Envelope{
		EventID:       uuid.NewString(),
		EventType:     events.EventOrderValidated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      v.Service,
		CorrelationID: orderID,
		Payload: kafkax.MustMarshal(events.OrderValidatedPayload{
			OrderID:  orderID,
			Snapshot: snap,
		}),
	}
	v.Producer.Publish(events.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(events.EventOrderValidated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
