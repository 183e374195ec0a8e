// Package events defines the envelope and payloads published to Kafka.
package events

import (
	"encoding/json"
	"time"

	"github.com/gestacom/go-stock-orders/internal/export"
)

const (
	EventOrderValidated   = "OrderValidated"
	EventCatalogRefreshed = "CatalogRefreshed"
)

const (
	TopicOrderValidated   = "order.validated"
	TopicCatalogRefreshed = "catalog.refreshed"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// OrderValidatedPayload carries the full export snapshot so the exporter can
// write the file without a database round trip.
type OrderValidatedPayload struct {
	OrderID  string          `json:"order_id"`
	Snapshot export.Snapshot `json:"snapshot"`
}

type CatalogRefreshedPayload struct {
	Ingested int    `json:"ingested"`
	Skipped  int    `json:"skipped"`
	Strategy string `json:"strategy"`
}

// Partition key per aggregate id keeps events for one order in order.
func PartitionKey(id string) []byte { return []byte(id) }
