package redisx

import "time"

const (
	// Cache of the unfiltered product listing, invalidated on any catalog write.
	KeyCatalogProducts = "catalog:products"

	// Dedup of event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLCatalogCache = 5 * time.Minute
	TTLDedup        = 48 * time.Hour
)
