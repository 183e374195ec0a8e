package catalog

import "time"

type Product struct {
	ID            string    `json:"id"`
	Reference     string    `json:"reference"`
	Name          string    `json:"name"`
	PurchaseCents int64     `json:"purchase_cents"`
	SaleCents     int64     `json:"sale_cents"`
	Stock         int       `json:"stock"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Search filters are case-insensitive substring matches; empty fields match
// everything.
type Search struct {
	Name      string
	Reference string
}

func (s Search) Empty() bool { return s.Name == "" && s.Reference == "" }

type SyncResult struct {
	Ingested int    `json:"ingested"`
	Skipped  int    `json:"skipped"`
	Strategy string `json:"strategy"`
}
