package orders

import "time"

type Order struct {
	ID           string    `json:"id"`
	CustomerName string    `json:"customer_name"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Item is the stored claim of an order against a product's stock.
type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Line is an item joined with its product for presentation and export.
type Line struct {
	ProductID      string `json:"product_id"`
	Reference      string `json:"reference"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	PurchaseCents  int64  `json:"purchase_cents"`
	SaleCents      int64  `json:"sale_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
}

// View is an order with its lines and the derived total. The total is never
// stored, always recomputed from the lines.
type View struct {
	Order
	Items      []Line `json:"items"`
	TotalCents int64  `json:"total_cents"`
}

func TotalCents(lines []Line) int64 {
	var total int64
	for _, l := range lines {
		total += l.LineTotalCents
	}
	return total
}
