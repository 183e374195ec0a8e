package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestacom/go-stock-orders/internal/domain"
)

type Repo struct{ DB *pgxpool.Pool }

const orderCols = `id, customer_name, status, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.CustomerName, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (r *Repo) Create(ctx context.Context, customerName string) (Order, error) {
	row := r.DB.QueryRow(ctx, `
		INSERT INTO orders(id, customer_name, status)
		VALUES ($1, $2, $3)
		RETURNING `+orderCols,
		uuid.NewString(), customerName, StatusPending)
	return scanOrder(row)
}

func (r *Repo) UpdateCustomer(ctx context.Context, id, customerName string) (Order, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE orders SET customer_name=$2, updated_at=now()
		WHERE id=$1
		RETURNING `+orderCols, id, customerName)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, domain.NotFound("order", id)
	}
	return o, err
}

// Get returns the order with its lines joined to products and the total
// recomputed from them.
func (r *Repo) Get(ctx context.Context, id string) (View, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return View{}, domain.NotFound("order", id)
	}
	if err != nil {
		return View{}, err
	}

	lines, err := r.lines(ctx, id)
	if err != nil {
		return View{}, err
	}
	return View{Order: o, Items: lines, TotalCents: TotalCents(lines)}, nil
}

func (r *Repo) List(ctx context.Context) ([]View, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+orderCols+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []View{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, View{Order: o})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		lines, err := r.lines(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = lines
		out[i].TotalCents = TotalCents(lines)
	}
	return out, nil
}

func (r *Repo) lines(ctx context.Context, orderID string) ([]Line, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT oi.product_id, p.reference, p.name, oi.quantity, p.purchase_cents, p.sale_cents
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY p.reference, p.name`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []Line{}
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ProductID, &l.Reference, &l.Name, &l.Quantity, &l.PurchaseCents, &l.SaleCents); err != nil {
			return nil, err
		}
		l.LineTotalCents = int64(l.Quantity) * l.SaleCents
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// MarkValidated flips a pending order to VALIDATED. The conditional update is
// what makes the terminal state stick under concurrent validation attempts.
func (r *Repo) MarkValidated(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status=$2, updated_at=now()
		WHERE id=$1 AND status=$3`,
		id, StatusValidated, StatusPending)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrAlreadyValidated
	}
	return nil
}
