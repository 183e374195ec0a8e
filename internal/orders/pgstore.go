package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestacom/go-stock-orders/internal/domain"
)

// PgStockStore runs each engine operation in one database transaction with
// row-level locks on the touched products.
type PgStockStore struct{ DB *pgxpool.Pool }

func (s *PgStockStore) InTx(ctx context.Context, fn func(tx StockTx) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgStockTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgStockTx struct{ tx pgx.Tx }

// Locks the order row: line mutations and deletes serialize against a
// concurrent MarkValidated, so the status decision cannot go stale before
// the transaction commits.
func (t *pgStockTx) OrderStatus(ctx context.Context, orderID string) (Status, error) {
	var s string
	err := t.tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.NotFound("order", orderID)
	}
	return Status(s), err
}

// FOR UPDATE is the per-product serialization point: concurrent mutations on
// the same product queue here and observe each other's committed stock.
func (t *pgStockTx) ProductStockForUpdate(ctx context.Context, productID string) (int, error) {
	var stock int
	err := t.tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1 FOR UPDATE`, productID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.NotFound("product", productID)
	}
	return stock, err
}

func (t *pgStockTx) AdjustStock(ctx context.Context, productID string, delta int) error {
	ct, err := t.tx.Exec(ctx, `UPDATE products SET stock = stock + $2, updated_at = now() WHERE id=$1`, productID, delta)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return domain.NotFound("product", productID)
	}
	return nil
}

func (t *pgStockTx) LineQuantity(ctx context.Context, orderID, productID string) (int, bool, error) {
	var qty int
	err := t.tx.QueryRow(ctx, `SELECT quantity FROM order_items WHERE order_id=$1 AND product_id=$2`, orderID, productID).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return qty, true, nil
}

func (t *pgStockTx) UpsertLine(ctx context.Context, orderID, productID string, qty int) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO order_items(order_id, product_id, quantity)
		VALUES ($1,$2,$3)
		ON CONFLICT (order_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity`,
		orderID, productID, qty)
	return err
}

func (t *pgStockTx) DeleteLine(ctx context.Context, orderID, productID string) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1 AND product_id=$2`, orderID, productID)
	return err
}

func (t *pgStockTx) DeleteLines(ctx context.Context, orderID string) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, orderID)
	return err
}

func (t *pgStockTx) Lines(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := t.tx.Query(ctx, `SELECT product_id, quantity FROM order_items WHERE order_id=$1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Quantity); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (t *pgStockTx) DeleteOrder(ctx context.Context, orderID string) error {
	// items cascade-delete with the order
	ct, err := t.tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, orderID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.NotFound("order", orderID)
	}
	return nil
}
