package orders

import (
	"context"
	"sort"

	"github.com/gestacom/go-stock-orders/internal/domain"
)

// StockTx is one transaction over a product's stock and the order lines that
// claim it. Implementations must make ProductStockForUpdate a serialization
// point per product: two concurrent mutations of the same product cannot both
// read the same stale stock value.
type StockTx interface {
	OrderStatus(ctx context.Context, orderID string) (Status, error)
	ProductStockForUpdate(ctx context.Context, productID string) (int, error)
	AdjustStock(ctx context.Context, productID string, delta int) error
	LineQuantity(ctx context.Context, orderID, productID string) (int, bool, error)
	UpsertLine(ctx context.Context, orderID, productID string, qty int) error
	DeleteLine(ctx context.Context, orderID, productID string) error
	DeleteLines(ctx context.Context, orderID string) error
	Lines(ctx context.Context, orderID string) ([]Item, error)
	DeleteOrder(ctx context.Context, orderID string) error
}

type StockStore interface {
	InTx(ctx context.Context, fn func(tx StockTx) error) error
}

// Engine applies quantity changes to order lines and product stock as one
// unit. Every public operation is a single transaction; either both the stock
// count and the line change, or neither does.
type Engine struct {
	Store StockStore
}

// AddOrSetLine sets the order's line for a product to an absolute quantity,
// treating a missing line as quantity 0. The stock adjustment is the signed
// diff between target and current.
func (e *Engine) AddOrSetLine(ctx context.Context, orderID, productID string, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	return e.Store.InTx(ctx, func(tx StockTx) error {
		return e.setLine(ctx, tx, orderID, productID, qty, false)
	})
}

// ResizeLine is AddOrSetLine for a line that must already exist.
func (e *Engine) ResizeLine(ctx context.Context, orderID, productID string, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	return e.Store.InTx(ctx, func(tx StockTx) error {
		return e.setLine(ctx, tx, orderID, productID, qty, true)
	})
}

// RemoveLine deletes the line and returns its full quantity to stock.
func (e *Engine) RemoveLine(ctx context.Context, orderID, productID string) error {
	return e.Store.InTx(ctx, func(tx StockTx) error {
		return e.setLine(ctx, tx, orderID, productID, 0, true)
	})
}

func (e *Engine) setLine(ctx context.Context, tx StockTx, orderID, productID string, target int, mustExist bool) error {
	status, err := tx.OrderStatus(ctx, orderID)
	if err != nil {
		return err
	}
	if status.Terminal() {
		return domain.ErrOrderValidated
	}

	stock, err := tx.ProductStockForUpdate(ctx, productID)
	if err != nil {
		return err
	}
	current, found, err := tx.LineQuantity(ctx, orderID, productID)
	if err != nil {
		return err
	}
	if mustExist && !found {
		return domain.NotFound("order line", productID)
	}

	diff := target - current
	if diff > 0 && stock < diff {
		return &domain.InsufficientStockError{
			ProductID: productID,
			Requested: target,
			Available: stock + current,
		}
	}

	if diff != 0 {
		if err := tx.AdjustStock(ctx, productID, -diff); err != nil {
			return err
		}
	}
	if target == 0 {
		return tx.DeleteLine(ctx, orderID, productID)
	}
	return tx.UpsertLine(ctx, orderID, productID, target)
}

// ClearLines restores stock for every line of the order and deletes them all,
// in one transaction covering the whole set.
func (e *Engine) ClearLines(ctx context.Context, orderID string) error {
	return e.Store.InTx(ctx, func(tx StockTx) error {
		status, err := tx.OrderStatus(ctx, orderID)
		if err != nil {
			return err
		}
		if status.Terminal() {
			return domain.ErrOrderValidated
		}
		if err := e.restoreStock(ctx, tx, orderID); err != nil {
			return err
		}
		return tx.DeleteLines(ctx, orderID)
	})
}

// DeleteOrder removes the order and its lines. Stock is restored only while
// the order is pending; a validated order's consumption is permanent.
func (e *Engine) DeleteOrder(ctx context.Context, orderID string) error {
	return e.Store.InTx(ctx, func(tx StockTx) error {
		status, err := tx.OrderStatus(ctx, orderID)
		if err != nil {
			return err
		}
		if !status.Terminal() {
			if err := e.restoreStock(ctx, tx, orderID); err != nil {
				return err
			}
		}
		return tx.DeleteOrder(ctx, orderID)
	})
}

func (e *Engine) restoreStock(ctx context.Context, tx StockTx, orderID string) error {
	lines, err := tx.Lines(ctx, orderID)
	if err != nil {
		return err
	}
	// lock in a stable order so two concurrent multi-product restores
	// cannot deadlock
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	for _, l := range lines {
		if _, err := tx.ProductStockForUpdate(ctx, l.ProductID); err != nil {
			return err
		}
		if err := tx.AdjustStock(ctx, l.ProductID, l.Quantity); err != nil {
			return err
		}
	}
	return nil
}
