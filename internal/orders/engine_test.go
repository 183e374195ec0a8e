package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestacom/go-stock-orders/internal/domain"
)

// memStore is an in-memory StockStore with snapshot rollback, standing in
// for the transactional postgres store.
type memStore struct {
	stock    map[string]int            // productID -> stock
	statuses map[string]Status         // orderID -> status
	lines    map[string]map[string]int // orderID -> productID -> qty
}

func newMemStore() *memStore {
	return &memStore{
		stock:    map[string]int{},
		statuses: map[string]Status{},
		lines:    map[string]map[string]int{},
	}
}

func (s *memStore) snapshot() *memStore {
	cp := newMemStore()
	for k, v := range s.stock {
		cp.stock[k] = v
	}
	for k, v := range s.statuses {
		cp.statuses[k] = v
	}
	for o, ls := range s.lines {
		cp.lines[o] = map[string]int{}
		for p, q := range ls {
			cp.lines[o][p] = q
		}
	}
	return cp
}

func (s *memStore) InTx(ctx context.Context, fn func(tx StockTx) error) error {
	before := s.snapshot()
	if err := fn(&memTx{s}); err != nil {
		*s = *before
		return err
	}
	return nil
}

type memTx struct{ s *memStore }

func (t *memTx) OrderStatus(_ context.Context, orderID string) (Status, error) {
	st, ok := t.s.statuses[orderID]
	if !ok {
		return "", domain.NotFound("order", orderID)
	}
	return st, nil
}

func (t *memTx) ProductStockForUpdate(_ context.Context, productID string) (int, error) {
	st, ok := t.s.stock[productID]
	if !ok {
		return 0, domain.NotFound("product", productID)
	}
	return st, nil
}

func (t *memTx) AdjustStock(_ context.Context, productID string, delta int) error {
	if _, ok := t.s.stock[productID]; !ok {
		return domain.NotFound("product", productID)
	}
	t.s.stock[productID] += delta
	return nil
}

func (t *memTx) LineQuantity(_ context.Context, orderID, productID string) (int, bool, error) {
	qty, ok := t.s.lines[orderID][productID]
	return qty, ok, nil
}

func (t *memTx) UpsertLine(_ context.Context, orderID, productID string, qty int) error {
	if t.s.lines[orderID] == nil {
		t.s.lines[orderID] = map[string]int{}
	}
	t.s.lines[orderID][productID] = qty
	return nil
}

func (t *memTx) DeleteLine(_ context.Context, orderID, productID string) error {
	delete(t.s.lines[orderID], productID)
	return nil
}

func (t *memTx) DeleteLines(_ context.Context, orderID string) error {
	delete(t.s.lines, orderID)
	return nil
}

func (t *memTx) Lines(_ context.Context, orderID string) ([]Item, error) {
	var out []Item
	for p, q := range t.s.lines[orderID] {
		out = append(out, Item{ProductID: p, Quantity: q})
	}
	return out, nil
}

func (t *memTx) DeleteOrder(_ context.Context, orderID string) error {
	if _, ok := t.s.statuses[orderID]; !ok {
		return domain.NotFound("order", orderID)
	}
	delete(t.s.statuses, orderID)
	delete(t.s.lines, orderID)
	return nil
}

func newEngine(s *memStore) *Engine {
	return &Engine{Store: s}
}

func TestAddOrSetLineWithholdsStock(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.stock["p1"] = 10
	s.statuses["o1"] = StatusPending
	e := newEngine(s)

	require.NoError(t, e.AddOrSetLine(ctx, "o1", "p1", 4))
	assert.Equal(t, 6, s.stock["p1"])
	assert.Equal(t, 4, s.lines["o1"]["p1"])

	// absolute set, not increment: resize to 2 credits the diff back
	require.NoError(t, e.AddOrSetLine(ctx, "o1", "p1", 2))
	assert.Equal(t, 8, s.stock["p1"])
	assert.Equal(t, 2, s.lines["o1"]["p1"])
}

func TestOverdraftRejected(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.stock["p1"] = 5
	s.statuses["o1"] = StatusPending
	e := newEngine(s)

	err := e.AddOrSetLine(ctx, "o1", "p1", 6)
	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, 5, ise.Available)
	assert.Equal(t, 6, ise.Requested)
	// no change
	assert.Equal(t, 5, s.stock["p1"])
	assert.Empty(t, s.lines["o1"])
}

func TestOverdraftAvailableIncludesCurrentLine(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.stock["p1"] = 5
	s.statuses["o1"] = StatusPending
	e := newEngine(s)

	require.NoError(t, e.AddOrSetLine(ctx, "o1", "p1", 3)) // stock 2, line 3

	err := e.ResizeLine(ctx, "o1", "p1", 6)
	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, 5, ise.Available) // stock 2 + current 3
	assert.Equal(t, 2, s.stock["p1"])
	assert.Equal(t, 3, s.lines["o1"]["p1"])

	// a target equal to available succeeds and drains the stock
	require.NoError(t, e.ResizeLine(ctx, "o1", "p1", 5))
	assert.Equal(t, 0, s.stock["p1"])
}

func TestInvalidQuantityRejectedBeforeStorage(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	e := newEngine(s) // empty store: any storage access would error

	assert.ErrorIs(t, e.AddOrSetLine(ctx, "o1", "p1", 0), domain.ErrInvalidQuantity)
	assert.ErrorIs(t, e.AddOrSetLine(ctx, "o1", "p1", -2), domain.ErrInvalidQuantity)
	assert.ErrorIs(t, e.ResizeLine(ctx, "o1", "p1", 0), domain.ErrInvalidQuantity)
}

func TestResizeLineRequiresExistingLine(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.stock["p1"] = 5
	s.statuses["o1"] = StatusPending
	e := newEngine(s)

	err := e.ResizeLine(ctx, "o1", "p1", 2)
	var nf *domain.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "order line", nf.Entity)
	assert.Equal(t, 5, s.stock["p1"])
}

func TestRemoveLineRestoresStock(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.stock["p1"] = 10
	s.statuses["o1"] = StatusPending
	e := newEngine(s)

	require.NoError(t, e.AddOrSetLine(ctx, "o1", "p1", 7))
	require.NoError(t, e.RemoveLine(ctx, "o1", "p1"))
	assert.Equal(t, 10, s.stock["p1"])
	assert.Empty(t, s.lines["o1"])

	// removing again: line no longer exists
	err := e.RemoveLine(ctx, "o1", "p1")
	var nf *domain.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestClearLinesRestoresAllStock(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.stock["p1"] = 10
	s.stock["p2"] = 3
	s.statuses["o1"] = StatusPending
	e := newEngine(s)

	require.NoError(t, e.AddOrSetLine(ctx, "o1", "p1", 4))
	require.NoError(t, e.AddOrSetLine(ctx, "o1", "p2", 3))
	require.NoError(t, e.ClearLines(ctx, "o1"))

	assert.Equal(t, 10, s.stock["p1"])
	assert.Equal(t, 3, s.stock["p2"])
	assert.Empty(t, s.lines["o1"])
}

func TestDeleteOrderPendingRestoresStock(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.stock["p1"] = 5
	s.statuses["o1"] = StatusPending
	e := newEngine(s)

	require.NoError(t, e.AddOrSetLine(ctx, "o1", "p1", 3)) // stock 2
	require.NoError(t, e.DeleteOrder(ctx, "o1"))
	assert.Equal(t, 5, s.stock["p1"])
	_, ok := s.statuses["o1"]
	assert.False(t, ok)
}

func TestDeleteOrderValidatedKeepsStockConsumed(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.stock["p1"] = 5
	s.statuses["o1"] = StatusPending
	e := newEngine(s)

	require.NoError(t, e.AddOrSetLine(ctx, "o1", "p1", 3)) // stock 2
	s.statuses["o1"] = StatusValidated

	require.NoError(t, e.DeleteOrder(ctx, "o1"))
	assert.Equal(t, 2, s.stock["p1"]) // consumed stock is permanent
}

func TestValidatedOrderLinesFrozen(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.stock["p1"] = 10
	s.statuses["o1"] = StatusPending
	e := newEngine(s)

	require.NoError(t, e.AddOrSetLine(ctx, "o1", "p1", 2))
	s.statuses["o1"] = StatusValidated

	assert.ErrorIs(t, e.AddOrSetLine(ctx, "o1", "p1", 5), domain.ErrOrderValidated)
	assert.ErrorIs(t, e.ResizeLine(ctx, "o1", "p1", 1), domain.ErrOrderValidated)
	assert.ErrorIs(t, e.RemoveLine(ctx, "o1", "p1"), domain.ErrOrderValidated)
	assert.ErrorIs(t, e.ClearLines(ctx, "o1"), domain.ErrOrderValidated)
	assert.Equal(t, 8, s.stock["p1"])
	assert.Equal(t, 2, s.lines["o1"]["p1"])
}

func TestUnknownOrderAndProduct(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.statuses["o1"] = StatusPending
	e := newEngine(s)

	var nf *domain.NotFoundError
	err := e.AddOrSetLine(ctx, "nope", "p1", 1)
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "order", nf.Entity)

	err = e.AddOrSetLine(ctx, "o1", "nope", 1)
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "product", nf.Entity)
}

// Conservation: stock withheld across a sequence of mutations always comes
// back exactly once the lines are gone, and never goes negative in between.
func TestConservation(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.stock["p1"] = 20
	s.statuses["o1"] = StatusPending
	s.statuses["o2"] = StatusPending
	e := newEngine(s)

	check := func() {
		withheld := s.lines["o1"]["p1"] + s.lines["o2"]["p1"]
		assert.Equal(t, 20, s.stock["p1"]+withheld)
		assert.GreaterOrEqual(t, s.stock["p1"], 0)
	}

	require.NoError(t, e.AddOrSetLine(ctx, "o1", "p1", 8))
	check()
	require.NoError(t, e.AddOrSetLine(ctx, "o2", "p1", 5))
	check()
	require.NoError(t, e.ResizeLine(ctx, "o1", "p1", 3))
	check()
	require.NoError(t, e.RemoveLine(ctx, "o2", "p1"))
	check()
	require.NoError(t, e.DeleteOrder(ctx, "o1"))
	assert.Equal(t, 20, s.stock["p1"])
}
