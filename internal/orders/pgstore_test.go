package orders

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestacom/go-stock-orders/internal/postgres"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	require.NoError(t, postgres.Migrate(dsn))
	pool, err := postgres.Connect(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

// A mutation transaction holds the order row from the moment it reads the
// status, so a concurrent validation waits instead of slipping in between
// the status read and the stock restore.
func TestOrderRowLockSerializesValidation(t *testing.T) {
	ctx := context.Background()
	db := testPool(t)
	repo := &Repo{DB: db}
	store := &PgStockStore{DB: db}
	engine := &Engine{Store: store}

	productID := uuid.NewString()
	_, err := db.Exec(ctx, `INSERT INTO products(id, name, stock) VALUES ($1, 'Widget', 5)`, productID)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Exec(context.Background(), `DELETE FROM products WHERE id=$1`, productID)
	})

	o, err := repo.Create(ctx, "Jane Doe")
	require.NoError(t, err)
	require.NoError(t, engine.AddOrSetLine(ctx, o.ID, productID, 3))

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.InTx(ctx, func(tx StockTx) error {
			if _, err := tx.OrderStatus(ctx, o.ID); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()

	<-locked
	short, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	assert.Error(t, repo.MarkValidated(short, o.ID), "validation must wait for the order row lock")

	close(release)
	require.NoError(t, <-done)
	require.NoError(t, repo.MarkValidated(ctx, o.ID))

	// deleting the validated order restores nothing
	require.NoError(t, engine.DeleteOrder(ctx, o.ID))
	var stock int
	require.NoError(t, db.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1`, productID).Scan(&stock))
	assert.Equal(t, 2, stock)
}
