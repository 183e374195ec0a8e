package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestacom/go-stock-orders/internal/domain"
)

type Repo struct{ DB *pgxpool.Pool }

const productCols = `id, reference, name, purchase_cents, sale_cents, stock, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Reference, &p.Name, &p.PurchaseCents, &p.SaleCents, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *Repo) List(ctx context.Context, q Search) ([]Product, error) {
	sql := `SELECT ` + productCols + ` FROM products`
	var (
		args  []any
		where []string
	)
	if q.Name != "" {
		args = append(args, q.Name)
		where = append(where, fmt.Sprintf(`name ILIKE '%%' || $%d || '%%'`, len(args)))
	}
	if q.Reference != "" {
		args = append(args, q.Reference)
		where = append(where, fmt.Sprintf(`reference ILIKE '%%' || $%d || '%%'`, len(args)))
	}
	for i, w := range where {
		if i == 0 {
			sql += ` WHERE ` + w
		} else {
			sql += ` AND ` + w
		}
	}
	sql += ` ORDER BY reference, name`

	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, domain.NotFound("product", id)
	}
	return p, err
}

func (r *Repo) Create(ctx context.Context, p Product) (Product, error) {
	p.ID = uuid.NewString()
	row := r.DB.QueryRow(ctx, `
		INSERT INTO products(id, reference, name, purchase_cents, sale_cents, stock)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING `+productCols,
		p.ID, p.Reference, p.Name, p.PurchaseCents, p.SaleCents, p.Stock)
	return scanProduct(row)
}

func (r *Repo) Update(ctx context.Context, p Product) (Product, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE products
		SET reference=$2, name=$3, purchase_cents=$4, sale_cents=$5, stock=$6, updated_at=now()
		WHERE id=$1
		RETURNING `+productCols,
		p.ID, p.Reference, p.Name, p.PurchaseCents, p.SaleCents, p.Stock)
	out, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, domain.NotFound("product", p.ID)
	}
	return out, err
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.NotFound("product", id)
	}
	return nil
}

// ReplaceAll is the destructive swap the feed server assumes: delete the whole
// catalog, bulk-insert the parsed records, one transaction. Order items
// referencing the old products cascade away with them.
func (r *Repo) ReplaceAll(ctx context.Context, records []Record) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM products`); err != nil {
		return err
	}

	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []any{uuid.NewString(), rec.Reference, rec.Name, rec.PurchaseCents, rec.SaleCents, rec.Stock})
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"products"},
		[]string{"id", "reference", "name", "purchase_cents", "sale_cents", "stock"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type MergeStats struct {
	Inserted int
	Updated  int
	Deleted  int
	Retained int // absent from the feed but kept because order items reference them
	Dropped  int // empty or duplicate reference, not applied
}

// MergeByReference applies the feed as a delta: records matching an existing
// product by reference update it in place, new references are inserted, and
// products missing from the feed are deleted only when no order item
// references them (otherwise they are kept with stock zeroed). Existing order
// lines keep pointing at live products across a refresh.
func (r *Repo) MergeByReference(ctx context.Context, records []Record) (MergeStats, error) {
	var stats MergeStats

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return stats, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `SELECT id, reference FROM products FOR UPDATE`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	existing := map[string]string{} // reference -> id
	for rows.Next() {
		var id, ref string
		if err := rows.Scan(&id, &ref); err != nil {
			return stats, err
		}
		if ref != "" {
			existing[ref] = id
		}
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	seen := map[string]bool{}
	for _, rec := range records {
		// merge keys on reference: records without one cannot match, and a
		// duplicate reference in the feed is first-record-wins
		if rec.Reference == "" || seen[rec.Reference] {
			stats.Dropped++
			continue
		}
		seen[rec.Reference] = true
		if id, ok := existing[rec.Reference]; ok {
			if _, err := tx.Exec(ctx, `
				UPDATE products SET name=$2, purchase_cents=$3, sale_cents=$4, stock=$5, updated_at=now()
				WHERE id=$1`,
				id, rec.Name, rec.PurchaseCents, rec.SaleCents, rec.Stock); err != nil {
				return stats, err
			}
			stats.Updated++
			continue
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO products(id, reference, name, purchase_cents, sale_cents, stock)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			uuid.NewString(), rec.Reference, rec.Name, rec.PurchaseCents, rec.SaleCents, rec.Stock); err != nil {
			return stats, err
		}
		stats.Inserted++
	}

	for ref, id := range existing {
		if seen[ref] {
			continue
		}
		var referenced bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM order_items WHERE product_id=$1)`, id).Scan(&referenced); err != nil {
			return stats, err
		}
		if referenced {
			if _, err := tx.Exec(ctx, `UPDATE products SET stock=0, updated_at=now() WHERE id=$1`, id); err != nil {
				return stats, err
			}
			stats.Retained++
			continue
		}
		if _, err := tx.Exec(ctx, `DELETE FROM products WHERE id=$1`, id); err != nil {
			return stats, err
		}
		stats.Deleted++
	}

	if err := tx.Commit(ctx); err != nil {
		return stats, err
	}
	return stats, nil
}
