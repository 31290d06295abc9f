package repository

import (
	"context"
	"database/sql"

	"github.com/ALVINfrs/caffeine/internal/model"
)

// ProductRepo reads the product catalog.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo returns a new ProductRepo bound to the given database.
func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

// SnapshotTx freezes a product's current name and price inside the order
// transaction.  ErrNotFound when the product does not exist.
func (r *ProductRepo) SnapshotTx(ctx context.Context, tx *sql.Tx, productID uint64) (model.ProductSnapshot, error) {
	var p model.Product
	err := tx.QueryRowContext(ctx, `SELECT id, name, price FROM products WHERE id = ?`, productID).
		Scan(&p.ID, &p.Name, &p.Price)
	if err != nil {
		return model.ProductSnapshot{}, translate(err)
	}
	return p.Snapshot(), nil
}

// List returns the whole catalog ordered by category then name.
func (r *ProductRepo) List(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(description, ''), price, category, image_url, created_at
         FROM products ORDER BY category, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Product, 0)
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.ImageURL, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
