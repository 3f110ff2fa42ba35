package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"notinha/internal/core"
)

// LookupMapping resolves an observed product name to its canonical product,
// if a mapping exists. The bool reports whether one was found.
func (r *SQLiteRepository) LookupMapping(ctx context.Context, originalName string) (core.NormalizedProduct, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT p.id, p.normalized_name
		 FROM product_name_mappings m
		 JOIN normalized_products p ON p.id = m.normalized_product_id
		 WHERE m.original_name = ?`, originalName)

	var (
		id   string
		name string
	)
	err := row.Scan(&id, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.NormalizedProduct{}, false, nil
	}
	if err != nil {
		return core.NormalizedProduct{}, false, fmt.Errorf("lookup mapping: %w", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return core.NormalizedProduct{}, false, fmt.Errorf("parse product id: %w", err)
	}
	return core.NormalizedProduct{ID: parsed, NormalizedName: name}, true, nil
}

// UpsertNormalizedProduct inserts a canonical name if it is new and returns
// the product id either way. Concurrent inserts of the same name resolve via
// the unique constraint: the losing insert is ignored and the winning row is
// re-read.
func (r *SQLiteRepository) UpsertNormalizedProduct(ctx context.Context, normalizedName string) (core.NormalizedProduct, error) {
	newID := uuid.New()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO normalized_products (id, normalized_name) VALUES (?, ?)
		 ON CONFLICT(normalized_name) DO NOTHING`,
		newID.String(), normalizedName)
	if err != nil {
		return core.NormalizedProduct{}, fmt.Errorf("insert normalized product: %w", err)
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT id FROM normalized_products WHERE normalized_name = ?`, normalizedName)
	var id string
	if err := row.Scan(&id); err != nil {
		return core.NormalizedProduct{}, fmt.Errorf("select normalized product: %w", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return core.NormalizedProduct{}, fmt.Errorf("parse product id: %w", err)
	}
	return core.NormalizedProduct{ID: parsed, NormalizedName: normalizedName}, nil
}

// InsertMapping records original_name -> product. Inserting an existing name
// is a no-op, keeping the at-most-one-mapping-per-name invariant.
func (r *SQLiteRepository) InsertMapping(ctx context.Context, originalName string, productID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO product_name_mappings (original_name, normalized_product_id) VALUES (?, ?)
		 ON CONFLICT(original_name) DO NOTHING`,
		originalName, productID.String())
	if err != nil {
		return fmt.Errorf("insert mapping: %w", err)
	}

	slog.DebugContext(ctx, "Product name mapping stored",
		"product_name", originalName,
		"product_id", productID)
	return nil
}

// GetNormalizedProduct returns one canonical product by id.
func (r *SQLiteRepository) GetNormalizedProduct(ctx context.Context, id uuid.UUID) (core.NormalizedProduct, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, normalized_name FROM normalized_products WHERE id = ?`, id.String())

	var rawID, name string
	err := row.Scan(&rawID, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.NormalizedProduct{}, core.ErrNotFound
	}
	if err != nil {
		return core.NormalizedProduct{}, fmt.Errorf("get normalized product: %w", err)
	}
	return core.NormalizedProduct{ID: id, NormalizedName: name}, nil
}

// SearchNormalizedProducts returns products whose canonical name contains the
// term, plus products reachable through a mapping whose original name
// contains the term, deduplicated by id.
func (r *SQLiteRepository) SearchNormalizedProducts(ctx context.Context, term string) ([]core.NormalizedProduct, error) {
	pattern := "%" + term + "%"
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, normalized_name FROM normalized_products
		 WHERE normalized_name LIKE ?
		 UNION
		 SELECT p.id, p.normalized_name
		 FROM normalized_products p
		 JOIN product_name_mappings m ON m.normalized_product_id = p.id
		 WHERE m.original_name LIKE ?
		 ORDER BY normalized_name`,
		pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search normalized products: %w", err)
	}
	defer rows.Close()

	var products []core.NormalizedProduct
	for rows.Next() {
		var rawID, name string
		if err := rows.Scan(&rawID, &name); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("parse product id: %w", err)
		}
		products = append(products, core.NormalizedProduct{ID: id, NormalizedName: name})
	}
	return products, rows.Err()
}

// OriginalNames returns the equivalence set of observed spellings for one
// canonical product.
func (r *SQLiteRepository) OriginalNames(ctx context.Context, productID uuid.UUID) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT original_name FROM product_name_mappings WHERE normalized_product_id = ?`,
		productID.String())
	if err != nil {
		return nil, fmt.Errorf("list original names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan original name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
