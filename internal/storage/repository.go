package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"notinha/internal/core"

	_ "modernc.org/sqlite"
)

const (
	dateLayout = "2006-01-02"
	tsLayout   = time.RFC3339Nano
)

// SQLiteRepository is the persistence layer: receipts, normalized products,
// name mappings, shopping list items and uploaded image blobs.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- receipts ---

// CreateReceipt writes the receipt and its items as one record. The ID and
// CreatedAt must already be set by the caller.
func (r *SQLiteRepository) CreateReceipt(ctx context.Context, rec core.Receipt) error {
	itemsJSON, err := json.Marshal(rec.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO receipts (id, mercado, data_compra, items, total, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.Store, rec.PurchaseDate.Format(dateLayout),
		string(itemsJSON), rec.Total, rec.UserID, rec.CreatedAt.Format(tsLayout))
	if err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}

	slog.InfoContext(ctx, "Receipt saved",
		"receipt_id", rec.ID,
		"store", rec.Store,
		"item_count", len(rec.Items),
		"total", rec.Total)
	return nil
}

func (r *SQLiteRepository) GetReceipt(ctx context.Context, id uuid.UUID) (core.Receipt, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, mercado, data_compra, items, total, user_id, created_at
		 FROM receipts WHERE id = ?`, id.String())
	rec, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Receipt{}, core.ErrNotFound
	}
	if err != nil {
		return core.Receipt{}, fmt.Errorf("get receipt: %w", err)
	}
	return rec, nil
}

// ListReceipts returns all receipts for a user, newest creation first.
func (r *SQLiteRepository) ListReceipts(ctx context.Context, userID string) ([]core.Receipt, error) {
	return r.listReceipts(ctx, userID, "created_at DESC")
}

// ListReceiptsByPurchaseDate returns all receipts for a user, most recent
// purchase first.
func (r *SQLiteRepository) ListReceiptsByPurchaseDate(ctx context.Context, userID string) ([]core.Receipt, error) {
	return r.listReceipts(ctx, userID, "data_compra DESC")
}

func (r *SQLiteRepository) listReceipts(ctx context.Context, userID, order string) ([]core.Receipt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, mercado, data_compra, items, total, user_id, created_at
		 FROM receipts WHERE user_id = ? ORDER BY `+order, userID)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	var receipts []core.Receipt
	for rows.Next() {
		rec, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		receipts = append(receipts, rec)
	}
	return receipts, rows.Err()
}

// UpdateReceipt replaces the whole receipt record (items and total together).
func (r *SQLiteRepository) UpdateReceipt(ctx context.Context, rec core.Receipt) error {
	itemsJSON, err := json.Marshal(rec.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE receipts SET mercado = ?, data_compra = ?, items = ?, total = ? WHERE id = ?`,
		rec.Store, rec.PurchaseDate.Format(dateLayout), string(itemsJSON), rec.Total, rec.ID.String())
	if err != nil {
		return fmt.Errorf("update receipt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteReceipt(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM receipts WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row rowScanner) (core.Receipt, error) {
	var (
		rec       core.Receipt
		id        string
		purchase  string
		itemsJSON string
		created   string
	)
	if err := row.Scan(&id, &rec.Store, &purchase, &itemsJSON, &rec.Total, &rec.UserID, &created); err != nil {
		return core.Receipt{}, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return core.Receipt{}, fmt.Errorf("parse receipt id: %w", err)
	}
	rec.ID = parsed

	if rec.PurchaseDate, err = time.Parse(dateLayout, purchase); err != nil {
		return core.Receipt{}, fmt.Errorf("parse purchase date: %w", err)
	}
	if rec.CreatedAt, err = time.Parse(tsLayout, created); err != nil {
		return core.Receipt{}, fmt.Errorf("parse created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(itemsJSON), &rec.Items); err != nil {
		return core.Receipt{}, fmt.Errorf("unmarshal items: %w", err)
	}
	return rec, nil
}
