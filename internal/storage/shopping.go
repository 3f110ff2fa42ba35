package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"notinha/internal/core"
)

func (r *SQLiteRepository) CreateShoppingItem(ctx context.Context, item core.ShoppingListItem) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shopping_list_items (id, name, quantity, completed, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID.String(), item.Name, item.Quantity, boolToInt(item.Completed),
		item.UserID, item.CreatedAt.Format(tsLayout))
	if err != nil {
		return fmt.Errorf("insert shopping item: %w", err)
	}
	return nil
}

// ListShoppingItems returns a user's list, newest first.
func (r *SQLiteRepository) ListShoppingItems(ctx context.Context, userID string) ([]core.ShoppingListItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, quantity, completed, user_id, created_at
		 FROM shopping_list_items WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list shopping items: %w", err)
	}
	defer rows.Close()

	var items []core.ShoppingListItem
	for rows.Next() {
		var (
			item      core.ShoppingListItem
			id        string
			completed int
			created   string
		)
		if err := rows.Scan(&id, &item.Name, &item.Quantity, &completed, &item.UserID, &created); err != nil {
			return nil, fmt.Errorf("scan shopping item: %w", err)
		}
		if item.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse shopping item id: %w", err)
		}
		if item.CreatedAt, err = time.Parse(tsLayout, created); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		item.Completed = completed != 0
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *SQLiteRepository) SetShoppingItemCompleted(ctx context.Context, id uuid.UUID, completed bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE shopping_list_items SET completed = ? WHERE id = ?`,
		boolToInt(completed), id.String())
	if err != nil {
		return fmt.Errorf("update shopping item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteShoppingItem(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM shopping_list_items WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete shopping item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// --- image blobs ---

// SaveImage stores an uploaded receipt photo. The receipt link is set later,
// once the receipt row exists.
func (r *SQLiteRepository) SaveImage(ctx context.Context, id uuid.UUID, mimeType string, data []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO receipt_images (id, mime_type, data, created_at) VALUES (?, ?, ?, ?)`,
		id.String(), mimeType, data, time.Now().UTC().Format(tsLayout))
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

// LinkImage attaches a stored image to its persisted receipt.
func (r *SQLiteRepository) LinkImage(ctx context.Context, imageID, receiptID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE receipt_images SET receipt_id = ? WHERE id = ?`,
		receiptID.String(), imageID.String())
	if err != nil {
		return fmt.Errorf("link image: %w", err)
	}
	return nil
}

// GetImageByReceipt retrieves the photo stored for a receipt.
func (r *SQLiteRepository) GetImageByReceipt(ctx context.Context, receiptID uuid.UUID) (mimeType string, data []byte, err error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT mime_type, data FROM receipt_images WHERE receipt_id = ? ORDER BY created_at DESC LIMIT 1`,
		receiptID.String())
	err = row.Scan(&mimeType, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, core.ErrNotFound
	}
	if err != nil {
		return "", nil, fmt.Errorf("get image: %w", err)
	}
	return mimeType, data, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
