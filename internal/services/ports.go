package services

import (
	"context"

	"github.com/google/uuid"

	"notinha/internal/core"
)

// Narrow storage ports, so services are testable against fakes and the
// SQLite repository satisfies them structurally.
type (
	// ReceiptStore is the receipt persistence surface.
	ReceiptStore interface {
		CreateReceipt(ctx context.Context, rec core.Receipt) error
		GetReceipt(ctx context.Context, id uuid.UUID) (core.Receipt, error)
		ListReceipts(ctx context.Context, userID string) ([]core.Receipt, error)
		ListReceiptsByPurchaseDate(ctx context.Context, userID string) ([]core.Receipt, error)
		UpdateReceipt(ctx context.Context, rec core.Receipt) error
		DeleteReceipt(ctx context.Context, id uuid.UUID) error
	}

	// ImageStore is the blob surface for uploaded receipt photos.
	ImageStore interface {
		SaveImage(ctx context.Context, id uuid.UUID, mimeType string, data []byte) error
		LinkImage(ctx context.Context, imageID, receiptID uuid.UUID) error
	}

	// ProductStore is the canonical-product and name-mapping surface.
	ProductStore interface {
		LookupMapping(ctx context.Context, originalName string) (core.NormalizedProduct, bool, error)
		UpsertNormalizedProduct(ctx context.Context, normalizedName string) (core.NormalizedProduct, error)
		InsertMapping(ctx context.Context, originalName string, productID uuid.UUID) error
		GetNormalizedProduct(ctx context.Context, id uuid.UUID) (core.NormalizedProduct, error)
		SearchNormalizedProducts(ctx context.Context, term string) ([]core.NormalizedProduct, error)
		OriginalNames(ctx context.Context, productID uuid.UUID) ([]string, error)
	}

	// ShoppingStore is the shopping list persistence surface.
	ShoppingStore interface {
		CreateShoppingItem(ctx context.Context, item core.ShoppingListItem) error
		ListShoppingItems(ctx context.Context, userID string) ([]core.ShoppingListItem, error)
		SetShoppingItemCompleted(ctx context.Context, id uuid.UUID, completed bool) error
		DeleteShoppingItem(ctx context.Context, id uuid.UUID) error
	}

	// NormalizeScheduler detaches product-name normalization from the
	// request/response flow. Implementations must not block on the work
	// itself; the ingest caller never waits for normalization.
	NormalizeScheduler interface {
		ScheduleNormalize(ctx context.Context, receiptID uuid.UUID) error
	}
)
