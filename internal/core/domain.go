package core

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

// UnknownStore is the sentinel store name used when extraction does not
// identify the establishment.
const UnknownStore = "unidentified establishment"

// TotalTolerance is the absolute tolerance, in currency units, used when
// checking that quantity * unit price matches an item's printed total.
// It is one cent and deliberately does not scale with magnitude.
const TotalTolerance = 0.01

type (
	// ReceiptItem is a single line item as extracted from a receipt image.
	// It is owned by its Receipt and never persisted on its own.
	ReceiptItem struct {
		ProductName string  `json:"productName"`
		Quantity    float64 `json:"quantity"`
		UnitPrice   float64 `json:"unitPrice"`
		Total       float64 `json:"total"`
		ValidFormat bool    `json:"validFormat"`
	}

	// Receipt is one processed supermarket receipt. Total is derived from the
	// items and recomputed on every edit, never set independently.
	Receipt struct {
		ID           uuid.UUID     `json:"id"`
		Store        string        `json:"mercado"`
		PurchaseDate time.Time     `json:"data_compra"`
		Items        []ReceiptItem `json:"items"`
		Total        float64       `json:"total"`
		UserID       string        `json:"user_id"`
		CreatedAt    time.Time     `json:"created_at"`
	}

	// NormalizedProduct is a canonical product identity. Created once per
	// distinct canonical name, never mutated.
	NormalizedProduct struct {
		ID             uuid.UUID `json:"id"`
		NormalizedName string    `json:"normalized_name"`
	}

	// ProductNameMapping links one observed product spelling to its canonical
	// product. Each distinct original name maps to at most one product.
	ProductNameMapping struct {
		OriginalName        string    `json:"original_name"`
		NormalizedProductID uuid.UUID `json:"normalized_product_id"`
	}

	// ShoppingListItem is an entry on the user's shopping list. Quantity is
	// free-form text ("2", "1kg", "a few"), not numeric.
	ShoppingListItem struct {
		ID        uuid.UUID `json:"id"`
		Name      string    `json:"name"`
		Quantity  string    `json:"quantity"`
		Completed bool      `json:"completed"`
		UserID    string    `json:"user_id"`
		CreatedAt time.Time `json:"created_at"`
	}
)

var (
	// ErrInvalidFormat means the extraction output is structurally unusable:
	// not parseable, or missing store_info / items.
	ErrInvalidFormat = errors.New("receipt data has an invalid format")

	// ErrNoValidItems means the receipt parsed but yielded nothing usable.
	ErrNoValidItems = errors.New("no valid items found in receipt")

	// ErrServiceOverloaded means the extraction call exhausted its retries.
	ErrServiceOverloaded = errors.New("extraction service is overloaded, try again shortly")

	// ErrPrecondition means the uploaded file exceeds the size limit.
	ErrPrecondition = errors.New("upload precondition failed")

	// ErrUnsupportedMedia means the uploaded file is not an image.
	ErrUnsupportedMedia = errors.New("unsupported media type")

	// ErrNormalization means the external normalization call failed. It is
	// recovered locally and never propagates past the background task.
	ErrNormalization = errors.New("product name normalization failed")

	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("record not found")
)

// SumTotals derives a receipt's total from its items, rounded to cents.
func SumTotals(items []ReceiptItem) float64 {
	var sum float64
	for _, item := range items {
		sum += item.Total
	}
	return RoundCents(sum)
}

// RoundCents rounds a currency amount to two decimal places.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
