package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"notinha/internal/cache"
	"notinha/internal/core"
	"notinha/internal/extract"
	"notinha/internal/log"
)

// MinSearchLength is the minimum number of runes a product search term must
// have before the store is queried.
const MinSearchLength = 2

// NormalizerService maps observed product spellings onto canonical products.
// Resolution order is hot cache, persisted mapping, external normalizer. A
// failed external call degrades to the original spelling without persisting
// anything, leaving that spelling eligible for a retry.
type NormalizerService struct {
	products   ProductStore
	normalizer extract.NameNormalizer
	hot        *cache.LRU[core.NormalizedProduct]
	logger     *log.Logger
}

func NewNormalizerService(products ProductStore, normalizer extract.NameNormalizer, logger *log.Logger) *NormalizerService {
	return &NormalizerService{
		products:   products,
		normalizer: normalizer,
		hot:        cache.NewLRU[core.NormalizedProduct](512, 30*time.Minute),
		logger:     logger.WithComponent(log.ComponentNormalizer),
	}
}

// HotCache exposes the mapping cache for expiry sweeps.
func (s *NormalizerService) HotCache() cache.Cleaner {
	return s.hot
}

// NormalizeProductName resolves one original spelling to its canonical
// product. Repeated calls with the same spelling hit the persisted mapping
// and make no further external calls. When the external call fails the
// original name comes back unchanged and nothing is persisted, so a later
// receipt retries once the model recovers. Nothing is surfaced to the caller.
func (s *NormalizerService) NormalizeProductName(ctx context.Context, originalName string) core.NormalizedProduct {
	originalName = strings.TrimSpace(originalName)
	if originalName == "" {
		return core.NormalizedProduct{}
	}

	if p, ok := s.hot.Get(originalName); ok {
		return p
	}

	if p, ok, err := s.products.LookupMapping(ctx, originalName); err != nil {
		s.logger.WarnContext(ctx, "Mapping lookup failed",
			log.FieldProductName, originalName,
			log.FieldError, err)
	} else if ok {
		s.hot.Set(originalName, p)
		return p
	}

	canonical, err := s.callNormalizer(ctx, originalName)
	if err != nil {
		s.logger.WarnContext(ctx, "External normalization failed, keeping original name",
			log.FieldProductName, originalName,
			log.FieldError, err)
		return core.NormalizedProduct{NormalizedName: originalName}
	}

	product, err := s.products.UpsertNormalizedProduct(ctx, canonical)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to upsert normalized product",
			log.FieldProductName, originalName,
			log.FieldCanonicalName, canonical,
			log.FieldError, err)
		return core.NormalizedProduct{NormalizedName: canonical}
	}

	if err := s.products.InsertMapping(ctx, originalName, product.ID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to insert name mapping",
			log.FieldProductName, originalName,
			log.FieldProductID, product.ID,
			log.FieldError, err)
	}

	s.hot.Set(originalName, product)
	s.logger.InfoContext(ctx, "Normalized product name",
		log.FieldProductName, originalName,
		log.FieldCanonicalName, product.NormalizedName,
		log.FieldProductID, product.ID)
	return product
}

// NormalizeReceiptItems resolves every named item on a receipt, one at a
// time. Individual failures are already degraded inside
// NormalizeProductName, so the loop always finishes.
func (s *NormalizerService) NormalizeReceiptItems(ctx context.Context, rec core.Receipt) {
	normalized := 0
	for _, item := range rec.Items {
		if strings.TrimSpace(item.ProductName) == "" {
			continue
		}
		s.NormalizeProductName(ctx, item.ProductName)
		normalized++
	}
	s.logger.InfoContext(ctx, "Receipt items normalized",
		log.FieldReceiptID, rec.ID,
		log.FieldItemCount, normalized)
}

// callNormalizer asks the external normalizer for a canonical name and cleans
// the answer. An empty answer falls back to the original spelling in
// lowercase; a failed call returns the error so the caller can skip
// persistence.
func (s *NormalizerService) callNormalizer(ctx context.Context, originalName string) (string, error) {
	raw, err := s.normalizer.NormalizeName(ctx, originalName)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrNormalization, err)
	}

	canonical := CleanCanonicalName(raw)
	if canonical == "" {
		return CleanCanonicalName(originalName), nil
	}
	return canonical, nil
}

// CleanCanonicalName strips quotes and surrounding whitespace from a model
// answer and lowercases it, so equivalent answers collapse to one row.
func CleanCanonicalName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Trim(name, "\"'`")
	name = strings.TrimSpace(name)
	return strings.ToLower(name)
}

// SearchProducts finds canonical products whose name, or any mapped original
// spelling, contains the term. Terms shorter than MinSearchLength return
// nothing rather than scanning the whole catalog.
func (s *NormalizerService) SearchProducts(ctx context.Context, term string) ([]core.NormalizedProduct, error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < MinSearchLength {
		return []core.NormalizedProduct{}, nil
	}
	return s.products.SearchNormalizedProducts(ctx, term)
}

// Product returns one canonical product by ID.
func (s *NormalizerService) Product(ctx context.Context, id uuid.UUID) (core.NormalizedProduct, error) {
	return s.products.GetNormalizedProduct(ctx, id)
}

// EquivalentNames returns every original spelling mapped to the product.
func (s *NormalizerService) EquivalentNames(ctx context.Context, productID uuid.UUID) ([]string, error) {
	return s.products.OriginalNames(ctx, productID)
}
