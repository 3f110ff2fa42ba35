package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"notinha/internal/core"
	"notinha/internal/log"
	"notinha/internal/similarity"
)

// HistoryService answers price and spending questions by scanning persisted
// receipts. Matching is by name equivalence, either the persisted mapping
// (lookup by product ID) or fuzzy similarity (lookup by free-text name).
type HistoryService struct {
	receipts ReceiptStore
	products ProductStore
	logger   *log.Logger
}

func NewHistoryService(receipts ReceiptStore, products ProductStore, logger *log.Logger) *HistoryService {
	return &HistoryService{
		receipts: receipts,
		products: products,
		logger:   logger.WithComponent(log.ComponentHistory),
	}
}

// ProductHistoryByID builds the history for a canonical product using every
// original spelling mapped to it, plus the canonical name itself.
func (s *HistoryService) ProductHistoryByID(ctx context.Context, userID string, productID uuid.UUID) (core.ProductHistory, error) {
	product, err := s.products.GetNormalizedProduct(ctx, productID)
	if err != nil {
		return core.ProductHistory{}, err
	}

	names, err := s.products.OriginalNames(ctx, productID)
	if err != nil {
		return core.ProductHistory{}, fmt.Errorf("load mapped names: %w", err)
	}
	names = append(names, product.NormalizedName)

	return s.productHistory(ctx, userID, names)
}

// ProductHistoryByName builds the history for a free-text product name. The
// equivalence set is every distinct item name on the user's receipts that the
// similarity check groups with the query.
func (s *HistoryService) ProductHistoryByName(ctx context.Context, userID, name string) (core.ProductHistory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return emptyHistory(), nil
	}

	recs, err := s.receipts.ListReceipts(ctx, userID)
	if err != nil {
		return core.ProductHistory{}, fmt.Errorf("list receipts: %w", err)
	}

	seen := map[string]bool{}
	names := []string{name}
	for _, rec := range recs {
		for _, item := range rec.Items {
			key := strings.ToLower(strings.TrimSpace(item.ProductName))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			if similarity.IsSameProduct(name, item.ProductName, similarity.DefaultThreshold) {
				names = append(names, item.ProductName)
			}
		}
	}

	return s.productHistory(ctx, userID, names)
}

// SimilarNames returns the distinct receipt item names grouped with the query
// by the similarity check, without building the full history.
func (s *HistoryService) SimilarNames(ctx context.Context, userID, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return []string{}, nil
	}

	recs, err := s.receipts.ListReceipts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}

	seen := map[string]bool{}
	var matches []string
	for _, rec := range recs {
		for _, item := range rec.Items {
			key := strings.ToLower(strings.TrimSpace(item.ProductName))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			if similarity.IsSameProduct(name, item.ProductName, similarity.DefaultThreshold) {
				matches = append(matches, strings.TrimSpace(item.ProductName))
			}
		}
	}
	if matches == nil {
		matches = []string{}
	}
	return matches, nil
}

// productHistory scans the user's receipts newest-purchase-first and gathers
// every item whose name matches the equivalence set case-insensitively.
// Items with non-positive quantity or total are skipped; the effective unit
// price is total/quantity regardless of the printed unit price.
func (s *HistoryService) productHistory(ctx context.Context, userID string, names []string) (core.ProductHistory, error) {
	wanted := map[string]bool{}
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			wanted[n] = true
		}
	}

	recs, err := s.receipts.ListReceiptsByPurchaseDate(ctx, userID)
	if err != nil {
		return core.ProductHistory{}, fmt.Errorf("list receipts: %w", err)
	}

	history := emptyHistory()
	stats := &history.Stats

	for _, rec := range recs {
		for _, item := range rec.Items {
			if !wanted[strings.ToLower(strings.TrimSpace(item.ProductName))] {
				continue
			}
			if item.Quantity <= 0 || item.Total <= 0 {
				continue
			}

			unitPrice := core.RoundCents(item.Total / item.Quantity)

			history.PriceHistory = append(history.PriceHistory, core.PricePoint{
				Date:  rec.PurchaseDate,
				Price: unitPrice,
			})
			history.PurchaseHistory = append(history.PurchaseHistory, core.Purchase{
				Date:        rec.PurchaseDate,
				Price:       unitPrice,
				Market:      rec.Store,
				Quantity:    item.Quantity,
				Total:       item.Total,
				ProductName: item.ProductName,
			})

			// Strict comparisons keep the first extreme seen on ties.
			if stats.LowestPrice == nil || unitPrice < stats.LowestPrice.Price {
				stats.LowestPrice = &core.PriceExtreme{Price: unitPrice, Date: rec.PurchaseDate, Market: rec.Store}
			}
			if stats.HighestPrice == nil || unitPrice > stats.HighestPrice.Price {
				stats.HighestPrice = &core.PriceExtreme{Price: unitPrice, Date: rec.PurchaseDate, Market: rec.Store}
			}
			stats.TotalSpent = core.RoundCents(stats.TotalSpent + item.Total)
			stats.TotalQuantity += item.Quantity
		}
	}

	sort.SliceStable(history.PriceHistory, func(i, j int) bool {
		return history.PriceHistory[i].Date.Before(history.PriceHistory[j].Date)
	})
	sort.SliceStable(history.PurchaseHistory, func(i, j int) bool {
		return history.PurchaseHistory[i].Date.After(history.PurchaseHistory[j].Date)
	})

	return history, nil
}

// Dashboard builds the home-view aggregates. The month filter, when present,
// narrows the headline totals and the top-product ranking; the monthly series
// and the market distribution always cover all receipts.
func (s *HistoryService) Dashboard(ctx context.Context, userID string, month *time.Time) (core.Dashboard, error) {
	recs, err := s.receipts.ListReceipts(ctx, userID)
	if err != nil {
		return core.Dashboard{}, fmt.Errorf("list receipts: %w", err)
	}

	filtered := recs
	if month != nil {
		filtered = nil
		for _, rec := range recs {
			if rec.PurchaseDate.Year() == month.Year() && rec.PurchaseDate.Month() == month.Month() {
				filtered = append(filtered, rec)
			}
		}
	}

	dash := core.Dashboard{
		PurchaseCount: len(filtered),
		MonthlySpend:  monthlySpend(recs),
		Markets:       marketDistribution(recs),
		TopProducts:   topProducts(filtered),
	}
	for _, rec := range filtered {
		dash.TotalSpent += rec.Total
	}
	dash.TotalSpent = core.RoundCents(dash.TotalSpent)

	return dash, nil
}

func monthlySpend(recs []core.Receipt) []core.MonthlySpend {
	type ym struct {
		year  int
		month time.Month
	}
	totals := map[ym]float64{}
	for _, rec := range recs {
		key := ym{rec.PurchaseDate.Year(), rec.PurchaseDate.Month()}
		totals[key] += rec.Total
	}

	keys := make([]ym, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	out := make([]core.MonthlySpend, 0, len(keys))
	for _, k := range keys {
		out = append(out, core.MonthlySpend{
			Label: time.Date(k.year, k.month, 1, 0, 0, 0, 0, time.UTC).Format("Jan"),
			Year:  k.year,
			Month: int(k.month),
			Total: core.RoundCents(totals[k]),
		})
	}
	return out
}

func marketDistribution(recs []core.Receipt) []core.MarketShare {
	totals := map[string]float64{}
	var order []string
	for _, rec := range recs {
		if _, seen := totals[rec.Store]; !seen {
			order = append(order, rec.Store)
		}
		totals[rec.Store] += rec.Total
	}

	out := make([]core.MarketShare, 0, len(order))
	for _, market := range order {
		out = append(out, core.MarketShare{Market: market, Total: core.RoundCents(totals[market])})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })

	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

// topProducts ranks raw item names by spend. Names are keyed as printed on
// the receipts; normalization does not rewrite history.
func topProducts(recs []core.Receipt) []core.ProductTally {
	tallies := map[string]*core.ProductTally{}
	var order []string
	for _, rec := range recs {
		for _, item := range rec.Items {
			name := strings.TrimSpace(item.ProductName)
			if name == "" || item.Quantity <= 0 {
				continue
			}
			t, seen := tallies[name]
			if !seen {
				t = &core.ProductTally{Name: name}
				tallies[name] = t
				order = append(order, name)
			}
			t.Quantity += item.Quantity
			t.Total = core.RoundCents(t.Total + item.Total)
		}
	}

	out := make([]core.ProductTally, 0, len(order))
	for _, name := range order {
		out = append(out, *tallies[name])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })

	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

func emptyHistory() core.ProductHistory {
	return core.ProductHistory{
		PriceHistory:    []core.PricePoint{},
		PurchaseHistory: []core.Purchase{},
	}
}
