package receipt

import (
	"math"
	"strings"
	"time"

	"notinha/internal/core"
)

// Validated is the guaranteed-consistent result of validating one candidate.
type Validated struct {
	Items        []core.ReceiptItem
	StoreName    string
	PurchaseDate time.Time
}

// Validate converts a candidate into validated line items plus store name and
// purchase date. Unusable items are emitted zeroed with ValidFormat=false,
// never dropped, so the rest of the receipt still goes through. The only
// failure is core.ErrNoValidItems, when not a single item carried a name or a
// total.
//
// Per-item rules:
//   - empty name or unreadable total: zeroed item, ValidFormat=false
//   - missing quantity: quantity=1, unitPrice=total, ValidFormat=true
//     (two-column receipts with only name+total are common and not penalized)
//   - missing unit price: unitPrice = total/quantity
//   - otherwise the printed total is checked against quantity*unitPrice
//     within an absolute cent tolerance; the printed total is preserved as
//     the source of truth either way.
func Validate(c Candidate, now time.Time) (Validated, error) {
	items := make([]core.ReceiptItem, 0, len(c.Items))
	usable := false

	for _, ci := range c.Items {
		name := strings.TrimSpace(ci.ProductName)

		if name == "" || !ci.Total.Valid {
			items = append(items, core.ReceiptItem{ProductName: name})
			if name != "" {
				usable = true
			}
			continue
		}
		usable = true

		total := ci.Total.Value
		item := core.ReceiptItem{ProductName: name, Total: total}

		if !ci.Quantity.Valid || ci.Quantity.Value <= 0 {
			// Name+total receipts: one unit costing the full total.
			item.Quantity = 1
			item.UnitPrice = total
			item.ValidFormat = true
			items = append(items, item)
			continue
		}
		item.Quantity = ci.Quantity.Value

		switch {
		case !ci.UnitPrice.Valid || ci.UnitPrice.Value == 0:
			item.UnitPrice = total / item.Quantity
			item.ValidFormat = true
		case ci.UnitPrice.Value == total:
			// Extraction copied the line total into the unit price column;
			// treated as consistent rather than penalized.
			item.UnitPrice = ci.UnitPrice.Value
			item.ValidFormat = true
		default:
			item.UnitPrice = ci.UnitPrice.Value
			item.ValidFormat = math.Abs(item.Quantity*item.UnitPrice-total) < core.TotalTolerance
		}

		items = append(items, item)
	}

	if !usable {
		return Validated{}, core.ErrNoValidItems
	}

	return Validated{
		Items:        items,
		StoreName:    storeName(c),
		PurchaseDate: purchaseDate(c, now),
	}, nil
}

func storeName(c Candidate) string {
	if c.StoreInfo != nil {
		if name := strings.TrimSpace(c.StoreInfo.Name); name != "" {
			return name
		}
	}
	return core.UnknownStore
}

// purchaseDate reads the extraction date (store block first, then the
// top-level field), falling back to the ingestion date.
func purchaseDate(c Candidate, now time.Time) time.Time {
	candidates := []string{c.PurchaseDate}
	if c.StoreInfo != nil {
		candidates = []string{c.StoreInfo.Date, c.PurchaseDate}
	}
	for _, s := range candidates {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if d, err := time.Parse("2006-01-02", s); err == nil {
			return d
		}
	}
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
