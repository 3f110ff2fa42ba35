package core

import "time"

// PricePoint is one observation in a product's chronological price series.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// Purchase is one full purchase record for a product.
type Purchase struct {
	Date        time.Time `json:"date"`
	Price       float64   `json:"price"`
	Market      string    `json:"market"`
	Quantity    float64   `json:"quantity"`
	Total       float64   `json:"total"`
	ProductName string    `json:"productName"`
}

// PriceExtreme records where and when a minimum or maximum unit price was
// seen. Ties keep the first occurrence in scan order.
type PriceExtreme struct {
	Price  float64   `json:"price"`
	Date   time.Time `json:"date"`
	Market string    `json:"market"`
}

// ProductStats summarizes all matched purchases of one product.
type ProductStats struct {
	LowestPrice   *PriceExtreme `json:"lowestPrice"`
	HighestPrice  *PriceExtreme `json:"highestPrice"`
	TotalSpent    float64       `json:"totalSpent"`
	TotalQuantity float64       `json:"totalQuantity"`
}

// ProductHistory is the full answer to "what do I know about product X".
type ProductHistory struct {
	PriceHistory    []PricePoint `json:"priceHistory"`
	PurchaseHistory []Purchase   `json:"purchaseHistory"`
	Stats           ProductStats `json:"productStats"`
}

// MonthlySpend is the receipt total summed over one calendar month.
type MonthlySpend struct {
	Label string  `json:"name"` // locale short month name, e.g. "Jan"
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Total float64 `json:"value"`
}

// MarketShare is the spend total for one store.
type MarketShare struct {
	Market string  `json:"name"`
	Total  float64 `json:"value"`
}

// ProductTally accumulates quantity and spend for one raw product name.
type ProductTally struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Total    float64 `json:"total"`
}

// Dashboard bundles the headline figures and chart series for the home view.
type Dashboard struct {
	TotalSpent    float64        `json:"totalExpenses"`
	PurchaseCount int            `json:"purchases"`
	MonthlySpend  []MonthlySpend `json:"monthlyData"`
	Markets       []MarketShare  `json:"marketDistribution"`
	TopProducts   []ProductTally `json:"topProducts"`
}
