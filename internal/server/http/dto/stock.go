package dto

import "time"

// AdjustStockRequest applies one signed delta to a product.
type AdjustStockRequest struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

// BulkStockItem is one position of a bulk stock update.
type BulkStockItem struct {
	ProductID int64 `json:"product_id"`
	Delta     int   `json:"delta"`
}

// BulkAdjustRequest applies several deltas as one logical batch.
type BulkAdjustRequest struct {
	Items  []BulkStockItem `json:"items"`
	Reason string          `json:"reason"`
}

// ProductResponse mirrors the catalog snapshot.
type ProductResponse struct {
	ID            int64  `json:"id"`
	SellerID      int64  `json:"seller_id"`
	Name          string `json:"name"`
	PriceCents    int64  `json:"price_cents"`
	StockQuantity int    `json:"stock_quantity"`
	Active        bool   `json:"active"`
}

// AdjustmentResponse is one ledger entry.
type AdjustmentResponse struct {
	ProductID   int64     `json:"product_id"`
	PreviousQty int       `json:"previous_qty"`
	NewQty      int       `json:"new_qty"`
	Delta       int       `json:"delta"`
	Reason      string    `json:"reason"`
	ActorID     *int64    `json:"actor_id,omitempty"`
	Automated   bool      `json:"automated"`
	CreatedAt   time.Time `json:"created_at"`
}
