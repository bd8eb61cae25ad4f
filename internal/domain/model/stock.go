package model

import "time"

// Product is the catalog snapshot the coordinator needs: sale state,
// price frozen into line items at checkout, and the stock counter with
// its optimistic version stamp.
type Product struct {
	ID            int64
	SellerID      int64
	Name          string
	ImageURL      string
	PriceCents    int64
	StockQuantity int
	Version       int64
	Active        bool
}

// AdjustmentReason explains why stock changed.
type AdjustmentReason string

const (
	ReasonOrderPlaced    AdjustmentReason = "order_placed"
	ReasonOrderCancelled AdjustmentReason = "order_cancelled"
	ReasonRestock        AdjustmentReason = "restock"
	ReasonDamaged        AdjustmentReason = "damaged"
	ReasonLost           AdjustmentReason = "lost"
	ReasonReturned       AdjustmentReason = "returned"
	ReasonManual         AdjustmentReason = "manual"
	ReasonBulk           AdjustmentReason = "bulk"
	ReasonCorrection     AdjustmentReason = "system_correction"
)

// ValidAdjustmentReason reports whether the reason code is known.
func ValidAdjustmentReason(r AdjustmentReason) bool {
	switch r {
	case ReasonOrderPlaced, ReasonOrderCancelled, ReasonRestock, ReasonDamaged,
		ReasonLost, ReasonReturned, ReasonManual, ReasonBulk, ReasonCorrection:
		return true
	}
	return false
}

// StockAdjustment is an append-only ledger entry recording one stock
// mutation with its before/after quantities. Rows are never updated or
// deleted; the ledger is the sole source of truth for why stock changed.
type StockAdjustment struct {
	ID          int64
	ProductID   int64
	PreviousQty int
	NewQty      int
	Delta       int
	Reason      AdjustmentReason
	ActorID     *int64
	Automated   bool
	CreatedAt   time.Time
}
