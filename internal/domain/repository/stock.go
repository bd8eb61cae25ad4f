package repository

import (
	"context"

	"github.com/sablin/fairmarket/internal/domain/model"
)

// StockChange is one position of a bulk stock update.
type StockChange struct {
	ProductID int64
	Delta     int
}

// StockRepository guards the stock counter with an optimistic version
// stamp and appends one immutable ledger row per successful mutation.
type StockRepository interface {
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	GetProducts(ctx context.Context, ids []int64) ([]model.Product, error)

	// Adjust writes newQty conditionally on the version being unchanged
	// since the caller's read, bumping it on success and appending the
	// adjustment row in the same transaction. A stale version returns
	// domain ErrConcurrentModification; the caller re-reads and retries.
	Adjust(ctx context.Context, productID, expectedVersion int64, newQty int, adj model.StockAdjustment) (*model.Product, error)

	// BulkAdjust applies all changes as one logical batch in a single
	// transaction, one ledger row per product.
	BulkAdjust(ctx context.Context, changes []StockChange, reason model.AdjustmentReason, actorID *int64) ([]model.StockAdjustment, error)

	ListAdjustments(ctx context.Context, productID int64) ([]model.StockAdjustment, error)
}
