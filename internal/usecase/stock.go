package usecase

import (
	"context"
	"errors"

	domainErrors "github.com/sablin/fairmarket/internal/domain/errors"
	"github.com/sablin/fairmarket/internal/domain/model"
	"github.com/sablin/fairmarket/internal/domain/repository"
)

// StockUseCase mutates the stock counter through optimistic version
// checks, retrying lost races with fresh reads a bounded number of
// times before surfacing the conflict.
type StockUseCase struct {
	stock      repository.StockRepository
	retryLimit int
}

// NewStockUseCase constructs StockUseCase.
func NewStockUseCase(stock repository.StockRepository, retryLimit int) *StockUseCase {
	if retryLimit <= 0 {
		retryLimit = 1
	}
	return &StockUseCase{stock: stock, retryLimit: retryLimit}
}

// Adjust applies a signed delta to the product's stock. Every
// successful mutation appends one ledger row recording before/after
// quantities and the reason. Sellers may only adjust their own
// products; admins may adjust any.
func (u *StockUseCase) Adjust(ctx context.Context, productID int64, delta int, reason model.AdjustmentReason, actorID *int64, role model.Role) (*model.Product, error) {
	if delta == 0 {
		return nil, domainErrors.ErrInvalidQuantity
	}
	if !model.ValidAdjustmentReason(reason) {
		return nil, domainErrors.ErrReasonRequired
	}

	var lastErr error
	for attempt := 0; attempt < u.retryLimit; attempt++ {
		product, err := u.stock.GetProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		if role == model.RoleSeller && (actorID == nil || product.SellerID != *actorID) {
			return nil, domainErrors.ErrForbidden
		}

		newQty := product.StockQuantity + delta
		if newQty < 0 {
			return nil, domainErrors.ErrNegativeStock
		}

		updated, err := u.stock.Adjust(ctx, productID, product.Version, newQty, model.StockAdjustment{
			ProductID:   productID,
			PreviousQty: product.StockQuantity,
			NewQty:      newQty,
			Delta:       delta,
			Reason:      reason,
			ActorID:     actorID,
		})
		if err != nil {
			if errors.Is(err, domainErrors.ErrConcurrentModification) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return updated, nil
	}
	return nil, lastErr
}

// BulkAdjust applies several product deltas as one logical batch, one
// ledger row per product. Sellers may only touch their own products.
func (u *StockUseCase) BulkAdjust(ctx context.Context, changes []repository.StockChange, reason model.AdjustmentReason, actorID *int64, role model.Role) ([]model.StockAdjustment, error) {
	if len(changes) == 0 {
		return nil, domainErrors.ErrInvalidQuantity
	}
	if !model.ValidAdjustmentReason(reason) {
		return nil, domainErrors.ErrReasonRequired
	}
	if role == model.RoleSeller {
		ids := make([]int64, 0, len(changes))
		for _, ch := range changes {
			ids = append(ids, ch.ProductID)
		}
		products, err := u.stock.GetProducts(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, p := range products {
			if actorID == nil || p.SellerID != *actorID {
				return nil, domainErrors.ErrForbidden
			}
		}
	}
	return u.stock.BulkAdjust(ctx, changes, reason, actorID)
}

// History returns the product's adjustment ledger, newest first.
func (u *StockUseCase) History(ctx context.Context, productID int64) ([]model.StockAdjustment, error) {
	return u.stock.ListAdjustments(ctx, productID)
}

// Product returns the current catalog snapshot for a product.
func (u *StockUseCase) Product(ctx context.Context, productID int64) (*model.Product, error) {
	return u.stock.GetProduct(ctx, productID)
}
