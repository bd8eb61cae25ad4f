package repository

import (
	"context"
	"time"

	"github.com/sablin/fairmarket/internal/domain/model"
)

// ConfirmationRepository tracks per-seller acknowledgements.
type ConfirmationRepository interface {
	ListByOrder(ctx context.Context, orderID int64) ([]model.SellerConfirmation, error)

	// Confirm stamps the seller's confirmation. Returns false when the
	// seller had already confirmed (a no-op, not an error) and domain
	// ErrNotFound when no confirmation row exists for the pair.
	Confirm(ctx context.Context, orderID, sellerID int64, at time.Time) (bool, error)
}
