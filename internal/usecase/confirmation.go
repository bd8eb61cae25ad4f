package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainErrors "github.com/sablin/fairmarket/internal/domain/errors"
	"github.com/sablin/fairmarket/internal/domain/model"
	"github.com/sablin/fairmarket/internal/domain/repository"
)

// ConfirmationUseCase implements the seller confirmation gate: an order
// leaves PENDING only when every seller with items on it has
// acknowledged, or an admin override was recorded.
type ConfirmationUseCase struct {
	orders        repository.OrderRepository
	confirmations repository.ConfirmationRepository
	logger        *slog.Logger
}

// NewConfirmationUseCase constructs ConfirmationUseCase.
func NewConfirmationUseCase(orders repository.OrderRepository, confirmations repository.ConfirmationRepository, logger *slog.Logger) *ConfirmationUseCase {
	return &ConfirmationUseCase{orders: orders, confirmations: confirmations, logger: logger}
}

// Record marks the seller's confirmation. Confirming twice is a no-op.
// Readiness is recomputed from the confirmation rows on every write;
// when the set becomes complete the order moves to CONFIRMED. Returns
// whether the order transitioned as a result of this call.
func (u *ConfirmationUseCase) Record(ctx context.Context, orderID, sellerID int64) (bool, error) {
	newly, err := u.confirmations.Confirm(ctx, orderID, sellerID, time.Now())
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return false, domainErrors.ErrNotSellerOnOrder
		}
		return false, err
	}
	if !newly {
		return false, nil
	}

	full, err := u.IsFullyConfirmed(ctx, orderID)
	if err != nil {
		return false, err
	}
	if !full {
		return false, nil
	}

	err = u.orders.TransitionStatus(ctx, orderID, model.OrderStatusPending, model.OrderStatusConfirmed)
	if err != nil {
		// Already past PENDING: an admin forced the transition or the
		// order was cancelled meanwhile. The confirmation itself stands.
		if errors.Is(err, domainErrors.ErrInvalidState) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// IsFullyConfirmed derives order readiness from the confirmation rows.
func (u *ConfirmationUseCase) IsFullyConfirmed(ctx context.Context, orderID int64) (bool, error) {
	list, err := u.confirmations.ListByOrder(ctx, orderID)
	if err != nil {
		return false, err
	}
	return model.AllConfirmed(list), nil
}

// PendingSellers lists sellers that have not yet confirmed the order.
func (u *ConfirmationUseCase) PendingSellers(ctx context.Context, orderID int64) ([]int64, error) {
	list, err := u.confirmations.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return model.PendingSellers(list), nil
}

// ForceConfirm moves the order to CONFIRMED regardless of outstanding
// seller confirmations. The escape hatch for unresponsive sellers; the
// overriding admin and reason are always logged.
func (u *ConfirmationUseCase) ForceConfirm(ctx context.Context, orderID, adminID int64, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return domainErrors.ErrReasonRequired
	}
	if err := u.orders.TransitionStatus(ctx, orderID, model.OrderStatusPending, model.OrderStatusConfirmed); err != nil {
		return err
	}
	u.logger.Info("admin force-confirmed order",
		slog.Int64("order_id", orderID),
		slog.Int64("admin_id", adminID),
		slog.String("reason", reason),
	)
	return nil
}
