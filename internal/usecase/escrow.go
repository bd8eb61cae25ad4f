package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainErrors "github.com/sablin/fairmarket/internal/domain/errors"
	"github.com/sablin/fairmarket/internal/domain/model"
	"github.com/sablin/fairmarket/internal/domain/repository"
)

// Manual escrow actions an admin may take.
const (
	EscrowActionRelease = "release"
	EscrowActionFreeze  = "freeze"
	EscrowActionDispute = "dispute"
)

// EscrowUseCase manages held funds outside the order-driven paths:
// admin manual actions and the timer's auto-release.
type EscrowUseCase struct {
	escrows repository.EscrowRepository
	logger  *slog.Logger
}

// NewEscrowUseCase constructs EscrowUseCase.
func NewEscrowUseCase(escrows repository.EscrowRepository, logger *slog.Logger) *EscrowUseCase {
	return &EscrowUseCase{escrows: escrows, logger: logger}
}

// ManualAction applies an admin action to a single escrow. Notes are
// mandatory; every action is logged with the acting admin. A transition
// the current status does not allow fails with ErrInvalidState.
func (u *EscrowUseCase) ManualAction(ctx context.Context, escrowID, adminID int64, action, notes string) (*model.Escrow, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, domainErrors.ErrReasonRequired
	}

	escrow, err := u.escrows.GetByID(ctx, escrowID)
	if err != nil {
		return nil, err
	}

	actor := fmt.Sprintf("admin:%d", adminID)
	var done bool
	switch action {
	case EscrowActionRelease:
		done, err = u.escrows.Release(ctx, escrowID, escrow.Version, model.EscrowStatusManualRelease, actor, &notes)
	case EscrowActionFreeze:
		done, err = u.escrows.Freeze(ctx, escrowID, escrow.Version, &notes)
	case EscrowActionDispute:
		done, err = u.escrows.MarkDisputed(ctx, escrowID, escrow.Version, &notes)
	default:
		return nil, domainErrors.ErrInvalidState
	}
	if err != nil {
		return nil, err
	}
	if !done {
		return nil, domainErrors.ErrInvalidState
	}

	u.logger.Info("manual escrow action",
		slog.Int64("escrow_id", escrowID),
		slog.Int64("admin_id", adminID),
		slog.String("action", action),
	)
	return u.escrows.GetByID(ctx, escrowID)
}

// ExpiredEscrows returns escrows whose verification window elapsed with
// no customer action, up to limit.
func (u *EscrowUseCase) ExpiredEscrows(ctx context.Context, now time.Time, limit int) ([]model.Escrow, error) {
	return u.escrows.SelectExpired(ctx, now, limit)
}

// AutoRelease releases one expired escrow on behalf of the timer. The
// write is conditional on the status and version the sweep read, so a
// customer action that won the race turns this into a no-op.
func (u *EscrowUseCase) AutoRelease(ctx context.Context, escrowID, version int64) (bool, error) {
	return u.escrows.Release(ctx, escrowID, version, model.EscrowStatusAutoReleased, model.ReleasedBySystem, nil)
}

// GetByID fetches a single escrow.
func (u *EscrowUseCase) GetByID(ctx context.Context, escrowID int64) (*model.Escrow, error) {
	return u.escrows.GetByID(ctx, escrowID)
}

// ListBySeller returns the seller's escrows, newest first.
func (u *EscrowUseCase) ListBySeller(ctx context.Context, sellerID int64) ([]model.Escrow, error) {
	return u.escrows.ListBySeller(ctx, sellerID)
}

// ListByOrder returns every escrow of an order.
func (u *EscrowUseCase) ListByOrder(ctx context.Context, orderID int64) ([]model.Escrow, error) {
	return u.escrows.ListByOrder(ctx, orderID)
}
