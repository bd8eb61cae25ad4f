package repository

import (
	"context"
	"time"

	"github.com/sablin/fairmarket/internal/domain/model"
)

// EscrowRepository manages held-funds rows. All transitions are
// conditional on the current status so that concurrent writers resolve
// by first-write-wins: the boolean result reports whether this call
// performed the transition (false means another writer got there first).
type EscrowRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Escrow, error)
	ListByOrder(ctx context.Context, orderID int64) ([]model.Escrow, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]model.Escrow, error)

	// SelectExpired returns escrows still in verification whose window
	// end has passed with no customer action, skipping rows locked by
	// concurrent sweeps.
	SelectExpired(ctx context.Context, now time.Time, limit int) ([]model.Escrow, error)

	// Release moves the escrow into one of the released statuses,
	// stamping release time and actor. Manual release is additionally
	// allowed out of FROZEN; the automatic and customer variants only
	// out of VERIFICATION. The write is conditional on the version the
	// caller read, so an interleaved write turns the call into a no-op.
	Release(ctx context.Context, escrowID, version int64, to model.EscrowStatus, actor string, notes *string) (bool, error)

	Freeze(ctx context.Context, escrowID, version int64, notes *string) (bool, error)
	MarkDisputed(ctx context.Context, escrowID, version int64, notes *string) (bool, error)
}
