package repository

import (
	"context"
	"time"

	"github.com/sablin/fairmarket/internal/domain/model"
)

// OrderPlacement carries everything persisted atomically at checkout:
// the order row, its line items, the per-seller escrow amounts, and the
// stock version each decrement is conditioned on.
type OrderPlacement struct {
	Order        *model.Order
	Items        []model.LineItem
	SellerShares map[int64]int64 // sellerID -> escrow amount in cents
	Versions     map[int64]int64 // productID -> expected stock version
}

// OrderRepository persists orders and their guarded status transitions.
// Transition methods write conditionally on the current status; a row
// that already moved on returns domain ErrInvalidState.
type OrderRepository interface {
	// CreatePlacement persists order, line items, one confirmation and
	// one escrow per seller, and decrements stock for every item in a
	// single transaction. A stale stock version fails the whole
	// placement with ErrConcurrentModification.
	CreatePlacement(ctx context.Context, p OrderPlacement) (*model.Order, error)
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]model.Order, error)
	ListItems(ctx context.Context, orderID int64) ([]model.LineItem, error)

	// TransitionStatus moves the order from exactly `from` to `to`.
	TransitionStatus(ctx context.Context, orderID int64, from, to model.OrderStatus) error
	AssignAgent(ctx context.Context, orderID, agentID int64) error

	// MarkDelivered closes the delivery leg: order to DELIVERED, payment
	// to VERIFICATION, and every escrow opens its verification window.
	MarkDelivered(ctx context.Context, orderID int64, start, end time.Time) error

	// Cancel rolls a PENDING order back: stock restored per line item,
	// escrows closed out, order CANCELLED.
	Cancel(ctx context.Context, orderID int64, reason string) (*model.RefundSummary, error)

	// CompleteReceipt records the customer's confirmation: order
	// COMPLETED, payment SETTLED, escrows released to the sellers.
	CompleteReceipt(ctx context.Context, orderID int64) error

	// MarkDisputed records a reported problem: order DISPUTED, escrows
	// FROZEN pending manual resolution.
	MarkDisputed(ctx context.Context, orderID int64) error
}
