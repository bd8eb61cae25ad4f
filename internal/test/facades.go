package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sablin/fairmarket/internal/domain/model"
	"github.com/sablin/fairmarket/internal/domain/repository"
)

// OrderFacadeStub provides controllable behaviour for order endpoints.
type OrderFacadeStub struct {
	PlaceFn           func(context.Context, int64, string, []model.CartItem) (*model.Order, error)
	OrdersFn          func(context.Context, int64) ([]model.Order, error)
	OrderByIDFn       func(context.Context, int64, int64, model.Role) (*model.Order, []model.LineItem, error)
	CancelFn          func(context.Context, int64, int64, model.Role, string) (*model.RefundSummary, error)
	ConfirmFn         func(context.Context, int64, int64) (bool, error)
	ForceConfirmFn    func(context.Context, int64, int64, string) error
	PendingSellersFn  func(context.Context, int64) ([]int64, error)
	AssignAgentFn     func(context.Context, int64, int64) error
	AdvanceDeliveryFn func(context.Context, int64, int64, model.OrderStatus) (*model.Order, error)
	ConfirmReceiptFn  func(context.Context, int64, int64) error
	ReportProblemFn   func(context.Context, int64, int64, string) error
}

// PlaceOrder delegates to the override or returns a default pending order.
func (s OrderFacadeStub) PlaceOrder(ctx context.Context, customerID int64, address string, cart []model.CartItem) (*model.Order, error) {
	if s.PlaceFn != nil {
		return s.PlaceFn(ctx, customerID, address, cart)
	}
	return &model.Order{ID: 1, CustomerID: customerID, Address: address, Status: model.OrderStatusPending}, nil
}

// Orders returns predefined orders for given customer.
func (s OrderFacadeStub) Orders(ctx context.Context, customerID int64) ([]model.Order, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, customerID)
	}
	return []model.Order{{ID: 1, CustomerID: customerID, Status: model.OrderStatusPending}}, nil
}

// OrderByID returns the configured order detail.
func (s OrderFacadeStub) OrderByID(ctx context.Context, orderID, actorID int64, role model.Role) (*model.Order, []model.LineItem, error) {
	if s.OrderByIDFn != nil {
		return s.OrderByIDFn(ctx, orderID, actorID, role)
	}
	return &model.Order{ID: orderID, CustomerID: actorID, Status: model.OrderStatusPending}, nil, nil
}

// CancelOrder delegates to the override or reports an empty refund.
func (s OrderFacadeStub) CancelOrder(ctx context.Context, orderID, actorID int64, role model.Role, reason string) (*model.RefundSummary, error) {
	if s.CancelFn != nil {
		return s.CancelFn(ctx, orderID, actorID, role, reason)
	}
	return &model.RefundSummary{OrderID: orderID}, nil
}

// ConfirmAsSeller records a seller confirmation.
func (s OrderFacadeStub) ConfirmAsSeller(ctx context.Context, orderID, sellerID int64) (bool, error) {
	if s.ConfirmFn != nil {
		return s.ConfirmFn(ctx, orderID, sellerID)
	}
	return true, nil
}

// ForceConfirm applies an admin override.
func (s OrderFacadeStub) ForceConfirm(ctx context.Context, orderID, adminID int64, reason string) error {
	if s.ForceConfirmFn != nil {
		return s.ForceConfirmFn(ctx, orderID, adminID, reason)
	}
	return nil
}

// PendingSellers lists sellers yet to confirm.
func (s OrderFacadeStub) PendingSellers(ctx context.Context, orderID int64) ([]int64, error) {
	if s.PendingSellersFn != nil {
		return s.PendingSellersFn(ctx, orderID)
	}
	return nil, nil
}

// AssignAgent attaches a delivery agent.
func (s OrderFacadeStub) AssignAgent(ctx context.Context, orderID, agentID int64) error {
	if s.AssignAgentFn != nil {
		return s.AssignAgentFn(ctx, orderID, agentID)
	}
	return nil
}

// AdvanceDelivery moves the delivery leg one step forward.
func (s OrderFacadeStub) AdvanceDelivery(ctx context.Context, orderID, agentID int64, target model.OrderStatus) (*model.Order, error) {
	if s.AdvanceDeliveryFn != nil {
		return s.AdvanceDeliveryFn(ctx, orderID, agentID, target)
	}
	return &model.Order{ID: orderID, Status: target}, nil
}

// ConfirmReceipt records the customer's confirmation.
func (s OrderFacadeStub) ConfirmReceipt(ctx context.Context, orderID, customerID int64) error {
	if s.ConfirmReceiptFn != nil {
		return s.ConfirmReceiptFn(ctx, orderID, customerID)
	}
	return nil
}

// ReportProblem records the customer's complaint.
func (s OrderFacadeStub) ReportProblem(ctx context.Context, orderID, customerID int64, description string) error {
	if s.ReportProblemFn != nil {
		return s.ReportProblemFn(ctx, orderID, customerID, description)
	}
	return nil
}

// EscrowFacadeStub simulates escrow endpoints.
type EscrowFacadeStub struct {
	ListFn   func(context.Context, int64) ([]model.Escrow, error)
	ActionFn func(context.Context, int64, int64, string, string) (*model.Escrow, error)
}

// EscrowsBySeller returns configured escrows.
func (s EscrowFacadeStub) EscrowsBySeller(ctx context.Context, sellerID int64) ([]model.Escrow, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, sellerID)
	}
	return []model.Escrow{{ID: 1, SellerID: sellerID, Status: model.EscrowStatusVerification}}, nil
}

// ManualEscrowAction applies the configured admin action.
func (s EscrowFacadeStub) ManualEscrowAction(ctx context.Context, escrowID, adminID int64, action, notes string) (*model.Escrow, error) {
	if s.ActionFn != nil {
		return s.ActionFn(ctx, escrowID, adminID, action, notes)
	}
	return &model.Escrow{ID: escrowID, Status: model.EscrowStatusManualRelease}, nil
}

// StockFacadeStub simulates stock ledger endpoints.
type StockFacadeStub struct {
	AdjustFn  func(context.Context, int64, int, model.AdjustmentReason, *int64, model.Role) (*model.Product, error)
	BulkFn    func(context.Context, []repository.StockChange, model.AdjustmentReason, *int64, model.Role) ([]model.StockAdjustment, error)
	HistoryFn func(context.Context, int64) ([]model.StockAdjustment, error)
	ProductFn func(context.Context, int64) (*model.Product, error)
}

// AdjustStock applies the configured adjustment.
func (s StockFacadeStub) AdjustStock(ctx context.Context, productID int64, delta int, reason model.AdjustmentReason, actorID *int64, role model.Role) (*model.Product, error) {
	if s.AdjustFn != nil {
		return s.AdjustFn(ctx, productID, delta, reason, actorID, role)
	}
	return &model.Product{ID: productID, StockQuantity: delta, Active: true}, nil
}

// BulkAdjustStock applies the configured batch.
func (s StockFacadeStub) BulkAdjustStock(ctx context.Context, changes []repository.StockChange, reason model.AdjustmentReason, actorID *int64, role model.Role) ([]model.StockAdjustment, error) {
	if s.BulkFn != nil {
		return s.BulkFn(ctx, changes, reason, actorID, role)
	}
	out := make([]model.StockAdjustment, 0, len(changes))
	for _, ch := range changes {
		out = append(out, model.StockAdjustment{ProductID: ch.ProductID, Delta: ch.Delta, Reason: reason})
	}
	return out, nil
}

// StockHistory returns the configured ledger.
func (s StockFacadeStub) StockHistory(ctx context.Context, productID int64) ([]model.StockAdjustment, error) {
	if s.HistoryFn != nil {
		return s.HistoryFn(ctx, productID)
	}
	return []model.StockAdjustment{{ProductID: productID, Delta: 1, Reason: model.ReasonRestock, CreatedAt: time.Unix(0, 0)}}, nil
}

// ProductByID returns the configured product.
func (s StockFacadeStub) ProductByID(ctx context.Context, productID int64) (*model.Product, error) {
	if s.ProductFn != nil {
		return s.ProductFn(ctx, productID)
	}
	return &model.Product{ID: productID, Active: true}, nil
}

// MarketFacadeStub aggregates facade dependencies for HTTP layer tests.
type MarketFacadeStub struct {
	AuthFacadeStub
	OrderFacadeStub
	EscrowFacadeStub
	StockFacadeStub
}

// PublishedEvent records one emitted notification.
type PublishedEvent struct {
	EventType string
	OrderID   int64
	Payload   any
}

// PublisherStub collects published events for assertions.
type PublisherStub struct {
	Events []PublishedEvent
}

// Publish appends the event to the recorded list.
func (s *PublisherStub) Publish(ctx context.Context, eventType string, orderID int64, payload any) {
	s.Events = append(s.Events, PublishedEvent{EventType: eventType, OrderID: orderID, Payload: payload})
}

// EscrowReleaseCall records one sweeper release attempt.
type EscrowReleaseCall struct {
	EscrowID int64
	SellerID int64
}

// SweeperFacadeStub mimics sweeper interactions with the market facade.
type SweeperFacadeStub struct {
	Batches   [][]model.Escrow
	ExpiredFn func(context.Context, time.Time, int) ([]model.Escrow, error)
	ReleaseFn func(context.Context, model.Escrow) (bool, error)
	Releases  []EscrowReleaseCall

	mu            sync.Mutex
	expiredCalled int32
}

// Lock exposes internal mutex for external synchronization.
func (s *SweeperFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *SweeperFacadeStub) Unlock() { s.mu.Unlock() }

// ExpiredEscrows returns batches from the configured queue.
func (s *SweeperFacadeStub) ExpiredEscrows(ctx context.Context, now time.Time, limit int) ([]model.Escrow, error) {
	if s.ExpiredFn != nil {
		return s.ExpiredFn(ctx, now, limit)
	}
	call := atomic.AddInt32(&s.expiredCalled, 1)
	if int(call) <= len(s.Batches) {
		return s.Batches[call-1], nil
	}
	time.Sleep(10 * time.Millisecond)
	return nil, nil
}

// AutoReleaseEscrow records release attempts.
func (s *SweeperFacadeStub) AutoReleaseEscrow(ctx context.Context, escrow model.Escrow) (bool, error) {
	if s.ReleaseFn != nil {
		return s.ReleaseFn(ctx, escrow)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Releases = append(s.Releases, EscrowReleaseCall{EscrowID: escrow.ID, SellerID: escrow.SellerID})
	return true, nil
}
