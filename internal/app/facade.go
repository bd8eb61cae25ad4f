package app

import (
	"context"
	"time"

	"github.com/sablin/fairmarket/internal/adapter/notify"
	"github.com/sablin/fairmarket/internal/domain/model"
	"github.com/sablin/fairmarket/internal/domain/repository"
	"github.com/sablin/fairmarket/internal/usecase"
)

// EventPublisher emits best-effort notification events after core
// transitions commit.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, orderID int64, payload any)
}

// MarketFacade aggregates the use cases behind one application surface
// shared by the HTTP handlers and the background sweeper.
type MarketFacade struct {
	auth          *usecase.AuthUseCase
	orders        *usecase.OrderUseCase
	confirmations *usecase.ConfirmationUseCase
	escrows       *usecase.EscrowUseCase
	stock         *usecase.StockUseCase
	events        EventPublisher
}

// NewMarketFacade constructs MarketFacade.
func NewMarketFacade(auth *usecase.AuthUseCase, orders *usecase.OrderUseCase, confirmations *usecase.ConfirmationUseCase, escrows *usecase.EscrowUseCase, stock *usecase.StockUseCase, events EventPublisher) *MarketFacade {
	return &MarketFacade{
		auth:          auth,
		orders:        orders,
		confirmations: confirmations,
		escrows:       escrows,
		stock:         stock,
		events:        events,
	}
}

// --- auth ---

func (f *MarketFacade) Register(ctx context.Context, login, password string, role model.Role) (string, error) {
	_, token, err := f.auth.Register(ctx, login, password, role)
	return token, err
}

func (f *MarketFacade) Authenticate(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, login, password)
	return token, err
}

func (f *MarketFacade) ParseToken(token string) (int64, model.Role, error) {
	return f.auth.ParseToken(token)
}

// --- orders ---

func (f *MarketFacade) PlaceOrder(ctx context.Context, customerID int64, address string, cart []model.CartItem) (*model.Order, error) {
	order, err := f.orders.Place(ctx, customerID, address, cart)
	if err != nil {
		return nil, err
	}
	f.events.Publish(ctx, notify.EventOrderPlaced, order.ID, notify.OrderEventPayload{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		TotalCents: order.TotalCents,
	})
	return order, nil
}

func (f *MarketFacade) ConfirmAsSeller(ctx context.Context, orderID, sellerID int64) (bool, error) {
	transitioned, err := f.confirmations.Record(ctx, orderID, sellerID)
	if err != nil {
		return false, err
	}
	if transitioned {
		f.events.Publish(ctx, notify.EventOrderConfirmed, orderID, notify.OrderEventPayload{OrderID: orderID})
	}
	return transitioned, nil
}

func (f *MarketFacade) ForceConfirm(ctx context.Context, orderID, adminID int64, reason string) error {
	if err := f.confirmations.ForceConfirm(ctx, orderID, adminID, reason); err != nil {
		return err
	}
	f.events.Publish(ctx, notify.EventOrderConfirmed, orderID, notify.OrderEventPayload{OrderID: orderID, Reason: reason})
	return nil
}

func (f *MarketFacade) PendingSellers(ctx context.Context, orderID int64) ([]int64, error) {
	return f.confirmations.PendingSellers(ctx, orderID)
}

func (f *MarketFacade) CancelOrder(ctx context.Context, orderID, actorID int64, role model.Role, reason string) (*model.RefundSummary, error) {
	summary, err := f.orders.Cancel(ctx, orderID, actorID, role, reason)
	if err != nil {
		return nil, err
	}
	f.events.Publish(ctx, notify.EventOrderCancelled, orderID, notify.OrderEventPayload{OrderID: orderID, Reason: reason})
	return summary, nil
}

func (f *MarketFacade) AssignAgent(ctx context.Context, orderID, agentID int64) error {
	return f.orders.AssignAgent(ctx, orderID, agentID)
}

func (f *MarketFacade) AdvanceDelivery(ctx context.Context, orderID, agentID int64, target model.OrderStatus) (*model.Order, error) {
	order, err := f.orders.AdvanceDelivery(ctx, orderID, agentID, target)
	if err != nil {
		return nil, err
	}
	if order.Status == model.OrderStatusDelivered {
		f.events.Publish(ctx, notify.EventOrderDelivered, orderID, notify.OrderEventPayload{
			OrderID:    orderID,
			CustomerID: order.CustomerID,
		})
	}
	return order, nil
}

func (f *MarketFacade) ConfirmReceipt(ctx context.Context, orderID, customerID int64) error {
	if err := f.orders.ConfirmReceipt(ctx, orderID, customerID); err != nil {
		return err
	}
	escrows, err := f.escrows.ListByOrder(ctx, orderID)
	if err != nil {
		return nil
	}
	for _, e := range escrows {
		if e.Status.Released() {
			f.publishEscrowReleased(ctx, e)
		}
	}
	return nil
}

func (f *MarketFacade) ReportProblem(ctx context.Context, orderID, customerID int64, description string) error {
	if err := f.orders.ReportProblem(ctx, orderID, customerID, description); err != nil {
		return err
	}
	escrows, err := f.escrows.ListByOrder(ctx, orderID)
	if err != nil {
		return nil
	}
	ids := make([]int64, 0, len(escrows))
	for _, e := range escrows {
		ids = append(ids, e.ID)
	}
	f.events.Publish(ctx, notify.EventOrderDisputed, orderID, notify.DisputePayload{
		OrderID:     orderID,
		CustomerID:  customerID,
		EscrowIDs:   ids,
		Description: description,
	})
	return nil
}

func (f *MarketFacade) Orders(ctx context.Context, customerID int64) ([]model.Order, error) {
	return f.orders.ListByCustomer(ctx, customerID)
}

func (f *MarketFacade) OrderByID(ctx context.Context, orderID, actorID int64, role model.Role) (*model.Order, []model.LineItem, error) {
	return f.orders.Get(ctx, orderID, actorID, role)
}

// --- escrow ---

func (f *MarketFacade) ManualEscrowAction(ctx context.Context, escrowID, adminID int64, action, notes string) (*model.Escrow, error) {
	escrow, err := f.escrows.ManualAction(ctx, escrowID, adminID, action, notes)
	if err != nil {
		return nil, err
	}
	if escrow.Status.Released() {
		f.publishEscrowReleased(ctx, *escrow)
	}
	return escrow, nil
}

func (f *MarketFacade) EscrowsBySeller(ctx context.Context, sellerID int64) ([]model.Escrow, error) {
	return f.escrows.ListBySeller(ctx, sellerID)
}

// ExpiredEscrows feeds the verification sweeper.
func (f *MarketFacade) ExpiredEscrows(ctx context.Context, now time.Time, limit int) ([]model.Escrow, error) {
	return f.escrows.ExpiredEscrows(ctx, now, limit)
}

// AutoReleaseEscrow releases one expired escrow for the sweeper.
// Returns false when a concurrent writer resolved the escrow first.
func (f *MarketFacade) AutoReleaseEscrow(ctx context.Context, escrow model.Escrow) (bool, error) {
	released, err := f.escrows.AutoRelease(ctx, escrow.ID, escrow.Version)
	if err != nil {
		return false, err
	}
	if released {
		escrow.Status = model.EscrowStatusAutoReleased
		f.publishEscrowReleased(ctx, escrow)
	}
	return released, nil
}

func (f *MarketFacade) publishEscrowReleased(ctx context.Context, e model.Escrow) {
	releasedBy := ""
	if e.ReleasedBy != nil {
		releasedBy = *e.ReleasedBy
	} else if e.Status == model.EscrowStatusAutoReleased {
		releasedBy = model.ReleasedBySystem
	} else if e.Status == model.EscrowStatusConfirmed {
		releasedBy = model.ReleasedByCustomer
	}
	f.events.Publish(ctx, notify.EventEscrowReleased, e.OrderID, notify.EscrowReleasedPayload{
		EscrowID:    e.ID,
		OrderID:     e.OrderID,
		SellerID:    e.SellerID,
		AmountCents: e.AmountCents,
		ReleasedBy:  releasedBy,
	})
}

// --- stock ---

func (f *MarketFacade) AdjustStock(ctx context.Context, productID int64, delta int, reason model.AdjustmentReason, actorID *int64, role model.Role) (*model.Product, error) {
	return f.stock.Adjust(ctx, productID, delta, reason, actorID, role)
}

func (f *MarketFacade) BulkAdjustStock(ctx context.Context, changes []repository.StockChange, reason model.AdjustmentReason, actorID *int64, role model.Role) ([]model.StockAdjustment, error) {
	return f.stock.BulkAdjust(ctx, changes, reason, actorID, role)
}

func (f *MarketFacade) StockHistory(ctx context.Context, productID int64) ([]model.StockAdjustment, error) {
	return f.stock.History(ctx, productID)
}

func (f *MarketFacade) ProductByID(ctx context.Context, productID int64) (*model.Product, error) {
	return f.stock.Product(ctx, productID)
}
