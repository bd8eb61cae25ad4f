package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	domainErrors "github.com/sablin/fairmarket/internal/domain/errors"
	"github.com/sablin/fairmarket/internal/domain/model"
	"github.com/sablin/fairmarket/internal/domain/repository"
)

// OrderUseCase orchestrates the order lifecycle: placement, delivery
// progression, and the customer's verification-period actions.
type OrderUseCase struct {
	orders       repository.OrderRepository
	stock        repository.StockRepository
	users        repository.UserRepository
	feeBps       int64
	verifyWindow time.Duration
	retryLimit   int
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(orders repository.OrderRepository, stock repository.StockRepository, users repository.UserRepository, feeBps int64, verifyWindow time.Duration, retryLimit int) *OrderUseCase {
	if retryLimit <= 0 {
		retryLimit = 1
	}
	return &OrderUseCase{
		orders:       orders,
		stock:        stock,
		users:        users,
		feeBps:       feeBps,
		verifyWindow: verifyWindow,
		retryLimit:   retryLimit,
	}
}

// Place creates an order from the cart. Stock is decremented for every
// item in the same transaction that persists the order; a lost stock
// race retries the whole placement against fresh product reads.
func (u *OrderUseCase) Place(ctx context.Context, customerID int64, address string, cart []model.CartItem) (*model.Order, error) {
	if len(cart) == 0 {
		return nil, domainErrors.ErrEmptyCart
	}
	for _, item := range cart {
		if item.Quantity < 1 {
			return nil, domainErrors.ErrInvalidQuantity
		}
	}

	var lastErr error
	for attempt := 0; attempt < u.retryLimit; attempt++ {
		placement, err := u.buildPlacement(ctx, customerID, address, cart)
		if err != nil {
			return nil, err
		}

		order, err := u.orders.CreatePlacement(ctx, *placement)
		if err != nil {
			if errors.Is(err, domainErrors.ErrConcurrentModification) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return order, nil
	}
	return nil, lastErr
}

func (u *OrderUseCase) buildPlacement(ctx context.Context, customerID int64, address string, cart []model.CartItem) (*repository.OrderPlacement, error) {
	ids := make([]int64, 0, len(cart))
	for _, item := range cart {
		ids = append(ids, item.ProductID)
	}

	products, err := u.stock.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	// Validate against the snapshot. The version stamps captured here
	// make the decrements conditional, so a concurrent change since
	// this read fails the placement instead of overselling.
	required := make(map[int64]int)
	for _, item := range cart {
		required[item.ProductID] += item.Quantity
	}
	versions := make(map[int64]int64, len(required))
	for productID, qty := range required {
		product, ok := byID[productID]
		if !ok {
			return nil, domainErrors.ErrNotFound
		}
		if !product.Active {
			return nil, domainErrors.ErrInactiveItem
		}
		if product.StockQuantity < qty {
			return nil, domainErrors.ErrOutOfStock
		}
		versions[productID] = product.Version
	}

	var subtotal int64
	items := make([]model.LineItem, 0, len(cart))
	for _, item := range cart {
		product := byID[item.ProductID]
		line := model.LineItem{
			ProductID:      product.ID,
			SellerID:       product.SellerID,
			Quantity:       item.Quantity,
			UnitPriceCents: product.PriceCents,
			SubtotalCents:  product.PriceCents * int64(item.Quantity),
			ProductName:    product.Name,
			ProductImage:   product.ImageURL,
		}
		subtotal += line.SubtotalCents
		items = append(items, line)
	}

	fee := subtotal * u.feeBps / 10000
	order := &model.Order{
		CustomerID:    customerID,
		SubtotalCents: subtotal,
		BuyerFeeCents: fee,
		TotalCents:    subtotal + fee,
		Address:       address,
	}

	return &repository.OrderPlacement{
		Order:        order,
		Items:        items,
		SellerShares: model.SellerSubtotals(items),
		Versions:     versions,
	}, nil
}

// Cancel rolls back a pending order. Only the owning customer or an
// admin may cancel; an order that already advanced fails cleanly.
func (u *OrderUseCase) Cancel(ctx context.Context, orderID, actorID int64, role model.Role, reason string) (*model.RefundSummary, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if role != model.RoleAdmin && order.CustomerID != actorID {
		return nil, domainErrors.ErrNotOwner
	}
	return u.orders.Cancel(ctx, orderID, reason)
}

// AssignAgent attaches the delivery agent handling the order.
func (u *OrderUseCase) AssignAgent(ctx context.Context, orderID, agentID int64) error {
	agent, err := u.users.GetByID(ctx, agentID)
	if err != nil {
		return err
	}
	if agent.Role != model.RoleAgent {
		return domainErrors.ErrForbidden
	}
	return u.orders.AssignAgent(ctx, orderID, agentID)
}

// AdvanceDelivery moves the order one step along the delivery path.
// Only the assigned agent may advance, and only to the immediate
// successor of the current status. Reaching DELIVERED opens the
// verification window on every escrow.
func (u *OrderUseCase) AdvanceDelivery(ctx context.Context, orderID, agentID int64, target model.OrderStatus) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.AgentID == nil || *order.AgentID != agentID {
		return nil, domainErrors.ErrNotAssignedAgent
	}

	next, ok := model.NextDeliveryStatus(order.Status)
	if !ok || next != target {
		return nil, domainErrors.ErrInvalidTransition
	}

	if target == model.OrderStatusDelivered {
		start := time.Now()
		err = u.orders.MarkDelivered(ctx, orderID, start, start.Add(u.verifyWindow))
	} else {
		err = u.orders.TransitionStatus(ctx, orderID, order.Status, target)
	}
	if err != nil {
		// The status read above is stale when a concurrent writer moved
		// the order first; report it as a transition failure.
		if errors.Is(err, domainErrors.ErrInvalidState) {
			return nil, domainErrors.ErrInvalidTransition
		}
		return nil, err
	}

	return u.orders.GetByID(ctx, orderID)
}

// ConfirmReceipt records the customer's confirmation during the
// verification period, releasing every escrow and completing the order.
func (u *OrderUseCase) ConfirmReceipt(ctx context.Context, orderID, customerID int64) error {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.CustomerID != customerID {
		return domainErrors.ErrNotEligible
	}
	return u.orders.CompleteReceipt(ctx, orderID)
}

// ReportProblem freezes every escrow and moves the order to DISPUTED.
func (u *OrderUseCase) ReportProblem(ctx context.Context, orderID, customerID int64, description string) error {
	if strings.TrimSpace(description) == "" {
		return domainErrors.ErrReasonRequired
	}
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.CustomerID != customerID {
		return domainErrors.ErrNotEligible
	}
	return u.orders.MarkDisputed(ctx, orderID)
}

// Get returns the order with its line items when the actor is allowed
// to see it: the owner, an admin, the assigned agent, or a seller with
// items on the order.
func (u *OrderUseCase) Get(ctx context.Context, orderID, actorID int64, role model.Role) (*model.Order, []model.LineItem, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	items, err := u.orders.ListItems(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	allowed := role == model.RoleAdmin ||
		order.CustomerID == actorID ||
		(order.AgentID != nil && *order.AgentID == actorID)
	if !allowed {
		for _, it := range items {
			if it.SellerID == actorID {
				allowed = true
				break
			}
		}
	}
	if !allowed {
		return nil, nil, domainErrors.ErrForbidden
	}
	return order, items, nil
}

// ListByCustomer returns the customer's orders sorted by placement time.
func (u *OrderUseCase) ListByCustomer(ctx context.Context, customerID int64) ([]model.Order, error) {
	return u.orders.ListByCustomer(ctx, customerID)
}
