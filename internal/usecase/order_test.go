package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	domainErrors "github.com/sablin/fairmarket/internal/domain/errors"
	"github.com/sablin/fairmarket/internal/domain/model"
	"github.com/sablin/fairmarket/internal/domain/repository"
	testhelpers "github.com/sablin/fairmarket/internal/test"
)

func newPlaceFixture() (*testhelpers.OrderRepositoryStub, *testhelpers.StockRepositoryStub, *OrderUseCase) {
	orders := &testhelpers.OrderRepositoryStub{}
	stock := testhelpers.NewStockRepositoryStub(
		&model.Product{ID: 10, SellerID: 100, Name: "lamp", PriceCents: 2500, StockQuantity: 5, Version: 1, Active: true},
		&model.Product{ID: 20, SellerID: 200, Name: "rug", PriceCents: 1000, StockQuantity: 1, Version: 4, Active: true},
	)
	users := testhelpers.NewUserRepositoryStub()
	uc := NewOrderUseCase(orders, stock, users, 200, 7*24*time.Hour, 3)
	return orders, stock, uc
}

func TestOrderUseCasePlaceMultiSeller(t *testing.T) {
	orders, _, uc := newPlaceFixture()

	cart := []model.CartItem{
		{ProductID: 10, Quantity: 2},
		{ProductID: 20, Quantity: 1},
	}
	order, err := uc.Place(context.Background(), 7, "12 Main St", cart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if order.SubtotalCents != 6000 {
		t.Errorf("expected subtotal 6000, got %d", order.SubtotalCents)
	}
	if order.BuyerFeeCents != 120 {
		t.Errorf("expected 2%% fee of 120, got %d", order.BuyerFeeCents)
	}
	if order.TotalCents != order.SubtotalCents+order.BuyerFeeCents {
		t.Errorf("total %d does not equal subtotal plus fee", order.TotalCents)
	}

	if len(orders.Placements) != 1 {
		t.Fatalf("expected one placement, got %d", len(orders.Placements))
	}
	p := orders.Placements[0]
	if len(p.Items) != 2 {
		t.Fatalf("expected two line items, got %d", len(p.Items))
	}
	if p.Items[0].SubtotalCents != 5000 || p.Items[1].SubtotalCents != 1000 {
		t.Errorf("unexpected line subtotals %d/%d", p.Items[0].SubtotalCents, p.Items[1].SubtotalCents)
	}
	if p.SellerShares[100] != 5000 || p.SellerShares[200] != 1000 {
		t.Errorf("unexpected seller shares %v", p.SellerShares)
	}
	if p.Versions[10] != 1 || p.Versions[20] != 4 {
		t.Errorf("expected captured stock versions, got %v", p.Versions)
	}
}

func TestOrderUseCasePlaceValidation(t *testing.T) {
	_, _, uc := newPlaceFixture()
	ctx := context.Background()

	if _, err := uc.Place(ctx, 7, "addr", nil); !errors.Is(err, domainErrors.ErrEmptyCart) {
		t.Errorf("expected empty cart error, got %v", err)
	}
	if _, err := uc.Place(ctx, 7, "addr", []model.CartItem{{ProductID: 10, Quantity: 0}}); !errors.Is(err, domainErrors.ErrInvalidQuantity) {
		t.Errorf("expected invalid quantity error, got %v", err)
	}
	if _, err := uc.Place(ctx, 7, "addr", []model.CartItem{{ProductID: 99, Quantity: 1}}); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
	if _, err := uc.Place(ctx, 7, "addr", []model.CartItem{{ProductID: 20, Quantity: 2}}); !errors.Is(err, domainErrors.ErrOutOfStock) {
		t.Errorf("expected out of stock error, got %v", err)
	}
}

func TestOrderUseCasePlaceRejectsInactiveProduct(t *testing.T) {
	orders := &testhelpers.OrderRepositoryStub{}
	stock := testhelpers.NewStockRepositoryStub(
		&model.Product{ID: 10, SellerID: 100, PriceCents: 100, StockQuantity: 5, Active: false},
	)
	uc := NewOrderUseCase(orders, stock, testhelpers.NewUserRepositoryStub(), 200, time.Hour, 3)

	_, err := uc.Place(context.Background(), 7, "addr", []model.CartItem{{ProductID: 10, Quantity: 1}})
	if !errors.Is(err, domainErrors.ErrInactiveItem) {
		t.Fatalf("expected inactive item error, got %v", err)
	}
	if len(orders.Placements) != 0 {
		t.Fatal("expected no placement for inactive product")
	}
}

func TestOrderUseCasePlaceRetriesOnVersionConflict(t *testing.T) {
	orders, _, uc := newPlaceFixture()

	attempts := 0
	orders.CreatePlacementFn = func(_ context.Context, p repository.OrderPlacement) (*model.Order, error) {
		attempts++
		if attempts == 1 {
			return nil, domainErrors.ErrConcurrentModification
		}
		order := *p.Order
		order.ID = 1
		return &order, nil
	}

	order, err := uc.Place(context.Background(), 7, "addr", []model.CartItem{{ProductID: 10, Quantity: 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected one retry, got %d attempts", attempts)
	}
	if order.ID != 1 {
		t.Fatalf("unexpected order id %d", order.ID)
	}
}

func TestOrderUseCasePlaceSurfacesExhaustedRetries(t *testing.T) {
	orders, _, uc := newPlaceFixture()
	orders.CreatePlacementFn = func(context.Context, repository.OrderPlacement) (*model.Order, error) {
		return nil, domainErrors.ErrConcurrentModification
	}

	_, err := uc.Place(context.Background(), 7, "addr", []model.CartItem{{ProductID: 10, Quantity: 1}})
	if !errors.Is(err, domainErrors.ErrConcurrentModification) {
		t.Fatalf("expected conflict after exhausted retries, got %v", err)
	}
	if len(orders.Placements) != 3 {
		t.Fatalf("expected three attempts, got %d", len(orders.Placements))
	}
}

func TestOrderUseCaseCancelAuthorization(t *testing.T) {
	orders := &testhelpers.OrderRepositoryStub{
		Orders: []model.Order{{ID: 1, CustomerID: 7, Status: model.OrderStatusPending}},
	}
	uc := NewOrderUseCase(orders, testhelpers.NewStockRepositoryStub(), testhelpers.NewUserRepositoryStub(), 200, time.Hour, 3)
	ctx := context.Background()

	if _, err := uc.Cancel(ctx, 1, 8, model.RoleCustomer, "changed my mind"); !errors.Is(err, domainErrors.ErrNotOwner) {
		t.Errorf("expected not owner error for stranger, got %v", err)
	}
	if _, err := uc.Cancel(ctx, 1, 7, model.RoleCustomer, "changed my mind"); err != nil {
		t.Errorf("expected owner cancel to pass, got %v", err)
	}
	if _, err := uc.Cancel(ctx, 1, 99, model.RoleAdmin, "fraud"); err != nil {
		t.Errorf("expected admin cancel to pass, got %v", err)
	}
	if _, err := uc.Cancel(ctx, 2, 7, model.RoleCustomer, "missing"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Errorf("expected not found for unknown order, got %v", err)
	}
}

func TestOrderUseCaseAssignAgentRequiresAgentRole(t *testing.T) {
	users := testhelpers.NewUserRepositoryStub()
	agent, _ := users.Create(context.Background(), "courier", "hash", model.RoleAgent)
	customer, _ := users.Create(context.Background(), "buyer", "hash", model.RoleCustomer)

	orders := &testhelpers.OrderRepositoryStub{}
	uc := NewOrderUseCase(orders, testhelpers.NewStockRepositoryStub(), users, 200, time.Hour, 3)

	if err := uc.AssignAgent(context.Background(), 1, customer.ID); !errors.Is(err, domainErrors.ErrForbidden) {
		t.Errorf("expected forbidden for non-agent, got %v", err)
	}
	if err := uc.AssignAgent(context.Background(), 1, agent.ID); err != nil {
		t.Errorf("expected agent assignment to pass, got %v", err)
	}
}

func TestOrderUseCaseAdvanceDelivery(t *testing.T) {
	agentID := int64(5)
	orders := &testhelpers.OrderRepositoryStub{
		Orders: []model.Order{{ID: 1, CustomerID: 7, AgentID: &agentID, Status: model.OrderStatusConfirmed}},
	}
	uc := NewOrderUseCase(orders, testhelpers.NewStockRepositoryStub(), testhelpers.NewUserRepositoryStub(), 200, time.Hour, 3)
	ctx := context.Background()

	if _, err := uc.AdvanceDelivery(ctx, 1, 6, model.OrderStatusPickedUp); !errors.Is(err, domainErrors.ErrNotAssignedAgent) {
		t.Errorf("expected not assigned agent error, got %v", err)
	}
	if _, err := uc.AdvanceDelivery(ctx, 1, agentID, model.OrderStatusDelivered); !errors.Is(err, domainErrors.ErrInvalidTransition) {
		t.Errorf("expected invalid transition when skipping steps, got %v", err)
	}

	if _, err := uc.AdvanceDelivery(ctx, 1, agentID, model.OrderStatusPickedUp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders.Transitions) != 1 || orders.Transitions[0].To != model.OrderStatusPickedUp {
		t.Fatalf("expected transition to PICKED_UP, got %+v", orders.Transitions)
	}
}

func TestOrderUseCaseAdvanceDeliveryOpensVerificationWindow(t *testing.T) {
	agentID := int64(5)
	window := 7 * 24 * time.Hour
	var gotStart, gotEnd time.Time
	orders := &testhelpers.OrderRepositoryStub{
		Orders: []model.Order{{ID: 1, CustomerID: 7, AgentID: &agentID, Status: model.OrderStatusOnTheWay}},
		MarkDeliveredFn: func(_ context.Context, orderID int64, start, end time.Time) error {
			if orderID != 1 {
				return domainErrors.ErrNotFound
			}
			gotStart, gotEnd = start, end
			return nil
		},
	}
	uc := NewOrderUseCase(orders, testhelpers.NewStockRepositoryStub(), testhelpers.NewUserRepositoryStub(), 200, window, 3)

	if _, err := uc.AdvanceDelivery(context.Background(), 1, agentID, model.OrderStatusDelivered); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotEnd.Sub(gotStart) != window {
		t.Fatalf("expected verification window of %v, got %v", window, gotEnd.Sub(gotStart))
	}
}

func TestOrderUseCaseAdvanceDeliveryMapsStaleState(t *testing.T) {
	agentID := int64(5)
	orders := &testhelpers.OrderRepositoryStub{
		Orders: []model.Order{{ID: 1, CustomerID: 7, AgentID: &agentID, Status: model.OrderStatusConfirmed}},
		TransitionFn: func(context.Context, int64, model.OrderStatus, model.OrderStatus) error {
			return domainErrors.ErrInvalidState
		},
	}
	uc := NewOrderUseCase(orders, testhelpers.NewStockRepositoryStub(), testhelpers.NewUserRepositoryStub(), 200, time.Hour, 3)

	if _, err := uc.AdvanceDelivery(context.Background(), 1, agentID, model.OrderStatusPickedUp); !errors.Is(err, domainErrors.ErrInvalidTransition) {
		t.Fatalf("expected stale state reported as invalid transition, got %v", err)
	}
}

func TestOrderUseCaseReceiptAndProblemEligibility(t *testing.T) {
	orders := &testhelpers.OrderRepositoryStub{
		Orders: []model.Order{{ID: 1, CustomerID: 7, Status: model.OrderStatusDelivered}},
	}
	uc := NewOrderUseCase(orders, testhelpers.NewStockRepositoryStub(), testhelpers.NewUserRepositoryStub(), 200, time.Hour, 3)
	ctx := context.Background()

	if err := uc.ConfirmReceipt(ctx, 1, 8); !errors.Is(err, domainErrors.ErrNotEligible) {
		t.Errorf("expected not eligible for stranger receipt, got %v", err)
	}
	if err := uc.ConfirmReceipt(ctx, 1, 7); err != nil {
		t.Errorf("expected owner receipt to pass, got %v", err)
	}

	if err := uc.ReportProblem(ctx, 1, 7, "   "); !errors.Is(err, domainErrors.ErrReasonRequired) {
		t.Errorf("expected reason required for blank description, got %v", err)
	}
	if err := uc.ReportProblem(ctx, 1, 8, "damaged box"); !errors.Is(err, domainErrors.ErrNotEligible) {
		t.Errorf("expected not eligible for stranger report, got %v", err)
	}
	if err := uc.ReportProblem(ctx, 1, 7, "damaged box"); err != nil {
		t.Errorf("expected owner report to pass, got %v", err)
	}
}

func TestOrderUseCaseGetAuthorization(t *testing.T) {
	agentID := int64(5)
	orders := &testhelpers.OrderRepositoryStub{
		Orders: []model.Order{{ID: 1, CustomerID: 7, AgentID: &agentID, Status: model.OrderStatusConfirmed}},
		Items:  []model.LineItem{{OrderID: 1, ProductID: 10, SellerID: 100, Quantity: 1}},
	}
	uc := NewOrderUseCase(orders, testhelpers.NewStockRepositoryStub(), testhelpers.NewUserRepositoryStub(), 200, time.Hour, 3)
	ctx := context.Background()

	cases := []struct {
		name    string
		actorID int64
		role    model.Role
		allowed bool
	}{
		{"owner", 7, model.RoleCustomer, true},
		{"admin", 99, model.RoleAdmin, true},
		{"assigned agent", 5, model.RoleAgent, true},
		{"seller with items", 100, model.RoleSeller, true},
		{"other customer", 8, model.RoleCustomer, false},
		{"other seller", 200, model.RoleSeller, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, items, err := uc.Get(ctx, 1, tc.actorID, tc.role)
			if tc.allowed {
				if err != nil {
					t.Fatalf("expected access, got %v", err)
				}
				if len(items) != 1 {
					t.Fatalf("expected line items, got %d", len(items))
				}
				return
			}
			if !errors.Is(err, domainErrors.ErrForbidden) {
				t.Fatalf("expected forbidden, got %v", err)
			}
		})
	}
}
