package test

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/sablin/fairmarket/internal/domain/errors"
	"github.com/sablin/fairmarket/internal/domain/model"
	"github.com/sablin/fairmarket/internal/domain/repository"
)

// UserRepositoryStub stores users in-memory for tests.
type UserRepositoryStub struct {
	Users map[string]*model.User
	ByID  map[int64]*model.User
	Next  int64
	Err   error
}

// NewUserRepositoryStub constructs stub repository with initialized maps.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{
		Users: make(map[string]*model.User),
		ByID:  make(map[int64]*model.User),
		Next:  1,
	}
}

// Create registers user unless already exists or stub has explicit error.
func (s *UserRepositoryStub) Create(ctx context.Context, login, passwordHash string, role model.Role) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Users == nil {
		s.Users = make(map[string]*model.User)
	}
	if s.ByID == nil {
		s.ByID = make(map[int64]*model.User)
	}
	if _, exists := s.Users[login]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	if s.Next == 0 {
		s.Next = 1
	}
	user := &model.User{ID: s.Next, Login: login, PasswordHash: passwordHash, Role: role}
	s.Next++
	s.Users[login] = user
	s.ByID[user.ID] = user
	return user, nil
}

// GetByLogin fetches user by login or returns not found.
func (s *UserRepositoryStub) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.Users[login]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetByID fetches user by identifier or returns not found.
func (s *UserRepositoryStub) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.ByID[id]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// OrderRepositoryStub allows tests to customize order persistence behaviour.
type OrderRepositoryStub struct {
	CreatePlacementFn func(context.Context, repository.OrderPlacement) (*model.Order, error)
	GetByIDFn         func(context.Context, int64) (*model.Order, error)
	ListByCustomerFn  func(context.Context, int64) ([]model.Order, error)
	ListItemsFn       func(context.Context, int64) ([]model.LineItem, error)
	TransitionFn      func(context.Context, int64, model.OrderStatus, model.OrderStatus) error
	AssignAgentFn     func(context.Context, int64, int64) error
	MarkDeliveredFn   func(context.Context, int64, time.Time, time.Time) error
	CancelFn          func(context.Context, int64, string) (*model.RefundSummary, error)
	CompleteReceiptFn func(context.Context, int64) error
	MarkDisputedFn    func(context.Context, int64) error

	Placements  []repository.OrderPlacement
	Orders      []model.Order
	Items       []model.LineItem
	Transitions []struct {
		OrderID  int64
		From, To model.OrderStatus
	}
}

// CreatePlacement tracks invocations and returns configured responses.
func (s *OrderRepositoryStub) CreatePlacement(ctx context.Context, p repository.OrderPlacement) (*model.Order, error) {
	s.Placements = append(s.Placements, p)
	if s.CreatePlacementFn != nil {
		return s.CreatePlacementFn(ctx, p)
	}
	order := *p.Order
	order.ID = int64(len(s.Placements))
	order.OrderedAt = time.Now()
	return &order, nil
}

// GetByID returns matched order either via override or stored slice.
func (s *OrderRepositoryStub) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	for _, o := range s.Orders {
		if o.ID == id {
			order := o
			return &order, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// ListByCustomer returns orders from configured slice.
func (s *OrderRepositoryStub) ListByCustomer(ctx context.Context, customerID int64) ([]model.Order, error) {
	if s.ListByCustomerFn != nil {
		return s.ListByCustomerFn(ctx, customerID)
	}
	var out []model.Order
	for _, o := range s.Orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

// ListItems returns line items from configured slice.
func (s *OrderRepositoryStub) ListItems(ctx context.Context, orderID int64) ([]model.LineItem, error) {
	if s.ListItemsFn != nil {
		return s.ListItemsFn(ctx, orderID)
	}
	var out []model.LineItem
	for _, it := range s.Items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out, nil
}

// TransitionStatus records the requested transition.
func (s *OrderRepositoryStub) TransitionStatus(ctx context.Context, orderID int64, from, to model.OrderStatus) error {
	s.Transitions = append(s.Transitions, struct {
		OrderID  int64
		From, To model.OrderStatus
	}{orderID, from, to})
	if s.TransitionFn != nil {
		return s.TransitionFn(ctx, orderID, from, to)
	}
	return nil
}

// AssignAgent delegates to override or succeeds.
func (s *OrderRepositoryStub) AssignAgent(ctx context.Context, orderID, agentID int64) error {
	if s.AssignAgentFn != nil {
		return s.AssignAgentFn(ctx, orderID, agentID)
	}
	return nil
}

// MarkDelivered delegates to override or succeeds.
func (s *OrderRepositoryStub) MarkDelivered(ctx context.Context, orderID int64, start, end time.Time) error {
	if s.MarkDeliveredFn != nil {
		return s.MarkDeliveredFn(ctx, orderID, start, end)
	}
	return nil
}

// Cancel delegates to override or reports an empty refund.
func (s *OrderRepositoryStub) Cancel(ctx context.Context, orderID int64, reason string) (*model.RefundSummary, error) {
	if s.CancelFn != nil {
		return s.CancelFn(ctx, orderID, reason)
	}
	return &model.RefundSummary{OrderID: orderID}, nil
}

// CompleteReceipt delegates to override or succeeds.
func (s *OrderRepositoryStub) CompleteReceipt(ctx context.Context, orderID int64) error {
	if s.CompleteReceiptFn != nil {
		return s.CompleteReceiptFn(ctx, orderID)
	}
	return nil
}

// MarkDisputed delegates to override or succeeds.
func (s *OrderRepositoryStub) MarkDisputed(ctx context.Context, orderID int64) error {
	if s.MarkDisputedFn != nil {
		return s.MarkDisputedFn(ctx, orderID)
	}
	return nil
}

// EscrowRepositoryStub allows tests to customize escrow behaviour.
type EscrowRepositoryStub struct {
	GetByIDFn       func(context.Context, int64) (*model.Escrow, error)
	ListByOrderFn   func(context.Context, int64) ([]model.Escrow, error)
	ListBySellerFn  func(context.Context, int64) ([]model.Escrow, error)
	SelectExpiredFn func(context.Context, time.Time, int) ([]model.Escrow, error)
	ReleaseFn       func(context.Context, int64, int64, model.EscrowStatus, string, *string) (bool, error)
	FreezeFn        func(context.Context, int64, int64, *string) (bool, error)
	MarkDisputedFn  func(context.Context, int64, int64, *string) (bool, error)

	Escrows      []model.Escrow
	ReleaseCalls []struct {
		EscrowID int64
		To       model.EscrowStatus
		Actor    string
	}
}

// GetByID returns matched escrow either via override or stored slice.
func (s *EscrowRepositoryStub) GetByID(ctx context.Context, id int64) (*model.Escrow, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	for _, e := range s.Escrows {
		if e.ID == id {
			escrow := e
			return &escrow, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// ListByOrder returns escrows from configured slice.
func (s *EscrowRepositoryStub) ListByOrder(ctx context.Context, orderID int64) ([]model.Escrow, error) {
	if s.ListByOrderFn != nil {
		return s.ListByOrderFn(ctx, orderID)
	}
	var out []model.Escrow
	for _, e := range s.Escrows {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListBySeller returns escrows from configured slice.
func (s *EscrowRepositoryStub) ListBySeller(ctx context.Context, sellerID int64) ([]model.Escrow, error) {
	if s.ListBySellerFn != nil {
		return s.ListBySellerFn(ctx, sellerID)
	}
	var out []model.Escrow
	for _, e := range s.Escrows {
		if e.SellerID == sellerID {
			out = append(out, e)
		}
	}
	return out, nil
}

// SelectExpired returns escrows whose window has elapsed.
func (s *EscrowRepositoryStub) SelectExpired(ctx context.Context, now time.Time, limit int) ([]model.Escrow, error) {
	if s.SelectExpiredFn != nil {
		return s.SelectExpiredFn(ctx, now, limit)
	}
	var out []model.Escrow
	for _, e := range s.Escrows {
		if e.WindowExpired(now) && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

// Release records the call and applies in-memory transition semantics,
// including the version check production performs.
func (s *EscrowRepositoryStub) Release(ctx context.Context, escrowID, version int64, to model.EscrowStatus, actor string, notes *string) (bool, error) {
	s.ReleaseCalls = append(s.ReleaseCalls, struct {
		EscrowID int64
		To       model.EscrowStatus
		Actor    string
	}{escrowID, to, actor})
	if s.ReleaseFn != nil {
		return s.ReleaseFn(ctx, escrowID, version, to, actor, notes)
	}
	for i := range s.Escrows {
		if s.Escrows[i].ID != escrowID {
			continue
		}
		if s.Escrows[i].Version != version {
			return false, nil
		}
		allowed := s.Escrows[i].Status == model.EscrowStatusVerification ||
			(to == model.EscrowStatusManualRelease && s.Escrows[i].Status == model.EscrowStatusFrozen)
		if !allowed {
			return false, nil
		}
		now := time.Now()
		s.Escrows[i].Status = to
		s.Escrows[i].ReleasedAt = &now
		s.Escrows[i].ReleasedBy = &actor
		s.Escrows[i].Notes = notes
		s.Escrows[i].Version++
		return true, nil
	}
	return false, nil
}

// Freeze applies in-memory freeze semantics.
func (s *EscrowRepositoryStub) Freeze(ctx context.Context, escrowID, version int64, notes *string) (bool, error) {
	if s.FreezeFn != nil {
		return s.FreezeFn(ctx, escrowID, version, notes)
	}
	for i := range s.Escrows {
		if s.Escrows[i].ID != escrowID {
			continue
		}
		if s.Escrows[i].Version != version || s.Escrows[i].Status != model.EscrowStatusVerification {
			return false, nil
		}
		s.Escrows[i].Status = model.EscrowStatusFrozen
		s.Escrows[i].Notes = notes
		s.Escrows[i].Version++
		return true, nil
	}
	return false, nil
}

// MarkDisputed applies in-memory dispute semantics.
func (s *EscrowRepositoryStub) MarkDisputed(ctx context.Context, escrowID, version int64, notes *string) (bool, error) {
	if s.MarkDisputedFn != nil {
		return s.MarkDisputedFn(ctx, escrowID, version, notes)
	}
	for i := range s.Escrows {
		if s.Escrows[i].ID != escrowID {
			continue
		}
		if s.Escrows[i].Version != version || s.Escrows[i].Status != model.EscrowStatusFrozen {
			return false, nil
		}
		s.Escrows[i].Status = model.EscrowStatusDisputed
		s.Escrows[i].Notes = notes
		s.Escrows[i].Version++
		return true, nil
	}
	return false, nil
}

// ConfirmationRepositoryStub stores confirmations in-memory.
type ConfirmationRepositoryStub struct {
	ListFn    func(context.Context, int64) ([]model.SellerConfirmation, error)
	ConfirmFn func(context.Context, int64, int64, time.Time) (bool, error)

	Confirmations []model.SellerConfirmation
}

// ListByOrder returns confirmation rows for the order.
func (s *ConfirmationRepositoryStub) ListByOrder(ctx context.Context, orderID int64) ([]model.SellerConfirmation, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, orderID)
	}
	var out []model.SellerConfirmation
	for _, c := range s.Confirmations {
		if c.OrderID == orderID {
			out = append(out, c)
		}
	}
	return out, nil
}

// Confirm stamps the row in-memory mirroring production semantics.
func (s *ConfirmationRepositoryStub) Confirm(ctx context.Context, orderID, sellerID int64, at time.Time) (bool, error) {
	if s.ConfirmFn != nil {
		return s.ConfirmFn(ctx, orderID, sellerID, at)
	}
	for i := range s.Confirmations {
		if s.Confirmations[i].OrderID != orderID || s.Confirmations[i].SellerID != sellerID {
			continue
		}
		if s.Confirmations[i].ConfirmedAt != nil {
			return false, nil
		}
		stamp := at
		s.Confirmations[i].ConfirmedAt = &stamp
		return true, nil
	}
	return false, domainErrors.ErrNotFound
}

// StockRepositoryStub stores products in-memory with version stamps.
// The default paths take the mutex so concurrent callers see the same
// compare-and-swap semantics production enforces in SQL.
type StockRepositoryStub struct {
	GetProductFn func(context.Context, int64) (*model.Product, error)
	AdjustFn     func(context.Context, int64, int64, int, model.StockAdjustment) (*model.Product, error)
	BulkFn       func(context.Context, []repository.StockChange, model.AdjustmentReason, *int64) ([]model.StockAdjustment, error)
	ListFn       func(context.Context, int64) ([]model.StockAdjustment, error)

	mu          sync.Mutex
	Products    map[int64]*model.Product
	Adjustments []model.StockAdjustment
}

// NewStockRepositoryStub constructs stub with initialized product map.
func NewStockRepositoryStub(products ...*model.Product) *StockRepositoryStub {
	s := &StockRepositoryStub{Products: make(map[int64]*model.Product)}
	for _, p := range products {
		s.Products[p.ID] = p
	}
	return s
}

// GetProduct fetches product by identifier or returns not found.
func (s *StockRepositoryStub) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	if s.GetProductFn != nil {
		return s.GetProductFn(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.Products[id]; ok {
		product := *p
		return &product, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetProducts fetches all listed products, failing on the first miss.
func (s *StockRepositoryStub) GetProducts(ctx context.Context, ids []int64) ([]model.Product, error) {
	out := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		p, err := s.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

// Adjust applies version-checked stock write mirroring production semantics.
func (s *StockRepositoryStub) Adjust(ctx context.Context, productID, expectedVersion int64, newQty int, adj model.StockAdjustment) (*model.Product, error) {
	if s.AdjustFn != nil {
		return s.AdjustFn(ctx, productID, expectedVersion, newQty, adj)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Products[productID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if p.Version != expectedVersion {
		return nil, domainErrors.ErrConcurrentModification
	}
	p.StockQuantity = newQty
	p.Version++
	s.Adjustments = append(s.Adjustments, adj)
	product := *p
	return &product, nil
}

// BulkAdjust applies all changes or delegates to override.
func (s *StockRepositoryStub) BulkAdjust(ctx context.Context, changes []repository.StockChange, reason model.AdjustmentReason, actorID *int64) ([]model.StockAdjustment, error) {
	if s.BulkFn != nil {
		return s.BulkFn(ctx, changes, reason, actorID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.StockAdjustment, 0, len(changes))
	for _, ch := range changes {
		p, ok := s.Products[ch.ProductID]
		if !ok {
			return nil, domainErrors.ErrNotFound
		}
		newQty := p.StockQuantity + ch.Delta
		if newQty < 0 {
			return nil, domainErrors.ErrNegativeStock
		}
		adj := model.StockAdjustment{
			ProductID:   ch.ProductID,
			PreviousQty: p.StockQuantity,
			NewQty:      newQty,
			Delta:       ch.Delta,
			Reason:      reason,
			ActorID:     actorID,
		}
		p.StockQuantity = newQty
		p.Version++
		s.Adjustments = append(s.Adjustments, adj)
		out = append(out, adj)
	}
	return out, nil
}

// ListAdjustments returns recorded ledger rows for the product.
func (s *StockRepositoryStub) ListAdjustments(ctx context.Context, productID int64) ([]model.StockAdjustment, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, productID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.StockAdjustment
	for _, a := range s.Adjustments {
		if a.ProductID == productID {
			out = append(out, a)
		}
	}
	return out, nil
}
