package handlers

import (
	"context"

	"github.com/sablin/fairmarket/internal/domain/model"
	"github.com/sablin/fairmarket/internal/domain/repository"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, login, password string, role model.Role) (string, error)
	Authenticate(ctx context.Context, login, password string) (string, error)
	ParseToken(token string) (int64, model.Role, error)
}

// OrderFacade encapsulates order lifecycle operations exposed via HTTP.
type OrderFacade interface {
	PlaceOrder(ctx context.Context, customerID int64, address string, cart []model.CartItem) (*model.Order, error)
	Orders(ctx context.Context, customerID int64) ([]model.Order, error)
	OrderByID(ctx context.Context, orderID, actorID int64, role model.Role) (*model.Order, []model.LineItem, error)
	CancelOrder(ctx context.Context, orderID, actorID int64, role model.Role, reason string) (*model.RefundSummary, error)
	ConfirmAsSeller(ctx context.Context, orderID, sellerID int64) (bool, error)
	ForceConfirm(ctx context.Context, orderID, adminID int64, reason string) error
	PendingSellers(ctx context.Context, orderID int64) ([]int64, error)
	AssignAgent(ctx context.Context, orderID, agentID int64) error
	AdvanceDelivery(ctx context.Context, orderID, agentID int64, target model.OrderStatus) (*model.Order, error)
	ConfirmReceipt(ctx context.Context, orderID, customerID int64) error
	ReportProblem(ctx context.Context, orderID, customerID int64, description string) error
}

// EscrowFacade provides escrow operations exposed via HTTP.
type EscrowFacade interface {
	EscrowsBySeller(ctx context.Context, sellerID int64) ([]model.Escrow, error)
	ManualEscrowAction(ctx context.Context, escrowID, adminID int64, action, notes string) (*model.Escrow, error)
}

// StockFacade provides stock ledger operations exposed via HTTP.
type StockFacade interface {
	AdjustStock(ctx context.Context, productID int64, delta int, reason model.AdjustmentReason, actorID *int64, role model.Role) (*model.Product, error)
	BulkAdjustStock(ctx context.Context, changes []repository.StockChange, reason model.AdjustmentReason, actorID *int64, role model.Role) ([]model.StockAdjustment, error)
	StockHistory(ctx context.Context, productID int64) ([]model.StockAdjustment, error)
	ProductByID(ctx context.Context, productID int64) (*model.Product, error)
}

// MarketFacade aggregates the full set of operations used across handlers.
type MarketFacade interface {
	AuthFacade
	OrderFacade
	EscrowFacade
	StockFacade
}
