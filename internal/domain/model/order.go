package model

import "time"

// OrderStatus describes the fulfillment lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusPickedUp  OrderStatus = "PICKED_UP"
	OrderStatusOnTheWay  OrderStatus = "ON_THE_WAY"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusDisputed  OrderStatus = "DISPUTED"
)

// PaymentStatus tracks the settlement side of a cash-on-delivery order.
type PaymentStatus string

const (
	PaymentStatusPending      PaymentStatus = "PENDING"
	PaymentStatusVerification PaymentStatus = "VERIFICATION"
	PaymentStatusSettled      PaymentStatus = "SETTLED"
	PaymentStatusCancelled    PaymentStatus = "CANCELLED"
)

// Order is a single checkout; line items may span multiple sellers.
// TotalCents is always SubtotalCents + BuyerFeeCents.
type Order struct {
	ID               int64
	CustomerID       int64
	OrderedAt        time.Time
	SubtotalCents    int64
	BuyerFeeCents    int64
	TotalCents       int64
	Status           OrderStatus
	PaymentStatus    PaymentStatus
	Address          string
	AgentID          *int64
	VerifyStart      *time.Time
	VerifyEnd        *time.Time
	ConfirmedReceipt bool
	ReportedProblem  bool
	CancelReason     *string
	CancelledAt      *time.Time
}

// LineItem is an immutable snapshot of a purchased unit. Name and
// image are frozen at placement so catalog edits never rewrite history.
type LineItem struct {
	ID             int64
	OrderID        int64
	ProductID      int64
	SellerID       int64
	Quantity       int
	UnitPriceCents int64
	SubtotalCents  int64
	ProductName    string
	ProductImage   string
}

// NextDeliveryStatus returns the single legal successor for an
// agent-driven delivery step, or false when the order is not on the
// delivery path.
func NextDeliveryStatus(current OrderStatus) (OrderStatus, bool) {
	switch current {
	case OrderStatusConfirmed:
		return OrderStatusPickedUp, true
	case OrderStatusPickedUp:
		return OrderStatusOnTheWay, true
	case OrderStatusOnTheWay:
		return OrderStatusDelivered, true
	default:
		return "", false
	}
}

// SellerSubtotals sums line subtotals per seller. The resulting shares
// become the escrow amounts for the order.
func SellerSubtotals(items []LineItem) map[int64]int64 {
	shares := make(map[int64]int64)
	for _, it := range items {
		shares[it.SellerID] += it.SubtotalCents
	}
	return shares
}
