package dto

import "time"

// CartItemRequest is one requested position at checkout.
type CartItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// PlaceOrderRequest describes the checkout payload.
type PlaceOrderRequest struct {
	Address string            `json:"address"`
	Items   []CartItemRequest `json:"items"`
}

// OrderResponse mirrors an order row.
type OrderResponse struct {
	ID               int64      `json:"id"`
	OrderedAt        time.Time  `json:"ordered_at"`
	SubtotalCents    int64      `json:"subtotal_cents"`
	BuyerFeeCents    int64      `json:"buyer_fee_cents"`
	TotalCents       int64      `json:"total_cents"`
	Status           string     `json:"status"`
	PaymentStatus    string     `json:"payment_status"`
	Address          string     `json:"address"`
	AgentID          *int64     `json:"agent_id,omitempty"`
	VerifyStart      *time.Time `json:"verify_start,omitempty"`
	VerifyEnd        *time.Time `json:"verify_end,omitempty"`
	ConfirmedReceipt bool       `json:"confirmed_receipt"`
	ReportedProblem  bool       `json:"reported_problem"`
}

// LineItemResponse is one frozen order position.
type LineItemResponse struct {
	ProductID      int64  `json:"product_id"`
	SellerID       int64  `json:"seller_id"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	SubtotalCents  int64  `json:"subtotal_cents"`
	ProductName    string `json:"product_name"`
	ProductImage   string `json:"product_image,omitempty"`
}

// OrderDetailResponse is an order with its line items.
type OrderDetailResponse struct {
	OrderResponse
	Items []LineItemResponse `json:"items"`
}

// CancelOrderRequest carries the cancellation reason.
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// RefundLineResponse is one seller share closed out by cancellation.
type RefundLineResponse struct {
	SellerID    int64 `json:"seller_id"`
	AmountCents int64 `json:"amount_cents"`
}

// RefundSummaryResponse reports the cancellation close-out.
type RefundSummaryResponse struct {
	OrderID    int64                `json:"order_id"`
	TotalCents int64                `json:"total_cents"`
	Lines      []RefundLineResponse `json:"lines"`
}

// ForceConfirmRequest carries the mandatory admin override reason.
type ForceConfirmRequest struct {
	Reason string `json:"reason"`
}

// AssignAgentRequest attaches a delivery agent to an order.
type AssignAgentRequest struct {
	AgentID int64 `json:"agent_id"`
}

// DeliveryStatusRequest advances the delivery leg by one step.
type DeliveryStatusRequest struct {
	Status string `json:"status"`
}

// ReportProblemRequest carries the customer's complaint.
type ReportProblemRequest struct {
	Description string `json:"description"`
}

// SellerConfirmResponse reports whether the order became confirmed.
type SellerConfirmResponse struct {
	OrderConfirmed bool `json:"order_confirmed"`
}

// PendingSellersResponse lists sellers that have not confirmed yet.
type PendingSellersResponse struct {
	SellerIDs []int64 `json:"seller_ids"`
}
