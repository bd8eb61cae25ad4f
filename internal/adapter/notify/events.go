package notify

import (
	"encoding/json"
	"time"
)

// Event types emitted on core order transitions. Delivery is
// best-effort; collaborators that miss an event reconcile from state.
const (
	EventOrderPlaced    = "order.placed"
	EventOrderConfirmed = "order.confirmed"
	EventOrderDelivered = "order.delivered"
	EventOrderCancelled = "order.cancelled"
	EventOrderDisputed  = "order.disputed"
	EventEscrowReleased = "escrow.released"
)

// Envelope wraps every published event. Partition key is the order ID
// so all events of one order keep their relative order.
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Producer   string          `json:"producer"`
	Payload    json.RawMessage `json:"payload"`
}

// OrderEventPayload accompanies the order.* events.
type OrderEventPayload struct {
	OrderID    int64   `json:"order_id"`
	CustomerID int64   `json:"customer_id"`
	TotalCents int64   `json:"total_cents,omitempty"`
	SellerIDs  []int64 `json:"seller_ids,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

// DisputePayload informs the complaint-escalation collaborator when an
// order enters dispute: the order, its frozen escrows, and the
// customer's problem description.
type DisputePayload struct {
	OrderID     int64   `json:"order_id"`
	CustomerID  int64   `json:"customer_id"`
	EscrowIDs   []int64 `json:"escrow_ids"`
	Description string  `json:"description"`
}

// EscrowReleasedPayload accompanies escrow.released.
type EscrowReleasedPayload struct {
	EscrowID    int64  `json:"escrow_id"`
	OrderID     int64  `json:"order_id"`
	SellerID    int64  `json:"seller_id"`
	AmountCents int64  `json:"amount_cents"`
	ReleasedBy  string `json:"released_by"`
}
