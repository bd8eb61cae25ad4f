package dto

import "time"

// EscrowResponse mirrors an escrow row.
type EscrowResponse struct {
	ID             int64      `json:"id"`
	OrderID        int64      `json:"order_id"`
	SellerID       int64      `json:"seller_id"`
	AmountCents    int64      `json:"amount_cents"`
	Status         string     `json:"status"`
	CustomerAction string     `json:"customer_action"`
	VerifyStart    *time.Time `json:"verify_start,omitempty"`
	VerifyEnd      *time.Time `json:"verify_end,omitempty"`
	ReleasedAt     *time.Time `json:"released_at,omitempty"`
	ReleasedBy     *string    `json:"released_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// EscrowActionRequest is an admin manual action with mandatory notes.
type EscrowActionRequest struct {
	Action string `json:"action"`
	Notes  string `json:"notes"`
}
