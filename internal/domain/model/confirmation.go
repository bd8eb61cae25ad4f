package model

import "time"

// SellerConfirmation tracks one seller's acknowledgement of an order.
// Exactly one row exists per distinct (order, seller) pair among the
// order's line items.
type SellerConfirmation struct {
	OrderID     int64
	SellerID    int64
	ConfirmedAt *time.Time
}

// Confirmed reports whether the seller has acknowledged the order.
func (c SellerConfirmation) Confirmed() bool {
	return c.ConfirmedAt != nil
}

// AllConfirmed derives order readiness from the confirmation set: the
// set must be non-empty and every row confirmed. Readiness is always
// recomputed from the child rows, never cached on the order.
func AllConfirmed(confirmations []SellerConfirmation) bool {
	if len(confirmations) == 0 {
		return false
	}
	for _, c := range confirmations {
		if !c.Confirmed() {
			return false
		}
	}
	return true
}

// PendingSellers lists sellers that have not yet confirmed.
func PendingSellers(confirmations []SellerConfirmation) []int64 {
	var pending []int64
	for _, c := range confirmations {
		if !c.Confirmed() {
			pending = append(pending, c.SellerID)
		}
	}
	return pending
}
