package model

import "time"

// EscrowStatus describes the held-funds lifecycle for one seller's
// share of one order. The three released statuses all mean the seller
// owns the money; they differ only in how release happened.
type EscrowStatus string

const (
	EscrowStatusPending       EscrowStatus = "PENDING"
	EscrowStatusVerification  EscrowStatus = "VERIFICATION"
	EscrowStatusConfirmed     EscrowStatus = "CONFIRMED"
	EscrowStatusAutoReleased  EscrowStatus = "AUTO_RELEASED"
	EscrowStatusManualRelease EscrowStatus = "MANUAL_RELEASED"
	EscrowStatusFrozen        EscrowStatus = "FROZEN"
	EscrowStatusDisputed      EscrowStatus = "DISPUTED"
	EscrowStatusCancelled     EscrowStatus = "CANCELLED"
)

// Released reports whether the status means funds now belong to the seller.
func (s EscrowStatus) Released() bool {
	return s == EscrowStatusConfirmed || s == EscrowStatusAutoReleased || s == EscrowStatusManualRelease
}

// CustomerAction records what the buyer did during the verification window.
type CustomerAction string

const (
	CustomerActionNone      CustomerAction = "NONE"
	CustomerActionConfirmed CustomerAction = "CONFIRMED"
	CustomerActionReported  CustomerAction = "REPORTED"
)

// Release actor labels stored for audit on released escrows.
const (
	ReleasedByCustomer = "customer"
	ReleasedBySystem   = "system:auto-release"
)

// Escrow holds one seller's portion of one order until delivery is
// verified. Version is an optimistic stamp bumped on every write, the
// same mechanism that guards stock.
type Escrow struct {
	ID             int64
	OrderID        int64
	SellerID       int64
	AmountCents    int64
	Status         EscrowStatus
	CustomerAction CustomerAction
	ActionAt       *time.Time
	VerifyStart    *time.Time
	VerifyEnd      *time.Time
	ReleasedAt     *time.Time
	ReleasedBy     *string
	Notes          *string
	Version        int64
	CreatedAt      time.Time
}

// WindowExpired reports whether the verification window has elapsed
// with no customer action.
func (e Escrow) WindowExpired(now time.Time) bool {
	return e.Status == EscrowStatusVerification &&
		e.CustomerAction == CustomerActionNone &&
		e.VerifyEnd != nil && e.VerifyEnd.Before(now)
}
