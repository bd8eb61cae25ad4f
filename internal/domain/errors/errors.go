package errors

import "errors"

// Precondition errors: the request is invalid for the current state of
// the order or actor, so retrying it unchanged cannot help.
var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInactiveItem       = errors.New("product is not available for sale")
	ErrOutOfStock         = errors.New("insufficient stock")
	ErrInvalidState       = errors.New("operation not allowed in current order state")
	ErrInvalidTransition  = errors.New("invalid delivery status transition")
	ErrNotOwner           = errors.New("actor does not own this order")
	ErrNotSellerOnOrder   = errors.New("seller has no items on this order")
	ErrNotAssignedAgent   = errors.New("agent is not assigned to this order")
	ErrNotEligible        = errors.New("order is not in verification period")
	ErrNegativeStock      = errors.New("stock adjustment would produce negative quantity")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrReasonRequired     = errors.New("reason is required")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("actor role not permitted")
)

// ErrConcurrentModification signals a lost optimistic-lock race.
// Callers retry with fresh reads a bounded number of times before
// surfacing it.
var ErrConcurrentModification = errors.New("concurrent modification detected")
