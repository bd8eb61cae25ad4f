package model

// CartItem is one requested position at checkout time.
type CartItem struct {
	ProductID int64
	Quantity  int
}

// RefundLine reports one seller's share closed out by a cancellation.
type RefundLine struct {
	SellerID    int64
	AmountCents int64
}

// RefundSummary is returned from order cancellation. Money never
// changed hands under cash-on-delivery, so this is bookkeeping only.
type RefundSummary struct {
	OrderID    int64
	TotalCents int64
	Lines      []RefundLine
}
