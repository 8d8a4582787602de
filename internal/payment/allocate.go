// Package payment splits a payment between an order's product subtotal and
// its delivery fee. Products are always paid first.
package payment

// State is the part of an order the split depends on.
type State struct {
	Subtotal    int64
	DeliveryFee int64
	Paid        int64
}

type Allocation struct {
	ProductPaidNow  int64
	DeliveryPaidNow int64
	// NewPaid is the cumulative amount applied after this payment.
	NewPaid    int64
	NewBalance int64
	// ExcessUnallocated is the part of the payment that fit in neither
	// bucket. It is not refunded or carried anywhere.
	ExcessUnallocated int64
}

// Allocate applies amount on top of the already-paid total. Only the
// increments actually applied in this call are reported, so repeated
// partial payments never double count.
func Allocate(s State, amount int64) Allocation {
	paidAfter := s.Paid + amount

	productAfter := min(paidAfter, s.Subtotal)
	deliveryAfter := min(max(0, paidAfter-s.Subtotal), s.DeliveryFee)

	productBefore := min(s.Paid, s.Subtotal)
	deliveryBefore := max(0, s.Paid-s.Subtotal)

	productNow := max(0, productAfter-productBefore)
	deliveryNow := max(0, deliveryAfter-deliveryBefore)

	return Allocation{
		ProductPaidNow:    productNow,
		DeliveryPaidNow:   deliveryNow,
		NewPaid:           productAfter + deliveryAfter,
		NewBalance:        (s.Subtotal - productAfter) + (s.DeliveryFee - deliveryAfter),
		ExcessUnallocated: max(0, amount-productNow-deliveryNow),
	}
}
