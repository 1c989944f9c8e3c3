package money

import "fmt"

// All monetary amounts in the system are integer centavos. Floats only appear
// at the display edge via Format.

// Flat checkout charges applied when the cart is non-empty.
const (
	ShippingFeeCents = 24999 // 249.99
	ServiceFeeCents  = 5000  // 50.00
)

// Totals is the breakdown of a cart or order, in cents.
type Totals struct {
	Subtotal   int64 `json:"subtotal"`
	Shipping   int64 `json:"shipping"`
	ServiceFee int64 `json:"service_fee"`
	Total      int64 `json:"total"`
}

// Compute builds the totals for a given subtotal. Shipping and service fee are
// flat charges that apply only when there is something to check out.
func Compute(subtotalCents int64, itemCount int) Totals {
	t := Totals{Subtotal: subtotalCents}
	if itemCount > 0 {
		t.Shipping = ShippingFeeCents
		t.ServiceFee = ServiceFeeCents
	}
	t.Total = t.Subtotal + t.Shipping + t.ServiceFee
	return t
}

// Format renders cents as a two-decimal string, e.g. 129999 -> "1299.99".
func Format(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
