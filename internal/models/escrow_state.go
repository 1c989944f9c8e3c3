package models

// EscrowState is the lifecycle of funds held by HanySecurePay for an order.
// Money moves from buyer-held to seller-available only on the transition into
// StateReleased.
type EscrowState string

const (
	StateCreated     EscrowState = "CREATED"
	StateDepositHeld EscrowState = "DEPOSIT_HELD"
	StateShipped     EscrowState = "SHIPPED"
	StateDelivered   EscrowState = "DELIVERED"
	StateConfirmed   EscrowState = "CONFIRMED"
	StateDisputed    EscrowState = "DISPUTED"
	StateReleased    EscrowState = "RELEASED"
	StateRefunded    EscrowState = "REFUNDED"
)

var validNext = map[EscrowState]map[EscrowState]bool{
	StateCreated:     {StateDepositHeld: true},
	StateDepositHeld: {StateShipped: true},
	StateShipped:     {StateDelivered: true},
	StateDelivered:   {StateConfirmed: true, StateDisputed: true},
	StateConfirmed:   {StateReleased: true},
	StateDisputed:    {StateReleased: true, StateRefunded: true},
	StateReleased:    {},
	StateRefunded:    {},
}

// CanTransition reports whether the escrow machine allows moving to the given state.
func (s EscrowState) CanTransition(to EscrowState) bool {
	return validNext[s][to]
}

// IsTerminal reports whether no further transitions are possible.
func (s EscrowState) IsTerminal() bool {
	return s == StateReleased || s == StateRefunded
}

func (s EscrowState) String() string {
	return string(s)
}
