package enums

// CheckoutState is the commit state machine: idle → processing → committed|failed.
type CheckoutState string

const (
	CheckoutStateIdle       CheckoutState = "idle"
	CheckoutStateProcessing CheckoutState = "processing"
	CheckoutStateCommitted  CheckoutState = "committed"
	CheckoutStateFailed     CheckoutState = "failed"
)

// String implements fmt.Stringer.
func (c CheckoutState) String() string {
	return string(c)
}

// IsTerminal reports whether no further transition is possible.
func (c CheckoutState) IsTerminal() bool {
	return c == CheckoutStateCommitted || c == CheckoutStateFailed
}

// CanTransition reports whether moving from c to next is allowed.
func (c CheckoutState) CanTransition(next CheckoutState) bool {
	switch c {
	case CheckoutStateIdle:
		return next == CheckoutStateProcessing || next == CheckoutStateFailed
	case CheckoutStateProcessing:
		return next == CheckoutStateCommitted || next == CheckoutStateFailed
	default:
		return false
	}
}
