package aggregate

import "fmt"

// Error reports why a charge's records could not be collapsed into a
// single comparable summary. It is always recoverable at the per-charge
// level; batch processing records it and moves on.
type Error struct {
	ChargeID string
	Reason   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("charge %s: %s", e.ChargeID, e.Reason)
}

func newError(chargeID, format string, args ...any) *Error {
	return &Error{
		ChargeID: chargeID,
		Reason:   fmt.Sprintf(format, args...),
	}
}
