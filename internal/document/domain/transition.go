package domain

import "fmt"

// InvalidTransitionError reports a disallowed lifecycle move. It carries both
// the current and the attempted state so callers never have to guess.
type InvalidTransitionError struct {
	From DocumentStatus
	To   DocumentStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid_transition: %s -> %s", e.From, e.To)
}

// transitions is the authoritative lifecycle table. DRAFT is never a target:
// re-entering DRAFT from an issued state would retroactively change an
// already-issued document number, so the only way back is cancel and
// recreate. CANCELLED is reachable from DRAFT and SCHEDULED only.
var transitions = map[DocumentStatus][]DocumentStatus{
	StatusDraft:     {StatusScheduled, StatusCancelled},
	StatusScheduled: {StatusPaid, StatusPartial, StatusOverdue, StatusCancelled},
	StatusPartial:   {StatusPaid, StatusOverdue},
	StatusOverdue:   {StatusPaid, StatusPartial},
	StatusPaid:      {},
	StatusCancelled: {},
}

// ValidateTransition checks a lifecycle move against the transition table.
func ValidateTransition(from, to DocumentStatus) error {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return nil
		}
	}
	return &InvalidTransitionError{From: from, To: to}
}

// CanEdit reports whether items, discount, tax mode, or shipping may change.
func CanEdit(s DocumentStatus) bool {
	return s == StatusDraft
}

// IsPayable reports whether a payment may be applied in this state.
func IsPayable(s DocumentStatus) bool {
	switch s {
	case StatusScheduled, StatusPartial, StatusOverdue:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions exist.
func IsTerminal(s DocumentStatus) bool {
	return len(transitions[s]) == 0
}

// NextOnPayment returns the state after a successful payment posting.
func NextOnPayment(current DocumentStatus, amountPaid, grandTotal int64) (DocumentStatus, error) {
	if !IsPayable(current) {
		return current, ErrDocumentNotPayable
	}
	next := StatusPartial
	if amountPaid >= grandTotal {
		next = StatusPaid
	}
	if current == next {
		// OVERDUE -> PARTIAL and repeated partials stay valid; PARTIAL
		// remaining PARTIAL is not a transition at all.
		return next, nil
	}
	if err := ValidateTransition(current, next); err != nil {
		return current, err
	}
	return next, nil
}

// ValidStatus reports whether the status is one of the closed set.
func ValidStatus(s DocumentStatus) bool {
	_, ok := transitions[s]
	return ok
}
