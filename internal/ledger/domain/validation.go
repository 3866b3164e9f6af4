package domain

// ValidateBalanced ensures postings sum to a balanced double-entry posting.
// Zero-amount lines are tolerated (a zero-tax document credits tax_payable
// with zero) but negative amounts are not.
func ValidateBalanced(postings []Posting) error {
	if len(postings) < 2 {
		return ErrInvalidPostings
	}

	var debitTotal int64
	var creditTotal int64
	for _, posting := range postings {
		if posting.Amount < 0 {
			return ErrInvalidPostingAmount
		}
		if posting.AccountCode == "" {
			return ErrInvalidAccount
		}
		switch posting.Direction {
		case EntryDirectionDebit:
			debitTotal += posting.Amount
		case EntryDirectionCredit:
			creditTotal += posting.Amount
		default:
			return ErrInvalidDirection
		}
	}

	if debitTotal != creditTotal {
		return ErrUnbalancedEntry
	}
	return nil
}
