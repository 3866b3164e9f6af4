package domain

import (
	"errors"
	"testing"
)

func TestValidateTransitionTable(t *testing.T) {
	cases := []struct {
		from, to DocumentStatus
		ok       bool
	}{
		{StatusDraft, StatusScheduled, true},
		{StatusDraft, StatusCancelled, true},
		{StatusDraft, StatusPaid, false},
		{StatusScheduled, StatusPaid, true},
		{StatusScheduled, StatusPartial, true},
		{StatusScheduled, StatusOverdue, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusScheduled, StatusDraft, false},
		{StatusPartial, StatusPaid, true},
		{StatusPartial, StatusOverdue, true},
		{StatusPartial, StatusCancelled, false},
		{StatusOverdue, StatusPaid, true},
		{StatusOverdue, StatusPartial, true},
		{StatusOverdue, StatusCancelled, false},
		{StatusPaid, StatusCancelled, false},
		{StatusPaid, StatusPartial, false},
		{StatusCancelled, StatusScheduled, false},
	}
	for _, tc := range cases {
		err := ValidateTransition(tc.from, tc.to)
		if tc.ok && err != nil {
			t.Fatalf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
		}
		if !tc.ok {
			var ite *InvalidTransitionError
			if !errors.As(err, &ite) {
				t.Fatalf("%s -> %s: expected InvalidTransitionError, got %v", tc.from, tc.to, err)
			}
			if ite.From != tc.from || ite.To != tc.to {
				t.Fatalf("error states = %s -> %s, want %s -> %s", ite.From, ite.To, tc.from, tc.to)
			}
		}
	}
}

func TestDraftIsNeverReachable(t *testing.T) {
	for from := range map[DocumentStatus][]DocumentStatus(transitions) {
		if err := ValidateTransition(from, StatusDraft); err == nil {
			t.Fatalf("%s -> DRAFT must be rejected", from)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	if !IsTerminal(StatusPaid) || !IsTerminal(StatusCancelled) {
		t.Fatalf("PAID and CANCELLED must be terminal")
	}
	if IsTerminal(StatusOverdue) {
		t.Fatalf("OVERDUE must not be terminal")
	}
}

func TestNextOnPayment(t *testing.T) {
	cases := []struct {
		from  DocumentStatus
		paid  int64
		total int64
		want  DocumentStatus
	}{
		{StatusScheduled, 60000, 106200, StatusPartial},
		{StatusScheduled, 106200, 106200, StatusPaid},
		{StatusPartial, 106200, 106200, StatusPaid},
		{StatusPartial, 80000, 106200, StatusPartial},
		{StatusOverdue, 50000, 106200, StatusPartial},
		{StatusOverdue, 106200, 106200, StatusPaid},
	}
	for _, tc := range cases {
		got, err := NextOnPayment(tc.from, tc.paid, tc.total)
		if err != nil {
			t.Fatalf("NextOnPayment(%s, %d/%d): %v", tc.from, tc.paid, tc.total, err)
		}
		if got != tc.want {
			t.Fatalf("NextOnPayment(%s, %d/%d) = %s, want %s", tc.from, tc.paid, tc.total, got, tc.want)
		}
	}
}

func TestNextOnPaymentRejectsUnpayableStates(t *testing.T) {
	for _, from := range []DocumentStatus{StatusDraft, StatusPaid, StatusCancelled} {
		if _, err := NextOnPayment(from, 100, 200); !errors.Is(err, ErrDocumentNotPayable) {
			t.Fatalf("%s: expected ErrDocumentNotPayable, got %v", from, err)
		}
	}
}

func TestCanEditOnlyDraft(t *testing.T) {
	for _, s := range []DocumentStatus{StatusScheduled, StatusPartial, StatusPaid, StatusOverdue, StatusCancelled} {
		if CanEdit(s) {
			t.Fatalf("%s must not be editable", s)
		}
	}
	if !CanEdit(StatusDraft) {
		t.Fatalf("DRAFT must be editable")
	}
}
