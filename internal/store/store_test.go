package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrorsAreDistinct(t *testing.T) {
	all := []error{
		ErrUserNotFound,
		ErrInsufficientFunds,
		ErrInvalidTransition,
		ErrWithdrawalNotFound,
		ErrDuplicateReferral,
		ErrSelfReferral,
		ErrDuplicateUser,
		ErrConcurrentModification,
		ErrStoreUnavailable,
	}
	for i, a := range all {
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v should not match %v", a, b)
			}
		}
	}
}

func TestSentinelErrorsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("debit user 7: %w", ErrInsufficientFunds)
	if !errors.Is(wrapped, ErrInsufficientFunds) {
		t.Errorf("expected wrapped error to match ErrInsufficientFunds")
	}

	// Ensure the interface is a usable type.
	var _ LedgerStore
}
