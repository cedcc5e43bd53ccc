package api

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"referral-ledger-go/internal/models"
	"referral-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

func TestCommission(t *testing.T) {
	calc := CommissionCalculator{Rate: decimal.RequireFromString("0.10")}

	tests := []struct {
		base string
		want string
	}{
		{"1000", "100"},
		{"1", "0.1"},
		{"333.33", "33.33"},
		{"0.04", "0"},
		{"0", "0"},
		{"-50", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			got := calc.Commission(decimal.RequireFromString(tt.base))
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Commission(%s) = %s, want %s", tt.base, got.String(), tt.want)
			}
		})
	}
}

func TestInstantFee(t *testing.T) {
	fee := InstantFee(decimal.NewFromInt(1000), decimal.RequireFromString("0.05"))
	if !fee.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected fee 50, got %s", fee.String())
	}
	if !InstantFee(decimal.NewFromInt(1000), decimal.Zero).IsZero() {
		t.Errorf("Expected zero fee at zero rate")
	}
}

func TestPropagateReferralCommission_NoReferrer(t *testing.T) {
	s, cleanup := setupTestLedger(t)
	defer cleanup()

	ctx := context.Background()
	user := registerTestUser(t, s, 1, "Loner", nil)

	receipt, err := s.PropagateReferralCommission(ctx, user.Id, decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("PropagateReferralCommission failed: %v", err)
	}
	if receipt != nil {
		t.Errorf("Expected no receipt, got %+v", receipt)
	}

	requireBalance(t, s, user.Id, "0")
	history, err := s.GetHistory(ctx, user.Id, 1, 5)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if history.Total != 0 {
		t.Errorf("Expected no history entries, got %d", history.Total)
	}
}

func TestCreditWork_PaysReferrer(t *testing.T) {
	s, cleanup := setupTestLedger(t)
	defer cleanup()

	ctx := context.Background()
	referrer := registerTestUser(t, s, 1, "Referrer", nil)
	worker := registerTestUser(t, s, 2, "Worker", &referrer.Id)

	receipt, err := s.CreditWork(ctx, worker.Id, decimal.NewFromInt(1000), "Shift")
	if err != nil {
		t.Fatalf("CreditWork failed: %v", err)
	}
	if receipt == nil || !receipt.Amount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("Unexpected work receipt %+v", receipt)
	}

	requireBalance(t, s, worker.Id, "1000")
	requireBalance(t, s, referrer.Id, "100")

	r, err := s.GetUser(ctx, referrer.Id)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if !r.ReferralEarnings.Equal(decimal.NewFromInt(100)) || !r.WorkEarnings.IsZero() {
		t.Errorf("Expected referral earnings 100 and no work earnings, got %s / %s", r.ReferralEarnings, r.WorkEarnings)
	}

	history, err := s.GetHistory(ctx, referrer.Id, 1, 5)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if history.Total != 1 {
		t.Fatalf("Expected one receipt for referrer, got %d", history.Total)
	}
	if !strings.Contains(history.Items[0].Description, "Worker") {
		t.Errorf("Expected description to name the source user, got %q", history.Items[0].Description)
	}
}

func TestPropagateReferralCommission_BlacklistedReferrer(t *testing.T) {
	s, cleanup := setupTestLedger(t)
	defer cleanup()

	ctx := context.Background()
	referrer := registerTestUser(t, s, 1, "Referrer", nil)
	worker := registerTestUser(t, s, 2, "Worker", &referrer.Id)
	if err := s.Blacklist(ctx, referrer.Id, "abuse"); err != nil {
		t.Fatalf("Blacklist failed: %v", err)
	}

	if _, err := s.CreditWork(ctx, worker.Id, decimal.NewFromInt(500), "Shift"); err != nil {
		t.Fatalf("CreditWork failed: %v", err)
	}
	requireBalance(t, s, referrer.Id, "0")
}

func TestDebit_Ledger(t *testing.T) {
	s, cleanup := setupTestLedger(t)
	defer cleanup()

	ctx := context.Background()
	user := registerTestUser(t, s, 1, "Spender", nil)
	if _, err := s.Credit(ctx, user.Id, decimal.NewFromInt(80), models.CreditWork, "seed"); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}

	if _, err := s.Debit(ctx, user.Id, decimal.NewFromInt(100)); !errors.Is(err, store.ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds, got %v", err)
	}
	requireBalance(t, s, user.Id, "80")

	balance, err := s.Debit(ctx, user.Id, decimal.NewFromInt(30))
	if err != nil {
		t.Fatalf("Debit failed: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected balance 50, got %s", balance.String())
	}

	if _, err := s.Debit(ctx, 404, decimal.NewFromInt(1)); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
	if _, err := s.Debit(ctx, user.Id, decimal.Zero); !IsValidationError(err) {
		t.Errorf("Expected validation error for zero debit, got %v", err)
	}
}

func TestDebit_Concurrent(t *testing.T) {
	s, cleanup := setupTestLedger(t)
	defer cleanup()

	ctx := context.Background()
	user := registerTestUser(t, s, 1, "Racer", nil)
	if _, err := s.Credit(ctx, user.Id, decimal.NewFromInt(100), models.CreditWork, "seed"); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Debit(ctx, user.Id, decimal.NewFromInt(100))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	successes := 0
	for err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, store.ErrInsufficientFunds):
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("Expected exactly one successful debit, got %d", successes)
	}
	requireBalance(t, s, user.Id, "0")
}

func TestSetBalance_Ledger(t *testing.T) {
	s, cleanup := setupTestLedger(t)
	defer cleanup()

	ctx := context.Background()
	user := registerTestUser(t, s, 1, "Adjusted", nil)

	updated, err := s.SetBalance(ctx, user.Id, decimal.RequireFromString("1000.0"), "manual")
	if err != nil {
		t.Fatalf("SetBalance failed: %v", err)
	}
	if !updated.AccountBalance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected balance 1000, got %s", updated.AccountBalance.String())
	}

	if _, err := s.SetBalance(ctx, user.Id, decimal.NewFromInt(-5), "bad"); !IsValidationError(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
	if _, err := s.SetBalance(ctx, 404, decimal.NewFromInt(5), "missing"); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestReconcileAll(t *testing.T) {
	s, cleanup := setupTestLedger(t)
	defer cleanup()

	ctx := context.Background()
	referrer := registerTestUser(t, s, 1, "Referrer", nil)
	worker := registerTestUser(t, s, 2, "Worker", &referrer.Id)
	if _, err := s.CreditWork(ctx, worker.Id, decimal.NewFromInt(700), "Shift"); err != nil {
		t.Fatalf("CreditWork failed: %v", err)
	}
	if _, err := s.SubmitWithdrawal(ctx, SubmitWithdrawalParams{UserId: worker.Id, Tier: models.TierDelayed, Bank: "sber", Destination: "+7000", Amount: decimal.NewFromInt(300)}); err != nil {
		t.Fatalf("SubmitWithdrawal failed: %v", err)
	}
	if _, err := s.SetBalance(ctx, referrer.Id, decimal.NewFromInt(5), "fix"); err != nil {
		t.Fatalf("SetBalance failed: %v", err)
	}

	report, err := s.ReconcileAll(ctx)
	if err != nil {
		t.Fatalf("ReconcileAll failed: %v", err)
	}
	if report.Checked != 2 || len(report.Mismatched) != 0 {
		t.Errorf("Expected 2 clean accounts, got %+v", report)
	}
}
