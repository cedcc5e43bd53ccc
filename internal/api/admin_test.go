package api

import (
	"context"
	"errors"
	"testing"

	"referral-ledger-go/internal/models"
	"referral-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"150", "150", false},
		{" 1000.50 ", "1000.5", false},
		{"99,9", "99.9", false},
		{"1 000", "1000", false},
		{"1 000,25", "1000.25", false},
		{"", "", true},
		{"abc", "", true},
		{"0", "", true},
		{"-10", "", true},
		{"1,000.5", "", true},
		{"100.005", "", true},
		{"1e3", "", true},
		{"1e20000000", "", true},
		{"1E-2", "", true},
		{"0x10", "", true},
		{"1234567890123456", "", true},
		{"123456789012345", "123456789012345", false},
		{"+5", "", true},
		{".5", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				if !IsValidationError(err) {
					t.Errorf("Expected validation error for %q, got %v", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) failed: %v", tt.input, err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got.String(), tt.want)
			}
		})
	}
}

func TestValidateWithdrawalAmount(t *testing.T) {
	s := NewLedgerService(nil, testLedgerConfig())

	if _, err := s.ValidateWithdrawalAmount("99.99"); !IsValidationError(err) {
		t.Errorf("Expected minimum to be enforced, got %v", err)
	}
	amount, err := s.ValidateWithdrawalAmount("100")
	if err != nil {
		t.Fatalf("ValidateWithdrawalAmount failed: %v", err)
	}
	if !amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected 100, got %s", amount.String())
	}
}

func TestParseBalanceChange(t *testing.T) {
	tests := []struct {
		input   string
		userId  int64
		balance string
		wantErr bool
	}{
		{"12 1000", 12, "1000", false},
		{"12 0", 12, "0", false},
		{"  7   250,5 ", 7, "250.5", false},
		{"12", 0, "", true},
		{"x 100", 0, "", true},
		{"12 -1", 0, "", true},
		{"12 100 extra", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			userId, balance, err := ParseBalanceChange(tt.input)
			if tt.wantErr {
				if !IsValidationError(err) {
					t.Errorf("Expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBalanceChange failed: %v", err)
			}
			if userId != tt.userId || !balance.Equal(decimal.RequireFromString(tt.balance)) {
				t.Errorf("Got (%d, %s), want (%d, %s)", userId, balance.String(), tt.userId, tt.balance)
			}
		})
	}
}

func TestParseCreditRows(t *testing.T) {
	input := `
# payroll
1 500 Night shift
2;250,5
bad line
3 -4
4	100
`
	rows, errs := ParseCreditRows(input)
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if len(errs) != 2 {
		t.Fatalf("Expected 2 errors, got %d: %v", len(errs), errs)
	}

	if rows[0].UserId != 1 || !rows[0].Amount.Equal(decimal.NewFromInt(500)) || rows[0].Description != "Night shift" {
		t.Errorf("Unexpected first row %+v", rows[0])
	}
	if rows[1].UserId != 2 || !rows[1].Amount.Equal(decimal.RequireFromString("250.5")) {
		t.Errorf("Unexpected second row %+v", rows[1])
	}
	if rows[2].UserId != 4 || rows[2].Description != "" {
		t.Errorf("Unexpected third row %+v", rows[2])
	}
	for _, err := range errs {
		if !IsValidationError(err) {
			t.Errorf("Expected validation error, got %v", err)
		}
	}
}

func TestBulkCredit_PartialSuccess(t *testing.T) {
	s, cleanup := setupTestLedger(t)
	defer cleanup()

	ctx := context.Background()
	referrer := registerTestUser(t, s, 1, "Referrer", nil)
	worker := registerTestUser(t, s, 2, "Worker", &referrer.Id)
	banned := registerTestUser(t, s, 3, "Banned", nil)
	if err := s.Blacklist(ctx, banned.Id, "fraud"); err != nil {
		t.Fatalf("Blacklist failed: %v", err)
	}

	result := s.BulkCredit(ctx, []models.CreditRow{
		{UserId: worker.Id, Amount: decimal.NewFromInt(1000)},
		{UserId: 404, Amount: decimal.NewFromInt(10)},
		{UserId: banned.Id, Amount: decimal.NewFromInt(10)},
		{UserId: referrer.Id, Amount: decimal.NewFromInt(20), Description: "Bonus"},
	})

	if result.Credited != 2 || result.Skipped != 2 || result.Failed != 0 {
		t.Errorf("Expected 2 credited and 2 skipped, got %+v", result)
	}
	if !result.Total.Equal(decimal.NewFromInt(1020)) {
		t.Errorf("Expected total 1020, got %s", result.Total.String())
	}
	if !result.Rows[0].Commission.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected commission 100 on first row, got %s", result.Rows[0].Commission.String())
	}
	if result.Rows[1].Error == "" || result.Rows[2].Error == "" {
		t.Errorf("Expected skipped rows to carry a reason")
	}

	requireBalance(t, s, worker.Id, "1000")
	requireBalance(t, s, referrer.Id, "120")
	requireBalance(t, s, banned.Id, "0")
}

func TestDeleteUserAndBlacklistToggle(t *testing.T) {
	s, cleanup := setupTestLedger(t)
	defer cleanup()

	ctx := context.Background()
	user := registerTestUser(t, s, 1, "Temp", nil)

	on, err := s.ToggleBlacklist(ctx, user.Id, "")
	if err != nil || !on {
		t.Fatalf("Expected blacklist on, got %v, %v", on, err)
	}
	on, err = s.ToggleBlacklist(ctx, user.Id, "")
	if err != nil || on {
		t.Fatalf("Expected blacklist off, got %v, %v", on, err)
	}

	if err := s.DeleteUser(ctx, user.Id); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if err := s.DeleteUser(ctx, user.Id); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
	if _, err := s.ToggleBlacklist(ctx, user.Id, ""); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound for deleted user, got %v", err)
	}
}
