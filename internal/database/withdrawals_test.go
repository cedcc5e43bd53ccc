package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"referral-ledger-go/internal/models"
	"referral-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

func withdrawalParams(userId int64, amount int64, tier models.WithdrawalTier, ref string) store.CreateWithdrawalParams {
	return store.CreateWithdrawalParams{
		UserId:      userId,
		Amount:      decimal.NewFromInt(amount),
		Tier:        tier,
		Bank:        "tinkoff",
		Destination: "+79990001122",
		Description: "tinkoff +79990001122",
		Reference:   ref,
	}
}

func TestCreateWithdrawal_DebitsBalance(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, 1, "Payee")
	fundUser(t, service, user.Id, "200")

	w, err := service.CreateWithdrawal(ctx, withdrawalParams(user.Id, 150, models.TierDelayed, "ref-1"))
	if err != nil {
		t.Fatalf("CreateWithdrawal failed: %v", err)
	}
	if w.Status != models.StatusPending {
		t.Errorf("Expected pending, got %s", w.Status)
	}

	updated, err := service.GetUserById(ctx, user.Id)
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if !updated.AccountBalance.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected balance 50, got %s", updated.AccountBalance.String())
	}

	count, err := service.CountUserWithdrawals(ctx, user.Id)
	if err != nil {
		t.Fatalf("CountUserWithdrawals failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 withdrawal, got %d", count)
	}

	stored, err := service.GetWithdrawal(ctx, w.Id)
	if err != nil {
		t.Fatalf("GetWithdrawal failed: %v", err)
	}
	if !stored.Amount.Equal(decimal.NewFromInt(150)) || stored.Tier != models.TierDelayed {
		t.Errorf("Unexpected stored request: %+v", stored)
	}
}

func TestCreateWithdrawal_InsufficientFundsWritesNothing(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, 1, "Short")
	fundUser(t, service, user.Id, "120")

	_, err := service.CreateWithdrawal(ctx, withdrawalParams(user.Id, 150, models.TierInstant, "ref-1"))
	if !errors.Is(err, store.ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}

	count, err := service.CountUserWithdrawals(ctx, user.Id)
	if err != nil {
		t.Fatalf("CountUserWithdrawals failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected no withdrawal to be recorded, got %d", count)
	}
}

func TestCreateWithdrawal_RollsBackDebitOnInsertFailure(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, 1, "Rollback")
	fundUser(t, service, user.Id, "500")

	if _, err := service.CreateWithdrawal(ctx, withdrawalParams(user.Id, 100, models.TierDelayed, "dup")); err != nil {
		t.Fatalf("CreateWithdrawal failed: %v", err)
	}
	// The reference column is unique, so the second insert fails after the debit.
	_, err := service.CreateWithdrawal(ctx, withdrawalParams(user.Id, 100, models.TierDelayed, "dup"))
	if !errors.Is(err, store.ErrStoreUnavailable) {
		t.Fatalf("Expected ErrStoreUnavailable, got %v", err)
	}

	updated, err := service.GetUserById(ctx, user.Id)
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if !updated.AccountBalance.Equal(decimal.NewFromInt(400)) {
		t.Errorf("Expected debit to roll back to 400, got %s", updated.AccountBalance.String())
	}
	if err := service.ReconcileBalance(ctx, user.Id); err != nil {
		t.Errorf("ReconcileBalance failed: %v", err)
	}
}

func TestTransitionWithdrawal(t *testing.T) {
	tests := []struct {
		name string
		to   models.WithdrawalStatus
	}{
		{"approve", models.StatusApproved},
		{"cancel", models.StatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, cleanup := setupTestDb(t)
			defer cleanup()

			ctx := context.Background()
			user := createTestUser(t, service, 1, "Reviewed")
			fundUser(t, service, user.Id, "1000")
			w, err := service.CreateWithdrawal(ctx, withdrawalParams(user.Id, 300, models.TierInstant, "ref"))
			if err != nil {
				t.Fatalf("CreateWithdrawal failed: %v", err)
			}

			updated, err := service.TransitionWithdrawal(ctx, w.Id, tt.to)
			if err != nil {
				t.Fatalf("TransitionWithdrawal failed: %v", err)
			}
			if updated.Status != tt.to {
				t.Errorf("Expected status %s, got %s", tt.to, updated.Status)
			}

			// Second transition of either kind is rejected and leaves status unchanged
			for _, again := range []models.WithdrawalStatus{models.StatusApproved, models.StatusCancelled} {
				if _, err := service.TransitionWithdrawal(ctx, w.Id, again); !errors.Is(err, store.ErrInvalidTransition) {
					t.Errorf("Expected ErrInvalidTransition, got %v", err)
				}
			}
			stored, err := service.GetWithdrawal(ctx, w.Id)
			if err != nil {
				t.Fatalf("GetWithdrawal failed: %v", err)
			}
			if stored.Status != tt.to {
				t.Errorf("Expected status to stay %s, got %s", tt.to, stored.Status)
			}

			// Approval and cancellation never move money
			u, err := service.GetUserById(ctx, user.Id)
			if err != nil {
				t.Fatalf("GetUserById failed: %v", err)
			}
			if !u.AccountBalance.Equal(decimal.NewFromInt(700)) {
				t.Errorf("Expected balance 700, got %s", u.AccountBalance.String())
			}
		})
	}
}

func TestTransitionWithdrawal_Errors(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := service.TransitionWithdrawal(ctx, 12345, models.StatusApproved); !errors.Is(err, store.ErrWithdrawalNotFound) {
		t.Errorf("Expected ErrWithdrawalNotFound, got %v", err)
	}
	if _, err := service.TransitionWithdrawal(ctx, 1, models.StatusPending); !errors.Is(err, store.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition for pending target, got %v", err)
	}
}

func TestListWithdrawalsByStatus_OldestFirst(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, 1, "Queue")
	fundUser(t, service, user.Id, "10000")

	var ids []int64
	for i := 0; i < 4; i++ {
		w, err := service.CreateWithdrawal(ctx, withdrawalParams(user.Id, 100, models.TierDelayed, fmt.Sprintf("ref-%d", i)))
		if err != nil {
			t.Fatalf("CreateWithdrawal failed: %v", err)
		}
		ids = append(ids, w.Id)
	}
	if _, err := service.TransitionWithdrawal(ctx, ids[1], models.StatusApproved); err != nil {
		t.Fatalf("TransitionWithdrawal failed: %v", err)
	}

	pending, err := service.ListWithdrawalsByStatus(ctx, models.StatusPending)
	if err != nil {
		t.Fatalf("ListWithdrawalsByStatus failed: %v", err)
	}
	want := []int64{ids[0], ids[2], ids[3]}
	if len(pending) != len(want) {
		t.Fatalf("Expected %d pending, got %d", len(want), len(pending))
	}
	for i, w := range pending {
		if w.Id != want[i] {
			t.Errorf("Position %d: expected request %d, got %d", i, want[i], w.Id)
		}
	}
}
