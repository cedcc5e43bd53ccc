package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"referral-ledger-go/internal/models"
	"referral-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

func setupTestDb(t *testing.T) (*Service, func()) {
	t.Helper()

	cfg := models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "ledger_test.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		PingTimeout:  5 * time.Second,
		BusyTimeout:  5 * time.Second,
	}

	service, err := NewService(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	cleanup := func() {
		service.Close()
	}

	return service, cleanup
}

func createTestUser(t *testing.T, service *Service, chatId int64, name string) *models.User {
	t.Helper()

	user, err := service.CreateUser(context.Background(), store.CreateUserParams{ChatId: chatId, DisplayName: name, Phone: "+70000000000"})
	if err != nil {
		t.Fatalf("Failed to create user %s: %v", name, err)
	}
	return user
}

func fundUser(t *testing.T, service *Service, userId int64, amount string) {
	t.Helper()

	_, err := service.Credit(context.Background(), store.CreditParams{
		UserId:      userId,
		Amount:      decimal.RequireFromString(amount),
		Kind:        models.CreditWork,
		Description: "test funding",
	})
	if err != nil {
		t.Fatalf("Failed to fund user %d: %v", userId, err)
	}
}

func TestNewService_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  models.DatabaseConfig
	}{
		{"empty path", models.DatabaseConfig{MaxOpenConns: 1, PingTimeout: time.Second}},
		{"zero open conns", models.DatabaseConfig{Path: "x.db", PingTimeout: time.Second}},
		{"negative idle conns", models.DatabaseConfig{Path: "x.db", MaxOpenConns: 1, MaxIdleConns: -1, PingTimeout: time.Second}},
		{"zero ping timeout", models.DatabaseConfig{Path: "x.db", MaxOpenConns: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewService(context.Background(), tt.cfg); err == nil {
				t.Errorf("Expected error for %s", tt.name)
			}
		})
	}
}

func TestCreateUser(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, 1001, "Alice")

	if user.Id == 0 {
		t.Errorf("Expected generated user id")
	}
	if !user.AccountBalance.IsZero() {
		t.Errorf("Expected zero balance, got %s", user.AccountBalance.String())
	}
	if user.ReferrerId != nil {
		t.Errorf("Expected no referrer")
	}

	byChat, err := service.GetUserByChatId(ctx, 1001)
	if err != nil {
		t.Fatalf("GetUserByChatId failed: %v", err)
	}
	if byChat.Id != user.Id {
		t.Errorf("Expected user %d, got %d", user.Id, byChat.Id)
	}

	_, err = service.CreateUser(ctx, store.CreateUserParams{ChatId: 1001, DisplayName: "Alice again"})
	if !errors.Is(err, store.ErrDuplicateUser) {
		t.Errorf("Expected ErrDuplicateUser, got %v", err)
	}
}

func TestGetUserById_NotFound(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.GetUserById(context.Background(), 42)
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateUserPhone(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, 1001, "Alice")

	if err := service.UpdateUserPhone(ctx, user.Id, "+79991112233"); err != nil {
		t.Fatalf("UpdateUserPhone failed: %v", err)
	}
	updated, err := service.GetUserById(ctx, user.Id)
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if updated.Phone != "+79991112233" {
		t.Errorf("Expected updated phone, got %q", updated.Phone)
	}
	if updated.Version != user.Version {
		t.Errorf("Expected balance version untouched at %d, got %d", user.Version, updated.Version)
	}

	if err := service.UpdateUserPhone(ctx, 404, "+7"); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestDeleteUser_Cascades(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	referrer := createTestUser(t, service, 1, "Referrer")
	user := createTestUser(t, service, 2, "User")
	if _, err := service.CreateReferral(ctx, referrer.Id, user.Id); err != nil {
		t.Fatalf("CreateReferral failed: %v", err)
	}
	fundUser(t, service, user.Id, "500")
	_, err := service.CreateWithdrawal(ctx, store.CreateWithdrawalParams{
		UserId: user.Id, Amount: decimal.NewFromInt(200), Tier: models.TierDelayed,
		Bank: "sber", Destination: "+7000", Description: "sber +7000", Reference: "ref-1",
	})
	if err != nil {
		t.Fatalf("CreateWithdrawal failed: %v", err)
	}

	if err := service.DeleteUser(ctx, user.Id); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	if _, err := service.GetUserById(ctx, user.Id); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected deleted user to be gone, got %v", err)
	}
	pending, err := service.ListWithdrawalsByStatus(ctx, models.StatusPending)
	if err != nil {
		t.Fatalf("ListWithdrawalsByStatus failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("Expected withdrawals to cascade, got %d", len(pending))
	}
	referred, err := service.GetReferredUsers(ctx, referrer.Id)
	if err != nil {
		t.Fatalf("GetReferredUsers failed: %v", err)
	}
	if len(referred) != 0 {
		t.Errorf("Expected referral edge to cascade, got %d", len(referred))
	}

	if err := service.DeleteUser(ctx, user.Id); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound on second delete, got %v", err)
	}
}

func TestBlacklist(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, 7, "Mallory")

	if err := service.AddToBlacklist(ctx, user.Id, "fraud"); err != nil {
		t.Fatalf("AddToBlacklist failed: %v", err)
	}
	// Adding twice only updates the reason
	if err := service.AddToBlacklist(ctx, user.Id, "fraud again"); err != nil {
		t.Fatalf("AddToBlacklist (repeat) failed: %v", err)
	}

	blacklisted, err := service.IsBlacklisted(ctx, user.Id)
	if err != nil {
		t.Fatalf("IsBlacklisted failed: %v", err)
	}
	if !blacklisted {
		t.Errorf("Expected user to be blacklisted")
	}

	if err := service.RemoveFromBlacklist(ctx, user.Id); err != nil {
		t.Fatalf("RemoveFromBlacklist failed: %v", err)
	}
	blacklisted, err = service.IsBlacklisted(ctx, user.Id)
	if err != nil {
		t.Fatalf("IsBlacklisted failed: %v", err)
	}
	if blacklisted {
		t.Errorf("Expected user to be removed from blacklist")
	}

	if err := service.AddToBlacklist(ctx, 999, ""); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound for unknown user, got %v", err)
	}
}
