package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"referral-ledger-go/internal/models"
	"referral-ledger-go/internal/store"

	"go.uber.org/zap"
)

// RegisterUserParams captures a new account and, optionally, who invited it.
type RegisterUserParams struct {
	ChatId      int64
	DisplayName string
	Phone       string
	ReferrerId  *int64
}

// RegisterUser creates the account and records the referral edge. A referral
// that cannot be recorded does not undo the registration; the user is
// returned together with the referral error.
func (s *LedgerService) RegisterUser(ctx context.Context, params RegisterUserParams) (*models.User, error) {
	name := strings.TrimSpace(params.DisplayName)
	if name == "" {
		return nil, newValidationError("name", "display name is required")
	}

	user, err := s.store.CreateUser(ctx, store.CreateUserParams{ChatId: params.ChatId, DisplayName: name, Phone: strings.TrimSpace(params.Phone)})
	if err != nil {
		return nil, err
	}

	if params.ReferrerId == nil {
		return user, nil
	}

	if _, err := s.RegisterReferral(ctx, *params.ReferrerId, user.Id); err != nil {
		return user, fmt.Errorf("user created but referral not recorded: %w", err)
	}
	return s.store.GetUserById(ctx, user.Id)
}

// GetOrRegisterUser returns the account linked to chatId, creating it on first contact.
func (s *LedgerService) GetOrRegisterUser(ctx context.Context, params RegisterUserParams) (*models.User, bool, error) {
	user, err := s.store.GetUserByChatId(ctx, params.ChatId)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		return nil, false, err
	}

	user, err = s.RegisterUser(ctx, params)
	if user != nil && err != nil {
		zap.L().Warn("Registered user without referral", zap.Int64("user_id", user.Id), zap.Error(err))
		return user, true, nil
	}
	if errors.Is(err, store.ErrDuplicateUser) {
		// Lost a registration race with another update from the same chat
		user, err = s.store.GetUserByChatId(ctx, params.ChatId)
		return user, false, err
	}
	return user, err == nil, err
}

func (s *LedgerService) GetUser(ctx context.Context, userId int64) (*models.User, error) {
	return s.store.GetUserById(ctx, userId)
}

func (s *LedgerService) GetUserByChatId(ctx context.Context, chatId int64) (*models.User, error) {
	return s.store.GetUserByChatId(ctx, chatId)
}

func (s *LedgerService) GetUsers(ctx context.Context) ([]models.User, error) {
	return s.store.GetUsers(ctx)
}

// Touch records activity for the user.
func (s *LedgerService) Touch(ctx context.Context, userId int64) error {
	return s.store.TouchUser(ctx, userId)
}

// UpdatePhone stores a phone number the user shared after registration.
func (s *LedgerService) UpdatePhone(ctx context.Context, userId int64, phone string) (*models.User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, newValidationError("phone", "phone is required")
	}
	if err := s.store.UpdateUserPhone(ctx, userId, phone); err != nil {
		return nil, err
	}

	zap.L().Info("Phone updated", zap.Int64("user_id", userId))
	return s.store.GetUserById(ctx, userId)
}

func (s *LedgerService) IsBlacklisted(ctx context.Context, userId int64) (bool, error) {
	return s.store.IsBlacklisted(ctx, userId)
}
