/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"context"
	"fmt"

	"referral-ledger-go/internal/metrics"
	"referral-ledger-go/internal/models"
	"referral-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Credit increases the balance and the earnings counter for kind, writing a receipt.
func (s *LedgerService) Credit(ctx context.Context, userId int64, amount decimal.Decimal, kind models.CreditKind, description string) (*models.ReceiptRecord, error) {
	if !amount.IsPositive() {
		return nil, newValidationError("amount", "credit must be greater than zero")
	}

	var receipt *models.ReceiptRecord
	err := s.withUserLock(ctx, userId, "credit", func() error {
		var err error
		receipt, err = s.store.Credit(ctx, store.CreditParams{
			UserId:      userId,
			Amount:      amount,
			Kind:        kind,
			Description: description,
		})
		return err
	})
	if err != nil {
		recordFailure("credit", userId, err)
		return nil, err
	}

	metrics.CreditsTotal.WithLabelValues(string(kind)).Inc()
	return receipt, nil
}

// Debit decreases the balance, failing with store.ErrInsufficientFunds when it would go negative.
func (s *LedgerService) Debit(ctx context.Context, userId int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, newValidationError("amount", "debit must be greater than zero")
	}

	var balance decimal.Decimal
	err := s.withUserLock(ctx, userId, "debit", func() error {
		var err error
		balance, err = s.store.Debit(ctx, store.DebitParams{UserId: userId, Amount: amount, Reference: s.newReference()})
		return err
	})
	if err != nil {
		recordFailure("debit", userId, err)
		return decimal.Zero, err
	}
	return balance, nil
}

// PropagateReferralCommission credits the referrer of creditedUserId with its
// commission on baseAmount. It returns a nil receipt, and no error, when there
// is no referrer, the referrer is blacklisted, or the commission rounds to zero.
func (s *LedgerService) PropagateReferralCommission(ctx context.Context, creditedUserId int64, baseAmount decimal.Decimal) (*models.ReceiptRecord, error) {
	credited, err := s.store.GetUserById(ctx, creditedUserId)
	if err != nil {
		recordFailure("propagate_commission", creditedUserId, err)
		return nil, err
	}

	referrer, err := s.store.GetReferrer(ctx, creditedUserId)
	if err != nil {
		recordFailure("propagate_commission", creditedUserId, err)
		return nil, err
	}
	if referrer == nil {
		return nil, nil
	}

	blacklisted, err := s.store.IsBlacklisted(ctx, referrer.Id)
	if err != nil {
		recordFailure("propagate_commission", referrer.Id, err)
		return nil, err
	}
	if blacklisted {
		zap.L().Info("Skipping commission for blacklisted referrer",
			zap.Int64("referrer_id", referrer.Id),
			zap.Int64("source_user_id", creditedUserId))
		return nil, nil
	}

	commission := s.commission.Commission(baseAmount)
	if commission.IsZero() {
		return nil, nil
	}

	description := fmt.Sprintf("Referral commission from %s (#%d)", credited.DisplayName, credited.Id)
	receipt, err := s.Credit(ctx, referrer.Id, commission, models.CreditReferral, description)
	if err != nil {
		return nil, err
	}

	metrics.CommissionsTotal.Inc()
	zap.L().Info("Referral commission paid",
		zap.Int64("referrer_id", referrer.Id),
		zap.Int64("source_user_id", creditedUserId),
		zap.String("base_amount", baseAmount.String()),
		zap.String("commission", commission.String()))
	return receipt, nil
}

// CreditWork credits a work payment and pays the referrer's commission. When the
// commission fails the work receipt is still returned alongside the error.
func (s *LedgerService) CreditWork(ctx context.Context, userId int64, amount decimal.Decimal, description string) (*models.ReceiptRecord, error) {
	receipt, _, err := s.creditWork(ctx, userId, amount, description)
	return receipt, err
}

func (s *LedgerService) creditWork(ctx context.Context, userId int64, amount decimal.Decimal, description string) (*models.ReceiptRecord, *models.ReceiptRecord, error) {
	receipt, err := s.Credit(ctx, userId, amount, models.CreditWork, description)
	if err != nil {
		return nil, nil, err
	}

	commission, err := s.PropagateReferralCommission(ctx, userId, amount)
	if err != nil {
		return receipt, nil, fmt.Errorf("work credited but referral commission failed: %w", err)
	}
	return receipt, commission, nil
}

// SetBalance overwrites a balance. It is an administrative correction and skips debit validation.
func (s *LedgerService) SetBalance(ctx context.Context, userId int64, newBalance decimal.Decimal, reason string) (*models.User, error) {
	if newBalance.IsNegative() {
		return nil, newValidationError("balance", "cannot be negative")
	}

	var user *models.User
	err := s.withUserLock(ctx, userId, "set_balance", func() error {
		var err error
		user, err = s.store.SetBalance(ctx, store.SetBalanceParams{UserId: userId, NewBalance: newBalance, Reason: reason})
		return err
	})
	if err != nil {
		recordFailure("set_balance", userId, err)
		return nil, err
	}
	return user, nil
}
