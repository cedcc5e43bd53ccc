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
	"strings"

	"referral-ledger-go/internal/metrics"
	"referral-ledger-go/internal/models"
	"referral-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SubmitWithdrawalParams is the completed withdrawal form.
type SubmitWithdrawalParams struct {
	UserId      int64
	Tier        models.WithdrawalTier
	Bank        string
	Destination string
	Amount      decimal.Decimal
}

// ValidateWithdrawalAmount parses raw and enforces the configured minimum.
func (s *LedgerService) ValidateWithdrawalAmount(raw string) (decimal.Decimal, error) {
	amount, err := ParseAmount(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if amount.LessThan(s.cfg.MinWithdrawal) {
		return decimal.Zero, newValidationError("amount", "minimum withdrawal is %s", s.cfg.MinWithdrawal.String())
	}
	return amount, nil
}

// InstantFee is the informational fee for amount at the configured instant rate.
func (s *LedgerService) InstantFee(amount decimal.Decimal) decimal.Decimal {
	return InstantFee(amount, s.cfg.InstantFeeRate)
}

// SubmitWithdrawal debits the amount and records a pending request atomically.
// The instant fee is recorded on the request but not debited.
func (s *LedgerService) SubmitWithdrawal(ctx context.Context, params SubmitWithdrawalParams) (*models.WithdrawalRequest, error) {
	if !params.Tier.Valid() {
		return nil, newValidationError("tier", "unknown tier %q", params.Tier)
	}
	bank := strings.TrimSpace(params.Bank)
	if bank == "" {
		return nil, newValidationError("bank", "bank is required")
	}
	destination := strings.TrimSpace(params.Destination)
	if destination == "" {
		return nil, newValidationError("destination", "destination is required")
	}
	if params.Amount.LessThan(s.cfg.MinWithdrawal) {
		return nil, newValidationError("amount", "minimum withdrawal is %s", s.cfg.MinWithdrawal.String())
	}

	fee := decimal.Zero
	if params.Tier == models.TierInstant {
		fee = s.InstantFee(params.Amount)
	}

	var request *models.WithdrawalRequest
	err := s.withUserLock(ctx, params.UserId, "submit_withdrawal", func() error {
		var err error
		request, err = s.store.CreateWithdrawal(ctx, store.CreateWithdrawalParams{
			UserId:      params.UserId,
			Amount:      params.Amount,
			Fee:         fee,
			Tier:        params.Tier,
			Bank:        bank,
			Destination: destination,
			Description: fmt.Sprintf("%s: %s", bank, destination),
			Reference:   s.newReference(),
		})
		return err
	})
	if err != nil {
		metrics.WithdrawalsTotal.WithLabelValues(string(params.Tier), errorClass(err)).Inc()
		recordFailure("submit_withdrawal", params.UserId, err)
		return nil, err
	}

	metrics.WithdrawalsTotal.WithLabelValues(string(params.Tier), "submitted").Inc()
	zap.L().Info("Withdrawal submitted",
		zap.Int64("withdrawal_id", request.Id),
		zap.Int64("user_id", params.UserId),
		zap.String("tier", string(params.Tier)),
		zap.String("amount", params.Amount.String()),
		zap.String("fee", fee.String()))
	return request, nil
}

// ListPending partitions pending requests into urgent (instant) and normal, each oldest first.
func (s *LedgerService) ListPending(ctx context.Context) (models.PendingWithdrawals, error) {
	requests, err := s.store.ListWithdrawalsByStatus(ctx, models.StatusPending)
	if err != nil {
		return models.PendingWithdrawals{}, err
	}

	var pending models.PendingWithdrawals
	for _, r := range requests {
		if r.Tier.Urgent() {
			pending.Urgent = append(pending.Urgent, r)
		} else {
			pending.Normal = append(pending.Normal, r)
		}
	}
	return pending, nil
}

func (s *LedgerService) GetWithdrawal(ctx context.Context, id int64) (*models.WithdrawalRequest, error) {
	return s.store.GetWithdrawal(ctx, id)
}

// Approve moves a pending request to approved. Money already left the balance at submission.
func (s *LedgerService) Approve(ctx context.Context, requestId int64) (*models.WithdrawalRequest, error) {
	return s.transition(ctx, requestId, models.StatusApproved)
}

// Cancel moves a pending request to cancelled. The debited amount is not returned.
func (s *LedgerService) Cancel(ctx context.Context, requestId int64) (*models.WithdrawalRequest, error) {
	return s.transition(ctx, requestId, models.StatusCancelled)
}

func (s *LedgerService) transition(ctx context.Context, requestId int64, to models.WithdrawalStatus) (*models.WithdrawalRequest, error) {
	request, err := s.store.TransitionWithdrawal(ctx, requestId, to)
	if err != nil {
		metrics.TransitionsTotal.WithLabelValues(string(to), errorClass(err)).Inc()
		metrics.LedgerErrorsTotal.WithLabelValues("transition", errorClass(err)).Inc()
		zap.L().Warn("Withdrawal transition rejected",
			zap.Int64("withdrawal_id", requestId),
			zap.String("status", string(to)),
			zap.Error(err))
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(string(to), "ok").Inc()
	zap.L().Info("Withdrawal transitioned",
		zap.Int64("withdrawal_id", requestId),
		zap.Int64("user_id", request.UserId),
		zap.String("status", string(to)))
	return request, nil
}

// GetWithdrawalHistory returns one page of a user's withdrawal requests, newest first.
func (s *LedgerService) GetWithdrawalHistory(ctx context.Context, userId int64, page, pageSize int) (*models.WithdrawalPage, error) {
	total, err := s.store.CountUserWithdrawals(ctx, userId)
	if err != nil {
		return nil, err
	}

	info := Paginate(total, page, pageSize)
	result := &models.WithdrawalPage{PageInfo: info}
	if total == 0 {
		return result, nil
	}

	result.Items, err = s.store.GetUserWithdrawals(ctx, userId, info.PageSize, info.Start)
	if err != nil {
		return nil, err
	}
	return result, nil
}
