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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"referral-ledger-go/internal/models"
	"referral-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Journal entry types
const (
	entryCreditWork     = "credit_work"
	entryCreditReferral = "credit_referral"
	entryDebit          = "debit"
	entryWithdrawal     = "withdrawal"
	entryAdjustment     = "adjustment"
)

// balanceChange describes one mutation of a user's balance inside a transaction.
type balanceChange struct {
	userId    int64
	delta     decimal.Decimal
	target    *decimal.Decimal // absolute override; delta is derived from it
	earnings  models.CreditKind
	entryType string
	reference string
}

// applyBalanceChange reads the user row, writes the new balance guarded by the
// row version and appends a journal entry. Debits that would take the balance
// below zero fail with store.ErrInsufficientFunds and write nothing.
func (s *Service) applyBalanceChange(ctx context.Context, tx *sql.Tx, change balanceChange) (before, after decimal.Decimal, err error) {
	var balance, work, referral dbDecimal
	var version int64
	err = tx.QueryRowContext(ctx, queryGetUserBalance, change.userId).Scan(&balance, &work, &referral, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: id %d", store.ErrUserNotFound, change.userId)
	}
	if err != nil {
		return decimal.Zero, decimal.Zero, unavailable("failed to get current balance", err)
	}

	before = balance.Decimal
	delta := change.delta
	if change.target != nil {
		delta = change.target.Sub(before)
	}
	after = before.Add(delta)
	if change.target == nil && after.IsNegative() {
		return before, before, fmt.Errorf("%w: balance %s, requested %s", store.ErrInsufficientFunds, before.String(), delta.Neg().String())
	}

	newWork, newReferral := work.Decimal, referral.Decimal
	switch change.earnings {
	case models.CreditWork:
		newWork = newWork.Add(delta)
	case models.CreditReferral:
		newReferral = newReferral.Add(delta)
	}

	result, err := tx.ExecContext(ctx, queryUpdateUserBalance,
		dec(after), dec(newWork), dec(newReferral), change.userId, version)
	if err != nil {
		return decimal.Zero, decimal.Zero, unavailable("failed to update balance", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return decimal.Zero, decimal.Zero, unavailable("failed to check rows affected", err)
	}
	if rowsAffected == 0 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("balance update failed - %w", store.ErrConcurrentModification)
	}

	_, err = tx.ExecContext(ctx, queryInsertJournalEntry,
		uuid.New().String(), change.userId, change.entryType, dec(delta), dec(after), change.reference, s.timestamp())
	if err != nil {
		return decimal.Zero, decimal.Zero, unavailable("failed to add journal entry", err)
	}

	return before, after, nil
}

// Credit adds Amount to the balance and the matching earnings counter and writes a receipt.
func (s *Service) Credit(ctx context.Context, params store.CreditParams) (*models.ReceiptRecord, error) {
	if !params.Amount.IsPositive() {
		return nil, fmt.Errorf("credit amount must be positive, got %s", params.Amount.String())
	}

	entryType := entryCreditWork
	switch params.Kind {
	case models.CreditWork:
	case models.CreditReferral:
		entryType = entryCreditReferral
	default:
		return nil, fmt.Errorf("unknown credit kind %q", params.Kind)
	}

	zap.L().Info("Processing credit",
		zap.Int64("user_id", params.UserId),
		zap.String("kind", string(params.Kind)),
		zap.String("amount", params.Amount.String()))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("failed to begin transaction", err)
	}
	defer tx.Rollback()

	now := s.now()
	receipt := &models.ReceiptRecord{
		Id:          uuid.New().String(),
		UserId:      params.UserId,
		Kind:        params.Kind,
		Amount:      params.Amount,
		Description: params.Description,
		CreatedAt:   now,
	}

	before, after, err := s.applyBalanceChange(ctx, tx, balanceChange{
		userId:    params.UserId,
		delta:     params.Amount,
		earnings:  params.Kind,
		entryType: entryType,
		reference: receipt.Id,
	})
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, queryInsertReceipt,
		receipt.Id, receipt.UserId, string(receipt.Kind), dec(receipt.Amount), receipt.Description, now.Format(timeLayout))
	if err != nil {
		return nil, unavailable("failed to insert receipt", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, unavailable("failed to commit transaction", err)
	}

	zap.L().Info("Credit processed successfully",
		zap.String("receipt_id", receipt.Id),
		zap.Int64("user_id", params.UserId),
		zap.String("old_balance", before.String()),
		zap.String("new_balance", after.String()))

	return receipt, nil
}

// Debit subtracts Amount from the balance and returns the new balance.
func (s *Service) Debit(ctx context.Context, params store.DebitParams) (decimal.Decimal, error) {
	if !params.Amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("debit amount must be positive, got %s", params.Amount.String())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, unavailable("failed to begin transaction", err)
	}
	defer tx.Rollback()

	before, after, err := s.applyBalanceChange(ctx, tx, balanceChange{
		userId:    params.UserId,
		delta:     params.Amount.Neg(),
		entryType: entryDebit,
		reference: params.Reference,
	})
	if err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, unavailable("failed to commit transaction", err)
	}

	zap.L().Info("Debit processed successfully",
		zap.Int64("user_id", params.UserId),
		zap.String("old_balance", before.String()),
		zap.String("new_balance", after.String()))
	return after, nil
}

// SetBalance overwrites the balance without touching earnings counters.
func (s *Service) SetBalance(ctx context.Context, params store.SetBalanceParams) (*models.User, error) {
	if params.NewBalance.IsNegative() {
		return nil, fmt.Errorf("balance cannot be negative, got %s", params.NewBalance.String())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("failed to begin transaction", err)
	}
	defer tx.Rollback()

	target := params.NewBalance
	before, _, err := s.applyBalanceChange(ctx, tx, balanceChange{
		userId:    params.UserId,
		target:    &target,
		entryType: entryAdjustment,
		reference: params.Reason,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, unavailable("failed to commit transaction", err)
	}

	zap.L().Info("Balance overridden",
		zap.Int64("user_id", params.UserId),
		zap.String("old_balance", before.String()),
		zap.String("new_balance", target.String()),
		zap.String("reason", params.Reason))

	return s.GetUserById(ctx, params.UserId)
}

// ReconcileBalance verifies that the current balance matches the sum of all journal deltas.
// Balance and deltas come from one statement so both see the same snapshot.
func (s *Service) ReconcileBalance(ctx context.Context, userId int64) error {
	zap.L().Debug("Reconciling balance", zap.Int64("user_id", userId))

	rows, err := s.db.QueryContext(ctx, queryGetBalanceWithJournal, userId)
	if err != nil {
		return unavailable("failed to load journal", err)
	}
	defer closeRows(rows)

	var current dbDecimal
	calculated := decimal.Zero
	found := false
	for rows.Next() {
		var delta dbDecimal
		if err := rows.Scan(&current, &delta); err != nil {
			return fmt.Errorf("failed to scan journal delta: %w", err)
		}
		calculated = calculated.Add(delta.Decimal)
		found = true
	}
	if err := rows.Err(); err != nil {
		return unavailable("error iterating journal rows", err)
	}
	if !found {
		return fmt.Errorf("%w: id %d", store.ErrUserNotFound, userId)
	}

	// Check if balances match (exact decimal comparison)
	if !current.Equal(calculated) {
		zap.L().Error("Balance reconciliation failed",
			zap.Int64("user_id", userId),
			zap.String("current_balance", current.String()),
			zap.String("calculated_balance", calculated.String()),
			zap.String("difference", current.Sub(calculated).String()))
		return fmt.Errorf("balance mismatch: current=%s, calculated=%s", current.String(), calculated.String())
	}

	return nil
}
