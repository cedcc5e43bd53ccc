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
	"errors"
	"fmt"

	"referral-ledger-go/internal/metrics"
	"referral-ledger-go/internal/models"
	"referral-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultMaxAttempts = 3

// LedgerService applies balance mutations, commission propagation and the
// admin approval workflow on top of a LedgerStore.
type LedgerService struct {
	store        store.LedgerStore
	cfg          models.LedgerConfig
	commission   CommissionCalculator
	locks        *userLocks
	maxAttempts  int
	newReference func() string
}

func NewLedgerService(st store.LedgerStore, cfg models.LedgerConfig) *LedgerService {
	return &LedgerService{
		store:        st,
		cfg:          cfg,
		commission:   CommissionCalculator{Rate: cfg.ReferralRate},
		locks:        newUserLocks(),
		maxAttempts:  defaultMaxAttempts,
		newReference: func() string { return uuid.New().String() },
	}
}

func (s *LedgerService) Config() models.LedgerConfig {
	return s.cfg
}

func (s *LedgerService) HealthCheck(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// withUserLock runs fn while holding the per-user lock, retrying optimistic
// lock conflicts. Exhausted retries surface as store.ErrStoreUnavailable.
func (s *LedgerService) withUserLock(ctx context.Context, userId int64, op string, fn func() error) error {
	unlock := s.locks.lock(userId)
	defer unlock()

	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = fn()
		if !errors.Is(err, store.ErrConcurrentModification) {
			return err
		}
		zap.L().Warn("Concurrent balance modification, retrying",
			zap.String("operation", op),
			zap.Int64("user_id", userId),
			zap.Int("attempt", attempt))
	}
	return fmt.Errorf("%s: %w: %w", op, store.ErrStoreUnavailable, err)
}

// recordFailure logs a business or integrity failure for audit and counts it.
func recordFailure(op string, userId int64, err error) {
	class := errorClass(err)
	metrics.LedgerErrorsTotal.WithLabelValues(op, class).Inc()

	fields := []zap.Field{zap.String("operation", op), zap.Int64("user_id", userId), zap.String("class", class), zap.Error(err)}
	if class == "store_unavailable" || class == "internal" {
		zap.L().Error("Ledger operation failed", fields...)
		return
	}
	zap.L().Warn("Ledger operation rejected", fields...)
}

func errorClass(err error) string {
	switch {
	case IsValidationError(err):
		return "validation"
	case errors.Is(err, store.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, store.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, store.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, store.ErrWithdrawalNotFound):
		return "withdrawal_not_found"
	case errors.Is(err, store.ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrBlacklisted):
		return "blacklisted"
	default:
		return "internal"
	}
}
