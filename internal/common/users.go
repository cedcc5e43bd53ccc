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

package common

import (
	"context"
	"fmt"

	"referral-ledger-go/internal/models"
	"referral-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UserInfo represents simplified user information for command-line utilities
type UserInfo struct {
	Id               int64
	ChatId           int64
	Name             string
	Balance          decimal.Decimal
	WorkEarnings     decimal.Decimal
	ReferralEarnings decimal.Decimal
	Blacklisted      bool
}

func newUserInfo(ctx context.Context, ledgerStore store.LedgerStore, user *models.User) (UserInfo, error) {
	blacklisted, err := ledgerStore.IsBlacklisted(ctx, user.Id)
	if err != nil {
		return UserInfo{}, fmt.Errorf("failed to check blacklist for user %d: %w", user.Id, err)
	}
	return UserInfo{
		Id:               user.Id,
		ChatId:           user.ChatId,
		Name:             user.DisplayName,
		Balance:          user.AccountBalance,
		WorkEarnings:     user.WorkEarnings,
		ReferralEarnings: user.ReferralEarnings,
		Blacklisted:      blacklisted,
	}, nil
}

// InitializeUsers returns the user with id userIdFilter, or every user when
// the filter is zero.
func InitializeUsers(ctx context.Context, ledgerStore store.LedgerStore, userIdFilter int64, logger *zap.Logger) ([]UserInfo, error) {
	var selected []models.User

	if userIdFilter != 0 {
		logger.Info("Looking up user by id", zap.Int64("user_id", userIdFilter))
		user, err := ledgerStore.GetUserById(ctx, userIdFilter)
		if err != nil {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		selected = append(selected, *user)
	} else {
		all, err := ledgerStore.GetUsers(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get users: %w", err)
		}
		selected = all
	}

	users := make([]UserInfo, 0, len(selected))
	blocked := 0
	for i := range selected {
		info, err := newUserInfo(ctx, ledgerStore, &selected[i])
		if err != nil {
			return nil, err
		}
		if info.Blacklisted {
			blocked++
		}
		users = append(users, info)
	}

	logger.Info("Retrieved users", zap.Int("count", len(users)), zap.Int("blacklisted", blocked))
	return users, nil
}
