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

	"go.uber.org/zap"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, extra ...any) (*models.User, error) {
	var user models.User
	var balance, work, referral dbDecimal
	var referrerId sql.NullInt64
	var registeredAt, lastActivityAt dbTime

	dest := []any{&user.Id, &user.ChatId, &user.DisplayName, &user.Phone, &balance, &work, &referral,
		&referrerId, &user.Version, &registeredAt, &lastActivityAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	user.AccountBalance = balance.Decimal
	user.WorkEarnings = work.Decimal
	user.ReferralEarnings = referral.Decimal
	if referrerId.Valid {
		id := referrerId.Int64
		user.ReferrerId = &id
	}
	user.RegisteredAt = registeredAt.Time
	user.LastActivityAt = lastActivityAt.Time
	return &user, nil
}

func (s *Service) GetUsers(ctx context.Context) ([]models.User, error) {
	zap.L().Debug("Querying users")

	rows, err := s.db.QueryContext(ctx, queryGetUsers)
	if err != nil {
		zap.L().Error("Failed to query users", zap.Error(err))
		return nil, unavailable("unable to query users", err)
	}
	defer closeRows(rows)

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			zap.L().Error("Failed to scan user row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan user row: %w", err)
		}
		users = append(users, *user)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during user row iteration", zap.Error(err))
		return nil, unavailable("error iterating user rows", err)
	}

	zap.L().Debug("Retrieved users", zap.Int("count", len(users)))
	return users, nil
}

func (s *Service) GetUserById(ctx context.Context, userId int64) (*models.User, error) {
	zap.L().Debug("Querying user by ID", zap.Int64("user_id", userId))

	user, err := scanUser(s.db.QueryRowContext(ctx, queryGetUserById, userId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", store.ErrUserNotFound, userId)
		}
		zap.L().Error("Failed to query user by ID", zap.Int64("user_id", userId), zap.Error(err))
		return nil, unavailable("unable to query user by ID", err)
	}

	return user, nil
}

func (s *Service) GetUserByChatId(ctx context.Context, chatId int64) (*models.User, error) {
	zap.L().Debug("Querying user by chat ID", zap.Int64("chat_id", chatId))

	user, err := scanUser(s.db.QueryRowContext(ctx, queryGetUserByChatId, chatId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: chat %d", store.ErrUserNotFound, chatId)
		}
		zap.L().Error("Failed to query user by chat ID", zap.Int64("chat_id", chatId), zap.Error(err))
		return nil, unavailable("unable to query user by chat ID", err)
	}

	return user, nil
}

func (s *Service) CreateUser(ctx context.Context, params store.CreateUserParams) (*models.User, error) {
	zap.L().Info("Creating user", zap.Int64("chat_id", params.ChatId), zap.String("name", params.DisplayName))

	now := s.timestamp()
	result, err := s.db.ExecContext(ctx, queryInsertUser, params.ChatId, params.DisplayName, params.Phone, now, now)
	if err != nil {
		zap.L().Error("Failed to insert user", zap.Int64("chat_id", params.ChatId), zap.Error(err))
		return nil, unavailable("unable to insert user", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, unavailable("unable to get rows affected", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: chat %d", store.ErrDuplicateUser, params.ChatId)
	}

	userId, err := result.LastInsertId()
	if err != nil {
		return nil, unavailable("unable to read new user id", err)
	}

	zap.L().Info("User created successfully", zap.Int64("user_id", userId), zap.Int64("chat_id", params.ChatId))
	return s.GetUserById(ctx, userId)
}

func (s *Service) TouchUser(ctx context.Context, userId int64) error {
	result, err := s.db.ExecContext(ctx, queryTouchUser, s.timestamp(), userId)
	if err != nil {
		return unavailable("unable to touch user", err)
	}
	return requireRow(result, fmt.Errorf("%w: id %d", store.ErrUserNotFound, userId))
}

// UpdateUserPhone replaces the phone captured at registration.
func (s *Service) UpdateUserPhone(ctx context.Context, userId int64, phone string) error {
	result, err := s.db.ExecContext(ctx, queryUpdateUserPhone, phone, userId)
	if err != nil {
		zap.L().Error("Failed to update phone", zap.Int64("user_id", userId), zap.Error(err))
		return unavailable("unable to update phone", err)
	}
	return requireRow(result, fmt.Errorf("%w: id %d", store.ErrUserNotFound, userId))
}

// DeleteUser removes the account together with its requests, receipts, journal and referral edges.
func (s *Service) DeleteUser(ctx context.Context, userId int64) error {
	zap.L().Info("Deleting user", zap.Int64("user_id", userId))

	result, err := s.db.ExecContext(ctx, queryDeleteUser, userId)
	if err != nil {
		zap.L().Error("Failed to delete user", zap.Int64("user_id", userId), zap.Error(err))
		return unavailable("unable to delete user", err)
	}
	if err := requireRow(result, fmt.Errorf("%w: id %d", store.ErrUserNotFound, userId)); err != nil {
		return err
	}

	zap.L().Info("User deleted", zap.Int64("user_id", userId))
	return nil
}

// requireRow returns notFound when the statement touched nothing.
func requireRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return unavailable("unable to get rows affected", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
