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

// CreateReferral records referrerId as the referrer of referredId. A user has at most one referrer.
func (s *Service) CreateReferral(ctx context.Context, referrerId, referredId int64) (*models.Referral, error) {
	if referrerId == referredId {
		return nil, fmt.Errorf("%w: user %d", store.ErrSelfReferral, referredId)
	}

	zap.L().Info("Creating referral", zap.Int64("referrer_id", referrerId), zap.Int64("referred_id", referredId))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("failed to begin transaction", err)
	}
	defer tx.Rollback()

	for _, id := range []int64{referrerId, referredId} {
		if _, err := scanUser(tx.QueryRowContext(ctx, queryGetUserById, id)); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: id %d", store.ErrUserNotFound, id)
			}
			return nil, unavailable("failed to load user", err)
		}
	}

	result, err := tx.ExecContext(ctx, querySetReferrer, referrerId, referredId)
	if err != nil {
		return nil, unavailable("failed to set referrer", err)
	}
	if err := requireRow(result, fmt.Errorf("%w: user %d", store.ErrDuplicateReferral, referredId)); err != nil {
		return nil, err
	}

	now := s.now()
	result, err = tx.ExecContext(ctx, queryInsertReferral, referrerId, referredId, now.Format(timeLayout))
	if err != nil {
		return nil, unavailable("failed to insert referral", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, unavailable("failed to read referral id", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, unavailable("failed to commit transaction", err)
	}

	return &models.Referral{Id: id, ReferrerId: referrerId, ReferredId: referredId, JoinedAt: now}, nil
}

// GetReferrer returns the referrer of userId, or nil when the user joined without one.
func (s *Service) GetReferrer(ctx context.Context, userId int64) (*models.User, error) {
	user, err := s.GetUserById(ctx, userId)
	if err != nil {
		return nil, err
	}
	if user.ReferrerId == nil {
		return nil, nil
	}

	referrer, err := s.GetUserById(ctx, *user.ReferrerId)
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, nil
	}
	return referrer, err
}

func (s *Service) GetReferredUsers(ctx context.Context, referrerId int64) ([]models.ReferredUser, error) {
	zap.L().Debug("Querying referred users", zap.Int64("referrer_id", referrerId))

	rows, err := s.db.QueryContext(ctx, queryGetReferredUsers, referrerId)
	if err != nil {
		return nil, unavailable("unable to query referred users", err)
	}
	defer closeRows(rows)

	var referred []models.ReferredUser
	for rows.Next() {
		var joinedAt dbTime
		var blacklisted bool
		user, err := scanUser(rows, &joinedAt, &blacklisted)
		if err != nil {
			return nil, fmt.Errorf("unable to scan referred user: %w", err)
		}
		referred = append(referred, models.ReferredUser{User: *user, JoinedAt: joinedAt.Time, Blacklisted: blacklisted})
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable("error iterating referred users", err)
	}
	return referred, nil
}
