package database

import (
	"context"
	"fmt"

	"referral-ledger-go/internal/store"

	"go.uber.org/zap"
)

func (s *Service) IsBlacklisted(ctx context.Context, userId int64) (bool, error) {
	var blacklisted bool
	if err := s.db.QueryRowContext(ctx, queryIsBlacklisted, userId).Scan(&blacklisted); err != nil {
		return false, unavailable("failed to check blacklist", err)
	}
	return blacklisted, nil
}

func (s *Service) AddToBlacklist(ctx context.Context, userId int64, reason string) error {
	if _, err := s.GetUserById(ctx, userId); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, queryInsertBlacklist, userId, reason, s.timestamp()); err != nil {
		return unavailable("failed to add blacklist entry", err)
	}

	zap.L().Info("User blacklisted", zap.Int64("user_id", userId), zap.String("reason", reason))
	return nil
}

func (s *Service) RemoveFromBlacklist(ctx context.Context, userId int64) error {
	result, err := s.db.ExecContext(ctx, queryDeleteBlacklist, userId)
	if err != nil {
		return unavailable("failed to remove blacklist entry", err)
	}
	if err := requireRow(result, fmt.Errorf("%w: id %d is not blacklisted", store.ErrUserNotFound, userId)); err != nil {
		return err
	}

	zap.L().Info("User removed from blacklist", zap.Int64("user_id", userId))
	return nil
}
