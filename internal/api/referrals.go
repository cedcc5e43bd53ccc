package api

import (
	"context"

	"referral-ledger-go/internal/models"

	"go.uber.org/zap"
)

// RegisterReferral records referrerId as the one referrer of referredId.
func (s *LedgerService) RegisterReferral(ctx context.Context, referrerId, referredId int64) (*models.Referral, error) {
	referral, err := s.store.CreateReferral(ctx, referrerId, referredId)
	if err != nil {
		recordFailure("register_referral", referredId, err)
		return nil, err
	}

	zap.L().Info("Referral registered",
		zap.Int64("referrer_id", referrerId),
		zap.Int64("referred_id", referredId))
	return referral, nil
}

// ListReferrals returns the users referred by userId, oldest first.
func (s *LedgerService) ListReferrals(ctx context.Context, userId int64) ([]models.ReferredUser, error) {
	if _, err := s.store.GetUserById(ctx, userId); err != nil {
		return nil, err
	}
	return s.store.GetReferredUsers(ctx, userId)
}
