package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"slices"

	"referral-ledger-go/internal/api"

	"go.uber.org/zap"
)

// Policy decides whether a chat identity may use the admin console.
type Policy interface {
	IsAdmin(chatId int64) bool
}

// AdminPolicy is an allowlist of admin chat ids.
type AdminPolicy struct {
	ids map[int64]struct{}
}

func NewAdminPolicy(adminIds []int64) *AdminPolicy {
	ids := make(map[int64]struct{}, len(adminIds))
	for _, id := range adminIds {
		ids[id] = struct{}{}
	}
	if len(ids) == 0 {
		zap.L().Warn("No admin ids configured; admin console is disabled")
	}
	return &AdminPolicy{ids: ids}
}

func (p *AdminPolicy) IsAdmin(chatId int64) bool {
	_, ok := p.ids[chatId]
	return ok
}

// Admins returns the allowlisted chat ids in ascending order.
func (p *AdminPolicy) Admins() []int64 {
	ids := make([]int64, 0, len(p.ids))
	for id := range p.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// BlacklistChecker reports whether an account is barred.
type BlacklistChecker interface {
	IsBlacklisted(ctx context.Context, userId int64) (bool, error)
}

// Gate runs the membership checks that precede any balance-affecting operation.
type Gate struct {
	checker BlacklistChecker
}

func NewGate(checker BlacklistChecker) *Gate {
	return &Gate{checker: checker}
}

// Allow returns api.ErrBlacklisted for barred accounts.
func (g *Gate) Allow(ctx context.Context, userId int64) error {
	blacklisted, err := g.checker.IsBlacklisted(ctx, userId)
	if err != nil {
		return fmt.Errorf("failed to check blacklist: %w", err)
	}
	if blacklisted {
		zap.L().Info("Blocked blacklisted user", zap.Int64("user_id", userId))
		return fmt.Errorf("%w: id %d", api.ErrBlacklisted, userId)
	}
	return nil
}

// TokenMatches compares a presented bearer token against the configured one.
// An empty configured token never matches.
func TokenMatches(expected, presented string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) == 1
}
