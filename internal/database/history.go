package database

import (
	"context"
	"fmt"

	"referral-ledger-go/internal/models"

	"go.uber.org/zap"
)

// GetHistory returns withdrawals and receipts merged, newest first.
func (s *Service) GetHistory(ctx context.Context, userId int64, limit, offset int) ([]models.HistoryEntry, error) {
	zap.L().Debug("Getting history",
		zap.Int64("user_id", userId),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	rows, err := s.db.QueryContext(ctx, queryGetHistory, userId, userId, limit, offset)
	if err != nil {
		return nil, unavailable("failed to get history", err)
	}
	defer closeRows(rows)

	var entries []models.HistoryEntry
	for rows.Next() {
		var entry models.HistoryEntry
		var kind string
		var amount dbDecimal
		var createdAt dbTime
		if err := rows.Scan(&kind, &entry.Id, &amount, &entry.Status, &entry.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entry.Kind = models.HistoryKind(kind)
		entry.Amount = amount.Decimal
		entry.CreatedAt = createdAt.Time
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during history row iteration", zap.Error(err))
		return nil, unavailable("error iterating history rows", err)
	}
	return entries, nil
}

func (s *Service) CountHistory(ctx context.Context, userId int64) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, queryCountHistory, userId, userId).Scan(&count); err != nil {
		return 0, unavailable("failed to count history", err)
	}
	return count, nil
}

func (s *Service) GetReceipts(ctx context.Context, userId int64) ([]models.ReceiptRecord, error) {
	rows, err := s.db.QueryContext(ctx, queryGetReceipts, userId)
	if err != nil {
		return nil, unavailable("failed to get receipts", err)
	}
	defer closeRows(rows)

	var receipts []models.ReceiptRecord
	for rows.Next() {
		var r models.ReceiptRecord
		var kind string
		var amount dbDecimal
		var createdAt dbTime
		if err := rows.Scan(&r.Id, &r.UserId, &kind, &amount, &r.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		r.Kind = models.CreditKind(kind)
		r.Amount = amount.Decimal
		r.CreatedAt = createdAt.Time
		receipts = append(receipts, r)
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable("error iterating receipt rows", err)
	}
	return receipts, nil
}
