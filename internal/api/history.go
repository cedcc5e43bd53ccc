package api

import (
	"context"

	"referral-ledger-go/internal/models"
)

// Paginate positions 1-based page within total items. Out-of-range pages are
// clamped, and an empty set still has one (empty) page.
func Paginate(total, page, pageSize int) models.PageInfo {
	if pageSize <= 0 {
		pageSize = 1
	}
	if total < 0 {
		total = 0
	}

	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, total)

	return models.PageInfo{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		Start:      start,
		End:        end,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
}

// PageOf returns the items of page within a fully loaded slice.
func PageOf[T any](items []T, page, pageSize int) ([]T, models.PageInfo) {
	info := Paginate(len(items), page, pageSize)
	return items[info.Start:info.End], info
}

// GetHistory returns one page of the user's withdrawals and receipts, newest first.
func (s *LedgerService) GetHistory(ctx context.Context, userId int64, page, pageSize int) (*models.HistoryPage, error) {
	if _, err := s.store.GetUserById(ctx, userId); err != nil {
		return nil, err
	}

	total, err := s.store.CountHistory(ctx, userId)
	if err != nil {
		return nil, err
	}

	info := Paginate(total, page, pageSize)
	result := &models.HistoryPage{PageInfo: info}
	if total == 0 {
		return result, nil
	}

	result.Items, err = s.store.GetHistory(ctx, userId, info.PageSize, info.Start)
	if err != nil {
		return nil, err
	}
	return result, nil
}
