package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"referral-ledger-go/internal/models"
	"referral-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultWorkDescription = "Work payment"

// ParseCreditRows reads one "<user_id> <amount> [description]" row per line.
// Fields may be separated by whitespace or semicolons; blank lines and lines
// starting with '#' are ignored. Malformed lines are reported individually.
func ParseCreditRows(text string) ([]models.CreditRow, []error) {
	var rows []models.CreditRow
	var errs []error

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ';' || r == ' ' || r == '\t'
		})
		if len(fields) < 2 {
			errs = append(errs, newValidationError(fmt.Sprintf("line %d", i+1), "expected \"<user_id> <amount> [description]\""))
			continue
		}

		userId, err := ParseUserId(fields[0])
		if err != nil {
			errs = append(errs, newValidationError(fmt.Sprintf("line %d", i+1), "%v", err))
			continue
		}
		amount, err := ParseAmount(fields[1])
		if err != nil {
			errs = append(errs, newValidationError(fmt.Sprintf("line %d", i+1), "%v", err))
			continue
		}

		description := strings.Join(fields[2:], " ")
		rows = append(rows, models.CreditRow{UserId: userId, Amount: amount, Description: description})
	}

	return rows, errs
}

// BulkCredit credits each row as work earnings and pays commissions. Every row
// is its own transaction; unknown and blacklisted users are skipped.
func (s *LedgerService) BulkCredit(ctx context.Context, rows []models.CreditRow) *models.BulkCreditResult {
	result := &models.BulkCreditResult{Total: decimal.Zero, Timestamp: time.Now()}

	for _, row := range rows {
		rowResult := s.creditRow(ctx, row)
		switch {
		case rowResult.Success:
			result.Credited++
			result.Total = result.Total.Add(row.Amount)
		case rowResult.Skipped:
			result.Skipped++
		default:
			result.Failed++
		}
		result.Rows = append(result.Rows, rowResult)
	}

	zap.L().Info("Bulk credit finished",
		zap.Int("rows", len(rows)),
		zap.Int("credited", result.Credited),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.String("total", result.Total.String()))
	return result
}

func (s *LedgerService) creditRow(ctx context.Context, row models.CreditRow) models.CreditRowResult {
	rowResult := models.CreditRowResult{Row: row, Commission: decimal.Zero}
	description := row.Description
	if description == "" {
		description = defaultWorkDescription
	}

	blacklisted, err := s.store.IsBlacklisted(ctx, row.UserId)
	if err == nil && blacklisted {
		err = fmt.Errorf("%w: id %d", ErrBlacklisted, row.UserId)
	}
	if err != nil {
		rowResult.Error = err.Error()
		zap.L().Warn("Bulk credit row failed", zap.Int64("user_id", row.UserId), zap.Error(err))
		rowResult.Skipped = errors.Is(err, ErrBlacklisted)
		return rowResult
	}

	receipt, commission, err := s.creditWork(ctx, row.UserId, row.Amount, description)
	if receipt != nil {
		rowResult.Success = true
		rowResult.ReceiptId = receipt.Id
	}
	if commission != nil {
		rowResult.Commission = commission.Amount
	}

	switch {
	case err == nil:
		zap.L().Info("Bulk credit row applied",
			zap.Int64("user_id", row.UserId),
			zap.String("amount", row.Amount.String()),
			zap.String("commission", rowResult.Commission.String()))
	case errors.Is(err, store.ErrUserNotFound) && receipt == nil:
		rowResult.Skipped = true
		rowResult.Error = err.Error()
		zap.L().Warn("Bulk credit row skipped: unknown user", zap.Int64("user_id", row.UserId))
	default:
		rowResult.Error = err.Error()
		zap.L().Error("Bulk credit row failed",
			zap.Int64("user_id", row.UserId),
			zap.Bool("work_credited", receipt != nil),
			zap.Error(err))
	}
	return rowResult
}

// DeleteUser removes the account and everything that belongs to it.
func (s *LedgerService) DeleteUser(ctx context.Context, userId int64) error {
	err := s.withUserLock(ctx, userId, "delete_user", func() error {
		return s.store.DeleteUser(ctx, userId)
	})
	if err != nil {
		recordFailure("delete_user", userId, err)
		return err
	}
	return nil
}

// ToggleBlacklist flips the user's blacklist entry and returns the new state.
func (s *LedgerService) ToggleBlacklist(ctx context.Context, userId int64, reason string) (bool, error) {
	blacklisted, err := s.store.IsBlacklisted(ctx, userId)
	if err != nil {
		return false, err
	}
	if blacklisted {
		return false, s.store.RemoveFromBlacklist(ctx, userId)
	}
	if err := s.store.AddToBlacklist(ctx, userId, reason); err != nil {
		return false, err
	}
	return true, nil
}

func (s *LedgerService) Blacklist(ctx context.Context, userId int64, reason string) error {
	return s.store.AddToBlacklist(ctx, userId, reason)
}

func (s *LedgerService) Unblacklist(ctx context.Context, userId int64) error {
	return s.store.RemoveFromBlacklist(ctx, userId)
}
