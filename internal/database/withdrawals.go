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

func scanWithdrawal(row rowScanner) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	var amount, fee dbDecimal
	var tier, status string
	var createdAt, updatedAt dbTime

	err := row.Scan(&w.Id, &w.UserId, &amount, &fee, &tier, &status, &w.Bank, &w.Destination,
		&w.Description, &w.Reference, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	w.Amount = amount.Decimal
	w.Fee = fee.Decimal
	w.Tier = models.WithdrawalTier(tier)
	w.Status = models.WithdrawalStatus(status)
	w.CreatedAt = createdAt.Time
	w.UpdatedAt = updatedAt.Time
	return &w, nil
}

func scanWithdrawals(rows *sql.Rows) ([]models.WithdrawalRequest, error) {
	var withdrawals []models.WithdrawalRequest
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		withdrawals = append(withdrawals, *w)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during withdrawal row iteration", zap.Error(err))
		return nil, unavailable("error iterating withdrawal rows", err)
	}
	return withdrawals, nil
}

// CreateWithdrawal debits the amount and records the pending request in one transaction.
func (s *Service) CreateWithdrawal(ctx context.Context, params store.CreateWithdrawalParams) (*models.WithdrawalRequest, error) {
	if !params.Amount.IsPositive() {
		return nil, fmt.Errorf("withdrawal amount must be positive, got %s", params.Amount.String())
	}
	if !params.Tier.Valid() {
		return nil, fmt.Errorf("unknown withdrawal tier %q", params.Tier)
	}

	zap.L().Info("Creating withdrawal request",
		zap.Int64("user_id", params.UserId),
		zap.String("amount", params.Amount.String()),
		zap.String("tier", string(params.Tier)),
		zap.String("reference", params.Reference))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("failed to begin transaction", err)
	}
	defer tx.Rollback()

	before, after, err := s.applyBalanceChange(ctx, tx, balanceChange{
		userId:    params.UserId,
		delta:     params.Amount.Neg(),
		entryType: entryWithdrawal,
		reference: params.Reference,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	ts := now.Format(timeLayout)
	result, err := tx.ExecContext(ctx, queryInsertWithdrawal,
		params.UserId, dec(params.Amount), dec(params.Fee), string(params.Tier), params.Bank,
		params.Destination, params.Description, params.Reference, ts, ts)
	if err != nil {
		return nil, unavailable("failed to insert withdrawal request", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, unavailable("failed to read withdrawal id", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, unavailable("failed to commit transaction", err)
	}

	zap.L().Info("Withdrawal request created",
		zap.Int64("withdrawal_id", id),
		zap.Int64("user_id", params.UserId),
		zap.String("old_balance", before.String()),
		zap.String("new_balance", after.String()))

	return &models.WithdrawalRequest{
		Id:          id,
		UserId:      params.UserId,
		Amount:      params.Amount,
		Fee:         params.Fee,
		Tier:        params.Tier,
		Status:      models.StatusPending,
		Bank:        params.Bank,
		Destination: params.Destination,
		Description: params.Description,
		Reference:   params.Reference,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *Service) GetWithdrawal(ctx context.Context, id int64) (*models.WithdrawalRequest, error) {
	w, err := scanWithdrawal(s.db.QueryRowContext(ctx, queryGetWithdrawal, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", store.ErrWithdrawalNotFound, id)
		}
		return nil, unavailable("unable to query withdrawal", err)
	}
	return w, nil
}

// TransitionWithdrawal moves a pending request to approved or cancelled. Any other
// starting status is rejected with store.ErrInvalidTransition and nothing is written.
func (s *Service) TransitionWithdrawal(ctx context.Context, id int64, to models.WithdrawalStatus) (*models.WithdrawalRequest, error) {
	if to != models.StatusApproved && to != models.StatusCancelled {
		return nil, fmt.Errorf("%w: cannot move to %q", store.ErrInvalidTransition, to)
	}

	result, err := s.db.ExecContext(ctx, queryTransitionWithdrawal, string(to), s.timestamp(), id)
	if err != nil {
		return nil, unavailable("failed to update withdrawal status", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, unavailable("failed to check rows affected", err)
	}

	if rowsAffected == 0 {
		current, err := s.GetWithdrawal(ctx, id)
		if err != nil {
			return nil, err
		}
		zap.L().Warn("Rejected withdrawal transition",
			zap.Int64("withdrawal_id", id),
			zap.String("status", string(current.Status)),
			zap.String("requested", string(to)))
		return nil, fmt.Errorf("%w: request %d is %s", store.ErrInvalidTransition, id, current.Status)
	}

	zap.L().Info("Withdrawal status updated", zap.Int64("withdrawal_id", id), zap.String("status", string(to)))
	return s.GetWithdrawal(ctx, id)
}

// ListWithdrawalsByStatus returns requests oldest first.
func (s *Service) ListWithdrawalsByStatus(ctx context.Context, status models.WithdrawalStatus) ([]models.WithdrawalRequest, error) {
	rows, err := s.db.QueryContext(ctx, queryListWithdrawalsByStatus, string(status))
	if err != nil {
		return nil, unavailable("failed to list withdrawals", err)
	}
	defer closeRows(rows)

	return scanWithdrawals(rows)
}

// GetUserWithdrawals returns one page of a user's requests, newest first.
func (s *Service) GetUserWithdrawals(ctx context.Context, userId int64, limit, offset int) ([]models.WithdrawalRequest, error) {
	rows, err := s.db.QueryContext(ctx, queryGetUserWithdrawals, userId, limit, offset)
	if err != nil {
		return nil, unavailable("failed to get user withdrawals", err)
	}
	defer closeRows(rows)

	return scanWithdrawals(rows)
}

func (s *Service) CountUserWithdrawals(ctx context.Context, userId int64) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, queryCountUserWithdrawals, userId).Scan(&count); err != nil {
		return 0, unavailable("failed to count user withdrawals", err)
	}
	return count, nil
}
