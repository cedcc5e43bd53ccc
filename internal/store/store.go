package store

import (
	"context"
	"errors"

	"referral-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrUserNotFound           = errors.New("user not found")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInvalidTransition      = errors.New("invalid withdrawal status transition")
	ErrWithdrawalNotFound     = errors.New("withdrawal request not found")
	ErrDuplicateReferral      = errors.New("user already has a referrer")
	ErrSelfReferral           = errors.New("user cannot refer themselves")
	ErrDuplicateUser          = errors.New("user with this chat id already exists")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrStoreUnavailable       = errors.New("ledger store unavailable")
)

// CreateUserParams contains the fields captured at registration.
type CreateUserParams struct {
	ChatId      int64
	DisplayName string
	Phone       string
}

// CreditParams describes a balance credit and the receipt it produces.
type CreditParams struct {
	UserId      int64
	Amount      decimal.Decimal
	Kind        models.CreditKind
	Description string
}

// DebitParams describes a bare balance debit.
type DebitParams struct {
	UserId    int64
	Amount    decimal.Decimal
	Reference string
}

// CreateWithdrawalParams describes a withdrawal request; the store debits Amount
// and inserts the request in the same transaction.
type CreateWithdrawalParams struct {
	UserId      int64
	Amount      decimal.Decimal
	Fee         decimal.Decimal
	Tier        models.WithdrawalTier
	Bank        string
	Destination string
	Description string
	Reference   string
}

// SetBalanceParams describes an administrative balance override.
type SetBalanceParams struct {
	UserId     int64
	NewBalance decimal.Decimal
	Reason     string
}

// LedgerStore defines the contract that every backend must satisfy.
type LedgerStore interface {
	// --- Users ---
	CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error)
	GetUserById(ctx context.Context, userId int64) (*models.User, error)
	GetUserByChatId(ctx context.Context, chatId int64) (*models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	TouchUser(ctx context.Context, userId int64) error
	UpdateUserPhone(ctx context.Context, userId int64, phone string) error
	DeleteUser(ctx context.Context, userId int64) error

	// --- Referrals ---
	CreateReferral(ctx context.Context, referrerId, referredId int64) (*models.Referral, error)
	GetReferrer(ctx context.Context, userId int64) (*models.User, error)
	GetReferredUsers(ctx context.Context, referrerId int64) ([]models.ReferredUser, error)

	// --- Balances ---
	Credit(ctx context.Context, params CreditParams) (*models.ReceiptRecord, error)
	Debit(ctx context.Context, params DebitParams) (decimal.Decimal, error)
	SetBalance(ctx context.Context, params SetBalanceParams) (*models.User, error)
	ReconcileBalance(ctx context.Context, userId int64) error

	// --- Withdrawals ---
	CreateWithdrawal(ctx context.Context, params CreateWithdrawalParams) (*models.WithdrawalRequest, error)
	GetWithdrawal(ctx context.Context, id int64) (*models.WithdrawalRequest, error)
	TransitionWithdrawal(ctx context.Context, id int64, to models.WithdrawalStatus) (*models.WithdrawalRequest, error)
	ListWithdrawalsByStatus(ctx context.Context, status models.WithdrawalStatus) ([]models.WithdrawalRequest, error)
	GetUserWithdrawals(ctx context.Context, userId int64, limit, offset int) ([]models.WithdrawalRequest, error)
	CountUserWithdrawals(ctx context.Context, userId int64) (int, error)

	// --- History ---
	GetHistory(ctx context.Context, userId int64, limit, offset int) ([]models.HistoryEntry, error)
	CountHistory(ctx context.Context, userId int64) (int, error)
	GetReceipts(ctx context.Context, userId int64) ([]models.ReceiptRecord, error)

	// --- Blacklist ---
	IsBlacklisted(ctx context.Context, userId int64) (bool, error)
	AddToBlacklist(ctx context.Context, userId int64, reason string) error
	RemoveFromBlacklist(ctx context.Context, userId int64) error

	// --- Lifecycle ---
	Ping(ctx context.Context) error
	Close()
}
