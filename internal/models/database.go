package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalTier is the service level chosen for a payout
type WithdrawalTier string

const (
	TierInstant WithdrawalTier = "instant"
	TierDelayed WithdrawalTier = "delayed"
)

func (t WithdrawalTier) Valid() bool {
	return t == TierInstant || t == TierDelayed
}

// Urgent reports whether requests of this tier are processed ahead of the normal queue
func (t WithdrawalTier) Urgent() bool {
	return t == TierInstant
}

// WithdrawalStatus is the admin-controlled lifecycle of a withdrawal request
type WithdrawalStatus string

const (
	StatusPending   WithdrawalStatus = "pending"
	StatusApproved  WithdrawalStatus = "approved"
	StatusCancelled WithdrawalStatus = "cancelled"
)

// CreditKind selects which cumulative earnings counter a credit feeds
type CreditKind string

const (
	CreditWork     CreditKind = "work"
	CreditReferral CreditKind = "referral"
)

// User represents a registered account
type User struct {
	Id               int64           `db:"id"`
	ChatId           int64           `db:"chat_id"`
	DisplayName      string          `db:"display_name"`
	Phone            string          `db:"phone"`
	AccountBalance   decimal.Decimal `db:"account_balance"`
	WorkEarnings     decimal.Decimal `db:"work_earnings"`
	ReferralEarnings decimal.Decimal `db:"referral_earnings"`
	ReferrerId       *int64          `db:"referrer_id"`
	Version          int64           `db:"version"`
	RegisteredAt     time.Time       `db:"registered_at"`
	LastActivityAt   time.Time       `db:"last_activity_at"`
}

// TotalEarnings is work plus referral earnings
func (u *User) TotalEarnings() decimal.Decimal {
	return u.WorkEarnings.Add(u.ReferralEarnings)
}

// Referral is the referrer -> referred edge recorded at registration
type Referral struct {
	Id         int64     `db:"id"`
	ReferrerId int64     `db:"referrer_id"`
	ReferredId int64     `db:"referred_id"`
	JoinedAt   time.Time `db:"joined_at"`
}

// ReferredUser is a referred account as shown to its referrer
type ReferredUser struct {
	User        User
	JoinedAt    time.Time
	Blacklisted bool
}

// WithdrawalRequest is a payout already debited from the balance, awaiting admin review
type WithdrawalRequest struct {
	Id          int64            `db:"id"`
	UserId      int64            `db:"user_id"`
	Amount      decimal.Decimal  `db:"amount"`
	Fee         decimal.Decimal  `db:"fee"`
	Tier        WithdrawalTier   `db:"tier"`
	Status      WithdrawalStatus `db:"status"`
	Bank        string           `db:"bank"`
	Destination string           `db:"destination"`
	Description string           `db:"description"`
	Reference   string           `db:"reference"`
	CreatedAt   time.Time        `db:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at"`
}

// ReceiptRecord is an append-only entry written for every credit
type ReceiptRecord struct {
	Id          string          `db:"id"`
	UserId      int64           `db:"user_id"`
	Kind        CreditKind      `db:"kind"`
	Amount      decimal.Decimal `db:"amount"`
	Description string          `db:"description"`
	CreatedAt   time.Time       `db:"created_at"`
}

// BlacklistEntry bars an account from balance-affecting operations
type BlacklistEntry struct {
	UserId    int64     `db:"user_id"`
	Reason    string    `db:"reason"`
	CreatedAt time.Time `db:"created_at"`
}

// JournalEntry records one balance mutation (audit trail used for reconciliation)
type JournalEntry struct {
	Id           string          `db:"id"`
	UserId       int64           `db:"user_id"`
	EntryType    string          `db:"entry_type"`
	Delta        decimal.Decimal `db:"delta"`
	BalanceAfter decimal.Decimal `db:"balance_after"`
	Reference    string          `db:"reference"`
	CreatedAt    time.Time       `db:"created_at"`
}
