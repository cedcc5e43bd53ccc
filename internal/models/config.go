package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig
	Ledger    LedgerConfig
	Admin     AdminConfig
	Telegram  TelegramConfig
	Http      HttpConfig
	Scheduler SchedulerConfig
	Log       LogConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	BusyTimeout     time.Duration
}

// LedgerConfig holds the monetary rules of the platform
type LedgerConfig struct {
	ReferralRate    decimal.Decimal
	MinWithdrawal   decimal.Decimal
	InstantFeeRate  decimal.Decimal
	CurrencySymbol  string
	DisplayLocale   string
	HistoryPageSize int
	PendingPageSize int
	BanksFile       string
}

// AdminConfig holds the admin allowlist
type AdminConfig struct {
	AdminIds []int64
}

// TelegramConfig holds chat transport settings
type TelegramConfig struct {
	Token       string
	ApiEndpoint string
	PollTimeout int
	Debug       bool
}

// HttpConfig holds admin HTTP API settings
type HttpConfig struct {
	Addr       string
	AdminToken string
}

// SchedulerConfig holds periodic job intervals
type SchedulerConfig struct {
	ReconcileInterval     time.Duration
	PendingDigestInterval time.Duration
}

// LogConfig selects the logger flavour
type LogConfig struct {
	Development bool
}

// Bank is a selectable payout bank
type Bank struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}
