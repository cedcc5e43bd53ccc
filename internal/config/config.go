/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"referral-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	busyTimeout, err := getEnvDuration("DB_BUSY_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	reconcileInterval, err := getEnvDuration("RECONCILE_INTERVAL", time.Hour)
	if err != nil {
		return nil, err
	}

	digestInterval, err := getEnvDuration("PENDING_DIGEST_INTERVAL", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	referralRate, err := getEnvDecimal("REFERRAL_RATE", decimal.RequireFromString("0.10"))
	if err != nil {
		return nil, err
	}
	if referralRate.IsNegative() || referralRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("REFERRAL_RATE must be between 0 and 1, got %s", referralRate.String())
	}

	minWithdrawal, err := getEnvDecimal("MIN_WITHDRAWAL", decimal.NewFromInt(100))
	if err != nil {
		return nil, err
	}
	if !minWithdrawal.IsPositive() {
		return nil, fmt.Errorf("MIN_WITHDRAWAL must be positive, got %s", minWithdrawal.String())
	}

	instantFeeRate, err := getEnvDecimal("INSTANT_FEE_RATE", decimal.RequireFromString("0.05"))
	if err != nil {
		return nil, err
	}

	adminIds, err := getEnvInt64List("ADMIN_IDS")
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "ledger.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
			BusyTimeout:     busyTimeout,
		},
		Ledger: models.LedgerConfig{
			ReferralRate:    referralRate,
			MinWithdrawal:   minWithdrawal,
			InstantFeeRate:  instantFeeRate,
			CurrencySymbol:  getEnvString("CURRENCY_SYMBOL", "₽"),
			DisplayLocale:   getEnvString("DISPLAY_LOCALE", "ru"),
			HistoryPageSize: getEnvInt("HISTORY_PAGE_SIZE", 5),
			PendingPageSize: getEnvInt("PENDING_PAGE_SIZE", 3),
			BanksFile:       getEnvString("BANKS_FILE", "banks.yaml"),
		},
		Admin: models.AdminConfig{
			AdminIds: adminIds,
		},
		Telegram: models.TelegramConfig{
			Token:       os.Getenv("TELEGRAM_BOT_TOKEN"),
			ApiEndpoint: getEnvString("TELEGRAM_API_ENDPOINT", "https://api.telegram.org/bot%s/%s"),
			PollTimeout: getEnvInt("TELEGRAM_POLL_TIMEOUT", 60),
			Debug:       getEnvBool("TELEGRAM_DEBUG", false),
		},
		Http: models.HttpConfig{
			Addr:       getEnvString("HTTP_ADDR", ":8080"),
			AdminToken: os.Getenv("ADMIN_API_TOKEN"),
		},
		Scheduler: models.SchedulerConfig{
			ReconcileInterval:     reconcileInterval,
			PendingDigestInterval: digestInterval,
		},
		Log: models.LogConfig{
			Development: getEnvBool("LOG_DEVELOPMENT", false),
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	if value := os.Getenv(key); value != "" {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid decimal for %s: %q (%w)", key, value, err)
		}
		return d, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvInt64List parses a comma separated list of ids.
func getEnvInt64List(key string) ([]int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return nil, nil
	}

	var ids []int64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id in %s: %q (%w)", key, part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
