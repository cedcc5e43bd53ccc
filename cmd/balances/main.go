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

package main

import (
	"context"
	"flag"
	"fmt"

	"referral-ledger-go/internal/api"
	"referral-ledger-go/internal/common"
	"referral-ledger-go/internal/config"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type balanceStats struct {
	totalUsers       int
	usersWithBalance int
	totalBalance     decimal.Decimal
	totalReferred    int
}

func printUserHeader(user common.UserInfo, money *common.MoneyFormatter) {
	blocked := ""
	if user.Blacklisted {
		blocked = " [blocked]"
	}
	fmt.Printf("\n┌─ User: %s (#%d)%s\n", user.Name, user.Id, blocked)
	fmt.Printf("│  Chat: %d\n", user.ChatId)
	fmt.Printf("│  Balance: %s\n", money.Format(user.Balance))
	common.PrintBoxSeparator(78)
}

func printEarnings(user common.UserInfo, money *common.MoneyFormatter, hasReferrals bool) {
	fmt.Printf("%s %-18s: %20s\n", common.BoxPrefix(false), "Work earnings", money.Format(user.WorkEarnings))
	fmt.Printf("%s %-18s: %20s\n", common.BoxPrefix(!hasReferrals), "Referral earnings", money.Format(user.ReferralEarnings))
}

func processUser(ctx context.Context, user common.UserInfo, ledger *api.LedgerService, money *common.MoneyFormatter) (int, error) {
	referred, err := ledger.ListReferrals(ctx, user.Id)
	if err != nil {
		return 0, fmt.Errorf("failed to get referrals: %w", err)
	}

	printUserHeader(user, money)
	printEarnings(user, money, len(referred) > 0)

	for i, r := range referred {
		marker := ""
		if r.Blacklisted {
			marker = " [blocked]"
		}
		fmt.Printf("%s referred %s (#%d) joined %s%s\n",
			common.BoxDetailPrefix(i == len(referred)-1),
			r.User.DisplayName,
			r.User.Id,
			r.JoinedAt.Format("2006-01-02"),
			marker)
	}

	return len(referred), nil
}

func processUsersAndGenerateReport(ctx context.Context, users []common.UserInfo, ledger *api.LedgerService, money *common.MoneyFormatter, logger *zap.Logger) balanceStats {
	stats := balanceStats{totalBalance: decimal.Zero}

	for _, user := range users {
		stats.totalUsers++

		referredCount, err := processUser(ctx, user, ledger, money)
		if err != nil {
			logger.Error("Failed to process user",
				zap.Int64("user_id", user.Id),
				zap.String("user_name", user.Name),
				zap.Error(err))
			continue
		}

		if user.Balance.IsPositive() {
			stats.usersWithBalance++
			stats.totalBalance = stats.totalBalance.Add(user.Balance)
		}
		stats.totalReferred += referredCount
	}

	return stats
}

func main() {
	ctx := context.Background()

	userFlag := flag.Int64("user", 0, "Filter by specific account id (optional)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	logger, loggerCleanup := common.InitializeLogger(cfg.Log)
	defer loggerCleanup()

	logger.Info("Starting balance query")

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	services, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer services.Close()

	users, err := common.InitializeUsers(ctx, services.DbService, *userFlag, logger)
	if err != nil {
		logger.Fatal("Failed to initialize users", zap.Error(err))
	}

	money := common.NewMoneyFormatter(cfg.Ledger.DisplayLocale, cfg.Ledger.CurrencySymbol)

	common.PrintHeader("USER BALANCE REPORT", common.DefaultWidth)

	stats := processUsersAndGenerateReport(ctx, users, services.Ledger, money, logger)

	summary := fmt.Sprintf("SUMMARY: %d users with balance totalling %s (%d users queried, %d referrals)",
		stats.usersWithBalance, money.Format(stats.totalBalance), stats.totalUsers, stats.totalReferred)
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Balance query completed",
		zap.Int("users_queried", stats.totalUsers),
		zap.Int("users_with_balance", stats.usersWithBalance),
		zap.String("total_balance", stats.totalBalance.String()))
}
