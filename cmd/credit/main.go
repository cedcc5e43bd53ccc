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
	"os"

	"referral-ledger-go/internal/api"
	"referral-ledger-go/internal/common"
	"referral-ledger-go/internal/config"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	fileFlag := flag.String("file", "", "Path to a file with one \"<user_id> <amount> [description]\" row per line (required)")
	dryRun := flag.Bool("dry-run", false, "Parse and print the rows without crediting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	logger, loggerCleanup := common.InitializeLogger(cfg.Log)
	defer loggerCleanup()

	if *fileFlag == "" {
		logger.Fatal("--file is required")
	}

	data, err := os.ReadFile(*fileFlag)
	if err != nil {
		logger.Fatal("Failed to read credit file", zap.String("file", *fileFlag), zap.Error(err))
	}

	rows, parseErrors := api.ParseCreditRows(string(data))
	for _, e := range parseErrors {
		logger.Warn("Skipping malformed row", zap.Error(e))
	}
	logger.Info("Parsed credit file", zap.Int("rows", len(rows)), zap.Int("malformed", len(parseErrors)))

	money := common.NewMoneyFormatter(cfg.Ledger.DisplayLocale, cfg.Ledger.CurrencySymbol)

	if *dryRun {
		common.PrintHeader("BULK CREDIT (DRY RUN)", common.DefaultWidth)
		for i, row := range rows {
			fmt.Printf("%s #%-8d %16s  %s\n", common.BoxPrefix(i == len(rows)-1), row.UserId, money.Format(row.Amount), row.Description)
		}
		common.PrintFooter(fmt.Sprintf("%d rows, %d malformed", len(rows), len(parseErrors)), common.DefaultWidth)
		return
	}

	services, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer services.Close()

	result := services.Ledger.BulkCredit(ctx, rows)

	common.PrintHeader("BULK CREDIT", common.DefaultWidth)
	for i, r := range result.Rows {
		status := "credited"
		switch {
		case r.Skipped:
			status = "skipped: " + r.Error
		case !r.Success:
			status = "failed: " + r.Error
		case r.Commission.IsPositive():
			status = "credited, commission " + money.Format(r.Commission)
		}
		fmt.Printf("%s #%-8d %16s  %s\n", common.BoxPrefix(i == len(result.Rows)-1), r.Row.UserId, money.Format(r.Row.Amount), status)
	}

	summary := fmt.Sprintf("SUMMARY: %d credited (%s), %d skipped, %d failed, %d malformed",
		result.Credited, money.Format(result.Total), result.Skipped, result.Failed, len(parseErrors))
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Bulk credit completed",
		zap.Int("credited", result.Credited),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.String("total", result.Total.String()))

	if result.Failed > 0 {
		os.Exit(1)
	}
}
