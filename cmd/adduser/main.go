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
	"errors"
	"flag"
	"fmt"
	"regexp"

	"referral-ledger-go/internal/api"
	"referral-ledger-go/internal/common"
	"referral-ledger-go/internal/config"
	"referral-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var phoneRegex = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

func validatePhone(phone string) error {
	if phone == "" {
		return nil
	}
	if !phoneRegex.MatchString(phone) {
		return fmt.Errorf("invalid phone format: %s", phone)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	return nil
}

func main() {
	ctx := context.Background()

	chatFlag := flag.Int64("chat", 0, "Telegram chat id of the user (required)")
	nameFlag := flag.String("name", "", "User's display name (required)")
	phoneFlag := flag.String("phone", "", "User's phone number (optional)")
	referrerFlag := flag.Int64("referrer", 0, "Account id of the referrer (optional)")
	creditFlag := flag.String("credit", "", "Initial work credit, paying referral commission (optional)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger(cfg.Log)
	defer loggerCleanup()

	if *chatFlag == 0 || *nameFlag == "" {
		zap.L().Fatal("Both flags are required: --chat and --name")
	}
	if err := validateName(*nameFlag); err != nil {
		zap.L().Fatal("Invalid name", zap.Error(err))
	}
	if err := validatePhone(*phoneFlag); err != nil {
		zap.L().Fatal("Invalid phone", zap.Error(err))
	}

	var credit decimal.Decimal
	if *creditFlag != "" {
		credit, err = api.ParseAmount(*creditFlag)
		if err != nil {
			zap.L().Fatal("Invalid credit", zap.Error(err))
		}
	}

	zap.L().Info("Starting user creation process",
		zap.Int64("chat_id", *chatFlag),
		zap.String("name", *nameFlag))

	services, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer services.Close()

	params := api.RegisterUserParams{ChatId: *chatFlag, DisplayName: *nameFlag, Phone: *phoneFlag}
	if *referrerFlag != 0 {
		params.ReferrerId = referrerFlag
	}

	user, err := services.Ledger.RegisterUser(ctx, params)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateUser) {
			zap.L().Fatal("User already exists for this chat", zap.Int64("chat_id", *chatFlag))
		}
		if user == nil {
			zap.L().Fatal("Failed to create user", zap.Error(err))
		}
		zap.L().Warn("User created without referrer", zap.Int64("user_id", user.Id), zap.Error(err))
	}

	money := common.NewMoneyFormatter(cfg.Ledger.DisplayLocale, cfg.Ledger.CurrencySymbol)

	if credit.IsPositive() {
		receipt, err := services.Ledger.CreditWork(ctx, user.Id, credit, "Initial credit")
		if err != nil {
			zap.L().Fatal("Failed to credit user", zap.Int64("user_id", user.Id), zap.Error(err))
		}
		zap.L().Info("Initial credit applied", zap.String("receipt_id", receipt.Id))

		if user, err = services.Ledger.GetUser(ctx, user.Id); err != nil {
			zap.L().Fatal("Failed to reload user", zap.Error(err))
		}
	}

	fmt.Println()
	common.PrintHeader("USER CREATED", common.DefaultWidth)
	fmt.Printf("ID:       %d\n", user.Id)
	fmt.Printf("Chat:     %d\n", user.ChatId)
	fmt.Printf("Name:     %s\n", user.DisplayName)
	if user.Phone != "" {
		fmt.Printf("Phone:    %s\n", user.Phone)
	}
	if user.ReferrerId != nil {
		fmt.Printf("Referrer: %d\n", *user.ReferrerId)
	}
	fmt.Printf("Balance:  %s\n", money.Format(user.AccountBalance))
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()

	zap.L().Info("User created successfully", zap.Int64("id", user.Id))
}
