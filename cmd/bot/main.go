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
	"os/signal"
	"syscall"

	"referral-ledger-go/internal/auth"
	"referral-ledger-go/internal/common"
	"referral-ledger-go/internal/config"
	"referral-ledger-go/internal/httpapi"
	"referral-ledger-go/internal/scheduler"
	"referral-ledger-go/internal/telegram"
	"referral-ledger-go/internal/workflow"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger(cfg.Log)
	defer loggerCleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zap.L().Info("Starting referral ledger bot")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	policy := auth.NewAdminPolicy(cfg.Admin.AdminIds)
	userFlow := workflow.NewUserFlow(services.Ledger, services.Banks, policy.Admins())
	adminConsole := workflow.NewAdminConsole(services.Ledger, policy)
	router := workflow.NewRouter(userFlow, adminConsole)

	botApi, err := telegram.NewBotApi(cfg.Telegram)
	if err != nil {
		zap.L().Fatal("Failed to connect to Telegram", zap.Error(err))
	}

	bot := telegram.NewBot(botApi, router, cfg.Telegram.PollTimeout)
	server := httpapi.NewServer(services.Ledger, cfg.Http)
	jobs := scheduler.NewJobs(services.Ledger, bot, policy.Admins(), map[string]scheduler.SessionStore{
		"user":  userFlow.Sessions(),
		"admin": adminConsole.Sessions(),
	}, cfg.Scheduler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bot.Run(gctx) })
	g.Go(func() error { return server.Run(gctx) })
	g.Go(func() error { return jobs.Run(gctx) })

	zap.L().Info("Bot running", zap.String("http_addr", cfg.Http.Addr), zap.Int("admins", len(policy.Admins())))
	zap.L().Info("Press Ctrl+C to stop")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		zap.L().Error("Bot stopped with error", zap.Error(err))
		return
	}
	zap.L().Info("Bot stopped gracefully")
}
