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

package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"referral-ledger-go/internal/api"
	"referral-ledger-go/internal/common"
	"referral-ledger-go/internal/metrics"
	"referral-ledger-go/internal/models"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

const (
	sessionPruneInterval = time.Hour
	sessionMaxIdle       = 24 * time.Hour
)

// Notifier delivers a plain text message to a chat.
type Notifier interface {
	Notify(ctx context.Context, chatId int64, text string) error
}

// SessionStore is a conversation store that can evict idle sessions.
type SessionStore interface {
	Prune(maxIdle time.Duration) int
	Len() int
}

// Jobs holds the periodic maintenance tasks of the bot.
type Jobs struct {
	ledger   *api.LedgerService
	notifier Notifier
	admins   []int64
	sessions map[string]SessionStore
	cfg      models.SchedulerConfig
	money    *common.MoneyFormatter
}

func NewJobs(ledger *api.LedgerService, notifier Notifier, admins []int64, sessions map[string]SessionStore, cfg models.SchedulerConfig) *Jobs {
	ledgerCfg := ledger.Config()
	return &Jobs{
		ledger:   ledger,
		notifier: notifier,
		admins:   admins,
		sessions: sessions,
		cfg:      cfg,
		money:    common.NewMoneyFormatter(ledgerCfg.DisplayLocale, ledgerCfg.CurrencySymbol),
	}
}

// Run schedules the jobs and blocks until ctx is cancelled.
func (j *Jobs) Run(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	jobs := []struct {
		name     string
		interval time.Duration
		task     func()
	}{
		{"reconcile_balances", j.cfg.ReconcileInterval, func() { j.Reconcile(ctx) }},
		{"pending_digest", j.cfg.PendingDigestInterval, func() { j.PendingDigest(ctx) }},
		{"prune_sessions", sessionPruneInterval, j.PruneSessions},
	}

	for _, job := range jobs {
		if job.interval <= 0 {
			zap.L().Info("Scheduled job disabled", zap.String("job", job.name))
			continue
		}
		_, err := sched.NewJob(
			gocron.DurationJob(job.interval),
			gocron.NewTask(job.task),
			gocron.WithName(job.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.name, err)
		}
		zap.L().Info("Scheduled job", zap.String("job", job.name), zap.Duration("interval", job.interval))
	}

	sched.Start()
	<-ctx.Done()

	zap.L().Info("Stopping scheduler")
	if err := sched.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	return nil
}

// Reconcile checks every balance against its journal and alerts admins on drift.
func (j *Jobs) Reconcile(ctx context.Context) {
	report, err := j.ledger.ReconcileAll(ctx)
	if err != nil {
		zap.L().Error("Reconciliation run failed", zap.Error(err))
		return
	}
	if len(report.Mismatched) == 0 {
		return
	}

	ids := make([]string, len(report.Mismatched))
	for i, id := range report.Mismatched {
		ids[i] = fmt.Sprint(id)
	}
	zap.L().Error("Balances disagree with the journal", zap.Int64s("user_ids", report.Mismatched))
	j.notifyAdmins(ctx, fmt.Sprintf("Balance check: %d of %d accounts disagree with the journal: %s",
		len(report.Mismatched), report.Checked, strings.Join(ids, ", ")))
}

// PendingDigest publishes the pending queue sizes and sends admins a summary.
func (j *Jobs) PendingDigest(ctx context.Context) {
	pending, err := j.ledger.ListPending(ctx)
	if err != nil {
		zap.L().Error("Failed to list pending withdrawals", zap.Error(err))
		return
	}

	metrics.PendingWithdrawals.WithLabelValues("urgent").Set(float64(len(pending.Urgent)))
	metrics.PendingWithdrawals.WithLabelValues("normal").Set(float64(len(pending.Normal)))

	text, ok := j.digestText(pending)
	if !ok {
		return
	}
	j.notifyAdmins(ctx, text)
}

func (j *Jobs) digestText(pending models.PendingWithdrawals) (string, bool) {
	all := pending.All()
	if len(all) == 0 {
		return "", false
	}

	total := all[0].Amount
	for _, w := range all[1:] {
		total = total.Add(w.Amount)
	}
	oldest := all[0].CreatedAt
	for _, w := range all[1:] {
		if w.CreatedAt.Before(oldest) {
			oldest = w.CreatedAt
		}
	}

	return fmt.Sprintf("Pending withdrawals: %d urgent, %d normal, %s in total. Oldest since %s UTC.",
		len(pending.Urgent), len(pending.Normal), j.money.Format(total), oldest.UTC().Format("02.01.2006 15:04")), true
}

// PruneSessions evicts abandoned conversations.
func (j *Jobs) PruneSessions() {
	for flow, store := range j.sessions {
		removed := store.Prune(sessionMaxIdle)
		metrics.ActiveSessions.WithLabelValues(flow).Set(float64(store.Len()))
		if removed > 0 {
			zap.L().Info("Pruned idle sessions", zap.String("flow", flow), zap.Int("removed", removed))
		}
	}
}

func (j *Jobs) notifyAdmins(ctx context.Context, text string) {
	if j.notifier == nil {
		return
	}
	for _, chatId := range j.admins {
		if err := j.notifier.Notify(ctx, chatId, text); err != nil {
			zap.L().Warn("Failed to notify admin", zap.Int64("chat_id", chatId), zap.Error(err))
		}
	}
}
