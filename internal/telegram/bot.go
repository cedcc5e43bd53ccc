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

package telegram

import (
	"context"
	"strings"

	"referral-ledger-go/internal/workflow"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 16

// Client is the part of the bot API the transport uses. *tgbotapi.BotAPI implements it.
type Client interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot feeds updates to a workflow handler and renders the replies.
type Bot struct {
	client      Client
	handler     workflow.Handler
	pollTimeout int
	workers     int
}

func NewBot(client Client, handler workflow.Handler, pollTimeout int) *Bot {
	return &Bot{client: client, handler: handler, pollTimeout: pollTimeout, workers: defaultWorkers}
}

// Run receives updates until ctx is cancelled. Each update is handled on its
// own goroutine; at most b.workers run at once.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.client.GetUpdatesChan(u)

	var g errgroup.Group
	g.SetLimit(b.workers)

	zap.L().Info("Bot started", zap.Int("workers", b.workers))
	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Stopping bot")
			b.client.StopReceivingUpdates()
			return g.Wait()
		case update, ok := <-updates:
			if !ok {
				return g.Wait()
			}
			g.Go(func() error {
				b.HandleUpdate(ctx, update)
				return nil
			})
		}
	}
}

// HandleUpdate processes one update. A pressed button edits its own message in
// place; text input is answered with a new message.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	ev, ok := EventFromUpdate(update)
	if !ok {
		return
	}

	reply := b.handler.Handle(ctx, ev)

	if query := update.CallbackQuery; query != nil {
		if _, err := b.client.Request(tgbotapi.NewCallback(query.ID, reply.Alert)); err != nil {
			zap.L().Warn("Failed to answer callback", zap.Int64("chat_id", ev.ChatId), zap.Error(err))
		}
		if reply.Alert == "" && query.Message != nil {
			b.editOrSend(ev.ChatId, query.Message.MessageID, reply)
		}
	} else if reply.Alert != "" {
		b.send(tgbotapi.NewMessage(ev.ChatId, reply.Alert))
	} else {
		b.send(newScreenMessage(ev.ChatId, reply.Screen))
	}
	if reply.Alert == "" && reply.Screen.ContactRequest != "" {
		b.send(contactRequestMessage(ev.ChatId, reply.Screen))
	}

	for _, notice := range reply.Notices {
		b.send(tgbotapi.NewMessage(notice.ChatId, notice.Text))
	}
}

func (b *Bot) editOrSend(chatId int64, messageId int, reply workflow.Reply) {
	_, err := b.client.Send(editScreenMessage(chatId, messageId, reply.Screen))
	if err == nil || isNotModified(err) {
		return
	}
	zap.L().Warn("Failed to edit message, sending a new one",
		zap.Int64("chat_id", chatId),
		zap.Int("message_id", messageId),
		zap.Error(err))
	b.send(newScreenMessage(chatId, reply.Screen))
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if _, err := b.client.Send(msg); err != nil {
		zap.L().Error("Failed to send message", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
	}
}

// Notify sends a plain text message to chatId.
func (b *Bot) Notify(_ context.Context, chatId int64, text string) error {
	_, err := b.client.Send(tgbotapi.NewMessage(chatId, text))
	return err
}

func isNotModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
