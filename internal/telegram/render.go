package telegram

import (
	"strings"

	"referral-ledger-go/internal/nav"
	"referral-ledger-go/internal/workflow"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// EventFromUpdate converts an update into a workflow event. Updates that
// carry neither a message nor a callback are ignored.
func EventFromUpdate(update tgbotapi.Update) (workflow.Event, bool) {
	switch {
	case update.CallbackQuery != nil:
		query := update.CallbackQuery
		chatId := query.From.ID
		if query.Message != nil && query.Message.Chat != nil {
			chatId = query.Message.Chat.ID
		}
		return workflow.Event{
			ChatId:      chatId,
			DisplayName: displayName(query.From),
			Data:        query.Data,
		}, true

	case update.Message != nil && update.Message.Chat != nil:
		msg := update.Message
		ev := workflow.Event{
			ChatId:      msg.Chat.ID,
			DisplayName: displayName(msg.From),
			Text:        msg.Text,
		}
		// Only a user's own contact counts as their phone
		if msg.Contact != nil && msg.From != nil && msg.Contact.UserID == msg.From.ID {
			ev.Phone = msg.Contact.PhoneNumber
			ev.Contact = true
		}
		return ev, true
	}
	return workflow.Event{}, false
}

func displayName(user *tgbotapi.User) string {
	if user == nil {
		return ""
	}
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.UserName
	}
	return name
}

// Keyboard renders the screen's actions as an inline keyboard, or nil when there are none.
func Keyboard(screen nav.Screen) *tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(screen.Actions))
	for _, actions := range screen.Actions {
		if len(actions) == 0 {
			continue
		}
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(actions))
		for _, a := range actions {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(a.Label, a.Data))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	if len(rows) == 0 {
		return nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

// contactRequestMessage offers the screen's share-contact button. Telegram only
// accepts it on a reply keyboard, which cannot share a message with inline
// buttons.
func contactRequestMessage(chatId int64, screen nav.Screen) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatId, "Or share the phone number of this account:")
	keyboard := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact(screen.ContactRequest)))
	keyboard.OneTimeKeyboard = true
	keyboard.ResizeKeyboard = true
	msg.ReplyMarkup = keyboard
	return msg
}

func newScreenMessage(chatId int64, screen nav.Screen) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatId, screen.Text())
	if keyboard := Keyboard(screen); keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	return msg
}

func editScreenMessage(chatId int64, messageId int, screen nav.Screen) tgbotapi.EditMessageTextConfig {
	edit := tgbotapi.NewEditMessageText(chatId, messageId, screen.Text())
	edit.ReplyMarkup = Keyboard(screen)
	return edit
}
