// Package workflow drives the conversational flows of the bot: the user
// profile and withdrawal flow and the admin console. Flows consume transport
// neutral events and answer with abstract screens.
package workflow

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"referral-ledger-go/internal/nav"
)

// Event is one user interaction as delivered by the transport.
type Event struct {
	ChatId      int64
	DisplayName string
	Phone       string
	// Contact marks a message that shared the sender's own contact; Phone holds its number.
	Contact bool

	// Data is the callback data of a pressed action. Empty for text messages.
	Data string
	Text string
}

// Notice is a message for another chat, e.g. an admin alert.
type Notice struct {
	ChatId int64
	Text   string
}

// Reply is what the transport should show in answer to an Event.
type Reply struct {
	Screen  nav.Screen
	Notices []Notice
	// Alert is a short hint shown without replacing Screen.
	Alert string
}

// Handler processes events for one flow.
type Handler interface {
	Handle(ctx context.Context, ev Event) Reply
}

// Router sends each event to the user flow or the admin console. Text input
// goes to whichever flow the chat used last.
type Router struct {
	user  Handler
	admin Handler

	mu          sync.Mutex
	adminActive map[int64]bool
}

func NewRouter(user, admin Handler) *Router {
	return &Router{user: user, admin: admin, adminActive: make(map[int64]bool)}
}

func (r *Router) Handle(ctx context.Context, ev Event) Reply {
	if r.routesToAdmin(ev) {
		return r.admin.Handle(ctx, ev)
	}
	return r.user.Handle(ctx, ev)
}

func (r *Router) routesToAdmin(ev Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	var toAdmin bool
	switch text := strings.TrimSpace(ev.Text); {
	case ev.Data != "":
		toAdmin = strings.HasPrefix(ev.Data, adminPrefix)
	case ev.Contact:
		toAdmin = false
	case text == adminCommand:
		toAdmin = true
	case strings.HasPrefix(text, startCommand):
		toAdmin = false
	default:
		toAdmin = r.adminActive[ev.ChatId]
	}

	if toAdmin {
		r.adminActive[ev.ChatId] = true
	} else {
		delete(r.adminActive, ev.ChatId)
	}
	return toAdmin
}

// parseSuffixId parses the positive integer following prefix in data.
func parseSuffixId(data, prefix string) (int64, bool) {
	if !strings.HasPrefix(data, prefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// startReferrer extracts the referrer account id from "/start <id>".
func startReferrer(text string) *int64 {
	fields := strings.Fields(text)
	if len(fields) != 2 || fields[0] != startCommand {
		return nil
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}
