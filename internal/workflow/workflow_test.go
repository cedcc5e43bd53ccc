package workflow

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"referral-ledger-go/internal/api"
	"referral-ledger-go/internal/auth"
	"referral-ledger-go/internal/database"
	"referral-ledger-go/internal/models"
	"referral-ledger-go/internal/nav"
	"referral-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

const testAdminChat int64 = 900

var testBanks = []models.Bank{
	{Code: "sber", Name: "Sberbank"},
	{Code: "vtb", Name: "VTB"},
}

type testEnv struct {
	ledger *api.LedgerService
	user   *UserFlow
	admin  *AdminConsole
	router *Router
}

func setupTestFlows(t *testing.T) (*testEnv, func()) {
	return setupTestFlowsWithStore(t, nil)
}

// setupTestFlowsWithStore builds the flows over the test database, optionally
// wrapped so a test can inject store failures.
func setupTestFlowsWithStore(t *testing.T, wrap func(store.LedgerStore) store.LedgerStore) (*testEnv, func()) {
	t.Helper()

	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "workflow_test.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		PingTimeout:  5 * time.Second,
		BusyTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	var st store.LedgerStore = db
	if wrap != nil {
		st = wrap(db)
	}
	ledger := api.NewLedgerService(st, models.LedgerConfig{
		ReferralRate:    decimal.RequireFromString("0.10"),
		MinWithdrawal:   decimal.NewFromInt(100),
		InstantFeeRate:  decimal.RequireFromString("0.05"),
		CurrencySymbol:  "₽",
		DisplayLocale:   "en",
		HistoryPageSize: 5,
		PendingPageSize: 3,
	})

	policy := auth.NewAdminPolicy([]int64{testAdminChat})
	env := &testEnv{
		ledger: ledger,
		user:   NewUserFlow(ledger, testBanks, policy.Admins()),
		admin:  NewAdminConsole(ledger, policy),
	}
	env.router = NewRouter(env.user, env.admin)
	return env, db.Close
}

func press(h Handler, chatId int64, data string) Reply {
	return h.Handle(context.Background(), Event{ChatId: chatId, DisplayName: "user" + strconv.FormatInt(chatId, 10), Phone: "+79990000000", Data: data})
}

func send(h Handler, chatId int64, text string) Reply {
	return h.Handle(context.Background(), Event{ChatId: chatId, DisplayName: "user" + strconv.FormatInt(chatId, 10), Phone: "+79990000000", Text: text})
}

func userByChat(t *testing.T, env *testEnv, chatId int64) *models.User {
	t.Helper()

	user, err := env.ledger.GetUserByChatId(context.Background(), chatId)
	if err != nil {
		t.Fatalf("Failed to load user for chat %d: %v", chatId, err)
	}
	return user
}

// registerFunded registers a user through the flow and credits amount to them.
func registerFunded(t *testing.T, env *testEnv, chatId int64, amount string) *models.User {
	t.Helper()

	send(env.user, chatId, "/start")
	user := userByChat(t, env, chatId)
	if amount != "" {
		if _, err := env.ledger.CreditWork(context.Background(), user.Id, decimal.RequireFromString(amount), "test funding"); err != nil {
			t.Fatalf("Failed to fund user: %v", err)
		}
	}
	return userByChat(t, env, chatId)
}

func userState(env *testEnv, chatId int64) (nav.State, userForm) {
	session, release := env.user.Sessions().Acquire(chatId)
	defer release()
	return session.State, session.Form
}

func countActions(screen nav.Screen, prefix string) int {
	n := 0
	for _, data := range screen.ActionData() {
		if strings.HasPrefix(data, prefix) {
			n++
		}
	}
	return n
}

func TestGraphsAreValid(t *testing.T) {
	if err := UserGraph().Validate(); err != nil {
		t.Errorf("User graph invalid: %v", err)
	}
	if err := AdminGraph().Validate(); err != nil {
		t.Errorf("Admin graph invalid: %v", err)
	}
}

func TestStartReferrer(t *testing.T) {
	tests := []struct {
		text string
		want int64
	}{
		{"/start 42", 42},
		{"/start", 0},
		{"/start abc", 0},
		{"/start -3", 0},
		{"hello 42", 0},
	}

	for _, tt := range tests {
		got := startReferrer(tt.text)
		switch {
		case tt.want == 0 && got != nil:
			t.Errorf("startReferrer(%q) = %d, want nil", tt.text, *got)
		case tt.want != 0 && (got == nil || *got != tt.want):
			t.Errorf("startReferrer(%q) = %v, want %d", tt.text, got, tt.want)
		}
	}
}

func TestRouter_RoutesByDataAndLastFlow(t *testing.T) {
	env, cleanup := setupTestFlows(t)
	defer cleanup()

	reply := send(env.router, testAdminChat, "/admin")
	if reply.Screen.Title != "Admin menu" {
		t.Fatalf("Expected admin menu, got %q", reply.Screen.Title)
	}

	press(env.router, testAdminChat, actionChangeBalance)
	reply = send(env.router, testAdminChat, "not a balance change")
	if !strings.HasPrefix(reply.Screen.Title, "Change balance") {
		t.Errorf("Expected text to reach the admin console, got %q", reply.Screen.Title)
	}

	reply = press(env.router, testAdminChat, actionProfile)
	if reply.Screen.Title != "Profile" {
		t.Errorf("Expected user data to reach the user flow, got %q", reply.Screen.Title)
	}

	reply = send(env.router, testAdminChat, "hello")
	if reply.Screen.Title != "Profile" {
		t.Errorf("Expected text to follow the user flow after a user action, got %q", reply.Screen.Title)
	}

	// A shared contact always belongs to the user flow
	send(env.router, testAdminChat, "/admin")
	env.router.Handle(context.Background(), Event{ChatId: testAdminChat, DisplayName: "admin", Phone: "+79997770000", Contact: true})
	if got := userByChat(t, env, testAdminChat).Phone; got != "+79997770000" {
		t.Errorf("Expected contact to update the phone through the user flow, got %q", got)
	}
}
