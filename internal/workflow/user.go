package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"referral-ledger-go/internal/api"
	"referral-ledger-go/internal/auth"
	"referral-ledger-go/internal/common"
	"referral-ledger-go/internal/models"
	"referral-ledger-go/internal/nav"
	"referral-ledger-go/internal/store"

	"go.uber.org/zap"
)

// UserFlow serves the profile, withdrawal history and withdrawal screens.
type UserFlow struct {
	ledger   *api.LedgerService
	gate     *auth.Gate
	banks    []models.Bank
	admins   []int64
	money    *common.MoneyFormatter
	graph    *nav.Graph
	sessions *nav.Store[userForm]
	pageSize int
}

// NewUserFlow builds the user flow. Admins receive a notice for every
// submitted withdrawal.
func NewUserFlow(ledger *api.LedgerService, banks []models.Bank, admins []int64) *UserFlow {
	cfg := ledger.Config()
	return &UserFlow{
		ledger:   ledger,
		gate:     auth.NewGate(ledger),
		banks:    banks,
		admins:   admins,
		money:    common.NewMoneyFormatter(cfg.DisplayLocale, cfg.CurrencySymbol),
		graph:    UserGraph(),
		sessions: nav.NewStore[userForm](),
		pageSize: cfg.HistoryPageSize,
	}
}

// Sessions exposes the session store for eviction.
func (f *UserFlow) Sessions() *nav.Store[userForm] {
	return f.sessions
}

func (f *UserFlow) Handle(ctx context.Context, ev Event) Reply {
	session, release := f.sessions.Acquire(ev.ChatId)
	defer release()

	name := strings.TrimSpace(ev.DisplayName)
	if name == "" {
		name = fmt.Sprintf("user%d", ev.ChatId)
	}
	user, created, err := f.ledger.GetOrRegisterUser(ctx, api.RegisterUserParams{
		ChatId:      ev.ChatId,
		DisplayName: name,
		Phone:       ev.Phone,
		ReferrerId:  startReferrer(ev.Text),
	})
	if err != nil {
		return f.fail(session, ev.ChatId, "load_user", err)
	}
	if created {
		zap.L().Info("Registered new user", zap.Int64("user_id", user.Id), zap.Int64("chat_id", ev.ChatId))
	}
	if err := f.ledger.Touch(ctx, user.Id); err != nil {
		zap.L().Warn("Failed to record activity", zap.Int64("user_id", user.Id), zap.Error(err))
	}

	switch {
	case ev.Contact:
		return f.shareContact(ctx, session, user, ev.Phone)
	case ev.Data == "":
		return f.handleText(ctx, session, user, ev.Text)
	case ev.Data == actionProfile || ev.Data == actionToProfile:
		return f.showProfile(session, user)
	case ev.Data == actionHistory:
		return f.showHistory(ctx, session, user, 1)
	case ev.Data == actionReferrals:
		return f.showReferrals(ctx, session, user)
	case ev.Data == actionWithdraw:
		return f.startWithdrawal(ctx, session, user)
	case ev.Data == actionBack:
		return f.back(ctx, session, user)
	}

	// Everything else is only valid on the screen that offered it
	if !session.Screen.HasAction(ev.Data) {
		return f.stale(session, user)
	}

	switch {
	case strings.HasPrefix(ev.Data, actionHistoryPage):
		page, err := strconv.Atoi(strings.TrimPrefix(ev.Data, actionHistoryPage))
		if err != nil {
			return f.stale(session, user)
		}
		return f.showHistory(ctx, session, user, page)
	case ev.Data == actionChooseBank:
		return f.showBanks(session)
	case strings.HasPrefix(ev.Data, actionBank):
		return f.selectBank(session, user, strings.TrimPrefix(ev.Data, actionBank))
	case strings.HasPrefix(ev.Data, actionTier):
		return f.selectTier(session, user, models.WithdrawalTier(strings.TrimPrefix(ev.Data, actionTier)))
	case ev.Data == actionDestPhone:
		return f.enterDestination(session, user, user.Phone)
	}
	return f.stale(session, user)
}

func (f *UserFlow) handleText(ctx context.Context, session *nav.Session[userForm], user *models.User, text string) Reply {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, startCommand) {
		session.Reset()
		return f.showProfile(session, user)
	}

	switch session.State {
	case StateDestinationEntry:
		return f.enterDestination(session, user, text)
	case StateAmountEntry:
		return f.submit(ctx, session, user, text)
	case "":
		return f.showProfile(session, user)
	}
	return Reply{Screen: session.Screen, Alert: defaultTextInputHint}
}

// back redisplays the stored screen of the back target. A target never shown
// in this session is rendered fresh.
func (f *UserFlow) back(ctx context.Context, session *nav.Session[userForm], user *models.User) Reply {
	target, screen, ok, found := session.Back(f.graph)
	if !ok {
		return f.showProfile(session, user)
	}
	if found {
		return Reply{Screen: screen}
	}

	switch target {
	case StateMoneyWithdrawal:
		return f.startWithdrawal(ctx, session, user)
	case StateBankSelection:
		return f.showBanks(session)
	case StateTierSelection:
		if session.Form.Withdrawal.Bank.Code == "" {
			return f.showBanks(session)
		}
		return f.showTiers(session)
	case StateDestinationEntry:
		return f.promptDestination(session, user, "")
	case StateHistory:
		return f.showHistory(ctx, session, user, session.Form.HistoryPage)
	case StateReferrals:
		return f.showReferrals(ctx, session, user)
	default:
		return f.showProfile(session, user)
	}
}

// stale answers an action that does not belong to the current screen.
func (f *UserFlow) stale(session *nav.Session[userForm], user *models.User) Reply {
	if session.State == "" {
		return f.showProfile(session, user)
	}
	return Reply{Screen: session.Screen, Alert: "This menu is out of date."}
}

func (f *UserFlow) showProfile(session *nav.Session[userForm], user *models.User) Reply {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", user.DisplayName)
	fmt.Fprintf(&b, "ID: %d\n", user.Id)
	fmt.Fprintf(&b, "Total earned: %s\n", f.money.Format(user.TotalEarnings()))
	fmt.Fprintf(&b, "Referral earnings: %s\n", f.money.Format(user.ReferralEarnings))
	fmt.Fprintf(&b, "Balance: %s\n\n", f.money.Format(user.AccountBalance))
	fmt.Fprintf(&b, "Invite friends with: %s %d", startCommand, user.Id)

	screen := nav.Screen{
		Title: "Profile",
		Body:  b.String(),
		Actions: [][]nav.Action{
			nav.Row(nav.Action{Label: "Withdrawal history", Data: actionHistory}),
			nav.Row(nav.Action{Label: "My referrals", Data: actionReferrals}),
			nav.Row(nav.Action{Label: "Withdraw funds", Data: actionWithdraw}),
		},
	}
	session.Enter(f.graph, StateProfile, screen)
	return Reply{Screen: screen}
}

func (f *UserFlow) showHistory(ctx context.Context, session *nav.Session[userForm], user *models.User, page int) Reply {
	result, err := f.ledger.GetWithdrawalHistory(ctx, user.Id, page, f.pageSize)
	if err != nil {
		return f.fail(session, user.Id, "withdrawal_history", err)
	}

	lines := make([]string, 0, len(result.Items))
	for _, w := range result.Items {
		lines = append(lines, withdrawalLine(f.money, w))
	}
	body := strings.Join(lines, "\n")
	if result.Total == 0 {
		body = "You have no withdrawals yet."
	}

	var actions [][]nav.Action
	if row := pagerRow(result.PageInfo, actionHistoryPage); row != nil {
		actions = append(actions, row)
	}
	actions = append(actions, nav.Row(backAction))

	screen := nav.Screen{Title: pageTitle("Withdrawal history", result.PageInfo), Body: body, Actions: actions}
	session.Form.HistoryPage = result.Page
	session.Enter(f.graph, StateHistory, screen)
	return Reply{Screen: screen}
}

// showReferrals lists the accounts this user invited. Blocked accounts stay in
// the list with a marker since their past commission still counts.
func (f *UserFlow) showReferrals(ctx context.Context, session *nav.Session[userForm], user *models.User) Reply {
	referred, err := f.ledger.ListReferrals(ctx, user.Id)
	if err != nil {
		return f.fail(session, user.Id, "list_referrals", err)
	}

	var b strings.Builder
	if len(referred) == 0 {
		b.WriteString("You have not invited anyone yet.\n")
	}
	for _, r := range referred {
		marker := ""
		if r.Blacklisted {
			marker = " [blocked]"
		}
		fmt.Fprintf(&b, "%s (ID %d) · joined %s%s\n", r.User.DisplayName, r.User.Id, formatTime(r.JoinedAt), marker)
	}
	fmt.Fprintf(&b, "\nReferral earnings: %s\n", f.money.Format(user.ReferralEarnings))
	fmt.Fprintf(&b, "Commission: %s of what your referrals earn\n", percent(f.ledger.Config().ReferralRate))
	fmt.Fprintf(&b, "Invite friends with: %s %d", startCommand, user.Id)

	screen := nav.Screen{
		Title:   fmt.Sprintf("My referrals (%d)", len(referred)),
		Body:    b.String(),
		Actions: [][]nav.Action{nav.Row(backAction)},
	}
	session.Enter(f.graph, StateReferrals, screen)
	return Reply{Screen: screen}
}

func (f *UserFlow) fail(session *nav.Session[userForm], userId int64, op string, err error) Reply {
	var body string
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		body = fmt.Sprintf("Your account was not found. Send %s to register again.", startCommand)
	case errors.Is(err, api.ErrBlacklisted):
		body = "Your account is blocked. Contact support if you think this is a mistake."
	default:
		body = "The service is temporarily unavailable. Please try again later."
	}
	zap.L().Warn("User flow aborted", zap.String("operation", op), zap.Int64("user_id", userId), zap.Error(err))

	screen := nav.Screen{Title: "Something went wrong", Body: body, Actions: [][]nav.Action{nav.Row(toProfileAction)}}
	session.Enter(f.graph, StateFailed, screen)
	if errors.Is(err, store.ErrUserNotFound) {
		session.Reset()
	}
	return Reply{Screen: screen}
}
