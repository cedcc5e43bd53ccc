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

var adminPrompts = map[nav.State]struct{ title, body string }{
	StateChangeBalance:   {"Change balance", "Send \"<user_id> <new_balance>\"."},
	StateDeleteUser:      {"Delete user", "Send the id of the user to delete. Their referrals, withdrawals and receipts are deleted too."},
	StateBulkCredit:      {"Bulk credit", "Send one \"<user_id> <amount> [description]\" per line. Referral commissions are paid automatically."},
	StateBlacklistToggle: {"Blacklist", "Send the id of the user to block or unblock."},
}

// AdminConsole serves the pending withdrawal queue and the account tools.
type AdminConsole struct {
	ledger   *api.LedgerService
	policy   auth.Policy
	money    *common.MoneyFormatter
	graph    *nav.Graph
	sessions *nav.Store[adminForm]
	pageSize int
}

func NewAdminConsole(ledger *api.LedgerService, policy auth.Policy) *AdminConsole {
	cfg := ledger.Config()
	return &AdminConsole{
		ledger:   ledger,
		policy:   policy,
		money:    common.NewMoneyFormatter(cfg.DisplayLocale, cfg.CurrencySymbol),
		graph:    AdminGraph(),
		sessions: nav.NewStore[adminForm](),
		pageSize: cfg.PendingPageSize,
	}
}

func (c *AdminConsole) Sessions() *nav.Store[adminForm] {
	return c.sessions
}

func (c *AdminConsole) Handle(ctx context.Context, ev Event) Reply {
	session, release := c.sessions.Acquire(ev.ChatId)
	defer release()

	if !c.policy.IsAdmin(ev.ChatId) {
		zap.L().Warn("Admin console access denied", zap.Int64("chat_id", ev.ChatId))
		screen := nav.Screen{Title: "Access denied", Body: "This section is for administrators only.", Actions: [][]nav.Action{nav.Row(toProfileAction)}}
		session.Enter(c.graph, StateAdminDenied, screen)
		return Reply{Screen: screen}
	}

	if ev.Data == "" {
		return c.handleText(ctx, session, ev.ChatId, strings.TrimSpace(ev.Text))
	}

	switch ev.Data {
	case actionAdminMenu:
		return c.showMenu(session)
	case actionAdminBack:
		return c.back(ctx, session)
	case actionPending:
		return c.showPending(ctx, session, 1, "")
	}

	if !session.Screen.HasAction(ev.Data) {
		if session.State == "" {
			return c.showMenu(session)
		}
		return Reply{Screen: session.Screen, Alert: "This menu is out of date."}
	}

	switch {
	case strings.HasPrefix(ev.Data, actionPendingPage):
		page, err := strconv.Atoi(strings.TrimPrefix(ev.Data, actionPendingPage))
		if err == nil {
			return c.showPending(ctx, session, page, "")
		}
	case strings.HasPrefix(ev.Data, actionRequest):
		if id, ok := parseSuffixId(ev.Data, actionRequest); ok {
			return c.showRequest(ctx, session, id)
		}
	case strings.HasPrefix(ev.Data, actionApprove):
		if id, ok := parseSuffixId(ev.Data, actionApprove); ok {
			return c.decide(ctx, session, id, models.StatusApproved)
		}
	case strings.HasPrefix(ev.Data, actionCancel):
		if id, ok := parseSuffixId(ev.Data, actionCancel); ok {
			return c.decide(ctx, session, id, models.StatusCancelled)
		}
	case ev.Data == actionChangeBalance:
		return c.prompt(session, StateChangeBalance, "")
	case ev.Data == actionDeleteUser:
		return c.prompt(session, StateDeleteUser, "")
	case ev.Data == actionBulkCredit:
		return c.prompt(session, StateBulkCredit, "")
	case ev.Data == actionBlacklist:
		return c.prompt(session, StateBlacklistToggle, "")
	}
	return Reply{Screen: session.Screen, Alert: "This menu is out of date."}
}

func (c *AdminConsole) handleText(ctx context.Context, session *nav.Session[adminForm], chatId int64, text string) Reply {
	switch session.State {
	case StateChangeBalance:
		return c.changeBalance(ctx, session, text)
	case StateDeleteUser:
		return c.deleteUser(ctx, session, text)
	case StateBulkCredit:
		return c.bulkCredit(ctx, session, chatId, text)
	case StateBlacklistToggle:
		return c.toggleBlacklist(ctx, session, text)
	}
	return c.showMenu(session)
}

func (c *AdminConsole) back(ctx context.Context, session *nav.Session[adminForm]) Reply {
	target, screen, ok, found := session.Back(c.graph)
	if !ok {
		return c.showMenu(session)
	}
	if found {
		return Reply{Screen: screen}
	}
	if target == StatePendingList {
		return c.showPending(ctx, session, session.Form.PendingPage, "")
	}
	return c.showMenu(session)
}

func (c *AdminConsole) showMenu(session *nav.Session[adminForm]) Reply {
	screen := nav.Screen{
		Title: "Admin menu",
		Actions: [][]nav.Action{
			nav.Row(nav.Action{Label: "Pending withdrawals", Data: actionPending}),
			nav.Row(nav.Action{Label: "Change balance", Data: actionChangeBalance}, nav.Action{Label: "Bulk credit", Data: actionBulkCredit}),
			nav.Row(nav.Action{Label: "Delete user", Data: actionDeleteUser}, nav.Action{Label: "Blacklist", Data: actionBlacklist}),
		},
	}
	session.Enter(c.graph, StateAdminMenu, screen)
	return Reply{Screen: screen}
}

// showPending lists pending requests, urgent (instant) first, oldest first within each group.
func (c *AdminConsole) showPending(ctx context.Context, session *nav.Session[adminForm], page int, header string) Reply {
	pending, err := c.ledger.ListPending(ctx)
	if err != nil {
		return c.result(session, "list_pending", err)
	}

	items, info := api.PageOf(pending.All(), page, c.pageSize)

	var body strings.Builder
	if header != "" {
		fmt.Fprintf(&body, "%s\n\n", header)
	}
	fmt.Fprintf(&body, "Urgent: %d · Normal: %d", len(pending.Urgent), len(pending.Normal))
	if info.Total == 0 {
		body.WriteString("\n\nNo pending requests.")
	}

	actions := make([][]nav.Action, 0, len(items)+2)
	for _, w := range items {
		label := fmt.Sprintf("#%d · %s · %s", w.Id, c.money.Format(w.Amount), formatTime(w.CreatedAt))
		if w.Tier.Urgent() {
			label = "⚡ " + label
		}
		actions = append(actions, nav.Row(nav.Action{Label: label, Data: actionRequest + strconv.FormatInt(w.Id, 10)}))
	}
	if row := pagerRow(info, actionPendingPage); row != nil {
		actions = append(actions, row)
	}
	actions = append(actions, nav.Row(adminBackAction))

	screen := nav.Screen{Title: pageTitle("Pending withdrawals", info), Body: body.String(), Actions: actions}
	session.Form.PendingPage = info.Page
	session.Enter(c.graph, StatePendingList, screen)
	return Reply{Screen: screen}
}

func (c *AdminConsole) showRequest(ctx context.Context, session *nav.Session[adminForm], requestId int64) Reply {
	request, err := c.ledger.GetWithdrawal(ctx, requestId)
	if err != nil {
		if errors.Is(err, store.ErrWithdrawalNotFound) {
			return c.showPending(ctx, session, session.Form.PendingPage, fmt.Sprintf("Request #%d no longer exists.", requestId))
		}
		return c.result(session, "get_withdrawal", err)
	}

	var body strings.Builder
	if user, err := c.ledger.GetUser(ctx, request.UserId); err == nil {
		fmt.Fprintf(&body, "User: %s (ID %d)\nBalance: %s\n\n", user.DisplayName, user.Id, c.money.Format(user.AccountBalance))
	}
	body.WriteString(withdrawalDetails(c.money, *request))
	fmt.Fprintf(&body, "\nReference: %s", request.Reference)

	id := strconv.FormatInt(request.Id, 10)
	var actions [][]nav.Action
	if request.Status == models.StatusPending {
		actions = append(actions, nav.Row(
			nav.Action{Label: "Approve", Data: actionApprove + id},
			nav.Action{Label: "Cancel", Data: actionCancel + id},
		))
	}
	actions = append(actions, nav.Row(adminBackAction))

	screen := nav.Screen{Title: fmt.Sprintf("Withdrawal request #%d", request.Id), Body: body.String(), Actions: actions}
	session.Form.RequestId = request.Id
	session.Enter(c.graph, StateRequestDetail, screen)
	return Reply{Screen: screen}
}

// decide approves or cancels a request and returns to the refreshed queue.
// The owner is notified of the outcome.
func (c *AdminConsole) decide(ctx context.Context, session *nav.Session[adminForm], requestId int64, to models.WithdrawalStatus) Reply {
	var request *models.WithdrawalRequest
	var err error
	if to == models.StatusApproved {
		request, err = c.ledger.Approve(ctx, requestId)
	} else {
		request, err = c.ledger.Cancel(ctx, requestId)
	}

	switch {
	case errors.Is(err, store.ErrInvalidTransition):
		return c.showPending(ctx, session, session.Form.PendingPage, fmt.Sprintf("Request #%d was already processed.", requestId))
	case errors.Is(err, store.ErrWithdrawalNotFound):
		return c.showPending(ctx, session, session.Form.PendingPage, fmt.Sprintf("Request #%d no longer exists.", requestId))
	case err != nil:
		return c.result(session, "transition_withdrawal", err)
	}

	reply := c.showPending(ctx, session, session.Form.PendingPage, fmt.Sprintf("Request #%d %s.", request.Id, strings.ToLower(statusLabel(request.Status))))
	if user, err := c.ledger.GetUser(ctx, request.UserId); err == nil {
		reply.Notices = append(reply.Notices, Notice{
			ChatId: user.ChatId,
			Text:   fmt.Sprintf("Your withdrawal request #%d of %s is now: %s", request.Id, c.money.Format(request.Amount), statusLabel(request.Status)),
		})
	} else {
		zap.L().Warn("Failed to notify withdrawal owner", zap.Int64("withdrawal_id", request.Id), zap.Error(err))
	}
	return reply
}

// prompt shows the input screen of state, with problem above the instructions
// when the previous input was rejected.
func (c *AdminConsole) prompt(session *nav.Session[adminForm], state nav.State, problem string) Reply {
	p := adminPrompts[state]
	body := p.body
	if problem != "" {
		body = problem + "\n\n" + body
	}
	screen := nav.Screen{Title: p.title, Body: body, Actions: [][]nav.Action{nav.Row(adminBackAction)}}
	session.Enter(c.graph, state, screen)
	return Reply{Screen: screen}
}

func (c *AdminConsole) changeBalance(ctx context.Context, session *nav.Session[adminForm], text string) Reply {
	userId, newBalance, err := api.ParseBalanceChange(text)
	if err != nil {
		return c.prompt(session, session.State, err.Error())
	}

	user, err := c.ledger.SetBalance(ctx, userId, newBalance, "admin override")
	if err != nil {
		return c.result(session, "set_balance", err)
	}
	return c.done(session, fmt.Sprintf("Balance of %s (ID %d) is now %s.", user.DisplayName, user.Id, c.money.Format(user.AccountBalance)))
}

func (c *AdminConsole) deleteUser(ctx context.Context, session *nav.Session[adminForm], text string) Reply {
	userId, err := api.ParseUserId(text)
	if err != nil {
		return c.prompt(session, session.State, err.Error())
	}
	if err := c.ledger.DeleteUser(ctx, userId); err != nil {
		return c.result(session, "delete_user", err)
	}
	return c.done(session, fmt.Sprintf("User %d deleted.", userId))
}

func (c *AdminConsole) bulkCredit(ctx context.Context, session *nav.Session[adminForm], chatId int64, text string) Reply {
	rows, parseErrs := api.ParseCreditRows(text)
	if len(rows) == 0 {
		problem := "No valid rows found."
		if len(parseErrs) > 0 {
			problem = parseErrs[0].Error()
		}
		return c.prompt(session, session.State, problem)
	}

	result := c.ledger.BulkCredit(ctx, rows)
	zap.L().Info("Admin bulk credit", zap.Int64("admin_chat_id", chatId), zap.Int("rows", len(rows)), zap.Int("rejected_lines", len(parseErrs)))

	var b strings.Builder
	fmt.Fprintf(&b, "Credited: %d (%s)\nSkipped: %d\nFailed: %d", result.Credited, c.money.Format(result.Total), result.Skipped, result.Failed)
	for _, row := range result.Rows {
		if row.Success && row.Error == "" {
			continue
		}
		fmt.Fprintf(&b, "\n· %d: %s", row.Row.UserId, row.Error)
	}
	for _, err := range parseErrs {
		fmt.Fprintf(&b, "\n· %s", err.Error())
	}
	return c.done(session, b.String())
}

func (c *AdminConsole) toggleBlacklist(ctx context.Context, session *nav.Session[adminForm], text string) Reply {
	userId, err := api.ParseUserId(text)
	if err != nil {
		return c.prompt(session, session.State, err.Error())
	}
	blacklisted, err := c.ledger.ToggleBlacklist(ctx, userId, "admin console")
	if err != nil {
		return c.result(session, "toggle_blacklist", err)
	}
	if blacklisted {
		return c.done(session, fmt.Sprintf("User %d is now blocked.", userId))
	}
	return c.done(session, fmt.Sprintf("User %d is no longer blocked.", userId))
}

func (c *AdminConsole) done(session *nav.Session[adminForm], body string) Reply {
	screen := nav.Screen{Title: "Done", Body: body, Actions: [][]nav.Action{nav.Row(adminMenuAction)}}
	session.Enter(c.graph, StateAdminResult, screen)
	return Reply{Screen: screen}
}

// result reports a failed admin operation. Admin-only errors stay in the console.
func (c *AdminConsole) result(session *nav.Session[adminForm], op string, err error) Reply {
	var body string
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		body = "User not found."
	case errors.Is(err, store.ErrStoreUnavailable):
		body = "The database is temporarily unavailable. Try again later."
	case api.IsValidationError(err):
		body = err.Error()
	default:
		body = "Operation failed: " + err.Error()
	}
	zap.L().Warn("Admin operation failed", zap.String("operation", op), zap.Error(err))

	screen := nav.Screen{Title: "Operation failed", Body: body, Actions: [][]nav.Action{nav.Row(adminMenuAction)}}
	session.Enter(c.graph, StateAdminResult, screen)
	return Reply{Screen: screen}
}
