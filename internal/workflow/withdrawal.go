package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"referral-ledger-go/internal/api"
	"referral-ledger-go/internal/common"
	"referral-ledger-go/internal/models"
	"referral-ledger-go/internal/nav"
	"referral-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (f *UserFlow) startWithdrawal(ctx context.Context, session *nav.Session[userForm], user *models.User) Reply {
	if err := f.gate.Allow(ctx, user.Id); err != nil {
		return f.fail(session, user.Id, "start_withdrawal", err)
	}

	cfg := f.ledger.Config()
	var b strings.Builder
	fmt.Fprintf(&b, "Available: %s\n", f.money.Format(user.AccountBalance))
	fmt.Fprintf(&b, "Minimum withdrawal: %s\n\n", f.money.Format(cfg.MinWithdrawal))
	fmt.Fprintf(&b, "Instant payouts carry a %s fee. Delayed payouts are free.", percent(cfg.InstantFeeRate))

	screen := nav.Screen{
		Title: "Withdraw funds",
		Body:  b.String(),
		Actions: [][]nav.Action{
			nav.Row(nav.Action{Label: "Choose bank", Data: actionChooseBank}),
			nav.Row(backAction),
		},
	}
	session.Form.Withdrawal = withdrawalForm{}
	session.Enter(f.graph, StateMoneyWithdrawal, screen)
	return Reply{Screen: screen}
}

func (f *UserFlow) showBanks(session *nav.Session[userForm]) Reply {
	actions := make([][]nav.Action, 0, len(f.banks)+1)
	for _, bank := range f.banks {
		actions = append(actions, nav.Row(nav.Action{Label: bank.Name, Data: actionBank + bank.Code}))
	}
	actions = append(actions, nav.Row(backAction))

	screen := nav.Screen{Title: "Choose your bank", Body: "Payouts are sent to an account in the selected bank.", Actions: actions}
	session.Enter(f.graph, StateBankSelection, screen)
	return Reply{Screen: screen}
}

func (f *UserFlow) selectBank(session *nav.Session[userForm], user *models.User, code string) Reply {
	bank, ok := common.FindBank(f.banks, code)
	if !ok {
		return f.stale(session, user)
	}
	session.Form.Withdrawal.Bank = bank
	return f.showTiers(session)
}

// showTiers offers both payout speeds for the chosen bank.
func (f *UserFlow) showTiers(session *nav.Session[userForm]) Reply {
	cfg := f.ledger.Config()
	screen := nav.Screen{
		Title: "Payout speed",
		Body:  fmt.Sprintf("Bank: %s\n\nInstant: paid out right away, %s fee.\nDelayed: paid out within 3 business days, no fee.", session.Form.Withdrawal.Bank.Name, percent(cfg.InstantFeeRate)),
		Actions: [][]nav.Action{
			nav.Row(
				nav.Action{Label: fmt.Sprintf("Instant (%s fee)", percent(cfg.InstantFeeRate)), Data: actionTier + string(models.TierInstant)},
				nav.Action{Label: "Delayed (free)", Data: actionTier + string(models.TierDelayed)},
			),
			nav.Row(backAction),
		},
	}
	session.Enter(f.graph, StateTierSelection, screen)
	return Reply{Screen: screen}
}

func (f *UserFlow) selectTier(session *nav.Session[userForm], user *models.User, tier models.WithdrawalTier) Reply {
	if !tier.Valid() {
		return f.stale(session, user)
	}
	session.Form.Withdrawal.Tier = tier
	return f.promptDestination(session, user, "")
}

func (f *UserFlow) promptDestination(session *nav.Session[userForm], user *models.User, problem string) Reply {
	body := "Send the card or phone number the payout should go to."
	if problem != "" {
		body = problem + "\n\n" + body
	}

	var actions [][]nav.Action
	if user.Phone != "" {
		actions = append(actions, nav.Row(nav.Action{Label: "Use " + user.Phone, Data: actionDestPhone}))
	}
	actions = append(actions, nav.Row(backAction))

	screen := nav.Screen{Title: "Payout destination", Body: body, Actions: actions, ContactRequest: "Share my phone number"}
	session.Enter(f.graph, StateDestinationEntry, screen)
	return Reply{Screen: screen}
}

// shareContact saves a shared phone number. While the payout destination is
// being asked for, the number also becomes the destination.
func (f *UserFlow) shareContact(ctx context.Context, session *nav.Session[userForm], user *models.User, phone string) Reply {
	updated, err := f.ledger.UpdatePhone(ctx, user.Id, phone)
	switch {
	case api.IsValidationError(err):
		return Reply{Screen: session.Screen, Alert: "The shared contact has no phone number."}
	case err != nil:
		return f.fail(session, user.Id, "update_phone", err)
	}

	switch session.State {
	case StateDestinationEntry:
		return f.enterDestination(session, updated, updated.Phone)
	case "":
		return f.showProfile(session, updated)
	}
	return Reply{Screen: session.Screen, Alert: "Phone number saved."}
}

// enterDestination stores the destination verbatim; only emptiness is rejected.
func (f *UserFlow) enterDestination(session *nav.Session[userForm], user *models.User, destination string) Reply {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return f.promptDestination(session, user, "The destination cannot be empty.")
	}
	session.Form.Withdrawal.Destination = destination
	return f.promptAmount(session, user, "")
}

func (f *UserFlow) promptAmount(session *nav.Session[userForm], user *models.User, problem string) Reply {
	form := session.Form.Withdrawal
	var b strings.Builder
	if problem != "" {
		fmt.Fprintf(&b, "%s\n\n", problem)
	}
	fmt.Fprintf(&b, "Bank: %s\n", form.Bank.Name)
	fmt.Fprintf(&b, "Destination: %s\n", form.Destination)
	fmt.Fprintf(&b, "Speed: %s\n", tierLabel(form.Tier))
	fmt.Fprintf(&b, "Available: %s\n\n", f.money.Format(user.AccountBalance))
	fmt.Fprintf(&b, "Send the amount to withdraw (minimum %s).", f.money.Format(f.ledger.Config().MinWithdrawal))

	screen := nav.Screen{Title: "Withdrawal amount", Body: b.String(), Actions: [][]nav.Action{nav.Row(backAction)}}
	session.Enter(f.graph, StateAmountEntry, screen)
	return Reply{Screen: screen}
}

func (f *UserFlow) submit(ctx context.Context, session *nav.Session[userForm], user *models.User, text string) Reply {
	amount, err := f.ledger.ValidateWithdrawalAmount(text)
	if err != nil {
		var validation *api.ValidationError
		if errors.As(err, &validation) {
			return f.promptAmount(session, user, "Invalid amount: "+validation.Message+".")
		}
		return f.fail(session, user.Id, "submit_withdrawal", err)
	}

	if err := f.gate.Allow(ctx, user.Id); err != nil {
		return f.fail(session, user.Id, "submit_withdrawal", err)
	}

	form := session.Form.Withdrawal
	request, err := f.ledger.SubmitWithdrawal(ctx, api.SubmitWithdrawalParams{
		UserId:      user.Id,
		Tier:        form.Tier,
		Bank:        form.Bank.Name,
		Destination: form.Destination,
		Amount:      amount,
	})
	switch {
	case errors.Is(err, store.ErrInsufficientFunds):
		return f.insufficientFunds(session, user, amount)
	case api.IsValidationError(err):
		// The form lost a step, e.g. after a restart; start the flow again
		zap.L().Warn("Incomplete withdrawal form", zap.Int64("user_id", user.Id), zap.Error(err))
		return f.startWithdrawal(ctx, session, user)
	case err != nil:
		return f.fail(session, user.Id, "submit_withdrawal", err)
	}

	body := withdrawalDetails(f.money, *request)
	if updated, err := f.ledger.GetUser(ctx, user.Id); err == nil {
		body += "\n\nBalance: " + f.money.Format(updated.AccountBalance)
	}

	screen := nav.Screen{
		Title:   fmt.Sprintf("Withdrawal request #%d submitted", request.Id),
		Body:    body,
		Actions: [][]nav.Action{nav.Row(toProfileAction)},
	}
	session.Enter(f.graph, StateSubmitted, screen)
	return Reply{Screen: screen, Notices: f.adminNotices(user, request)}
}

func (f *UserFlow) insufficientFunds(session *nav.Session[userForm], user *models.User, requested decimal.Decimal) Reply {
	screen := nav.Screen{
		Title: "Insufficient funds",
		Body: fmt.Sprintf("You requested %s but your balance is %s.",
			f.money.Format(requested), f.money.Format(user.AccountBalance)),
		Actions: [][]nav.Action{nav.Row(toProfileAction)},
	}
	session.Enter(f.graph, StateInsufficientFunds, screen)
	return Reply{Screen: screen}
}

func (f *UserFlow) adminNotices(user *models.User, request *models.WithdrawalRequest) []Notice {
	if len(f.admins) == 0 {
		return nil
	}
	marker := ""
	if request.Tier.Urgent() {
		marker = "⚡ "
	}
	text := fmt.Sprintf("%sNew withdrawal request #%d from %s (ID %d)\n%s",
		marker, request.Id, user.DisplayName, user.Id, withdrawalDetails(f.money, *request))

	notices := make([]Notice, 0, len(f.admins))
	for _, chatId := range f.admins {
		notices = append(notices, Notice{ChatId: chatId, Text: text})
	}
	return notices
}
