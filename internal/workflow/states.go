package workflow

import (
	"referral-ledger-go/internal/models"
	"referral-ledger-go/internal/nav"
)

// User flow states.
const (
	StateProfile           nav.State = "profile"
	StateHistory           nav.State = "history"
	StateReferrals         nav.State = "referrals"
	StateMoneyWithdrawal   nav.State = "money_withdrawal"
	StateBankSelection     nav.State = "bank_selection"
	StateTierSelection     nav.State = "tier_selection"
	StateDestinationEntry  nav.State = "destination_entry"
	StateAmountEntry       nav.State = "amount_entry"
	StateSubmitted         nav.State = "submitted"
	StateInsufficientFunds nav.State = "insufficient_funds"
	StateFailed            nav.State = "failed"
)

// Admin console states.
const (
	StateAdminMenu       nav.State = "admin_menu"
	StatePendingList     nav.State = "pending_list"
	StateRequestDetail   nav.State = "request_detail"
	StateChangeBalance   nav.State = "change_balance"
	StateDeleteUser      nav.State = "delete_user"
	StateBulkCredit      nav.State = "bulk_credit"
	StateBlacklistToggle nav.State = "blacklist_toggle"
	StateAdminResult     nav.State = "admin_result"
	StateAdminDenied     nav.State = "admin_denied"
)

// Callback data understood by the user flow.
const (
	actionProfile     = "profile"
	actionToProfile   = "to_profile"
	actionHistory     = "history"
	actionHistoryPage = "history_page:"
	actionReferrals   = "referrals"
	actionWithdraw    = "withdraw"
	actionChooseBank  = "choose_bank"
	actionBank        = "bank:"
	actionTier        = "tier:"
	actionDestPhone   = "dest:phone"
	actionBack        = "back"
)

// Callback data understood by the admin console. All of it carries the admin
// prefix so the router can tell the two flows apart.
const (
	adminPrefix          = "a:"
	actionAdminMenu      = adminPrefix + "menu"
	actionPending        = adminPrefix + "pending"
	actionPendingPage    = adminPrefix + "pending_page:"
	actionRequest        = adminPrefix + "request:"
	actionApprove        = adminPrefix + "approve:"
	actionCancel         = adminPrefix + "cancel:"
	actionChangeBalance  = adminPrefix + "change_balance"
	actionDeleteUser     = adminPrefix + "delete_user"
	actionBulkCredit     = adminPrefix + "bulk_credit"
	actionBlacklist      = adminPrefix + "blacklist"
	actionAdminBack      = adminPrefix + "back"
	adminCommand         = "/admin"
	startCommand         = "/start"
	defaultTextInputHint = "Use the buttons below."
)

// UserGraph is the navigation graph of the profile and withdrawal flow.
func UserGraph() *nav.Graph {
	return nav.NewGraph(StateProfile).
		Back(StateHistory, StateProfile).
		Back(StateReferrals, StateProfile).
		Back(StateMoneyWithdrawal, StateProfile).
		Back(StateBankSelection, StateMoneyWithdrawal).
		Back(StateTierSelection, StateBankSelection).
		Back(StateDestinationEntry, StateTierSelection).
		Back(StateAmountEntry, StateDestinationEntry).
		Terminal(StateSubmitted, StateInsufficientFunds, StateFailed)
}

// AdminGraph is the navigation graph of the admin console.
func AdminGraph() *nav.Graph {
	return nav.NewGraph(StateAdminMenu).
		Back(StatePendingList, StateAdminMenu).
		Back(StateRequestDetail, StatePendingList).
		Back(StateChangeBalance, StateAdminMenu).
		Back(StateDeleteUser, StateAdminMenu).
		Back(StateBulkCredit, StateAdminMenu).
		Back(StateBlacklistToggle, StateAdminMenu).
		Terminal(StateAdminResult, StateAdminDenied)
}

// withdrawalForm carries what the withdrawal flow has collected so far. Each
// field is owned by the state that fills it in.
type withdrawalForm struct {
	// BankSelection
	Bank models.Bank
	// TierSelection
	Tier models.WithdrawalTier
	// DestinationEntry
	Destination string
}

type userForm struct {
	HistoryPage int
	Withdrawal  withdrawalForm
}

type adminForm struct {
	PendingPage int
	RequestId   int64
}
