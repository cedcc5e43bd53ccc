package workflow

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"referral-ledger-go/internal/common"
	"referral-ledger-go/internal/models"
	"referral-ledger-go/internal/nav"

	"github.com/shopspring/decimal"
)

const displayTimeLayout = "02.01.2006 15:04"

var (
	backAction      = nav.Action{Label: "« Back", Data: actionBack}
	toProfileAction = nav.Action{Label: "Return to profile", Data: actionToProfile}
	adminBackAction = nav.Action{Label: "« Back", Data: actionAdminBack}
	adminMenuAction = nav.Action{Label: "Admin menu", Data: actionAdminMenu}
)

func statusLabel(status models.WithdrawalStatus) string {
	switch status {
	case models.StatusPending:
		return "Processing"
	case models.StatusApproved:
		return "Approved"
	case models.StatusCancelled:
		return "Cancelled"
	default:
		return string(status)
	}
}

func tierLabel(tier models.WithdrawalTier) string {
	switch tier {
	case models.TierInstant:
		return "Instant"
	case models.TierDelayed:
		return "Delayed"
	default:
		return string(tier)
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(displayTimeLayout)
}

func percent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).String() + "%"
}

// pagerRow returns the previous/next actions for info, or nil when there is one page.
func pagerRow(info models.PageInfo, prefix string) []nav.Action {
	var row []nav.Action
	if info.HasPrev {
		row = append(row, nav.Action{Label: "« Prev", Data: prefix + strconv.Itoa(info.Page-1)})
	}
	if info.HasNext {
		row = append(row, nav.Action{Label: "Next »", Data: prefix + strconv.Itoa(info.Page+1)})
	}
	return row
}

func pageTitle(title string, info models.PageInfo) string {
	if info.TotalPages <= 1 {
		return title
	}
	return fmt.Sprintf("%s (page %d/%d)", title, info.Page, info.TotalPages)
}

// withdrawalLine is the one-line summary used in lists.
func withdrawalLine(money *common.MoneyFormatter, w models.WithdrawalRequest) string {
	return fmt.Sprintf("#%d · %s · %s · %s · %s",
		w.Id, formatTime(w.CreatedAt), money.Format(w.Amount), tierLabel(w.Tier), statusLabel(w.Status))
}

func withdrawalDetails(money *common.MoneyFormatter, w models.WithdrawalRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Amount: %s\n", money.Format(w.Amount))
	fmt.Fprintf(&b, "Speed: %s\n", tierLabel(w.Tier))
	if w.Fee.IsPositive() {
		fmt.Fprintf(&b, "Fee: %s (payout %s)\n", money.Format(w.Fee), money.Format(w.Amount.Sub(w.Fee)))
	}
	fmt.Fprintf(&b, "Bank: %s\n", w.Bank)
	fmt.Fprintf(&b, "Destination: %s\n", w.Destination)
	fmt.Fprintf(&b, "Created: %s\n", formatTime(w.CreatedAt))
	fmt.Fprintf(&b, "Status: %s", statusLabel(w.Status))
	return b.String()
}
