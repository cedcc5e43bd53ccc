package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"referral-ledger-go/internal/api"
	"referral-ledger-go/internal/models"
	"referral-ledger-go/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const maxCreditBody = 1 << 20

type userView struct {
	Id               int64           `json:"id"`
	ChatId           int64           `json:"chat_id"`
	DisplayName      string          `json:"display_name"`
	Phone            string          `json:"phone,omitempty"`
	Balance          decimal.Decimal `json:"balance"`
	WorkEarnings     decimal.Decimal `json:"work_earnings"`
	ReferralEarnings decimal.Decimal `json:"referral_earnings"`
	ReferrerId       *int64          `json:"referrer_id,omitempty"`
	RegisteredAt     time.Time       `json:"registered_at"`
	LastActivityAt   time.Time       `json:"last_activity_at"`
}

func newUserView(u *models.User) userView {
	return userView{
		Id:               u.Id,
		ChatId:           u.ChatId,
		DisplayName:      u.DisplayName,
		Phone:            u.Phone,
		Balance:          u.AccountBalance,
		WorkEarnings:     u.WorkEarnings,
		ReferralEarnings: u.ReferralEarnings,
		ReferrerId:       u.ReferrerId,
		RegisteredAt:     u.RegisteredAt,
		LastActivityAt:   u.LastActivityAt,
	}
}

type withdrawalView struct {
	Id          int64           `json:"id"`
	UserId      int64           `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Fee         decimal.Decimal `json:"fee"`
	Tier        string          `json:"tier"`
	Status      string          `json:"status"`
	Bank        string          `json:"bank"`
	Destination string          `json:"destination"`
	Reference   string          `json:"reference"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func newWithdrawalView(w *models.WithdrawalRequest) withdrawalView {
	return withdrawalView{
		Id:          w.Id,
		UserId:      w.UserId,
		Amount:      w.Amount,
		Fee:         w.Fee,
		Tier:        string(w.Tier),
		Status:      string(w.Status),
		Bank:        w.Bank,
		Destination: w.Destination,
		Reference:   w.Reference,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func withdrawalViews(requests []models.WithdrawalRequest) []withdrawalView {
	views := make([]withdrawalView, 0, len(requests))
	for i := range requests {
		views = append(views, newWithdrawalView(&requests[i]))
	}
	return views
}

// statusFor maps ledger errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case api.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrUserNotFound), errors.Is(err, store.ErrWithdrawalNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, store.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, api.ErrBlacklisted):
		return http.StatusForbidden
	case errors.Is(err, store.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func pathId(c *gin.Context) (int64, bool) {
	id, err := api.ParseUserId(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, defaultValue int) int {
	if value, err := strconv.Atoi(c.Query(key)); err == nil {
		return value
	}
	return defaultValue
}

func (s *Server) health(c *gin.Context) {
	if err := s.ledger.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listPending(c *gin.Context) {
	pending, err := s.ledger.ListPending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"urgent": withdrawalViews(pending.Urgent),
		"normal": withdrawalViews(pending.Normal),
	})
}

func (s *Server) getWithdrawal(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	request, err := s.ledger.GetWithdrawal(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newWithdrawalView(request))
}

func (s *Server) approve(c *gin.Context) {
	s.decide(c, s.ledger.Approve)
}

func (s *Server) cancel(c *gin.Context) {
	s.decide(c, s.ledger.Cancel)
}

func (s *Server) decide(c *gin.Context, fn func(context.Context, int64) (*models.WithdrawalRequest, error)) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	request, err := fn(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newWithdrawalView(request))
}

type creditRowRequest struct {
	UserId      int64       `json:"user_id"`
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
}

type creditRequest struct {
	Rows []creditRowRequest `json:"rows"`
}

// bulkCredit accepts either {"rows": [...]} or the plain text row format.
// JSON amounts go through the same parser as typed amounts.
func (s *Server) bulkCredit(c *gin.Context) {
	var rows []models.CreditRow
	var parseErrors []string

	if strings.HasPrefix(c.ContentType(), "text/plain") {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCreditBody))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
			return
		}
		var errs []error
		rows, errs = api.ParseCreditRows(string(body))
		for _, e := range errs {
			parseErrors = append(parseErrors, e.Error())
		}
	} else {
		var req creditRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		for i, row := range req.Rows {
			amount, err := api.ParseAmount(row.Amount.String())
			if err != nil {
				parseErrors = append(parseErrors, "row "+strconv.Itoa(i+1)+": "+err.Error())
				continue
			}
			rows = append(rows, models.CreditRow{UserId: row.UserId, Amount: amount, Description: row.Description})
		}
	}

	if len(rows) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no valid rows", "parse_errors": parseErrors})
		return
	}

	result := s.ledger.BulkCredit(c.Request.Context(), rows)
	c.JSON(http.StatusOK, gin.H{"result": result, "parse_errors": parseErrors})
}

func (s *Server) reconcile(c *gin.Context) {
	report, err := s.ledger.ReconcileAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	mismatched := report.Mismatched
	if mismatched == nil {
		mismatched = []int64{}
	}
	c.JSON(http.StatusOK, gin.H{"checked": report.Checked, "mismatched": mismatched})
}

func (s *Server) getUser(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	user, err := s.ledger.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	blacklisted, err := s.ledger.IsBlacklisted(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserView(user), "blacklisted": blacklisted})
}

func (s *Server) deleteUser(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := s.ledger.DeleteUser(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) history(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	pageSize := queryInt(c, "page_size", s.ledger.Config().HistoryPageSize)
	page, err := s.ledger.GetHistory(c.Request.Context(), id, queryInt(c, "page", 1), pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	if page.Items == nil {
		page.Items = []models.HistoryEntry{}
	}
	c.JSON(http.StatusOK, page)
}

type referralView struct {
	User        userView  `json:"user"`
	JoinedAt    time.Time `json:"joined_at"`
	Blacklisted bool      `json:"blacklisted"`
}

func (s *Server) referrals(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	referred, err := s.ledger.ListReferrals(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]referralView, 0, len(referred))
	for i := range referred {
		views = append(views, referralView{
			User:        newUserView(&referred[i].User),
			JoinedAt:    referred[i].JoinedAt,
			Blacklisted: referred[i].Blacklisted,
		})
	}
	c.JSON(http.StatusOK, gin.H{"referrals": views})
}

type balanceRequest struct {
	Balance string `json:"balance" binding:"required"`
	Reason  string `json:"reason"`
}

func (s *Server) setBalance(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req balanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	balance, err := api.ParseBalance(req.Balance)
	if err != nil {
		respondError(c, err)
		return
	}
	reason := req.Reason
	if reason == "" {
		reason = "admin http api"
	}
	user, err := s.ledger.SetBalance(c.Request.Context(), id, balance, reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserView(user))
}

type blacklistRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) blacklist(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req blacklistRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if err := s.ledger.Blacklist(c.Request.Context(), id, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": id, "blacklisted": true})
}

func (s *Server) unblacklist(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := s.ledger.Unblacklist(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": id, "blacklisted": false})
}
