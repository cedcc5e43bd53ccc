package api

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var digitSeparators = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "")

// plainAmount is the only accepted shape: up to 15 integer digits and at most
// two fraction digits. Exponent notation is rejected.
var plainAmount = regexp.MustCompile(`^-?[0-9]{1,15}([.,][0-9]{1,2})?$`)

// parseDecimal reads a number typed by a person. Spaces used as thousands
// separators are ignored and a comma is accepted as the decimal mark.
func parseDecimal(field, raw string) (decimal.Decimal, error) {
	cleaned := digitSeparators.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return decimal.Zero, newValidationError(field, "%s is required", field)
	}
	if !plainAmount.MatchString(cleaned) {
		return decimal.Zero, newValidationError(field, "%q is not a number with at most 2 decimal places", raw)
	}
	cleaned = strings.Replace(cleaned, ",", ".", 1)

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, newValidationError(field, "%q is not a number", raw)
	}
	return value, nil
}

// ParseAmount parses a strictly positive amount.
func ParseAmount(raw string) (decimal.Decimal, error) {
	amount, err := parseDecimal("amount", raw)
	if err != nil {
		return decimal.Zero, err
	}
	if !amount.IsPositive() {
		return decimal.Zero, newValidationError("amount", "must be greater than zero")
	}
	return amount, nil
}

// ParseBalance parses a non-negative balance for the admin override.
func ParseBalance(raw string) (decimal.Decimal, error) {
	balance, err := parseDecimal("balance", raw)
	if err != nil {
		return decimal.Zero, err
	}
	if balance.IsNegative() {
		return decimal.Zero, newValidationError("balance", "cannot be negative")
	}
	return balance, nil
}

// ParseUserId parses an account id typed by an admin.
func ParseUserId(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, newValidationError("user id", "%q is not a valid user id", raw)
	}
	return id, nil
}

// ParseBalanceChange parses "<user_id> <new_balance>".
func ParseBalanceChange(text string) (int64, decimal.Decimal, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return 0, decimal.Zero, newValidationError("input", "expected \"<user_id> <new_balance>\"")
	}
	userId, err := ParseUserId(fields[0])
	if err != nil {
		return 0, decimal.Zero, err
	}
	balance, err := ParseBalance(fields[1])
	if err != nil {
		return 0, decimal.Zero, err
	}
	return userId, balance, nil
}
