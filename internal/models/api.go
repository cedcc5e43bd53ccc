/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoryKind distinguishes the two record types merged into a user history
type HistoryKind string

const (
	HistoryWithdrawal HistoryKind = "withdrawal"
	HistoryReceipt    HistoryKind = "receipt"
)

// HistoryEntry is one line of a user's combined history
type HistoryEntry struct {
	Kind        HistoryKind     `json:"kind"`
	Id          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status,omitempty"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PageInfo describes the position of a page within a result set (1-based pages)
type PageInfo struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	Start      int  `json:"-"`
	End        int  `json:"-"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

// HistoryPage is a page of combined history
type HistoryPage struct {
	PageInfo
	Items []HistoryEntry `json:"items"`
}

// WithdrawalPage is a page of withdrawal requests
type WithdrawalPage struct {
	PageInfo
	Items []WithdrawalRequest `json:"items"`
}

// PendingWithdrawals partitions pending requests by tier, each oldest first
type PendingWithdrawals struct {
	Urgent []WithdrawalRequest `json:"urgent"`
	Normal []WithdrawalRequest `json:"normal"`
}

// All returns urgent requests followed by normal ones
func (p PendingWithdrawals) All() []WithdrawalRequest {
	all := make([]WithdrawalRequest, 0, len(p.Urgent)+len(p.Normal))
	all = append(all, p.Urgent...)
	return append(all, p.Normal...)
}

// CreditRow is one line of an admin bulk credit
type CreditRow struct {
	UserId      int64           `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// CreditRowResult reports the outcome of one bulk credit row
type CreditRowResult struct {
	Row        CreditRow       `json:"row"`
	Success    bool            `json:"success"`
	Skipped    bool            `json:"skipped"`
	ReceiptId  string          `json:"receipt_id,omitempty"`
	Commission decimal.Decimal `json:"commission"`
	Error      string          `json:"error,omitempty"`
}

// BulkCreditResult summarises a bulk credit batch
type BulkCreditResult struct {
	Rows      []CreditRowResult `json:"rows"`
	Credited  int               `json:"credited"`
	Skipped   int               `json:"skipped"`
	Failed    int               `json:"failed"`
	Total     decimal.Decimal   `json:"total"`
	Timestamp time.Time         `json:"timestamp"`
}
