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

package database

// User queries
const (
	userColumns = `id, chat_id, display_name, phone, account_balance, work_earnings, referral_earnings,
		referrer_id, version, registered_at, last_activity_at`

	queryGetUsers = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY id ASC`

	queryGetUserById = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = ?`

	queryGetUserByChatId = `
		SELECT ` + userColumns + `
		FROM users
		WHERE chat_id = ?`

	queryInsertUser = `
		INSERT INTO users (chat_id, display_name, phone, registered_at, last_activity_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(chat_id) DO NOTHING`

	queryTouchUser = `
		UPDATE users SET last_activity_at = ? WHERE id = ?`

	queryUpdateUserPhone = `
		UPDATE users SET phone = ? WHERE id = ?`

	queryDeleteUser = `
		DELETE FROM users WHERE id = ?`
)

// Referral queries
const (
	querySetReferrer = `
		UPDATE users SET referrer_id = ?
		WHERE id = ? AND referrer_id IS NULL`

	queryInsertReferral = `
		INSERT INTO referrals (referrer_id, referred_id, joined_at)
		VALUES (?, ?, ?)`

	queryGetReferredUsers = `
		SELECT u.id, u.chat_id, u.display_name, u.phone, u.account_balance, u.work_earnings, u.referral_earnings,
			u.referrer_id, u.version, u.registered_at, u.last_activity_at,
			r.joined_at, b.user_id IS NOT NULL
		FROM referrals r
		JOIN users u ON u.id = r.referred_id
		LEFT JOIN blacklist b ON b.user_id = u.id
		WHERE r.referrer_id = ?
		ORDER BY r.joined_at ASC, r.id ASC`
)

// Balance queries
const (
	queryGetUserBalance = `
		SELECT account_balance, work_earnings, referral_earnings, version
		FROM users
		WHERE id = ?`

	// Optimistic locking: the write only lands if nobody bumped version since the read.
	queryUpdateUserBalance = `
		UPDATE users
		SET account_balance = ?, work_earnings = ?, referral_earnings = ?, version = version + 1
		WHERE id = ? AND version = ?`

	queryInsertReceipt = `
		INSERT INTO receipts (id, user_id, kind, amount, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryInsertJournalEntry = `
		INSERT INTO balance_journal (id, user_id, entry_type, delta, balance_after, reference, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	// One row per journal entry, or a single row with a NULL delta when the journal is empty.
	queryGetBalanceWithJournal = `
		SELECT u.account_balance, j.delta
		FROM users u
		LEFT JOIN balance_journal j ON j.user_id = u.id
		WHERE u.id = ?`
)

// Withdrawal queries
const (
	withdrawalColumns = `id, user_id, amount, fee, tier, status, bank, destination, description, reference,
		created_at, updated_at`

	queryInsertWithdrawal = `
		INSERT INTO withdrawal_requests (user_id, amount, fee, tier, status, bank, destination, description,
			reference, created_at, updated_at)
		VALUES (?, ?, ?, ?, 'pending', ?, ?, ?, ?, ?, ?)`

	queryGetWithdrawal = `
		SELECT ` + withdrawalColumns + `
		FROM withdrawal_requests
		WHERE id = ?`

	// Only pending requests may move; approved and cancelled are terminal.
	queryTransitionWithdrawal = `
		UPDATE withdrawal_requests
		SET status = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'`

	queryListWithdrawalsByStatus = `
		SELECT ` + withdrawalColumns + `
		FROM withdrawal_requests
		WHERE status = ?
		ORDER BY created_at ASC, id ASC`

	queryGetUserWithdrawals = `
		SELECT ` + withdrawalColumns + `
		FROM withdrawal_requests
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	queryCountUserWithdrawals = `
		SELECT COUNT(*) FROM withdrawal_requests WHERE user_id = ?`
)

// History queries
const (
	// seq is the numeric rowid, so equal timestamps still order newest first.
	queryGetHistory = `
		SELECT kind, id, amount, status, description, created_at FROM (
			SELECT 'withdrawal' AS kind, CAST(id AS TEXT) AS id, id AS seq, amount, status, description, created_at
			FROM withdrawal_requests
			WHERE user_id = ?
			UNION ALL
			SELECT 'receipt' AS kind, id, rowid AS seq, amount, '' AS status, description, created_at
			FROM receipts
			WHERE user_id = ?
		)
		ORDER BY created_at DESC, kind DESC, seq DESC
		LIMIT ? OFFSET ?`

	queryCountHistory = `
		SELECT
			(SELECT COUNT(*) FROM withdrawal_requests WHERE user_id = ?) +
			(SELECT COUNT(*) FROM receipts WHERE user_id = ?)`

	queryGetReceipts = `
		SELECT id, user_id, kind, amount, description, created_at
		FROM receipts
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`
)

// Blacklist queries
const (
	queryIsBlacklisted = `
		SELECT EXISTS(SELECT 1 FROM blacklist WHERE user_id = ?)`

	queryInsertBlacklist = `
		INSERT INTO blacklist (user_id, reason, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET reason = excluded.reason`

	queryDeleteBlacklist = `
		DELETE FROM blacklist WHERE user_id = ?`
)
