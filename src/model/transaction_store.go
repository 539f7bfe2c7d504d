package model

import (
	"database/sql"
	"fmt"

	"github.com/username/smsledger/backend/src/logger"
	"github.com/username/smsledger/backend/src/models"
	"github.com/username/smsledger/backend/src/services"
)

// SQLTransactionStore is the sqlite-backed services.TransactionStore.
type SQLTransactionStore struct {
	db *sql.DB
}

func NewSQLTransactionStore(db *sql.DB) *SQLTransactionStore {
	return &SQLTransactionStore{db: db}
}

const transactionColumns = `id, user_id, protocol, address, date, type, subject, body, toa, sc_toa,
	service_center, read, status, locked, date_sent, sub_id, readable_date, contact_name, amount`

// InsertBatch stores the records inside one DB transaction. A row that fails
// to insert is logged and skipped without aborting the rest; a failed final
// commit discards the whole batch and reports zero inserted.
func (s *SQLTransactionStore) InsertBatch(userID int64, txs []models.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	dbTx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`INSERT INTO transactions
		(user_id, protocol, address, date, type, subject, body, toa, sc_toa,
		service_center, read, status, locked, date_sent, sub_id, readable_date, contact_name, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	insertedCount := 0
	for _, tx := range txs {
		_, execErr := stmt.Exec(
			userID, tx.Protocol, tx.Address, tx.Date, tx.Type, tx.Subject, tx.Body, tx.TOA, tx.SCTOA,
			tx.ServiceCenter, tx.Read, tx.Status, tx.Locked, tx.DateSent, tx.SubID, tx.ReadableDate,
			tx.ContactName, tx.Amount,
		)
		if execErr != nil {
			logger.L.Warn("Skipping record that could not be stored", "userID", userID, "error", execErr)
			continue
		}
		insertedCount++
	}

	if err := dbTx.Commit(); err != nil {
		logger.L.Error("Failed to commit transaction batch", "userID", userID, "error", err)
		return 0, fmt.Errorf("%w: %v", services.ErrCommitFailed, err)
	}
	return insertedCount, nil
}

// Query returns the user's transactions matching the resolved query, ordered
// by date, most recent first.
func (s *SQLTransactionStore) Query(userID int64, q models.TransactionQuery) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ?`
	args := []interface{}{userID}

	if q.Type != "" {
		query += " AND type = ?"
		args = append(args, q.Type)
	}
	if q.StartMillis != nil {
		query += " AND date >= ?"
		args = append(args, *q.StartMillis)
	}
	if q.EndMillis != nil {
		query += " AND date <= ?"
		args = append(args, *q.EndMillis)
	}
	if q.MinAmount != nil {
		query += " AND amount >= ?"
		args = append(args, *q.MinAmount)
	}
	if q.MaxAmount != nil {
		query += " AND amount <= ?"
		args = append(args, *q.MaxAmount)
	}

	query += " ORDER BY date DESC"

	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		tx, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("error scanning transaction row for userID %d: %w", userID, scanErr)
		}
		transactions = append(transactions, *tx)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over transaction rows for userID %d: %w", userID, err)
	}
	return transactions, nil
}

// GetByID returns the transaction matching both the row id and the owning
// user id, or sql.ErrNoRows when no such pair exists.
func (s *SQLTransactionStore) GetByID(userID int64, txID int64) (*models.Transaction, error) {
	row := s.db.QueryRow(
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, txID, userID)
	return scanTransaction(row)
}

// CountByType returns the user's total row count plus per-type counts.
// Rows without a type code are counted under the empty key.
func (s *SQLTransactionStore) CountByType(userID int64) (int64, map[string]int64, error) {
	var total int64
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM transactions WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("error counting transactions for userID %d: %w", userID, err)
	}

	rows, err := s.db.Query(
		`SELECT type, COUNT(id) FROM transactions WHERE user_id = ? GROUP BY type`, userID)
	if err != nil {
		return 0, nil, fmt.Errorf("error counting transactions by type for userID %d: %w", userID, err)
	}
	defer rows.Close()

	byType := make(map[string]int64)
	for rows.Next() {
		var txType sql.NullString
		var count int64
		if err := rows.Scan(&txType, &count); err != nil {
			return 0, nil, fmt.Errorf("error scanning type count for userID %d: %w", userID, err)
		}
		byType[txType.String] += count
	}
	if err = rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("error iterating type counts for userID %d: %w", userID, err)
	}
	return total, byType, nil
}

// AmountRows returns (type, date, amount) for every row with a non-null
// amount, in insertion order.
func (s *SQLTransactionStore) AmountRows(userID int64) ([]models.AmountRow, error) {
	rows, err := s.db.Query(
		`SELECT type, date, amount FROM transactions
		 WHERE user_id = ? AND amount IS NOT NULL ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying amount rows for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var result []models.AmountRow
	for rows.Next() {
		var txType sql.NullString
		var date sql.NullInt64
		var row models.AmountRow
		if err := rows.Scan(&txType, &date, &row.Amount); err != nil {
			return nil, fmt.Errorf("error scanning amount row for userID %d: %w", userID, err)
		}
		if txType.Valid {
			row.Type = &txType.String
		}
		if date.Valid {
			row.Date = &date.Int64
		}
		result = append(result, row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating amount rows for userID %d: %w", userID, err)
	}
	return result, nil
}

// SumAmountForType sums the non-null amounts of one type code. A type with
// no matching rows yields 0.
func (s *SQLTransactionStore) SumAmountForType(userID int64, txType string) (float64, error) {
	var total sql.NullFloat64
	err := s.db.QueryRow(
		`SELECT SUM(amount) FROM transactions
		 WHERE user_id = ? AND type = ? AND amount IS NOT NULL`, userID, txType).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("error summing amounts for userID %d type %s: %w", userID, txType, err)
	}
	return total.Float64, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(r rowScanner) (*models.Transaction, error) {
	var tx models.Transaction
	var protocol, address, txType, subject, body, toa, scToa, serviceCenter sql.NullString
	var read, status, locked, subID, readableDate, contactName sql.NullString
	var date, dateSent sql.NullInt64
	var amount sql.NullFloat64

	err := r.Scan(
		&tx.ID, &tx.UserID, &protocol, &address, &date, &txType, &subject, &body, &toa, &scToa,
		&serviceCenter, &read, &status, &locked, &dateSent, &subID, &readableDate, &contactName, &amount,
	)
	if err != nil {
		return nil, err
	}

	tx.Protocol = nullableString(protocol)
	tx.Address = nullableString(address)
	tx.Type = nullableString(txType)
	tx.Subject = nullableString(subject)
	tx.Body = nullableString(body)
	tx.TOA = nullableString(toa)
	tx.SCTOA = nullableString(scToa)
	tx.ServiceCenter = nullableString(serviceCenter)
	tx.Read = nullableString(read)
	tx.Status = nullableString(status)
	tx.Locked = nullableString(locked)
	tx.SubID = nullableString(subID)
	tx.ReadableDate = nullableString(readableDate)
	tx.ContactName = nullableString(contactName)
	if date.Valid {
		tx.Date = &date.Int64
	}
	if dateSent.Valid {
		tx.DateSent = &dateSent.Int64
	}
	if amount.Valid {
		tx.Amount = &amount.Float64
	}
	return &tx, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}
