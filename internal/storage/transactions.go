package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tallyfold/tallyfold/internal/common"
	"github.com/tallyfold/tallyfold/internal/model"
)

const transactionColumns = `id, date, description, amount, balance, transaction_type,
	category, recipient_or_payer, reference, statement_number`

// SaveTransactions inserts transactions in a single database
// transaction and fills in their assigned IDs.
func (s *Store) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (
			date, description, amount, balance, transaction_type,
			category, recipient_or_payer, reference, statement_number
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range transactions {
		txn := &transactions[i]
		res, execErr := stmt.ExecContext(ctx,
			txn.Date,
			txn.Description,
			txn.Amount,
			txn.Balance,
			string(txn.Type),
			nullableString(txn.Category),
			txn.RecipientOrPayer,
			nullableString(txn.Reference),
			nullableString(txn.StatementNumber),
		)
		if execErr != nil {
			return fmt.Errorf("failed to insert transaction %q: %w", txn.Description, execErr)
		}
		if id, idErr := res.LastInsertId(); idErr == nil {
			txn.ID = id
		}
	}

	return tx.Commit()
}

// List returns transactions ordered by date descending, newest first.
func (s *Store) List(ctx context.Context, limit, offset int) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	return s.queryTransactions(ctx, fmt.Sprintf(`
		SELECT %s FROM transactions
		ORDER BY date DESC, id DESC
		LIMIT ? OFFSET ?
	`, transactionColumns), limit, offset)
}

// Search matches a term against description, recipient and reference.
func (s *Store) Search(ctx context.Context, term string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(term, "term"); err != nil {
		return nil, err
	}

	like := "%" + term + "%"
	return s.queryTransactions(ctx, fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE description LIKE ? COLLATE NOCASE
		   OR recipient_or_payer LIKE ? COLLATE NOCASE
		   OR reference LIKE ? COLLATE NOCASE
		ORDER BY date DESC, id DESC
	`, transactionColumns), like, like, like)
}

// ByCategory returns every transaction classified into category.
func (s *Store) ByCategory(ctx context.Context, category string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(category, "category"); err != nil {
		return nil, err
	}

	return s.queryTransactions(ctx, fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE category = ?
		ORDER BY date DESC, id DESC
	`, transactionColumns), category)
}

// ByType returns transactions filtered by debit or credit.
func (s *Store) ByType(ctx context.Context, txType string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateTransactionType(txType); err != nil {
		return nil, err
	}

	return s.queryTransactions(ctx, fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE transaction_type = ?
		ORDER BY date DESC, id DESC
	`, transactionColumns), txType)
}

// ByDateRange returns transactions whose date falls within [start, end].
// Dates are ISO 8601 strings so lexical comparison is correct.
func (s *Store) ByDateRange(ctx context.Context, start, end string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(start, "start"); err != nil {
		return nil, err
	}
	if err := validateString(end, "end"); err != nil {
		return nil, err
	}
	if end < start {
		return nil, fmt.Errorf("%w: %s before %s", ErrInvalidDateRange, end, start)
	}

	return s.queryTransactions(ctx, fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE date >= ? AND date <= ?
		ORDER BY date DESC, id DESC
	`, transactionColumns), start, end)
}

// ByStatement returns every transaction from a single statement.
func (s *Store) ByStatement(ctx context.Context, statementNumber string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(statementNumber, "statementNumber"); err != nil {
		return nil, err
	}

	return s.queryTransactions(ctx, fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE statement_number = ?
		ORDER BY date DESC, id DESC
	`, transactionColumns), statementNumber)
}

// UpdateClassification stores a classification result on an existing
// transaction.
func (s *Store) UpdateClassification(ctx context.Context, id int64, result model.ClassificationResult) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET category = ?, recipient_or_payer = ?
		WHERE id = ?
	`, result.Category, result.RecipientOrPayer, id)
	if err != nil {
		return fmt.Errorf("failed to update classification for transaction %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: transaction %d", common.ErrNotFound, id)
	}
	return nil
}

// Count returns the total number of stored transactions.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	transactions := make([]model.Transaction, 0)
	for rows.Next() {
		txn, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}

func scanTransaction(rows *sql.Rows) (model.Transaction, error) {
	var (
		txn       model.Transaction
		txType    string
		balance   sql.NullFloat64
		category  sql.NullString
		recipient sql.NullString
		reference sql.NullString
		statement sql.NullString
	)

	err := rows.Scan(
		&txn.ID,
		&txn.Date,
		&txn.Description,
		&txn.Amount,
		&balance,
		&txType,
		&category,
		&recipient,
		&reference,
		&statement,
	)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to scan transaction: %w", err)
	}

	txn.Type = model.TransactionType(txType)
	if balance.Valid {
		txn.Balance = &balance.Float64
	}
	if recipient.Valid {
		txn.RecipientOrPayer = &recipient.String
	}
	txn.Category = category.String
	txn.Reference = reference.String
	txn.StatementNumber = statement.String

	return txn, nil
}

// nullableString maps "" to NULL so empty optional fields stay out of
// category and statement aggregates.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
