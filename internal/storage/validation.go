package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tallyfold/tallyfold/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidDateRange   = errors.New("start date must be before end date")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidType        = errors.New("transaction type must be debit or credit")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransactions validates a slice of transactions before insert.
func validateTransactions(transactions []model.Transaction) error {
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}
	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

func validateTransaction(txn *model.Transaction) error {
	if strings.TrimSpace(txn.Description) == "" {
		return fmt.Errorf("%w: missing description", ErrInvalidTransaction)
	}
	if strings.TrimSpace(txn.Date) == "" {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.Type != model.TypeDebit && txn.Type != model.TypeCredit {
		return fmt.Errorf("%w: %q", ErrInvalidType, txn.Type)
	}
	return nil
}

// validateTransactionType checks a caller-supplied type filter.
func validateTransactionType(txType string) error {
	if txType != string(model.TypeDebit) && txType != string(model.TypeCredit) {
		return fmt.Errorf("%w: %q", ErrInvalidType, txType)
	}
	return nil
}
