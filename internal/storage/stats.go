package storage

import (
	"context"
	"fmt"

	"github.com/tallyfold/tallyfold/internal/model"
)

// GetStats returns aggregate counts and totals for the whole database.
func (s *Store) GetStats(ctx context.Context) (model.Stats, error) {
	if err := validateContext(ctx); err != nil {
		return model.Stats{}, err
	}

	var stats model.Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(DISTINCT statement_number),
			COUNT(*),
			COALESCE(SUM(CASE WHEN transaction_type = 'debit' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN transaction_type = 'credit' THEN amount ELSE 0 END), 0),
			COUNT(DISTINCT category)
		FROM transactions
	`).Scan(
		&stats.TotalStatements,
		&stats.TotalTransactions,
		&stats.TotalDebits,
		&stats.TotalCredits,
		&stats.CategoriesCount,
	)
	if err != nil {
		return model.Stats{}, fmt.Errorf("failed to query stats: %w", err)
	}
	return stats, nil
}
