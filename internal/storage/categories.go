package storage

import (
	"context"
	"fmt"

	"github.com/tallyfold/tallyfold/internal/model"
)

// ListCategories returns the distinct categories present in the
// database, alphabetically.
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT category FROM transactions
		WHERE category IS NOT NULL
		ORDER BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	categories := make([]string, 0)
	for rows.Next() {
		var category string
		if scanErr := rows.Scan(&category); scanErr != nil {
			return nil, fmt.Errorf("failed to scan category: %w", scanErr)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}

// CategorySummaries aggregates debit and credit totals per category,
// biggest spenders first.
func (s *Store) CategorySummaries(ctx context.Context) ([]model.CategorySummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			category,
			COUNT(*) AS count,
			COALESCE(SUM(CASE WHEN transaction_type = 'debit' THEN amount ELSE 0 END), 0) AS total_debits,
			COALESCE(SUM(CASE WHEN transaction_type = 'credit' THEN amount ELSE 0 END), 0) AS total_credits
		FROM transactions
		WHERE category IS NOT NULL
		GROUP BY category
		ORDER BY total_debits DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query category summary: %w", err)
	}
	defer func() { _ = rows.Close() }()

	summaries := make([]model.CategorySummary, 0)
	for rows.Next() {
		var summary model.CategorySummary
		if scanErr := rows.Scan(&summary.Category, &summary.Count, &summary.TotalDebits, &summary.TotalCredits); scanErr != nil {
			return nil, fmt.Errorf("failed to scan category summary: %w", scanErr)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category summary: %w", err)
	}
	return summaries, nil
}
