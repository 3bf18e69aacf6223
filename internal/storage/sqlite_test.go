package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tallyfold/tallyfold/internal/common"
	"github.com/tallyfold/tallyfold/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testTransactions() []model.Transaction {
	balance := 1520.75
	recipient := "Woolworths"

	return []model.Transaction{
		{
			Date:            "2025-01-15",
			Description:     "POS Purchase Woolworths Food",
			Amount:          -85.40,
			Balance:         &balance,
			Type:            model.TypeDebit,
			Category:        "groceries",
			RecipientOrPayer: &recipient,
			Reference:       "REF001",
			StatementNumber: "2025-01",
		},
		{
			Date:            "2025-01-20",
			Description:     "Salary Payment ACME Corp",
			Amount:          3200.00,
			Type:            model.TypeCredit,
			Category:        "salary",
			StatementNumber: "2025-01",
		},
		{
			Date:            "2025-02-03",
			Description:     "Shell Fuel Station",
			Amount:          -60.00,
			Type:            model.TypeDebit,
			Category:        "fuel",
			StatementNumber: "2025-02",
		},
	}
}

func TestStore_SaveAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	txns := testTransactions()
	require.NoError(t, store.SaveTransactions(ctx, txns))

	for _, txn := range txns {
		assert.NotZero(t, txn.ID, "save should assign ids")
	}

	got, err := store.List(ctx, 20, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Newest first.
	assert.Equal(t, "Shell Fuel Station", got[0].Description)
	assert.Equal(t, "Salary Payment ACME Corp", got[1].Description)
	assert.Equal(t, "POS Purchase Woolworths Food", got[2].Description)

	require.NotNil(t, got[2].Balance)
	assert.InDelta(t, 1520.75, *got[2].Balance, 0.001)
	require.NotNil(t, got[2].RecipientOrPayer)
	assert.Equal(t, "Woolworths", *got[2].RecipientOrPayer)
	assert.Nil(t, got[1].Balance)
	assert.Nil(t, got[1].RecipientOrPayer)
}

func TestStore_ListPagination(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTransactions(ctx, testTransactions()))

	page, err := store.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	page, err = store.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "POS Purchase Woolworths Food", page[0].Description)
}

func TestStore_SaveValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.SaveTransactions(ctx, nil)
	assert.ErrorIs(t, err, ErrEmptySlice)

	err = store.SaveTransactions(ctx, []model.Transaction{{
		Date: "2025-01-01", Description: "x", Type: "transfer",
	}})
	assert.ErrorIs(t, err, ErrInvalidType)

	err = store.SaveTransactions(ctx, []model.Transaction{{
		Date: "2025-01-01", Type: model.TypeDebit,
	}})
	assert.ErrorIs(t, err, ErrInvalidTransaction)
}

func TestStore_Search(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTransactions(ctx, testTransactions()))

	got, err := store.Search(ctx, "woolworths")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "POS Purchase Woolworths Food", got[0].Description)

	// Reference field is searched too.
	got, err = store.Search(ctx, "REF001")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = store.Search(ctx, "no such thing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_ByCategory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTransactions(ctx, testTransactions()))

	got, err := store.ByCategory(ctx, "fuel")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Shell Fuel Station", got[0].Description)

	got, err = store.ByCategory(ctx, "medical")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_ByType(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTransactions(ctx, testTransactions()))

	debits, err := store.ByType(ctx, "debit")
	require.NoError(t, err)
	assert.Len(t, debits, 2)

	credits, err := store.ByType(ctx, "credit")
	require.NoError(t, err)
	assert.Len(t, credits, 1)

	_, err = store.ByType(ctx, "transfer")
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestStore_ByDateRange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTransactions(ctx, testTransactions()))

	got, err := store.ByDateRange(ctx, "2025-01-01", "2025-01-31")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = store.ByDateRange(ctx, "2025-02-01", "2025-02-28")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Shell Fuel Station", got[0].Description)

	_, err = store.ByDateRange(ctx, "2025-03-01", "2025-01-01")
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestStore_ByStatement(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTransactions(ctx, testTransactions()))

	got, err := store.ByStatement(ctx, "2025-01")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestStore_UpdateClassification(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	txns := testTransactions()
	require.NoError(t, store.SaveTransactions(ctx, txns))

	recipient := "Dr Smith"
	err := store.UpdateClassification(ctx, txns[2].ID, model.ClassificationResult{
		Category:         "medical",
		RecipientOrPayer: &recipient,
		Confidence:       model.ConfidenceHigh,
	})
	require.NoError(t, err)

	got, err := store.ByCategory(ctx, "medical")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, txns[2].ID, got[0].ID)
	require.NotNil(t, got[0].RecipientOrPayer)
	assert.Equal(t, "Dr Smith", *got[0].RecipientOrPayer)

	err = store.UpdateClassification(ctx, 99999, model.ClassificationResult{Category: "other"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestStore_Count(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, store.SaveTransactions(ctx, testTransactions()))

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestStore_Categories(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTransactions(ctx, testTransactions()))

	categories, err := store.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fuel", "groceries", "salary"}, categories)
}

func TestStore_CategorySummaries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTransactions(ctx, testTransactions()))

	summaries, err := store.CategorySummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	byCategory := make(map[string]model.CategorySummary, len(summaries))
	for _, s := range summaries {
		byCategory[s.Category] = s
	}

	groceries := byCategory["groceries"]
	assert.Equal(t, 1, groceries.Count)
	assert.InDelta(t, -85.40, groceries.TotalDebits, 0.001)
	assert.Zero(t, groceries.TotalCredits)

	salary := byCategory["salary"]
	assert.InDelta(t, 3200.00, salary.TotalCredits, 0.001)
}

func TestStore_GetStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalTransactions)

	require.NoError(t, store.SaveTransactions(ctx, testTransactions()))

	stats, err = store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalStatements)
	assert.Equal(t, 3, stats.TotalTransactions)
	assert.InDelta(t, -145.40, stats.TotalDebits, 0.001)
	assert.InDelta(t, 3200.00, stats.TotalCredits, 0.001)
	assert.Equal(t, 3, stats.CategoriesCount)
}

func TestStore_MigrateIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Ping(ctx))
}
