package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tallyfold/tallyfold/internal/model"
	"github.com/tallyfold/tallyfold/internal/storage"
)

// transactionListResponse is the paginated transaction listing.
type transactionListResponse struct {
	Transactions []model.Transaction `json:"transactions"`
	Total        int                 `json:"total"`
	Limit        int                 `json:"limit"`
	Offset       int                 `json:"offset"`
}

// transactionSetResponse wraps filtered transaction queries.
type transactionSetResponse struct {
	Transactions []model.Transaction `json:"transactions"`
	Count        int                 `json:"count"`
}

// saveTransactionsRequest carries a batch of transactions to persist.
type saveTransactionsRequest struct {
	Transactions []model.Transaction `json:"transactions" binding:"required"`
}

func (s *Server) handleSaveTransactions(c *gin.Context) {
	var req saveTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transactions are required"})
		return
	}

	if err := s.store.SaveTransactions(c.Request.Context(), req.Transactions); err != nil {
		if errors.Is(err, storage.ErrInvalidTransaction) || errors.Is(err, storage.ErrInvalidType) || errors.Is(err, storage.ErrEmptySlice) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.serverError(c, "failed to save transactions", err)
		return
	}

	ids := make([]int64, len(req.Transactions))
	for i, txn := range req.Transactions {
		ids[i] = txn.ID
	}
	c.JSON(http.StatusCreated, gin.H{"saved": len(ids), "ids": ids})
}

func (s *Server) handleListTransactions(c *gin.Context) {
	limit := intQuery(c, "limit", 20)
	offset := intQuery(c, "offset", 0)
	if limit < 1 || limit > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
		return
	}
	if offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must not be negative"})
		return
	}

	transactions, err := s.store.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.serverError(c, "failed to list transactions", err)
		return
	}
	total, err := s.store.Count(c.Request.Context())
	if err != nil {
		s.serverError(c, "failed to count transactions", err)
		return
	}

	c.JSON(http.StatusOK, transactionListResponse{
		Transactions: transactions,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	})
}

func (s *Server) handleSearchTransactions(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}

	transactions, err := s.store.Search(c.Request.Context(), term)
	if err != nil {
		s.serverError(c, "search failed", err)
		return
	}
	c.JSON(http.StatusOK, transactionSetResponse{Transactions: transactions, Count: len(transactions)})
}

func (s *Server) handleTransactionsByCategory(c *gin.Context) {
	transactions, err := s.store.ByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		s.serverError(c, "category query failed", err)
		return
	}
	c.JSON(http.StatusOK, transactionSetResponse{Transactions: transactions, Count: len(transactions)})
}

func (s *Server) handleTransactionsByType(c *gin.Context) {
	txType := c.Param("type")
	if txType != string(model.TypeDebit) && txType != string(model.TypeCredit) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be 'debit' or 'credit'"})
		return
	}

	transactions, err := s.store.ByType(c.Request.Context(), txType)
	if err != nil {
		s.serverError(c, "type query failed", err)
		return
	}
	c.JSON(http.StatusOK, transactionSetResponse{Transactions: transactions, Count: len(transactions)})
}

func (s *Server) handleTransactionsByDateRange(c *gin.Context) {
	start := c.Query("start")
	end := c.Query("end")
	if start == "" || end == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameters 'start' and 'end' are required"})
		return
	}
	if !validDate(start) || !validDate(end) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dates must be in YYYY-MM-DD format"})
		return
	}
	if start > end {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start date must be before or equal to end date"})
		return
	}

	transactions, err := s.store.ByDateRange(c.Request.Context(), start, end)
	if err != nil {
		s.serverError(c, "date range query failed", err)
		return
	}
	c.JSON(http.StatusOK, transactionSetResponse{Transactions: transactions, Count: len(transactions)})
}

func (s *Server) handleTransactionsByStatement(c *gin.Context) {
	transactions, err := s.store.ByStatement(c.Request.Context(), c.Param("statement"))
	if err != nil {
		s.serverError(c, "statement query failed", err)
		return
	}
	c.JSON(http.StatusOK, transactionSetResponse{Transactions: transactions, Count: len(transactions)})
}

// handleExportTransactions streams matching transactions as CSV.
// Filters are mutually exclusive; with none given, everything is
// exported.
func (s *Server) handleExportTransactions(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		transactions []model.Transaction
		err          error
	)

	q := c.Query("q")
	category := c.Query("category")
	statement := c.Query("statement")
	startDate := c.Query("start_date")
	endDate := c.Query("end_date")

	switch {
	case q != "":
		transactions, err = s.store.Search(ctx, q)
	case category != "":
		transactions, err = s.store.ByCategory(ctx, category)
	case statement != "":
		transactions, err = s.store.ByStatement(ctx, statement)
	case startDate != "" && endDate != "":
		if startDate > endDate {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start date must be before end date"})
			return
		}
		transactions, err = s.store.ByDateRange(ctx, startDate, endDate)
	default:
		transactions, err = s.store.List(ctx, 100000, 0)
	}
	if err != nil {
		s.serverError(c, "export query failed", err)
		return
	}

	filename := fmt.Sprintf("transactions_%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{
		"Date", "Description", "Amount", "Type", "Category",
		"Balance", "Statement", "Reference", "Recipient/Payer",
	})
	for _, txn := range transactions {
		balance := ""
		if txn.Balance != nil {
			balance = strconv.FormatFloat(*txn.Balance, 'f', 2, 64)
		}
		recipient := ""
		if txn.RecipientOrPayer != nil {
			recipient = *txn.RecipientOrPayer
		}
		_ = w.Write([]string{
			txn.Date,
			txn.Description,
			strconv.FormatFloat(txn.Amount, 'f', 2, 64),
			string(txn.Type),
			txn.Category,
			balance,
			txn.StatementNumber,
			txn.Reference,
			recipient,
		})
	}
	w.Flush()
}

func (s *Server) serverError(c *gin.Context, msg string, err error) {
	s.logger.Error(msg, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
