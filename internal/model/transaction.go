package model

// TransactionType distinguishes money leaving the account from money
// arriving in it.
type TransactionType string

// Transaction types.
const (
	TypeDebit  TransactionType = "debit"
	TypeCredit TransactionType = "credit"
)

// Transaction represents a single bank-statement transaction.
// Description is the raw statement text; whitespace may have been
// mangled by upstream PDF extraction.
type Transaction struct {
	Balance          *float64        `json:"balance"`
	RecipientOrPayer *string         `json:"recipient_or_payer"`
	Date             string          `json:"date"`
	Description      string          `json:"description"`
	Type             TransactionType `json:"transaction_type"`
	Category         string          `json:"category"`
	Reference        string          `json:"reference"`
	StatementNumber  string          `json:"statement_number"`
	ID               int64           `json:"id"`
	Amount           float64         `json:"amount"`
}

// ClassifyInput is the minimal slice of a transaction the classifier needs.
type ClassifyInput struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}
