package model

// Stats summarizes the transaction database.
type Stats struct {
	TotalStatements   int     `json:"total_statements"`
	TotalTransactions int     `json:"total_transactions"`
	TotalDebits       float64 `json:"total_debits"`
	TotalCredits      float64 `json:"total_credits"`
	CategoriesCount   int     `json:"categories_count"`
}

// CategorySummary aggregates spending for a single category.
type CategorySummary struct {
	Category     string  `json:"category"`
	Count        int     `json:"count"`
	TotalDebits  float64 `json:"total_debits"`
	TotalCredits float64 `json:"total_credits"`
}
