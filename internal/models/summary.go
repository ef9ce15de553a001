package models

// FinancialSummary holds the totals derived from the transaction set.
// It is never stored. Balance always equals TotalIncome - TotalExpense.
type FinancialSummary struct {
	TotalIncome  Money `json:"totalIncome"`
	TotalExpense Money `json:"totalExpense"`
	Balance      Money `json:"balance"`
}

// NewSummary derives the balance from the two totals
func NewSummary(income, expense Money) FinancialSummary {
	return FinancialSummary{
		TotalIncome:  income,
		TotalExpense: expense,
		Balance:      income.Sub(expense),
	}
}

// CategorySummary represents spending in a category
type CategorySummary struct {
	Category   string  `json:"category"`
	Amount     Money   `json:"amount"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// SummaryResponse is the JSON body of /api/summary
type SummaryResponse struct {
	FinancialSummary
	TransactionCount int               `json:"transactionCount"`
	SavingsRate      float64           `json:"savingsRate"`
	ExpenseRatio     float64           `json:"expenseRatio"`
	Categories       []CategorySummary `json:"categories"`
}
