// Package metrics derives totals and ratios from a transaction set.
package metrics

import (
	"sort"

	"finanzas/internal/models"
)

// Summarize totals income and expense amounts. Balance is their exact difference.
func Summarize(ts *models.TransactionSet) models.FinancialSummary {
	income := ts.FilterByType(models.Income).SumAmount()
	expense := ts.FilterByType(models.Expense).SumAmount()
	return models.NewSummary(income, expense)
}

// SavingsRate is balance as a percentage of income, 0 without income
func SavingsRate(s models.FinancialSummary) float64 {
	return s.Balance.Percent(s.TotalIncome)
}

// ExpenseRatio is expense as a percentage of income, 0 without income
func ExpenseRatio(s models.FinancialSummary) float64 {
	return s.TotalExpense.Percent(s.TotalIncome)
}

// CategoryBreakdown groups expenses by category, largest first
func CategoryBreakdown(ts *models.TransactionSet) []models.CategorySummary {
	expenses := ts.FilterByType(models.Expense)
	total := expenses.SumAmount()

	counts := make(map[string]int)
	for _, t := range expenses.Transactions {
		cat := t.Category
		if cat == "" {
			cat = models.UncategorizedLabel
		}
		counts[cat]++
	}

	totals := expenses.CategoryTotals(models.Expense)
	result := make([]models.CategorySummary, 0, len(totals))
	for cat, amount := range totals {
		result = append(result, models.CategorySummary{
			Category:   cat,
			Amount:     amount,
			Count:      counts[cat],
			Percentage: amount.Percent(total),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Amount.Equal(result[j].Amount) {
			return result[i].Category < result[j].Category
		}
		return result[i].Amount.GreaterThan(result[j].Amount)
	})
	return result
}

// Response builds the /api/summary body
func Response(ts *models.TransactionSet, s models.FinancialSummary) models.SummaryResponse {
	return models.SummaryResponse{
		FinancialSummary: s,
		TransactionCount: ts.Len(),
		SavingsRate:      SavingsRate(s),
		ExpenseRatio:     ExpenseRatio(s),
		Categories:       CategoryBreakdown(ts),
	}
}
