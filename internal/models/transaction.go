package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
)

// TransactionType indicates whether a transaction adds or removes money
type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// ParseTransactionType accepts the stored values plus the Spanish labels
func ParseTransactionType(s string) (TransactionType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "ingreso", "ingresos":
		return Income, true
	case "expense", "gasto", "gastos", "egreso", "egresos":
		return Expense, true
	}
	return "", false
}

// Toggle returns the other type
func (tt TransactionType) Toggle() TransactionType {
	if tt == Income {
		return Expense
	}
	return Income
}

// Label is the form button text
func (tt TransactionType) Label() string {
	if tt == Income {
		return "Ingreso"
	}
	return "Gasto"
}

// Transaction is a single income or expense record. Records are never edited
// in place; they are only added, deleted or replaced as a whole set.
type Transaction struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      Money           `json:"amount"`
	Type        TransactionType `json:"type"`
	Date        Date            `json:"date"`
	Category    string          `json:"category,omitempty"`
}

// Valid reports whether the record can be kept in the store
func (t *Transaction) Valid() error {
	switch {
	case t.ID == "":
		return fmt.Errorf("transaction has no id")
	case strings.TrimSpace(t.Description) == "":
		return fmt.Errorf("transaction %s has no description", t.ID)
	case !t.Amount.IsPositive():
		return fmt.Errorf("transaction %s: amount must be positive", t.ID)
	case !t.Amount.InRange():
		return fmt.Errorf("transaction %s: amount exceeds %s", t.ID, MaxAmount)
	case t.Type != Income && t.Type != Expense:
		return fmt.Errorf("transaction %s: unknown type %q", t.ID, t.Type)
	}
	return nil
}

// Signed returns the amount with the sign it has on the balance
func (t *Transaction) Signed() Money {
	if t.Type == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// ContentHash identifies a record by content rather than id, for import dedup
func (t *Transaction) ContentHash() string {
	desc := strings.ToLower(strings.TrimSpace(t.Description))
	input := fmt.Sprintf("%s|%s|%s|%s", t.Date, desc, t.Signed().Fixed(), t.Type)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:8])
}

// TransactionSet wraps a slice with filtering/aggregation methods
type TransactionSet struct {
	Transactions []Transaction
}

// NewTransactionSet creates a new TransactionSet from a slice
func NewTransactionSet(transactions []Transaction) *TransactionSet {
	return &TransactionSet{Transactions: transactions}
}

// Len returns the number of transactions
func (ts *TransactionSet) Len() int {
	return len(ts.Transactions)
}

// IsEmpty reports whether the set holds no records
func (ts *TransactionSet) IsEmpty() bool {
	return len(ts.Transactions) == 0
}

// FilterByType returns transactions of the specified type
func (ts *TransactionSet) FilterByType(tt TransactionType) *TransactionSet {
	result := &TransactionSet{}
	for _, t := range ts.Transactions {
		if t.Type == tt {
			result.Transactions = append(result.Transactions, t)
		}
	}
	return result
}

// CountByType returns how many records have the given type
func (ts *TransactionSet) CountByType(tt TransactionType) int {
	n := 0
	for _, t := range ts.Transactions {
		if t.Type == tt {
			n++
		}
	}
	return n
}

// SumAmount returns the sum of all transaction amounts, ignoring type
func (ts *TransactionSet) SumAmount() Money {
	var sum Money
	for _, t := range ts.Transactions {
		sum = sum.Add(t.Amount)
	}
	return sum
}

// SortByDate sorts transactions by date ascending. Records on the same day keep
// their insertion order.
func (ts *TransactionSet) SortByDate() *TransactionSet {
	sorted := slices.Clone(ts.Transactions)
	slices.SortStableFunc(sorted, func(a, b Transaction) int {
		return a.Date.Compare(b.Date.Time)
	})
	return &TransactionSet{Transactions: sorted}
}

// Reverse returns the records newest-inserted first
func (ts *TransactionSet) Reverse() *TransactionSet {
	reversed := slices.Clone(ts.Transactions)
	slices.Reverse(reversed)
	return &TransactionSet{Transactions: reversed}
}

// Recent returns the last n inserted records, oldest first
func (ts *TransactionSet) Recent(n int) *TransactionSet {
	if n >= len(ts.Transactions) {
		return ts.Copy()
	}
	return &TransactionSet{Transactions: slices.Clone(ts.Transactions[len(ts.Transactions)-n:])}
}

// Latest returns the most recently inserted record
func (ts *TransactionSet) Latest() (Transaction, bool) {
	if len(ts.Transactions) == 0 {
		return Transaction{}, false
	}
	return ts.Transactions[len(ts.Transactions)-1], true
}

// Find returns the record with the given id
func (ts *TransactionSet) Find(id string) (Transaction, bool) {
	for _, t := range ts.Transactions {
		if t.ID == id {
			return t, true
		}
	}
	return Transaction{}, false
}

// Hashes returns the content hashes of every record
func (ts *TransactionSet) Hashes() map[string]bool {
	hashes := make(map[string]bool, len(ts.Transactions))
	for _, t := range ts.Transactions {
		hashes[t.ContentHash()] = true
	}
	return hashes
}

// CategoryTotals returns category -> total amount of the given type
func (ts *TransactionSet) CategoryTotals(tt TransactionType) map[string]Money {
	result := make(map[string]Money)
	for _, t := range ts.Transactions {
		if t.Type != tt {
			continue
		}
		cat := t.Category
		if cat == "" {
			cat = UncategorizedLabel
		}
		result[cat] = result[cat].Add(t.Amount)
	}
	return result
}

// UncategorizedLabel groups records without a category
const UncategorizedLabel = "Sin categoría"

// Copy creates a shallow copy of the TransactionSet
func (ts *TransactionSet) Copy() *TransactionSet {
	return &TransactionSet{Transactions: slices.Clone(ts.Transactions)}
}
