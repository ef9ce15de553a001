// Package form holds the new-transaction form state and turns a submit into a record.
package form

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"finanzas/internal/models"
	"finanzas/internal/services/classifier"
)

var (
	// ErrMissingField means amount or description is blank; callers ignore the submit
	ErrMissingField = errors.New("amount and description are required")
	// ErrInvalidAmount means the amount is not a positive number
	ErrInvalidAmount = errors.New("amount must be a positive number")
)

// InvalidAmountMessage is shown next to the amount input
const InvalidAmountMessage = "Monto inválido"

// Form is the entry form. The type defaults to expense and survives a submit.
type Form struct {
	Amount      string
	Description string
	Type        models.TransactionType
	Error       string

	newID func() string
}

// New returns an empty expense form
func New() *Form {
	return &Form{Type: models.Expense}
}

// SetAmount updates the amount text
func (f *Form) SetAmount(s string) { f.Amount = s }

// SetDescription updates the description text
func (f *Form) SetDescription(s string) { f.Description = s }

// SetType selects income or expense; unknown values keep the current type
func (f *Form) SetType(s string) {
	if tt, ok := models.ParseTransactionType(s); ok {
		f.Type = tt
	}
}

// Toggle flips between income and expense
func (f *Form) Toggle() { f.Type = f.Type.Toggle() }

// SubmitLabel is the button text, "Agregar Gasto" or "Agregar Ingreso"
func (f *Form) SubmitLabel() string {
	return "Agregar " + f.Type.Label()
}

// Submit validates the fields and builds a new transaction dated on now's
// calendar day. On success amount and description are cleared.
func (f *Form) Submit(now time.Time) (models.Transaction, error) {
	f.Error = ""
	desc := strings.TrimSpace(f.Description)
	amountText := strings.TrimSpace(f.Amount)
	if desc == "" || amountText == "" {
		return models.Transaction{}, ErrMissingField
	}

	amount, err := models.ParseMoney(amountText)
	if err != nil || !amount.IsPositive() {
		f.Error = InvalidAmountMessage
		return models.Transaction{}, ErrInvalidAmount
	}

	tt := f.Type
	if tt != models.Income {
		tt = models.Expense
	}

	id := uuid.NewString
	if f.newID != nil {
		id = f.newID
	}

	t := models.Transaction{
		ID:          id(),
		Description: desc,
		Amount:      amount,
		Type:        tt,
		Date:        models.DateOf(now),
		Category:    classifier.Categorize(desc),
	}

	f.Amount = ""
	f.Description = ""
	return t, nil
}
