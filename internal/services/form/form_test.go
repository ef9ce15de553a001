package form

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"finanzas/internal/models"
)

var now = time.Date(2024, time.May, 17, 22, 15, 0, 0, time.UTC)

func TestNewDefaultsToExpense(t *testing.T) {
	f := New()
	if f.Type != models.Expense {
		t.Errorf("Type = %s, want expense", f.Type)
	}
	if f.SubmitLabel() != "Agregar Gasto" {
		t.Errorf("SubmitLabel = %q", f.SubmitLabel())
	}
	f.Toggle()
	if f.Type != models.Income || f.SubmitLabel() != "Agregar Ingreso" {
		t.Errorf("after Toggle: %s %q", f.Type, f.SubmitLabel())
	}
}

func TestSubmitBuildsTransaction(t *testing.T) {
	f := New()
	f.SetType("income")
	f.SetAmount("2500")
	f.SetDescription("  Sueldo Mensual ")

	tx, err := f.Submit(now)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := uuid.Parse(tx.ID); err != nil {
		t.Errorf("ID %q is not a UUID", tx.ID)
	}
	if tx.Description != "Sueldo Mensual" || tx.Type != models.Income {
		t.Errorf("tx = %+v", tx)
	}
	if !tx.Amount.Equal(models.MoneyFromInt(2500)) {
		t.Errorf("Amount = %s", tx.Amount.Fixed())
	}
	if tx.Date.String() != "2024-05-17" {
		t.Errorf("Date = %s", tx.Date)
	}
	if tx.Category != "Salario" {
		t.Errorf("Category = %q", tx.Category)
	}

	if f.Amount != "" || f.Description != "" {
		t.Error("fields should be cleared after submit")
	}
	if f.Type != models.Income {
		t.Error("type should be kept after submit")
	}
}

func TestSubmitMissingFieldIsNoop(t *testing.T) {
	cases := []struct{ amount, desc string }{
		{"", "Café"},
		{"10", ""},
		{"10", "   "},
	}
	for _, c := range cases {
		f := New()
		f.SetAmount(c.amount)
		f.SetDescription(c.desc)

		_, err := f.Submit(now)
		if !errors.Is(err, ErrMissingField) {
			t.Errorf("(%q, %q): err = %v, want ErrMissingField", c.amount, c.desc, err)
		}
		if f.Error != "" {
			t.Errorf("missing field should not show an error, got %q", f.Error)
		}
		if f.Amount != c.amount || f.Description != c.desc {
			t.Error("fields should be left as typed")
		}
	}
}

func TestSubmitRejectsInvalidAmount(t *testing.T) {
	for _, amount := range []string{"abc", "0", "-5", "1e", "1e20", "100000000000000000000"} {
		f := New()
		f.SetAmount(amount)
		f.SetDescription("Café")

		_, err := f.Submit(now)
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("%q: err = %v, want ErrInvalidAmount", amount, err)
		}
		if f.Error != InvalidAmountMessage {
			t.Errorf("%q: Error = %q", amount, f.Error)
		}
	}
}

func TestSubmitAcceptsCommaDecimal(t *testing.T) {
	f := New()
	f.newID = func() string { return "fixed" }
	f.SetAmount("12,50")
	f.SetDescription("Café")

	tx, err := f.Submit(now)
	if err != nil {
		t.Fatal(err)
	}
	if tx.ID != "fixed" || tx.Amount.Fixed() != "12.50" {
		t.Errorf("tx = %+v", tx)
	}
}

func TestSetTypeIgnoresUnknown(t *testing.T) {
	f := New()
	f.SetType("transfer")
	if f.Type != models.Expense {
		t.Errorf("Type = %s", f.Type)
	}
	f.SetType("Ingreso")
	if f.Type != models.Income {
		t.Errorf("Type = %s", f.Type)
	}
}
