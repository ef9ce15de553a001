package classifier

import (
	"strings"

	"finanzas/internal/models"
)

// Income detection keywords (lowercase)
var IncomeKeywords = []string{
	"sueldo", "salario", "nómina", "nomina", "aguinaldo",
	"freelance", "honorarios", "comisión", "comision",
	"reembolso", "devolución", "devolucion", "reintegro",
	"dividendo", "intereses ganados", "bono", "premio",
	"venta de", "cobro", "depósito recibido", "deposito recibido",
	"payroll", "salary", "paycheck", "direct deposit",
	"refund", "cashback", "dividend", "bonus", "income", "wages",
}

// Keywords that should NEVER be income (lowercase)
var NeverIncomeKeywords = []string{
	"pago de tarjeta", "pago tarjeta", "comisión bancaria", "comision bancaria",
	"cargo", "retiro", "débito automático", "debito automatico", "suscripción",
	"suscripcion", "membresía", "membresia", "multa", "recargo",
	"credit card payment", "card payment", "withdrawal", "fee", "subscription",
}

// Internal transfer patterns to filter on import (lowercase)
var InternalTransferPatterns = []string{
	"transferencia entre cuentas",
	"transferencia interna",
	"traspaso",
	"pago de tarjeta",
	"internal transfer",
	"credit card payment",
}

// rule maps description keywords to a category
type rule struct {
	category string
	keywords []string
}

// categoryRules are checked in order; the first match wins
var categoryRules = []rule{
	{"Salario", []string{"sueldo", "salario", "nómina", "nomina", "aguinaldo", "payroll", "salary"}},
	{"Trabajo independiente", []string{"freelance", "honorarios", "proyecto", "consultoría", "consultoria"}},
	{"Vivienda", []string{"alquiler", "renta", "hipoteca", "expensas", "rent", "mortgage"}},
	{"Servicios", []string{"luz", "agua", "gas", "internet", "teléfono", "telefono", "celular", "electricidad"}},
	{"Comida", []string{"supermercado", "mercado", "restaurante", "café", "cafe", "almuerzo", "cena", "comida", "panadería", "panaderia", "delivery"}},
	{"Transporte", []string{"uber", "taxi", "gasolina", "nafta", "combustible", "colectivo", "metro", "bus", "peaje", "estacionamiento"}},
	{"Salud", []string{"farmacia", "médico", "medico", "doctor", "hospital", "dentista", "seguro médico", "clínica", "clinica"}},
	{"Educación", []string{"colegio", "universidad", "curso", "libros", "matrícula", "matricula"}},
	{"Entretenimiento", []string{"netflix", "spotify", "cine", "juego", "concierto", "streaming"}},
	{"Ropa", []string{"ropa", "zapatos", "zapatillas", "tienda"}},
	{"Inversiones", []string{"dividendo", "intereses", "inversión", "inversion", "ahorro"}},
}

// Categorize returns a category for a description, or "" when nothing matches
func Categorize(description string) string {
	descLower := strings.ToLower(strings.TrimSpace(description))
	if descLower == "" {
		return ""
	}
	for _, r := range categoryRules {
		if containsAny(descLower, r.keywords) {
			return r.category
		}
	}
	return ""
}

// Categories lists every category Categorize can return
func Categories() []string {
	cats := make([]string, len(categoryRules))
	for i, r := range categoryRules {
		cats[i] = r.category
	}
	return cats
}

// ClassifyType decides income or expense for an imported row. A negative
// amount is always an expense; a positive one is income only when the
// description looks like income.
func ClassifyType(description string, amount models.Money) models.TransactionType {
	descLower := strings.ToLower(strings.TrimSpace(description))

	if amount.IsNegative() || containsAny(descLower, NeverIncomeKeywords) {
		return models.Expense
	}
	if amount.IsPositive() && containsAny(descLower, IncomeKeywords) {
		return models.Income
	}
	return models.Expense
}

// IsInternalTransfer checks if a description is a move between own accounts
func IsInternalTransfer(description string) bool {
	descLower := strings.ToLower(strings.TrimSpace(description))
	if containsAny(descLower, IncomeKeywords) {
		return false
	}
	return containsAny(descLower, InternalTransferPatterns)
}

// containsAny checks if text contains any of the keywords
func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
