// Package advisor composes canned financial advice from the user's own totals
// and keeps the displayed message alive for a fixed time.
package advisor

import (
	"fmt"
	"math"
	"strings"
	"time"

	"finanzas/internal/models"
	"finanzas/internal/services/metrics"
)

const (
	// EmptyMessage is returned when there is nothing to analyse
	EmptyMessage = "Por favor agrega algunas transacciones primero para que pueda analizar tus finanzas."
	// FailureMessage is shown when an advice request is abandoned
	FailureMessage = "No pude conectar con el servidor de IA."
)

const (
	recentWindow   = 10
	recentMinCount = 5
	recentMaxDays  = 1
)

// Build returns the advice text in markdown. Clauses appear in a fixed order:
// balance, expense ratio, expense count, missing income, balance size, recent
// activity, then the figures and a closing suggestion.
func Build(s models.FinancialSummary, ts *models.TransactionSet, now time.Time) string {
	if ts.IsEmpty() {
		return EmptyMessage
	}

	var clauses []string
	add := func(format string, args ...any) {
		clauses = append(clauses, fmt.Sprintf(format, args...))
	}

	switch {
	case s.Balance.IsNegative():
		add("⚠️ **Atención:** tus gastos superan a tus ingresos y tu balance es negativo.")
	case s.Balance.GreaterThan(s.TotalIncome.MulRatio(0.3)):
		add("🎉 **¡Excelente!** Estás ahorrando más del 30%% de tus ingresos.")
	case s.Balance.IsPositive():
		add("👍 Tu balance es positivo, aunque todavía hay margen para ahorrar más.")
	}

	ratio := metrics.ExpenseRatio(s)
	switch {
	case ratio > 90:
		add("🚨 Estás gastando el **%.0f%%** de tus ingresos. Es urgente recortar gastos.", ratio)
	case ratio > 70:
		add("📊 Tus gastos representan el **%.0f%%** de tus ingresos. Intenta llevarlos por debajo del 70%%.", ratio)
	case ratio > 0:
		add("✅ Tus gastos (**%.0f%%** de tus ingresos) están bajo control.", ratio)
	}

	if ts.CountByType(models.Expense) > 2*ts.CountByType(models.Income) {
		add("🧾 Registras muchos más gastos que ingresos. Revisa los gastos pequeños y frecuentes.")
	}

	if s.TotalIncome.IsZero() {
		add("💼 No tienes ingresos registrados. Concéntrate en generar una fuente de ingresos.")
	}

	switch {
	case s.Balance.GreaterThan(models.MoneyFromInt(500)):
		add("📈 Con un balance de %s podrías considerar invertir una parte.", s.Balance)
	case s.Balance.LessThan(models.MoneyFromInt(100)):
		add("🛟 Tu balance es bajo. Prioriza construir un fondo de emergencia.")
	}

	if recentlyActive(ts, now) {
		add("⏱️ ¡Bien hecho registrando tu actividad reciente! La constancia es clave.")
	}

	add("**Resumen:** Balance: %s | Ingresos: %s | Gastos: %s", s.Balance, s.TotalIncome, s.TotalExpense)

	if s.Balance.IsNegative() {
		add("💡 **Sugerencia:** revisa tus gastos fijos y elimina los que no sean esenciales.")
	} else {
		add("💡 **Sugerencia:** aparta un porcentaje fijo de cada ingreso antes de gastar.")
	}

	return strings.Join(clauses, "\n\n")
}

// recentlyActive needs enough records among the last inserted ones and the
// newest of them dated within a day of now.
func recentlyActive(ts *models.TransactionSet, now time.Time) bool {
	recent := ts.Recent(recentWindow)
	if recent.Len() < recentMinCount {
		return false
	}
	latest, _ := recent.Latest()
	return math.Abs(float64(latest.Date.DaysSince(now))) <= recentMaxDays
}
