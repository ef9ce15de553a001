package dashboard

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"finanzas/internal/handlers/advisor"
	"finanzas/internal/handlers/backup"
	"finanzas/internal/handlers/transactions"
	apphttp "finanzas/internal/http"
	"finanzas/internal/services/charts"
	"finanzas/internal/services/form"
	"finanzas/internal/services/ledger"
	"finanzas/internal/services/metrics"
	"finanzas/internal/templates"
)

// Title is the application name shown in the header
const Title = "Finanzas AI Pro"

var (
	book     *ledger.Ledger
	renderer *templates.Renderer
)

// Initialize sets up the dashboard package with required dependencies
func Initialize(l *ledger.Ledger, r *templates.Renderer) {
	book = l
	renderer = r
}

// RegisterRoutes registers all dashboard routes
func RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", handleDashboard)
	r.Get("/dashboard/kpis", handleKPIsPartial)
	r.Get("/dashboard/chart", handleChartPartial)
	r.Get("/dashboard/charts/data/{mode}", handleChartData)
	r.Get("/plotly.min.js", HandlePlotly)
	r.Get("/api/summary", handleSummaryAPI)
}

// KPIData is the view model for the three summary cards
func KPIData() map[string]any {
	s := book.Summary()
	return map[string]any{
		"Summary":      s,
		"HasIncome":    !s.TotalIncome.IsZero(),
		"SavingsRate":  metrics.SavingsRate(s),
		"ExpenseRatio": metrics.ExpenseRatio(s),
	}
}

// ChartData is the view model for the chart panel in the given mode
func ChartData(mode charts.Mode) map[string]any {
	v := charts.NewView(book.Summary(), mode)
	return map[string]any{
		"Mode":    v.Mode,
		"Toggle":  v.Toggle,
		"DataURL": v.DataURL,
		"Points":  v.Points,
		"Empty":   v.Empty,
	}
}

func handleDashboard(w http.ResponseWriter, r *http.Request) {
	mode := charts.ParseMode(r.URL.Query().Get("mode"))

	pageData := map[string]any{
		"Title":       Title,
		"KPIs":        KPIData(),
		"Chart":       ChartData(mode),
		"Form":        transactions.FormData(form.New()),
		"List":        transactions.ListData(),
		"Advisor":     advisor.PanelData(),
		"ClearButton": backup.ClearButtonData(),
		"HasData":     book.Len() > 0,
	}

	apphttp.RenderTemplate(w, r, renderer, "base", pageData)
}

func handleKPIsPartial(w http.ResponseWriter, r *http.Request) {
	data := KPIData()
	if renderer == nil {
		apphttp.WriteJSON(w, http.StatusOK, data)
		return
	}
	apphttp.RenderPartial(w, r, renderer, "kpis", data)
}

func handleChartPartial(w http.ResponseWriter, r *http.Request) {
	mode := charts.ParseMode(r.URL.Query().Get("mode"))
	apphttp.RenderPartial(w, r, renderer, "chart", ChartData(mode))
}

func handleChartData(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "mode")
	if raw != string(charts.Bar) && raw != string(charts.Pie) {
		apphttp.ErrorResponse(w, r, "Unknown chart type", http.StatusBadRequest)
		return
	}
	apphttp.WriteJSON(w, http.StatusOK, charts.Plotly(book.Summary(), charts.Mode(raw)))
}

func handleSummaryAPI(w http.ResponseWriter, r *http.Request) {
	apphttp.WriteJSON(w, http.StatusOK, metrics.Response(book.Set(), book.Summary()))
}
