// Package charts turns the income/expense summary into Plotly figures.
package charts

import (
	"strings"

	"finanzas/internal/models"
)

// Mode selects the chart kind. Exactly one is shown at a time.
type Mode string

const (
	Bar Mode = "bar"
	Pie Mode = "pie"
)

// ParseMode accepts "bar" or "pie"; anything else is a bar chart
func ParseMode(s string) Mode {
	if Mode(strings.ToLower(strings.TrimSpace(s))) == Pie {
		return Pie
	}
	return Bar
}

// Toggle returns the other mode
func (m Mode) Toggle() Mode {
	if m == Pie {
		return Bar
	}
	return Pie
}

// DataURL is where the chart panel fetches the figure for m
func (m Mode) DataURL() string {
	return "/dashboard/charts/data/" + string(m)
}

const (
	IncomeLabel  = "Ingresos"
	ExpenseLabel = "Egresos"
	IncomeFill   = "#10b981"
	ExpenseFill  = "#ef4444"

	// donut hole as a fraction of the outer radius
	donutHole = 0.6

	textColor = "#cbd5e1"
	gridColor = "#334155"
)

// Points returns the two data points in display order
func Points(s models.FinancialSummary) []models.ChartDataPoint {
	return []models.ChartDataPoint{
		{Name: IncomeLabel, Value: s.TotalIncome.Float64(), Fill: IncomeFill},
		{Name: ExpenseLabel, Value: s.TotalExpense.Float64(), Fill: ExpenseFill},
	}
}

// View is the chart panel's template model
type View struct {
	Mode    Mode
	Toggle  Mode
	DataURL string
	Points  []models.ChartDataPoint
	Empty   bool
}

func NewView(s models.FinancialSummary, mode Mode) View {
	return View{
		Mode:    mode,
		Toggle:  mode.Toggle(),
		DataURL: mode.DataURL(),
		Points:  Points(s),
		Empty:   s.TotalIncome.IsZero() && s.TotalExpense.IsZero(),
	}
}

// Plotly returns the figure served by /dashboard/charts/data/{mode}
func Plotly(s models.FinancialSummary, mode Mode) models.ChartResponse {
	points := Points(s)
	labels := make([]string, len(points))
	values := make([]float64, len(points))
	colors := make([]string, len(points))
	hover := make([]string, len(points))
	for i, p := range points {
		labels[i], values[i], colors[i], hover[i] = p.Name, p.Value, p.Fill, p.Tooltip()
	}

	layout := models.ChartLayout{
		PaperBgColor: "rgba(0,0,0,0)",
		PlotBgColor:  "rgba(0,0,0,0)",
		Font:         &models.Font{Color: textColor},
		Margin:       &models.Margin{L: 56, R: 16, T: 20, B: 32},
		Height:       260,
	}

	if mode == Pie {
		layout.ShowLegend = true
		return models.ChartResponse{
			Data: []models.ChartData{{
				Type:      "pie",
				Labels:    labels,
				Values:    values,
				Hole:      donutHole,
				Sort:      new(bool),
				Text:      hover,
				HoverInfo: "text",
				TextInfo:  "percent",
				Marker:    &models.Marker{Colors: colors},
			}},
			Layout: layout,
		}
	}

	layout.YAxis = &models.Axis{TickPrefix: "$", GridColor: gridColor, RangeMode: "tozero"}
	return models.ChartResponse{
		Data: []models.ChartData{{
			Type:         "bar",
			X:            labels,
			Y:            values,
			Text:         hover,
			HoverInfo:    "text",
			TextPosition: "none",
			Marker:       &models.Marker{Color: colors},
		}},
		Layout: layout,
	}
}
