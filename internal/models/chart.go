package models

import "fmt"

// ChartDataPoint is one bar or slice. Both chart modes share it.
type ChartDataPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Fill  string  `json:"fill"`
}

// Tooltip returns the hover text, "Ingresos: $2500"
func (p ChartDataPoint) Tooltip() string {
	return fmt.Sprintf("%s: $%s", p.Name, MoneyFromFloat(p.Value).Decimal().String())
}

// ChartData represents one Plotly trace
type ChartData struct {
	Type         string    `json:"type"`
	X            []string  `json:"x,omitempty"`
	Y            []float64 `json:"y,omitempty"`
	Labels       []string  `json:"labels,omitempty"`
	Values       []float64 `json:"values,omitempty"`
	Name         string    `json:"name,omitempty"`
	Hole         float64   `json:"hole,omitempty"`
	Sort         *bool     `json:"sort,omitempty"`
	Text         []string  `json:"text,omitempty"`
	HoverInfo    string    `json:"hoverinfo,omitempty"`
	TextInfo     string    `json:"textinfo,omitempty"`
	TextPosition string    `json:"textposition,omitempty"`
	Marker       *Marker   `json:"marker,omitempty"`
}

// Marker carries per-point colours
type Marker struct {
	Colors []string `json:"colors,omitempty"`
	Color  []string `json:"color,omitempty"`
}

// ChartResponse wraps chart data with layout options
type ChartResponse struct {
	Data   []ChartData `json:"data"`
	Layout ChartLayout `json:"layout"`
}

// ChartLayout defines Plotly layout options
type ChartLayout struct {
	Title        string  `json:"title,omitempty"`
	ShowLegend   bool    `json:"showlegend"`
	Height       int     `json:"height,omitempty"`
	PaperBgColor string  `json:"paper_bgcolor,omitempty"`
	PlotBgColor  string  `json:"plot_bgcolor,omitempty"`
	Font         *Font   `json:"font,omitempty"`
	Margin       *Margin `json:"margin,omitempty"`
	YAxis        *Axis   `json:"yaxis,omitempty"`
}

type Font struct {
	Color string `json:"color,omitempty"`
}

type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	T int `json:"t"`
	B int `json:"b"`
}

type Axis struct {
	TickPrefix string `json:"tickprefix,omitempty"`
	GridColor  string `json:"gridcolor,omitempty"`
	RangeMode  string `json:"rangemode,omitempty"`
}
