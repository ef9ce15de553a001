// Package exporter writes the transaction history to an xlsx workbook.
package exporter

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"finanzas/internal/models"
)

// ErrNothingToExport is returned for an empty transaction set
var ErrNothingToExport = errors.New("no transactions to export")

// NothingToExportMessage is the notice shown instead of a download
const NothingToExportMessage = "No hay datos para exportar."

const (
	SheetName = "Historial Financiero"

	currencyFormat = `"$"#,##0.00`
	balanceFormat  = `[Green]"$"#,##0.00;[Red]-"$"#,##0.00;"$"0.00`

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Headers are the column titles, in order
var Headers = []string{"Fecha", "Descripción", "Ingresos", "Egresos", "Saldo"}

var columnWidths = []float64{12, 35, 15, 15, 15}

// Row is one exported line. Income or Expense is nil when it does not apply.
type Row struct {
	Date        string
	Description string
	Income      *models.Money
	Expense     *models.Money
	Balance     models.Money
}

// Rows sorts by date (stable) and computes the running balance
func Rows(txs []models.Transaction) []Row {
	sorted := models.NewTransactionSet(txs).SortByDate()

	rows := make([]Row, 0, sorted.Len())
	var balance models.Money
	for _, t := range sorted.Transactions {
		amount := t.Amount
		row := Row{Date: t.Date.Display(), Description: t.Description}
		if t.Type == models.Income {
			balance = balance.Add(amount)
			row.Income = &amount
		} else {
			balance = balance.Sub(amount)
			row.Expense = &amount
		}
		row.Balance = balance
		rows = append(rows, row)
	}
	return rows
}

// Filename is historial_financiero_<YYYY-MM-DD>.xlsx for the day of now
func Filename(now time.Time) string {
	return fmt.Sprintf("historial_financiero_%s.xlsx", now.Format(models.DateLayout))
}

// Workbook builds the spreadsheet. The caller closes it.
func Workbook(txs []models.Transaction) (*excelize.File, error) {
	if len(txs) == 0 {
		return nil, ErrNothingToExport
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := fill(f, Rows(txs)); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func fill(f *excelize.File, rows []Row) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	fmtCurrency := currencyFormat
	currencyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &fmtCurrency})
	if err != nil {
		return fmt.Errorf("currency style: %w", err)
	}
	fmtBalance := balanceFormat
	balanceStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &fmtBalance})
	if err != nil {
		return fmt.Errorf("balance style: %w", err)
	}

	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SheetName, "A1", "E1", headerStyle); err != nil {
		return err
	}

	for i, w := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, w); err != nil {
			return err
		}
	}

	for i, r := range rows {
		n := i + 2
		values := []any{r.Date, r.Description, moneyCell(r.Income), moneyCell(r.Expense), r.Balance.Float64()}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, n)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return err
			}
		}
		if err := f.SetCellStyle(SheetName, fmt.Sprintf("C%d", n), fmt.Sprintf("D%d", n), currencyStyle); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetName, fmt.Sprintf("E%d", n), fmt.Sprintf("E%d", n), balanceStyle); err != nil {
			return err
		}
	}
	return nil
}

// moneyCell leaves the cell blank for a nil amount
func moneyCell(m *models.Money) any {
	if m == nil {
		return ""
	}
	return m.Float64()
}

// Write streams the workbook for txs to w
func Write(w io.Writer, txs []models.Transaction) error {
	f, err := Workbook(txs)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
