package exporter

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"finanzas/internal/models"
)

func demo() []models.Transaction {
	return []models.Transaction{
		{ID: "4", Description: "Freelance Project", Amount: models.MoneyFromInt(600), Type: models.Income, Date: models.NewDate(2023, time.October, 15)},
		{ID: "1", Description: "Sueldo Mensual", Amount: models.MoneyFromInt(2500), Type: models.Income, Date: models.NewDate(2023, time.October, 1)},
		{ID: "2", Description: "Alquiler", Amount: models.MoneyFromInt(900), Type: models.Expense, Date: models.NewDate(2023, time.October, 5)},
		{ID: "3", Description: "Supermercado", Amount: models.MoneyFromInt(350), Type: models.Expense, Date: models.NewDate(2023, time.October, 8)},
	}
}

func TestRowsRunningBalance(t *testing.T) {
	rows := Rows(demo())
	if len(rows) != 4 {
		t.Fatalf("got %d rows", len(rows))
	}

	wantDates := []string{"01/10/2023", "05/10/2023", "08/10/2023", "15/10/2023"}
	wantBalance := []int64{2500, 1600, 1250, 1850}
	for i, r := range rows {
		if r.Date != wantDates[i] {
			t.Errorf("row %d date = %s, want %s", i, r.Date, wantDates[i])
		}
		if !r.Balance.Equal(models.MoneyFromInt(wantBalance[i])) {
			t.Errorf("row %d balance = %s, want %d", i, r.Balance.Fixed(), wantBalance[i])
		}
	}

	if rows[0].Income == nil || rows[0].Expense != nil {
		t.Error("income row should only fill Income")
	}
	if rows[1].Income != nil || rows[1].Expense == nil || !rows[1].Expense.Equal(models.MoneyFromInt(900)) {
		t.Error("expense row should only fill Expense")
	}
}

func TestRowsKeepsSameDayOrder(t *testing.T) {
	d := models.NewDate(2024, time.January, 1)
	rows := Rows([]models.Transaction{
		{Description: "b", Amount: models.MoneyFromInt(1), Type: models.Expense, Date: d},
		{Description: "a", Amount: models.MoneyFromInt(5), Type: models.Income, Date: d},
	})
	if rows[0].Description != "b" || !rows[0].Balance.Equal(models.MoneyFromInt(-1)) {
		t.Errorf("rows = %+v", rows)
	}
}

func TestFilename(t *testing.T) {
	got := Filename(time.Date(2024, time.March, 9, 23, 0, 0, 0, time.UTC))
	if got != "historial_financiero_2024-03-09.xlsx" {
		t.Errorf("Filename = %q", got)
	}
}

func TestWorkbookEmpty(t *testing.T) {
	if _, err := Workbook(nil); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("Workbook(nil) = %v", err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, nil); !errors.Is(err, ErrNothingToExport) || buf.Len() != 0 {
		t.Errorf("Write(nil) = %v, %d bytes", err, buf.Len())
	}
}

func TestWriteWorkbookContents(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, demo()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := excelize.OpenReader(&buf, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != "Historial Financiero" {
		t.Fatalf("sheets = %v", sheets)
	}

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 {
		t.Fatalf("got %d rows", len(rows))
	}
	for i, h := range Headers {
		if rows[0][i] != h {
			t.Errorf("header %d = %q, want %q", i, rows[0][i], h)
		}
	}

	first := rows[1]
	if first[0] != "01/10/2023" || first[1] != "Sueldo Mensual" || first[2] != "2500" || first[4] != "2500" {
		t.Errorf("first row = %v", first)
	}
	if first[3] != "" {
		t.Errorf("expense cell of an income row = %q", first[3])
	}
	if second := rows[2]; second[3] != "900" || second[4] != "1600" {
		t.Errorf("second row = %v", second)
	}

	width, err := f.GetColWidth(SheetName, "B")
	if err != nil || width != 35 {
		t.Errorf("column B width = %v, %v", width, err)
	}

	styleID, err := f.GetCellStyle(SheetName, "E2")
	if err != nil {
		t.Fatal(err)
	}
	style, err := f.GetStyle(styleID)
	if err != nil {
		t.Fatal(err)
	}
	if style.CustomNumFmt == nil || *style.CustomNumFmt != balanceFormat {
		t.Errorf("balance format = %v", style.CustomNumFmt)
	}
}
