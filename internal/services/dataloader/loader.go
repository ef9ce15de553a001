// Package dataloader imports bank-style CSV statements as transactions.
package dataloader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"finanzas/internal/log"
	"finanzas/internal/models"
	"finanzas/internal/services/classifier"
)

// columnMappings maps bank export column names (lowercased) to our standard names
var columnMappings = map[string][]string{
	"Date": {
		"date", "fecha", "transaction date", "posted date", "fecha operación",
		"fecha operacion", "fecha valor", "fecha de operación",
	},
	"Description": {
		"description", "descripción", "descripcion", "concepto", "detalle",
		"memo", "payee", "merchant", "movimiento",
	},
	"Amount": {
		"amount", "monto", "importe", "valor", "value", "transaction amount",
	},
	"Category": {
		"category", "categoría", "categoria", "rubro",
	},
	"Type": {
		"type", "tipo",
	},
	"Debit": {
		"debit", "débito", "debito", "cargo", "cargos", "egreso", "egresos",
		"withdrawal", "money out",
	},
	"Credit": {
		"credit", "crédito", "credito", "abono", "abonos", "ingreso", "ingresos",
		"deposit", "money in",
	},
}

// dateFormats are tried in order; day-first wins over month-first
var dateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006/01/02",
	"02/01/06",
}

// Result describes one import
type Result struct {
	Transactions []models.Transaction
	Duplicates   int
	Transfers    int
	Invalid      int
}

// Loader converts CSV rows to transactions
type Loader struct {
	logger *log.Logger
	newID  func() string
}

// New creates a Loader
func New(logger *log.Logger) *Loader {
	return &Loader{
		logger: logger.WithComponent(log.ComponentImport),
		newID:  uuid.NewString,
	}
}

// normalizeColumnName maps a bank export column name to our standard name
func normalizeColumnName(col string) string {
	col = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
	for standard, variants := range columnMappings {
		for _, variant := range variants {
			if col == variant {
				return standard
			}
		}
	}
	return col
}

// buildColumnIndex creates a normalized column index from CSV headers
func buildColumnIndex(header []string) map[string]int {
	colIndex := make(map[string]int)
	for i, col := range header {
		normalized := normalizeColumnName(col)
		// First match wins
		if _, exists := colIndex[normalized]; !exists {
			colIndex[normalized] = i
		}
	}
	return colIndex
}

// Load reads a CSV statement. Rows whose content hash is in existing, or that
// repeat an earlier row, are skipped as duplicates. Internal transfers are dropped.
func (l *Loader) Load(r io.Reader, source string, existing map[string]bool) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) == 1 && strings.Count(header[0], ";") > 0 {
		return nil, fmt.Errorf("unsupported delimiter: use comma-separated values")
	}

	colIndex := buildColumnIndex(header)
	_, hasAmount := colIndex["Amount"]
	_, hasDebit := colIndex["Debit"]
	_, hasCredit := colIndex["Credit"]
	useDebitCredit := !hasAmount && (hasDebit || hasCredit)

	if _, ok := colIndex["Date"]; !ok {
		return nil, fmt.Errorf("missing required column: Date (tried: %v)", columnMappings["Date"])
	}
	if _, ok := colIndex["Description"]; !ok {
		return nil, fmt.Errorf("missing required column: Description (tried: %v)", columnMappings["Description"])
	}
	if !hasAmount && !useDebitCredit {
		return nil, fmt.Errorf("missing required column: Amount or Debit/Credit (tried: %v)", columnMappings["Amount"])
	}

	seen := make(map[string]bool, len(existing))
	for h := range existing {
		seen[h] = true
	}

	res := &Result{}
	lineNum := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		lineNum++
		if err != nil {
			l.logger.Warn("unreadable csv line", "source", source, "line", lineNum, log.FieldError, err)
			res.Invalid++
			continue
		}

		t, ok := l.parseRecord(record, colIndex, useDebitCredit)
		if !ok {
			l.logger.Debug("skipping csv line", "source", source, "line", lineNum)
			res.Invalid++
			continue
		}
		if classifier.IsInternalTransfer(t.Description) {
			res.Transfers++
			continue
		}

		hash := t.ContentHash()
		if seen[hash] {
			res.Duplicates++
			continue
		}
		seen[hash] = true
		res.Transactions = append(res.Transactions, t)
	}

	l.logger.Info("csv imported",
		"source", source,
		log.FieldCount, len(res.Transactions),
		"duplicates", res.Duplicates,
		"transfers", res.Transfers,
		"invalid", res.Invalid)
	return res, nil
}

func (l *Loader) parseRecord(record []string, colIndex map[string]int, useDebitCredit bool) (models.Transaction, bool) {
	field := func(name string) string {
		if idx, ok := colIndex[name]; ok && idx < len(record) {
			return strings.TrimSpace(record[idx])
		}
		return ""
	}

	date, ok := parseDate(field("Date"))
	if !ok {
		return models.Transaction{}, false
	}
	desc := field("Description")
	if desc == "" {
		return models.Transaction{}, false
	}

	var amount models.Money
	var err error
	if useDebitCredit {
		amount, err = parseDebitCredit(field("Debit"), field("Credit"))
	} else {
		amount, err = parseAmount(field("Amount"))
	}
	if err != nil || amount.IsZero() {
		return models.Transaction{}, false
	}

	tt, explicit := models.ParseTransactionType(field("Type"))
	if !explicit {
		tt = classifier.ClassifyType(desc, amount)
	}

	category := field("Category")
	if category == "" {
		category = classifier.Categorize(desc)
	}

	return models.Transaction{
		ID:          l.newID(),
		Description: desc,
		Amount:      amount.Abs(),
		Type:        tt,
		Date:        date,
		Category:    category,
	}, true
}

// parseDebitCredit combines Debit and Credit columns into a signed amount.
// Credits are positive, debits negative.
func parseDebitCredit(debit, credit string) (models.Money, error) {
	if debit != "" {
		d, err := parseAmount(debit)
		if err != nil {
			return models.Money{}, err
		}
		if !d.IsZero() {
			return d.Abs().Neg(), nil
		}
	}
	if credit != "" {
		c, err := parseAmount(credit)
		if err != nil {
			return models.Money{}, err
		}
		return c.Abs(), nil
	}
	return models.Money{}, nil
}

// parseDate tries each known layout
func parseDate(s string) (models.Date, bool) {
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return models.DateOf(t), true
		}
	}
	return models.Date{}, false
}

// parseAmount handles currency symbols and accounting parentheses: (100.00) -> -100.00
func parseAmount(s string) (models.Money, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "$", ""))
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = s[1 : len(s)-1]
		negative = true
	}
	m, err := models.ParseMoney(s)
	if err != nil {
		return models.Money{}, err
	}
	if negative {
		m = m.Abs().Neg()
	}
	return m, nil
}
