// Package ledger owns the user's transaction set and keeps it persisted.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"finanzas/internal/log"
	"finanzas/internal/models"
	"finanzas/internal/services/metrics"
	"finanzas/internal/services/storage"
)

// StorageKey is the single key holding the JSON transaction array
const StorageKey = "transactions"

// ErrPersist wraps write failures. The in-memory change has already been applied.
var ErrPersist = errors.New("transactions not persisted")

// Ledger is the transaction store. Every mutation replaces the in-memory set
// and immediately writes the whole set back. A write failure is returned and
// logged but the in-memory change stays.
type Ledger struct {
	mu       sync.RWMutex
	kv       storage.KeyValue
	logger   *log.Logger
	txs      []models.Transaction
	revision uint64

	summaryRev uint64
	summary    *models.FinancialSummary
}

// New loads the persisted set. A missing key, an unreadable value or a stored
// record that fails validation yields the demo data.
func New(ctx context.Context, kv storage.KeyValue, logger *log.Logger) (*Ledger, error) {
	l := &Ledger{
		kv:     kv,
		logger: logger.WithComponent(log.ComponentLedger),
	}

	data, err := kv.Get(ctx, StorageKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		l.logger.Info("no stored transactions, using demo data")
		l.txs = DemoTransactions()
	case err != nil:
		// Locked or unreadable storage is not a parse failure; surface it.
		return nil, fmt.Errorf("load transactions: %w", err)
	default:
		txs, perr := decode(data)
		if perr != nil {
			l.logger.Warn("stored transactions unreadable, using demo data", log.FieldError, perr)
			l.txs = DemoTransactions()
		} else {
			l.txs = txs
		}
	}

	l.logger.Info("ledger loaded", log.FieldCount, len(l.txs))
	return l, nil
}

func decode(data []byte) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		return nil, err
	}
	if txs == nil {
		// A stored JSON null is not a list
		return nil, fmt.Errorf("stored value is not an array")
	}
	for i := range txs {
		if err := txs[i].Valid(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return txs, nil
}

// DemoTransactions is the starter data shown on first run
func DemoTransactions() []models.Transaction {
	return []models.Transaction{
		{ID: "1", Description: "Sueldo Mensual", Amount: models.MoneyFromInt(2500), Type: models.Income, Date: models.NewDate(2023, time.October, 1)},
		{ID: "2", Description: "Alquiler", Amount: models.MoneyFromInt(900), Type: models.Expense, Date: models.NewDate(2023, time.October, 5)},
		{ID: "3", Description: "Supermercado", Amount: models.MoneyFromInt(350), Type: models.Expense, Date: models.NewDate(2023, time.October, 8)},
		{ID: "4", Description: "Freelance Project", Amount: models.MoneyFromInt(600), Type: models.Income, Date: models.NewDate(2023, time.October, 15)},
	}
}

// Transactions returns a copy of the set in insertion order
func (l *Ledger) Transactions() []models.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.txs)
}

// Set returns a copy of the set wrapped for filtering
func (l *Ledger) Set() *models.TransactionSet {
	return models.NewTransactionSet(l.Transactions())
}

// Len returns the number of records
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.txs)
}

// Revision changes on every mutation
func (l *Ledger) Revision() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.revision
}

// Summary returns the totals, recomputed only when the set changed
func (l *Ledger) Summary() models.FinancialSummary {
	l.mu.RLock()
	if l.summary != nil && l.summaryRev == l.revision {
		s := *l.summary
		l.mu.RUnlock()
		return s
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.summary == nil || l.summaryRev != l.revision {
		s := metrics.Summarize(models.NewTransactionSet(l.txs))
		l.summary = &s
		l.summaryRev = l.revision
	}
	return *l.summary
}

// Snapshot returns the totals together with the set they were computed from,
// read under one lock so a concurrent mutation cannot split them
func (l *Ledger) Snapshot() (models.FinancialSummary, *models.TransactionSet) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	set := models.NewTransactionSet(slices.Clone(l.txs))
	if l.summary != nil && l.summaryRev == l.revision {
		return *l.summary, set
	}
	return metrics.Summarize(set), set
}

// Add appends a transaction
func (l *Ledger) Add(ctx context.Context, t models.Transaction) error {
	if err := t.Valid(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := make([]models.Transaction, 0, len(l.txs)+1)
	next = append(next, l.txs...)
	next = append(next, t)
	l.logger.Debug("transaction added", log.FieldTxID, t.ID)
	return l.commit(ctx, next)
}

// Delete removes the transaction with the given id. Unknown ids are ignored.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := slices.DeleteFunc(slices.Clone(l.txs), func(t models.Transaction) bool {
		return t.ID == id
	})
	if len(next) == len(l.txs) {
		return nil
	}
	l.logger.Debug("transaction deleted", log.FieldTxID, id)
	return l.commit(ctx, next)
}

// Replace swaps in a whole new set, e.g. from a backup
func (l *Ledger) Replace(ctx context.Context, txs []models.Transaction) error {
	for i := range txs {
		if err := txs[i].Valid(); err != nil {
			return err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.commit(ctx, slices.Clone(txs))
}

// Append adds several records in one write
func (l *Ledger) Append(ctx context.Context, txs []models.Transaction) error {
	for i := range txs {
		if err := txs[i].Valid(); err != nil {
			return err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.commit(ctx, slices.Concat(l.txs, txs))
}

// ClearAll empties the set and removes the stored key
func (l *Ledger) ClearAll(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.txs = []models.Transaction{}
	l.revision++
	if err := l.kv.Delete(ctx, StorageKey); err != nil {
		l.logger.Error("failed to delete stored transactions", log.FieldError, err)
		return fmt.Errorf("%w: clear: %w", ErrPersist, err)
	}
	l.logger.Info("all transactions cleared")
	return nil
}

// commit installs next and persists it. Caller holds mu.
func (l *Ledger) commit(ctx context.Context, next []models.Transaction) error {
	l.txs = next
	l.revision++

	data, err := json.Marshal(l.txs)
	if err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}
	if err := l.kv.Set(ctx, StorageKey, data); err != nil {
		l.logger.Error("failed to persist transactions", log.FieldError, err, log.FieldCount, len(l.txs))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}
