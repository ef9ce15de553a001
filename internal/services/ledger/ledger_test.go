package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"finanzas/internal/log"
	"finanzas/internal/models"
	"finanzas/internal/services/storage"
)

// memKV is an in-memory KeyValue with an injectable write failure
type memKV struct {
	data    map[string][]byte
	failSet error
}

func newMemKV() *memKV { return &memKV{data: map[string][]byte{}} }

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return v, nil
}

func (m *memKV) Set(_ context.Context, key string, value []byte) error {
	if m.failSet != nil {
		return m.failSet
	}
	m.data[key] = value
	return nil
}

func (m *memKV) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *memKV) Close() error { return nil }

func newLedger(t *testing.T, kv storage.KeyValue) *Ledger {
	t.Helper()
	l, err := New(context.Background(), kv, log.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func tx(id string, amount int64, tt models.TransactionType) models.Transaction {
	return models.Transaction{
		ID:          id,
		Description: "tx " + id,
		Amount:      models.MoneyFromInt(amount),
		Type:        tt,
		Date:        models.NewDate(2024, time.March, 1),
	}
}

func TestNewFallsBackToDemoData(t *testing.T) {
	l := newLedger(t, newMemKV())
	if l.Len() != 4 {
		t.Fatalf("Len = %d, want 4 demo records", l.Len())
	}
	s := l.Summary()
	if !s.Balance.Equal(models.MoneyFromInt(1850)) {
		t.Errorf("demo balance = %s", s.Balance.Fixed())
	}
}

func TestNewFallsBackOnParseFailure(t *testing.T) {
	for _, raw := range []string{
		`{not json`,
		`null`,
		`{"id":"1"}`,
		`[{"id":"a","description":"Café","amount":-3,"type":"expense","date":"2024-01-02"}]`,
		`[{"id":"a","description":"Café","amount":3,"type":"transfer","date":"2024-01-02"}]`,
		`[{"id":"","description":"Café","amount":3,"type":"expense","date":"2024-01-02"}]`,
		`[{"id":"a","description":"Sueldo","amount":1e20,"type":"income","date":"2024-01-02"}]`,
		`[{"id":"a","description":"ok","amount":1,"type":"income","date":"2024-01-02"},{"id":"b","description":" ","amount":1,"type":"income","date":"2024-01-02"}]`,
	} {
		kv := newMemKV()
		kv.data[StorageKey] = []byte(raw)
		l := newLedger(t, kv)
		if l.Len() != 4 {
			t.Errorf("%s: Len = %d, want demo data", raw, l.Len())
		}
	}
}

func TestNewLoadsStoredSet(t *testing.T) {
	kv := newMemKV()
	kv.data[StorageKey] = []byte(`[]`)
	if l := newLedger(t, kv); l.Len() != 0 {
		t.Errorf("stored empty list should load as empty, got %d", l.Len())
	}

	kv.data[StorageKey] = []byte(`[{"id":"a","description":"Café","amount":3.5,"type":"expense","date":"2024-01-02"}]`)
	l := newLedger(t, kv)
	if l.Len() != 1 || l.Transactions()[0].Description != "Café" {
		t.Errorf("loaded %+v", l.Transactions())
	}
}

func TestNewSurfacesLockedStorage(t *testing.T) {
	kv := &lockedKV{memKV: newMemKV()}
	if _, err := New(context.Background(), kv, log.Discard()); !errors.Is(err, storage.ErrLocked) {
		t.Errorf("New = %v, want ErrLocked", err)
	}
}

type lockedKV struct{ *memKV }

func (lockedKV) Get(context.Context, string) ([]byte, error) { return nil, storage.ErrLocked }

func TestAddPersistsFullSet(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	kv.data[StorageKey] = []byte(`[]`)
	l := newLedger(t, kv)

	if err := l.Add(ctx, tx("a", 100, models.Income)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := l.Add(ctx, tx("b", 40, models.Expense)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	var stored []models.Transaction
	if err := json.Unmarshal(kv.data[StorageKey], &stored); err != nil {
		t.Fatalf("stored value: %v", err)
	}
	if len(stored) != 2 || stored[0].ID != "a" || stored[1].ID != "b" {
		t.Errorf("stored = %+v", stored)
	}
	if s := l.Summary(); !s.Balance.Equal(models.MoneyFromInt(60)) {
		t.Errorf("Balance = %s", s.Balance.Fixed())
	}
}

func TestAddRejectsInvalid(t *testing.T) {
	l := newLedger(t, newMemKV())
	bad := tx("x", 0, models.Expense)
	if err := l.Add(context.Background(), bad); err == nil {
		t.Error("expected error for zero amount")
	}
	if l.Len() != 4 {
		t.Errorf("invalid add changed the set: %d", l.Len())
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, newMemKV())

	if err := l.Delete(ctx, "2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if l.Len() != 3 {
		t.Fatalf("Len = %d", l.Len())
	}
	if _, ok := l.Set().Find("2"); ok {
		t.Error("record 2 still present")
	}

	rev := l.Revision()
	if err := l.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete unknown id = %v, want nil", err)
	}
	if l.Revision() != rev || l.Len() != 3 {
		t.Error("deleting an unknown id must not change the set")
	}
}

func TestClearAllRemovesKey(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	l := newLedger(t, kv)
	if err := l.Add(ctx, tx("a", 1, models.Income)); err != nil {
		t.Fatal(err)
	}

	if err := l.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if l.Len() != 0 {
		t.Errorf("Len = %d after clear", l.Len())
	}
	if _, ok := kv.data[StorageKey]; ok {
		t.Error("key should be deleted")
	}
	if s := l.Summary(); !s.TotalIncome.IsZero() {
		t.Errorf("summary after clear = %+v", s)
	}

	// Next load sees no key and shows demo data again
	if reloaded := newLedger(t, kv); reloaded.Len() != 4 {
		t.Errorf("reloaded Len = %d", reloaded.Len())
	}
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	kv := newMemKV()
	l := newLedger(t, kv)
	kv.failSet = errors.New("disk full")

	err := l.Add(context.Background(), tx("a", 5, models.Income))
	if err == nil {
		t.Fatal("expected persistence error")
	}
	if l.Len() != 5 {
		t.Errorf("in-memory add should stand, Len = %d", l.Len())
	}
}

func TestSummaryMemoizedOnRevision(t *testing.T) {
	l := newLedger(t, newMemKV())
	first := l.Summary()
	if l.summaryRev != l.Revision() {
		t.Fatal("summary not cached")
	}
	again := l.Summary()
	if !first.Balance.Equal(again.Balance) {
		t.Error("cached summary differs")
	}

	if err := l.Add(context.Background(), tx("z", 150, models.Expense)); err != nil {
		t.Fatal(err)
	}
	if got := l.Summary(); !got.Balance.Equal(models.MoneyFromInt(1700)) {
		t.Errorf("Balance after add = %s", got.Balance.Fixed())
	}
}

func TestReplaceAndAppend(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, newMemKV())

	if err := l.Replace(ctx, []models.Transaction{tx("r", 10, models.Income)}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := l.Append(ctx, []models.Transaction{tx("s", 3, models.Expense), tx("u", 2, models.Expense)}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	got := l.Transactions()
	if len(got) != 3 || got[0].ID != "r" || got[2].ID != "u" {
		t.Errorf("set = %+v", got)
	}
	if err := l.Replace(ctx, []models.Transaction{{ID: "bad"}}); err == nil {
		t.Error("Replace should validate records")
	}
}

func TestTransactionsReturnsCopy(t *testing.T) {
	l := newLedger(t, newMemKV())
	txs := l.Transactions()
	txs[0].Description = "changed"
	if l.Transactions()[0].Description == "changed" {
		t.Error("Transactions must not expose internal state")
	}
}

func TestSnapshotMatchesSet(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, newMemKV())

	summary, set := l.Snapshot()
	if set.Len() != 4 || !summary.Balance.Equal(models.MoneyFromInt(1850)) {
		t.Fatalf("snapshot = %d records, balance %s", set.Len(), summary.Balance.Fixed())
	}

	if err := l.Add(ctx, tx("z", 150, models.Expense)); err != nil {
		t.Fatal(err)
	}
	summary, set = l.Snapshot()
	if set.Len() != 5 || !summary.Balance.Equal(models.MoneyFromInt(1700)) {
		t.Errorf("after add: %d records, balance %s", set.Len(), summary.Balance.Fixed())
	}
}

func TestSnapshotConsistentUnderWrites(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, newMemKV())
	if err := l.Replace(ctx, nil); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			if err := l.Add(ctx, tx(fmt.Sprint(i), 1, models.Income)); err != nil {
				t.Error(err)
				return
			}
		}
	}()

	for {
		summary, set := l.Snapshot()
		if !summary.TotalIncome.Equal(models.MoneyFromInt(int64(set.Len()))) {
			t.Fatalf("summary income %s for %d records", summary.TotalIncome.Fixed(), set.Len())
		}
		select {
		case <-done:
			return
		default:
		}
	}
}
