package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"finanzas/internal/log"
	"finanzas/internal/models"
)

var now = time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

func set(txs ...models.Transaction) *models.TransactionSet {
	return models.NewTransactionSet(txs)
}

func rec(tt models.TransactionType, amount int64, date models.Date) models.Transaction {
	return models.Transaction{ID: fmt.Sprint(amount), Description: "x", Amount: models.MoneyFromInt(amount), Type: tt, Date: date}
}

func summaryOf(income, expense int64) models.FinancialSummary {
	return models.NewSummary(models.MoneyFromInt(income), models.MoneyFromInt(expense))
}

var oldDate = models.NewDate(2023, time.October, 1)

func TestBuildEmpty(t *testing.T) {
	got := Build(summaryOf(0, 0), set(), now)
	if got != EmptyMessage {
		t.Errorf("Build(empty) = %q", got)
	}
}

func TestBuildHighExpenseRatio(t *testing.T) {
	ts := set(rec(models.Income, 1000, oldDate), rec(models.Expense, 950, oldDate))
	got := Build(summaryOf(1000, 950), ts, now)

	for _, want := range []string{"**95%**", "Es urgente", "fondo de emergencia", "Tu balance es positivo"} {
		if !strings.Contains(got, want) {
			t.Errorf("advice missing %q:\n%s", want, got)
		}
	}
	for _, unwanted := range []string{"bajo control", "invertir", "actividad reciente"} {
		if strings.Contains(got, unwanted) {
			t.Errorf("advice should not contain %q:\n%s", unwanted, got)
		}
	}
}

func TestBuildClauseOrder(t *testing.T) {
	// Negative balance, no income, many expenses, recent activity
	var txs []models.Transaction
	for i := 0; i < 5; i++ {
		txs = append(txs, rec(models.Expense, int64(10+i), models.DateOf(now)))
	}
	s := summaryOf(0, 60)
	got := Build(s, set(txs...), now)

	order := []string{
		"balance es negativo",
		"muchos más gastos",
		"No tienes ingresos",
		"fondo de emergencia",
		"actividad reciente",
		"**Resumen:** Balance: -$60.00 | Ingresos: $0.00 | Gastos: $60.00",
		"revisa tus gastos fijos",
	}
	last := -1
	for _, clause := range order {
		idx := strings.Index(got, clause)
		if idx < 0 {
			t.Fatalf("missing %q in:\n%s", clause, got)
		}
		if idx < last {
			t.Errorf("%q out of order in:\n%s", clause, got)
		}
		last = idx
	}
	if strings.Contains(got, "%") {
		t.Errorf("no ratio clause expected without income:\n%s", got)
	}
}

func TestBuildPraiseAndInvest(t *testing.T) {
	ts := set(rec(models.Income, 3100, oldDate), rec(models.Expense, 1250, oldDate))
	got := Build(summaryOf(3100, 1250), ts, now)

	for _, want := range []string{"¡Excelente!", "**40%**", "bajo control", "invertir", "$1,850.00", "aparta un porcentaje"} {
		if !strings.Contains(got, want) {
			t.Errorf("advice missing %q:\n%s", want, got)
		}
	}
}

func TestBuildModerateRatio(t *testing.T) {
	ts := set(rec(models.Income, 1000, oldDate), rec(models.Expense, 800, oldDate))
	got := Build(summaryOf(1000, 800), ts, now)
	if !strings.Contains(got, "por debajo del 70%") {
		t.Errorf("expected moderate clause:\n%s", got)
	}
}

func TestRecentlyActive(t *testing.T) {
	today := models.DateOf(now)
	fourDays := []models.Transaction{}
	for i := 0; i < 4; i++ {
		fourDays = append(fourDays, rec(models.Income, 1, today))
	}
	if recentlyActive(set(fourDays...), now) {
		t.Error("4 records should not count as active")
	}

	five := append(fourDays, rec(models.Income, 1, models.DateOf(now.AddDate(0, 0, -1))))
	if !recentlyActive(set(five...), now) {
		t.Error("5 records with latest yesterday should be active")
	}

	stale := append(fourDays, rec(models.Income, 1, models.DateOf(now.AddDate(0, 0, -3))))
	if recentlyActive(set(stale...), now) {
		t.Error("latest record 3 days ago should not be active")
	}
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML("**Resumen:** ok\n\n<script>alert(1)</script>")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(html), "<strong>Resumen:</strong>") {
		t.Errorf("html = %s", html)
	}
	if strings.Contains(string(html), "<script>") {
		t.Errorf("raw html must not pass through: %s", html)
	}
}

func newTestSession(opts Options) *Session {
	s := NewSession(opts, log.Discard())
	s.now = func() time.Time { return now }
	return s
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestSessionDefaultCountdownStartsAt120(t *testing.T) {
	s := newTestSession(DefaultOptions())
	defer s.Close()

	s.Set("hola")
	snap := s.Snapshot()
	if snap.Remaining != 120 || snap.Advice != "hola" || !snap.Visible() {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestSessionExpires(t *testing.T) {
	s := newTestSession(Options{Lifetime: 100 * time.Millisecond, Tick: 20 * time.Millisecond})
	defer s.Close()

	s.Set("hola")
	if got := s.Snapshot().Remaining; got != 5 {
		t.Fatalf("Remaining = %d, want 5", got)
	}

	waitFor(t, time.Second, func() bool { return s.Snapshot().Remaining < 5 })
	waitFor(t, time.Second, func() bool { return !s.Snapshot().Visible() })
	if got := s.Snapshot().Remaining; got != 0 {
		t.Errorf("Remaining after expiry = %d", got)
	}
}

func TestSessionSetRestartsTimer(t *testing.T) {
	s := newTestSession(Options{Lifetime: 150 * time.Millisecond, Tick: 10 * time.Millisecond})
	defer s.Close()

	s.Set("first")
	time.Sleep(100 * time.Millisecond)
	s.Set("second")
	if snap := s.Snapshot(); snap.Remaining != 15 || snap.Advice != "second" {
		t.Fatalf("after restart = %+v", snap)
	}

	// The first timer would have fired by now; the restarted one has not
	time.Sleep(80 * time.Millisecond)
	if s.Snapshot().Advice != "second" {
		t.Error("restarted advice expired with the old timer")
	}
}

func TestSessionReset(t *testing.T) {
	s := newTestSession(DefaultOptions())
	s.Set("hola")
	s.Reset()
	if snap := s.Snapshot(); snap.Visible() || snap.Remaining != 0 {
		t.Errorf("after Reset = %+v", snap)
	}
}

func TestRequestEmptyAnswersImmediately(t *testing.T) {
	s := newTestSession(Options{ThinkDelay: time.Hour, Lifetime: time.Minute, Tick: time.Second})
	defer s.Close()

	got, err := s.Request(context.Background(), summaryOf(0, 0), set())
	if err != nil || got != EmptyMessage {
		t.Fatalf("Request = %q, %v", got, err)
	}
	if s.Snapshot().Advice != EmptyMessage {
		t.Error("empty message should be displayed")
	}
}

func TestRequestBuildsAfterDelay(t *testing.T) {
	s := newTestSession(Options{ThinkDelay: 20 * time.Millisecond, Lifetime: time.Minute, Tick: time.Second})
	defer s.Close()

	ts := set(rec(models.Income, 1000, oldDate), rec(models.Expense, 950, oldDate))
	done := make(chan string)
	go func() {
		got, _ := s.Request(context.Background(), summaryOf(1000, 950), ts)
		done <- got
	}()

	waitFor(t, time.Second, func() bool { return s.Snapshot().Loading })
	got := <-done
	if !strings.Contains(got, "**Resumen:**") {
		t.Errorf("Request = %q", got)
	}
	snap := s.Snapshot()
	if snap.Loading || snap.Advice != got || snap.Remaining != 60 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestRequestCancelledShowsFailure(t *testing.T) {
	s := newTestSession(Options{ThinkDelay: time.Hour, Lifetime: time.Minute, Tick: time.Second})
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ts := set(rec(models.Income, 1, oldDate))
	got, err := s.Request(ctx, summaryOf(1, 0), ts)
	if err == nil || got != FailureMessage {
		t.Errorf("Request = %q, %v", got, err)
	}
	if s.Snapshot().Advice != FailureMessage {
		t.Error("failure message should be displayed")
	}
}

func TestRequestResetDuringDelayShowsNothing(t *testing.T) {
	s := newTestSession(Options{ThinkDelay: 100 * time.Millisecond, Lifetime: time.Minute, Tick: time.Second})
	defer s.Close()

	type result struct {
		advice string
		err    error
	}
	done := make(chan result, 1)
	go func() {
		got, err := s.Request(context.Background(), summaryOf(1000, 950), set(rec(models.Income, 1000, oldDate)))
		done <- result{got, err}
	}()

	waitFor(t, time.Second, func() bool { return s.Snapshot().Loading })
	s.Reset()

	res := <-done
	if !errors.Is(res.err, ErrSuperseded) || res.advice != "" {
		t.Errorf("Request = %q, %v; want ErrSuperseded", res.advice, res.err)
	}
	snap := s.Snapshot()
	if snap.Visible() || snap.Remaining != 0 || snap.Loading {
		t.Errorf("stale advice after reset: %+v", snap)
	}
}

func TestRequestSetDuringDelayWins(t *testing.T) {
	s := newTestSession(Options{ThinkDelay: 100 * time.Millisecond, Lifetime: time.Minute, Tick: time.Second})
	defer s.Close()

	done := make(chan error, 1)
	go func() {
		_, err := s.Request(context.Background(), summaryOf(1000, 950), set(rec(models.Income, 1000, oldDate)))
		done <- err
	}()

	waitFor(t, time.Second, func() bool { return s.Snapshot().Loading })
	s.Set(EmptyMessage)

	if err := <-done; !errors.Is(err, ErrSuperseded) {
		t.Errorf("err = %v, want ErrSuperseded", err)
	}
	if got := s.Snapshot().Advice; got != EmptyMessage {
		t.Errorf("Advice = %q, want the newer message", got)
	}
}
