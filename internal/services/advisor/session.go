package advisor

import (
	"context"
	"errors"
	"sync"
	"time"

	"finanzas/internal/log"
	"finanzas/internal/models"
)

// Options tunes the session timers
type Options struct {
	ThinkDelay time.Duration // simulated analysis time
	Lifetime   time.Duration // how long advice stays visible
	Tick       time.Duration // countdown step
}

// DefaultOptions matches the web UI: 1.5s of "Analizando...", advice for 120s
func DefaultOptions() Options {
	return Options{
		ThinkDelay: 1500 * time.Millisecond,
		Lifetime:   120 * time.Second,
		Tick:       time.Second,
	}
}

// ErrSuperseded is returned by Request when the advice was reset or replaced
// while it was being prepared. Nothing is shown for it.
var ErrSuperseded = errors.New("advice request superseded")

// Snapshot is the state the advisor panel renders
type Snapshot struct {
	Advice    string
	Remaining int
	Loading   bool
}

// Visible reports whether there is advice on screen
func (s Snapshot) Visible() bool { return s.Advice != "" }

// Session owns the currently displayed advice with its expiry timer and
// countdown ticker. Setting new advice cancels both before starting again.
type Session struct {
	opts   Options
	logger *log.Logger
	now    func() time.Time

	mu        sync.Mutex
	advice    string
	remaining int
	loading   int
	gen       uint64
	expiry    *time.Timer
	stop      chan struct{}
}

// NewSession creates an idle session
func NewSession(opts Options, logger *log.Logger) *Session {
	if opts.Tick <= 0 {
		opts.Tick = time.Second
	}
	if opts.Lifetime <= 0 {
		opts.Lifetime = DefaultOptions().Lifetime
	}
	return &Session{
		opts:   opts,
		logger: logger.WithComponent(log.ComponentAdvisor),
		now:    time.Now,
	}
}

// Request runs one explicit advice request. An empty set answers at once;
// otherwise the message is set after the think delay. If ctx ends first the
// failure message is shown instead. A Reset or Set during the delay wins and
// Request returns ErrSuperseded.
func (s *Session) Request(ctx context.Context, summary models.FinancialSummary, ts *models.TransactionSet) (string, error) {
	if ts.IsEmpty() {
		s.Set(EmptyMessage)
		return EmptyMessage, nil
	}

	s.mu.Lock()
	s.loading++
	gen := s.gen
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading--
		s.mu.Unlock()
	}()

	if s.opts.ThinkDelay > 0 {
		t := time.NewTimer(s.opts.ThinkDelay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			s.logger.Warn("advice request abandoned", log.FieldError, ctx.Err())
			if !s.setIfCurrent(FailureMessage, gen) {
				return "", ErrSuperseded
			}
			return FailureMessage, ctx.Err()
		case <-t.C:
		}
	}

	advice := Build(summary, ts, s.now())
	if !s.setIfCurrent(advice, gen) {
		s.logger.Debug("advice discarded, session changed during delay")
		return "", ErrSuperseded
	}
	s.logger.Debug("advice generated", log.FieldCount, ts.Len())
	return advice, nil
}

// Set shows msg and restarts the expiry timer and countdown
func (s *Session) Set(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(msg)
}

// setIfCurrent sets msg only if nothing changed the session since gen was read
func (s *Session) setIfCurrent(msg string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.setLocked(msg)
	return true
}

func (s *Session) setLocked(msg string) {
	s.stopTimersLocked()
	s.gen++
	gen := s.gen
	s.advice = msg
	s.remaining = int(s.opts.Lifetime / s.opts.Tick)

	stop := make(chan struct{})
	s.stop = stop
	s.expiry = time.AfterFunc(s.opts.Lifetime, func() { s.expire(gen) })
	go s.countdown(gen, stop)
}

func (s *Session) countdown(gen uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(s.opts.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.gen == gen && s.remaining > 0 {
				s.remaining--
			}
			s.mu.Unlock()
		}
	}
}

func (s *Session) expire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	s.stopTimersLocked()
	s.advice = ""
	s.remaining = 0
}

// Reset clears the advice and cancels its timers, as after "clear all"
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimersLocked()
	s.gen++
	s.advice = ""
	s.remaining = 0
}

// Close stops all timers
func (s *Session) Close() {
	s.Reset()
}

func (s *Session) stopTimersLocked() {
	if s.expiry != nil {
		s.expiry.Stop()
		s.expiry = nil
	}
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

// Snapshot returns the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Advice:    s.advice,
		Remaining: s.remaining,
		Loading:   s.loading > 0,
	}
}
