// Package confirm implements a two-press confirmation that disarms itself.
package confirm

import (
	"sync"
	"time"
)

// DefaultWindow is how long the gate stays armed
const DefaultWindow = 3 * time.Second

// Gate is armed by the first Press and fires on a second Press inside the
// window. If the window passes, it reverts to idle.
type Gate struct {
	window time.Duration

	mu    sync.Mutex
	armed bool
	timer *time.Timer
	gen   uint64
}

// New returns an idle gate
func New(window time.Duration) *Gate {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Gate{window: window}
}

// Press returns true when this press confirms the action
func (g *Gate) Press() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.armed {
		g.disarmLocked()
		return true
	}

	g.armed = true
	g.gen++
	gen := g.gen
	g.timer = time.AfterFunc(g.window, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.gen == gen {
			g.armed = false
			g.timer = nil
		}
	})
	return false
}

// Armed reports whether the next Press will confirm
func (g *Gate) Armed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.armed
}

// Stop disarms the gate and cancels its timer
func (g *Gate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.disarmLocked()
}

func (g *Gate) disarmLocked() {
	g.armed = false
	g.gen++
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}
