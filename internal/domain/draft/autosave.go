package draft

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Autosaver debounces draft writes: every qualifying form mutation calls
// Touch, which replaces any pending timer. When the timer fires without being
// superseded, the snapshot is taken and written to the draft slot. Stop
// discards pending work; explicit save/reset use it so a timer can never fire
// after the draft has been deliberately cleared. Flush writes pending work
// immediately, for shutdown.
type Autosaver struct {
	mgr   *Manager
	delay time.Duration
	log   zerolog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending func() *Draft
	gen     uint64
}

func NewAutosaver(mgr *Manager, delay time.Duration, log zerolog.Logger) *Autosaver {
	return &Autosaver{mgr: mgr, delay: delay, log: log}
}

// Touch (re)schedules a single delayed save. snapshot runs when the timer
// fires and may return nil to skip the write (e.g. the form has since left
// an editable mode).
func (a *Autosaver) Touch(snapshot func() *Draft) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.gen++
	gen := a.gen
	a.pending = snapshot
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, func() {
		a.mu.Lock()
		stale := gen != a.gen
		a.mu.Unlock()
		if stale {
			return
		}

		// The snapshot may block on the form's own lock, so it runs
		// outside a.mu.
		d := snapshot()

		// Re-check under the lock and hold it through the write: a Stop
		// that ran while the snapshot was being taken must win, or a
		// reset's Clear could be overwritten by this stale draft.
		a.mu.Lock()
		defer a.mu.Unlock()
		if gen != a.gen {
			return
		}
		a.pending = nil
		if d == nil {
			return
		}
		if err := a.mgr.Save(d); err != nil {
			a.log.Warn().Err(err).Msg("draft autosave failed")
		}
	})
}

// Flush writes any pending snapshot now instead of waiting out the debounce.
func (a *Autosaver) Flush() {
	a.mu.Lock()
	snapshot := a.pending
	a.gen++
	a.pending = nil
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()

	if snapshot != nil {
		a.write(snapshot)
	}
}

// Stop discards any pending save and invalidates timers already in flight.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.gen++
	a.pending = nil
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *Autosaver) write(snapshot func() *Draft) {
	d := snapshot()
	if d == nil {
		return
	}
	if err := a.mgr.Save(d); err != nil {
		a.log.Warn().Err(err).Msg("draft autosave failed")
	}
}
