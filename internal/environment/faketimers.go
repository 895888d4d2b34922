package environment

import "sort"

// scheduledCallback is one entry queued by a module's (faked) setTimeout
// or setInterval while fake timers are active.
type scheduledCallback struct {
	id       int64
	delay    int64
	repeat   bool
	cancelled bool
	run      func()
}

// manualFakeTimers is a minimal virtual-clock FakeTimers implementation.
// Real timer dispatch (setTimeout/setInterval themselves) is provided by
// whatever built-in module registers them; this only holds the queue that
// useFakeTimers/runAllTimers/clearAllTimers operate over. Grounded
// loosely on the teacher's internal/modules/timers.TimersModule id/queue
// bookkeeping, replacing real time.Timer dispatch with a manually advanced
// virtual queue, since a test's fake timers must never actually sleep.
type manualFakeTimers struct {
	active  bool
	nextID  int64
	pending []*scheduledCallback
}

func newManualFakeTimers() *manualFakeTimers {
	return &manualFakeTimers{}
}

func (t *manualFakeTimers) UseFakeTimers() {
	t.active = true
}

func (t *manualFakeTimers) UseRealTimers() {
	t.active = false
	t.pending = nil
}

// Schedule registers a callback to run after delay (in the virtual clock's
// units) when fake timers are active. Returns a timer id.
func (t *manualFakeTimers) Schedule(delay int64, repeat bool, run func()) int64 {
	t.nextID++
	t.pending = append(t.pending, &scheduledCallback{id: t.nextID, delay: delay, repeat: repeat, run: run})
	return t.nextID
}

func (t *manualFakeTimers) Clear(id int64) {
	for _, cb := range t.pending {
		if cb.id == id {
			cb.cancelled = true
		}
	}
}

func (t *manualFakeTimers) RunAllTicks() {
	t.runOnce()
}

func (t *manualFakeTimers) RunAllImmediates() {
	t.runOnce()
}

// RunAllTimers runs every currently pending timer in delay order,
// including any new ones scheduled by a callback while it runs, bounded
// to avoid an infinite setInterval chain spinning forever.
func (t *manualFakeTimers) RunAllTimers() {
	const maxPasses = 100000
	for pass := 0; pass < maxPasses && len(t.pendingSorted()) > 0; pass++ {
		if !t.runOnce() {
			break
		}
	}
}

func (t *manualFakeTimers) RunOnlyPendingTimers() {
	snapshot := t.pendingSorted()
	t.pending = nil
	for _, cb := range snapshot {
		if !cb.cancelled {
			cb.run()
		}
	}
}

func (t *manualFakeTimers) ClearAllTimers() {
	t.pending = nil
}

func (t *manualFakeTimers) pendingSorted() []*scheduledCallback {
	out := make([]*scheduledCallback, 0, len(t.pending))
	for _, cb := range t.pending {
		if !cb.cancelled {
			out = append(out, cb)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].delay < out[j].delay })
	return out
}

// runOnce keeps the due callback in t.pending while it runs, so a callback
// that cancels its own timer id (the common clearInterval-inside-its-own-
// tick pattern) is observed: Clear/ClearAllTimers mutate the same
// scheduledCallback this loop inspects afterward, rather than a detached
// copy.
func (t *manualFakeTimers) runOnce() bool {
	due := t.pendingSorted()
	if len(due) == 0 {
		return false
	}
	next := due[0]
	next.run()
	if next.cancelled || !next.repeat {
		t.removeByID(next.id)
	}
	return true
}

func (t *manualFakeTimers) removeByID(id int64) {
	out := t.pending[:0]
	for _, cb := range t.pending {
		if cb.id != id {
			out = append(out, cb)
		}
	}
	t.pending = out
}
