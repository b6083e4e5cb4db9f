package monitor

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"reservd/pkg/logger"
)

// OnExpired is invoked with the reservation id when a hold's window lapses.
// It runs on the monitor's own execution context, never on the goroutine that
// armed the timer.
type OnExpired func(id string)

// ExpirationMonitor is a registry of cancellable expiration timers keyed by
// reservation id. At most one timer is armed per id: re-arming replaces the
// previous timer atomically, and a replaced timer never fires. State lives
// only for the process lifetime; it is rebuilt from the store on restart.
type ExpirationMonitor struct {
	clock clockwork.Clock
	log   *logger.Logger

	mu    sync.Mutex
	armed map[string]*arming
}

// arming identifies one particular Monitor call. The fire path compares
// identities so a timer that lost a race with StopMonitor or a re-arm can
// detect it was superseded and back out.
type arming struct {
	timer clockwork.Timer
}

func New(clock clockwork.Clock, log *logger.Logger) *ExpirationMonitor {
	return &ExpirationMonitor{
		clock: clock,
		log:   log,
		armed: make(map[string]*arming),
	}
}

// Monitor arms a timer that, after timeout, removes the id from the registry
// and invokes onExpired. An existing timer for the same id is cancelled and
// replaced. A non-positive timeout expires immediately with the same
// observable effect as any other arming.
func (m *ExpirationMonitor) Monitor(id string, timeout time.Duration, onExpired OnExpired) {
	if onExpired == nil {
		m.log.Error("Refusing to arm expiration timer without callback", "reservation_id", id)
		return
	}

	m.mu.Lock()
	if prev, ok := m.armed[id]; ok {
		prev.timer.Stop()
		delete(m.armed, id)
	}

	if timeout <= 0 {
		m.mu.Unlock()
		onExpired(id)
		return
	}

	a := &arming{}
	a.timer = m.clock.AfterFunc(timeout, func() {
		m.fire(id, a, onExpired)
	})
	m.armed[id] = a
	m.mu.Unlock()
}

// fire is the timer callback. Removal precedes the callback so a panicking
// callback cannot leave a dead entry behind, and the callback itself runs
// outside the lock.
func (m *ExpirationMonitor) fire(id string, a *arming, onExpired OnExpired) {
	m.mu.Lock()
	cur, ok := m.armed[id]
	if !ok || cur != a {
		// Superseded by StopMonitor or a re-arm between the deadline and
		// this callback running.
		m.mu.Unlock()
		return
	}
	delete(m.armed, id)
	m.mu.Unlock()

	onExpired(id)
}

// StopMonitor cancels and removes the timer for id. It is idempotent and a
// no-op for unknown ids. Once it returns, the callback for the cancelled
// arming is guaranteed not to run.
func (m *ExpirationMonitor) StopMonitor(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a, ok := m.armed[id]; ok {
		a.timer.Stop()
		delete(m.armed, id)
	}
}

// Armed reports whether a timer is currently registered for id.
func (m *ExpirationMonitor) Armed(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.armed[id]
	return ok
}

// Len returns the number of armed timers.
func (m *ExpirationMonitor) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.armed)
}
