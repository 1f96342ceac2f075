package gate

import (
	"sync"
	"time"

	"github.com/mamadbah2/stockroom/internal/domain/models"
)

// SessionEvent reports a change of the signed-in principal. A nil Principal
// means the session ended.
type SessionEvent struct {
	Principal *models.Principal
	ExpiresAt time.Time
	Expired   bool

	seq uint64
}

// Notifier turns sign-in, sign-out and token expiry into a stream of
// SessionEvents.
type Notifier struct {
	events chan SessionEvent
	done   chan struct{}

	mu    sync.Mutex
	seq   uint64
	timer *time.Timer
	now   func() time.Time
	once  sync.Once
}

// NewNotifier returns a notifier with no active session.
func NewNotifier() *Notifier {
	return &Notifier{
		events: make(chan SessionEvent, 8),
		done:   make(chan struct{}),
		now:    time.Now,
	}
}

// Events is the stream consumed by the Gate.
func (n *Notifier) Events() <-chan SessionEvent {
	return n.events
}

// Publish announces session, or a sign-out when session is nil, and arms the
// expiry timer for the new session.
func (n *Notifier) Publish(session *models.Session) {
	n.mu.Lock()
	n.seq++
	seq := n.seq
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}

	ev := SessionEvent{seq: seq}
	if session != nil {
		principal := session.Principal
		ev.Principal = &principal
		ev.ExpiresAt = session.ExpiresAt
		if !session.ExpiresAt.IsZero() {
			n.timer = time.AfterFunc(session.ExpiresAt.Sub(n.now()), func() { n.expire(seq) })
		}
	}
	n.mu.Unlock()

	n.send(ev)
}

// Close stops the expiry timer and releases blocked senders.
func (n *Notifier) Close() {
	n.once.Do(func() {
		n.mu.Lock()
		if n.timer != nil {
			n.timer.Stop()
		}
		n.mu.Unlock()
		close(n.done)
	})
}

func (n *Notifier) expire(seq uint64) {
	if n.stale(seq) {
		return
	}
	n.send(SessionEvent{Expired: true, seq: seq})
}

func (n *Notifier) stale(seq uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return seq != n.seq
}

func (n *Notifier) send(ev SessionEvent) {
	select {
	case n.events <- ev:
	case <-n.done:
	}
}
