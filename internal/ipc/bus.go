package ipc

import (
	"sync"
	"time"
)

const (
	// DefaultReplay is how many recent messages per namespace a new
	// subscriber receives first.
	DefaultReplay = 64

	// subscriberBuffer is the per-subscriber queue length. A subscriber
	// that falls further behind loses messages.
	subscriberBuffer = 256
)

// Message is one notification on the bus.
type Message struct {
	Namespace string    `json:"namespace"`
	Payload   any       `json:"payload"`
	Time      time.Time `json:"time"`
}

type subscriber struct {
	ch chan Message
}

// ring keeps the last n messages of a namespace.
type ring struct {
	buf  []Message
	next int
	full bool
}

func (r *ring) push(m Message) {
	if len(r.buf) == 0 {
		return
	}
	r.buf[r.next] = m
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

// items returns the buffered messages, oldest first.
func (r *ring) items() []Message {
	if !r.full {
		return append([]Message(nil), r.buf[:r.next]...)
	}
	out := make([]Message, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	return append(out, r.buf[:r.next]...)
}

// Bus is an in-process, namespace-keyed publish/subscribe hub.
// Send never blocks on a slow subscriber.
type Bus struct {
	replay int

	mu      sync.RWMutex
	subs    map[string]map[*subscriber]struct{}
	recent  map[string]*ring
	closed  bool
	dropped uint64

	now func() time.Time
}

// NewBus creates a bus that replays up to replay recent messages per
// namespace to new subscribers. Zero disables replay.
func NewBus(replay int) *Bus {
	if replay < 0 {
		replay = 0
	}
	return &Bus{
		replay: replay,
		subs:   make(map[string]map[*subscriber]struct{}),
		recent: make(map[string]*ring),
		now:    time.Now,
	}
}

// Send publishes payload on namespace to every current subscriber.
func (b *Bus) Send(namespace string, payload any) error {
	if namespace == "" {
		return ErrEmptyNamespace
	}
	msg := Message{Namespace: namespace, Payload: payload, Time: b.now()}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}

	if b.replay > 0 {
		r, ok := b.recent[namespace]
		if !ok {
			r = &ring{buf: make([]Message, b.replay)}
			b.recent[namespace] = r
		}
		r.push(msg)
	}

	for sub := range b.subs[namespace] {
		select {
		case sub.ch <- msg:
		default:
			b.dropped++
		}
	}
	return nil
}

// Subscribe returns a channel of messages on namespace, starting with the
// replay buffer. cancel unsubscribes and closes the channel; it is safe to
// call more than once. After Close the channel is closed immediately.
func (b *Bus) Subscribe(namespace string) (<-chan Message, func()) {
	sub := &subscriber{ch: make(chan Message, subscriberBuffer+b.replay)}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	if r, ok := b.recent[namespace]; ok {
		for _, m := range r.items() {
			sub.ch <- m
		}
	}
	if b.subs[namespace] == nil {
		b.subs[namespace] = make(map[*subscriber]struct{})
	}
	b.subs[namespace][sub] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[namespace][sub]; !ok {
				return // already closed by Close
			}
			delete(b.subs[namespace], sub)
			if len(b.subs[namespace]) == 0 {
				delete(b.subs, namespace)
			}
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Recent returns the replay buffer of namespace, oldest first.
func (b *Bus) Recent(namespace string) []Message {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if r, ok := b.recent[namespace]; ok {
		return r.items()
	}
	return nil
}

// Subscribers returns the number of subscribers on namespace.
func (b *Bus) Subscribers(namespace string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[namespace])
}

// Dropped returns the total number of messages discarded because a
// subscriber's queue was full.
func (b *Bus) Dropped() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}

// Close closes every subscriber channel. Later sends return ErrClosed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ns, set := range b.subs {
		for sub := range set {
			close(sub.ch)
		}
		delete(b.subs, ns)
	}
}
