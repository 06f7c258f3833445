package event

import (
	"context"
	"sync"
)

// Subscriber is a single subscription to a Bus.
type Subscriber[T any] struct {
	ch     chan T
	closed bool
	mu     sync.Mutex
}

// C returns the channel on which published messages are delivered.
// The channel is closed when the subscriber or the owning bus is closed.
func (s *Subscriber[T]) C() <-chan T {
	return s.ch
}

// Close terminates the subscription. It is idempotent.
func (s *Subscriber[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		close(s.ch)
		s.closed = true
	}
}

// send delivers msg without blocking. Returns false when the subscriber is
// closed or its buffer is full.
func (s *Subscriber[T]) send(msg T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}

// Bus broadcasts values of type T to any number of subscribers.
// All methods are safe for concurrent use. Publishing never blocks:
// subscribers whose buffers are full miss the message.
type Bus[T any] struct {
	mu        sync.RWMutex
	subs      map[*Subscriber[T]]struct{}
	buffer    int
	closed    bool
	cleanupWg sync.WaitGroup
}

// NewBus creates a bus whose subscribers each get a channel buffered to
// bufferSize. A minimum buffer of 1 is enforced so sends stay non-blocking.
func NewBus[T any](bufferSize int) *Bus[T] {
	return &Bus[T]{
		subs:   make(map[*Subscriber[T]]struct{}),
		buffer: max(bufferSize, 1),
	}
}

// Subscribe registers a new subscriber. The subscription is removed when ctx
// is cancelled or the returned subscriber is closed. Subscribing to a closed
// bus returns an already-closed subscriber.
func (b *Bus[T]) Subscribe(ctx context.Context) *Subscriber[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscriber[T]{ch: make(chan T, b.buffer)}
	if b.closed {
		sub.Close()
		return sub
	}
	b.subs[sub] = struct{}{}

	if ctx.Done() != nil {
		b.cleanupWg.Add(1)
		go func() {
			defer b.cleanupWg.Done()
			<-ctx.Done()
			b.unsubscribe(sub)
		}()
	}
	return sub
}

// Publish delivers msg to every active subscriber without blocking.
func (b *Bus[T]) Publish(msg T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for sub := range b.subs {
		// Dropped messages are acceptable; only the latest state matters
		// to listeners, and a stalled listener must not block publishers.
		_ = sub.send(msg)
	}
}

// Close shuts down the bus and all subscribers. Safe to call multiple times.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for sub := range b.subs {
		sub.Close()
	}
	clear(b.subs)
	b.mu.Unlock()

	b.cleanupWg.Wait()
}

func (b *Bus[T]) unsubscribe(sub *Subscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, sub)
	sub.Close()
}
