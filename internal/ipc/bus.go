package ipc

import (
	"fmt"
	"sync"

	"dualview/internal/logger"
)

type Handler func(Message)

// Scheduler runs fn on the UI thread. Calls must execute in submission order.
type Scheduler interface {
	Do(fn func())
}

type SchedulerFunc func(fn func())

func (f SchedulerFunc) Do(fn func()) { f(fn) }

// Inline runs work on the caller's goroutine.
var Inline Scheduler = SchedulerFunc(func(fn func()) { fn() })

// Bus delivers every message to the handlers registered for its channel, in
// registration order, on the scheduler's thread. Ordering per channel is the
// emission order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Channel][]Handler
	sched    Scheduler
	logger   logger.Logger
	closed   bool
}

func NewBus(sched Scheduler, log logger.Logger) *Bus {
	if sched == nil {
		sched = Inline
	}
	if log == nil {
		log = logger.NoOpLogger{}
	}
	return &Bus{
		handlers: make(map[Channel][]Handler),
		sched:    sched,
		logger:   log,
	}
}

func (b *Bus) On(ch Channel, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[ch] = append(b.handlers[ch], h)
}

// Emit queues msg for delivery. Messages on channels with no handler are dropped.
func (b *Bus) Emit(msg Message) {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return
	}

	b.sched.Do(func() {
		b.dispatch(msg)
	})
}

// Shutdown stops delivery of any further message.
func (b *Bus) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.handlers = make(map[Channel][]Handler)
}

func (b *Bus) dispatch(msg Message) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[msg.Channel]))
	copy(handlers, b.handlers[msg.Channel])
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug("IPCBus", "message dropped, no handler", map[string]interface{}{
			"channel": string(msg.Channel),
		})
		return
	}

	for _, h := range handlers {
		b.invoke(h, msg)
	}
}

func (b *Bus) invoke(h Handler, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("IPCBus", fmt.Errorf("handler panic: %v", r), map[string]interface{}{
				"channel": string(msg.Channel),
			})
		}
	}()
	h(msg)
}
