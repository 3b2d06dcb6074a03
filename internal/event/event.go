// Package event is an in-process publish/subscribe bus.
package event

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/victornm/standings/internal/telemetry"
)

const (
	defaultPoolSize = 1000
	defaultTimeout  = 30 * time.Second
)

type Event interface {
	Name() string
}

type Handler func(ctx context.Context, e Event) error

// Typed adapts a handler of one concrete event type. Events of other types are ignored.
func Typed[T Event](h func(ctx context.Context, e T) error) Handler {
	return func(ctx context.Context, e Event) error {
		te, ok := e.(T)
		if !ok {
			return fmt.Errorf("unexpected event type %T for %s", e, e.Name())
		}
		return h(ctx, te)
	}
}

type Option func(b *Bus)

// WithPoolSize bounds the number of handlers running at the same time.
func WithPoolSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.pool = make(chan struct{}, n)
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// Bus dispatches every published event to the handlers subscribed to its name, each in its own goroutine.
type Bus struct {
	pool    chan struct{}
	timeout time.Duration
	wg      sync.WaitGroup

	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewBus creates a bus. Call Stop to wait for running handlers on shutdown.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		pool:     make(chan struct{}, defaultPoolSize),
		timeout:  defaultTimeout,
		handlers: make(map[string][]Handler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[name] = append(b.handlers[name], h)
}

// Publish hands the event to its handlers and returns without waiting for them. It blocks while the pool is full.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	handlers := b.handlers[e.Name()]
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(ctx, h, e)
	}
}

func (b *Bus) dispatch(ctx context.Context, h Handler, e Event) {
	b.wg.Add(1)
	b.pool <- struct{}{}

	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
		defer func() {
			if r := recover(); r != nil {
				telemetry.EventHandlerErrors.WithLabelValues(e.Name()).Inc()
				slog.ErrorContext(ctx, "event: handler panic",
					"event", e.Name(),
					"error", fmt.Errorf("%v, stack: %s", r, debug.Stack()),
				)
			}

			cancel()
			<-b.pool
			b.wg.Done()
		}()

		if err := h(ctx, e); err != nil {
			telemetry.EventHandlerErrors.WithLabelValues(e.Name()).Inc()
			slog.ErrorContext(ctx, "event: handle event failed",
				"event", e.Name(),
				"error", err,
			)
		}
	}()
}

// Stop waits for all dispatched handlers to finish.
func (b *Bus) Stop() {
	b.wg.Wait()
}
