// Package event provides typed observer lists. A handler returning false
// asks the publisher to cancel the default action.
package event

// Handler observes an event payload.
type Handler[T any] func(T) bool

// Event is a list of subscribed handlers. The zero value is ready to use.
type Event[T any] struct {
	handlers []*Handler[T]
}

// Subscribe registers fn and returns a function that removes it.
func (e *Event[T]) Subscribe(fn Handler[T]) (unsubscribe func()) {
	h := &fn
	e.handlers = append(e.handlers, h)
	return func() {
		for i, x := range e.handlers {
			if x == h {
				e.handlers = append(e.handlers[:i:i], e.handlers[i+1:]...)
				return
			}
		}
	}
}

// Observe registers a handler that never cancels.
func (e *Event[T]) Observe(fn func(T)) (unsubscribe func()) {
	return e.Subscribe(func(v T) bool {
		fn(v)
		return true
	})
}

// Notify calls every handler in subscription order and reports false when
// any handler asked for cancellation.
func (e *Event[T]) Notify(v T) bool {
	ok := true
	for _, h := range append([]*Handler[T](nil), e.handlers...) {
		if !(*h)(v) {
			ok = false
		}
	}
	return ok
}

// Len returns the number of handlers.
func (e *Event[T]) Len() int {
	return len(e.handlers)
}
