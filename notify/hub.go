package notify

import "sync"

// Hub broadcasts values of type T to subscribed listeners.
// Listeners whose buffer is full miss the value; they are expected to
// re-read the latest state on the next one.
type Hub[T any] struct {
	mu        sync.RWMutex
	listeners map[chan T]struct{}
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{listeners: make(map[chan T]struct{})}
}

// Subscribe returns a channel receiving broadcasts.
// The caller must call Unsubscribe when done.
func (h *Hub[T]) Subscribe() chan T {
	ch := make(chan T, 1)
	h.mu.Lock()
	h.listeners[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (h *Hub[T]) Unsubscribe(ch chan T) {
	h.mu.Lock()
	if _, ok := h.listeners[ch]; ok {
		delete(h.listeners, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Broadcast never blocks.
func (h *Hub[T]) Broadcast(v T) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.listeners {
		select {
		case ch <- v:
		default:
		}
	}
}

func (h *Hub[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}
