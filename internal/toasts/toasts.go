// Package toasts accumulates transient notifications until the next
// render. The controller and the alert dispatcher both write into the
// buffer; the app surface drains it into each view response.
package toasts

import (
	"sync"

	"github.com/venkatnanaji21/Life-line-blood/internal/models"
)

// Buffer collects toasts. Safe for concurrent use: the alert dispatcher
// notifies from its worker goroutine.
type Buffer struct {
	mu    sync.Mutex
	items []models.Toast
}

// New returns an empty Buffer.
func New() *Buffer {
	return &Buffer{}
}

// Notify appends a toast with the given message and severity.
func (b *Buffer) Notify(message, severity string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = append(b.items, models.Toast{
		Message:  message,
		Severity: severity,
	})
}

// Drain returns the accumulated toasts and empties the buffer.
func (b *Buffer) Drain() []models.Toast {
	b.mu.Lock()
	defer b.mu.Unlock()

	drained := b.items
	b.items = nil

	return drained
}
