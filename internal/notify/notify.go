// Package notify is the in-process notification bus.
//
// Notifications are transient: each one is removed automatically once its
// time-to-live elapses. The list is kept most recent first and is never
// persisted or deduplicated.
package notify

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/musicbox/internal/models"
	"github.com/desertthunder/musicbox/internal/shared"
)

// Bus holds the active notifications.
type Bus struct {
	ttl    time.Duration
	logger *log.Logger

	mu      sync.Mutex
	items   []models.Notification
	timers  map[string]*time.Timer
	subs    map[int]func([]models.Notification)
	nextSub int
}

// NewBus creates a [Bus]. A non-positive ttl uses [shared.DefaultNotificationTTL].
func NewBus(ttl time.Duration, logger *log.Logger) *Bus {
	if ttl <= 0 {
		ttl = shared.DefaultNotificationTTL
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Bus{
		ttl:    ttl,
		logger: logger,
		timers: make(map[string]*time.Timer),
		subs:   make(map[int]func([]models.Notification)),
	}
}

// Push adds n to the front of the list and schedules its removal.
//
// The id is always generated; n.TTL overrides the bus default when positive.
func (b *Bus) Push(n models.Notification) string {
	n = n.WithDefaults()
	n.ID = shared.GenerateID()

	ttl := n.TTL
	if ttl <= 0 {
		ttl = b.ttl
	}
	n.TTL = ttl
	n.ExpiresAt = time.Now().Add(ttl)

	id := n.ID
	b.mu.Lock()
	b.items = append([]models.Notification{n}, b.items...)
	b.timers[id] = time.AfterFunc(ttl, func() { b.Remove(id) })
	b.mu.Unlock()

	b.logger.Debug("notification", "kind", n.Kind, "title", n.Title, "message", n.Message)
	b.notify()
	return id
}

// Success pushes a success notification.
func (b *Bus) Success(title, message string) string {
	return b.Push(models.Notification{Kind: models.KindSuccess, Title: title, Message: message})
}

// Error pushes an error notification.
func (b *Bus) Error(title, message string) string {
	return b.Push(models.Notification{Kind: models.KindError, Title: title, Message: message})
}

// Info pushes an info notification.
func (b *Bus) Info(title, message string) string {
	return b.Push(models.Notification{Kind: models.KindInfo, Title: title, Message: message})
}

// Remove deletes the notification with id. Unknown ids are ignored.
func (b *Bus) Remove(id string) {
	b.mu.Lock()
	idx := -1
	for i, n := range b.items {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		b.mu.Unlock()
		return
	}

	b.items = append(b.items[:idx:idx], b.items[idx+1:]...)
	if t, ok := b.timers[id]; ok {
		t.Stop()
		delete(b.timers, id)
	}
	b.mu.Unlock()

	b.notify()
}

// List returns a snapshot, most recent first.
func (b *Bus) List() []models.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Notification(nil), b.items...)
}

// Subscribe registers fn to receive a snapshot after every change.
// Callbacks may run on timer goroutines. The returned func unsubscribes.
func (b *Bus) Subscribe(fn func([]models.Notification)) func() {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Close stops all pending expiry timers and drops every notification.
func (b *Bus) Close() {
	b.mu.Lock()
	for id, t := range b.timers {
		t.Stop()
		delete(b.timers, id)
	}
	b.items = nil
	b.mu.Unlock()
}

func (b *Bus) notify() {
	b.mu.Lock()
	snap := append([]models.Notification(nil), b.items...)
	subs := make([]func([]models.Notification), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
