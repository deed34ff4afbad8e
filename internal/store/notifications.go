package store

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/safar/storefront/internal/models"
)

const DefaultNotificationTTL = 5 * time.Second

// NotificationQueue holds active notifications in insertion order. Each one
// is removed after the TTL or on Dismiss, whichever comes first. The queue
// has its own lock because expiry timers fire on their own goroutines.
type NotificationQueue struct {
	mu     sync.Mutex
	sched  Scheduler
	ttl    time.Duration
	nextID int64
	items  []models.Notification
	timers map[int64]Timer
	closed bool
}

func NewNotificationQueue(sched Scheduler, ttl time.Duration) *NotificationQueue {
	if sched == nil {
		sched = SystemScheduler()
	}
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	return &NotificationQueue{
		sched:  sched,
		ttl:    ttl,
		timers: make(map[int64]Timer),
	}
}

// Enqueue appends a notification and schedules its expiry. Ids come from a
// counter, so a late timer can never remove a newer entry.
func (q *NotificationQueue) Enqueue(typ models.NotificationType, title, message string) (models.Notification, error) {
	if !typ.Valid() {
		return models.Notification{}, invalid("type", "unknown notification type %q", typ)
	}
	if strings.TrimSpace(message) == "" {
		return models.Notification{}, invalid("message", "must not be empty")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return models.Notification{}, ErrClosed
	}

	q.nextID++
	n := models.Notification{
		ID:        q.nextID,
		Type:      typ,
		Title:     title,
		Message:   message,
		CreatedAt: q.sched.Now(),
	}
	q.items = append(q.items, n)

	id := n.ID
	q.timers[id] = q.sched.AfterFunc(q.ttl, func() { q.expire(id) })
	return n, nil
}

// Notify implements Notifier. Invalid messages and a closed queue are
// silently ignored.
func (q *NotificationQueue) Notify(typ models.NotificationType, title, message string) {
	_, _ = q.Enqueue(typ, title, message)
}

// Dismiss removes the notification and cancels its timer. Dismissing an id
// that is already gone is a no-op.
func (q *NotificationQueue) Dismiss(id int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if t, ok := q.timers[id]; ok {
		t.Stop()
		delete(q.timers, id)
	}
	return q.removeLocked(id)
}

func (q *NotificationQueue) expire(id int64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.timers, id)
	q.removeLocked(id)
}

func (q *NotificationQueue) removeLocked(id int64) bool {
	for i, n := range q.items {
		if n.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

func (q *NotificationQueue) List() []models.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.items)
}

func (q *NotificationQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *NotificationQueue) Unread() []models.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []models.Notification
	for _, n := range q.items {
		if !n.Read {
			out = append(out, n)
		}
	}
	return out
}

func (q *NotificationQueue) UnreadCount() int {
	return len(q.Unread())
}

// Recent returns up to limit notifications, newest first.
func (q *NotificationQueue) Recent(limit int) []models.Notification {
	if limit <= 0 {
		limit = 5
	}

	out := q.List()
	slices.Reverse(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (q *NotificationQueue) MarkRead(id int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.items {
		if q.items[i].ID == id {
			q.items[i].Read = true
			return true
		}
	}
	return false
}

func (q *NotificationQueue) MarkAllRead() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.items {
		q.items[i].Read = true
	}
}

// Clear dismisses every notification.
func (q *NotificationQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.clearLocked()
}

// Close cancels all pending timers and rejects further notifications. It is
// safe to call more than once.
func (q *NotificationQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.clearLocked()
	q.closed = true
}

func (q *NotificationQueue) clearLocked() {
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	q.items = nil
}
