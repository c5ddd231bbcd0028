package race

import "time"

// Notification is a queued toast: title, body and the time it becomes due.
// The queue decouples presentation ordering from the finish procedure that
// produces it.
type Notification struct {
	Title       string
	Description string
	DueAt       time.Time
}

// noticeQueue holds pending notifications in due order. Achievements are
// queued with staggered delays so they never overlap on screen.
type noticeQueue struct {
	pending []Notification
}

func (q *noticeQueue) push(title, desc string, dueAt time.Time) {
	q.pending = append(q.pending, Notification{Title: title, Description: desc, DueAt: dueAt})
}

// pop returns every notification due at or before now, preserving queue
// order, and removes them from the queue.
func (q *noticeQueue) pop(now time.Time) []Notification {
	var due []Notification
	remaining := q.pending[:0]
	for _, n := range q.pending {
		if !n.DueAt.After(now) {
			due = append(due, n)
		} else {
			remaining = append(remaining, n)
		}
	}
	q.pending = remaining
	return due
}

func (q *noticeQueue) clear() {
	q.pending = nil
}
