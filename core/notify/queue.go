// Package notify queues transient notifications (toasts) until the next page render.
package notify

import "sync"

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

type Notification struct {
	Level   Level
	Message string
}

type Queue struct {
	mu    sync.Mutex
	items []Notification
}

func NewQueue() *Queue { return new(Queue) }

func (q *Queue) Push(level Level, msg string) {
	if msg == "" {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, Notification{Level: level, Message: msg})
	q.mu.Unlock()
}

func (q *Queue) Success(msg string) { q.Push(LevelSuccess, msg) }
func (q *Queue) Info(msg string)    { q.Push(LevelInfo, msg) }
func (q *Queue) Error(msg string)   { q.Push(LevelError, msg) }

// Drain returns the pending notifications and empties the queue.
func (q *Queue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}
