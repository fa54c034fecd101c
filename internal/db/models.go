// Package db provides SQLite-backed key-value persistence for studytrack.
package db

import (
	"time"

	"github.com/jwulff/studytrack/internal/subject"
)

// Keys under which collections are stored. Values are JSON.
const (
	KeySessions           = "sessions"
	KeyTodoTasks          = "todoTasks"
	KeyCompletedTodoTasks = "completedTodoTasks"
)

// SessionRecord is one completed focus interval. Records are never mutated.
type SessionRecord struct {
	Timestamp time.Time       `json:"timestamp"`
	Duration  int             `json:"duration"` // seconds
	Subject   subject.Subject `json:"subject"`
	Note      string          `json:"note,omitempty"`
}

// Task is a to-do item. IDs are derived from the creation time in milliseconds.
// CreatedAt is kept verbatim: new tasks write RFC 3339, older data holds
// locale-formatted text such as "4/2/2025, 8:00:00 AM".
type Task struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

// localeLayout is the en-US toLocaleString format found in older data.
const localeLayout = "1/2/2006, 3:04:05 PM"

// FormatCreatedAt renders t the way new tasks store it.
func FormatCreatedAt(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Created parses CreatedAt. Locale text is read in loc. ok is false when the
// value is in neither format.
func (t Task) Created(loc *time.Location) (time.Time, bool) {
	if ts, err := time.Parse(time.RFC3339, t.CreatedAt); err == nil {
		return ts, true
	}
	if ts, err := time.ParseInLocation(localeLayout, t.CreatedAt, loc); err == nil {
		return ts, true
	}
	return time.Time{}, false
}

// TaskMap groups tasks by subject, in insertion order.
type TaskMap map[subject.Subject][]Task
