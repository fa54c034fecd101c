package app

import (
	"time"

	"github.com/jwulff/studytrack/internal/db"
	"github.com/jwulff/studytrack/internal/todo"
)

// TickMsg drives the countdown once per second.
type TickMsg struct {
	Time time.Time
}

// SessionsLoadedMsg carries the session log read from the store.
type SessionsLoadedMsg struct {
	Records []db.SessionRecord
}

// BoardLoadedMsg carries the to-do board read from the store.
type BoardLoadedMsg struct {
	Board *todo.Board
}

// SessionSavedMsg is sent after a completed work interval was persisted.
type SessionSavedMsg struct {
	Record db.SessionRecord
}

// EffectFailedMsg reports a side effect (persist, notify, alarm, haptic)
// that failed. The cycle has already moved on.
type EffectFailedMsg struct {
	Effect string
	Err    error
}

// StoreErrorMsg reports a failed load or save outside the session cycle.
type StoreErrorMsg struct {
	Op  string
	Err error
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}
