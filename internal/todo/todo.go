// Package todo manages per-subject task lists.
package todo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jwulff/studytrack/internal/db"
	"github.com/jwulff/studytrack/internal/subject"
)

var (
	ErrEmptyTask    = errors.New("task text is empty")
	ErrTaskNotFound = errors.New("task not found")
)

// Board holds pending and completed tasks keyed by subject.
type Board struct {
	Pending   db.TaskMap
	Completed db.TaskMap

	lastID int64
}

// NewBoard wraps existing mappings. Nil mappings become empty.
func NewBoard(pending, completed db.TaskMap) *Board {
	if pending == nil {
		pending = db.TaskMap{}
	}
	if completed == nil {
		completed = db.TaskMap{}
	}
	b := &Board{Pending: pending, Completed: completed}
	for _, m := range []db.TaskMap{pending, completed} {
		for _, tasks := range m {
			for _, t := range tasks {
				b.lastID = max(b.lastID, t.ID)
			}
		}
	}
	return b
}

// Load reads the board from the store.
func Load(ctx context.Context, store *db.Store) (*Board, error) {
	pending, completed, err := store.Tasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	return NewBoard(pending, completed), nil
}

// Save writes both mappings back to the store.
func (b *Board) Save(ctx context.Context, store *db.Store) error {
	if err := store.SaveTasks(ctx, b.Pending, b.Completed); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

// Add appends a pending task. IDs come from the creation time in
// milliseconds and always increase, even for tasks created in the same ms.
func (b *Board) Add(subj subject.Subject, text string, now time.Time) (db.Task, error) {
	if !subj.Valid() {
		return db.Task{}, fmt.Errorf("%w: %q", subject.ErrUnknownSubject, subj)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return db.Task{}, ErrEmptyTask
	}

	id := now.UnixMilli()
	if id <= b.lastID {
		id = b.lastID + 1
	}
	b.lastID = id

	task := db.Task{ID: id, Text: text, CreatedAt: db.FormatCreatedAt(now)}
	b.Pending[subj] = append(b.Pending[subj], task)
	return task, nil
}

// Delete removes a pending task.
func (b *Board) Delete(subj subject.Subject, id int64) error {
	tasks, i := b.find(subj, id)
	if i < 0 {
		return fmt.Errorf("%w: %s #%d", ErrTaskNotFound, subj, id)
	}
	b.Pending[subj] = slices.Delete(slices.Clone(tasks), i, i+1)
	return nil
}

// Complete moves a pending task to the completed list.
func (b *Board) Complete(subj subject.Subject, id int64) (db.Task, error) {
	tasks, i := b.find(subj, id)
	if i < 0 {
		return db.Task{}, fmt.Errorf("%w: %s #%d", ErrTaskNotFound, subj, id)
	}
	task := tasks[i]
	b.Pending[subj] = slices.Delete(slices.Clone(tasks), i, i+1)
	b.Completed[subj] = append(b.Completed[subj], task)
	return task, nil
}

// ClearCompleted empties the completed list for subj.
func (b *Board) ClearCompleted(subj subject.Subject) {
	b.Completed[subj] = []db.Task{}
}

// List returns the pending and completed tasks for subj.
func (b *Board) List(subj subject.Subject) (pending, completed []db.Task) {
	return b.Pending[subj], b.Completed[subj]
}

func (b *Board) find(subj subject.Subject, id int64) ([]db.Task, int) {
	tasks := b.Pending[subj]
	for i, t := range tasks {
		if t.ID == id {
			return tasks, i
		}
	}
	return tasks, -1
}
