package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jwulff/studytrack/internal/alert"
	"github.com/jwulff/studytrack/internal/db"
	"github.com/jwulff/studytrack/internal/session"
	"github.com/jwulff/studytrack/internal/todo"

	tea "github.com/charmbracelet/bubbletea"
)

const storeTimeout = 5 * time.Second

// tickCmd schedules the next countdown tick. There is only ever one pending.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// loadSessionsCmd reads the session log.
func loadSessionsCmd(store *db.Store) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		records, err := store.Sessions(ctx)
		if err != nil {
			return StoreErrorMsg{Op: "load sessions", Err: err}
		}
		return SessionsLoadedMsg{Records: records}
	}
}

// loadBoardCmd reads the to-do board.
func loadBoardCmd(store *db.Store) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		board, err := todo.Load(ctx, store)
		if err != nil {
			return StoreErrorMsg{Op: "load tasks", Err: err}
		}
		return BoardLoadedMsg{Board: board}
	}
}

// taskWriter writes board snapshots in the order they were taken. Each save
// runs on its own goroutine, so a snapshot older than the last one written is
// dropped rather than clobbering newer tasks.
type taskWriter struct {
	store  *db.Store
	issued atomic.Int64

	mu      sync.Mutex
	written int64
}

func newTaskWriter(store *db.Store) *taskWriter {
	if store == nil {
		return nil
	}
	return &taskWriter{store: store}
}

// write saves b as revision rev unless a newer revision is already written.
func (w *taskWriter) write(ctx context.Context, rev int64, b *todo.Board) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if rev <= w.written {
		return nil
	}
	if err := b.Save(ctx, w.store); err != nil {
		return err
	}
	w.written = rev
	return nil
}

// saveBoardCmd writes a snapshot of the board. The snapshot and its revision
// are taken before the command runs so a later edit can't race with it.
func saveBoardCmd(w *taskWriter, board *todo.Board) tea.Cmd {
	if w == nil || board == nil {
		return nil
	}
	rev := w.issued.Add(1)
	snapshot := todo.NewBoard(cloneTaskMap(board.Pending), cloneTaskMap(board.Completed))
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := w.write(ctx, rev, snapshot); err != nil {
			return StoreErrorMsg{Op: "save tasks", Err: err}
		}
		return nil
	}
}

func cloneTaskMap(m db.TaskMap) db.TaskMap {
	out := make(db.TaskMap, len(m))
	for k, v := range m {
		out[k] = append([]db.Task(nil), v...)
	}
	return out
}

// effectCmds turns engine effects into fire-and-forget commands. Each runs on
// its own goroutine; the countdown never waits for them.
func effectCmds(store *db.Store, n alert.Notifier, effects []session.Effect) []tea.Cmd {
	var cmds []tea.Cmd
	for _, eff := range effects {
		switch e := eff.(type) {
		case session.RecordSession:
			cmds = append(cmds, saveSessionCmd(store, e.Record))
		case session.Haptic:
			cmds = append(cmds, func() tea.Msg {
				return effectResult("haptic", n.Haptic(e.Duration))
			})
		case session.PlayAlarm:
			cmds = append(cmds, func() tea.Msg {
				return effectResult("alarm", n.Alarm(context.Background(), e.Duration))
			})
		case session.Notify:
			cmds = append(cmds, func() tea.Msg {
				return effectResult("notify", n.Notify(e.Title, e.Body))
			})
		}
	}
	return cmds
}

func saveSessionCmd(store *db.Store, rec db.SessionRecord) tea.Cmd {
	return func() tea.Msg {
		if store == nil {
			return SessionSavedMsg{Record: rec}
		}
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := store.AppendSession(ctx, rec); err != nil {
			return EffectFailedMsg{Effect: "save session", Err: err}
		}
		return SessionSavedMsg{Record: rec}
	}
}

func effectResult(name string, err error) tea.Msg {
	if err != nil {
		return EffectFailedMsg{Effect: name, Err: err}
	}
	return nil
}
