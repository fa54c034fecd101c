package app

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/jwulff/studytrack/internal/alert"
	"github.com/jwulff/studytrack/internal/config"
	"github.com/jwulff/studytrack/internal/db"
	"github.com/jwulff/studytrack/internal/logger"
	"github.com/jwulff/studytrack/internal/session"
	"github.com/jwulff/studytrack/internal/stats"
	"github.com/jwulff/studytrack/internal/subject"
	"github.com/jwulff/studytrack/internal/todo"

	tea "github.com/charmbracelet/bubbletea"
)

// Tab is one of the top-level screens.
type Tab int

const (
	TabTimer Tab = iota
	TabTodo
	TabStats
)

var tabNames = []string{"Timer", "Todo", "Stats"}

func (t Tab) String() string { return tabNames[t] }

func (t Tab) next() Tab { return (t + 1) % Tab(len(tabNames)) }

func (t Tab) prev() Tab { return (t + Tab(len(tabNames)) - 1) % Tab(len(tabNames)) }

// editField is the value the text input is currently editing.
type editField int

const (
	editNone editField = iota
	editNote
	editWork
	editShort
	editLong
	editTask
)

// Deps are the collaborators the model needs. Nil fields get defaults.
type Deps struct {
	Store    *db.Store
	Notifier alert.Notifier
	Logger   *slog.Logger
	Clock    session.Clock
	Config   *config.Config
	Location *time.Location
}

// Model is the root bubbletea model for the studytrack TUI.
type Model struct {
	engine   *session.Engine
	store    *db.Store
	notifier alert.Notifier
	logger   *slog.Logger
	clock    session.Clock
	loc      *time.Location
	exam     config.Exam

	// Todo
	board        *todo.Board
	boardReady   bool
	tasks        *taskWriter
	selectedTask int

	// Stats
	records []db.SessionRecord
	period  stats.Period

	// Input
	editing editField
	input   textinput.Model

	// UI state
	tab         Tab
	width       int
	height      int
	suspendedAt time.Time

	// Errors
	errorMessage   string
	errorTransient bool

	// Status
	statusText string
}

// New creates a Model with a stopped first work interval.
func New(deps Deps) Model {
	cfg := deps.Config
	if cfg == nil {
		d := config.Defaults()
		cfg = &d
	}
	if deps.Notifier == nil {
		deps.Notifier = alert.Silent{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.Discard()
	}
	if deps.Clock == nil {
		deps.Clock = session.SystemClock{}
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}

	engine := session.New(deps.Clock, cfg.Session(), cfg.Subject())
	engine.SetAlarmDuration(cfg.AlarmDuration())

	input := textinput.New()
	input.CharLimit = 200

	return Model{
		engine:     engine,
		store:      deps.Store,
		notifier:   deps.Notifier,
		logger:     deps.Logger,
		clock:      deps.Clock,
		loc:        deps.Location,
		exam:       cfg.Exam,
		board:      todo.NewBoard(nil, nil),
		boardReady: deps.Store == nil,
		tasks:      newTaskWriter(deps.Store),
		period:     stats.Weekly,
		input:      input,
		statusText: "Ready",
	}
}

// Init starts the countdown driver and loads persisted state.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		loadBoardCmd(m.store),
		loadSessionsCmd(m.store),
	)
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		if m.editing != editNone {
			return m.handleEditKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TickMsg:
		cmds := m.runEffects(m.engine.Tick())
		cmds = append(cmds, tickCmd())
		return m, tea.Batch(cmds...)

	case tea.ResumeMsg:
		if !m.suspendedAt.IsZero() {
			gap := m.clock.Now().Sub(m.suspendedAt)
			m.suspendedAt = time.Time{}
			m.engine.ReconcileBackgroundGap(gap)
			m.logger.Debug("resumed", "gap", gap.Round(time.Second))
		}
		cmds := m.runEffects(m.engine.Check())
		return m, tea.Batch(cmds...)

	case SessionsLoadedMsg:
		m.records = mergeRecords(msg.Records, m.records)
		return m, nil

	case BoardLoadedMsg:
		m.board = msg.Board
		m.boardReady = true
		m.clampSelection()
		return m, nil

	case SessionSavedMsg:
		m.records = append(m.records, msg.Record)
		m.logger.Info("session recorded",
			"subject", msg.Record.Subject,
			"seconds", msg.Record.Duration)
		m.statusText = fmt.Sprintf("Logged %d min of %s", msg.Record.Duration/60, msg.Record.Subject)
		return m, nil

	case EffectFailedMsg:
		m.logger.Warn("effect failed", "effect", msg.Effect, "err", msg.Err)
		return m.withTransientError(fmt.Sprintf("%s: %v", msg.Effect, msg.Err))

	case StoreErrorMsg:
		m.logger.Error("store", "op", msg.Op, "err", msg.Err)
		return m.withTransientError(fmt.Sprintf("%s: %v", msg.Op, msg.Err))

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	if m.editing != editNone {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// runEffects logs the interval change and turns effects into commands.
func (m *Model) runEffects(effects []session.Effect) []tea.Cmd {
	if len(effects) == 0 {
		return nil
	}
	st := m.engine.State()
	m.statusText = fmt.Sprintf("%s started", phaseLabel(st))
	m.logger.Info("interval complete", "next", st.Phase, "cycles", st.CycleCount)
	return effectCmds(m.store, m.notifier, effects)
}

func (m Model) withTransientError(text string) (tea.Model, tea.Cmd) {
	m.errorMessage = text
	m.errorTransient = true
	return m, clearTransientErrorCmd()
}

func (m Model) subject() subject.Subject {
	return m.engine.State().Subject
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, "Q", KeyCtrlC:
		return m, tea.Quit

	case KeySuspend:
		m.suspendedAt = m.clock.Now()
		return m, tea.Suspend

	case KeyTab:
		return m.switchTab(m.tab.next())

	case KeyShiftTab:
		return m.switchTab(m.tab.prev())

	case KeyPrevSubject:
		return m.selectSubject(m.subject().Prev())

	case KeyNextSubject:
		return m.selectSubject(m.subject().Next())
	}

	switch m.tab {
	case TabTimer:
		return m.handleTimerKey(msg)
	case TabTodo:
		return m.handleTodoKey(msg)
	case TabStats:
		return m.handleStatsKey(msg)
	}
	return m, nil
}

func (m Model) switchTab(t Tab) (tea.Model, tea.Cmd) {
	m.tab = t
	if t == TabStats {
		return m, loadSessionsCmd(m.store)
	}
	return m, nil
}

func (m Model) selectSubject(s subject.Subject) (tea.Model, tea.Cmd) {
	if err := m.engine.SetSubject(s); err != nil {
		return m.withTransientError(err.Error())
	}
	m.selectedTask = 0
	m.statusText = "Subject: " + s.String()
	return m, nil
}

func (m Model) handleTimerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyStartPause:
		if m.engine.State().Running {
			m.engine.Pause()
			m.statusText = "Paused"
		} else {
			m.engine.Start()
			m.statusText = phaseLabel(m.engine.State()) + " started"
		}
		return m, nil

	case KeyResume:
		st := m.engine.State()
		if !st.Running && st.SecondsRemaining > 0 {
			m.engine.Resume()
			m.statusText = "Resumed"
		}
		return m, nil

	case KeyReset:
		m.engine.Reset()
		m.statusText = "Reset"
		return m, nil

	case KeySkip:
		effects, err := m.engine.Skip()
		if errors.Is(err, session.ErrNotOnBreak) {
			return m.withTransientError("skip is only available during a break")
		}
		cmds := m.runEffects(effects)
		return m, tea.Batch(cmds...)

	case KeyEditNote:
		return m.beginEdit(editNote, "Note: ", m.engine.State().Note)

	case KeyEditWork:
		return m.beginEdit(editWork, "Work minutes: ", strconv.Itoa(m.engine.State().Config.WorkMinutes))

	case KeyEditShort:
		return m.beginEdit(editShort, "Short break minutes: ", strconv.Itoa(m.engine.State().Config.ShortBreakMinutes))

	case KeyEditLong:
		return m.beginEdit(editLong, "Long break minutes: ", strconv.Itoa(m.engine.State().Config.LongBreakMinutes))
	}
	return m, nil
}

func (m Model) handleTodoKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pending, _ := m.board.List(m.subject())

	// Edits before the stored board arrives would be saved over it.
	switch msg.String() {
	case KeyAddTask, KeyCompleteTask, KeyDeleteTask, KeyClearCompleted:
		if !m.boardReady {
			m.statusText = "Loading tasks..."
			return m, nil
		}
	}

	switch msg.String() {
	case KeyAddTask:
		return m.beginEdit(editTask, "New task: ", "")

	case KeyDown, KeyArrowDown:
		if m.selectedTask < len(pending)-1 {
			m.selectedTask++
		}
		return m, nil

	case KeyUp, KeyArrowUp:
		if m.selectedTask > 0 {
			m.selectedTask--
		}
		return m, nil

	case KeyCompleteTask:
		if m.selectedTask >= len(pending) {
			return m, nil
		}
		task, err := m.board.Complete(m.subject(), pending[m.selectedTask].ID)
		if err != nil {
			return m.withTransientError(err.Error())
		}
		m.clampSelection()
		m.statusText = "Completed: " + task.Text
		return m, saveBoardCmd(m.tasks, m.board)

	case KeyDeleteTask:
		if m.selectedTask >= len(pending) {
			return m, nil
		}
		if err := m.board.Delete(m.subject(), pending[m.selectedTask].ID); err != nil {
			return m.withTransientError(err.Error())
		}
		m.clampSelection()
		m.statusText = "Task deleted"
		return m, saveBoardCmd(m.tasks, m.board)

	case KeyClearCompleted:
		m.board.ClearCompleted(m.subject())
		m.statusText = "Cleared completed tasks"
		return m, saveBoardCmd(m.tasks, m.board)
	}
	return m, nil
}

func (m Model) handleStatsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == KeyCyclePeriod {
		m.period = m.period.Next()
	}
	return m, nil
}

func (m Model) beginEdit(field editField, prompt, value string) (tea.Model, tea.Cmd) {
	m.editing = field
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyCtrlC:
		return m, tea.Quit
	case KeyEsc:
		m.endEdit()
		return m, nil
	case KeyEnter:
		field, value := m.editing, m.input.Value()
		m.endEdit()
		return m.commitEdit(field, value)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) endEdit() {
	m.editing = editNone
	m.input.Blur()
	m.input.SetValue("")
}

// commitEdit applies typed input. Invalid values are rejected and the
// previous value stays in effect.
func (m Model) commitEdit(field editField, value string) (tea.Model, tea.Cmd) {
	switch field {
	case editNote:
		m.engine.SetNote(strings.TrimSpace(value))
		m.statusText = "Note saved"
		return m, nil

	case editWork, editShort, editLong:
		n, err := config.ParseMinutes(value)
		if err != nil {
			return m.withTransientError("enter a whole number of minutes between 1 and 999")
		}
		cfg := m.engine.State().Config
		switch field {
		case editWork:
			cfg.WorkMinutes = n
		case editShort:
			cfg.ShortBreakMinutes = n
		case editLong:
			cfg.LongBreakMinutes = n
		}
		if err := m.engine.SetConfig(cfg); err != nil {
			return m.withTransientError(err.Error())
		}
		m.statusText = "Durations updated"
		return m, nil

	case editTask:
		task, err := m.board.Add(m.subject(), value, m.clock.Now())
		if err != nil {
			return m.withTransientError(err.Error())
		}
		m.statusText = "Added: " + task.Text
		return m, saveBoardCmd(m.tasks, m.board)
	}
	return m, nil
}

func (m *Model) clampSelection() {
	pending, _ := m.board.List(m.subject())
	m.selectedTask = min(m.selectedTask, max(len(pending)-1, 0))
}

// mergeRecords returns loaded followed by any record in current the load did
// not see. That happens when a save finishes while a load is in flight.
func mergeRecords(loaded, current []db.SessionRecord) []db.SessionRecord {
	type recordKey struct {
		at       int64
		subject  subject.Subject
		duration int
		note     string
	}
	keyOf := func(r db.SessionRecord) recordKey {
		return recordKey{r.Timestamp.UnixNano(), r.Subject, r.Duration, r.Note}
	}

	seen := make(map[recordKey]int, len(loaded))
	for _, r := range loaded {
		seen[keyOf(r)]++
	}
	out := slices.Clone(loaded)
	for _, r := range current {
		k := keyOf(r)
		if seen[k] > 0 {
			seen[k]--
			continue
		}
		out = append(out, r)
	}
	return out
}

func phaseLabel(st session.State) string {
	if st.Phase == session.PhaseWork {
		return "Focus"
	}
	if st.CycleCount%session.LongBreakInterval == 0 {
		return "Long break"
	}
	return "Short break"
}
