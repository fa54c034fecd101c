// Package session implements the Pomodoro work/break cycle.
//
// The Engine is a synchronous state machine. Operations that finish an
// interval return the side effects to perform (persist a record, notify,
// sound the alarm) instead of performing them, so the countdown never waits
// on I/O and tests can drive it with a fake clock.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/jwulff/studytrack/internal/db"
	"github.com/jwulff/studytrack/internal/subject"
)

// LongBreakInterval is the number of work intervals per long break.
const LongBreakInterval = 4

// ErrNotOnBreak is returned by Skip during a work interval.
var ErrNotOnBreak = errors.New("only a break can be skipped")

// ErrInvalidConfig is returned by SetConfig for non-positive durations.
var ErrInvalidConfig = errors.New("invalid timer config")

// Phase is the current interval kind.
type Phase int

const (
	PhaseWork Phase = iota
	PhaseBreak
)

func (p Phase) String() string {
	if p == PhaseBreak {
		return "Break"
	}
	return "Work"
}

// Config holds interval lengths in minutes.
type Config struct {
	WorkMinutes       int
	ShortBreakMinutes int
	LongBreakMinutes  int
}

// DefaultConfig returns the classic 25/5/15 cycle.
func DefaultConfig() Config {
	return Config{WorkMinutes: 25, ShortBreakMinutes: 5, LongBreakMinutes: 15}
}

// Validate reports whether all durations are positive.
func (c Config) Validate() error {
	if c.WorkMinutes <= 0 || c.ShortBreakMinutes <= 0 || c.LongBreakMinutes <= 0 {
		return fmt.Errorf("%w: durations must be positive (work=%d short=%d long=%d)",
			ErrInvalidConfig, c.WorkMinutes, c.ShortBreakMinutes, c.LongBreakMinutes)
	}
	return nil
}

// State is a snapshot of the engine.
type State struct {
	Phase            Phase
	SecondsRemaining int
	CycleCount       int
	Running          bool
	Config           Config
	Subject          subject.Subject
	Note             string
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Engine owns the session cycle state. It is not safe for concurrent use;
// a single goroutine (the UI update loop) drives it.
type Engine struct {
	clock Clock
	alarm time.Duration
	state State
}

// New creates an engine at the start of a work interval, not running.
// An invalid cfg falls back to DefaultConfig; an invalid subject to subject.Default.
func New(clock Clock, cfg Config, subj subject.Subject) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	if cfg.Validate() != nil {
		cfg = DefaultConfig()
	}
	if !subj.Valid() {
		subj = subject.Default()
	}
	e := &Engine{
		clock: clock,
		alarm: DefaultAlarmDuration,
		state: State{Config: cfg, Subject: subj},
	}
	e.state.SecondsRemaining = e.DurationFor(PhaseWork, 0)
	return e
}

// SetAlarmDuration changes how long PlayAlarm effects ask the alarm to sound.
func (e *Engine) SetAlarmDuration(d time.Duration) {
	if d > 0 {
		e.alarm = d
	}
}

// State returns a copy of the current state.
func (e *Engine) State() State { return e.state }

// DurationFor returns the interval length in seconds for phase after
// cycleCount completed work intervals.
func (e *Engine) DurationFor(phase Phase, cycleCount int) int {
	cfg := e.state.Config
	if phase == PhaseWork {
		return cfg.WorkMinutes * 60
	}
	if cycleCount%LongBreakInterval == 0 {
		return cfg.LongBreakMinutes * 60
	}
	return cfg.ShortBreakMinutes * 60
}

// Start restarts the current phase from its full duration and runs it.
func (e *Engine) Start() {
	e.state.SecondsRemaining = e.DurationFor(e.state.Phase, e.state.CycleCount)
	e.state.Running = true
}

// Pause stops the countdown without touching the remaining time.
func (e *Engine) Pause() {
	e.state.Running = false
}

// Resume continues the countdown from where it was paused.
func (e *Engine) Resume() {
	e.state.Running = true
}

// Reset returns to a stopped first work interval.
func (e *Engine) Reset() {
	e.state.Running = false
	e.state.Phase = PhaseWork
	e.state.CycleCount = 0
	e.state.SecondsRemaining = e.DurationFor(PhaseWork, 0)
}

// Skip ends the current break immediately.
func (e *Engine) Skip() ([]Effect, error) {
	if e.state.Phase != PhaseBreak {
		return nil, ErrNotOnBreak
	}
	return e.CompleteInterval(), nil
}

// Tick advances the countdown by one second. When a running countdown is at
// zero the interval completes and its effects are returned.
func (e *Engine) Tick() []Effect {
	if !e.state.Running {
		return nil
	}
	if e.state.SecondsRemaining > 0 {
		e.state.SecondsRemaining--
	}
	return e.Check()
}

// Check completes the interval if the countdown is running and at zero.
func (e *Engine) Check() []Effect {
	if e.state.Running && e.state.SecondsRemaining == 0 {
		return e.CompleteInterval()
	}
	return nil
}

// ReconcileBackgroundGap removes time that passed while the countdown driver
// was not firing. Remaining time is floored at zero; completion is left to
// the next Tick or Check. Has no effect when paused.
func (e *Engine) ReconcileBackgroundGap(elapsed time.Duration) {
	if !e.state.Running || elapsed <= 0 {
		return
	}
	secs := int(elapsed / time.Second)
	e.state.SecondsRemaining = max(e.state.SecondsRemaining-secs, 0)
}

// CompleteInterval finishes the current phase, moves to the next one and
// keeps running. Finishing a work interval emits a RecordSession effect.
func (e *Engine) CompleteInterval() []Effect {
	var effects []Effect
	ended := e.state.Phase

	if ended == PhaseWork {
		effects = append(effects, RecordSession{Record: db.SessionRecord{
			Timestamp: e.clock.Now().UTC().Truncate(time.Millisecond),
			Duration:  e.state.Config.WorkMinutes * 60,
			Subject:   e.state.Subject,
			Note:      e.state.Note,
		}})
		e.state.Note = ""
		e.state.CycleCount++
		e.state.Phase = PhaseBreak
	} else {
		e.state.Phase = PhaseWork
	}
	e.state.SecondsRemaining = e.DurationFor(e.state.Phase, e.state.CycleCount)
	e.state.Running = true

	return append(effects, completionEffects(ended, e.alarm)...)
}

// SetConfig replaces the interval lengths. A countdown in progress keeps its
// remaining time; the new lengths apply from the next Start or Reset.
func (e *Engine) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.state.Config = cfg
	return nil
}

// SetSubject selects the subject credited for the next completed work interval.
func (e *Engine) SetSubject(s subject.Subject) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %q", subject.ErrUnknownSubject, s)
	}
	e.state.Subject = s
	return nil
}

// SetNote sets the note attached to the next recorded session.
func (e *Engine) SetNote(note string) {
	e.state.Note = note
}

// CyclesUntilLongBreak returns how many more work intervals precede the next long break.
func (e *Engine) CyclesUntilLongBreak() int {
	return LongBreakInterval - e.state.CycleCount%LongBreakInterval
}

// Progress returns the elapsed fraction of the current interval in [0, 1].
func (e *Engine) Progress() float64 {
	total := e.DurationFor(e.state.Phase, e.state.CycleCount)
	if total <= 0 {
		return 0
	}
	p := 1 - float64(e.state.SecondsRemaining)/float64(total)
	return min(max(p, 0), 1)
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
