package session

import (
	"time"

	"github.com/jwulff/studytrack/internal/db"
)

// Effect is a side effect requested by the engine. The engine never performs
// effects itself; the caller runs them without blocking the countdown.
type Effect interface {
	effect()
}

// RecordSession asks for Record to be appended to the session log.
type RecordSession struct {
	Record db.SessionRecord
}

// Haptic asks for a short physical cue.
type Haptic struct {
	Duration time.Duration
}

// PlayAlarm asks for the alarm sound, stopped after Duration.
type PlayAlarm struct {
	Duration time.Duration
}

// Notify asks for a user-visible notification.
type Notify struct {
	Title string
	Body  string
}

func (RecordSession) effect() {}
func (Haptic) effect()        {}
func (PlayAlarm) effect()     {}
func (Notify) effect()        {}

const (
	hapticDuration = time.Second
	// DefaultAlarmDuration bounds how long the alarm plays.
	DefaultAlarmDuration = 5 * time.Second
)

func completionEffects(ended Phase, alarm time.Duration) []Effect {
	n := Notify{Title: "Pomodoro Complete!", Body: "Take a break"}
	if ended == PhaseBreak {
		n = Notify{Title: "Break Over!", Body: "Time to focus!"}
	}
	return []Effect{
		Haptic{Duration: hapticDuration},
		PlayAlarm{Duration: alarm},
		n,
	}
}
