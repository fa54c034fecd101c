// Package alert surfaces interval completions to the user: desktop
// notifications, an alarm made of beeps, and a short haptic-style cue.
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/gen2brain/beeep"
)

// Notifier is the notification/audio collaborator used when an interval ends.
// All methods are best effort.
type Notifier interface {
	Notify(title, body string) error
	Alarm(ctx context.Context, d time.Duration) error
	Haptic(d time.Duration) error
}

const (
	alarmPulse   = 500 * time.Millisecond
	hapticFreq   = 220.0
	maxHapticLen = 200 * time.Millisecond
)

// Desktop delivers alerts through the OS notification service and speaker.
type Desktop struct {
	notify func(title, body string) error
	beep   func(freq float64, ms int) error
	pulse  time.Duration
}

// NewDesktop returns a Desktop notifier that identifies itself as appName.
func NewDesktop(appName string) *Desktop {
	beeep.AppName = appName
	return &Desktop{
		notify: func(title, body string) error { return beeep.Notify(title, body, "") },
		beep:   beeep.Beep,
		pulse:  alarmPulse,
	}
}

// Notify shows a desktop notification.
func (d *Desktop) Notify(title, body string) error {
	if err := d.notify(title, body); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

// Alarm beeps repeatedly until dur has passed or ctx is done.
func (d *Desktop) Alarm(ctx context.Context, dur time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, dur)
	defer cancel()

	ticker := time.NewTicker(d.pulse)
	defer ticker.Stop()

	for {
		if err := d.beep(beeep.DefaultFreq, int(d.pulse/2/time.Millisecond)); err != nil {
			return fmt.Errorf("alarm: %w", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Haptic plays one short low beep. Terminals have no vibration motor.
func (d *Desktop) Haptic(dur time.Duration) error {
	dur = min(dur, maxHapticLen)
	if err := d.beep(hapticFreq, int(dur/time.Millisecond)); err != nil {
		return fmt.Errorf("haptic: %w", err)
	}
	return nil
}

// Silent is a Notifier that does nothing. Used with --quiet and in tests.
type Silent struct{}

func (Silent) Notify(string, string) error                 { return nil }
func (Silent) Alarm(context.Context, time.Duration) error { return nil }
func (Silent) Haptic(time.Duration) error                  { return nil }
