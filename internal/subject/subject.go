// Package subject defines the closed set of study subjects.
package subject

import (
	"errors"
	"fmt"
	"strings"
)

// Subject is one of the fixed study subjects.
type Subject string

const (
	Physics             Subject = "Physics"
	Chemistry           Subject = "Chemistry"
	Math                Subject = "Math"
	ComputerEngineering Subject = "Computer Engineering"
	Nepali              Subject = "Nepali"
	English             Subject = "English"
)

// ErrUnknownSubject is returned when a name is not in the enumeration.
var ErrUnknownSubject = errors.New("unknown subject")

var all = []Subject{Physics, Chemistry, Math, ComputerEngineering, Nepali, English}

// All returns every subject in display order.
func All() []Subject {
	return append([]Subject(nil), all...)
}

// Default is the subject selected when nothing else is configured.
func Default() Subject { return Physics }

// Valid reports whether s is a member of the enumeration.
func (s Subject) Valid() bool {
	for _, v := range all {
		if v == s {
			return true
		}
	}
	return false
}

func (s Subject) String() string { return string(s) }

// Parse resolves a user-supplied or persisted name to a Subject.
// Matching is case-insensitive and ignores surrounding whitespace.
// "Computer" is accepted for Computer Engineering; older data stored it that way.
func Parse(name string) (Subject, error) {
	trimmed := strings.TrimSpace(name)
	for _, v := range all {
		if strings.EqualFold(trimmed, string(v)) {
			return v, nil
		}
	}
	if strings.EqualFold(trimmed, "computer") {
		return ComputerEngineering, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSubject, name)
}

// Next returns the subject after s, wrapping around.
func (s Subject) Next() Subject {
	return all[(s.index()+1)%len(all)]
}

// Prev returns the subject before s, wrapping around.
func (s Subject) Prev() Subject {
	return all[(s.index()-1+len(all))%len(all)]
}

func (s Subject) index() int {
	for i, v := range all {
		if v == s {
			return i
		}
	}
	return 0
}
