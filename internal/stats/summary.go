package stats

import (
	"fmt"
	"time"

	"github.com/jwulff/studytrack/internal/db"
	"github.com/jwulff/studytrack/internal/subject"
)

// SubjectLine is one row of the per-subject summary.
type SubjectLine struct {
	Subject        subject.Subject
	PeriodMinutes  int // minutes in the latest bucket of the selected period
	TotalMinutes   int
	Sessions       int
	AverageMinutes int
}

// SessionsLabel renders the count with the right plural.
func (l SubjectLine) SessionsLabel() string {
	if l.Sessions == 1 {
		return "1 session"
	}
	return fmt.Sprintf("%d sessions", l.Sessions)
}

// Summary is everything the stats view shows for one period filter.
type Summary struct {
	Period    Period
	LatestKey string // empty when there are no records
	Lines     []SubjectLine

	TopSubject    subject.Subject
	TopMinutes    int
	HasTopSubject bool

	TotalSessions int
}

// Summarize builds the stats view for period p with buckets computed in loc.
func Summarize(records []db.SessionRecord, p Period, loc *time.Location) Summary {
	buckets := AggregateIn(records, p, loc)
	current := LatestBucket(buckets)
	counts := SessionCountPerSubject(records)
	totals := TotalsPerSubject(records)
	averages := AverageDurationPerSubject(records)

	sum := Summary{Period: p, TotalSessions: len(records)}
	if b, ok := latest(buckets); ok {
		sum.LatestKey = b.Key
	}

	for _, s := range subject.All() {
		sum.Lines = append(sum.Lines, SubjectLine{
			Subject:        s,
			PeriodMinutes:  RoundMinutes(float64(current[s])),
			TotalMinutes:   RoundMinutes(float64(totals[s])),
			Sessions:       counts[s],
			AverageMinutes: RoundMinutes(averages[s]),
		})
	}

	if top, ok := TopSubjectOfWeek(AggregateIn(records, Weekly, loc)); ok {
		sum.TopSubject = top.Subject
		sum.TopMinutes = RoundMinutes(float64(top.Seconds))
		sum.HasTopSubject = true
	}
	return sum
}

// MaxPeriodMinutes returns the largest PeriodMinutes, for scaling bars.
func (s Summary) MaxPeriodMinutes() int {
	m := 0
	for _, l := range s.Lines {
		m = max(m, l.PeriodMinutes)
	}
	return m
}
