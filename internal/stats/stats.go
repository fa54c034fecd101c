// Package stats derives study-time views from the session log.
// Every function here is pure: the same records always give the same result.
package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jwulff/studytrack/internal/db"
	"github.com/jwulff/studytrack/internal/subject"
)

// Period selects the calendar bucket used for grouping.
type Period int

const (
	Daily Period = iota
	Weekly
	Monthly
)

func (p Period) String() string {
	switch p {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	default:
		return "unknown"
	}
}

// Next cycles daily -> weekly -> monthly -> daily.
func (p Period) Next() Period {
	return (p + 1) % 3
}

// ParsePeriod parses "daily", "weekly" or "monthly".
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day":
		return Daily, nil
	case "weekly", "week":
		return Weekly, nil
	case "monthly", "month":
		return Monthly, nil
	}
	return 0, fmt.Errorf("unknown period %q (want daily, weekly or monthly)", s)
}

// BucketKey returns the key for t. Keys sort chronologically as strings.
func BucketKey(t time.Time, p Period, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	switch p {
	case Weekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case Monthly:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// SubjectTotal is accumulated seconds for one subject.
type SubjectTotal struct {
	Subject subject.Subject
	Seconds int
}

// Bucket holds per-subject totals for one calendar key. Totals are in the
// order subjects were first seen while accumulating.
type Bucket struct {
	Key    string
	Totals []SubjectTotal
}

// Seconds returns the total for s, zero if absent.
func (b Bucket) Seconds(s subject.Subject) int {
	for _, st := range b.Totals {
		if st.Subject == s {
			return st.Seconds
		}
	}
	return 0
}

// Map returns the totals keyed by subject.
func (b Bucket) Map() map[subject.Subject]int {
	m := make(map[subject.Subject]int, len(b.Totals))
	for _, st := range b.Totals {
		m[st.Subject] = st.Seconds
	}
	return m
}

// Aggregate groups records by bucket and subject using the local time zone.
func Aggregate(records []db.SessionRecord, p Period) []Bucket {
	return AggregateIn(records, p, time.Local)
}

// AggregateIn groups records by bucket (computed in loc) and subject, summing
// durations. Buckets are sorted by key; only observed buckets appear.
func AggregateIn(records []db.SessionRecord, p Period, loc *time.Location) []Bucket {
	index := make(map[string]int)
	var buckets []Bucket

	for _, r := range records {
		key := BucketKey(r.Timestamp, p, loc)
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, Bucket{Key: key})
		}
		b := &buckets[i]
		found := false
		for j := range b.Totals {
			if b.Totals[j].Subject == r.Subject {
				b.Totals[j].Seconds += r.Duration
				found = true
				break
			}
		}
		if !found {
			b.Totals = append(b.Totals, SubjectTotal{Subject: r.Subject, Seconds: r.Duration})
		}
	}

	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].Key < buckets[j].Key })
	return buckets
}

// LatestBucket returns the subject totals of the greatest key, or an empty
// map when there are no buckets.
func LatestBucket(buckets []Bucket) map[subject.Subject]int {
	b, ok := latest(buckets)
	if !ok {
		return map[subject.Subject]int{}
	}
	return b.Map()
}

func latest(buckets []Bucket) (Bucket, bool) {
	if len(buckets) == 0 {
		return Bucket{}, false
	}
	best := buckets[0]
	for _, b := range buckets[1:] {
		if b.Key > best.Key {
			best = b
		}
	}
	return best, true
}

// TopSubjectOfWeek returns the subject with the most time in the latest
// weekly bucket. Ties go to the subject seen first. ok is false without data.
func TopSubjectOfWeek(weekly []Bucket) (top SubjectTotal, ok bool) {
	b, ok := latest(weekly)
	if !ok || len(b.Totals) == 0 {
		return SubjectTotal{}, false
	}
	top = b.Totals[0]
	for _, st := range b.Totals[1:] {
		if st.Seconds > top.Seconds {
			top = st
		}
	}
	return top, true
}

// SessionCountPerSubject counts records per subject. Every subject is present.
func SessionCountPerSubject(records []db.SessionRecord) map[subject.Subject]int {
	counts := zeroes()
	for _, r := range records {
		if r.Subject.Valid() {
			counts[r.Subject]++
		}
	}
	return counts
}

// TotalsPerSubject sums all-time seconds per subject. Every subject is present.
func TotalsPerSubject(records []db.SessionRecord) map[subject.Subject]int {
	totals := zeroes()
	for _, r := range records {
		if r.Subject.Valid() {
			totals[r.Subject] += r.Duration
		}
	}
	return totals
}

// AverageDurationPerSubject returns the mean duration in seconds per subject.
// Subjects without records average zero.
func AverageDurationPerSubject(records []db.SessionRecord) map[subject.Subject]float64 {
	counts := SessionCountPerSubject(records)
	totals := TotalsPerSubject(records)

	avg := make(map[subject.Subject]float64, len(counts))
	for _, s := range subject.All() {
		if counts[s] == 0 {
			avg[s] = 0
			continue
		}
		avg[s] = float64(totals[s]) / float64(counts[s])
	}
	return avg
}

// RoundMinutes converts seconds to whole minutes, rounding half up.
func RoundMinutes(seconds float64) int {
	return int(math.Floor(seconds/60 + 0.5))
}

func zeroes() map[subject.Subject]int {
	m := make(map[subject.Subject]int)
	for _, s := range subject.All() {
		m[s] = 0
	}
	return m
}
