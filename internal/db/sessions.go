package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jwulff/studytrack/internal/subject"
)

// Sessions returns the session log in append order. A missing or malformed
// value yields an empty log.
func (s *Store) Sessions(ctx context.Context) ([]SessionRecord, error) {
	data, err := s.Get(ctx, KeySessions)
	if errors.Is(err, ErrNotFound) {
		return []SessionRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.decodeSessions(data), nil
}

// AppendSession adds rec to the end of the session log.
func (s *Store) AppendSession(ctx context.Context, rec SessionRecord) error {
	if !rec.Subject.Valid() {
		return fmt.Errorf("append session: %w: %q", subject.ErrUnknownSubject, rec.Subject)
	}
	if rec.Duration <= 0 {
		return fmt.Errorf("append session: duration must be positive, got %d", rec.Duration)
	}

	return s.Update(ctx, KeySessions, func(old []byte, found bool) ([]byte, error) {
		records := []SessionRecord{}
		if found {
			records = s.decodeSessions(old)
		}
		records = append(records, rec)
		return json.Marshal(records)
	})
}

// SaveSessions replaces the whole session log.
func (s *Store) SaveSessions(ctx context.Context, records []SessionRecord) error {
	if records == nil {
		records = []SessionRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}
	return s.Set(ctx, KeySessions, data)
}

func (s *Store) decodeSessions(data []byte) []SessionRecord {
	var records []SessionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.log().Warn("malformed session log, treating as empty", "key", KeySessions, "error", err)
		return []SessionRecord{}
	}
	if records == nil {
		return []SessionRecord{}
	}
	for i := range records {
		if subj, err := subject.Parse(string(records[i].Subject)); err == nil {
			records[i].Subject = subj
		} else {
			s.log().Warn("session with unknown subject", "subject", records[i].Subject)
		}
	}
	return records
}
