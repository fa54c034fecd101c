package db

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/jwulff/studytrack/internal/subject"
)

// Tasks loads the pending and completed task mappings.
func (s *Store) Tasks(ctx context.Context) (pending, completed TaskMap, err error) {
	pending, err = s.taskMap(ctx, KeyTodoTasks)
	if err != nil {
		return nil, nil, err
	}
	completed, err = s.taskMap(ctx, KeyCompletedTodoTasks)
	if err != nil {
		return nil, nil, err
	}
	return pending, completed, nil
}

// SaveTasks overwrites both task mappings in one transaction.
func (s *Store) SaveTasks(ctx context.Context, pending, completed TaskMap) error {
	p, err := encodeTaskMap(KeyTodoTasks, pending)
	if err != nil {
		return err
	}
	c, err := encodeTaskMap(KeyCompletedTodoTasks, completed)
	if err != nil {
		return err
	}
	return s.SetAll(ctx, map[string][]byte{
		KeyTodoTasks:          p,
		KeyCompletedTodoTasks: c,
	})
}

func encodeTaskMap(key string, m TaskMap) ([]byte, error) {
	if m == nil {
		m = TaskMap{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	return data, nil
}

// taskMap decodes one mapping. Subjects and tasks are decoded one at a time
// so a bad entry only drops itself.
func (s *Store) taskMap(ctx context.Context, key string) (TaskMap, error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return TaskMap{}, nil
	}
	if err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.log().Warn("malformed task map, treating as empty", "key", key, "error", err)
		return TaskMap{}, nil
	}

	m := make(TaskMap, len(raw))
	// Sorted so legacy names that share a subject merge the same way every run.
	for _, name := range slices.Sorted(maps.Keys(raw)) {
		subj, err := subject.Parse(name)
		if err != nil {
			s.log().Warn("dropping tasks for unknown subject", "key", key, "subject", name)
			continue
		}

		var items []json.RawMessage
		if err := json.Unmarshal(raw[name], &items); err != nil {
			s.log().Warn("dropping malformed task list", "key", key, "subject", name, "error", err)
			continue
		}

		tasks, merged := m[subj], len(m[subj]) > 0
		for _, item := range items {
			var t Task
			if err := json.Unmarshal(item, &t); err != nil {
				s.log().Warn("dropping malformed task", "key", key, "subject", name, "error", err)
				continue
			}
			tasks = append(tasks, t)
		}
		if merged {
			slices.SortStableFunc(tasks, func(a, b Task) int { return cmp.Compare(a.ID, b.ID) })
		}
		m[subj] = tasks
	}
	return m, nil
}
