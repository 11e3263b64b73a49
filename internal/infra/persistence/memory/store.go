// Package memory provides an in-memory run journal used for dry runs, tests
// and as the working set of the snapshotting SQL stores.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slowpoke/pkg/domain"
	"sort"
	"sync"
)

var _ domain.JournalStore = (*Store)(nil)

// ErrDuplicateRun is returned when a run id is journaled twice.
var ErrDuplicateRun = errors.New("run already journaled")

// Snapshot captures a point-in-time clone of the journal.
type Snapshot struct {
	Runs   map[string]domain.Run        `json:"runs"`
	Events map[string][]domain.RunEvent `json:"events"`
}

type journalState struct {
	runs   map[string]domain.Run
	events map[string][]domain.RunEvent
}

func newJournalState() journalState {
	return journalState{
		runs:   make(map[string]domain.Run),
		events: make(map[string][]domain.RunEvent),
	}
}

func (s journalState) snapshot() Snapshot {
	out := Snapshot{
		Runs:   make(map[string]domain.Run, len(s.runs)),
		Events: make(map[string][]domain.RunEvent, len(s.events)),
	}
	for id, run := range s.runs {
		out.Runs[id] = run
	}
	for id, events := range s.events {
		out.Events[id] = append([]domain.RunEvent(nil), events...)
	}
	return out
}

func stateFromSnapshot(snapshot Snapshot) journalState {
	state := newJournalState()
	for id, run := range snapshot.Runs {
		state.runs[id] = run
	}
	for id, events := range snapshot.Events {
		state.events[id] = append([]domain.RunEvent(nil), events...)
	}
	return state
}

// Store keeps runs and their events in memory.
type Store struct {
	mu    sync.RWMutex
	state journalState
}

// NewStore returns an empty journal.
func NewStore() *Store {
	return &Store{state: newJournalState()}
}

// ExportState returns a deep copy of the journal.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.snapshot()
}

// ImportState replaces the journal with the snapshot contents.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateFromSnapshot(snapshot)
}

// CreateRun journals a new run.
func (s *Store) CreateRun(_ context.Context, run domain.Run) (domain.Run, error) {
	if run.ID == "" {
		return domain.Run{}, errors.New("run id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.state.runs[run.ID]; exists {
		return domain.Run{}, fmt.Errorf("%w: %s", ErrDuplicateRun, run.ID)
	}
	s.state.runs[run.ID] = run
	return run, nil
}

// UpdateRun applies mutator to the stored run. The stored record is left
// untouched when mutator fails.
func (s *Store) UpdateRun(_ context.Context, id string, mutator func(*domain.Run) error) (domain.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.state.runs[id]
	if !ok {
		return domain.Run{}, fmt.Errorf("run %q: %w", id, domain.ErrNotFound)
	}
	if err := mutator(&current); err != nil {
		return domain.Run{}, err
	}
	current.ID = id
	s.state.runs[id] = current
	return current, nil
}

// AppendEvent adds an event to its run's log.
func (s *Store) AppendEvent(_ context.Context, event domain.RunEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.runs[event.RunID]; !ok {
		return fmt.Errorf("run %q: %w", event.RunID, domain.ErrNotFound)
	}
	s.state.events[event.RunID] = append(s.state.events[event.RunID], event)
	return nil
}

// GetRun returns the run with the given id.
func (s *Store) GetRun(_ context.Context, id string) (domain.Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.state.runs[id]
	return run, ok, nil
}

// ListRuns returns every run, oldest first.
func (s *Store) ListRuns(_ context.Context) ([]domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Run, 0, len(s.state.runs))
	for _, run := range s.state.runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ListEvents returns the events of a run in append order.
func (s *Store) ListEvents(_ context.Context, runID string) ([]domain.RunEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.RunEvent(nil), s.state.events[runID]...), nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
