package domain

import (
	"context"
	"time"
)

// RunStatus tracks the lifecycle of a plan execution.
type RunStatus string

// Run lifecycle states.
const (
	RunPlanned   RunStatus = "planned"
	RunRunning   RunStatus = "running"
	RunPaused    RunStatus = "paused"
	RunCompleted RunStatus = "completed"
	RunAborted   RunStatus = "aborted"
	RunFailed    RunStatus = "failed"
)

// Terminal reports whether no further events are expected for the run.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunCompleted, RunAborted, RunFailed:
		return true
	default:
		return false
	}
}

// Run is the journal record of one plan execution.
type Run struct {
	ID           string    `json:"id"`
	Workflow     string    `json:"workflow"`
	Status       RunStatus `json:"status"`
	Combinations int       `json:"combinations"`
	Operations   int       `json:"operations"`
	Executed     int       `json:"executed"`
	Tips         int       `json:"tips"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EventType classifies journal events.
type EventType string

// Journal event types.
const (
	EventOperation        EventType = "operation"
	EventCheckpoint       EventType = "checkpoint"
	EventCheckpointResume EventType = "checkpoint_resumed"
	EventLotChange        EventType = "lot_change"
	EventStatus           EventType = "status"
)

// RunEvent is an append-only journal entry.
type RunEvent struct {
	RunID   string        `json:"run_id"`
	Seq     int           `json:"seq"`
	Type    EventType     `json:"type"`
	Kind    OperationKind `json:"kind,omitempty"`
	Stage   string        `json:"stage,omitempty"`
	Message string        `json:"message,omitempty"`
	At      time.Time     `json:"at"`
}

// JournalStore persists runs and their events.
type JournalStore interface {
	CreateRun(ctx context.Context, run Run) (Run, error)
	UpdateRun(ctx context.Context, id string, mutator func(*Run) error) (Run, error)
	AppendEvent(ctx context.Context, event RunEvent) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	ListRuns(ctx context.Context) ([]Run, error)
	ListEvents(ctx context.Context, runID string) ([]RunEvent, error)
	Close() error
}
