package robot

import (
	"context"
	"errors"
	"fmt"
	"slowpoke/internal/logging"
	"slowpoke/pkg/domain"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

// ErrRobotBusy is returned when another run holds the robot lock.
var ErrRobotBusy = errors.New("robot is locked by another run")

// Observer receives execution measurements.
type Observer interface {
	OperationExecuted(workflow string, kind domain.OperationKind)
	CheckpointReached(workflow string)
	LotChanged(workflow, resource string)
	TipsUsed(workflow, pipette string, n int)
	RunFinished(workflow string, status domain.RunStatus, duration time.Duration)
}

type nopObserver struct{}

func (nopObserver) OperationExecuted(string, domain.OperationKind)      {}
func (nopObserver) CheckpointReached(string)                            {}
func (nopObserver) LotChanged(string, string)                           {}
func (nopObserver) TipsUsed(string, string, int)                        {}
func (nopObserver) RunFinished(string, domain.RunStatus, time.Duration) {}

// Option customises an Executor.
type Option func(*Executor)

// WithJournal records run state and events in journal.
func WithJournal(journal domain.JournalStore) Option {
	return func(e *Executor) { e.journal = journal }
}

// WithObserver reports measurements to o.
func WithObserver(o Observer) Option {
	return func(e *Executor) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithLogger sets the executor logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithLockFile holds an exclusive lock on path for the duration of a run.
func WithLockFile(path string) Option {
	return func(e *Executor) { e.lockPath = path }
}

// WithClock overrides the time source for journal timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

// Executor runs plans one operation at a time.
type Executor struct {
	robot    Robot
	journal  domain.JournalStore
	observer Observer
	logger   *logging.Logger
	lockPath string
	now      func() time.Time
}

// NewExecutor returns an executor driving r.
func NewExecutor(r Robot, opts ...Option) *Executor {
	e := &Executor{
		robot:    r,
		observer: nopObserver{},
		logger:   logging.NewNop(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute drives every operation of plan in order. Cancelling ctx aborts the
// run; aborted runs are not resumable. The returned run carries the final
// status even when an error is returned.
func (e *Executor) Execute(ctx context.Context, run domain.Run, plan domain.Plan) (domain.Run, error) {
	ctx = logging.WithWorkflow(logging.WithRunID(ctx, run.ID), plan.Workflow)
	if run.Workflow == "" {
		run.Workflow = plan.Workflow
	}

	started := e.now()
	run.Operations = len(plan.Operations)

	if e.lockPath != "" {
		lock := flock.New(e.lockPath)
		locked, err := lock.TryLock()
		if err != nil {
			return e.finish(ctx, run, started, domain.RunFailed, fmt.Errorf("acquiring robot lock: %w", err))
		}
		if !locked {
			return e.finish(ctx, run, started, domain.RunFailed, ErrRobotBusy)
		}
		defer func() { _ = lock.Unlock() }()
	}

	if err := e.setStatus(ctx, &run, domain.RunRunning, nil); err != nil {
		return run, err
	}
	e.logger.Info(ctx, "run started", zap.Int("operations", len(plan.Operations)))

	for _, op := range plan.Operations {
		if err := ctx.Err(); err != nil {
			return e.finish(ctx, run, started, domain.RunAborted, err)
		}
		if err := e.apply(ctx, &run, op); err != nil {
			status := domain.RunFailed
			if ctx.Err() != nil {
				status = domain.RunAborted
			}
			return e.finish(ctx, run, started, status, fmt.Errorf("operation %d (%s): %w", op.Seq, op.Kind, err))
		}
		run.Executed++
		e.observer.OperationExecuted(run.Workflow, op.Kind)
		if n := op.Tips(); n > 0 {
			e.observer.TipsUsed(run.Workflow, op.Pipette, n)
		}
		if err := e.record(ctx, &run, op, domain.EventOperation, op.Message); err != nil {
			return e.finish(ctx, run, started, domain.RunFailed, err)
		}
	}
	return e.finish(ctx, run, started, domain.RunCompleted, nil)
}

func (e *Executor) finish(ctx context.Context, run domain.Run, started time.Time, status domain.RunStatus, cause error) (domain.Run, error) {
	// The journal must learn about aborts even though ctx is already done.
	ctx = context.WithoutCancel(ctx)
	if err := e.setStatus(ctx, &run, status, cause); err != nil {
		cause = errors.Join(cause, err)
	}
	e.observer.RunFinished(run.Workflow, status, e.now().Sub(started))
	fields := []zap.Field{zap.String("status", string(status)), zap.Int("executed", run.Executed)}
	switch {
	case cause == nil:
		e.logger.Info(ctx, "run finished", fields...)
	case status == domain.RunAborted:
		e.logger.Warn(ctx, "run aborted", append(fields, zap.Error(cause))...)
	default:
		e.logger.Error(ctx, "run failed", append(fields, zap.Error(cause))...)
	}
	return run, cause
}

func (e *Executor) apply(ctx context.Context, run *domain.Run, op domain.Operation) error {
	r := e.robot
	switch op.Kind {
	case domain.KindLoadLabware:
		return r.LoadLabware(ctx, labware(op))
	case domain.KindLoadModule:
		return r.LoadModule(ctx, labware(op))
	case domain.KindLoadInstrument:
		return r.LoadInstrument(ctx, labware(op))
	case domain.KindSetTemperature:
		return r.SetTemperature(ctx, op.Module, op.Celsius)
	case domain.KindAwaitTemperature:
		return r.AwaitTemperature(ctx, op.Module, op.Celsius)
	case domain.KindDeactivate:
		return r.Deactivate(ctx, op.Module)
	case domain.KindPickUpTip:
		return r.PickUpTip(ctx, op.Pipette)
	case domain.KindDropTip:
		return r.DropTip(ctx, op.Pipette)
	case domain.KindTransfer, domain.KindPartTransfer:
		return e.transfer(ctx, op)
	case domain.KindReagentDistribute, domain.KindDistribute:
		return e.distribute(ctx, op)
	case domain.KindMix:
		if len(op.Destinations) != 1 {
			return fmt.Errorf("mix needs exactly one well, got %d", len(op.Destinations))
		}
		return r.Mix(ctx, op.Pipette, op.Repetitions, op.Volume, op.Destinations[0], op.Rate)
	case domain.KindBlowOut:
		var well *domain.WellRef
		if op.BlowOut == domain.BlowOutDestination && len(op.Destinations) > 0 {
			well = &op.Destinations[0]
		}
		return r.BlowOut(ctx, op.Pipette, well)
	case domain.KindCheckpointPause:
		return e.checkpoint(ctx, run, op)
	case domain.KindLotChange:
		return e.lotChange(ctx, run, op)
	default:
		return fmt.Errorf("unsupported operation kind %q", op.Kind)
	}
}

func labware(op domain.Operation) domain.LabwareSpec {
	if op.Labware == nil {
		return domain.LabwareSpec{}
	}
	return *op.Labware
}

func (e *Executor) transfer(ctx context.Context, op domain.Operation) error {
	if op.Source == nil {
		return errors.New("transfer without source")
	}
	r := e.robot
	if op.Tip == domain.TipOnce {
		if err := r.PickUpTip(ctx, op.Pipette); err != nil {
			return err
		}
	}
	for i := range op.Destinations {
		dest := op.Destinations[i]
		if op.Tip == domain.TipPerDestination {
			if err := r.PickUpTip(ctx, op.Pipette); err != nil {
				return err
			}
		}
		if err := r.Transfer(ctx, Transfer{Pipette: op.Pipette, Volume: op.Volume, Source: *op.Source, Destination: dest, Rate: op.Rate}); err != nil {
			return err
		}
		if op.BlowOut == domain.BlowOutDestination {
			if err := r.BlowOut(ctx, op.Pipette, &dest); err != nil {
				return err
			}
		}
		if op.Tip == domain.TipPerDestination {
			if err := r.DropTip(ctx, op.Pipette); err != nil {
				return err
			}
		}
	}
	if op.Tip == domain.TipOnce {
		return r.DropTip(ctx, op.Pipette)
	}
	return nil
}

func (e *Executor) distribute(ctx context.Context, op domain.Operation) error {
	if op.Source == nil {
		return errors.New("distribute without source")
	}
	r := e.robot
	if op.Tip == domain.TipOnce {
		if err := r.PickUpTip(ctx, op.Pipette); err != nil {
			return err
		}
	}
	err := r.Distribute(ctx, Distribution{
		Pipette:        op.Pipette,
		Volume:         op.Volume,
		Source:         *op.Source,
		Destinations:   op.Destinations,
		DisposalVolume: op.DisposalVolume,
		BlowOut:        op.BlowOut,
	})
	if err != nil {
		return err
	}
	if op.Tip == domain.TipOnce {
		return r.DropTip(ctx, op.Pipette)
	}
	return nil
}

func (e *Executor) checkpoint(ctx context.Context, run *domain.Run, op domain.Operation) error {
	e.observer.CheckpointReached(run.Workflow)
	return e.pause(ctx, run, op)
}

func (e *Executor) lotChange(ctx context.Context, run *domain.Run, op domain.Operation) error {
	resource := ""
	blocking := false
	if op.Lot != nil {
		resource = op.Lot.Resource
		blocking = op.Lot.Blocking
	}
	e.observer.LotChanged(run.Workflow, resource)
	if err := e.record(ctx, run, op, domain.EventLotChange, op.Message); err != nil {
		return err
	}
	if !blocking {
		return e.robot.Comment(ctx, op.Message)
	}
	e.observer.CheckpointReached(run.Workflow)
	if err := e.pause(ctx, run, op); err != nil {
		return err
	}
	if op.Pipette != "" {
		return e.robot.ResetTips(ctx, op.Pipette)
	}
	return nil
}

func (e *Executor) pause(ctx context.Context, run *domain.Run, op domain.Operation) error {
	if err := e.setStatus(ctx, run, domain.RunPaused, nil); err != nil {
		return err
	}
	if err := e.record(ctx, run, op, domain.EventCheckpoint, op.Message); err != nil {
		return err
	}
	e.logger.Info(ctx, "waiting for operator", zap.Int("seq", op.Seq), zap.String("stage", op.Stage))
	if err := e.robot.Pause(ctx, op.Message); err != nil {
		return err
	}
	if err := e.record(ctx, run, op, domain.EventCheckpointResume, ""); err != nil {
		return err
	}
	return e.setStatus(ctx, run, domain.RunRunning, nil)
}

func (e *Executor) record(ctx context.Context, run *domain.Run, op domain.Operation, typ domain.EventType, message string) error {
	if e.journal == nil {
		return nil
	}
	event := domain.RunEvent{
		RunID:   run.ID,
		Seq:     op.Seq,
		Type:    typ,
		Kind:    op.Kind,
		Stage:   op.Stage,
		Message: message,
		At:      e.now(),
	}
	if err := e.journal.AppendEvent(ctx, event); err != nil {
		return fmt.Errorf("journal event: %w", err)
	}
	return nil
}

func (e *Executor) setStatus(ctx context.Context, run *domain.Run, status domain.RunStatus, cause error) error {
	run.Status = status
	run.UpdatedAt = e.now()
	if cause != nil {
		run.Error = cause.Error()
	}
	if e.journal == nil {
		return nil
	}
	snapshot := *run
	updated, err := e.journal.UpdateRun(ctx, run.ID, func(r *domain.Run) error {
		r.Status = snapshot.Status
		r.Operations = snapshot.Operations
		r.Executed = snapshot.Executed
		r.Error = snapshot.Error
		r.UpdatedAt = snapshot.UpdatedAt
		return nil
	})
	if err != nil {
		return fmt.Errorf("journal status %s: %w", status, err)
	}
	*run = updated
	return nil
}
