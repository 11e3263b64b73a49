package robot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slowpoke/internal/core"
	"slowpoke/internal/infra/persistence/memory"
	"slowpoke/pkg/domain"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goldenGatePlan(t *testing.T, n int) domain.Plan {
	t.Helper()
	parts := []string{"backbone", "promoter", "cds", "terminator"}
	combos := make([]domain.Combination, n)
	for i := range combos {
		combos[i] = domain.Combination{Name: fmt.Sprintf("construct_%02d", i+1), Parts: parts}
	}
	rec := domain.Recipe{
		Workflow:     "golden_gate",
		Combinations: combos,
		PlateMaps:    []domain.PlateMap{{Name: "dna_plate", Cells: [][]string{parts}}},
	}
	plan, err := core.NewService(nil).Plan(context.Background(), rec)
	require.NoError(t, err)
	return plan
}

func newRun(t *testing.T, journal domain.JournalStore, id string) domain.Run {
	t.Helper()
	run, err := journal.CreateRun(context.Background(), domain.Run{ID: id, Status: domain.RunPlanned})
	require.NoError(t, err)
	return run
}

type countingObserver struct {
	mu          sync.Mutex
	ops         int
	checkpoints int
	lots        int
	tips        int
	finished    domain.RunStatus
}

func (o *countingObserver) OperationExecuted(string, domain.OperationKind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops++
}

func (o *countingObserver) CheckpointReached(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.checkpoints++
}

func (o *countingObserver) LotChanged(string, string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lots++
}

func (o *countingObserver) TipsUsed(_ string, _ string, n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tips += n
}

func (o *countingObserver) RunFinished(_ string, status domain.RunStatus, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = status
}

func TestExecuteGoldenGateMatchesTipEstimate(t *testing.T) {
	plan := goldenGatePlan(t, 13)
	journal := memory.NewStore()
	rec := NewRecorder(AutoResume{})
	obs := &countingObserver{}

	run, err := NewExecutor(rec, WithJournal(journal), WithObserver(obs)).
		Execute(context.Background(), newRun(t, journal, "run-1"), plan)
	require.NoError(t, err)

	assert.Equal(t, domain.RunCompleted, run.Status)
	assert.Equal(t, len(plan.Operations), run.Executed)
	assert.Equal(t, plan.Tips.Raw, rec.Count(CmdPickUpTip))
	assert.Equal(t, rec.Count(CmdPickUpTip), rec.Count(CmdDropTip))
	assert.Equal(t, plan.CountTips(), obs.tips)
	assert.Equal(t, len(plan.Operations), obs.ops)
	assert.Equal(t, len(plan.Checkpoints()), obs.checkpoints)
	assert.Equal(t, len(plan.LotChanges()), obs.lots)
	assert.Equal(t, domain.RunCompleted, obs.finished)
	assert.Equal(t, len(plan.Checkpoints()), rec.Count(CmdPause))

	stored, ok, err := journal.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.RunCompleted, stored.Status)
}

func TestExecuteJournalsOneEventPerOperationInOrder(t *testing.T) {
	plan := goldenGatePlan(t, 2)
	journal := memory.NewStore()

	_, err := NewExecutor(NewRecorder(nil), WithJournal(journal)).
		Execute(context.Background(), newRun(t, journal, "run-1"), plan)
	require.NoError(t, err)

	events, err := journal.ListEvents(context.Background(), "run-1")
	require.NoError(t, err)
	var seqs []int
	checkpoints, resumes := 0, 0
	for _, e := range events {
		switch e.Type {
		case domain.EventOperation:
			seqs = append(seqs, e.Seq)
		case domain.EventCheckpoint:
			checkpoints++
		case domain.EventCheckpointResume:
			resumes++
		}
	}
	require.Len(t, seqs, len(plan.Operations))
	for i, op := range plan.Operations {
		assert.Equal(t, op.Seq, seqs[i])
	}
	assert.Equal(t, len(plan.Checkpoints()), checkpoints)
	assert.Equal(t, checkpoints, resumes)
}

type cancellingPauser struct {
	cancel context.CancelFunc
}

func (p cancellingPauser) Wait(ctx context.Context, _ string) error {
	p.cancel()
	return ctx.Err()
}

func TestExecuteCancelledAtCheckpointAborts(t *testing.T) {
	plan := goldenGatePlan(t, 2)
	journal := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := NewRecorder(cancellingPauser{cancel: cancel})
	obs := &countingObserver{}

	run, err := NewExecutor(rec, WithJournal(journal), WithObserver(obs)).
		Execute(ctx, newRun(t, journal, "run-1"), plan)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.RunAborted, run.Status)
	assert.Equal(t, domain.RunAborted, obs.finished)
	assert.Less(t, run.Executed, len(plan.Operations))
	assert.Equal(t, 1, rec.Count(CmdPause))

	stored, _, _ := journal.GetRun(context.Background(), "run-1")
	assert.Equal(t, domain.RunAborted, stored.Status)
	assert.NotEmpty(t, stored.Error)
}

func TestExecuteAlreadyCancelled(t *testing.T) {
	plan := goldenGatePlan(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := NewRecorder(nil)

	run, err := NewExecutor(rec).Execute(ctx, domain.Run{ID: "r"}, plan)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.RunAborted, run.Status)
	assert.Zero(t, run.Executed)
	assert.Empty(t, rec.Commands())
}

func TestExecuteLockBlocksSecondRun(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "robot.lock")
	held := flock.New(lockPath)
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	journal := memory.NewStore()
	rec := NewRecorder(nil)
	busy, err := NewExecutor(rec, WithLockFile(lockPath), WithJournal(journal)).Execute(context.Background(), newRun(t, journal, "busy"), goldenGatePlan(t, 1))
	assert.ErrorIs(t, err, ErrRobotBusy)
	assert.Empty(t, rec.Commands())
	assert.Equal(t, domain.RunFailed, busy.Status)
	stored, ok, err := journal.GetRun(context.Background(), "busy")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.RunFailed, stored.Status)
	assert.Equal(t, ErrRobotBusy.Error(), stored.Error)

	require.NoError(t, held.Unlock())
	run, err := NewExecutor(rec, WithLockFile(lockPath)).Execute(context.Background(), domain.Run{ID: "r"}, goldenGatePlan(t, 1))
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, run.Status)
}

type failingRobot struct {
	*Recorder
	failOn string
}

func (f failingRobot) Mix(ctx context.Context, pipette string, reps int, volume float64, well domain.WellRef, rate float64) error {
	if f.failOn == CmdMix {
		return errors.New("pipette jammed")
	}
	return f.Recorder.Mix(ctx, pipette, reps, volume, well, rate)
}

func TestExecuteRobotFailureMarksFailed(t *testing.T) {
	plan := domain.Plan{Workflow: "colony_pcr", Operations: []domain.Operation{
		{Seq: 0, Kind: domain.KindPickUpTip, Pipette: "p20"},
		{Seq: 1, Kind: domain.KindMix, Pipette: "p20", Repetitions: 3, Volume: 10, Destinations: []domain.WellRef{{Labware: "mix_tubes", Well: "A1"}}},
		{Seq: 2, Kind: domain.KindDropTip, Pipette: "p20"},
	}}
	journal := memory.NewStore()

	run, err := NewExecutor(failingRobot{Recorder: NewRecorder(nil), failOn: CmdMix}, WithJournal(journal)).
		Execute(context.Background(), newRun(t, journal, "run-1"), plan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipette jammed")
	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Equal(t, 1, run.Executed)
}

func TestExecuteTranslatesTipPolicies(t *testing.T) {
	src := domain.WellRef{Labware: "dna_plate", Well: "A1"}
	dests := []domain.WellRef{{Labware: "out", Well: "A1"}, {Labware: "out", Well: "B1"}, {Labware: "out", Well: "C1"}}
	plan := domain.Plan{Operations: []domain.Operation{
		{Seq: 0, Kind: domain.KindPartTransfer, Pipette: "p20", Tip: domain.TipPerDestination, Volume: 2, Source: &src, Destinations: dests, BlowOut: domain.BlowOutDestination},
		{Seq: 1, Kind: domain.KindReagentDistribute, Pipette: "p20", Tip: domain.TipOnce, Volume: 5, Source: &src, Destinations: dests, DisposalVolume: 1},
		{Seq: 2, Kind: domain.KindLotChange, Pipette: "p20", Message: "replace tip racks", Lot: &domain.LotChange{Resource: "tip racks p20", Lot: 1, Total: 2, Blocking: true}},
		{Seq: 3, Kind: domain.KindLotChange, Message: "next agar plate", Lot: &domain.LotChange{Resource: "agar", Lot: 1, Total: 2}},
	}}
	rec := NewRecorder(nil)

	_, err := NewExecutor(rec).Execute(context.Background(), domain.Run{ID: "r"}, plan)
	require.NoError(t, err)

	assert.Equal(t, plan.CountTips(), rec.Count(CmdPickUpTip))
	assert.Equal(t, 3, rec.Count(CmdTransfer))
	assert.Equal(t, 3, rec.Count(CmdBlowOut))
	assert.Equal(t, 1, rec.Count(CmdDistribute))
	assert.Equal(t, 1, rec.Count(CmdPause))
	assert.Equal(t, 1, rec.Count(CmdResetTips))
	assert.Equal(t, 1, rec.Count(CmdComment))

	cmds := rec.Commands()
	assert.Equal(t, CmdPickUpTip, cmds[0].Name)
	assert.Equal(t, CmdTransfer, cmds[1].Name)
	assert.Equal(t, CmdBlowOut, cmds[2].Name)
	assert.Equal(t, CmdDropTip, cmds[3].Name)
}

func TestExecuteRejectsUnknownKind(t *testing.T) {
	plan := domain.Plan{Operations: []domain.Operation{{Kind: "centrifuge"}}}
	run, err := NewExecutor(NewRecorder(nil)).Execute(context.Background(), domain.Run{ID: "r"}, plan)
	require.Error(t, err)
	assert.Equal(t, domain.RunFailed, run.Status)
}
