package integration

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slowpoke/internal/artifacts"
	"slowpoke/internal/blob"
	"slowpoke/internal/core"
	"slowpoke/internal/infra/blob/fs"
	memoryblob "slowpoke/internal/infra/blob/memory"
	"slowpoke/internal/infra/blob/s3"
	"slowpoke/internal/infra/persistence/memory"
	"slowpoke/internal/infra/persistence/sqlite"
	"slowpoke/internal/metrics"
	"slowpoke/internal/robot"
	"slowpoke/pkg/domain"
	"strings"
	"testing"
)

func goldenGateRecipe(n int) domain.Recipe {
	parts := []string{"backbone", "promoter", "cds", "terminator"}
	combos := make([]domain.Combination, n)
	for i := range combos {
		combos[i] = domain.Combination{Name: fmt.Sprintf("construct_%d", i+1), Parts: parts}
	}
	return domain.Recipe{
		Workflow:     "golden_gate",
		Combinations: combos,
		PlateMaps:    []domain.PlateMap{{Name: "dna_plate", Cells: [][]string{parts}}},
	}
}

// TestIntegrationSmoke runs a Golden Gate recipe end to end against every
// in-process journal and artifact backend.
func TestIntegrationSmoke(t *testing.T) {
	ctx := context.Background()

	journalVariants := []struct {
		name string
		open func(t *testing.T) domain.JournalStore
	}{
		{
			name: "memory-journal",
			open: func(_ *testing.T) domain.JournalStore { return memory.NewStore() },
		},
		{
			name: "sqlite-journal",
			open: func(t *testing.T) domain.JournalStore {
				s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "journal.db"))
				if err != nil {
					t.Fatalf("new sqlite store: %v", err)
				}
				t.Cleanup(func() { _ = s.Close() })
				return s
			},
		},
	}

	blobVariants := []struct {
		name string
		open func(t *testing.T) blob.Store
	}{
		{
			name: "memory-blob",
			open: func(_ *testing.T) blob.Store { return memoryblob.New() },
		},
		{
			name: "filesystem-blob",
			open: func(t *testing.T) blob.Store {
				s, err := fs.New(t.TempDir())
				if err != nil {
					t.Fatalf("new filesystem blob: %v", err)
				}
				return s
			},
		},
		{
			name: "mock-s3-blob",
			open: func(_ *testing.T) blob.Store { return s3.NewMock("slowpoke") },
		},
	}

	for _, jv := range journalVariants {
		for _, bv := range blobVariants {
			t.Run(jv.name+"/"+bv.name, func(t *testing.T) {
				journal := jv.open(t)
				store := bv.open(t)
				m := metrics.New()
				var traceBuffer bytes.Buffer
				tracer := core.NewJSONTracer(&traceBuffer)
				svc := core.NewService(nil,
					core.WithJournal(journal),
					core.WithArtifacts(artifacts.NewPublisher(store)),
					core.WithMetrics(m),
					core.WithTracer(tracer),
				)
				rec := robot.NewRecorder(robot.AutoResume{})
				executor := robot.NewExecutor(rec, robot.WithJournal(journal), robot.WithObserver(m))

				recipe := goldenGateRecipe(5)
				run, err := svc.Run(ctx, recipe, executor)
				if err != nil {
					t.Fatalf("run: %v", err)
				}
				if run.Status != domain.RunCompleted {
					t.Fatalf("expected completed run, got %s", run.Status)
				}

				stored, ok, err := journal.GetRun(ctx, run.ID)
				if err != nil || !ok {
					t.Fatalf("expected journaled run %s: %v", run.ID, err)
				}
				if stored.Executed != stored.Operations {
					t.Fatalf("expected every operation executed, got %d/%d", stored.Executed, stored.Operations)
				}
				events, err := journal.ListEvents(ctx, run.ID)
				if err != nil {
					t.Fatalf("list events: %v", err)
				}
				ops := 0
				for _, e := range events {
					if e.Type == domain.EventOperation {
						ops++
					}
				}
				if ops != stored.Operations {
					t.Fatalf("expected %d operation events, got %d", stored.Operations, ops)
				}

				infos, err := store.List(ctx, "runs/"+run.ID+"/")
				if err != nil {
					t.Fatalf("list artifacts: %v", err)
				}
				var keys []string
				for _, info := range infos {
					keys = append(keys, info.Key)
				}
				want := artifacts.Key(run.ID, artifacts.AgarFile)
				found := false
				for _, k := range keys {
					if k == want {
						found = true
					}
				}
				if !found {
					t.Fatalf("expected %s among artifacts %v", want, keys)
				}

				textfile := filepath.Join(t.TempDir(), "slowpoke.prom")
				if err := m.WriteTextfile(textfile); err != nil {
					t.Fatalf("write metrics: %v", err)
				}
				prom, err := os.ReadFile(textfile)
				if err != nil {
					t.Fatalf("read metrics: %v", err)
				}
				if !strings.Contains(string(prom), `slowpoke_robot_runs_total{status="completed",workflow="golden_gate"} 1`) {
					t.Fatalf("expected one completed run metric:\n%s", prom)
				}
				if traceBuffer.Len() == 0 {
					t.Fatalf("expected trace exporter to emit spans")
				}
				var foundSpan bool
				for _, r := range tracer.Records() {
					if r.Operation == "run" && r.Status == "ok" {
						foundSpan = true
					}
				}
				if !foundSpan {
					t.Fatalf("expected run span, got %+v", tracer.Records())
				}
				if !strings.Contains(traceBuffer.String(), `"operation":"run"`) {
					t.Fatalf("expected run span in trace output: %s", traceBuffer.String())
				}
			})
		}
	}
}
