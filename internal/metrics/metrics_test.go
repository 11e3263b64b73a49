package metrics

import (
	"context"
	"os"
	"path/filepath"
	"slowpoke/internal/core"
	"slowpoke/internal/robot"
	"slowpoke/pkg/domain"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ core.MetricsRecorder   = (*Metrics)(nil)
	_ core.ViolationRecorder = (*Metrics)(nil)
	_ robot.Observer         = (*Metrics)(nil)
)

func TestServiceAndRuleMetrics(t *testing.T) {
	m := New()
	ctx := context.Background()

	m.Observe(ctx, "plan", true, 20*time.Millisecond)
	m.Observe(ctx, "plan", false, time.Millisecond)
	m.ObserveViolations(ctx, "golden_gate", []domain.Violation{
		domain.Warn("ambiguous_part", "gfp", "found twice"),
		domain.Warn("ambiguous_part", "rfp", "found twice"),
	})

	assert.InDelta(t, 1, testutil.ToFloat64(m.serviceOps.WithLabelValues("plan", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.serviceOps.WithLabelValues("plan", "error")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.violations.WithLabelValues("golden_gate", "ambiguous_part", "warn")), 0)
}

func TestRobotObserverMetrics(t *testing.T) {
	m := New()
	m.OperationExecuted("colony_pcr", domain.KindMix)
	m.OperationExecuted("colony_pcr", domain.KindMix)
	m.CheckpointReached("colony_pcr")
	m.LotChanged("golden_gate", "agar plate")
	m.TipsUsed("colony_pcr", "p20", 12)
	m.RunFinished("colony_pcr", domain.RunCompleted, 90*time.Minute)

	assert.InDelta(t, 2, testutil.ToFloat64(m.operations.WithLabelValues("colony_pcr", "mix")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.checkpoints.WithLabelValues("colony_pcr")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.lotChanges.WithLabelValues("golden_gate", "agar plate")), 0)
	assert.InDelta(t, 12, testutil.ToFloat64(m.tips.WithLabelValues("colony_pcr", "p20")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.runs.WithLabelValues("colony_pcr", "completed")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.runDuration))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.TipsUsed("golden_gate", "p20", 3)
	path := filepath.Join(t.TempDir(), "slowpoke.prom")

	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `slowpoke_robot_tips_used_total{pipette="p20",workflow="golden_gate"} 3`)
}
