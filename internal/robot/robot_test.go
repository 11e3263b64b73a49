package robot

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"slowpoke/pkg/domain"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Robot = (*Recorder)(nil)
var _ Robot = (*Transcript)(nil)

func TestTranscriptWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTranscript(&buf, nil)
	ctx := context.Background()
	well := domain.WellRef{Labware: "mix_tubes", Well: "A1"}

	require.NoError(t, tr.LoadInstrument(ctx, domain.LabwareSpec{Name: "p20", Definition: "p20_single_gen2", Location: "left"}))
	require.NoError(t, tr.PickUpTip(ctx, "p20"))
	require.NoError(t, tr.Mix(ctx, "p20", 5, 15, well, 1))
	require.NoError(t, tr.BlowOut(ctx, "p20", nil))
	require.NoError(t, tr.Pause(ctx, "seal the plate"))

	var cmds []Command
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var c Command
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &c))
		cmds = append(cmds, c)
	}
	require.Len(t, cmds, 5)
	for i, c := range cmds {
		assert.Equal(t, i, c.Seq)
	}
	assert.Equal(t, CmdLoadInstrument, cmds[0].Name)
	assert.Equal(t, "p20_single_gen2", cmds[0].Labware.Definition)
	assert.Equal(t, 5, cmds[2].Repetitions)
	assert.Equal(t, "A1", cmds[2].Well.Well)
	assert.Nil(t, cmds[3].Well)
	assert.Equal(t, "seal the plate", cmds[4].Message)
}

func TestRecorderRefusesCancelledContext(t *testing.T) {
	rec := NewRecorder(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, rec.PickUpTip(ctx, "p20"), context.Canceled)
	assert.Empty(t, rec.Commands())
}

func TestConsolePauserResumesOnEnter(t *testing.T) {
	var out bytes.Buffer
	p := NewConsolePauser(strings.NewReader("\n"), &out)

	require.NoError(t, p.Wait(context.Background(), "Load competent cells"))
	assert.Contains(t, out.String(), "PAUSED")
	assert.Contains(t, out.String(), "Load competent cells")
	assert.Contains(t, out.String(), "Press Enter to resume.")
}

func TestConsolePauserEndOfInputResumes(t *testing.T) {
	p := NewConsolePauser(strings.NewReader(""), io.Discard)
	assert.NoError(t, p.Wait(context.Background(), "msg"))
}

func TestConsolePauserHonoursCancellation(t *testing.T) {
	in, w := io.Pipe()
	defer func() { _ = w.Close() }()
	p := NewConsolePauser(in, io.Discard)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, p.Wait(ctx, "msg"), context.DeadlineExceeded)
}

func TestAutoResume(t *testing.T) {
	assert.NoError(t, AutoResume{}.Wait(context.Background(), "x"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, AutoResume{}.Wait(ctx, "x"), context.Canceled)
}
