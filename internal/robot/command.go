package robot

import (
	"context"
	"encoding/json"
	"io"
	"slowpoke/pkg/domain"
	"sync"
)

// Command names written by the recording robots.
const (
	CmdLoadLabware      = "load_labware"
	CmdLoadModule       = "load_module"
	CmdLoadInstrument   = "load_instrument"
	CmdPickUpTip        = "pick_up_tip"
	CmdDropTip          = "drop_tip"
	CmdResetTips        = "reset_tips"
	CmdAspirate         = "aspirate"
	CmdDispense         = "dispense"
	CmdTransfer         = "transfer"
	CmdDistribute       = "distribute"
	CmdMix              = "mix"
	CmdBlowOut          = "blow_out"
	CmdSetTemperature   = "set_temperature"
	CmdAwaitTemperature = "await_temperature"
	CmdDeactivate       = "deactivate"
	CmdComment          = "comment"
	CmdPause            = "pause"
)

// Command is one robot call in wire form.
type Command struct {
	Seq          int                 `json:"seq"`
	Name         string              `json:"command"`
	Pipette      string              `json:"pipette,omitempty"`
	Module       string              `json:"module,omitempty"`
	Volume       float64             `json:"volume,omitempty"`
	Rate         float64             `json:"rate,omitempty"`
	Repetitions  int                 `json:"repetitions,omitempty"`
	Celsius      float64             `json:"celsius,omitempty"`
	Well         *domain.WellRef     `json:"well,omitempty"`
	Source       *domain.WellRef     `json:"source,omitempty"`
	Destinations []domain.WellRef    `json:"destinations,omitempty"`
	Distribution *Distribution       `json:"distribution,omitempty"`
	Labware      *domain.LabwareSpec `json:"labware,omitempty"`
	Message      string              `json:"message,omitempty"`
}

// commandRobot implements Robot by handing every call to record as a
// Command. Pauses are recorded and then delegated to the pauser.
type commandRobot struct {
	record func(Command) error
	pauser Pauser
}

func (r *commandRobot) do(ctx context.Context, cmd Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.record(cmd)
}

func (r *commandRobot) LoadLabware(ctx context.Context, spec domain.LabwareSpec) error {
	return r.do(ctx, Command{Name: CmdLoadLabware, Labware: &spec})
}

func (r *commandRobot) LoadModule(ctx context.Context, spec domain.LabwareSpec) error {
	return r.do(ctx, Command{Name: CmdLoadModule, Module: spec.Name, Labware: &spec})
}

func (r *commandRobot) LoadInstrument(ctx context.Context, spec domain.LabwareSpec) error {
	return r.do(ctx, Command{Name: CmdLoadInstrument, Pipette: spec.Name, Labware: &spec})
}

func (r *commandRobot) PickUpTip(ctx context.Context, pipette string) error {
	return r.do(ctx, Command{Name: CmdPickUpTip, Pipette: pipette})
}

func (r *commandRobot) DropTip(ctx context.Context, pipette string) error {
	return r.do(ctx, Command{Name: CmdDropTip, Pipette: pipette})
}

func (r *commandRobot) ResetTips(ctx context.Context, pipette string) error {
	return r.do(ctx, Command{Name: CmdResetTips, Pipette: pipette})
}

func (r *commandRobot) Aspirate(ctx context.Context, pipette string, volume float64, well domain.WellRef, rate float64) error {
	return r.do(ctx, Command{Name: CmdAspirate, Pipette: pipette, Volume: volume, Well: &well, Rate: rate})
}

func (r *commandRobot) Dispense(ctx context.Context, pipette string, volume float64, well domain.WellRef, rate float64) error {
	return r.do(ctx, Command{Name: CmdDispense, Pipette: pipette, Volume: volume, Well: &well, Rate: rate})
}

func (r *commandRobot) Transfer(ctx context.Context, t Transfer) error {
	return r.do(ctx, Command{
		Name:         CmdTransfer,
		Pipette:      t.Pipette,
		Volume:       t.Volume,
		Source:       &t.Source,
		Destinations: []domain.WellRef{t.Destination},
		Rate:         t.Rate,
	})
}

func (r *commandRobot) Distribute(ctx context.Context, d Distribution) error {
	return r.do(ctx, Command{Name: CmdDistribute, Pipette: d.Pipette, Volume: d.Volume, Distribution: &d})
}

func (r *commandRobot) Mix(ctx context.Context, pipette string, repetitions int, volume float64, well domain.WellRef, rate float64) error {
	return r.do(ctx, Command{Name: CmdMix, Pipette: pipette, Repetitions: repetitions, Volume: volume, Well: &well, Rate: rate})
}

func (r *commandRobot) BlowOut(ctx context.Context, pipette string, well *domain.WellRef) error {
	return r.do(ctx, Command{Name: CmdBlowOut, Pipette: pipette, Well: well})
}

func (r *commandRobot) SetTemperature(ctx context.Context, module string, celsius float64) error {
	return r.do(ctx, Command{Name: CmdSetTemperature, Module: module, Celsius: celsius})
}

func (r *commandRobot) AwaitTemperature(ctx context.Context, module string, celsius float64) error {
	return r.do(ctx, Command{Name: CmdAwaitTemperature, Module: module, Celsius: celsius})
}

func (r *commandRobot) Deactivate(ctx context.Context, module string) error {
	return r.do(ctx, Command{Name: CmdDeactivate, Module: module})
}

func (r *commandRobot) Comment(ctx context.Context, message string) error {
	return r.do(ctx, Command{Name: CmdComment, Message: message})
}

func (r *commandRobot) Pause(ctx context.Context, message string) error {
	if err := r.do(ctx, Command{Name: CmdPause, Message: message}); err != nil {
		return err
	}
	if r.pauser == nil {
		return nil
	}
	return r.pauser.Wait(ctx, message)
}

// Recorder is an in-memory Robot used for dry runs and tests.
type Recorder struct {
	commandRobot
	mu       sync.Mutex
	commands []Command
}

// NewRecorder returns a recorder that resumes pauses through pauser. A nil
// pauser resumes immediately.
func NewRecorder(pauser Pauser) *Recorder {
	r := &Recorder{}
	r.commandRobot = commandRobot{record: r.append, pauser: pauser}
	return r
}

func (r *Recorder) append(cmd Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cmd.Seq = len(r.commands)
	r.commands = append(r.commands, cmd)
	return nil
}

// Commands returns a copy of the recorded commands.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Count reports how many commands with the given name were recorded.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.commands {
		if c.Name == name {
			n++
		}
	}
	return n
}

// Transcript writes every command as a JSON line for a robot-side driver
// to replay.
type Transcript struct {
	commandRobot
	mu  sync.Mutex
	enc *json.Encoder
	seq int
}

// NewTranscript returns a transcript robot writing to w.
func NewTranscript(w io.Writer, pauser Pauser) *Transcript {
	t := &Transcript{enc: json.NewEncoder(w)}
	t.commandRobot = commandRobot{record: t.write, pauser: pauser}
	return t
}

func (t *Transcript) write(cmd Command) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	cmd.Seq = t.seq
	t.seq++
	return t.enc.Encode(cmd)
}
