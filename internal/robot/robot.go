// Package robot drives sequenced plans against a liquid-handling robot.
package robot

import (
	"context"
	"slowpoke/pkg/domain"
)

// Robot is the command surface of a liquid-handling robot.
type Robot interface {
	LoadLabware(ctx context.Context, spec domain.LabwareSpec) error
	LoadModule(ctx context.Context, spec domain.LabwareSpec) error
	LoadInstrument(ctx context.Context, spec domain.LabwareSpec) error

	PickUpTip(ctx context.Context, pipette string) error
	DropTip(ctx context.Context, pipette string) error
	// ResetTips marks every tip rack of the pipette as full again.
	ResetTips(ctx context.Context, pipette string) error

	Aspirate(ctx context.Context, pipette string, volume float64, well domain.WellRef, rate float64) error
	Dispense(ctx context.Context, pipette string, volume float64, well domain.WellRef, rate float64) error
	Transfer(ctx context.Context, t Transfer) error
	Distribute(ctx context.Context, d Distribution) error
	Mix(ctx context.Context, pipette string, repetitions int, volume float64, well domain.WellRef, rate float64) error
	// BlowOut expels residual liquid into well, or the trash when well is nil.
	BlowOut(ctx context.Context, pipette string, well *domain.WellRef) error

	SetTemperature(ctx context.Context, module string, celsius float64) error
	AwaitTemperature(ctx context.Context, module string, celsius float64) error
	Deactivate(ctx context.Context, module string) error

	Comment(ctx context.Context, message string) error
	// Pause blocks until the operator resumes or ctx is done.
	Pause(ctx context.Context, message string) error
}

// Transfer moves one volume from a source to a single destination with the
// tip currently held.
type Transfer struct {
	Pipette     string         `json:"pipette"`
	Volume      float64        `json:"volume"`
	Source      domain.WellRef `json:"source"`
	Destination domain.WellRef `json:"destination"`
	Rate        float64        `json:"rate,omitempty"`
}

// Distribution dispenses one volume into many destinations from a single
// aspiration sequence.
type Distribution struct {
	Pipette        string               `json:"pipette"`
	Volume         float64              `json:"volume"`
	Source         domain.WellRef       `json:"source"`
	Destinations   []domain.WellRef     `json:"destinations"`
	DisposalVolume float64              `json:"disposal_volume,omitempty"`
	BlowOut        domain.BlowOutTarget `json:"blow_out,omitempty"`
}
