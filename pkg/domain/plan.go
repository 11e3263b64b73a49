package domain

// OperationKind identifies the robot-facing action an Operation performs.
type OperationKind string

// Operation kinds emitted by the sequencers.
const (
	KindLoadModule        OperationKind = "load_module"
	KindLoadLabware       OperationKind = "load_labware"
	KindLoadInstrument    OperationKind = "load_instrument"
	KindSetTemperature    OperationKind = "set_temperature"
	KindAwaitTemperature  OperationKind = "await_temperature"
	KindDeactivate        OperationKind = "deactivate"
	KindPickUpTip         OperationKind = "pick_up_tip"
	KindDropTip           OperationKind = "drop_tip"
	KindReagentDistribute OperationKind = "reagent_distribute"
	KindDistribute        OperationKind = "distribute"
	KindPartTransfer      OperationKind = "part_transfer"
	KindTransfer          OperationKind = "transfer"
	KindMix               OperationKind = "mix"
	KindBlowOut           OperationKind = "blow_out"
	KindCheckpointPause   OperationKind = "checkpoint_pause"
	KindLotChange         OperationKind = "lot_change"
)

// TipPolicy describes how an operation acquires tips.
type TipPolicy string

const (
	// TipHeld reuses the tip picked up by an explicit pick_up_tip operation.
	TipHeld TipPolicy = ""
	// TipOnce uses a single fresh tip for the whole operation.
	TipOnce TipPolicy = "once"
	// TipPerDestination uses a fresh tip for every destination.
	TipPerDestination TipPolicy = "per_destination"
)

// BlowOutTarget names where residual liquid is expelled.
type BlowOutTarget string

const (
	BlowOutNone        BlowOutTarget = ""
	BlowOutDestination BlowOutTarget = "destination"
	BlowOutTrash       BlowOutTarget = "trash"
)

// LabwareSpec describes a piece of labware, module or instrument to load.
type LabwareSpec struct {
	Name       string   `json:"name"`
	Definition string   `json:"definition"`
	Location   string   `json:"location"`
	TipRacks   []string `json:"tip_racks,omitempty"`
}

// LotChange records a consumable changeover.
type LotChange struct {
	Resource string `json:"resource"`
	Lot      int    `json:"lot"`
	Total    int    `json:"total"`
	Blocking bool   `json:"blocking"`
}

// Operation is one step of a sequenced plan. Fields irrelevant to the Kind
// are left zero.
type Operation struct {
	Seq            int           `json:"seq"`
	Kind           OperationKind `json:"kind"`
	Stage          string        `json:"stage,omitempty"`
	Pipette        string        `json:"pipette,omitempty"`
	Tip            TipPolicy     `json:"tip,omitempty"`
	Volume         float64       `json:"volume,omitempty"`
	Source         *WellRef      `json:"source,omitempty"`
	Destinations   []WellRef     `json:"destinations,omitempty"`
	Repetitions    int           `json:"repetitions,omitempty"`
	Rate           float64       `json:"rate,omitempty"`
	DisposalVolume float64       `json:"disposal_volume,omitempty"`
	BlowOut        BlowOutTarget `json:"blow_out,omitempty"`
	Message        string        `json:"message,omitempty"`
	Module         string        `json:"module,omitempty"`
	Celsius        float64       `json:"celsius,omitempty"`
	Labware        *LabwareSpec  `json:"labware,omitempty"`
	Lot            *LotChange    `json:"lot,omitempty"`
}

// TotalVolume reports the liquid dispensed across all destinations.
func (o Operation) TotalVolume() float64 {
	return o.Volume * float64(len(o.Destinations))
}

// Tips reports how many fresh tips the operation consumes.
func (o Operation) Tips() int {
	switch {
	case o.Kind == KindPickUpTip:
		return 1
	case o.Tip == TipOnce:
		return 1
	case o.Tip == TipPerDestination:
		return len(o.Destinations)
	default:
		return 0
	}
}

// TransferBatch is a group of destinations served from one source visit.
type TransferBatch struct {
	Source       WellRef   `json:"source"`
	Destinations []WellRef `json:"destinations"`
	Volume       float64   `json:"volume"`
}

// TotalVolume reports the sum dispensed across the batch.
func (b TransferBatch) TotalVolume() float64 {
	return b.Volume * float64(len(b.Destinations))
}

// OutputAssignment maps a combination to its reaction well.
type OutputAssignment struct {
	Combination string  `json:"combination"`
	Index       int     `json:"index"`
	Plate       int     `json:"plate"`
	Well        WellRef `json:"well"`
}

// TipEstimate summarises tip consumption for a plan.
type TipEstimate struct {
	Raw   int `json:"raw"`
	Total int `json:"total"`
	Racks int `json:"racks"`
}

// ReagentRequirement lists a bulk reagent the operator must prepare.
type ReagentRequirement struct {
	Name     string  `json:"name"`
	Location WellRef `json:"location"`
	Volume   float64 `json:"volume"`
}

// Plan is the validated, fully sequenced output of a workflow.
type Plan struct {
	Workflow   string               `json:"workflow"`
	Operations []Operation          `json:"operations"`
	Outputs    []OutputAssignment   `json:"outputs"`
	Tips       TipEstimate          `json:"tips"`
	Reagents   []ReagentRequirement `json:"reagents,omitempty"`
	Warnings   []Violation          `json:"warnings,omitempty"`
}

// CountTips sums the tips consumed by every operation in the plan.
func (p Plan) CountTips() int {
	total := 0
	for _, op := range p.Operations {
		total += op.Tips()
	}
	return total
}

// Checkpoints returns the operations that block awaiting the operator.
func (p Plan) Checkpoints() []Operation {
	var out []Operation
	for _, op := range p.Operations {
		if op.Kind == KindCheckpointPause || (op.Kind == KindLotChange && op.Lot != nil && op.Lot.Blocking) {
			out = append(out, op)
		}
	}
	return out
}

// LotChanges returns the consumable changeovers in plan order.
func (p Plan) LotChanges() []Operation {
	var out []Operation
	for _, op := range p.Operations {
		if op.Kind == KindLotChange {
			out = append(out, op)
		}
	}
	return out
}

// Count reports how many operations of the given kind the plan holds.
func (p Plan) Count(kind OperationKind) int {
	n := 0
	for _, op := range p.Operations {
		if op.Kind == kind {
			n++
		}
	}
	return n
}
