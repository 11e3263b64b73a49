package core

import (
	"slices"
	"slowpoke/pkg/domain"
)

// WorkflowKind selects the sequencer a profile drives.
type WorkflowKind string

const (
	KindGoldenGate WorkflowKind = "golden_gate"
	KindColonyPCR  WorkflowKind = "colony_pcr"
)

// PCR master-mix arrangements.
const (
	MixSingle  = "single"
	MixGrouped = "grouped"
)

// Template delivery strategies for colony PCR.
const (
	// TemplatePerReaction transfers each template in reaction order with a
	// fresh tip and a blow-out.
	TemplatePerReaction = "per_reaction"
	// TemplateMixPerDestination visits templates colony by colony, mixing
	// each destination with its own tip.
	TemplateMixPerDestination = "mix_per_destination"
	// TemplateDistribute distributes each colony to all its destinations
	// from a single tip.
	TemplateDistribute = "distribute"
)

// LabwareSlot places a labware definition on the deck. Location is a deck
// slot or the name of a module.
type LabwareSlot struct {
	Name       string `koanf:"name"`
	Definition string `koanf:"definition"`
	Location   string `koanf:"location"`
	Rows       int    `koanf:"rows"`
	Columns    int    `koanf:"columns"`
}

// Geometry returns the well grid of the labware.
func (l LabwareSlot) Geometry() domain.Geometry {
	return domain.Geometry{Rows: l.Rows, Columns: l.Columns}
}

// Spec converts the slot into the load payload handed to the robot.
func (l LabwareSlot) Spec() *domain.LabwareSpec {
	return &domain.LabwareSpec{Name: l.Name, Definition: l.Definition, Location: l.Location}
}

// Well returns a reference to the named well of this labware.
func (l LabwareSlot) Well(name string) domain.WellRef {
	return domain.WellRef{Labware: l.Name, Well: name}
}

// WellAt returns the column-major well at index.
func (l LabwareSlot) WellAt(index int) domain.WellRef {
	return domain.AddressAt(l.Name, index, l.Geometry()).Ref(l.Name)
}

// ModuleSlot is a temperature module.
type ModuleSlot struct {
	Name       string  `koanf:"name"`
	Definition string  `koanf:"definition"`
	Location   string  `koanf:"location"`
	Celsius    float64 `koanf:"celsius"`
	Await      bool    `koanf:"await"`
}

// PipetteSlot mounts a pipette.
type PipetteSlot struct {
	Name         string   `koanf:"name"`
	Model        string   `koanf:"model"`
	Mount        string   `koanf:"mount"`
	Capacity     float64  `koanf:"capacity"`
	TipRack      string   `koanf:"tip_rack"`
	TipRackSlots []string `koanf:"tip_rack_slots"`
}

// Deck describes the labware a workflow loads.
type Deck struct {
	Trash    string        `koanf:"trash"`
	Modules  []ModuleSlot  `koanf:"modules"`
	Pipettes []PipetteSlot `koanf:"pipettes"`
	Sources  []LabwareSlot `koanf:"sources"` // bound to plate maps in order
	Outputs  []LabwareSlot `koanf:"outputs"`
	Reagents LabwareSlot   `koanf:"reagents"`
	Extra    []LabwareSlot `koanf:"extra"`
}

// OutputCapacity reports how many reactions the output plates can hold.
func (d Deck) OutputCapacity() int {
	total := 0
	for _, o := range d.Outputs {
		total += o.Geometry().Capacity()
	}
	return total
}

// Pipette returns the named pipette.
func (d Deck) Pipette(name string) (PipetteSlot, bool) {
	for _, p := range d.Pipettes {
		if p.Name == name {
			return p, true
		}
	}
	return PipetteSlot{}, false
}

// Labware returns the named labware among sources, outputs, reagents and extras.
func (d Deck) Labware(name string) (LabwareSlot, bool) {
	all := append(append(append(append([]LabwareSlot{}, d.Sources...), d.Outputs...), d.Reagents), d.Extra...)
	for _, l := range all {
		if l.Name == name {
			return l, true
		}
	}
	return LabwareSlot{}, false
}

// GoldenGateParams configures assembly, transformation and plating.
type GoldenGateParams struct {
	Pipette          string  `koanf:"pipette"`
	ReactionVolume   float64 `koanf:"reaction_volume"`
	PartVolume       float64 `koanf:"part_volume"`
	PartsPerReaction int     `koanf:"parts_per_reaction"`
	BufferVolume     float64 `koanf:"buffer_volume"`
	EnzymeVolume     float64 `koanf:"enzyme_volume"`
	SharedWell       string  `koanf:"shared_well"`
	EnzymeWell       string  `koanf:"enzyme_well"`

	BufferCapacity    float64 `koanf:"buffer_capacity"`
	BufferAspirations int     `koanf:"buffer_aspirations"`
	BufferDisposal    float64 `koanf:"buffer_disposal"`
	PartFanout        int     `koanf:"part_fanout"`

	MixRepetitions int     `koanf:"mix_repetitions"`
	MixFraction    float64 `koanf:"mix_fraction"`
	MixCap         float64 `koanf:"mix_cap"`

	CellVolume         float64  `koanf:"cell_volume"`
	CellRate           float64  `koanf:"cell_rate"`
	CellMixRepetitions int      `koanf:"cell_mix_repetitions"`
	CellMixVolume      float64  `koanf:"cell_mix_volume"`
	TubeVolume         float64  `koanf:"tube_volume"`
	TubeSafetyVolume   float64  `koanf:"tube_safety_volume"`
	TubeWells          []string `koanf:"tube_wells"`
	TubesPreloaded     bool     `koanf:"tubes_preloaded"`

	AgarPlate             string         `koanf:"agar_plate"`
	PlatingMixRepetitions int            `koanf:"plating_mix_repetitions"`
	PlatingMixVolume      float64        `koanf:"plating_mix_volume"`
	SpotVolume            float64        `koanf:"spot_volume"`
	SpotDisposal          float64        `koanf:"spot_disposal"`
	SpotOffsets           []domain.Point `koanf:"spot_offsets"`
}

// PartRole assigns a per-reaction volume and tip policy to the reagent at
// one position of a PCR recipe.
type PartRole struct {
	Name    string  `koanf:"name"`
	Volume  float64 `koanf:"volume"`
	Derived bool    `koanf:"derived"`
	// RefreshEvery swaps the tip after this many full chunks; zero keeps
	// one tip for the whole reagent.
	RefreshEvery int `koanf:"refresh_every"`
}

// ThermalStep is one step of a thermocycler program.
type ThermalStep struct {
	Celsius float64 `koanf:"celsius"`
	Seconds int     `koanf:"seconds"`
}

// PCRParams configures colony PCR setup.
type PCRParams struct {
	Mode            string     `koanf:"mode"`
	MixPipette      string     `koanf:"mix_pipette"`
	TemplatePipette string     `koanf:"template_pipette"`
	ReactionVolume  float64    `koanf:"reaction_volume"`
	TemplateVolume  float64    `koanf:"template_volume"`
	Roles           []PartRole `koanf:"roles"`

	SampleFactor float64 `koanf:"sample_factor"`
	SampleExtra  float64 `koanf:"sample_extra"`
	DeadVolume   float64 `koanf:"dead_volume"`
	ChunkVolume  float64 `koanf:"chunk_volume"`
	MixTubeLimit float64 `koanf:"mix_tube_limit"`

	MixRepetitions  int     `koanf:"mix_repetitions"`
	MixVolume       float64 `koanf:"mix_volume"`
	MixPerSample    float64 `koanf:"mix_per_sample"`
	MixSampleOffset float64 `koanf:"mix_sample_offset"`
	MixCap          float64 `koanf:"mix_cap"`
	ManualMixPause  bool    `koanf:"manual_mix_pause"`
	ReadyMessage    string  `koanf:"ready_message"`
	ShareMixTip     bool    `koanf:"share_mix_tip"`

	DistributeAspirations int     `koanf:"distribute_aspirations"`
	DistributeDisposal    float64 `koanf:"distribute_disposal"`

	TemplateMode           string  `koanf:"template_mode"`
	TemplateMixRepetitions int     `koanf:"template_mix_repetitions"`
	TemplateMixFraction    float64 `koanf:"template_mix_fraction"`
	TemplateMixCap         float64 `koanf:"template_mix_cap"`
	TemplateDisposal       float64 `koanf:"template_disposal"`

	SealMessage string        `koanf:"seal_message"`
	Program     []ThermalStep `koanf:"program"`
	Cycles      int           `koanf:"cycles"`
}

// Samples reports how many reactions' worth of master mix a group of n
// members is prepared for.
func (p PCRParams) Samples(n int) float64 {
	return float64(n)*p.SampleFactor + p.SampleExtra
}

// MixVolumeFor returns the homogenisation volume for a master mix of the
// given sample count.
func (p PCRParams) MixVolumeFor(samples float64) float64 {
	if p.MixVolume > 0 {
		return p.MixVolume
	}
	v := p.MixPerSample * (samples + p.MixSampleOffset)
	if p.MixCap > 0 && v > p.MixCap {
		v = p.MixCap
	}
	return v
}

// Profile bundles every parameter a workflow needs.
type Profile struct {
	Name        string           `koanf:"name"`
	Description string           `koanf:"description"`
	Kind        WorkflowKind     `koanf:"kind"`
	Delimiter   string           `koanf:"delimiter"`
	Deck        Deck             `koanf:"deck"`
	GoldenGate  GoldenGateParams `koanf:"golden_gate"`
	PCR         PCRParams        `koanf:"pcr"`
}

// Clone returns a deep copy so overrides never alias the built-in defaults.
func (p Profile) Clone() Profile {
	cp := p
	cp.Deck.Modules = slices.Clone(p.Deck.Modules)
	cp.Deck.Pipettes = slices.Clone(p.Deck.Pipettes)
	for i := range cp.Deck.Pipettes {
		cp.Deck.Pipettes[i].TipRackSlots = slices.Clone(p.Deck.Pipettes[i].TipRackSlots)
	}
	cp.Deck.Sources = slices.Clone(p.Deck.Sources)
	cp.Deck.Outputs = slices.Clone(p.Deck.Outputs)
	cp.Deck.Extra = slices.Clone(p.Deck.Extra)
	cp.GoldenGate.TubeWells = slices.Clone(p.GoldenGate.TubeWells)
	cp.GoldenGate.SpotOffsets = slices.Clone(p.GoldenGate.SpotOffsets)
	cp.PCR.Roles = slices.Clone(p.PCR.Roles)
	cp.PCR.Program = slices.Clone(p.PCR.Program)
	return cp
}
