package core

import "slowpoke/pkg/domain"

const (
	pcrPlate96     = "biorad_96_wellplate_200ul_pcr"
	flatPlate96    = "corning_96_wellplate_360ul_flat"
	aluminumBlock  = "opentrons_24_aluminumblock_nest_1.5ml_snapcap"
	eppendorfRack  = "opentrons_24_tuberack_eppendorf_1.5ml_safelock_snapcap"
	tempModuleGen2 = "temperature module gen2"
	flexTips50     = "opentrons_flex_96_tiprack_50ul"
)

// spotOffsets arranges 13 plating spots on a 6-well agar plate well.
var spotOffsets = []domain.Point{
	{X: 0, Y: 0, Z: 6}, {X: 0, Y: 6, Z: 5}, {X: 6, Y: 0, Z: 6},
	{X: 0, Y: -6, Z: 5}, {X: -6, Y: 0, Z: 6},
	{X: 0, Y: 12, Z: 5}, {X: 7.5, Y: 7.5, Z: 6}, {X: 12, Y: 0, Z: 5},
	{X: 7.5, Y: -7.5, Z: 6}, {X: 0, Y: -12, Z: 5},
	{X: -7.5, Y: -7.5, Z: 6}, {X: -12, Y: 0, Z: 5}, {X: -7.5, Y: 7.5, Z: 6},
}

func plate96(name, definition, location string) LabwareSlot {
	return LabwareSlot{Name: name, Definition: definition, Location: location, Rows: 8, Columns: 12}
}

func rack24(name, definition, location string) LabwareSlot {
	return LabwareSlot{Name: name, Definition: definition, Location: location, Rows: 4, Columns: 6}
}

// GoldenGateProfile returns the Flex Golden Gate assembly, transformation
// and plating profile.
func GoldenGateProfile() Profile {
	return Profile{
		Name:        "golden_gate",
		Description: "Golden Gate assembly, transformation and plating on a Flex",
		Kind:        KindGoldenGate,
		Delimiter:   ";",
		Deck: Deck{
			Trash: "A3",
			Modules: []ModuleSlot{
				{Name: "temp_reaction", Definition: tempModuleGen2, Location: "A1", Celsius: 4},
				{Name: "temp_reagent", Definition: tempModuleGen2, Location: "D3", Celsius: 4},
			},
			Pipettes: []PipetteSlot{{
				Name: "p50", Model: "flex_1channel_50", Mount: "right", Capacity: 50,
				TipRack: flexTips50, TipRackSlots: []string{"B3", "A2", "B1", "B2", "D1", "C3"},
			}},
			Sources: []LabwareSlot{
				plate96("dna_plate", pcrPlate96, "C2"),
				rack24("custom_parts", eppendorfRack, "D2"),
			},
			Outputs:  []LabwareSlot{plate96("reaction_plate", pcrPlate96, "temp_reaction")},
			Reagents: rack24("reagent_block", aluminumBlock, "temp_reagent"),
			Extra: []LabwareSlot{
				{Name: "agar_plate", Definition: "corning_6_wellplate_16.8ml_flat", Location: "C1", Rows: 2, Columns: 3},
			},
		},
		GoldenGate: GoldenGateParams{
			Pipette:               "p50",
			ReactionVolume:        12,
			PartVolume:            1,
			PartsPerReaction:      6,
			BufferVolume:          1.2,
			EnzymeVolume:          1.2,
			SharedWell:            "A1",
			EnzymeWell:            "B1",
			BufferCapacity:        30,
			BufferAspirations:     2,
			BufferDisposal:        1,
			PartFanout:            10,
			MixRepetitions:        3,
			MixFraction:           0.75,
			MixCap:                10,
			CellVolume:            50,
			CellRate:              0.2,
			CellMixRepetitions:    1,
			CellMixVolume:         25,
			TubeVolume:            1100,
			TubeSafetyVolume:      100,
			TubeWells:             []string{"D1", "D2", "D3", "D4", "D5"},
			TubesPreloaded:        true,
			AgarPlate:             "agar_plate",
			PlatingMixRepetitions: 3,
			PlatingMixVolume:      50,
			SpotVolume:            2.5,
			SpotDisposal:          1.5,
			SpotOffsets:           spotOffsets,
		},
	}
}

// ColonyPCRProfile returns the Flex colony PCR profile that prepares one
// master mix shared by every reaction.
func ColonyPCRProfile() Profile {
	return Profile{
		Name:        "colony_pcr",
		Description: "Colony PCR with a single shared master mix on a Flex",
		Kind:        KindColonyPCR,
		Delimiter:   ",",
		Deck: Deck{
			Trash: "A3",
			Modules: []ModuleSlot{
				{Name: "pcr_reagents", Definition: tempModuleGen2, Location: "D3", Celsius: 8, Await: true},
				{Name: "pcr_mix", Definition: tempModuleGen2, Location: "A1", Celsius: 8, Await: true},
			},
			Pipettes: []PipetteSlot{{
				Name: "p50", Model: "flex_1channel_50", Mount: "right", Capacity: 50,
				TipRack: flexTips50, TipRackSlots: []string{"C3", "B3", "A2"},
			}},
			Sources: []LabwareSlot{
				rack24("pcr_deck", aluminumBlock, "pcr_reagents"),
				plate96("colony_templates", pcrPlate96, "D2"),
			},
			Outputs: []LabwareSlot{
				plate96("reaction_plate", pcrPlate96, "C1"),
				plate96("addition_plate", flatPlate96, "D1"),
			},
			Reagents: rack24("mix_tubes", aluminumBlock, "pcr_mix"),
		},
		PCR: PCRParams{
			Mode:            MixSingle,
			MixPipette:      "p50",
			TemplatePipette: "p50",
			ReactionVolume:  10,
			TemplateVolume:  1,
			Roles: []PartRole{
				{Name: "water", Derived: true},
				{Name: "master_mix", Volume: 2.5},
				{Name: "primer_fwd", Volume: 1},
				{Name: "primer_rev", Volume: 1},
			},
			SampleFactor:       1,
			DeadVolume:         2,
			ChunkVolume:        50,
			MixTubeLimit:       1500,
			MixRepetitions:     3,
			MixVolume:          40,
			DistributeDisposal: 2,
			TemplateMode:       TemplatePerReaction,
			SealMessage:        "Please seal the PCR plates and resume run to conduct PCR program.",
			Program: []ThermalStep{
				{Celsius: 95, Seconds: 30},
				{Celsius: 55, Seconds: 30},
				{Celsius: 72, Seconds: 60},
			},
			Cycles: 30,
		},
	}
}

// ColonyPCRHTProfile returns the high-throughput Flex colony PCR profile
// that builds one master mix per group of identical reagent sets.
func ColonyPCRHTProfile() Profile {
	return Profile{
		Name:        "colony_pcr_ht",
		Description: "High-throughput colony PCR with grouped master mixes on a Flex",
		Kind:        KindColonyPCR,
		Delimiter:   ",",
		Deck: Deck{
			Trash: "A3",
			Modules: []ModuleSlot{
				{Name: "reaction_module", Definition: tempModuleGen2, Location: "A1", Celsius: 4},
				{Name: "pcr_reagents", Definition: tempModuleGen2, Location: "D3", Celsius: 4},
			},
			Pipettes: []PipetteSlot{{
				Name: "p50", Model: "flex_1channel_50", Mount: "right", Capacity: 50,
				TipRack: flexTips50, TipRackSlots: []string{"C3", "B3", "A2"},
			}},
			Sources: []LabwareSlot{
				rack24("pcr_deck", aluminumBlock, "pcr_reagents"),
				plate96("colony_templates", pcrPlate96, "B1"),
			},
			Outputs: []LabwareSlot{
				plate96("reaction_plate", pcrPlate96, "reaction_module"),
				plate96("addition_plate", pcrPlate96, "D1"),
			},
			Reagents: rack24("mix_tubes", eppendorfRack, "D2"),
		},
		PCR: PCRParams{
			Mode:            MixGrouped,
			MixPipette:      "p50",
			TemplatePipette: "p50",
			ReactionVolume:  15,
			TemplateVolume:  2,
			Roles: []PartRole{
				{Name: "water", Derived: true, RefreshEvery: 4},
				{Name: "master_mix", Volume: 7.5, RefreshEvery: 4},
				{Name: "primer_fwd", Volume: 1.5, RefreshEvery: 1},
				{Name: "primer_rev", Volume: 1.5, RefreshEvery: 1},
			},
			SampleFactor:           1.2,
			ChunkVolume:            50,
			MixTubeLimit:           1500,
			MixRepetitions:         2,
			MixPerSample:           13,
			MixSampleOffset:        -1,
			MixCap:                 50,
			ManualMixPause:         true,
			ReadyMessage:           "Temp modules ready!",
			DistributeAspirations:  3,
			DistributeDisposal:     1,
			TemplateMode:           TemplateMixPerDestination,
			TemplateMixRepetitions: 3,
			TemplateMixFraction:    0.75,
			TemplateMixCap:         10,
			SealMessage:            "Please seal the PCR plates.",
		},
	}
}

// ColonyPCROT2Profile returns the OT-2 colony PCR profile with a p300 for
// master mixes and a p10 for templates.
func ColonyPCROT2Profile() Profile {
	return Profile{
		Name:        "colony_pcr_ot2",
		Description: "Colony PCR with grouped master mixes on an OT-2",
		Kind:        KindColonyPCR,
		Delimiter:   ",",
		Deck: Deck{
			Modules: []ModuleSlot{
				{Name: "thermocycler", Definition: "Thermocycler Module"},
			},
			Pipettes: []PipetteSlot{
				{Name: "p10", Model: "p10_single", Mount: "right", Capacity: 10, TipRack: "opentrons_96_tiprack_20ul", TipRackSlots: []string{"3"}},
				{Name: "p300", Model: "p300_single", Mount: "left", Capacity: 300, TipRack: "opentrons_96_tiprack_300ul", TipRackSlots: []string{"6"}},
			},
			Sources: []LabwareSlot{
				rack24("pcr_deck", eppendorfRack, "9"),
				plate96("colony_templates", pcrPlate96, "2"),
			},
			Outputs: []LabwareSlot{
				plate96("reaction_plate", pcrPlate96, "thermocycler"),
				plate96("addition_plate", flatPlate96, "4"),
			},
			Reagents: rack24("mix_tubes", eppendorfRack, "5"),
		},
		PCR: PCRParams{
			Mode:            MixGrouped,
			MixPipette:      "p300",
			TemplatePipette: "p10",
			ReactionVolume:  10,
			TemplateVolume:  1,
			Roles: []PartRole{
				{Name: "water", Derived: true},
				{Name: "master_mix", Volume: 5},
				{Name: "primer_fwd", Volume: 1},
				{Name: "primer_rev", Volume: 1},
			},
			SampleFactor:       1,
			SampleExtra:        2,
			ChunkVolume:        300,
			MixTubeLimit:       1500,
			MixRepetitions:     2,
			MixPerSample:       2,
			MixSampleOffset:    4,
			MixCap:             300,
			ShareMixTip:        true,
			DistributeDisposal: 5,
			TemplateMode:       TemplateDistribute,
			TemplateDisposal:   1.5,
			SealMessage:        "Please seal the PCR plates and resume run to conduct PCR program.",
			Program: []ThermalStep{
				{Celsius: 98, Seconds: 15},
				{Celsius: 55, Seconds: 30},
				{Celsius: 72, Seconds: 200},
			},
			Cycles: 30,
		},
	}
}

// DefaultProfiles lists the built-in workflow profiles.
func DefaultProfiles() []Profile {
	return []Profile{
		GoldenGateProfile(),
		ColonyPCRProfile(),
		ColonyPCRHTProfile(),
		ColonyPCROT2Profile(),
	}
}
