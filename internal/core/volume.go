package core

import "slowpoke/pkg/domain"

// SharedVolume computes the bulk reagent volume per reaction:
// reaction minus the part volumes minus the per-reaction additive.
func SharedVolume(reaction float64, partVolumes []float64, additive float64) (float64, error) {
	shared := reaction - additive
	for _, v := range partVolumes {
		shared -= v
	}
	if shared < 0 {
		return 0, domain.Configf("shared_volume", "reaction volume %.2f uL cannot hold parts and additive (%.2f uL short)", reaction, -shared)
	}
	return shared, nil
}

// MasterMixVolumes returns the per-reaction volume for each reagent role. A
// role marked Derived takes whatever the reaction leaves after the template
// and the other roles.
func MasterMixVolumes(reaction, template float64, roles []PartRole) ([]float64, error) {
	out := make([]float64, len(roles))
	fixed := make([]float64, 0, len(roles))
	derived := -1
	for i, role := range roles {
		if role.Derived {
			if derived >= 0 {
				return nil, domain.Configf("roles", "only one derived role allowed, found %s and %s", roles[derived].Name, role.Name)
			}
			derived = i
			continue
		}
		if role.Volume <= 0 {
			return nil, domain.Configf("roles."+role.Name, "volume must be positive, got %.2f", role.Volume)
		}
		out[i] = role.Volume
		fixed = append(fixed, role.Volume)
	}
	rest, err := SharedVolume(reaction, fixed, template)
	if err != nil {
		return nil, err
	}
	if derived >= 0 {
		if rest <= 0 {
			return nil, domain.Configf("roles."+roles[derived].Name, "derived volume is %.2f uL", rest)
		}
		out[derived] = rest
	}
	return out, nil
}
