// Package gpu holds the static GPU tier catalog and the cost-ordered
// selection algorithm.
package gpu

import (
	"strings"
)

// Spec describes one GPU tier as the provider knows it. CostIndex is a
// qualitative 1 (cheapest) to 10 (most expensive) ordering.
type Spec struct {
	TierID      string
	DisplayName string
	VRAMGB      int
	CostIndex   int
	Family      string
	Aliases     []string
}

// catalog is the provider GPU inventory, loaded once and immutable at
// runtime. TierIDs are RunPod-native pool identifiers.
var catalog = []Spec{
	{
		TierID:      "AMPERE_16",
		DisplayName: "NVIDIA A16",
		VRAMGB:      16,
		CostIndex:   1,
		Family:      "ampere",
		Aliases:     []string{"A16"},
	},
	{
		TierID:      "AMPERE_24",
		DisplayName: "NVIDIA A10 / A30",
		VRAMGB:      24,
		CostIndex:   2,
		Family:      "ampere",
		Aliases:     []string{"A10", "A30"},
	},
	{
		TierID:      "ADA_24",
		DisplayName: "NVIDIA L40 / RTX 4090",
		VRAMGB:      24,
		CostIndex:   3,
		Family:      "ada",
		Aliases:     []string{"4090", "RTX4090", "L40"},
	},
	{
		TierID:      "AMPERE_48",
		DisplayName: "NVIDIA A40",
		VRAMGB:      48,
		CostIndex:   5,
		Family:      "ampere",
		Aliases:     []string{"A40"},
	},
	{
		TierID:      "ADA_48_PRO",
		DisplayName: "NVIDIA L40S",
		VRAMGB:      48,
		CostIndex:   6,
		Family:      "ada",
		Aliases:     []string{"L40S"},
	},
	{
		TierID:      "AMPERE_80",
		DisplayName: "NVIDIA A100",
		VRAMGB:      80,
		CostIndex:   8,
		Family:      "ampere",
		Aliases:     []string{"A100"},
	},
	{
		TierID:      "ADA_80_PRO",
		DisplayName: "NVIDIA H100",
		VRAMGB:      80,
		CostIndex:   10,
		Family:      "hopper",
		Aliases:     []string{"H100"},
	},
}

// Catalog returns a copy of the tier inventory.
func Catalog() []Spec {
	out := make([]Spec, len(catalog))
	copy(out, catalog)
	return out
}

// Resolve maps a user-supplied tier alias (or a native tier id) to its
// spec, case-insensitively.
func Resolve(alias string) (Spec, bool) {
	needle := strings.ToUpper(strings.TrimSpace(alias))
	if needle == "" {
		return Spec{}, false
	}
	for _, spec := range catalog {
		if strings.ToUpper(spec.TierID) == needle {
			return spec, true
		}
		for _, a := range spec.Aliases {
			if strings.ToUpper(a) == needle {
				return spec, true
			}
		}
	}
	return Spec{}, false
}

// DisplayName returns the human name for a tier id, falling back to the id
// itself for tiers the catalog no longer lists.
func DisplayName(tierID string) string {
	for _, spec := range catalog {
		if spec.TierID == tierID {
			return spec.DisplayName
		}
	}
	return tierID
}
