package gpu

import (
	"sort"

	"github.com/visgate/visgate/api/pkg/types"
)

// SelectCandidates returns the ordered GPU candidate list for a model
// needing minVRAMGB, cheapest first. When requestedTier resolves to a
// sufficient spec it becomes the first candidate; a resolving but too-small
// tier is an error rather than a silent upgrade.
func SelectCandidates(minVRAMGB int, requestedTier string) ([]Spec, error) {
	var preferred *Spec
	if requestedTier != "" {
		spec, ok := Resolve(requestedTier)
		if ok {
			if spec.VRAMGB < minVRAMGB {
				return nil, types.NewUnsupportedGPUError(requestedTier, spec.VRAMGB, minVRAMGB)
			}
			preferred = &spec
		}
		// Unknown aliases fall through to pure cost ordering: the hint is
		// advisory, an unservable-but-valid tier is not.
	}

	var candidates []Spec
	for _, spec := range catalog {
		if spec.VRAMGB >= minVRAMGB {
			candidates = append(candidates, spec)
		}
	}
	if len(candidates) == 0 {
		return nil, types.NewInsufficientGPUError(minVRAMGB)
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.CostIndex != b.CostIndex {
			return a.CostIndex < b.CostIndex
		}
		if a.VRAMGB != b.VRAMGB {
			return a.VRAMGB < b.VRAMGB
		}
		return a.TierID < b.TierID
	})

	if preferred == nil {
		return candidates, nil
	}

	ordered := []Spec{*preferred}
	for _, spec := range candidates {
		if spec.TierID != preferred.TierID {
			ordered = append(ordered, spec)
		}
	}
	return ordered, nil
}
