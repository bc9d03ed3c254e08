package model

import (
	"github.com/visgate/visgate/api/pkg/types"
)

// bytesPerParam maps safetensors dtype names to their per-parameter byte
// width. Unknown dtypes are treated as 4 bytes.
var bytesPerParam = map[string]float64{
	"F64":     8,
	"I64":     8,
	"INT64":   8,
	"F32":     4,
	"I32":     4,
	"INT32":   4,
	"BF16":    2,
	"F16":     2,
	"I16":     2,
	"INT16":   2,
	"F8_E4M3": 1,
	"F8_E5M2": 1,
	"I8":      1,
	"INT8":    1,
	"U8":      1,
	"UINT8":   1,
	"BOOL":    1,
}

const defaultBytesPerParam = 4

// vramMultiplier covers activations, CUDA context and allocator
// fragmentation on top of raw weight bytes.
const vramMultiplier = 1.35

// vramTiersGB are the VRAM floors we snap estimates up to. They mirror the
// memory steps of the GPU catalog.
var vramTiersGB = []int{6, 8, 10, 12, 16, 24, 28, 40, 48, 80}

// EstimateVRAM computes the minimum GPU memory in GB for a model from its
// safetensors dtype -> parameter-count map.
func EstimateVRAM(parameters map[string]int64) (int, error) {
	if len(parameters) == 0 {
		return 0, types.NewAPIError(types.ErrorKindUnsupportedModel,
			"model has no registered spec and no parseable parameter map")
	}
	var bytes float64
	for dtype, count := range parameters {
		width, ok := bytesPerParam[dtype]
		if !ok {
			width = defaultBytesPerParam
		}
		bytes += float64(count) * width
	}
	if bytes <= 0 {
		return 0, types.NewAPIError(types.ErrorKindUnsupportedModel,
			"model parameter map contains no parameters")
	}
	gb := bytes * vramMultiplier / (1 << 30)
	return snapToTier(gb), nil
}

// snapToTier rounds a fractional GB requirement up to the nearest catalog
// tier; anything beyond the table lands on the largest tier.
func snapToTier(gb float64) int {
	for _, tier := range vramTiersGB {
		if float64(tier) >= gb {
			return tier
		}
	}
	return vramTiersGB[len(vramTiersGB)-1]
}

// MinVRAMFor resolves the memory floor for a model: catalog first, then the
// dtype-weighted estimate.
func MinVRAMFor(hfModelID string, parameters map[string]int64) (int, error) {
	if spec, ok := Lookup(hfModelID); ok {
		return spec.MinVRAMGB, nil
	}
	return EstimateVRAM(parameters)
}
