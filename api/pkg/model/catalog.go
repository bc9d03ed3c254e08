// Package model holds the static model catalog, the model-name alias table
// and the VRAM estimator used for models the catalog does not know.
package model

// Spec describes one registered Hugging Face model. MinVRAMGB is the
// minimum GPU memory required to run the model without OOM (weights +
// activations + CUDA context), not the raw weight size.
type Spec struct {
	HFModelID   string
	PipelineTag string
	MinVRAMGB   int
	Notes       string
}

// catalog maps HF model IDs to known-good VRAM floors. Loaded once,
// immutable at runtime.
var catalog = map[string]Spec{
	"black-forest-labs/FLUX.1-schnell": {
		HFModelID:   "black-forest-labs/FLUX.1-schnell",
		PipelineTag: "text-to-image",
		MinVRAMGB:   16,
		Notes:       "12 GB weights + activation headroom",
	},
	"black-forest-labs/FLUX.1-dev": {
		HFModelID:   "black-forest-labs/FLUX.1-dev",
		PipelineTag: "text-to-image",
		MinVRAMGB:   28,
		Notes:       "24 GB weights + overhead, 24 GB cards OOM",
	},
	"stabilityai/stable-diffusion-xl-base-1.0": {
		HFModelID:   "stabilityai/stable-diffusion-xl-base-1.0",
		PipelineTag: "text-to-image",
		MinVRAMGB:   12,
	},
	"stabilityai/sdxl-turbo": {
		HFModelID:   "stabilityai/sdxl-turbo",
		PipelineTag: "text-to-image",
		MinVRAMGB:   10,
	},
	"stabilityai/sd-turbo": {
		HFModelID:   "stabilityai/sd-turbo",
		PipelineTag: "text-to-image",
		MinVRAMGB:   8,
	},
	"stabilityai/stable-diffusion-2-1": {
		HFModelID:   "stabilityai/stable-diffusion-2-1",
		PipelineTag: "text-to-image",
		MinVRAMGB:   8,
	},
	"runwayml/stable-diffusion-v1-5": {
		HFModelID:   "runwayml/stable-diffusion-v1-5",
		PipelineTag: "text-to-image",
		MinVRAMGB:   6,
	},
	"stabilityai/stable-diffusion-3-medium-diffusers": {
		HFModelID:   "stabilityai/stable-diffusion-3-medium-diffusers",
		PipelineTag: "text-to-image",
		MinVRAMGB:   18,
	},
	"stabilityai/stable-diffusion-3.5-large": {
		HFModelID:   "stabilityai/stable-diffusion-3.5-large",
		PipelineTag: "text-to-image",
		MinVRAMGB:   40,
	},
	"stabilityai/stable-diffusion-3.5-large-turbo": {
		HFModelID:   "stabilityai/stable-diffusion-3.5-large-turbo",
		PipelineTag: "text-to-image",
		MinVRAMGB:   40,
	},
	"stabilityai/stable-diffusion-3.5-medium": {
		HFModelID:   "stabilityai/stable-diffusion-3.5-medium",
		PipelineTag: "text-to-image",
		MinVRAMGB:   18,
	},
	"PixArt-alpha/PixArt-Sigma-XL-2-1024-MS": {
		HFModelID:   "PixArt-alpha/PixArt-Sigma-XL-2-1024-MS",
		PipelineTag: "text-to-image",
		MinVRAMGB:   18,
	},
	"kandinsky-community/kandinsky-2-2-decoder": {
		HFModelID:   "kandinsky-community/kandinsky-2-2-decoder",
		PipelineTag: "text-to-image",
		MinVRAMGB:   10,
	},
	"DeepFloyd/IF-I-XL-v1.0": {
		HFModelID:   "DeepFloyd/IF-I-XL-v1.0",
		PipelineTag: "text-to-image",
		MinVRAMGB:   40,
	},
	"Wan-AI/Wan2.1-T2V-14B-Diffusers": {
		HFModelID:   "Wan-AI/Wan2.1-T2V-14B-Diffusers",
		PipelineTag: "text-to-video",
		MinVRAMGB:   80,
	},
	"Wan-AI/Wan2.1-T2V-1.3B-Diffusers": {
		HFModelID:   "Wan-AI/Wan2.1-T2V-1.3B-Diffusers",
		PipelineTag: "text-to-video",
		MinVRAMGB:   16,
	},
	"THUDM/CogVideoX-5b": {
		HFModelID:   "THUDM/CogVideoX-5b",
		PipelineTag: "text-to-video",
		MinVRAMGB:   48,
	},
}

// Lookup returns the registered spec for a model, if any.
func Lookup(hfModelID string) (Spec, bool) {
	spec, ok := catalog[hfModelID]
	return spec, ok
}
