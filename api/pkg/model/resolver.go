package model

import (
	"strings"

	"github.com/visgate/visgate/api/pkg/types"
)

type aliasKey struct {
	provider string // "" matches any provider
	name     string
}

// nameAliases resolves short model names from upstream catalogs (e.g.
// get_models(provider, name)) to HF model IDs.
var nameAliases = map[aliasKey]string{
	{"fal", "veo3"}:       "black-forest-labs/FLUX.1-schnell",
	{"fal", "veo2"}:       "black-forest-labs/FLUX.1-schnell",
	{"", "veo3"}:          "black-forest-labs/FLUX.1-schnell",
	{"", "flux-schnell"}:  "black-forest-labs/FLUX.1-schnell",
	{"", "flux-dev"}:      "black-forest-labs/FLUX.1-dev",
	{"", "sdxl-turbo"}:    "stabilityai/sdxl-turbo",
	{"", "sd-turbo"}:      "stabilityai/sd-turbo",
	{"", "sdxl"}:          "stabilityai/stable-diffusion-xl-base-1.0",
	{"", "sd3.5-large"}:   "stabilityai/stable-diffusion-3.5-large",
	{"", "cogvideox-5b"}:  "THUDM/CogVideoX-5b",
	{"", "wan2.1-t2v-1b"}: "Wan-AI/Wan2.1-T2V-1.3B-Diffusers",
}

// ResolveAlias maps (model_name, optional provider hint) to an HF model ID.
// The provider-qualified entry wins over the provider-agnostic one.
func ResolveAlias(modelName, providerHint string) (string, error) {
	name := strings.TrimSpace(modelName)
	if name == "" {
		return "", types.NewValidationError("model_name must not be empty")
	}
	provider := strings.ToLower(strings.TrimSpace(providerHint))
	for _, p := range []string{provider, ""} {
		if hfID, ok := nameAliases[aliasKey{p, name}]; ok {
			return hfID, nil
		}
	}
	return "", types.NewAPIError(types.ErrorKindModelNotFound, "unknown model: %s", name).
		WithDetail("model_name", modelName).
		WithDetail("provider", providerHint)
}
