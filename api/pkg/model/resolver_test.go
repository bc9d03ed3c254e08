package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visgate/visgate/api/pkg/types"
)

func TestResolveAlias_ProviderQualifiedWins(t *testing.T) {
	hfID, err := ResolveAlias("veo3", "fal")
	require.NoError(t, err)
	assert.Equal(t, "black-forest-labs/FLUX.1-schnell", hfID)
}

func TestResolveAlias_ProviderAgnosticFallback(t *testing.T) {
	hfID, err := ResolveAlias("sdxl", "some-unknown-provider")
	require.NoError(t, err)
	assert.Equal(t, "stabilityai/stable-diffusion-xl-base-1.0", hfID)
}

func TestResolveAlias_UnknownName(t *testing.T) {
	_, err := ResolveAlias("does-not-exist", "")
	require.Error(t, err)

	var apiErr *types.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, types.ErrorKindModelNotFound, apiErr.Kind)
}

func TestResolveAlias_EmptyName(t *testing.T) {
	_, err := ResolveAlias("  ", "fal")
	require.Error(t, err)

	var apiErr *types.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, types.ErrorKindValidation, apiErr.Kind)
}
