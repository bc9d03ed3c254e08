package system

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDeploymentID(t *testing.T) {
	id := GenerateDeploymentID()
	assert.True(t, strings.HasPrefix(id, "dep_"))

	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		next := GenerateDeploymentID()
		require.False(t, seen[next], "ids must be unique")
		seen[next] = true
	}
}

func TestHashOwnerKey(t *testing.T) {
	hash := HashOwnerKey("rp-key")
	assert.Len(t, hash, 64)
	assert.Equal(t, hash, HashOwnerKey("rp-key"))
	assert.NotEqual(t, hash, HashOwnerKey("other-key"))
	assert.NotContains(t, hash, "rp-key")
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, "****", MaskSecret("short"))
	assert.Equal(t, "rpa_****", MaskSecret("rpa_longsecretvalue"))
}
