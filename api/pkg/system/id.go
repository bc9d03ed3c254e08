package system

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const DeploymentPrefix = "dep_"

const idAlphabet = "0123456789abcdef"

// GenerateDeploymentID returns a human-recognizable, monotonic-ish id of
// the form dep_2026_a1b2c3d4.
func GenerateDeploymentID() string {
	suffix := gonanoid.MustGenerate(idAlphabet, 8)
	return fmt.Sprintf("%s%d_%s", DeploymentPrefix, time.Now().UTC().Year(), suffix)
}

// HashOwnerKey derives the stateless ownership proof from a caller's
// provider key. Only this digest is ever stored or logged.
func HashOwnerKey(providerKey string) string {
	sum := sha256.Sum256([]byte(providerKey))
	return hex.EncodeToString(sum[:])
}
