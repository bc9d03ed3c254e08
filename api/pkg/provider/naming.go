package provider

import (
	"strings"
)

const endpointNamePrefix = "visgate-"

// EndpointName builds the deterministic provider-side endpoint name for a
// deployment so operator tooling can discover gateway-owned endpoints by
// prefix.
func EndpointName(deploymentID string) string {
	return endpointNamePrefix + shortID(deploymentID)
}

// shortID strips the dep_ prefix, keeping the year + suffix which is
// unique enough for display names.
func shortID(deploymentID string) string {
	return strings.TrimPrefix(deploymentID, "dep_")
}
