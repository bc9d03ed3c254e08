package system

// MaskSecret redacts a sensitive value for logging, keeping just enough of
// the prefix to correlate. All log and webhook serialization of provider
// keys and HF tokens must go through this.
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****"
}
