package trace

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeTraceHash computes the sha256 hex of a canonical trace encoding.
// It assumes the bytes come from EvaluationTrace.CanonicalJSON.
func ComputeTraceHash(canonicalEncoding []byte) string {
	if len(canonicalEncoding) == 0 {
		return ""
	}
	sum := sha256.Sum256(canonicalEncoding)
	return hex.EncodeToString(sum[:])
}
