// Package checksum provides content fingerprints used for HTTP cache
// validation.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/starford/sowilo/internal/models"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Records fingerprints a resolved snapshot. Two snapshots of an
// unchanged content tree produce the same digest, so the result is
// usable as an ETag. Source paths are excluded from serialization and
// never influence the digest.
func Records(records []models.ContentRecord) string {
	data, err := json.Marshal(records)
	if err != nil {
		return ""
	}
	return Sum(data)
}
