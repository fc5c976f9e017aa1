// Package checksum computes the content digests used for If-Match checks.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Item digests the editable fields of a collection item. The label and the
// payload are separated by a NUL byte so ("ab", "c") and ("a", "bc") differ.
func Item(label string, payload []byte) string {
	h := sha256.New()
	h.Write([]byte(label))
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
