package partition

import (
	"fmt"

	"github.com/spaolacci/murmur3"
)

// Fingerprint returns the hex-encoded 128-bit murmur3 hash of a raw FIT
// payload. The fingerprint identifies an activity across runs and backs
// idempotent export: a payload already present in the catalog is skipped.
func Fingerprint(data []byte) string {
	h1, h2 := murmur3.Sum128(data)
	return fmt.Sprintf("%016x%016x", h1, h2)
}
