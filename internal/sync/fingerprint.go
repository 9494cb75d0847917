package sync

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/gripfin/grip/internal/domain"
)

// Fingerprint derives a stable dedup key from the message's provider ID and
// delivery timestamp. Re-fetching the same message always yields the same
// fingerprint.
func Fingerprint(msg domain.RawMessage) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", msg.ID, msg.Delivered.UnixMilli())))
	return hex.EncodeToString(sum[:])
}
