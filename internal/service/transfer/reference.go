package transfer

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// creditLegSuffix marks the recipient-side journal row of an internal
// transfer; the shared prefix links both legs.
const creditLegSuffix = "-IN"

// generateReference produces a human-readable, unique transfer reference.
// Uniqueness is probabilistic here; the unique index on the reference column
// is the hard backstop.
func generateReference(now time.Time) (string, error) {
	var suffix [4]byte
	if _, err := rand.Read(suffix[:]); err != nil {
		return "", fmt.Errorf("generateReference: %w", err)
	}
	return fmt.Sprintf("TRF-%s-%s",
		now.UTC().Format("20060102150405"),
		strings.ToUpper(hex.EncodeToString(suffix[:])),
	), nil
}

func creditLegReference(original string) string {
	return original + creditLegSuffix
}
