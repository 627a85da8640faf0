package id

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// Generator creates opaque identifiers.
type Generator interface {
	New() string
}

// RandomHex yields Bytes random bytes hex-encoded; 16 bytes when unset.
type RandomHex struct {
	Bytes int
}

func (g RandomHex) New() string {
	n := g.Bytes
	if n <= 0 {
		n = 16
	}
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// ShortUUID yields the first 8 hex characters of a random UUID, used as a
// uniqueness suffix next to a timestamp.
type ShortUUID struct{}

func (ShortUUID) New() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
