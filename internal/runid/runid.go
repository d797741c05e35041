// Package runid generates identifiers for simulation runs.
//
// IDs are UUIDv7 values written as 26 lowercase characters of Crockford's
// base32, so they sort lexically in creation order and fit in a filename.
package runid

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length of every encoded ID
const Length = 26

var encoding = base32.NewEncoding(alphabet).WithPadding(base32.NoPadding)

// New returns a fresh run ID
func New() (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return Encode(u), nil
}

// Encode writes u in the run ID form
func Encode(u uuid.UUID) string {
	return encoding.EncodeToString(u[:])
}

// Decode parses a run ID back into its UUID. Upper case is accepted.
func Decode(id string) (uuid.UUID, error) {
	if len(id) != Length {
		return uuid.Nil, fmt.Errorf("run id %q: want %d characters, got %d", id, Length, len(id))
	}
	b, err := encoding.DecodeString(strings.ToLower(id))
	if err != nil {
		return uuid.Nil, fmt.Errorf("run id %q: %w", id, err)
	}
	return uuid.FromBytes(b)
}
