package random

import (
	"crypto/rand"
	"fmt"
)

// CollisionResistantLength is a byte length suitable for identifiers that
// must not collide in practice (cookie filenames, subscription tokens):
// 128 bits of entropy.
const CollisionResistantLength = 16

// New returns a byte slice of the specified length with cryptographically
// random conents.
func New(length int) ([]byte, error) {
	// Create the buffer.
	result := make([]byte, length)

	// Read random data.
	if _, err := rand.Read(result[:]); err != nil {
		return nil, fmt.Errorf("unable to read random data: %w", err)
	}

	// Success.
	return result, nil
}
