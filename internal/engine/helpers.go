package engine

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

// GenerateSessionID returns a random (v4) UUID string.
func GenerateSessionID() string {
	return uuid.NewString()
}

// GenerateSeed returns a fresh fight seed. It is called once, when the
// fight is created; resolution only ever reads the stored seed.
func GenerateSeed() int64 {
	return rand.Int64()
}

func clampHP(hp, max int) int {
	if hp < 0 {
		return 0
	}
	if hp > max {
		return max
	}
	return hp
}
