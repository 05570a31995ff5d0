package credential

import (
	"math"
	"time"
)

const (
	// DefaultMargin is subtracted from a token's lifetime to renew it
	// before it actually expires.
	DefaultMargin = 60 * time.Second

	// DefaultFloor is the shortest delay between two renewal attempts. It
	// is also the retry delay after a failed renewal.
	DefaultFloor = 60 * time.Second
)

// maxLifetime is the largest expires_in, in seconds, a time.Duration can hold
const maxLifetime = math.MaxInt64 / int64(time.Second)

// RenewalDelay returns max(expiresIn - margin, floor).
func RenewalDelay(expiresIn int, margin, floor time.Duration) time.Duration {
	lifetime := min(int64(expiresIn), maxLifetime)
	delay := time.Duration(lifetime)*time.Second - margin
	if delay < floor {
		return floor
	}
	return delay
}
