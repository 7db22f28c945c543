package retry

import (
	"math/rand"
	"time"

	"github.com/szmania/mega-manager/internal/logger"
)

// Do retries the given function up to maxAttempts with exponential backoff
// and jitter. The last error is returned when every attempt fails.
func Do(maxAttempts int, baseDelay time.Duration, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if attempt < maxAttempts {
			delay := baseDelay * (1 << (attempt - 1))
			if delay > 0 {
				delay += time.Duration(rand.Int63n(int64(delay/2) + 1))
			}
			logger.Debug("Attempt %d failed: %v. Retrying in %v...", attempt, err, delay)
			time.Sleep(delay)
		}
	}
	return err
}
