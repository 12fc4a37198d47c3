package reader

import "time"

// RetryPolicy is a bounded retry budget with exponential backoff. One
// policy is shared by the reconnect path and the auto-restart-read
// path so both are governed by the same limits.
type RetryPolicy struct {
	// MaxAttempts is the number of attempts before giving up.
	MaxAttempts int
	// InitialDelay is the delay before the second attempt.
	InitialDelay time.Duration
	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration
}

// Delay returns the wait before the given attempt (1-based). The first
// attempt has no delay; each subsequent attempt doubles it up to
// MaxDelay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	d := p.InitialDelay
	for i := 2; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Exhausted reports whether the attempt count is over budget.
func (p RetryPolicy) Exhausted(attempt int) bool {
	return attempt > p.MaxAttempts
}
