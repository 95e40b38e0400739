package domain

import (
	"fmt"
	"math"
	"time"
)

// MaxRetryAttempts is the hard ceiling on fetch attempts per migration.
const MaxRetryAttempts = 10

// RetryPolicy controls how transient source fetch failures are retried.
type RetryPolicy struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"   json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"    json:"max_delay"`
	Multiplier  float64       `yaml:"multiplier"   json:"multiplier"`
	// Jitter is the fraction of each delay that is randomized, in [0, 1].
	Jitter float64 `yaml:"jitter" json:"jitter"`
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2,
		Jitter:      0.2,
	}
}

// Delay returns the wait before retry number attempt (1-based: the wait
// after the first failed attempt is Delay(1)). rnd must return a value in
// [0, 1); it is nil-safe and treated as 0.5 when absent.
func (p RetryPolicy) Delay(attempt int, rnd func() float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(p.BaseDelay) * math.Pow(mult, float64(attempt-1))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	if p.Jitter > 0 {
		r := 0.5
		if rnd != nil {
			r = rnd()
		}
		// spread evenly across [d*(1-j), d*(1+j)]
		d = d * (1 - p.Jitter + 2*p.Jitter*r)
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 || p.MaxAttempts > MaxRetryAttempts {
		return fmt.Errorf("retry.max_attempts must be between 1 and %d (got %d)", MaxRetryAttempts, p.MaxAttempts)
	}
	if p.BaseDelay < 0 || p.MaxDelay < 0 {
		return fmt.Errorf("retry delays must not be negative")
	}
	if p.MaxDelay > 0 && p.BaseDelay > p.MaxDelay {
		return fmt.Errorf("retry.base_delay %s exceeds retry.max_delay %s", p.BaseDelay, p.MaxDelay)
	}
	if p.Multiplier != 0 && p.Multiplier < 1 {
		return fmt.Errorf("retry.multiplier must be >= 1 (got %.2f)", p.Multiplier)
	}
	if p.Jitter < 0 || p.Jitter > 1 {
		return fmt.Errorf("retry.jitter must be between 0 and 1 (got %.2f)", p.Jitter)
	}
	return nil
}
