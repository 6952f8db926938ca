package bootstrap

import (
	"github.com/alizenart/closeted/internal/config"
	"github.com/alizenart/closeted/internal/infrastructure/resilience"
)

// RetryPolicy is the retry wrapper policy for reads and uploads.
func RetryPolicy(cfg config.Config) resilience.Policy {
	policy := resilience.Policy{
		MaxAttempts: cfg.RetryMaxAttempts,
		Delay:       resilience.Fixed(cfg.RetryDelay),
	}
	if cfg.RetryBackoff == config.BackoffExponential {
		policy.Delay = resilience.Exponential(cfg.RetryDelay, cfg.RetryMaxDelay, 2)
	}
	return policy
}

// ExecutorConfig tunes the breaker-guarded executor used by outbound adapters.
func ExecutorConfig(cfg config.Config) resilience.Config {
	out := resilience.DefaultConfig()
	out.BreakerEnabled = cfg.BreakerEnabled
	if cfg.BreakerOpenTimeout > 0 {
		out.BreakerOpenTimeout = cfg.BreakerOpenTimeout
	}
	return out
}
