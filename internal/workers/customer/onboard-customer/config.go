// internal/workers/customer/onboard-customer/config.go
package onboardcustomer

import (
	"time"

	"customer-onboarding/internal/common/config"
)

type Config struct {
	Timeout    time.Duration
	MinimumAge int
}

func LoadConfig(wcfg config.WorkerConfig, onboarding config.OnboardingConfig) *Config {
	timeout := 30 * time.Second
	if wcfg.Timeout > 0 {
		timeout = config.GetDuration(wcfg.Timeout)
	}
	return &Config{
		Timeout:    timeout,
		MinimumAge: onboarding.MinimumAge,
	}
}
