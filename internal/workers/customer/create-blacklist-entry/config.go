// internal/workers/customer/create-blacklist-entry/config.go
package createblacklistentry

import (
	"time"

	"customer-onboarding/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(wcfg config.WorkerConfig) *Config {
	if wcfg.Timeout > 0 {
		return &Config{Timeout: config.GetDuration(wcfg.Timeout)}
	}
	return &Config{Timeout: 10 * time.Second}
}
