// internal/workers/assessment/compare-benchmark/config.go
package comparebenchmark

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
