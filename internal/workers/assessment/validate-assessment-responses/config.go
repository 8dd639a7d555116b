// internal/workers/assessment/validate-assessment-responses/config.go
package validateassessmentresponses

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
