// internal/workers/assessment/notify-assessment-completed/config.go
package notifyassessmentcompleted

import "time"

type Config struct {
	Timeout    time.Duration
	SESEnabled bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    15 * time.Second,
		SESEnabled: false,
	}
}
