// internal/workers/assessment/record-assessment-result/config.go
package recordassessmentresult

import "time"

type Config struct {
	Timeout time.Duration
	// ClearProgress drops the Redis progress entry once the result is stored.
	ClearProgress bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		ClearProgress: true,
	}
}
