// internal/workers/assessment/save-assessment-progress/config.go
package saveassessmentprogress

import "time"

type Config struct {
	Timeout time.Duration
	// PersistResponses mirrors the merged answers onto the Postgres
	// assessment row.
	PersistResponses bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:          10 * time.Second,
		PersistResponses: true,
	}
}
