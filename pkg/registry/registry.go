// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"assessment-workers/internal/common/validation"
)

const DefaultPath = "configs/activity-registry.json"

var (
	ErrActivityNotFound = errors.New("activity not found")
	ErrDuplicate        = errors.New("activity already exists")
)

// InvalidRegistryError lists every problem found by Validate.
type InvalidRegistryError struct {
	Problems []string
}

func (e *InvalidRegistryError) Error() string {
	return fmt.Sprintf("invalid activity registry: %s", strings.Join(e.Problems, "; "))
}

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	return &reg, nil
}

// Save writes the registry as indented JSON, creating parent directories.
func Save(reg *ActivityRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

// Find looks an activity up by its Zeebe task type.
func (r *ActivityRegistry) Find(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

// TaskTypes returns the registered task types in sorted order.
func (r *ActivityRegistry) TaskTypes() []string {
	out := make([]string, 0, len(r.Activities))
	for _, a := range r.Activities {
		out = append(out, a.TaskType)
	}
	sort.Strings(out)
	return out
}

// Add appends an activity and stamps LastUpdated.
func (r *ActivityRegistry) Add(a Activity, now time.Time) error {
	for _, existing := range r.Activities {
		if existing.ID == a.ID {
			return fmt.Errorf("%w: %s", ErrDuplicate, a.ID)
		}
	}
	r.Activities = append(r.Activities, a)
	r.LastUpdated = now.UTC().Format(time.RFC3339)
	return nil
}

// Update sets a single scalar field on the activity with the given id.
func (r *ActivityRegistry) Update(id, field, value string, now time.Time) error {
	for i := range r.Activities {
		a := &r.Activities[i]
		if a.ID != id {
			continue
		}
		switch field {
		case "status":
			a.ImplementationStatus = value
		case "version":
			a.Version = value
		case "displayName":
			a.DisplayName = value
		case "description":
			a.Description = value
		case "category":
			a.Category = value
		case "timeout":
			a.Timeout = value
		case "retries":
			retries, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid retries value: %w", err)
			}
			a.Retries = retries
		default:
			return fmt.Errorf("unknown field: %s", field)
		}
		r.LastUpdated = now.UTC().Format(time.RFC3339)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrActivityNotFound, id)
}

// Validate checks required fields, uniqueness of ids and task types, timeouts
// and that every input schema compiles.
func (r *ActivityRegistry) Validate() error {
	var problems []string
	if len(r.Activities) == 0 {
		problems = append(problems, "registry contains no activities")
	}

	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)
	for i, a := range r.Activities {
		label := a.ID
		if label == "" {
			label = fmt.Sprintf("activities[%d]", i)
			problems = append(problems, fmt.Sprintf("%s: missing id", label))
		} else if ids[a.ID] {
			problems = append(problems, fmt.Sprintf("duplicate activity id: %s", a.ID))
		}
		ids[a.ID] = true

		if a.TaskType == "" {
			problems = append(problems, fmt.Sprintf("%s: missing taskType", label))
		} else if taskTypes[a.TaskType] {
			problems = append(problems, fmt.Sprintf("duplicate taskType: %s", a.TaskType))
		}
		taskTypes[a.TaskType] = true

		if a.DisplayName == "" {
			problems = append(problems, fmt.Sprintf("%s: missing displayName", label))
		}
		if a.Category == "" {
			problems = append(problems, fmt.Sprintf("%s: missing category", label))
		}
		if a.Retries < 0 {
			problems = append(problems, fmt.Sprintf("%s: negative retries", label))
		}
		if _, err := a.TimeoutDuration(); err != nil {
			problems = append(problems, err.Error())
		}
		if len(a.InputSchema) > 0 {
			if _, err := validation.Compile(a.InputSchema); err != nil {
				problems = append(problems, fmt.Sprintf("%s: inputSchema: %v", label, err))
			}
		}
	}

	if len(problems) > 0 {
		return &InvalidRegistryError{Problems: problems}
	}
	return nil
}

// InputSchemas compiles the input schema of every activity that declares one,
// keyed by task type.
func (r *ActivityRegistry) InputSchemas() (map[string]*validation.Schema, error) {
	out := make(map[string]*validation.Schema)
	for _, a := range r.Activities {
		if len(a.InputSchema) == 0 {
			continue
		}
		schema, err := validation.Compile(a.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("activity %s: %w", a.ID, err)
		}
		out[a.TaskType] = schema
	}
	return out, nil
}
