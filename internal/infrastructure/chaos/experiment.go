package chaos

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
)

// Experiment is one named fault-injection experiment, typically
// declared in a staging YAML file.
type Experiment struct {
	// ID is generated when absent from the file
	ID string `yaml:"id"`
	// Name is the human-readable experiment name
	Name string `yaml:"name"`
	// Target names the dependency (pool key / breaker name) exercised
	Target string `yaml:"target"`
	// Config holds the fault parameters
	Config `yaml:",inline"`
}

// experimentFile is the on-disk document shape
type experimentFile struct {
	Experiments []Experiment `yaml:"experiments"`
}

// LoadExperiments reads experiment declarations from a YAML file.
// Every experiment is validated; missing IDs are assigned.
func LoadExperiments(path string) ([]Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read experiments file: %w", err)
	}
	return ParseExperiments(data)
}

// ParseExperiments decodes and validates experiment declarations.
func ParseExperiments(data []byte) ([]Experiment, error) {
	var file experimentFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse experiments: %w", err)
	}

	for i := range file.Experiments {
		e := &file.Experiments[i]
		e.Config = e.Config.withDefaults()
		if err := e.Config.validate(); err != nil {
			return nil, fmt.Errorf("experiment %q: %w", e.Name, err)
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
	}
	return file.Experiments, nil
}
